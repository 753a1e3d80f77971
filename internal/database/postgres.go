package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Config holds database connection settings
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Connect opens a Postgres connection pool and verifies it is reachable.
func Connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 30 * time.Minute
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	return db, nil
}

// schema is applied at startup. Statements are idempotent so restarting
// against an existing database is safe.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            SERIAL PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
		is_author     BOOLEAN NOT NULL DEFAULT FALSE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS challenges (
		id          SERIAL PRIMARY KEY,
		author      TEXT NOT NULL REFERENCES users (username),
		title       TEXT NOT NULL UNIQUE,
		source      TEXT NOT NULL DEFAULT '',
		type        TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		deadline    TEXT NOT NULL DEFAULT '',
		award       TEXT NOT NULL DEFAULT '',
		deleted     BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS tests (
		id                SERIAL PRIMARY KEY,
		challenge_id      INTEGER NOT NULL REFERENCES challenges (id),
		metric            TEXT NOT NULL,
		metric_parameters TEXT NOT NULL DEFAULT '{}',
		main_metric       BOOLEAN NOT NULL DEFAULT FALSE,
		active            BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS submissions (
		id           SERIAL PRIMARY KEY,
		challenge_id INTEGER NOT NULL REFERENCES challenges (id),
		submitter    INTEGER NOT NULL REFERENCES users (id),
		description  TEXT NOT NULL DEFAULT '',
		deleted      BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS evaluations (
		id            SERIAL PRIMARY KEY,
		test_id       INTEGER NOT NULL REFERENCES tests (id),
		submission_id INTEGER NOT NULL REFERENCES submissions (id),
		score         DOUBLE PRECISION NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tests_challenge ON tests (challenge_id)`,
	`CREATE INDEX IF NOT EXISTS idx_submissions_challenge ON submissions (challenge_id)`,
	`CREATE INDEX IF NOT EXISTS idx_evaluations_submission ON evaluations (submission_id)`,
}

// Migrate creates the schema if it does not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
