package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/benchline/api/internal/database"
	"github.com/benchline/api/internal/model"
)

// TestRepository handles challenge test data access
type TestRepository struct {
	db *sql.DB
}

// NewTestRepository creates a new test repository
func NewTestRepository(db *sql.DB) *TestRepository {
	return &TestRepository{db: db}
}

const testColumns = `id, challenge_id, metric, metric_parameters, main_metric, active`

func scanTest(row interface{ Scan(...interface{}) error }) (*model.Test, error) {
	var t model.Test
	err := row.Scan(&t.ID, &t.ChallengeID, &t.Metric, &t.MetricParameters, &t.MainMetric, &t.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Create inserts a new test and fills in its ID
func (r *TestRepository) Create(ctx context.Context, t *model.Test) error {
	query := `
		INSERT INTO tests (challenge_id, metric, metric_parameters, main_metric, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		t.ChallengeID, t.Metric, t.MetricParameters, t.MainMetric, t.Active,
	).Scan(&t.ID)
}

// ListActive returns the active tests of a challenge, main metric first
func (r *TestRepository) ListActive(ctx context.Context, challengeID int) ([]*model.Test, error) {
	query := `SELECT ` + testColumns + ` FROM tests
		WHERE challenge_id = $1 AND active
		ORDER BY main_metric DESC, id`
	rows, err := r.db.QueryContext(ctx, query, challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []*model.Test
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

// GetMain returns the main metric test of a challenge
func (r *TestRepository) GetMain(ctx context.Context, challengeID int) (*model.Test, error) {
	query := `SELECT ` + testColumns + ` FROM tests
		WHERE challenge_id = $1 AND main_metric AND active`
	return scanTest(r.db.QueryRowContext(ctx, query, challengeID))
}
