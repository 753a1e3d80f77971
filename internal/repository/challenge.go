package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/benchline/api/internal/database"
	"github.com/benchline/api/internal/model"
)

// ChallengeRepository handles challenge data access
type ChallengeRepository struct {
	db *sql.DB
}

// NewChallengeRepository creates a new challenge repository
func NewChallengeRepository(db *sql.DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

const challengeColumns = `id, author, title, source, type, description, deadline, award, deleted, created_at`

func scanChallenge(row interface{ Scan(...interface{}) error }) (*model.Challenge, error) {
	var c model.Challenge
	err := row.Scan(&c.ID, &c.Author, &c.Title, &c.Source, &c.Type,
		&c.Description, &c.Deadline, &c.Award, &c.Deleted, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a new challenge and fills in its ID
func (r *ChallengeRepository) Create(ctx context.Context, c *model.Challenge) error {
	query := `
		INSERT INTO challenges (author, title, source, type, description, deadline, award)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		c.Author, c.Title, c.Source, c.Type, c.Description, c.Deadline, c.Award,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: challenge title already taken", database.ErrDuplicate)
		}
		return err
	}
	return nil
}

// GetByTitle retrieves a live challenge by title
func (r *ChallengeRepository) GetByTitle(ctx context.Context, title string) (*model.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE title = $1 AND NOT deleted`
	return scanChallenge(r.db.QueryRowContext(ctx, query, title))
}

// List returns all live challenges ordered by title
func (r *ChallengeRepository) List(ctx context.Context) ([]*model.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE NOT deleted ORDER BY title`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var challenges []*model.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		challenges = append(challenges, c)
	}
	return challenges, rows.Err()
}

// CountByAuthor returns how many live challenges a user has created
func (r *ChallengeRepository) CountByAuthor(ctx context.Context, author string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM challenges WHERE author = $1 AND NOT deleted`, author).Scan(&n)
	return n, err
}

// Delete soft-deletes a challenge together with its tests and
// submissions in one transaction.
func (r *ChallengeRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE challenges SET deleted = TRUE WHERE id = $1 AND NOT deleted`, id)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE tests SET active = FALSE WHERE challenge_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE submissions SET deleted = TRUE WHERE challenge_id = $1`, id); err != nil {
		return err
	}

	return tx.Commit()
}
