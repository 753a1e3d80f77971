package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/benchline/api/internal/database"
	"github.com/benchline/api/internal/model"
)

// SubmissionRepository handles submission data access
type SubmissionRepository struct {
	db *sql.DB
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// SubmissionRow is a submission joined with its submitter's username.
type SubmissionRow struct {
	model.Submission
	SubmitterName string
}

// Create inserts a new submission and fills in its ID
func (r *SubmissionRepository) Create(ctx context.Context, s *model.Submission) error {
	query := `
		INSERT INTO submissions (challenge_id, submitter, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		s.ChallengeID, s.Submitter, s.Description,
	).Scan(&s.ID, &s.CreatedAt)
}

// GetByID retrieves a live submission by ID
func (r *SubmissionRepository) GetByID(ctx context.Context, id int) (*model.Submission, error) {
	query := `
		SELECT id, challenge_id, submitter, description, deleted, created_at
		FROM submissions WHERE id = $1 AND NOT deleted
	`
	var s model.Submission
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.ChallengeID, &s.Submitter, &s.Description, &s.Deleted, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListByChallenge returns live submissions for a challenge, newest
// first, joined with submitter usernames. If submitter is non-zero the
// listing is restricted to that user.
func (r *SubmissionRepository) ListByChallenge(ctx context.Context, challengeID, submitter int) ([]*SubmissionRow, error) {
	query := `
		SELECT s.id, s.challenge_id, s.submitter, s.description, s.deleted, s.created_at, u.username
		FROM submissions s
		JOIN users u ON u.id = s.submitter
		WHERE s.challenge_id = $1 AND NOT s.deleted
		  AND ($2 = 0 OR s.submitter = $2)
		ORDER BY s.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, challengeID, submitter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*SubmissionRow
	for rows.Next() {
		var s SubmissionRow
		if err := rows.Scan(&s.ID, &s.ChallengeID, &s.Submitter, &s.Description,
			&s.Deleted, &s.CreatedAt, &s.SubmitterName); err != nil {
			return nil, err
		}
		subs = append(subs, &s)
	}
	return subs, rows.Err()
}

// CountBySubmitter returns how many live submissions a user has made
func (r *SubmissionRepository) CountBySubmitter(ctx context.Context, submitter int) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM submissions WHERE submitter = $1 AND NOT deleted`, submitter).Scan(&n)
	return n, err
}
