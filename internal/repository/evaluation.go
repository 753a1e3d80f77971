package repository

import (
	"context"
	"database/sql"

	"github.com/benchline/api/internal/model"
)

// EvaluationRepository handles evaluation score data access
type EvaluationRepository struct {
	db *sql.DB
}

// NewEvaluationRepository creates a new evaluation repository
func NewEvaluationRepository(db *sql.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// CreateBatch inserts all evaluations of one submission atomically
func (r *EvaluationRepository) CreateBatch(ctx context.Context, evals []*model.Evaluation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO evaluations (test_id, submission_id, score)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range evals {
		if err := stmt.QueryRowContext(ctx, e.TestID, e.SubmissionID, e.Score).
			Scan(&e.ID, &e.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ScoreRow is one evaluation joined with its test's metric name.
type ScoreRow struct {
	SubmissionID int
	TestID       int
	Metric       string
	MainMetric   bool
	Score        float64
}

// ListByChallenge returns every evaluation of a challenge's live
// submissions together with the metric each score belongs to.
func (r *EvaluationRepository) ListByChallenge(ctx context.Context, challengeID int) ([]*ScoreRow, error) {
	query := `
		SELECT e.submission_id, e.test_id, t.metric, t.main_metric, e.score
		FROM evaluations e
		JOIN tests t ON t.id = e.test_id
		JOIN submissions s ON s.id = e.submission_id
		WHERE s.challenge_id = $1 AND NOT s.deleted
	`
	rows, err := r.db.QueryContext(ctx, query, challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []*ScoreRow
	for rows.Next() {
		var s ScoreRow
		if err := rows.Scan(&s.SubmissionID, &s.TestID, &s.Metric, &s.MainMetric, &s.Score); err != nil {
			return nil, err
		}
		scores = append(scores, &s)
	}
	return scores, rows.Err()
}
