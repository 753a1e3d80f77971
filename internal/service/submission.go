package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/benchline/api/internal/database"
	"github.com/benchline/api/internal/metrics"
	"github.com/benchline/api/internal/model"
	"github.com/benchline/api/internal/repository"
	"github.com/benchline/api/internal/store"
)

// SubmissionRepository defines the interface for submission storage
type SubmissionRepository interface {
	Create(ctx context.Context, s *model.Submission) error
	ListByChallenge(ctx context.Context, challengeID, submitter int) ([]*repository.SubmissionRow, error)
	CountBySubmitter(ctx context.Context, submitter int) (int, error)
}

// EvaluationRepository defines the interface for evaluation storage
type EvaluationRepository interface {
	CreateBatch(ctx context.Context, evals []*model.Evaluation) error
	ListByChallenge(ctx context.Context, challengeID int) ([]*repository.ScoreRow, error)
}

// SubmissionService handles submission scoring and listings
type SubmissionService struct {
	challengeRepo  ChallengeRepository
	testRepo       TestRepository
	submissionRepo SubmissionRepository
	evaluationRepo EvaluationRepository
	store          ExpectedStore
	logger         *slog.Logger
}

// SubmissionServiceConfig holds configuration for the submission service
type SubmissionServiceConfig struct {
	ChallengeRepo  ChallengeRepository
	TestRepo       TestRepository
	SubmissionRepo SubmissionRepository
	EvaluationRepo EvaluationRepository
	Store          ExpectedStore
	Logger         *slog.Logger
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(cfg SubmissionServiceConfig) *SubmissionService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmissionService{
		challengeRepo:  cfg.ChallengeRepo,
		testRepo:       cfg.TestRepo,
		submissionRepo: cfg.SubmissionRepo,
		evaluationRepo: cfg.EvaluationRepo,
		store:          cfg.Store,
		logger:         logger,
	}
}

// SubmitRequest represents a submission to a challenge
type SubmitRequest struct {
	Challenge   string
	Submitter   *model.User
	Description string
	Output      io.Reader
}

// SubmitResult carries the stored submission and its scores keyed by
// metric name.
type SubmitResult struct {
	Submission *model.Submission
	Scores     map[string]float64
	MainMetric string
}

// Submit scores an uploaded output file against every active test of a
// challenge and stores the submission with its evaluations.
func (s *SubmissionService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	challenge, err := s.challengeRepo.GetByTitle(ctx, req.Challenge)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrChallengeUnknown
		}
		return nil, err
	}

	if challenge.Deadline != "" {
		deadline, err := time.Parse(time.RFC3339, challenge.Deadline)
		if err == nil && time.Now().After(deadline) {
			return nil, ErrDeadlinePassed
		}
	}

	tests, err := s.testRepo.ListActive(ctx, challenge.ID)
	if err != nil {
		return nil, err
	}
	if len(tests) == 0 {
		return nil, ErrNoActiveTests
	}

	expected, err := s.store.ReadExpected(challenge.Title)
	if err != nil {
		return nil, err
	}
	out, err := store.ReadLines(req.Output)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrEmptySubmission
	}

	// Score everything before touching the database so a bad upload
	// never leaves a half-evaluated submission behind.
	scores := make(map[string]float64, len(tests))
	mainMetric := ""
	for _, t := range tests {
		params, err := decodeParams(t.MetricParameters)
		if err != nil {
			return nil, ErrInvalidParams
		}
		score, err := metrics.Calculate(t.Metric, expected, out, params)
		if err != nil {
			return nil, err
		}
		scores[t.Metric] = score
		if t.MainMetric {
			mainMetric = t.Metric
		}
	}

	submission := &model.Submission{
		ChallengeID: challenge.ID,
		Submitter:   req.Submitter.ID,
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		return nil, err
	}

	evals := make([]*model.Evaluation, 0, len(tests))
	for _, t := range tests {
		evals = append(evals, &model.Evaluation{
			TestID:       t.ID,
			SubmissionID: submission.ID,
			Score:        scores[t.Metric],
		})
	}
	if err := s.evaluationRepo.CreateBatch(ctx, evals); err != nil {
		return nil, err
	}

	s.logger.Info("submission evaluated",
		slog.String("challenge", challenge.Title),
		slog.String("submitter", req.Submitter.Username),
		slog.Int("submission_id", submission.ID))
	return &SubmitResult{
		Submission: submission,
		Scores:     scores,
		MainMetric: mainMetric,
	}, nil
}

func decodeParams(raw string) (metrics.Params, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "{}" {
		return nil, nil
	}
	var params metrics.Params
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, err
	}
	return params, nil
}

// Entry is one submission on a listing, with its scores keyed by
// metric name.
type Entry struct {
	ID          int                `json:"id"`
	Submitter   string             `json:"submitter"`
	Description string             `json:"description"`
	Scores      map[string]float64 `json:"scores"`
	MainScore   float64            `json:"main_score"`
	When        time.Time          `json:"when"`
}

// listEntries builds the score table for a challenge, restricted to
// one submitter when submitter is non-zero, sorted by the main metric.
func (s *SubmissionService) listEntries(ctx context.Context, title string, submitter int) ([]*Entry, string, error) {
	challenge, err := s.challengeRepo.GetByTitle(ctx, title)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, "", ErrChallengeNotFound
		}
		return nil, "", err
	}

	main, err := s.testRepo.GetMain(ctx, challenge.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, "", ErrNoActiveTests
		}
		return nil, "", err
	}

	subs, err := s.submissionRepo.ListByChallenge(ctx, challenge.ID, submitter)
	if err != nil {
		return nil, "", err
	}
	scores, err := s.evaluationRepo.ListByChallenge(ctx, challenge.ID)
	if err != nil {
		return nil, "", err
	}

	bySubmission := map[int]map[string]float64{}
	mainScores := map[int]float64{}
	for _, row := range scores {
		m, ok := bySubmission[row.SubmissionID]
		if !ok {
			m = map[string]float64{}
			bySubmission[row.SubmissionID] = m
		}
		m[row.Metric] = row.Score
		if row.MainMetric {
			mainScores[row.SubmissionID] = row.Score
		}
	}

	entries := make([]*Entry, 0, len(subs))
	for _, sub := range subs {
		entries = append(entries, &Entry{
			ID:          sub.ID,
			Submitter:   sub.SubmitterName,
			Description: sub.Description,
			Scores:      bySubmission[sub.ID],
			MainScore:   mainScores[sub.ID],
			When:        sub.CreatedAt,
		})
	}

	sortEntries(entries, main.Metric)
	return entries, main.Metric, nil
}

// sortEntries orders entries best-first according to the main metric's
// direction. Ties keep the earlier submission first.
func sortEntries(entries []*Entry, mainMetric string) {
	higherWins := true
	if m, err := metrics.Get(mainMetric); err == nil {
		higherWins = m.Sorting() == metrics.SortAscending
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].MainScore == entries[j].MainScore {
			return entries[i].When.Before(entries[j].When)
		}
		if higherWins {
			return entries[i].MainScore > entries[j].MainScore
		}
		return entries[i].MainScore < entries[j].MainScore
	})
}

// Listing is a score table for one challenge.
type Listing struct {
	Challenge  string   `json:"challenge"`
	MainMetric string   `json:"main_metric"`
	Entries    []*Entry `json:"entries"`
}

// AllSubmissions returns every live submission of a challenge ranked
// by the main metric.
func (s *SubmissionService) AllSubmissions(ctx context.Context, title string) (*Listing, error) {
	entries, mainMetric, err := s.listEntries(ctx, title, 0)
	if err != nil {
		return nil, err
	}
	return &Listing{Challenge: title, MainMetric: mainMetric, Entries: entries}, nil
}

// MySubmissions returns the caller's live submissions to a challenge
// ranked by the main metric.
func (s *SubmissionService) MySubmissions(ctx context.Context, title string, user *model.User) (*Listing, error) {
	entries, mainMetric, err := s.listEntries(ctx, title, user.ID)
	if err != nil {
		return nil, err
	}
	return &Listing{Challenge: title, MainMetric: mainMetric, Entries: entries}, nil
}

// Leaderboard returns each user's best submission to a challenge
// ranked by the main metric.
func (s *SubmissionService) Leaderboard(ctx context.Context, title string) (*Listing, error) {
	entries, mainMetric, err := s.listEntries(ctx, title, 0)
	if err != nil {
		return nil, err
	}

	// Entries are already sorted best-first, so the first entry seen
	// per submitter is their best.
	seen := map[string]bool{}
	best := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if seen[e.Submitter] {
			continue
		}
		seen[e.Submitter] = true
		best = append(best, e)
	}
	return &Listing{Challenge: title, MainMetric: mainMetric, Entries: best}, nil
}
