package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/benchline/api/internal/database"
	"github.com/benchline/api/internal/metrics"
	"github.com/benchline/api/internal/model"
	"github.com/benchline/api/internal/store"
)

var titleRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ChallengeRepository defines the interface for challenge storage
type ChallengeRepository interface {
	Create(ctx context.Context, c *model.Challenge) error
	GetByTitle(ctx context.Context, title string) (*model.Challenge, error)
	List(ctx context.Context) ([]*model.Challenge, error)
	CountByAuthor(ctx context.Context, author string) (int, error)
	Delete(ctx context.Context, id int) error
}

// TestRepository defines the interface for challenge test storage
type TestRepository interface {
	Create(ctx context.Context, t *model.Test) error
	ListActive(ctx context.Context, challengeID int) ([]*model.Test, error)
	GetMain(ctx context.Context, challengeID int) (*model.Test, error)
}

// ExpectedStore persists challenge expected-results files
type ExpectedStore interface {
	SaveExpected(title string, r io.Reader) error
	ReadExpected(title string) ([]string, error)
	RemoveExpected(title string) error
}

// ChallengeService handles challenge lifecycle operations
type ChallengeService struct {
	challengeRepo ChallengeRepository
	testRepo      TestRepository
	store         ExpectedStore
	logger        *slog.Logger
}

// ChallengeServiceConfig holds configuration for the challenge service
type ChallengeServiceConfig struct {
	ChallengeRepo ChallengeRepository
	TestRepo      TestRepository
	Store         ExpectedStore
	Logger        *slog.Logger
}

// NewChallengeService creates a new challenge service
func NewChallengeService(cfg ChallengeServiceConfig) *ChallengeService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ChallengeService{
		challengeRepo: cfg.ChallengeRepo,
		testRepo:      cfg.TestRepo,
		store:         cfg.Store,
		logger:        logger,
	}
}

// TestSpec describes one scoring test of a new challenge.
type TestSpec struct {
	Metric     string
	Parameters metrics.Params
	MainMetric bool
}

// CreateRequest represents a challenge creation request
type CreateRequest struct {
	Author       string
	Title        string
	Source       string
	Type         string
	Description  string
	Deadline     string
	Award        string
	Tests        []TestSpec
	ExpectedName string
	Expected     io.Reader
}

// Create validates and stores a new challenge together with its tests
// and expected-results file. On a partial failure the already-written
// file is removed so no orphan remains.
func (s *ChallengeService) Create(ctx context.Context, req CreateRequest) (*model.Challenge, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if !titleRegex.MatchString(title) {
		return nil, ErrInvalidTitle
	}

	deadline := strings.TrimSpace(req.Deadline)
	if deadline != "" {
		if _, err := time.Parse(time.RFC3339, deadline); err != nil {
			return nil, ErrInvalidDeadline
		}
	}

	if strings.ToLower(filepath.Ext(req.ExpectedName)) != ".tsv" {
		return nil, ErrBadFileExtension
	}

	tests, err := validateTests(req.Tests)
	if err != nil {
		return nil, err
	}

	if existing, err := s.challengeRepo.GetByTitle(ctx, title); err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, err
	} else if existing != nil {
		return nil, ErrChallengeExists
	}

	lines, err := store.ReadLines(req.Expected)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyExpectedFile
	}
	if err := s.store.SaveExpected(title, strings.NewReader(strings.Join(lines, "\n")+"\n")); err != nil {
		return nil, err
	}

	challenge := &model.Challenge{
		Author:      req.Author,
		Title:       title,
		Source:      strings.TrimSpace(req.Source),
		Type:        strings.TrimSpace(req.Type),
		Description: strings.TrimSpace(req.Description),
		Deadline:    deadline,
		Award:       strings.TrimSpace(req.Award),
	}
	if err := s.challengeRepo.Create(ctx, challenge); err != nil {
		s.cleanupExpected(title)
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrChallengeExists
		}
		return nil, err
	}

	for i := range tests {
		tests[i].ChallengeID = challenge.ID
		if err := s.testRepo.Create(ctx, &tests[i]); err != nil {
			s.cleanupExpected(title)
			return nil, err
		}
	}

	s.logger.Info("challenge created",
		slog.String("title", title),
		slog.String("author", req.Author),
		slog.Int("tests", len(tests)))
	return challenge, nil
}

func (s *ChallengeService) cleanupExpected(title string) {
	if err := s.store.RemoveExpected(title); err != nil {
		s.logger.Error("removing expected results after failed create",
			slog.String("title", title), slog.Any("error", err))
	}
}

// validateTests checks the metric names and parameters of a challenge's
// tests and normalizes them into model rows. Exactly one test must be
// the main metric; a single unmarked test becomes it.
func validateTests(specs []TestSpec) ([]model.Test, error) {
	if len(specs) == 0 {
		return nil, ErrUnknownMetric
	}

	mainCount := 0
	for _, spec := range specs {
		if spec.MainMetric {
			mainCount++
		}
	}
	if mainCount == 0 && len(specs) == 1 {
		specs[0].MainMetric = true
		mainCount = 1
	}
	if mainCount != 1 {
		return nil, errors.New("exactly one test must be the main metric")
	}

	tests := make([]model.Test, 0, len(specs))
	for _, spec := range specs {
		if !metrics.Exists(spec.Metric) {
			return nil, ErrUnknownMetric
		}
		if err := metrics.ValidateParams(spec.Metric, spec.Parameters); err != nil {
			return nil, ErrInvalidParams
		}

		params := "{}"
		if len(spec.Parameters) > 0 {
			raw, err := json.Marshal(spec.Parameters)
			if err != nil {
				return nil, ErrInvalidParams
			}
			params = string(raw)
		}
		tests = append(tests, model.Test{
			Metric:           spec.Metric,
			MetricParameters: params,
			MainMetric:       spec.MainMetric,
			Active:           true,
		})
	}
	return tests, nil
}

// ChallengeInfo is a challenge joined with its main metric.
type ChallengeInfo struct {
	*model.Challenge
	MainMetric string       `json:"main_metric"`
	Tests      []*model.Test `json:"tests,omitempty"`
}

// List returns all live challenges with their main metrics
func (s *ChallengeService) List(ctx context.Context) ([]*ChallengeInfo, error) {
	challenges, err := s.challengeRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]*ChallengeInfo, 0, len(challenges))
	for _, c := range challenges {
		info := &ChallengeInfo{Challenge: c}
		if main, err := s.testRepo.GetMain(ctx, c.ID); err == nil {
			info.MainMetric = main.Metric
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Get returns one live challenge with all of its active tests
func (s *ChallengeService) Get(ctx context.Context, title string) (*ChallengeInfo, error) {
	challenge, err := s.challengeRepo.GetByTitle(ctx, title)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}

	tests, err := s.testRepo.ListActive(ctx, challenge.ID)
	if err != nil {
		return nil, err
	}

	info := &ChallengeInfo{Challenge: challenge, Tests: tests}
	for _, t := range tests {
		if t.MainMetric {
			info.MainMetric = t.Metric
			break
		}
	}
	return info, nil
}

// Delete soft-deletes a challenge and removes its expected-results
// file. Only admins may delete challenges.
func (s *ChallengeService) Delete(ctx context.Context, actor *model.User, title string) error {
	if !actor.IsAdmin {
		return ErrNotAdmin
	}

	challenge, err := s.challengeRepo.GetByTitle(ctx, title)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrChallengeNotFound
		}
		return err
	}

	if err := s.challengeRepo.Delete(ctx, challenge.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrChallengeNotFound
		}
		return err
	}
	if err := s.store.RemoveExpected(title); err != nil {
		s.logger.Error("removing expected results of deleted challenge",
			slog.String("title", title), slog.Any("error", err))
	}

	s.logger.Info("challenge deleted",
		slog.String("title", title),
		slog.String("admin", actor.Username))
	return nil
}
