package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/benchline/api/internal/metrics"
	"github.com/benchline/api/internal/model"
)

func setupChallengeService(t *testing.T) (*ChallengeService, *mockChallengeRepo, *mockTestRepo, *mockStore) {
	t.Helper()

	challengeRepo := newMockChallengeRepo()
	testRepo := newMockTestRepo()
	fileStore := newMockStore()

	svc := NewChallengeService(ChallengeServiceConfig{
		ChallengeRepo: challengeRepo,
		TestRepo:      testRepo,
		Store:         fileStore,
	})
	return svc, challengeRepo, testRepo, fileStore
}

func validCreateRequest() CreateRequest {
	return CreateRequest{
		Author:       "alice",
		Title:        "titanic",
		Type:         "classification",
		Description:  "predict survival",
		Tests:        []TestSpec{{Metric: "accuracy", MainMetric: true}},
		ExpectedName: "expected.tsv",
		Expected:     strings.NewReader("1\n0\n1\n"),
	}
}

func TestChallengeService_Create_Success(t *testing.T) {
	svc, _, testRepo, fileStore := setupChallengeService(t)
	ctx := context.Background()

	challenge, err := svc.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if challenge.ID == 0 {
		t.Error("expected challenge ID to be set")
	}

	tests, err := testRepo.ListActive(ctx, challenge.ID)
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(tests) != 1 || tests[0].Metric != "accuracy" || !tests[0].MainMetric {
		t.Errorf("unexpected tests: %+v", tests)
	}

	lines, err := fileStore.ReadExpected("titanic")
	if err != nil {
		t.Fatalf("ReadExpected failed: %v", err)
	}
	if len(lines) != 3 {
		t.Errorf("expected 3 lines, got %d", len(lines))
	}
}

func TestChallengeService_Create_SingleTestBecomesMain(t *testing.T) {
	svc, _, testRepo, _ := setupChallengeService(t)
	ctx := context.Background()

	req := validCreateRequest()
	req.Tests = []TestSpec{{Metric: "accuracy"}}

	challenge, err := svc.Create(ctx, req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	main, err := testRepo.GetMain(ctx, challenge.ID)
	if err != nil {
		t.Fatalf("GetMain failed: %v", err)
	}
	if main.Metric != "accuracy" {
		t.Errorf("expected accuracy as main metric, got %s", main.Metric)
	}
}

func TestChallengeService_Create_Validation(t *testing.T) {
	svc, _, _, _ := setupChallengeService(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		mutate  func(*CreateRequest)
		wantErr error
	}{
		{"empty title", func(r *CreateRequest) { r.Title = " " }, ErrTitleRequired},
		{"bad title", func(r *CreateRequest) { r.Title = "has spaces" }, ErrInvalidTitle},
		{"bad deadline", func(r *CreateRequest) { r.Deadline = "tomorrow" }, ErrInvalidDeadline},
		{"bad extension", func(r *CreateRequest) { r.ExpectedName = "expected.csv" }, ErrBadFileExtension},
		{"unknown metric", func(r *CreateRequest) { r.Tests[0].Metric = "bleu" }, ErrUnknownMetric},
		{"no tests", func(r *CreateRequest) { r.Tests = nil }, ErrUnknownMetric},
		{"bad params", func(r *CreateRequest) {
			r.Tests[0].Parameters = metrics.Params{"bogus": 1}
		}, ErrInvalidParams},
		{"empty file", func(r *CreateRequest) { r.Expected = strings.NewReader("") }, ErrEmptyExpectedFile},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreateRequest()
			tc.mutate(&req)
			if _, err := svc.Create(ctx, req); !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestChallengeService_Create_DuplicateTitle(t *testing.T) {
	svc, _, _, _ := setupChallengeService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, validCreateRequest()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Create(ctx, validCreateRequest()); !errors.Is(err, ErrChallengeExists) {
		t.Errorf("expected ErrChallengeExists, got %v", err)
	}
}

func TestChallengeService_Create_CleansUpFileOnFailure(t *testing.T) {
	svc, challengeRepo, _, fileStore := setupChallengeService(t)
	ctx := context.Background()

	challengeRepo.createErr = errors.New("db down")
	if _, err := svc.Create(ctx, validCreateRequest()); err == nil {
		t.Fatal("expected error")
	}
	if _, err := fileStore.ReadExpected("titanic"); err == nil {
		t.Error("expected results file should have been removed")
	}
}

func TestChallengeService_ListAndGet(t *testing.T) {
	svc, _, _, _ := setupChallengeService(t)
	ctx := context.Background()

	req := validCreateRequest()
	if _, err := svc.Create(ctx, req); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].MainMetric != "accuracy" {
		t.Errorf("unexpected listing: %+v", list)
	}

	info, err := svc.Get(ctx, "titanic")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(info.Tests) != 1 {
		t.Errorf("expected 1 test, got %d", len(info.Tests))
	}

	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, ErrChallengeNotFound) {
		t.Errorf("expected ErrChallengeNotFound, got %v", err)
	}
}

func TestChallengeService_Delete(t *testing.T) {
	svc, _, _, fileStore := setupChallengeService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, validCreateRequest()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	admin := &model.User{Username: "root", IsAdmin: true}
	regular := &model.User{Username: "bob"}

	if err := svc.Delete(ctx, regular, "titanic"); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("expected ErrNotAdmin, got %v", err)
	}

	if err := svc.Delete(ctx, admin, "titanic"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, "titanic"); !errors.Is(err, ErrChallengeNotFound) {
		t.Errorf("expected challenge to be gone, got %v", err)
	}
	if _, err := fileStore.ReadExpected("titanic"); err == nil {
		t.Error("expected results file should have been removed")
	}

	if err := svc.Delete(ctx, admin, "titanic"); !errors.Is(err, ErrChallengeNotFound) {
		t.Errorf("expected ErrChallengeNotFound on second delete, got %v", err)
	}
}
