package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benchline/api/internal/database"
	"github.com/benchline/api/internal/middleware"
	"github.com/benchline/api/internal/model"
	"github.com/benchline/api/internal/repository"
	"github.com/benchline/api/internal/service"
)

// In-memory fakes wiring real services for handler tests.

type fakeUserRepo struct {
	users  map[string]*model.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}, nextID: 1}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *model.User) error {
	u.ID = f.nextID
	f.nextID++
	u.CreatedAt = time.Now()
	f.users[u.Username] = u
	return nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if u, ok := f.users[username]; ok {
		return u, nil
	}
	return nil, database.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int) (*model.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeUserRepo) List(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	for _, u := range f.users {
		users = append(users, u)
	}
	return users, nil
}

func (f *fakeUserRepo) Count(ctx context.Context) (int, error) { return len(f.users), nil }

func (f *fakeUserRepo) UpdateEmail(ctx context.Context, username, email string) error {
	u, ok := f.users[username]
	if !ok {
		return database.ErrNotFound
	}
	u.Email = email
	return nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, username, hash string) error {
	u, ok := f.users[username]
	if !ok {
		return database.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUserRepo) UpdateRights(ctx context.Context, username string, rights model.UserRights) error {
	u, ok := f.users[username]
	if !ok {
		return database.ErrNotFound
	}
	u.IsAdmin = rights.IsAdmin
	u.IsAuthor = rights.IsAuthor
	return nil
}

type fakeChallengeRepo struct {
	challenges map[string]*model.Challenge
	nextID     int
}

func newFakeChallengeRepo() *fakeChallengeRepo {
	return &fakeChallengeRepo{challenges: map[string]*model.Challenge{}, nextID: 1}
}

func (f *fakeChallengeRepo) Create(ctx context.Context, c *model.Challenge) error {
	if _, ok := f.challenges[c.Title]; ok {
		return database.ErrDuplicate
	}
	c.ID = f.nextID
	f.nextID++
	c.CreatedAt = time.Now()
	f.challenges[c.Title] = c
	return nil
}

func (f *fakeChallengeRepo) GetByTitle(ctx context.Context, title string) (*model.Challenge, error) {
	c, ok := f.challenges[title]
	if !ok || c.Deleted {
		return nil, database.ErrNotFound
	}
	return c, nil
}

func (f *fakeChallengeRepo) List(ctx context.Context) ([]*model.Challenge, error) {
	var list []*model.Challenge
	for _, c := range f.challenges {
		if !c.Deleted {
			list = append(list, c)
		}
	}
	return list, nil
}

func (f *fakeChallengeRepo) CountByAuthor(ctx context.Context, author string) (int, error) {
	n := 0
	for _, c := range f.challenges {
		if c.Author == author && !c.Deleted {
			n++
		}
	}
	return n, nil
}

func (f *fakeChallengeRepo) Delete(ctx context.Context, id int) error {
	for _, c := range f.challenges {
		if c.ID == id && !c.Deleted {
			c.Deleted = true
			return nil
		}
	}
	return database.ErrNotFound
}

type fakeTestRepo struct {
	tests  []*model.Test
	nextID int
}

func (f *fakeTestRepo) Create(ctx context.Context, t *model.Test) error {
	f.nextID++
	t.ID = f.nextID
	copied := *t
	f.tests = append(f.tests, &copied)
	return nil
}

func (f *fakeTestRepo) ListActive(ctx context.Context, challengeID int) ([]*model.Test, error) {
	var active []*model.Test
	for _, t := range f.tests {
		if t.ChallengeID == challengeID && t.Active {
			active = append(active, t)
		}
	}
	return active, nil
}

func (f *fakeTestRepo) GetMain(ctx context.Context, challengeID int) (*model.Test, error) {
	for _, t := range f.tests {
		if t.ChallengeID == challengeID && t.MainMetric && t.Active {
			return t, nil
		}
	}
	return nil, database.ErrNotFound
}

type fakeSubmissionRepo struct {
	rows      []*repository.SubmissionRow
	usernames map[int]string
	nextID    int
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{usernames: map[int]string{}}
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, s *model.Submission) error {
	f.nextID++
	s.ID = f.nextID
	s.CreatedAt = time.Now()
	f.rows = append(f.rows, &repository.SubmissionRow{
		Submission:    *s,
		SubmitterName: f.usernames[s.Submitter],
	})
	return nil
}

func (f *fakeSubmissionRepo) ListByChallenge(ctx context.Context, challengeID, submitter int) ([]*repository.SubmissionRow, error) {
	var rows []*repository.SubmissionRow
	for _, s := range f.rows {
		if s.ChallengeID != challengeID || s.Deleted {
			continue
		}
		if submitter != 0 && s.Submitter != submitter {
			continue
		}
		rows = append(rows, s)
	}
	return rows, nil
}

func (f *fakeSubmissionRepo) CountBySubmitter(ctx context.Context, submitter int) (int, error) {
	n := 0
	for _, s := range f.rows {
		if s.Submitter == submitter && !s.Deleted {
			n++
		}
	}
	return n, nil
}

type fakeEvaluationRepo struct {
	tests  *fakeTestRepo
	subs   *fakeSubmissionRepo
	evals  []*model.Evaluation
	nextID int
}

func (f *fakeEvaluationRepo) CreateBatch(ctx context.Context, evals []*model.Evaluation) error {
	for _, e := range evals {
		f.nextID++
		e.ID = f.nextID
		e.CreatedAt = time.Now()
		f.evals = append(f.evals, e)
	}
	return nil
}

func (f *fakeEvaluationRepo) ListByChallenge(ctx context.Context, challengeID int) ([]*repository.ScoreRow, error) {
	testByID := map[int]*model.Test{}
	for _, t := range f.tests.tests {
		testByID[t.ID] = t
	}
	var rows []*repository.ScoreRow
	for _, e := range f.evals {
		t, ok := testByID[e.TestID]
		if !ok {
			continue
		}
		for _, s := range f.subs.rows {
			if s.ID == e.SubmissionID && s.ChallengeID == challengeID && !s.Deleted {
				rows = append(rows, &repository.ScoreRow{
					SubmissionID: e.SubmissionID,
					TestID:       e.TestID,
					Metric:       t.Metric,
					MainMetric:   t.MainMetric,
					Score:        e.Score,
				})
			}
		}
	}
	return rows, nil
}

type fakeStore struct {
	files map[string][]string
}

func newFakeStore() *fakeStore { return &fakeStore{files: map[string][]string{}} }

func (f *fakeStore) SaveExpected(title string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.files[title] = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	return nil
}

func (f *fakeStore) ReadExpected(title string) ([]string, error) {
	lines, ok := f.files[title]
	if !ok {
		return nil, fmt.Errorf("expected results file not found: %s", title)
	}
	return lines, nil
}

func (f *fakeStore) RemoveExpected(title string) error {
	delete(f.files, title)
	return nil
}

// Test fixture wiring the full handler stack against in-memory fakes.

type fixture struct {
	auth        *AuthHandler
	challenges  *ChallengeHandler
	submissions *SubmissionHandler
	admin       *AdminHandler
	users       *fakeUserRepo
	subs        *fakeSubmissionRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := newFakeUserRepo()
	challenges := newFakeChallengeRepo()
	tests := &fakeTestRepo{}
	subs := newFakeSubmissionRepo()
	evals := &fakeEvaluationRepo{tests: tests, subs: subs}
	files := newFakeStore()

	tokens, err := service.NewTokenService(service.TokenServiceConfig{
		Key:             "test-key",
		Algorithm:       "HS256",
		TokenExpiration: time.Hour,
	})
	if err != nil {
		t.Fatalf("creating token service: %v", err)
	}

	authSvc := service.NewAuthService(service.AuthServiceConfig{
		UserRepo:       users,
		ChallengeRepo:  challenges,
		SubmissionRepo: subs,
		TokenService:   tokens,
	})
	challengeSvc := service.NewChallengeService(service.ChallengeServiceConfig{
		ChallengeRepo: challenges,
		TestRepo:      tests,
		Store:         files,
	})
	submissionSvc := service.NewSubmissionService(service.SubmissionServiceConfig{
		ChallengeRepo:  challenges,
		TestRepo:       tests,
		SubmissionRepo: subs,
		EvaluationRepo: evals,
		Store:          files,
	})
	adminSvc := service.NewAdminService(service.AdminServiceConfig{UserRepo: users})

	return &fixture{
		auth:        NewAuthHandler(authSvc),
		challenges:  NewChallengeHandler(challengeSvc, 1<<20),
		submissions: NewSubmissionHandler(submissionSvc, 1<<20),
		admin:       NewAdminHandler(adminSvc),
		users:       users,
		subs:        subs,
	}
}

func (f *fixture) user(t *testing.T, username string, admin bool) *model.User {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com", IsAdmin: admin, IsAuthor: true}
	if err := f.users.Create(context.Background(), u); err != nil {
		t.Fatalf("creating user: %v", err)
	}
	f.subs.usernames[u.ID] = username
	return u
}

func asUser(r *http.Request, u *model.User) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UserKey, u)
	return r.WithContext(ctx)
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName, fileBody string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("writing field %s: %v", k, err)
		}
	}
	fw, err := mw.CreateFormFile(fileField, fileName)
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := io.WriteString(fw, fileBody); err != nil {
		t.Fatalf("writing file body: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func (f *fixture) createChallenge(t *testing.T, author *model.User) {
	t.Helper()
	body, contentType := multipartBody(t, map[string]string{
		"title":  "titanic",
		"type":   "classification",
		"metric": "accuracy",
	}, "expected_results", "expected.tsv", "1\n0\n1\n")

	req := httptest.NewRequest(http.MethodPost, "/challenges/create-challenge", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	f.challenges.Create(rec, asUser(req, author))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create challenge: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

// Tests

func TestAuthHandler_CreateUserAndLogin(t *testing.T) {
	f := newFixture(t)

	body := `{"username":"alice","email":"alice@example.com","password":"long-enough-password"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/create-user", strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.auth.CreateUser(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	form := strings.NewReader("username=alice&password=long-enough-password")
	req = httptest.NewRequest(http.MethodPost, "/auth/login", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	f.auth.Login(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var token TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &token); err != nil {
		t.Fatalf("decoding token response: %v", err)
	}
	if token.AccessToken == "" || token.TokenType != "bearer" {
		t.Errorf("unexpected token response: %+v", token)
	}
}

func TestAuthHandler_CreateUser_Invalid(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/create-user",
		strings.NewReader(`{"username":"alice","email":"bad","password":"long-enough-password"}`))
	rec := httptest.NewRecorder()
	f.auth.CreateUser(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/auth/create-user", strings.NewReader(`{bad json`))
	rec = httptest.NewRecorder()
	f.auth.CreateUser(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_Login_BadCredentials(t *testing.T) {
	f := newFixture(t)
	f.user(t, "alice", false)

	form := strings.NewReader("username=alice&password=wrong")
	req := httptest.NewRequest(http.MethodPost, "/auth/login", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.auth.Login(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAuthHandler_MeAndRights(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", false)

	req := asUser(httptest.NewRequest(http.MethodGet, "/auth/me", nil), alice)
	rec := httptest.NewRecorder()
	f.auth.Me(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"username":"alice"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}

	req = asUser(httptest.NewRequest(http.MethodGet, "/auth/rights", nil), alice)
	rec = httptest.NewRecorder()
	f.auth.Rights(rec, req)
	if !strings.Contains(rec.Body.String(), `"is_author":true`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestChallengeHandler_CreateAndGet(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", false)

	f.createChallenge(t, alice)

	req := httptest.NewRequest(http.MethodGet, "/challenges/challenge/titanic", nil)
	req.SetPathValue("title", "titanic")
	rec := httptest.NewRecorder()
	f.challenges.Get(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"main_metric":"accuracy"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/challenges/challenge/missing", nil)
	req.SetPathValue("title", "missing")
	rec = httptest.NewRecorder()
	f.challenges.Get(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestChallengeHandler_Create_DuplicateConflict(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", false)
	f.createChallenge(t, alice)

	body, contentType := multipartBody(t, map[string]string{
		"title":  "titanic",
		"metric": "accuracy",
	}, "expected_results", "expected.tsv", "1\n")
	req := httptest.NewRequest(http.MethodPost, "/challenges/create-challenge", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	f.challenges.Create(rec, asUser(req, alice))
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestSubmissionHandler_SubmitAndLeaderboard(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", false)
	bob := f.user(t, "bob", false)
	f.createChallenge(t, alice)

	submit := func(u *model.User, output string) *httptest.ResponseRecorder {
		body, contentType := multipartBody(t, map[string]string{
			"challenge_title": "titanic",
		}, "submission", "out.tsv", output)
		req := httptest.NewRequest(http.MethodPost, "/evaluation/submit", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		f.submissions.Submit(rec, asUser(req, u))
		return rec
	}

	rec := submit(bob, "1\n0\n0\n")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"main_metric":"accuracy"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}

	if rec := submit(bob, "1\n0\n1\n"); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/evaluation/titanic/leaderboard", nil)
	req.SetPathValue("challenge", "titanic")
	rec = httptest.NewRecorder()
	f.submissions.Leaderboard(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data service.Listing `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding leaderboard: %v", err)
	}
	if len(resp.Data.Entries) != 1 {
		t.Fatalf("expected 1 leaderboard entry, got %d", len(resp.Data.Entries))
	}
	if resp.Data.Entries[0].Submitter != "bob" || resp.Data.Entries[0].MainScore != 1 {
		t.Errorf("unexpected leader: %+v", resp.Data.Entries[0])
	}
}

func TestSubmissionHandler_Submit_UnknownChallenge(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", false)

	body, contentType := multipartBody(t, map[string]string{
		"challenge_title": "no-such-challenge",
	}, "submission", "out.tsv", "1\n0\n1\n")
	req := httptest.NewRequest(http.MethodPost, "/evaluation/submit", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	f.submissions.Submit(rec, asUser(req, alice))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSubmissionHandler_Submit_BadExtension(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", false)
	f.createChallenge(t, alice)

	body, contentType := multipartBody(t, map[string]string{
		"challenge_title": "titanic",
	}, "submission", "out.csv", "1\n0\n1\n")
	req := httptest.NewRequest(http.MethodPost, "/evaluation/submit", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	f.submissions.Submit(rec, asUser(req, alice))
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("expected 415, got %d", rec.Code)
	}
}

func TestSubmissionHandler_Metrics(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.submissions.Metrics(rec, httptest.NewRequest(http.MethodGet, "/evaluation/get-metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"accuracy"`) {
		t.Errorf("expected accuracy in metric listing: %s", rec.Body.String())
	}
}

func TestAdminHandler_UpdateRights(t *testing.T) {
	f := newFixture(t)
	root := f.user(t, "root", true)
	f.user(t, "bob", false)

	body := `{"username":"bob","is_admin":true,"is_author":true}`
	req := httptest.NewRequest(http.MethodPost, "/admin/update-user-rights", strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.admin.UpdateRights(rec, asUser(req, root))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if !f.users.users["bob"].IsAdmin {
		t.Error("bob should be admin")
	}

	req = httptest.NewRequest(http.MethodPost, "/admin/update-user-rights",
		strings.NewReader(`{"username":"nobody","is_admin":true}`))
	rec = httptest.NewRecorder()
	f.admin.UpdateRights(rec, asUser(req, root))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestChallengeHandler_Delete(t *testing.T) {
	f := newFixture(t)
	root := f.user(t, "root", true)
	f.createChallenge(t, root)

	req := httptest.NewRequest(http.MethodDelete, "/admin/challenges/titanic", nil)
	req.SetPathValue("title", "titanic")
	rec := httptest.NewRecorder()
	f.challenges.Delete(rec, asUser(req, root))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/challenges/challenge/titanic", nil)
	req.SetPathValue("title", "titanic")
	rec = httptest.NewRecorder()
	f.challenges.Get(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}
