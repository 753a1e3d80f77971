package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/benchline/api/internal/database"
	"github.com/benchline/api/internal/model"
	"github.com/benchline/api/internal/repository"
)

// Mock implementations shared by the service tests.

type mockUserRepo struct {
	users     map[string]*model.User
	nextID    int
	createErr error
	getErr    error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User), nextID: 1}
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return database.ErrDuplicate
		}
	}
	user.ID = m.nextID
	m.nextID++
	user.CreatedAt = time.Now()
	m.users[user.Username] = user
	return nil
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.users[username]
	if !ok {
		return nil, database.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int) (*model.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *mockUserRepo) List(ctx context.Context) ([]*model.User, error) {
	names := make([]string, 0, len(m.users))
	for name := range m.users {
		names = append(names, name)
	}
	sort.Strings(names)
	users := make([]*model.User, 0, len(names))
	for _, name := range names {
		users = append(users, m.users[name])
	}
	return users, nil
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	return len(m.users), nil
}

func (m *mockUserRepo) UpdateEmail(ctx context.Context, username, email string) error {
	for _, u := range m.users {
		if u.Email == email && u.Username != username {
			return database.ErrDuplicate
		}
	}
	u, ok := m.users[username]
	if !ok {
		return database.ErrNotFound
	}
	u.Email = email
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, username, hash string) error {
	u, ok := m.users[username]
	if !ok {
		return database.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *mockUserRepo) UpdateRights(ctx context.Context, username string, rights model.UserRights) error {
	u, ok := m.users[username]
	if !ok {
		return database.ErrNotFound
	}
	u.IsAdmin = rights.IsAdmin
	u.IsAuthor = rights.IsAuthor
	return nil
}

type mockChallengeRepo struct {
	challenges map[string]*model.Challenge
	nextID     int
	createErr  error
}

func newMockChallengeRepo() *mockChallengeRepo {
	return &mockChallengeRepo{challenges: make(map[string]*model.Challenge), nextID: 1}
}

func (m *mockChallengeRepo) Create(ctx context.Context, c *model.Challenge) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.challenges[c.Title]; ok {
		return database.ErrDuplicate
	}
	c.ID = m.nextID
	m.nextID++
	c.CreatedAt = time.Now()
	m.challenges[c.Title] = c
	return nil
}

func (m *mockChallengeRepo) GetByTitle(ctx context.Context, title string) (*model.Challenge, error) {
	c, ok := m.challenges[title]
	if !ok || c.Deleted {
		return nil, database.ErrNotFound
	}
	return c, nil
}

func (m *mockChallengeRepo) List(ctx context.Context) ([]*model.Challenge, error) {
	titles := make([]string, 0, len(m.challenges))
	for title, c := range m.challenges {
		if !c.Deleted {
			titles = append(titles, title)
		}
	}
	sort.Strings(titles)
	list := make([]*model.Challenge, 0, len(titles))
	for _, title := range titles {
		list = append(list, m.challenges[title])
	}
	return list, nil
}

func (m *mockChallengeRepo) CountByAuthor(ctx context.Context, author string) (int, error) {
	count := 0
	for _, c := range m.challenges {
		if c.Author == author && !c.Deleted {
			count++
		}
	}
	return count, nil
}

func (m *mockChallengeRepo) Delete(ctx context.Context, id int) error {
	for _, c := range m.challenges {
		if c.ID == id && !c.Deleted {
			c.Deleted = true
			return nil
		}
	}
	return database.ErrNotFound
}

type mockTestRepo struct {
	tests  []*model.Test
	nextID int
}

func newMockTestRepo() *mockTestRepo {
	return &mockTestRepo{nextID: 1}
}

func (m *mockTestRepo) Create(ctx context.Context, t *model.Test) error {
	t.ID = m.nextID
	m.nextID++
	copied := *t
	m.tests = append(m.tests, &copied)
	return nil
}

func (m *mockTestRepo) ListActive(ctx context.Context, challengeID int) ([]*model.Test, error) {
	var active []*model.Test
	for _, t := range m.tests {
		if t.ChallengeID == challengeID && t.Active {
			active = append(active, t)
		}
	}
	return active, nil
}

func (m *mockTestRepo) GetMain(ctx context.Context, challengeID int) (*model.Test, error) {
	for _, t := range m.tests {
		if t.ChallengeID == challengeID && t.MainMetric && t.Active {
			return t, nil
		}
	}
	return nil, database.ErrNotFound
}

type mockSubmissionRepo struct {
	submissions []*repository.SubmissionRow
	usernames   map[int]string
	nextID      int
}

func newMockSubmissionRepo() *mockSubmissionRepo {
	return &mockSubmissionRepo{usernames: make(map[int]string), nextID: 1}
}

func (m *mockSubmissionRepo) Create(ctx context.Context, s *model.Submission) error {
	s.ID = m.nextID
	m.nextID++
	s.CreatedAt = time.Now()
	m.submissions = append(m.submissions, &repository.SubmissionRow{
		Submission:    *s,
		SubmitterName: m.usernames[s.Submitter],
	})
	return nil
}

func (m *mockSubmissionRepo) ListByChallenge(ctx context.Context, challengeID, submitter int) ([]*repository.SubmissionRow, error) {
	var rows []*repository.SubmissionRow
	for _, s := range m.submissions {
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

func (m *mockSubmissionRepo) CountBySubmitter(ctx context.Context, submitter int) (int, error) {
	count := 0
	for _, s := range m.submissions {
		if s.Submitter == submitter && !s.Deleted {
			count++
		}
	}
	return count, nil
}

type mockEvaluationRepo struct {
	evals  []*model.Evaluation
	tests  *mockTestRepo
	subs   *mockSubmissionRepo
	nextID int
}

func newMockEvaluationRepo(tests *mockTestRepo, subs *mockSubmissionRepo) *mockEvaluationRepo {
	return &mockEvaluationRepo{tests: tests, subs: subs, nextID: 1}
}

func (m *mockEvaluationRepo) CreateBatch(ctx context.Context, evals []*model.Evaluation) error {
	for _, e := range evals {
		e.ID = m.nextID
		m.nextID++
		e.CreatedAt = time.Now()
		m.evals = append(m.evals, e)
	}
	return nil
}

func (m *mockEvaluationRepo) ListByChallenge(ctx context.Context, challengeID int) ([]*repository.ScoreRow, error) {
	testByID := map[int]*model.Test{}
	for _, t := range m.tests.tests {
		testByID[t.ID] = t
	}
	subByID := map[int]*repository.SubmissionRow{}
	for _, s := range m.subs.submissions {
		subByID[s.ID] = s
	}

	var rows []*repository.ScoreRow
	for _, e := range m.evals {
		t, ok := testByID[e.TestID]
		if !ok {
			continue
		}
		s, ok := subByID[e.SubmissionID]
		if !ok || s.ChallengeID != challengeID || s.Deleted {
			continue
		}
		rows = append(rows, &repository.ScoreRow{
			SubmissionID: e.SubmissionID,
			TestID:       e.TestID,
			Metric:       t.Metric,
			MainMetric:   t.MainMetric,
			Score:        e.Score,
		})
	}
	return rows, nil
}

func challengeStub(title, author string) *model.Challenge {
	return &model.Challenge{
		ID:        1,
		Author:    author,
		Title:     title,
		Type:      "classification",
		CreatedAt: time.Now(),
	}
}

func submissionStub(challengeID, submitter int) *model.Submission {
	return &model.Submission{
		ChallengeID: challengeID,
		Submitter:   submitter,
		Description: "test run",
	}
}

type mockStore struct {
	files     map[string][]string
	saveErr   error
	removeErr error
}

func newMockStore() *mockStore {
	return &mockStore{files: make(map[string][]string)}
}

func (m *mockStore) SaveExpected(title string, r io.Reader) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.files[title] = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	return nil
}

func (m *mockStore) ReadExpected(title string) ([]string, error) {
	lines, ok := m.files[title]
	if !ok {
		return nil, fmt.Errorf("expected results file not found: %s", title)
	}
	return lines, nil
}

func (m *mockStore) RemoveExpected(title string) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	delete(m.files, title)
	return nil
}
