package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/benchline/api/internal/database"
	"github.com/benchline/api/internal/model"
)

const (
	// bcrypt cost factor (10-14 recommended for production)
	bcryptCost = 12

	// Password constraints
	minPasswordLength = 10
	maxPasswordLength = 128

	maxUsernameLength = 32
)

var (
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	Count(ctx context.Context) (int, error)
	UpdateEmail(ctx context.Context, username, email string) error
	UpdatePassword(ctx context.Context, username, hash string) error
	UpdateRights(ctx context.Context, username string, rights model.UserRights) error
}

// ChallengeCounter counts challenges created by an author
type ChallengeCounter interface {
	CountByAuthor(ctx context.Context, author string) (int, error)
}

// SubmissionCounter counts submissions made by a user
type SubmissionCounter interface {
	CountBySubmitter(ctx context.Context, submitter int) (int, error)
}

// AuthService handles account operations
type AuthService struct {
	userRepo       UserRepository
	challengeRepo  ChallengeCounter
	submissionRepo SubmissionCounter
	tokenService   *TokenService
}

// AuthServiceConfig holds configuration for the auth service
type AuthServiceConfig struct {
	UserRepo       UserRepository
	ChallengeRepo  ChallengeCounter
	SubmissionRepo SubmissionCounter
	TokenService   *TokenService
}

// NewAuthService creates a new auth service
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	return &AuthService{
		userRepo:       cfg.UserRepo,
		challengeRepo:  cfg.ChallengeRepo,
		submissionRepo: cfg.SubmissionRepo,
		tokenService:   cfg.TokenService,
	}
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

// Register creates a new user account. The very first account becomes
// an admin so a fresh deployment is never locked out.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if len(username) > maxUsernameLength {
		return nil, ErrUsernameTooLong
	}
	if !usernameRegex.MatchString(username) {
		return nil, ErrInvalidUsername
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if !emailRegex.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	if existing, err := s.userRepo.GetByUsername(ctx, username); err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, err
	} else if existing != nil {
		return nil, ErrUsernameExists
	}
	if existing, err := s.userRepo.GetByEmail(ctx, email); err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, err
	} else if existing != nil {
		return nil, ErrEmailExists
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      count == 0,
		IsAuthor:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrUsernameExists
		}
		return nil, err
	}
	return user, nil
}

// LoginResult represents a successful login
type LoginResult struct {
	User  *model.User
	Token string
}

// Login verifies credentials and returns a signed access token
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokenService.Generate(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Token: token}, nil
}

// GetByUsername returns a user by username
func (s *AuthService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Profile returns a user's public profile with activity counters
func (s *AuthService) Profile(ctx context.Context, username string) (*model.Profile, error) {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	challenges, err := s.challengeRepo.CountByAuthor(ctx, user.Username)
	if err != nil {
		return nil, err
	}
	submissions, err := s.submissionRepo.CountBySubmitter(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &model.Profile{
		Username:          user.Username,
		Email:             user.Email,
		IsAdmin:           user.IsAdmin,
		IsAuthor:          user.IsAuthor,
		ChallengesNumber:  challenges,
		SubmissionsNumber: submissions,
	}, nil
}

// EditRequest represents an account edit request. Empty fields are
// left untouched.
type EditRequest struct {
	Email           string
	Password        string
	PasswordConfirm string
}

// Edit updates a user's email and/or password
func (s *AuthService) Edit(ctx context.Context, username string, req EditRequest) error {
	if req.Email != "" {
		email := strings.TrimSpace(strings.ToLower(req.Email))
		if !emailRegex.MatchString(email) {
			return ErrInvalidEmail
		}
		if err := s.userRepo.UpdateEmail(ctx, username, email); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				return ErrEmailExists
			}
			if errors.Is(err, database.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
	}

	if req.Password != "" {
		if req.Password != req.PasswordConfirm {
			return ErrPasswordMismatch
		}
		if err := validatePassword(req.Password); err != nil {
			return err
		}
		hash, err := hashPassword(req.Password)
		if err != nil {
			return err
		}
		if err := s.userRepo.UpdatePassword(ctx, username, hash); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > maxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
