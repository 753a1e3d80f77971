package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/benchline/api/internal/database"
	"github.com/benchline/api/internal/model"
)

// AdminService handles user administration
type AdminService struct {
	userRepo UserRepository
	logger   *slog.Logger
}

// AdminServiceConfig holds configuration for the admin service
type AdminServiceConfig struct {
	UserRepo UserRepository
	Logger   *slog.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(cfg AdminServiceConfig) *AdminService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminService{userRepo: cfg.UserRepo, logger: logger}
}

// ListUsers returns all registered users. Only admins may list users.
func (s *AdminService) ListUsers(ctx context.Context, actor *model.User) ([]*model.User, error) {
	if !actor.IsAdmin {
		return nil, ErrNotAdmin
	}
	return s.userRepo.List(ctx)
}

// UpdateRights sets a user's admin and author flags. Only admins may
// change rights, and an admin cannot revoke their own admin flag so
// the deployment always keeps at least one.
func (s *AdminService) UpdateRights(ctx context.Context, actor *model.User, username string, rights model.UserRights) error {
	if !actor.IsAdmin {
		return ErrNotAdmin
	}
	if username == actor.Username && !rights.IsAdmin {
		return ErrSelfDemotion
	}

	if err := s.userRepo.UpdateRights(ctx, username, rights); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	s.logger.Info("user rights updated",
		slog.String("user", username),
		slog.String("admin", actor.Username),
		slog.Bool("is_admin", rights.IsAdmin),
		slog.Bool("is_author", rights.IsAuthor))
	return nil
}
