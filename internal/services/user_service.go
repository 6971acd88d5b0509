package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/BradenHooton/taskpilot/internal/models"
	pkglogger "github.com/BradenHooton/taskpilot/pkg/logger"
)

// UserService handles admin-facing user management
type UserService struct {
	repo        UserRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewUserService creates a new UserService
func NewUserService(repo UserRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *UserService {
	return &UserService{
		repo:        repo,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return user, nil
}

// ListUsers retrieves a list of users with pagination
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", slog.Int("limit", limit), slog.Int("offset", offset), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return users, nil
}

// UpdateRole changes a user's role. An admin cannot demote their own
// account; actorID identifies the admin performing the change.
func (s *UserService) UpdateRole(ctx context.Context, actorID, userID, role string) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, models.ErrBadRequest
	}

	if actorID == userID && role != models.RoleAdmin {
		s.logger.Info("admin attempted to demote self", slog.String("user_id", actorID))
		return nil, models.ErrForbidden
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user.Role = role
	updated, err := s.repo.Update(ctx, userID, user)
	if err != nil {
		s.logger.Error("failed to update role", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user role updated",
		slog.String("user_id", userID),
		slog.String("role", role),
		slog.String("actor_id", actorID))
	s.auditLogger.LogAccountAction("role_changed", userID, "", map[string]string{"role": role, "actor": actorID})
	return updated, nil
}

// ToggleActive flips a user's active flag. An admin cannot deactivate
// their own account.
func (s *UserService) ToggleActive(ctx context.Context, actorID, userID string) (*models.User, error) {
	if actorID == userID {
		s.logger.Info("admin attempted to deactivate self", slog.String("user_id", actorID))
		return nil, models.ErrForbidden
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user.Active = !user.Active
	updated, err := s.repo.Update(ctx, userID, user)
	if err != nil {
		s.logger.Error("failed to toggle active flag", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user active flag toggled",
		slog.String("user_id", userID),
		slog.Bool("active", updated.Active),
		slog.String("actor_id", actorID))
	s.auditLogger.LogAccountAction("active_toggled", userID, "", map[string]string{"actor": actorID})
	return updated, nil
}

// DeleteUser removes a user. An admin cannot delete their own account.
func (s *UserService) DeleteUser(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		s.logger.Info("admin attempted to delete self", slog.String("user_id", actorID))
		return models.ErrForbidden
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete user", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user deleted", slog.String("user_id", userID), slog.String("actor_id", actorID))
	s.auditLogger.LogAccountAction("user_deleted", userID, "", map[string]string{"actor": actorID})
	return nil
}
