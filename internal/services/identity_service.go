package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/BradenHooton/taskpilot/internal/auth"
	"github.com/BradenHooton/taskpilot/internal/models"
	pkglogger "github.com/BradenHooton/taskpilot/pkg/logger"
)

// IdentityService reconciles verified external identity assertions with
// persisted user records: at most one account ends up holding a given
// provider identity, and accounts first registered by password are linked
// rather than duplicated when the provider reports the same email.
type IdentityService struct {
	repo        UserRepository
	tm          *auth.TokenManager
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewIdentityService creates a new IdentityService
func NewIdentityService(repo UserRepository, tm *auth.TokenManager, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *IdentityService {
	return &IdentityService{
		repo:        repo,
		tm:          tm,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Resolve maps an external identity assertion onto a user record, creating
// or linking one as needed, and mints a session token for the result.
// Resolution order: provider id, then email (link), then create.
func (s *IdentityService) Resolve(ctx context.Context, identity *models.ExternalIdentity) (*AuthResponse, error) {
	if identity == nil || identity.ProviderID == "" || identity.Email == "" {
		return nil, models.ErrBadRequest
	}

	user, err := s.resolveUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	if !user.Active {
		s.logger.Info("external sign-in blocked: account deactivated", slog.String("user_id", user.ID))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "google_signin_failed",
			UserID:        user.ID,
			FailureReason: "account_deactivated",
			Success:       false,
		})
		return nil, models.ErrUnauthorized
	}

	token, err := s.tm.GenerateSessionToken(user.ID)
	if err != nil {
		s.logger.Error("failed to generate session token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "google_signin_success",
		UserID:    user.ID,
		Success:   true,
	})

	return &AuthResponse{
		Token: token,
		User:  UserModelToResponse(user),
	}, nil
}

func (s *IdentityService) resolveUser(ctx context.Context, identity *models.ExternalIdentity) (*models.User, error) {
	// 1. Already linked to this provider identity
	user, err := s.repo.GetByGoogleID(ctx, identity.ProviderID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to look up user by google id", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// 2. Same email registered by password: link the provider identity
	user, err = s.repo.GetByEmail(ctx, identity.Email)
	if err == nil {
		return s.linkIdentity(ctx, user, identity)
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to look up user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// 3. First sight of this identity: create a record
	return s.createUser(ctx, identity)
}

func (s *IdentityService) linkIdentity(ctx context.Context, user *models.User, identity *models.ExternalIdentity) (*models.User, error) {
	user.GoogleID = identity.ProviderID
	if user.AvatarURL == "" && identity.AvatarURL != "" {
		user.AvatarURL = identity.AvatarURL
	}

	updated, err := s.repo.Update(ctx, user.ID, user)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			// The provider id got claimed concurrently; re-read it
			return s.repo.GetByGoogleID(ctx, identity.ProviderID)
		}
		s.logger.Error("failed to link google identity", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("linked google identity to existing account", slog.String("user_id", updated.ID))
	s.auditLogger.LogAccountAction("google_identity_linked", updated.ID, "", nil)
	return updated, nil
}

func (s *IdentityService) createUser(ctx context.Context, identity *models.ExternalIdentity) (*models.User, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Error("failed to count users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	role := models.RoleUser
	if count == 0 {
		role = models.RoleAdmin
	}

	user := &models.User{
		Name:      identity.Name,
		Email:     identity.Email,
		GoogleID:  identity.ProviderID,
		AvatarURL: identity.AvatarURL,
		Role:      role,
		Active:    true,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			// Lost a check-then-create race; the record now exists under
			// either the provider id or the email. Re-resolve once.
			if u, err := s.repo.GetByGoogleID(ctx, identity.ProviderID); err == nil {
				return u, nil
			}
			if u, err := s.repo.GetByEmail(ctx, identity.Email); err == nil {
				return s.linkIdentity(ctx, u, identity)
			}
			s.logger.Error("conflict on create but no record found on re-resolve")
			return nil, models.ErrInternalServer
		}
		s.logger.Error("failed to create user from external identity", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("created user from google identity",
		slog.String("user_id", created.ID),
		slog.String("role", created.Role))
	s.auditLogger.LogAccountAction("user_created_via_google", created.ID, "", map[string]string{"role": created.Role})
	return created, nil
}
