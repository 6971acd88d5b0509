package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/taskpilot/internal/auth"
	"github.com/BradenHooton/taskpilot/internal/models"
	pkgauth "github.com/BradenHooton/taskpilot/pkg/auth"
	pkglogger "github.com/BradenHooton/taskpilot/pkg/logger"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, id string, user *models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

// EmailSender delivers out-of-band mail (password-reset links)
type EmailSender interface {
	SendPasswordResetEmail(ctx context.Context, email, token string, validFor time.Duration) error
}

// AuthService handles password authentication and the reset flow
type AuthService struct {
	repo        UserRepository
	tm          *auth.TokenManager
	email       EmailSender
	timing      *auth.TimingDelay
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	resetTTL    time.Duration
}

// NewAuthService creates a new AuthService
func NewAuthService(repo UserRepository, tm *auth.TokenManager, email EmailSender, timing *auth.TimingDelay, logger *slog.Logger, auditLogger *pkglogger.AuditLogger, resetTTL time.Duration) *AuthService {
	return &AuthService{
		repo:        repo,
		tm:          tm,
		email:       email,
		timing:      timing,
		logger:      logger,
		auditLogger: auditLogger,
		resetTTL:    resetTTL,
	}
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatar,omitempty"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}

// AuthResponse represents the response from auth operations
type AuthResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// Login authenticates a user by email and password and returns a session
// token. Lookup miss, password mismatch, and deactivated account all return
// the same ErrUnauthorized; the distinction is only audited server-side.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	start := time.Now()

	if email = strings.ToLower(strings.TrimSpace(email)); email == "" {
		s.logger.Warn("login attempt with empty email")
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: invalid credentials")
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				FailureReason: "invalid_credentials",
				Success:       false,
			})
			s.timing.WaitFrom(start, false)
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// Google-only accounts carry no password hash and cannot log in this way
	if user.PasswordHash == "" {
		s.logger.Info("login failed: account has no password", slog.String("user_id", user.ID))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			FailureReason: "no_password_credential",
			Success:       false,
		})
		s.timing.WaitFrom(start, false)
		return nil, models.ErrUnauthorized
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.logger.Info("login failed: invalid credentials")
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			FailureReason: "invalid_credentials",
			Success:       false,
		})
		s.timing.WaitFrom(start, false)
		return nil, models.ErrUnauthorized
	}

	if !user.Active {
		s.logger.Info("login blocked: account deactivated", slog.String("user_id", user.ID))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			FailureReason: "account_deactivated",
			Success:       false,
		})
		s.timing.WaitFrom(start, false)
		return nil, models.ErrUnauthorized
	}

	token, err := s.tm.GenerateSessionToken(user.ID)
	if err != nil {
		s.logger.Error("failed to generate session token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		Success:   true,
	})
	s.timing.WaitFrom(start, true)

	return &AuthResponse{
		Token: token,
		User:  UserModelToResponse(user),
	}, nil
}

// Register creates a new user account and returns a session token. The very
// first account ever created is granted the admin role; concurrent first
// registrations are backstopped by the unique email index.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, err
	}

	// Check if user already exists
	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		s.logger.Info("registration failed: user already exists")
		return nil, models.ErrConflict
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check if user exists", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hashedPassword, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	role, err := s.firstUserRole(ctx)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         role,
		Active:       true,
	}

	createdUser, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			// Lost a race to another registration with the same email
			s.logger.Info("registration failed: user already exists")
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	token, err := s.tm.GenerateSessionToken(createdUser.ID)
	if err != nil {
		s.logger.Error("failed to generate session token", slog.String("user_id", createdUser.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user registered",
		slog.String("user_id", createdUser.ID),
		slog.String("role", createdUser.Role))
	s.auditLogger.LogAccountAction("user_registered", createdUser.ID, "", map[string]string{"role": createdUser.Role})

	return &AuthResponse{
		Token: token,
		User:  UserModelToResponse(createdUser),
	}, nil
}

// GetCurrentUser resolves a user for the /auth/me surface
func (s *AuthService) GetCurrentUser(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get current user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return UserModelToResponse(user), nil
}

// RequestPasswordReset issues a short-lived reset token for the account with
// the given email and delivers it out-of-band. A missing account surfaces as
// ErrNotFound; the handler maps that to 404.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("password reset requested for unknown email",
				slog.String("email", pkglogger.SanitizedEmail(email)))
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return models.ErrInternalServer
	}

	token, err := s.tm.GenerateResetToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate reset token", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.email.SendPasswordResetEmail(ctx, user.Email, token, s.resetTTL); err != nil {
		s.logger.Error("failed to send reset email", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("password reset requested", slog.String("user_id", user.ID))
	s.auditLogger.LogAccountAction("password_reset_requested", user.ID, "", nil)
	return nil
}

// VerifyResetToken checks a reset token without consuming it and returns the
// email it is bound to. Safe to call repeatedly; it never mutates state or
// extends the token's life.
func (s *AuthService) VerifyResetToken(token string) (string, error) {
	_, email, err := s.tm.ValidateResetToken(token)
	if err != nil {
		return "", models.ErrUnauthorized
	}
	return email, nil
}

// ResetPassword consumes a reset token and replaces the subject's password.
// Any verification failure maps to the same generic ErrUnauthorized.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, _, err := s.tm.ValidateResetToken(token)
	if err != nil {
		s.logger.Info("reset attempt with invalid token")
		return models.ErrUnauthorized
	}

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return err
	}

	hashedPassword, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("reset token subject no longer exists", slog.String("user_id", userID))
			return models.ErrUnauthorized
		}
		s.logger.Error("failed to update password", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("password reset completed", slog.String("user_id", userID))
	s.auditLogger.LogPasswordChange(userID, "", true)
	return nil
}

// firstUserRole returns admin when the store is empty, user otherwise
func (s *AuthService) firstUserRole(ctx context.Context) (string, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Error("failed to count users", slog.Any("error", err))
		return "", models.ErrInternalServer
	}
	if count == 0 {
		return models.RoleAdmin, nil
	}
	return models.RoleUser, nil
}

// UserModelToResponse converts a user model to its response DTO
func UserModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		AvatarURL: user.AvatarURL,
		Active:    user.Active,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}
