package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/taskpilot/internal/auth"
	"github.com/BradenHooton/taskpilot/internal/models"
	pkgauth "github.com/BradenHooton/taskpilot/pkg/auth"
	pkglogger "github.com/BradenHooton/taskpilot/pkg/logger"
)

const testJWTSecret = "test-secret-key-at-least-32-chars!!"

func newTestAuthService(repo UserRepository, email EmailSender) *AuthService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tm := auth.NewTokenManager(testJWTSecret, 7*24*time.Hour, 15*time.Minute)
	timing := auth.NewTimingDelay(auth.TimingConfig{})
	return NewAuthService(repo, tm, email, timing, logger, pkglogger.NewAuditLogger(logger), 15*time.Minute)
}

func TestAuthService_Login(t *testing.T) {
	hash, err := pkgauth.HashPassword("correct-horse")
	require.NoError(t, err)

	activeUser := NewTestUser("user1", "alice@example.com", "Alice")
	activeUser.PasswordHash = hash

	inactiveUser := NewTestUser("user2", "bob@example.com", "Bob")
	inactiveUser.PasswordHash = hash
	inactiveUser.Active = false

	googleOnly := NewTestUser("user3", "carol@example.com", "Carol")
	googleOnly.GoogleID = "g-123"

	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			switch email {
			case "alice@example.com":
				u := *activeUser
				return &u, nil
			case "bob@example.com":
				u := *inactiveUser
				return &u, nil
			case "carol@example.com":
				u := *googleOnly
				return &u, nil
			}
			return nil, models.ErrNotFound
		},
	}

	service := newTestAuthService(repo, &MockEmailSender{})

	t.Run("valid credentials return a session token", func(t *testing.T) {
		resp, err := service.Login(context.Background(), "alice@example.com", "correct-horse")
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "user1", resp.User.ID)
		assert.Equal(t, "alice@example.com", resp.User.Email)
	})

	t.Run("email comparison is case-insensitive", func(t *testing.T) {
		resp, err := service.Login(context.Background(), "  ALICE@Example.COM ", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, "user1", resp.User.ID)
	})

	t.Run("failures are indistinguishable", func(t *testing.T) {
		cases := map[string]struct {
			email    string
			password string
		}{
			"unknown email":       {"nobody@example.com", "correct-horse"},
			"wrong password":      {"alice@example.com", "wrong"},
			"deactivated account": {"bob@example.com", "correct-horse"},
			"google-only account": {"carol@example.com", "correct-horse"},
		}
		for name, tc := range cases {
			t.Run(name, func(t *testing.T) {
				resp, err := service.Login(context.Background(), tc.email, tc.password)
				assert.Nil(t, resp)
				assert.ErrorIs(t, err, models.ErrUnauthorized)
			})
		}
	})
}

func TestAuthService_Register(t *testing.T) {
	t.Run("first registered user becomes admin", func(t *testing.T) {
		repo := newMemoryUserRepo()
		service := newTestAuthService(repo, &MockEmailSender{})

		resp, err := service.Register(context.Background(), "Alice", "alice@example.com", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, resp.User.Role)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("subsequent users get the user role", func(t *testing.T) {
		repo := newMemoryUserRepo()
		service := newTestAuthService(repo, &MockEmailSender{})

		_, err := service.Register(context.Background(), "Alice", "alice@example.com", "correct-horse")
		require.NoError(t, err)

		resp, err := service.Register(context.Background(), "Bob", "bob@example.com", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, models.RoleUser, resp.User.Role)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		repo := newMemoryUserRepo()
		service := newTestAuthService(repo, &MockEmailSender{})

		_, err := service.Register(context.Background(), "Alice", "alice@example.com", "correct-horse")
		require.NoError(t, err)

		_, err = service.Register(context.Background(), "Imposter", "alice@example.com", "other-pass")
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("creation race resolves to conflict", func(t *testing.T) {
		repo := &MockUserRepository{
			GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
				return nil, models.ErrNotFound
			},
			CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
				return nil, models.ErrConflict
			},
		}
		service := newTestAuthService(repo, &MockEmailSender{})

		_, err := service.Register(context.Background(), "Alice", "alice@example.com", "correct-horse")
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("weak password is rejected before any write", func(t *testing.T) {
		created := false
		repo := &MockUserRepository{
			GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
				return nil, models.ErrNotFound
			},
			CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
				created = true
				return user, nil
			},
		}
		service := newTestAuthService(repo, &MockEmailSender{})

		_, err := service.Register(context.Background(), "Alice", "alice@example.com", "abc")
		assert.Error(t, err)
		assert.False(t, created)
	})

	t.Run("registered password round-trips through login", func(t *testing.T) {
		repo := newMemoryUserRepo()
		service := newTestAuthService(repo, &MockEmailSender{})

		_, err := service.Register(context.Background(), "Alice", "alice@example.com", "correct-horse")
		require.NoError(t, err)

		resp, err := service.Login(context.Background(), "alice@example.com", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", resp.User.Email)
	})
}

func TestAuthService_PasswordResetFlow(t *testing.T) {
	t.Run("full reset cycle replaces the password", func(t *testing.T) {
		repo := newMemoryUserRepo()
		sender := &MockEmailSender{}
		service := newTestAuthService(repo, sender)

		_, err := service.Register(context.Background(), "Alice", "alice@example.com", "old-password")
		require.NoError(t, err)

		err = service.RequestPasswordReset(context.Background(), "alice@example.com")
		require.NoError(t, err)
		require.Len(t, sender.SentTokens, 1)
		token := sender.SentTokens[0]
		assert.Equal(t, []string{"alice@example.com"}, sender.SentTo)

		// Verification is read-only and repeatable
		email, err := service.VerifyResetToken(token)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", email)
		_, err = service.VerifyResetToken(token)
		require.NoError(t, err)

		err = service.ResetPassword(context.Background(), token, "new-password")
		require.NoError(t, err)

		_, err = service.Login(context.Background(), "alice@example.com", "old-password")
		assert.ErrorIs(t, err, models.ErrUnauthorized)

		resp, err := service.Login(context.Background(), "alice@example.com", "new-password")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", resp.User.Email)
	})

	t.Run("unknown email surfaces as not found", func(t *testing.T) {
		repo := newMemoryUserRepo()
		service := newTestAuthService(repo, &MockEmailSender{})

		err := service.RequestPasswordReset(context.Background(), "ghost@example.com")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("expired token leaves the password unchanged", func(t *testing.T) {
		repo := newMemoryUserRepo()
		sender := &MockEmailSender{}

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		expiredTM := auth.NewTokenManager(testJWTSecret, 7*24*time.Hour, -time.Minute)
		timing := auth.NewTimingDelay(auth.TimingConfig{})
		service := NewAuthService(repo, expiredTM, sender, timing, logger, pkglogger.NewAuditLogger(logger), 15*time.Minute)

		_, err := service.Register(context.Background(), "Alice", "alice@example.com", "old-password")
		require.NoError(t, err)

		err = service.RequestPasswordReset(context.Background(), "alice@example.com")
		require.NoError(t, err)
		token := sender.SentTokens[0]

		_, err = service.VerifyResetToken(token)
		assert.ErrorIs(t, err, models.ErrUnauthorized)

		err = service.ResetPassword(context.Background(), token, "new-password")
		assert.ErrorIs(t, err, models.ErrUnauthorized)

		_, err = service.Login(context.Background(), "alice@example.com", "old-password")
		assert.NoError(t, err)
	})

	t.Run("session token is not accepted as a reset token", func(t *testing.T) {
		repo := newMemoryUserRepo()
		service := newTestAuthService(repo, &MockEmailSender{})

		resp, err := service.Register(context.Background(), "Alice", "alice@example.com", "old-password")
		require.NoError(t, err)

		err = service.ResetPassword(context.Background(), resp.Token, "new-password")
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("weak replacement password is rejected", func(t *testing.T) {
		repo := newMemoryUserRepo()
		sender := &MockEmailSender{}
		service := newTestAuthService(repo, sender)

		_, err := service.Register(context.Background(), "Alice", "alice@example.com", "old-password")
		require.NoError(t, err)

		err = service.RequestPasswordReset(context.Background(), "alice@example.com")
		require.NoError(t, err)

		err = service.ResetPassword(context.Background(), sender.SentTokens[0], "abc")
		assert.Error(t, err)

		_, err = service.Login(context.Background(), "alice@example.com", "old-password")
		assert.NoError(t, err)
	})
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	user := NewTestUser("user1", "alice@example.com", "Alice")
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			if id == "user1" {
				u := *user
				return &u, nil
			}
			return nil, models.ErrNotFound
		},
	}
	service := newTestAuthService(repo, &MockEmailSender{})

	t.Run("known user", func(t *testing.T) {
		resp, err := service.GetCurrentUser(context.Background(), "user1")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", resp.Email)
	})

	t.Run("deleted user maps to unauthorized", func(t *testing.T) {
		_, err := service.GetCurrentUser(context.Background(), "gone")
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})
}
