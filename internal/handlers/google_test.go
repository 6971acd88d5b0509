package handlers_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/BradenHooton/taskpilot/internal/handlers"
	"github.com/BradenHooton/taskpilot/internal/models"
	"github.com/BradenHooton/taskpilot/internal/services"
)

const testClientURL = "https://app.example.com"

func newGoogleHandler(oauth handlers.GoogleOAuthClient, identity handlers.IdentityServiceInterface) *handlers.GoogleHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return handlers.NewGoogleHandler(oauth, identity, testClientURL, false, logger)
}

func stateCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "oauth_state" {
			return c
		}
	}
	return nil
}

func TestGoogleInitiate(t *testing.T) {
	var capturedState string
	oauth := &handlers.MockGoogleOAuth{
		AuthorizationURLFunc: func(state string) string {
			capturedState = state
			return "https://accounts.google.com/o/oauth2/auth?state=" + state
		},
	}

	handler := newGoogleHandler(oauth, &handlers.MockIdentityService{})
	req := httptest.NewRequest("GET", "/auth/google", nil)
	w := httptest.NewRecorder()
	handler.Initiate(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.NotEmpty(t, capturedState)
	assert.Contains(t, w.Header().Get("Location"), capturedState)

	cookie := stateCookie(w)
	require.NotNil(t, cookie, "state cookie must be set")
	assert.Equal(t, capturedState, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
}

func TestGoogleCallback(t *testing.T) {
	identity := &handlers.MockIdentityService{
		ResolveFunc: func(ctx context.Context, id *models.ExternalIdentity) (*services.AuthResponse, error) {
			return &services.AuthResponse{
				Token: "session_token_789",
				User:  &services.UserResponse{ID: "user1", Email: id.Email},
			}, nil
		},
	}
	oauth := &handlers.MockGoogleOAuth{
		FetchUserInfoFunc: func(ctx context.Context, token *oauth2.Token) (*models.ExternalIdentity, error) {
			return &models.ExternalIdentity{ProviderID: "g-1", Email: "alice@example.com", Name: "Alice"}, nil
		},
	}

	t.Run("success redirects to the client with a token", func(t *testing.T) {
		handler := newGoogleHandler(oauth, identity)
		req := httptest.NewRequest("GET", "/auth/google/callback?state=abc&code=the-code", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "abc"})

		w := httptest.NewRecorder()
		handler.Callback(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, testClientURL+"/auth/callback?token=session_token_789", w.Header().Get("Location"))

		cookie := stateCookie(w)
		require.NotNil(t, cookie)
		assert.True(t, cookie.MaxAge < 0, "state cookie must be cleared")
	})

	t.Run("state mismatch redirects to login with an error", func(t *testing.T) {
		handler := newGoogleHandler(oauth, identity)
		req := httptest.NewRequest("GET", "/auth/google/callback?state=evil&code=the-code", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "abc"})

		w := httptest.NewRecorder()
		handler.Callback(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, testClientURL+"/login?error=oauth_failed", w.Header().Get("Location"))
	})

	t.Run("missing state cookie fails", func(t *testing.T) {
		handler := newGoogleHandler(oauth, identity)
		req := httptest.NewRequest("GET", "/auth/google/callback?state=abc&code=the-code", nil)

		w := httptest.NewRecorder()
		handler.Callback(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.True(t, strings.HasSuffix(w.Header().Get("Location"), "error=oauth_failed"))
	})

	t.Run("provider denial redirects to login", func(t *testing.T) {
		handler := newGoogleHandler(oauth, identity)
		req := httptest.NewRequest("GET", "/auth/google/callback?state=abc&error=access_denied", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "abc"})

		w := httptest.NewRecorder()
		handler.Callback(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, testClientURL+"/login?error=oauth_failed", w.Header().Get("Location"))
	})

	t.Run("deactivated account redirects to login, not the client callback", func(t *testing.T) {
		blocked := &handlers.MockIdentityService{
			ResolveFunc: func(ctx context.Context, id *models.ExternalIdentity) (*services.AuthResponse, error) {
				return nil, models.ErrUnauthorized
			},
		}
		handler := newGoogleHandler(oauth, blocked)
		req := httptest.NewRequest("GET", "/auth/google/callback?state=abc&code=the-code", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "abc"})

		w := httptest.NewRecorder()
		handler.Callback(w, req)

		assert.Equal(t, testClientURL+"/login?error=oauth_failed", w.Header().Get("Location"))
	})
}

func TestGoogleSignIn(t *testing.T) {
	t.Run("valid assertion returns a session", func(t *testing.T) {
		var resolved *models.ExternalIdentity
		identity := &handlers.MockIdentityService{
			ResolveFunc: func(ctx context.Context, id *models.ExternalIdentity) (*services.AuthResponse, error) {
				resolved = id
				return &services.AuthResponse{
					Token: "session_token_abc",
					User:  &services.UserResponse{ID: "user1", Email: id.Email},
				}, nil
			},
		}

		handler := newGoogleHandler(&handlers.MockGoogleOAuth{}, identity)
		req := handlers.NewTestRequest(t, "POST", "/auth/google/signin", handlers.GoogleSignInRequest{
			GoogleID: "g-1",
			Email:    "alice@example.com",
			Name:     "Alice",
			Avatar:   "https://photos.example.com/alice.png",
		})

		w := httptest.NewRecorder()
		handler.SignIn(w, req)

		var resp services.AuthResponse
		handlers.AssertJSONResponse(t, w, 200, &resp)
		assert.Equal(t, "session_token_abc", resp.Token)
		require.NotNil(t, resolved)
		assert.Equal(t, "g-1", resolved.ProviderID)
		assert.Equal(t, "https://photos.example.com/alice.png", resolved.AvatarURL)
	})

	t.Run("missing provider id is rejected", func(t *testing.T) {
		handler := newGoogleHandler(&handlers.MockGoogleOAuth{}, &handlers.MockIdentityService{})
		req := handlers.NewTestRequest(t, "POST", "/auth/google/signin", handlers.GoogleSignInRequest{
			Email: "alice@example.com",
			Name:  "Alice",
		})

		w := httptest.NewRecorder()
		handler.SignIn(w, req)

		handlers.AssertErrorResponse(t, w, 400, "bad_request")
	})

	t.Run("deactivated account gets generic unauthorized", func(t *testing.T) {
		identity := &handlers.MockIdentityService{
			ResolveFunc: func(ctx context.Context, id *models.ExternalIdentity) (*services.AuthResponse, error) {
				return nil, models.ErrUnauthorized
			},
		}

		handler := newGoogleHandler(&handlers.MockGoogleOAuth{}, identity)
		req := handlers.NewTestRequest(t, "POST", "/auth/google/signin", handlers.GoogleSignInRequest{
			GoogleID: "g-1",
			Email:    "alice@example.com",
			Name:     "Alice",
		})

		w := httptest.NewRecorder()
		handler.SignIn(w, req)

		handlers.AssertErrorResponse(t, w, 401, "unauthorized")
	})
}
