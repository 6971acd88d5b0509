package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/BradenHooton/taskpilot/internal/models"
	"github.com/BradenHooton/taskpilot/internal/services"
	pkghttp "github.com/BradenHooton/taskpilot/pkg/http"
)

const oauthStateCookie = "oauth_state"

// GoogleOAuthClient defines the interface for the Google code flow
type GoogleOAuthClient interface {
	AuthorizationURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchUserInfo(ctx context.Context, token *oauth2.Token) (*models.ExternalIdentity, error)
}

// IdentityServiceInterface defines the interface for identity reconciliation
type IdentityServiceInterface interface {
	Resolve(ctx context.Context, identity *models.ExternalIdentity) (*services.AuthResponse, error)
}

// GoogleHandler handles Google sign-in, both the server-side
// authorization-code flow and assertion sync from redirect-flow clients
type GoogleHandler struct {
	oauth         GoogleOAuthClient
	identity      IdentityServiceInterface
	clientURL     string
	secureCookies bool
	logger        *slog.Logger
}

// NewGoogleHandler creates a new GoogleHandler
func NewGoogleHandler(oauth GoogleOAuthClient, identity IdentityServiceInterface, clientURL string, secureCookies bool, logger *slog.Logger) *GoogleHandler {
	return &GoogleHandler{
		oauth:         oauth,
		identity:      identity,
		clientURL:     clientURL,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// GoogleSignInRequest represents an identity assertion posted by a client
// that completed the provider redirect flow itself
type GoogleSignInRequest struct {
	GoogleID string `json:"google_id" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Avatar   string `json:"avatar"`
}

// Initiate starts the authorization-code flow
// @Summary Begin Google sign-in
// @Success 302
// @Router /auth/google [get]
func (h *GoogleHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	state, err := randomState()
	if err != nil {
		h.logger.Error("failed to generate oauth state", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.oauth.AuthorizationURL(state), http.StatusFound)
}

// Callback completes the authorization-code flow. The browser lands here
// from Google, so failures redirect back to the client application rather
// than returning a JSON error it would never render.
// @Summary Google sign-in callback
// @Success 302
// @Router /auth/google/callback [get]
func (h *GoogleHandler) Callback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		h.logger.Warn("oauth callback with missing or mismatched state")
		h.redirectFailure(w, r)
		return
	}

	// The state cookie is single-use
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		h.logger.Warn("oauth callback without code", slog.String("provider_error", r.URL.Query().Get("error")))
		h.redirectFailure(w, r)
		return
	}

	token, err := h.oauth.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth code exchange failed", slog.Any("error", err))
		h.redirectFailure(w, r)
		return
	}

	identity, err := h.oauth.FetchUserInfo(r.Context(), token)
	if err != nil {
		h.logger.Error("failed to fetch google userinfo", slog.Any("error", err))
		h.redirectFailure(w, r)
		return
	}

	authResp, err := h.identity.Resolve(r.Context(), identity)
	if err != nil {
		h.logger.Warn("google identity resolution failed", slog.Any("error", err))
		h.redirectFailure(w, r)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("%s/auth/callback?token=%s", h.clientURL, authResp.Token), http.StatusFound)
}

// SignIn syncs an identity assertion from a client that ran the provider
// redirect flow itself and returns a session token
// @Summary Google sign-in sync
// @Accept json
// @Param request body GoogleSignInRequest true "Identity assertion"
// @Produce json
// @Success 200 {object} services.AuthResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Router /auth/google/signin [post]
func (h *GoogleHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req GoogleSignInRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	identity := &models.ExternalIdentity{
		ProviderID: req.GoogleID,
		Email:      req.Email,
		Name:       req.Name,
		AvatarURL:  req.Avatar,
	}

	authResp, err := h.identity.Resolve(r.Context(), identity)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Invalid identity assertion")
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Invalid credentials")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, authResp)
}

func (h *GoogleHandler) redirectFailure(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.clientURL+"/login?error=oauth_failed", http.StatusFound)
}

func randomState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
