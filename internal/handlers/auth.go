package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/taskpilot/internal/auth"
	"github.com/BradenHooton/taskpilot/internal/models"
	"github.com/BradenHooton/taskpilot/internal/services"
	pkghttp "github.com/BradenHooton/taskpilot/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (*services.AuthResponse, error)
	Register(ctx context.Context, name, email, password string) (*services.AuthResponse, error)
	GetCurrentUser(ctx context.Context, userID string) (*services.UserResponse, error)
	RequestPasswordReset(ctx context.Context, email string) error
	VerifyResetToken(token string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// Request DTOs

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest represents the request body for a reset request
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyResetTokenRequest represents the request body for token verification
type VerifyResetTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// ResetPasswordRequest represents the request body for completing a reset
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required"`
}

// Login handles user login
// @Summary User login
// @Accept json
// @Param request body LoginRequest true "Login request"
// @Produce json
// @Success 200 {object} services.AuthResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	authResp, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			// One message for lookup miss, bad password, and deactivated account
			pkghttp.WriteUnauthorized(w, "Invalid credentials")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, authResp)
}

// Register handles user registration
// @Summary User registration
// @Accept json
// @Param request body RegisterRequest true "Register request"
// @Produce json
// @Success 201 {object} services.AuthResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 409 {object} pkghttp.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	authResp, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "An account with this email already exists")
		case errors.Is(err, models.ErrInternalServer):
			pkghttp.WriteInternalError(w, "Internal server error")
		default:
			// Password policy and field errors carry their own message
			pkghttp.WriteBadRequest(w, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, authResp)
}

// Me returns the authenticated user's profile
// @Summary Current user
// @Security BearerAuth
// @Produce json
// @Success 200 {object} services.UserResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	resp, err := h.service.GetCurrentUser(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			pkghttp.WriteUnauthorized(w, "Invalid or expired token")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Logout acknowledges a logout. Session tokens are stateless, so the
// server has nothing to revoke; clients discard their stored token.
// @Summary User logout
// @Security BearerAuth
// @Produce json
// @Success 200
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// ForgotPassword issues a password-reset email
// @Summary Request a password reset
// @Accept json
// @Param request body ForgotPasswordRequest true "Forgot password request"
// @Produce json
// @Success 200
// @Failure 404 {object} pkghttp.ErrorResponse
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "No account found with this email")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset email sent"})
}

// VerifyResetToken checks a reset token without consuming it
// @Summary Verify a password reset token
// @Accept json
// @Param request body VerifyResetTokenRequest true "Verify request"
// @Produce json
// @Success 200
// @Failure 401 {object} pkghttp.ErrorResponse
// @Router /auth/verify-reset-token [post]
func (h *AuthHandler) VerifyResetToken(w http.ResponseWriter, r *http.Request) {
	var req VerifyResetTokenRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	email, err := h.service.VerifyResetToken(req.Token)
	if err != nil {
		pkghttp.WriteUnauthorized(w, "Invalid or expired reset token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"email": email})
}

// ResetPassword consumes a reset token and sets a new password
// @Summary Complete a password reset
// @Accept json
// @Param token path string true "Reset token"
// @Param request body ResetPasswordRequest true "Reset request"
// @Produce json
// @Success 200
// @Failure 401 {object} pkghttp.ErrorResponse
// @Router /auth/reset-password/{token} [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		pkghttp.WriteBadRequest(w, "Reset token is required")
		return
	}

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.ResetPassword(r.Context(), token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Invalid or expired reset token")
		case errors.Is(err, models.ErrInternalServer):
			pkghttp.WriteInternalError(w, "Internal server error")
		default:
			pkghttp.WriteBadRequest(w, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password has been reset"})
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if body != nil {
		// Headers are already out; encoding failures cannot be reported
		_ = json.NewEncoder(w).Encode(body)
	}
}
