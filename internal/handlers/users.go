package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/taskpilot/internal/auth"
	"github.com/BradenHooton/taskpilot/internal/models"
	"github.com/BradenHooton/taskpilot/internal/services"
	pkghttp "github.com/BradenHooton/taskpilot/pkg/http"
)

// UserServiceInterface defines the interface for admin user management
type UserServiceInterface interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	UpdateRole(ctx context.Context, actorID, userID, role string) (*models.User, error)
	ToggleActive(ctx context.Context, actorID, userID string) (*models.User, error)
	DeleteUser(ctx context.Context, actorID, userID string) error
}

// UserHandler handles admin-facing user management requests
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// UpdateRoleRequest represents the request body for a role change
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin user"`
}

// List returns all users
// @Summary List users
// @Security BearerAuth
// @Produce json
// @Success 200 {array} services.UserResponse
// @Router /users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r, 50)

	users, err := h.service.ListUsers(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	resp := make([]*services.UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, services.UserModelToResponse(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateRole changes a user's role
// @Summary Change a user's role
// @Security BearerAuth
// @Accept json
// @Param id path string true "User ID"
// @Param request body UpdateRoleRequest true "Role change"
// @Produce json
// @Success 200 {object} services.UserResponse
// @Failure 403 {object} pkghttp.ErrorResponse
// @Router /users/{id}/role [put]
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetUserFromContext(r)
	if actor == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	userID := chi.URLParam(r, "id")

	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	updated, err := h.service.UpdateRole(r.Context(), actor.ID, userID, req.Role)
	if err != nil {
		writeUserServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, services.UserModelToResponse(updated))
}

// UpdateStatus toggles a user's active flag
// @Summary Toggle a user's active status
// @Security BearerAuth
// @Param id path string true "User ID"
// @Produce json
// @Success 200 {object} services.UserResponse
// @Failure 403 {object} pkghttp.ErrorResponse
// @Router /users/{id}/status [put]
func (h *UserHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetUserFromContext(r)
	if actor == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	userID := chi.URLParam(r, "id")

	updated, err := h.service.ToggleActive(r.Context(), actor.ID, userID)
	if err != nil {
		writeUserServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, services.UserModelToResponse(updated))
}

// Delete removes a user
// @Summary Delete a user
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204
// @Failure 403 {object} pkghttp.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetUserFromContext(r)
	if actor == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	userID := chi.URLParam(r, "id")

	if err := h.service.DeleteUser(r.Context(), actor.ID, userID); err != nil {
		writeUserServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeUserServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "You cannot perform this action on your own account")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "User not found")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid request")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

// paginationParams reads limit/offset query parameters with bounds
func paginationParams(r *http.Request, defaultLimit int) (int, int) {
	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
