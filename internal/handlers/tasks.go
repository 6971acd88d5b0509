package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/taskpilot/internal/auth"
	"github.com/BradenHooton/taskpilot/internal/models"
	pkghttp "github.com/BradenHooton/taskpilot/pkg/http"
)

// TaskServiceInterface defines the interface for the task workflow
type TaskServiceInterface interface {
	CreateTask(ctx context.Context, creatorID, title, description, attachmentURL string) (*models.Task, error)
	GetTask(ctx context.Context, id string) (*models.Task, error)
	ListTasks(ctx context.Context, limit, offset int) ([]*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
	SubmitResponse(ctx context.Context, taskID, userID, body string) (*models.TaskResponse, error)
	ListTaskResponses(ctx context.Context, taskID string) ([]*models.TaskResponse, error)
	ListUserResponses(ctx context.Context, userID string) ([]*models.TaskResponse, error)
}

// TaskHandler handles task and response requests
type TaskHandler struct {
	service TaskServiceInterface
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(service TaskServiceInterface) *TaskHandler {
	return &TaskHandler{service: service}
}

// CreateTaskRequest represents the request body for task creation
type CreateTaskRequest struct {
	Title         string `json:"title" validate:"required,min=1,max=200"`
	Description   string `json:"description" validate:"max=5000"`
	AttachmentURL string `json:"attachment_url" validate:"omitempty,url"`
}

// SubmitResponseRequest represents the request body for a task response
type SubmitResponseRequest struct {
	Body string `json:"body" validate:"required,min=1,max=10000"`
}

// Create creates a task (admin only)
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetUserFromContext(r)
	if actor == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	task, err := h.service.CreateTask(r.Context(), actor.ID, req.Title, req.Description, req.AttachmentURL)
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, "Title is required")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// List returns tasks visible to the authenticated user
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r, 50)

	tasks, err := h.service.ListTasks(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// Get returns a single task
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.service.GetTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Task not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// Delete removes a task (admin only)
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Task not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SubmitResponse records the authenticated user's response to a task
func (h *TaskHandler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetUserFromContext(r)
	if actor == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req SubmitResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.SubmitResponse(r.Context(), chi.URLParam(r, "id"), actor.ID, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Task not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Response body is required")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// ListTaskResponses returns all responses to a task (admin only)
func (h *TaskHandler) ListTaskResponses(w http.ResponseWriter, r *http.Request) {
	responses, err := h.service.ListTaskResponses(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, responses)
}

// ListMyResponses returns the authenticated user's submitted responses
func (h *TaskHandler) ListMyResponses(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetUserFromContext(r)
	if actor == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	responses, err := h.service.ListUserResponses(r.Context(), actor.ID)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, responses)
}
