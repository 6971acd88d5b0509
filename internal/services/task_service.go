package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/BradenHooton/taskpilot/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context, limit, offset int) ([]*models.Task, error)
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	Delete(ctx context.Context, id string) error
}

// ResponseRepository defines the interface for response data access
type ResponseRepository interface {
	GetByID(ctx context.Context, id string) (*models.TaskResponse, error)
	ListByTask(ctx context.Context, taskID string) ([]*models.TaskResponse, error)
	ListByUser(ctx context.Context, userID string) ([]*models.TaskResponse, error)
	Create(ctx context.Context, resp *models.TaskResponse) (*models.TaskResponse, error)
	Delete(ctx context.Context, id string) error
}

// TaskService handles the task/response workflow
type TaskService struct {
	tasks     TaskRepository
	responses ResponseRepository
	logger    *slog.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(tasks TaskRepository, responses ResponseRepository, logger *slog.Logger) *TaskService {
	return &TaskService{
		tasks:     tasks,
		responses: responses,
		logger:    logger,
	}
}

// CreateTask creates a task on behalf of the given admin
func (s *TaskService) CreateTask(ctx context.Context, creatorID, title, description, attachmentURL string) (*models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, models.ErrBadRequest
	}

	task := &models.Task{
		Title:         title,
		Description:   strings.TrimSpace(description),
		AttachmentURL: attachmentURL,
		CreatedBy:     creatorID,
	}

	created, err := s.tasks.Create(ctx, task)
	if err != nil {
		s.logger.Error("failed to create task", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("task created", slog.String("task_id", created.ID), slog.String("created_by", creatorID))
	return created, nil
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get task", slog.String("task_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return task, nil
}

// ListTasks retrieves tasks with pagination
func (s *TaskService) ListTasks(ctx context.Context, limit, offset int) ([]*models.Task, error) {
	tasks, err := s.tasks.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list tasks", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return tasks, nil
}

// DeleteTask removes a task
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete task", slog.String("task_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("task deleted", slog.String("task_id", id))
	return nil
}

// SubmitResponse records a user's response to a task
func (s *TaskService) SubmitResponse(ctx context.Context, taskID, userID, body string) (*models.TaskResponse, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, models.ErrBadRequest
	}

	// The task must exist before accepting a response to it
	if _, err := s.tasks.GetByID(ctx, taskID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get task", slog.String("task_id", taskID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	resp := &models.TaskResponse{
		TaskID: taskID,
		UserID: userID,
		Body:   body,
	}

	created, err := s.responses.Create(ctx, resp)
	if err != nil {
		s.logger.Error("failed to create response", slog.String("task_id", taskID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("response submitted", slog.String("response_id", created.ID), slog.String("task_id", taskID))
	return created, nil
}

// ListTaskResponses retrieves all responses to a task (admin view)
func (s *TaskService) ListTaskResponses(ctx context.Context, taskID string) ([]*models.TaskResponse, error) {
	responses, err := s.responses.ListByTask(ctx, taskID)
	if err != nil {
		s.logger.Error("failed to list responses", slog.String("task_id", taskID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return responses, nil
}

// ListUserResponses retrieves the responses a user has submitted
func (s *TaskService) ListUserResponses(ctx context.Context, userID string) ([]*models.TaskResponse, error) {
	responses, err := s.responses.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list user responses", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return responses, nil
}
