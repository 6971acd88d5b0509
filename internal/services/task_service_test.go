package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/taskpilot/internal/models"
)

func newTestTaskService(tasks TaskRepository, responses ResponseRepository) *TaskService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewTaskService(tasks, responses, logger)
}

func TestTaskService_CreateTask(t *testing.T) {
	t.Run("creates a task with trimmed fields", func(t *testing.T) {
		tasks := &MockTaskRepository{
			CreateFunc: func(ctx context.Context, task *models.Task) (*models.Task, error) {
				task.ID = "task1"
				return task, nil
			},
		}
		service := newTestTaskService(tasks, &MockResponseRepository{})

		created, err := service.CreateTask(context.Background(), "admin1", "  Weekly report  ", "  Summarize the week ", "")
		require.NoError(t, err)
		assert.Equal(t, "Weekly report", created.Title)
		assert.Equal(t, "Summarize the week", created.Description)
		assert.Equal(t, "admin1", created.CreatedBy)
	})

	t.Run("empty title is rejected", func(t *testing.T) {
		service := newTestTaskService(&MockTaskRepository{}, &MockResponseRepository{})

		_, err := service.CreateTask(context.Background(), "admin1", "   ", "desc", "")
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})
}

func TestTaskService_SubmitResponse(t *testing.T) {
	existing := &models.Task{ID: "task1", Title: "Weekly report", CreatedBy: "admin1"}

	tasks := &MockTaskRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Task, error) {
			if id == "task1" {
				return existing, nil
			}
			return nil, models.ErrNotFound
		},
	}

	t.Run("records a response to an existing task", func(t *testing.T) {
		responses := &MockResponseRepository{
			CreateFunc: func(ctx context.Context, resp *models.TaskResponse) (*models.TaskResponse, error) {
				resp.ID = "resp1"
				return resp, nil
			},
		}
		service := newTestTaskService(tasks, responses)

		created, err := service.SubmitResponse(context.Background(), "task1", "user1", "  Done.  ")
		require.NoError(t, err)
		assert.Equal(t, "task1", created.TaskID)
		assert.Equal(t, "user1", created.UserID)
		assert.Equal(t, "Done.", created.Body)
	})

	t.Run("missing task is not found", func(t *testing.T) {
		service := newTestTaskService(tasks, &MockResponseRepository{})

		_, err := service.SubmitResponse(context.Background(), "ghost", "user1", "Done.")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("empty body is rejected without touching the store", func(t *testing.T) {
		looked := false
		guarded := &MockTaskRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*models.Task, error) {
				looked = true
				return existing, nil
			},
		}
		service := newTestTaskService(guarded, &MockResponseRepository{})

		_, err := service.SubmitResponse(context.Background(), "task1", "user1", "   ")
		assert.ErrorIs(t, err, models.ErrBadRequest)
		assert.False(t, looked)
	})
}

func TestTaskService_Listing(t *testing.T) {
	tasks := &MockTaskRepository{
		ListFunc: func(ctx context.Context, limit, offset int) ([]*models.Task, error) {
			return []*models.Task{{ID: "task1"}, {ID: "task2"}}, nil
		},
	}
	responses := &MockResponseRepository{
		ListByTaskFunc: func(ctx context.Context, taskID string) ([]*models.TaskResponse, error) {
			return []*models.TaskResponse{{ID: "resp1", TaskID: taskID}}, nil
		},
		ListByUserFunc: func(ctx context.Context, userID string) ([]*models.TaskResponse, error) {
			return []*models.TaskResponse{{ID: "resp1", UserID: userID}}, nil
		},
	}
	service := newTestTaskService(tasks, responses)

	list, err := service.ListTasks(context.Background(), 50, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	byTask, err := service.ListTaskResponses(context.Background(), "task1")
	require.NoError(t, err)
	require.Len(t, byTask, 1)
	assert.Equal(t, "task1", byTask[0].TaskID)

	byUser, err := service.ListUserResponses(context.Background(), "user1")
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, "user1", byUser[0].UserID)
}

func TestTaskService_DeleteTask(t *testing.T) {
	t.Run("missing task is not found", func(t *testing.T) {
		tasks := &MockTaskRepository{
			DeleteFunc: func(ctx context.Context, id string) error {
				return models.ErrNotFound
			},
		}
		service := newTestTaskService(tasks, &MockResponseRepository{})

		err := service.DeleteTask(context.Background(), "ghost")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("existing task is deleted", func(t *testing.T) {
		deleted := ""
		tasks := &MockTaskRepository{
			DeleteFunc: func(ctx context.Context, id string) error {
				deleted = id
				return nil
			},
		}
		service := newTestTaskService(tasks, &MockResponseRepository{})

		err := service.DeleteTask(context.Background(), "task1")
		require.NoError(t, err)
		assert.Equal(t, "task1", deleted)
	})
}
