package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/taskpilot/internal/database"
	"github.com/BradenHooton/taskpilot/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(db *database.DB) *TaskRepository {
	return &TaskRepository{pool: db.Pool}
}

const taskColumns = `id, title, description, attachment_url, created_by, created_at, updated_at`

func scanTaskRow(scanner rowScanner) (*models.Task, error) {
	var task models.Task
	var attachmentURL *string

	err := scanner.Scan(
		&task.ID, &task.Title, &task.Description, &attachmentURL,
		&task.CreatedBy, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if attachmentURL != nil {
		task.AttachmentURL = *attachmentURL
	}

	return &task, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return scanTaskRow(r.pool.QueryRow(ctx, query, id))
}

func (r *TaskRepository) List(ctx context.Context, limit, offset int) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task, err := scanTaskRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	task.ID = uuid.New().String()

	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	query := `
		INSERT INTO tasks (id, title, description, attachment_url, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + taskColumns

	return scanTaskRow(r.pool.QueryRow(ctx, query,
		task.ID, task.Title, task.Description, nullable(task.AttachmentURL),
		task.CreatedBy, task.CreatedAt, task.UpdatedAt,
	))
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
