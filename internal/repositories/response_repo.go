package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/taskpilot/internal/database"
	"github.com/BradenHooton/taskpilot/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ResponseRepository struct {
	pool *pgxpool.Pool
}

func NewResponseRepository(db *database.DB) *ResponseRepository {
	return &ResponseRepository{pool: db.Pool}
}

const responseColumns = `id, task_id, user_id, body, created_at`

func scanResponseRow(scanner rowScanner) (*models.TaskResponse, error) {
	var resp models.TaskResponse

	err := scanner.Scan(&resp.ID, &resp.TaskID, &resp.UserID, &resp.Body, &resp.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &resp, nil
}

func scanResponseRows(rows pgx.Rows) ([]*models.TaskResponse, error) {
	defer rows.Close()

	responses := make([]*models.TaskResponse, 0)

	for rows.Next() {
		resp, err := scanResponseRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		responses = append(responses, resp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return responses, nil
}

func (r *ResponseRepository) GetByID(ctx context.Context, id string) (*models.TaskResponse, error) {
	query := `SELECT ` + responseColumns + ` FROM responses WHERE id = $1`
	return scanResponseRow(r.pool.QueryRow(ctx, query, id))
}

func (r *ResponseRepository) ListByTask(ctx context.Context, taskID string) ([]*models.TaskResponse, error) {
	query := `SELECT ` + responseColumns + ` FROM responses WHERE task_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}

	return scanResponseRows(rows)
}

func (r *ResponseRepository) ListByUser(ctx context.Context, userID string) ([]*models.TaskResponse, error) {
	query := `SELECT ` + responseColumns + ` FROM responses WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}

	return scanResponseRows(rows)
}

func (r *ResponseRepository) Create(ctx context.Context, resp *models.TaskResponse) (*models.TaskResponse, error) {
	resp.ID = uuid.New().String()
	resp.CreatedAt = time.Now()

	query := `
		INSERT INTO responses (id, task_id, user_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + responseColumns

	return scanResponseRow(r.pool.QueryRow(ctx, query,
		resp.ID, resp.TaskID, resp.UserID, resp.Body, resp.CreatedAt,
	))
}

func (r *ResponseRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM responses WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
