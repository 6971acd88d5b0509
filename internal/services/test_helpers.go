package services

import (
	"context"
	"time"

	"github.com/BradenHooton/taskpilot/internal/models"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc        func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc     func(ctx context.Context, email string) (*models.User, error)
	GetByGoogleIDFunc  func(ctx context.Context, googleID string) (*models.User, error)
	CountFunc          func(ctx context.Context) (int64, error)
	ListFunc           func(ctx context.Context, limit, offset int) ([]*models.User, error)
	CreateFunc         func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateFunc         func(ctx context.Context, id string, user *models.User) (*models.User, error)
	UpdatePasswordFunc func(ctx context.Context, id, passwordHash string) error
	DeleteFunc         func(ctx context.Context, id string) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	if m.GetByGoogleIDFunc != nil {
		return m.GetByGoogleIDFunc(ctx, googleID)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) Update(ctx context.Context, id string, user *models.User) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockEmailSender implements EmailSender for testing
type MockEmailSender struct {
	SendPasswordResetEmailFunc func(ctx context.Context, email, token string, validFor time.Duration) error
	SentTo                     []string
	SentTokens                 []string
}

func (m *MockEmailSender) SendPasswordResetEmail(ctx context.Context, email, token string, validFor time.Duration) error {
	m.SentTo = append(m.SentTo, email)
	m.SentTokens = append(m.SentTokens, token)
	if m.SendPasswordResetEmailFunc != nil {
		return m.SendPasswordResetEmailFunc(ctx, email, token, validFor)
	}
	return nil
}

// MockTaskRepository implements TaskRepository for testing
type MockTaskRepository struct {
	GetByIDFunc func(ctx context.Context, id string) (*models.Task, error)
	ListFunc    func(ctx context.Context, limit, offset int) ([]*models.Task, error)
	CreateFunc  func(ctx context.Context, task *models.Task) (*models.Task, error)
	DeleteFunc  func(ctx context.Context, id string) error
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockTaskRepository) List(ctx context.Context, limit, offset int) ([]*models.Task, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.Task{}, nil
}

func (m *MockTaskRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, task)
	}
	return nil, models.ErrInternalServer
}

func (m *MockTaskRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockResponseRepository implements ResponseRepository for testing
type MockResponseRepository struct {
	GetByIDFunc    func(ctx context.Context, id string) (*models.TaskResponse, error)
	ListByTaskFunc func(ctx context.Context, taskID string) ([]*models.TaskResponse, error)
	ListByUserFunc func(ctx context.Context, userID string) ([]*models.TaskResponse, error)
	CreateFunc     func(ctx context.Context, resp *models.TaskResponse) (*models.TaskResponse, error)
	DeleteFunc     func(ctx context.Context, id string) error
}

func (m *MockResponseRepository) GetByID(ctx context.Context, id string) (*models.TaskResponse, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockResponseRepository) ListByTask(ctx context.Context, taskID string) ([]*models.TaskResponse, error) {
	if m.ListByTaskFunc != nil {
		return m.ListByTaskFunc(ctx, taskID)
	}
	return []*models.TaskResponse{}, nil
}

func (m *MockResponseRepository) ListByUser(ctx context.Context, userID string) ([]*models.TaskResponse, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []*models.TaskResponse{}, nil
}

func (m *MockResponseRepository) Create(ctx context.Context, resp *models.TaskResponse) (*models.TaskResponse, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, resp)
	}
	return nil, models.ErrInternalServer
}

func (m *MockResponseRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// NewTestUser builds a user record with sensible defaults for tests
func NewTestUser(id, email, name string) *models.User {
	now := time.Now()
	return &models.User{
		ID:        id,
		Email:     email,
		Name:      name,
		Role:      models.RoleUser,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// memoryUserRepo is an in-memory UserRepository used when tests need
// stateful create/link behavior rather than stubbed single calls.
type memoryUserRepo struct {
	users  []*models.User
	nextID int
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{nextID: 1}
}

func (r *memoryUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			copy := *u
			return &copy, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *memoryUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *memoryUserRepo) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	for _, u := range r.users {
		if googleID != "" && u.GoogleID == googleID {
			copy := *u
			return &copy, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *memoryUserRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

func (r *memoryUserRepo) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	return r.users, nil
}

func (r *memoryUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, models.ErrConflict
		}
		if user.GoogleID != "" && u.GoogleID == user.GoogleID {
			return nil, models.ErrConflict
		}
	}
	user.ID = "user" + string(rune('0'+r.nextID))
	r.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	r.users = append(r.users, &stored)
	copy := stored
	return &copy, nil
}

func (r *memoryUserRepo) Update(ctx context.Context, id string, user *models.User) (*models.User, error) {
	for i, u := range r.users {
		if u.ID == id {
			user.ID = id
			user.UpdatedAt = time.Now()
			stored := *user
			r.users[i] = &stored
			copy := stored
			return &copy, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *memoryUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	for _, u := range r.users {
		if u.ID == id {
			u.PasswordHash = passwordHash
			u.UpdatedAt = time.Now()
			return nil
		}
	}
	return models.ErrNotFound
}

func (r *memoryUserRepo) Delete(ctx context.Context, id string) error {
	for i, u := range r.users {
		if u.ID == id {
			r.users = append(r.users[:i], r.users[i+1:]...)
			return nil
		}
	}
	return models.ErrNotFound
}
