package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"golang.org/x/oauth2"

	"github.com/BradenHooton/taskpilot/internal/auth"
	"github.com/BradenHooton/taskpilot/internal/models"
	"github.com/BradenHooton/taskpilot/internal/services"
	pkghttp "github.com/BradenHooton/taskpilot/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithUserContext attaches an authenticated user to the request context
func WithUserContext(req *http.Request, user *models.User) *http.Request {
	ctx := context.WithValue(req.Context(), auth.UserContextKey, user)
	return req.WithContext(ctx)
}

// TestUser builds a user record for handler tests
func TestUser(id, role string) *models.User {
	return &models.User{
		ID:        id,
		Email:     id + "@example.com",
		Name:      "Test " + id,
		Role:      role,
		Active:    true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// WithChiRouteContext adds chi URL parameters to the request context,
// allowing handlers that call chi.URLParam to be tested directly
func WithChiRouteContext(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc                func(ctx context.Context, email, password string) (*services.AuthResponse, error)
	RegisterFunc             func(ctx context.Context, name, email, password string) (*services.AuthResponse, error)
	GetCurrentUserFunc       func(ctx context.Context, userID string) (*services.UserResponse, error)
	RequestPasswordResetFunc func(ctx context.Context, email string) error
	VerifyResetTokenFunc     func(token string) (string, error)
	ResetPasswordFunc        func(ctx context.Context, token, newPassword string) error
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*services.AuthResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) Register(ctx context.Context, name, email, password string) (*services.AuthResponse, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, name, email, password)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAuthService) GetCurrentUser(ctx context.Context, userID string) (*services.UserResponse, error) {
	if m.GetCurrentUserFunc != nil {
		return m.GetCurrentUserFunc(ctx, userID)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if m.RequestPasswordResetFunc != nil {
		return m.RequestPasswordResetFunc(ctx, email)
	}
	return nil
}

func (m *MockAuthService) VerifyResetToken(token string) (string, error) {
	if m.VerifyResetTokenFunc != nil {
		return m.VerifyResetTokenFunc(token)
	}
	return "", models.ErrUnauthorized
}

func (m *MockAuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, token, newPassword)
	}
	return models.ErrUnauthorized
}

// MockUserService implements UserServiceInterface for testing
type MockUserService struct {
	GetUserByIDFunc  func(ctx context.Context, id string) (*models.User, error)
	ListUsersFunc    func(ctx context.Context, limit, offset int) ([]*models.User, error)
	UpdateRoleFunc   func(ctx context.Context, actorID, userID, role string) (*models.User, error)
	ToggleActiveFunc func(ctx context.Context, actorID, userID string) (*models.User, error)
	DeleteUserFunc   func(ctx context.Context, actorID, userID string) error
}

func (m *MockUserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetUserByIDFunc != nil {
		return m.GetUserByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserService) UpdateRole(ctx context.Context, actorID, userID, role string) (*models.User, error) {
	if m.UpdateRoleFunc != nil {
		return m.UpdateRoleFunc(ctx, actorID, userID, role)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserService) ToggleActive(ctx context.Context, actorID, userID string) (*models.User, error) {
	if m.ToggleActiveFunc != nil {
		return m.ToggleActiveFunc(ctx, actorID, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserService) DeleteUser(ctx context.Context, actorID, userID string) error {
	if m.DeleteUserFunc != nil {
		return m.DeleteUserFunc(ctx, actorID, userID)
	}
	return models.ErrNotFound
}

// MockIdentityService implements IdentityServiceInterface for testing
type MockIdentityService struct {
	ResolveFunc func(ctx context.Context, identity *models.ExternalIdentity) (*services.AuthResponse, error)
}

func (m *MockIdentityService) Resolve(ctx context.Context, identity *models.ExternalIdentity) (*services.AuthResponse, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, identity)
	}
	return nil, models.ErrInternalServer
}

// MockGoogleOAuth implements GoogleOAuthClient for testing
type MockGoogleOAuth struct {
	AuthorizationURLFunc func(state string) string
	ExchangeFunc         func(ctx context.Context, code string) (*oauth2.Token, error)
	FetchUserInfoFunc    func(ctx context.Context, token *oauth2.Token) (*models.ExternalIdentity, error)
}

func (m *MockGoogleOAuth) AuthorizationURL(state string) string {
	if m.AuthorizationURLFunc != nil {
		return m.AuthorizationURLFunc(state)
	}
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (m *MockGoogleOAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, code)
	}
	return &oauth2.Token{AccessToken: "test-access-token"}, nil
}

func (m *MockGoogleOAuth) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*models.ExternalIdentity, error) {
	if m.FetchUserInfoFunc != nil {
		return m.FetchUserInfoFunc(ctx, token)
	}
	return nil, models.ErrInternalServer
}

// MockTaskService implements TaskServiceInterface for testing
type MockTaskService struct {
	CreateTaskFunc        func(ctx context.Context, creatorID, title, description, attachmentURL string) (*models.Task, error)
	GetTaskFunc           func(ctx context.Context, id string) (*models.Task, error)
	ListTasksFunc         func(ctx context.Context, limit, offset int) ([]*models.Task, error)
	DeleteTaskFunc        func(ctx context.Context, id string) error
	SubmitResponseFunc    func(ctx context.Context, taskID, userID, body string) (*models.TaskResponse, error)
	ListTaskResponsesFunc func(ctx context.Context, taskID string) ([]*models.TaskResponse, error)
	ListUserResponsesFunc func(ctx context.Context, userID string) ([]*models.TaskResponse, error)
}

func (m *MockTaskService) CreateTask(ctx context.Context, creatorID, title, description, attachmentURL string) (*models.Task, error) {
	if m.CreateTaskFunc != nil {
		return m.CreateTaskFunc(ctx, creatorID, title, description, attachmentURL)
	}
	return nil, models.ErrInternalServer
}

func (m *MockTaskService) GetTask(ctx context.Context, id string) (*models.Task, error) {
	if m.GetTaskFunc != nil {
		return m.GetTaskFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockTaskService) ListTasks(ctx context.Context, limit, offset int) ([]*models.Task, error) {
	if m.ListTasksFunc != nil {
		return m.ListTasksFunc(ctx, limit, offset)
	}
	return []*models.Task{}, nil
}

func (m *MockTaskService) DeleteTask(ctx context.Context, id string) error {
	if m.DeleteTaskFunc != nil {
		return m.DeleteTaskFunc(ctx, id)
	}
	return models.ErrNotFound
}

func (m *MockTaskService) SubmitResponse(ctx context.Context, taskID, userID, body string) (*models.TaskResponse, error) {
	if m.SubmitResponseFunc != nil {
		return m.SubmitResponseFunc(ctx, taskID, userID, body)
	}
	return nil, models.ErrInternalServer
}

func (m *MockTaskService) ListTaskResponses(ctx context.Context, taskID string) ([]*models.TaskResponse, error) {
	if m.ListTaskResponsesFunc != nil {
		return m.ListTaskResponsesFunc(ctx, taskID)
	}
	return []*models.TaskResponse{}, nil
}

func (m *MockTaskService) ListUserResponses(ctx context.Context, userID string) ([]*models.TaskResponse, error) {
	if m.ListUserResponsesFunc != nil {
		return m.ListUserResponsesFunc(ctx, userID)
	}
	return []*models.TaskResponse{}, nil
}
