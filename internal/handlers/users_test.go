package handlers_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BradenHooton/taskpilot/internal/handlers"
	"github.com/BradenHooton/taskpilot/internal/models"
	"github.com/BradenHooton/taskpilot/internal/services"
)

func TestListUsers(t *testing.T) {
	mockService := &handlers.MockUserService{
		ListUsersFunc: func(ctx context.Context, limit, offset int) ([]*models.User, error) {
			return []*models.User{
				handlers.TestUser("user1", models.RoleAdmin),
				handlers.TestUser("user2", models.RoleUser),
			}, nil
		},
	}

	handler := handlers.NewUserHandler(mockService)
	req := handlers.NewTestRequest(t, "GET", "/users", nil)
	req = handlers.WithUserContext(req, handlers.TestUser("user1", models.RoleAdmin))

	w := httptest.NewRecorder()
	handler.List(w, req)

	var resp []*services.UserResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Len(t, resp, 2)
}

func TestUpdateRole(t *testing.T) {
	t.Run("promotes another user", func(t *testing.T) {
		mockService := &handlers.MockUserService{
			UpdateRoleFunc: func(ctx context.Context, actorID, userID, role string) (*models.User, error) {
				u := handlers.TestUser(userID, role)
				return u, nil
			},
		}

		handler := handlers.NewUserHandler(mockService)
		req := handlers.NewTestRequest(t, "PUT", "/users/user2/role", handlers.UpdateRoleRequest{Role: models.RoleAdmin})
		req = handlers.WithUserContext(req, handlers.TestUser("user1", models.RoleAdmin))
		req = handlers.WithChiRouteContext(req, map[string]string{"id": "user2"})

		w := httptest.NewRecorder()
		handler.UpdateRole(w, req)

		var resp services.UserResponse
		handlers.AssertJSONResponse(t, w, 200, &resp)
		assert.Equal(t, models.RoleAdmin, resp.Role)
	})

	t.Run("self-demotion is forbidden", func(t *testing.T) {
		mockService := &handlers.MockUserService{
			UpdateRoleFunc: func(ctx context.Context, actorID, userID, role string) (*models.User, error) {
				return nil, models.ErrForbidden
			},
		}

		handler := handlers.NewUserHandler(mockService)
		req := handlers.NewTestRequest(t, "PUT", "/users/user1/role", handlers.UpdateRoleRequest{Role: models.RoleUser})
		req = handlers.WithUserContext(req, handlers.TestUser("user1", models.RoleAdmin))
		req = handlers.WithChiRouteContext(req, map[string]string{"id": "user1"})

		w := httptest.NewRecorder()
		handler.UpdateRole(w, req)

		handlers.AssertErrorResponse(t, w, 403, "forbidden")
	})

	t.Run("invalid role is rejected at validation", func(t *testing.T) {
		handler := handlers.NewUserHandler(&handlers.MockUserService{})
		req := handlers.NewTestRequest(t, "PUT", "/users/user2/role", handlers.UpdateRoleRequest{Role: "superuser"})
		req = handlers.WithUserContext(req, handlers.TestUser("user1", models.RoleAdmin))
		req = handlers.WithChiRouteContext(req, map[string]string{"id": "user2"})

		w := httptest.NewRecorder()
		handler.UpdateRole(w, req)

		handlers.AssertErrorResponse(t, w, 400, "bad_request")
	})
}

func TestUpdateStatus(t *testing.T) {
	t.Run("toggles another user", func(t *testing.T) {
		mockService := &handlers.MockUserService{
			ToggleActiveFunc: func(ctx context.Context, actorID, userID string) (*models.User, error) {
				u := handlers.TestUser(userID, models.RoleUser)
				u.Active = false
				return u, nil
			},
		}

		handler := handlers.NewUserHandler(mockService)
		req := handlers.NewTestRequest(t, "PUT", "/users/user2/status", nil)
		req = handlers.WithUserContext(req, handlers.TestUser("user1", models.RoleAdmin))
		req = handlers.WithChiRouteContext(req, map[string]string{"id": "user2"})

		w := httptest.NewRecorder()
		handler.UpdateStatus(w, req)

		var resp services.UserResponse
		handlers.AssertJSONResponse(t, w, 200, &resp)
		assert.False(t, resp.Active)
	})

	t.Run("self-deactivation is forbidden", func(t *testing.T) {
		mockService := &handlers.MockUserService{
			ToggleActiveFunc: func(ctx context.Context, actorID, userID string) (*models.User, error) {
				return nil, models.ErrForbidden
			},
		}

		handler := handlers.NewUserHandler(mockService)
		req := handlers.NewTestRequest(t, "PUT", "/users/user1/status", nil)
		req = handlers.WithUserContext(req, handlers.TestUser("user1", models.RoleAdmin))
		req = handlers.WithChiRouteContext(req, map[string]string{"id": "user1"})

		w := httptest.NewRecorder()
		handler.UpdateStatus(w, req)

		handlers.AssertErrorResponse(t, w, 403, "forbidden")
	})
}

func TestDeleteUser(t *testing.T) {
	t.Run("deletes another user", func(t *testing.T) {
		mockService := &handlers.MockUserService{
			DeleteUserFunc: func(ctx context.Context, actorID, userID string) error {
				return nil
			},
		}

		handler := handlers.NewUserHandler(mockService)
		req := handlers.NewTestRequest(t, "DELETE", "/users/user2", nil)
		req = handlers.WithUserContext(req, handlers.TestUser("user1", models.RoleAdmin))
		req = handlers.WithChiRouteContext(req, map[string]string{"id": "user2"})

		w := httptest.NewRecorder()
		handler.Delete(w, req)

		assert.Equal(t, 204, w.Code)
	})

	t.Run("self-deletion is forbidden", func(t *testing.T) {
		mockService := &handlers.MockUserService{
			DeleteUserFunc: func(ctx context.Context, actorID, userID string) error {
				return models.ErrForbidden
			},
		}

		handler := handlers.NewUserHandler(mockService)
		req := handlers.NewTestRequest(t, "DELETE", "/users/user1", nil)
		req = handlers.WithUserContext(req, handlers.TestUser("user1", models.RoleAdmin))
		req = handlers.WithChiRouteContext(req, map[string]string{"id": "user1"})

		w := httptest.NewRecorder()
		handler.Delete(w, req)

		handlers.AssertErrorResponse(t, w, 403, "forbidden")
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		mockService := &handlers.MockUserService{
			DeleteUserFunc: func(ctx context.Context, actorID, userID string) error {
				return models.ErrNotFound
			},
		}

		handler := handlers.NewUserHandler(mockService)
		req := handlers.NewTestRequest(t, "DELETE", "/users/ghost", nil)
		req = handlers.WithUserContext(req, handlers.TestUser("user1", models.RoleAdmin))
		req = handlers.WithChiRouteContext(req, map[string]string{"id": "ghost"})

		w := httptest.NewRecorder()
		handler.Delete(w, req)

		handlers.AssertErrorResponse(t, w, 404, "not_found")
	})
}
