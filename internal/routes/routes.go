package routes

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/taskpilot/internal/auth"
	"github.com/BradenHooton/taskpilot/internal/handlers"
	"github.com/BradenHooton/taskpilot/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	googleHandler *handlers.GoogleHandler,
	userHandler *handlers.UserHandler,
	taskHandler *handlers.TaskHandler,
	tokenManager *auth.TokenManager,
	users auth.UserFetcher,
	logger *slog.Logger,
) {
	// Rate limiting config for credential endpoints
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	// Public routes - no authentication required
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/login", authHandler.Login)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/register", authHandler.Register)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/forgot-password", authHandler.ForgotPassword)
	router.Post("/auth/verify-reset-token", authHandler.VerifyResetToken)
	router.Post("/auth/reset-password/{token}", authHandler.ResetPassword)

	// Google sign-in: code flow and redirect-flow assertion sync
	router.Get("/auth/google", googleHandler.Initiate)
	router.Get("/auth/google/callback", googleHandler.Callback)
	router.Post("/auth/google/signin", googleHandler.SignIn)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(tokenManager, users, logger))

		r.Get("/auth/me", authHandler.Me)
		r.Post("/auth/logout", authHandler.Logout)

		// Any authenticated user
		r.Get("/tasks", taskHandler.List)
		r.Get("/tasks/{id}", taskHandler.Get)
		r.Post("/tasks/{id}/responses", taskHandler.SubmitResponse)
		r.Get("/responses/mine", taskHandler.ListMyResponses)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)

			r.Get("/users", userHandler.List)
			r.Put("/users/{id}/role", userHandler.UpdateRole)
			r.Put("/users/{id}/status", userHandler.UpdateStatus)
			r.Delete("/users/{id}", userHandler.Delete)

			r.Post("/tasks", taskHandler.Create)
			r.Delete("/tasks/{id}", taskHandler.Delete)
			r.Get("/tasks/{id}/responses", taskHandler.ListTaskResponses)
		})
	})
}
