package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/BradenHooton/taskpilot/internal/auth"
	"github.com/BradenHooton/taskpilot/internal/config"
	"github.com/BradenHooton/taskpilot/internal/database"
	"github.com/BradenHooton/taskpilot/internal/handlers"
	middlewareCustom "github.com/BradenHooton/taskpilot/internal/middleware"
	"github.com/BradenHooton/taskpilot/internal/oauth"
	"github.com/BradenHooton/taskpilot/internal/routes"
	"github.com/BradenHooton/taskpilot/internal/services"
	pkglogger "github.com/BradenHooton/taskpilot/pkg/logger"
)

const testClientURL = "http://localhost:5173"

// SentEmail represents a captured email message
type SentEmail struct {
	To    string
	Token string
	Body  string
}

// MockEmailService captures password-reset emails for test assertions
type MockEmailService struct {
	SentEmails []SentEmail
	mu         sync.Mutex
}

// SendPasswordResetEmail records the email instead of sending it
func (m *MockEmailService) SendPasswordResetEmail(ctx context.Context, email, token string, validFor time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SentEmails = append(m.SentEmails, SentEmail{
		To:    email,
		Token: token,
		Body:  fmt.Sprintf("Reset link: %s/reset-password/%s", testClientURL, token),
	})
	return nil
}

// GetLastEmail returns the most recent email sent
func (m *MockEmailService) GetLastEmail() *SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.SentEmails) == 0 {
		return nil
	}
	return &m.SentEmails[len(m.SentEmails)-1]
}

// TestServer wraps httptest.Server with database and all dependencies
type TestServer struct {
	Server       *httptest.Server
	DB           *database.DB
	EmailService *MockEmailService
	TokenManager *auth.TokenManager
}

// NewTestServer initializes a complete HTTP server with real database + mocked email
func NewTestServer(db *database.DB) *TestServer {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:          "test-secret-32-characters-long-for-testing",
			SessionTokenExpiry: 7 * 24 * time.Hour,
			ResetTokenExpiry:   15 * time.Minute,
		},
		Server: config.ServerConfig{
			Port:           "0",
			Env:            "test",
			AllowedOrigins: []string{},
			ClientURL:      testClientURL,
		},
		Google: config.GoogleConfig{
			ClientID:     "test-client-id",
			ClientSecret: "test-client-secret",
			RedirectURL:  "http://localhost:0/auth/google/callback",
		},
	}

	userRepo, taskRepo, responseRepo := InitializeRepositories(db)

	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.SessionTokenExpiry,
		cfg.Auth.ResetTokenExpiry,
	)
	auditLogger := pkglogger.NewAuditLogger(logger)

	// No artificial delay in tests
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{})

	emailService := &MockEmailService{}

	googleClient := oauth.NewGoogleClient(
		cfg.Google.ClientID,
		cfg.Google.ClientSecret,
		cfg.Google.RedirectURL,
	)

	authService := services.NewAuthService(userRepo, tokenManager, emailService, timingDelay, logger, auditLogger, cfg.Auth.ResetTokenExpiry)
	identityService := services.NewIdentityService(userRepo, tokenManager, logger, auditLogger)
	userService := services.NewUserService(userRepo, logger, auditLogger)
	taskService := services.NewTaskService(taskRepo, responseRepo, logger)

	authHandler := handlers.NewAuthHandler(authService)
	googleHandler := handlers.NewGoogleHandler(googleClient, identityService, cfg.Server.ClientURL, false, logger)
	userHandler := handlers.NewUserHandler(userService)
	taskHandler := handlers.NewTaskHandler(taskService)

	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(chiMiddleware.Recoverer)

	routes.RegisterRoutes(router, authHandler, googleHandler, userHandler, taskHandler, tokenManager, userRepo, logger)

	return &TestServer{
		Server:       httptest.NewServer(router),
		DB:           db,
		EmailService: emailService,
		TokenManager: tokenManager,
	}
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	ts.Server.Close()
}

// PostJSON sends a JSON POST request, optionally with a bearer token
func (ts *TestServer) PostJSON(t interface{ Fatalf(string, ...any) }, path, token string, body any) *http.Response {
	return ts.DoJSON(t, http.MethodPost, path, token, body)
}

// DoJSON sends a JSON request with the given method, optionally with a bearer token
func (ts *TestServer) DoJSON(t interface{ Fatalf(string, ...any) }, method, path, token string, body any) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// GetJSON sends a GET request, optionally with a bearer token
func (ts *TestServer) GetJSON(t interface{ Fatalf(string, ...any) }, path, token string) *http.Response {
	req, err := http.NewRequest(http.MethodGet, ts.Server.URL+path, nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// DecodeBody decodes a response body into target and closes it
func DecodeBody(resp *http.Response, target any) error {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}
