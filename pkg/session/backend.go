package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Code)
}

// IsUnauthorized reports whether err is an API 401.
func IsUnauthorized(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == http.StatusUnauthorized
}

// HTTPBackend implements Backend over the REST API.
type HTTPBackend struct {
	baseURL string
	client  *http.Client
}

// NewHTTPBackend builds a backend client for the API at baseURL.
func NewHTTPBackend(baseURL string, client *http.Client) *HTTPBackend {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (b *HTTPBackend) ResolveIdentity(ctx context.Context, identity *Identity) (*Session, error) {
	payload := map[string]string{
		"google_id": identity.UID,
		"email":     identity.Email,
		"name":      identity.Name,
		"avatar":    identity.AvatarURL,
	}
	var sess Session
	if err := b.do(ctx, http.MethodPost, "/auth/google/signin", "", payload, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (b *HTTPBackend) CurrentUser(ctx context.Context, token string) (*User, error) {
	var user User
	if err := b.do(ctx, http.MethodGet, "/auth/me", token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (b *HTTPBackend) Login(ctx context.Context, email, password string) (*Session, error) {
	payload := map[string]string{"email": email, "password": password}
	var sess Session
	if err := b.do(ctx, http.MethodPost, "/auth/login", "", payload, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (b *HTTPBackend) Register(ctx context.Context, name, email, password string) (*Session, error) {
	payload := map[string]string{"name": name, "email": email, "password": password}
	var sess Session
	if err := b.do(ctx, http.MethodPost, "/auth/register", "", payload, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (b *HTTPBackend) Logout(ctx context.Context, token string) error {
	return b.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

func (b *HTTPBackend) do(ctx context.Context, method, path, token string, body, out any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		reqBody = &bytes.Buffer{}
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Code: "unknown"}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
