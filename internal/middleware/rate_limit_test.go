package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitByIP_AllowsUnderLimit(t *testing.T) {
	config := RateLimitConfig{RequestsPerMinute: 5}
	handler := RateLimitByIP(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "203.0.113.10:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}
}

func TestRateLimitByIP_Returns429OverLimit(t *testing.T) {
	config := RateLimitConfig{RequestsPerMinute: 3}
	handler := RateLimitByIP(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last *httptest.ResponseRecorder
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "203.0.113.11:1234"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Contains(t, last.Body.String(), "Rate limit exceeded")
	assert.Equal(t, "application/json", last.Header().Get("Content-Type"))
}

func TestRateLimitByIP_IsolatesClients(t *testing.T) {
	config := RateLimitConfig{RequestsPerMinute: 1}
	handler := RateLimitByIP(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	first.RemoteAddr = "203.0.113.12:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	assert.Equal(t, http.StatusOK, rec.Code)

	blocked := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	blocked.RemoteAddr = "203.0.113.12:5678"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, blocked)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "same IP on a different port shares the bucket")

	other := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	other.RemoteAddr = "203.0.113.13:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code, "a different IP gets its own bucket")
}

func TestDefaultAuthRateLimit(t *testing.T) {
	config := DefaultAuthRateLimit()
	assert.Equal(t, 5, config.RequestsPerMinute)
}
