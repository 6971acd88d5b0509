package auth

import (
	"testing"
	"time"

	"github.com/BradenHooton/taskpilot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-chars!!"

func TestGenerateSessionToken_RoundTrip(t *testing.T) {
	tm := NewTokenManager(testSecret, 7*24*time.Hour, 15*time.Minute)

	token, err := tm.GenerateSessionToken("user123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := tm.ValidateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user123", userID)
}

func TestValidateSessionToken_Expired(t *testing.T) {
	tm := NewTokenManager(testSecret, -1*time.Minute, 15*time.Minute)

	token, err := tm.GenerateSessionToken("user123")
	require.NoError(t, err)

	_, err = tm.ValidateSessionToken(token)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestValidateSessionToken_BadSignature(t *testing.T) {
	tm := NewTokenManager(testSecret, 7*24*time.Hour, 15*time.Minute)
	other := NewTokenManager("a-different-secret-entirely-32chars", 7*24*time.Hour, 15*time.Minute)

	token, err := other.GenerateSessionToken("user123")
	require.NoError(t, err)

	_, err = tm.ValidateSessionToken(token)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestValidateSessionToken_Malformed(t *testing.T) {
	tm := NewTokenManager(testSecret, 7*24*time.Hour, 15*time.Minute)

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		_, err := tm.ValidateSessionToken(tok)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	}
}

func TestValidateSessionToken_RejectsResetToken(t *testing.T) {
	tm := NewTokenManager(testSecret, 7*24*time.Hour, 15*time.Minute)

	token, err := tm.GenerateResetToken("user123", "a@x.com")
	require.NoError(t, err)

	// Reset tokens are scoped to the reset operation only
	_, err = tm.ValidateSessionToken(token)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestGenerateResetToken_RoundTrip(t *testing.T) {
	tm := NewTokenManager(testSecret, 7*24*time.Hour, 15*time.Minute)

	token, err := tm.GenerateResetToken("user123", "a@x.com")
	require.NoError(t, err)

	userID, email, err := tm.ValidateResetToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user123", userID)
	assert.Equal(t, "a@x.com", email)
}

func TestValidateResetToken_Idempotent(t *testing.T) {
	tm := NewTokenManager(testSecret, 7*24*time.Hour, 15*time.Minute)

	token, err := tm.GenerateResetToken("user123", "a@x.com")
	require.NoError(t, err)

	// Verification is read-only: repeated calls return the same result
	for i := 0; i < 3; i++ {
		_, email, err := tm.ValidateResetToken(token)
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", email)
	}
}

func TestValidateResetToken_Expired(t *testing.T) {
	tm := NewTokenManager(testSecret, 7*24*time.Hour, -1*time.Minute)

	token, err := tm.GenerateResetToken("user123", "a@x.com")
	require.NoError(t, err)

	_, _, err = tm.ValidateResetToken(token)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestValidateResetToken_RejectsSessionToken(t *testing.T) {
	tm := NewTokenManager(testSecret, 7*24*time.Hour, 15*time.Minute)

	token, err := tm.GenerateSessionToken("user123")
	require.NoError(t, err)

	_, _, err = tm.ValidateResetToken(token)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}
