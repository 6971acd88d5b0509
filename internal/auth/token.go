package auth

import (
	"fmt"
	"time"

	"github.com/BradenHooton/taskpilot/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenManager mints and validates the two bearer credentials the service
// issues: long-lived session tokens and short-lived password-reset tokens.
// It is pure over the shared signing secret; there is no revocation state.
type TokenManager struct {
	secret             string
	sessionTokenExpiry time.Duration
	resetTokenExpiry   time.Duration
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret string, sessionExpiry, resetExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:             secret,
		sessionTokenExpiry: sessionExpiry,
		resetTokenExpiry:   resetExpiry,
	}
}

// GenerateSessionToken creates a signed session token for the given user
func (tm *TokenManager) GenerateSessionToken(userID string) (string, error) {
	now := time.Now()

	claims := &models.TokenClaims{
		Type:   models.TokenTypeSession,
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.sessionTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(tm.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// GenerateResetToken creates a signed password-reset token. The email is
// carried as a claim so the reset page can display it without a user lookup.
func (tm *TokenManager) GenerateResetToken(userID, email string) (string, error) {
	now := time.Now()

	claims := &models.TokenClaims{
		Type:   models.TokenTypeReset,
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.resetTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(tm.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign reset token: %w", err)
	}

	return tokenString, nil
}

// ValidateSessionToken verifies a session token and returns the subject's
// user ID. Malformed tokens, bad signatures, wrong token types, and expired
// tokens all map to ErrUnauthorized so callers cannot distinguish the cause.
func (tm *TokenManager) ValidateSessionToken(tokenString string) (string, error) {
	claims, err := tm.parse(tokenString)
	if err != nil {
		return "", models.ErrUnauthorized
	}

	if claims.Type != models.TokenTypeSession {
		return "", models.ErrUnauthorized
	}

	return claims.UserID, nil
}

// ValidateResetToken verifies a password-reset token and returns the bound
// subject and email. Validation is read-only; a token may be verified any
// number of times before it is consumed.
func (tm *TokenManager) ValidateResetToken(tokenString string) (string, string, error) {
	claims, err := tm.parse(tokenString)
	if err != nil {
		return "", "", models.ErrUnauthorized
	}

	if claims.Type != models.TokenTypeReset {
		return "", "", models.ErrUnauthorized
	}

	// A reset token without its email claim is rejected outright
	if claims.Email == "" {
		return "", "", models.ErrUnauthorized
	}

	return claims.UserID, claims.Email, nil
}

func (tm *TokenManager) parse(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, models.ErrUnauthorized
	}

	if claims.UserID == "" {
		return nil, fmt.Errorf("invalid token: missing subject")
	}

	return claims, nil
}
