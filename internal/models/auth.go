package models

import (
	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeSession = "session"
	TokenTypeReset   = "reset"
)

type TokenClaims struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
