package models

import (
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string // empty for Google-only accounts
	Name         string
	GoogleID     string // empty unless a Google identity is linked
	AvatarURL    string
	Role         string // "admin" or "user"
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidRole reports whether role is one of the known role values.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

// ExternalIdentity is the verified claim set returned by an identity
// provider after a redirect sign-in or an authorization-code exchange.
// It is consumed by identity reconciliation and never persisted.
type ExternalIdentity struct {
	ProviderID string
	Email      string
	Name       string
	AvatarURL  string
}
