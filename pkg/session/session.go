// Package session implements the client-side session lifecycle used by
// front-end hosts of the API: it watches an external identity provider,
// reconciles identity assertions against the backend, keeps the session
// token in a durable store, and drives route navigation as authentication
// state changes.
package session

import (
	"context"
	"errors"
)

// State is the lifecycle phase of a session controller.
type State int

const (
	// StateUninitialized is the state before Start is called.
	StateUninitialized State = iota
	// StateCheckingRedirect covers the one-time pending-redirect probe
	// that runs before the controller listens for identity changes.
	StateCheckingRedirect
	// StateListening means the redirect probe finished and the controller
	// is waiting on provider notifications with no session established.
	StateListening
	// StateAuthenticated means a backend session is established.
	StateAuthenticated
	// StateUnauthenticated means identity was lost or sign-out completed.
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateCheckingRedirect:
		return "checking_redirect"
	case StateListening:
		return "listening"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// ErrClosed is returned by operations on a controller after Close.
var ErrClosed = errors.New("session: controller closed")

// Identity is a verified assertion from the external provider.
type Identity struct {
	UID       string
	Email     string
	Name      string
	AvatarURL string
}

// User is the backend's view of the signed-in account.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Avatar string `json:"avatar,omitempty"`
	Active bool   `json:"active"`
}

// Session pairs a backend session token with its user.
type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// IdentityProvider abstracts the external identity source (a Google
// redirect-flow SDK in the shipped clients).
type IdentityProvider interface {
	// BeginRedirectSignIn starts the provider's redirect sign-in. Control
	// leaves the application; the resulting identity is observed later via
	// PendingRedirect or Subscribe.
	BeginRedirectSignIn(ctx context.Context) error

	// PendingRedirect reports the identity carried by a just-completed
	// redirect, or nil when the app did not start from one.
	PendingRedirect(ctx context.Context) (*Identity, error)

	// Subscribe registers a callback for identity arrival (non-nil) and
	// loss (nil). It returns an unsubscribe function.
	Subscribe(fn func(*Identity)) (unsubscribe func())

	// ClearLocalSession drops any cached provider session so a fresh
	// sign-in starts clean.
	ClearLocalSession(ctx context.Context) error
}

// Backend is the API surface the controller talks to.
type Backend interface {
	// ResolveIdentity syncs a provider identity and returns a session.
	ResolveIdentity(ctx context.Context, identity *Identity) (*Session, error)
	// CurrentUser validates a stored token and returns its user.
	CurrentUser(ctx context.Context, token string) (*User, error)
	// Login performs password authentication.
	Login(ctx context.Context, email, password string) (*Session, error)
	// Register creates an account and returns its first session.
	Register(ctx context.Context, name, email, password string) (*Session, error)
	// Logout tells the backend the session is over. Best effort; the
	// token is stateless server-side.
	Logout(ctx context.Context, token string) error
}

// TokenStore persists the session token across restarts.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Navigator moves the host application between routes.
type Navigator interface {
	Navigate(path string)
	CurrentPath() string
}
