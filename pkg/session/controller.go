package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Controller owns the client session lifecycle. It is safe for
// concurrent use; provider callbacks and host calls may interleave.
type Controller struct {
	provider IdentityProvider
	backend  Backend
	store    TokenStore
	nav      Navigator
	logger   *slog.Logger

	mu              sync.Mutex
	state           State
	user            *User
	token           string
	providerUID     string
	redirectChecked bool
	resolving       bool
	started         bool
	closed          bool
	unsubscribe     func()

	// base context for provider-initiated reconciliations
	ctx context.Context
}

// NewController wires a controller. All dependencies are required except
// logger, which defaults to slog.Default().
func NewController(provider IdentityProvider, backend Backend, store TokenStore, nav Navigator, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		provider: provider,
		backend:  backend,
		store:    store,
		nav:      nav,
		logger:   logger,
		state:    StateUninitialized,
	}
}

// Start runs the one-time pending-redirect probe, restores any stored
// session, and then subscribes to provider identity changes. The redirect
// probe always completes before the subscription is installed, so a
// redirect arrival is never observed twice.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return fmt.Errorf("session: controller already started")
	}
	c.started = true
	c.ctx = ctx
	c.state = StateCheckingRedirect
	c.mu.Unlock()

	c.checkPendingRedirect(ctx)

	c.mu.Lock()
	authenticated := c.state == StateAuthenticated
	c.mu.Unlock()

	if !authenticated {
		c.restoreStoredSession(ctx)
	}

	unsub := c.provider.Subscribe(c.onProviderIdentity)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		unsub()
		return ErrClosed
	}
	c.unsubscribe = unsub
	if c.state == StateCheckingRedirect {
		c.state = StateListening
	}
	return nil
}

func (c *Controller) checkPendingRedirect(ctx context.Context) {
	c.mu.Lock()
	if c.redirectChecked {
		c.mu.Unlock()
		return
	}
	c.redirectChecked = true
	c.mu.Unlock()

	identity, err := c.provider.PendingRedirect(ctx)
	if err != nil {
		c.logger.Warn("pending redirect check failed", "error", err)
		return
	}
	if identity != nil {
		c.resolveIdentity(ctx, identity)
	}
}

func (c *Controller) restoreStoredSession(ctx context.Context) {
	token, err := c.store.Load()
	if err != nil {
		c.logger.Warn("token store read failed", "error", err)
		return
	}
	if token == "" {
		return
	}

	user, err := c.backend.CurrentUser(ctx, token)
	if err != nil {
		c.logger.Info("stored session rejected", "error", err)
		if clearErr := c.store.Clear(); clearErr != nil {
			c.logger.Warn("token store clear failed", "error", clearErr)
		}
		return
	}

	c.adoptSession(&Session{Token: token, User: user}, "")
}

// onProviderIdentity handles provider notifications: a non-nil identity
// is reconciled with the backend, a nil one ends the session.
func (c *Controller) onProviderIdentity(identity *Identity) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	ctx := c.ctx
	c.mu.Unlock()

	if identity == nil {
		c.endSession()
		return
	}
	c.resolveIdentity(ctx, identity)
}

func (c *Controller) resolveIdentity(ctx context.Context, identity *Identity) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	// Already signed in as this provider identity; repeated
	// notifications for the same account are no-ops.
	if c.state == StateAuthenticated && c.providerUID == identity.UID {
		c.mu.Unlock()
		return
	}
	// One reconciliation at a time. A notification arriving while
	// another resolve is in flight is dropped; the provider re-emits
	// current identity to new subscribers, so nothing is lost.
	if c.resolving {
		c.mu.Unlock()
		c.logger.Debug("identity resolve already in flight", "uid", identity.UID)
		return
	}
	c.resolving = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.resolving = false
		c.mu.Unlock()
	}()

	sess, err := c.backend.ResolveIdentity(ctx, identity)
	if err != nil {
		c.logger.Warn("identity resolve failed", "uid", identity.UID, "error", err)
		if clearErr := c.store.Clear(); clearErr != nil {
			c.logger.Warn("token store clear failed", "error", clearErr)
		}
		c.endSession()
		return
	}

	if err := c.store.Save(sess.Token); err != nil {
		c.logger.Warn("token store write failed", "error", err)
	}
	c.adoptSession(sess, identity.UID)
}

// adoptSession installs an established session and, when the user is
// sitting on a sign-in entry route, moves them to their role landing
// page. Any other route is left alone.
func (c *Controller) adoptSession(sess *Session, providerUID string) {
	c.mu.Lock()
	c.state = StateAuthenticated
	c.user = sess.User
	c.token = sess.Token
	c.providerUID = providerUID
	c.mu.Unlock()

	c.logger.Info("session established", "user_id", sess.User.ID, "role", sess.User.Role)

	if IsEntryRoute(c.nav.CurrentPath()) {
		c.nav.Navigate(LandingFor(sess.User.Role))
	}
}

// endSession drops all session state and sends the user to the login
// route unless they are already on a public one.
func (c *Controller) endSession() {
	c.mu.Lock()
	wasAuthenticated := c.state == StateAuthenticated
	c.state = StateUnauthenticated
	c.user = nil
	c.token = ""
	c.providerUID = ""
	c.mu.Unlock()

	if wasAuthenticated {
		c.logger.Info("session ended")
	}

	if !IsPublicRoute(c.nav.CurrentPath()) {
		c.nav.Navigate(RouteLogin)
	}
}

// SignInWithGoogle clears any stale provider session, re-arms the
// redirect probe for the return trip, and starts the redirect flow.
func (c *Controller) SignInWithGoogle(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.redirectChecked = false
	c.mu.Unlock()

	if err := c.provider.ClearLocalSession(ctx); err != nil {
		c.logger.Warn("provider session clear failed", "error", err)
	}
	return c.provider.BeginRedirectSignIn(ctx)
}

// LoginWithPassword authenticates with email and password.
func (c *Controller) LoginWithPassword(ctx context.Context, email, password string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.mu.Unlock()

	sess, err := c.backend.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := c.store.Save(sess.Token); err != nil {
		c.logger.Warn("token store write failed", "error", err)
	}
	c.adoptSession(sess, "")
	return nil
}

// Register creates an account and signs it in.
func (c *Controller) Register(ctx context.Context, name, email, password string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.mu.Unlock()

	sess, err := c.backend.Register(ctx, name, email, password)
	if err != nil {
		return err
	}
	if err := c.store.Save(sess.Token); err != nil {
		c.logger.Warn("token store write failed", "error", err)
	}
	c.adoptSession(sess, "")
	return nil
}

// Logout ends the session everywhere it is held: backend (best effort),
// provider, durable store, and local state.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	token := c.token
	c.mu.Unlock()

	if token != "" {
		if err := c.backend.Logout(ctx, token); err != nil {
			c.logger.Warn("backend logout failed", "error", err)
		}
	}
	if err := c.provider.ClearLocalSession(ctx); err != nil {
		c.logger.Warn("provider session clear failed", "error", err)
	}
	if err := c.store.Clear(); err != nil {
		c.logger.Warn("token store clear failed", "error", err)
	}
	c.endSession()
	return nil
}

// HandleUnauthorized is called by the host when an API request comes
// back 401; the session is gone server-side, so treat it as a loss.
func (c *Controller) HandleUnauthorized() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if err := c.store.Clear(); err != nil {
		c.logger.Warn("token store clear failed", "error", err)
	}
	c.endSession()
}

// State returns the current lifecycle phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentUser returns the signed-in user, or nil.
func (c *Controller) CurrentUser() *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// Token returns the active session token, or "".
func (c *Controller) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Close tears the controller down. The provider subscription is removed
// and no callbacks run afterwards; every later operation returns
// ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsub := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}
