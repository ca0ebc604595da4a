package adminsdk

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// State is the session controller's authentication state.
type State int

const (
	// StateInitializing is the state before Hydrate has run.
	StateInitializing State = iota

	// StateUnauthenticated means no usable session exists.
	StateUnauthenticated

	// StateAuthenticated means a session exists and a user is cached.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// NavigateFunc receives the path the UI should move to after a state
// transition (login success, logout, forced sign-out).
type NavigateFunc func(path string)

// Session wraps a Client with the state machine a UI binds to: current
// state, cached user, a loading flag while operations run, and the last
// visible error. All methods are safe for concurrent use.
type Session struct {
	client *Client

	mu      sync.RWMutex
	state   State
	user    *User
	loading bool
	lastErr string

	navigate    NavigateFunc
	loginPath   string
	landingPath string
}

// SessionConfig tunes the session's navigation targets.
type SessionConfig struct {
	// LoginPath defaults to "/login".
	LoginPath string

	// LandingPath defaults to "/dashboard".
	LandingPath string

	// Navigate is invoked with the target path after login and logout
	// transitions. Optional.
	Navigate NavigateFunc
}

// NewSession wires a session controller onto the client, including the
// forced sign-out path: when the client's transport abandons a session,
// the controller transitions to unauthenticated and navigates to login.
func NewSession(client *Client, cfg SessionConfig) *Session {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.LandingPath == "" {
		cfg.LandingPath = "/dashboard"
	}

	s := &Session{
		client:      client,
		state:       StateInitializing,
		navigate:    cfg.Navigate,
		loginPath:   cfg.LoginPath,
		landingPath: cfg.LandingPath,
	}

	client.SetUnauthenticatedHandler(s.forcedSignOut)
	return s
}

// State returns the current authentication state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the cached user, nil when unauthenticated.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Loading reports whether an auth operation is in flight.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the last user-visible error message, empty when none.
func (s *Session) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// ClearError resets the visible error slot.
func (s *Session) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""
}

// Hydrate resolves the initial state from the store without touching
// the network. A persisted session is trusted as-is; an expired access
// token surfaces on the first API call and heals through the refresh
// path.
func (s *Session) Hydrate() {
	store := s.client.Store()

	s.mu.Lock()
	defer s.mu.Unlock()
	if store.IsAuthenticated() {
		s.state = StateAuthenticated
		s.user = store.User()
	} else {
		s.state = StateUnauthenticated
		s.user = nil
	}
}

// Login authenticates and, on success, navigates to returnTo when it
// names a real page, otherwise to the landing path. On failure the
// server's message is recorded and the state stays unauthenticated.
func (s *Session) Login(ctx context.Context, usernameOrEmail, password, returnTo string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	user, err := s.client.Login(ctx, usernameOrEmail, password)
	if err != nil {
		s.recordFailure(err)
		return err
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.user = user
	s.lastErr = ""
	s.mu.Unlock()

	s.navigateTo(s.redirectTarget(returnTo))
	return nil
}

// Register creates an account and starts a session, with the same
// transition behavior as Login.
func (s *Session) Register(ctx context.Context, req RegisterRequest) error {
	s.setLoading(true)
	defer s.setLoading(false)

	user, err := s.client.Register(ctx, req)
	if err != nil {
		s.recordFailure(err)
		return err
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.user = user
	s.lastErr = ""
	s.mu.Unlock()

	s.navigateTo(s.landingPath)
	return nil
}

// Refresh rotates the token pair. Failure cascades into Logout.
func (s *Session) Refresh(ctx context.Context) error {
	if err := s.client.Refresh(ctx); err != nil {
		_ = s.Logout(ctx)
		return err
	}
	return nil
}

// Logout ends the session. The server call is best effort; local state,
// the store and the cookie mirror are cleared even when it fails, and
// the UI is always sent to the login page.
func (s *Session) Logout(ctx context.Context) error {
	err := s.client.Logout(ctx)

	s.mu.Lock()
	s.state = StateUnauthenticated
	s.user = nil
	s.mu.Unlock()

	s.navigateTo(s.loginPath)
	return err
}

// forcedSignOut handles the transport abandoning the session. The store
// and mirror are already cleared by the time this runs.
func (s *Session) forcedSignOut() {
	s.mu.Lock()
	s.state = StateUnauthenticated
	s.user = nil
	s.mu.Unlock()

	s.navigateTo(s.loginPath)
}

// redirectTarget validates a return-to path, falling back to the
// landing page for anything absolute, empty, or pointing back at the
// auth pages.
func (s *Session) redirectTarget(returnTo string) string {
	if returnTo == "" || !strings.HasPrefix(returnTo, "/") || strings.HasPrefix(returnTo, "//") {
		return s.landingPath
	}
	if returnTo == s.loginPath || returnTo == "/register" {
		return s.landingPath
	}
	return returnTo
}

func (s *Session) navigateTo(path string) {
	if s.navigate != nil {
		s.navigate(path)
	}
}

func (s *Session) setLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}

// recordFailure surfaces the server's message verbatim when one exists.
func (s *Session) recordFailure(err error) {
	msg := err.Error()
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		msg = apiErr.Message
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateUnauthenticated
	s.user = nil
	s.lastErr = msg
}
