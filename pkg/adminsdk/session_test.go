package adminsdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quizmehq/quizme/pkg/jwtx"
)

// signAccessToken mints a real access token so the mirrored cookie is
// something the route guard could decode.
func signAccessToken(t *testing.T, ttl time.Duration) string {
	t.Helper()

	signer, err := jwtx.NewHS256([]byte("0123456789abcdef0123456789abcdef"), "quizme-admin")
	require.NoError(t, err)

	raw, err := signer.Sign(jwtx.NewAccessClaims(
		testUser.ID, testUser.Username, testUser.Email, testUser.FullName, testUser.Role,
		ttl, "quizme-admin", time.Now(),
	))
	require.NoError(t, err)
	return raw
}

type sessionFixture struct {
	session *Session
	client  *Client
	stub    *loginStub
	visited []string
}

func newSessionFixture(t *testing.T, access string) *sessionFixture {
	t.Helper()

	stub := &loginStub{t: t}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.UsernameOrEmail != "alice" || req.Password != "secret" {
			writeStubError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		writeStubAuth(w, access, "refresh-1")
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		stub.logoutCalls++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(envelope{Status: statusSuccess, Message: "Logged out"})
	})
	mux.HandleFunc("POST /api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		stub.refreshCalls++
		writeStubError(w, http.StatusUnauthorized, "Invalid refresh token")
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	f := &sessionFixture{stub: stub}
	f.client = NewClient(srv.URL, NewMemoryStore())
	f.session = NewSession(f.client, SessionConfig{
		Navigate: func(path string) { f.visited = append(f.visited, path) },
	})
	return f
}

func TestSessionLoginScenario(t *testing.T) {
	// Login with alice/secret against a stub issuing a token that
	// expires an hour from now.
	access := signAccessToken(t, time.Hour)
	f := newSessionFixture(t, access)

	f.session.Hydrate()
	require.Equal(t, StateUnauthenticated, f.session.State())

	err := f.session.Login(context.Background(), "alice", "secret", "")
	require.NoError(t, err)

	require.Equal(t, StateAuthenticated, f.session.State())
	require.Equal(t, "alice", f.session.User().Username)
	require.Empty(t, f.session.Err())
	require.False(t, f.session.Loading())

	// Cookies are set with values matching the store.
	require.Equal(t, access, f.client.MirroredToken(AccessTokenCookie))
	require.Equal(t, "refresh-1", f.client.MirroredToken(RefreshTokenCookie))
	require.Equal(t, f.client.Store().AccessToken(), f.client.MirroredToken(AccessTokenCookie))

	// Redirect target is the landing page.
	require.Equal(t, []string{"/dashboard"}, f.visited)
}

func TestSessionLoginHonorsReturnTo(t *testing.T) {
	f := newSessionFixture(t, signAccessToken(t, time.Hour))

	require.NoError(t, f.session.Login(context.Background(), "alice", "secret", "/quizzes/7"))
	require.Equal(t, []string{"/quizzes/7"}, f.visited)
}

func TestSessionLoginIgnoresBadReturnTo(t *testing.T) {
	tests := []struct {
		name     string
		returnTo string
	}{
		{"login page", "/login"},
		{"register page", "/register"},
		{"absolute url", "https://evil.test/phish"},
		{"protocol relative", "//evil.test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture(t, signAccessToken(t, time.Hour))
			require.NoError(t, f.session.Login(context.Background(), "alice", "secret", tt.returnTo))
			require.Equal(t, []string{"/dashboard"}, f.visited)
		})
	}
}

func TestSessionLoginFailureRecordsError(t *testing.T) {
	f := newSessionFixture(t, signAccessToken(t, time.Hour))

	err := f.session.Login(context.Background(), "alice", "wrong", "")
	require.Error(t, err)

	require.Equal(t, StateUnauthenticated, f.session.State())
	require.Equal(t, "Invalid credentials", f.session.Err())
	require.Nil(t, f.session.User())
	require.Empty(t, f.visited, "no navigation on failure")

	f.session.ClearError()
	require.Empty(t, f.session.Err())
}

func TestSessionHydrateFromPersistedState(t *testing.T) {
	f := newSessionFixture(t, signAccessToken(t, time.Hour))
	f.client.Store().Save(testPair, testUser)

	f.session.Hydrate()

	require.Equal(t, StateAuthenticated, f.session.State())
	require.Equal(t, "alice", f.session.User().Username)
}

func TestSessionLogoutCascade(t *testing.T) {
	f := newSessionFixture(t, signAccessToken(t, time.Hour))
	require.NoError(t, f.session.Login(context.Background(), "alice", "secret", ""))

	require.NoError(t, f.session.Logout(context.Background()))

	require.Equal(t, StateUnauthenticated, f.session.State())
	require.Nil(t, f.session.User())
	require.False(t, f.client.Store().IsAuthenticated())
	require.Empty(t, f.client.MirroredToken(AccessTokenCookie))
	require.Equal(t, []string{"/dashboard", "/login"}, f.visited)
}

func TestSessionLogoutSurvivesDeadServer(t *testing.T) {
	var visited []string
	client := NewClient("http://127.0.0.1:1", NewMemoryStore())
	session := NewSession(client, SessionConfig{
		Navigate: func(path string) { visited = append(visited, path) },
	})
	client.Store().Save(testPair, testUser)
	session.Hydrate()
	require.Equal(t, StateAuthenticated, session.State())

	err := session.Logout(context.Background())
	require.Error(t, err, "network failure is reported")

	require.Equal(t, StateUnauthenticated, session.State())
	require.False(t, client.Store().IsAuthenticated())
	require.Equal(t, []string{"/login"}, visited)
}

func TestSessionRefreshFailureLogsOut(t *testing.T) {
	f := newSessionFixture(t, signAccessToken(t, time.Hour))
	require.NoError(t, f.session.Login(context.Background(), "alice", "secret", ""))

	err := f.session.Refresh(context.Background())
	require.Error(t, err)

	require.Equal(t, StateUnauthenticated, f.session.State())
	require.False(t, f.client.Store().IsAuthenticated())
	require.Equal(t, "/login", f.visited[len(f.visited)-1])
}

func TestSessionStateString(t *testing.T) {
	require.Equal(t, "initializing", StateInitializing.String())
	require.Equal(t, "unauthenticated", StateUnauthenticated.String())
	require.Equal(t, "authenticated", StateAuthenticated.String())
}
