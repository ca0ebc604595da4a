package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quizmehq/quizme/internal/admin/store"
	"github.com/quizmehq/quizme/internal/admin/store/drivers/sqlite"
	"github.com/quizmehq/quizme/pkg/cryptox"
	"github.com/quizmehq/quizme/pkg/jwtx"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "quizme-service-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

var dbCounter atomic.Int64

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	// A named shared-cache in-memory database so the pool's connections
	// all see the same data.
	dsn := fmt.Sprintf("file:authsvc%d?mode=memory&cache=shared", dbCounter.Add(1))
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestService(t *testing.T) *AuthService {
	t.Helper()

	signer, err := jwtx.NewHS256([]byte("0123456789abcdef0123456789abcdef"), "quizme-admin")
	require.NoError(t, err)

	return &AuthService{
		Store:      newTestStore(t),
		Signer:     signer,
		Issuer:     "quizme-admin",
		AccessTTL:  jwtx.DefaultAccessTokenTTL,
		RefreshTTL: jwtx.DefaultRefreshTokenTTL,
	}
}

func registerAlice(t *testing.T, s *AuthService) *AuthResult {
	t.Helper()

	res, err := s.Register(context.Background(), RegisterParams{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "secret-password",
		ConfirmPassword: "secret-password",
		FullName:        "Alice Example",
	})
	require.NoError(t, err)
	return res
}

func TestRegisterIssuesTokens(t *testing.T) {
	s := newTestService(t)
	res := registerAlice(t, s)

	require.Equal(t, "alice", res.User.Username)
	require.Equal(t, "user", res.User.Role)
	require.True(t, res.User.IsActive)
	require.NotEmpty(t, res.Pair.AccessToken)
	require.NotEmpty(t, res.Pair.RefreshToken)

	// Access token carries the identity claims.
	claims, err := jwtx.PeekClaims(res.Pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, res.User.ID, claims.Subject)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, "alice@example.com", claims.Email)
	require.Equal(t, "Alice Example", claims.FullName)
	require.Equal(t, "user", claims.Role)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestService(t)

	base := RegisterParams{
		Username:        "bob",
		Email:           "bob@example.com",
		Password:        "secret-password",
		ConfirmPassword: "secret-password",
		FullName:        "Bob",
	}

	tests := []struct {
		name   string
		mutate func(*RegisterParams)
	}{
		{"short username", func(p *RegisterParams) { p.Username = "ab" }},
		{"bad username chars", func(p *RegisterParams) { p.Username = "bob smith" }},
		{"bad email", func(p *RegisterParams) { p.Email = "not-an-email" }},
		{"short password", func(p *RegisterParams) { p.Password, p.ConfirmPassword = "short", "short" }},
		{"mismatched confirm", func(p *RegisterParams) { p.ConfirmPassword = "different-password" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)

			_, err := s.Register(context.Background(), p)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			require.NotEmpty(t, vErr.Message)
		})
	}
}

func TestRegisterDuplicates(t *testing.T) {
	s := newTestService(t)
	registerAlice(t, s)

	_, err := s.Register(context.Background(), RegisterParams{
		Username:        "ALICE",
		Email:           "other@example.com",
		Password:        "secret-password",
		ConfirmPassword: "secret-password",
	})
	require.ErrorIs(t, err, ErrUsernameTaken)

	_, err = s.Register(context.Background(), RegisterParams{
		Username:        "alice2",
		Email:           "Alice@Example.com",
		Password:        "secret-password",
		ConfirmPassword: "secret-password",
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	s := newTestService(t)
	registerAlice(t, s)
	ctx := context.Background()

	t.Run("by username", func(t *testing.T) {
		res, err := s.Login(ctx, "alice", "secret-password")
		require.NoError(t, err)
		require.Equal(t, "alice", res.User.Username)
		require.NotEmpty(t, res.Pair.RefreshToken)
	})

	t.Run("by email, case-insensitive", func(t *testing.T) {
		res, err := s.Login(ctx, "Alice@Example.com", "secret-password")
		require.NoError(t, err)
		require.Equal(t, "alice", res.User.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := s.Login(ctx, "alice", "wrong-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := s.Login(ctx, "nobody", "secret-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestDisabledUserCannotLoginOrRefresh(t *testing.T) {
	s := newTestService(t)
	res := registerAlice(t, s)
	ctx := context.Background()

	require.NoError(t, s.Store.Users().SetUserActive(ctx, res.User.ID, false))

	_, err := s.Login(ctx, "alice", "secret-password")
	require.ErrorIs(t, err, ErrUserDisabled)

	_, err = s.Refresh(ctx, res.Pair.RefreshToken)
	require.ErrorIs(t, err, ErrUserDisabled)
}

func TestRefreshRotation(t *testing.T) {
	s := newTestService(t)
	res := registerAlice(t, s)
	ctx := context.Background()

	rotated, err := s.Refresh(ctx, res.Pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.Pair.AccessToken)
	require.NotEqual(t, res.Pair.RefreshToken, rotated.Pair.RefreshToken)

	// The presented token was revoked by the rotation.
	_, err = s.Refresh(ctx, res.Pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	// The successor still works.
	_, err = s.Refresh(ctx, rotated.Pair.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshRejectsGarbageAndExpired(t *testing.T) {
	s := newTestService(t)
	res := registerAlice(t, s)
	ctx := context.Background()

	_, err := s.Refresh(ctx, "never-issued")
	require.ErrorIs(t, err, ErrInvalidRefresh)

	// Shrink the TTL into the past for the stored row.
	fp := cryptox.FingerprintToken(res.Pair.RefreshToken)
	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
	require.NoError(t, err)
	require.True(t, rt.ExpiresAt.After(time.Now()))

	short := &AuthService{
		Store: s.Store, Signer: s.Signer, Issuer: s.Issuer,
		AccessTTL: s.AccessTTL, RefreshTTL: -time.Minute,
	}
	expired, err := short.Refresh(ctx, res.Pair.RefreshToken)
	require.NoError(t, err)

	_, err = s.Refresh(ctx, expired.Pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestLogoutIsIdempotent(t *testing.T) {
	s := newTestService(t)
	res := registerAlice(t, s)
	ctx := context.Background()

	require.NoError(t, s.Logout(ctx, res.Pair.RefreshToken))

	// Revoked token no longer refreshes.
	_, err := s.Refresh(ctx, res.Pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	// Repeat and unknown logouts are fine.
	require.NoError(t, s.Logout(ctx, res.Pair.RefreshToken))
	require.NoError(t, s.Logout(ctx, "never-issued"))
	require.NoError(t, s.Logout(ctx, ""))
}

func TestHousekeepingDeletesExpired(t *testing.T) {
	s := newTestService(t)
	res := registerAlice(t, s)
	ctx := context.Background()

	// Issue one already-expired token alongside the live one.
	short := &AuthService{
		Store: s.Store, Signer: s.Signer, Issuer: s.Issuer,
		AccessTTL: s.AccessTTL, RefreshTTL: -time.Hour,
	}
	expired, err := short.Login(ctx, "alice", "secret-password")
	require.NoError(t, err)

	require.NoError(t, s.Store.RefreshTokens().DeleteExpiredRefreshTokens(ctx))

	_, err = s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(expired.Pair.RefreshToken))
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(res.Pair.RefreshToken))
	require.NoError(t, err)
}
