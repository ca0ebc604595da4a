package jwtx_test

import (
	"testing"
	"time"

	"github.com/quizmehq/quizme/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestPeekClaimsRoundTrip(t *testing.T) {
	h, err := jwtx.NewHS256(testSecret, "quizme-admin")
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	claims := jwtx.NewAccessClaims("u1", "alice", "alice@example.com", "Alice", "admin",
		time.Hour, "quizme-admin", now)

	raw, err := h.Sign(claims)
	require.NoError(t, err)

	// The unverified decode must agree with the original payload on exp.
	peeked, err := jwtx.PeekClaims(raw)
	require.NoError(t, err)
	require.Equal(t, claims.ExpiresAt.Unix(), peeked.ExpiresAt.Unix())
	require.Equal(t, "alice", peeked.Username)

	// And with the verifying parse, so both expiry checks see the same instant.
	verified, err := h.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, verified.ExpiresAt.Unix(), peeked.ExpiresAt.Unix())
}

func TestPeekClaimsMalformed(t *testing.T) {
	_, err := jwtx.PeekClaims("garbage")
	require.ErrorIs(t, err, jwtx.ErrMalformed)

	_, err = jwtx.PeekClaims("a.b")
	require.ErrorIs(t, err, jwtx.ErrMalformed)
}

func TestPeekExpired(t *testing.T) {
	h, err := jwtx.NewHS256(testSecret, "quizme-admin")
	require.NoError(t, err)

	now := time.Now().UTC()

	t.Run("future exp is not expired", func(t *testing.T) {
		raw, err := h.Sign(jwtx.NewAccessClaims("u1", "a", "", "", "user",
			time.Hour, "quizme-admin", now))
		require.NoError(t, err)
		require.False(t, jwtx.PeekExpired(raw, now))
	})

	t.Run("past exp is expired", func(t *testing.T) {
		raw, err := h.Sign(jwtx.NewAccessClaims("u1", "a", "", "", "user",
			time.Second, "quizme-admin", now.Add(-time.Minute)))
		require.NoError(t, err)
		require.True(t, jwtx.PeekExpired(raw, now))
	})

	t.Run("decode failure fails closed", func(t *testing.T) {
		require.True(t, jwtx.PeekExpired("not-a-token", now))
		require.True(t, jwtx.PeekExpired("", now))
	})
}
