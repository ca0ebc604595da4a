package adminsdk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var testUser = &User{
	ID:       "01JABCDEFGHJKMNPQRSTVWXYZ0",
	Username: "alice",
	Email:    "alice@example.com",
	FullName: "Alice Example",
	Role:     "admin",
	IsActive: true,
}

var testPair = TokenPair{
	AccessToken:  "access-token-1",
	RefreshToken: "refresh-token-1",
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	require.False(t, store.IsAuthenticated())

	store.Save(testPair, testUser)

	require.True(t, store.IsAuthenticated())
	require.Equal(t, "access-token-1", store.AccessToken())
	require.Equal(t, "refresh-token-1", store.RefreshToken())
	require.Equal(t, "alice", store.User().Username)

	store.Clear()

	require.False(t, store.IsAuthenticated())
	require.Empty(t, store.AccessToken())
	require.Empty(t, store.RefreshToken())
	require.Nil(t, store.User())
}

func TestIsAuthenticatedIsPresenceOnly(t *testing.T) {
	// An expired token still counts as a session; the refresh path
	// resolves staleness on first use.
	store := NewMemoryStore()
	store.Save(TokenPair{AccessToken: "long-expired", RefreshToken: "r"}, testUser)
	require.True(t, store.IsAuthenticated())
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	first := NewFileStore(path)
	first.Save(testPair, testUser)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	second := NewFileStore(path)
	require.True(t, second.IsAuthenticated())
	require.Equal(t, "access-token-1", second.AccessToken())
	require.Equal(t, "alice@example.com", second.User().Email)
}

func TestFileStoreClearRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store := NewFileStore(path)
	store.Save(testPair, testUser)
	store.Clear()

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
	require.False(t, NewFileStore(path).IsAuthenticated())
}

func TestFileStoreDegradesSilently(t *testing.T) {
	t.Run("corrupt file reads as logged out", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

		store := NewFileStore(path)
		require.False(t, store.IsAuthenticated())
		require.Empty(t, store.AccessToken())
	})

	t.Run("unwritable path drops writes without error", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "missing", "deep", "session.json"))
		store.Save(testPair, testUser)

		// In-memory state still works for the current process.
		require.True(t, store.IsAuthenticated())
		store.Clear()
		require.False(t, store.IsAuthenticated())
	})
}
