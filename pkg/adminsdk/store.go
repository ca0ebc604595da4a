package adminsdk

import (
	"encoding/json"
	"os"
	"sync"
)

// TokenStore is the client-side persistence for the current session.
// Implementations must be safe for concurrent use.
//
// IsAuthenticated is a presence check only. It deliberately does not
// inspect token expiry; an expired access token is recovered through the
// refresh path on first use.
type TokenStore interface {
	Save(pair TokenPair, user *User)
	AccessToken() string
	RefreshToken() string
	User() *User
	Clear()
	IsAuthenticated() bool
}

// MemoryStore keeps the session in process memory. Useful for tests and
// for embedding in services that manage persistence themselves.
type MemoryStore struct {
	mu    sync.RWMutex
	state storedState
}

type storedState struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"user,omitempty"`
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(pair TokenPair, user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = storedState{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user,
	}
}

func (s *MemoryStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessToken
}

func (s *MemoryStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.RefreshToken
}

func (s *MemoryStore) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = storedState{}
}

func (s *MemoryStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessToken != "" && s.state.User != nil
}

// FileStore persists the session as a JSON file with 0600 permissions.
// Storage trouble degrades silently: unreadable state reads as logged
// out and failed writes are dropped, matching how a browser behaves when
// local storage is unavailable.
type FileStore struct {
	mu    sync.RWMutex
	path  string
	state storedState
}

// NewFileStore loads any existing session from path. A missing or
// corrupt file yields an empty (logged out) store, not an error.
func NewFileStore(path string) *FileStore {
	s := &FileStore{path: path}
	if raw, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(raw, &s.state)
	}
	return s
}

func (s *FileStore) Save(pair TokenPair, user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = storedState{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user,
	}
	s.persistLocked()
}

func (s *FileStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessToken
}

func (s *FileStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.RefreshToken
}

func (s *FileStore) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User
}

func (s *FileStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = storedState{}
	_ = os.Remove(s.path)
}

func (s *FileStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessToken != "" && s.state.User != nil
}

func (s *FileStore) persistLocked() {
	raw, err := json.Marshal(s.state)
	if err != nil {
		return
	}
	_ = os.WriteFile(s.path, raw, 0600)
}
