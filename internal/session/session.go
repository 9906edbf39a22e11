// Package session holds the application's signed-in state. It is created
// once at launch and handed to whatever needs it; nothing in the client
// reads credentials from globals.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotAuthenticated is returned when an operation needs a token and the
// session has none.
var ErrNotAuthenticated = errors.New("not authenticated")

// User mirrors the account object returned by the auth endpoints.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Store owns the token and user for the running process and persists them
// under the state directory so a later launch restores the session.
//
// API calls read the token from command goroutines while the event loop
// may be logging in or out, hence the lock.
type Store struct {
	mu    sync.RWMutex
	path  string
	token string
	user  User
}

type persisted struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// NewStore creates a session store backed by stateDir/credentials.json and
// restores any persisted credentials. A missing file is a signed-out
// session, not an error.
func NewStore(stateDir string) (*Store, error) {
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	s := &Store{path: filepath.Join(stateDir, "credentials.json")}

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var p persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		// A corrupt file should not brick the client; start signed out.
		return s, nil
	}

	s.token = p.Token
	s.user = p.User
	return s, nil
}

// SetCredentials stores and persists a fresh login.
func (s *Store) SetCredentials(token string, user User) error {
	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()

	raw, err := json.MarshalIndent(persisted{Token: token, User: user}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}
	return nil
}

// Clear signs out: wipes in-memory state and removes the persisted file.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.user = User{}
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

// Token returns the current auth token, empty when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the signed-in user.
func (s *Store) User() User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Authenticated reports whether a token is present.
func (s *Store) Authenticated() bool {
	return s.Token() != ""
}
