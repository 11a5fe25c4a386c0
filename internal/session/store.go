// Copyright (c) 2026 Presence Team
// Presence - meeting attendance client
// This source code is licensed under the MIT license found in the LICENSE file.

// package session holds the authenticated identity and bearer token for
// the lifetime of a logged-in session. The pair is persisted in a small
// JSON state file so the session survives restarts; losing the file
// only forces re-authentication. The service is the sole authority on
// credentials, no validation happens here.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/adjoumani/presence/internal/model"
)

// persisted is the on-disk shape: exactly the identity and the token,
// nothing else is durable on the client.
type persisted struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// Store is the concurrency-safe session holder. Access goes through its
// methods only; there is no other mutable session state in the process.
type Store struct {
	path string

	mu            sync.RWMutex
	user          model.User
	token         string
	authenticated bool
}

// Load reads the persisted session from path. A missing or empty file
// yields a logged-out store; a corrupt file is an error so the caller
// can surface it instead of silently dropping a session.
func Load(path string) (*Store, error) {
	s := &Store{path: path}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if len(b) == 0 {
		return s, nil
	}

	var p persisted
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	if p.Token != "" {
		s.user = p.User
		s.token = p.Token
		s.authenticated = true
	}
	return s, nil
}

// Login stores the identity and token and persists both.
func (s *Store) Login(user model.User, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.token = token
	s.authenticated = true
	return s.persistLocked()
}

// Logout clears both the in-memory and the persisted session.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = model.User{}
	s.token = ""
	s.authenticated = false
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// Current returns the identity and whether a session is active.
func (s *Store) Current() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.authenticated
}

// Token returns the bearer token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a session is active.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *Store) persistLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	b, err := json.MarshalIndent(persisted{User: s.user, Token: s.token}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	// The token is a credential; keep the file private to the user.
	if err := os.WriteFile(s.path, b, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}
