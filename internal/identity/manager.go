// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrAuthenticated rejects identity changes while an authenticated
// session exists. Swapping the identity underneath an authenticated
// backend session would attribute its memory to the wrong user; the
// identity must be Reset first.
var ErrAuthenticated = errors.New("identity is authenticated")

// Store keys used by the manager.
const (
	keyUserID        = "user_id"
	keyAuthenticated = "authenticated"
)

// GuestPrefix marks locally generated fallback identities.
const GuestPrefix = "guest-"

// =============================================================================
// IDENTITY MANAGER
// =============================================================================

// Manager owns the user identity rules:
//
//   - A user ID, once established, is stable across sessions.
//   - Without a stored ID, a guest ID is generated and persisted so that
//     conversation memory accumulates under one identity from first launch.
//   - A server-suggested ID is adopted only when no local ID exists.
//     The local ID always wins; overwriting it would orphan the memory
//     the backend has already accumulated for this user.
//   - Once an identity is authenticated it can no longer be replaced
//     in place; it must be Reset first.
type Manager struct {
	mu            sync.Mutex
	store         Store
	userID        string
	authenticated bool
}

// NewManager creates a manager backed by store, loading any persisted state.
func NewManager(store Store) (*Manager, error) {
	m := &Manager{store: store}

	if id, ok, err := store.Get(keyUserID); err != nil {
		return nil, fmt.Errorf("failed to load user id: %w", err)
	} else if ok {
		m.userID = id
	}

	if v, ok, err := store.Get(keyAuthenticated); err != nil {
		return nil, fmt.Errorf("failed to load auth flag: %w", err)
	} else if ok {
		m.authenticated = v == "true"
	}

	return m, nil
}

// UserID returns the stable user ID, generating and persisting a guest ID
// on first use.
func (m *Manager) UserID() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.userID != "" {
		return m.userID, nil
	}

	id := GuestPrefix + uuid.NewString()
	if err := m.store.Set(keyUserID, id); err != nil {
		return "", fmt.Errorf("failed to persist guest id: %w", err)
	}
	m.userID = id
	return id, nil
}

// SetUserID replaces the identity, e.g. after an explicit sign-in.
// Returns ErrAuthenticated once an authenticated identity exists; the
// caller must Reset before establishing a different one. Callers mark
// the new identity authenticated separately once the backend confirms
// the session.
func (m *Manager) SetUserID(id string) error {
	if id == "" {
		return fmt.Errorf("user id must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.authenticated {
		return ErrAuthenticated
	}

	if err := m.store.Set(keyUserID, id); err != nil {
		return fmt.Errorf("failed to persist user id: %w", err)
	}
	m.userID = id
	return nil
}

// AdoptServerID accepts a server-suggested ID only when no local identity
// exists yet. Returns the ID in effect afterward.
func (m *Manager) AdoptServerID(suggested string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.userID != "" || suggested == "" {
		return m.userID, nil
	}

	if err := m.store.Set(keyUserID, suggested); err != nil {
		return "", fmt.Errorf("failed to persist server id: %w", err)
	}
	m.userID = suggested
	return suggested, nil
}

// SetAuthenticated records whether the current identity has an
// authenticated backend session.
func (m *Manager) SetAuthenticated(v bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	val := "false"
	if v {
		val = "true"
	}
	if err := m.store.Set(keyAuthenticated, val); err != nil {
		return fmt.Errorf("failed to persist auth flag: %w", err)
	}
	m.authenticated = v
	return nil
}

// Authenticated reports whether the current identity is authenticated.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authenticated
}

// IsGuest reports whether the current identity is a generated guest ID.
func (m *Manager) IsGuest() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return strings.HasPrefix(m.userID, GuestPrefix)
}

// Reset clears the identity and auth state. The next UserID call will
// generate a fresh guest ID.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Delete(keyUserID); err != nil {
		return err
	}
	if err := m.store.Delete(keyAuthenticated); err != nil {
		return err
	}
	m.userID = ""
	m.authenticated = false
	return nil
}

// StoreHandle exposes the underlying store so sibling features (visit
// streaks) can share the same persistence file.
func (m *Manager) StoreHandle() Store {
	return m.store
}
