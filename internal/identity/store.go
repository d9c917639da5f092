// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package identity manages the stable user identity for the coaching backend.
package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/bestfit-labs/coach-tui/internal/util"
)

// =============================================================================
// KEY-VALUE STORE
// =============================================================================

// Store is a small persistent key-value store. The identity manager and the
// streak tracker both sit on top of it, which keeps them testable with an
// in-memory implementation.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)

	// Set stores a value under key.
	Set(key, value string) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(key string) error
}

// =============================================================================
// FILE STORE
// =============================================================================

// FileStore persists keys as a single JSON object on disk.
// RELIABILITY: Writes go through AtomicWriteFile so a crash mid-save can
// never lose the user's identity.
type FileStore struct {
	path string

	mu   sync.Mutex
	data map[string]string
}

// NewFileStore opens (or creates) a file-backed store at path.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{
		path: path,
		data: make(map[string]string),
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read identity store: %w", err)
	}

	if err := json.Unmarshal(raw, &fs.data); err != nil {
		// A corrupt store is recoverable: start fresh rather than brick
		// the client. The next save overwrites the bad file.
		fs.data = make(map[string]string)
	}

	return fs, nil
}

// Get returns the value for key and whether it was present.
func (fs *FileStore) Get(key string) (string, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	v, ok := fs.data[key]
	return v, ok, nil
}

// Set stores a value under key and persists immediately.
func (fs *FileStore) Set(key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.data[key] = value
	return fs.flushLocked()
}

// Delete removes a key and persists immediately.
func (fs *FileStore) Delete(key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.data[key]; !ok {
		return nil
	}
	delete(fs.data, key)
	return fs.flushLocked()
}

// flushLocked writes the store to disk. Caller holds fs.mu.
func (fs *FileStore) flushLocked() error {
	data, err := json.MarshalIndent(fs.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode identity store: %w", err)
	}
	// SECURITY: identity data is private to the user
	if err := util.AtomicWriteFile(fs.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write identity store: %w", err)
	}
	return nil
}

// =============================================================================
// MEMORY STORE
// =============================================================================

// MemStore is an in-memory Store for tests and ephemeral sessions.
type MemStore struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]string)}
}

// Get returns the value for key and whether it was present.
func (ms *MemStore) Get(key string) (string, bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	v, ok := ms.data[key]
	return v, ok, nil
}

// Set stores a value under key.
func (ms *MemStore) Set(key, value string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.data[key] = value
	return nil
}

// Delete removes a key.
func (ms *MemStore) Delete(key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.data, key)
	return nil
}
