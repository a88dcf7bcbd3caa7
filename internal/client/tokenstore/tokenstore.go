// Copyright (c) 2026 Mercato. All rights reserved.
// Author: platform@mercato.shop

/*
Package tokenstore persists the client's bearer token between runs.

The token is the only piece of session state the client keeps: there is no
local credential cache, and profile data is always re-fetched from the
server on startup.
*/
package tokenstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoToken is returned when no token has been saved yet.
var ErrNoToken = errors.New("tokenstore: no stored token")

// Store persists a single bearer token.
type Store interface {
	// Load returns the stored token, or [ErrNoToken] when absent.
	Load() (string, error)

	// Save replaces the stored token.
	Save(token string) error

	// Clear removes the stored token. Clearing an empty store is a no-op.
	Clear() error
}

// # File Store

const tokenFileMode = 0o600

// FileStore keeps the token in a single file readable only by the owner.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath returns the conventional token location under the user's
// configuration directory.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("tokenstore: resolve config dir: %w", err)
	}
	return filepath.Join(configDir, "mercato", "token"), nil
}

// Load reads the token from disk.
func (store *FileStore) Load() (string, error) {
	data, err := os.ReadFile(store.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("tokenstore: read token file: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// Save writes the token to disk, creating parent directories as needed.
func (store *FileStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(store.path), 0o700); err != nil {
		return fmt.Errorf("tokenstore: create token dir: %w", err)
	}
	if err := os.WriteFile(store.path, []byte(token), tokenFileMode); err != nil {
		return fmt.Errorf("tokenstore: write token file: %w", err)
	}
	return nil
}

// Clear removes the token file.
func (store *FileStore) Clear() error {
	if err := os.Remove(store.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("tokenstore: remove token file: %w", err)
	}
	return nil
}

// # Memory Store

// MemoryStore keeps the token in process memory. Used by tests and by
// embedders that manage persistence themselves.
type MemoryStore struct {
	token string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the held token, or [ErrNoToken] when empty.
func (store *MemoryStore) Load() (string, error) {
	if store.token == "" {
		return "", ErrNoToken
	}
	return store.token, nil
}

// Save replaces the held token.
func (store *MemoryStore) Save(token string) error {
	store.token = token
	return nil
}

// Clear drops the held token.
func (store *MemoryStore) Clear() error {
	store.token = ""
	return nil
}
