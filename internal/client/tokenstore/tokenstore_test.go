// Copyright (c) 2026 Mercato. All rights reserved.
// Author: platform@mercato.shop

package tokenstore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercato/mercato/internal/client/tokenstore"
)

/*
TestFileStore_RoundTrip covers save, load, and clear on disk.
*/
func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	store := tokenstore.NewFileStore(path)

	// Empty store
	_, err := store.Load()
	assert.ErrorIs(t, err, tokenstore.ErrNoToken)

	// Save creates parent directories
	require.NoError(t, store.Save("header.payload.signature"))

	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "header.payload.signature", token)

	// Token file must be private to the owner
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// Clear is idempotent
	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())

	_, err = store.Load()
	assert.ErrorIs(t, err, tokenstore.ErrNoToken)
}

/*
TestFileStore_EmptyFile treats a whitespace-only file as no token.
*/
func TestFileStore_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))

	store := tokenstore.NewFileStore(path)
	_, err := store.Load()
	assert.ErrorIs(t, err, tokenstore.ErrNoToken)
}

/*
TestMemoryStore verifies the in-memory implementation used by tests.
*/
func TestMemoryStore(t *testing.T) {
	store := tokenstore.NewMemoryStore()

	_, err := store.Load()
	assert.ErrorIs(t, err, tokenstore.ErrNoToken)

	require.NoError(t, store.Save("abc"))
	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	require.NoError(t, store.Clear())
	_, err = store.Load()
	assert.ErrorIs(t, err, tokenstore.ErrNoToken)
}
