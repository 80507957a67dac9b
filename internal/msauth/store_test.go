package msauth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "graph.token")
	store := NewFileStoreAt(path)

	// Load before any save reports an absent cache.
	blob, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, blob)

	require.NoError(t, store.Save([]byte(`{"access_token":"a"}`)))

	blob, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, `{"access_token":"a"}`, string(blob))

	// The cache file must be owner-only.
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStoreSaveNilClears(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.token")
	store := NewFileStoreAt(path)

	require.NoError(t, store.Save([]byte("blob")))
	require.NoError(t, store.Save(nil))

	blob, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, blob)

	// Clearing an already-absent cache is not an error.
	require.NoError(t, store.Save(nil))
}

func TestMemStoreRoundTrip(t *testing.T) {
	store := &MemStore{}

	blob, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, blob)

	require.NoError(t, store.Save([]byte("blob")))
	blob, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "blob", string(blob))

	// Load returns a copy; mutating it must not affect the store.
	blob[0] = 'x'
	again, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "blob", string(again))

	require.NoError(t, store.Save(nil))
	blob, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, blob)
}
