package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndPath(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	rel, err := store.Save("registers/reg-1.csv", []byte("id,title\n"))
	require.NoError(t, err)
	assert.Equal(t, "registers/reg-1.csv", rel)

	data, err := os.ReadFile(store.Path(rel))
	require.NoError(t, err)
	assert.Equal(t, "id,title\n", string(data))
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	old, err := store.Save("registers/old.csv", []byte("stale"))
	require.NoError(t, err)
	fresh, err := store.Save("registers/fresh.csv", []byte("recent"))
	require.NoError(t, err)

	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(store.Path(old), stale, stale))

	removed, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.FromSlash("registers/old.csv")}, removed)

	_, err = os.Stat(store.Path(fresh))
	assert.NoError(t, err)
	_, err = os.Stat(store.Path(old))
	assert.True(t, os.IsNotExist(err))
}
