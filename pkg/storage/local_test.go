package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreSave(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	userId := uuid.New()
	sessionId := uuid.New()

	relPath, err := store.Save(userId, sessionId, "report.pdf", []byte("content"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(userId.String(), sessionId.String(), "report.pdf"), relPath)

	data, err := os.ReadFile(filepath.Join(store.Root(), relPath))
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}

func TestLocalStoreSaveStripsDirectories(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	userId := uuid.New()
	sessionId := uuid.New()

	relPath, err := store.Save(userId, sessionId, "../../etc/passwd", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(userId.String(), sessionId.String(), "passwd"), relPath)
}

func TestLocalStoreRemove(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	userId := uuid.New()
	sessionId := uuid.New()

	relPath, err := store.Save(userId, sessionId, "a.pdf", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, store.Remove(relPath))
	_, statErr := os.Stat(filepath.Join(store.Root(), relPath))
	assert.True(t, os.IsNotExist(statErr))

	// Removing again is not an error.
	assert.NoError(t, store.Remove(relPath))
}

func TestLocalStoreRemoveSession(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	userId := uuid.New()
	sessionId := uuid.New()

	_, err := store.Save(userId, sessionId, "a.pdf", []byte("x"))
	require.NoError(t, err)
	_, err = store.Save(userId, sessionId, "b.pdf", []byte("y"))
	require.NoError(t, err)

	require.NoError(t, store.RemoveSession(userId, sessionId))
	_, statErr := os.Stat(filepath.Join(store.Root(), userId.String(), sessionId.String()))
	assert.True(t, os.IsNotExist(statErr))
}
