package storage

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// LocalStore persists uploaded files under <root>/<user_id>/<session_id>/,
// which keeps tenants from colliding and lets a whole session's files be
// removed with one call.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) sessionDir(userId, sessionId uuid.UUID) string {
	return filepath.Join(s.root, userId.String(), sessionId.String())
}

// Save writes the file and returns its path relative to the store root,
// suitable for serving under the public static route.
func (s *LocalStore) Save(userId, sessionId uuid.UUID, filename string, data []byte) (string, error) {
	// Strip any directory component a client may have smuggled in.
	filename = filepath.Base(filename)

	dir := s.sessionDir(userId, sessionId)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create session directory")
	}

	fullPath := filepath.Join(dir, filename)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", errors.Wrap(err, "failed to write uploaded file")
	}

	return filepath.Join(userId.String(), sessionId.String(), filename), nil
}

// Remove deletes one stored file. Missing files are not an error.
func (s *LocalStore) Remove(relPath string) error {
	err := os.Remove(filepath.Join(s.root, relPath))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove stored file")
	}
	return nil
}

// RemoveSession deletes every file stored for one session.
func (s *LocalStore) RemoveSession(userId, sessionId uuid.UUID) error {
	if err := os.RemoveAll(s.sessionDir(userId, sessionId)); err != nil {
		return errors.Wrap(err, "failed to remove session directory")
	}
	return nil
}

// Root returns the directory served as the public static route.
func (s *LocalStore) Root() string {
	return s.root
}
