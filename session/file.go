package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultHistoryDir is where FileStore keeps histories unless told otherwise.
const DefaultHistoryDir = "./chat_histories"

// FileStore keeps one JSON file per session under a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the storage directory if needed. An empty dir uses
// DefaultHistoryDir.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = DefaultHistoryDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes the blob to <dir>/<sessionID>.json, replacing any previous file.
func (s *FileStore) Save(_ context.Context, sessionID string, data []byte) error {
	path, err := s.path(sessionID)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}
	return nil
}

// Load reads the session file, or returns ErrNotFound.
func (s *FileStore) Load(_ context.Context, sessionID string) ([]byte, error) {
	path, err := s.path(sessionID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	return data, nil
}

// path rejects ids that would escape the storage directory.
func (s *FileStore) path(sessionID string) (string, error) {
	if sessionID == "" || strings.ContainsAny(sessionID, `/\`) || strings.Contains(sessionID, "..") {
		return "", fmt.Errorf("invalid session id %q", sessionID)
	}
	return filepath.Join(s.dir, sessionID+".json"), nil
}

var _ Store = (*FileStore)(nil)
