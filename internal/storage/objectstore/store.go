// Package objectstore keeps the raw uploaded document content on disk so a
// reparse can re-read the original input without another upload.
package objectstore

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gikai-viz/backend/pkg/logger"
)

type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	logger.Info("Object store initialized", zap.String("dir", dir))
	return &Store{dir: dir}, nil
}

// Save writes the document content and returns the storage key recorded on
// the minutes-file row.
func (s *Store) Save(fileID string, data []byte) (string, error) {
	key := fileID + ".txt"
	path := filepath.Join(s.dir, key)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save document: %w", err)
	}

	return key, nil
}

func (s *Store) Load(key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, key))
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return data, nil
}

func (s *Store) Delete(key string) error {
	if err := os.Remove(filepath.Join(s.dir, key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}
