// Package filestore implements the durable key-value store as one JSON
// file per collection key inside a data directory.
//
// Each save is atomic for its own key (write to a temp file, then
// rename). Saves of different keys are separate writes: a crash between
// the materials save and the transactions save leaves the two
// collections inconsistent. The Postgres backend closes that gap; the
// file backend keeps the original single-user tool semantics.
package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists collection values under <dir>/<key>.json.
type Store struct {
	dir string
}

// New creates the data directory if needed and returns a Store over it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Load reads the value for key, or returns nil if the file does not exist.
func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Save overwrites the value for key via temp-file-and-rename, so a
// crashed save never leaves a truncated collection behind.
func (s *Store) Save(_ context.Context, key string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", key, err)
	}

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}
