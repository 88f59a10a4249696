package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps one JSON file per key in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("ledger: init directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

var keyReplacer = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")

func (fs *FileStore) path(key string) string {
	return filepath.Join(fs.dir, keyReplacer.Replace(key)+".json")
}

// Load reads the state stored under key.
func (fs *FileStore) Load(_ context.Context, key string) (State, error) {
	b, err := os.ReadFile(fs.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return State{}, ErrNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("ledger: read %s: %w", key, err)
	}
	return Decode(b)
}

// Save writes the state atomically via a temporary file.
func (fs *FileStore) Save(_ context.Context, key string, s State) error {
	b, err := Encode(s)
	if err != nil {
		return err
	}
	path := fs.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("ledger: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("ledger: atomic rename %s: %w", path, err)
	}
	return nil
}

// Close is a no-op.
func (fs *FileStore) Close() error { return nil }
