package main

import (
	"fmt"
	"os"
	"path/filepath"

	appconfig "github.com/entrhq/canvas/pkg/config"
	"github.com/entrhq/canvas/pkg/ledger"
)

// openStore builds the ledger store for the resolved storage settings.
// Empty paths default under ~/.canvas.
func openStore(s appconfig.StorageSettings) (ledger.Store, error) {
	switch s.Backend {
	case "", appconfig.BackendFile:
		dir := s.Dir
		if dir == "" {
			base, err := canvasHome()
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(base, "ledger")
		}
		return ledger.NewFileStore(dir)

	case appconfig.BackendRedis:
		if s.RedisURL == "" {
			return nil, fmt.Errorf("redis backend requires -redis-url or storage.redis_url")
		}
		return ledger.NewRedisStore(s.RedisURL)

	case appconfig.BackendSQLite:
		path := s.SQLitePath
		if path == "" {
			base, err := canvasHome()
			if err != nil {
				return nil, err
			}
			if err := os.MkdirAll(base, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create %s: %w", base, err)
			}
			path = filepath.Join(base, "canvas.db")
		}
		return ledger.OpenSQLiteStore(path)
	}
	return nil, fmt.Errorf("unknown storage backend %q", s.Backend)
}

func canvasHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".canvas"), nil
}
