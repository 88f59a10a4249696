package config

import (
	"fmt"
	"sync"
)

const (
	// SectionIDStorage is the identifier for the storage settings section
	SectionIDStorage = "storage"

	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// StorageSection selects where the edit ledger is persisted.
type StorageSection struct {
	Backend    string
	Dir        string
	RedisURL   string
	SQLitePath string
	mu         sync.RWMutex
}

// NewStorageSection creates a storage section using the file backend.
func NewStorageSection() *StorageSection {
	return &StorageSection{Backend: BackendFile}
}

// ID returns the section identifier.
func (s *StorageSection) ID() string {
	return SectionIDStorage
}

// Title returns the section title.
func (s *StorageSection) Title() string {
	return "Storage Settings"
}

// Description returns the section description.
func (s *StorageSection) Description() string {
	return "Choose the ledger persistence backend (file, redis or sqlite) and where it keeps its data."
}

// Data returns the current configuration data.
func (s *StorageSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"backend":     s.Backend,
		"dir":         s.Dir,
		"redis_url":   s.RedisURL,
		"sqlite_path": s.SQLitePath,
	}
}

// SetData updates the configuration from the provided data.
func (s *StorageSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := data["backend"].(string); ok && v != "" {
		s.Backend = v
	}
	if v, ok := data["dir"].(string); ok {
		s.Dir = v
	}
	if v, ok := data["redis_url"].(string); ok {
		s.RedisURL = v
	}
	if v, ok := data["sqlite_path"].(string); ok {
		s.SQLitePath = v
	}
	return nil
}

// Validate checks the backend name and that it has what it needs.
func (s *StorageSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.Backend {
	case BackendFile:
		return nil
	case BackendRedis:
		if s.RedisURL == "" {
			return fmt.Errorf("redis backend requires redis_url")
		}
		return nil
	case BackendSQLite:
		return nil
	}
	return fmt.Errorf("unknown storage backend %q", s.Backend)
}

// Reset resets the section to default configuration.
func (s *StorageSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Backend = BackendFile
	s.Dir = ""
	s.RedisURL = ""
	s.SQLitePath = ""
}

// Settings returns a snapshot of the section.
func (s *StorageSection) Settings() StorageSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StorageSettings{
		Backend:    s.Backend,
		Dir:        s.Dir,
		RedisURL:   s.RedisURL,
		SQLitePath: s.SQLitePath,
	}
}

// StorageSettings is a copy of the storage section's values.
type StorageSettings struct {
	Backend    string
	Dir        string
	RedisURL   string
	SQLitePath string
}
