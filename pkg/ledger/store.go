package ledger

import (
	"context"
	"strings"
)

// Store persists State under a per-project key.
//
// Load returns ErrNotFound when nothing was saved under key. Callers treat
// any Load or Save failure as recoverable and fall back to empty state.
type Store interface {
	Load(ctx context.Context, key string) (State, error)
	Save(ctx context.Context, key string, s State) error
	Close() error
}

// Key returns the storage key for a project.
func Key(project string) string {
	project = strings.TrimSpace(project)
	if project == "" {
		project = "default"
	}
	return "canvas:" + project + ":ledger"
}
