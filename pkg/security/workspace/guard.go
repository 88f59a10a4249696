// Package workspace confines host-side file reads, such as reference
// images, to the project directory and any explicitly allowed directories.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrOutside is returned for paths that resolve outside every allowed root.
	ErrOutside = errors.New("path is outside workspace boundaries")
	// ErrDenied is returned for paths matching a deny pattern.
	ErrDenied = errors.New("path matches a denied pattern")
	// ErrTooLarge is returned when a file exceeds the read limit.
	ErrTooLarge = errors.New("file exceeds read limit")
)

// DefaultMaxReadBytes bounds ReadFile. Reference images travel inline as
// data URLs, so anything larger is not worth sending.
const DefaultMaxReadBytes = 10 << 20

// DefaultDenyPatterns keep secrets and VCS internals out of reach. Patterns
// are matched against the slash-separated path relative to its root.
var DefaultDenyPatterns = []string{".env", ".env.*", "**/.env", ".git/**", "**/*.pem", "**/*.key"}

// Guard enforces workspace boundary restrictions on file paths.
type Guard struct {
	workspaceDir string
	allowed      []string
	deny         []glob.Glob
	maxRead      int64
}

// Option configures a Guard.
type Option func(*Guard) error

// WithDenyPatterns replaces the default deny patterns.
func WithDenyPatterns(patterns ...string) Option {
	return func(g *Guard) error {
		g.deny = g.deny[:0]
		for _, p := range patterns {
			m, err := glob.Compile(p, '/')
			if err != nil {
				return fmt.Errorf("invalid deny pattern %q: %w", p, err)
			}
			g.deny = append(g.deny, m)
		}
		return nil
	}
}

// WithMaxReadBytes overrides the ReadFile limit.
func WithMaxReadBytes(n int64) Option {
	return func(g *Guard) error {
		if n <= 0 {
			return fmt.Errorf("read limit must be positive, got %d", n)
		}
		g.maxRead = n
		return nil
	}
}

// NewGuard creates a guard rooted at workspaceDir, which must exist. The
// path is made absolute and its symlinks are evaluated.
func NewGuard(workspaceDir string, opts ...Option) (*Guard, error) {
	if workspaceDir == "" {
		return nil, fmt.Errorf("workspace directory cannot be empty")
	}
	root, err := realDir(workspaceDir)
	if err != nil {
		return nil, err
	}

	g := &Guard{workspaceDir: root, maxRead: DefaultMaxReadBytes}
	opts = append([]Option{WithDenyPatterns(DefaultDenyPatterns...)}, opts...)
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func realDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve directory %s: %w", dir, err)
	}
	eval, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("failed to evaluate directory %s: %w", dir, err)
	}
	info, err := os.Stat(eval)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", dir)
	}
	return eval, nil
}

// Allow adds a directory outside the workspace whose files may be read.
func (g *Guard) Allow(dir string) error {
	resolved, err := realDir(dir)
	if err != nil {
		return err
	}
	for _, existing := range g.allowed {
		if existing == resolved {
			return nil
		}
	}
	g.allowed = append(g.allowed, resolved)
	return nil
}

// WorkspaceDir returns the absolute path of the workspace directory.
func (g *Guard) WorkspaceDir() string {
	return g.workspaceDir
}

// ResolvePath converts a relative, absolute or ~-prefixed path to an
// absolute one with symlinks evaluated. Relative paths are joined to the
// workspace. The file must exist.
func (g *Guard) ResolvePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to expand ~: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(g.workspaceDir, path)
	}
	return filepath.EvalSymlinks(filepath.Clean(path))
}

// root returns the allowed root containing abs.
func (g *Guard) root(abs string) (string, bool) {
	for _, r := range append([]string{g.workspaceDir}, g.allowed...) {
		if abs == r || strings.HasPrefix(abs, r+string(filepath.Separator)) {
			return r, true
		}
	}
	return "", false
}

// ValidatePath resolves path and checks it against the roots and deny
// patterns, returning the resolved path.
func (g *Guard) ValidatePath(path string) (string, error) {
	abs, err := g.ResolvePath(path)
	if err != nil {
		return "", err
	}
	r, ok := g.root(abs)
	if !ok {
		return "", fmt.Errorf("%s: %w", path, ErrOutside)
	}
	rel, err := filepath.Rel(r, abs)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, ErrOutside)
	}
	rel = filepath.ToSlash(rel)
	for _, m := range g.deny {
		if m.Match(rel) {
			return "", fmt.Errorf("%s: %w", path, ErrDenied)
		}
	}
	return abs, nil
}

// ReadFile reads a validated file of at most the configured limit.
func (g *Guard) ReadFile(path string) ([]byte, error) {
	abs, err := g.ValidatePath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, g.maxRead+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > g.maxRead {
		return nil, fmt.Errorf("%s: %w (%d bytes)", path, ErrTooLarge, g.maxRead)
	}
	return data, nil
}
