// Package tui provides the host terminal interface of the visual editor:
// the edit ledger and pin lists, the toolbar controls, and overlays for the
// diff view, the element tree, annotations and the compiled instructions.
//
// The TUI codebase is split into multiple files:
// - executor.go: Executor implementation and program lifecycle
// - model.go: Core model structure and state
// - update.go: Bubble Tea Update function and key handling
// - view.go: Bubble Tea View function and rendering
// - styles.go: Color scheme and styling
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/canvas/pkg/host"
)

// Executor runs the terminal UI against a host controller.
type Executor struct {
	cfg     Config
	program *tea.Program
}

// NewExecutor creates a TUI executor.
func NewExecutor(cfg Config) *Executor {
	return &Executor{cfg: cfg}
}

// Run starts the TUI and blocks until the user exits or ctx is done.
func (e *Executor) Run(ctx context.Context) error {
	if e.cfg.Host == nil {
		return fmt.Errorf("tui: no host controller")
	}
	m := newModel(e.cfg)

	e.program = tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	// Controller changes arrive from the bridge goroutine.
	e.cfg.Host.OnChange(func(ch host.Change) {
		e.program.Send(changeMsg{change: ch})
	})

	if _, err := e.program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to run TUI program: %w", err)
	}
	return nil
}
