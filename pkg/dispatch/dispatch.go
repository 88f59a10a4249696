// Package dispatch delivers a compiled instruction document to the
// downstream coding agent.
package dispatch

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnsupported is returned when the platform lacks the capability a
	// dispatcher needs, such as a system clipboard.
	ErrUnsupported = errors.New("dispatch: not supported on this platform")
	// ErrAgentUnavailable is returned when the agent cannot currently
	// receive instructions.
	ErrAgentUnavailable = errors.New("dispatch: agent unavailable")
)

// Dispatcher is one delivery route. Available is what the UI uses to
// enable or disable the matching control.
type Dispatcher interface {
	Name() string
	Available() bool
	Deliver(ctx context.Context, doc string) error
}

// Status reports whether the agent side can receive a document.
type Status interface {
	AgentAvailable() bool
}

// Send delivers doc through d after checking both the route and the agent.
func Send(ctx context.Context, d Dispatcher, status Status, doc string) error {
	if !d.Available() {
		return fmt.Errorf("%s: %w", d.Name(), ErrUnsupported)
	}
	if status != nil && !status.AgentAvailable() {
		return fmt.Errorf("%s: %w", d.Name(), ErrAgentUnavailable)
	}
	if err := d.Deliver(ctx, doc); err != nil {
		return fmt.Errorf("%s: %w", d.Name(), err)
	}
	return nil
}
