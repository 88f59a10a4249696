package dispatch

import (
	"context"

	"github.com/atotto/clipboard"
)

// Clipboard copies the document to the system clipboard so the operator can
// paste it into any agent.
type Clipboard struct {
	write       func(string) error
	unsupported bool
}

// NewClipboard returns the system clipboard dispatcher.
func NewClipboard() *Clipboard {
	return &Clipboard{write: clipboard.WriteAll, unsupported: clipboard.Unsupported}
}

func (c *Clipboard) Name() string { return "clipboard" }

// Available is false on platforms without a clipboard utility.
func (c *Clipboard) Available() bool { return !c.unsupported }

// Deliver writes doc to the clipboard.
func (c *Clipboard) Deliver(_ context.Context, doc string) error {
	if c.unsupported {
		return ErrUnsupported
	}
	return c.write(doc)
}
