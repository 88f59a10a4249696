// Package host is the host side of the visual editor. The Controller owns
// the edit ledger, prompt pins and reference image, keeps the surface
// convergent with the ledger by sending it compensating commands, and
// persists everything under a per-project key.
package host

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/entrhq/canvas/pkg/bridge"
	"github.com/entrhq/canvas/pkg/compiler"
	"github.com/entrhq/canvas/pkg/idgen"
	"github.com/entrhq/canvas/pkg/ledger"
	"github.com/entrhq/canvas/pkg/logging"
	"github.com/entrhq/canvas/pkg/types"
)

// ChangeKind says what part of the controller state moved.
type ChangeKind int

const (
	ChangeLedger ChangeKind = iota
	ChangePins
	ChangeReference
	ChangeSelection
	ChangeAnnotation
	ChangeTree
	ChangePinFocus
	ChangeContextAction
	ChangeConnection
)

// Change is delivered to listeners after every state transition.
type Change struct {
	Kind   ChangeKind
	Action *bridge.ContextActionPayload
}

// PendingAnnotation is an annotation-request waiting for the operator's
// free text.
type PendingAnnotation struct {
	Type    types.AnnotationKind
	X, Y    float64
	PageX   float64
	PageY   float64
	Nearest bridge.NearestElement
}

// Controller is safe for concurrent use by the bridge loop and the UI.
type Controller struct {
	mu sync.Mutex

	sender   bridge.Sender
	ledger   *ledger.Ledger
	pins     *ledger.Pins
	ref      *types.ReferenceImage
	compiler *compiler.Compiler
	status   StatusProvider
	project  ProjectProvider
	logger   logging.Sink
	now      func() time.Time
	pinIDs   idgen.Generator

	store  ledger.Store
	saveMu sync.Mutex
	dirty  bool

	connected  bool
	selection  *types.SelectionSnapshot
	tree       *types.TreeNode
	pending    *PendingAnnotation
	focusedPin string

	outbox    []outbound
	changes   []Change
	listeners []func(Change)
}

type outbound struct {
	msgType string
	payload any
}

// Option configures a Controller.
type Option func(*Controller)

// WithStore sets the persistence backend.
func WithStore(s ledger.Store) Option {
	return func(c *Controller) { c.store = s }
}

// WithProject sets the project identity provider.
func WithProject(p ProjectProvider) Option {
	return func(c *Controller) { c.project = p }
}

// WithStatus sets the downstream agent status provider.
func WithStatus(s StatusProvider) Option {
	return func(c *Controller) { c.status = s }
}

// WithLogger sets the diagnostics sink.
func WithLogger(l logging.Sink) Option {
	return func(c *Controller) { c.logger = logging.OrNop(l) }
}

// WithClock sets the clock used for pin timestamps and the compiled header.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithPinIDs overrides pin id generation.
func WithPinIDs(g idgen.Generator) Option {
	return func(c *Controller) { c.pinIDs = g }
}

// New creates a controller sending through sender, which may be nil until
// Bind is called.
func New(sender bridge.Sender, opts ...Option) *Controller {
	c := &Controller{
		sender:  sender,
		ledger:  ledger.New(),
		status:  unavailable{},
		project: StaticProject(""),
		logger:  logging.Nop,
		now:     time.Now,
		pinIDs:  idgen.Pin(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.pins = ledger.NewPins(ledger.WithPinIDs(c.pinIDs), ledger.WithPinClock(c.now))
	c.compiler = compiler.New(compiler.WithClock(c.now))
	return c
}

// Key returns the storage key for the current project.
func (c *Controller) Key() string {
	return ledger.Key(c.project.Project())
}

// OnChange registers fn. Listeners run outside the controller lock.
func (c *Controller) OnChange(fn func(Change)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) emit(msgType string, payload any) {
	c.outbox = append(c.outbox, outbound{msgType: msgType, payload: payload})
}

func (c *Controller) changed(kind ChangeKind) {
	if kind == ChangeLedger || kind == ChangePins || kind == ChangeReference {
		c.dirty = true
	}
	c.changes = append(c.changes, Change{Kind: kind})
}

// unlockAndFlush releases the lock, then sends queued messages, persists
// if anything durable changed and notifies listeners.
func (c *Controller) unlockAndFlush() {
	out, changes, dirty := c.outbox, c.changes, c.dirty
	c.outbox, c.changes, c.dirty = nil, nil, false
	sender := c.sender
	listeners := append(([]func(Change))(nil), c.listeners...)
	c.mu.Unlock()

	if sender != nil {
		for _, m := range out {
			if err := sender.Send(m.msgType, m.payload); err != nil {
				c.logger.Debugf("send %s: %v", m.msgType, err)
			}
		}
	}
	if dirty {
		c.persist()
	}
	for _, ch := range changes {
		for _, fn := range listeners {
			fn(ch)
		}
	}
}

// persist saves the latest state. Failures are logged and otherwise
// ignored; losing scratch history is recoverable.
func (c *Controller) persist() {
	if c.store == nil {
		return
	}
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	st := c.State()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.store.Save(ctx, c.Key(), st); err != nil {
		c.logger.Warnf("persist %s: %v", c.Key(), err)
	}
}

// Load restores persisted state. Any failure, including a blob from a
// newer schema, falls back to empty state. Load never returns an error the
// caller must act on; the result reports whether anything was restored.
func (c *Controller) Load(ctx context.Context) bool {
	if c.store == nil {
		return false
	}
	st, err := c.store.Load(ctx, c.Key())
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return false
	case err != nil:
		c.logger.Warnf("load %s: %v; starting empty", c.Key(), err)
		return false
	}

	c.mu.Lock()
	defer c.unlockAndFlush()
	c.ledger.Restore(st.Edits)
	c.pins.Restore(st.Pins)
	c.ref = nil
	if st.Reference != nil {
		r := *st.Reference
		c.ref = &r
	}
	c.changes = append(c.changes, Change{Kind: ChangeLedger}, Change{Kind: ChangePins}, Change{Kind: ChangeReference})
	if c.connected {
		c.emit(bridge.MsgClearEdits, bridge.ClearEditsPayload{})
		c.syncSurfaceLocked()
	}
	return !st.Empty()
}

// State returns the durable state.
func (c *Controller) State() ledger.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := ledger.State{
		Version: ledger.SchemaVersion,
		Edits:   c.ledger.Present(),
		Pins:    c.pins.List(),
	}
	if c.ref != nil {
		r := *c.ref
		st.Reference = &r
	}
	return st
}

// syncSurfaceLocked pushes the whole durable state to a freshly attached
// surface.
func (c *Controller) syncSurfaceLocked() {
	for _, e := range c.ledger.Present() {
		c.emit(bridge.MsgApplyEdit, bridge.ApplyEditPayload{Edit: e})
	}
	c.emit(bridge.MsgSetPins, bridge.SetPinsPayload{Pins: c.pins.List()})
	if c.ref != nil {
		c.emit(bridge.MsgSetReferenceImage, bridge.SetReferenceImagePayload{DataURL: c.ref.DataURL, Opacity: c.ref.Opacity})
	}
}

// converge tells the surface how to get from before to the ledger's
// present.
func (c *Controller) convergeLocked(before []types.Edit) {
	after := c.ledger.Present()
	if len(after) == 0 && len(before) > 0 {
		c.emit(bridge.MsgClearEdits, bridge.ClearEditsPayload{})
		return
	}
	removed, added := ledger.Diff(before, after)
	for _, id := range removed {
		c.emit(bridge.MsgRemoveEdit, bridge.RemoveEditPayload{ID: id})
	}
	for _, e := range added {
		c.emit(bridge.MsgApplyEdit, bridge.ApplyEditPayload{Edit: e})
	}
}

// mutate runs fn against the ledger and converges the surface if fn
// reports a change.
func (c *Controller) mutate(fn func() bool) bool {
	c.mu.Lock()
	defer c.unlockAndFlush()
	before := c.ledger.Present()
	if !fn() {
		return false
	}
	c.convergeLocked(before)
	c.changed(ChangeLedger)
	return true
}

// Undo reverts the last ledger action. It reports false when there is
// nothing to undo.
func (c *Controller) Undo() bool { return c.mutate(c.ledger.Undo) }

// Redo re-applies the last undone action.
func (c *Controller) Redo() bool { return c.mutate(c.ledger.Redo) }

// Remove drops one edit.
func (c *Controller) Remove(id string) bool {
	return c.mutate(func() bool {
		if err := c.ledger.Remove(id); err != nil {
			c.logger.Debugf("remove %s: %v", id, err)
			return false
		}
		return true
	})
}

// Clear drops every edit.
func (c *Controller) Clear() bool { return c.mutate(c.ledger.Clear) }

// Edits returns the ledger's present edits.
func (c *Controller) Edits() []types.Edit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Present()
}

// CanUndo reports whether Undo would do anything.
func (c *Controller) CanUndo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.CanUndo()
}

// CanRedo reports whether Redo would do anything.
func (c *Controller) CanRedo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.CanRedo()
}

// Pins returns all prompt pins.
func (c *Controller) Pins() []types.Pin {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pins.List()
}

// Reference returns the active reference image, if any.
func (c *Controller) Reference() (types.ReferenceImage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ref == nil {
		return types.ReferenceImage{}, false
	}
	return *c.ref, true
}

// Selection returns the surface's last reported selection, or nil.
func (c *Controller) Selection() *types.SelectionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection
}

// Tree returns the last dom-tree snapshot, or nil.
func (c *Controller) Tree() *types.TreeNode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tree
}

// Pending returns the annotation awaiting text, if any.
func (c *Controller) Pending() (PendingAnnotation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return PendingAnnotation{}, false
	}
	return *c.pending, true
}

// FocusedPin returns the id of the last clicked pin.
func (c *Controller) FocusedPin() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focusedPin
}

// Connected reports whether a surface has completed the handshake.
func (c *Controller) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// AgentAvailable reports the downstream agent status.
func (c *Controller) AgentAvailable() bool {
	return c.status.AgentAvailable()
}

// Compile renders the instruction document for the current state.
func (c *Controller) Compile() string {
	c.mu.Lock()
	in := compiler.Input{
		Edits:        c.ledger.Present(),
		Pins:         c.pins.List(),
		HasReference: c.ref != nil,
	}
	comp := c.compiler
	c.mu.Unlock()
	in.AgentAvailable = c.status.AgentAvailable()
	return comp.Compile(in)
}
