package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/canvas/pkg/idgen"
	"github.com/entrhq/canvas/pkg/logging"
)

// ErrClosed is returned by Send when no transport is attached or the
// transport has shut down.
var ErrClosed = errors.New("bridge: transport closed")

// State is the connection state of a Bridge.
type State int

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// Handler receives a validated inbound envelope.
type Handler func(Envelope)

// Sender is the outbound half of a Bridge.
type Sender interface {
	Send(msgType string, payload any) error
}

// Bridge validates and dispatches inbound messages and stamps outbound ones.
// It holds no edit state.
type Bridge struct {
	local Source

	mu        sync.Mutex
	transport Transport
	swapped   chan struct{}
	state     State
	handlers  map[string]map[int]Handler
	nextID    int
	onState   []func(State)

	ids    idgen.Generator
	now    func() time.Time
	logger logging.Sink
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the sink for dropped-message diagnostics.
func WithLogger(l logging.Sink) Option {
	return func(b *Bridge) { b.logger = logging.OrNop(l) }
}

// WithIDGenerator overrides message id generation.
func WithIDGenerator(g idgen.Generator) Option {
	return func(b *Bridge) { b.ids = g }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *Bridge) { b.now = now }
}

// New creates a Bridge for the given local side. t may be nil and attached
// later with Reattach.
func New(local Source, t Transport, opts ...Option) *Bridge {
	b := &Bridge{
		local:     local,
		transport: t,
		swapped:   make(chan struct{}, 1),
		handlers:  make(map[string]map[int]Handler),
		ids:       idgen.Message(),
		now:       time.Now,
		logger:    logging.Nop,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Local returns the side this bridge runs on.
func (b *Bridge) Local() Source { return b.local }

// State returns the connection state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// OnStateChange registers fn for connection state transitions.
func (b *Bridge) OnStateChange(fn func(State)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onState = append(b.onState, fn)
}

// Send wraps payload in an envelope and writes it to the transport without
// waiting for any acknowledgement.
func (b *Bridge) Send(msgType string, payload any) error {
	if payload == nil {
		payload = struct{}{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
	}
	env := Envelope{
		Source:    b.local,
		Type:      msgType,
		Payload:   data,
		Timestamp: b.now().UnixMilli(),
		ID:        b.ids(),
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	b.mu.Lock()
	t := b.transport
	b.mu.Unlock()
	if t == nil {
		return ErrClosed
	}
	return t.Send(raw)
}

// OnMessage registers h for msgType, or for every type with Wildcard. The
// returned function unsubscribes.
func (b *Bridge) OnMessage(msgType string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	if b.handlers[msgType] == nil {
		b.handlers[msgType] = make(map[int]Handler)
	}
	b.handlers[msgType][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[msgType], id)
	}
}

// Dispatch validates one raw inbound message and delivers it to the
// registered handlers in registration order. Invalid messages are dropped.
func (b *Bridge) Dispatch(raw []byte) {
	env, err := parseEnvelope(raw, b.local.Remote())
	if err != nil {
		b.logger.Debugf("dropping inbound message: %v", err)
		return
	}

	var notify []func(State)
	b.mu.Lock()
	if b.state == Disconnected && b.isHandshake(env.Type) {
		b.state = Connected
		notify = append(notify, b.onState...)
	}
	handlers := b.collect(env.Type)
	b.mu.Unlock()

	for _, fn := range notify {
		fn(Connected)
	}
	for _, h := range handlers {
		h(env)
	}
}

// isHandshake reports whether msgType connects the bridge. The host waits
// for the surface's ready message; the surface connects on the first valid
// host message.
func (b *Bridge) isHandshake(msgType string) bool {
	if b.local == SourceHost {
		return msgType == MsgInspectorReady
	}
	return true
}

func (b *Bridge) collect(msgType string) []Handler {
	var out []Handler
	for _, key := range []string{msgType, Wildcard} {
		subs := b.handlers[key]
		for id := 0; id < b.nextID; id++ {
			if h, ok := subs[id]; ok {
				out = append(out, h)
			}
		}
	}
	return out
}

// Reattach swaps in a new transport, e.g. after the surface reloads, and
// resets the connection to Disconnected until the next handshake. The old
// transport is closed.
func (b *Bridge) Reattach(t Transport) {
	b.mu.Lock()
	old := b.transport
	b.transport = t
	changed := b.state != Disconnected
	b.state = Disconnected
	notify := append([]func(State){}, b.onState...)
	b.mu.Unlock()

	if old != nil && old != t {
		if err := old.Close(); err != nil {
			b.logger.Debugf("closing previous transport: %v", err)
		}
	}
	select {
	case b.swapped <- struct{}{}:
	default:
	}
	if changed {
		for _, fn := range notify {
			fn(Disconnected)
		}
	}
}

// Run reads from the attached transport and dispatches until ctx is
// cancelled. A transport that closes is waited out until Reattach supplies
// a new one.
func (b *Bridge) Run(ctx context.Context) error {
	for {
		b.mu.Lock()
		t := b.transport
		b.mu.Unlock()

		var inbound <-chan []byte
		if t != nil {
			inbound = t.Messages()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.swapped:
			continue
		case raw, ok := <-inbound:
			if !ok {
				b.disconnect(t)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-b.swapped:
				}
				continue
			}
			b.Dispatch(raw)
		}
	}
}

func (b *Bridge) disconnect(t Transport) {
	b.mu.Lock()
	if b.transport != t || b.state == Disconnected {
		b.mu.Unlock()
		return
	}
	b.state = Disconnected
	notify := append([]func(State){}, b.onState...)
	b.mu.Unlock()

	b.logger.Debugf("transport closed, bridge disconnected")
	for _, fn := range notify {
		fn(Disconnected)
	}
}

// Close closes the attached transport.
func (b *Bridge) Close() error {
	b.mu.Lock()
	t := b.transport
	b.transport = nil
	b.state = Disconnected
	b.mu.Unlock()
	if t == nil {
		return nil
	}
	return t.Close()
}
