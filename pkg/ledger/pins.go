package ledger

import (
	"fmt"
	"time"

	"github.com/entrhq/canvas/pkg/idgen"
	"github.com/entrhq/canvas/pkg/types"
)

// Pins is the prompt pin collection. Pins have no undo history.
type Pins struct {
	pins []types.Pin
	ids  idgen.Generator
	now  func() time.Time
}

// PinOption configures a Pins collection.
type PinOption func(*Pins)

// WithPinIDs overrides pin id generation.
func WithPinIDs(g idgen.Generator) PinOption {
	return func(p *Pins) { p.ids = g }
}

// WithPinClock overrides the creation timestamp source.
func WithPinClock(now func() time.Time) PinOption {
	return func(p *Pins) { p.now = now }
}

// NewPins returns an empty collection.
func NewPins(opts ...PinOption) *Pins {
	p := &Pins{ids: idgen.Pin(), now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Add creates a pin from a template. ID and CreatedAt are assigned here.
func (p *Pins) Add(pin types.Pin) types.Pin {
	pin.ID = p.ids()
	pin.CreatedAt = p.now().UTC()
	p.pins = append(p.pins, pin)
	return pin
}

// Update changes only the prompt of a pin; its position is untouched.
func (p *Pins) Update(id, prompt string) (types.Pin, error) {
	i := p.index(id)
	if i < 0 {
		return types.Pin{}, fmt.Errorf("%w: pin %s", ErrNotFound, id)
	}
	p.pins[i].Prompt = prompt
	return p.pins[i], nil
}

// Move repositions a pin.
func (p *Pins) Move(id string, x, y, pageX, pageY float64) (types.Pin, error) {
	i := p.index(id)
	if i < 0 {
		return types.Pin{}, fmt.Errorf("%w: pin %s", ErrNotFound, id)
	}
	p.pins[i].X, p.pins[i].Y = x, y
	p.pins[i].PageX, p.pins[i].PageY = pageX, pageY
	return p.pins[i], nil
}

// Remove deletes a pin.
func (p *Pins) Remove(id string) error {
	i := p.index(id)
	if i < 0 {
		return fmt.Errorf("%w: pin %s", ErrNotFound, id)
	}
	p.pins = append(p.pins[:i], p.pins[i+1:]...)
	return nil
}

// Clear deletes every pin.
func (p *Pins) Clear() { p.pins = nil }

// Get returns a pin by id.
func (p *Pins) Get(id string) (types.Pin, bool) {
	if i := p.index(id); i >= 0 {
		return p.pins[i], true
	}
	return types.Pin{}, false
}

// List returns a copy of all pins in creation order.
func (p *Pins) List() []types.Pin {
	return append([]types.Pin(nil), p.pins...)
}

// Len returns the number of pins.
func (p *Pins) Len() int { return len(p.pins) }

// Restore replaces the collection with previously persisted pins.
func (p *Pins) Restore(pins []types.Pin) {
	p.pins = append([]types.Pin(nil), pins...)
}

func (p *Pins) index(id string) int {
	for i, pin := range p.pins {
		if pin.ID == id {
			return i
		}
	}
	return -1
}
