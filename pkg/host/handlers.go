package host

import (
	"github.com/entrhq/canvas/pkg/bridge"
	"github.com/entrhq/canvas/pkg/types"
)

// Bind routes outbound commands through b and subscribes to every surface
// notification. The returned function unsubscribes.
func (c *Controller) Bind(b *bridge.Bridge) func() {
	c.mu.Lock()
	c.sender = b
	c.mu.Unlock()

	var unsubs []func()
	on := func(msgType string, fn func(bridge.Envelope) error) {
		unsubs = append(unsubs, b.OnMessage(msgType, func(env bridge.Envelope) {
			if err := fn(env); err != nil {
				c.logger.Debugf("dropping %s: %v", msgType, err)
			}
		}))
	}

	on(bridge.MsgInspectorReady, func(bridge.Envelope) error {
		c.SurfaceReady()
		return nil
	})
	on(bridge.MsgEditCreated, func(env bridge.Envelope) error {
		var p bridge.EditCreatedPayload
		if err := env.Decode(&p); err != nil {
			return err
		}
		c.EditCreated(p.Edit)
		return nil
	})
	on(bridge.MsgEditRemoved, func(env bridge.Envelope) error {
		var p bridge.EditRemovedPayload
		if err := env.Decode(&p); err != nil {
			return err
		}
		c.EditRemoved(p.ID)
		return nil
	})
	on(bridge.MsgEditsCleared, func(bridge.Envelope) error {
		c.EditsCleared()
		return nil
	})
	on(bridge.MsgSelectionChanged, func(env bridge.Envelope) error {
		var p bridge.SelectionChangedPayload
		if err := env.Decode(&p); err != nil {
			return err
		}
		c.SelectionChanged(p.Selection)
		return nil
	})
	on(bridge.MsgAnnotationRequest, func(env bridge.Envelope) error {
		var p bridge.AnnotationRequestPayload
		if err := env.Decode(&p); err != nil {
			return err
		}
		c.AnnotationRequested(p)
		return nil
	})
	on(bridge.MsgContextAction, func(env bridge.Envelope) error {
		var p bridge.ContextActionPayload
		if err := env.Decode(&p); err != nil {
			return err
		}
		c.ContextAction(p)
		return nil
	})
	on(bridge.MsgDOMTree, func(env bridge.Envelope) error {
		var p bridge.DOMTreePayload
		if err := env.Decode(&p); err != nil {
			return err
		}
		c.TreeReceived(p.Tree)
		return nil
	})
	on(bridge.MsgPinClicked, func(env bridge.Envelope) error {
		var p bridge.PinClickedPayload
		if err := env.Decode(&p); err != nil {
			return err
		}
		c.PinClicked(p.PinID)
		return nil
	})
	on(bridge.MsgPinMoved, func(env bridge.Envelope) error {
		var p bridge.PinMovedPayload
		if err := env.Decode(&p); err != nil {
			return err
		}
		c.PinMoved(p)
		return nil
	})

	b.OnStateChange(func(s bridge.State) {
		if s == bridge.Disconnected {
			c.surfaceGone()
		}
	})

	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// SurfaceReady handles the inspector-ready handshake: a new surface knows
// nothing, so the whole durable state is replayed into it.
func (c *Controller) SurfaceReady() {
	c.mu.Lock()
	defer c.unlockAndFlush()
	c.connected = true
	c.selection = nil
	c.pending = nil
	c.syncSurfaceLocked()
	c.changed(ChangeConnection)
}

func (c *Controller) surfaceGone() {
	c.mu.Lock()
	defer c.unlockAndFlush()
	if !c.connected {
		return
	}
	c.connected = false
	c.selection = nil
	c.pending = nil
	c.changed(ChangeConnection)
}

// EditCreated records an edit the surface already applied.
func (c *Controller) EditCreated(e types.Edit) {
	if e.ID == "" || !e.Type.Valid() {
		c.logger.Debugf("edit-created: rejecting edit %q of type %q", e.ID, e.Type)
		return
	}
	c.mu.Lock()
	defer c.unlockAndFlush()
	if err := c.ledger.Add(e); err != nil {
		c.logger.Debugf("edit-created: %v", err)
		return
	}
	c.changed(ChangeLedger)
}

// EditRemoved records a removal the surface already rolled back.
func (c *Controller) EditRemoved(id string) {
	c.mu.Lock()
	defer c.unlockAndFlush()
	if err := c.ledger.Remove(id); err != nil {
		c.logger.Debugf("edit-removed: %v", err)
		return
	}
	c.changed(ChangeLedger)
}

// EditsCleared records a reset the surface already performed.
func (c *Controller) EditsCleared() {
	c.mu.Lock()
	defer c.unlockAndFlush()
	if c.ledger.Clear() {
		c.changed(ChangeLedger)
	}
}

// SelectionChanged caches the surface's selection snapshot.
func (c *Controller) SelectionChanged(s *types.SelectionSnapshot) {
	c.mu.Lock()
	defer c.unlockAndFlush()
	c.selection = s
	c.changed(ChangeSelection)
}

// AnnotationRequested parks a request until the operator supplies text.
// A newer request replaces an unanswered one.
func (c *Controller) AnnotationRequested(p bridge.AnnotationRequestPayload) {
	if !p.Type.Valid() {
		c.logger.Debugf("annotation-request: unknown kind %q", p.Type)
		return
	}
	c.mu.Lock()
	defer c.unlockAndFlush()
	c.pending = &PendingAnnotation{
		Type: p.Type, X: p.X, Y: p.Y, PageX: p.PageX, PageY: p.PageY,
		Nearest: p.NearestElement,
	}
	c.changed(ChangeAnnotation)
}

// ResolveAnnotation answers the pending request with note. Pins are
// created host-side; every other kind goes back to the surface, which
// creates the edit and reports it with edit-created.
func (c *Controller) ResolveAnnotation(note string) (types.Pin, bool) {
	c.mu.Lock()
	defer c.unlockAndFlush()
	p := c.pending
	if p == nil {
		return types.Pin{}, false
	}
	c.pending = nil
	c.changed(ChangeAnnotation)

	if p.Type == types.AnnotationPin {
		pin := c.pins.Add(types.Pin{
			X: p.X, Y: p.Y, PageX: p.PageX, PageY: p.PageY,
			Prompt:             note,
			NearestSelector:    p.Nearest.Selector,
			NearestElementDesc: p.Nearest.Desc,
		})
		c.emit(bridge.MsgSetPins, bridge.SetPinsPayload{Pins: c.pins.List()})
		c.changed(ChangePins)
		return pin, true
	}

	c.emit(bridge.MsgAddAnnotation, bridge.AddAnnotationPayload{X: p.X, Y: p.Y, Type: p.Type, Note: note})
	return types.Pin{}, true
}

// CancelAnnotation drops the pending request.
func (c *Controller) CancelAnnotation() {
	c.mu.Lock()
	defer c.unlockAndFlush()
	if c.pending != nil {
		c.pending = nil
		c.changed(ChangeAnnotation)
	}
}

// ContextAction forwards a context-menu action the host must carry out,
// such as copying a selector, to listeners.
func (c *Controller) ContextAction(p bridge.ContextActionPayload) {
	c.mu.Lock()
	defer c.unlockAndFlush()
	c.changes = append(c.changes, Change{Kind: ChangeContextAction, Action: &p})
}

// TreeReceived caches a dom-tree snapshot.
func (c *Controller) TreeReceived(t *types.TreeNode) {
	c.mu.Lock()
	defer c.unlockAndFlush()
	c.tree = t
	c.changed(ChangeTree)
}

// PinClicked focuses a pin.
func (c *Controller) PinClicked(id string) {
	c.mu.Lock()
	defer c.unlockAndFlush()
	if _, ok := c.pins.Get(id); !ok {
		c.logger.Debugf("pin-clicked: unknown pin %s", id)
		return
	}
	c.focusedPin = id
	c.changed(ChangePinFocus)
}

// PinMoved records a pin the surface already repositioned.
func (c *Controller) PinMoved(p bridge.PinMovedPayload) {
	c.mu.Lock()
	defer c.unlockAndFlush()
	if _, err := c.pins.Move(p.PinID, p.X, p.Y, p.PageX, p.PageY); err != nil {
		c.logger.Debugf("pin-moved: %v", err)
		return
	}
	c.changed(ChangePins)
}

// UpdatePin changes a pin's prompt. Position is never touched.
func (c *Controller) UpdatePin(id, prompt string) bool {
	c.mu.Lock()
	defer c.unlockAndFlush()
	if _, err := c.pins.Update(id, prompt); err != nil {
		c.logger.Debugf("update pin: %v", err)
		return false
	}
	c.emit(bridge.MsgSetPins, bridge.SetPinsPayload{Pins: c.pins.List()})
	c.changed(ChangePins)
	return true
}

// RemovePin deletes a pin.
func (c *Controller) RemovePin(id string) bool {
	c.mu.Lock()
	defer c.unlockAndFlush()
	if err := c.pins.Remove(id); err != nil {
		c.logger.Debugf("remove pin: %v", err)
		return false
	}
	if c.focusedPin == id {
		c.focusedPin = ""
	}
	c.emit(bridge.MsgSetPins, bridge.SetPinsPayload{Pins: c.pins.List()})
	c.changed(ChangePins)
	return true
}

// ClearPins deletes every pin.
func (c *Controller) ClearPins() {
	c.mu.Lock()
	defer c.unlockAndFlush()
	if c.pins.Len() == 0 {
		return
	}
	c.pins.Clear()
	c.focusedPin = ""
	c.emit(bridge.MsgSetPins, bridge.SetPinsPayload{Pins: []types.Pin{}})
	c.changed(ChangePins)
}

// SetReference shows a reference image over the preview. An empty data URL
// removes it.
func (c *Controller) SetReference(dataURL string, opacity float64) {
	c.mu.Lock()
	defer c.unlockAndFlush()
	if dataURL == "" {
		if c.ref == nil {
			return
		}
		c.ref = nil
	} else {
		if opacity <= 0 || opacity > 1 {
			opacity = types.DefaultReferenceOpacity
		}
		c.ref = &types.ReferenceImage{DataURL: dataURL, Opacity: opacity}
	}
	c.emit(bridge.MsgSetReferenceImage, bridge.SetReferenceImagePayload{DataURL: dataURL, Opacity: opacity})
	c.changed(ChangeReference)
}

// send queues a fire-and-forget command.
func (c *Controller) send(msgType string, payload any) {
	c.mu.Lock()
	defer c.unlockAndFlush()
	c.emit(msgType, payload)
}

// InjectStyle sets a CSS property on selector, or on the selection when
// selector is empty. The surface reports the resulting edit.
func (c *Controller) InjectStyle(selector, property, value string) {
	c.send(bridge.MsgInjectStyle, bridge.InjectStylePayload{Selector: selector, Property: property, Value: value})
}

// UpdateLayout changes layout properties of selector.
func (c *Controller) UpdateLayout(selector string, layout bridge.LayoutProps) {
	c.send(bridge.MsgUpdateLayout, bridge.UpdateLayoutPayload{Selector: selector, Layout: layout})
}

// UpdateProps sets attributes, or text via the "text" key, on selector.
func (c *Controller) UpdateProps(selector string, attrs map[string]string) {
	c.send(bridge.MsgUpdateProps, bridge.UpdatePropsPayload{Selector: selector, Attributes: attrs})
}

// RequestSnapshot asks the surface for its document tree.
func (c *Controller) RequestSnapshot() {
	c.send(bridge.MsgRequestSnapshot, bridge.RequestSnapshotPayload{})
}

// SetEditing turns the surface editor on or off.
func (c *Controller) SetEditing(enabled bool) {
	c.send(bridge.MsgSelectElement, bridge.SelectElementPayload{Enabled: enabled})
}

// SelectElement asks the surface to select selector.
func (c *Controller) SelectElement(selector string) {
	c.send(bridge.MsgSelectElement, bridge.SelectElementPayload{Enabled: true, Selector: selector})
}

// SetLanguage changes the surface's label language.
func (c *Controller) SetLanguage(lang string) {
	c.send(bridge.MsgSetLanguage, bridge.SetLanguagePayload{Lang: lang})
}
