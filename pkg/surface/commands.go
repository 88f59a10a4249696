package surface

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/entrhq/canvas/pkg/bridge"
	"github.com/entrhq/canvas/pkg/dom"
	"github.com/entrhq/canvas/pkg/types"
)

// Version is reported in the inspector-ready handshake.
const Version = "1"

// Bind subscribes the agent to every host command on b, routes outbound
// messages through it and announces readiness. The returned function
// unsubscribes.
func (a *Agent) Bind(b *bridge.Bridge) func() {
	a.mu.Lock()
	a.sender = b
	a.mu.Unlock()

	var unsubs []func()
	on := func(msgType string, fn func(bridge.Envelope) error) {
		unsubs = append(unsubs, b.OnMessage(msgType, func(env bridge.Envelope) {
			if err := fn(env); err != nil {
				a.logger.Debugf("dropping %s: %v", msgType, err)
			}
		}))
	}

	on(bridge.MsgInjectStyle, func(env bridge.Envelope) error {
		var p bridge.InjectStylePayload
		if err := env.Decode(&p); err != nil {
			return err
		}
		a.InjectStyle(p)
		return nil
	})
	on(bridge.MsgUpdateLayout, func(env bridge.Envelope) error {
		var p bridge.UpdateLayoutPayload
		if err := env.Decode(&p); err != nil {
			return err
		}
		a.UpdateLayout(p)
		return nil
	})
	on(bridge.MsgUpdateProps, func(env bridge.Envelope) error {
		var p bridge.UpdatePropsPayload
		if err := env.Decode(&p); err != nil {
			return err
		}
		a.UpdateProps(p)
		return nil
	})
	on(bridge.MsgRequestSnapshot, func(bridge.Envelope) error {
		a.RequestSnapshot()
		return nil
	})
	on(bridge.MsgSelectElement, func(env bridge.Envelope) error {
		var p bridge.SelectElementPayload
		if err := env.Decode(&p); err != nil {
			return err
		}
		a.SelectElement(p)
		return nil
	})
	on(bridge.MsgRemoveEdit, func(env bridge.Envelope) error {
		var p bridge.RemoveEditPayload
		if err := env.Decode(&p); err != nil {
			return err
		}
		a.RemoveEdit(p.ID)
		return nil
	})
	on(bridge.MsgClearEdits, func(bridge.Envelope) error {
		a.ClearEdits()
		return nil
	})
	on(bridge.MsgAddAnnotation, func(env bridge.Envelope) error {
		var p bridge.AddAnnotationPayload
		if err := env.Decode(&p); err != nil {
			return err
		}
		a.AddAnnotation(p)
		return nil
	})
	on(bridge.MsgSetReferenceImage, func(env bridge.Envelope) error {
		var p bridge.SetReferenceImagePayload
		if err := env.Decode(&p); err != nil {
			return err
		}
		a.SetReferenceImage(types.ReferenceImage{DataURL: p.DataURL, Opacity: p.Opacity})
		return nil
	})
	on(bridge.MsgSetLanguage, func(env bridge.Envelope) error {
		var p bridge.SetLanguagePayload
		if err := env.Decode(&p); err != nil {
			return err
		}
		a.SetLanguage(p.Lang)
		return nil
	})
	on(bridge.MsgApplyEdit, func(env bridge.Envelope) error {
		var p bridge.ApplyEditPayload
		if err := env.Decode(&p); err != nil {
			return err
		}
		a.ApplyEdit(p.Edit)
		return nil
	})
	on(bridge.MsgSetPins, func(env bridge.Envelope) error {
		var p bridge.SetPinsPayload
		if err := env.Decode(&p); err != nil {
			return err
		}
		a.SetPins(p.Pins)
		return nil
	})

	if err := b.Send(bridge.MsgInspectorReady, bridge.InspectorReadyPayload{Version: Version}); err != nil {
		a.logger.Debugf("send %s: %v", bridge.MsgInspectorReady, err)
	}

	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// target resolves a command's selector, falling back to the selection.
func (a *Agent) target(selector string) *html.Node {
	if selector == "" {
		return a.selected
	}
	return a.doc.QueryFirst(selector)
}

// applyNew applies a host-requested change to n as a fresh edit and reports
// it. Nothing is emitted when the element is missing.
func (a *Agent) applyNew(t types.EditType, n *html.Node, to types.Snapshot) {
	e := types.Edit{
		ID:       a.ids(),
		Type:     t,
		Selector: a.selectors.Build(a.doc, n),
		To:       to,
	}
	applied, ok := a.runtime.applyTo(e, n)
	if !ok {
		return
	}
	applied.Desc = describe(applied)
	a.emit(bridge.MsgEditCreated, bridge.EditCreatedPayload{Edit: applied})
	if n == a.selected {
		a.overlay.showSelection(a.doc.Rect(n))
	}
}

// InjectStyle sets a CSS property on the target, producing a recolor,
// refont or effect edit depending on the property.
func (a *Agent) InjectStyle(p bridge.InjectStylePayload) {
	a.mu.Lock()
	defer a.unlockAndFlush()

	n := a.target(p.Selector)
	prop := strings.ToLower(strings.TrimSpace(p.Property))
	if n == nil || prop == "" {
		a.logger.Debugf("inject-style %q: no target", p.Selector)
		return
	}
	if dom.Style(n, prop) == strings.TrimSpace(p.Value) {
		return
	}

	t := ClassifyStyle(prop)
	to := types.Snapshot{keyProperty: prop, keyValue: strings.TrimSpace(p.Value)}
	if t == types.EditTypeRecolor {
		to[keyTarget] = string(colorTargets[prop])
	}
	a.applyNew(t, n, to)
}

// UpdateLayout applies width/height as one resize edit and every other
// layout property as an effect edit.
func (a *Agent) UpdateLayout(p bridge.UpdateLayoutPayload) {
	a.mu.Lock()
	defer a.unlockAndFlush()

	n := a.target(p.Selector)
	if n == nil {
		a.logger.Debugf("update-layout %q: no target", p.Selector)
		return
	}

	rect := a.doc.Rect(n)
	w, wOK := parsePx(p.Layout.Width)
	h, hOK := parsePx(p.Layout.Height)
	if wOK || hOK {
		if !wOK {
			w = rect.W
		}
		if !hOK {
			h = rect.H
		}
		if w != rect.W || h != rect.H {
			a.applyNew(types.EditTypeResize, n, types.Snapshot{keyWidth: w, keyHeight: h})
		}
	}

	effects := []struct{ prop, value string }{
		{"position", p.Layout.Position},
		{"top", p.Layout.Top},
		{"left", p.Layout.Left},
	}
	if p.Layout.Width != "" && !wOK {
		effects = append(effects, struct{ prop, value string }{"width", p.Layout.Width})
	}
	if p.Layout.Height != "" && !hOK {
		effects = append(effects, struct{ prop, value string }{"height", p.Layout.Height})
	}
	for _, fx := range effects {
		if fx.value == "" || dom.Style(n, fx.prop) == fx.value {
			continue
		}
		a.applyNew(types.EditTypeEffect, n, types.Snapshot{keyProperty: fx.prop, keyValue: fx.value})
	}
}

// UpdateProps sets attributes on the target; the "text" key replaces the
// element's text content.
func (a *Agent) UpdateProps(p bridge.UpdatePropsPayload) {
	a.mu.Lock()
	defer a.unlockAndFlush()

	n := a.target(p.Selector)
	if n == nil {
		a.logger.Debugf("update-props %q: no target", p.Selector)
		return
	}

	keys := make([]string, 0, len(p.Attributes))
	for k := range p.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := p.Attributes[k]
		if k == keyText {
			if dom.Text(n) != v {
				a.applyNew(types.EditTypeRetext, n, types.Snapshot{keyText: v})
			}
			continue
		}
		if cur, ok := dom.Attr(n, k); ok && cur == v {
			continue
		}
		a.applyNew(types.EditTypeEffect, n, types.Snapshot{keyAttribute: k, keyValue: v})
	}
}

// RequestSnapshot reports the current document tree.
func (a *Agent) RequestSnapshot() {
	a.mu.Lock()
	defer a.unlockAndFlush()
	tree := a.tree()
	a.emit(bridge.MsgDOMTree, bridge.DOMTreePayload{Tree: tree})
}

// SelectElement enables or disables the editor; when enabled with a
// selector it also selects that element.
func (a *Agent) SelectElement(p bridge.SelectElementPayload) {
	a.mu.Lock()
	defer a.unlockAndFlush()

	if !p.Enabled {
		if a.state == StateTextEditing {
			a.commitTextLocked()
		}
		if a.state == StateDragging || a.state == StateResizing {
			a.abortGestureLocked()
		}
		a.overlay.hideMenu()
		a.overlay.hideHover()
		a.hovered = nil
		if a.selected != nil {
			a.selectLocked(nil)
		}
		a.state = StateIdle
		a.enabled = false
		return
	}

	a.enabled = true
	if p.Selector == "" {
		return
	}
	n := a.doc.QueryFirst(p.Selector)
	if n == nil {
		a.logger.Debugf("select-element %q: no match", p.Selector)
		return
	}
	if a.state == StateContextMenuOpen {
		a.closeMenu()
	}
	a.selectLocked(n)
}

// RemoveEdit reverts one edit. Unknown ids are ignored.
func (a *Agent) RemoveEdit(id string) {
	a.mu.Lock()
	defer a.unlockAndFlush()
	if !a.runtime.Revert(id) {
		a.logger.Debugf("remove-edit %s: not live", id)
	}
	a.refreshSelection()
}

// ClearEdits reverts every live edit.
func (a *Agent) ClearEdits() {
	a.mu.Lock()
	defer a.unlockAndFlush()
	a.runtime.RevertAll()
	a.refreshSelection()
}

// ApplyEdit re-applies an edit the host re-introduced, e.g. on redo. An
// edit that is already live is left alone.
func (a *Agent) ApplyEdit(e types.Edit) {
	a.mu.Lock()
	defer a.unlockAndFlush()
	if _, ok := a.runtime.Apply(e); !ok {
		a.logger.Debugf("apply-edit %s: not applied", e.ID)
	}
	a.refreshSelection()
}

// DeleteEdit removes the newest live edit on the selected element on the
// operator's behalf and reports the removal.
func (a *Agent) DeleteEdit() {
	a.mu.Lock()
	defer a.unlockAndFlush()
	a.deleteSelectedEditLocked()
}

func (a *Agent) deleteSelectedEditLocked() {
	if a.selected == nil {
		return
	}
	ids := a.runtime.LiveIDs()
	for i := len(ids) - 1; i >= 0; i-- {
		live := a.runtime.live[ids[i]]
		if live.node != a.selected {
			continue
		}
		a.runtime.Revert(ids[i])
		a.emit(bridge.MsgEditRemoved, bridge.EditRemovedPayload{ID: ids[i]})
		a.refreshSelection()
		return
	}
}

// ResetEdits reverts every live edit on the operator's behalf and reports
// the reset.
func (a *Agent) ResetEdits() {
	a.mu.Lock()
	defer a.unlockAndFlush()
	a.runtime.RevertAll()
	a.refreshSelection()
	a.emit(bridge.MsgEditsCleared, bridge.EditsClearedPayload{})
}

// SetPins replaces the rendered pin markers.
func (a *Agent) SetPins(pins []types.Pin) {
	a.mu.Lock()
	defer a.unlockAndFlush()
	a.pins = make(map[string]types.Pin, len(pins))
	for _, p := range pins {
		a.pins[p.ID] = p
	}
	a.overlay.setPins(pins)
}

// SetReferenceImage shows, replaces or, with an empty data URL, removes the
// reference overlay.
func (a *Agent) SetReferenceImage(img types.ReferenceImage) {
	a.mu.Lock()
	defer a.unlockAndFlush()
	var w, h float64
	if body := a.doc.Body(); body != nil {
		r := a.doc.Rect(body)
		w, h = r.W, r.H
	}
	a.overlay.setReference(img, w, h)
}

// SetLanguage switches the language of agent-owned labels.
func (a *Agent) SetLanguage(lang string) {
	a.mu.Lock()
	defer a.unlockAndFlush()
	a.lang = MatchLanguage(lang)
}

// Language returns the active label language.
func (a *Agent) Language() string {
	a.mu.Lock()
	defer a.unlockAndFlush()
	return a.lang
}

// refreshSelection redraws the selection box after an edit moved or resized
// the selected element.
func (a *Agent) refreshSelection() {
	if a.selected == nil {
		return
	}
	if !attached(a.selected) {
		a.selectLocked(nil)
		return
	}
	a.overlay.showSelection(a.doc.Rect(a.selected))
}

// parsePx accepts "120px" or a bare number.
func parsePx(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "px"))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
