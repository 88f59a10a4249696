package surface

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/net/html"

	"github.com/entrhq/canvas/pkg/dom"
	"github.com/entrhq/canvas/pkg/logging"
	"github.com/entrhq/canvas/pkg/types"
)

// Snapshot keys used by the edit runtime.
const (
	keyTranslateX   = types.KeyTranslateX
	keyTranslateY   = types.KeyTranslateY
	keyDeltaX       = types.KeyDeltaX
	keyDeltaY       = types.KeyDeltaY
	keyWidth        = types.KeyWidth
	keyHeight       = types.KeyHeight
	keyInlineWidth  = types.KeyInlineWidth
	keyInlineHeight = types.KeyInlineHeight
	keyProperty     = types.KeyProperty
	keyAttribute    = types.KeyAttribute
	keyValue        = types.KeyValue
	keyInline       = types.KeyInline
	keyPresent      = types.KeyPresent
	keyTarget       = types.KeyTarget
	keyText         = types.KeyText
	keyNote         = types.KeyNote
)

// ColorTarget names which color a recolor edit changes.
type ColorTarget string

const (
	ColorText       ColorTarget = "text"
	ColorBackground ColorTarget = "background"
	ColorBorder     ColorTarget = "border"
)

// colorTargets maps CSS properties to recolor targets.
var colorTargets = map[string]ColorTarget{
	"color":            ColorText,
	"background-color": ColorBackground,
	"background":       ColorBackground,
	"border-color":     ColorBorder,
}

// ClassifyStyle returns the edit type a style property produces.
func ClassifyStyle(property string) types.EditType {
	property = strings.ToLower(strings.TrimSpace(property))
	if _, ok := colorTargets[property]; ok {
		return types.EditTypeRecolor
	}
	if strings.HasPrefix(property, "font-") || property == "font" || property == "line-height" || property == "letter-spacing" {
		return types.EditTypeRefont
	}
	return types.EditTypeEffect
}

// applied is an edit live in the document together with the node it
// touched and the marker it owns, if any.
type applied struct {
	edit   types.Edit
	node   *html.Node
	marker *html.Node
}

// Runtime holds the one table of paired apply and revert operations per
// edit type. Every DOM change an edit makes goes through it.
type Runtime struct {
	doc     *dom.Document
	overlay *overlay
	live    map[string]*applied
	order   []string
	logger  logging.Sink
}

func newRuntime(doc *dom.Document, ov *overlay, logger logging.Sink) *Runtime {
	return &Runtime{
		doc:     doc,
		overlay: ov,
		live:    make(map[string]*applied),
		logger:  logging.OrNop(logger),
	}
}

// Live reports whether the edit is currently applied.
func (r *Runtime) Live(id string) bool {
	_, ok := r.live[id]
	return ok
}

// LiveIDs returns applied edit ids in application order.
func (r *Runtime) LiveIDs() []string {
	return append([]string(nil), r.order...)
}

// resolve finds the element an edit targets: the remembered node while it
// is still attached, otherwise the first selector match.
func (r *Runtime) resolve(e types.Edit, remembered *html.Node) *html.Node {
	if remembered != nil && attached(remembered) {
		return remembered
	}
	if e.TargetsViewport() {
		return nil
	}
	return r.doc.QueryFirst(e.Selector)
}

func attached(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.DocumentNode {
			return true
		}
	}
	return false
}

// Apply performs e's "to" state against the live document. The "from"
// state is re-derived from the document at apply time; whatever the edit
// carried is ignored. It returns the edit as applied and false when the
// target cannot be found or the edit is already live.
func (r *Runtime) Apply(e types.Edit) (types.Edit, bool) {
	if r.Live(e.ID) {
		return e, false
	}
	e = e.Clone()

	if e.Type.IsAnnotation() {
		marker := r.overlay.addMarker(e)
		r.track(&applied{edit: e, marker: marker})
		return e, true
	}

	node := r.resolve(e, nil)
	if node == nil {
		r.logger.Debugf("apply %s %s: no element matches %q", e.ID, e.Type, e.Selector)
		return e, false
	}
	return r.applyTo(e, node)
}

// applyTo is Apply against an already resolved element.
func (r *Runtime) applyTo(e types.Edit, node *html.Node) (types.Edit, bool) {
	switch e.Type {
	case types.EditTypeMove:
		tx, ty := dom.Translate(node)
		e.From = types.Snapshot{keyTranslateX: tx, keyTranslateY: ty}
		r.doc.SetTranslate(node, tx+e.To.Float(keyDeltaX), ty+e.To.Float(keyDeltaY))

	case types.EditTypeResize:
		e.From = r.sizeSnapshot(node)
		r.doc.SetStyle(node, "width", dom.Px(e.To.Float(keyWidth)))
		r.doc.SetStyle(node, "height", dom.Px(e.To.Float(keyHeight)))

	case types.EditTypeRecolor, types.EditTypeRefont, types.EditTypeEffect:
		if attr := e.To.String(keyAttribute); attr != "" {
			prior, present := dom.Attr(node, attr)
			e.From = types.Snapshot{keyAttribute: attr, keyValue: prior, keyPresent: present}
			r.doc.SetAttr(node, attr, e.To.String(keyValue))
			break
		}
		prop := e.To.String(keyProperty)
		e.From = r.styleSnapshot(node, prop)
		r.doc.SetStyle(node, prop, e.To.String(keyValue))

	case types.EditTypeRetext:
		e.From = types.Snapshot{keyText: dom.Text(node)}
		r.doc.SetText(node, e.To.String(keyText))

	default:
		r.logger.Warnf("apply %s: unknown edit type %q", e.ID, e.Type)
		return e, false
	}

	e.Coords = r.coords(node)
	r.track(&applied{edit: e, node: node})
	return e, true
}

// Record registers an edit whose change a gesture has already made live.
func (r *Runtime) Record(e types.Edit, node *html.Node) {
	r.track(&applied{edit: e.Clone(), node: node})
}

func (r *Runtime) track(a *applied) {
	r.live[a.edit.ID] = a
	r.order = append(r.order, a.edit.ID)
}

// Revert rolls an applied edit back to its "from" state. Reverting an edit
// that is not live, including one already reverted, is a no-op that
// returns false.
func (r *Runtime) Revert(id string) bool {
	a, ok := r.live[id]
	if !ok {
		return false
	}
	delete(r.live, id)
	for i, liveID := range r.order {
		if liveID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	e := a.edit
	if e.Type.IsAnnotation() {
		r.overlay.removeMarker(a.marker)
		return true
	}

	node := r.resolve(e, a.node)
	if node == nil {
		r.logger.Debugf("revert %s: no element matches %q", e.ID, e.Selector)
		return true
	}

	switch e.Type {
	case types.EditTypeMove:
		r.doc.SetTranslate(node, e.From.Float(keyTranslateX), e.From.Float(keyTranslateY))

	case types.EditTypeResize:
		r.doc.SetStyle(node, "width", e.From.String(keyInlineWidth))
		r.doc.SetStyle(node, "height", e.From.String(keyInlineHeight))

	case types.EditTypeRecolor, types.EditTypeRefont, types.EditTypeEffect:
		if attr := e.From.String(keyAttribute); attr != "" {
			if present, _ := e.From[keyPresent].(bool); present {
				r.doc.SetAttr(node, attr, e.From.String(keyValue))
			} else {
				r.doc.RemoveAttr(node, attr)
			}
			break
		}
		r.doc.SetStyle(node, e.From.String(keyProperty), e.From.String(keyInline))

	case types.EditTypeRetext:
		r.doc.SetText(node, e.From.String(keyText))
	}
	return true
}

// RevertAll rolls back every live edit, newest first, and returns the ids
// reverted.
func (r *Runtime) RevertAll() []string {
	ids := r.LiveIDs()
	for i := len(ids) - 1; i >= 0; i-- {
		r.Revert(ids[i])
	}
	return ids
}

func (r *Runtime) sizeSnapshot(n *html.Node) types.Snapshot {
	rect := r.doc.Rect(n)
	return types.Snapshot{
		keyWidth:        rect.W,
		keyHeight:       rect.H,
		keyInlineWidth:  dom.Style(n, "width"),
		keyInlineHeight: dom.Style(n, "height"),
	}
}

func (r *Runtime) styleSnapshot(n *html.Node, prop string) types.Snapshot {
	return types.Snapshot{
		keyProperty: prop,
		keyValue:    r.doc.Computed(n, prop),
		keyInline:   dom.Style(n, prop),
	}
}

func (r *Runtime) coords(n *html.Node) types.Coords {
	rect := r.doc.Rect(n)
	return types.Coords{X: rect.X, Y: rect.Y, W: rect.W, H: rect.H}
}

// describe renders the one-line summary stored in Edit.Desc.
func describe(e types.Edit) string {
	switch e.Type {
	case types.EditTypeMove:
		return fmt.Sprintf("Move %s by (%s, %s)", e.Selector,
			types.FormatNumber(e.To.Float(keyDeltaX)), types.FormatNumber(e.To.Float(keyDeltaY)))
	case types.EditTypeResize:
		return fmt.Sprintf("Resize %s from %sx%s to %sx%s", e.Selector,
			roundPx(e.From.Float(keyWidth)), roundPx(e.From.Float(keyHeight)),
			roundPx(e.To.Float(keyWidth)), roundPx(e.To.Float(keyHeight)))
	case types.EditTypeRecolor, types.EditTypeRefont, types.EditTypeEffect:
		if attr := e.To.String(keyAttribute); attr != "" {
			return fmt.Sprintf("Set %s[%s] to %q", e.Selector, attr, e.To.String(keyValue))
		}
		return fmt.Sprintf("Set %s of %s to %s", e.To.String(keyProperty), e.Selector, e.To.String(keyValue))
	case types.EditTypeRetext:
		return fmt.Sprintf("Change text of %s to %q", e.Selector, e.To.String(keyText))
	case types.EditTypeAddHere:
		return fmt.Sprintf("Add content near %s: %s", e.Selector, e.To.String(keyNote))
	case types.EditTypeMarkError:
		return fmt.Sprintf("Defect at %s: %s", e.Selector, e.To.String(keyNote))
	case types.EditTypeAnnotate:
		return fmt.Sprintf("Note on %s: %s", e.Selector, e.To.String(keyNote))
	}
	return string(e.Type)
}

func roundPx(f float64) string {
	return types.FormatNumber(math.Round(f*100) / 100)
}
