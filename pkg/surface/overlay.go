package surface

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/entrhq/canvas/pkg/dom"
	"github.com/entrhq/canvas/pkg/types"
)

// Agent roles, written as the value of dom.AgentAttr.
const (
	roleRoot      = "root"
	roleHover     = "hover"
	roleSelection = "selection"
	roleHandle    = "handle"
	roleTooltip   = "tooltip"
	roleMarker    = "marker"
	rolePin       = "pin"
	roleMenu      = "menu"
	roleMenuItem  = "menu-item"
	roleReference = "reference"
)

const (
	handleSize = 8.0
	markerSize = 16.0
	pinSize    = 20.0
	menuWidth  = 160.0
	menuItemH  = 24.0
)

// Handle names a resize grip by compass direction.
type Handle string

const (
	HandleN  Handle = "n"
	HandleNE Handle = "ne"
	HandleE  Handle = "e"
	HandleSE Handle = "se"
	HandleS  Handle = "s"
	HandleSW Handle = "sw"
	HandleW  Handle = "w"
	HandleNW Handle = "nw"
)

var allHandles = []Handle{HandleN, HandleNE, HandleE, HandleSE, HandleS, HandleSW, HandleW, HandleNW}

// overlay owns every agent-created node. All of them live under a single
// root element appended to <body>.
type overlay struct {
	doc       *dom.Document
	root      *html.Node
	hover     *html.Node
	selection *html.Node
	tooltip   *html.Node
	menu      *html.Node
	reference *html.Node
	handles   map[Handle]dom.Rect
	handleEls map[Handle]*html.Node
	pins      map[string]*html.Node
	pinRects  map[string]dom.Rect
	menuItems []menuEntry
}

type menuEntry struct {
	action MenuAction
	rect   dom.Rect
}

func newOverlay(doc *dom.Document) *overlay {
	return &overlay{
		doc:       doc,
		handles:   make(map[Handle]dom.Rect),
		handleEls: make(map[Handle]*html.Node),
		pins:      make(map[string]*html.Node),
		pinRects:  make(map[string]dom.Rect),
	}
}

func (o *overlay) ensureRoot() *html.Node {
	if o.root != nil && o.root.Parent != nil {
		return o.root
	}
	parent := o.doc.Body()
	if parent == nil {
		parent = o.doc.Root()
	}
	o.root = dom.CreateAgentElement("div", roleRoot, html.Attribute{
		Key: "style", Val: "position: absolute; left: 0; top: 0; z-index: 2147483647; pointer-events: none",
	})
	o.doc.Append(parent, o.root)
	return o.root
}

// box creates or repositions an absolutely positioned agent element at a
// page-absolute rect.
func (o *overlay) box(existing *html.Node, role string, r dom.Rect, extra string) *html.Node {
	n := existing
	if n == nil || n.Parent == nil {
		n = dom.CreateAgentElement("div", role)
		o.doc.Append(o.ensureRoot(), n)
	}
	style := fmt.Sprintf("position: absolute; left: %s; top: %s; width: %s; height: %s",
		dom.Px(r.X), dom.Px(r.Y), dom.Px(r.W), dom.Px(r.H))
	if extra != "" {
		style += "; " + extra
	}
	o.doc.SetAttr(n, "style", style)
	o.doc.SetRect(n, r)
	return n
}

func (o *overlay) drop(n *html.Node) {
	if n != nil {
		o.doc.Remove(n)
	}
}

func (o *overlay) showHover(r dom.Rect, label string) {
	o.hover = o.box(o.hover, roleHover, r, "outline: 1px dashed #4f8cff")
	tip := dom.Rect{X: r.X, Y: r.Y - 20, W: 0, H: 18}
	if tip.Y < 0 {
		tip.Y = r.Y + r.H + 2
	}
	o.tooltip = o.box(o.tooltip, roleTooltip, tip, "background: #1f2937; color: #fff; font: 11px monospace; white-space: nowrap")
	o.doc.SetText(o.tooltip, label)
}

func (o *overlay) hideHover() {
	o.drop(o.hover)
	o.drop(o.tooltip)
	o.hover, o.tooltip = nil, nil
}

func (o *overlay) showSelection(r dom.Rect) {
	o.selection = o.box(o.selection, roleSelection, r, "outline: 2px solid #4f8cff")
	for _, h := range allHandles {
		hr := handleRect(r, h)
		o.handles[h] = hr
		o.handleEls[h] = o.box(o.handleEls[h], roleHandle, hr, "background: #4f8cff; pointer-events: auto")
		o.doc.SetAttr(o.handleEls[h], "data-handle", string(h))
	}
}

func (o *overlay) hideSelection() {
	o.drop(o.selection)
	o.selection = nil
	for h, n := range o.handleEls {
		o.drop(n)
		delete(o.handleEls, h)
		delete(o.handles, h)
	}
}

// handleAt returns the resize handle under a page-absolute point.
func (o *overlay) handleAt(x, y float64) (Handle, bool) {
	for _, h := range allHandles {
		if r, ok := o.handles[h]; ok && r.Contains(x, y) {
			return h, true
		}
	}
	return "", false
}

func handleRect(r dom.Rect, h Handle) dom.Rect {
	cx := r.X + r.W/2
	cy := r.Y + r.H/2
	x, y := cx, cy
	if strings.Contains(string(h), "w") {
		x = r.X
	}
	if strings.Contains(string(h), "e") {
		x = r.X + r.W
	}
	if strings.Contains(string(h), "n") {
		y = r.Y
	}
	if strings.Contains(string(h), "s") {
		y = r.Y + r.H
	}
	return dom.Rect{X: x - handleSize/2, Y: y - handleSize/2, W: handleSize, H: handleSize}
}

// resized returns the size after dragging handle h by (dx, dy) from start.
func resized(start dom.Rect, h Handle, dx, dy float64) (w, hgt float64) {
	w, hgt = start.W, start.H
	if strings.Contains(string(h), "e") {
		w += dx
	}
	if strings.Contains(string(h), "w") {
		w -= dx
	}
	if strings.Contains(string(h), "s") {
		hgt += dy
	}
	if strings.Contains(string(h), "n") {
		hgt -= dy
	}
	if w < 1 {
		w = 1
	}
	if hgt < 1 {
		hgt = 1
	}
	return w, hgt
}

func (o *overlay) addMarker(e types.Edit) *html.Node {
	r := dom.Rect{X: e.Coords.X - markerSize/2, Y: e.Coords.Y - markerSize/2, W: markerSize, H: markerSize}
	color := "#f59e0b"
	switch e.Type {
	case types.EditTypeMarkError:
		color = "#ef4444"
	case types.EditTypeAddHere:
		color = "#22c55e"
	}
	n := o.box(nil, roleMarker, r, "border-radius: 50%; background: "+color)
	o.doc.SetAttr(n, "data-canvas-edit", e.ID)
	o.doc.SetAttr(n, "title", e.To.String(keyNote))
	return n
}

func (o *overlay) removeMarker(n *html.Node) {
	o.drop(n)
}

// markers returns the ids of edits that currently own a marker node.
func (o *overlay) markers() []string {
	var ids []string
	if o.root == nil {
		return nil
	}
	for c := o.root.FirstChild; c != nil; c = c.NextSibling {
		if role, _ := dom.Attr(c, dom.AgentAttr); role == roleMarker {
			id, _ := dom.Attr(c, "data-canvas-edit")
			ids = append(ids, id)
		}
	}
	return ids
}

func (o *overlay) setPins(pins []types.Pin) {
	keep := make(map[string]bool, len(pins))
	for _, p := range pins {
		keep[p.ID] = true
		r := dom.Rect{X: p.PageX - pinSize/2, Y: p.PageY - pinSize/2, W: pinSize, H: pinSize}
		n := o.box(o.pins[p.ID], rolePin, r, "border-radius: 50% 50% 50% 0; background: #8b5cf6; pointer-events: auto")
		o.doc.SetAttr(n, "data-canvas-pin", p.ID)
		o.doc.SetAttr(n, "title", p.Prompt)
		o.pins[p.ID] = n
		o.pinRects[p.ID] = r
	}
	for id, n := range o.pins {
		if !keep[id] {
			o.drop(n)
			delete(o.pins, id)
			delete(o.pinRects, id)
		}
	}
}

func (o *overlay) placePin(id string, pageX, pageY float64) {
	n, ok := o.pins[id]
	if !ok {
		return
	}
	r := dom.Rect{X: pageX - pinSize/2, Y: pageY - pinSize/2, W: pinSize, H: pinSize}
	o.box(n, rolePin, r, "border-radius: 50% 50% 50% 0; background: #8b5cf6; pointer-events: auto")
	o.pinRects[id] = r
}

// pinAt returns the pin under a page-absolute point, preferring the one
// drawn last.
func (o *overlay) pinAt(x, y float64) (string, bool) {
	if o.root == nil {
		return "", false
	}
	for c := o.root.LastChild; c != nil; c = c.PrevSibling {
		id, ok := dom.Attr(c, "data-canvas-pin")
		if !ok {
			continue
		}
		if r, ok := o.pinRects[id]; ok && r.Contains(x, y) {
			return id, true
		}
	}
	return "", false
}

func (o *overlay) pinCenter(id string) (float64, float64) {
	r := o.pinRects[id]
	return r.X + r.W/2, r.Y + r.H/2
}

func (o *overlay) showMenu(x, y float64, items []MenuAction, label func(MenuAction) string) {
	o.hideMenu()
	r := dom.Rect{X: x, Y: y, W: menuWidth, H: menuItemH * float64(len(items))}
	o.menu = o.box(nil, roleMenu, r, "background: #fff; border: 1px solid #d1d5db; pointer-events: auto")
	for i, action := range items {
		ir := dom.Rect{X: x, Y: y + menuItemH*float64(i), W: menuWidth, H: menuItemH}
		item := dom.CreateAgentElement("div", roleMenuItem,
			html.Attribute{Key: "data-action", Val: string(action)})
		o.doc.Append(o.menu, item)
		o.doc.SetRect(item, ir)
		o.doc.SetText(item, label(action))
		o.menuItems = append(o.menuItems, menuEntry{action: action, rect: ir})
	}
}

func (o *overlay) hideMenu() {
	o.drop(o.menu)
	o.menu = nil
	o.menuItems = nil
}

func (o *overlay) menuItemAt(x, y float64) (MenuAction, bool) {
	for _, it := range o.menuItems {
		if it.rect.Contains(x, y) {
			return it.action, true
		}
	}
	return "", false
}

func (o *overlay) setReference(img types.ReferenceImage, w, h float64) {
	if img.DataURL == "" {
		o.drop(o.reference)
		o.reference = nil
		return
	}
	opacity := img.Opacity
	if opacity <= 0 || opacity > 1 {
		opacity = types.DefaultReferenceOpacity
	}
	if o.reference == nil || o.reference.Parent == nil {
		o.reference = dom.CreateAgentElement("img", roleReference)
		o.doc.Append(o.ensureRoot(), o.reference)
	}
	o.doc.SetAttr(o.reference, "src", img.DataURL)
	o.doc.SetAttr(o.reference, "style", fmt.Sprintf(
		"position: absolute; left: 0; top: 0; width: %s; height: %s; opacity: %s; pointer-events: none",
		dom.Px(w), dom.Px(h), types.FormatNumber(opacity)))
}
