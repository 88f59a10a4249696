// Package surface is the in-surface editor agent. It owns every gesture on
// the preview page, applies and reverts edits against the live document,
// and reports what the operator did to the host over the bridge.
package surface

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/entrhq/canvas/pkg/bridge"
	"github.com/entrhq/canvas/pkg/dom"
	"github.com/entrhq/canvas/pkg/idgen"
	"github.com/entrhq/canvas/pkg/logging"
	"github.com/entrhq/canvas/pkg/types"
)

// State is the gesture state of the agent.
type State int

const (
	StateIdle State = iota
	StateHovering
	StateSelected
	StateDragging
	StateResizing
	StateTextEditing
	StateContextMenuOpen
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHovering:
		return "hovering"
	case StateSelected:
		return "selected"
	case StateDragging:
		return "dragging"
	case StateResizing:
		return "resizing"
	case StateTextEditing:
		return "text-editing"
	case StateContextMenuOpen:
		return "context-menu"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Button identifies the pointer button of a press.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
)

// Agent is the editor agent for one preview document. Pointer coordinates
// passed to its gesture methods are viewport-relative.
type Agent struct {
	mu sync.Mutex

	doc       *dom.Document
	cfg       Config
	selectors *SelectorBuilder
	runtime   *Runtime
	overlay   *overlay
	sender    bridge.Sender
	ids       idgen.Generator
	logger    logging.Sink
	outbox    []outbound

	enabled  bool
	state    State
	gesture  gesture
	lang     string
	selected *html.Node
	hovered  *html.Node
	menuAt   point
	menuNode *html.Node
	pins     map[string]types.Pin
}

// gesture is the transient state of an in-progress pointer interaction.
// None of it is ever persisted or sent to the host.
type gesture struct {
	start      point
	startRect  dom.Rect
	translateX float64
	translateY float64
	handle     Handle
	inlineW    string
	inlineH    string
	text       string
	pinID      string
	pinStart   point
}

type point struct{ x, y float64 }

type outbound struct {
	msgType string
	payload any
}

// Option configures an Agent.
type Option func(*Agent)

// WithConfig overrides the editor configuration.
func WithConfig(cfg Config) Option {
	return func(a *Agent) { a.cfg = cfg }
}

// WithIDGenerator overrides edit id generation.
func WithIDGenerator(g idgen.Generator) Option {
	return func(a *Agent) { a.ids = g }
}

// WithLogger sets the diagnostics sink.
func WithLogger(l logging.Sink) Option {
	return func(a *Agent) { a.logger = logging.OrNop(l) }
}

// New creates an agent over doc. Outbound messages go to sender, which may
// be nil until Bind is called.
func New(doc *dom.Document, sender bridge.Sender, opts ...Option) (*Agent, error) {
	a := &Agent{
		doc:     doc,
		cfg:     DefaultConfig(),
		sender:  sender,
		ids:     idgen.Edit(),
		logger:  logging.Nop,
		enabled: true,
		pins:    make(map[string]types.Pin),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.cfg = a.cfg.withDefaults()
	a.lang = MatchLanguage(a.cfg.Language)

	sb, err := NewSelectorBuilder(a.cfg.StableClassExclude, a.cfg.MaxClassesPerLevel)
	if err != nil {
		return nil, err
	}
	a.selectors = sb
	a.overlay = newOverlay(doc)
	a.runtime = newRuntime(doc, a.overlay, a.logger)
	return a, nil
}

// State returns the current gesture state.
func (a *Agent) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Enabled reports whether the editor intercepts pointer input.
func (a *Agent) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// Selected returns the selected element, or nil.
func (a *Agent) Selected() *html.Node {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selected
}

// Selector returns the synthesised selector for n.
func (a *Agent) Selector(n *html.Node) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selectors.Build(a.doc, n)
}

// Runtime exposes the edit runtime, mainly for inspection in tests.
func (a *Agent) Runtime() *Runtime { return a.runtime }

// emit queues a message; flush sends the queue once the lock is released
// so that a synchronous transport can never re-enter the agent.
func (a *Agent) emit(msgType string, payload any) {
	a.outbox = append(a.outbox, outbound{msgType: msgType, payload: payload})
}

func (a *Agent) unlockAndFlush() {
	out := a.outbox
	a.outbox = nil
	sender := a.sender
	a.mu.Unlock()

	if sender == nil {
		return
	}
	for _, m := range out {
		if err := sender.Send(m.msgType, m.payload); err != nil {
			a.logger.Debugf("send %s: %v", m.msgType, err)
		}
	}
}

// Update runs fn with exclusive access to the document. Renderers use it to
// refresh layout boxes while gestures and host commands may be running.
func (a *Agent) Update(fn func(doc *dom.Document)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(a.doc)
}

// PointerMove tracks hover, or drives an active drag or resize.
func (a *Agent) PointerMove(x, y float64) {
	a.mu.Lock()
	defer a.unlockAndFlush()
	if !a.enabled {
		return
	}
	px, py := a.doc.ToPage(x, y)

	switch a.state {
	case StateDragging:
		if a.gesture.pinID != "" {
			a.overlay.placePin(a.gesture.pinID,
				a.gesture.pinStart.x+px-a.gesture.start.x,
				a.gesture.pinStart.y+py-a.gesture.start.y)
			return
		}
		a.doc.SetTranslate(a.selected,
			a.gesture.translateX+px-a.gesture.start.x,
			a.gesture.translateY+py-a.gesture.start.y)
		a.overlay.showSelection(a.doc.Rect(a.selected))
	case StateResizing:
		w, h := resized(a.gesture.startRect, a.gesture.handle, px-a.gesture.start.x, py-a.gesture.start.y)
		a.doc.SetStyle(a.selected, "width", dom.Px(w))
		a.doc.SetStyle(a.selected, "height", dom.Px(h))
		a.overlay.showSelection(a.doc.Rect(a.selected))
	case StateIdle, StateHovering, StateSelected:
		a.updateHover(a.doc.HitTest(px, py))
	}
}

func (a *Agent) updateHover(target *html.Node) {
	if target == a.hovered {
		return
	}
	a.hovered = target
	if target == nil || target == a.selected {
		a.overlay.hideHover()
	} else {
		r := a.doc.Rect(target)
		a.overlay.showHover(r, fmt.Sprintf("%s %sx%s", a.label(target), roundPx(r.W), roundPx(r.H)))
	}
	if a.state == StateSelected {
		return
	}
	if target != nil {
		a.state = StateHovering
	} else {
		a.state = StateIdle
	}
}

// PointerDown starts a gesture. It returns false when the editor is
// disabled and the event should reach the page.
func (a *Agent) PointerDown(x, y float64, button Button) bool {
	a.mu.Lock()
	defer a.unlockAndFlush()
	if !a.enabled {
		return false
	}
	px, py := a.doc.ToPage(x, y)

	if a.state == StateContextMenuOpen {
		if action, ok := a.overlay.menuItemAt(px, py); ok && button == ButtonPrimary {
			a.chooseLocked(action)
		} else {
			a.closeMenu()
		}
		return true
	}
	if a.state == StateTextEditing {
		a.commitTextLocked()
	}

	if button == ButtonSecondary {
		a.openMenuLocked(x, y)
		return true
	}

	if id, ok := a.overlay.pinAt(px, py); ok {
		cx, cy := a.overlay.pinCenter(id)
		a.gesture = gesture{start: point{px, py}, pinID: id, pinStart: point{cx, cy}}
		a.state = StateDragging
		return true
	}

	if a.selected != nil {
		if h, ok := a.overlay.handleAt(px, py); ok {
			a.gesture = gesture{
				start:     point{px, py},
				startRect: a.doc.Rect(a.selected),
				handle:    h,
				inlineW:   dom.Style(a.selected, "width"),
				inlineH:   dom.Style(a.selected, "height"),
			}
			a.state = StateResizing
			return true
		}
	}

	target := a.doc.HitTest(px, py)
	switch {
	case target == nil:
		a.selectLocked(nil)
	case target == a.selected:
		tx, ty := dom.Translate(target)
		a.gesture = gesture{
			start:      point{px, py},
			startRect:  a.doc.Rect(target),
			translateX: tx,
			translateY: ty,
		}
		a.state = StateDragging
	default:
		a.selectLocked(target)
	}
	return true
}

// PointerUp finishes a drag or resize, committing it if it passed the
// threshold.
func (a *Agent) PointerUp(x, y float64) {
	a.mu.Lock()
	defer a.unlockAndFlush()
	if !a.enabled {
		return
	}
	px, py := a.doc.ToPage(x, y)
	dx, dy := px-a.gesture.start.x, py-a.gesture.start.y

	switch a.state {
	case StateDragging:
		if a.gesture.pinID != "" {
			a.finishPinDrag(dx, dy)
			return
		}
		a.finishDrag(dx, dy)
	case StateResizing:
		a.finishResize()
	}
}

func (a *Agent) passesThreshold(dx, dy float64) bool {
	return math.Max(math.Abs(dx), math.Abs(dy)) >= a.cfg.DragThreshold
}

func (a *Agent) finishPinDrag(dx, dy float64) {
	id := a.gesture.pinID
	a.gesture = gesture{}
	a.restState()

	if !a.passesThreshold(dx, dy) {
		if p, ok := a.pins[id]; ok {
			a.overlay.placePin(id, p.PageX, p.PageY)
		}
		a.emit(bridge.MsgPinClicked, bridge.PinClickedPayload{PinID: id})
		return
	}
	pageX, pageY := a.overlay.pinCenter(id)
	sx, sy := a.doc.Scroll()
	if p, ok := a.pins[id]; ok {
		p.PageX, p.PageY = pageX, pageY
		p.X, p.Y = pageX-sx, pageY-sy
		a.pins[id] = p
	}
	a.emit(bridge.MsgPinMoved, bridge.PinMovedPayload{
		PinID: id, X: pageX - sx, Y: pageY - sy, PageX: pageX, PageY: pageY,
	})
}

func (a *Agent) finishDrag(dx, dy float64) {
	node := a.selected
	g := a.gesture
	a.gesture = gesture{}
	a.state = StateSelected

	if !a.passesThreshold(dx, dy) {
		a.doc.SetTranslate(node, g.translateX, g.translateY)
		a.overlay.showSelection(a.doc.Rect(node))
		return
	}

	a.doc.SetTranslate(node, g.translateX+dx, g.translateY+dy)
	e := a.newEdit(types.EditTypeMove, node,
		types.Snapshot{keyTranslateX: g.translateX, keyTranslateY: g.translateY},
		types.Snapshot{keyDeltaX: dx, keyDeltaY: dy})
	a.commit(e, node)
	a.overlay.showSelection(a.doc.Rect(node))
}

func (a *Agent) finishResize() {
	node := a.selected
	g := a.gesture
	a.gesture = gesture{}
	a.state = StateSelected

	r := a.doc.Rect(node)
	if r.W == g.startRect.W && r.H == g.startRect.H {
		a.doc.SetStyle(node, "width", g.inlineW)
		a.doc.SetStyle(node, "height", g.inlineH)
		a.overlay.showSelection(a.doc.Rect(node))
		return
	}
	e := a.newEdit(types.EditTypeResize, node,
		types.Snapshot{
			keyWidth:        g.startRect.W,
			keyHeight:       g.startRect.H,
			keyInlineWidth:  g.inlineW,
			keyInlineHeight: g.inlineH,
		},
		types.Snapshot{keyWidth: r.W, keyHeight: r.H})
	a.commit(e, node)
	a.overlay.showSelection(r)
}

// DoubleClick enters text editing on the element under the pointer.
func (a *Agent) DoubleClick(x, y float64) bool {
	a.mu.Lock()
	defer a.unlockAndFlush()
	if !a.enabled {
		return false
	}
	if a.state == StateContextMenuOpen {
		a.closeMenu()
	}
	if a.state == StateTextEditing {
		a.commitTextLocked()
	}
	if a.state == StateDragging || a.state == StateResizing {
		a.abortGestureLocked()
	}

	px, py := a.doc.ToPage(x, y)
	target := a.doc.HitTest(px, py)
	if target == nil {
		return true
	}
	if target != a.selected {
		a.selectLocked(target)
	}
	a.gesture = gesture{text: dom.Text(target)}
	a.doc.SetAttr(target, "contenteditable", "true")
	a.state = StateTextEditing
	return true
}

// Input replaces the text of the element being edited.
func (a *Agent) Input(text string) {
	a.mu.Lock()
	defer a.unlockAndFlush()
	if a.state != StateTextEditing {
		return
	}
	a.doc.SetText(a.selected, text)
}

// Key handles keyboard input. Enter commits text editing, Escape cancels
// the current interaction and Delete drops the newest edit on the
// selected element.
func (a *Agent) Key(key string) {
	a.mu.Lock()
	defer a.unlockAndFlush()
	if !a.enabled {
		return
	}
	switch a.state {
	case StateTextEditing:
		switch key {
		case "Enter":
			a.commitTextLocked()
		case "Escape":
			a.cancelTextLocked()
		}
	case StateContextMenuOpen:
		if key == "Escape" {
			a.closeMenu()
		}
	case StateDragging, StateResizing:
		if key == "Escape" {
			a.abortGestureLocked()
		}
	case StateSelected:
		switch key {
		case "Escape":
			a.selectLocked(nil)
		case "Delete", "Backspace":
			a.deleteSelectedEditLocked()
		}
	}
}

// Blur ends text editing, committing any change.
func (a *Agent) Blur() {
	a.mu.Lock()
	defer a.unlockAndFlush()
	if a.state == StateTextEditing {
		a.commitTextLocked()
	}
}

// Scroll updates the document scroll offset.
func (a *Agent) Scroll(x, y float64) {
	a.mu.Lock()
	defer a.unlockAndFlush()
	a.doc.SetScroll(x, y)
}

func (a *Agent) commitTextLocked() {
	node := a.selected
	before := a.gesture.text
	a.gesture = gesture{}
	a.state = StateSelected
	a.doc.RemoveAttr(node, "contenteditable")

	after := dom.Text(node)
	if after == before {
		return
	}
	e := a.newEdit(types.EditTypeRetext, node,
		types.Snapshot{keyText: before},
		types.Snapshot{keyText: after})
	a.commit(e, node)
}

func (a *Agent) cancelTextLocked() {
	node := a.selected
	before := a.gesture.text
	a.gesture = gesture{}
	a.state = StateSelected
	a.doc.RemoveAttr(node, "contenteditable")
	if dom.Text(node) != before {
		a.doc.SetText(node, before)
	}
}

func (a *Agent) abortGestureLocked() {
	g := a.gesture
	a.gesture = gesture{}
	switch {
	case g.pinID != "":
		if p, ok := a.pins[g.pinID]; ok {
			a.overlay.placePin(g.pinID, p.PageX, p.PageY)
		}
		a.restState()
		return
	case a.state == StateDragging:
		a.doc.SetTranslate(a.selected, g.translateX, g.translateY)
	case a.state == StateResizing:
		a.doc.SetStyle(a.selected, "width", g.inlineW)
		a.doc.SetStyle(a.selected, "height", g.inlineH)
	}
	a.state = StateSelected
	a.overlay.showSelection(a.doc.Rect(a.selected))
}

// restState returns to Selected or Idle depending on the selection.
func (a *Agent) restState() {
	if a.selected != nil {
		a.state = StateSelected
	} else {
		a.state = StateIdle
	}
}

func (a *Agent) selectLocked(n *html.Node) {
	if n != nil && dom.IsAgentOwned(n) {
		return
	}
	a.selected = n
	a.overlay.hideHover()
	a.hovered = nil
	if n == nil {
		a.overlay.hideSelection()
		a.state = StateIdle
		a.emit(bridge.MsgSelectionChanged, bridge.SelectionChangedPayload{})
		return
	}
	a.overlay.showSelection(a.doc.Rect(n))
	a.state = StateSelected
	snap := a.snapshot(n)
	a.emit(bridge.MsgSelectionChanged, bridge.SelectionChangedPayload{Selection: &snap})
}

// SnapshotStyles returns the computed properties a selection snapshot
// reports. Renderers capture at least these.
func SnapshotStyles() []string {
	return append([]string(nil), snapshotStyles...)
}

// snapshotStyles is the style subset cached with a selection.
var snapshotStyles = []string{
	"color", "background-color", "border-color",
	"font-family", "font-size", "font-weight", "line-height",
	"width", "height", "margin", "padding", "display", "position", "opacity",
}

func (a *Agent) snapshot(n *html.Node) types.SelectionSnapshot {
	r := a.doc.Rect(n)
	styles := make(map[string]string)
	for _, prop := range snapshotStyles {
		if v := a.doc.Computed(n, prop); v != "" {
			styles[prop] = v
		}
	}
	return types.SelectionSnapshot{
		Selector: a.selectors.Build(a.doc, n),
		Tag:      dom.Tag(n),
		ID:       dom.ID(n),
		Classes:  dom.Classes(n),
		Text:     excerpt(dom.Text(n), a.cfg.MaxTextExcerpt),
		Rect:     types.Coords{X: r.X, Y: r.Y, W: r.W, H: r.H},
		Styles:   styles,
	}
}

func (a *Agent) label(n *html.Node) string {
	label := dom.Tag(n)
	if id := dom.ID(n); id != "" {
		label += "#" + id
	}
	for _, c := range dom.Classes(n) {
		label += "." + c
	}
	return label
}

// excerpt collapses whitespace and truncates to max runes.
func excerpt(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if max > 0 && len(runes) > max {
		return string(runes[:max-1]) + "…"
	}
	return s
}

// newEdit builds an edit record for an element the operator changed.
func (a *Agent) newEdit(t types.EditType, n *html.Node, from, to types.Snapshot) types.Edit {
	r := a.doc.Rect(n)
	e := types.Edit{
		ID:       a.ids(),
		Type:     t,
		Selector: a.selectors.Build(a.doc, n),
		Coords:   types.Coords{X: r.X, Y: r.Y, W: r.W, H: r.H},
		From:     from,
		To:       to,
	}
	e.Desc = describe(e)
	return e
}

// commit records an edit whose change is already live and reports it.
func (a *Agent) commit(e types.Edit, n *html.Node) {
	a.runtime.Record(e, n)
	a.emit(bridge.MsgEditCreated, bridge.EditCreatedPayload{Edit: e})
}
