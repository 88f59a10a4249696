package surface

import (
	"golang.org/x/net/html"

	"github.com/entrhq/canvas/pkg/bridge"
	"github.com/entrhq/canvas/pkg/dom"
	"github.com/entrhq/canvas/pkg/types"
)

// ContextMenu opens the context menu at a viewport point, as a right-click
// does.
func (a *Agent) ContextMenu(x, y float64) bool {
	a.mu.Lock()
	defer a.unlockAndFlush()
	if !a.enabled {
		return false
	}
	if a.state == StateTextEditing {
		a.commitTextLocked()
	}
	a.openMenuLocked(x, y)
	return true
}

// Choose picks a context menu entry. It is a no-op unless the menu is open.
func (a *Agent) Choose(action MenuAction) {
	a.mu.Lock()
	defer a.unlockAndFlush()
	if a.state != StateContextMenuOpen {
		return
	}
	a.chooseLocked(action)
}

func (a *Agent) openMenuLocked(x, y float64) {
	if a.state == StateDragging || a.state == StateResizing {
		a.abortGestureLocked()
	}
	px, py := a.doc.ToPage(x, y)
	a.menuAt = point{x, y}
	a.menuNode = a.doc.HitTest(px, py)
	a.overlay.hideHover()
	a.hovered = nil
	a.overlay.showMenu(px, py, MenuActions, func(act MenuAction) string { return Label(a.lang, act) })
	a.state = StateContextMenuOpen
}

func (a *Agent) closeMenu() {
	a.overlay.hideMenu()
	a.menuNode = nil
	a.restState()
}

func (a *Agent) chooseLocked(action MenuAction) {
	target := a.menuNode
	at := a.menuAt
	a.closeMenu()

	switch action {
	case ActionMarkError, ActionAddHere, ActionAnnotate, ActionPin:
		px, py := a.doc.ToPage(at.x, at.y)
		a.emit(bridge.MsgAnnotationRequest, bridge.AnnotationRequestPayload{
			Type:           types.AnnotationKind(action),
			X:              at.x,
			Y:              at.y,
			PageX:          px,
			PageY:          py,
			NearestElement: a.nearest(target),
		})
	case ActionCopySelector:
		if target == nil {
			target = a.selected
		}
		sel := types.ViewportSelector
		if target != nil {
			sel = a.selectors.Build(a.doc, target)
		}
		a.emit(bridge.MsgContextAction, bridge.ContextActionPayload{Action: string(action), Selector: sel})
	case ActionSelectParent:
		if target == nil {
			target = a.selected
		}
		if target == nil {
			return
		}
		if parent := dom.ParentElement(target); parent != nil && dom.Tag(parent) != "html" {
			a.selectLocked(parent)
		}
	default:
		a.logger.Debugf("unknown context menu action %q", action)
	}
}

func (a *Agent) nearest(n *html.Node) bridge.NearestElement {
	if n == nil {
		return bridge.NearestElement{Selector: types.ViewportSelector, Desc: types.ViewportSelector}
	}
	return bridge.NearestElement{Selector: a.selectors.Build(a.doc, n), Desc: a.describeNode(n)}
}

func (a *Agent) describeNode(n *html.Node) string {
	label := a.label(n)
	if text := excerpt(dom.Text(n), 40); text != "" {
		return label + " \"" + text + "\""
	}
	return label
}

// AddAnnotation resolves an annotation request with the operator's note,
// placing a marker and reporting the new edit. Pin requests are ignored
// here; pins arrive through SetPins.
func (a *Agent) AddAnnotation(p bridge.AddAnnotationPayload) {
	a.mu.Lock()
	defer a.unlockAndFlush()

	et, ok := p.Type.EditType()
	if !ok {
		a.logger.Debugf("add-annotation: %q produces no edit", p.Type)
		return
	}
	px, py := a.doc.ToPage(p.X, p.Y)
	target := a.doc.HitTest(px, py)

	e := types.Edit{
		ID:       a.ids(),
		Type:     et,
		Selector: types.ViewportSelector,
		Coords:   types.Coords{X: px, Y: py},
		From:     types.Snapshot{},
		To:       types.Snapshot{keyNote: p.Note},
	}
	if target != nil {
		e.Selector = a.selectors.Build(a.doc, target)
	}
	e.Desc = describe(e)

	applied, ok := a.runtime.Apply(e)
	if !ok {
		return
	}
	a.emit(bridge.MsgEditCreated, bridge.EditCreatedPayload{Edit: applied})
}
