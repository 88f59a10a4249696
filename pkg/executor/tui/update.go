package tui

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/entrhq/canvas/pkg/dispatch"
	"github.com/entrhq/canvas/pkg/host"
	"github.com/entrhq/canvas/pkg/inspect"
	"github.com/entrhq/canvas/pkg/surface"
)

// sendTimeout bounds one delivery to the agent.
const sendTimeout = 2 * time.Minute

// Update handles all state updates for the TUI model.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.view.Width = max(msg.Width-6, 20)
		m.view.Height = max(msg.Height-8, 5)
		m.renderer = nil
		m.refreshOverlay()
		return m, nil

	case changeMsg:
		return m, m.handleChange(msg.change)

	case sentMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setStatus(fmt.Sprintf("delivered via %s", msg.route))
		}
		return m, nil

	case tea.KeyMsg:
		if m.overlay != overlayNone {
			return m, m.handleOverlayKey(msg)
		}
		return m, m.handleKey(msg)
	}

	if m.overlay != overlayNone {
		return m, m.forward(msg)
	}
	return m, nil
}

func (m *model) handleChange(ch host.Change) tea.Cmd {
	switch ch.Kind {
	case host.ChangeLedger, host.ChangePins:
		m.clampCursors()
		m.recount()
		m.refreshOverlay()

	case host.ChangeAnnotation:
		pending, ok := m.host.Pending()
		switch {
		case ok && m.overlay == overlayNone:
			return m.openInput(overlayAnnotation, "", fmt.Sprintf("%s note", pending.Type))
		case !ok && m.overlay == overlayAnnotation:
			m.closeOverlay()
		}

	case host.ChangeTree:
		m.tree.SetTree(m.host.Tree())
		m.refreshOverlay()

	case host.ChangePinFocus:
		focused := m.host.FocusedPin()
		for i, p := range m.host.Pins() {
			if p.ID == focused {
				m.pane = panePins
				m.pinCursor = i
			}
		}

	case host.ChangeContextAction:
		if ch.Action != nil && ch.Action.Action == string(surface.ActionCopySelector) {
			return m.deliver(m.cfg.Clipboard, ch.Action.Selector, false)
		}

	case host.ChangeConnection:
		if m.host.Connected() {
			m.setStatus("surface connected")
		} else {
			m.setStatus("surface disconnected")
		}

	case host.ChangeReference:
		m.recount()
	}
	return nil
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit

	case "tab":
		if m.pane == paneEdits {
			m.pane = panePins
		} else {
			m.pane = paneEdits
		}
	case "p":
		m.pane = panePins
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)

	case "u":
		if !m.host.Undo() {
			m.setStatus("nothing to undo")
		}
	case "r":
		if !m.host.Redo() {
			m.setStatus("nothing to redo")
		}
	case "x", "delete":
		m.removeSelected()
	case "C":
		if m.pane == panePins {
			m.host.ClearPins()
		} else if !m.host.Clear() {
			m.setStatus("ledger already empty")
		}

	case "i", "enter":
		if m.pane != panePins {
			return nil
		}
		pins := m.host.Pins()
		if m.pinCursor >= len(pins) {
			return nil
		}
		m.editingPin = pins[m.pinCursor].ID
		return m.openInput(overlayPinEdit, pins[m.pinCursor].Prompt, "pin prompt")

	case "y":
		return m.deliver(m.cfg.Clipboard, m.host.Compile(), false)
	case "s":
		return m.deliver(m.cfg.Agent, m.host.Compile(), true)

	case "d":
		m.openView(overlayDiff)
	case "c":
		m.openView(overlayInstructions)
	case "?":
		m.openView(overlayHelp)
	case "t":
		if m.cfg.Sender == nil {
			m.setError(errors.New("tree browser needs a connected surface"))
			return nil
		}
		if err := m.tree.Request(); err != nil {
			m.setError(err)
		}
		m.overlay = overlayTree
	case "f":
		return m.openInput(overlayReference, "", "reference image path (empty removes)")

	case "e":
		m.editing = !m.editing
		m.host.SetEditing(m.editing)
	}
	return nil
}

func (m *model) moveCursor(delta int) {
	if m.pane == panePins {
		m.pinCursor = clamp(m.pinCursor+delta, len(m.host.Pins()))
	} else {
		m.editCursor = clamp(m.editCursor+delta, len(m.host.Edits()))
	}
}

func (m *model) removeSelected() {
	if m.pane == panePins {
		pins := m.host.Pins()
		if m.pinCursor < len(pins) {
			m.host.RemovePin(pins[m.pinCursor].ID)
		}
		return
	}
	edits := m.host.Edits()
	if m.editCursor < len(edits) {
		m.host.Remove(edits[m.editCursor].ID)
	}
}

// deliver runs a dispatcher off the update loop. Controls whose route is
// missing or unavailable report why instead of sending.
func (m *model) deliver(d dispatch.Dispatcher, doc string, needsAgent bool) tea.Cmd {
	if d == nil {
		m.setError(dispatch.ErrUnsupported)
		return nil
	}
	var status dispatch.Status
	if needsAgent {
		status = m.host
		if m.cfg.MaxTokens > 0 && m.tokens > m.cfg.MaxTokens {
			m.logger.Warnf("tui: instructions estimated at %d tokens, budget %d", m.tokens, m.cfg.MaxTokens)
		}
	}
	m.setStatus(fmt.Sprintf("sending via %s...", d.Name()))
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		return sentMsg{route: d.Name(), err: dispatch.Send(ctx, d, status, doc)}
	}
}

func (m *model) handleOverlayKey(msg tea.KeyMsg) tea.Cmd {
	switch m.overlay {
	case overlayAnnotation, overlayPinEdit, overlayReference:
		switch msg.Type {
		case tea.KeyEnter:
			m.commitInput(strings.TrimSpace(m.input.Value()))
			return nil
		case tea.KeyEsc:
			if m.overlay == overlayAnnotation {
				m.host.CancelAnnotation()
			}
			m.closeOverlay()
			return nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd

	case overlayTree:
		switch msg.String() {
		case "esc", "q":
			m.closeOverlay()
		case "up", "k":
			m.tree.Up()
		case "down", "j":
			m.tree.Down()
		case "enter", " ":
			m.tree.Toggle()
		case "s":
			sel, err := m.tree.Select()
			if err != nil {
				m.setError(err)
			} else if sel != "" {
				m.setStatus("selected " + sel)
			}
			m.closeOverlay()
		}
		return nil
	}

	switch msg.String() {
	case "esc", "q":
		m.closeOverlay()
		return nil
	}
	return m.forward(msg)
}

func (m *model) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.overlay {
	case overlayDiff, overlayInstructions, overlayHelp:
		m.view, cmd = m.view.Update(msg)
	case overlayAnnotation, overlayPinEdit, overlayReference:
		m.input, cmd = m.input.Update(msg)
	}
	return cmd
}

func (m *model) commitInput(value string) {
	kind := m.overlay
	m.closeOverlay()

	switch kind {
	case overlayAnnotation:
		if _, ok := m.host.ResolveAnnotation(value); !ok {
			m.setStatus("annotation expired")
		}
	case overlayPinEdit:
		if value == "" {
			m.setStatus("pin prompt unchanged")
			return
		}
		if !m.host.UpdatePin(m.editingPin, value) {
			m.setStatus("pin no longer exists")
		}
	case overlayReference:
		if value == "" {
			m.host.SetReference("", 0)
			m.setStatus("reference removed")
			return
		}
		url, err := m.dataURL(value)
		if err != nil {
			m.setError(err)
			return
		}
		m.host.SetReference(url, 0)
		m.setStatus("reference attached")
	}
}

// dataURL encodes an image file for set-reference-image.
func (m *model) dataURL(path string) (string, error) {
	data, err := m.cfg.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read reference image: %w", err)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%s is not an image (%s)", path, mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func (m *model) openInput(kind overlayKind, value, placeholder string) tea.Cmd {
	m.overlay = kind
	m.input.Reset()
	m.input.SetValue(value)
	m.input.Placeholder = placeholder
	m.input.CursorEnd()
	return tea.Batch(m.input.Focus(), textinput.Blink)
}

func (m *model) openView(kind overlayKind) {
	m.overlay = kind
	m.refreshOverlay()
	m.view.GotoTop()
}

func (m *model) closeOverlay() {
	m.overlay = overlayNone
	m.editingPin = ""
	m.input.Blur()
}

// refreshOverlay re-renders a scrollable overlay from current state.
func (m *model) refreshOverlay() {
	switch m.overlay {
	case overlayDiff:
		diffs := inspect.Diff(m.host.Edits())
		if len(diffs) == 0 {
			m.view.SetContent("No edits.")
			return
		}
		m.view.SetContent(inspect.RenderHighlighted(diffs, m.cfg.DiffStyle))
	case overlayInstructions:
		m.view.SetContent(m.renderMarkdown(m.host.Compile()))
	case overlayHelp:
		m.view.SetContent(helpText)
	}
}

// renderMarkdown styles the compiled document for the terminal, falling
// back to the raw text.
func (m *model) renderMarkdown(doc string) string {
	if m.renderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(m.view.Width-2),
		)
		if err != nil {
			m.logger.Debugf("tui: markdown renderer: %v", err)
			return doc
		}
		m.renderer = r
	}
	out, err := m.renderer.Render(doc)
	if err != nil {
		m.logger.Debugf("tui: render instructions: %v", err)
		return doc
	}
	return out
}
