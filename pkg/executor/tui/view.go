package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/canvas/pkg/types"
)

const helpText = `Ledger
  u / r        undo / redo
  x            remove the selected edit or pin
  C            clear all edits (or all pins in the pins pane)
  tab, p       switch to the pins pane
  i, enter     edit the selected pin's prompt

Instructions
  c            preview the compiled instructions
  y            copy them to the clipboard
  s            send them to the agent

Views
  d            diff of every edit
  t            element tree (s selects, enter expands)
  f            attach or remove a reference image
  e            toggle the editor on the surface
  q            quit`

// View renders the TUI.
func (m *model) View() string {
	if m.overlay != overlayNone {
		return m.overlayView()
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.toolbarView())
	b.WriteString("\n\n")

	half := max((m.width-4)/2, 20)
	edits := m.paneBox(paneEdits, "Edits", m.editsView(), half)
	pins := m.paneBox(panePins, "Pins", m.pinsView(), half)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, edits, pins))
	b.WriteString("\n")
	b.WriteString(m.selectionView())
	b.WriteString("\n")
	b.WriteString(m.statusView())
	return b.String()
}

func (m *model) headerView() string {
	title := m.cfg.Header
	if title == "" {
		title = "canvas"
	}
	return headerStyle.Render(title) + "  " + tipsStyle.Render("? for help")
}

// toolbarView shows each control, struck through when it cannot act.
func (m *model) toolbarView() string {
	controls := []struct {
		label   string
		enabled bool
	}{
		{"[u]ndo", m.host.CanUndo()},
		{"[r]edo", m.host.CanRedo()},
		{"[C]lear", len(m.host.Edits()) > 0},
		{"[y] copy", m.cfg.Clipboard != nil && m.cfg.Clipboard.Available()},
		{"[s]end", m.cfg.Agent != nil && m.cfg.Agent.Available() && m.host.AgentAvailable()},
		{"[d]iff", len(m.host.Edits()) > 0},
		{"[t]ree", m.cfg.Sender != nil && m.host.Connected()},
	}
	parts := make([]string, 0, len(controls))
	for _, c := range controls {
		if c.enabled {
			parts = append(parts, enabledStyle.Render(c.label))
		} else {
			parts = append(parts, disabledStyle.Render(c.label))
		}
	}
	return strings.Join(parts, "  ")
}

func (m *model) paneBox(p pane, title, body string, width int) string {
	style := paneStyle
	if m.pane == p {
		style = activePaneStyle
	}
	return style.Width(width).Render(paneTitleStyle.Render(title) + "\n" + body)
}

func (m *model) editsView() string {
	edits := m.host.Edits()
	if len(edits) == 0 {
		return futureStyle.Render("no edits yet")
	}
	lines := make([]string, 0, len(edits))
	for i, e := range edits {
		line := fmt.Sprintf("[%d] %-12s %s", i+1, e.Type, editLabel(e))
		lines = append(lines, m.row(m.pane == paneEdits && i == m.editCursor, line))
	}
	return strings.Join(lines, "\n")
}

func editLabel(e types.Edit) string {
	sel := e.Selector
	if sel == "" {
		sel = "viewport"
	}
	if e.Desc != "" {
		return sel + "  " + tipsStyle.Render(e.Desc)
	}
	return sel
}

func (m *model) pinsView() string {
	pins := m.host.Pins()
	if len(pins) == 0 {
		return futureStyle.Render("no pins")
	}
	focused := m.host.FocusedPin()
	lines := make([]string, 0, len(pins))
	for i, p := range pins {
		mark := " "
		if p.ID == focused {
			mark = "*"
		}
		line := fmt.Sprintf("%s %s  @ %s", mark, truncate(p.Prompt, 40), orDash(p.NearestSelector))
		lines = append(lines, m.row(m.pane == panePins && i == m.pinCursor, line))
	}
	return strings.Join(lines, "\n")
}

func (m *model) row(selected bool, line string) string {
	if selected {
		return cursorStyle.Render("> " + line)
	}
	return itemStyle.Render("  " + line)
}

func (m *model) selectionView() string {
	sel := m.host.Selection()
	if sel == nil {
		return tipsStyle.Render("nothing selected")
	}
	return tipsStyle.Render(fmt.Sprintf("selected %s <%s> %.0fx%.0f", sel.Selector, sel.Tag, sel.Rect.W, sel.Rect.H))
}

func (m *model) statusView() string {
	conn := errorStyle.Render("surface offline")
	if m.host.Connected() {
		conn = enabledStyle.Render("surface online")
	}
	editor := "editor on"
	if !m.editing {
		editor = "editor off"
	}
	agent := "agent unavailable"
	if m.host.AgentAvailable() {
		agent = "agent ready"
	}
	tokens := fmt.Sprintf("~%d tokens", m.tokens)
	if m.cfg.MaxTokens > 0 {
		tokens = fmt.Sprintf("~%d/%d tokens", m.tokens, m.cfg.MaxTokens)
		if m.tokens > m.cfg.MaxTokens {
			tokens = errorStyle.Render(tokens)
		}
	}
	parts := []string{conn, editor, agent, tokens}
	if _, ok := m.host.Reference(); ok {
		parts = append(parts, "reference attached")
	}
	if m.status != "" {
		if m.statusErr {
			parts = append(parts, errorStyle.Render(m.status))
		} else {
			parts = append(parts, m.status)
		}
	}
	return statusBarStyle.Render(strings.Join(parts, " • "))
}

func (m *model) overlayView() string {
	var title, body, help string
	switch m.overlay {
	case overlayDiff:
		title, body, help = "Edit Diff", m.view.View(), "esc close • arrows scroll"
	case overlayInstructions:
		title, body, help = "Compiled Instructions", m.view.View(), "esc close • arrows scroll"
	case overlayHelp:
		title, body, help = "Keys", m.view.View(), "esc close"
	case overlayTree:
		title, body, help = "Element Tree", m.tree.Render(), "enter expand • s select • esc close"
	case overlayAnnotation:
		title, body, help = "Annotation", m.input.View(), "enter save • esc cancel"
		if p, ok := m.host.Pending(); ok {
			body = tipsStyle.Render(fmt.Sprintf("%s at (%.0f, %.0f) near %s", p.Type, p.X, p.Y, orDash(p.Nearest.Selector))) + "\n" + body
		}
	case overlayPinEdit:
		title, body, help = "Edit Pin", m.input.View(), "enter save • esc cancel"
	case overlayReference:
		title, body, help = "Reference Image", m.input.View(), "enter attach • esc cancel"
	}
	box := overlayStyle.Width(max(m.width-4, 20)).Render(
		OverlayTitleStyle.Render(title) + "\n\n" + body + "\n\n" + OverlayHelpStyle.Render(help))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
