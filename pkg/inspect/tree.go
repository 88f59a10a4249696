package inspect

import (
	"strings"

	"github.com/entrhq/canvas/pkg/bridge"
	"github.com/entrhq/canvas/pkg/types"
)

// Row is one visible line of the tree browser.
type Row struct {
	Node        *types.TreeNode
	Depth       int
	Expanded    bool
	HasChildren bool
}

// TreeBrowser is a collapsible view over the last dom-tree snapshot. It
// keeps only view state; selecting a row asks the surface to select the
// element.
type TreeBrowser struct {
	sender   bridge.Sender
	root     *types.TreeNode
	expanded map[string]bool
	cursor   int
}

// NewTreeBrowser returns an empty browser sending through s.
func NewTreeBrowser(s bridge.Sender) *TreeBrowser {
	return &TreeBrowser{sender: s, expanded: make(map[string]bool)}
}

// Request asks the surface for a fresh snapshot.
func (t *TreeBrowser) Request() error {
	return t.sender.Send(bridge.MsgRequestSnapshot, bridge.RequestSnapshotPayload{})
}

// SetTree replaces the snapshot. Expansion state survives for selectors
// that still exist; the root starts expanded.
func (t *TreeBrowser) SetTree(root *types.TreeNode) {
	t.root = root
	if root != nil {
		if _, seen := t.expanded[root.Selector]; !seen {
			t.expanded[root.Selector] = true
		}
	}
	t.clampCursor()
}

// Tree returns the current snapshot, or nil.
func (t *TreeBrowser) Tree() *types.TreeNode { return t.root }

// Rows flattens the visible part of the tree in document order.
func (t *TreeBrowser) Rows() []Row {
	if t.root == nil {
		return nil
	}
	var rows []Row
	var walk func(n *types.TreeNode, depth int)
	walk = func(n *types.TreeNode, depth int) {
		open := t.expanded[n.Selector]
		rows = append(rows, Row{Node: n, Depth: depth, Expanded: open, HasChildren: len(n.Children) > 0})
		if !open {
			return
		}
		for i := range n.Children {
			walk(&n.Children[i], depth+1)
		}
	}
	walk(t.root, 0)
	return rows
}

// Cursor returns the highlighted row index.
func (t *TreeBrowser) Cursor() int { return t.cursor }

// Up moves the cursor up one row.
func (t *TreeBrowser) Up() {
	if t.cursor > 0 {
		t.cursor--
	}
}

// Down moves the cursor down one row.
func (t *TreeBrowser) Down() {
	t.cursor++
	t.clampCursor()
}

// Toggle expands or collapses the row under the cursor.
func (t *TreeBrowser) Toggle() {
	rows := t.Rows()
	if t.cursor >= len(rows) || !rows[t.cursor].HasChildren {
		return
	}
	sel := rows[t.cursor].Node.Selector
	t.expanded[sel] = !t.expanded[sel]
	t.clampCursor()
}

// Select asks the surface to select the row under the cursor and returns
// its selector.
func (t *TreeBrowser) Select() (string, error) {
	rows := t.Rows()
	if t.cursor >= len(rows) {
		return "", nil
	}
	sel := rows[t.cursor].Node.Selector
	err := t.sender.Send(bridge.MsgSelectElement, bridge.SelectElementPayload{Enabled: true, Selector: sel})
	return sel, err
}

// Render draws the visible rows with the cursor marked.
func (t *TreeBrowser) Render() string {
	rows := t.Rows()
	if len(rows) == 0 {
		return "(no snapshot)"
	}
	var sb strings.Builder
	for i, r := range rows {
		if i == t.cursor {
			sb.WriteString("> ")
		} else {
			sb.WriteString("  ")
		}
		sb.WriteString(strings.Repeat("  ", r.Depth))
		switch {
		case !r.HasChildren:
			sb.WriteString("  ")
		case r.Expanded:
			sb.WriteString("▾ ")
		default:
			sb.WriteString("▸ ")
		}
		sb.WriteString(r.Node.Label())
		if r.Node.Text != "" {
			sb.WriteString(" \"" + r.Node.Text + "\"")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *TreeBrowser) clampCursor() {
	n := len(t.Rows())
	if t.cursor >= n {
		t.cursor = n - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
}
