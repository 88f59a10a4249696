// Package inspect holds the read-only inspection views: a per-edit
// from/to diff and a browser over the surface's document tree.
package inspect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/entrhq/canvas/pkg/types"
)

// LineKind classifies one diff line.
type LineKind int

const (
	Unchanged LineKind = iota
	Removed
	Added
)

func (k LineKind) prefix() string {
	switch k {
	case Removed:
		return "-"
	case Added:
		return "+"
	}
	return " "
}

// Line is one key of a snapshot diff.
type Line struct {
	Kind  LineKind
	Key   string
	Value string
}

// String renders the line in unified-diff form.
func (l Line) String() string {
	return fmt.Sprintf("%s %s: %s", l.Kind.prefix(), l.Key, l.Value)
}

// EditDiff is the diff of a single edit.
type EditDiff struct {
	Edit  types.Edit
	Lines []Line
}

// DiffSnapshots compares two snapshots key by key in sorted key order.
// Keys only in from are removed, keys only in to are added, and a key whose
// value changed yields a removed line followed by an added one.
func DiffSnapshots(from, to types.Snapshot) []Line {
	keys := make([]string, 0, len(from)+len(to))
	for k := range from {
		keys = append(keys, k)
	}
	for k := range to {
		if !from.Has(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	lines := make([]Line, 0, len(keys))
	for _, k := range keys {
		inFrom, inTo := from.Has(k), to.Has(k)
		fv, tv := from.String(k), to.String(k)
		switch {
		case inFrom && !inTo:
			lines = append(lines, Line{Kind: Removed, Key: k, Value: fv})
		case !inFrom && inTo:
			lines = append(lines, Line{Kind: Added, Key: k, Value: tv})
		case fv == tv:
			lines = append(lines, Line{Kind: Unchanged, Key: k, Value: fv})
		default:
			lines = append(lines,
				Line{Kind: Removed, Key: k, Value: fv},
				Line{Kind: Added, Key: k, Value: tv})
		}
	}
	return lines
}

// Diff computes the diff of every edit, preserving ledger order.
func Diff(edits []types.Edit) []EditDiff {
	out := make([]EditDiff, 0, len(edits))
	for _, e := range edits {
		out = append(out, EditDiff{Edit: e, Lines: DiffSnapshots(e.From, e.To)})
	}
	return out
}

// Render formats diffs as plain unified-diff text with one hunk per edit.
func Render(diffs []EditDiff) string {
	var sb strings.Builder
	for i, d := range diffs {
		if i > 0 {
			sb.WriteString("\n")
		}
		sel := d.Edit.Selector
		if sel == "" {
			sel = types.ViewportSelector
		}
		fmt.Fprintf(&sb, "@@ [%d] %s %s @@\n", i+1, d.Edit.Type, sel)
		for _, l := range d.Lines {
			sb.WriteString(l.String())
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
