// Package ledger is the host-side record of what the operator asked to
// change: an ordered, undoable list of edits with strictly linear history,
// plus the prompt pins and reference image that persist alongside it.
package ledger

import (
	"errors"
	"fmt"

	"github.com/entrhq/canvas/pkg/types"
)

var (
	// ErrNotFound is returned when an edit or pin id is unknown.
	ErrNotFound = errors.New("ledger: not found")
	// ErrDuplicate is returned by Add when the id already exists in present.
	ErrDuplicate = errors.New("ledger: duplicate id")
)

// Ledger holds linear undo history over the present edit list. Every
// mutating operation pushes the current present onto past and clears
// future. Operations that would not change present are no-ops and leave
// history untouched.
//
// A Ledger is not safe for concurrent use; the host serialises access.
type Ledger struct {
	past    [][]types.Edit
	present []types.Edit
	future  [][]types.Edit
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

func (l *Ledger) commit(next []types.Edit) {
	l.past = append(l.past, l.present)
	l.present = next
	l.future = nil
}

// Add appends e to present.
func (l *Ledger) Add(e types.Edit) error {
	if e.ID == "" {
		return fmt.Errorf("ledger: edit has no id")
	}
	if l.index(e.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicate, e.ID)
	}
	next := make([]types.Edit, 0, len(l.present)+1)
	next = append(next, l.present...)
	next = append(next, e.Clone())
	l.commit(next)
	return nil
}

// Remove drops the edit with the given id from present.
func (l *Ledger) Remove(id string) error {
	i := l.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := make([]types.Edit, 0, len(l.present)-1)
	next = append(next, l.present[:i]...)
	next = append(next, l.present[i+1:]...)
	l.commit(next)
	return nil
}

// Clear empties present. It reports false, and records nothing, when
// present is already empty.
func (l *Ledger) Clear() bool {
	if len(l.present) == 0 {
		return false
	}
	l.commit(nil)
	return true
}

// Undo restores the previous present. It reports false when there is
// nothing to undo.
func (l *Ledger) Undo() bool {
	if len(l.past) == 0 {
		return false
	}
	prev := l.past[len(l.past)-1]
	l.past = l.past[:len(l.past)-1]
	l.future = append(l.future, l.present)
	l.present = prev
	return true
}

// Redo re-applies the most recently undone state. It reports false when
// there is nothing to redo.
func (l *Ledger) Redo() bool {
	if len(l.future) == 0 {
		return false
	}
	next := l.future[len(l.future)-1]
	l.future = l.future[:len(l.future)-1]
	l.past = append(l.past, l.present)
	l.present = next
	return true
}

// Restore bulk-loads edits as the new present and discards all history.
// Edits with duplicate ids are dropped after their first occurrence.
func (l *Ledger) Restore(edits []types.Edit) {
	seen := make(map[string]bool, len(edits))
	present := make([]types.Edit, 0, len(edits))
	for _, e := range edits {
		if e.ID == "" || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		present = append(present, e.Clone())
	}
	l.past = nil
	l.future = nil
	l.present = present
}

// Present returns a copy of the current edits in order.
func (l *Ledger) Present() []types.Edit {
	return types.CloneEdits(l.present)
}

// Get returns the edit with the given id.
func (l *Ledger) Get(id string) (types.Edit, bool) {
	if i := l.index(id); i >= 0 {
		return l.present[i].Clone(), true
	}
	return types.Edit{}, false
}

// Len returns the number of edits in present.
func (l *Ledger) Len() int { return len(l.present) }

// CanUndo reports whether Undo would change anything.
func (l *Ledger) CanUndo() bool { return len(l.past) > 0 }

// CanRedo reports whether Redo would change anything.
func (l *Ledger) CanRedo() bool { return len(l.future) > 0 }

// Depth returns the lengths of past and future.
func (l *Ledger) Depth() (past, future int) { return len(l.past), len(l.future) }

func (l *Ledger) index(id string) int {
	for i, e := range l.present {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Diff compares two present lists by id and returns the ids that left and
// the edits that arrived, each in list order. The host uses it to tell the
// surface exactly what to revert and re-apply after a ledger change.
func Diff(before, after []types.Edit) (removed []string, added []types.Edit) {
	inAfter := make(map[string]bool, len(after))
	for _, e := range after {
		inAfter[e.ID] = true
	}
	inBefore := make(map[string]bool, len(before))
	for _, e := range before {
		inBefore[e.ID] = true
		if !inAfter[e.ID] {
			removed = append(removed, e.ID)
		}
	}
	for _, e := range after {
		if !inBefore[e.ID] {
			added = append(added, e.Clone())
		}
	}
	return removed, added
}
