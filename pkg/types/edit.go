package types

import (
	"encoding/json"
	"strconv"
)

// EditType defines the kind of change an edit record describes.
type EditType string

const (
	EditTypeMove      EditType = "move"       // EditTypeMove translates an element by a pixel delta.
	EditTypeResize    EditType = "resize"     // EditTypeResize sets explicit element dimensions.
	EditTypeRecolor   EditType = "recolor"    // EditTypeRecolor changes a text, background or border color.
	EditTypeRefont    EditType = "refont"     // EditTypeRefont changes a font property.
	EditTypeEffect    EditType = "effect"     // EditTypeEffect changes a visual effect property or attribute.
	EditTypeRetext    EditType = "retext"     // EditTypeRetext replaces an element's text content.
	EditTypeAddHere   EditType = "add_here"   // EditTypeAddHere requests new content at a location.
	EditTypeMarkError EditType = "mark_error" // EditTypeMarkError flags a visual defect at a location.
	EditTypeAnnotate  EditType = "annotate"   // EditTypeAnnotate attaches a free-text note to a location.
)

// ViewportSelector is the sentinel selector used when an edit targets the
// viewport rather than a specific element.
const ViewportSelector = "viewport"

// AllEditTypes lists every edit type in canonical order.
var AllEditTypes = []EditType{
	EditTypeMove,
	EditTypeResize,
	EditTypeRecolor,
	EditTypeRefont,
	EditTypeEffect,
	EditTypeRetext,
	EditTypeAddHere,
	EditTypeMarkError,
	EditTypeAnnotate,
}

// Valid reports whether t is a known edit type.
func (t EditType) Valid() bool {
	for _, known := range AllEditTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsAnnotation reports whether the edit is rendered as a surface marker
// rather than a mutation of page content.
func (t EditType) IsAnnotation() bool {
	return t == EditTypeAddHere || t == EditTypeMarkError || t == EditTypeAnnotate
}

// Coords holds page-absolute geometry in CSS pixels.
type Coords struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Snapshot is a plain serializable before/after state whose keys depend on
// the edit type.
type Snapshot map[string]any

// Clone returns a shallow copy of the snapshot. Values are scalars.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// String returns the value for key formatted as a string.
func (s Snapshot) String(key string) string {
	v, ok := s[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	default:
		if f, ok := toFloat(v); ok {
			return FormatNumber(f)
		}
		b, _ := json.Marshal(v)
		return string(b)
	}
}

// Float returns the numeric value stored at key, or 0.
func (s Snapshot) Float(key string) float64 {
	f, _ := toFloat(s[key])
	return f
}

// Has reports whether key is present.
func (s Snapshot) Has(key string) bool {
	_, ok := s[key]
	return ok
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// FormatNumber renders a float without trailing zeros, so 40 prints as "40"
// and 12.5 as "12.5".
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Edit is an atomic, typed, revertible change record.
//
// Edits are immutable once created: reverting one produces a rollback on the
// surface, never a mutation of the record.
type Edit struct {
	ID       string   `json:"id"`
	Type     EditType `json:"type"`
	Selector string   `json:"selector"`
	Desc     string   `json:"desc"`
	Coords   Coords   `json:"coords"`
	From     Snapshot `json:"from"`
	To       Snapshot `json:"to"`
}

// Clone returns a copy that shares no mutable state with e.
func (e Edit) Clone() Edit {
	e.From = e.From.Clone()
	e.To = e.To.Clone()
	return e
}

// TargetsViewport reports whether the edit uses the viewport sentinel.
func (e Edit) TargetsViewport() bool {
	return e.Selector == "" || e.Selector == ViewportSelector
}

// CloneEdits deep-copies a slice of edits.
func CloneEdits(edits []Edit) []Edit {
	if edits == nil {
		return nil
	}
	out := make([]Edit, len(edits))
	for i, e := range edits {
		out[i] = e.Clone()
	}
	return out
}
