package compiler

import (
	"fmt"
	"strconv"

	"github.com/entrhq/canvas/pkg/types"
)

// change renders the type-specific before/after line.
func change(e types.Edit) string {
	switch e.Type {
	case types.EditTypeMove:
		return fmt.Sprintf("translate by (%s, %s) px",
			num(e.To.Float(types.KeyDeltaX)), num(e.To.Float(types.KeyDeltaY)))
	case types.EditTypeResize:
		return fmt.Sprintf("size %sx%s -> %sx%s",
			num(e.From.Float(types.KeyWidth)), num(e.From.Float(types.KeyHeight)),
			num(e.To.Float(types.KeyWidth)), num(e.To.Float(types.KeyHeight)))
	case types.EditTypeRecolor, types.EditTypeRefont, types.EditTypeEffect:
		if attr := e.To.String(types.KeyAttribute); attr != "" {
			return fmt.Sprintf("attribute %s: %s -> %s", attr,
				strconv.Quote(e.From.String(types.KeyValue)), strconv.Quote(e.To.String(types.KeyValue)))
		}
		return fmt.Sprintf("%s: %s -> %s", e.To.String(types.KeyProperty),
			orUnset(e.From.String(types.KeyValue)), orUnset(e.To.String(types.KeyValue)))
	case types.EditTypeRetext:
		return fmt.Sprintf("text: %s -> %s",
			strconv.Quote(e.From.String(types.KeyText)), strconv.Quote(e.To.String(types.KeyText)))
	case types.EditTypeAddHere:
		return "add: " + oneLine(e.To.String(types.KeyNote))
	case types.EditTypeMarkError:
		return "defect: " + oneLine(e.To.String(types.KeyNote))
	case types.EditTypeAnnotate:
		return "note: " + oneLine(e.To.String(types.KeyNote))
	}
	return oneLine(e.Desc)
}

// criterion renders exactly one acceptance criterion from a fixed template
// per edit type.
func criterion(e types.Edit) string {
	sel := target(e.Selector)
	switch e.Type {
	case types.EditTypeMove:
		return fmt.Sprintf("%s renders offset by (%s, %s) px from its original position",
			sel, num(e.To.Float(types.KeyDeltaX)), num(e.To.Float(types.KeyDeltaY)))
	case types.EditTypeResize:
		return fmt.Sprintf("rendered size of %s is %sx%s px",
			sel, num(e.To.Float(types.KeyWidth)), num(e.To.Float(types.KeyHeight)))
	case types.EditTypeRecolor, types.EditTypeRefont, types.EditTypeEffect:
		if attr := e.To.String(types.KeyAttribute); attr != "" {
			return fmt.Sprintf("attribute %s of %s equals %s", attr, sel, strconv.Quote(e.To.String(types.KeyValue)))
		}
		prop := e.To.String(types.KeyProperty)
		if v := e.To.String(types.KeyValue); v != "" {
			return fmt.Sprintf("computed %s of %s equals %s", prop, sel, v)
		}
		return fmt.Sprintf("%s is no longer set on %s", prop, sel)
	case types.EditTypeRetext:
		return fmt.Sprintf("text content of %s equals %s", sel, strconv.Quote(e.To.String(types.KeyText)))
	case types.EditTypeAddHere:
		return fmt.Sprintf("new content exists at (%s, %s) near %s", num(e.Coords.X), num(e.Coords.Y), sel)
	case types.EditTypeMarkError:
		return fmt.Sprintf("the issue at (%s, %s) near %s is resolved", num(e.Coords.X), num(e.Coords.Y), sel)
	case types.EditTypeAnnotate:
		return fmt.Sprintf("the note on %s is addressed", sel)
	}
	return fmt.Sprintf("%s reflects the requested change", sel)
}
