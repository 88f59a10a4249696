package preview

import (
	"github.com/entrhq/canvas/pkg/surface"
)

// Event is an input event captured in the live page. Coordinates are
// viewport-relative except for scroll, which carries the new offset.
type Event struct {
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button int     `json:"button"`
	Key    string  `json:"key"`
	Text   string  `json:"text"`
}

// Target receives forwarded input. *surface.Agent implements it.
type Target interface {
	PointerDown(x, y float64, button surface.Button) bool
	PointerMove(x, y float64)
	PointerUp(x, y float64)
	DoubleClick(x, y float64) bool
	Key(key string)
	Input(text string)
	Scroll(x, y float64)
}

// parseEvent decodes a binding argument.
func parseEvent(arg any) (Event, bool) {
	var ev Event
	if err := decodeResult(arg, &ev); err != nil || ev.Type == "" {
		return Event{}, false
	}
	return ev, true
}

// deliver hands ev to t. It reports whether the event can change layout.
func deliver(t Target, ev Event) bool {
	switch ev.Type {
	case "down":
		button := surface.ButtonPrimary
		if ev.Button == 2 {
			button = surface.ButtonSecondary
		}
		t.PointerDown(ev.X, ev.Y, button)
		return false
	case "move":
		t.PointerMove(ev.X, ev.Y)
		return false
	case "up":
		t.PointerUp(ev.X, ev.Y)
		return true
	case "dblclick":
		t.DoubleClick(ev.X, ev.Y)
		return false
	case "key":
		t.Key(ev.Key)
		return true
	case "input":
		t.Input(ev.Text)
		return true
	case "scroll":
		t.Scroll(ev.X, ev.Y)
		return false
	}
	return false
}
