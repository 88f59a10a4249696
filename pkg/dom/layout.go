package dom

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Rect is a layout box in page-absolute CSS pixels.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether the point lies inside the rect.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Empty reports whether the rect has no area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// SetRect records the base layout box for n, as captured from the renderer.
func (d *Document) SetRect(n *html.Node, r Rect) {
	d.layout[n] = r
}

// HasLayout reports whether a layout box was captured for n.
func (d *Document) HasLayout(n *html.Node) bool {
	_, ok := d.layout[n]
	return ok
}

// Rect returns the effective box of n: the captured base box shifted by an
// inline translate() and overridden by explicit pixel width/height.
func (d *Document) Rect(n *html.Node) Rect {
	r := d.layout[n]
	tx, ty := Translate(n)
	r.X += tx
	r.Y += ty
	if w, ok := pixels(Style(n, "width")); ok {
		r.W = w
	}
	if h, ok := pixels(Style(n, "height")); ok {
		r.H = h
	}
	return r
}

// ViewportRect returns Rect(n) relative to the current scroll offset.
func (d *Document) ViewportRect(n *html.Node) Rect {
	r := d.Rect(n)
	r.X -= d.scrollX
	r.Y -= d.scrollY
	return r
}

// Translate parses the inline translate() offset of n.
func Translate(n *html.Node) (float64, float64) {
	t := Style(n, "transform")
	start := strings.Index(t, "translate(")
	if start < 0 {
		return 0, 0
	}
	rest := t[start+len("translate("):]
	end := strings.Index(rest, ")")
	if end < 0 {
		return 0, 0
	}
	parts := strings.Split(rest[:end], ",")
	x, _ := pixels(parts[0])
	var y float64
	if len(parts) > 1 {
		y, _ = pixels(parts[1])
	}
	return x, y
}

// SetTranslate writes an inline translate() offset; (0,0) clears it.
func (d *Document) SetTranslate(n *html.Node, x, y float64) {
	if x == 0 && y == 0 {
		d.SetStyle(n, "transform", "")
		return
	}
	d.SetStyle(n, "transform", fmt.Sprintf("translate(%spx, %spx)", num(x), num(y)))
}

// Px formats a pixel length.
func Px(v float64) string { return num(v) + "px" }

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func pixels(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "px")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// HitTest returns the top-most page element containing the page-absolute
// point, or nil. Agent-owned subtrees and <head> are never hit.
func (d *Document) HitTest(x, y float64) *html.Node {
	return d.hit(d.root, x, y)
}

// HitTestViewport is HitTest for a viewport-relative point.
func (d *Document) HitTestViewport(x, y float64) *html.Node {
	px, py := d.ToPage(x, y)
	return d.HitTest(px, py)
}

func (d *Document) hit(n *html.Node, x, y float64) *html.Node {
	if n.Type == html.ElementNode {
		if n.DataAtom == atom.Head || IsAgentOwned(n) {
			return nil
		}
	}
	for c := n.LastChild; c != nil; c = c.PrevSibling {
		if found := d.hit(c, x, y); found != nil {
			return found
		}
	}
	if n.Type == html.ElementNode && d.HasLayout(n) && d.Rect(n).Contains(x, y) {
		return n
	}
	return nil
}
