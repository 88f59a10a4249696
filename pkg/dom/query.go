package dom

import (
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Query returns the page elements matching a CSS selector. An invalid
// selector matches nothing. Agent-owned nodes are never returned.
func (d *Document) Query(selector string) []*html.Node {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil
	}
	var out []*html.Node
	for _, n := range sel.MatchAll(d.root) {
		if !IsAgentOwned(n) {
			out = append(out, n)
		}
	}
	return out
}

// QueryFirst returns the first match for selector, or nil.
func (d *Document) QueryFirst(selector string) *html.Node {
	matches := d.Query(selector)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// Unique reports whether selector matches exactly the element n.
func (d *Document) Unique(selector string, n *html.Node) bool {
	matches := d.Query(selector)
	return len(matches) == 1 && matches[0] == n
}
