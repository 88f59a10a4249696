// Package dom is the preview-surface document model used by the editor agent.
//
// A Document wraps a golang.org/x/net/html tree with the pieces a live page
// has and a parsed tree lacks: a layout rect per element, a computed-style
// snapshot, a scroll offset, and a mutation feed that a live renderer (see
// pkg/preview) can mirror.
package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// AgentAttr marks nodes created by the editor agent: overlays, handles,
// tooltips, menus and annotation markers. IsAgentOwned uses it to exclude
// those nodes from hit-testing, queries and snapshots.
const AgentAttr = "data-canvas-agent"

// Document is a mutable HTML document with layout information.
type Document struct {
	root     *html.Node
	layout   map[*html.Node]Rect
	computed map[*html.Node]map[string]string
	scrollX  float64
	scrollY  float64

	observers map[int]func(Mutation)
	nextObs   int
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return newDocument(root), nil
}

// ParseString parses an HTML document held in a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func newDocument(root *html.Node) *Document {
	return &Document{
		root:      root,
		layout:    make(map[*html.Node]Rect),
		computed:  make(map[*html.Node]map[string]string),
		observers: make(map[int]func(Mutation)),
	}
}

// Root returns the document node.
func (d *Document) Root() *html.Node { return d.root }

// Body returns the <body> element, or nil.
func (d *Document) Body() *html.Node {
	return findElement(d.root, atom.Body)
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// Render serialises the document, agent-owned nodes included.
func (d *Document) Render() (string, error) {
	var b strings.Builder
	if err := html.Render(&b, d.root); err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}
	return b.String(), nil
}

// Scroll returns the current scroll offset.
func (d *Document) Scroll() (x, y float64) { return d.scrollX, d.scrollY }

// SetScroll updates the scroll offset.
func (d *Document) SetScroll(x, y float64) {
	d.scrollX, d.scrollY = x, y
}

// ToPage converts a viewport point to page-absolute coordinates.
func (d *Document) ToPage(x, y float64) (float64, float64) {
	return x + d.scrollX, y + d.scrollY
}

// IsElement reports whether n is an element node.
func IsElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// IsAgentOwned reports whether n or any ancestor carries AgentAttr.
func IsAgentOwned(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		if _, ok := Attr(p, AgentAttr); ok {
			return true
		}
	}
	return false
}

// Tag returns the lower-case tag name of an element.
func Tag(n *html.Node) string {
	if !IsElement(n) {
		return ""
	}
	return strings.ToLower(n.Data)
}

// ID returns the element's id attribute.
func ID(n *html.Node) string {
	v, _ := Attr(n, "id")
	return strings.TrimSpace(v)
}

// Classes returns the element's class list in source order.
func Classes(n *html.Node) []string {
	v, _ := Attr(n, "class")
	return strings.Fields(v)
}

// Attr returns the value of an attribute.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets an attribute, emitting an attr mutation when the value changes.
func (d *Document) SetAttr(n *html.Node, key, val string) {
	old, had := Attr(n, key)
	if had && old == val {
		return
	}
	setAttr(n, key, val)
	d.notify(Mutation{Kind: MutationAttr, Node: n, Name: key, Value: val, OldValue: old})
}

// RemoveAttr deletes an attribute if present.
func (d *Document) RemoveAttr(n *html.Node, key string) {
	old, had := Attr(n, key)
	if !had {
		return
	}
	removeAttr(n, key)
	d.notify(Mutation{Kind: MutationAttrRemove, Node: n, Name: key, OldValue: old})
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}

// ParentElement returns the nearest element ancestor.
func ParentElement(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return p
		}
	}
	return nil
}

// ElementChildren returns the element children of n, agent-owned ones excluded.
func ElementChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && !IsAgentOwned(c) {
			out = append(out, c)
		}
	}
	return out
}

// Text returns the concatenated text content of n, agent-owned subtrees excluded.
func Text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			return
		}
		if c.Type == html.ElementNode && IsAgentOwned(c) {
			return
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return b.String()
}

// SetText replaces every child of n with a single text node.
func (d *Document) SetText(n *html.Node, text string) {
	old := Text(n)
	if old == text && n.FirstChild != nil && n.FirstChild == n.LastChild && n.FirstChild.Type == html.TextNode {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	d.notify(Mutation{Kind: MutationText, Node: n, Value: text, OldValue: old})
}

// CreateAgentElement builds an element tagged with AgentAttr. role names the
// agent component (e.g. "handle", "marker") and becomes the attribute value.
func CreateAgentElement(tag, role string, attrs ...html.Attribute) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	n.Attr = append(n.Attr, html.Attribute{Key: AgentAttr, Val: role})
	n.Attr = append(n.Attr, attrs...)
	return n
}

// Append adds child as the last child of parent.
func (d *Document) Append(parent, child *html.Node) {
	parent.AppendChild(child)
	d.notify(Mutation{Kind: MutationInsert, Node: child})
}

// Remove detaches n from its parent and forgets its layout. Removing a
// detached node is a no-op.
func (d *Document) Remove(n *html.Node) {
	if n == nil || n.Parent == nil {
		return
	}
	parent := n.Parent
	parent.RemoveChild(n)
	d.forget(n)
	d.notify(Mutation{Kind: MutationRemove, Node: n, Parent: parent})
}

func (d *Document) forget(n *html.Node) {
	delete(d.layout, n)
	delete(d.computed, n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.forget(c)
	}
}

// Elements returns every page element in document order, agent-owned
// subtrees excluded.
func (d *Document) Elements() []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if IsAgentOwned(n) {
				return
			}
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return out
}
