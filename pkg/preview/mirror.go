package preview

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/entrhq/canvas/pkg/dom"
)

// op is one document mutation replayed in the live page. Key addresses a
// registered element and Path walks element children below it.
type op struct {
	Kind  string `json:"kind"`
	Key   int    `json:"key"`
	Path  []int  `json:"path,omitempty"`
	Name  string `json:"name,omitempty"`
	Value string `json:"value"`
	HTML  string `json:"html,omitempty"`
	Count int    `json:"count,omitempty"`
}

// mirror assigns every element of the document a key that matches its index
// in the page's node registry. Both sides register elements in document
// order, so the keys agree as long as ops are applied in the order they were
// produced.
type mirror struct {
	keys  map[*html.Node]int
	nodes []*html.Node
}

func newMirror(doc *dom.Document) *mirror {
	m := &mirror{keys: make(map[*html.Node]int)}
	m.register(doc.Root())
	return m
}

// register assigns keys to n, when it is an element, and every element
// below it in document order. It returns the number of keys assigned.
func (m *mirror) register(n *html.Node) int {
	count := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			m.keys[n] = len(m.nodes)
			m.nodes = append(m.nodes, n)
			count++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return count
}

func (m *mirror) forget(n *html.Node) {
	if key, ok := m.keys[n]; ok {
		m.nodes[key] = nil
		delete(m.keys, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		m.forget(c)
	}
}

// node returns the element registered under key.
func (m *mirror) node(key int) *html.Node {
	if key < 0 || key >= len(m.nodes) {
		return nil
	}
	return m.nodes[key]
}

// locate addresses n relative to its nearest registered ancestor.
func (m *mirror) locate(n *html.Node) (int, []int, bool) {
	var path []int
	for cur := n; cur != nil; cur = cur.Parent {
		if key, ok := m.keys[cur]; ok {
			reverse(path)
			return key, path, true
		}
		if cur.Type != html.ElementNode || cur.Parent == nil {
			return 0, nil, false
		}
		path = append(path, elementIndex(cur))
	}
	return 0, nil, false
}

func elementIndex(n *html.Node) int {
	i := 0
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			i++
		}
	}
	return i
}

func reverse(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// translate converts a mutation into the op that replays it. Inserted
// subtrees are registered here, so translate must see mutations in the
// order they happened.
func (m *mirror) translate(mu dom.Mutation) (op, error) {
	switch mu.Kind {
	case dom.MutationStyle, dom.MutationAttr, dom.MutationAttrRemove, dom.MutationText:
		key, path, ok := m.locate(mu.Node)
		if !ok {
			return op{}, fmt.Errorf("%s on unregistered <%s>", mu.Kind, dom.Tag(mu.Node))
		}
		return op{Kind: string(mu.Kind), Key: key, Path: path, Name: mu.Name, Value: mu.Value}, nil

	case dom.MutationInsert:
		key, path, ok := m.locate(mu.Node.Parent)
		if !ok {
			return op{}, fmt.Errorf("insert under unregistered parent")
		}
		var b strings.Builder
		if err := html.Render(&b, mu.Node); err != nil {
			return op{}, fmt.Errorf("render inserted node: %w", err)
		}
		return op{Kind: string(mu.Kind), Key: key, Path: path, HTML: b.String(), Count: m.register(mu.Node)}, nil

	case dom.MutationRemove:
		key, ok := m.keys[mu.Node]
		if !ok {
			return op{}, fmt.Errorf("remove of unregistered <%s>", dom.Tag(mu.Node))
		}
		m.forget(mu.Node)
		return op{Kind: string(mu.Kind), Key: key}, nil
	}
	return op{}, fmt.Errorf("unknown mutation %q", mu.Kind)
}

// applyLayout records measured boxes and computed styles on the page
// elements of doc. Measured boxes include any inline translate, which is
// subtracted so the document keeps base boxes.
func (m *mirror) applyLayout(doc *dom.Document, ms measurement) {
	doc.SetScroll(ms.ScrollX, ms.ScrollY)
	for key, nm := range ms.Nodes {
		n := m.node(key)
		if n == nil || nm == nil || dom.IsAgentOwned(n) {
			continue
		}
		tx, ty := dom.Translate(n)
		doc.SetRect(n, dom.Rect{X: nm.X - tx, Y: nm.Y - ty, W: nm.W, H: nm.H})
		if nm.Styles != nil {
			doc.SetComputed(n, nm.Styles)
		}
	}
}
