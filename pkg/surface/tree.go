package surface

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/entrhq/canvas/pkg/dom"
	"github.com/entrhq/canvas/pkg/types"
)

// Tree returns a snapshot of the page element hierarchy rooted at <body>,
// capped at the configured depth and excluding agent-owned nodes.
func (a *Agent) Tree() *types.TreeNode {
	a.mu.Lock()
	defer a.unlockAndFlush()
	return a.tree()
}

func (a *Agent) tree() *types.TreeNode {
	root := a.doc.Body()
	if root == nil {
		return nil
	}
	node := a.treeNode(root, 1)
	return &node
}

func (a *Agent) treeNode(n *html.Node, depth int) types.TreeNode {
	node := types.TreeNode{
		Selector: a.selectors.Build(a.doc, n),
		Tag:      dom.Tag(n),
		ID:       dom.ID(n),
		Classes:  dom.Classes(n),
		Text:     excerpt(ownText(n), a.cfg.MaxTextExcerpt),
	}
	if depth >= a.cfg.TreeDepth {
		return node
	}
	for _, c := range dom.ElementChildren(n) {
		if c.DataAtom == atom.Script || c.DataAtom == atom.Style || c.DataAtom == atom.Noscript {
			continue
		}
		node.Children = append(node.Children, a.treeNode(c, depth+1))
	}
	return node
}

// ownText returns only the text nodes directly under n.
func ownText(n *html.Node) string {
	var s string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			s += c.Data
		}
	}
	return s
}
