package surface

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/net/html"

	"github.com/entrhq/canvas/pkg/dom"
)

var cssIdent = regexp.MustCompile(`^-?[_a-zA-Z][_a-zA-Z0-9-]*$`)

// SelectorBuilder synthesises deterministic, human-readable CSS paths.
type SelectorBuilder struct {
	exclude    []glob.Glob
	maxClasses int
}

// NewSelectorBuilder compiles the exclusion patterns.
func NewSelectorBuilder(exclude []string, maxClasses int) (*SelectorBuilder, error) {
	b := &SelectorBuilder{maxClasses: maxClasses}
	for _, pattern := range exclude {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid class exclusion pattern %q: %w", pattern, err)
		}
		b.exclude = append(b.exclude, g)
	}
	return b, nil
}

// Stable reports whether a class name or id is safe to use in a selector:
// a plain CSS identifier that no exclusion pattern matches.
func (b *SelectorBuilder) Stable(name string) bool {
	if !cssIdent.MatchString(name) {
		return false
	}
	for _, g := range b.exclude {
		if g.Match(name) {
			return false
		}
	}
	return true
}

// Build returns the shortest ancestor path that matches exactly n.
//
// A stable, unique id wins outright. Otherwise segments are added one
// ancestor at a time, each made of the tag and up to maxClasses stable
// classes, plus :nth-child when same-tag siblings exist and the plain
// segment is ambiguous. The walk stops at the first unique path or at an
// ancestor with a stable unique id.
func (b *SelectorBuilder) Build(doc *dom.Document, n *html.Node) string {
	if !dom.IsElement(n) {
		return ""
	}
	if id := b.stableID(doc, n); id != "" {
		return id
	}

	var parts []string
	for cur := n; cur != nil; cur = dom.ParentElement(cur) {
		base, indexed := b.segments(cur)
		for _, seg := range []string{base, indexed} {
			if seg == "" {
				continue
			}
			path := strings.Join(append([]string{seg}, parts...), " > ")
			if doc.Unique(path, n) {
				return path
			}
		}
		if indexed != "" {
			base = indexed
		}
		parts = append([]string{base}, parts...)
		path := strings.Join(parts, " > ")

		parent := dom.ParentElement(cur)
		if parent == nil {
			return path
		}
		if id := b.stableID(doc, parent); id != "" {
			anchored := id + " > " + path
			if doc.Unique(anchored, n) {
				return anchored
			}
		}
	}
	return strings.Join(parts, " > ")
}

func (b *SelectorBuilder) stableID(doc *dom.Document, n *html.Node) string {
	id := dom.ID(n)
	if id == "" || !b.Stable(id) {
		return ""
	}
	sel := "#" + id
	if !doc.Unique(sel, n) {
		return ""
	}
	return sel
}

// segments returns the tag-and-class segment for n and, when same-tag
// siblings exist, the same segment with an :nth-child disambiguator.
func (b *SelectorBuilder) segments(n *html.Node) (base, indexed string) {
	var sb strings.Builder
	sb.WriteString(dom.Tag(n))

	added := 0
	for _, class := range dom.Classes(n) {
		if added == b.maxClasses {
			break
		}
		if b.Stable(class) {
			sb.WriteString("." + class)
			added++
		}
	}
	base = sb.String()

	if index, shared := siblingIndex(n); shared {
		indexed = fmt.Sprintf("%s:nth-child(%d)", base, index)
	}
	return base, indexed
}

// siblingIndex returns n's 1-based position among its element siblings and
// whether any sibling shares its tag.
func siblingIndex(n *html.Node) (int, bool) {
	if n.Parent == nil {
		return 1, false
	}
	index, pos := 0, 0
	shared := false
	for c := n.Parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		pos++
		if c == n {
			index = pos
			continue
		}
		if c.Data == n.Data && !dom.IsAgentOwned(c) {
			shared = true
		}
	}
	return index, shared
}
