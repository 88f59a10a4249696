package dom

import (
	"strings"

	"golang.org/x/net/html"
)

type declaration struct {
	prop  string
	value string
}

// parseStyle splits an inline style attribute into ordered declarations.
// Semicolons inside parentheses (url(), rgb()) do not terminate a value.
func parseStyle(s string) []declaration {
	var decls []declaration
	depth := 0
	start := 0
	flush := func(end int) {
		part := strings.TrimSpace(s[start:end])
		start = end + 1
		if part == "" {
			return
		}
		idx := strings.Index(part, ":")
		if idx <= 0 {
			return
		}
		prop := strings.ToLower(strings.TrimSpace(part[:idx]))
		value := strings.TrimSpace(part[idx+1:])
		for i, d := range decls {
			if d.prop == prop {
				decls[i].value = value
				return
			}
		}
		decls = append(decls, declaration{prop: prop, value: value})
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ';':
			if depth == 0 {
				flush(i)
			}
		}
	}
	flush(len(s))
	return decls
}

func formatStyle(decls []declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.prop+": "+d.value)
	}
	return strings.Join(parts, "; ")
}

// Style returns the inline value of a CSS property, or "".
func Style(n *html.Node, prop string) string {
	raw, _ := Attr(n, "style")
	prop = strings.ToLower(prop)
	for _, d := range parseStyle(raw) {
		if d.prop == prop {
			return d.value
		}
	}
	return ""
}

// InlineStyles returns all inline declarations as a map.
func InlineStyles(n *html.Node) map[string]string {
	raw, _ := Attr(n, "style")
	out := make(map[string]string)
	for _, d := range parseStyle(raw) {
		out[d.prop] = d.value
	}
	return out
}

// SetStyle sets an inline CSS property. An empty value removes it, and an
// emptied style attribute is dropped entirely.
func (d *Document) SetStyle(n *html.Node, prop, value string) {
	prop = strings.ToLower(strings.TrimSpace(prop))
	value = strings.TrimSpace(value)
	raw, _ := Attr(n, "style")
	decls := parseStyle(raw)

	old := ""
	idx := -1
	for i, decl := range decls {
		if decl.prop == prop {
			old = decl.value
			idx = i
			break
		}
	}
	if old == value {
		return
	}

	switch {
	case value == "" && idx >= 0:
		decls = append(decls[:idx], decls[idx+1:]...)
	case idx >= 0:
		decls[idx].value = value
	default:
		decls = append(decls, declaration{prop: prop, value: value})
	}

	if len(decls) == 0 {
		removeAttr(n, "style")
	} else {
		setAttr(n, "style", formatStyle(decls))
	}
	d.notify(Mutation{Kind: MutationStyle, Node: n, Name: prop, Value: value, OldValue: old})
}

// SetComputed records the computed-style snapshot captured for n.
func (d *Document) SetComputed(n *html.Node, styles map[string]string) {
	cp := make(map[string]string, len(styles))
	for k, v := range styles {
		cp[strings.ToLower(k)] = v
	}
	d.computed[n] = cp
}

// Computed returns the effective value of prop: the inline value when set,
// otherwise the captured computed value, otherwise "".
func (d *Document) Computed(n *html.Node, prop string) string {
	prop = strings.ToLower(prop)
	if v := Style(n, prop); v != "" {
		return v
	}
	return d.computed[n][prop]
}
