package types

// SelectionSnapshot is the cached description of the selected element.
// It is transient and never persisted.
type SelectionSnapshot struct {
	Selector string            `json:"selector"`
	Tag      string            `json:"tag"`
	ID       string            `json:"id,omitempty"`
	Classes  []string          `json:"classes,omitempty"`
	Text     string            `json:"text,omitempty"`
	Rect     Coords            `json:"rect"`
	Styles   map[string]string `json:"styles,omitempty"`
}

// Describe returns a short human-readable label such as `button#save.primary`.
func (s SelectionSnapshot) Describe() string {
	label := s.Tag
	if s.ID != "" {
		label += "#" + s.ID
	}
	for _, c := range s.Classes {
		label += "." + c
	}
	return label
}

// TreeNode is one element in a document tree snapshot.
type TreeNode struct {
	Selector string     `json:"selector"`
	Tag      string     `json:"tag"`
	ID       string     `json:"id,omitempty"`
	Classes  []string   `json:"classes,omitempty"`
	Text     string     `json:"text,omitempty"`
	Children []TreeNode `json:"children,omitempty"`
}

// Label renders the node the way the tree browser shows it.
func (n TreeNode) Label() string {
	label := n.Tag
	if n.ID != "" {
		label += "#" + n.ID
	}
	for _, c := range n.Classes {
		label += "." + c
	}
	return label
}
