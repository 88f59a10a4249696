package dom

import "golang.org/x/net/html"

// MutationKind is the type of DOM mutation observed.
type MutationKind string

const (
	MutationStyle      MutationKind = "style"       // inline style property changed
	MutationAttr       MutationKind = "attr"        // attribute set
	MutationAttrRemove MutationKind = "attr_remove" // attribute removed
	MutationText       MutationKind = "text"        // text content replaced
	MutationInsert     MutationKind = "insert"      // node appended
	MutationRemove     MutationKind = "remove"      // node detached
)

// Mutation is a single change applied to the document.
type Mutation struct {
	Kind     MutationKind
	Node     *html.Node
	Parent   *html.Node // set for MutationRemove
	Name     string     // property or attribute name
	Value    string
	OldValue string
}

// AgentOwned reports whether the mutation touched agent chrome only.
func (m Mutation) AgentOwned() bool {
	if m.Kind == MutationRemove {
		if _, ok := Attr(m.Node, AgentAttr); ok {
			return true
		}
		return m.Parent != nil && IsAgentOwned(m.Parent)
	}
	return IsAgentOwned(m.Node)
}

// Observe registers fn for every subsequent mutation and returns a function
// that removes it.
func (d *Document) Observe(fn func(Mutation)) func() {
	id := d.nextObs
	d.nextObs++
	d.observers[id] = fn
	return func() { delete(d.observers, id) }
}

func (d *Document) notify(m Mutation) {
	for i := 0; i < d.nextObs; i++ {
		if fn, ok := d.observers[i]; ok {
			fn(m)
		}
	}
}
