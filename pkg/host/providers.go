package host

// StatusProvider reports whether the downstream agent can currently receive
// instructions.
type StatusProvider interface {
	AgentAvailable() bool
}

// ProjectProvider names the project whose state is being edited. The name
// namespaces the storage key.
type ProjectProvider interface {
	Project() string
}

// StatusFunc adapts a function to StatusProvider.
type StatusFunc func() bool

func (f StatusFunc) AgentAvailable() bool { return f() }

// StaticProject is a fixed project name.
type StaticProject string

func (p StaticProject) Project() string { return string(p) }

type unavailable struct{}

func (unavailable) AgentAvailable() bool { return false }
