package tui

import (
	"os"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/entrhq/canvas/pkg/bridge"
	"github.com/entrhq/canvas/pkg/dispatch"
	"github.com/entrhq/canvas/pkg/host"
	"github.com/entrhq/canvas/pkg/inspect"
	"github.com/entrhq/canvas/pkg/logging"
	"github.com/entrhq/canvas/pkg/types"
)

// Host is the controller surface the UI drives. *host.Controller
// implements it.
type Host interface {
	Edits() []types.Edit
	CanUndo() bool
	CanRedo() bool
	Undo() bool
	Redo() bool
	Remove(id string) bool
	Clear() bool

	Pins() []types.Pin
	UpdatePin(id, prompt string) bool
	RemovePin(id string) bool
	ClearPins()
	FocusedPin() string

	Pending() (host.PendingAnnotation, bool)
	ResolveAnnotation(note string) (types.Pin, bool)
	CancelAnnotation()

	Reference() (types.ReferenceImage, bool)
	SetReference(dataURL string, opacity float64)

	Selection() *types.SelectionSnapshot
	Tree() *types.TreeNode
	Connected() bool
	AgentAvailable() bool
	SetEditing(enabled bool)
	Compile() string

	OnChange(fn func(host.Change))
}

// Config wires the UI to the controller and delivery routes.
type Config struct {
	Host Host

	// Sender carries tree-browser requests to the surface.
	Sender bridge.Sender

	// Clipboard backs the copy control, Agent the send control. Either may
	// be nil, which disables the control.
	Clipboard dispatch.Dispatcher
	Agent     dispatch.Dispatcher

	Tokenizer *dispatch.Tokenizer
	MaxTokens int

	Header    string
	DiffStyle string
	Logger    logging.Sink

	// ReadFile loads reference images. Defaults to os.ReadFile.
	ReadFile func(string) ([]byte, error)
}

type pane int

const (
	paneEdits pane = iota
	panePins
)

type overlayKind int

const (
	overlayNone overlayKind = iota
	overlayDiff
	overlayTree
	overlayInstructions
	overlayAnnotation
	overlayPinEdit
	overlayReference
	overlayHelp
)

// changeMsg carries a controller state change into the update loop.
type changeMsg struct{ change host.Change }

// sentMsg reports the outcome of an asynchronous delivery.
type sentMsg struct {
	route string
	err   error
}

// model represents the state of the TUI application.
type model struct {
	cfg    Config
	host   Host
	tree   *inspect.TreeBrowser
	logger logging.Sink

	// Bubble Tea components
	view     viewport.Model
	input    textinput.Model
	renderer *glamour.TermRenderer

	pane       pane
	editCursor int
	pinCursor  int
	overlay    overlayKind
	editingPin string

	editing   bool
	tokens    int
	status    string
	statusErr bool

	width  int
	height int
}

func newModel(cfg Config) *model {
	if cfg.ReadFile == nil {
		cfg.ReadFile = os.ReadFile
	}
	if cfg.DiffStyle == "" {
		cfg.DiffStyle = inspect.DefaultStyle
	}

	input := textinput.New()
	input.CharLimit = 2000
	input.Prompt = "> "

	m := &model{
		cfg:     cfg,
		host:    cfg.Host,
		tree:    inspect.NewTreeBrowser(cfg.Sender),
		logger:  logging.OrNop(cfg.Logger),
		view:    viewport.New(80, 20),
		input:   input,
		editing: true,
		width:   100,
		height:  30,
	}
	m.recount()
	return m
}

// Init implements tea.Model.
func (m *model) Init() tea.Cmd {
	return nil
}

// recount refreshes the cached token estimate of the compiled document.
func (m *model) recount() {
	m.tokens = m.cfg.Tokenizer.Count(m.host.Compile())
}

func (m *model) setStatus(msg string) {
	m.status = msg
	m.statusErr = false
}

func (m *model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

func (m *model) clampCursors() {
	m.editCursor = clamp(m.editCursor, len(m.host.Edits()))
	m.pinCursor = clamp(m.pinCursor, len(m.host.Pins()))
}

func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
