// Package preview renders the previewed page in a real Chromium instance
// driven by Playwright, and keeps it in step with the editor agent's
// document model. It captures layout boxes and computed styles from the
// live page, mirrors every document mutation back into it, and forwards
// the operator's pointer and keyboard input to the agent.
package preview

import (
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/canvas/pkg/logging"
)

// Default values for preview sessions.
const (
	DefaultTimeout        = 30000.0 // milliseconds
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
)

// Viewport is the browser window size in CSS pixels.
type Viewport struct {
	Width  int
	Height int
}

// Options configures a preview session.
type Options struct {
	// Headless controls whether the browser runs without a visible window.
	Headless bool

	// Viewport sets the initial viewport size.
	Viewport *Viewport

	// Timeout sets the default timeout for page operations (in milliseconds).
	Timeout float64

	// WaitUntil is the navigation lifecycle event to wait for
	// ("load", "domcontentloaded", "networkidle").
	WaitUntil string
}

// Manager owns the Playwright driver and the sessions opened on it.
type Manager struct {
	mu          sync.Mutex
	playwright  *playwright.Playwright
	sessions    []*Session
	logger      logging.Sink
	initialized bool
}

// NewManager creates a manager. Initialize must be called before Open.
func NewManager(logger logging.Sink) *Manager {
	return &Manager{logger: logging.OrNop(logger)}
}

// Initialize installs and starts the Playwright driver.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	// Driver output would corrupt the terminal UI.
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}
	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	m.playwright = pw
	m.initialized = true
	return nil
}

// Open launches a browser, navigates to url and captures the page into a
// document model.
func (m *Manager) Open(url string, opts Options) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil, fmt.Errorf("preview manager not initialized")
	}
	opts = opts.withDefaults()

	browser, err := m.playwright.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
	})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}
	page, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(opts.Timeout)

	s := newSession(browser, context, page, m.logger)
	if err := s.navigate(url, opts); err != nil {
		s.Close()
		return nil, err
	}
	m.sessions = append(m.sessions, s)
	return s, nil
}

// Shutdown closes all sessions and stops Playwright.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.sessions {
		s.Close()
	}
	m.sessions = nil

	if m.initialized && m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
		m.initialized = false
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.Viewport == nil {
		o.Viewport = &Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	if o.WaitUntil == "" {
		o.WaitUntil = "load"
	}
	return o
}
