package preview

import (
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/canvas/pkg/dom"
	"github.com/entrhq/canvas/pkg/logging"
	"github.com/entrhq/canvas/pkg/surface"
)

// eventQueueSize bounds input waiting for the agent. A full queue drops
// events rather than stalling the page.
const eventQueueSize = 256

// Session is one browser page rendering the previewed project.
type Session struct {
	Browser playwright.Browser
	Context playwright.BrowserContext
	Page    playwright.Page

	CurrentURL string
	CreatedAt  time.Time

	logger logging.Sink

	mu      sync.Mutex
	doc     *dom.Document
	mirror  *mirror
	pending []op
	editing bool

	agent     *surface.Agent
	events    chan Event
	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(browser playwright.Browser, context playwright.BrowserContext, page playwright.Page, logger logging.Sink) *Session {
	return &Session{
		Browser:    browser,
		Context:    context,
		Page:       page,
		CurrentURL: "about:blank",
		CreatedAt:  time.Now(),
		logger:     logger,
		editing:    true,
		events:     make(chan Event, eventQueueSize),
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

func (s *Session) navigate(url string, opts Options) error {
	waitUntil := playwright.WaitUntilState(opts.WaitUntil)
	if _, err := s.Page.Goto(url, playwright.PageGotoOptions{WaitUntil: &waitUntil}); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	s.CurrentURL = s.Page.URL()

	if _, err := s.Page.Evaluate(runtimeScript); err != nil {
		return fmt.Errorf("install page runtime: %w", err)
	}
	return s.capture()
}

// capture builds the document model from the loaded page.
func (s *Session) capture() error {
	res, err := s.Page.Evaluate(captureScript, surface.SnapshotStyles())
	if err != nil {
		return fmt.Errorf("capture layout: %w", err)
	}
	var ms measurement
	if err := decodeResult(res, &ms); err != nil {
		return fmt.Errorf("decode layout: %w", err)
	}
	content, err := s.Page.Content()
	if err != nil {
		return fmt.Errorf("read page content: %w", err)
	}
	doc, err := dom.ParseString(content)
	if err != nil {
		return fmt.Errorf("parse page content: %w", err)
	}

	m := newMirror(doc)
	if len(m.nodes) != len(ms.Nodes) {
		s.logger.Warnf("preview: parsed %d elements but page reported %d", len(m.nodes), len(ms.Nodes))
	}
	m.applyLayout(doc, ms)

	s.mu.Lock()
	s.doc = doc
	s.mirror = m
	s.mu.Unlock()
	doc.Observe(s.record)
	return nil
}

// Document returns the captured document. Mutations made to it are
// replayed in the page.
func (s *Session) Document() *dom.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

func (s *Session) record(mu dom.Mutation) {
	s.mu.Lock()
	o, err := s.mirror.translate(mu)
	if err != nil {
		s.mu.Unlock()
		s.logger.Debugf("preview: skip mutation: %v", err)
		return
	}
	s.pending = append(s.pending, o)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Attach starts forwarding page input to agent, which must have been
// created over Document().
func (s *Session) Attach(agent *surface.Agent) error {
	s.mu.Lock()
	if s.agent != nil {
		s.mu.Unlock()
		return fmt.Errorf("preview session already attached")
	}
	s.agent = agent
	s.mu.Unlock()

	err := s.Page.ExposeBinding(bindingName, func(_ *playwright.BindingSource, args ...interface{}) interface{} {
		if len(args) == 0 {
			return nil
		}
		ev, ok := parseEvent(args[0])
		if !ok {
			return nil
		}
		select {
		case s.events <- ev:
		default:
			s.logger.Debugf("preview: input queue full, dropped %s", ev.Type)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("expose input binding: %w", err)
	}
	go s.run()
	return nil
}

func (s *Session) run() {
	s.flush(false)
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.events:
			s.flush(deliver(s.agent, ev))
		case <-s.wake:
			s.flush(false)
		}
	}
}

// flush replays pending ops in the page, keeps the page's input capture in
// step with the agent's editing switch, and re-measures layout when
// anything visible changed.
func (s *Session) flush(relayout bool) {
	s.mu.Lock()
	ops := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, o := range ops {
		var arg map[string]any
		if err := decodeResult(o, &arg); err != nil {
			continue
		}
		if _, err := s.Page.Evaluate(applyScript, arg); err != nil {
			s.logger.Warnf("preview: apply %s: %v", o.Kind, err)
			continue
		}
		relayout = true
	}

	if enabled := s.agent.Enabled(); enabled != s.editing {
		if _, err := s.Page.Evaluate(editingScript, enabled); err != nil {
			s.logger.Warnf("preview: toggle editing: %v", err)
		} else {
			s.editing = enabled
		}
	}

	if relayout {
		if err := s.Sync(); err != nil {
			s.logger.Warnf("preview: %v", err)
		}
	}
}

// Sync re-measures every registered element and refreshes the document's
// layout boxes, computed styles and scroll offset.
func (s *Session) Sync() error {
	res, err := s.Page.Evaluate(measureScript, surface.SnapshotStyles())
	if err != nil {
		return fmt.Errorf("measure layout: %w", err)
	}
	var ms measurement
	if err := decodeResult(res, &ms); err != nil {
		return fmt.Errorf("decode layout: %w", err)
	}
	apply := func(doc *dom.Document) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.mirror.applyLayout(doc, ms)
	}
	if s.agent != nil {
		s.agent.Update(apply)
	} else {
		apply(s.Document())
	}
	return nil
}

// Close stops input forwarding and closes the page and its browser.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.Page.Close()
		_ = s.Context.Close()
		_ = s.Browser.Close()
	})
}
