package config

import (
	"fmt"
	"sync"

	"github.com/gobwas/glob"

	"github.com/entrhq/canvas/pkg/surface"
)

const (
	// SectionIDEditor is the identifier for the editor settings section
	SectionIDEditor = "editor"
)

// EditorSection configures the in-surface editor agent.
type EditorSection struct {
	DragThreshold      float64
	StableClassExclude []string
	MaxTextExcerpt     int
	MaxClassesPerLevel int
	mu                 sync.RWMutex
}

// NewEditorSection creates an editor section with the agent defaults.
func NewEditorSection() *EditorSection {
	s := &EditorSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *EditorSection) ID() string {
	return SectionIDEditor
}

// Title returns the section title.
func (s *EditorSection) Title() string {
	return "Editor Settings"
}

// Description returns the section description.
func (s *EditorSection) Description() string {
	return "Tune the visual editor: drag commit threshold in pixels, class-name glob patterns never used in selectors, and selection snapshot limits."
}

// Data returns the current configuration data.
func (s *EditorSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"drag_threshold_px":     s.DragThreshold,
		"stable_class_exclude":  append([]string(nil), s.StableClassExclude...),
		"max_text_excerpt":      s.MaxTextExcerpt,
		"max_classes_per_level": s.MaxClassesPerLevel,
	}
}

// SetData updates the configuration from the provided data. Missing keys
// keep their current value.
func (s *EditorSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := number(data["drag_threshold_px"]); ok {
		s.DragThreshold = v
	}
	if v, ok := number(data["max_text_excerpt"]); ok {
		s.MaxTextExcerpt = int(v)
	}
	if v, ok := number(data["max_classes_per_level"]); ok {
		s.MaxClassesPerLevel = int(v)
	}
	if raw, exists := data["stable_class_exclude"]; exists {
		patterns, err := stringList(raw)
		if err != nil {
			return fmt.Errorf("stable_class_exclude: %w", err)
		}
		s.StableClassExclude = patterns
	}
	return nil
}

// Validate validates the current configuration.
func (s *EditorSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.DragThreshold <= 0 {
		return fmt.Errorf("drag_threshold_px must be positive, got %v", s.DragThreshold)
	}
	if s.MaxTextExcerpt <= 0 {
		return fmt.Errorf("max_text_excerpt must be positive, got %d", s.MaxTextExcerpt)
	}
	if s.MaxClassesPerLevel <= 0 {
		return fmt.Errorf("max_classes_per_level must be positive, got %d", s.MaxClassesPerLevel)
	}
	for _, p := range s.StableClassExclude {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("invalid class pattern %q: %w", p, err)
		}
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *EditorSection) Reset() {
	d := surface.DefaultConfig()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DragThreshold = d.DragThreshold
	s.StableClassExclude = d.StableClassExclude
	s.MaxTextExcerpt = d.MaxTextExcerpt
	s.MaxClassesPerLevel = d.MaxClassesPerLevel
}

// SurfaceConfig returns the agent configuration for the given UI language.
func (s *EditorSection) SurfaceConfig(lang string) surface.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := surface.DefaultConfig()
	cfg.DragThreshold = s.DragThreshold
	cfg.StableClassExclude = append([]string(nil), s.StableClassExclude...)
	cfg.MaxTextExcerpt = s.MaxTextExcerpt
	cfg.MaxClassesPerLevel = s.MaxClassesPerLevel
	if lang != "" {
		cfg.Language = lang
	}
	return cfg
}

// number accepts the numeric shapes JSON decoding and Go callers produce.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func stringList(v any) ([]string, error) {
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...), nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", item)
			}
			out = append(out, str)
		}
		return out, nil
	case nil:
		return []string{}, nil
	}
	return nil, fmt.Errorf("expected list, got %T", v)
}
