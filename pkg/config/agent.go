package config

import (
	"fmt"
	"sync"
)

const (
	// SectionIDAgent is the identifier for the downstream agent section
	SectionIDAgent = "agent"

	// DefaultMaxPromptTokens is the token budget warned about before sending.
	DefaultMaxPromptTokens = 8000
)

// AgentSection configures the downstream coding agent the compiled
// instructions are delivered to.
type AgentSection struct {
	Model           string
	BaseURL         string
	APIKey          string
	MaxPromptTokens int
	mu              sync.RWMutex
}

// NewAgentSection creates a new agent section with default settings.
func NewAgentSection() *AgentSection {
	return &AgentSection{MaxPromptTokens: DefaultMaxPromptTokens}
}

// ID returns the section identifier.
func (s *AgentSection) ID() string {
	return SectionIDAgent
}

// Title returns the section title.
func (s *AgentSection) Title() string {
	return "Agent Settings"
}

// Description returns the section description.
func (s *AgentSection) Description() string {
	return "Configure the OpenAI-compatible endpoint that receives compiled edit instructions: model, base_url, api_key and the max_prompt_tokens warning budget."
}

// Data returns the current configuration data.
func (s *AgentSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"model":             s.Model,
		"base_url":          s.BaseURL,
		"api_key":           s.APIKey,
		"max_prompt_tokens": s.MaxPromptTokens,
	}
}

// SetData updates the configuration from the provided data.
func (s *AgentSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if model, ok := data["model"].(string); ok {
		s.Model = model
	}
	if baseURL, ok := data["base_url"].(string); ok {
		s.BaseURL = baseURL
	}
	if apiKey, ok := data["api_key"].(string); ok {
		s.APIKey = apiKey
	}
	if n, ok := number(data["max_prompt_tokens"]); ok {
		s.MaxPromptTokens = int(n)
	}
	return nil
}

// Validate validates the current configuration. Credentials are optional;
// without them chat delivery reports itself unavailable.
func (s *AgentSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.MaxPromptTokens < 0 {
		return fmt.Errorf("max_prompt_tokens must not be negative, got %d", s.MaxPromptTokens)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *AgentSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Model = ""
	s.BaseURL = ""
	s.APIKey = ""
	s.MaxPromptTokens = DefaultMaxPromptTokens
}

// GetModel returns the configured model name.
func (s *AgentSection) GetModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Model
}

// GetBaseURL returns the configured base URL.
func (s *AgentSection) GetBaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.BaseURL
}

// GetAPIKey returns the configured API key.
func (s *AgentSection) GetAPIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.APIKey
}

// GetMaxPromptTokens returns the prompt token budget.
func (s *AgentSection) GetMaxPromptTokens() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.MaxPromptTokens
}
