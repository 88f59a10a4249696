package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o"

	systemPrompt = "You are a coding agent. The user message is a phased list of visual edits made in a live preview. " +
		"Apply them to the project source following its Execution Policy. Reply with a short report per step."
)

// ChatConfig configures the OpenAI-compatible chat dispatcher.
type ChatConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// Chat posts the document as a user message to an OpenAI-compatible chat
// completions endpoint and keeps the agent's reply.
type Chat struct {
	client openai.Client
	model  string
	hasKey bool

	mu    sync.Mutex
	reply string
}

// NewChat builds a chat dispatcher. An empty APIKey or BaseURL falls back
// to OPENAI_API_KEY and OPENAI_BASE_URL.
func NewChat(cfg ChatConfig) *Chat {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(1)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &Chat{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		hasKey: cfg.APIKey != "",
	}
}

func (c *Chat) Name() string { return "chat" }

// Available is false until an API key is configured.
func (c *Chat) Available() bool { return c.hasKey }

// Deliver sends doc and records the reply.
func (c *Chat) Deliver(ctx context.Context, doc string) error {
	if !c.hasKey {
		return ErrUnsupported
	}
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(doc),
		},
	})
	if err != nil {
		return fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return errors.New("chat completion: empty response")
	}

	c.mu.Lock()
	c.reply = resp.Choices[0].Message.Content
	c.mu.Unlock()
	return nil
}

// Reply returns the content of the last successful completion.
func (c *Chat) Reply() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reply
}
