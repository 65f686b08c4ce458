package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Provider names accepted by NewClient.
const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
	ProviderMock   = "mock"
)

// DefaultTimeout bounds a single completion call.
const DefaultTimeout = 30 * time.Second

// Message is one entry of a chat-style prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options are the sampling settings sent with a completion. A nil
// Temperature or TopP means unset; an explicit zero is a real value.
type Options struct {
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens"`
	TopP        *float64 `json:"top_p,omitempty"`
}

// Float returns a pointer to v, for Options fields.
func Float(v float64) *float64 { return &v }

// Request carries both renderings of a prompt. Text-completion backends use
// Prompt; chat backends use Messages and fall back to Prompt when it is empty.
type Request struct {
	Prompt   string    `json:"prompt"`
	Messages []Message `json:"messages,omitempty"`
	Options  Options   `json:"options"`
}

// Client produces generated text for a prompt.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config controls client construction.
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	Defaults Options
}

func NewClient(ctx context.Context, cfg Config) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	switch provider {
	case ProviderGemini:
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("gemini api key is required")
		}
		return NewGeminiClient(ctx, cfg)
	case ProviderGroq:
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("groq api key is required")
		}
		return NewGroqClient(cfg), nil
	case ProviderMock:
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

// merge fills zero-valued request options from the client defaults.
func (o Options) merge(defaults Options) Options {
	if strings.TrimSpace(o.Model) == "" {
		o.Model = defaults.Model
	}
	if o.Temperature == nil {
		o.Temperature = defaults.Temperature
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = defaults.MaxTokens
	}
	if o.TopP == nil {
		o.TopP = defaults.TopP
	}
	return o
}

// Validate checks the documented option ranges.
func (o Options) Validate() error {
	if t := o.Temperature; t != nil && (*t < 0 || *t > 1) {
		return fmt.Errorf("temperature %.2f out of range [0,1]", *t)
	}
	if p := o.TopP; p != nil && (*p < 0 || *p > 1) {
		return fmt.Errorf("top_p %.2f out of range [0,1]", *p)
	}
	if o.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be positive")
	}
	return nil
}
