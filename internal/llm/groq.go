package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// GroqBaseURL is Groq's OpenAI-compatible API root.
	GroqBaseURL      = "https://api.groq.com/openai/v1"
	defaultGroqModel = "llama-3.3-70b-versatile"

	// groqZeroSampling stands in for 0, which go-openai omits from the request
	// body. Groq itself converts a temperature of 0 to 1e-8.
	groqZeroSampling = 1e-8
)

// GroqClient calls Groq's chat completions endpoint with structured messages.
type GroqClient struct {
	client   *openai.Client
	timeout  time.Duration
	defaults Options
}

func NewGroqClient(cfg Config) *GroqClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = GroqBaseURL
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		oc.BaseURL = strings.TrimRight(base, "/")
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	defaults := cfg.Defaults
	if strings.TrimSpace(defaults.Model) == "" {
		defaults.Model = defaultGroqModel
	}
	return &GroqClient{
		client:   openai.NewClientWithConfig(oc),
		timeout:  cfg.Timeout,
		defaults: defaults,
	}
}

func (c *GroqClient) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	opts := req.Options.merge(c.defaults)
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       opts.Model,
		Messages:    chatMessages(req),
		Temperature: groqSampling(opts.Temperature),
		MaxTokens:   opts.MaxTokens,
		TopP:        groqSampling(opts.TopP),
	})
	if err != nil {
		return "", newCompletionError(ProviderGroq, groqStatus(err), err)
	}
	if len(resp.Choices) == 0 {
		return "", malformed(ProviderGroq)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", malformed(ProviderGroq)
	}
	return text, nil
}

// groqSampling maps an unset value to 0 (omitted, provider default) and an
// explicit 0 to groqZeroSampling so it is sent.
func groqSampling(v *float64) float32 {
	switch {
	case v == nil:
		return 0
	case *v == 0:
		return groqZeroSampling
	default:
		return float32(*v)
	}
}

func chatMessages(req Request) []openai.ChatCompletionMessage {
	if len(req.Messages) == 0 {
		return []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: req.Prompt}}
	}
	out := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

func groqStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
