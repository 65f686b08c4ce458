package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiClient calls the Gemini generateContent API with the rendered prompt text.
type GeminiClient struct {
	client   *genai.Client
	timeout  time.Duration
	defaults Options
}

func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	defaults := cfg.Defaults
	if strings.TrimSpace(defaults.Model) == "" {
		defaults.Model = defaultGeminiModel
	}
	return &GeminiClient{client: client, timeout: cfg.Timeout, defaults: defaults}, nil
}

func (c *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	opts := req.Options.merge(c.defaults)
	prompt := req.Prompt
	if strings.TrimSpace(prompt) == "" {
		prompt = flatten(req.Messages)
	}

	gc := &genai.GenerateContentConfig{}
	if opts.Temperature != nil {
		gc.Temperature = genai.Ptr(float32(*opts.Temperature))
	}
	if opts.TopP != nil {
		gc.TopP = genai.Ptr(float32(*opts.TopP))
	}
	if opts.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(opts.MaxTokens)
	}

	resp, err := c.client.Models.GenerateContent(ctx, opts.Model, genai.Text(prompt), gc)
	if err != nil {
		return "", newCompletionError(ProviderGemini, geminiStatus(err), err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", malformed(ProviderGemini)
	}
	return text, nil
}

func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	return 0
}

func flatten(messages []Message) string {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(strings.ToUpper(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
