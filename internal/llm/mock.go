package llm

import (
	"context"
	"fmt"
	"strings"
)

// MockClient returns deterministic replies for local runs without an API key.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (c *MockClient) Complete(ctx context.Context, req Request) (string, error) {
	select {
	case <-ctx.Done():
		return "", newCompletionError(ProviderMock, 0, ctx.Err())
	default:
	}

	base := lastUserContent(req)
	if base == "" {
		base = "..."
	}
	return fmt.Sprintf("echo: %s", base), nil
}

func lastUserContent(req Request) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			return strings.TrimSpace(req.Messages[i].Content)
		}
	}
	prompt := strings.TrimSpace(req.Prompt)
	if idx := strings.LastIndex(prompt, "USER: "); idx >= 0 {
		line := prompt[idx+len("USER: "):]
		if nl := strings.IndexByte(line, '\n'); nl >= 0 {
			line = line[:nl]
		}
		return strings.TrimSpace(line)
	}
	return prompt
}
