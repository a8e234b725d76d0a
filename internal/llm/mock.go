package llm

import (
	"context"
	"strings"
)

// MockClient produces deterministic replies when no provider is configured.
// Useful for local development and tests.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (c *MockClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	// Echo the last prompt line so callers can see their input reflected.
	lines := strings.Split(strings.TrimSpace(req.Prompt), "\n")
	last := ""
	for i := len(lines) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(lines[i]); s != "" && s != "Assistant:" {
			last = s
			break
		}
	}
	if last == "" {
		return "I am listening.", nil
	}
	return "Indeed. You raise the matter of: " + strings.TrimPrefix(last, "Human: "), nil
}
