package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CompletionRequest parameterizes one text-generation call.
type CompletionRequest struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Client is a stateless request/response wrapper around a text-generation
// provider. Implementations are safe for concurrent use across sessions.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Config controls client construction.
type Config struct {
	Mode    string
	APIKey  string
	BaseURL string
	Model   string
}

// NewClient builds a client for the configured mode. In auto mode the
// OpenAI client is used when a key is present, otherwise the mock.
func NewClient(cfg Config) (Client, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return NewMockClient(), nil
		}
		// Fail fast when a key is configured: a silent mock fallback would
		// hide auth/provider issues and replace the apology path with
		// fabricated in-character text.
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "openai":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("an API key is required for openai mode")
		}
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported llm mode %q", cfg.Mode)
	}
}

// FallbackClient tries a primary client and falls back on provider errors.
// Context cancellation and deadline errors are surfaced, not retried.
type FallbackClient struct {
	primary  Client
	fallback Client
}

func NewFallbackClient(primary, fallback Client) *FallbackClient {
	return &FallbackClient{primary: primary, fallback: fallback}
}

func (c *FallbackClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	text, err := c.primary.Complete(ctx, req)
	if err == nil {
		return text, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "", err
	}
	if c.fallback == nil {
		return "", err
	}
	text, fallbackErr := c.fallback.Complete(ctx, req)
	if fallbackErr != nil {
		return "", fmt.Errorf("primary client error: %w; fallback client error: %v", err, fallbackErr)
	}
	return text, nil
}
