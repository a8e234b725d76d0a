package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubClient struct {
	text string
	err  error
}

func (s *stubClient) Complete(_ context.Context, _ CompletionRequest) (string, error) {
	return s.text, s.err
}

func TestNewClientModes(t *testing.T) {
	c, err := NewClient(Config{Mode: "mock"})
	if err != nil {
		t.Fatalf("NewClient(mock) error = %v", err)
	}
	if _, ok := c.(*MockClient); !ok {
		t.Fatalf("NewClient(mock) = %T, want *MockClient", c)
	}

	c, err = NewClient(Config{Mode: "auto"})
	if err != nil {
		t.Fatalf("NewClient(auto) error = %v", err)
	}
	if _, ok := c.(*MockClient); !ok {
		t.Fatalf("NewClient(auto) without key = %T, want *MockClient", c)
	}

	c, err = NewClient(Config{Mode: "auto", APIKey: "sk-test", Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("NewClient(auto with key) error = %v", err)
	}
	if _, ok := c.(*OpenAIClient); !ok {
		t.Fatalf("NewClient(auto with key) = %T, want *OpenAIClient", c)
	}

	if _, err := NewClient(Config{Mode: "openai"}); err == nil {
		t.Fatalf("NewClient(openai) without key expected error")
	}
	if _, err := NewClient(Config{Mode: "telepathy"}); err == nil {
		t.Fatalf("NewClient(telepathy) expected error")
	}
}

func TestMockClientEchoesInput(t *testing.T) {
	c := NewMockClient()
	text, err := c.Complete(context.Background(), CompletionRequest{
		Prompt: "Current conversation:\nHuman: What founded the school?\nAssistant:",
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if !strings.Contains(text, "What founded the school?") {
		t.Fatalf("Complete() = %q, want echo of the question", text)
	}
}

func TestMockClientHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMockClient().Complete(ctx, CompletionRequest{Prompt: "x"}); err == nil {
		t.Fatalf("Complete() expected context error")
	}
}

func TestFallbackClientUsesSecondaryOnProviderError(t *testing.T) {
	f := NewFallbackClient(
		&stubClient{err: errors.New("provider down")},
		&stubClient{text: "fallback reply"},
	)
	text, err := f.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if text != "fallback reply" {
		t.Fatalf("Complete() = %q, want fallback reply", text)
	}
}

func TestFallbackClientSurfacesContextErrors(t *testing.T) {
	f := NewFallbackClient(
		&stubClient{err: context.DeadlineExceeded},
		&stubClient{text: "should not be used"},
	)
	if _, err := f.Complete(context.Background(), CompletionRequest{Prompt: "x"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Complete() error = %v, want deadline exceeded", err)
	}
}

func TestFallbackClientReportsBothErrors(t *testing.T) {
	f := NewFallbackClient(
		&stubClient{err: errors.New("primary boom")},
		&stubClient{err: errors.New("fallback boom")},
	)
	_, err := f.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	if err == nil {
		t.Fatalf("Complete() expected combined error")
	}
	if !strings.Contains(err.Error(), "primary boom") || !strings.Contains(err.Error(), "fallback boom") {
		t.Fatalf("Complete() error = %v, want both causes", err)
	}
}
