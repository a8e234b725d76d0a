package reliability

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyProviderError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "none"},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"wrapped deadline", fmt.Errorf("generate: %w", context.DeadlineExceeded), "timeout"},
		{"canceled", context.Canceled, "canceled"},
		{"rate limit", errors.New("openai: 429 rate limit reached"), "rate_limited"},
		{"unreachable", errors.New("dial tcp: connection refused"), "unreachable"},
		{"other", errors.New("model overloaded"), "provider"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyProviderError(tc.err); got != tc.want {
				t.Fatalf("ClassifyProviderError(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}
