package reliability

import (
	"context"
	"errors"
	"strings"
)

// The pipeline never retries a failed generation; classification exists so
// provider errors carry a stable code on metrics and log lines.

// ClassifyProviderError maps an upstream failure to a short code.
func ClassifyProviderError(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429"):
		return "rate_limited"
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host"):
		return "unreachable"
	default:
		return "provider"
	}
}
