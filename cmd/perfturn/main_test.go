package main

import (
	"strings"
	"testing"
)

func TestWSURLForSession(t *testing.T) {
	got, err := wsURLForSession("http://127.0.0.1:8080", "s-1")
	if err != nil {
		t.Fatalf("wsURLForSession() error = %v", err)
	}
	want := "ws://127.0.0.1:8080/v1/chat/session/ws?session_id=s-1"
	if got != want {
		t.Fatalf("wsURLForSession() = %q, want %q", got, want)
	}

	secure, err := wsURLForSession("https://archives.example/api/", "s-2")
	if err != nil {
		t.Fatalf("wsURLForSession() error = %v", err)
	}
	if !strings.HasPrefix(secure, "wss://archives.example/api/v1/chat/session/ws") {
		t.Fatalf("wsURLForSession() = %q", secure)
	}

	if _, err := wsURLForSession("ftp://nope", "s-3"); err == nil {
		t.Fatalf("expected scheme error")
	}
}

func TestPercentile(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50}
	if got := percentile(values, 0.5); got != 30 {
		t.Fatalf("p50 = %v, want 30", got)
	}
	if got := percentile(values, 1.0); got != 50 {
		t.Fatalf("max = %v, want 50", got)
	}
	if got := percentile(nil, 0.5); got != 0 {
		t.Fatalf("empty percentile = %v, want 0", got)
	}
}
