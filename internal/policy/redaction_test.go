package policy

import (
	"strings"
	"testing"
)

func TestRedactForLog(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "email",
			input: "Write to me at old.boy@example.com please",
			want:  "[REDACTED_EMAIL]",
		},
		{
			name:  "phone",
			input: "My number is +61 2 9123 4567, sir",
			want:  "[REDACTED_PHONE]",
		},
		{
			name:  "card",
			input: "charge 4111 1111 1111 1111 to my account",
			want:  "[REDACTED_CARD]",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, changed := RedactForLog(tc.input)
			if !changed {
				t.Fatalf("RedactForLog(%q) reported no change", tc.input)
			}
			if !strings.Contains(got, tc.want) {
				t.Fatalf("RedactForLog(%q) = %q, want mask %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestRedactForLogLeavesCleanTextAlone(t *testing.T) {
	in := "What was the school motto in 1857?"
	got, changed := RedactForLog(in)
	if changed || got != in {
		t.Fatalf("RedactForLog(%q) = %q (changed=%v)", in, got, changed)
	}
}
