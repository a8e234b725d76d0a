package validate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sgsarchives/headmasterd/internal/archive"
	"github.com/sgsarchives/headmasterd/internal/llm"
	"github.com/sgsarchives/headmasterd/internal/persona"
)

type stubRetriever struct {
	passages []archive.Passage
	err      error
}

func (r *stubRetriever) Search(_ context.Context, _ string, k int) ([]archive.Passage, error) {
	if r.err != nil {
		return nil, r.err
	}
	if len(r.passages) > k {
		return r.passages[:k], nil
	}
	return r.passages, nil
}

func (r *stubRetriever) Close() error { return nil }

type stubLLM struct {
	text string
	err  error
}

func (s *stubLLM) Complete(_ context.Context, _ llm.CompletionRequest) (string, error) {
	return s.text, s.err
}

func TestFactCheckerWithRecords(t *testing.T) {
	f := NewFactChecker(&stubRetriever{passages: []archive.Passage{
		{Content: "the school opened in 1825"},
		{Content: "the motto is Laus Deo"},
	}})

	got := f.Check(context.Background(), "The school opened in 1825.")
	if !strings.HasPrefix(got, "Based on historical records:") {
		t.Fatalf("Check() = %q", got)
	}
	if !strings.Contains(got, "the motto is Laus Deo") {
		t.Fatalf("Check() missing second passage: %q", got)
	}
}

func TestFactCheckerNoRecords(t *testing.T) {
	f := NewFactChecker(&stubRetriever{})
	got := f.Check(context.Background(), "anything")
	if got != "No historical records found to verify this fact." {
		t.Fatalf("Check() = %q", got)
	}
}

func TestFactCheckerRetrievalError(t *testing.T) {
	f := NewFactChecker(&stubRetriever{err: errors.New("store offline")})
	got := f.Check(context.Background(), "anything")
	if !strings.HasPrefix(got, "Error checking historical facts:") {
		t.Fatalf("Check() = %q", got)
	}
}

func TestCitationGenerator(t *testing.T) {
	cases := []struct {
		name     string
		passages []archive.Passage
		err      error
		want     string
	}{
		{
			name:     "full metadata",
			passages: []archive.Passage{{Title: "School register", Date: "1835", Content: "x"}},
			want:     "Source: School register, 1835",
		},
		{
			name:     "missing metadata",
			passages: []archive.Passage{{Content: "x"}},
			want:     "Source: Historical Archives, Date unknown",
		},
		{
			name: "no source",
			want: "No source found for citation.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewCitationGenerator(&stubRetriever{passages: tc.passages, err: tc.err})
			got := g.Generate(context.Background(), "reply")
			if got != tc.want {
				t.Fatalf("Generate() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCitationGeneratorError(t *testing.T) {
	g := NewCitationGenerator(&stubRetriever{err: errors.New("store offline")})
	got := g.Generate(context.Background(), "reply")
	if !strings.HasPrefix(got, "Error generating citation:") {
		t.Fatalf("Generate() = %q", got)
	}
}

func TestPeriodValidator(t *testing.T) {
	v := NewPeriodValidator(&stubLLM{text: "No anachronisms found."}, 0.2, 400)
	got := v.Validate(context.Background(), "A fine reply.", "1825")
	if got != "No anachronisms found." {
		t.Fatalf("Validate() = %q", got)
	}

	v = NewPeriodValidator(&stubLLM{err: errors.New("provider down")}, 0.2, 400)
	got = v.Validate(context.Background(), "A fine reply.", "1825")
	if !strings.HasPrefix(got, "Error validating period context:") {
		t.Fatalf("Validate() = %q", got)
	}
}

func TestSetRunAlwaysYieldsThreeResults(t *testing.T) {
	p := persona.Persona{ID: "x", Name: "X", Tenure: "1825"}

	set := NewSet(
		NewFactChecker(&stubRetriever{}),
		NewPeriodValidator(&stubLLM{text: "Assessment: consistent with 1825."}, 0.2, 400),
		NewCitationGenerator(&stubRetriever{}),
	)
	res := set.Run(context.Background(), "reply text", p)

	if res.FactCheck != "No historical records found to verify this fact." {
		t.Fatalf("FactCheck = %q", res.FactCheck)
	}
	if res.Citation != "No source found for citation." {
		t.Fatalf("Citation = %q", res.Citation)
	}
	if res.PeriodValidation != "Assessment: consistent with 1825." {
		t.Fatalf("PeriodValidation = %q", res.PeriodValidation)
	}
}

func TestSetRunIsolatesFailures(t *testing.T) {
	p := persona.Persona{ID: "x", Name: "X", Tenure: "1825"}

	set := NewSet(
		NewFactChecker(&stubRetriever{err: errors.New("boom")}),
		NewPeriodValidator(&stubLLM{err: errors.New("provider down")}, 0.2, 400),
		NewCitationGenerator(&stubRetriever{passages: []archive.Passage{{Title: "Charter", Date: "1857"}}}),
	)
	res := set.Run(context.Background(), "reply", p)

	if !strings.HasPrefix(res.FactCheck, "Error checking historical facts:") {
		t.Fatalf("FactCheck = %q", res.FactCheck)
	}
	if !strings.HasPrefix(res.PeriodValidation, "Error validating period context:") {
		t.Fatalf("PeriodValidation = %q", res.PeriodValidation)
	}
	// The healthy validator is unaffected by its neighbours.
	if res.Citation != "Source: Charter, 1857" {
		t.Fatalf("Citation = %q", res.Citation)
	}
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		result string
		want   string
	}{
		{"", "missing"},
		{"No historical records found to verify this fact.", "empty"},
		{"No source found for citation.", "empty"},
		{"Error checking historical facts: boom", "error"},
		{"Error validating period context: boom", "error"},
		{"Error generating citation: boom", "error"},
		{"Based on historical records: the school opened in 1825.", "ok"},
		{"Source: Charter, 1857", "ok"},
	}
	for _, tc := range cases {
		if got := StatusOf(tc.result); got != tc.want {
			t.Fatalf("StatusOf(%q) = %q, want %q", tc.result, got, tc.want)
		}
	}
}
