package validate

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sgsarchives/headmasterd/internal/persona"
)

// Results carries one entry per validator. All three fields are always
// populated: a real report, a "not found" message, or an error placeholder.
type Results struct {
	FactCheck        string `json:"fact_check"`
	PeriodValidation string `json:"period_validation"`
	Citation         string `json:"citation"`
}

// Set runs the three independent post-generation checks. None mutates
// shared state and none lets a failure escape its own boundary, so one slow
// or failing validator never aborts the others.
type Set struct {
	facts    *FactChecker
	period   *PeriodValidator
	citation *CitationGenerator
}

func NewSet(facts *FactChecker, period *PeriodValidator, citation *CitationGenerator) *Set {
	return &Set{facts: facts, period: period, citation: citation}
}

// Run fans out all three checks concurrently against the generated reply
// and joins on completion. The group never returns an error; failures
// surface inside the individual result strings.
func (s *Set) Run(ctx context.Context, reply string, p persona.Persona) Results {
	var res Results
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res.FactCheck = runSafely(func() string { return s.facts.Check(gctx, reply) },
			"Error checking historical facts")
		return nil
	})
	g.Go(func() error {
		res.PeriodValidation = runSafely(func() string { return s.period.Validate(gctx, reply, p.Tenure) },
			"Error validating period context")
		return nil
	})
	g.Go(func() error {
		res.Citation = runSafely(func() string { return s.citation.Generate(gctx, reply) },
			"Error generating citation")
		return nil
	})
	_ = g.Wait()
	return res
}

// StatusOf classifies a result string for metrics: a real report, one of
// the defined "not found" messages, an error placeholder, or missing.
func StatusOf(result string) string {
	switch {
	case result == "":
		return "missing"
	case result == noRecordsFound || result == noSourceFound:
		return "empty"
	case strings.HasPrefix(result, factCheckErrorLabel+":") ||
		strings.HasPrefix(result, periodErrorLabel+":") ||
		strings.HasPrefix(result, citationErrorLabel+":"):
		return "error"
	default:
		return "ok"
	}
}

func runSafely(fn func() string, label string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprintf("%s: %v", label, r)
		}
	}()
	return fn()
}
