package validate

import (
	"context"
	"fmt"

	"github.com/sgsarchives/headmasterd/internal/llm"
)

const periodErrorLabel = "Error validating period context"

// PeriodValidator asks the model to assess a reply for period
// appropriateness. It does not consult the archive.
type PeriodValidator struct {
	client      llm.Client
	temperature float64
	maxTokens   int
}

func NewPeriodValidator(client llm.Client, temperature float64, maxTokens int) *PeriodValidator {
	return &PeriodValidator{client: client, temperature: temperature, maxTokens: maxTokens}
}

// Validate assesses the reply against the four checklist dimensions for the
// persona's tenure. Failures become a descriptive placeholder string.
func (v *PeriodValidator) Validate(ctx context.Context, reply, tenure string) string {
	prompt := fmt.Sprintf(`As a historical accuracy validator for %s, analyze the following content:

%s

Consider:
1. Language and vocabulary appropriate for the period
2. Historical accuracy of references
3. Cultural context and social norms
4. Technology and knowledge available at the time

Provide a validation report with any anachronisms or inconsistencies found.`, tenure, reply)

	report, err := v.client.Complete(ctx, llm.CompletionRequest{
		Prompt:      prompt,
		Temperature: v.temperature,
		MaxTokens:   v.maxTokens,
	})
	if err != nil {
		return fmt.Sprintf("%s: %v", periodErrorLabel, err)
	}
	return report
}
