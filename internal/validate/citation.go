package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sgsarchives/headmasterd/internal/archive"
)

const (
	noSourceFound      = "No source found for citation."
	citationErrorLabel = "Error generating citation"

	fallbackTitle = "Historical Archives"
	fallbackDate  = "Date unknown"
)

// CitationGenerator attributes a generated reply to the single most similar
// archive passage.
type CitationGenerator struct {
	retriever archive.Retriever
}

func NewCitationGenerator(retriever archive.Retriever) *CitationGenerator {
	return &CitationGenerator{retriever: retriever}
}

// Generate returns a formatted citation, the no-source message on an empty
// result, or an error placeholder; never an error.
func (g *CitationGenerator) Generate(ctx context.Context, reply string) string {
	passages, err := g.retriever.Search(ctx, reply, 1)
	if err != nil {
		return fmt.Sprintf("%s: %v", citationErrorLabel, err)
	}
	if len(passages) == 0 {
		return noSourceFound
	}

	title := strings.TrimSpace(passages[0].Title)
	if title == "" {
		title = fallbackTitle
	}
	date := strings.TrimSpace(passages[0].Date)
	if date == "" {
		date = fallbackDate
	}
	return fmt.Sprintf("Source: %s, %s", title, date)
}
