package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sgsarchives/headmasterd/internal/archive"
)

const (
	factCheckK          = 3
	noRecordsFound      = "No historical records found to verify this fact."
	factCheckPrefix     = "Based on historical records:"
	factCheckErrorLabel = "Error checking historical facts"
)

// FactChecker retrieves the archive passages most similar to a generated
// reply and returns them as supporting evidence.
type FactChecker struct {
	retriever archive.Retriever
}

func NewFactChecker(retriever archive.Retriever) *FactChecker {
	return &FactChecker{retriever: retriever}
}

// Check never returns an error; retrieval failures become a descriptive
// placeholder string.
func (f *FactChecker) Check(ctx context.Context, reply string) string {
	passages, err := f.retriever.Search(ctx, reply, factCheckK)
	if err != nil {
		return fmt.Sprintf("%s: %v", factCheckErrorLabel, err)
	}
	if len(passages) == 0 {
		return noRecordsFound
	}
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		parts = append(parts, p.Content)
	}
	return factCheckPrefix + "\n" + strings.Join(parts, "\n")
}
