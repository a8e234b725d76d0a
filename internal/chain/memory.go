package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/sgsarchives/headmasterd/internal/archive"
	"github.com/sgsarchives/headmasterd/internal/history"
)

// memoryVariables are the two distinct context blocks the prompt template
// expects. history carries the verbatim recent dialogue; historicalContext
// carries the retrieval-augmented archive block. They are composed
// independently and never merged.
type memoryVariables struct {
	history           string
	historicalContext string
}

// loadMemory composes the prompt variables for the current input. The
// archive is queried with the raw user input; passages concatenate most
// similar first. Zero passages yield an empty block, not an error.
func loadMemory(ctx context.Context, hist *history.History, retriever archive.Retriever, input string, k int) (memoryVariables, error) {
	vars := memoryVariables{history: hist.Render()}

	passages, err := retriever.Search(ctx, input, k)
	if err != nil {
		return memoryVariables{}, fmt.Errorf("archive search: %w", err)
	}
	if len(passages) == 0 {
		return vars, nil
	}

	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		parts = append(parts, p.Content)
	}
	vars.historicalContext = strings.Join(parts, "\n")
	return vars, nil
}
