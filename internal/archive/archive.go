package archive

import "context"

// Passage is one retrieved fragment of the historical corpus.
type Passage struct {
	Content string  `json:"content"`
	Title   string  `json:"title"`
	Date    string  `json:"date"`
	Score   float64 `json:"score"`
}

// Document is a corpus entry before embedding.
type Document struct {
	Content string `json:"content" yaml:"content"`
	Title   string `json:"title" yaml:"title"`
	Date    string `json:"date" yaml:"date"`
}

// Retriever performs similarity search over the archive corpus.
// Implementations are read-only from the turn pipeline's perspective and
// safe for concurrent use. Search returns at most k passages, most similar
// first; an empty result is a normal outcome, not an error. For an
// unchanged corpus the same query returns the same passages in the same
// order with the same scores.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]Passage, error)
	Close() error
}
