package archive

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// InMemoryRetriever holds an embedded corpus in process memory and answers
// queries by cosine similarity. Ties break on document insertion order so
// repeated queries against an unchanged corpus are stable.
type InMemoryRetriever struct {
	mu       sync.RWMutex
	embedder Embedder
	docs     []Document
	vectors  [][]float32
}

func NewInMemoryRetriever(embedder Embedder) *InMemoryRetriever {
	return &InMemoryRetriever{embedder: embedder}
}

// Index embeds and adds documents to the corpus. Blank documents are skipped.
func (r *InMemoryRetriever) Index(ctx context.Context, docs []Document) error {
	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			continue
		}
		vec, err := r.embedder.Embed(ctx, doc.Content)
		if err != nil {
			return fmt.Errorf("index %q: %w", doc.Title, err)
		}
		r.mu.Lock()
		r.docs = append(r.docs, doc)
		r.vectors = append(r.vectors, vec)
		r.mu.Unlock()
	}
	return nil
}

func (r *InMemoryRetriever) Search(ctx context.Context, query string, k int) ([]Passage, error) {
	if k <= 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}
	qvec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	type scored struct {
		idx   int
		score float64
	}
	hits := make([]scored, 0, len(r.docs))
	for i, vec := range r.vectors {
		score := cosine(qvec, vec)
		if score <= 0 {
			continue
		}
		hits = append(hits, scored{idx: i, score: score})
	}
	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].score != hits[b].score {
			return hits[a].score > hits[b].score
		}
		return hits[a].idx < hits[b].idx
	})
	if len(hits) > k {
		hits = hits[:k]
	}

	out := make([]Passage, 0, len(hits))
	for _, h := range hits {
		doc := r.docs[h.idx]
		out = append(out, Passage{
			Content: doc.Content,
			Title:   doc.Title,
			Date:    doc.Date,
			Score:   h.score,
		})
	}
	return out, nil
}

// Size returns the number of indexed documents.
func (r *InMemoryRetriever) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}

func (r *InMemoryRetriever) Close() error { return nil }
