package archive

import (
	"context"
	"strings"
)

// NewRetriever creates a pgvector-backed retriever when a database URL is
// configured, otherwise an in-memory retriever seeded from the corpus file
// (or the built-in sample). The postgres corpus is assumed to be ingested
// out of band; only the in-memory backend is seeded here.
func NewRetriever(ctx context.Context, databaseURL, corpusPath string, embedder Embedder) (Retriever, error) {
	if strings.TrimSpace(databaseURL) != "" {
		return NewPostgresRetriever(ctx, databaseURL, embedder)
	}
	docs, err := LoadCorpus(corpusPath)
	if err != nil {
		return nil, err
	}
	r := NewInMemoryRetriever(embedder)
	if err := r.Index(ctx, docs); err != nil {
		return nil, err
	}
	return r, nil
}

// NewEmbedder picks the OpenAI embedder when an API key is available,
// otherwise the deterministic local embedder.
func NewEmbedder(apiKey, baseURL, model string, dim int) Embedder {
	if strings.TrimSpace(apiKey) != "" {
		return NewOpenAIEmbedder(apiKey, baseURL, model, dim)
	}
	return NewLocalEmbedder(dim)
}
