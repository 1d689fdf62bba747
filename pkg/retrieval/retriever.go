package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"camara_chat/pkg/ai"
	"camara_chat/pkg/config"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Retriever embeds questions and looks up the closest chunks.
type Retriever struct {
	store    *Store
	embedder ai.Embedder
	cache    *lru.Cache[string, []float32]
	topK     int
}

// NewRetriever wires a store to an embedder. Query embeddings are cached.
func NewRetriever(store *Store, embedder ai.Embedder, cfg config.RetrievalConfig) (*Retriever, error) {
	if store == nil || embedder == nil {
		return nil, fmt.Errorf("retriever requires a store and an embedder")
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = config.Default().Retrieval.CacheSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create query cache: %w", err)
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = config.Default().Retrieval.TopK
	}
	return &Retriever{store: store, embedder: embedder, cache: cache, topK: topK}, nil
}

// Search returns up to k documents for query; k <= 0 uses the configured top-k.
// An empty store yields no documents without calling the embedder.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]Document, error) {
	if k <= 0 {
		k = r.topK
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	n, err := r.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		slog.Debug("retrieval_empty_store")
		return nil, nil
	}

	vector, ok := r.cache.Get(query)
	if !ok {
		vectors, err := r.embedder.Embed(ctx, []string{query})
		if err != nil {
			return nil, fmt.Errorf("failed to embed query: %w", err)
		}
		if len(vectors) != 1 {
			return nil, fmt.Errorf("expected 1 query embedding, got %d", len(vectors))
		}
		vector = vectors[0]
		r.cache.Add(query, vector)
	}

	docs, err := r.store.Nearest(ctx, vector, k)
	if err != nil {
		return nil, err
	}
	slog.Debug("retrieval_search", "k", k, "results", len(docs), "cached", ok)
	return docs, nil
}
