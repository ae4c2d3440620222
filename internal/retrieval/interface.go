// Package retrieval defines the search collaborator contracts and the
// hybrid retriever that feeds rank fusion.
package retrieval

import (
	"context"
	"errors"

	"github.com/lostlondon/vicd/internal/fusion"
)

// Sentinel errors for retrieval operations.
var (
	// ErrEmptyQuery indicates an empty retrieval query.
	ErrEmptyQuery = errors.New("empty query")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrSearchFailed indicates both search sources failed.
	ErrSearchFailed = errors.New("search failed")
)

// Embedder generates a vector embedding for a query.
//
// Embedding is latency-sensitive; callers wrap implementations in
// CachedEmbedder so repeated queries within a short window skip the
// round trip.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher searches by embedding, returning candidates ordered
// best-first.
type VectorSearcher interface {
	SearchVector(ctx context.Context, vector []float32, limit int) ([]fusion.Candidate, error)
}

// KeywordSearcher searches lexically, returning candidates ordered
// best-first.
type KeywordSearcher interface {
	SearchKeyword(ctx context.Context, text string, limit int) ([]fusion.Candidate, error)
}
