package retrieval

import (
	"context"
	"fmt"

	"github.com/philippgille/chromem-go"

	"github.com/lostlondon/vicd/internal/fusion"
)

// ChromemConfig holds configuration for the embedded vector store.
type ChromemConfig struct {
	// Path is the on-disk location of the store. Empty means
	// in-memory only.
	Path string

	// Collection is the article collection name.
	Collection string

	// Compress enables gzip compression of persisted documents.
	Compress bool
}

// ChromemSearcher is a VectorSearcher backed by the embedded chromem-go
// store. It serves deployments without a Qdrant instance and exercises
// the same searcher contract in tests.
type ChromemSearcher struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewChromemSearcher opens (or creates) the embedded store.
//
// The embedder supplies chromem's embedding function for documents
// added through AddDocuments; queries arrive pre-embedded through
// SearchVector, so a nil embedder is allowed for read-only use.
func NewChromemSearcher(config ChromemConfig, embedder Embedder) (*ChromemSearcher, error) {
	if config.Collection == "" {
		return nil, fmt.Errorf("%w: collection name required", ErrSearchFailed)
	}

	var db *chromem.DB
	var err error
	if config.Path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(config.Path, config.Compress)
		if err != nil {
			return nil, fmt.Errorf("%w: opening store: %v", ErrSearchFailed, err)
		}
	}

	var embedFunc chromem.EmbeddingFunc
	if embedder != nil {
		embedFunc = func(ctx context.Context, text string) ([]float32, error) {
			return embedder.Embed(ctx, text)
		}
	}

	collection, err := db.GetOrCreateCollection(config.Collection, nil, embedFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: opening collection %s: %v", ErrSearchFailed, config.Collection, err)
	}

	return &ChromemSearcher{db: db, collection: collection}, nil
}

// Article is one document in the corpus.
type Article struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// AddArticles stores articles, embedding their content.
func (s *ChromemSearcher) AddArticles(ctx context.Context, articles []Article) error {
	docs := make([]chromem.Document, len(articles))
	for i, a := range articles {
		docs[i] = chromem.Document{
			ID:       a.ID,
			Content:  a.Content,
			Metadata: map[string]string{"title": a.Title},
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("%w: adding documents: %v", ErrSearchFailed, err)
	}
	return nil
}

// SearchVector queries the collection by embedding, best-first.
func (s *ChromemSearcher) SearchVector(ctx context.Context, vector []float32, limit int) ([]fusion.Candidate, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrSearchFailed, limit)
	}
	// chromem rejects nResults beyond the collection size.
	if count := s.collection.Count(); limit > count {
		limit = count
	}
	if limit == 0 {
		return nil, nil
	}

	results, err := s.collection.QueryEmbedding(ctx, vector, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: querying: %v", ErrSearchFailed, err)
	}

	candidates := make([]fusion.Candidate, len(results))
	for i, res := range results {
		candidates[i] = fusion.Candidate{
			ID:            res.ID,
			Title:         res.Metadata["title"],
			Content:       res.Content,
			SemanticScore: res.Similarity,
			HasSemantic:   true,
		}
	}
	return candidates, nil
}
