package retrieval

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/lostlondon/vicd/internal/fusion"
	"github.com/lostlondon/vicd/internal/logging"
)

// Retriever runs the hybrid retrieval pipeline: embed the query, search
// the semantic and lexical sources concurrently, and fuse the two
// ranked lists.
type Retriever struct {
	embedder Embedder
	vector   VectorSearcher
	keyword  KeywordSearcher
	logger   *logging.Logger

	// searchLimit is how many candidates each source contributes
	// before fusion; limit is the fused result count.
	searchLimit int
	limit       int
}

// NewRetriever wires the collaborators into a retriever.
func NewRetriever(embedder Embedder, vector VectorSearcher, keyword KeywordSearcher, searchLimit, limit int, logger *logging.Logger) *Retriever {
	if logger == nil {
		logger = logging.Nop()
	}
	if searchLimit < limit {
		searchLimit = limit
	}
	return &Retriever{
		embedder:    embedder,
		vector:      vector,
		keyword:     keyword,
		logger:      logger,
		searchLimit: searchLimit,
		limit:       limit,
	}
}

// Retrieve returns the fused, ranked candidates for a query.
//
// One failing source degrades to the other list alone; only both
// sources failing (or the embedding itself) is an error.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]fusion.Fused, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	var (
		wg       sync.WaitGroup
		semantic []fusion.Candidate
		lexical  []fusion.Candidate
		semErr   error
		lexErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		semantic, semErr = r.vector.SearchVector(ctx, vector, r.searchLimit)
	}()
	go func() {
		defer wg.Done()
		lexical, lexErr = r.keyword.SearchKeyword(ctx, query, r.searchLimit)
	}()
	wg.Wait()

	if semErr != nil && lexErr != nil {
		return nil, fmt.Errorf("%w: semantic: %v; lexical: %v", ErrSearchFailed, semErr, lexErr)
	}
	if semErr != nil {
		r.logger.Warn(ctx, "semantic search failed, using lexical results only", zap.Error(semErr))
	}
	if lexErr != nil {
		r.logger.Warn(ctx, "lexical search failed, using semantic results only", zap.Error(lexErr))
	}

	return fusion.Fuse(semantic, lexical, r.limit), nil
}
