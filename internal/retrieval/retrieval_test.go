package retrieval

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lostlondon/vicd/internal/fusion"
)

// stubEmbedder counts calls and returns a fixed vector.
type stubEmbedder struct {
	calls atomic.Int64
	err   error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

// stubVector returns fixed candidates.
type stubVector struct {
	candidates []fusion.Candidate
	err        error
}

func (s *stubVector) SearchVector(ctx context.Context, vector []float32, limit int) ([]fusion.Candidate, error) {
	return s.candidates, s.err
}

func semanticCandidates(ids ...string) []fusion.Candidate {
	out := make([]fusion.Candidate, len(ids))
	for i, id := range ids {
		out[i] = fusion.Candidate{ID: id, Title: "t-" + id, HasSemantic: true}
	}
	return out
}

func TestCachedEmbedder_HitAndMiss(t *testing.T) {
	inner := &stubEmbedder{}
	cached := NewCachedEmbedder(inner, time.Minute, 10)

	ctx := context.Background()
	_, err := cached.Embed(ctx, "the Thames")
	require.NoError(t, err)
	_, err = cached.Embed(ctx, "the Thames")
	require.NoError(t, err)

	assert.Equal(t, int64(1), inner.calls.Load(), "second call must hit the cache")

	stats := cached.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
}

func TestCachedEmbedder_TTLExpiry(t *testing.T) {
	inner := &stubEmbedder{}
	cached := NewCachedEmbedder(inner, 50*time.Millisecond, 10)

	ctx := context.Background()
	_, err := cached.Embed(ctx, "tyburn")
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)

	_, err = cached.Embed(ctx, "tyburn")
	require.NoError(t, err)
	assert.Equal(t, int64(2), inner.calls.Load(), "expired entry must re-embed")
}

func TestCachedEmbedder_LRUEviction(t *testing.T) {
	inner := &stubEmbedder{}
	cached := NewCachedEmbedder(inner, time.Minute, 2)

	ctx := context.Background()
	_, _ = cached.Embed(ctx, "a")
	_, _ = cached.Embed(ctx, "b")
	_, _ = cached.Embed(ctx, "a") // refresh "a"; "b" is now LRU
	_, _ = cached.Embed(ctx, "c") // evicts "b"

	before := inner.calls.Load()
	_, _ = cached.Embed(ctx, "a")
	assert.Equal(t, before, inner.calls.Load(), "a should still be cached")

	_, _ = cached.Embed(ctx, "b")
	assert.Equal(t, before+1, inner.calls.Load(), "b should have been evicted")
}

func TestCachedEmbedder_ErrorNotCached(t *testing.T) {
	inner := &stubEmbedder{err: errors.New("provider down")}
	cached := NewCachedEmbedder(inner, time.Minute, 10)

	_, err := cached.Embed(context.Background(), "x")
	assert.Error(t, err)
	assert.Equal(t, 0, cached.Stats().Entries)
}

func TestKeywordIndex_Scoring(t *testing.T) {
	index := NewKeywordIndex()
	index.Add(
		Article{ID: "1", Title: "Lost London: the Thames", Content: "The river runs through it."},
		Article{ID: "2", Title: "Tyburn gallows", Content: "Executions near the thames marshes."},
		Article{ID: "3", Title: "Crystal Palace", Content: "A glass exhibition hall."},
	)

	candidates, err := index.SearchKeyword(context.Background(), "the thames", 10)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	// Content match (article 2) outranks title-only match (article 1).
	assert.Equal(t, "2", candidates[0].ID)
	assert.Equal(t, "1", candidates[1].ID)
	assert.Equal(t, 0, candidates[0].LexicalRank)
	assert.Equal(t, 1, candidates[1].LexicalRank)
	assert.True(t, candidates[0].HasLexical)
}

func TestKeywordIndex_EmptyQuery(t *testing.T) {
	index := NewKeywordIndex()
	_, err := index.SearchKeyword(context.Background(), "  ", 10)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestRetriever_FusesBothSources(t *testing.T) {
	embedder := &stubEmbedder{}
	vector := &stubVector{candidates: semanticCandidates("A", "B", "C")}
	keyword := NewKeywordIndex()
	keyword.Add(
		Article{ID: "B", Title: "match", Content: "the thames flows"},
		Article{ID: "D", Title: "the thames", Content: "other"},
	)

	r := NewRetriever(embedder, vector, keyword, 10, 2, nil)
	fused, err := r.Retrieve(context.Background(), "the thames")
	require.NoError(t, err)
	require.Len(t, fused, 2)

	// B appears in both lists and must rank first.
	assert.Equal(t, "B", fused[0].ID)
}

func TestRetriever_DegradesToSingleSource(t *testing.T) {
	embedder := &stubEmbedder{}
	vector := &stubVector{err: errors.New("qdrant unavailable")}
	keyword := NewKeywordIndex()
	keyword.Add(Article{ID: "1", Title: "the thames", Content: "river"})

	r := NewRetriever(embedder, vector, keyword, 10, 2, nil)
	fused, err := r.Retrieve(context.Background(), "the thames")
	require.NoError(t, err, "one failing source must not fail retrieval")
	require.Len(t, fused, 1)
	assert.Equal(t, "1", fused[0].ID)
}

func TestRetriever_BothSourcesFailing(t *testing.T) {
	embedder := &stubEmbedder{}
	vector := &stubVector{err: errors.New("down")}
	keyword := NewKeywordIndex() // empty query triggers error path

	r := NewRetriever(embedder, vector, keyword, 10, 2, nil)
	_, err := r.Retrieve(context.Background(), "   ")
	assert.Error(t, err)
}

func TestRetriever_EmbeddingFailure(t *testing.T) {
	embedder := &stubEmbedder{err: errors.New("no provider")}
	r := NewRetriever(embedder, &stubVector{}, NewKeywordIndex(), 10, 2, nil)

	_, err := r.Retrieve(context.Background(), "query")
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}

func TestLoadArticles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.json")
	payload := `[
		{"id": "tyburn", "title": "The Tyburn Tree", "content": "Gallows at Tyburn."},
		{"title": "Thorney Island", "content": "The island under Westminster."}
	]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	articles, err := LoadArticles(path)
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, "tyburn", articles[0].ID, "explicit IDs are preserved")
	assert.Equal(t, "article-2", articles[1].ID, "missing IDs derive from position")
	assert.Equal(t, "Thorney Island", articles[1].Title)
}

func TestLoadArticles_Errors(t *testing.T) {
	_, err := LoadArticles(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err = LoadArticles(path)
	assert.Error(t, err)
}
