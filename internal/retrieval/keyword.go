package retrieval

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/lostlondon/vicd/internal/fusion"
)

// Keyword match weights. Content matches outrank title matches, which
// outrank a partial first-word title match.
const (
	contentMatchWeight   = 0.30
	titleMatchWeight     = 0.25
	firstWordMatchWeight = 0.10
)

// KeywordIndex is an in-memory KeywordSearcher over the article set.
//
// Scoring mirrors the datastore's lexical rank statistic: a full query
// substring in the content scores highest, then a title substring, then
// the query's first word in the title. Thread-safe.
type KeywordIndex struct {
	mu       sync.RWMutex
	articles []Article
}

// NewKeywordIndex creates an empty keyword index.
func NewKeywordIndex() *KeywordIndex {
	return &KeywordIndex{}
}

// Add indexes articles for lexical search.
func (k *KeywordIndex) Add(articles ...Article) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.articles = append(k.articles, articles...)
}

// SearchKeyword returns lexically matching articles ordered best-first.
// Candidates with no match at all are omitted.
func (k *KeywordIndex) SearchKeyword(ctx context.Context, text string, limit int) ([]fusion.Candidate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyQuery
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(text))
	firstWord := query
	if idx := strings.IndexByte(query, ' '); idx > 0 {
		firstWord = query[:idx]
	}

	type scored struct {
		article Article
		score   float64
		order   int
	}

	k.mu.RLock()
	matches := make([]scored, 0, len(k.articles))
	for i, a := range k.articles {
		var score float64
		switch {
		case strings.Contains(strings.ToLower(a.Content), query):
			score = contentMatchWeight
		case strings.Contains(strings.ToLower(a.Title), query):
			score = titleMatchWeight
		case strings.Contains(strings.ToLower(a.Title), firstWord):
			score = firstWordMatchWeight
		default:
			continue
		}
		matches = append(matches, scored{article: a, score: score, order: i})
	}
	k.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].order < matches[j].order
	})

	if limit > 0 && limit < len(matches) {
		matches = matches[:limit]
	}

	candidates := make([]fusion.Candidate, len(matches))
	for i, m := range matches {
		candidates[i] = fusion.Candidate{
			ID:          m.article.ID,
			Title:       m.article.Title,
			Content:     m.article.Content,
			LexicalRank: i,
			HasLexical:  true,
		}
	}
	return candidates, nil
}
