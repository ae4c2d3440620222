// Package fusion merges the two independently ranked retrieval lists
// (semantic and lexical) into one ranked list using Reciprocal Rank
// Fusion.
//
// RRF is deliberately rank-based rather than raw-score-based: cosine
// similarity and a lexical rank statistic live on different scales, and
// summing 1/(K+rank) terms combines them without any renormalization.
// Improving a candidate's position in either source list can only
// improve its fused rank.
package fusion

import "sort"

// K is the RRF smoothing constant. With K=60 the difference between
// adjacent top ranks stays meaningful while deep ranks still contribute.
const K = 60

// Candidate is one retrieval result. SemanticScore and LexicalRank are
// informational; fusion only looks at list positions.
type Candidate struct {
	ID      string
	Title   string
	Content string

	// SemanticScore is the similarity reported by the vector search,
	// present only when the candidate appeared in the semantic list.
	SemanticScore float32
	HasSemantic   bool

	// LexicalRank is the 0-based position in the lexical list, present
	// only when the candidate appeared there.
	LexicalRank int
	HasLexical  bool
}

// Fused is a candidate with its combined score.
type Fused struct {
	Candidate
	Score float64
}

// Fuse merges two rank-ordered candidate lists into one list sorted by
// descending RRF score, truncated to limit.
//
// Each list contributes 1/(K+rank) per candidate; a candidate missing
// from a list contributes nothing for it. Ties are broken by first-seen
// order, semantic list first, so the result is stable. Candidate IDs are
// unique in the output: duplicate appearances merge into one entry.
func Fuse(semantic, lexical []Candidate, limit int) []Fused {
	if limit <= 0 {
		return nil
	}

	type entry struct {
		fused Fused
		seen  int // first-seen order for stable tie-breaking
	}
	byID := make(map[string]*entry, len(semantic)+len(lexical))
	order := 0

	add := func(c Candidate, rank int, fromSemantic bool) {
		e, ok := byID[c.ID]
		if !ok {
			e = &entry{fused: Fused{Candidate: c}, seen: order}
			order++
			byID[c.ID] = e
		}
		if fromSemantic {
			e.fused.HasSemantic = true
			e.fused.SemanticScore = c.SemanticScore
		} else {
			e.fused.HasLexical = true
			e.fused.LexicalRank = rank
		}
		// Fill in fields a sparse source list may have omitted.
		if e.fused.Title == "" {
			e.fused.Title = c.Title
		}
		if e.fused.Content == "" {
			e.fused.Content = c.Content
		}
		e.fused.Score += 1.0 / float64(K+rank)
	}

	for rank, c := range semantic {
		add(c, rank, true)
	}
	for rank, c := range lexical {
		add(c, rank, false)
	}

	entries := make([]*entry, 0, len(byID))
	for _, e := range byID {
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].fused.Score != entries[j].fused.Score {
			return entries[i].fused.Score > entries[j].fused.Score
		}
		return entries[i].seen < entries[j].seen
	})

	if limit > len(entries) {
		limit = len(entries)
	}
	out := make([]Fused, limit)
	for i := 0; i < limit; i++ {
		out[i] = entries[i].fused
	}
	return out
}
