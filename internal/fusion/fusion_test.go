package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidates(ids ...string) []Candidate {
	out := make([]Candidate, len(ids))
	for i, id := range ids {
		out[i] = Candidate{ID: id, Title: "title-" + id}
	}
	return out
}

func TestFuse_CrossListRanking(t *testing.T) {
	// semantic [A,B,C], lexical [B,A,D], limit 2:
	// A = 1/60 + 1/61, B = 1/61 + 1/60 (tie), C = 1/62, D = 1/62.
	fused := Fuse(candidates("A", "B", "C"), candidates("B", "A", "D"), 2)
	require.Len(t, fused, 2)

	got := []string{fused[0].ID, fused[1].ID}
	assert.ElementsMatch(t, []string{"A", "B"}, got)
	assert.InDelta(t, 1.0/60+1.0/61, fused[0].Score, 1e-12)
	assert.Equal(t, fused[0].Score, fused[1].Score, "A and B tie exactly")
	// First-seen precedence: A entered first (semantic rank 0).
	assert.Equal(t, "A", fused[0].ID)
}

func TestFuse_TieBrokenByFirstSeen(t *testing.T) {
	// C (semantic rank 2) and D (lexical rank 2) score 1/62 each;
	// C was seen first.
	fused := Fuse(candidates("A", "B", "C"), candidates("B", "A", "D"), 4)
	require.Len(t, fused, 4)
	assert.Equal(t, "C", fused[2].ID)
	assert.Equal(t, "D", fused[3].ID)
}

func TestFuse_SingleListOnly(t *testing.T) {
	fused := Fuse(candidates("A", "B"), nil, 10)
	require.Len(t, fused, 2)
	assert.Equal(t, "A", fused[0].ID)
	assert.InDelta(t, 1.0/60, fused[0].Score, 1e-12)
	assert.True(t, fused[0].HasSemantic)
	assert.False(t, fused[0].HasLexical)
}

func TestFuse_IDUniqueness(t *testing.T) {
	fused := Fuse(candidates("A", "B"), candidates("A", "B"), 10)
	require.Len(t, fused, 2)
	seen := map[string]bool{}
	for _, f := range fused {
		assert.False(t, seen[f.ID], "duplicate id %s", f.ID)
		seen[f.ID] = true
		assert.True(t, f.HasSemantic)
		assert.True(t, f.HasLexical)
	}
}

func TestFuse_Monotonicity(t *testing.T) {
	// Moving a candidate to a better rank in either list never
	// decreases its fused score.
	base := Fuse(candidates("A", "B", "X"), candidates("C", "D", "X"), 10)
	improved := Fuse(candidates("A", "X", "B"), candidates("C", "D", "X"), 10)

	scoreOf := func(fs []Fused, id string) float64 {
		for _, f := range fs {
			if f.ID == id {
				return f.Score
			}
		}
		t.Fatalf("candidate %s missing", id)
		return 0
	}

	assert.Greater(t, scoreOf(improved, "X"), scoreOf(base, "X"))
}

func TestFuse_Symmetry(t *testing.T) {
	// Swapping which list is semantic vs lexical leaves scores
	// unchanged; scores are additive and rank-based.
	listOne := candidates("A", "B", "C")
	listTwo := candidates("B", "A", "D")

	forward := Fuse(listOne, listTwo, 10)
	swapped := Fuse(listTwo, listOne, 10)

	forwardScores := map[string]float64{}
	for _, f := range forward {
		forwardScores[f.ID] = f.Score
	}
	for _, f := range swapped {
		assert.InDelta(t, forwardScores[f.ID], f.Score, 1e-12, "score mismatch for %s", f.ID)
	}
}

func TestFuse_LimitAndEmpty(t *testing.T) {
	assert.Nil(t, Fuse(candidates("A"), nil, 0))
	assert.Empty(t, Fuse(nil, nil, 5))

	fused := Fuse(candidates("A", "B", "C"), nil, 2)
	assert.Len(t, fused, 2)
}

func TestFuse_MergesSparseFields(t *testing.T) {
	semantic := []Candidate{{ID: "A", SemanticScore: 0.9}}
	lexical := []Candidate{{ID: "A", Title: "The Thames", Content: "river history"}}

	fused := Fuse(semantic, lexical, 1)
	require.Len(t, fused, 1)
	assert.Equal(t, "The Thames", fused[0].Title)
	assert.Equal(t, "river history", fused[0].Content)
	assert.Equal(t, float32(0.9), fused[0].SemanticScore)
}
