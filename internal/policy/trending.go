package policy

import (
	"sort"
	"sync"
)

// TopicCount is one trending entry.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// Trending counts topics asked about, globally and per session. It backs
// the debug surface only; counters reset on restart.
type Trending struct {
	mu         sync.RWMutex
	global     map[string]int
	perSession map[string]map[string]int
}

// NewTrending creates an empty counter set.
func NewTrending() *Trending {
	return &Trending{
		global:     make(map[string]int),
		perSession: make(map[string]map[string]int),
	}
}

// Record counts one ask of topic within a session. Empty topics are
// ignored.
func (t *Trending) Record(sessionID, topic string) {
	if topic == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.global[topic]++
	if sessionID != "" {
		m := t.perSession[sessionID]
		if m == nil {
			m = make(map[string]int)
			t.perSession[sessionID] = m
		}
		m[topic]++
	}
}

// Global returns the top n topics across all sessions, most asked first.
// Ties order alphabetically so output is stable.
func (t *Trending) Global(n int) []TopicCount {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return topN(t.global, n)
}

// Session returns the top n topics for one session.
func (t *Trending) Session(sessionID string, n int) []TopicCount {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return topN(t.perSession[sessionID], n)
}

func topN(counts map[string]int, n int) []TopicCount {
	out := make([]TopicCount, 0, len(counts))
	for topic, count := range counts {
		out = append(out, TopicCount{Topic: topic, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Topic < out[j].Topic
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
