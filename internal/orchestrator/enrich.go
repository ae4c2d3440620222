package orchestrator

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/lostlondon/vicd/internal/memory"
	"github.com/lostlondon/vicd/internal/session"
)

// enrich dispatches the deferred enrichment work for a delivered turn.
// The task survives the request context (a hung-up client is no reason
// to forget the conversation) and runs under its own budget. Its handle
// is observable for logging only; nothing waits on it.
func (o *Orchestrator) enrich(parent context.Context, sessionID, query string, fast *fastResult) *TaskHandle {
	handle := newTaskHandle()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), o.config.EnrichTimeout)

	go func() {
		defer cancel()
		err := o.runEnrichment(ctx, sessionID, query, fast)
		if err != nil {
			o.logger.Warn(ctx, "enrichment failed", zap.Error(err))
		} else {
			o.logger.Debug(ctx, "enrichment complete")
		}
		handle.finish(err)
	}()

	return handle
}

// runEnrichment persists the turn to long-term memory and appends
// derived state to the session. All session writes here are additive so
// they can never clobber fast-path writes that already committed.
func (o *Orchestrator) runEnrichment(ctx context.Context, sessionID, query string, fast *fastResult) error {
	answer := fast.answer

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	record(o.memory.SaveMessage(ctx, memory.Message{
		UserID:    sessionID,
		SessionID: sessionID,
		Role:      "user",
		Content:   query,
	}))
	record(o.memory.SaveMessage(ctx, memory.Message{
		UserID:    sessionID,
		SessionID: sessionID,
		Role:      "assistant",
		Content:   answer.Text,
	}))

	connections, err := o.memory.Connections(ctx, query)
	record(err)

	entities := extractEntities(answer.Text)
	suggestion := nextSuggestion(fast)

	o.store.Update(sessionID, func(c *session.Context) {
		for _, e := range entities {
			c.AddEntity(e)
		}
		c.Connections = appendConnections(c.Connections, connections)
		if suggestion != "" {
			c.Suggestions = append(c.Suggestions, suggestion)
			c.LastSuggestedTopic = suggestion
		}
	})

	return firstErr
}

// entityStopWords are capitalized words that start sentences or are too
// generic to be worth remembering.
var entityStopWords = map[string]bool{
	"A": true, "An": true, "And": true, "But": true, "I": true,
	"If": true, "In": true, "It": true, "Its": true, "My": true,
	"Of": true, "On": true, "Shall": true, "So": true, "The": true,
	"There": true, "They": true, "This": true, "Well": true,
	"What": true, "When": true, "You": true,
}

// extractEntities pulls proper-noun phrases out of an answer: runs of
// consecutive capitalized words, capped at four words per phrase.
// Single generic capitals and sentence-starters are skipped.
func extractEntities(text string) []session.Entity {
	words := strings.Fields(text)
	var entities []session.Entity
	seen := make(map[string]bool)

	var run []string
	flush := func() {
		if len(run) == 0 {
			return
		}
		if len(run) == 1 && entityStopWords[strings.Trim(run[0], ".,!?;:'\"")] {
			run = nil
			return
		}
		name := strings.Trim(strings.Join(run, " "), ".,!?;:'\"")
		run = nil
		if len(name) < 3 || seen[name] {
			return
		}
		seen[name] = true
		entities = append(entities, session.Entity{Name: name, Type: "place_or_person"})
	}

	for _, w := range words {
		trimmed := strings.Trim(w, ".,!?;:'\"")
		if isCapitalized(trimmed) && !entityStopWords[trimmed] && len(run) < 4 {
			run = append(run, trimmed)
			continue
		}
		flush()
	}
	flush()
	return entities
}

func isCapitalized(w string) bool {
	if len(w) < 2 {
		return false
	}
	return w[0] >= 'A' && w[0] <= 'Z' && w[1] >= 'a' && w[1] <= 'z'
}

// nextSuggestion proposes a follow-up topic from the sources that
// backed the answer: the first source title beyond the one just used.
func nextSuggestion(fast *fastResult) string {
	if len(fast.sources) < 2 {
		return ""
	}
	return fast.sources[1].Title
}

// appendConnections appends new connections, deduplicated by their
// from/relation/to triple. Existing entries are never removed.
func appendConnections(existing, incoming []session.Connection) []session.Connection {
	if len(incoming) == 0 {
		return existing
	}
	seen := make(map[string]bool, len(existing))
	key := func(c session.Connection) string {
		return c.From + "\x00" + c.Relation + "\x00" + c.To
	}
	for _, c := range existing {
		seen[key(c)] = true
	}
	for _, c := range incoming {
		if !seen[key(c)] {
			seen[key(c)] = true
			existing = append(existing, c)
		}
	}
	return existing
}
