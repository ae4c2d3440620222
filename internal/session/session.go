// Package session provides the bounded, process-local store of
// per-conversation state.
//
// Sessions are created lazily on first reference, reclaimed by
// least-recently-used eviction when the store is at capacity, and never
// explicitly closed. Nothing here survives a restart.
package session

import "time"

// Entity is an extracted mention from a turn (person, place, era, ...).
type Entity struct {
	Name string `json:"name"`
	Type string `json:"type"`
	// Context is a short snippet showing the entity in use.
	Context string `json:"context,omitempty"`
}

// Connection is a graph-derived relation between two entities.
type Connection struct {
	From     string `json:"from"`
	Relation string `json:"relation"`
	To       string `json:"to"`
	Fact     string `json:"fact,omitempty"`
}

// Context holds everything remembered about one conversation.
//
// Instances are owned by the Store. Turn handlers receive copies via
// Snapshot/GetOrCreate and write back through Update; holding a *Context
// across turns is not supported.
type Context struct {
	ID       string `json:"id"`
	UserName string `json:"user_name,omitempty"`

	// Append-only histories, most recent last.
	Entities        []Entity     `json:"entities,omitempty"`
	Connections     []Connection `json:"connections,omitempty"`
	Suggestions     []string     `json:"suggestions,omitempty"`
	TopicsDiscussed []string     `json:"topics_discussed,omitempty"`

	// Most recent values, overwritten each turn.
	LastResponse       string `json:"last_response,omitempty"`
	LastSuggestedTopic string `json:"last_suggested_topic,omitempty"`
	CurrentTopic       string `json:"current_topic,omitempty"`

	// TurnsSinceNameUsed counts turns since the user's name was last
	// spoken. Never negative; reset to 0 when the name is used.
	TurnsSinceNameUsed int `json:"turns_since_name_used"`

	LastInteraction    time.Time `json:"last_interaction"`
	GreetedThisSession bool      `json:"greeted_this_session"`
}

// clone returns a deep copy so callers never alias store-owned slices.
func (c *Context) clone() *Context {
	cp := *c
	cp.Entities = append([]Entity(nil), c.Entities...)
	cp.Connections = append([]Connection(nil), c.Connections...)
	cp.Suggestions = append([]string(nil), c.Suggestions...)
	cp.TopicsDiscussed = append([]string(nil), c.TopicsDiscussed...)
	return &cp
}

// AddEntity appends an entity if not already present by name.
func (c *Context) AddEntity(e Entity) {
	for _, have := range c.Entities {
		if have.Name == e.Name {
			return
		}
	}
	c.Entities = append(c.Entities, e)
}

// AddTopic appends a topic to the discussed history (deduped) and makes
// it current.
func (c *Context) AddTopic(topic string) {
	if topic == "" {
		return
	}
	c.CurrentTopic = topic
	for _, have := range c.TopicsDiscussed {
		if have == topic {
			return
		}
	}
	c.TopicsDiscussed = append(c.TopicsDiscussed, topic)
}
