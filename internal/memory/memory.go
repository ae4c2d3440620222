// Package memory defines the long-term memory collaborator contract.
//
// The collaborator is a knowledge-graph service that stores conversation
// turns and serves cross-article connections and a user's prior topic.
// It is strictly best-effort: callers treat every error as "no memory"
// and never let it block the fast path.
package memory

import (
	"context"

	"github.com/lostlondon/vicd/internal/session"
)

// Message is one conversation turn persisted to long-term memory.
type Message struct {
	UserID    string
	SessionID string
	Role      string
	Content   string
}

// Correction is a user-supplied factual correction, held for human
// review before it can amend the article collection.
type Correction struct {
	SessionID string
	UserName  string
	Text      string
}

// Client is the graph-memory collaborator.
type Client interface {
	// SaveMessage persists a turn. Non-safe turns must not be saved;
	// that gate lives with the caller.
	SaveMessage(ctx context.Context, msg Message) error

	// SaveCorrection queues a user correction for review.
	SaveCorrection(ctx context.Context, c Correction) error

	// Connections returns cross-article facts related to a query.
	Connections(ctx context.Context, query string) ([]session.Connection, error)

	// PriorTopic returns the user's most recent topic from an earlier
	// session, or "" when none is known.
	PriorTopic(ctx context.Context, userID string) (string, error)
}

// Noop is a Client that remembers nothing. It serves deployments without
// a graph service and keeps tests free of network collaborators.
type Noop struct{}

// NewNoop returns a no-op memory client.
func NewNoop() *Noop {
	return &Noop{}
}

func (*Noop) SaveMessage(ctx context.Context, msg Message) error {
	return nil
}

func (*Noop) SaveCorrection(ctx context.Context, c Correction) error {
	return nil
}

func (*Noop) Connections(ctx context.Context, query string) ([]session.Connection, error) {
	return nil, nil
}

func (*Noop) PriorTopic(ctx context.Context, userID string) (string, error) {
	return "", nil
}
