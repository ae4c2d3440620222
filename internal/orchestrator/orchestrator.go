// Package orchestrator drives one conversational turn end to end: it
// classifies the turn, consults policy, races the fast answer path
// against filler emission, and schedules detached enrichment.
package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lostlondon/vicd/internal/classify"
	"github.com/lostlondon/vicd/internal/fusion"
	"github.com/lostlondon/vicd/internal/generate"
	"github.com/lostlondon/vicd/internal/logging"
	"github.com/lostlondon/vicd/internal/memory"
	"github.com/lostlondon/vicd/internal/policy"
	"github.com/lostlondon/vicd/internal/session"
	"github.com/lostlondon/vicd/internal/stream"
)

// State names the phases of one turn.
type State int

const (
	StateDispatched State = iota
	StateFilling
	StateAnswering
	StateEnriching
	StateDone
)

func (s State) String() string {
	switch s {
	case StateDispatched:
		return "dispatched"
	case StateFilling:
		return "filling"
	case StateAnswering:
		return "answering"
	case StateEnriching:
		return "enriching"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Retriever is the hybrid retrieval collaborator.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]fusion.Fused, error)
}

// Emitter consumes the chunk stream for one turn.
type Emitter interface {
	Send(stream.Chunk) error
	Done() error
}

// Turn is one inbound conversational turn.
type Turn struct {
	SessionID string
	Messages  []classify.Message

	// UserName is the transport-provided name, stored on first sight.
	UserName string
}

// TurnResult reports what a turn did. Enrichment is non-nil when a
// detached enrichment task was dispatched; it is observable only.
type TurnResult struct {
	Kind       classify.Kind
	State      State
	Text       string
	Delivered  bool
	Enrichment *TaskHandle

	// FillerTokens is how many filler tokens were spoken before the
	// real answer arrived. Zero means the answer won the race outright.
	FillerTokens int
}

// Config tunes the orchestrator's timing.
type Config struct {
	// FastTimeout is the soft budget for producing the real answer
	// before degrading to a fallback.
	FastTimeout time.Duration

	// EnrichTimeout bounds the detached enrichment task.
	EnrichTimeout time.Duration

	// ReturningAfter is the idle gap after which a user counts as
	// returning.
	ReturningAfter time.Duration

	// FillerDelay paces filler tokens. Zero disables pacing.
	FillerDelay time.Duration
}

func (c *Config) applyDefaults() {
	if c.FastTimeout <= 0 {
		c.FastTimeout = 2 * time.Second
	}
	if c.EnrichTimeout <= 0 {
		c.EnrichTimeout = 5 * time.Second
	}
	if c.ReturningAfter <= 0 {
		c.ReturningAfter = 10 * time.Minute
	}
	if c.FillerDelay < 0 {
		c.FillerDelay = 0
	}
}

// Orchestrator coordinates the collaborators for every turn.
type Orchestrator struct {
	config    Config
	store     *session.Store
	retriever Retriever
	generator generate.Generator
	memory    memory.Client
	validator *policy.Validator
	trending  *policy.Trending
	logger    *logging.Logger
	now       func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New creates an orchestrator. A nil memory client degrades to no
// long-term memory; a nil logger discards logs.
func New(config Config, store *session.Store, retriever Retriever, generator generate.Generator, mem memory.Client, trending *policy.Trending, logger *logging.Logger, opts ...Option) *Orchestrator {
	config.applyDefaults()
	if mem == nil {
		mem = memory.NewNoop()
	}
	if trending == nil {
		trending = policy.NewTrending()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	o := &Orchestrator{
		config:    config,
		store:     store,
		retriever: retriever,
		generator: generator,
		memory:    mem,
		validator: policy.NewValidator(),
		trending:  trending,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HandleTurn runs one turn. Chunks go to out; the returned result
// describes what happened. Collaborator failures never surface as an
// error here: the stream degrades to a canned response instead. The
// only error cases are malformed input (no user message).
func (o *Orchestrator) HandleTurn(ctx context.Context, turn Turn, out Emitter) (*TurnResult, error) {
	ctx = logging.WithSessionID(ctx, turn.SessionID)

	raw, err := classify.ExtractUserMessage(turn.Messages)
	if err != nil {
		return nil, err
	}
	result := classify.Classify(raw)
	o.logger.Debug(ctx, "turn classified", zap.String("kind", result.Kind.String()))

	sess := o.store.GetOrCreate(turn.SessionID)
	if turn.UserName != "" && sess.UserName == "" {
		o.store.Update(turn.SessionID, func(c *session.Context) {
			c.UserName = turn.UserName
		})
		sess.UserName = turn.UserName
	}

	switch result.Kind {
	case classify.KindSilence:
		o.store.Touch(turn.SessionID)
		return &TurnResult{Kind: result.Kind, State: StateDone}, nil
	case classify.KindGreeting:
		return o.handleGreeting(ctx, turn.SessionID, sess, out)
	default:
		return o.handleQuery(ctx, turn.SessionID, sess, result, out)
	}
}

// handleGreeting speaks a greeting without touching retrieval.
func (o *Orchestrator) handleGreeting(ctx context.Context, sessionID string, sess *session.Context, out Emitter) (*TurnResult, error) {
	returning := policy.IsReturningUser(o.now(), sess.LastInteraction, o.config.ReturningAfter)

	priorTopic := sess.CurrentTopic
	if priorTopic == "" {
		if topic, err := o.memory.PriorTopic(ctx, sessionID); err == nil {
			priorTopic = topic
		}
	}

	text := policy.Greet(policy.GreetingInput{
		UserName:   sess.UserName,
		Returning:  returning,
		PriorTopic: priorTopic,
		SessionID:  sessionID,
	})

	delivered := o.deliver(ctx, sessionID, out, text)

	o.store.Update(sessionID, func(c *session.Context) {
		c.GreetedThisSession = true
		c.LastResponse = text
		c.LastInteraction = o.now()
		if c.UserName != "" {
			policy.MarkNameUsed(c)
		} else {
			policy.TurnWithoutName(c)
		}
	})

	return &TurnResult{Kind: classify.KindGreeting, State: StateDone, Text: text, Delivered: delivered}, nil
}

// deliver streams a complete text in one go and terminates the stream.
// Returns false when the client went away mid-stream; the stream is
// still terminated well-formed on a best-effort basis.
func (o *Orchestrator) deliver(ctx context.Context, sessionID string, out Emitter, text string) bool {
	em := newEmission(sessionID, out)
	delivered := em.emitText(ctx, text, 0)
	em.finish()
	return delivered
}
