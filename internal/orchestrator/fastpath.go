package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lostlondon/vicd/internal/classify"
	"github.com/lostlondon/vicd/internal/fusion"
	"github.com/lostlondon/vicd/internal/generate"
	"github.com/lostlondon/vicd/internal/memory"
	"github.com/lostlondon/vicd/internal/policy"
	"github.com/lostlondon/vicd/internal/session"
	"github.com/lostlondon/vicd/internal/stream"
)

// emission tracks chunk output for one turn so the role marker lands on
// the first chunk regardless of whether filler or answer got there
// first.
type emission struct {
	enc   *stream.Encoder
	out   Emitter
	count int
	dead  bool
}

func newEmission(sessionID string, out Emitter) *emission {
	return &emission{enc: stream.NewEncoder(sessionID), out: out}
}

// emit sends one token. After the first failed send the emission goes
// dead and further tokens are dropped silently.
func (e *emission) emit(token string) bool {
	if e.dead {
		return false
	}
	if err := e.out.Send(e.enc.Content(token, e.count == 0)); err != nil {
		e.dead = true
		return false
	}
	e.count++
	return true
}

// emitText streams a text token by token, pausing delay between tokens.
// Returns false if the client went away or the context was cancelled.
func (e *emission) emitText(ctx context.Context, text string, delay time.Duration) bool {
	for _, token := range stream.Tokens(text) {
		if ctx.Err() != nil {
			e.dead = true
			return false
		}
		if !e.emit(token) {
			return false
		}
		if delay > 0 {
			select {
			case <-ctx.Done():
				e.dead = true
				return false
			case <-time.After(delay):
			}
		}
	}
	return !e.dead
}

// finish terminates the stream well-formed even when emission died
// mid-way; the writes simply fail quietly if the client is gone.
func (e *emission) finish() {
	if err := e.out.Send(e.enc.Final()); err != nil {
		e.dead = true
	}
	if err := e.out.Done(); err != nil {
		e.dead = true
	}
}

// fastResult is the fast path's outcome: always an answer, degraded or
// not, plus what the enrichment path needs to know.
type fastResult struct {
	answer   *generate.Answer
	sources  []fusion.Fused
	usedName bool
	degraded bool
}

// handleQuery runs the validation gate, then races the fast answer path
// against filler emission, then dispatches enrichment.
func (o *Orchestrator) handleQuery(ctx context.Context, sessionID string, sess *session.Context, result classify.Result, out Emitter) (*TurnResult, error) {
	query := classify.NormalizeQuery(classify.ResolveQuery(result, sess.LastSuggestedTopic))

	if verdict := o.validator.Check(query); !verdict.Safe() {
		o.logger.Info(ctx, "turn blocked by content validation", zap.String("category", string(verdict.Category)))
		delivered := o.deliver(ctx, sessionID, out, verdict.Response)
		o.store.Update(sessionID, func(c *session.Context) {
			c.LastResponse = verdict.Response
			c.LastInteraction = o.now()
			policy.TurnWithoutName(c)
		})
		return &TurnResult{Kind: result.Kind, State: StateDone, Text: verdict.Response, Delivered: delivered}, nil
	}

	if policy.IsCorrection(query) {
		return o.handleCorrection(ctx, sessionID, sess, result, query, out)
	}

	topic := policy.ExtractTopic(query)
	o.trending.Record(sessionID, topic)

	fastCtx, cancel := context.WithTimeout(ctx, o.config.FastTimeout)
	defer cancel()

	resultCh := make(chan *fastResult, 1)
	go func() {
		resultCh <- o.fastPath(fastCtx, *sess, query)
	}()
	o.logger.Debug(ctx, "turn state", zap.Stringer("state", StateDispatched))

	em := newEmission(sessionID, out)
	o.logger.Debug(ctx, "turn state", zap.Stringer("state", StateFilling))
	fast := o.emitFillerUntilAnswer(ctx, em, topic, resultCh)
	fillerTokens := em.count
	o.logger.Debug(ctx, "turn state", zap.Stringer("state", StateAnswering))

	text := fast.answer.Text
	if framing := policy.EmotionFraming(result.Emotion); framing != "" && !fast.degraded {
		text = framing + text
	}
	if em.count > 0 {
		// The filler already spoke; separate it from the answer.
		text = " " + text
	}
	em.emitText(ctx, text, 0)
	em.finish()
	delivered := !em.dead

	usedName := fast.usedName && !fast.degraded
	o.store.Update(sessionID, func(c *session.Context) {
		c.LastResponse = fast.answer.Text
		c.LastInteraction = o.now()
		if topic != "" {
			c.AddTopic(topic)
		}
		if usedName {
			policy.MarkNameUsed(c)
		} else {
			policy.TurnWithoutName(c)
		}
	})

	o.logger.Debug(ctx, "turn state", zap.Stringer("state", StateEnriching))
	handle := o.enrich(ctx, sessionID, query, fast)

	return &TurnResult{
		Kind:         result.Kind,
		State:        StateDone,
		Text:         fast.answer.Text,
		Delivered:    delivered,
		Enrichment:   handle,
		FillerTokens: fillerTokens,
	}, nil
}

// handleCorrection acknowledges a user correction and queues it for
// review. The turn never reaches retrieval or generation: the original
// answer stays as it was until a person has reviewed the claim.
func (o *Orchestrator) handleCorrection(ctx context.Context, sessionID string, sess *session.Context, result classify.Result, text string, out Emitter) (*TurnResult, error) {
	ack := policy.CorrectionAck(sess.UserName)
	delivered := o.deliver(ctx, sessionID, out, ack)

	if err := o.memory.SaveCorrection(ctx, memory.Correction{
		SessionID: sessionID,
		UserName:  sess.UserName,
		Text:      text,
	}); err != nil {
		o.logger.Warn(ctx, "failed to store correction", zap.Error(err))
	} else {
		o.logger.Info(ctx, "voice correction captured", zap.String("text", text))
	}

	o.store.Update(sessionID, func(c *session.Context) {
		c.LastResponse = ack
		c.LastInteraction = o.now()
		if c.UserName != "" {
			policy.MarkNameUsed(c)
		} else {
			policy.TurnWithoutName(c)
		}
	})

	return &TurnResult{Kind: result.Kind, State: StateDone, Text: ack, Delivered: delivered}, nil
}

// emitFillerUntilAnswer paces filler tokens until the fast path
// delivers, stopping mid-utterance the moment the answer is ready. The
// filler never resumes once the answer has arrived.
func (o *Orchestrator) emitFillerUntilAnswer(ctx context.Context, em *emission, topic string, resultCh <-chan *fastResult) *fastResult {
	filler := stream.Tokens(policy.FillerFor(topic))

	for _, token := range filler {
		select {
		case fast := <-resultCh:
			return fast
		case <-ctx.Done():
			em.dead = true
			return <-resultCh
		default:
		}
		if !em.emit(token) {
			break
		}
		if o.config.FillerDelay > 0 {
			select {
			case fast := <-resultCh:
				return fast
			case <-ctx.Done():
				em.dead = true
				return <-resultCh
			case <-time.After(o.config.FillerDelay):
			}
		}
	}

	select {
	case fast := <-resultCh:
		return fast
	case <-ctx.Done():
		em.dead = true
		return <-resultCh
	}
}

// fastPath produces the answer within the soft budget. It never returns
// an error: every failure degrades to a canned response so the stream
// can always complete.
func (o *Orchestrator) fastPath(ctx context.Context, sess session.Context, query string) *fastResult {
	degraded := &fastResult{
		answer:   &generate.Answer{Text: generate.DegradedResponse},
		degraded: true,
	}

	sources, err := o.retriever.Retrieve(ctx, query)
	if err != nil {
		o.logger.Warn(ctx, "retrieval failed, degrading", zap.Error(err))
		return degraded
	}
	if len(sources) == 0 {
		return &fastResult{
			answer:   &generate.Answer{Text: generate.NoArticlesResponse},
			degraded: true,
		}
	}

	// Graph connections are a nice-to-have; failures just mean none.
	connections, err := o.memory.Connections(ctx, query)
	if err != nil {
		o.logger.Debug(ctx, "graph connections unavailable", zap.Error(err))
		connections = nil
	}

	useName := policy.ShouldUseName(sess)
	prompt := generate.BuildPrompt(generate.PromptInput{
		Query:       query,
		Sources:     sources,
		UserName:    sess.UserName,
		UseName:     useName,
		Connections: connections,
	})

	answer, err := o.generator.Generate(ctx, prompt)
	if err != nil {
		o.logger.Warn(ctx, "generation failed, degrading", zap.Error(err))
		return degraded
	}

	answer.Text = generate.Validate(answer.Text, generate.SourceContent(sources))
	answer.SourceTitles = generate.SourceTitles(sources)

	return &fastResult{answer: answer, sources: sources, usedName: useName}
}
