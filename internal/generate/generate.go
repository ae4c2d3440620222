// Package generate defines the text-generation collaborator contract,
// prompt construction, and the post-generation grounding checks that run
// before an answer is spoken.
package generate

import (
	"context"
	"errors"
)

// Sentinel errors for generation.
var (
	// ErrGenerationFailed indicates the collaborator failed after all
	// retries.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrEmptyAnswer indicates the collaborator returned no text.
	ErrEmptyAnswer = errors.New("empty answer")
)

// Answer is a generated response with its source attribution.
type Answer struct {
	Text         string
	SourceTitles []string
}

// Generator produces an answer from a prompt. Implementations may fail
// transiently; callers bound retries.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Answer, error)
}

// Canned responses for degraded paths. Spoken verbatim, so they read as
// natural speech rather than errors.
const (
	// NoArticlesResponse is returned when retrieval found nothing.
	NoArticlesResponse = "I don't seem to have any articles about that in my collection. " +
		"Is there something else about London's history I can help you with?"

	// DegradedResponse is the worst-case fallback when the fast path
	// cannot produce an answer in budget.
	DegradedResponse = "I'm having a bit of trouble gathering my thoughts on that one. " +
		"Could you perhaps ask me in a different way?"
)
