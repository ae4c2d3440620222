package stream

import (
	"time"

	"github.com/google/uuid"
)

// Encoder produces the chunk sequence for one response. All chunks share
// one ID and timestamp; encoding is a pure function of the text and the
// encoder's identity, so re-encoding the same text yields the same
// sequence.
type Encoder struct {
	id          string
	created     int64
	fingerprint string
}

// NewEncoder creates an encoder for one response within a session.
func NewEncoder(sessionID string) *Encoder {
	return &Encoder{
		id:          uuid.NewString(),
		created:     time.Now().Unix(),
		fingerprint: sessionID,
	}
}

// newEncoderAt pins identity and time, for tests.
func newEncoderAt(id string, created int64, sessionID string) *Encoder {
	return &Encoder{id: id, created: created, fingerprint: sessionID}
}

// Content builds a chunk carrying one token. The first chunk of a
// response also carries the assistant role marker.
func (e *Encoder) Content(token string, first bool) Chunk {
	delta := Delta{Content: token}
	if first {
		delta.Role = "assistant"
	}
	return e.chunk(delta, nil)
}

// Final builds the terminal chunk: empty delta, finish_reason "stop".
func (e *Encoder) Final() Chunk {
	reason := FinishStop
	return e.chunk(Delta{}, &reason)
}

func (e *Encoder) chunk(delta Delta, finish *string) Chunk {
	return Chunk{
		ID:                e.id,
		Choices:           []Choice{{Delta: delta, FinishReason: finish, Index: 0}},
		Created:           e.created,
		Model:             Model,
		Object:            ObjectType,
		SystemFingerprint: e.fingerprint,
	}
}

// Encode returns the full chunk sequence for a text: one chunk per
// token, role on the first, then the terminal chunk. Empty text still
// yields a start-marked empty delta and the terminal chunk so streams
// are never bodiless.
func (e *Encoder) Encode(text string) []Chunk {
	tokens := Tokens(text)
	if len(tokens) == 0 {
		tokens = []string{""}
	}
	chunks := make([]Chunk, 0, len(tokens)+1)
	for i, token := range tokens {
		chunks = append(chunks, e.Content(token, i == 0))
	}
	return append(chunks, e.Final())
}

// Tokens splits text into word-sized units for pacing. Whitespace
// attaches to the front of the following word, so concatenating the
// tokens reproduces the text exactly.
func Tokens(text string) []string {
	if text == "" {
		return nil
	}
	var tokens []string
	start := 0
	seenWord := false
	prevSpace := false
	for i, r := range text {
		isSpace := r == ' ' || r == '\t' || r == '\n' || r == '\r'
		if isSpace && !prevSpace && seenWord {
			tokens = append(tokens, text[start:i])
			start = i
			seenWord = false
		}
		if !isSpace {
			seenWord = true
		}
		prevSpace = isSpace
	}
	return append(tokens, text[start:])
}
