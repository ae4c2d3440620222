// Package stream encodes answers as OpenAI-compatible streaming chat
// completion chunks and writes them as server-sent events. The voice
// transport consumes exactly this shape, so field names and the
// final-chunk protocol follow the chat.completions streaming API.
package stream

// Model is the model name advertised in every chunk.
const Model = "vic-clm-2.0"

// ObjectType is the fixed object discriminator for streaming chunks.
const ObjectType = "chat.completion.chunk"

// FinishStop marks the final chunk of a completed response.
const FinishStop = "stop"

// Delta is the incremental payload of one chunk. Role is set only on
// the first chunk of a response.
type Delta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// Choice wraps a delta. Index is always 0; there is one choice per
// response. FinishReason is set only on the terminal chunk.
type Choice struct {
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason,omitempty"`
	Index        int     `json:"index"`
}

// Chunk is one streaming chat completion chunk. SystemFingerprint
// carries the session ID so the transport can correlate turns.
type Chunk struct {
	ID                string   `json:"id"`
	Choices           []Choice `json:"choices"`
	Created           int64    `json:"created"`
	Model             string   `json:"model"`
	Object            string   `json:"object"`
	SystemFingerprint string   `json:"system_fingerprint,omitempty"`
}
