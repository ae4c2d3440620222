package stream

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"single word", "Hello", []string{"Hello"}},
		{"spaces attach forward", "Hello there, world", []string{"Hello", " there,", " world"}},
		{"leading space", " leading word", []string{" leading", " word"}},
		{"trailing space", "word ", []string{"word", " "}},
		{"newlines", "one\ntwo", []string{"one", "\ntwo"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokens(tt.text)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.text, strings.Join(got, ""), "tokens must concatenate back to the text")
		})
	}
}

func TestEncoder_Encode(t *testing.T) {
	e := newEncoderAt("chunk-1", 1700000000, "session-9")
	chunks := e.Encode("Hello there")

	require.Len(t, chunks, 3)

	first := chunks[0]
	assert.Equal(t, "chunk-1", first.ID)
	assert.Equal(t, int64(1700000000), first.Created)
	assert.Equal(t, Model, first.Model)
	assert.Equal(t, ObjectType, first.Object)
	assert.Equal(t, "session-9", first.SystemFingerprint)
	require.Len(t, first.Choices, 1)
	assert.Equal(t, "assistant", first.Choices[0].Delta.Role, "role marker on first chunk only")
	assert.Equal(t, "Hello", first.Choices[0].Delta.Content)
	assert.Nil(t, first.Choices[0].FinishReason)

	second := chunks[1]
	assert.Empty(t, second.Choices[0].Delta.Role)
	assert.Equal(t, " there", second.Choices[0].Delta.Content)

	final := chunks[2]
	assert.Empty(t, final.Choices[0].Delta.Content)
	require.NotNil(t, final.Choices[0].FinishReason)
	assert.Equal(t, FinishStop, *final.Choices[0].FinishReason)
}

func TestEncoder_EncodeEmptyText(t *testing.T) {
	chunks := newEncoderAt("id", 1, "s").Encode("")
	require.Len(t, chunks, 2, "empty text still opens and terminates the stream")
	assert.Equal(t, "assistant", chunks[0].Choices[0].Delta.Role)
	assert.Empty(t, chunks[0].Choices[0].Delta.Content)
	require.NotNil(t, chunks[1].Choices[0].FinishReason)
}

func TestEncoder_Restartable(t *testing.T) {
	e := newEncoderAt("id", 42, "s")
	assert.Equal(t, e.Encode("same text"), e.Encode("same text"))
}

func TestWriter_SendAndDone(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	e := newEncoderAt("id-1", 5, "sess")
	require.NoError(t, w.Send(e.Content("Hi", true)))
	require.NoError(t, w.Done())

	out := buf.String()
	assert.True(t, strings.HasSuffix(out, "data: [DONE]\n\n"))

	events := strings.Split(strings.TrimSuffix(out, "\n\n"), "\n\n")
	require.Len(t, events, 2)

	payload := strings.TrimPrefix(events[0], "data: ")
	var chunk Chunk
	require.NoError(t, json.Unmarshal([]byte(payload), &chunk))
	assert.Equal(t, "id-1", chunk.ID)
	assert.Equal(t, "Hi", chunk.Choices[0].Delta.Content)
	assert.Equal(t, "sess", chunk.SystemFingerprint)
}

func TestChunkJSON_OmitsUnsetFields(t *testing.T) {
	e := newEncoderAt("id", 1, "")
	payload, err := json.Marshal(e.Content("x", false))
	require.NoError(t, err)

	s := string(payload)
	assert.NotContains(t, s, `"role"`)
	assert.NotContains(t, s, `"finish_reason"`)
	assert.NotContains(t, s, `"system_fingerprint"`)
}
