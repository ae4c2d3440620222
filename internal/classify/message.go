package classify

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoUserMessage is returned when the inbound turn carries no
// recoverable user-role message.
var ErrNoUserMessage = errors.New("no user message found")

// Message is one role-tagged entry of the inbound conversation history.
//
// The speech front-end sends content either as a plain string or as a
// list of typed content blocks; both decode into Content.
type Message struct {
	Role    string
	Content string
}

// messageWire mirrors the OpenAI chat message shape on the wire.
type messageWire struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// contentBlock is one entry of a block-structured content list.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// UnmarshalJSON decodes a message, flattening block-structured content
// into a single text string.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w messageWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	m.Role = w.Role

	if len(w.Content) == 0 {
		m.Content = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(w.Content, &s); err == nil {
		m.Content = s
		return nil
	}

	var blocks []contentBlock
	if err := json.Unmarshal(w.Content, &blocks); err != nil {
		return err
	}
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	m.Content = strings.Join(parts, " ")
	return nil
}

// ExtractUserMessage returns the most recent user-role message text.
// Older user messages are ignored; assistant and system entries never
// match.
func ExtractUserMessage(messages []Message) (string, error) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content, nil
		}
	}
	return "", ErrNoUserMessage
}
