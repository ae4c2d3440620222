package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// doneEvent terminates every stream, well formed or not.
const doneEvent = "data: [DONE]\n\n"

// Writer emits chunks as server-sent events. When the underlying writer
// supports flushing, every event is flushed immediately so the transport
// can begin speaking without buffering.
type Writer struct {
	w       io.Writer
	flusher http.Flusher
}

// NewWriter wraps w for SSE output.
func NewWriter(w io.Writer) *Writer {
	sw := &Writer{w: w}
	if f, ok := w.(http.Flusher); ok {
		sw.flusher = f
	}
	return sw
}

// Send writes one chunk as an SSE data event.
func (w *Writer) Send(chunk Chunk) error {
	payload, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("marshaling chunk: %w", err)
	}
	if _, err := fmt.Fprintf(w.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("writing chunk: %w", err)
	}
	w.flush()
	return nil
}

// Done writes the end-of-stream sentinel.
func (w *Writer) Done() error {
	if _, err := io.WriteString(w.w, doneEvent); err != nil {
		return fmt.Errorf("writing done event: %w", err)
	}
	w.flush()
	return nil
}

func (w *Writer) flush() {
	if w.flusher != nil {
		w.flusher.Flush()
	}
}
