package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrEncode marks a response that could not be serialized. The output
// stream is untouched when it is returned.
var ErrEncode = errors.New("encode response")

// Ready is the one-time readiness signal.
type Ready struct {
	Status string `json:"status"`
}

// Ack acknowledges a command that produces no data.
type Ack struct {
	Success bool `json:"success"`
}

// Failure reports an error for one input line.
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewFailure builds the failure envelope for err.
func NewFailure(err error) Failure {
	return Failure{Success: false, Error: err.Error()}
}

// Writer emits one JSON object per line and flushes after each one.
type Writer struct {
	mu sync.Mutex
	w  *bufio.Writer
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write encodes v on its own line and flushes. If v cannot be encoded
// nothing is written.
func (w *Writer) Write(v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("flush response: %w", err)
	}
	return nil
}

// Ready writes {"status":"ready"}.
func (w *Writer) Ready() error {
	return w.Write(Ready{Status: "ready"})
}

// Ack writes {"success":true}.
func (w *Writer) Ack() error {
	return w.Write(Ack{Success: true})
}

// Fail writes {"success":false,"error":...}.
func (w *Writer) Fail(err error) error {
	return w.Write(NewFailure(err))
}
