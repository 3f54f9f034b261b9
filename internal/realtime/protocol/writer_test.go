package protocol

import (
	"errors"
	"math"
	"strings"
	"testing"
)

// countingWriter records how many times data reached the underlying writer.
type countingWriter struct {
	strings.Builder
	writes int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.writes++
	return c.Builder.Write(p)
}

func TestWriterEnvelopes(t *testing.T) {
	var out countingWriter
	w := NewWriter(&out)

	if err := w.Ready(); err != nil {
		t.Fatalf("Ready: %v", err)
	}
	if out.writes != 1 {
		t.Fatalf("writes after Ready = %d, want 1 (flushed)", out.writes)
	}
	if err := w.Ack(); err != nil {
		t.Fatalf("Ack: %v", err)
	}
	if err := w.Fail(errors.New("arquivo não encontrado: <a&b>")); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	want := `{"status":"ready"}` + "\n" +
		`{"success":true}` + "\n" +
		`{"success":false,"error":"arquivo não encontrado: <a&b>"}` + "\n"
	if got := out.String(); got != want {
		t.Errorf("output =\n%s\nwant\n%s", got, want)
	}
	if out.writes != 3 {
		t.Errorf("writes = %d, want 3", out.writes)
	}
}

func TestWriterEncodeFailureWritesNothing(t *testing.T) {
	var out strings.Builder
	w := NewWriter(&out)

	err := w.Write(map[string]float64{"start": math.NaN()})
	if !errors.Is(err, ErrEncode) {
		t.Fatalf("Write error = %v, want %v", err, ErrEncode)
	}
	if out.Len() != 0 {
		t.Errorf("output = %q, want empty", out.String())
	}
}
