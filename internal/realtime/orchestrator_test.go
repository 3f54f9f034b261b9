package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/voicetyped/rtstt/internal/speech/engine"
)

type nilASR struct{ fakeASR }

func (nilASR) Transcribe(context.Context, engine.Request) (*engine.Transcription, error) {
	return nil, nil
}

func TestOrchestratorChunkOrderAndFields(t *testing.T) {
	buf := NewContextBuffer(10)
	o := NewOrchestrator(&fakeASR{}, buf, NewLanguageState("en"), engine.RealtimeDecodeOptions(), fixedClock(), nil)

	res, err := o.Transcribe(context.Background(), "n2.wav")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(res.Chunks) != 2 {
		t.Fatalf("chunks = %d, want 2", len(res.Chunks))
	}
	if res.Chunks[0].Start != 0 || res.Chunks[0].End != 1 || res.Chunks[1].Start != 1 {
		t.Errorf("segment times not preserved: %+v", res.Chunks)
	}
	if res.Chunks[0].Timestamp >= res.Chunks[1].Timestamp {
		t.Errorf("timestamps not assigned in order: %v, %v", res.Chunks[0].Timestamp, res.Chunks[1].Timestamp)
	}

	raw, err := json.Marshal(res.Chunks[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(raw), `{"timestamp":1700000000.`) ||
		!strings.HasSuffix(string(raw), `,"start":0,"end":1,"text":"segment 1"}`) {
		t.Errorf("chunk json = %s, want timestamp,start,end,text", raw)
	}
}

func TestOrchestratorErrorLeavesBufferUntouched(t *testing.T) {
	buf := NewContextBuffer(10)
	o := NewOrchestrator(&fakeASR{}, buf, NewLanguageState(""), engine.RealtimeDecodeOptions(), nil, nil)

	if _, err := o.Transcribe(context.Background(), "n4.wav"); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if _, err := o.Transcribe(context.Background(), "bad.wav"); err == nil {
		t.Fatal("expected error")
	}
	if buf.Len() != 4 {
		t.Errorf("buffer len = %d, want 4", buf.Len())
	}
}

func TestOrchestratorNilTranscription(t *testing.T) {
	buf := NewContextBuffer(10)
	o := NewOrchestrator(&nilASR{}, buf, NewLanguageState(""), engine.RealtimeDecodeOptions(), nil, nil)

	if _, err := o.Transcribe(context.Background(), "x.wav"); err == nil {
		t.Fatal("expected error for nil transcription")
	}
	if buf.Len() != 0 {
		t.Errorf("buffer len = %d, want 0", buf.Len())
	}
}

func TestOrchestratorCancelledBeforeAcquire(t *testing.T) {
	asr := &fakeASR{}
	o := NewOrchestrator(asr, NewContextBuffer(10), NewLanguageState(""), engine.RealtimeDecodeOptions(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Acquire succeeds on an uncontended semaphore even when ctx is done,
	// so hold the slot first.
	if err := o.inflight.Acquire(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	defer o.inflight.Release(1)

	if _, err := o.Transcribe(ctx, "n1.wav"); err == nil {
		t.Fatal("expected context error")
	}
	if len(asr.requests) != 0 {
		t.Errorf("engine called %d times", len(asr.requests))
	}
}
