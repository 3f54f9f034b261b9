package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/voicetyped/rtstt/internal/speech/engine"
)

// TranscribeResult is the success envelope for a transcribe command: the
// chunks produced by this call and the context buffer after appending them.
type TranscribeResult struct {
	Success bool    `json:"success"`
	Chunks  []Chunk `json:"chunks"`
	Context []Chunk `json:"context"`
}

// Orchestrator runs one engine call per request and folds the resulting
// segments into the context buffer.
type Orchestrator struct {
	asr      engine.ASREngine
	buffer   *ContextBuffer
	language *LanguageState
	options  engine.DecodeOptions
	now      func() time.Time
	logger   *slog.Logger

	// inflight admits a single transcription at a time.
	inflight *semaphore.Weighted
}

// NewOrchestrator creates an orchestrator over the given session state.
func NewOrchestrator(asr engine.ASREngine, buffer *ContextBuffer, language *LanguageState, options engine.DecodeOptions, now func() time.Time, logger *slog.Logger) *Orchestrator {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		asr:      asr,
		buffer:   buffer,
		language: language,
		options:  options,
		now:      now,
		logger:   logger,
		inflight: semaphore.NewWeighted(1),
	}
}

// Transcribe decodes audioPath with the current language. On error the
// buffer is left untouched.
func (o *Orchestrator) Transcribe(ctx context.Context, audioPath string) (*TranscribeResult, error) {
	if err := o.inflight.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer o.inflight.Release(1)

	language := o.language.Get()
	start := time.Now()
	tr, err := o.asr.Transcribe(ctx, engine.Request{
		AudioPath: audioPath,
		Language:  language,
		Options:   o.options,
	})
	if err != nil {
		return nil, err
	}
	if tr == nil {
		return nil, fmt.Errorf("engine returned no transcription for %q", audioPath)
	}

	o.logger.Debug("transcribed",
		slog.String("audio_path", audioPath),
		slog.String("language", language),
		slog.String("detected_language", tr.Language),
		slog.Float64("language_probability", tr.LanguageProbability),
		slog.Float64("duration", tr.Duration),
		slog.Int("segments", len(tr.Segments)),
		slog.Duration("elapsed", time.Since(start)),
	)

	chunks := make([]Chunk, 0, len(tr.Segments))
	for _, s := range tr.Segments {
		c := Chunk{
			Timestamp: unixSeconds(o.now()),
			Start:     s.Start,
			End:       s.End,
			Text:      strings.TrimSpace(s.Text),
		}
		chunks = append(chunks, c)
		o.buffer.Append(c)
	}

	return &TranscribeResult{
		Success: true,
		Chunks:  chunks,
		Context: o.buffer.Snapshot(),
	}, nil
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
