package engine

import (
	"context"
	"errors"
)

// ErrClosed is returned by engines that have been shut down.
var ErrClosed = errors.New("engine is closed")

// Request describes one decoding pass over an audio file.
type Request struct {
	AudioPath string
	Language  string
	Options   DecodeOptions
}

// Transcription is the result of decoding a single audio file.
type Transcription struct {
	Segments            []Segment
	Language            string
	LanguageProbability float64
	Duration            float64
}

// Segment is a timed piece of a transcription. Times are in seconds.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// ModelInfo describes an available model for a backend.
type ModelInfo struct {
	ID          string
	DisplayName string
	IsDefault   bool
}

// ASREngine transcribes audio files. Implementations are loaded by their
// registry factory and must be ready to decode when returned.
type ASREngine interface {
	Transcribe(ctx context.Context, req Request) (*Transcription, error)
	Models() []ModelInfo
	Close() error
}
