package realtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/voicetyped/rtstt/internal/speech/engine"
)

// FileSegment is one segment of a one-shot transcription.
type FileSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// FileResult is the output of a one-shot file transcription.
type FileResult struct {
	Success             bool          `json:"success"`
	Language            string        `json:"language"`
	LanguageProbability float64       `json:"language_probability"`
	Duration            float64       `json:"duration"`
	Segments            []FileSegment `json:"segments"`
	FullText            string        `json:"full_text"`
}

// TranscribeFile decodes a whole recording once, outside of any session.
// An empty language falls back to DefaultLanguage.
func TranscribeFile(ctx context.Context, asr engine.ASREngine, audioPath, language string) (*FileResult, error) {
	if language == "" {
		language = DefaultLanguage
	}
	tr, err := asr.Transcribe(ctx, engine.Request{
		AudioPath: audioPath,
		Language:  language,
		Options:   engine.FileDecodeOptions(),
	})
	if err != nil {
		return nil, err
	}
	if tr == nil {
		return nil, fmt.Errorf("engine returned no transcription for %q", audioPath)
	}

	res := &FileResult{
		Success:             true,
		Language:            tr.Language,
		LanguageProbability: tr.LanguageProbability,
		Duration:            tr.Duration,
		Segments:            make([]FileSegment, 0, len(tr.Segments)),
	}
	texts := make([]string, 0, len(tr.Segments))
	for _, s := range tr.Segments {
		text := strings.TrimSpace(s.Text)
		res.Segments = append(res.Segments, FileSegment{Start: s.Start, End: s.End, Text: text})
		texts = append(texts, text)
	}
	res.FullText = strings.Join(texts, " ")
	return res, nil
}
