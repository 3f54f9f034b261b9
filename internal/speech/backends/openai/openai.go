package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/voicetyped/rtstt/internal/speech/backends/restutil"
	"github.com/voicetyped/rtstt/internal/speech/engine"
	"github.com/voicetyped/rtstt/internal/speech/registry"
)

// Name is the registry key of this backend.
const Name = "openai"

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "whisper-1"
)

func init() {
	registry.ASR.Register(Name, func(ctx context.Context, config map[string]string) (engine.ASREngine, error) {
		return New(ctx, config["api_key"], config["base_url"], config["remote_model"])
	})
}

// OpenAIASR implements engine.ASREngine against an OpenAI-compatible
// /audio/transcriptions endpoint (OpenAI, Groq, local servers).
type OpenAIASR struct {
	apiKey  string
	baseURL string
	model   string
}

// New checks the credentials by listing the provider's models.
func New(ctx context.Context, apiKey, baseURL, model string) (*OpenAIASR, error) {
	if apiKey == "" {
		return nil, errors.New("openai API key required (set OPENAI_API_KEY)")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}

	o := &OpenAIASR{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/"), model: model}
	if err := restutil.DoJSON(ctx, "GET", o.baseURL+"/models", o.headers(), nil, nil); err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	return o, nil
}

func (o *OpenAIASR) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + o.apiKey}
}

type verboseTranscription struct {
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe uploads the audio file and maps the verbose_json segments.
// Decoding options other than language are applied server-side.
func (o *OpenAIASR) Transcribe(ctx context.Context, req engine.Request) (*engine.Transcription, error) {
	if _, err := os.Stat(req.AudioPath); err != nil {
		return nil, fmt.Errorf("audio file: %w", err)
	}

	fields := map[string]string{
		"model":           o.model,
		"response_format": "verbose_json",
	}
	if req.Language != "" {
		fields["language"] = req.Language
	}

	var resp verboseTranscription
	err := restutil.DoMultipart(ctx, o.baseURL+"/audio/transcriptions", o.headers(), restutil.Form{
		Fields:    fields,
		FileField: "file",
		FilePath:  req.AudioPath,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("openai ASR: %w", err)
	}

	tr := &engine.Transcription{
		Language: resp.Language,
		Duration: resp.Duration,
		Segments: make([]engine.Segment, 0, len(resp.Segments)),
	}
	for _, s := range resp.Segments {
		tr.Segments = append(tr.Segments, engine.Segment{Start: s.Start, End: s.End, Text: strings.TrimSpace(s.Text)})
	}
	// Some compatible servers return text without segments.
	if len(resp.Segments) == 0 {
		if text := strings.TrimSpace(resp.Text); text != "" {
			tr.Segments = append(tr.Segments, engine.Segment{Start: 0, End: resp.Duration, Text: text})
		}
	}
	return tr, nil
}

// Models returns the configured remote model.
func (o *OpenAIASR) Models() []engine.ModelInfo {
	return []engine.ModelInfo{{ID: o.model, DisplayName: o.model, IsDefault: true}}
}

// Models lists well-known OpenAI-compatible transcription models.
func Models() []engine.ModelInfo {
	return []engine.ModelInfo{
		{ID: "whisper-1", DisplayName: "OpenAI Whisper 1", IsDefault: true},
		{ID: "whisper-large-v3-turbo", DisplayName: "Groq Whisper Large v3 Turbo"},
		{ID: "whisper-large-v3", DisplayName: "Groq Whisper Large v3"},
	}
}

// Close is a no-op.
func (o *OpenAIASR) Close() error {
	return nil
}
