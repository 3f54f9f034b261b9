package whispercpp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/voicetyped/rtstt/internal/speech/engine"
	"github.com/voicetyped/rtstt/internal/speech/registry"
)

// Name is the registry key of this backend.
const Name = "whisper-cpp"

func init() {
	registry.ASR.Register(Name, func(_ context.Context, config map[string]string) (engine.ASREngine, error) {
		modelPath := config["model_path"]
		if modelPath == "" {
			// Derive model path from model name if specified.
			if m := config["model"]; m != "" {
				modelPath = "./models/ggml-" + m + ".bin"
			} else {
				modelPath = "./models/ggml-base.bin"
			}
		}
		return New(config["binary_path"], modelPath, config["vad_model_path"])
	})
}

// WhisperCPP implements engine.ASREngine by running the whisper.cpp CLI
// once per request and reading its JSON output file.
type WhisperCPP struct {
	binary    string
	modelPath string
	vadModel  string
}

// New checks that the binary and model are available.
func New(binary, modelPath, vadModel string) (*WhisperCPP, error) {
	if binary == "" {
		binary = "whisper-cli"
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("whisper.cpp binary: %w", err)
	}
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("whisper.cpp model: %w", err)
	}
	if vadModel != "" {
		if _, err := os.Stat(vadModel); err != nil {
			return nil, fmt.Errorf("whisper.cpp VAD model: %w", err)
		}
	}

	return &WhisperCPP{
		binary:    resolved,
		modelPath: modelPath,
		vadModel:  vadModel,
	}, nil
}

// Transcribe decodes one audio file.
func (w *WhisperCPP) Transcribe(ctx context.Context, req engine.Request) (*engine.Transcription, error) {
	if _, err := os.Stat(req.AudioPath); err != nil {
		return nil, fmt.Errorf("audio file: %w", err)
	}

	dir, err := os.MkdirTemp("", "rtstt-whispercpp-*")
	if err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	defer os.RemoveAll(dir)
	outBase := filepath.Join(dir, "out")

	language := req.Language
	if language == "" {
		language = "auto"
	}

	if req.Options.VADFilter && w.vadModel == "" {
		slog.Debug("whisper.cpp VAD requested without a VAD model; decoding without VAD")
	}

	args := []string{"-m", w.modelPath, "-f", req.AudioPath, "-l", language}
	args = append(args, req.Options.Args(w.vadModel)...)
	args = append(args, "-oj", "-of", outBase, "-np")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, w.binary, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("whisper.cpp: %w", err)
		}
		return nil, fmt.Errorf("whisper.cpp: %w: %s", err, lastLine(msg))
	}

	data, err := os.ReadFile(outBase + ".json")
	if err != nil {
		return nil, fmt.Errorf("read whisper.cpp output: %w", err)
	}
	return parseOutput(data)
}

type cliOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

func parseOutput(data []byte) (*engine.Transcription, error) {
	var out cliOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse whisper.cpp output: %w", err)
	}
	if out.Transcription == nil {
		return nil, errors.New("parse whisper.cpp output: missing transcription")
	}

	tr := &engine.Transcription{
		Language: out.Result.Language,
		Segments: make([]engine.Segment, 0, len(out.Transcription)),
	}
	for _, s := range out.Transcription {
		seg := engine.Segment{
			Start: float64(s.Offsets.From) / 1000,
			End:   float64(s.Offsets.To) / 1000,
			Text:  strings.TrimSpace(s.Text),
		}
		tr.Segments = append(tr.Segments, seg)
		tr.Duration = seg.End
	}
	return tr, nil
}

// Models returns the ggml models this engine can load.
func (w *WhisperCPP) Models() []engine.ModelInfo {
	return Models()
}

// Models lists the ggml model files whisper.cpp ships download scripts for.
func Models() []engine.ModelInfo {
	return []engine.ModelInfo{
		{ID: "ggml-base", DisplayName: "Whisper Base", IsDefault: true},
		{ID: "ggml-small", DisplayName: "Whisper Small"},
		{ID: "ggml-medium", DisplayName: "Whisper Medium"},
		{ID: "ggml-large-v3", DisplayName: "Whisper Large v3"},
	}
}

// Close is a no-op; no process outlives a request.
func (w *WhisperCPP) Close() error {
	return nil
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
