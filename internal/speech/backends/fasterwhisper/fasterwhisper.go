package fasterwhisper

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/voicetyped/rtstt/internal/speech/engine"
	"github.com/voicetyped/rtstt/internal/speech/registry"
)

//go:embed assets/worker.py
var workerScript []byte

// Name is the registry key of this backend.
const Name = "faster-whisper"

func init() {
	registry.ASR.Register(Name, func(ctx context.Context, config map[string]string) (engine.ASREngine, error) {
		cfg := Config{
			Command:      strings.Fields(config["python"]),
			Model:        config["model"],
			Device:       config["device"],
			ComputeType:  config["compute_type"],
			DownloadRoot: config["model_dir"],
		}
		return New(ctx, cfg)
	})
}

// Config describes how to launch the worker process.
type Config struct {
	Command      []string // Interpreter invocation, e.g. ["python3"]
	Model        string   // Model size name or local path
	Device       string   // cpu|cuda|auto
	ComputeType  string   // int8|float16|...
	DownloadRoot string   // Model cache directory
	Env          []string // Extra environment for the worker
}

func (c *Config) applyDefaults() {
	if len(c.Command) == 0 {
		c.Command = []string{"python3"}
	}
	if c.Model == "" {
		c.Model = "base"
	}
	if c.Device == "" {
		c.Device = "cpu"
	}
	if c.ComputeType == "" {
		c.ComputeType = "int8"
	}
}

// FasterWhisperASR implements engine.ASREngine on top of a long-lived
// faster-whisper worker that keeps the model resident between calls.
type FasterWhisperASR struct {
	worker     *worker
	scriptPath string

	closeOnce sync.Once
	closeErr  error
}

// New writes the worker script to a temp file, starts the worker and
// blocks until the model has loaded.
func New(ctx context.Context, cfg Config) (*FasterWhisperASR, error) {
	cfg.applyDefaults()

	f, err := os.CreateTemp("", "rtstt-faster-whisper-*.py")
	if err != nil {
		return nil, fmt.Errorf("create worker script: %w", err)
	}
	scriptPath := f.Name()
	if _, err := f.Write(workerScript); err != nil {
		f.Close()
		os.Remove(scriptPath)
		return nil, fmt.Errorf("write worker script: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(scriptPath)
		return nil, fmt.Errorf("write worker script: %w", err)
	}

	args := append([]string{}, cfg.Command[1:]...)
	args = append(args, scriptPath,
		"--model", cfg.Model,
		"--device", cfg.Device,
		"--compute-type", cfg.ComputeType,
	)
	if cfg.DownloadRoot != "" {
		args = append(args, "--download-root", expandHome(cfg.DownloadRoot))
	}

	w, err := startWorker(ctx, cfg.Command[0], args, cfg.Env)
	if err != nil {
		os.Remove(scriptPath)
		return nil, err
	}

	return &FasterWhisperASR{worker: w, scriptPath: scriptPath}, nil
}

// Transcribe sends one request to the worker and waits for its answer.
func (f *FasterWhisperASR) Transcribe(ctx context.Context, req engine.Request) (*engine.Transcription, error) {
	resp, err := f.worker.call(ctx, workerRequest{
		AudioPath:       req.AudioPath,
		Language:        req.Language,
		BeamSize:        req.Options.BeamSize,
		VADFilter:       req.Options.VADFilter,
		MinSilenceDurMs: req.Options.SilenceMinDurMs,
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("faster-whisper: %s", resp.Error)
	}

	tr := &engine.Transcription{
		Language:            resp.Language,
		LanguageProbability: resp.LanguageProbability,
		Duration:            resp.Duration,
		Segments:            make([]engine.Segment, 0, len(resp.Segments)),
	}
	for _, s := range resp.Segments {
		tr.Segments = append(tr.Segments, engine.Segment{
			Start: s.Start,
			End:   s.End,
			Text:  strings.TrimSpace(s.Text),
		})
	}
	return tr, nil
}

// Models returns the standard faster-whisper model sizes.
func (f *FasterWhisperASR) Models() []engine.ModelInfo {
	return Models()
}

// Models lists the model sizes faster-whisper can download by name.
func Models() []engine.ModelInfo {
	return []engine.ModelInfo{
		{ID: "tiny", DisplayName: "Whisper Tiny"},
		{ID: "base", DisplayName: "Whisper Base", IsDefault: true},
		{ID: "small", DisplayName: "Whisper Small"},
		{ID: "medium", DisplayName: "Whisper Medium"},
		{ID: "large-v3", DisplayName: "Whisper Large v3"},
	}
}

// Close stops the worker and removes the temporary script.
func (f *FasterWhisperASR) Close() error {
	f.closeOnce.Do(func() {
		f.closeErr = f.worker.close()
		os.Remove(f.scriptPath)
	})
	return f.closeErr
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
