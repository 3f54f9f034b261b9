package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/voicetyped/rtstt/internal/realtime"
	"github.com/voicetyped/rtstt/internal/realtime/protocol"
	"github.com/voicetyped/rtstt/internal/speech/registry"
)

var errUsage = errors.New("usage: rtstt transcribe <audio_path> [language]")

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <audio_path> [language]",
	Short: "Transcribe one audio file and print a single JSON result",
	RunE:  runTranscribe,
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	w := protocol.NewWriter(os.Stdout)
	if len(args) < 1 || len(args) > 2 {
		_ = w.Fail(errUsage)
		return errUsage
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		_ = w.Fail(err)
		return err
	}
	logger := newLogger(cfg)

	language := cfg.Language
	if len(args) == 2 {
		language = args[1]
	}

	ctx := cmd.Context()
	asr, err := registry.ASR.Create(ctx, cfg.Backend, cfg.EngineConfig())
	if err != nil {
		_ = w.Fail(err)
		return err
	}
	defer asr.Close()

	res, err := realtime.TranscribeFile(ctx, asr, args[0], language)
	if err != nil {
		_ = w.Fail(err)
		return err
	}
	logger.Debug("transcribed file", slog.String("audio_path", args[0]), slog.Int("segments", len(res.Segments)))
	return w.Write(res)
}
