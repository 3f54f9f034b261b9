package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voicetyped/rtstt/internal/realtime"
	"github.com/voicetyped/rtstt/internal/realtime/protocol"
	"github.com/voicetyped/rtstt/internal/speech/engine"
	"github.com/voicetyped/rtstt/internal/speech/registry"
)

func runServe(cmd *cobra.Command, _ []string) error {
	w := protocol.NewWriter(os.Stdout)

	cfg, err := loadConfig(cmd)
	if err != nil {
		// The client is waiting for readiness; tell it why none is coming.
		_ = w.Fail(fmt.Errorf("%w: %w", realtime.ErrStartup, err))
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := realtime.NewSession(realtime.Options{
		ContextSize: cfg.ContextSize,
		Language:    cfg.Language,
		Logger:      logger,
	})
	defer session.Close()

	logger.Info("starting rtstt",
		slog.String("session_id", session.ID),
		slog.String("backend", cfg.Backend),
		slog.String("model", cfg.Model),
		slog.String("device", cfg.Device),
	)

	load := func(ctx context.Context) (engine.ASREngine, error) {
		return registry.ASR.Create(ctx, cfg.Backend, cfg.EngineConfig())
	}
	if err := session.Start(ctx, load, w); err != nil {
		return err
	}

	err = session.Run(ctx, protocol.NewReader(os.Stdin), w)
	if errors.Is(err, context.Canceled) {
		logger.Info("interrupted, shutting down")
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("session finished")
	return nil
}
