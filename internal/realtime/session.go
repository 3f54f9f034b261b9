package realtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rs/xid"

	"github.com/voicetyped/rtstt/internal/realtime/protocol"
	"github.com/voicetyped/rtstt/internal/speech/engine"
)

// ErrStartup wraps engine load failures reported by Start.
var ErrStartup = errors.New("engine initialization failed")

// LoadFunc loads the engine a session will drive.
type LoadFunc func(ctx context.Context) (engine.ASREngine, error)

// Options configures a Session.
type Options struct {
	ContextSize   int
	Language      string
	DecodeOptions engine.DecodeOptions
	Now           func() time.Time
	Logger        *slog.Logger
}

// Session owns the engine handle, context buffer and language state for
// the lifetime of the process. It is driven by a single goroutine.
type Session struct {
	ID string

	opts         Options
	state        State
	asr          engine.ASREngine
	buffer       *ContextBuffer
	language     *LanguageState
	orchestrator *Orchestrator
	logger       *slog.Logger
}

// NewSession creates a session in the Initializing state.
func NewSession(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.DecodeOptions == (engine.DecodeOptions{}) {
		opts.DecodeOptions = engine.RealtimeDecodeOptions()
	}

	id := xid.New().String()
	return &Session{
		ID:       id,
		opts:     opts,
		state:    StateInitializing,
		buffer:   NewContextBuffer(opts.ContextSize),
		language: NewLanguageState(opts.Language),
		logger:   opts.Logger.With(slog.String("session_id", id)),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Language returns the active language code.
func (s *Session) Language() string {
	return s.language.Get()
}

// Context returns a snapshot of the context buffer.
func (s *Session) Context() []Chunk {
	return s.buffer.Snapshot()
}

func (s *Session) transition(to State) error {
	if !canTransition(s.state, to) {
		return fmt.Errorf("invalid session transition %s -> %s", s.state, to)
	}
	if s.state != to {
		s.logger.Debug("session state", slog.String("from", s.state.String()), slog.String("to", to.String()))
	}
	s.state = to
	return nil
}

// Start loads the engine and announces readiness on w. If loading fails a
// failure envelope is written instead, the session terminates and the
// returned error wraps ErrStartup.
func (s *Session) Start(ctx context.Context, load LoadFunc, w *protocol.Writer) error {
	if s.state != StateInitializing {
		return fmt.Errorf("start session: already %s", s.state)
	}

	s.logger.Info("loading engine")
	asr, err := load(ctx)
	if err != nil {
		s.logger.Error("engine initialization failed", slog.String("error", err.Error()))
		_ = s.transition(StateTerminated)
		startErr := fmt.Errorf("%w: %w", ErrStartup, err)
		if werr := w.Fail(startErr); werr != nil {
			return errors.Join(startErr, werr)
		}
		return startErr
	}

	s.asr = asr
	s.orchestrator = NewOrchestrator(asr, s.buffer, s.language, s.opts.DecodeOptions, s.opts.Now, s.logger)
	if err := s.transition(StateReady); err != nil {
		return err
	}
	if err := w.Ready(); err != nil {
		return err
	}
	s.logger.Info("session ready", slog.String("language", s.language.Get()), slog.Int("context_size", s.buffer.Cap()))
	return nil
}

// Run processes commands from r until exit, end of input, or a failure to
// read input or write output. Every command line produces exactly one
// response line, except exit which produces none.
func (s *Session) Run(ctx context.Context, r *protocol.Reader, w *protocol.Writer) error {
	if s.state != StateReady {
		return fmt.Errorf("run session: not ready (%s)", s.state)
	}

	for {
		if err := ctx.Err(); err != nil {
			_ = s.transition(StateTerminated)
			return err
		}

		cmd, err := s.next(ctx, r)
		if errors.Is(err, io.EOF) {
			s.logger.Info("end of input")
			return s.transition(StateTerminated)
		}
		if err != nil && !protocol.IsProtocolError(err) {
			_ = s.transition(StateTerminated)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("read command: %w", err)
		}

		logger := s.logger.With(slog.String("request_id", xid.New().String()))

		var resp any
		if err != nil {
			logger.Warn("rejected command", slog.String("error", err.Error()))
			resp = protocol.NewFailure(err)
		} else {
			logger = logger.With(slog.String("action", cmd.Action()))
			if _, ok := cmd.(protocol.Exit); ok {
				logger.Info("exit requested")
				return s.transition(StateTerminated)
			}
			resp = s.dispatch(ctx, logger, cmd)
		}

		if err := w.Write(resp); err != nil {
			if !errors.Is(err, protocol.ErrEncode) {
				_ = s.transition(StateTerminated)
				return err
			}
			logger.Error("encode response", slog.String("error", err.Error()))
			if err := w.Fail(err); err != nil {
				_ = s.transition(StateTerminated)
				return err
			}
		}
		if err := s.transition(StateReady); err != nil {
			return err
		}
	}
}

type readResult struct {
	cmd protocol.Command
	err error
}

// next reads one command without blocking past ctx. A blocking input such
// as stdin cannot be interrupted, so the read runs in its own goroutine and
// is abandoned on cancellation. Only one read is ever outstanding.
func (s *Session) next(ctx context.Context, r *protocol.Reader) (protocol.Command, error) {
	ch := make(chan readResult, 1)
	go func() {
		cmd, err := r.Next()
		ch <- readResult{cmd: cmd, err: err}
	}()

	select {
	case res := <-ch:
		return res.cmd, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Session) dispatch(ctx context.Context, logger *slog.Logger, cmd protocol.Command) any {
	switch c := cmd.(type) {
	case protocol.Transcribe:
		result, err := s.orchestrator.Transcribe(ctx, c.AudioPath)
		if err != nil {
			logger.Warn("transcription failed", slog.String("audio_path", c.AudioPath), slog.String("error", err.Error()))
			return protocol.NewFailure(err)
		}
		logger.Info("transcription complete",
			slog.String("audio_path", c.AudioPath),
			slog.Int("chunks", len(result.Chunks)),
			slog.Int("context", len(result.Context)),
		)
		return result
	case protocol.ChangeLanguage:
		previous := s.language.Get()
		s.language.Set(c.Language)
		logger.Info("language changed", slog.String("from", previous), slog.String("to", c.Language))
		return protocol.Ack{Success: true}
	default:
		return protocol.NewFailure(fmt.Errorf("unhandled action %q", cmd.Action()))
	}
}

// Close releases the engine.
func (s *Session) Close() error {
	if s.asr == nil {
		return nil
	}
	return s.asr.Close()
}
