package fasterwhisper

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/voicetyped/rtstt/internal/speech/engine"
)

const closeGracePeriod = 5 * time.Second

type workerRequest struct {
	AudioPath       string `json:"audio_path"`
	Language        string `json:"language,omitempty"`
	BeamSize        int    `json:"beam_size"`
	VADFilter       bool   `json:"vad_filter"`
	MinSilenceDurMs int    `json:"min_silence_duration_ms"`
}

type workerSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// workerResponse covers both the startup event line and per-request replies.
type workerResponse struct {
	Event               string          `json:"event,omitempty"`
	OK                  bool            `json:"ok"`
	Error               string          `json:"error,omitempty"`
	Language            string          `json:"language"`
	LanguageProbability float64         `json:"language_probability"`
	Duration            float64         `json:"duration"`
	Segments            []workerSegment `json:"segments"`
}

// worker is a child process speaking one JSON object per line on
// stdin/stdout. Calls are serialized.
type worker struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	stderr *stderrLog

	mu     sync.Mutex
	closed bool
	dead   error // set once the process is gone
}

func startWorker(ctx context.Context, name string, args []string, env []string) (*worker, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)

	logger := slog.Default().With(slog.String("backend", Name))
	stderr := &stderrLog{logger: logger}
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("worker stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start faster-whisper worker %q: %w", name, err)
	}
	logger.Info("faster-whisper worker started", slog.Int("pid", cmd.Process.Pid))

	w := &worker{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReaderSize(stdout, 64*1024),
		stderr: stderr,
	}

	resp, err := w.readResponse()
	if err != nil {
		w.reap(err)
		return nil, fmt.Errorf("load model: %w", w.dead)
	}
	switch resp.Event {
	case "loaded":
		logger.Info("faster-whisper model loaded")
		return w, nil
	case "error":
		w.reap(errors.New(resp.Error))
		return nil, fmt.Errorf("load model: %s", resp.Error)
	default:
		w.reap(fmt.Errorf("unexpected startup event %q", resp.Event))
		return nil, fmt.Errorf("load model: %w", w.dead)
	}
}

func (w *worker) call(ctx context.Context, req workerRequest) (*workerResponse, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, engine.ErrClosed
	}
	if w.dead != nil {
		return nil, w.dead
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	line, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal worker request: %w", err)
	}
	line = append(line, '\n')
	if _, err := w.stdin.Write(line); err != nil {
		w.reap(err)
		return nil, w.dead
	}

	resp, err := w.readResponse()
	if err != nil {
		w.reap(err)
		return nil, w.dead
	}
	return resp, nil
}

func (w *worker) readResponse() (*workerResponse, error) {
	line, err := w.stdout.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	var resp workerResponse
	if err := json.Unmarshal(bytes.TrimSpace(line), &resp); err != nil {
		return nil, fmt.Errorf("decode worker output %q: %w", bytes.TrimSpace(line), err)
	}
	return &resp, nil
}

// reap kills and waits for the process after an I/O failure, recording a
// descriptive error for every later call.
func (w *worker) reap(cause error) {
	if w.dead != nil {
		return
	}
	_ = w.cmd.Process.Kill()
	waitErr := w.cmd.Wait()

	msg := "faster-whisper worker exited"
	if waitErr != nil {
		msg += ": " + waitErr.Error()
	}
	if tail := w.stderr.last(); tail != "" {
		msg += ": " + tail
	} else if cause != nil && !errors.Is(cause, io.EOF) {
		msg += ": " + cause.Error()
	}
	w.dead = errors.New(msg)
}

func (w *worker) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.dead != nil {
		return nil
	}

	_ = w.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- w.cmd.Wait() }()

	select {
	case err := <-done:
		w.dead = engine.ErrClosed
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("faster-whisper worker: %w", err)
		}
		return nil
	case <-time.After(closeGracePeriod):
		_ = w.cmd.Process.Kill()
		<-done
		w.dead = engine.ErrClosed
		return fmt.Errorf("faster-whisper worker did not exit within %s", closeGracePeriod)
	}
}

// stderrLog forwards worker stderr to the logger line by line and keeps
// the last non-empty line for error messages.
type stderrLog struct {
	logger *slog.Logger

	mu      sync.Mutex
	partial []byte
	tail    string
}

func (s *stderrLog) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.partial = append(s.partial, p...)
	for {
		i := bytes.IndexByte(s.partial, '\n')
		if i < 0 {
			break
		}
		line := string(bytes.TrimSpace(s.partial[:i]))
		s.partial = s.partial[i+1:]
		if line == "" {
			continue
		}
		s.tail = line
		s.logger.Debug("worker", slog.String("stderr", line))
	}
	return len(p), nil
}

func (s *stderrLog) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rest := string(bytes.TrimSpace(s.partial)); rest != "" {
		return rest
	}
	return s.tail
}
