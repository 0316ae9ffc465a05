package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/Alwanly/mcs-agent/pkg/logger"
	"go.uber.org/zap"
)

// Sink consumes the output of a stream. Close is called exactly once, after
// the child has exited.
type Sink interface {
	io.Writer
	Close() error
}

type State int

const (
	StateRunning State = iota
	// StateClosed means the child exited on its own.
	StateClosed
	// StateKilled means the consumer went away first and the child was signalled.
	StateKilled
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	case StateKilled:
		return "killed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const streamChunkSize = 32 * 1024

// ProcessHandle tracks one streaming child. The process monitor and the sink
// writer share a single cancellation signal: either side closing tears down
// the other.
type ProcessHandle struct {
	Target string
	Pid    int

	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	state    State
	exitCode int
}

func (h *ProcessHandle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// ExitCode reports the child's exit code once it has exited. A child killed
// by a signal reports -1.
func (h *ProcessHandle) ExitCode() (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitCode, h.state != StateRunning
}

// Done is closed after the child exited and the sink was closed.
func (h *ProcessHandle) Done() <-chan struct{} {
	return h.done
}

// Close signals the consumer is gone. The child gets SIGINT and, if it is
// still alive after the kill grace, SIGKILL. Close does not wait.
func (h *ProcessHandle) Close() error {
	h.cancel()
	return nil
}

// Wait blocks until the child has exited or ctx is done.
func (h *ProcessHandle) Wait(ctx context.Context) (State, error) {
	select {
	case <-h.done:
		return h.State(), nil
	case <-ctx.Done():
		return h.State(), ctx.Err()
	}
}

// Stream starts a stream target and forwards its combined stdout and stderr
// to sink, chunk by chunk in arrival order. Cancelling ctx is the same as
// calling Close on the returned handle.
func (r *Registry) Stream(ctx context.Context, name string, params map[string]string, sink Sink) (*ProcessHandle, error) {
	t, argv, err := r.resolve(name, Stream, params)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = r.opts.Dir
	setProcessGroup(cmd)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", t.Name, err)
	}

	sctx, cancel := context.WithCancel(ctx)
	h := &ProcessHandle{
		Target: t.Name,
		Pid:    cmd.Process.Pid,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	log := r.log.With(
		logger.Target(t.Name),
		logger.Pid(h.Pid),
	)
	log.Debug("stream started", zap.Strings("argv", argv))

	go h.watch(sctx, cmd, r.opts.KillGrace, log)
	go h.monitor(sctx, cmd, out, sink, log)
	return h, nil
}

// monitor pumps output into the sink, then reaps the child and closes the sink.
func (h *ProcessHandle) monitor(ctx context.Context, cmd *exec.Cmd, out io.Reader, sink Sink, log *logger.CanonicalLogger) {
	buf := make([]byte, streamChunkSize)
	sinkOK := true
	for {
		n, rerr := out.Read(buf)
		if n > 0 && sinkOK {
			if _, werr := sink.Write(buf[:n]); werr != nil {
				log.Debug("sink write failed", zap.Error(werr))
				sinkOK = false
				h.cancel()
			}
		}
		if rerr != nil {
			if !errors.Is(rerr, io.EOF) {
				log.Debug("stream read ended", zap.Error(rerr))
			}
			break
		}
	}

	code := 0
	if err := exitError(cmd.Wait()); err != nil {
		var exitErr *ProcessExitError
		if errors.As(err, &exitErr) {
			code = exitErr.Code
		} else {
			code = -1
		}
	}

	h.mu.Lock()
	h.exitCode = code
	if ctx.Err() != nil {
		h.state = StateKilled
	} else {
		h.state = StateClosed
	}
	state := h.state
	h.mu.Unlock()

	if err := sink.Close(); err != nil {
		log.Debug("sink close failed", zap.Error(err))
	}
	close(h.done)
	h.cancel()
	log.Debug("stream finished", logger.ExitCode(code), zap.Stringer("state", state))
}

// watch signals the child's process group once the consumer is gone.
func (h *ProcessHandle) watch(ctx context.Context, cmd *exec.Cmd, grace time.Duration, log *logger.CanonicalLogger) {
	select {
	case <-h.done:
		return
	case <-ctx.Done():
	}
	// monitor closes done before it cancels, so a finished child is never signalled.
	select {
	case <-h.done:
		return
	default:
	}

	if err := interruptGroup(cmd); err != nil {
		log.Debug("interrupt failed", zap.Error(err))
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-h.done:
	case <-timer.C:
		log.Warn("child ignored interrupt, killing", zap.Duration("grace", grace))
		if err := killGroup(cmd); err != nil {
			log.Debug("kill failed", zap.Error(err))
		}
	}
}
