package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/Alwanly/mcs-agent/pkg/logger"
	"go.uber.org/zap"
)

// Dispatch runs an action target and waits for it to exit. Output goes to the
// configured Stdout and Stderr. A started child is not tied to ctx; it always
// runs to completion.
func (r *Registry) Dispatch(ctx context.Context, name string, params map[string]string) error {
	t, argv, err := r.resolve(name, Action, params)
	if err != nil {
		return err
	}
	logger.AddToContext(ctx,
		logger.Target(t.Name),
		logger.Discipline(string(Action)),
	)

	if !r.opts.Dedupe {
		return r.run(t, argv, r.opts.Stdout)
	}
	key := strings.Join(argv, "\x00")
	_, err, shared := r.group.Do(key, func() (interface{}, error) {
		return nil, r.run(t, argv, r.opts.Stdout)
	})
	if shared {
		r.log.Debug("joined in-flight dispatch", logger.Target(t.Name))
	}
	return err
}

// Query runs a query target, captures its stdout and decodes it as JSON into
// out. A nil out only checks that the output is valid JSON.
func (r *Registry) Query(ctx context.Context, name string, params map[string]string, out interface{}) error {
	t, argv, err := r.resolve(name, Query, params)
	if err != nil {
		return err
	}
	logger.AddToContext(ctx,
		logger.Target(t.Name),
		logger.Discipline(string(Query)),
	)

	var buf bytes.Buffer
	if err := r.run(t, argv, &buf); err != nil {
		return err
	}

	if out == nil {
		if !json.Valid(buf.Bytes()) {
			return &QueryParseError{Target: t.Name, Err: errors.New("invalid JSON")}
		}
		return nil
	}
	if err := json.Unmarshal(buf.Bytes(), out); err != nil {
		return &QueryParseError{Target: t.Name, Err: err}
	}
	return nil
}

func (r *Registry) run(t Target, argv []string, stdout io.Writer) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = r.opts.Dir
	cmd.Stdout = stdout
	cmd.Stderr = r.opts.Stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", t.Name, err)
	}
	log := r.log.With(
		logger.Target(t.Name),
		logger.Pid(cmd.Process.Pid),
	)
	log.Debug("child started", zap.Strings("argv", argv))

	err := exitError(cmd.Wait())
	var exitErr *ProcessExitError
	switch {
	case err == nil:
		log.Debug("child exited", logger.ExitCode(0), zap.Duration("elapsed", time.Since(start)))
	case errors.As(err, &exitErr):
		log.Info("child failed", logger.ExitCode(exitErr.Code), zap.Duration("elapsed", time.Since(start)))
	default:
		log.Error("wait failed", zap.Error(err))
	}
	return err
}

// exitError turns the result of cmd.Wait into a ProcessExitError when the
// child ran and exited non-zero.
func exitError(err error) error {
	if err == nil {
		return nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return &ProcessExitError{Code: ee.ExitCode()}
	}
	return fmt.Errorf("wait: %w", err)
}
