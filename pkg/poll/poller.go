package poll

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Alwanly/mcs-agent/pkg/logger"
	"go.uber.org/zap"
)

type job struct {
	fn     JobFunc
	config JobConfig
}

type poller struct {
	logger *logger.CanonicalLogger

	mu      sync.Mutex
	jobs    map[string]job
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewPoller(log *logger.CanonicalLogger) Poller {
	if log == nil {
		log = logger.NewNop()
	}
	return &poller{
		logger: log.Component("poller"),
		jobs:   make(map[string]job),
	}
}

func (p *poller) Register(name string, fn JobFunc, config JobConfig) error {
	if name == "" || fn == nil {
		return errors.New("invalid job registration")
	}
	if config.Interval <= 0 {
		return fmt.Errorf("job %q: interval must be positive", name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return fmt.Errorf("job %q: poller already started", name)
	}
	if _, exists := p.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}
	p.jobs[name] = job{fn: fn, config: config}
	p.logger.Info("job registered", zap.String(logger.FieldJobName, name), zap.Duration("interval", config.Interval))
	return nil
}

// Start launches one goroutine per job and returns immediately.
func (p *poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return errors.New("poller already started")
	}
	p.started = true

	ctx, p.cancel = context.WithCancel(ctx)
	for name, j := range p.jobs {
		p.wg.Add(1)
		go p.loop(ctx, name, j)
	}
	return nil
}

// Stop cancels every job and waits for in-flight runs to return.
func (p *poller) Stop() error {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
	return nil
}

func (p *poller) loop(ctx context.Context, name string, j job) {
	defer p.wg.Done()

	if j.config.RunOnStart {
		p.run(ctx, name, j)
	}

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("job stopped", zap.String(logger.FieldJobName, name))
			return
		case <-ticker.C:
			p.run(ctx, name, j)
		}
	}
}

func (p *poller) run(ctx context.Context, name string, j job) {
	runCtx, logCtx := logger.Begin(ctx, "")

	start := time.Now()
	err := j.fn(runCtx)
	fields := append([]zap.Field{
		zap.String(logger.FieldJobName, name),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		zap.Bool(logger.FieldSuccess, err == nil),
	}, logCtx.Fields()...)
	if err != nil {
		p.logger.Error("job_run", append(fields, zap.Error(err))...)
		return
	}
	p.logger.Debug("job_run", fields...)
}
