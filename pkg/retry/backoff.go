package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Config holds the configuration for exponential backoff retry logic.
type Config struct {
	// MaxRetries is the maximum number of retry attempts.
	// Set to -1 for unlimited retries.
	MaxRetries int

	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Multiplier grows the wait after each failure. 2.0 doubles it.
	Multiplier float64

	// Jitter spreads each wait by up to 25% either way.
	Jitter bool

	// OnRetry, when set, is called before each wait.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// Operation is retried until it returns nil or a permanent error.
type Operation func(ctx context.Context) error

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. WithExponentialBackoff returns
// the wrapped error immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// WithExponentialBackoff runs op until it succeeds, fails permanently, runs
// out of attempts or ctx is done.
func WithExponentialBackoff(ctx context.Context, cfg Config, op Operation) error {
	var attempt int
	for {
		attempt++

		err := op(ctx)
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}

		if cfg.MaxRetries >= 0 && attempt > cfg.MaxRetries {
			return fmt.Errorf("operation failed after %d attempts: %w", attempt, err)
		}

		backoff := calculateBackoff(attempt, cfg)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, backoff, err)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("operation canceled after %d attempts: %w", attempt, ctx.Err())
		case <-timer.C:
		}
	}
}

// calculateBackoff returns initialBackoff * multiplier^(retryNumber-1),
// capped at MaxBackoff.
func calculateBackoff(retryNumber int, cfg Config) time.Duration {
	if retryNumber == 0 {
		return 0
	}

	backoff := float64(cfg.InitialBackoff) * math.Pow(cfg.Multiplier, float64(retryNumber-1))
	if backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}
	duration := time.Duration(backoff)

	if cfg.Jitter {
		jitterRange := float64(duration) * 0.25
		duration = time.Duration(float64(duration) + (rand.Float64()*2-1)*jitterRange)
		if duration > cfg.MaxBackoff {
			duration = cfg.MaxBackoff
		}
		if duration < 0 {
			duration = 0
		}
	}

	return duration
}
