package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(maxRetries int) Config {
	return Config{
		MaxRetries:     maxRetries,
		InitialBackoff: 5 * time.Millisecond,
		MaxBackoff:     20 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestWithExponentialBackoff_SuccessFirstAttempt(t *testing.T) {
	attempts := 0
	err := WithExponentialBackoff(context.Background(), fastConfig(3), func(ctx context.Context) error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithExponentialBackoff_SuccessAfterRetries(t *testing.T) {
	cfg := fastConfig(5)
	var waits []time.Duration
	cfg.OnRetry = func(attempt int, wait time.Duration, err error) {
		waits = append(waits, wait)
	}

	attempts := 0
	err := WithExponentialBackoff(context.Background(), cfg, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("metadata server not ready")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{5 * time.Millisecond, 10 * time.Millisecond}, waits)
}

func TestWithExponentialBackoff_Exhausted(t *testing.T) {
	attempts := 0
	sentinel := errors.New("unreachable")
	err := WithExponentialBackoff(context.Background(), fastConfig(2), func(ctx context.Context) error {
		attempts++
		return sentinel
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, attempts)
}

func TestWithExponentialBackoff_Permanent(t *testing.T) {
	attempts := 0
	sentinel := errors.New("404 not found")
	err := WithExponentialBackoff(context.Background(), fastConfig(5), func(ctx context.Context) error {
		attempts++
		return Permanent(sentinel)
	})
	assert.Equal(t, sentinel, err)
	assert.Equal(t, 1, attempts)
	assert.NoError(t, Permanent(nil))
}

func TestWithExponentialBackoff_ContextCanceled(t *testing.T) {
	cfg := fastConfig(-1)
	cfg.InitialBackoff = time.Second
	cfg.MaxBackoff = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := WithExponentialBackoff(ctx, cfg, func(ctx context.Context) error {
		return errors.New("still down")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCalculateBackoff(t *testing.T) {
	cfg := Config{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, Multiplier: 2.0}

	tests := []struct {
		retry int
		want  time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{10, time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, calculateBackoff(tt.retry, cfg), "retry %d", tt.retry)
	}

	cfg.Jitter = true
	for i := 0; i < 50; i++ {
		d := calculateBackoff(2, cfg)
		assert.GreaterOrEqual(t, d, 150*time.Millisecond)
		assert.LessOrEqual(t, d, 250*time.Millisecond)
	}
}
