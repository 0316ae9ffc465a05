package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoller_RunsJobsUntilStopped(t *testing.T) {
	p := NewPoller(nil)

	var ticks, failures int32
	require.NoError(t, p.Register("count", func(ctx context.Context) error {
		atomic.AddInt32(&ticks, 1)
		return nil
	}, JobConfig{Interval: 10 * time.Millisecond, RunOnStart: true}))
	require.NoError(t, p.Register("fail", func(ctx context.Context) error {
		atomic.AddInt32(&failures, 1)
		return errors.New("sweep failed")
	}, JobConfig{Interval: 10 * time.Millisecond}))

	require.NoError(t, p.Start(context.Background()))
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&ticks) >= 3 && atomic.LoadInt32(&failures) >= 2
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, p.Stop())

	after := atomic.LoadInt32(&ticks)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&ticks))
}

func TestPoller_RegisterValidation(t *testing.T) {
	p := NewPoller(nil)
	noop := func(ctx context.Context) error { return nil }

	assert.Error(t, p.Register("", noop, JobConfig{Interval: time.Second}))
	assert.Error(t, p.Register("x", nil, JobConfig{Interval: time.Second}))
	assert.Error(t, p.Register("x", noop, JobConfig{}))
	require.NoError(t, p.Register("x", noop, JobConfig{Interval: time.Second}))
	assert.Error(t, p.Register("x", noop, JobConfig{Interval: time.Second}))

	require.NoError(t, p.Start(context.Background()))
	assert.Error(t, p.Start(context.Background()))
	assert.Error(t, p.Register("y", noop, JobConfig{Interval: time.Second}))
	require.NoError(t, p.Stop())
}
