package poll

import (
	"context"
	"time"
)

// JobFunc runs one tick of a periodic job.
type JobFunc func(ctx context.Context) error

type JobConfig struct {
	Interval time.Duration
	// RunOnStart runs the job once before the first tick.
	RunOnStart bool
}

// Poller runs registered jobs on their own interval until stopped.
type Poller interface {
	Register(name string, job JobFunc, config JobConfig) error
	Start(ctx context.Context) error
	Stop() error
}
