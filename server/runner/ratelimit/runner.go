// Package ratelimit provides a background runner that drops idle per-chat limiters.
package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// DefaultInterval is how often idle limiters are pruned.
const DefaultInterval = 10 * time.Minute

// Pruner drops idle entries and reports how many were removed.
type Pruner interface {
	Prune() int
	Size() int
}

// Runner prunes a rate limiter on a fixed interval.
type Runner struct {
	limiter  Pruner
	interval time.Duration
}

// NewRunner creates a new prune runner.
func NewRunner(limiter Pruner, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Runner{
		limiter:  limiter,
		interval: interval,
	}
}

// Run blocks until ctx is done.
func (r *Runner) Run(ctx context.Context) {
	slog.Debug("rate limit prune runner started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-ctx.Done():
			slog.Debug("rate limit prune runner stopped")
			return
		}
	}
}

// RunOnce prunes once.
func (r *Runner) RunOnce(_ context.Context) {
	if removed := r.limiter.Prune(); removed > 0 {
		slog.Info("pruned idle chat limiters", "removed", removed, "remaining", r.limiter.Size())
	}
}
