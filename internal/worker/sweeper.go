package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aryan0dhankhar/tenantcms/internal/observability/metrics"
)

// SweepFunc removes stale entries and reports how many it dropped.
type SweepFunc func(ctx context.Context) (int, error)

type task struct {
	name string
	fn   SweepFunc
}

// Sweeper periodically runs housekeeping tasks: expiring cache entries and
// pruning idle rate limiter buckets.
type Sweeper struct {
	mu       sync.Mutex
	tasks    []task
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a sweeper that runs every interval.
func NewSweeper(interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		interval: interval,
		logger:   logger.With(slog.String("component", "sweeper")),
	}
}

// Register adds a named task. Tasks run in registration order.
func (s *Sweeper) Register(name string, fn SweepFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task{name: name, fn: fn})
}

// Start runs the sweep loop until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("sweeper started", slog.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce runs every registered task. A failing task does not stop the others.
func (s *Sweeper) RunOnce(ctx context.Context) {
	s.mu.Lock()
	tasks := append([]task(nil), s.tasks...)
	s.mu.Unlock()

	for _, t := range tasks {
		if ctx.Err() != nil {
			return
		}
		removed, err := t.fn(ctx)
		metrics.ObserveSweep(t.name, removed, err)
		if err != nil {
			s.logger.Error("sweep failed",
				slog.String("task", t.name),
				slog.String("error", err.Error()),
			)
			continue
		}
		if removed > 0 {
			s.logger.Debug("sweep removed entries",
				slog.String("task", t.name),
				slog.Int("removed", removed),
			)
		}
	}
}
