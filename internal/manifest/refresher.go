package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Refresher periodically refreshes a Store with a gocron job.
type Refresher struct {
	scheduler gocron.Scheduler
	store     *Store
	interval  time.Duration
	logger    *slog.Logger
	cancel    context.CancelFunc
}

// NewRefresher creates a stopped refresher for store.
func NewRefresher(store *Store, interval time.Duration, logger *slog.Logger) (*Refresher, error) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Refresher{scheduler: s, store: store, interval: interval, logger: logger}, nil
}

// Start schedules the refresh job and starts the scheduler. The job stops
// issuing requests once ctx is done.
func (r *Refresher) Start(ctx context.Context) error {
	jobCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	_, err := r.scheduler.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(func() { r.store.Refresh(jobCtx) }),
		gocron.WithName("etag-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to create ETag refresh job: %w", err)
	}
	r.logger.Info("Starting ETag refresh", slog.Duration("interval", r.interval))
	r.scheduler.Start()
	return nil
}

// Stop shuts the scheduler down and waits for a running refresh to end.
func (r *Refresher) Stop() error {
	if r.cancel != nil {
		r.cancel()
	}
	return r.scheduler.Shutdown()
}
