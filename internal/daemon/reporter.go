package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/statebus/internal/store"
)

// Reporter periodically logs a snapshot of the hosted record. It is the
// daemon's only scheduled task.
type Reporter struct {
	scheduler gocron.Scheduler
	backend   store.Backend
	interval  time.Duration
}

// NewReporter creates a snapshot reporter ticking at the given interval.
func NewReporter(backend store.Backend, interval time.Duration) (*Reporter, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create gocron scheduler: %w", err)
	}

	r := &Reporter{
		scheduler: scheduler,
		backend:   backend,
		interval:  interval,
	}

	if _, err := scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(r.report),
		gocron.WithName("state-snapshot"),
	); err != nil {
		return nil, fmt.Errorf("create snapshot job: %w", err)
	}

	return r, nil
}

// Start begins the scheduler.
func (r *Reporter) Start() {
	slog.Info("Starting snapshot reporter", "interval", r.interval)
	r.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (r *Reporter) Stop() error {
	return r.scheduler.Shutdown()
}

// report logs the current record.
func (r *Reporter) report() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snapshot, err := r.backend.State(ctx)
	if err != nil {
		slog.Error("Snapshot report failed", "error", err)
		return
	}

	attrs := make([]any, 0, len(snapshot)*2)
	for field, value := range snapshot {
		attrs = append(attrs, string(field), value)
	}
	slog.Info("State snapshot", attrs...)
}
