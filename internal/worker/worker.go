package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cwygoda/morgue/internal/domain"
)

// Sweeper runs one full pass over the dead job queue.
type Sweeper interface {
	WalkAll(ctx context.Context) (domain.SweepReport, error)
}

// Observer receives every finished sweep.
type Observer interface {
	ObserveSweep(report domain.SweepReport, err error)
}

// Worker sweeps the queue, waits for the schedule, and repeats.
type Worker struct {
	sweeper  Sweeper
	schedule cron.Schedule
	observer Observer
	logger   *slog.Logger
	now      func() time.Time

	mu   sync.RWMutex
	last *domain.SweepReport
}

// New creates a new worker. observer may be nil.
func New(sweeper Sweeper, schedule cron.Schedule, observer Observer, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		sweeper:  sweeper,
		schedule: schedule,
		observer: observer,
		logger:   logger,
		now:      time.Now,
	}
}

// Run sweeps immediately and then after every schedule tick until ctx is
// cancelled. A failed sweep never stops the loop; the next one picks up
// whatever is left.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("worker started")

	for {
		if ctx.Err() != nil {
			w.logger.Info("worker shutting down")
			return
		}
		w.sweep(ctx)

		next := w.schedule.Next(w.now())
		wait := max(next.Sub(w.now()), 0)
		w.logger.Info("waiting before next sweep", "wait", wait.Round(time.Second), "next", next.Format(time.RFC3339))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			w.logger.Info("worker shutting down")
			return
		case <-timer.C:
		}
	}
}

func (w *Worker) sweep(ctx context.Context) {
	report, err := w.sweeper.WalkAll(ctx)
	if ctx.Err() != nil {
		// Interrupted by shutdown; the partial sweep is neither a failure
		// nor a result.
		w.logger.Info("sweep interrupted", "sweep_id", report.ID)
		return
	}
	if err != nil {
		w.logger.Error("sweep failed", "sweep_id", report.ID, "error", err)
	}

	if w.observer != nil {
		w.observer.ObserveSweep(report, err)
	}

	w.mu.Lock()
	w.last = &report
	w.mu.Unlock()
}

// LastReport returns the most recent sweep report.
func (w *Worker) LastReport() (domain.SweepReport, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.last == nil {
		return domain.SweepReport{}, false
	}
	return *w.last, true
}
