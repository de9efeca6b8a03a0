package domain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Walker runs the triage passes over every page of the dead job queue.
type Walker struct {
	console Console
	loop    *ConvergenceLoop
	logger  *slog.Logger
	now     func() time.Time
}

// NewWalker creates a new Walker.
func NewWalker(console Console, loop *ConvergenceLoop, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = discardLogger()
	}
	return &Walker{console: console, loop: loop, logger: logger, now: time.Now}
}

// NewTriage wires a Walker with its scanner, executor and loop over a
// single console session.
func NewTriage(console Console, classifier *Classifier, policy RetryPolicy, timeout time.Duration, logger *slog.Logger) *Walker {
	scanner := NewPageScanner(console, logger)
	executor := NewBulkActionExecutor(console, timeout)
	loop := NewConvergenceLoop(scanner, console, executor, classifier, policy, logger)
	return NewWalker(console, loop, logger)
}

// WalkAll processes every page from the last one down to the first.
// Pages are walked in descending order so that removing rows never
// renumbers a page that is still to be visited.
func (w *Walker) WalkAll(ctx context.Context) (SweepReport, error) {
	report := SweepReport{ID: uuid.NewString(), StartedAt: w.now()}
	logger := w.logger.With("sweep_id", report.ID)

	fail := func(err error) (SweepReport, error) {
		report.FinishedAt = w.now()
		report.Error = err.Error()
		return report, err
	}

	last, err := w.console.LastPage(ctx)
	if err != nil {
		return fail(fmt.Errorf("discover last page: %w", err))
	}
	last = max(last, 1)
	report.LastPage = last
	logger.Info("last page number", "page", last)

	for page := last; page > 0; page-- {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		if err := w.console.Open(ctx, page); err != nil {
			if ctx.Err() != nil {
				return fail(ctx.Err())
			}
			logger.Warn("skipping page", "page", page, "error", err)
			continue
		}
		logger.Info("processing page", "page", page)

		for _, action := range []Action{ActionDiscard, ActionRetry} {
			res, err := w.loop.Run(ctx, action, page)
			report.Passes = append(report.Passes, res)
			if err != nil {
				if ctx.Err() != nil {
					return fail(ctx.Err())
				}
				logger.Warn("pass failed", "page", page, "action", action.String(), "error", err)
				continue
			}
			logger.Info("pass finished",
				"page", page,
				"action", action.String(),
				"matched", res.Matched,
				"outcome", string(res.Outcome),
			)
		}
	}

	report.FinishedAt = w.now()
	logger.Info("sweep finished",
		"discarded", report.Total(ActionDiscard),
		"retried", report.Total(ActionRetry),
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	return report, nil
}
