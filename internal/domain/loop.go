package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// RetryPolicy bounds how many transient submit failures a pass tolerates
// before it is abandoned. Failures count for the whole pass; a successful
// submit in between does not clear them.
type RetryPolicy struct {
	MaxConsecutiveFailures int
}

// DefaultRetryPolicy tolerates three consecutive failures.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxConsecutiveFailures: 3}
}

// Exhausted reports whether the pass must give up after failures
// transient failures.
func (p RetryPolicy) Exhausted(failures int) bool {
	return failures > p.MaxConsecutiveFailures
}

// Submitter commits a batch of selected rows.
type Submitter interface {
	Submit(ctx context.Context, action Action) error
}

// SweepState is the transient state of one convergence pass. It starts
// fresh on every Run.
type SweepState struct {
	CurrentPage   int
	RescueCounter int
	MatchedCount  int
}

// ConvergenceLoop selects and submits matching rows on the current page
// until nothing matches anymore.
type ConvergenceLoop struct {
	scanner    *PageScanner
	selector   RowSelector
	submitter  Submitter
	classifier *Classifier
	policy     RetryPolicy
	logger     *slog.Logger
}

// NewConvergenceLoop creates a loop.
func NewConvergenceLoop(scanner *PageScanner, selector RowSelector, submitter Submitter, classifier *Classifier, policy RetryPolicy, logger *slog.Logger) *ConvergenceLoop {
	if logger == nil {
		logger = discardLogger()
	}
	return &ConvergenceLoop{
		scanner:    scanner,
		selector:   selector,
		submitter:  submitter,
		classifier: classifier,
		policy:     policy,
		logger:     logger,
	}
}

// Run processes the current page for one action. The page is re-scanned
// after every submit because the table re-renders and earlier rows shift.
// An aborted pass is reported through the result, not as an error.
func (l *ConvergenceLoop) Run(ctx context.Context, action Action, page int) (PassResult, error) {
	state := SweepState{CurrentPage: page}
	result := PassResult{Action: action.String()}
	logger := l.logger.With("page", state.CurrentPage, "action", action.String())

	finish := func(outcome Outcome) PassResult {
		result.Page = state.CurrentPage
		result.Matched = state.MatchedCount
		result.Outcome = outcome
		return result
	}

	for {
		rows, skipped, err := l.scanner.Scan(ctx)
		if err != nil {
			return finish(OutcomeFailed), fmt.Errorf("scan page %d: %w", state.CurrentPage, err)
		}
		result.Skipped = skipped
		if len(rows) == 0 {
			return finish(OutcomeConverged), nil
		}

		selected := 0
		for _, row := range rows {
			rule, ok := l.classifier.Match(action, row)
			if !ok {
				continue
			}
			if err := l.selector.Select(ctx, row.Index); err != nil {
				return finish(OutcomeFailed), fmt.Errorf("select row %d on page %d: %w", row.Index, state.CurrentPage, err)
			}
			logger.Debug("row selected", "row", row.Index, "job", row.JobClass, "rule", rule.Name)
			selected++
		}
		if selected == 0 {
			return finish(OutcomeConverged), nil
		}

		err = l.submitter.Submit(ctx, action)
		if err == nil {
			state.MatchedCount += selected
			result.Batches++
			logger.Debug("batch submitted", "rows", selected)
			continue
		}
		if !errors.Is(err, ErrTransientNavigation) {
			return finish(OutcomeFailed), err
		}

		state.RescueCounter++
		result.Failures++
		logger.Warn("bulk action failed", "error", err, "rescue", state.RescueCounter)
		if l.policy.Exhausted(state.RescueCounter) {
			logger.Warn("abandoning pass", "failures", state.RescueCounter)
			return finish(OutcomeAborted), nil
		}
	}
}
