package domain

import (
	"context"
	"fmt"
	"time"
)

// BulkActionExecutor submits one bulk action and waits for the resulting
// page load. It never retries; callers decide what a failure means.
type BulkActionExecutor struct {
	submitter BulkSubmitter
	timeout   time.Duration
}

// NewBulkActionExecutor creates an executor. A zero timeout leaves the
// wait bounded only by ctx.
func NewBulkActionExecutor(submitter BulkSubmitter, timeout time.Duration) *BulkActionExecutor {
	return &BulkActionExecutor{submitter: submitter, timeout: timeout}
}

// Submit performs the bulk action. A failure while ctx is still live is
// returned as a *NavigationError.
func (e *BulkActionExecutor) Submit(ctx context.Context, action Action) error {
	if action != ActionDiscard && action != ActionRetry {
		return fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}

	submitCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		submitCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	err := e.submitter.SubmitBulk(submitCtx, action)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return &NavigationError{Action: action, Err: err}
}
