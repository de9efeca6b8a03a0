package domain

import "context"

// RowReader returns the trimmed-or-not text of every cell of every rendered
// row in the dead job table, in display order.
type RowReader interface {
	ReadRows(ctx context.Context) ([][]string, error)
}

// RowSelector marks a row of the current rendering as selected.
// Selecting an already selected row is a no-op.
type RowSelector interface {
	Select(ctx context.Context, index int) error
}

// BulkSubmitter clicks the bulk control for an action and waits for the
// navigation it triggers.
type BulkSubmitter interface {
	SubmitBulk(ctx context.Context, action Action) error
}

// Console is the driven port for the dead job console.
type Console interface {
	RowReader
	RowSelector
	BulkSubmitter

	// Open navigates to a listing page (1-based).
	Open(ctx context.Context, page int) error
	// LastPage navigates to the listing, follows the last-page link and
	// returns its page number, or 1 when there is no pagination.
	LastPage(ctx context.Context) (int, error)
}

// SessionStore is the driven port for console session persistence.
type SessionStore interface {
	SaveCookies(ctx context.Context, host string, cookies []SessionCookie) error
	LoadCookies(ctx context.Context, host string) ([]SessionCookie, error)
	ClearCookies(ctx context.Context, host string) error
}
