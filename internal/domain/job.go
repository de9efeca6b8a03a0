package domain

import "time"

// Action is the triage decision for a dead job.
type Action int

const (
	ActionNone Action = iota
	ActionDiscard
	ActionRetry
)

func (a Action) String() string {
	switch a {
	case ActionDiscard:
		return "discard"
	case ActionRetry:
		return "retry"
	default:
		return "none"
	}
}

// JobRow is one rendered row of the dead job table.
// Index is the row position in the current rendering and is only valid
// until the next bulk action re-renders the page.
type JobRow struct {
	Index     int
	JobClass  string
	ErrorText string
}

// Outcome is how a convergence pass ended.
type Outcome string

const (
	OutcomeConverged Outcome = "converged"
	OutcomeAborted   Outcome = "aborted"
	OutcomeFailed    Outcome = "failed"
)

// PassResult summarises one convergence pass for one action on one page.
type PassResult struct {
	Page     int     `json:"page"`
	Action   string  `json:"action"`
	Matched  int     `json:"matched"`
	Batches  int     `json:"batches"`
	Failures int     `json:"failures"`
	Skipped  int     `json:"skipped"`
	Outcome  Outcome `json:"outcome"`
}

// SweepReport summarises one full walk over the queue.
type SweepReport struct {
	ID         string       `json:"id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	LastPage   int          `json:"last_page"`
	Passes     []PassResult `json:"passes"`
	Error      string       `json:"error,omitempty"`
}

// Total returns the number of jobs acted on with the given action.
func (r *SweepReport) Total(action Action) int {
	var n int
	for _, p := range r.Passes {
		if p.Action == action.String() {
			n += p.Matched
		}
	}
	return n
}

// SessionCookie is a console authentication cookie.
type SessionCookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expires  time.Time
	HTTPOnly bool
	Secure   bool
}

// Expired reports whether the cookie has a set expiry before now.
func (c *SessionCookie) Expired(now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}
