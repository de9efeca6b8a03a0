package domain

import (
	"errors"
	"fmt"
)

var (
	ErrTransientNavigation = errors.New("transient navigation failure")
	ErrUnknownAction       = errors.New("unknown action")
)

// NavigationError is returned when a bulk action's navigation did not
// complete. It matches ErrTransientNavigation and the underlying cause.
type NavigationError struct {
	Action Action
	Err    error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("%s: navigation did not complete: %v", e.Action, e.Err)
}

func (e *NavigationError) Unwrap() []error {
	return []error{ErrTransientNavigation, e.Err}
}
