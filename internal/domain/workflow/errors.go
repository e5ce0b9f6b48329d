package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when no transition exists for the
	// action in the current state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrForbiddenTransition is returned when the acting role is not
	// authorized for the action in the current state
	ErrForbiddenTransition = errors.New("role not authorized for transition")

	// ErrPreconditionFailed is returned when an action-specific
	// precondition does not hold
	ErrPreconditionFailed = errors.New("transition precondition failed")
)
