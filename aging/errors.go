package aging

import "errors"

var (
	// ErrInvalidTransition is returned when the cycle state machine is asked to
	// perform a transition it does not allow.
	ErrInvalidTransition = errors.New("aging: invalid cycle state transition")

	// ErrNilSession indicates that a channel session is missing.
	ErrNilSession = errors.New("aging: session is nil")
)
