package system

import "errors"

var (
	// ErrDuplicateAction is returned when an action index is registered twice.
	ErrDuplicateAction = errors.New("action with same index is already registered")
	// ErrActionNotFound is returned when an action index is not registered.
	ErrActionNotFound = errors.New("action not found")
	// ErrInvalidArgument is returned for malformed parameters or state.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInfeasibleAction is returned when a transition is requested with an
	// action that is not in the feasible set of the current state.
	ErrInfeasibleAction = errors.New("action is not feasible")
	// ErrSystemNotFound is returned by Map lookups for unknown names.
	ErrSystemNotFound = errors.New("system not found")
)
