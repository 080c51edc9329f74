package facade

import "errors"

var (
	// ErrTerminated reports that the actor's receive loop has exited or its
	// mailbox is closed. Recoverable by the caller, e.g. by re-spawning.
	ErrTerminated = errors.New("actor terminated")
)
