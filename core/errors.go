package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArguments is returned after the validation message has been
	// printed.
	ErrInvalidArguments = errors.New("invalid arguments")
	ErrInterrupted      = errors.New("interrupted")
)

// RemoteError wraps a failed hub call. Reported is set once the failure was
// already shown to the user.
type RemoteError struct {
	Op       string
	Err      error
	Reported bool
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
