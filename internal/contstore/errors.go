package contstore

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParent is returned by Create when the parent ID does not
	// name a live continuation.
	ErrInvalidParent = errors.New("parent continuation not found")
	// ErrNilPayload is returned by Create for a nil payload.
	ErrNilPayload = errors.New("continuation payload must not be nil")
	// ErrScopeMismatch is returned by Create when the requested scope
	// differs from the parent's.
	ErrScopeMismatch = errors.New("continuation scope does not match parent")
	// ErrClosed is returned by Create once the store has been closed.
	ErrClosed = errors.New("continuation store is closed")
)

// DisposerError reports a disposer that returned an error or panicked.
type DisposerError struct {
	ID  string
	Err error
}

// Error implements the error interface.
func (e *DisposerError) Error() string {
	return fmt.Sprintf("disposer of continuation %s failed: %v", e.ID, e.Err)
}

// Unwrap exposes the disposer's own error.
func (e *DisposerError) Unwrap() error {
	return e.Err
}
