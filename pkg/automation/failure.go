package automation

import (
	"context"
	"errors"
)

// TransientError marks a failure worth retrying: timeouts, rate limits,
// broken connections. Anything not wrapped is permanent and fails the action
// immediately.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err so the execution policy treats it as retryable.
// Returns nil for a nil error.
func Transient(err error) error {
	if err == nil {
		return nil
	}

	return &TransientError{Err: err}
}

// IsTransient reports whether the execution policy may retry after err.
// Deadline expiry counts as transient even when the executor forgot to
// classify it.
func IsTransient(err error) bool {
	var transient *TransientError
	if errors.As(err, &transient) {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded)
}
