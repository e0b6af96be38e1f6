// Package services implements the workflow management operations behind the
// API surface.
package services

import (
	"errors"
	"fmt"
)

// Business logic errors; these map to 4xx responses at the web layer.
var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrWorkflowNil         = errors.New("workflow cannot be nil")
	ErrUnknownTriggerKind  = errors.New("unknown trigger kind")
	ErrUnknownActionKind   = errors.New("unknown action kind")
	ErrInvalidActionConfig = errors.New("invalid action configuration")
	ErrEmptyWorkspaceID    = errors.New("workspace ID cannot be empty")
	ErrActionsRequired     = errors.New("workflow must have at least one action")
)

// ServiceError wraps service-level errors with operation context.
type ServiceError struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError reports whether an error should surface as HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrUnknownTriggerKind) ||
		errors.Is(err, ErrUnknownActionKind) ||
		errors.Is(err, ErrInvalidActionConfig) ||
		errors.Is(err, ErrEmptyWorkspaceID) ||
		errors.Is(err, ErrActionsRequired)
}

// NewValidationError creates a validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
