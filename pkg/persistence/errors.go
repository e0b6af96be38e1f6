// Package persistence provides standardized error types for storage operations.
package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrExecutionNotFound indicates no execution record exists for the given pair.
	ErrExecutionNotFound = errors.New("execution record not found")
)

// StoreError wraps storage errors with operation context.
type StoreError struct {
	Op     string // Operation being performed (e.g., "GetByID", "TryInsert")
	Entity string // "workflow" or "execution"
	ID     string
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s operation failed for %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewWorkflowError creates a storage error for a workflow operation.
func NewWorkflowError(op, id string, err error) *StoreError {
	return &StoreError{Op: op, Entity: "workflow", ID: id, Err: err}
}

// NewExecutionError creates a storage error for an execution-record operation.
func NewExecutionError(op, id string, err error) *StoreError {
	return &StoreError{Op: op, Entity: "execution", ID: id, Err: err}
}

// IsWorkflowNotFound reports whether err means the workflow does not exist.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsExecutionNotFound reports whether err means the execution record does not exist.
func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}
