package store

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every *ValidationError
	ErrValidation = errors.New("invalid task")
	// ErrNotFound is returned when an operation names an unknown task id
	ErrNotFound = errors.New("task not found")
)

// ValidationError rejects user input that breaks a task invariant. The
// store is left unchanged.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// PersistenceError reports a failed read or write of the storage backend
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NotificationError reports a failed schedule or cancel call. It is only
// logged, never returned from a mutation.
type NotificationError struct {
	Op     string
	TaskID string
	Err    error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("%s reminder for %s: %v", e.Op, e.TaskID, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }
