package engine

import (
	"errors"
	"fmt"
)

// Kind classifies an error for reporting and retry decisions.
type Kind string

const (
	// KindValidation indicates rejected input: a malformed name, an
	// incomplete provider config, a command against the wrong phase's
	// preconditions.
	KindValidation Kind = "validation"

	// KindNotFound indicates the named environment has no snapshot.
	KindNotFound Kind = "not_found"

	// KindTypeMismatch indicates a snapshot exists but is in a different
	// lifecycle phase than the requested operation expects.
	KindTypeMismatch Kind = "type_mismatch"

	// KindStepExecution indicates a workflow step failed against the
	// external world (provisioner, playbook, remote host).
	KindStepExecution Kind = "step_execution"

	// KindPersistence indicates the snapshot could not be read or written,
	// including corrupt snapshots.
	KindPersistence Kind = "persistence"

	// KindTimeout indicates an operation exceeded its deadline.
	KindTimeout Kind = "timeout"
)

// Error is a classified error with enough context for an operator to act:
// which environment, which operation, what went wrong, and where to go next.
type Error struct {
	// Kind is the error classification.
	Kind Kind `json:"kind"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Environment is the environment name, if applicable.
	Environment string `json:"environment,omitempty"`

	// Operation is the operation being performed when the error occurred.
	Operation string `json:"operation,omitempty"`

	// Hint suggests what the operator can do about it.
	Hint string `json:"hint,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Environment != "" && e.Operation != "" {
		msg = fmt.Sprintf("[%s] %s (environment=%s, operation=%s)", e.Kind, e.Message, e.Environment, e.Operation)
	} else if e.Environment != "" {
		msg = fmt.Sprintf("[%s] %s (environment=%s)", e.Kind, e.Message, e.Environment)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Hint != "" {
		msg = fmt.Sprintf("%s (hint: %s)", msg, e.Hint)
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewValidationError creates a new validation error.
func NewValidationError(message string, err error) *Error {
	return &Error{Kind: KindValidation, Message: message, Err: err}
}

// NewNotFoundError creates a new not-found error.
func NewNotFoundError(message string, err error) *Error {
	return &Error{Kind: KindNotFound, Message: message, Err: err}
}

// NewTypeMismatchError creates a new phase mismatch error.
func NewTypeMismatchError(message string, err error) *Error {
	return &Error{Kind: KindTypeMismatch, Message: message, Err: err}
}

// NewStepExecutionError creates a new step execution error.
func NewStepExecutionError(message string, err error) *Error {
	return &Error{Kind: KindStepExecution, Message: message, Err: err}
}

// NewPersistenceError creates a new persistence error.
func NewPersistenceError(message string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: message, Err: err}
}

// NewTimeoutError creates a new timeout error.
func NewTimeoutError(message string, err error) *Error {
	return &Error{Kind: KindTimeout, Message: message, Err: err}
}

// WithEnvironment adds environment context to an error.
func (e *Error) WithEnvironment(name string) *Error {
	e.Environment = name
	return e
}

// WithOperation adds operation context to an error.
func (e *Error) WithOperation(operation string) *Error {
	e.Operation = operation
	return e
}

// WithHint adds a remediation hint to an error.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// KindOf returns the classification of err, or KindStepExecution for
// unclassified errors surfacing from a workflow step.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStepExecution
}

// IsNotFound returns true if the error is classified as not found.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsTypeMismatch returns true if the error is classified as a phase mismatch.
func IsTypeMismatch(err error) bool {
	return KindOf(err) == KindTypeMismatch
}

// IsValidation returns true if the error is classified as a validation error.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// IsTimeout returns true if the error is classified as a timeout.
func IsTimeout(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == KindTimeout
	}
	return false
}
