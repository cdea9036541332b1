// Package errors provides the error taxonomy for violet.
// Errors fall into three categories: UserError (fixable by the user),
// SystemError (platform or storage trouble) and RecoverableError (retried
// automatically). Domain errors for geofencing live in geofence.go.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for common conditions.
var (
	ErrPermissionDenied   = errors.New("permission denied")
	ErrRegistrationFailed = errors.New("geofence registration failed")
	ErrInvalidRadius      = errors.New("invalid radius")
	ErrInvalidCoordinate  = errors.New("invalid coordinate")
	ErrConfigLoadCorrupt  = errors.New("stored geofence config is corrupt")
	ErrReminderDispatch   = errors.New("reminder dispatch failed")
	ErrTodoNotFound       = errors.New("todo not found")
	ErrTitleRequired      = errors.New("todo title is required")
	ErrInvalidDueDate     = errors.New("invalid due date")
	ErrWebhookNotFound    = errors.New("webhook not found")
	ErrInvalidURL         = errors.New("invalid URL")
	ErrDatabaseCorrupted  = errors.New("database corrupted")
	ErrDiskFull           = errors.New("disk full")
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrLockHeld           = errors.New("database locked by another process")
	ErrTimeout            = errors.New("operation timed out")
)

// UserError represents an error that the user can fix.
type UserError struct {
	Message    string // What happened
	Reason     string // Why it happened (optional)
	Suggestion string // How to fix it
	Field      string // The input that caused the error (optional)
	Value      string // The rejected value (optional)
}

func (e *UserError) Error() string {
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("%s: '%s'", e.Message, e.Value)
	}
	return e.Message
}

// NewUserError creates a new UserError.
func NewUserError(message, suggestion string) *UserError {
	return &UserError{Message: message, Suggestion: suggestion}
}

// NewUserErrorWithField creates a new UserError carrying the offending input.
func NewUserErrorWithField(field, value, message, suggestion string) *UserError {
	return &UserError{
		Message:    message,
		Field:      field,
		Value:      value,
		Suggestion: suggestion,
	}
}

// SystemError represents a failure the user cannot directly fix.
type SystemError struct {
	Message string
	Cause   error
	Op      string
}

func (e *SystemError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s during %s", e.Message, e.Op)
	}
	return e.Message
}

func (e *SystemError) Unwrap() error {
	return e.Cause
}

// NewSystemError creates a new SystemError.
func NewSystemError(message string, cause error) *SystemError {
	return &SystemError{Message: message, Cause: cause}
}

// NewSystemErrorWithOp creates a new SystemError tagged with the failed operation.
func NewSystemErrorWithOp(op, message string, cause error) *SystemError {
	return &SystemError{Message: message, Cause: cause, Op: op}
}

// RecoverableError represents an error that can be retried, such as a
// database directory briefly held by the daemon.
type RecoverableError struct {
	Message    string
	Cause      error
	RetryCount int
	MaxRetries int
	CanRetry   bool
}

func (e *RecoverableError) Error() string {
	if e.RetryCount > 0 {
		return fmt.Sprintf("%s (attempt %d/%d)", e.Message, e.RetryCount, e.MaxRetries)
	}
	return e.Message
}

func (e *RecoverableError) Unwrap() error {
	return e.Cause
}

// NewRecoverableError creates a new RecoverableError.
func NewRecoverableError(message string, cause error, maxRetries int) *RecoverableError {
	return &RecoverableError{
		Message:    message,
		Cause:      cause,
		MaxRetries: maxRetries,
		CanRetry:   maxRetries > 0,
	}
}

// IncrementRetry records an attempt and updates CanRetry.
func (e *RecoverableError) IncrementRetry() {
	e.RetryCount++
	e.CanRetry = e.RetryCount < e.MaxRetries
}

// IsUserError checks if an error is a UserError.
func IsUserError(err error) bool {
	var ue *UserError
	return errors.As(err, &ue)
}

// IsSystemError checks if an error is a SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}

// IsRecoverableError checks if an error is a RecoverableError.
func IsRecoverableError(err error) bool {
	var re *RecoverableError
	return errors.As(err, &re)
}

// AsUserError extracts a UserError from an error chain.
func AsUserError(err error) (*UserError, bool) {
	var ue *UserError
	ok := errors.As(err, &ue)
	return ue, ok
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
