package errors

import (
	"errors"
	"syscall"
)

// Category represents the type of error for display and handling purposes.
type Category int

const (
	// CategoryUnknown is the default for unclassified errors.
	CategoryUnknown Category = iota
	// CategoryUser indicates an error the user can fix (bad input, refused permission).
	CategoryUser
	// CategorySystem indicates a platform or storage failure.
	CategorySystem
	// CategoryRecoverable indicates an error that can be automatically retried.
	CategoryRecoverable
)

// String returns the string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryUser:
		return "user"
	case CategorySystem:
		return "system"
	case CategoryRecoverable:
		return "recoverable"
	default:
		return "unknown"
	}
}

// Classify determines the category of an error.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	// Typed errors first. A refused permission or a bad radius is the user's
	// to fix even when it wraps a system error.
	var (
		pe *PermissionDeniedError
		ie *InvalidRadiusError
		re *RegistrationError
	)
	switch {
	case errors.As(err, &pe), errors.As(err, &ie), IsUserError(err):
		return CategoryUser
	case IsRecoverableError(err):
		return CategoryRecoverable
	case errors.As(err, &re), IsSystemError(err):
		return CategorySystem
	}

	// Then raw errors from the OS and the libraries.
	if isSystemLevel(err) {
		return CategorySystem
	}
	if isRecoverablePattern(err) {
		return CategoryRecoverable
	}
	return CategoryUnknown
}

// isSystemLevel checks if an error is a system-level error.
func isSystemLevel(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ENOSPC: // No space left on device
			return true
		case syscall.EACCES, syscall.EPERM: // Database directory not writable
			return true
		case syscall.EIO: // I/O error
			return true
		case syscall.EROFS: // Read-only filesystem
			return true
		}
	}

	// Sentinels raised by storage.
	return errors.Is(err, ErrDiskFull) || errors.Is(err, ErrDatabaseCorrupted)
}

// isRecoverablePattern checks if an error is likely to go away on retry.
func isRecoverablePattern(err error) bool {
	// The badger lock is released whenever the other violet process
	// finishes its unit of work.
	if errors.Is(err, ErrNetworkUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrLockHeld) {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EAGAIN: // Also EWOULDBLOCK: badger's directory flock is held
			return true
		case syscall.EINTR: // Interrupted system call
			return true
		case syscall.ETIMEDOUT: // Webhook or broker timed out
			return true
		case syscall.ECONNREFUSED: // Connection refused
			return true
		case syscall.ECONNRESET: // Connection reset by peer
			return true
		}
	}
	return false
}

// FormatByCategory returns a user-appropriate error message based on category.
func FormatByCategory(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	switch Classify(err) {
	case CategoryUser:
		if suggestion := GetSuggestion(err); suggestion != "" {
			return msg + "\n\nTry: " + suggestion
		}
		return msg
	case CategorySystem:
		if suggestion := GetSuggestion(err); suggestion != "" {
			return "System error: " + msg + "\n\n" + suggestion
		}
		return "System error: " + msg
	case CategoryRecoverable:
		return msg + " (will retry automatically)"
	default:
		return msg
	}
}
