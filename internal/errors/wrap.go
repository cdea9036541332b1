package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ContextError wraps an error with the operation it occurred in.
type ContextError struct {
	Message string
	Cause   error
}

func (e *ContextError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ContextError) Unwrap() error {
	return e.Cause
}

// WithContext prefixes err with message. It returns nil for a nil err.
func WithContext(err error, message string) error {
	if err == nil {
		return nil
	}
	return &ContextError{Message: message, Cause: err}
}

// WithContextf is WithContext with a formatted message.
func WithContextf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &ContextError{Message: fmt.Sprintf(format, args...), Cause: err}
}

// Chain returns the messages of every error in the chain, outermost first.
func Chain(err error) []string {
	var chain []string
	for err != nil {
		chain = append(chain, err.Error())
		err = errors.Unwrap(err)
	}
	return chain
}

// RootCause returns the deepest wrapped error in the chain.
func RootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// FormatDebugError renders err with its chain, category and suggestion for --debug output.
func FormatDebugError(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Error: ")
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	if chain := Chain(err); len(chain) > 1 {
		sb.WriteString("\nError chain:\n")
		for i, msg := range chain {
			fmt.Fprintf(&sb, "  %d. %s\n", i+1, msg)
		}
	}

	fmt.Fprintf(&sb, "\nCategory: %s\n", Classify(err))
	if suggestion := GetSuggestion(err); suggestion != "" {
		fmt.Fprintf(&sb, "\nSuggestion: %s\n", suggestion)
	}
	return sb.String()
}
