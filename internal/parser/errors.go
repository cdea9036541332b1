package parser

import (
	"fmt"
	"strings"

	"github.com/carolin-violet/violet-reminder/internal/errors"
)

// TimeParseError represents a time parsing error with helpful suggestions.
type TimeParseError struct {
	Input      string
	Field      string
	Message    string
	Examples   []string
	Suggestion string
}

func (e *TimeParseError) Error() string {
	return fmt.Sprintf("invalid %s '%s': %s", e.Field, e.Input, e.Message)
}

// NewTimeParseError creates a new time parse error with examples.
func NewTimeParseError(field, input, message string, examples ...string) *TimeParseError {
	return &TimeParseError{
		Input:    input,
		Field:    field,
		Message:  message,
		Examples: examples,
	}
}

// FormatWithExamples returns the error message with example suggestions.
func (e *TimeParseError) FormatWithExamples() string {
	var sb strings.Builder
	sb.WriteString(e.Error())

	// One example per line, indented under the message.
	if len(e.Examples) > 0 {
		sb.WriteString("\n\nValid examples:\n")
		for _, ex := range e.Examples {
			sb.WriteString("  - ")
			sb.WriteString(ex)
			sb.WriteString("\n")
		}
	}

	if e.Suggestion != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Suggestion)
	}

	return sb.String()
}

// DueExamples provides example due date formats.
var DueExamples = []string{
	"2026-03-05",
	"+3d",
	"tomorrow",
	"friday",
	"next monday",
	"none", // clears the due date
}

// NewDueError creates a due date parse error with standard examples.
func NewDueError(input string) *TimeParseError {
	return &TimeParseError{
		Input:      input,
		Field:      "due date",
		Message:    "could not parse due date",
		Examples:   DueExamples,
		Suggestion: "Use a date (2026-03-05), an offset (+3d) or a day name (friday).",
	}
}

// ToUserError converts a TimeParseError to a UserError for consistent handling.
func (e *TimeParseError) ToUserError() *errors.UserError {
	suggestion := e.Suggestion
	// Without a suggestion, the first few examples stand in for one.
	if len(e.Examples) > 0 && suggestion == "" {
		suggestion = fmt.Sprintf("Try: %s", strings.Join(e.Examples[:min(3, len(e.Examples))], ", "))
	}

	return errors.NewUserErrorWithField(e.Field, e.Input, e.Message, suggestion)
}
