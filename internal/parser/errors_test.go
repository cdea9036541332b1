package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeParseErrorError(t *testing.T) {
	err := &TimeParseError{
		Input:   "badtime",
		Field:   "timestamp",
		Message: "could not parse time",
	}
	result := err.Error()
	assert.Contains(t, result, "invalid timestamp")
	assert.Contains(t, result, "badtime")
	assert.Contains(t, result, "could not parse time")
}

func TestNewTimeParseError(t *testing.T) {
	err := NewTimeParseError("duration", "xyz", "invalid format", "1h", "30m", "2h30m")
	assert.Equal(t, "duration", err.Field)
	assert.Equal(t, "xyz", err.Input)
	assert.Equal(t, "invalid format", err.Message)
	assert.Len(t, err.Examples, 3)
	assert.Equal(t, "1h", err.Examples[0])
}

func TestFormatWithExamples(t *testing.T) {
	t.Run("with_examples", func(t *testing.T) {
		err := &TimeParseError{
			Input:    "badtime",
			Field:    "timestamp",
			Message:  "could not parse",
			Examples: []string{"9am", "10:30", "2pm"},
		}
		result := err.FormatWithExamples()
		assert.Contains(t, result, "invalid timestamp")
		assert.Contains(t, result, "Valid examples:")
		assert.Contains(t, result, "9am")
		assert.Contains(t, result, "10:30")
		assert.Contains(t, result, "2pm")
	})

	t.Run("with_suggestion", func(t *testing.T) {
		err := &TimeParseError{
			Input:      "badtime",
			Field:      "timestamp",
			Message:    "could not parse",
			Examples:   []string{"9am"},
			Suggestion: "Try using natural language",
		}
		result := err.FormatWithExamples()
		assert.Contains(t, result, "Try using natural language")
	})

	t.Run("no_examples_no_suggestion", func(t *testing.T) {
		err := &TimeParseError{
			Input:   "badtime",
			Field:   "timestamp",
			Message: "could not parse",
		}
		result := err.FormatWithExamples()
		assert.Contains(t, result, "invalid timestamp")
		assert.NotContains(t, result, "Valid examples:")
	})
}

func TestNewDueError(t *testing.T) {
	err := NewDueError("someday")
	assert.Equal(t, "due date", err.Field)
	assert.Equal(t, "someday", err.Input)
	assert.Equal(t, DueExamples, err.Examples)
	assert.Contains(t, err.FormatWithExamples(), "+3d")
}

func TestToUserError(t *testing.T) {
	t.Run("uses_suggestion", func(t *testing.T) {
		ue := NewDueError("someday").ToUserError()
		assert.Equal(t, "due date", ue.Field)
		assert.Contains(t, ue.Suggestion, "2026-03-05")
	})

	t.Run("falls_back_to_examples", func(t *testing.T) {
		ue := NewTimeParseError("due date", "x", "bad", "a", "b", "c", "d").ToUserError()
		assert.Equal(t, "Try: a, b, c", ue.Suggestion)
	})
}
