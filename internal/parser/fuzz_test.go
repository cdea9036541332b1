package parser

import (
	"testing"
	"time"
)

// FuzzParseDue checks the due date parser never panics.
// Run with: go test ./internal/parser -fuzz=FuzzParseDue -fuzztime=30s
func FuzzParseDue(f *testing.F) {
	seeds := []string{
		"+3d",
		"+1w",
		"+12h",
		"+0d",
		"2026-03-05",
		"2026-02-30",
		"2026-03-05T09:00:00+08:00",
		"tomorrow",
		"friday",
		"next monday 9am",
		"none",
		"无",
		"",
		"   ",
		"+99999999999999999999d",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	now := time.Date(2026, 3, 2, 10, 30, 0, 0, shanghai)
	f.Fuzz(func(t *testing.T, input string) {
		res := ParseDue(input, now)
		if res.Clear && res.Error != nil {
			t.Fatalf("ParseDue(%q) cleared and failed at once", input)
		}
	})
}

// FuzzParseTodoArgs checks the title never gains or loses the due text.
func FuzzParseTodoArgs(f *testing.F) {
	f.Add("buy milk", "friday")
	f.Add("due", "+3d")
	f.Add("", "")

	f.Fuzz(func(t *testing.T, title, due string) {
		args := ParseTodoArgs([]string{title, "due", due})
		if args.HasDue && args.Title == "" {
			t.Fatalf("due parsed without a title for %q", title)
		}
	})
}
