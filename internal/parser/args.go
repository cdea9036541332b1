package parser

import (
	"strings"
)

// TodoArgs holds the parsed arguments of `todo add`.
type TodoArgs struct {
	Title  string
	RawDue string
	HasDue bool
}

// dueKeywords introduce the due date in free-form input.
var dueKeywords = map[string]bool{"due": true, "by": true, "截止": true}

// ParseTodoArgs splits "TITLE... [due WHEN...]" into title and due date.
// Each shell argument is one token, so a quoted title may contain "due".
func ParseTodoArgs(args []string) *TodoArgs {
	result := &TodoArgs{}

	var title, due []string
	inDue := false
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		if !inDue && len(title) > 0 && dueKeywords[strings.ToLower(arg)] {
			inDue = true
			continue
		}
		if inDue {
			due = append(due, arg)
		} else {
			title = append(title, arg)
		}
	}

	result.Title = strings.Join(title, " ")
	if inDue {
		result.RawDue = strings.Join(due, " ")
		result.HasDue = true
	}
	return result
}

// Merge applies a --due flag value, which overrides inline text.
func (a *TodoArgs) Merge(dueFlag string) {
	if dueFlag != "" {
		a.RawDue = dueFlag
		a.HasDue = true
	}
}
