package model

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TodoItem is one entry of the personal to-do list.
type TodoItem struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	DueDate   *string `json:"dueDate"` // ISO-8601, nil when undated
	CreatedAt int64   `json:"createdAt"`
}

// NewTodo creates a todo with a fresh id. The title is trimmed.
func NewTodo(title string, due *time.Time, now time.Time) TodoItem {
	item := TodoItem{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(title),
		CreatedAt: now.UnixMilli(),
	}
	if due != nil {
		item.SetDue(*due)
	}
	return item
}

// SetDue stores due as an ISO-8601 UTC timestamp with millisecond precision.
func (t *TodoItem) SetDue(due time.Time) {
	s := FormatDueDate(due)
	t.DueDate = &s
}

// ClearDue removes the due date.
func (t *TodoItem) ClearDue() {
	t.DueDate = nil
}

// HasDue reports whether the item has a due date.
func (t TodoItem) HasDue() bool {
	return t.DueDate != nil
}

// Due parses the due date. ok is false for undated or unparsable items.
func (t TodoItem) Due() (due time.Time, ok bool) {
	if t.DueDate == nil {
		return time.Time{}, false
	}
	due, err := time.Parse(time.RFC3339Nano, *t.DueDate)
	if err != nil {
		return time.Time{}, false
	}
	return due, true
}

// FormatDueDate renders a due date the way it is stored.
func FormatDueDate(due time.Time) string {
	return due.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// SortTodos returns a sorted copy: dated items first by due date ascending,
// then undated items by creation time ascending. The input is not modified.
func SortTodos(items []TodoItem) []TodoItem {
	sorted := make([]TodoItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		switch {
		case a.HasDue() && !b.HasDue():
			return true
		case !a.HasDue() && b.HasDue():
			return false
		case !a.HasDue() && !b.HasDue():
			return a.CreatedAt < b.CreatedAt
		default:
			return *a.DueDate < *b.DueDate
		}
	})
	return sorted
}

// DueStatus classifies how close an item is to its due date.
type DueStatus string

const (
	DueNormal  DueStatus = "normal"
	DueWarning DueStatus = "warning"
	DueOverdue DueStatus = "overdue"
)

// DueWarningDays is how many calendar days ahead an item counts as warning.
const DueWarningDays = 3

// DueStatusAt compares calendar days in now's location: before today is
// overdue, within DueWarningDays is warning. Undated items are normal.
func (t TodoItem) DueStatusAt(now time.Time) DueStatus {
	due, ok := t.Due()
	if !ok {
		return DueNormal
	}
	days := DaysBetween(now, due.In(now.Location()))
	switch {
	case days < 0:
		return DueOverdue
	case days <= DueWarningDays:
		return DueWarning
	default:
		return DueNormal
	}
}

// DaysBetween counts whole calendar days from from's date to to's date.
func DaysBetween(from, to time.Time) int {
	y1, m1, d1 := from.Date()
	y2, m2, d2 := to.Date()
	a := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	b := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// DueLabel returns the due date as YYYY-MM-DD in loc, or "" when undated.
func (t TodoItem) DueLabel(loc *time.Location) string {
	due, ok := t.Due()
	if !ok {
		return ""
	}
	return due.In(loc).Format("2006-01-02")
}
