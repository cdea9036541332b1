package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
)

// DueResult holds the parsed due date and any error.
type DueResult struct {
	Time  time.Time
	Clear bool
	Error error
}

// relativeRegex matches relative day expressions like "+3d", "+1w".
var relativeRegex = regexp.MustCompile(`^\+(\d+)([hdw])$`)

// clearWords remove a due date.
var clearWords = map[string]bool{"none": true, "clear": true, "无": true, "-": true}

// ParseDue parses a due date expression relative to now.
// Supports formats like:
//   - "+3d", "+1w", "+12h" (relative)
//   - "2026-03-05" (calendar date, local midnight)
//   - "tomorrow", "friday", "next monday 9am" (natural language)
//   - "none" to clear the due date
//
// Past dates are accepted; an item can be created already overdue.
func ParseDue(input string, now time.Time) DueResult {
	input = strings.TrimSpace(input)
	if input == "" {
		return DueResult{Error: NewDueError(input)}
	}
	if clearWords[strings.ToLower(input)] {
		return DueResult{Clear: true}
	}

	if match := relativeRegex.FindStringSubmatch(input); match != nil {
		return parseRelativeDue(match[1], match[2], now)
	}

	if t, err := time.ParseInLocation("2006-01-02", input, now.Location()); err == nil {
		return DueResult{Time: t}
	}
	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return DueResult{Time: t}
	}

	cfg := &dateparser.Configuration{
		CurrentTime:         now,
		PreferredDateSource: dateparser.Future,
	}
	result, err := dateparser.Parse(cfg, input)
	if err != nil || result.Time.IsZero() {
		return DueResult{Error: NewDueError(input)}
	}
	return DueResult{Time: result.Time}
}

func parseRelativeDue(numStr, unit string, now time.Time) DueResult {
	num, err := strconv.Atoi(numStr)
	if err != nil || num <= 0 {
		return DueResult{Error: fmt.Errorf("invalid offset: must be positive")}
	}

	switch unit {
	case "h":
		return DueResult{Time: now.Add(time.Duration(num) * time.Hour)}
	case "d":
		return DueResult{Time: now.AddDate(0, 0, num)}
	case "w":
		return DueResult{Time: now.AddDate(0, 0, 7*num)}
	default:
		return DueResult{Error: fmt.Errorf("invalid time unit: %s", unit)}
	}
}

// ParseDueArgs joins args into one expression for ParseDue.
func ParseDueArgs(args []string, now time.Time) DueResult {
	if len(args) == 0 {
		return DueResult{Error: NewDueError("")}
	}
	return ParseDue(strings.Join(args, " "), now)
}

// FormatDueIn describes how far due is from now in calendar days.
func FormatDueIn(due, now time.Time) string {
	y1, m1, d1 := now.Date()
	y2, m2, d2 := due.In(now.Location()).Date()
	days := int(time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC).Sub(time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)).Hours() / 24)

	switch {
	case days == 0:
		return "今天到期"
	case days == 1:
		return "明天到期"
	case days > 1:
		return fmt.Sprintf("%d 天后到期", days)
	case days == -1:
		return "已逾期 1 天"
	default:
		return fmt.Sprintf("已逾期 %d 天", -days)
	}
}
