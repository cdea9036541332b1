package output

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/carolin-violet/violet-reminder/internal/model"
)

// Styles for CLI output.
var (
	// Colors
	colorPrimary = lipgloss.Color("#7C3AED") // Purple
	colorMuted   = lipgloss.Color("#6B7280") // Gray
	colorWarning = lipgloss.Color("#F59E0B") // Yellow
	colorError   = lipgloss.Color("#EF4444") // Red
	colorSuccess = lipgloss.Color("#10B981") // Green

	// Styles
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorSuccess)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorWarning)

	styleError = lipgloss.NewStyle().
			Foreground(colorError)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleBold = lipgloss.NewStyle().
			Bold(true)
)

// CLIFormatter provides CLI-specific formatting.
type CLIFormatter struct {
	*Formatter
}

// NewCLIFormatter creates a new CLI formatter.
func NewCLIFormatter(f *Formatter) *CLIFormatter {
	return &CLIFormatter{Formatter: f}
}

func (c *CLIFormatter) render(s lipgloss.Style, text string) string {
	if c.IsColorEnabled() {
		return s.Render(text)
	}
	return text
}

// Title prints a title.
func (c *CLIFormatter) Title(text string) {
	c.Println(c.render(styleTitle, text))
}

// Success prints a success message.
func (c *CLIFormatter) Success(text string) {
	c.Println(c.render(styleSuccess, "✓ "+text))
}

// Warning prints a warning message.
func (c *CLIFormatter) Warning(text string) {
	c.Println(c.render(styleWarning, "⚠ "+text))
}

// Error prints an error message.
func (c *CLIFormatter) Error(text string) {
	c.Println(c.render(styleError, "✗ "+text))
}

// Muted prints muted text.
func (c *CLIFormatter) Muted(text string) {
	c.Println(c.render(styleMuted, text))
}

// Due colors a due label by its status.
func (c *CLIFormatter) Due(label string, status model.DueStatus) string {
	switch status {
	case model.DueOverdue:
		return c.render(styleError, label)
	case model.DueWarning:
		return c.render(styleWarning, label)
	default:
		return label
	}
}

// PrintGeofenceStatus prints the geofence state and effective region.
func (c *CLIFormatter) PrintGeofenceStatus(s *GeofenceStatusOutput) {
	if s.Active {
		c.Success("打卡提醒已开启")
	} else {
		c.Muted("打卡提醒未开启")
	}
	c.PrintLocation(&s.Location)
	if s.MonitoringSince != "" {
		c.Printf("  Monitoring since: %s\n", s.MonitoringSince)
	}
	if !s.Active && s.Monitoring {
		c.Warning("A stale registration exists; run 'violet geofence disable' to remove it.")
	}
}

// PrintLocation prints a punch location.
func (c *CLIFormatter) PrintLocation(l *LocationOutput) {
	c.Printf("  Location: %s (%s)\n", FormatCoordinate(l.Longitude, l.Latitude), l.Source)
	if l.Address != "" {
		c.Printf("  Address: %s\n", l.Address)
	}
	c.Printf("  Radius: %.0fm\n", l.Radius)
	if l.UpdatedAt != "" {
		c.Printf("  Updated: %s\n", l.UpdatedAt)
	}
}

// PrintTodos prints the list in the order given, highlighting due dates.
func (c *CLIFormatter) PrintTodos(items []model.TodoItem, now time.Time) {
	if len(items) == 0 {
		c.Muted("暂无待办")
		return
	}
	rows := make([]TableRow, len(items))
	for i, item := range items {
		due := item.DueLabel(now.Location())
		rows[i] = TableRow{Columns: []string{
			shortID(item.ID),
			item.Title,
			c.Due(due, item.DueStatusAt(now)),
		}}
	}
	c.PrintTable([]string{"ID", "TITLE", "DUE"}, rows)
}

// PrintTodo prints one item.
func (c *CLIFormatter) PrintTodo(item *model.TodoItem, now time.Time) {
	c.Printf("  %s  %s", shortID(item.ID), item.Title)
	if due := item.DueLabel(now.Location()); due != "" {
		c.Printf("  %s", c.Due(due, item.DueStatusAt(now)))
	}
	c.Println()
}

// shortID returns the first segment of a uuid, enough to tell items apart.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// TableRow is one row of PrintTable.
type TableRow struct {
	Columns []string
}

// PrintTable prints a simple table. Widths are measured in terminal cells.
func (c *CLIFormatter) PrintTable(headers []string, rows []TableRow) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, col := range row.Columns {
			if i < len(widths) && lipgloss.Width(col) > widths[i] {
				widths[i] = lipgloss.Width(col)
			}
		}
	}

	pad := func(s string, w int) string {
		return s + strings.Repeat(" ", w-lipgloss.Width(s)) + "  "
	}

	var headerLine strings.Builder
	for i, h := range headers {
		headerLine.WriteString(pad(h, widths[i]))
	}
	c.Println(c.render(styleBold, strings.TrimRight(headerLine.String(), " ")))

	var sep strings.Builder
	for _, w := range widths {
		sep.WriteString(strings.Repeat("─", w) + "  ")
	}
	c.Println(strings.TrimRight(sep.String(), " "))

	for _, row := range rows {
		var rowLine strings.Builder
		for i, col := range row.Columns {
			if i < len(widths) {
				rowLine.WriteString(pad(col, widths[i]))
			}
		}
		c.Println(strings.TrimRight(rowLine.String(), " "))
	}
}

// PrintKeyValue prints an aligned "key: value" line.
func (c *CLIFormatter) PrintKeyValue(key string, value any) {
	c.Printf("  %-18s %v\n", key+":", value)
}
