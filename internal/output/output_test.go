package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carolin-violet/violet-reminder/internal/model"
)

// =============================================================================
// Formatter Tests
// =============================================================================

func TestNewFormatter(t *testing.T) {
	f := NewFormatter()
	assert.NotNil(t, f)
	assert.Equal(t, FormatCLI, f.Format)
	assert.Equal(t, ColorAuto, f.ColorMode)
	assert.False(t, f.NoNewline)
}

func TestFormatterIsColorEnabled(t *testing.T) {
	t.Run("color_always", func(t *testing.T) {
		f := &Formatter{ColorMode: ColorAlways}
		assert.True(t, f.IsColorEnabled())
	})

	t.Run("color_never", func(t *testing.T) {
		f := &Formatter{ColorMode: ColorNever}
		assert.False(t, f.IsColorEnabled())
	})

	t.Run("color_auto_non_terminal", func(t *testing.T) {
		var buf bytes.Buffer
		f := &Formatter{
			Writer:    &buf,
			ColorMode: ColorAuto,
		}
		// Buffer is not a terminal
		assert.False(t, f.IsColorEnabled())
	})
}

func TestFormatterPrint(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Writer: &buf}

	f.Print("hello")
	assert.Equal(t, "hello", buf.String())
}

func TestFormatterPrintln(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Writer: &buf}

	f.Println("hello")
	assert.Equal(t, "hello\n", buf.String())
}

func TestFormatterPrintf(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Writer: &buf}

	f.Printf("hello %s", "world")
	assert.Equal(t, "hello world", buf.String())
}

func TestFormatterJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Writer: &buf}

	data := map[string]string{"key": "value"}
	err := f.JSON(data)
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), `"key": "value"`)
}

func TestFormatterPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Writer: &buf}

	data := map[string]int{"count": 42}
	err := f.PrintJSON(data)
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), `"count": 42`)
}

// =============================================================================
// Format and ColorMode Constants Tests
// =============================================================================

func TestFormatConstants(t *testing.T) {
	assert.Equal(t, Format("cli"), FormatCLI)
	assert.Equal(t, Format("json"), FormatJSON)
	assert.Equal(t, Format("plain"), FormatPlain)
}

func TestColorModeConstants(t *testing.T) {
	assert.Equal(t, ColorMode("auto"), ColorAuto)
	assert.Equal(t, ColorMode("always"), ColorAlways)
	assert.Equal(t, ColorMode("never"), ColorNever)
}

// =============================================================================
// Formatting Helper Tests
// =============================================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{5*time.Minute + 10*time.Second, "5m 10s"},
		{2 * time.Hour, "2h"},
		{2*time.Hour + 15*time.Minute, "2h 15m"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatDuration(tc.d))
	}
}

func TestFormatCoordinate(t *testing.T) {
	assert.Equal(t, "118.810202, 31.912279", FormatCoordinate(118.810202, 31.912279))
}

// =============================================================================
// CLIFormatter Tests
// =============================================================================

func newCLI() (*CLIFormatter, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewCLIFormatter(&Formatter{Writer: &buf, ColorMode: ColorNever}), &buf
}

func TestCLIFormatterMessages(t *testing.T) {
	cli, buf := newCLI()
	cli.Title("Geofence")
	cli.Success("saved")
	cli.Warning("careful")
	cli.Error("failed")
	cli.Muted("quiet")

	assert.Equal(t, "Geofence\n✓ saved\n⚠ careful\n✗ failed\nquiet\n", buf.String())
}

func TestCLIFormatterDue(t *testing.T) {
	cli, _ := newCLI()
	assert.Equal(t, "2026-03-01", cli.Due("2026-03-01", model.DueOverdue))
	assert.Equal(t, "", cli.Due("", model.DueNormal))
}

func TestCLIFormatterPrintGeofenceStatus(t *testing.T) {
	t.Run("active_override", func(t *testing.T) {
		cli, buf := newCLI()
		cli.PrintGeofenceStatus(&GeofenceStatusOutput{
			State:      "active",
			Active:     true,
			Monitoring: true,
			Location: LocationOutput{
				Longitude: 118.8, Latitude: 31.9, Radius: 150,
				Address: "江苏省南京市", Source: "override",
			},
		})
		out := buf.String()
		assert.Contains(t, out, "打卡提醒已开启")
		assert.Contains(t, out, "118.800000, 31.900000 (override)")
		assert.Contains(t, out, "江苏省南京市")
		assert.Contains(t, out, "150m")
		assert.NotContains(t, out, "stale")
	})

	t.Run("inactive_with_stale_registration", func(t *testing.T) {
		cli, buf := newCLI()
		cli.PrintGeofenceStatus(&GeofenceStatusOutput{
			State:      "inactive",
			Monitoring: true,
			Location:   LocationOutput{Radius: 100, Source: "default"},
		})
		out := buf.String()
		assert.Contains(t, out, "打卡提醒未开启")
		assert.Contains(t, out, "stale registration")
		assert.NotContains(t, out, "Address")
	})
}

func TestCLIFormatterPrintTodos(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	items := []model.TodoItem{
		model.NewTodo("交报销单", &yesterday, now),
		model.NewTodo("买牛奶", nil, now),
	}

	t.Run("table", func(t *testing.T) {
		cli, buf := newCLI()
		cli.PrintTodos(items, now)
		out := buf.String()
		assert.Contains(t, out, "TITLE")
		assert.Contains(t, out, "交报销单")
		assert.Contains(t, out, "2026-03-01")
		assert.Contains(t, out, shortID(items[0].ID))
	})

	t.Run("empty", func(t *testing.T) {
		cli, buf := newCLI()
		cli.PrintTodos(nil, now)
		assert.Equal(t, "暂无待办\n", buf.String())
	})

	t.Run("single", func(t *testing.T) {
		cli, buf := newCLI()
		cli.PrintTodo(&items[0], now)
		assert.Contains(t, buf.String(), "交报销单  2026-03-01")
	})
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "1b4e28ba", shortID("1b4e28ba-2fa1-11d2-883f-0016d3cca427"))
	assert.Equal(t, "abc", shortID("abc"))
}

func TestCLIFormatterPrintTable(t *testing.T) {
	t.Run("with_rows", func(t *testing.T) {
		cli, buf := newCLI()

		headers := []string{"Name", "Due"}
		rows := []TableRow{
			{Columns: []string{"写周报", "2026-03-03"}},
			{Columns: []string{"milk", ""}},
		}

		cli.PrintTable(headers, rows)
		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		require.Len(t, lines, 4)
		assert.Equal(t, "Name    Due", lines[0])
		assert.Equal(t, "──────  ──────────", lines[1])
		assert.Equal(t, "写周报  2026-03-03", lines[2])
		assert.Equal(t, "milk", lines[3])
	})

	t.Run("empty_rows", func(t *testing.T) {
		cli, buf := newCLI()
		cli.PrintTable([]string{"Name"}, []TableRow{})
		assert.Empty(t, buf.String())
	})
}

func TestCLIFormatterPrintKeyValue(t *testing.T) {
	cli, buf := newCLI()
	cli.PrintKeyValue("Variant", "alert")
	assert.Equal(t, "  Variant:           alert\n", buf.String())
}

// =============================================================================
// JSONFormatter Tests
// =============================================================================

func TestNewLocationOutput(t *testing.T) {
	region := model.NewPunchRegion(118.8, 31.9, 150)

	out := NewLocationOutput(region, "default", nil)
	assert.Equal(t, &LocationOutput{Longitude: 118.8, Latitude: 31.9, Radius: 150, Source: "default"}, out)

	addr := "南京"
	cfg := &model.UserGeofenceConfig{Longitude: 118.8, Latitude: 31.9, Radius: 150, Address: &addr, UpdatedAt: 1772442000000}
	out = NewLocationOutput(cfg.Region(), "override", cfg)
	assert.Equal(t, "南京", out.Address)
	assert.Equal(t, time.UnixMilli(1772442000000).Format(time.RFC3339), out.UpdatedAt)
}

func TestJSONFormatterPrintTodos(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	due := now.AddDate(0, 0, 2)
	items := []model.TodoItem{model.NewTodo("写周报", &due, now), model.NewTodo("买牛奶", nil, now)}

	require.NoError(t, j.PrintTodos(items, now))

	var resp struct {
		Todos []struct {
			ID        string  `json:"id"`
			Title     string  `json:"title"`
			DueDate   *string `json:"due_date"`
			DueStatus string  `json:"due_status"`
		} `json:"todos"`
		TotalCount int `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, 2, resp.TotalCount)
	require.Len(t, resp.Todos, 2)
	assert.Equal(t, "写周报", resp.Todos[0].Title)
	assert.Equal(t, "warning", resp.Todos[0].DueStatus)
	require.NotNil(t, resp.Todos[0].DueDate)
	assert.Equal(t, "2026-03-04T10:00:00.000Z", *resp.Todos[0].DueDate)
	assert.Nil(t, resp.Todos[1].DueDate)
	assert.Equal(t, "normal", resp.Todos[1].DueStatus)
}

func TestJSONFormatterPrintError(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})

	require.NoError(t, j.PrintError("error", "invalid radius", "请输入有效的数字"))
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, ErrorResponse{Status: "error", Error: "invalid radius", Message: "请输入有效的数字"}, resp)
}

func TestJSONFormatterPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})

	require.NoError(t, j.PrintStatus("enabled", map[string]int{"radius": 100}))
	assert.Contains(t, buf.String(), `"status": "enabled"`)
	assert.Contains(t, buf.String(), `"radius": 100`)
}
