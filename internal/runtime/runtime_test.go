package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/carolin-violet/violet-reminder/internal/errors"
	"github.com/carolin-violet/violet-reminder/internal/geofence"
	"github.com/carolin-violet/violet-reminder/internal/model"
	"github.com/carolin-violet/violet-reminder/internal/output"
	"github.com/carolin-violet/violet-reminder/internal/reminder"
	"github.com/carolin-violet/violet-reminder/internal/storage"
)

// =============================================================================
// Context Tests
// =============================================================================

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestContext(t *testing.T, opts Options) *Context {
	t.Helper()
	t.Setenv("VIOLET_DATABASE", "")
	opts.InMemory = true
	opts.NoInput = true
	ctx := New(opts)
	t.Cleanup(func() { ctx.Close() })
	return ctx
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.NotEmpty(t, opts.DBPath)
	assert.False(t, opts.InMemory)
	assert.Equal(t, output.FormatCLI, opts.Format)
	assert.Equal(t, output.ColorAuto, opts.ColorMode)
	assert.False(t, opts.Debug)
}

func TestNew(t *testing.T) {
	ctx := newTestContext(t, Options{})

	assert.NotNil(t, ctx.Session)
	assert.True(t, ctx.Session.InMemory())
	assert.NotNil(t, ctx.Formatter)
	assert.NotNil(t, ctx.Config)
	assert.False(t, ctx.Interactive)
	assert.Nil(t, ctx.Prompter())
}

func TestNewWithOptions(t *testing.T) {
	ctx := newTestContext(t, Options{
		Format:    output.FormatJSON,
		ColorMode: output.ColorNever,
		Debug:     true,
	})

	assert.Equal(t, output.FormatJSON, ctx.Formatter.Format)
	assert.Equal(t, output.ColorNever, ctx.Formatter.ColorMode)
	assert.True(t, ctx.Debug)
	assert.True(t, ctx.IsJSON())
	assert.False(t, ctx.IsCLI())
}

func TestNewWithEnvVariable(t *testing.T) {
	t.Setenv("VIOLET_DATABASE", storage.MemoryPath)
	ctx := New(Options{DBPath: "/nonexistent/db", NoInput: true})
	defer ctx.Close()
	assert.True(t, ctx.Session.InMemory())
}

func TestNewWithEnvVariablePath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("VIOLET_DATABASE", dir)
	ctx := New(Options{NoInput: true})
	defer ctx.Close()

	assert.False(t, ctx.Session.InMemory())
	require.NoError(t, ctx.Session.Do(context.Background(), func(db *storage.DB) error {
		assert.Equal(t, dir, db.Path())
		return nil
	}))
}

func TestContextServicesShareSession(t *testing.T) {
	ctx := newTestContext(t, Options{})
	c := context.Background()

	// Non-interactive: undetermined permissions read as denied.
	_, err := ctx.Geofence().Enable(c)
	_, denied := errs.AsPermissionDenied(err)
	assert.True(t, denied)

	require.NoError(t, ctx.Session.Do(c, func(db *storage.DB) error {
		repo := storage.NewGrantRepo(db)
		if err := repo.Record(string(errs.ScopeForeground), model.PermissionGranted, fixedNow); err != nil {
			return err
		}
		return repo.Record(string(errs.ScopeBackground), model.PermissionGranted, fixedNow)
	}))

	region, err := ctx.Geofence().Enable(c)
	require.NoError(t, err)
	assert.Equal(t, model.PunchRegionID, region.Identifier)

	ok, err := ctx.Monitor().IsMonitoring(c, model.GeofenceTaskName)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Same(t, ctx.Geofence(), ctx.Geofence())
}

func TestContextRemindersNonInteractive(t *testing.T) {
	ctx := newTestContext(t, Options{})
	var banner bytes.Buffer
	ctx.out = &banner
	c := context.Background()

	// No stored answer and nobody to ask.
	ctx.Reminders().Dispatch(c, reminder.TypeEnter)
	assert.Empty(t, banner.String())
	status, err := ctx.Notifications().PermissionStatus(c)
	require.NoError(t, err)
	assert.Equal(t, model.PermissionUndetermined, status)

	// The answer given at enable time is read by the running dispatcher.
	d := ctx.Reminders()
	require.NoError(t, ctx.Session.Do(c, func(db *storage.DB) error {
		return storage.NewGrantRepo(db).Record(string(errs.ScopeNotification), model.PermissionGranted, fixedNow)
	}))
	d.Dispatch(c, reminder.TypeEnter)
	assert.Contains(t, banner.String(), "您已进入打卡地点，请打卡")
}

func TestContextBindTasks(t *testing.T) {
	ctx := newTestContext(t, Options{})
	tasks := geofence.NewTaskRegistry()
	ctx.BindTasks(tasks)
	assert.True(t, tasks.IsDefined(model.GeofenceTaskName))
}

func TestContextFormatters(t *testing.T) {
	ctx := newTestContext(t, Options{})
	assert.NotNil(t, ctx.CLIFormatter())
	assert.NotNil(t, ctx.JSONFormatter())
}

func TestContextDebugf(t *testing.T) {
	t.Run("debug_enabled", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := newTestContext(t, Options{Debug: true})
		ctx.Formatter.Writer = &buf

		ctx.Debugf("test %s", "message")
		assert.Equal(t, "[DEBUG] test message\n", buf.String())
	})

	t.Run("debug_disabled", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := newTestContext(t, Options{})
		ctx.Formatter.Writer = &buf

		ctx.Debugf("test %s", "message")
		assert.Empty(t, buf.String())
	})
}

// =============================================================================
// Error Tests
// =============================================================================

func TestFormatError(t *testing.T) {
	t.Run("with_suggestion", func(t *testing.T) {
		formatted := FormatError(fmt.Errorf("rm: %w", errs.ErrTodoNotFound))
		assert.Contains(t, formatted, "todo not found")
		assert.Contains(t, formatted, "violet todo list")
	})

	t.Run("without_suggestion", func(t *testing.T) {
		assert.Equal(t, "custom error", FormatError(errors.New("custom error")))
	})
}

func TestNewDiskFullError(t *testing.T) {
	err := NewDiskFullError("write", "/path/to/db", errors.New("underlying error"))

	assert.Equal(t, "write", err.Op)
	assert.Equal(t, "/path/to/db", err.Path)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "/path/to/db")
	assert.True(t, errors.Is(err, errs.ErrDiskFull))
}

func TestDiskFullErrorWithoutPath(t *testing.T) {
	err := NewDiskFullError("sync", "", errors.New("underlying error"))
	assert.NotContains(t, err.Error(), " on ")
}

func TestIsDiskFullError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil_error", nil, false},
		{"disk_full_error_type", NewDiskFullError("write", "", nil), true},
		{"sentinel", errs.ErrDiskFull, true},
		{"wrapped_sentinel", fmt.Errorf("context: %w", errs.ErrDiskFull), true},
		{"enospc_errno", syscall.ENOSPC, true},
		{"message_no_space", errors.New("no space left on device"), true},
		{"message_case_insensitive", errors.New("DISK FULL"), true},
		{"unrelated", errors.New("permission denied"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDiskFullError(tt.err))
		})
	}
}

func TestWrapDiskFullError(t *testing.T) {
	assert.NoError(t, WrapDiskFullError(nil, "write", ""))

	plain := errors.New("boom")
	assert.Same(t, plain, WrapDiskFullError(plain, "write", ""))

	wrapped := WrapDiskFullError(syscall.ENOSPC, "write", "/db")
	var dfe *DiskFullError
	require.ErrorAs(t, wrapped, &dfe)
	assert.Equal(t, "/db", dfe.Path)
}
