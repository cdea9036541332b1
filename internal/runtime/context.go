// Package runtime wires the per-invocation application context for violet.
package runtime

import (
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/carolin-violet/violet-reminder/internal/config"
	"github.com/carolin-violet/violet-reminder/internal/geofence"
	"github.com/carolin-violet/violet-reminder/internal/model"
	"github.com/carolin-violet/violet-reminder/internal/notify"
	"github.com/carolin-violet/violet-reminder/internal/output"
	"github.com/carolin-violet/violet-reminder/internal/platform/local"
	"github.com/carolin-violet/violet-reminder/internal/reminder"
	"github.com/carolin-violet/violet-reminder/internal/storage"
	"github.com/carolin-violet/violet-reminder/internal/tui"
)

// Context holds the application runtime context. The database is never
// held open by the context itself; every unit of work goes through Session.
type Context struct {
	Session   *storage.Session
	Formatter *output.Formatter
	Config    *config.RuntimeConfig

	// Debug mode
	Debug bool
	// Interactive is true when the user can answer prompts on the terminal.
	Interactive bool

	in  io.Reader
	out io.Writer

	once     sync.Once
	monitor  *local.Monitor
	perms    *local.Permissions
	service  *geofence.Service
	webhooks *notify.Dispatcher
	center   *notify.Center
}

// Options configures the runtime context.
type Options struct {
	DBPath    string
	InMemory  bool
	Format    output.Format
	ColorMode output.ColorMode
	Debug     bool
	// NoInput disables prompts even on a terminal.
	NoInput bool
}

// DefaultOptions returns default runtime options.
func DefaultOptions() Options {
	return Options{
		DBPath:    storage.DefaultPath(),
		InMemory:  false,
		Format:    output.FormatCLI,
		ColorMode: output.ColorAuto,
		Debug:     false,
	}
}

// New creates a new runtime context.
func New(opts Options) *Context {
	if envPath := os.Getenv("VIOLET_DATABASE"); envPath != "" {
		if envPath == storage.MemoryPath {
			opts.InMemory = true
		} else {
			opts.DBPath = envPath
		}
	}

	formatter := output.NewFormatter()
	formatter.Format = opts.Format
	formatter.ColorMode = opts.ColorMode

	cfg := config.Global
	session := storage.NewSession(
		storage.Options{Path: opts.DBPath, InMemory: opts.InMemory},
		storage.LockPolicy{Retries: cfg.Storage.LockRetries, Backoff: cfg.Storage.LockBackoff},
	)

	return &Context{
		Session:     session,
		Formatter:   formatter,
		Config:      cfg,
		Debug:       opts.Debug,
		Interactive: !opts.NoInput && isTerminal(os.Stdin) && opts.Format != output.FormatJSON,
		in:          os.Stdin,
		out:         os.Stdout,
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Close releases the shared in-memory database, if any.
func (c *Context) Close() error {
	return c.Session.Close()
}

func (c *Context) init() {
	c.once.Do(func() {
		var asker local.Asker
		if p := c.Prompter(); p != nil {
			asker = p
		}
		c.monitor = local.NewMonitor(c.Session)
		c.perms = local.NewPermissions(c.Session, asker)
		c.service = geofence.NewService(
			c.monitor,
			c.perms,
			geofence.NewConfigStore(c.Session),
			config.LoadDefaultRegion().Region(),
		)
		c.webhooks = notify.NewDispatcher(c.Session, c.Config.HTTP)
		c.center = notify.NewCenter(c.Session, c.perms.Notification(), c.webhooks).WithBanner(c.out)
	})
}

// Prompter returns the terminal prompter, or nil when not interactive.
func (c *Context) Prompter() *tui.Prompter {
	if !c.Interactive {
		return nil
	}
	return tui.NewPrompterWith(c.in, c.out)
}

// Monitor returns the geofence registry.
func (c *Context) Monitor() *local.Monitor {
	c.init()
	return c.monitor
}

// Permissions returns the stored permission set.
func (c *Context) Permissions() *local.Permissions {
	c.init()
	return c.perms
}

// Geofence returns the registration service.
func (c *Context) Geofence() *geofence.Service {
	c.init()
	return c.service
}

// Webhooks returns the webhook dispatcher.
func (c *Context) Webhooks() *notify.Dispatcher {
	c.init()
	return c.webhooks
}

// Notifications returns the notification center.
func (c *Context) Notifications() *notify.Center {
	c.init()
	return c.center
}

// Reminders builds the configured reminder dispatcher. The alert variant
// needs a terminal; otherwise notifications are used.
func (c *Context) Reminders() reminder.Dispatcher {
	c.init()
	var prompter reminder.Prompter
	if p := c.Prompter(); p != nil {
		prompter = p
	}
	return reminder.Select(c.Config.Reminder, c.center, reminder.NewBellVibrator(c.out), prompter)
}

// BindTasks defines the geofence background task on tasks.
func (c *Context) BindTasks(tasks *geofence.TaskRegistry) {
	tasks.Define(model.GeofenceTaskName, geofence.NewEventHandler(c.Reminders()).Task())
}

// CLIFormatter returns a CLI formatter.
func (c *Context) CLIFormatter() *output.CLIFormatter {
	return output.NewCLIFormatter(c.Formatter)
}

// JSONFormatter returns a JSON formatter.
func (c *Context) JSONFormatter() *output.JSONFormatter {
	return output.NewJSONFormatter(c.Formatter)
}

// IsJSON returns true if output format is JSON.
func (c *Context) IsJSON() bool {
	return c.Formatter.Format == output.FormatJSON
}

// IsCLI returns true if output format is CLI.
func (c *Context) IsCLI() bool {
	return c.Formatter.Format == output.FormatCLI
}

// Debugf prints debug output if debug mode is enabled.
func (c *Context) Debugf(format string, args ...any) {
	if c.Debug {
		c.Formatter.Printf("[DEBUG] "+format+"\n", args...)
	}
}
