// Package cmd provides the CLI commands for violet.
package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	errs "github.com/carolin-violet/violet-reminder/internal/errors"
	"github.com/carolin-violet/violet-reminder/internal/logging"
	"github.com/carolin-violet/violet-reminder/internal/model"
	"github.com/carolin-violet/violet-reminder/internal/output"
	"github.com/carolin-violet/violet-reminder/internal/runtime"
	"github.com/carolin-violet/violet-reminder/internal/storage"
)

// Version information (set at build time via ldflags).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Global flags.
var (
	flagFormat  string
	flagColor   string
	flagDebug   bool
	flagNoInput bool
)

// ctx is the shared runtime context.
var ctx *runtime.Context

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "violet",
	Short: "Punch-in reminders when you arrive at or leave the office",
	Long: `violet watches a circular region around your office and reminds you
to punch in when you arrive and to punch out when you leave. It also keeps a
small to-do list with due dates.

Examples:
  violet location set 118.810202 31.912279 --address "Xinjiekou" --radius 150
  violet geofence enable
  violet daemon start
  violet todo add "submit expense report" due friday
  violet todo list`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "completion" || cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		var format output.Format
		switch flagFormat {
		case "json":
			format = output.FormatJSON
		case "plain":
			format = output.FormatPlain
		default:
			format = output.FormatCLI
		}

		var colorMode output.ColorMode
		switch flagColor {
		case "always":
			colorMode = output.ColorAlways
		case "never":
			colorMode = output.ColorNever
		default:
			colorMode = output.ColorAuto
		}

		if flagDebug {
			logging.Init(logging.DebugConfig())
		}

		opts := runtime.DefaultOptions()
		opts.Format = format
		opts.ColorMode = colorMode
		opts.Debug = flagDebug
		opts.NoInput = flagNoInput
		ctx = runtime.New(opts)
		ctx.Formatter.Writer = cmd.OutOrStdout()

		cmd.SetContext(logging.NewRequestContext(cmd.Context()))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if ctx != nil {
			return ctx.Close()
		}
		return nil
	},
	RunE: runStatus,
}

// runStatus shows the punch reminder state and the todos that need attention.
func runStatus(cmd *cobra.Command, args []string) error {
	c := cmd.Context()
	status, err := geofenceStatus(c)
	if err != nil {
		return err
	}

	var items []model.TodoItem
	if err := ctx.Session.Do(c, func(db *storage.DB) (err error) {
		items, err = storage.NewTodoRepo(db).Sorted()
		return err
	}); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintStatus("ok", map[string]any{
			"geofence": status,
			"todos":    output.NewTodosResponse(items, time.Now()),
		})
	}

	cli := ctx.CLIFormatter()
	cli.PrintGeofenceStatus(status)
	ctx.Formatter.Println()
	cli.Title("待办")
	cli.PrintTodos(items, time.Now())
	return nil
}

// Execute runs the root command and prints any error.
func Execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		printError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", "cli",
		"Output format: cli, json, plain")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto",
		"Color output: auto, always, never")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false,
		"Enable debug output")
	rootCmd.PersistentFlags().BoolVar(&flagNoInput, "no-input", false,
		"Never prompt; undecided permissions count as denied")

	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("violet %s\n", Version)
		cmd.Printf("  commit: %s\n", Commit)
		cmd.Printf("  built: %s\n", BuildTime)
	},
}

// printError prints err as text with its suggestion, or as a JSON error
// object with --format json.
func printError(err error) {
	err = runtime.WrapDiskFullError(err, "write", storage.DefaultPath())
	if ctx != nil && ctx.IsJSON() {
		ctx.JSONFormatter().PrintError("error", err.Error(), errs.GetSuggestion(err))
		return
	}
	if flagDebug {
		os.Stderr.WriteString(errs.FormatDebugError(err))
		return
	}
	os.Stderr.WriteString("Error: " + runtime.FormatError(err) + "\n")
}
