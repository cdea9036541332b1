package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/carolin-violet/violet-reminder/internal/daemon"
	"github.com/carolin-violet/violet-reminder/internal/logging"
	"github.com/carolin-violet/violet-reminder/internal/output"
)

// Daemon command flags.
var (
	daemonStartFlagForeground bool
	daemonLogsFlagTail        int
	daemonLogsFlagFollow      bool
	daemonInstallFlagForce    bool
)

// daemonCmd represents the daemon command.
var daemonCmd = &cobra.Command{
	Use:     "daemon [command]",
	Aliases: []string{"bg", "service"},
	Short:   "Manage the background daemon",
	Long: `Manage the violet background daemon. The daemon receives location fixes
from the MQTT broker set in VIOLET_MQTT_BROKER, sends the punch reminders
when you enter or leave the punch region and sends a digest of overdue
to-do items.

Examples:
  violet daemon start
  violet daemon status
  violet daemon stop
  violet daemon logs --tail 20`,
	RunE: runDaemonStatus,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the background daemon",
	Long: `Start the violet background daemon.

Examples:
  violet daemon start                # Start in background
  violet daemon start --foreground   # Start in foreground (for debugging)`,
	RunE: runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background daemon",
	RunE:  runDaemonStop,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE:  runDaemonStatus,
}

var daemonLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View daemon logs",
	Long: `View the daemon log file.

Examples:
  violet daemon logs
  violet daemon logs --tail 50
  violet daemon logs --follow`,
	RunE: runDaemonLogs,
}

var daemonInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install daemon as a system service",
	Long: `Install the violet daemon as a service that starts on login.

On macOS, this creates a launchd agent in ~/Library/LaunchAgents.
On Linux, this creates a systemd user service in ~/.config/systemd/user.
VIOLET_* variables set now are written into the service.

Examples:
  violet daemon install
  violet daemon install --force   # Reinstall if already installed`,
	RunE: runDaemonInstall,
}

var daemonUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Uninstall daemon system service",
	RunE:  runDaemonUninstall,
}

func init() {
	daemonStartCmd.Flags().BoolVar(&daemonStartFlagForeground, "foreground", false,
		"Run in foreground (don't daemonize)")

	daemonLogsCmd.Flags().IntVarP(&daemonLogsFlagTail, "tail", "n", 20,
		"Number of lines to show")
	daemonLogsCmd.Flags().BoolVar(&daemonLogsFlagFollow, "follow", false,
		"Follow log output (like tail -f)")

	daemonInstallCmd.Flags().BoolVar(&daemonInstallFlagForce, "force", false,
		"Force reinstall if already installed")

	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonLogsCmd)
	daemonCmd.AddCommand(daemonInstallCmd)
	daemonCmd.AddCommand(daemonUninstallCmd)

	rootCmd.AddCommand(daemonCmd)
}

// daemonRunning reports whether a daemon process is alive.
func daemonRunning() bool {
	return daemon.NewDaemon(nil).IsRunning()
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	if !daemonStartFlagForeground {
		// The parent never opens the database; the child does.
		d := daemon.NewDaemon(nil)
		d.SetDebug(flagDebug)

		if d.IsRunning() {
			return fmt.Errorf("daemon is already running (PID: %d)", d.GetStatus().PID)
		}

		pid, err := d.StartBackground()
		if err != nil {
			return err
		}

		if ctx.IsJSON() {
			return ctx.JSONFormatter().PrintStatus("started", map[string]any{"pid": pid})
		}
		ctx.CLIFormatter().Success(fmt.Sprintf("Daemon started (PID: %d)", pid))
		return nil
	}

	logCfg := logging.DaemonConfig(os.Stderr)
	if ctx.Debug {
		logCfg.Level = slog.LevelDebug
	}
	logging.Init(logCfg)

	d := daemon.NewDaemon(ctx)
	d.SetDebug(ctx.Debug)
	d.SetVersion(Version)

	if d.IsRunning() {
		return fmt.Errorf("daemon is already running (PID: %d)", d.GetStatus().PID)
	}

	c := cmd.Context()
	if ctx.Webhooks().CountEnabledWebhooks(c) == 0 {
		logging.Warn("no webhooks configured, reminders are shown locally only")
	}
	return d.Start(c)
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	d := daemon.NewDaemon(nil)
	if !d.IsRunning() {
		if ctx.IsJSON() {
			return ctx.JSONFormatter().PrintStatus("not_running", nil)
		}
		ctx.CLIFormatter().Muted("Daemon is not running")
		return nil
	}

	pid := d.GetStatus().PID
	if err := d.Stop(); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintStatus("stopped", map[string]any{"pid": pid})
	}
	ctx.CLIFormatter().Success(fmt.Sprintf("Daemon stopped (was PID: %d)", pid))
	return nil
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	status := daemon.NewDaemon(nil).GetStatus()
	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(status)
	}

	cli := ctx.CLIFormatter()
	cli.Title("violet daemon")
	if !status.Running {
		cli.PrintKeyValue("Status", "stopped")
		if msg := daemon.LastLogError(daemon.GetLogPath()); msg != "" {
			cli.PrintKeyValue("Last error", msg)
		}
		ctx.Formatter.Println()
		cli.Muted("Start with: violet daemon start")
		return nil
	}

	cli.PrintKeyValue("Status", "running")
	cli.PrintKeyValue("PID", status.PID)
	if status.Uptime != "" {
		cli.PrintKeyValue("Uptime", status.Uptime)
	}
	if status.Version != "" {
		cli.PrintKeyValue("Version", status.Version)
	}
	if status.Broker != "" {
		cli.PrintKeyValue("Broker", status.Broker)
	}
	if status.NextJob != nil {
		cli.PrintKeyValue("Next job", output.FormatTime(*status.NextJob))
	}
	if h := status.Health; h != nil {
		cli.PrintKeyValue("Health", h.Status)
		for _, check := range h.Checks {
			state := "ok"
			if !check.Healthy {
				state = check.Error
			}
			cli.PrintKeyValue("  "+check.Name, state)
		}
	}
	if m := status.Metrics; m != nil {
		cli.PrintKeyValue("Fixes", m.FixesProcessedTotal)
		cli.PrintKeyValue("Transitions", m.TransitionsTotal)
		if m.LastFixAt != nil {
			cli.PrintKeyValue("Last fix", output.FormatTime(*m.LastFixAt))
		}
		if m.ErrorsTotal > 0 {
			cli.PrintKeyValue("Errors", m.ErrorsTotal)
			cli.PrintKeyValue("Last error", m.LastError)
		}
	}
	return nil
}

func runDaemonLogs(cmd *cobra.Command, args []string) error {
	logPath := daemon.GetLogPath()
	if _, err := os.Stat(logPath); errors.Is(err, os.ErrNotExist) {
		ctx.CLIFormatter().Muted("No log file found: " + logPath)
		return nil
	}

	lines, err := tailFile(logPath, daemonLogsFlagTail)
	if err != nil {
		return err
	}
	for _, line := range lines {
		ctx.Formatter.Println(line)
	}

	if daemonLogsFlagFollow {
		c, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return followLogs(c, logPath, os.Stdout)
	}
	return nil
}

// tailFile reads the last n lines from a file.
func tailFile(path string, n int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	return lines, scanner.Err()
}

// followLogs copies lines appended to path to w until ctx is done.
func followLogs(ctx context.Context, path string, w io.Writer) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return err
	}

	reader := bufio.NewReader(file)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		for {
			line, err := reader.ReadString('\n')
			if len(line) > 0 {
				fmt.Fprint(w, line)
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func runDaemonInstall(cmd *cobra.Command, args []string) error {
	mgr, err := daemon.NewServiceManager()
	if err != nil {
		return err
	}

	if mgr.IsInstalled() {
		if !daemonInstallFlagForce {
			if ctx.IsJSON() {
				return ctx.JSONFormatter().PrintStatus("already_installed", nil)
			}
			ctx.CLIFormatter().Muted("Service is already installed. Use --force to reinstall.")
			return nil
		}
		if err := mgr.Uninstall(); err != nil {
			return fmt.Errorf("failed to remove existing service: %w", err)
		}
	}

	if err := mgr.Install(); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintStatus("installed", nil)
	}
	cli := ctx.CLIFormatter()
	cli.Success("Service installed")
	cli.Muted("The daemon now starts when you log in. Remove with: violet daemon uninstall")
	return nil
}

func runDaemonUninstall(cmd *cobra.Command, args []string) error {
	mgr, err := daemon.NewServiceManager()
	if err != nil {
		return err
	}

	if !mgr.IsInstalled() {
		if ctx.IsJSON() {
			return ctx.JSONFormatter().PrintStatus("not_installed", nil)
		}
		ctx.CLIFormatter().Muted("Service is not installed.")
		return nil
	}

	if d := daemon.NewDaemon(nil); d.IsRunning() {
		if err := d.Stop(); err != nil {
			logging.Warn("failed to stop daemon", logging.KeyError, err)
		}
	}

	if err := mgr.Uninstall(); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintStatus("uninstalled", nil)
	}
	ctx.CLIFormatter().Success("Service uninstalled")
	return nil
}
