package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/carolin-violet/violet-reminder/internal/geofence"
	"github.com/carolin-violet/violet-reminder/internal/logging"
	"github.com/carolin-violet/violet-reminder/internal/model"
	"github.com/carolin-violet/violet-reminder/internal/output"
)

// Geofence command flags.
var (
	geofencePermissionsFlagReset bool
)

// geofenceCmd represents the geofence command.
var geofenceCmd = &cobra.Command{
	Use:     "geofence [command]",
	Aliases: []string{"gf", "punch"},
	Short:   "Turn punch reminders on or off",
	Long: `Register the punch region with the location monitor, or remove it.

While enabled, arriving at the region reminds you to punch in and leaving it
reminds you to punch out. Reminders are delivered by the daemon.

Examples:
  violet geofence enable
  violet geofence status
  violet geofence simulate enter
  violet geofence disable`,
	RunE: runGeofenceStatus,
}

var geofenceEnableCmd = &cobra.Command{
	Use:     "enable",
	Aliases: []string{"on"},
	Short:   "Ask for location access and start monitoring",
	RunE:    runGeofenceEnable,
}

var geofenceDisableCmd = &cobra.Command{
	Use:     "disable",
	Aliases: []string{"off"},
	Short:   "Stop monitoring",
	RunE:    runGeofenceDisable,
}

var geofenceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether monitoring is on and the effective region",
	RunE:  runGeofenceStatus,
}

var geofenceSimulateCmd = &cobra.Command{
	Use:   "simulate enter|exit",
	Short: "Deliver a synthetic region event",
	Long: `Deliver an enter or exit event for the registered region through the
background task, as if the boundary had been crossed.

Examples:
  violet geofence simulate enter
  violet geofence simulate exit`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"enter", "exit"},
	RunE:      runGeofenceSimulate,
}

var geofencePermissionsCmd = &cobra.Command{
	Use:     "permissions",
	Aliases: []string{"perms"},
	Short:   "Show or reset stored permission answers",
	RunE:    runGeofencePermissions,
}

func init() {
	geofencePermissionsCmd.Flags().BoolVar(&geofencePermissionsFlagReset, "reset", false,
		"Forget every answer so the next enable asks again")

	geofenceCmd.AddCommand(geofenceEnableCmd)
	geofenceCmd.AddCommand(geofenceDisableCmd)
	geofenceCmd.AddCommand(geofenceStatusCmd)
	geofenceCmd.AddCommand(geofenceSimulateCmd)
	geofenceCmd.AddCommand(geofencePermissionsCmd)

	rootCmd.AddCommand(geofenceCmd)
}

// geofenceStatus reconciles with the monitor and describes the result.
func geofenceStatus(c context.Context) (*output.GeofenceStatusOutput, error) {
	svc := ctx.Geofence()
	state, err := svc.Reconcile(c)
	if err != nil {
		return nil, err
	}
	region, source, err := svc.EffectiveRegion(c)
	if err != nil {
		return nil, err
	}
	cfg, err := geofence.NewConfigStore(ctx.Session).Load(c)
	if err != nil {
		return nil, err
	}
	reg, err := ctx.Monitor().Registration(c, model.GeofenceTaskName)
	if err != nil {
		return nil, err
	}

	status := &output.GeofenceStatusOutput{
		State:      state.String(),
		Active:     state == geofence.Active,
		Monitoring: reg != nil,
		Location:   *output.NewLocationOutput(region, string(source), cfg),
	}
	if reg != nil {
		status.MonitoringSince = reg.StartedAt.Local().Format(time.RFC3339)
	}
	return status, nil
}

func runGeofenceStatus(cmd *cobra.Command, args []string) error {
	status, err := geofenceStatus(cmd.Context())
	if err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(status)
	}
	ctx.CLIFormatter().PrintGeofenceStatus(status)
	return nil
}

func runGeofenceEnable(cmd *cobra.Command, args []string) error {
	c := cmd.Context()
	region, err := ctx.Geofence().Enable(c)
	if err != nil {
		return err
	}

	// The daemon cannot ask, so the notification answer is collected here.
	notifications, err := ctx.Notifications().RequestPermission(c)
	if err != nil {
		logging.WarnContext(c, "notification permission request failed", logging.KeyError, err)
		notifications = model.PermissionUndetermined
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintStatus("enabled", map[string]any{
			"region":        output.NewLocationOutput(*region, "", nil),
			"notifications": string(notifications),
		})
	}

	cli := ctx.CLIFormatter()
	cli.Success("打卡提醒已开启")
	cli.PrintKeyValue("Location", output.FormatCoordinate(region.Longitude, region.Latitude))
	cli.PrintKeyValue("Radius", fmt.Sprintf("%.0fm", region.Radius))
	cli.PrintKeyValue("Notifications", string(notifications))
	if !notifications.Granted() {
		cli.Warning("Notifications are not allowed; reminders only reach enabled webhooks.")
	}
	if !ctx.IsCLI() || daemonRunning() {
		return nil
	}
	ctx.Formatter.Println()
	cli.Warning("The daemon is not running; start it with 'violet daemon start' to receive reminders.")
	return nil
}

func runGeofenceDisable(cmd *cobra.Command, args []string) error {
	if err := ctx.Geofence().Disable(cmd.Context()); err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintStatus("disabled", nil)
	}
	ctx.CLIFormatter().Success("打卡提醒已关闭")
	return nil
}

func runGeofenceSimulate(cmd *cobra.Command, args []string) error {
	c := cmd.Context()
	typ, err := model.ParseGeofenceEventType(args[0])
	if err != nil {
		return err
	}

	// Deliver within this process so the reminder shows on this terminal.
	tasks := geofence.NewTaskRegistry()
	ctx.BindTasks(tasks)
	region, err := ctx.Monitor().Simulate(c, tasks, model.GeofenceTaskName, typ)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintStatus("delivered", map[string]any{
			"event":  typ.String(),
			"region": output.NewLocationOutput(*region, "", nil),
		})
	}
	ctx.Debugf("reminder variant: %s", ctx.Config.Reminder.Variant)
	ctx.CLIFormatter().Muted(fmt.Sprintf("Delivered %s for %s", typ, region.Identifier))
	return nil
}

func runGeofencePermissions(cmd *cobra.Command, args []string) error {
	c := cmd.Context()
	perms := ctx.Permissions()

	if geofencePermissionsFlagReset {
		if err := perms.Reset(c); err != nil {
			return err
		}
		if ctx.IsJSON() {
			return ctx.JSONFormatter().PrintStatus("reset", nil)
		}
		ctx.CLIFormatter().Success("Permission answers cleared; the next enable will ask again.")
		return nil
	}

	grants, err := perms.Grants(c)
	if err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]any{"permissions": grants})
	}

	if len(grants) == 0 {
		ctx.CLIFormatter().Muted("No permission answers stored.")
		return nil
	}
	rows := make([]output.TableRow, len(grants))
	for i, g := range grants {
		rows[i] = output.TableRow{Columns: []string{
			g.Scope,
			string(g.Status),
			output.FormatTime(g.DecidedAt),
		}}
	}
	ctx.CLIFormatter().PrintTable([]string{"SCOPE", "STATUS", "DECIDED"}, rows)
	return nil
}
