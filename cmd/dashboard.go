package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/carolin-violet/violet-reminder/internal/geofence"
	"github.com/carolin-violet/violet-reminder/internal/model"
	"github.com/carolin-violet/violet-reminder/internal/storage"
	"github.com/carolin-violet/violet-reminder/internal/tui"
)

var dashboardFlagRefresh time.Duration

// dashboardCmd represents the dashboard command.
var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash", "d", "tui"},
	Short:   "Open the interactive TUI dashboard",
	Long: `Open a terminal dashboard showing whether punch reminders are on, the
punch location and the to-do list. The view refreshes on its own; the
database is only opened while loading.

Keyboard Controls:
  r - Refresh now
  q - Quit dashboard

Examples:
  violet dashboard
  violet dash --refresh 10s`,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().DurationVar(&dashboardFlagRefresh, "refresh", 5*time.Second,
		"Refresh interval")
	rootCmd.AddCommand(dashboardCmd)
}

// loadSnapshot reads everything the dashboard shows.
func loadSnapshot(c context.Context) (*tui.Snapshot, error) {
	svc := ctx.Geofence()
	state, err := svc.Reconcile(c)
	if err != nil {
		return nil, err
	}
	region, source, err := svc.EffectiveRegion(c)
	if err != nil {
		return nil, err
	}

	var items []model.TodoItem
	if err := ctx.Session.Do(c, func(db *storage.DB) (err error) {
		items, err = storage.NewTodoRepo(db).Sorted()
		return err
	}); err != nil {
		return nil, err
	}

	return &tui.Snapshot{
		Active: state == geofence.Active,
		Region: &region,
		Source: string(source),
		Todos:  items,
	}, nil
}

func runDashboard(cmd *cobra.Command, args []string) error {
	return tui.RunDashboard(cmd.Context(), tui.DashboardConfig{
		Load:            loadSnapshot,
		RefreshInterval: dashboardFlagRefresh,
		MaxTodos:        10,
	})
}
