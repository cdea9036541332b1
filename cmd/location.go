package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/carolin-violet/violet-reminder/internal/errors"
	"github.com/carolin-violet/violet-reminder/internal/geofence"
	"github.com/carolin-violet/violet-reminder/internal/output"
)

// Location command flags.
var (
	locationSetFlagAddress string
	locationSetFlagRadius  string
)

// locationCmd represents the location command.
var locationCmd = &cobra.Command{
	Use:     "location [command]",
	Aliases: []string{"loc"},
	Short:   "Manage the punch location",
	Long: `Set, show or reset the punch location. Without an override the
built-in default location is used.

Examples:
  violet location set 118.810202 31.912279 --address "新街口" --radius 150
  violet location set --radius 200
  violet location show
  violet location reset`,
	RunE: runLocationShow,
}

var locationSetCmd = &cobra.Command{
	Use:   "set [LONGITUDE LATITUDE]",
	Short: "Save the punch location",
	Long: `Save the punch location. Coordinates are longitude then latitude in
degrees. Anything not given keeps its current value. An empty --address
clears the address. While reminders are on, the new region is registered
right away.

Examples:
  violet location set 118.810202 31.912279
  violet location set 118.810202 31.912279 --address "新街口"
  violet location set --radius 150
  violet location set --address ""`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("expected LONGITUDE LATITUDE or no coordinates, got %d argument(s)", len(args))
		}
		return nil
	},
	RunE: runLocationSet,
}

var locationShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective punch location",
	RunE:  runLocationShow,
}

var locationResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove the override and use the default location",
	RunE:  runLocationReset,
}

func init() {
	locationSetCmd.Flags().StringVarP(&locationSetFlagAddress, "address", "a", "",
		"Address shown with the location")
	locationSetCmd.Flags().StringVarP(&locationSetFlagRadius, "radius", "r", "",
		"Radius in meters, at least 100")

	locationCmd.AddCommand(locationSetCmd)
	locationCmd.AddCommand(locationShowCmd)
	locationCmd.AddCommand(locationResetCmd)

	rootCmd.AddCommand(locationCmd)
}

// parseDegrees parses a coordinate argument.
func parseDegrees(field, arg string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
	if err != nil {
		return 0, errs.Wrap(errs.ErrInvalidCoordinate, fmt.Sprintf("%s %q is not a number", field, arg))
	}
	return v, nil
}

// locationInput builds the change from the arguments and changed flags.
func locationInput(cmd *cobra.Command, args []string) (geofence.LocationInput, error) {
	var in geofence.LocationInput
	if len(args) == 2 {
		lon, err := parseDegrees("longitude", args[0])
		if err != nil {
			return in, err
		}
		lat, err := parseDegrees("latitude", args[1])
		if err != nil {
			return in, err
		}
		in.Longitude = &lon
		in.Latitude = &lat
	}
	if cmd.Flags().Changed("address") {
		in.Address = &locationSetFlagAddress
	}
	if cmd.Flags().Changed("radius") {
		in.Radius = &locationSetFlagRadius
	}
	return in, nil
}

func runLocationSet(cmd *cobra.Command, args []string) error {
	in, err := locationInput(cmd, args)
	if err != nil {
		return err
	}
	if in == (geofence.LocationInput{}) {
		return fmt.Errorf("nothing to change: give coordinates, --address or --radius")
	}

	c := cmd.Context()
	svc := ctx.Geofence()
	// Re-registration on save depends on knowing whether monitoring is on.
	if _, err := svc.Reconcile(c); err != nil {
		return err
	}
	saved, err := svc.SaveLocation(c, in)
	if saved == nil {
		return err
	}
	loc := output.NewLocationOutput(saved.Region(), string(geofence.SourceOverride), saved)

	if ctx.IsJSON() {
		if err != nil {
			return err
		}
		return ctx.JSONFormatter().PrintStatus("saved", loc)
	}

	cli := ctx.CLIFormatter()
	cli.Success("打卡位置已保存")
	cli.PrintLocation(loc)
	// Saved, but the new region could not be registered.
	return err
}

func runLocationShow(cmd *cobra.Command, args []string) error {
	c := cmd.Context()
	region, source, err := ctx.Geofence().EffectiveRegion(c)
	if err != nil {
		return err
	}
	cfg, err := geofence.NewConfigStore(ctx.Session).Load(c)
	if err != nil {
		return err
	}
	loc := output.NewLocationOutput(region, string(source), cfg)

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(loc)
	}
	ctx.CLIFormatter().PrintLocation(loc)
	return nil
}

func runLocationReset(cmd *cobra.Command, args []string) error {
	c := cmd.Context()
	svc := ctx.Geofence()
	if _, err := svc.Reconcile(c); err != nil {
		return err
	}
	if err := svc.ResetLocation(c); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintStatus("reset", nil)
	}
	ctx.CLIFormatter().Success("已恢复默认打卡位置")
	return nil
}
