package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/carolin-violet/violet-reminder/internal/config"
	"github.com/carolin-violet/violet-reminder/internal/logging"
	"github.com/carolin-violet/violet-reminder/internal/output"
	"github.com/carolin-violet/violet-reminder/internal/storage"
)

// configCmd represents the config command.
var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"cfg", "settings"},
	Short:   "Show the effective configuration",
	Long: `Show the configuration in effect for this shell. Values come from the
built-in defaults and VIOLET_* environment variables, for example:

  VIOLET_GEOFENCE_LONGITUDE, VIOLET_GEOFENCE_LATITUDE, VIOLET_GEOFENCE_RADIUS
  VIOLET_REMINDER_VARIANT (notification or alert)
  VIOLET_MQTT_BROKER, VIOLET_MQTT_TOPIC
  VIOLET_TODO_DIGEST_SPEC, VIOLET_RECONCILE_SPEC
  VIOLET_DATABASE

Examples:
  violet config
  violet config show --format json`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

// configView is the configuration as shown to the user. Secrets are masked.
type configView struct {
	Database      string `json:"database"`
	DefaultRegion struct {
		Longitude float64 `json:"longitude"`
		Latitude  float64 `json:"latitude"`
		Radius    float64 `json:"radius"`
	} `json:"default_region"`
	Reminder struct {
		Variant       string `json:"variant"`
		AlertPulse    string `json:"alert_pulse"`
		AlertInterval string `json:"alert_interval"`
		AlertMaxPulse int    `json:"alert_max_pulses"`
	} `json:"reminder"`
	MQTT struct {
		Broker   string `json:"broker,omitempty"`
		Topic    string `json:"topic"`
		ClientID string `json:"client_id"`
		QoS      byte   `json:"qos"`
		Username string `json:"username,omitempty"`
	} `json:"mqtt"`
	Scheduler struct {
		TodoDigest string `json:"todo_digest"`
		Reconcile  string `json:"reconcile"`
	} `json:"scheduler"`
	HTTPTimeout string `json:"http_timeout"`
}

func newConfigView(cfg *config.RuntimeConfig, region config.DefaultRegion) *configView {
	v := &configView{Database: storage.DefaultPath()}
	if ctx.Session.InMemory() {
		v.Database = storage.MemoryPath
	}
	v.DefaultRegion.Longitude = region.Longitude
	v.DefaultRegion.Latitude = region.Latitude
	v.DefaultRegion.Radius = region.Radius

	v.Reminder.Variant = cfg.Reminder.Variant
	v.Reminder.AlertPulse = cfg.Reminder.AlertPulse.String()
	v.Reminder.AlertInterval = cfg.Reminder.AlertInterval.String()
	v.Reminder.AlertMaxPulse = cfg.Reminder.AlertMaxPulses

	v.MQTT.Broker = logging.MaskURL(cfg.MQTT.Broker)
	v.MQTT.Topic = cfg.MQTT.Topic
	v.MQTT.ClientID = cfg.MQTT.ClientID
	v.MQTT.QoS = cfg.MQTT.QoS
	v.MQTT.Username = cfg.MQTT.Username

	v.Scheduler.TodoDigest = cfg.Scheduler.TodoDigestSpec
	v.Scheduler.Reconcile = cfg.Scheduler.ReconcileSpec
	v.HTTPTimeout = cfg.HTTP.Timeout.Round(time.Millisecond).String()
	return v
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	v := newConfigView(ctx.Config, config.LoadDefaultRegion())
	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(v)
	}

	orNone := func(s string) string {
		if s == "" {
			return "(none)"
		}
		return s
	}

	cli := ctx.CLIFormatter()
	cli.PrintKeyValue("Database", v.Database)

	cli.Title("Default location")
	cli.PrintKeyValue("Coordinates", output.FormatCoordinate(v.DefaultRegion.Longitude, v.DefaultRegion.Latitude))
	cli.PrintKeyValue("Radius", fmt.Sprintf("%gm", v.DefaultRegion.Radius))

	cli.Title("Reminder")
	cli.PrintKeyValue("Variant", v.Reminder.Variant)
	if v.Reminder.Variant == config.VariantAlert {
		cli.PrintKeyValue("Pulse", v.Reminder.AlertPulse)
		cli.PrintKeyValue("Interval", v.Reminder.AlertInterval)
	}

	cli.Title("MQTT")
	cli.PrintKeyValue("Broker", orNone(v.MQTT.Broker))
	cli.PrintKeyValue("Topic", v.MQTT.Topic)

	cli.Title("Scheduler")
	cli.PrintKeyValue("Todo digest", orNone(v.Scheduler.TodoDigest))
	cli.PrintKeyValue("Reconcile", orNone(v.Scheduler.Reconcile))
	return nil
}
