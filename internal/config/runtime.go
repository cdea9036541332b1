// Package config provides centralized configuration for violet runtime values.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RuntimeConfig holds the tunable runtime values, overridable through
// VIOLET_* environment variables.
type RuntimeConfig struct {
	Daemon    DaemonConfig
	HTTP      HTTPConfig
	Storage   StorageConfig
	Reminder  ReminderConfig
	MQTT      MQTTConfig
	Scheduler SchedulerConfig
}

// DaemonConfig holds daemon-related configuration.
type DaemonConfig struct {
	// StartupWait is how long `daemon start` waits before checking the child.
	StartupWait time.Duration
	// KillTimeout is the grace period before a stopped daemon is killed.
	KillTimeout time.Duration
}

// HTTPConfig holds webhook HTTP client configuration.
type HTTPConfig struct {
	Timeout     time.Duration
	MaxRetries  int
	RetryDelays []time.Duration
}

// StorageConfig controls how a busy database directory is waited for.
type StorageConfig struct {
	// LockRetries is how many extra attempts are made when badger reports
	// the directory is held by another process.
	LockRetries int
	// LockBackoff is the delay before the first retry; it doubles each time.
	LockBackoff time.Duration
}

// Reminder variants.
const (
	VariantNotification = "notification"
	VariantAlert        = "alert"
)

// ReminderConfig selects and tunes the reminder dispatcher.
type ReminderConfig struct {
	// Variant is VariantNotification or VariantAlert.
	Variant string
	// AlertPulse is how long each vibration pulse lasts.
	AlertPulse time.Duration
	// AlertInterval is the pause between pulse starts.
	AlertInterval time.Duration
	// AlertMaxPulses caps the pulses of one alert. 0 means until dismissed.
	AlertMaxPulses int
}

// MQTTConfig configures the daemon's location feed.
type MQTTConfig struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883. Empty disables the feed.
	Broker   string
	ClientID string
	Topic    string
	QoS      byte
	Username string
	Password string
}

// SchedulerConfig holds the daemon's cron specs (with seconds field).
type SchedulerConfig struct {
	TodoDigestSpec string
	ReconcileSpec  string
}

// DefaultRuntimeConfig returns the default runtime configuration.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		Daemon: DaemonConfig{
			StartupWait: 500 * time.Millisecond,
			KillTimeout: 5 * time.Second,
		},
		HTTP: HTTPConfig{
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			RetryDelays: []time.Duration{
				0,
				5 * time.Second,
				30 * time.Second,
			},
		},
		Storage: StorageConfig{
			LockRetries: 5,
			LockBackoff: 100 * time.Millisecond,
		},
		Reminder: ReminderConfig{
			Variant:       VariantNotification,
			AlertPulse:    1000 * time.Millisecond,
			AlertInterval: 7500 * time.Millisecond,
		},
		MQTT: MQTTConfig{
			ClientID: "violet-daemon",
			Topic:    "violet/location/+",
			QoS:      1,
		},
		Scheduler: SchedulerConfig{
			TodoDigestSpec: "0 0 9 * * *",
			ReconcileSpec:  "0 */5 * * * *",
		},
	}
}

// Global holds the runtime configuration for the process.
var Global = initGlobal()

func initGlobal() *RuntimeConfig {
	cfg := DefaultRuntimeConfig()
	cfg.loadFromEnv(os.LookupEnv)
	return cfg
}

func (c *RuntimeConfig) loadFromEnv(lookup func(string) (string, bool)) {
	env := func(name string) string {
		v, _ := lookup("VIOLET_" + name)
		return strings.TrimSpace(v)
	}
	duration := func(name string, dst *time.Duration) {
		if d, err := time.ParseDuration(env(name)); err == nil && d >= 0 {
			*dst = d
		}
	}
	count := func(name string, dst *int) {
		if n, err := strconv.Atoi(env(name)); err == nil && n >= 0 {
			*dst = n
		}
	}
	str := func(name string, dst *string) {
		if v := env(name); v != "" {
			*dst = v
		}
	}

	duration("DAEMON_STARTUP_WAIT", &c.Daemon.StartupWait)
	duration("DAEMON_KILL_TIMEOUT", &c.Daemon.KillTimeout)

	duration("HTTP_TIMEOUT", &c.HTTP.Timeout)
	count("HTTP_MAX_RETRIES", &c.HTTP.MaxRetries)

	count("DB_LOCK_RETRIES", &c.Storage.LockRetries)
	duration("DB_LOCK_BACKOFF", &c.Storage.LockBackoff)

	switch v := strings.ToLower(env("REMINDER_VARIANT")); v {
	case VariantAlert, VariantNotification:
		c.Reminder.Variant = v
	}
	duration("ALERT_PULSE", &c.Reminder.AlertPulse)
	duration("ALERT_INTERVAL", &c.Reminder.AlertInterval)
	count("ALERT_MAX_PULSES", &c.Reminder.AlertMaxPulses)

	str("MQTT_BROKER", &c.MQTT.Broker)
	str("MQTT_CLIENT_ID", &c.MQTT.ClientID)
	str("MQTT_TOPIC", &c.MQTT.Topic)
	str("MQTT_USERNAME", &c.MQTT.Username)
	str("MQTT_PASSWORD", &c.MQTT.Password)
	if n, err := strconv.Atoi(env("MQTT_QOS")); err == nil && n >= 0 && n <= 2 {
		c.MQTT.QoS = byte(n)
	}

	str("TODO_DIGEST_SPEC", &c.Scheduler.TodoDigestSpec)
	str("RECONCILE_SPEC", &c.Scheduler.ReconcileSpec)
}

// Reset resets the configuration to defaults.
func (c *RuntimeConfig) Reset() {
	*c = *DefaultRuntimeConfig()
}
