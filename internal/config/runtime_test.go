package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/carolin-violet/violet-reminder/internal/model"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

// ===== RuntimeConfig Tests =====

func TestDefaultRuntimeConfig(t *testing.T) {
	cfg := DefaultRuntimeConfig()

	assert.Equal(t, 500*time.Millisecond, cfg.Daemon.StartupWait)
	assert.Equal(t, 5*time.Second, cfg.Daemon.KillTimeout)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 3, cfg.HTTP.MaxRetries)
	assert.Len(t, cfg.HTTP.RetryDelays, 3)
	assert.Equal(t, 5, cfg.Storage.LockRetries)

	assert.Equal(t, VariantNotification, cfg.Reminder.Variant)
	assert.Equal(t, time.Second, cfg.Reminder.AlertPulse)
	assert.Equal(t, 7500*time.Millisecond, cfg.Reminder.AlertInterval)
	assert.Zero(t, cfg.Reminder.AlertMaxPulses)

	assert.Empty(t, cfg.MQTT.Broker)
	assert.Equal(t, "violet/location/+", cfg.MQTT.Topic)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
}

func TestLoadFromEnv(t *testing.T) {
	t.Run("overrides", func(t *testing.T) {
		cfg := DefaultRuntimeConfig()
		cfg.loadFromEnv(envMap(map[string]string{
			"VIOLET_DAEMON_KILL_TIMEOUT": "2s",
			"VIOLET_HTTP_MAX_RETRIES":    "0",
			"VIOLET_REMINDER_VARIANT":    "ALERT",
			"VIOLET_ALERT_MAX_PULSES":    "4",
			"VIOLET_MQTT_BROKER":         "tcp://broker:1883",
			"VIOLET_MQTT_QOS":            "2",
			"VIOLET_TODO_DIGEST_SPEC":    "0 30 8 * * *",
		}))

		assert.Equal(t, 2*time.Second, cfg.Daemon.KillTimeout)
		assert.Equal(t, 0, cfg.HTTP.MaxRetries)
		assert.Equal(t, VariantAlert, cfg.Reminder.Variant)
		assert.Equal(t, 4, cfg.Reminder.AlertMaxPulses)
		assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
		assert.Equal(t, byte(2), cfg.MQTT.QoS)
		assert.Equal(t, "0 30 8 * * *", cfg.Scheduler.TodoDigestSpec)
	})

	t.Run("invalid_values_ignored", func(t *testing.T) {
		cfg := DefaultRuntimeConfig()
		cfg.loadFromEnv(envMap(map[string]string{
			"VIOLET_HTTP_TIMEOUT":     "soon",
			"VIOLET_HTTP_MAX_RETRIES": "-1",
			"VIOLET_REMINDER_VARIANT": "sms",
			"VIOLET_MQTT_QOS":         "3",
		}))

		assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
		assert.Equal(t, 3, cfg.HTTP.MaxRetries)
		assert.Equal(t, VariantNotification, cfg.Reminder.Variant)
		assert.Equal(t, byte(1), cfg.MQTT.QoS)
	})
}

func TestConfigReset(t *testing.T) {
	cfg := DefaultRuntimeConfig()
	cfg.HTTP.Timeout = time.Second
	cfg.Reminder.Variant = VariantAlert

	cfg.Reset()
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, VariantNotification, cfg.Reminder.Variant)
}

func TestGlobalConfigExists(t *testing.T) {
	assert.NotNil(t, Global)
}

// ===== DefaultRegion Tests =====

func TestParseDefaultRegion(t *testing.T) {
	t.Run("fallbacks", func(t *testing.T) {
		d := ParseDefaultRegion(envMap(nil))

		assert.Equal(t, model.PunchRegionID, d.Identifier)
		assert.Equal(t, FallbackLongitude, d.Longitude)
		assert.Equal(t, FallbackLatitude, d.Latitude)
		assert.Equal(t, model.MinRadius, d.Radius)
	})

	t.Run("env_values", func(t *testing.T) {
		d := ParseDefaultRegion(envMap(map[string]string{
			"VIOLET_GEOFENCE_LONGITUDE": "121.4737",
			"VIOLET_GEOFENCE_LATITUDE":  " 31.2304",
			"VIOLET_GEOFENCE_RADIUS":    "250",
		}))

		assert.Equal(t, 121.4737, d.Longitude)
		assert.Equal(t, 31.2304, d.Latitude)
		assert.Equal(t, 250.0, d.Radius)
	})

	t.Run("radius_clamped", func(t *testing.T) {
		d := ParseDefaultRegion(envMap(map[string]string{"VIOLET_GEOFENCE_RADIUS": "30"}))
		assert.Equal(t, model.MinRadius, d.Radius)
	})

	t.Run("garbage_falls_back", func(t *testing.T) {
		d := ParseDefaultRegion(envMap(map[string]string{
			"VIOLET_GEOFENCE_LONGITUDE": "east",
			"VIOLET_GEOFENCE_LATITUDE":  "NaN",
		}))
		assert.Equal(t, FallbackLongitude, d.Longitude)
		assert.Equal(t, FallbackLatitude, d.Latitude)
	})

	t.Run("numeric_prefix", func(t *testing.T) {
		d := ParseDefaultRegion(envMap(map[string]string{"VIOLET_GEOFENCE_RADIUS": "180m"}))
		assert.Equal(t, 180.0, d.Radius)
	})

	t.Run("region_conversion", func(t *testing.T) {
		r := ParseDefaultRegion(envMap(nil)).Region()
		assert.Equal(t, model.PunchRegionID, r.Identifier)
		assert.True(t, r.NotifyOnEnter)
		assert.True(t, r.NotifyOnExit)
	})
}

func TestLoadDefaultRegionIsStable(t *testing.T) {
	first := LoadDefaultRegion()
	assert.Equal(t, first, LoadDefaultRegion())
	assert.GreaterOrEqual(t, first.Radius, model.MinRadius)
}
