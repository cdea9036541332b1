// Package model defines the domain models for violet.
package model

// Model is the interface that all database models must implement.
type Model interface {
	// SetKey sets the database key for this model.
	SetKey(key string)
	// GetKey returns the database key for this model.
	GetKey() string
}

// Database keys.
const (
	KeyGeofenceConfig = "@violet/geofence-config"
	KeyTodos          = "@violet/todos"

	PrefixGeofenceTask        = "@violet/geofence-task"
	PrefixGeofencePresence    = "@violet/geofence-presence"
	PrefixPermissionGrant     = "@violet/permission"
	PrefixNotificationChannel = "@violet/notification-channel"
	PrefixWebhook             = "webhook"
)
