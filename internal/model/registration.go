package model

import "time"

// MonitorRegistration is the persisted set of regions monitored for a task.
type MonitorRegistration struct {
	Key       string           `json:"-"`
	TaskName  string           `json:"taskName"`
	Regions   []GeofenceRegion `json:"regions"`
	StartedAt time.Time        `json:"startedAt"`
}

// SetKey sets the database key for this registration.
func (r *MonitorRegistration) SetKey(key string) {
	r.Key = key
}

// GetKey returns the database key for this registration.
func (r *MonitorRegistration) GetKey() string {
	return r.Key
}

// GenerateRegistrationKey returns the registry key for a task.
func GenerateRegistrationKey(taskName string) string {
	return PrefixGeofenceTask + ":" + taskName
}

// RegionPresence tracks whether the last fix was inside each region of a task.
type RegionPresence struct {
	Key      string          `json:"-"`
	TaskName string          `json:"taskName"`
	Inside   map[string]bool `json:"inside"`
	LastFix  *LocationFix    `json:"lastFix,omitempty"`
}

// SetKey sets the database key for this presence record.
func (p *RegionPresence) SetKey(key string) {
	p.Key = key
}

// GetKey returns the database key for this presence record.
func (p *RegionPresence) GetKey() string {
	return p.Key
}

// GeneratePresenceKey returns the presence key for a task.
func GeneratePresenceKey(taskName string) string {
	return PrefixGeofencePresence + ":" + taskName
}
