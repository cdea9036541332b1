package model

import (
	"fmt"
	"math"
	"time"
)

const (
	// PunchRegionID identifies the single punch region.
	PunchRegionID = "punch-office"
	// GeofenceTaskName is the background task that receives region events.
	GeofenceTaskName = "punch-geofence-task"
	// MinRadius is the smallest radius, in meters, that will be registered.
	MinRadius = 100.0
)

// GeofenceRegion is a circular region handed to the platform monitor.
type GeofenceRegion struct {
	Identifier    string  `json:"identifier"`
	Longitude     float64 `json:"longitude"`
	Latitude      float64 `json:"latitude"`
	Radius        float64 `json:"radius"`
	NotifyOnEnter bool    `json:"notifyOnEnter"`
	NotifyOnExit  bool    `json:"notifyOnExit"`
}

// NewPunchRegion builds the punch region for a point, clamping the radius.
func NewPunchRegion(longitude, latitude, radius float64) GeofenceRegion {
	return GeofenceRegion{
		Identifier:    PunchRegionID,
		Longitude:     longitude,
		Latitude:      latitude,
		Radius:        ClampRadius(radius),
		NotifyOnEnter: true,
		NotifyOnExit:  true,
	}
}

func (r GeofenceRegion) String() string {
	return fmt.Sprintf("%s(%.6f,%.6f r=%.0fm)", r.Identifier, r.Longitude, r.Latitude, r.Radius)
}

// ClampRadius raises radius to MinRadius. NaN and infinities also become MinRadius.
func ClampRadius(radius float64) float64 {
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius < MinRadius {
		return MinRadius
	}
	return radius
}

// UserGeofenceConfig is the user's override of the punch location.
// There is at most one; it is replaced wholesale on every save.
type UserGeofenceConfig struct {
	Key       string  `json:"-"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Address   *string `json:"address"`
	Radius    float64 `json:"radius"`
	UpdatedAt int64   `json:"updatedAt"` // epoch milliseconds
}

// SetKey sets the database key for this config.
func (c *UserGeofenceConfig) SetKey(key string) {
	c.Key = key
}

// GetKey returns the database key for this config.
func (c *UserGeofenceConfig) GetKey() string {
	return c.Key
}

// Updated returns UpdatedAt as a time.
func (c *UserGeofenceConfig) Updated() time.Time {
	return time.UnixMilli(c.UpdatedAt)
}

// AddressOrEmpty returns the address, or "" when it was never resolved.
func (c *UserGeofenceConfig) AddressOrEmpty() string {
	if c.Address == nil {
		return ""
	}
	return *c.Address
}

// Region returns the punch region for this override.
func (c *UserGeofenceConfig) Region() GeofenceRegion {
	return NewPunchRegion(c.Longitude, c.Latitude, c.Radius)
}

// GeofenceConfigInput is what callers supply when saving an override.
// UpdatedAt is always stamped by the store.
type GeofenceConfigInput struct {
	Longitude float64
	Latitude  float64
	Address   *string
	Radius    float64
}

// GeofenceEventType is the kind of region transition. Values match the
// platform's numeric encoding.
type GeofenceEventType int

const (
	GeofenceEnter GeofenceEventType = 1
	GeofenceExit  GeofenceEventType = 2
)

func (t GeofenceEventType) String() string {
	switch t {
	case GeofenceEnter:
		return "enter"
	case GeofenceExit:
		return "exit"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// ParseGeofenceEventType parses "enter" or "exit".
func ParseGeofenceEventType(s string) (GeofenceEventType, error) {
	switch s {
	case "enter":
		return GeofenceEnter, nil
	case "exit":
		return GeofenceExit, nil
	default:
		return 0, fmt.Errorf("unknown geofence event %q (want enter or exit)", s)
	}
}

// LocationFix is one position sample from a location feed.
type LocationFix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"-"`
}
