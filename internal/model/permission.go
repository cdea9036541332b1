package model

import "time"

// PermissionStatus is the answer to a permission request.
type PermissionStatus string

const (
	PermissionGranted      PermissionStatus = "granted"
	PermissionDenied       PermissionStatus = "denied"
	PermissionUndetermined PermissionStatus = "undetermined"
)

// Granted reports whether s is PermissionGranted.
func (s PermissionStatus) Granted() bool {
	return s == PermissionGranted
}

// PermissionGrant is the persisted answer for one permission scope.
type PermissionGrant struct {
	Key       string           `json:"-"`
	Scope     string           `json:"scope"`
	Status    PermissionStatus `json:"status"`
	DecidedAt time.Time        `json:"decidedAt"`
}

// SetKey sets the database key for this grant.
func (g *PermissionGrant) SetKey(key string) {
	g.Key = key
}

// GetKey returns the database key for this grant.
func (g *PermissionGrant) GetKey() string {
	return g.Key
}

// GeneratePermissionKey returns the database key for a scope.
func GeneratePermissionKey(scope string) string {
	return PrefixPermissionGrant + ":" + scope
}
