package model

// Importance levels for a notification channel.
const (
	ImportanceDefault = "default"
	ImportanceHigh    = "high"
	ImportanceMax     = "max"
)

// Lock-screen visibility values.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// NotificationChannel groups notifications that share delivery settings.
type NotificationChannel struct {
	Key                  string  `json:"-"`
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	Importance           string  `json:"importance"`
	VibrationPattern     []int64 `json:"vibrationPattern"` // milliseconds, off/on alternating
	LightColor           string  `json:"lightColor"`
	Sound                string  `json:"sound"`
	LockscreenVisibility string  `json:"lockscreenVisibility"`
}

// SetKey sets the database key for this channel.
func (c *NotificationChannel) SetKey(key string) {
	c.Key = key
}

// GetKey returns the database key for this channel.
func (c *NotificationChannel) GetKey() string {
	return c.Key
}

// GenerateChannelKey returns the database key for a channel id.
func GenerateChannelKey(id string) string {
	return PrefixNotificationChannel + ":" + id
}
