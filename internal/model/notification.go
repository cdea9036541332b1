package model

import (
	"time"
)

// NotificationType defines the type of notification.
type NotificationType string

// Notification types.
const (
	NotifyPunchEnter NotificationType = "punch_enter"
	NotifyPunchExit  NotificationType = "punch_exit"
	NotifyTodoDigest NotificationType = "todo_digest"
	NotifyTest       NotificationType = "test"
)

// Notification is a message scheduled on a channel and fanned out to sinks.
type Notification struct {
	Type      NotificationType  `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	ChannelID string            `json:"channelId,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Color     int               `json:"color,omitempty"`
}

// NewNotification creates a notification stamped with the current time.
func NewNotification(t NotificationType, title, message string) *Notification {
	return &Notification{
		Type:      t,
		Title:     title,
		Message:   message,
		Fields:    make(map[string]string),
		Timestamp: time.Now(),
		Color:     DefaultColorForType(t),
	}
}

// WithField adds a field to the notification.
func (n *Notification) WithField(key, value string) *Notification {
	if n.Fields == nil {
		n.Fields = make(map[string]string)
	}
	n.Fields[key] = value
	return n
}

// WithChannel sets the channel the notification is posted on.
func (n *Notification) WithChannel(id string) *Notification {
	n.ChannelID = id
	return n
}

// Notification colors as 0xRRGGBB.
const (
	ColorBrand   = 0x7C3AED
	ColorWarning = 0xC9A227
	ColorError   = 0xC94A4A
	ColorInfo    = 0x0D7377
)

// DefaultColorForType returns the embed color for a notification type.
func DefaultColorForType(t NotificationType) int {
	switch t {
	case NotifyPunchEnter, NotifyPunchExit:
		return ColorBrand
	case NotifyTodoDigest:
		return ColorWarning
	default:
		return ColorInfo
	}
}

// TypeLabel returns a human-readable label for the notification type.
func (n *Notification) TypeLabel() string {
	switch n.Type {
	case NotifyPunchEnter:
		return "Arrived"
	case NotifyPunchExit:
		return "Left"
	case NotifyTodoDigest:
		return "Todo Digest"
	case NotifyTest:
		return "Test Notification"
	default:
		return "Notification"
	}
}
