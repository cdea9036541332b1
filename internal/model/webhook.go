package model

import (
	"regexp"
	"slices"
	"strings"
	"time"
)

// Webhook type constants.
const (
	WebhookTypeDiscord = "discord"
	WebhookTypeSlack   = "slack"
	WebhookTypeGeneric = "generic"
)

// Webhook is a remote sink that receives every scheduled notification.
type Webhook struct {
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	URL       string    `json:"url"`
	Enabled   bool      `json:"enabled"`
	Template  string    `json:"template,omitempty"` // generic webhooks only
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// SetKey sets the database key for this webhook.
func (w *Webhook) SetKey(key string) {
	w.Key = key
}

// GetKey returns the database key for this webhook.
func (w *Webhook) GetKey() string {
	return w.Key
}

// GenerateWebhookKey generates a database key for a webhook.
func GenerateWebhookKey(name string) string {
	return PrefixWebhook + ":" + name
}

// NewWebhook creates a new enabled webhook.
func NewWebhook(name, webhookType, url string) *Webhook {
	return &Webhook{
		Key:       GenerateWebhookKey(name),
		Name:      name,
		Type:      webhookType,
		URL:       url,
		Enabled:   true,
		CreatedAt: time.Now(),
	}
}

// ValidWebhookTypes returns the list of valid webhook types.
func ValidWebhookTypes() []string {
	return []string{WebhookTypeDiscord, WebhookTypeSlack, WebhookTypeGeneric}
}

// IsValidWebhookType checks if a type is valid.
func IsValidWebhookType(t string) bool {
	return slices.Contains(ValidWebhookTypes(), t)
}

var webhookNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// IsValidWebhookName checks a name is 1-50 characters of letters, digits, dash or underscore.
func IsValidWebhookName(name string) bool {
	if len(name) == 0 || len(name) > 50 {
		return false
	}
	return webhookNameRegex.MatchString(name)
}

// DetectWebhookType guesses the webhook type from its URL.
func DetectWebhookType(url string) string {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "discord.com/api/webhooks"):
		return WebhookTypeDiscord
	case strings.Contains(lower, "hooks.slack.com"):
		return WebhookTypeSlack
	default:
		return WebhookTypeGeneric
	}
}
