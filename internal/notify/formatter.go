// Package notify delivers scheduled notifications to the terminal and to
// webhooks.
package notify

import (
	"sort"

	"github.com/carolin-violet/violet-reminder/internal/model"
)

// Formatter formats notifications for a specific webhook type.
type Formatter interface {
	// Format converts a notification into the webhook-specific payload.
	Format(n *model.Notification) ([]byte, error)

	// ContentType returns the HTTP Content-Type for the payload.
	ContentType() string
}

// GetFormatter returns the appropriate formatter for a webhook type.
func GetFormatter(webhookType string) Formatter {
	switch webhookType {
	case model.WebhookTypeDiscord:
		return &DiscordFormatter{}
	case model.WebhookTypeSlack:
		return &SlackFormatter{}
	default:
		return &GenericFormatter{}
	}
}

// formatterFor returns the formatter for a stored webhook, honouring a
// generic webhook's template.
func formatterFor(wh *model.Webhook) Formatter {
	if wh.Type == model.WebhookTypeGeneric && wh.Template != "" {
		return NewGenericFormatter(wh.Template)
	}
	return GetFormatter(wh.Type)
}

func colorOf(n *model.Notification) int {
	if n.Color == 0 {
		return model.DefaultColorForType(n.Type)
	}
	return n.Color
}

// sortedFields returns field names in a stable order.
func sortedFields(fields map[string]string) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

const footer = "violet"
