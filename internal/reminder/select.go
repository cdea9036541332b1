package reminder

import (
	"strings"

	"github.com/carolin-violet/violet-reminder/internal/config"
)

// Select returns the dispatcher for the configured variant. The alert
// variant needs a prompter; without one it falls back to notifications.
func Select(cfg config.ReminderConfig, n Notifier, v Vibrator, p Prompter) Dispatcher {
	if strings.EqualFold(cfg.Variant, config.VariantAlert) && p != nil && v != nil {
		return NewAlertDispatcher(v, p, AlertConfigFrom(cfg))
	}
	return NewNotificationDispatcher(n)
}
