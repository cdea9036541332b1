package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/carolin-violet/violet-reminder/internal/config"
	"github.com/carolin-violet/violet-reminder/internal/logging"
)

// Vibrator produces the attention pulse of an alert.
type Vibrator interface {
	Vibrate(d time.Duration) error
	Cancel() error
}

// Prompter shows a blocking dialog with a single confirm action. It returns
// when the user confirms or dismisses it.
type Prompter interface {
	Confirm(ctx context.Context, title, message string) (bool, error)
}

// AlertConfig controls the pulse loop of an alert.
type AlertConfig struct {
	Pulse    time.Duration
	Interval time.Duration
	// MaxPulses caps the number of pulses; 0 means until the alert closes.
	MaxPulses int
}

// AlertConfigFrom converts the runtime reminder settings.
func AlertConfigFrom(r config.ReminderConfig) AlertConfig {
	return AlertConfig{Pulse: r.AlertPulse, Interval: r.AlertInterval, MaxPulses: r.AlertMaxPulses}
}

// DefaultAlertConfig pulses for one second every 7.5 seconds without a cap.
func DefaultAlertConfig() AlertConfig {
	return AlertConfig{Pulse: time.Second, Interval: 7500 * time.Millisecond}
}

// AlertDispatcher is the interactive variant: it pulses the vibrator and
// shows a confirm dialog; closing the dialog stops the pulses.
type AlertDispatcher struct {
	vibrator Vibrator
	prompter Prompter
	cfg      AlertConfig
}

// NewAlertDispatcher creates an alert dispatcher.
func NewAlertDispatcher(v Vibrator, p Prompter, cfg AlertConfig) *AlertDispatcher {
	defaults := DefaultAlertConfig()
	if cfg.Pulse <= 0 {
		cfg.Pulse = defaults.Pulse
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	return &AlertDispatcher{vibrator: v, prompter: p, cfg: cfg}
}

// Dispatch pulses immediately, then every interval, until the dialog closes.
// It blocks for as long as the dialog is open.
func (d *AlertDispatcher) Dispatch(ctx context.Context, t Type) {
	defer recoverDispatch(ctx, "alert", t)

	msg := Compose(t)
	loopCtx, stopLoop := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.pulse(loopCtx, t)
	}()

	stop := func() {
		stopLoop()
		wg.Wait()
		if err := d.vibrator.Cancel(); err != nil {
			logDispatchError(ctx, "alert", t, "cancel", err)
		}
	}
	defer stop()

	confirmed, err := d.prompter.Confirm(ctx, msg.Title, msg.Body)
	if err != nil {
		logDispatchError(ctx, "alert", t, "prompt", err)
		return
	}
	logging.DebugContext(ctx, "punch alert closed",
		logging.KeyReminderType, string(t),
		"confirmed", confirmed,
	)
}

func (d *AlertDispatcher) pulse(ctx context.Context, t Type) {
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for n := 0; d.cfg.MaxPulses == 0 || n < d.cfg.MaxPulses; n++ {
		if n > 0 {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
		if ctx.Err() != nil {
			return
		}
		if err := d.vibrator.Vibrate(d.cfg.Pulse); err != nil {
			logDispatchError(ctx, "alert", t, "vibrate", err)
		}
	}
}
