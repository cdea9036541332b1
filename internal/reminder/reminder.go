// Package reminder tells the user to punch in or out when a region
// transition is reported.
package reminder

import (
	"context"
	"fmt"

	errs "github.com/carolin-violet/violet-reminder/internal/errors"
	"github.com/carolin-violet/violet-reminder/internal/logging"
	"github.com/carolin-violet/violet-reminder/internal/model"
)

// Type is the transition a reminder is about.
type Type string

const (
	TypeEnter Type = "enter"
	TypeExit  Type = "exit"
)

// Title is shown on every punch reminder.
const Title = "打卡提醒"

// Message is the text of one reminder.
type Message struct {
	Title string
	Body  string
}

// Compose returns the reminder text for t.
func Compose(t Type) Message {
	body := "您已离开打卡地点，请打卡"
	if t == TypeEnter {
		body = "您已进入打卡地点，请打卡"
	}
	return Message{Title: Title, Body: body}
}

// NotificationType maps t to the notification type used by sinks.
func (t Type) NotificationType() model.NotificationType {
	if t == TypeEnter {
		return model.NotifyPunchEnter
	}
	return model.NotifyPunchExit
}

// Dispatcher delivers a reminder. Implementations absorb their own failures.
type Dispatcher interface {
	Dispatch(ctx context.Context, t Type)
}

// recoverDispatch logs a panic raised while dispatching instead of letting
// it escape. Use it as a deferred call.
func recoverDispatch(ctx context.Context, variant string, t Type) {
	if r := recover(); r != nil {
		logging.ErrorContext(ctx, "reminder dispatch panicked",
			logging.KeyReminderType, string(t),
			"variant", variant,
			logging.KeyError, errs.Wrap(errs.ErrReminderDispatch, fmt.Sprint(r)),
		)
	}
}

func logDispatchError(ctx context.Context, variant string, t Type, step string, err error) {
	logging.ErrorContext(ctx, "reminder dispatch failed",
		logging.KeyReminderType, string(t),
		logging.KeyOperation, step,
		"variant", variant,
		logging.KeyError, errs.Wrap(errs.ErrReminderDispatch, err.Error()),
	)
}
