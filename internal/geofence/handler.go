package geofence

import (
	"context"

	"github.com/carolin-violet/violet-reminder/internal/logging"
	"github.com/carolin-violet/violet-reminder/internal/model"
	"github.com/carolin-violet/violet-reminder/internal/reminder"
)

// RegionEvent is the payload of a region transition.
type RegionEvent struct {
	Type   model.GeofenceEventType
	Region model.GeofenceRegion
}

// TaskEvent is what the monitor delivers to a background task: either an
// error or a payload, possibly neither.
type TaskEvent struct {
	Data *RegionEvent
	Err  error
}

// EventHandler turns region events into reminders. It keeps no state
// between events.
type EventHandler struct {
	dispatcher reminder.Dispatcher
}

// NewEventHandler creates a handler dispatching through d.
func NewEventHandler(d reminder.Dispatcher) *EventHandler {
	return &EventHandler{dispatcher: d}
}

// Handle dispatches one reminder for an enter or exit event. Errors are
// logged; empty and unknown events are ignored.
func (h *EventHandler) Handle(ctx context.Context, ev *TaskEvent) {
	if ev == nil {
		return
	}
	if ev.Err != nil {
		logging.ErrorContext(ctx, "geofence task error",
			logging.KeyTask, model.GeofenceTaskName,
			logging.KeyError, ev.Err,
		)
		return
	}
	if ev.Data == nil {
		return
	}

	var t reminder.Type
	switch ev.Data.Type {
	case model.GeofenceEnter:
		t = reminder.TypeEnter
	case model.GeofenceExit:
		t = reminder.TypeExit
	default:
		logging.DebugContext(ctx, "ignoring geofence event", logging.KeyEvent, ev.Data.Type.String())
		return
	}

	logging.InfoContext(ctx, "geofence event",
		logging.KeyEvent, ev.Data.Type.String(),
		logging.KeyRegion, ev.Data.Region.Identifier,
	)
	h.dispatcher.Dispatch(ctx, t)
}

// Task adapts h to a TaskFunc.
func (h *EventHandler) Task() TaskFunc {
	return h.Handle
}
