package local

import (
	"context"
	"sync"

	"github.com/carolin-violet/violet-reminder/internal/geofence"
	"github.com/carolin-violet/violet-reminder/internal/logging"
	"github.com/carolin-violet/violet-reminder/internal/model"
	"github.com/carolin-violet/violet-reminder/internal/storage"
)

// Transition is a boundary crossing detected by the tracker.
type Transition struct {
	Task   string
	Type   model.GeofenceEventType
	Region model.GeofenceRegion
}

// Tracker compares location fixes against the registered regions and
// delivers enter and exit events to the task registry.
type Tracker struct {
	store storage.Provider
	tasks *geofence.TaskRegistry
	mu    sync.Mutex
}

// NewTracker creates a tracker delivering to tasks.
func NewTracker(store storage.Provider, tasks *geofence.TaskRegistry) *Tracker {
	return &Tracker{store: store, tasks: tasks}
}

// Process applies one fix. A region seen for the first time with the fix
// inside reports an enter; a first fix outside only records the state.
// Fixes older than the last processed one are ignored.
func (t *Tracker) Process(ctx context.Context, fix model.LocationFix) ([]Transition, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var transitions []Transition
	err := t.store.Do(ctx, func(db *storage.DB) error {
		repo := storage.NewRegistrationRepo(db)
		regs, err := repo.List()
		if err != nil {
			return err
		}
		for _, reg := range regs {
			presence, err := repo.Presence(reg.TaskName)
			if err != nil {
				return err
			}
			if presence.LastFix != nil && fix.Timestamp.Before(presence.LastFix.Timestamp) {
				logging.DebugContext(ctx, "ignoring stale fix", logging.KeyTask, reg.TaskName)
				continue
			}
			transitions = append(transitions, crossings(reg, presence, fix)...)
			f := fix
			presence.LastFix = &f
			if err := repo.SavePresence(presence); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Delivery happens with the database released; handlers may open it.
	for _, tr := range transitions {
		t.tasks.Deliver(ctx, tr.Task, &geofence.TaskEvent{
			Data: &geofence.RegionEvent{Type: tr.Type, Region: tr.Region},
		})
	}
	return transitions, nil
}

func crossings(reg *model.MonitorRegistration, presence *model.RegionPresence, fix model.LocationFix) []Transition {
	var out []Transition
	for _, region := range reg.Regions {
		inside := geofence.Contains(region, fix)
		was, known := presence.Inside[region.Identifier]
		presence.Inside[region.Identifier] = inside

		var typ model.GeofenceEventType
		switch {
		case inside && (!known || !was):
			if !region.NotifyOnEnter {
				continue
			}
			typ = model.GeofenceEnter
		case !inside && known && was:
			if !region.NotifyOnExit {
				continue
			}
			typ = model.GeofenceExit
		default:
			continue
		}
		out = append(out, Transition{Task: reg.TaskName, Type: typ, Region: region})
	}
	return out
}
