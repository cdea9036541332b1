// Package local implements the geofencing platform on top of the local
// database: registrations, permission grants and a position tracker that
// turns location fixes into region events.
package local

import (
	"context"
	"fmt"
	"time"

	"github.com/carolin-violet/violet-reminder/internal/geofence"
	"github.com/carolin-violet/violet-reminder/internal/logging"
	"github.com/carolin-violet/violet-reminder/internal/model"
	"github.com/carolin-violet/violet-reminder/internal/storage"
)

// Monitor keeps geofence registrations in the database, where both the CLI
// and the daemon see them.
type Monitor struct {
	store storage.Provider
	now   func() time.Time
}

// NewMonitor creates a Monitor.
func NewMonitor(store storage.Provider) *Monitor {
	return &Monitor{store: store, now: time.Now}
}

var _ geofence.Monitor = (*Monitor)(nil)

// StartMonitoring replaces the regions registered for task. The presence
// state is reset, so the next fix inside a region reports an enter.
func (m *Monitor) StartMonitoring(ctx context.Context, task string, regions []model.GeofenceRegion) error {
	if len(regions) == 0 {
		return fmt.Errorf("no regions to monitor for %q", task)
	}
	for _, r := range regions {
		if r.Identifier == "" {
			return fmt.Errorf("region without identifier for %q", task)
		}
	}
	return m.store.Do(ctx, func(db *storage.DB) error {
		_, err := storage.NewRegistrationRepo(db).Replace(task, regions, m.now())
		return err
	})
}

// StopMonitoring removes the registration for task. Stopping a task that
// is not registered succeeds.
func (m *Monitor) StopMonitoring(ctx context.Context, task string) error {
	return m.store.Do(ctx, func(db *storage.DB) error {
		return storage.NewRegistrationRepo(db).Remove(task)
	})
}

// IsMonitoring reports whether task has a registration.
func (m *Monitor) IsMonitoring(ctx context.Context, task string) (bool, error) {
	reg, err := m.Registration(ctx, task)
	return reg != nil, err
}

// Registration returns the registration for task, or nil.
func (m *Monitor) Registration(ctx context.Context, task string) (reg *model.MonitorRegistration, err error) {
	err = m.store.Do(ctx, func(db *storage.DB) error {
		reg, err = storage.NewRegistrationRepo(db).Get(task)
		return err
	})
	return reg, err
}

// Simulate delivers a synthetic event for the first region registered under
// task, as if the device had crossed its boundary.
func (m *Monitor) Simulate(ctx context.Context, tasks *geofence.TaskRegistry, task string, typ model.GeofenceEventType) (*model.GeofenceRegion, error) {
	reg, err := m.Registration(ctx, task)
	if err != nil {
		return nil, err
	}
	if reg == nil || len(reg.Regions) == 0 {
		return nil, fmt.Errorf("geofence task %q is not monitoring any region", task)
	}
	region := reg.Regions[0]
	logging.InfoContext(ctx, "simulating geofence event",
		logging.KeyTask, task,
		logging.KeyEvent, typ.String(),
		logging.KeyRegion, region.Identifier,
	)
	if !tasks.Deliver(ctx, task, &geofence.TaskEvent{Data: &geofence.RegionEvent{Type: typ, Region: region}}) {
		return &region, fmt.Errorf("no task defined for %q", task)
	}
	return &region, nil
}
