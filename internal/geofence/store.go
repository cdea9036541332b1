package geofence

import (
	"context"

	"github.com/carolin-violet/violet-reminder/internal/model"
	"github.com/carolin-violet/violet-reminder/internal/storage"
)

// Monitor is the platform geofencing facility. A registration survives the
// process that made it.
type Monitor interface {
	// StartMonitoring replaces any regions registered for task.
	StartMonitoring(ctx context.Context, task string, regions []model.GeofenceRegion) error
	StopMonitoring(ctx context.Context, task string) error
	IsMonitoring(ctx context.Context, task string) (bool, error)
}

// Permissions asks the user for location access.
type Permissions interface {
	RequestForeground(ctx context.Context) (model.PermissionStatus, error)
	RequestBackground(ctx context.Context) (model.PermissionStatus, error)
}

// ConfigStore persists the user's punch location override.
type ConfigStore interface {
	Load(ctx context.Context) (*model.UserGeofenceConfig, error)
	Save(ctx context.Context, in model.GeofenceConfigInput) (*model.UserGeofenceConfig, error)
	Clear(ctx context.Context) error
}

type configStore struct {
	p storage.Provider
}

// NewConfigStore returns a ConfigStore that opens the database per call.
func NewConfigStore(p storage.Provider) ConfigStore {
	return &configStore{p: p}
}

func (s *configStore) Load(ctx context.Context) (cfg *model.UserGeofenceConfig, err error) {
	err = s.p.Do(ctx, func(db *storage.DB) error {
		cfg, err = storage.NewGeofenceConfigRepo(db).Load()
		return err
	})
	return cfg, err
}

func (s *configStore) Save(ctx context.Context, in model.GeofenceConfigInput) (cfg *model.UserGeofenceConfig, err error) {
	err = s.p.Do(ctx, func(db *storage.DB) error {
		cfg, err = storage.NewGeofenceConfigRepo(db).Save(in)
		return err
	})
	return cfg, err
}

func (s *configStore) Clear(ctx context.Context) error {
	return s.p.Do(ctx, func(db *storage.DB) error {
		return storage.NewGeofenceConfigRepo(db).Clear()
	})
}
