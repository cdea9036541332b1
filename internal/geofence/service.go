// Package geofence registers the punch region with the platform monitor and
// turns region events into reminders.
package geofence

import (
	"context"
	"sync"

	errs "github.com/carolin-violet/violet-reminder/internal/errors"
	"github.com/carolin-violet/violet-reminder/internal/logging"
	"github.com/carolin-violet/violet-reminder/internal/model"
	"github.com/carolin-violet/violet-reminder/internal/validate"
)

// State is whether monitoring is believed to be running.
type State int

const (
	Inactive State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "inactive"
}

// RegionSource says where the effective region came from.
type RegionSource string

const (
	SourceOverride RegionSource = "override"
	SourceDefault  RegionSource = "default"
)

// LocationInput is a location change. Nil fields keep their current value.
// An empty Address clears it.
type LocationInput struct {
	Longitude *float64
	Latitude  *float64
	Address   *string
	Radius    *string
}

// Service enables and disables punch monitoring and manages the location
// override.
type Service struct {
	monitor  Monitor
	perms    Permissions
	store    ConfigStore
	fallback model.GeofenceRegion

	// opMu serializes operations; mu guards state.
	opMu  sync.Mutex
	mu    sync.RWMutex
	state State
}

// NewService creates a Service. fallback is used when there is no override.
func NewService(m Monitor, p Permissions, store ConfigStore, fallback model.GeofenceRegion) *Service {
	return &Service{
		monitor:  m,
		perms:    p,
		store:    store,
		fallback: fallback,
		state:    Inactive,
	}
}

// State returns the current state.
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Service) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Enable asks for foreground then background location permission and
// registers the effective region under model.GeofenceTaskName.
func (s *Service) Enable(ctx context.Context) (*model.GeofenceRegion, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	fg, err := s.perms.RequestForeground(ctx)
	if err != nil {
		return nil, registrationErr(errs.OpRegister, err)
	}
	if !fg.Granted() {
		return nil, errs.NewPermissionDenied(errs.ScopeForeground)
	}

	bg, err := s.perms.RequestBackground(ctx)
	if err != nil {
		return nil, registrationErr(errs.OpRegister, err)
	}
	if !bg.Granted() {
		return nil, errs.NewPermissionDenied(errs.ScopeBackground)
	}

	region, _, err := s.effectiveRegion(ctx)
	if err != nil {
		return nil, registrationErr(errs.OpRegister, err)
	}
	if err := s.register(ctx, region); err != nil {
		return nil, err
	}
	return &region, nil
}

func (s *Service) register(ctx context.Context, region model.GeofenceRegion) error {
	if err := s.monitor.StartMonitoring(ctx, model.GeofenceTaskName, []model.GeofenceRegion{region}); err != nil {
		return registrationErr(errs.OpRegister, err)
	}
	s.setState(Active)
	logging.InfoContext(ctx, "geofence monitoring started",
		logging.KeyTask, model.GeofenceTaskName,
		logging.KeyRegion, region.String(),
	)
	return nil
}

// Disable stops monitoring. On failure the state is left as it was.
func (s *Service) Disable(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.monitor.StopMonitoring(ctx, model.GeofenceTaskName); err != nil {
		return registrationErr(errs.OpDeregister, err)
	}
	s.setState(Inactive)
	logging.InfoContext(ctx, "geofence monitoring stopped", logging.KeyTask, model.GeofenceTaskName)
	return nil
}

// Reconcile adopts the monitor's view of whether the task is registered.
func (s *Service) Reconcile(ctx context.Context) (State, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	ok, err := s.monitor.IsMonitoring(ctx, model.GeofenceTaskName)
	if err != nil {
		return s.State(), err
	}
	st := Inactive
	if ok {
		st = Active
	}
	s.setState(st)
	return st, nil
}

// EffectiveRegion returns the region Enable would register: the override as
// a whole if there is one, else the default.
func (s *Service) EffectiveRegion(ctx context.Context) (model.GeofenceRegion, RegionSource, error) {
	return s.effectiveRegion(ctx)
}

func (s *Service) effectiveRegion(ctx context.Context) (model.GeofenceRegion, RegionSource, error) {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return model.GeofenceRegion{}, "", err
	}
	if cfg != nil {
		return cfg.Region(), SourceOverride, nil
	}
	return model.NewPunchRegion(s.fallback.Longitude, s.fallback.Latitude, s.fallback.Radius), SourceDefault, nil
}

// SaveLocation merges in with the current location, validates and saves it.
// Fields left nil come from the override, or from the default when there is
// none. While Active the new region is registered right away.
func (s *Service) SaveLocation(ctx context.Context, in LocationInput) (*model.UserGeofenceConfig, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	current, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	merged := model.GeofenceConfigInput{
		Longitude: s.fallback.Longitude,
		Latitude:  s.fallback.Latitude,
		Radius:    s.fallback.Radius,
	}
	if current != nil {
		merged.Longitude = current.Longitude
		merged.Latitude = current.Latitude
		merged.Address = current.Address
		merged.Radius = current.Radius
	}

	if in.Longitude != nil {
		merged.Longitude = *in.Longitude
	}
	if in.Latitude != nil {
		merged.Latitude = *in.Latitude
	}
	if in.Address != nil {
		addr := validate.SanitizeAddress(*in.Address)
		if err := validate.Address(addr); err != nil {
			return nil, err
		}
		merged.Address = &addr
		if addr == "" {
			merged.Address = nil
		}
	}
	if in.Radius != nil {
		r, err := validate.Radius(*in.Radius)
		if err != nil {
			return nil, err
		}
		merged.Radius = r
	}
	if err := validate.Coordinate(merged.Longitude, merged.Latitude); err != nil {
		return nil, err
	}

	saved, err := s.store.Save(ctx, merged)
	if err != nil {
		return nil, err
	}
	logging.DebugContext(ctx, "punch location saved", logging.KeyRegion, saved.Region().String())

	if s.State() == Active {
		if err := s.register(ctx, saved.Region()); err != nil {
			return saved, err
		}
	}
	return saved, nil
}

// ResetLocation removes the override. While Active the default region is
// registered right away.
func (s *Service) ResetLocation(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	if s.State() != Active {
		return nil
	}
	region, _, err := s.effectiveRegion(ctx)
	if err != nil {
		return registrationErr(errs.OpRegister, err)
	}
	return s.register(ctx, region)
}

// registrationErr wraps err unless it already is a registration or
// permission failure.
func registrationErr(op errs.RegistrationOp, err error) error {
	if _, ok := errs.AsRegistrationError(err); ok {
		return err
	}
	if _, ok := errs.AsPermissionDenied(err); ok {
		return err
	}
	return errs.NewRegistrationError(op, err)
}
