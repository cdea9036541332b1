package geofence

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carolin-violet/violet-reminder/internal/config"
	errs "github.com/carolin-violet/violet-reminder/internal/errors"
	"github.com/carolin-violet/violet-reminder/internal/model"
	"github.com/carolin-violet/violet-reminder/internal/storage"
)

// ===== fakes =====

type startCall struct {
	task    string
	regions []model.GeofenceRegion
}

type mockMonitor struct {
	mu          sync.Mutex
	startFn     func(ctx context.Context, task string, regions []model.GeofenceRegion) error
	stopFn      func(ctx context.Context, task string) error
	isMonitorFn func(ctx context.Context, task string) (bool, error)
	startCalls  []startCall
	stopCalls   []string
}

func (m *mockMonitor) StartMonitoring(ctx context.Context, task string, regions []model.GeofenceRegion) error {
	m.mu.Lock()
	m.startCalls = append(m.startCalls, startCall{task: task, regions: regions})
	m.mu.Unlock()
	if m.startFn != nil {
		return m.startFn(ctx, task, regions)
	}
	return nil
}

func (m *mockMonitor) StopMonitoring(ctx context.Context, task string) error {
	m.mu.Lock()
	m.stopCalls = append(m.stopCalls, task)
	m.mu.Unlock()
	if m.stopFn != nil {
		return m.stopFn(ctx, task)
	}
	return nil
}

func (m *mockMonitor) IsMonitoring(ctx context.Context, task string) (bool, error) {
	if m.isMonitorFn != nil {
		return m.isMonitorFn(ctx, task)
	}
	return false, nil
}

type mockPermissions struct {
	foregroundFn func(ctx context.Context) (model.PermissionStatus, error)
	backgroundFn func(ctx context.Context) (model.PermissionStatus, error)
	calls        []string
}

func (m *mockPermissions) RequestForeground(ctx context.Context) (model.PermissionStatus, error) {
	m.calls = append(m.calls, "foreground")
	if m.foregroundFn != nil {
		return m.foregroundFn(ctx)
	}
	return model.PermissionGranted, nil
}

func (m *mockPermissions) RequestBackground(ctx context.Context) (model.PermissionStatus, error) {
	m.calls = append(m.calls, "background")
	if m.backgroundFn != nil {
		return m.backgroundFn(ctx)
	}
	return model.PermissionGranted, nil
}

func status(s model.PermissionStatus) func(context.Context) (model.PermissionStatus, error) {
	return func(context.Context) (model.PermissionStatus, error) { return s, nil }
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func defaultRegion() model.GeofenceRegion {
	return config.ParseDefaultRegion(func(string) (string, bool) { return "", false }).Region()
}

type fixture struct {
	svc     *Service
	monitor *mockMonitor
	perms   *mockPermissions
	store   ConfigStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.Open(storage.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		monitor: &mockMonitor{},
		perms:   &mockPermissions{},
		store:   NewConfigStore(storage.Static(db)),
	}
	f.svc = NewService(f.monitor, f.perms, f.store, defaultRegion())
	return f
}

func (f *fixture) onlyRegion(t *testing.T) model.GeofenceRegion {
	t.Helper()
	require.NotEmpty(t, f.monitor.startCalls)
	last := f.monitor.startCalls[len(f.monitor.startCalls)-1]
	assert.Equal(t, model.GeofenceTaskName, last.task)
	require.Len(t, last.regions, 1)
	return last.regions[0]
}

// ===== Enable =====

func TestEnableRegistersDefaultRegion(t *testing.T) {
	f := newFixture(t)

	region, err := f.svc.Enable(context.Background())
	require.NoError(t, err)

	got := f.onlyRegion(t)
	assert.Equal(t, *region, got)
	assert.Equal(t, model.GeofenceRegion{
		Identifier:    "punch-office",
		Longitude:     118.810202,
		Latitude:      31.912279,
		Radius:        100,
		NotifyOnEnter: true,
		NotifyOnExit:  true,
	}, got)
	assert.Equal(t, Active, f.svc.State())
	assert.Equal(t, []string{"foreground", "background"}, f.perms.calls)
}

func TestEnableUsesOverrideWholesale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.Save(ctx, model.GeofenceConfigInput{
		Longitude: 120.0, Latitude: 30.0, Address: strPtr("Office"), Radius: 150,
	})
	require.NoError(t, err)

	_, err = f.svc.Enable(ctx)
	require.NoError(t, err)

	got := f.onlyRegion(t)
	assert.Equal(t, "punch-office", got.Identifier)
	assert.Equal(t, 120.0, got.Longitude)
	assert.Equal(t, 30.0, got.Latitude)
	assert.Equal(t, 150.0, got.Radius)
}

func TestEnableClampsStoredRadius(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// The store keeps what it is given; the floor applies at registration.
	_, err := f.store.Save(ctx, model.GeofenceConfigInput{Longitude: 1, Latitude: 2, Radius: 20})
	require.NoError(t, err)

	_, err = f.svc.Enable(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.MinRadius, f.onlyRegion(t).Radius)
}

func TestEnablePermissionDenied(t *testing.T) {
	tests := []struct {
		name      string
		fg, bg    model.PermissionStatus
		wantScope errs.PermissionScope
		wantCalls []string
	}{
		{"foreground_denied", model.PermissionDenied, model.PermissionGranted, errs.ScopeForeground, []string{"foreground"}},
		{"foreground_undetermined", model.PermissionUndetermined, model.PermissionGranted, errs.ScopeForeground, []string{"foreground"}},
		{"background_denied", model.PermissionGranted, model.PermissionDenied, errs.ScopeBackground, []string{"foreground", "background"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.perms.foregroundFn = status(tc.fg)
			f.perms.backgroundFn = status(tc.bg)

			region, err := f.svc.Enable(context.Background())
			assert.Nil(t, region)
			require.Error(t, err)
			assert.ErrorIs(t, err, errs.ErrPermissionDenied)

			pe, ok := errs.AsPermissionDenied(err)
			require.True(t, ok)
			assert.Equal(t, tc.wantScope, pe.Scope)

			assert.Empty(t, f.monitor.startCalls)
			assert.Equal(t, tc.wantCalls, f.perms.calls)
			assert.Equal(t, Inactive, f.svc.State())
		})
	}
}

func TestEnableRegistrationFailure(t *testing.T) {
	t.Run("monitor_error", func(t *testing.T) {
		f := newFixture(t)
		f.monitor.startFn = func(context.Context, string, []model.GeofenceRegion) error {
			return errors.New("location services off")
		}

		_, err := f.svc.Enable(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrRegistrationFailed)

		re, ok := errs.AsRegistrationError(err)
		require.True(t, ok)
		assert.Equal(t, errs.OpRegister, re.Op)
		assert.Equal(t, "启动地理围栏失败: location services off", err.Error())
		assert.Equal(t, Inactive, f.svc.State())
	})

	t.Run("permission_request_error", func(t *testing.T) {
		f := newFixture(t)
		f.perms.foregroundFn = func(context.Context) (model.PermissionStatus, error) {
			return "", errors.New("dialog unavailable")
		}

		_, err := f.svc.Enable(context.Background())
		assert.ErrorIs(t, err, errs.ErrRegistrationFailed)
		assert.Empty(t, f.monitor.startCalls)
	})
}

// ===== Disable / Reconcile =====

func TestDisable(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Enable(context.Background())
		require.NoError(t, err)

		require.NoError(t, f.svc.Disable(context.Background()))
		assert.Equal(t, []string{model.GeofenceTaskName}, f.monitor.stopCalls)
		assert.Equal(t, Inactive, f.svc.State())
	})

	t.Run("failure_keeps_state", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Enable(context.Background())
		require.NoError(t, err)
		f.monitor.stopFn = func(context.Context, string) error { return errors.New("busy") }

		err = f.svc.Disable(context.Background())
		re, ok := errs.AsRegistrationError(err)
		require.True(t, ok)
		assert.Equal(t, errs.OpDeregister, re.Op)
		assert.Equal(t, "关闭地理围栏失败: busy", err.Error())
		assert.Equal(t, Active, f.svc.State())
	})
}

func TestReconcile(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, Inactive, f.svc.State())

	f.monitor.isMonitorFn = func(_ context.Context, task string) (bool, error) {
		return task == model.GeofenceTaskName, nil
	}
	st, err := f.svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Active, st)
	assert.Equal(t, Active, f.svc.State())

	f.monitor.isMonitorFn = func(context.Context, string) (bool, error) {
		return false, errors.New("registry unreadable")
	}
	st, err = f.svc.Reconcile(context.Background())
	assert.Error(t, err)
	assert.Equal(t, Active, st, "state unchanged on error")
}

// ===== SaveLocation / ResetLocation =====

func TestSaveLocationInvalidRadiusLeavesConfig(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before, err := f.store.Save(ctx, model.GeofenceConfigInput{
		Longitude: 120.0, Latitude: 30.0, Address: strPtr("Office"), Radius: 150,
	})
	require.NoError(t, err)

	tests := []struct {
		input string
		kind  errs.RadiusErrorKind
	}{
		{"abc", errs.RadiusNotANumber},
		{"99", errs.RadiusBelowMinimum},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			_, err := f.svc.SaveLocation(ctx, LocationInput{
				Longitude: floatPtr(1), Latitude: floatPtr(2), Radius: strPtr(tc.input),
			})
			require.Error(t, err)
			ie, ok := errs.AsInvalidRadius(err)
			require.True(t, ok)
			assert.Equal(t, tc.kind, ie.Kind)

			after, err := f.store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestSaveLocationMerges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("first_save_starts_from_default", func(t *testing.T) {
		cfg, err := f.svc.SaveLocation(ctx, LocationInput{Address: strPtr("  南京  ")})
		require.NoError(t, err)
		assert.Equal(t, 118.810202, cfg.Longitude)
		assert.Equal(t, 31.912279, cfg.Latitude)
		assert.Equal(t, 100.0, cfg.Radius)
		require.NotNil(t, cfg.Address)
		assert.Equal(t, "南京", *cfg.Address)
	})

	t.Run("picker_keeps_address_and_radius", func(t *testing.T) {
		_, err := f.svc.SaveLocation(ctx, LocationInput{Radius: strPtr("250")})
		require.NoError(t, err)

		cfg, err := f.svc.SaveLocation(ctx, LocationInput{Longitude: floatPtr(120), Latitude: floatPtr(30)})
		require.NoError(t, err)
		assert.Equal(t, 120.0, cfg.Longitude)
		assert.Equal(t, 30.0, cfg.Latitude)
		assert.Equal(t, 250.0, cfg.Radius)
		require.NotNil(t, cfg.Address)
		assert.Equal(t, "南京", *cfg.Address)
	})

	t.Run("empty_address_clears", func(t *testing.T) {
		cfg, err := f.svc.SaveLocation(ctx, LocationInput{Address: strPtr("")})
		require.NoError(t, err)
		assert.Nil(t, cfg.Address)
	})

	t.Run("invalid_coordinate", func(t *testing.T) {
		_, err := f.svc.SaveLocation(ctx, LocationInput{Latitude: floatPtr(91)})
		assert.ErrorIs(t, err, errs.ErrInvalidCoordinate)
	})

	assert.Empty(t, f.monitor.startCalls, "inactive service does not register")
}

func TestSaveLocationReregistersWhenActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Enable(ctx)
	require.NoError(t, err)

	_, err = f.svc.SaveLocation(ctx, LocationInput{
		Longitude: floatPtr(120.0), Latitude: floatPtr(30.0), Address: strPtr("Office"), Radius: strPtr("150"),
	})
	require.NoError(t, err)

	require.Len(t, f.monitor.startCalls, 2)
	got := f.onlyRegion(t)
	assert.Equal(t, 120.0, got.Longitude)
	assert.Equal(t, 30.0, got.Latitude)
	assert.Equal(t, 150.0, got.Radius)

	// A subsequent enable registers the override, not the default.
	_, err = f.svc.Enable(ctx)
	require.NoError(t, err)
	assert.Equal(t, got, f.onlyRegion(t))
}

func TestResetLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SaveLocation(ctx, LocationInput{Longitude: floatPtr(120), Latitude: floatPtr(30)})
	require.NoError(t, err)
	_, err = f.svc.Enable(ctx)
	require.NoError(t, err)

	require.NoError(t, f.svc.ResetLocation(ctx))

	cfg, err := f.store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, cfg)
	assert.Equal(t, defaultRegion(), f.onlyRegion(t))

	region, source, err := f.svc.EffectiveRegion(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, source)
	assert.Equal(t, defaultRegion(), region)
}

func TestEffectiveRegionSource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, source, err := f.svc.EffectiveRegion(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, source)

	_, err = f.store.Save(ctx, model.GeofenceConfigInput{Longitude: 1, Latitude: 2, Radius: 300})
	require.NoError(t, err)
	region, source, err := f.svc.EffectiveRegion(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceOverride, source)
	assert.Equal(t, 300.0, region.Radius)
}

// ===== Distance =====

func TestDistance(t *testing.T) {
	assert.InDelta(t, 0, Distance(31.9, 118.8, 31.9, 118.8), 1e-9)
	// One degree of latitude is about 111.2 km.
	assert.InDelta(t, 111195, Distance(0, 0, 1, 0), 50)

	region := model.NewPunchRegion(118.810202, 31.912279, 100)
	assert.True(t, Contains(region, model.LocationFix{Latitude: 31.912279, Longitude: 118.810202}))
	assert.True(t, Contains(region, model.LocationFix{Latitude: 31.912279 + 0.0008, Longitude: 118.810202}))
	assert.False(t, Contains(region, model.LocationFix{Latitude: 31.912279 + 0.002, Longitude: 118.810202}))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "active", Active.String())
	assert.Equal(t, "inactive", Inactive.String())
}
