package storage

import (
	"bytes"
	"encoding/json"
	"math"
	"time"

	errs "github.com/carolin-violet/violet-reminder/internal/errors"
	"github.com/carolin-violet/violet-reminder/internal/logging"
	"github.com/carolin-violet/violet-reminder/internal/model"
)

// GeofenceConfigRepo persists the single user geofence override.
type GeofenceConfigRepo struct {
	db  *DB
	now func() time.Time
}

// NewGeofenceConfigRepo creates a new geofence config repository.
func NewGeofenceConfigRepo(db *DB) *GeofenceConfigRepo {
	return &GeofenceConfigRepo{db: db, now: time.Now}
}

// WithClock replaces the clock used to stamp UpdatedAt.
func (r *GeofenceConfigRepo) WithClock(now func() time.Time) *GeofenceConfigRepo {
	r.now = now
	return r
}

// storedConfig mirrors the JSON record loosely so malformed fields can be
// told apart from missing ones.
type storedConfig struct {
	Longitude json.RawMessage `json:"longitude"`
	Latitude  json.RawMessage `json:"latitude"`
	Address   json.RawMessage `json:"address"`
	Radius    json.RawMessage `json:"radius"`
	UpdatedAt json.RawMessage `json:"updatedAt"`
}

// Load returns the override, or nil when there is none or the record is
// unusable. Only storage failures are returned as errors.
func (r *GeofenceConfigRepo) Load() (*model.UserGeofenceConfig, error) {
	data, err := r.db.GetBytes(model.KeyGeofenceConfig)
	if IsErrKeyNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var raw storedConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		logging.DebugLog("ignoring geofence config",
			logging.KeyError, errs.Wrap(errs.ErrConfigLoadCorrupt, err.Error()),
		)
		return nil, nil
	}

	lon, okLon := jsonNumber(raw.Longitude)
	lat, okLat := jsonNumber(raw.Latitude)
	if !okLon || !okLat {
		logging.DebugLog("ignoring geofence config", logging.KeyError, errs.ErrConfigLoadCorrupt)
		return nil, nil
	}

	cfg := &model.UserGeofenceConfig{
		Key:       model.KeyGeofenceConfig,
		Longitude: lon,
		Latitude:  lat,
		Radius:    model.MinRadius,
		UpdatedAt: r.now().UnixMilli(),
	}
	if radius, ok := jsonNumber(raw.Radius); ok {
		cfg.Radius = radius
	}
	var address string
	if !isNull(raw.Address) && json.Unmarshal(raw.Address, &address) == nil {
		cfg.Address = &address
	}
	if ts, ok := jsonNumber(raw.UpdatedAt); ok {
		cfg.UpdatedAt = int64(ts)
	}
	return cfg, nil
}

// jsonNumber decodes a JSON number. Strings, null and other types are rejected.
func jsonNumber(msg json.RawMessage) (float64, bool) {
	if isNull(msg) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(msg, &f); err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func isNull(msg json.RawMessage) bool {
	return len(bytes.TrimSpace(msg)) == 0 || bytes.Equal(bytes.TrimSpace(msg), []byte("null"))
}

// Save replaces the override and stamps UpdatedAt. Values are stored as given.
func (r *GeofenceConfigRepo) Save(in model.GeofenceConfigInput) (*model.UserGeofenceConfig, error) {
	cfg := &model.UserGeofenceConfig{
		Key:       model.KeyGeofenceConfig,
		Longitude: in.Longitude,
		Latitude:  in.Latitude,
		Address:   in.Address,
		Radius:    in.Radius,
		UpdatedAt: r.now().UnixMilli(),
	}
	if err := r.db.Set(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Clear removes the override. Clearing an absent override succeeds.
func (r *GeofenceConfigRepo) Clear() error {
	return r.db.Delete(model.KeyGeofenceConfig)
}
