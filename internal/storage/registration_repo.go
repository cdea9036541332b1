package storage

import (
	"time"

	"github.com/carolin-violet/violet-reminder/internal/model"
)

// RegistrationRepo persists which regions are monitored for each task and
// whether the device was last seen inside them.
type RegistrationRepo struct {
	db *DB
}

// NewRegistrationRepo creates a new registration repository.
func NewRegistrationRepo(db *DB) *RegistrationRepo {
	return &RegistrationRepo{db: db}
}

// Replace registers regions for taskName, discarding any previous
// registration and presence state in the same transaction.
func (r *RegistrationRepo) Replace(taskName string, regions []model.GeofenceRegion, now time.Time) (*model.MonitorRegistration, error) {
	reg := &model.MonitorRegistration{
		Key:       model.GenerateRegistrationKey(taskName),
		TaskName:  taskName,
		Regions:   append([]model.GeofenceRegion(nil), regions...),
		StartedAt: now,
	}
	err := r.db.Update(func(tx *Tx) error {
		if err := tx.Delete(model.GeneratePresenceKey(taskName)); err != nil {
			return err
		}
		return tx.SetRaw(reg.Key, reg)
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Get returns the registration for taskName, or nil when there is none.
func (r *RegistrationRepo) Get(taskName string) (*model.MonitorRegistration, error) {
	reg := &model.MonitorRegistration{}
	err := r.db.Get(model.GenerateRegistrationKey(taskName), reg)
	if IsErrKeyNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// List returns every registration.
func (r *RegistrationRepo) List() ([]*model.MonitorRegistration, error) {
	return GetAllByPrefix(r.db, model.PrefixGeofenceTask+":", func() *model.MonitorRegistration {
		return &model.MonitorRegistration{}
	})
}

// Remove deletes the registration and presence state of taskName.
func (r *RegistrationRepo) Remove(taskName string) error {
	return r.db.Update(func(tx *Tx) error {
		if err := tx.Delete(model.GeneratePresenceKey(taskName)); err != nil {
			return err
		}
		return tx.Delete(model.GenerateRegistrationKey(taskName))
	})
}

// Presence returns the presence record of taskName, empty if never stored.
func (r *RegistrationRepo) Presence(taskName string) (*model.RegionPresence, error) {
	p := &model.RegionPresence{}
	err := r.db.Get(model.GeneratePresenceKey(taskName), p)
	if IsErrKeyNotFound(err) {
		return &model.RegionPresence{
			Key:      model.GeneratePresenceKey(taskName),
			TaskName: taskName,
			Inside:   map[string]bool{},
		}, nil
	}
	if err != nil {
		return nil, err
	}
	if p.Inside == nil {
		p.Inside = map[string]bool{}
	}
	return p, nil
}

// SavePresence stores a presence record.
func (r *RegistrationRepo) SavePresence(p *model.RegionPresence) error {
	return r.db.Set(p)
}
