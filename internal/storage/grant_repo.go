package storage

import (
	"time"

	"github.com/carolin-violet/violet-reminder/internal/model"
)

// GrantRepo persists the user's answers to permission requests.
type GrantRepo struct {
	db *DB
}

// NewGrantRepo creates a new grant repository.
func NewGrantRepo(db *DB) *GrantRepo {
	return &GrantRepo{db: db}
}

// Status returns the stored status for scope, undetermined when never asked.
func (r *GrantRepo) Status(scope string) (model.PermissionStatus, error) {
	g := &model.PermissionGrant{}
	err := r.db.Get(model.GeneratePermissionKey(scope), g)
	if IsErrKeyNotFound(err) {
		return model.PermissionUndetermined, nil
	}
	if err != nil {
		return "", err
	}
	return g.Status, nil
}

// Record stores the answer for scope.
func (r *GrantRepo) Record(scope string, status model.PermissionStatus, now time.Time) error {
	return r.db.Set(&model.PermissionGrant{
		Key:       model.GeneratePermissionKey(scope),
		Scope:     scope,
		Status:    status,
		DecidedAt: now,
	})
}

// List returns every stored grant.
func (r *GrantRepo) List() ([]*model.PermissionGrant, error) {
	return GetAllByPrefix(r.db, model.PrefixPermissionGrant+":", func() *model.PermissionGrant {
		return &model.PermissionGrant{}
	})
}

// Reset forgets every stored answer.
func (r *GrantRepo) Reset() error {
	keys, err := r.db.ListByPrefix(model.PrefixPermissionGrant + ":")
	if err != nil {
		return err
	}
	return r.db.Update(func(tx *Tx) error {
		for _, k := range keys {
			if err := tx.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
