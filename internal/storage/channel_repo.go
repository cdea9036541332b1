package storage

import "github.com/carolin-violet/violet-reminder/internal/model"

// ChannelRepo persists notification channels.
type ChannelRepo struct {
	db *DB
}

// NewChannelRepo creates a new channel repository.
func NewChannelRepo(db *DB) *ChannelRepo {
	return &ChannelRepo{db: db}
}

// Upsert creates or replaces a channel.
func (r *ChannelRepo) Upsert(ch *model.NotificationChannel) error {
	ch.Key = model.GenerateChannelKey(ch.ID)
	return r.db.Set(ch)
}

// Get returns the channel with id, or nil when it does not exist.
func (r *ChannelRepo) Get(id string) (*model.NotificationChannel, error) {
	ch := &model.NotificationChannel{}
	err := r.db.Get(model.GenerateChannelKey(id), ch)
	if IsErrKeyNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ch, nil
}
