package storage

import (
	"encoding/json"
	"errors"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/carolin-violet/violet-reminder/internal/model"
)

var (
	// ErrKeyNotFound is returned when a key is not found in the database.
	ErrKeyNotFound = errors.New("key not found")
)

// IsErrKeyNotFound returns true if the error is a key not found error.
func IsErrKeyNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound) || errors.Is(err, badger.ErrKeyNotFound)
}

func readValue(txn *badger.Txn, key string) ([]byte, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

// Get retrieves a value by key, unmarshals it into v and sets v's key.
func (d *DB) Get(key string, v model.Model) error {
	if err := d.GetRaw(key, v); err != nil {
		return err
	}
	v.SetKey(key)
	return nil
}

// GetRaw retrieves a JSON value by key into v, which need not be a model.
func (d *DB) GetRaw(key string, v any) error {
	data, err := d.GetBytes(key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// GetBytes retrieves raw bytes by key.
func (d *DB) GetBytes(key string) ([]byte, error) {
	var result []byte
	err := d.db.View(func(txn *badger.Txn) error {
		var err error
		result, err = readValue(txn, key)
		return err
	})
	return result, err
}

// Set stores a model under its own key.
func (d *DB) Set(v model.Model) error {
	return d.SetRaw(v.GetKey(), v)
}

// SetRaw stores v as JSON under key.
func (d *DB) SetRaw(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return d.SetBytes(key, data)
}

// SetBytes stores raw bytes with the given key.
func (d *DB) SetBytes(key string, data []byte) error {
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// Delete removes a key. Deleting an absent key is not an error.
func (d *DB) Delete(key string) error {
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Exists checks if a key exists in the database.
func (d *DB) Exists(key string) (bool, error) {
	var exists bool
	err := d.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			return nil
		case err != nil:
			return err
		}
		exists = true
		return nil
	})
	return exists, err
}

// Tx is a read-write transaction. All writes commit together or not at all.
type Tx struct {
	txn *badger.Txn
}

// SetRaw stores v as JSON under key within the transaction.
func (t *Tx) SetRaw(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return t.txn.Set([]byte(key), data)
}

// GetRaw reads key within the transaction.
func (t *Tx) GetRaw(key string, v any) error {
	data, err := readValue(t.txn, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// Delete removes key within the transaction.
func (t *Tx) Delete(key string) error {
	return t.txn.Delete([]byte(key))
}

// Update runs fn in a single read-write transaction.
func (d *DB) Update(fn func(tx *Tx) error) error {
	return d.db.Update(func(txn *badger.Txn) error {
		return fn(&Tx{txn: txn})
	})
}

// ListByPrefix retrieves all keys with the given prefix.
func (d *DB) ListByPrefix(prefix string) ([]string, error) {
	var keys []string
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys, err
}

// GetAllByPrefix retrieves all values with the given prefix.
func GetAllByPrefix[T model.Model](d *DB, prefix string, newFunc func() T) ([]T, error) {
	var results []T
	err := d.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			v := newFunc()
			if err := json.Unmarshal(val, v); err != nil {
				return err
			}
			v.SetKey(string(item.KeyCopy(nil)))
			results = append(results, v)
		}
		return nil
	})
	return results, err
}
