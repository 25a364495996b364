package storage

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var stateBucket = []byte("state")

// Store is a small durable key-value file holding the client-side state
// (cart and order history) under fixed keys.
type Store struct {
	db *bolt.DB
}

func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("storage: failed to open state file %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(stateBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: failed to create state bucket: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the stored value for key, or nil when the key is absent.
func (s *Store) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(stateBucket).Get([]byte(key))
		if raw != nil {
			value = make([]byte, len(raw))
			copy(value, raw)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: failed to read key %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Put(key string, value []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(stateBucket).Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("storage: failed to write key %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(key string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(stateBucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("storage: failed to delete key %s: %w", key, err)
	}
	return nil
}
