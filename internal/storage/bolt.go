package storage

import (
	"context"
	"fmt"
	"time"

	bolt "github.com/boltdb/bolt"
)

const snapshotBucket = "snapshots"

// BoltStore keeps every snapshot as one key of a BoltDB bucket, so all
// three registries live in a single embedded file and a Write is a single
// transaction.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the BoltDB file at path and ensures the
// snapshots bucket exists.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(snapshotBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close releases the database file lock.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Read returns the snapshot stored under name.
func (s *BoltStore) Read(_ context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(snapshotBucket)).Get([]byte(name))
		if v == nil {
			return fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		// v is only valid inside the transaction.
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Write stores data under name, replacing any previous snapshot.
func (s *BoltStore) Write(_ context.Context, name string, data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(snapshotBucket)).Put([]byte(name), data)
	})
}
