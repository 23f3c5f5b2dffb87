package object

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"
)

var boltObjectsBucket = []byte("objects")

// BoltStore keeps all objects in a single bbolt database file. Envelopes are
// stored uncompressed under their hex id in one bucket.
type BoltStore struct {
	typedStore
	db *bbolt.DB
}

// OpenBoltStore opens (or creates) a bbolt-backed store at the given
// filesystem path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("bolt store: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltObjectsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bolt store: create bucket: %w", err)
	}
	s := &BoltStore{db: db}
	s.raw = s
	return s, nil
}

// Close releases the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) put(ctx context.Context, id string, env []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(boltObjectsBucket)
		if b.Get([]byte(id)) != nil {
			return nil
		}
		return b.Put([]byte(id), env)
	})
}

func (s *BoltStore) get(ctx context.Context, id string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(boltObjectsBucket).Get([]byte(id))
		if v != nil {
			out = make([]byte, len(v))
			copy(out, v)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}
