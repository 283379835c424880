package database

import (
	"context"

	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/codec/msgpack"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

type strm struct {
	db *storm.DB
}

// StormCodec is the format used by Storm for its own metadata.
var StormCodec = storm.Codec(msgpack.Codec)

// StormOpen returns a new Storm (bbolt) key-value store.
func StormOpen(database string) (KeyValueStore, error) {
	db, err := storm.Open(database, StormCodec)
	if err != nil {
		return nil, errors.Wrap(err, "could not get database connection")
	}

	return &strm{
		db: db,
	}, nil
}

// Get returns the value stored under key.
func (c *strm) Get(_ context.Context, key string) ([]byte, error) {
	bucket, name, err := split(key)
	if err != nil {
		return nil, err
	}

	value, err := c.db.GetBytes(bucket, name)
	if err == storm.ErrNotFound {
		return nil, errors.Wrap(ErrNotFound, key)
	}
	return value, errors.Wrap(err, "could not get value")
}

// Put inserts or replaces the value stored under key.
func (c *strm) Put(_ context.Context, key string, value []byte) error {
	bucket, name, err := split(key)
	if err != nil {
		return err
	}

	return errors.Wrap(c.db.SetBytes(bucket, name, value), "could not put value")
}

// Delete removes key.
func (c *strm) Delete(_ context.Context, key string) error {
	bucket, name, err := split(key)
	if err != nil {
		return err
	}

	err = c.db.Delete(bucket, name)
	if err == storm.ErrNotFound {
		// Missing bucket.
		return nil
	}
	return errors.Wrap(err, "could not delete value")
}

// Walk calls fn for every key stored under the given namespace.
func (c *strm) Walk(ctx context.Context, namespace string, fn func(key string, value []byte) error) error {
	p := prefix(namespace)
	bucket := p[1 : len(p)-1]

	return c.db.Bolt.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if v == nil {
				// Nested bucket.
				return nil
			}

			value := make([]byte, len(v))
			copy(value, v)
			return fn(p+string(k), value)
		})
	})
}

// Close the database.
func (c *strm) Close() error {
	return c.db.Close()
}
