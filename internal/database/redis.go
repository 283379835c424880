package database

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type rds struct {
	client *redis.Client
}

// RedisOpen returns a key-value store backed by Redis strings.
func RedisOpen(ctx context.Context, url string) (KeyValueStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse redis url")
	}

	client := redis.NewClient(opts)
	if err = client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "could not connect to redis")
	}

	return &rds{client: client}, nil
}

// Get returns the value stored under key.
func (c *rds) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, errors.Wrap(ErrNotFound, key)
	}
	return value, errors.Wrap(err, "could not get value")
}

// Put inserts or replaces the value stored under key.
func (c *rds) Put(ctx context.Context, key string, value []byte) error {
	return errors.Wrap(c.client.Set(ctx, key, value, 0).Err(), "could not put value")
}

// Delete removes key.
func (c *rds) Delete(ctx context.Context, key string) error {
	return errors.Wrap(c.client.Del(ctx, key).Err(), "could not delete value")
}

// Walk calls fn for every key stored under the given namespace.
func (c *rds) Walk(ctx context.Context, namespace string, fn func(key string, value []byte) error) error {
	iter := c.client.Scan(ctx, 0, prefix(namespace)+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		value, err := c.Get(ctx, key)
		if IsNotFound(err) {
			// Deleted while scanning.
			continue
		}
		if err != nil {
			return err
		}

		if err = fn(key, value); err != nil {
			return err
		}
	}
	return errors.Wrap(iter.Err(), "could not scan keys")
}

// Close the connection.
func (c *rds) Close() error {
	return c.client.Close()
}
