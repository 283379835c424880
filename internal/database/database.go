package database

import (
	"context"
	"path"
	"strings"

	"github.com/mdouchement/todokernel/internal/config"
	"github.com/pkg/errors"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("key not found")

type (
	// A KeyValueStore stores opaque values under hierarchical keys like "/todo/42".
	KeyValueStore interface {
		// Get returns the value stored under key or ErrNotFound.
		Get(ctx context.Context, key string) ([]byte, error)
		// Put inserts or replaces the value stored under key.
		Put(ctx context.Context, key string, value []byte) error
		// Delete removes key. Deleting a missing key is not an error.
		Delete(ctx context.Context, key string) error
		// Close the store.
		Close() error
	}

	// A Walker can enumerate the keys stored under a namespace.
	Walker interface {
		// Walk calls fn for every key stored under the given namespace.
		Walk(ctx context.Context, namespace string, fn func(key string, value []byte) error) error
	}
)

// IsNotFound returns true if err is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Open returns the key-value store described by the given configuration.
func Open(ctx context.Context, cfg config.Database) (KeyValueStore, error) {
	switch cfg.Backend {
	case "storm":
		return StormOpen(cfg.Path)
	case "sql":
		return SQLOpen(ctx, cfg.SQL.Driver, cfg.SQL.DSN)
	case "redis":
		return RedisOpen(ctx, cfg.Redis.URL)
	case "s3":
		return S3Open(ctx, cfg.S3)
	}
	return nil, errors.Errorf("unsupported database backend %q", cfg.Backend)
}

// split returns the bucket and the name of a hierarchical key.
// "/todo/42" gives "todo" and "42".
func split(key string) (bucket, name string, err error) {
	dir, name := path.Split(key)
	bucket = strings.Trim(dir, "/")
	if bucket == "" || name == "" {
		return "", "", errors.Errorf("invalid key %q", key)
	}
	return bucket, name, nil
}

// prefix returns the key prefix of a namespace.
func prefix(namespace string) string {
	return "/" + strings.Trim(namespace, "/") + "/"
}
