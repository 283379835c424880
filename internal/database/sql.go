package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/pkg/errors"
)

var sqlSchemas = map[string]string{
	"sqlite3": `CREATE TABLE IF NOT EXISTS kv_entries (
		path  TEXT PRIMARY KEY,
		value BLOB NOT NULL
	)`,
	"postgres": `CREATE TABLE IF NOT EXISTS kv_entries (
		path  TEXT PRIMARY KEY,
		value BYTEA NOT NULL
	)`,
}

type sqlstore struct {
	db *sqlx.DB
}

// SQLOpen returns a key-value store backed by a single SQL table.
// Supported drivers are sqlite3 and postgres.
func SQLOpen(ctx context.Context, driver, dsn string) (KeyValueStore, error) {
	schema, ok := sqlSchemas[driver]
	if !ok {
		return nil, errors.Errorf("unsupported SQL driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "could not get database connection")
	}

	if driver == "sqlite3" {
		// Single writer.
		db.SetMaxOpenConns(1)
	}

	if _, err = db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "could not apply schema")
	}

	return &sqlstore{db: db}, nil
}

// Get returns the value stored under key.
func (c *sqlstore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := c.db.GetContext(ctx, &value, c.db.Rebind(`SELECT value FROM kv_entries WHERE path = ?`), key)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(ErrNotFound, key)
	}
	return value, errors.Wrap(err, "could not get value")
}

// Put inserts or replaces the value stored under key.
func (c *sqlstore) Put(ctx context.Context, key string, value []byte) error {
	query := c.db.Rebind(`INSERT INTO kv_entries (path, value) VALUES (?, ?)
		ON CONFLICT (path) DO UPDATE SET value = excluded.value`)

	_, err := c.db.ExecContext(ctx, query, key, value)
	return errors.Wrap(err, "could not put value")
}

// Delete removes key.
func (c *sqlstore) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, c.db.Rebind(`DELETE FROM kv_entries WHERE path = ?`), key)
	return errors.Wrap(err, "could not delete value")
}

// Walk calls fn for every key stored under the given namespace.
func (c *sqlstore) Walk(ctx context.Context, namespace string, fn func(key string, value []byte) error) error {
	p := prefix(namespace)
	query := c.db.Rebind(`SELECT path, value FROM kv_entries WHERE substr(path, 1, ?) = ? ORDER BY path`)

	rows, err := c.db.QueryxContext(ctx, query, len(p), p)
	if err != nil {
		return errors.Wrap(err, "could not list values")
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var value []byte
		if err = rows.Scan(&key, &value); err != nil {
			return errors.Wrap(err, "could not scan value")
		}
		if err = fn(key, value); err != nil {
			return err
		}
	}
	return errors.Wrap(rows.Err(), "could not list values")
}

// Close the database.
func (c *sqlstore) Close() error {
	return c.db.Close()
}
