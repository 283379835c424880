package store

import (
	"context"
	"strconv"
	"strings"

	"github.com/mdouchement/todokernel/internal/database"
	"github.com/pkg/errors"
)

// DefaultNamespace is the first segment of every record path.
const DefaultNamespace = "todo"

// ErrNotFound is returned when no record is stored for an id.
var ErrNotFound = errors.New("record not found")

// A BackendError wraps a failure of the underlying key-value store.
type BackendError struct {
	Op   string
	Path string
	Err  error
}

func (e *BackendError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

// Unwrap returns the backend error.
func (e *BackendError) Unwrap() error {
	return e.Err
}

// A Store maps record ids to sealed blobs in a key-value store.
type Store struct {
	kv        database.KeyValueStore
	namespace string
}

// New returns a Store writing under the given namespace.
func New(kv database.KeyValueStore, namespace string) *Store {
	namespace = strings.Trim(namespace, "/")
	if namespace == "" {
		namespace = DefaultNamespace
	}

	return &Store{
		kv:        kv,
		namespace: namespace,
	}
}

// Namespace returns the first segment of the record paths.
func (s *Store) Namespace() string {
	return s.namespace
}

// PathFor returns the storage path of the given record id, e.g. "/todo/42".
func (s *Store) PathFor(id int64) string {
	return "/" + s.namespace + "/" + strconv.FormatInt(id, 10)
}

// Get returns the blob stored for id or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) ([]byte, error) {
	path := s.PathFor(id)

	blob, err := s.kv.Get(ctx, path)
	if database.IsNotFound(err) {
		return nil, errors.Wrap(ErrNotFound, path)
	}
	if err != nil {
		return nil, &BackendError{Op: "get", Path: path, Err: err}
	}
	return blob, nil
}

// Put stores the blob for id, replacing any previous one.
func (s *Store) Put(ctx context.Context, id int64, blob []byte) error {
	path := s.PathFor(id)

	if err := s.kv.Put(ctx, path, blob); err != nil {
		return &BackendError{Op: "put", Path: path, Err: err}
	}
	return nil
}

// Delete removes the blob stored for id.
// Deleting an id that was never created or already deleted succeeds.
func (s *Store) Delete(ctx context.Context, id int64) error {
	path := s.PathFor(id)

	err := s.kv.Delete(ctx, path)
	if err != nil && !database.IsNotFound(err) {
		return &BackendError{Op: "delete", Path: path, Err: err}
	}
	return nil
}
