package kernel

import (
	"context"

	"github.com/mdouchement/todokernel/internal/store"
	"github.com/mdouchement/todokernel/pkg/libtodo"
	"github.com/pkg/errors"
)

// An Outcome describes what has been done for one message.
type Outcome struct {
	Kind   MessageKind
	Action libtodo.Action
	ID     int64
	Path   string
	// Record is the record as stored after Create or MarkComplete, or as read by Read.
	Record *libtodo.Record
}

// An Engine applies action requests to a record store.
type Engine struct {
	store *store.Store
}

// NewEngine returns a new Engine.
func NewEngine(s *store.Store) *Engine {
	return &Engine{store: s}
}

// Apply executes the given request.
// Store, crypto and decoding errors are returned as is, nothing is retried.
func (e *Engine) Apply(ctx context.Context, req libtodo.ActionRequest) (Outcome, error) {
	outcome := Outcome{
		Kind:   KindUser,
		Action: req.Action,
		ID:     req.ID,
		Path:   e.store.PathFor(req.ID),
	}

	if !req.Action.Valid() {
		return outcome, errors.Wrapf(libtodo.ErrUnknownAction, "%s", req.Action)
	}

	var err error
	switch req.Action {
	case libtodo.Create:
		outcome.Record, err = e.create(ctx, req)
	case libtodo.Read:
		outcome.Record, err = e.read(ctx, req)
	case libtodo.Delete:
		err = e.delete(ctx, req)
	case libtodo.MarkComplete:
		outcome.Record, err = e.markComplete(ctx, req)
	}

	return outcome, errors.Wrap(err, req.Action.String())
}

// create stores the request's record, sealed for its owner.
// The requesting user claims an unassigned record. An existing record is replaced.
func (e *Engine) create(ctx context.Context, req libtodo.ActionRequest) (*libtodo.Record, error) {
	record := req.Record
	if record.Owner == "" {
		record.Owner = req.User
	}

	if err := e.save(ctx, req.ID, record); err != nil {
		return nil, err
	}
	return &record, nil
}

// read opens the record with the requesting user as key material.
func (e *Engine) read(ctx context.Context, req libtodo.ActionRequest) (*libtodo.Record, error) {
	record, err := e.load(ctx, req.ID, req.User)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// delete removes the record whoever asks.
func (e *Engine) delete(ctx context.Context, req libtodo.ActionRequest) error {
	return e.store.Delete(ctx, req.ID)
}

// markComplete flags the record as completed and seals it again for its owner.
func (e *Engine) markComplete(ctx context.Context, req libtodo.ActionRequest) (*libtodo.Record, error) {
	record, err := e.load(ctx, req.ID, req.User)
	if err != nil {
		return nil, err
	}

	record.Completed = true

	if err = e.save(ctx, req.ID, record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (e *Engine) load(ctx context.Context, id int64, user string) (libtodo.Record, error) {
	sealed, err := e.store.Get(ctx, id)
	if err != nil {
		return libtodo.Record{}, err
	}

	plaintext, err := libtodo.Open(sealed, user)
	if err != nil {
		return libtodo.Record{}, errors.Wrap(err, "could not open record")
	}

	record, err := libtodo.DecodeRecord(plaintext)
	if err != nil {
		return libtodo.Record{}, errors.Wrap(err, "could not decode record")
	}

	// The owner is the sealing key, a mismatch means the blob was not written by this engine.
	if !record.AccessibleBy(user) {
		return libtodo.Record{}, errors.Wrapf(&libtodo.CryptoError{Err: libtodo.ErrAuthenticationFailed}, "record owned by %q", record.Owner)
	}
	return record, nil
}

func (e *Engine) save(ctx context.Context, id int64, record libtodo.Record) error {
	sealed, err := libtodo.Seal(libtodo.EncodeRecord(record), record.Owner)
	if err != nil {
		return errors.Wrap(err, "could not seal record")
	}

	return e.store.Put(ctx, id, sealed)
}
