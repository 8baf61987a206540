package badger

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/feedscope/feedscope/storage"
)

// Register implements storage.Register on top of a BadgerDB backend.
//
// Every list mutation runs inside a single read-write transaction; BadgerDB's
// conflict detection aborts a commit whose read set was modified concurrently,
// and the mutation is then re-applied against the fresh state. This gives the
// compare-and-swap discipline the hand-off queue requires: an append racing a
// removal can never overwrite the other side's write.
type Register struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.Register = (*Register)(nil)
var _ storage.DeadLetterRepository = (*Register)(nil)

// NewRegister creates a Register over an open backend.
func NewRegister(backend *Backend) *Register {
	return &Register{
		backend: backend,
		logger:  slog.Default().With("component", "register"),
	}
}

// Close closes the register. The underlying backend is owned by the caller
// and stays open.
func (r *Register) Close() error {
	return nil
}

// update runs fn in a read-write transaction, retrying on commit conflicts.
func (r *Register) update(fn func(tx *badger.Txn) error) error {
	for {
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			if err := fn(tx); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		r.logger.Debug("register transaction conflict, retrying")
	}
}

// readList reads and decodes the list under key inside tx.
// A missing key yields an empty list.
func readList(tx *badger.Txn, key string) ([]string, error) {
	item, err := tx.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var list []string
	err = item.Value(func(val []byte) error {
		var err error
		list, err = storage.UnmarshalHandleList(val)
		return err
	})
	return list, err
}

// GetList returns the ordered string list stored under key.
func (r *Register) GetList(ctx context.Context, key string) ([]string, error) {
	var list []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		list, err = readList(tx, key)
		return err
	}, false)
	return list, err
}

// AppendList atomically appends items to the tail of the list under key.
func (r *Register) AppendList(ctx context.Context, key string, items ...string) error {
	if len(items) == 0 {
		return nil
	}
	return r.update(func(tx *badger.Txn) error {
		list, err := readList(tx, key)
		if err != nil {
			return err
		}
		list = append(list, items...)
		return tx.Set([]byte(key), storage.MarshalHandleList(list))
	})
}

// RemoveFromList atomically removes the first occurrence of item from the
// list under key.
func (r *Register) RemoveFromList(ctx context.Context, key string, item string) (bool, error) {
	var removed bool
	err := r.update(func(tx *badger.Txn) error {
		removed = false
		list, err := readList(tx, key)
		if err != nil {
			return err
		}
		i := slices.Index(list, item)
		if i < 0 {
			return nil
		}
		list = slices.Delete(list, i, i+1)
		removed = true
		return tx.Set([]byte(key), storage.MarshalHandleList(list))
	})
	return removed, err
}

// GetValue returns the raw value stored under key.
func (r *Register) GetValue(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	}, false)
	return value, err
}

// SetValue stores a raw value under key.
func (r *Register) SetValue(ctx context.Context, key string, value []byte) error {
	return r.update(func(tx *badger.Txn) error {
		return tx.Set([]byte(key), value)
	})
}
