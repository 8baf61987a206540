package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/feedscope/feedscope/core"
	"github.com/feedscope/feedscope/storage"
)

// DefaultListKey is the register key holding the ordered handle list.
const DefaultListKey = "pendingScreenshots"

// Entry is one dequeued unit of work: a queued handle together with its
// image payload.
type Entry struct {
	Handle string
	Image  []byte
}

// Queue is the durable capture queue. The producer enqueues screenshot
// payloads; the consumer drains them and acknowledges each entry only after
// its outcome is durably recorded elsewhere.
type Queue struct {
	register storage.Register
	blobs    storage.BlobStore
	key      string
	logger   *slog.Logger
}

// Option configures a Queue.
type Option func(*Queue) error

// WithListKey overrides the register key holding the handle list.
func WithListKey(key string) Option {
	return func(q *Queue) error {
		if key == "" {
			return fmt.Errorf("list key cannot be empty")
		}
		q.key = key
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) error {
		q.logger = logger.With("component", "queue")
		return nil
	}
}

// New creates a Queue over the given register and blob store.
func New(register storage.Register, blobs storage.BlobStore, opts ...Option) (*Queue, error) {
	q := &Queue{
		register: register,
		blobs:    blobs,
		key:      DefaultListKey,
		logger:   slog.Default().With("component", "queue"),
	}
	for _, opt := range opts {
		if err := opt(q); err != nil {
			return nil, fmt.Errorf("applying queue option: %w", err)
		}
	}
	return q, nil
}

// Enqueue durably stores an image payload and appends its handle to the tail
// of the queue. The payload is durable before the handle becomes visible, so
// a crash between the two steps leaks at most an orphaned blob, never a
// dangling handle.
func (q *Queue) Enqueue(ctx context.Context, image []byte) (string, error) {
	handle, err := q.blobs.Put(ctx, image)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBlobWrite, err)
	}

	if err := q.register.AppendList(ctx, q.key, handle); err != nil {
		return "", fmt.Errorf("%w: appending handle %s: %w", storage.ErrRegisterUnavailable, handle, err)
	}

	q.logger.Info("enqueued screenshot",
		"handle", handle,
		"bytes", len(image),
		"fingerprint", core.Fingerprint(image))

	return handle, nil
}

// Load reads the payload stored under a queued handle. Used to retry a read
// that failed mid-drain.
func (q *Queue) Load(ctx context.Context, handle string) ([]byte, error) {
	return q.blobs.Get(ctx, handle)
}

// Len returns the number of queued entries.
func (q *Queue) Len(ctx context.Context) (int, error) {
	list, err := q.register.GetList(ctx, q.key)
	if err != nil {
		return 0, fmt.Errorf("reading queue list: %w", err)
	}
	return len(list), nil
}

// Ack removes an entry from the queue after its outcome has been durably
// recorded. The handle is removed from the list first; the blob is deleted
// only once the handle can no longer be observed, so a crash in between
// leaks a blob rather than resurrecting the entry.
func (q *Queue) Ack(ctx context.Context, handle string) error {
	removed, err := q.register.RemoveFromList(ctx, q.key, handle)
	if err != nil {
		return fmt.Errorf("removing handle %s: %w", handle, err)
	}
	if !removed {
		q.logger.Warn("acknowledged handle was not queued", "handle", handle)
	}

	if err := q.blobs.Delete(ctx, handle); err != nil {
		return fmt.Errorf("deleting blob %s: %w", handle, err)
	}

	return nil
}

// Drain snapshots the current queue and returns an iterator over its entries
// in FIFO order. Entries enqueued after the snapshot are not visited; they
// stay queued for the next drain.
func (q *Queue) Drain(ctx context.Context) (*Iterator, error) {
	handles, err := q.register.GetList(ctx, q.key)
	if err != nil {
		return nil, fmt.Errorf("snapshotting queue: %w", err)
	}
	return &Iterator{queue: q, handles: handles}, nil
}

// Iterator walks a drained queue snapshot. It does not acknowledge entries;
// the caller calls Queue.Ack per entry once the outcome is durable.
type Iterator struct {
	queue   *Queue
	handles []string
	next    int
}

// Remaining returns the number of snapshot entries not yet visited.
func (it *Iterator) Remaining() int {
	return len(it.handles) - it.next
}

// Next returns the next entry, or (nil, nil) when the snapshot is exhausted.
// A handle whose blob is gone is removed from the queue and skipped. A blob
// that exists but cannot be read is returned as an entry with a nil Image
// together with an ErrBlobRead error; the entry stays queued, the caller
// decides its fate, and the iterator continues behind it on the next call.
// One bad payload never wedges the drain; only register failures and context
// cancellation end it.
func (it *Iterator) Next(ctx context.Context) (*Entry, error) {
	for it.next < len(it.handles) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		handle := it.handles[it.next]
		it.next++

		image, err := it.queue.blobs.Get(ctx, handle)
		if err == nil {
			return &Entry{Handle: handle, Image: image}, nil
		}

		if !errors.Is(err, storage.ErrNotFound) {
			return &Entry{Handle: handle}, fmt.Errorf("%w: %s: %w", ErrBlobRead, handle, err)
		}

		// The payload vanished out from under the handle. Nothing can ever
		// process this entry, so drop it instead of wedging the queue head.
		it.queue.logger.Warn("dropping unprocessable entry",
			"handle", handle,
			"err", fmt.Errorf("%w: %s", ErrBlobMissing, handle))
		if _, err := it.queue.register.RemoveFromList(ctx, it.queue.key, handle); err != nil {
			return nil, fmt.Errorf("dropping handle %s: %w", handle, err)
		}
	}

	return nil, nil
}
