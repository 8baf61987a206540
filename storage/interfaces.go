package storage

import (
	"context"

	"github.com/feedscope/feedscope/core"
)

// Register is a durable key-value surface shared between the producer and
// consumer execution contexts. It holds the ordered handle list of the capture
// queue under a well-known key, plus per-install configuration values.
// Implementations must make every list mutation atomic with respect to
// concurrent mutations: an append racing a removal must never overwrite
// the other side's write.
type Register interface {
	// GetList returns the ordered string list stored under key.
	// A key that was never written yields an empty list, not an error.
	GetList(ctx context.Context, key string) ([]string, error)

	// AppendList atomically appends items to the tail of the list under key,
	// creating the list if it does not exist.
	AppendList(ctx context.Context, key string, items ...string) error

	// RemoveFromList atomically removes the first occurrence of item from the
	// list under key. Returns false if the item was not present.
	RemoveFromList(ctx context.Context, key string, item string) (bool, error)

	// GetValue returns the raw value stored under key.
	// Returns ErrNotFound if the key was never written.
	GetValue(ctx context.Context, key string) ([]byte, error)

	// SetValue stores a raw value under key, overwriting any previous value.
	SetValue(ctx context.Context, key string, value []byte) error

	// Close closes the register and releases resources.
	Close() error
}

// BlobStore is a durable, path-addressed storage surface for image payloads,
// shared between the producer and consumer execution contexts. Handles are
// opaque strings allocated by Put.
type BlobStore interface {
	// Put writes data to a freshly allocated location and returns its handle.
	// The blob is fully durable before Put returns.
	Put(ctx context.Context, data []byte) (string, error)

	// Get reads the blob stored under handle.
	// Returns ErrNotFound if no such blob exists.
	Get(ctx context.Context, handle string) ([]byte, error)

	// Delete removes the blob stored under handle. Deleting a missing blob
	// is not an error.
	Delete(ctx context.Context, handle string) error

	// Exists reports whether a blob is stored under handle.
	Exists(ctx context.Context, handle string) (bool, error)
}

// PostRepository provides operations for persisted analyzed posts.
type PostRepository interface {
	// InsertPost writes one post row, all-or-nothing.
	// Returns ErrDuplicateID if a post with the same identifier exists;
	// callers reprocessing a queue entry after a crash must treat that as
	// "already durably recorded". Returns ErrEncodingFailed if the entity
	// map or keyword list cannot be serialized.
	InsertPost(ctx context.Context, post *core.AnalyzedPost) error

	// FetchRecent returns up to limit posts ordered by creation timestamp
	// descending. Rows whose stored fields cannot be decoded are skipped.
	FetchRecent(ctx context.Context, limit int) ([]*core.AnalyzedPost, error)

	// FetchUnembedded returns up to limit posts that have no embedding yet,
	// oldest first. Used to select posts for reprocessing.
	FetchUnembedded(ctx context.Context, limit int) ([]*core.AnalyzedPost, error)

	// DeleteAllPosts irreversibly removes every post row. The topics and
	// patterns tables are not touched.
	DeleteAllPosts(ctx context.Context) error

	// Close closes the repository and releases resources.
	Close() error
}

// DeadLetterRepository records queue entries that exhausted their retry
// budget.
type DeadLetterRepository interface {
	// AddDeadLetter durably records a dead-lettered entry.
	AddDeadLetter(ctx context.Context, letter *core.DeadLetter) error

	// ListDeadLetters returns up to limit dead-letter records, most recent
	// first.
	ListDeadLetters(ctx context.Context, limit int) ([]*core.DeadLetter, error)
}
