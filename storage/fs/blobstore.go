package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/feedscope/feedscope/storage"
)

// BlobStore implements storage.BlobStore on a directory of the local
// filesystem shared between the producer and consumer execution contexts.
// Handles are bare file names; the root directory stays an implementation
// detail of the store.
type BlobStore struct {
	root   string
	logger *slog.Logger
}

var _ storage.BlobStore = (*BlobStore)(nil)

// NewBlobStore creates a BlobStore rooted at dir, creating it if needed.
func NewBlobStore(dir string) (*BlobStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating blob directory %s: %w", dir, err)
	}
	return &BlobStore{
		root:   dir,
		logger: slog.Default().With("component", "blobstore"),
	}, nil
}

// path resolves a handle to its on-disk location. Base strips any path
// components so handles cannot escape the root.
func (s *BlobStore) path(handle string) string {
	return filepath.Join(s.root, filepath.Base(handle))
}

// Put writes data to a freshly allocated location and returns its handle.
// The payload is written to a temporary name and renamed into place, so a
// handle never resolves to a partially written blob.
func (s *BlobStore) Put(ctx context.Context, data []byte) (string, error) {
	handle := uuid.NewString() + ".png"
	final := s.path(handle)
	tmp := final + ".tmp"

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("writing blob: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("publishing blob: %w", err)
	}

	return handle, nil
}

// Get reads the blob stored under handle.
func (s *BlobStore) Get(ctx context.Context, handle string) ([]byte, error) {
	data, err := os.ReadFile(s.path(handle))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: blob %s", storage.ErrNotFound, handle)
	}
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", handle, err)
	}
	return data, nil
}

// Delete removes the blob stored under handle. Missing blobs are ignored.
func (s *BlobStore) Delete(ctx context.Context, handle string) error {
	err := os.Remove(s.path(handle))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting blob %s: %w", handle, err)
	}
	return nil
}

// Exists reports whether a blob is stored under handle.
func (s *BlobStore) Exists(ctx context.Context, handle string) (bool, error) {
	_, err := os.Stat(s.path(handle))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
