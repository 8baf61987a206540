package queue

import "errors"

var (
	// ErrBlobWrite indicates the image payload could not be made durable, so
	// the entry was never enqueued.
	ErrBlobWrite = errors.New("blob write failed")

	// ErrBlobMissing indicates a queued handle whose payload is gone from the
	// blob store. The entry is unprocessable and is dropped from the queue.
	ErrBlobMissing = errors.New("blob missing for queued handle")

	// ErrBlobRead indicates a queued payload that exists but could not be
	// read. The entry stays queued; the consumer decides whether to retry
	// or dead-letter it.
	ErrBlobRead = errors.New("blob read failed")
)
