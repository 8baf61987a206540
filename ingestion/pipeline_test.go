package ingestion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedscope/feedscope/ai"
	"github.com/feedscope/feedscope/ai/mock"
	"github.com/feedscope/feedscope/core"
	"github.com/feedscope/feedscope/queue"
	"github.com/feedscope/feedscope/storage"
	badgerstore "github.com/feedscope/feedscope/storage/badger"
	"github.com/feedscope/feedscope/storage/fs"
	"github.com/feedscope/feedscope/storage/sqlite"
	"github.com/feedscope/feedscope/tokenizer"
)

var pipelineTestVocab = map[string]int{
	"[PAD]": 0, "[UNK]": 1, "[CLS]": 2, "[SEP]": 3,
	"recognized": 4, "text": 5,
}

type pipelineEnv struct {
	queue    *queue.Queue
	posts    *sqlite.Store
	register *badgerstore.Register
	provider *mock.MockProvider
	pipeline *Pipeline
	blobDir  string
}

func setupPipeline(t *testing.T, opts ...Option) *pipelineEnv {
	t.Helper()

	register, backend, err := badgerstore.NewMemoryRegister()
	require.NoError(t, err)
	t.Cleanup(func() {
		register.Close()
		backend.Close()
	})

	blobDir := t.TempDir()
	blobs, err := fs.NewBlobStore(blobDir)
	require.NoError(t, err)

	q, err := queue.New(register, blobs)
	require.NoError(t, err)

	posts, err := sqlite.Open(filepath.Join(t.TempDir(), "feed_analyzer.db"))
	require.NoError(t, err)
	t.Cleanup(func() { posts.Close() })

	tok, err := tokenizer.New(pipelineTestVocab)
	require.NoError(t, err)

	provider := mock.NewMockProvider()

	opts = append([]Option{WithRetryDelay(time.Millisecond)}, opts...)
	pipeline, err := NewPipeline(q, posts, register, provider, tok, opts...)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	return &pipelineEnv{
		queue:    q,
		posts:    posts,
		register: register,
		provider: provider,
		pipeline: pipeline,
		blobDir:  blobDir,
	}
}

// stubPostStore counts insert attempts and fails them with a fixed error.
type stubPostStore struct {
	insertErr error
	inserts   int
}

func (s *stubPostStore) InsertPost(ctx context.Context, post *core.AnalyzedPost) error {
	s.inserts++
	return s.insertErr
}

func (s *stubPostStore) FetchRecent(ctx context.Context, limit int) ([]*core.AnalyzedPost, error) {
	return nil, nil
}

func (s *stubPostStore) FetchUnembedded(ctx context.Context, limit int) ([]*core.AnalyzedPost, error) {
	return nil, nil
}

func (s *stubPostStore) DeleteAllPosts(ctx context.Context) error { return nil }

func (s *stubPostStore) Close() error { return nil }

func setupStubStorePipeline(t *testing.T, stub *stubPostStore, opts ...Option) (*queue.Queue, *badgerstore.Register, *Pipeline) {
	t.Helper()

	register, backend, err := badgerstore.NewMemoryRegister()
	require.NoError(t, err)
	t.Cleanup(func() {
		register.Close()
		backend.Close()
	})

	blobs, err := fs.NewBlobStore(t.TempDir())
	require.NoError(t, err)

	q, err := queue.New(register, blobs)
	require.NoError(t, err)

	tok, err := tokenizer.New(pipelineTestVocab)
	require.NoError(t, err)

	opts = append([]Option{WithRetryDelay(time.Millisecond)}, opts...)
	pipeline, err := NewPipeline(q, stub, register, mock.NewMockProvider(), tok, opts...)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	return q, register, pipeline
}

func TestProcessQueueHappyPath(t *testing.T) {
	env := setupPipeline(t)
	ctx := context.Background()

	for _, payload := range [][]byte{[]byte("shot one"), []byte("shot two")} {
		_, err := env.queue.Enqueue(ctx, payload)
		require.NoError(t, err)
	}

	stats, err := env.pipeline.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 2, stats.Stored)
	assert.Zero(t, stats.DeadLettered)
	assert.Zero(t, stats.Skipped)

	n, err := env.queue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	posts, err := env.posts.FetchRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	for _, post := range posts {
		assert.NotEmpty(t, post.TextContent)
		assert.NotNil(t, post.Embedding)
	}
}

func TestRecognitionFailureDeadLetters(t *testing.T) {
	env := setupPipeline(t, WithMaxAttempts(2))
	ctx := context.Background()

	env.provider.GetMockRecognizer().RecognizeTextFunc = func(ctx context.Context, image []byte) (string, error) {
		return "", ai.ErrModelUnavailable
	}

	_, err := env.queue.Enqueue(ctx, []byte("unreadable"))
	require.NoError(t, err)

	stats, err := env.pipeline.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DeadLettered)
	assert.Zero(t, stats.Stored)

	// The retry budget was spent before giving up.
	assert.Equal(t, 2, env.provider.GetMockRecognizer().CallCount())

	// Dead-lettered entries leave the queue and are recorded durably.
	n, err := env.queue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	letters, err := env.register.ListDeadLetters(ctx, 10)
	require.NoError(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, 2, letters[0].Attempts)
	assert.Contains(t, letters[0].Reason, "recognition failed")

	posts, err := env.posts.FetchRecent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestEmbeddingFailureStoresPostWithoutVector(t *testing.T) {
	env := setupPipeline(t, WithMaxAttempts(1))
	ctx := context.Background()

	env.provider.GetMockEmbedder().EmbedTokensFunc = func(ctx context.Context, ids, mask []int) ([]float32, error) {
		return nil, ai.ErrModelUnavailable
	}

	_, err := env.queue.Enqueue(ctx, []byte("shot"))
	require.NoError(t, err)

	stats, err := env.pipeline.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Stored)
	assert.Zero(t, stats.DeadLettered)

	// The post exists without a vector and is selected for reprocessing.
	pending, err := env.posts.FetchUnembedded(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Nil(t, pending[0].Embedding)
	assert.NotEmpty(t, pending[0].TextContent)

	n, err := env.queue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEmptyTranscriptionSkipsEmbedding(t *testing.T) {
	env := setupPipeline(t)
	ctx := context.Background()

	env.provider.GetMockRecognizer().RecognizeTextFunc = func(ctx context.Context, image []byte) (string, error) {
		return "", nil
	}

	_, err := env.queue.Enqueue(ctx, []byte("blank screenshot"))
	require.NoError(t, err)

	stats, err := env.pipeline.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Stored)
	assert.Zero(t, env.provider.GetMockEmbedder().CallCount())

	posts, err := env.posts.FetchRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Empty(t, posts[0].TextContent)
	assert.Nil(t, posts[0].Embedding)
}

func TestDuplicateEntryIsAcknowledged(t *testing.T) {
	env := setupPipeline(t)
	ctx := context.Background()

	handle, err := env.queue.Enqueue(ctx, []byte("shot"))
	require.NoError(t, err)

	// First drain stores the post but crashes before acknowledging:
	// simulate by re-adding the handle afterwards.
	stats, err := env.pipeline.ProcessQueue(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Stored)

	require.NoError(t, env.register.AppendList(ctx, queue.DefaultListKey, handle))

	stats, err = env.pipeline.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)

	// The stale entry resolves without a second row. With the blob already
	// deleted the iterator drops it; with the blob still present the store
	// reports a duplicate. Either way nothing is stored twice.
	posts, err := env.posts.FetchRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	n, err := env.queue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStoreFailureDeadLettersAfterRetries(t *testing.T) {
	env := setupPipeline(t, WithMaxAttempts(2))
	ctx := context.Background()

	handle, err := env.queue.Enqueue(ctx, []byte("shot"))
	require.NoError(t, err)

	// Closing the post store makes inserts fail without being a duplicate
	// or an encoding problem.
	require.NoError(t, env.posts.Close())

	stats, err := env.pipeline.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DeadLettered)
	assert.Zero(t, stats.Stored)
	assert.Zero(t, stats.Skipped)

	// The entry left the queue; later drains do not reprocess it.
	n, err := env.queue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, env.provider.GetMockRecognizer().CallCount())

	// The failure is durably recorded in the register, which stays
	// writable when the post store is not.
	letters, err := env.register.ListDeadLetters(ctx, 10)
	require.NoError(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, handle, letters[0].Handle)
	assert.Equal(t, 2, letters[0].Attempts)
	assert.Contains(t, letters[0].Reason, "store failed")
}

func TestTransientStoreErrorsRetryBeforeDeadLettering(t *testing.T) {
	stub := &stubPostStore{insertErr: errors.New("disk full")}
	q, register, pipeline := setupStubStorePipeline(t, stub, WithMaxAttempts(3))
	ctx := context.Background()

	_, err := q.Enqueue(ctx, []byte("shot"))
	require.NoError(t, err)

	stats, err := pipeline.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DeadLettered)

	// The full retry budget was spent on the insert before giving up.
	assert.Equal(t, 3, stub.inserts)

	letters, err := register.ListDeadLetters(ctx, 10)
	require.NoError(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, 3, letters[0].Attempts)
}

func TestEncodingFailureDeadLettersWithoutRetry(t *testing.T) {
	stub := &stubPostStore{insertErr: fmt.Errorf("%w: entities", storage.ErrEncodingFailed)}
	q, register, pipeline := setupStubStorePipeline(t, stub, WithMaxAttempts(3))
	ctx := context.Background()

	_, err := q.Enqueue(ctx, []byte("shot"))
	require.NoError(t, err)

	stats, err := pipeline.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DeadLettered)

	// A post that cannot serialize is terminal: one insert, one recorded
	// attempt.
	assert.Equal(t, 1, stub.inserts)

	letters, err := register.ListDeadLetters(ctx, 10)
	require.NoError(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, 1, letters[0].Attempts)
	assert.Contains(t, letters[0].Reason, "store rejected post")
}

func TestUnreadableBlobIsDeadLettered(t *testing.T) {
	env := setupPipeline(t, WithMaxAttempts(2))
	ctx := context.Background()

	broken, err := env.queue.Enqueue(ctx, []byte("corrupted"))
	require.NoError(t, err)
	_, err = env.queue.Enqueue(ctx, []byte("healthy"))
	require.NoError(t, err)

	// Replace the first payload with a directory so reads fail without
	// the blob being missing.
	path := filepath.Join(env.blobDir, broken)
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0755))

	stats, err := env.pipeline.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 1, stats.Stored)
	assert.Equal(t, 1, stats.DeadLettered)

	// The healthy entry behind the bad one was delivered and everything
	// was acknowledged.
	n, err := env.queue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	letters, err := env.register.ListDeadLetters(ctx, 10)
	require.NoError(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, broken, letters[0].Handle)
	assert.Contains(t, letters[0].Reason, "loading payload failed")
}

func TestShutdownMidEntryLeavesItQueued(t *testing.T) {
	env := setupPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env.provider.GetMockRecognizer().RecognizeTextFunc = func(ctx context.Context, image []byte) (string, error) {
		cancel()
		return "", ctx.Err()
	}

	_, err := env.queue.Enqueue(context.Background(), []byte("shot"))
	require.NoError(t, err)

	stats, err := env.pipeline.ProcessQueue(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, stats.DeadLettered)

	// Cancellation is not a failure; the entry waits for the next drain.
	n, err := env.queue.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	letters, err := env.register.ListDeadLetters(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, letters)
}

func TestOneBadEntryDoesNotStopDrain(t *testing.T) {
	env := setupPipeline(t, WithMaxAttempts(1))
	ctx := context.Background()

	bad, err := env.queue.Enqueue(ctx, []byte("poison"))
	require.NoError(t, err)
	_, err = env.queue.Enqueue(ctx, []byte("good"))
	require.NoError(t, err)

	badImage := string([]byte("poison"))
	env.provider.GetMockRecognizer().RecognizeTextFunc = func(ctx context.Context, image []byte) (string, error) {
		if string(image) == badImage {
			return "", errors.New("model rejected input")
		}
		return "some text", nil
	}

	stats, err := env.pipeline.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 1, stats.Stored)
	assert.Equal(t, 1, stats.DeadLettered)

	letters, err := env.register.ListDeadLetters(ctx, 10)
	require.NoError(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, bad, letters[0].Handle)
}

func TestNewPipelineValidatesDependencies(t *testing.T) {
	env := setupPipeline(t)
	tok, err := tokenizer.New(pipelineTestVocab)
	require.NoError(t, err)

	_, err = NewPipeline(nil, env.posts, env.register, env.provider, tok)
	assert.ErrorIs(t, err, ErrQueueRequired)

	_, err = NewPipeline(env.queue, nil, env.register, env.provider, tok)
	assert.ErrorIs(t, err, ErrPostRepositoryRequired)

	_, err = NewPipeline(env.queue, env.posts, nil, env.provider, tok)
	assert.ErrorIs(t, err, ErrDeadLetterRepositoryRequired)

	_, err = NewPipeline(env.queue, env.posts, env.register, nil, tok)
	assert.ErrorIs(t, err, ErrAIProviderRequired)

	_, err = NewPipeline(env.queue, env.posts, env.register, env.provider, nil)
	assert.ErrorIs(t, err, ErrTokenizerRequired)
}
