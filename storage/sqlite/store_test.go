package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedscope/feedscope/core"
	"github.com/feedscope/feedscope/storage"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "feed_analyzer.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestPost(handle, text string, at time.Time) *core.AnalyzedPost {
	post := core.NewAnalyzedPost(handle, text)
	post.Timestamp = at.UTC().Truncate(time.Microsecond)
	return post
}

func TestInsertAndFetchRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	post := newTestPost("shot-1.png", "hello feed", time.Now())
	post.Embedding = []float32{0.25, -1.5, 3.0}
	score := float32(0.8)
	post.SentimentScore = &score
	label := "positive"
	post.SentimentLabel = &label
	post.Entities = map[string][]string{"person": {"Ada"}}
	post.Keywords = []string{"hello", "feed"}
	topicID := int64(7)
	post.TopicID = &topicID

	require.NoError(t, store.InsertPost(ctx, post))

	fetched, err := store.FetchRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, fetched, 1)

	got := fetched[0]
	assert.Equal(t, post.ID, got.ID)
	assert.Equal(t, post.Timestamp, got.Timestamp)
	assert.Equal(t, "shot-1.png", got.ImagePath)
	assert.Equal(t, "hello feed", got.TextContent)
	assert.Equal(t, post.Embedding, got.Embedding)
	require.NotNil(t, got.SentimentScore)
	assert.Equal(t, score, *got.SentimentScore)
	require.NotNil(t, got.SentimentLabel)
	assert.Equal(t, label, *got.SentimentLabel)
	assert.Equal(t, post.Entities, got.Entities)
	assert.Equal(t, post.Keywords, got.Keywords)
	require.NotNil(t, got.TopicID)
	assert.Equal(t, topicID, *got.TopicID)
	assert.Nil(t, got.TopicProbability)
}

func TestInsertWithoutEmbeddingStoresNull(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	post := newTestPost("shot-2.png", "no vector yet", time.Now())
	require.NoError(t, store.InsertPost(ctx, post))

	fetched, err := store.FetchRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, fetched, 1)
	assert.Nil(t, fetched[0].Embedding)
	assert.Nil(t, fetched[0].SentimentScore)
	assert.Nil(t, fetched[0].SentimentLabel)
	assert.Empty(t, fetched[0].Entities)
	assert.Empty(t, fetched[0].Keywords)
}

func TestInsertDuplicateID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	first := newTestPost("same-handle.png", "first", time.Now())
	require.NoError(t, store.InsertPost(ctx, first))

	// A reprocessed entry derives the same identifier from its handle.
	second := newTestPost("same-handle.png", "second", time.Now())
	err := store.InsertPost(ctx, second)
	assert.ErrorIs(t, err, storage.ErrDuplicateID)

	fetched, err := store.FetchRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, fetched, 1)
	assert.Equal(t, "first", fetched[0].TextContent)
}

func TestInsertInvalidPost(t *testing.T) {
	store := setupStore(t)

	err := store.InsertPost(context.Background(), &core.AnalyzedPost{})
	assert.ErrorIs(t, err, core.ErrInvalidPost)
}

func TestFetchRecentOrdersAndLimits(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		post := newTestPost(fmt.Sprintf("shot-%d.png", i), fmt.Sprintf("text %d", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.InsertPost(ctx, post))
	}

	fetched, err := store.FetchRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, fetched, 2)
	assert.Equal(t, "text 4", fetched[0].TextContent)
	assert.Equal(t, "text 3", fetched[1].TextContent)
}

func TestFetchUnembedded(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	embedded := newTestPost("embedded.png", "has vector", base)
	embedded.Embedding = []float32{1, 2}
	require.NoError(t, store.InsertPost(ctx, embedded))

	newer := newTestPost("newer.png", "pending b", base.Add(2*time.Minute))
	require.NoError(t, store.InsertPost(ctx, newer))
	older := newTestPost("older.png", "pending a", base.Add(time.Minute))
	require.NoError(t, store.InsertPost(ctx, older))

	pending, err := store.FetchUnembedded(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	// Oldest first; the embedded post is excluded.
	assert.Equal(t, "pending a", pending[0].TextContent)
	assert.Equal(t, "pending b", pending[1].TextContent)
}

func TestDeleteAllPosts(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertPost(ctx, newTestPost("a.png", "a", time.Now())))
	require.NoError(t, store.InsertPost(ctx, newTestPost("b.png", "b", time.Now())))

	require.NoError(t, store.DeleteAllPosts(ctx))

	fetched, err := store.FetchRecent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, fetched)

	// The schema survives a wipe; inserts still work.
	require.NoError(t, store.InsertPost(ctx, newTestPost("c.png", "c", time.Now())))
}
