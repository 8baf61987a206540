package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/feedscope/feedscope"
	"github.com/feedscope/feedscope/ai"
	"github.com/feedscope/feedscope/ingestion"
	"github.com/feedscope/feedscope/queue"
	"github.com/feedscope/feedscope/storage/badger"
	"github.com/feedscope/feedscope/storage/fs"
	"github.com/feedscope/feedscope/storage/sqlite"
)

// lastDrainKey is the register key recording when the queue was last drained.
const lastDrainKey = "config:last_drain"

// openQueue opens only the surfaces the producer side needs: the register and
// the blob store. The returned closer releases the register backend.
func openQueue(dataDir string) (*queue.Queue, func(), error) {
	backend, err := badger.OpenBackend(filepath.Join(dataDir, "register"), false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open register: %w", err)
	}

	blobs, err := fs.NewBlobStore(filepath.Join(dataDir, "screenshots"))
	if err != nil {
		backend.Close()
		return nil, nil, fmt.Errorf("failed to open blob store: %w", err)
	}

	q, err := queue.New(badger.NewRegister(backend), blobs)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}

	return q, func() { backend.Close() }, nil
}

func shareCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one image path is required")
	}

	q, closeQueue, err := openQueue(c.String("data-dir"))
	if err != nil {
		return err
	}
	defer closeQueue()

	ctx := context.Background()
	for _, path := range c.Args().Slice() {
		image, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		handle, err := q.Enqueue(ctx, image)
		if err != nil {
			return fmt.Errorf("failed to enqueue %s: %w", path, err)
		}
		fmt.Printf("enqueued %s as %s\n", path, handle)
	}

	n, err := q.Len(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%d entries queued\n", n)

	return nil
}

func processCommand(c *cli.Context) error {
	aiConfig := ai.NewConfig(
		ai.WithRecognizerHost(c.String("recognizer-host")),
		ai.WithRecognizerModel(c.String("recognizer-model")),
		ai.WithEmbedderHost(c.String("embedder-host")),
		ai.WithEmbedderModel(c.String("embedder-model")),
		ai.WithVocabPath(c.String("vocab")),
		ai.WithMaxSequenceLength(c.Int("max-seq-length")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	analyzer, err := feedscope.NewAnalyzer(c.String("data-dir"), feedscope.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open analyzer: %w", err)
	}
	defer analyzer.Close()

	pipeline, err := analyzer.NewPipeline(
		ingestion.WithMaxAttempts(c.Int("max-retries")),
		ingestion.WithRetryDelay(c.Duration("retry-delay")),
		ingestion.WithMaxSequenceLength(c.Int("max-seq-length")),
	)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	ctx := context.Background()
	stats, err := pipeline.ProcessQueue(ctx)
	if err != nil {
		return fmt.Errorf("drain failed: %w", err)
	}

	stamp := time.Now().UTC().Format(time.RFC3339)
	if err := analyzer.Register().SetValue(ctx, lastDrainKey, []byte(stamp)); err != nil {
		return fmt.Errorf("failed to record drain time: %w", err)
	}

	fmt.Printf("processed %d entries: %d stored, %d duplicates, %d dead-lettered, %d skipped\n",
		stats.Processed, stats.Stored, stats.Duplicates, stats.DeadLettered, stats.Skipped)

	return nil
}

func recentCommand(c *cli.Context) error {
	store, err := sqlite.Open(filepath.Join(c.String("data-dir"), "feed_analyzer.db"))
	if err != nil {
		return fmt.Errorf("failed to open analysis store: %w", err)
	}
	defer store.Close()

	posts, err := store.FetchRecent(context.Background(), c.Int("limit"))
	if err != nil {
		return err
	}

	if len(posts) == 0 {
		fmt.Println("no posts")
		return nil
	}

	for _, post := range posts {
		embedded := "embedded"
		if post.Embedding == nil {
			embedded = "no embedding"
		}
		fmt.Printf("%s  %s  [%s]\n  %s\n",
			post.Timestamp.Format("2006-01-02 15:04:05"),
			post.ID,
			embedded,
			truncateText(post.TextContent, 120))
	}

	return nil
}

func deadLettersCommand(c *cli.Context) error {
	backend, err := badger.OpenBackend(filepath.Join(c.String("data-dir"), "register"), false)
	if err != nil {
		return fmt.Errorf("failed to open register: %w", err)
	}
	defer backend.Close()

	letters, err := badger.NewRegister(backend).ListDeadLetters(context.Background(), c.Int("limit"))
	if err != nil {
		return err
	}

	if len(letters) == 0 {
		fmt.Println("no dead letters")
		return nil
	}

	for _, letter := range letters {
		fmt.Printf("%s  %s  attempts=%d\n  %s\n",
			letter.FailedAt.Format("2006-01-02 15:04:05"),
			letter.Handle,
			letter.Attempts,
			letter.Reason)
	}

	return nil
}

func resetCommand(c *cli.Context) error {
	if !c.Bool("yes") {
		return fmt.Errorf("reset deletes every analyzed post; pass --yes to confirm")
	}

	store, err := sqlite.Open(filepath.Join(c.String("data-dir"), "feed_analyzer.db"))
	if err != nil {
		return fmt.Errorf("failed to open analysis store: %w", err)
	}
	defer store.Close()

	if err := store.DeleteAllPosts(context.Background()); err != nil {
		return err
	}

	fmt.Println("all posts deleted")
	return nil
}

// truncateText shortens s to at most max runes for display.
func truncateText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
