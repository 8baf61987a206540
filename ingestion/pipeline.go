// Copyright 2026 Feedscope Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/feedscope/feedscope/ai"
	"github.com/feedscope/feedscope/core"
	"github.com/feedscope/feedscope/queue"
	"github.com/feedscope/feedscope/storage"
	"github.com/feedscope/feedscope/tokenizer"
)

// Pipeline drains the capture queue and turns each entry into a persisted
// analyzed post. There is a single logical consumer: background drains run on
// a one-worker pool so two drains never interleave.
type Pipeline struct {
	queue       *queue.Queue
	posts       storage.PostRepository
	deadLetters storage.DeadLetterRepository
	recognizer  ai.Recognizer
	embedder    ai.Embedder
	tokenizer   *tokenizer.Tokenizer

	maxLength   int
	maxAttempts int
	retryDelay  time.Duration
	drainPool   *ants.Pool
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithMaxAttempts sets the retry budget for the model collaborators.
// Default is 3.
func WithMaxAttempts(attempts int) Option {
	return func(p *Pipeline) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = attempts
		return nil
	}
}

// WithRetryDelay sets the base delay between retry attempts.
// Default is 2 seconds.
func WithRetryDelay(delay time.Duration) Option {
	return func(p *Pipeline) error {
		p.retryDelay = delay
		return nil
	}
}

// WithMaxSequenceLength sets the fixed token sequence length for embedding.
// Default is 128.
func WithMaxSequenceLength(length int) Option {
	return func(p *Pipeline) error {
		p.maxLength = length
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "ingestion")
		return nil
	}
}

// NewPipeline creates an ingestion pipeline over the given queue, stores and
// model collaborators.
func NewPipeline(
	captureQueue *queue.Queue,
	posts storage.PostRepository,
	deadLetters storage.DeadLetterRepository,
	provider ai.Provider,
	tok *tokenizer.Tokenizer,
	opts ...Option,
) (*Pipeline, error) {
	if captureQueue == nil {
		return nil, ErrQueueRequired
	}
	if posts == nil {
		return nil, ErrPostRepositoryRequired
	}
	if deadLetters == nil {
		return nil, ErrDeadLetterRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if tok == nil {
		return nil, ErrTokenizerRequired
	}

	// One worker: drains are serialized, matching the single-consumer
	// contract of the queue.
	drainPool, err := ants.NewPool(1)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		queue:       captureQueue,
		posts:       posts,
		deadLetters: deadLetters,
		recognizer:  provider.Recognizer(),
		embedder:    provider.Embedder(),
		tokenizer:   tok,
		maxLength:   128,
		maxAttempts: 3,
		retryDelay:  2 * time.Second,
		drainPool:   drainPool,
		logger:      slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// DrainStats summarizes one drain pass.
type DrainStats struct {
	// Processed counts entries visited in the snapshot.
	Processed int
	// Stored counts entries persisted as new posts.
	Stored int
	// Duplicates counts entries whose post already existed; they are
	// acknowledged without a new row.
	Duplicates int
	// DeadLettered counts entries that exhausted their retry budget.
	DeadLettered int
	// Skipped counts entries left queued for the next drain: the drain was
	// interrupted mid-entry, or the dead-letter record could not be written.
	Skipped int
}

// ProcessQueue drains the current queue snapshot synchronously. One failing
// entry never stops the drain; it is dead-lettered or left queued and the
// drain moves on.
func (p *Pipeline) ProcessQueue(ctx context.Context) (*DrainStats, error) {
	it, err := p.queue.Drain(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DrainStats{}
	for {
		entry, err := it.Next(ctx)
		if err != nil {
			if entry == nil {
				// Snapshot-level failure; nothing left to iterate.
				return stats, err
			}
			// The entry's payload could not be read. That is scoped to
			// this one handle; resolve it and keep draining.
			stats.Processed++
			p.retryLoad(ctx, entry.Handle, err, stats)
			continue
		}
		if entry == nil {
			break
		}

		stats.Processed++
		p.processEntry(ctx, entry, stats)
	}

	p.logger.Info("drain complete",
		"processed", stats.Processed,
		"stored", stats.Stored,
		"duplicates", stats.Duplicates,
		"deadLettered", stats.DeadLettered,
		"skipped", stats.Skipped)

	return stats, nil
}

// ProcessQueueAsync schedules a drain on the background worker. Errors are
// logged, not returned. Returns an error only if the drain could not be
// scheduled.
func (p *Pipeline) ProcessQueueAsync() error {
	return p.drainPool.Submit(func() {
		if _, err := p.ProcessQueue(context.Background()); err != nil {
			p.logger.Error("background drain failed", "err", err)
		}
	})
}

// retryLoad re-reads a payload that failed to load during the drain. A
// successful re-read feeds the entry through the normal state machine; once
// the retry budget is spent the entry is dead-lettered so it cannot wedge the
// queue head forever.
func (p *Pipeline) retryLoad(ctx context.Context, handle string, loadErr error, stats *DrainStats) {
	logger := p.logger.With("handle", handle)
	logger.Warn("loading payload failed, retrying", "err", loadErr)

	var image []byte
	err := RetryWithBackoff(ctx, func() error {
		var err error
		image, err = p.queue.Load(ctx, handle)
		return err
	}, p.maxAttempts, p.retryDelay)
	if err != nil {
		if isInterrupted(err) {
			logger.Warn("drain interrupted while loading, leaving entry queued", "err", err)
			stats.Skipped++
			return
		}
		p.deadLetter(ctx, handle, "loading payload failed: "+err.Error(), p.maxAttempts, stats, logger)
		return
	}

	p.processEntry(ctx, &queue.Entry{Handle: handle, Image: image}, stats)
}

// processEntry runs the per-entry state machine: transcribe, embed, persist,
// acknowledge. The entry is acknowledged only after its outcome is durable.
func (p *Pipeline) processEntry(ctx context.Context, entry *queue.Entry, stats *DrainStats) {
	logger := p.logger.With("handle", entry.Handle)

	text, err := p.recognizeWithRetry(ctx, entry.Image)
	if err != nil {
		if isInterrupted(err) {
			logger.Warn("drain interrupted during recognition, leaving entry queued", "err", err)
			stats.Skipped++
			return
		}
		logger.Warn("recognition exhausted retry budget", "err", err)
		p.deadLetter(ctx, entry.Handle, "recognition failed: "+err.Error(), p.maxAttempts, stats, logger)
		return
	}

	post := core.NewAnalyzedPost(entry.Handle, text)

	// Empty transcriptions are stored without an embedding; there is
	// nothing to embed and the row still records that the screenshot was
	// processed.
	if text != "" {
		vector, err := p.embedWithRetry(ctx, text)
		if err != nil {
			// The post is still worth keeping. FetchUnembedded picks it
			// up once the embedding service is back.
			logger.Warn("embedding failed, storing post without vector", "err", err)
		} else {
			post.Embedding = vector
		}
	}

	err = p.storeWithRetry(ctx, post)
	switch {
	case err == nil:
		stats.Stored++
	case errors.Is(err, storage.ErrDuplicateID):
		// Already durably recorded by a previous run that crashed before
		// acknowledging. Safe to acknowledge now.
		logger.Info("post already stored, acknowledging", "post", post.ID)
		stats.Duplicates++
	case errors.Is(err, storage.ErrEncodingFailed):
		// The post can never serialize; one attempt is all it gets.
		logger.Warn("post cannot be serialized", "err", err)
		p.deadLetter(ctx, entry.Handle, "store rejected post: "+err.Error(), 1, stats, logger)
		return
	case isInterrupted(err):
		logger.Warn("drain interrupted while storing, leaving entry queued", "err", err)
		stats.Skipped++
		return
	default:
		// The store kept failing through the retry budget. The failure is
		// recorded in the register, which is independent of the post store,
		// so the entry does not cycle through every future drain.
		logger.Error("store exhausted retry budget", "err", err)
		p.deadLetter(ctx, entry.Handle, "store failed: "+err.Error(), p.maxAttempts, stats, logger)
		return
	}

	if err := p.queue.Ack(ctx, entry.Handle); err != nil {
		// The post is durable; the stale queue entry resolves as a
		// duplicate on the next drain.
		logger.Error("acknowledging entry failed", "err", err)
	}
}

// deadLetter durably records a failed entry and only then acknowledges it.
// Attempts is the number of attempts actually made before giving up. If the
// record cannot be written the entry stays queued.
func (p *Pipeline) deadLetter(ctx context.Context, handle, reason string, attempts int, stats *DrainStats, logger *slog.Logger) {
	letter := &core.DeadLetter{
		Handle:   handle,
		Reason:   reason,
		Attempts: attempts,
		FailedAt: time.Now().UTC(),
	}

	if err := p.deadLetters.AddDeadLetter(ctx, letter); err != nil {
		logger.Error("recording dead letter failed, leaving entry queued", "err", err)
		stats.Skipped++
		return
	}

	if err := p.queue.Ack(ctx, handle); err != nil {
		logger.Error("acknowledging dead-lettered entry failed", "err", err)
	}
	stats.DeadLettered++
	logger.Info("entry dead-lettered", "reason", reason)
}

func (p *Pipeline) recognizeWithRetry(ctx context.Context, image []byte) (string, error) {
	var text string
	err := RetryWithBackoff(ctx, func() error {
		var err error
		text, err = p.recognizer.RecognizeText(ctx, image)
		return err
	}, p.maxAttempts, p.retryDelay)
	return text, err
}

// storeWithRetry inserts the post, retrying transient store failures.
// Duplicate and encoding outcomes are terminal and returned immediately
// without burning the budget.
func (p *Pipeline) storeWithRetry(ctx context.Context, post *core.AnalyzedPost) error {
	var insertErr error
	retryErr := RetryWithBackoff(ctx, func() error {
		insertErr = p.posts.InsertPost(ctx, post)
		if errors.Is(insertErr, storage.ErrDuplicateID) || errors.Is(insertErr, storage.ErrEncodingFailed) {
			return nil
		}
		return insertErr
	}, p.maxAttempts, p.retryDelay)
	if retryErr != nil {
		return retryErr
	}
	return insertErr
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (p *Pipeline) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	encoding := p.tokenizer.Encode(text, p.maxLength)

	var vector []float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vector, err = p.embedder.EmbedTokens(ctx, encoding.IDs, encoding.Mask)
		return err
	}, p.maxAttempts, p.retryDelay)
	return vector, err
}

// Release releases the background worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.drainPool != nil {
		p.drainPool.Release()
	}
}
