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


package feedscope

import (
	"log/slog"
	"path/filepath"

	"github.com/feedscope/feedscope/ai"
	"github.com/feedscope/feedscope/ai/infer"
	"github.com/feedscope/feedscope/ai/openai"
	"github.com/feedscope/feedscope/ingestion"
	"github.com/feedscope/feedscope/queue"
	"github.com/feedscope/feedscope/storage"
	"github.com/feedscope/feedscope/storage/badger"
	"github.com/feedscope/feedscope/storage/fs"
	"github.com/feedscope/feedscope/storage/sqlite"
	"github.com/feedscope/feedscope/tokenizer"
)

// Analyzer bundles the shared durable surfaces and the model collaborators
// behind one handle. All state lives under a single data directory:
//
//	<dataDir>/register/         durable register (queue list, config, dead letters)
//	<dataDir>/screenshots/      blob store for captured images
//	<dataDir>/feed_analyzer.db  analysis store
type Analyzer struct {
	backend  *badger.Backend
	register *badger.Register
	blobs    *fs.BlobStore
	queue    *queue.Queue
	posts    *sqlite.Store
	provider ai.Provider
	tok      *tokenizer.Tokenizer
	logger   *slog.Logger
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*analyzerOptions)

type analyzerOptions struct {
	aiConfig  *ai.Config
	provider  ai.Provider
	tokenizer *tokenizer.Tokenizer
}

// WithAIConfig sets the model collaborator configuration.
func WithAIConfig(config *ai.Config) AnalyzerOption {
	return func(o *analyzerOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects a pre-built provider instead of constructing the
// default recognizer and embedder clients. Used by tests and embedders of
// the library that manage their own model services.
func WithProvider(provider ai.Provider) AnalyzerOption {
	return func(o *analyzerOptions) {
		o.provider = provider
	}
}

// WithTokenizer injects a pre-built tokenizer instead of loading the
// vocabulary file named by the AI config.
func WithTokenizer(tok *tokenizer.Tokenizer) AnalyzerOption {
	return func(o *analyzerOptions) {
		o.tokenizer = tok
	}
}

// NewAnalyzer opens the durable surfaces under dataDir and wires the model
// collaborators.
func NewAnalyzer(dataDir string, opts ...AnalyzerOption) (*Analyzer, error) {
	options := &analyzerOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filepath.Join(dataDir, "register"), false)
	if err != nil {
		return nil, err
	}

	register := badger.NewRegister(backend)

	blobs, err := fs.NewBlobStore(filepath.Join(dataDir, "screenshots"))
	if err != nil {
		backend.Close()
		return nil, err
	}

	captureQueue, err := queue.New(register, blobs)
	if err != nil {
		backend.Close()
		return nil, err
	}

	posts, err := sqlite.Open(filepath.Join(dataDir, "feed_analyzer.db"))
	if err != nil {
		backend.Close()
		return nil, err
	}

	tok := options.tokenizer
	if tok == nil {
		tok, err = tokenizer.LoadFile(options.aiConfig.VocabPath)
		if err != nil {
			posts.Close()
			backend.Close()
			return nil, err
		}
	}

	provider := options.provider
	if provider == nil {
		recognizer, err := openai.NewRecognizer(options.aiConfig)
		if err != nil {
			posts.Close()
			backend.Close()
			return nil, err
		}
		embedder, err := infer.NewEmbedder(options.aiConfig)
		if err != nil {
			posts.Close()
			backend.Close()
			return nil, err
		}
		provider = ai.NewProvider(recognizer, embedder)
	}

	return &Analyzer{
		backend:  backend,
		register: register,
		blobs:    blobs,
		queue:    captureQueue,
		posts:    posts,
		provider: provider,
		tok:      tok,
		logger:   slog.Default(),
	}, nil
}

// Close releases every resource held by the analyzer.
func (a *Analyzer) Close() error {
	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing AI provider", "err", err)
	}

	if err := a.posts.Close(); err != nil {
		a.logger.Error("error closing post store", "err", err)
		return err
	}

	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing register backend", "err", err)
		return err
	}
	return nil
}

// Queue returns the durable capture queue.
func (a *Analyzer) Queue() *queue.Queue {
	return a.queue
}

// Posts returns the analysis store.
func (a *Analyzer) Posts() storage.PostRepository {
	return a.posts
}

// DeadLetters returns the dead-letter repository.
func (a *Analyzer) DeadLetters() storage.DeadLetterRepository {
	return a.register
}

// Register returns the durable register.
func (a *Analyzer) Register() storage.Register {
	return a.register
}

// Tokenizer returns the loaded WordPiece tokenizer.
func (a *Analyzer) Tokenizer() *tokenizer.Tokenizer {
	return a.tok
}

// NewPipeline creates an ingestion pipeline over the analyzer's surfaces.
func (a *Analyzer) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(a.queue, a.posts, a.register, a.provider, a.tok, opts...)
}
