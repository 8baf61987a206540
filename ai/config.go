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


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for the model collaborators.
type Config struct {
	// RecognizerHost is the base URL of the OpenAI-compatible vision API.
	// Example: "http://localhost:11434/v1" for a local Ollama server.
	RecognizerHost string

	// RecognizerModel is the vision model used for screenshot transcription.
	// Example: "llava", "gpt-4o-mini"
	RecognizerModel string

	// EmbedderHost is the base URL of the embedding inference service.
	// Example: "http://localhost:8090"
	EmbedderHost string

	// EmbedderModel is the sentence embedding model identifier.
	EmbedderModel string

	// VocabPath is the path of the WordPiece vocabulary file, one token per
	// line, line index = token id.
	VocabPath string

	// MaxSequenceLength is the fixed token sequence length fed to the
	// embedding model, including the [CLS] and [SEP] markers.
	// Default: 128
	MaxSequenceLength int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithRecognizerHost sets the vision service host URL.
func WithRecognizerHost(host string) ConfigOption {
	return func(c *Config) {
		c.RecognizerHost = host
	}
}

// WithRecognizerModel sets the vision model identifier.
func WithRecognizerModel(model string) ConfigOption {
	return func(c *Config) {
		c.RecognizerModel = model
	}
}

// WithEmbedderHost sets the embedding service host URL.
func WithEmbedderHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbedderHost = host
	}
}

// WithEmbedderModel sets the embedding model identifier.
func WithEmbedderModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbedderModel = model
	}
}

// WithVocabPath sets the WordPiece vocabulary file path.
func WithVocabPath(path string) ConfigOption {
	return func(c *Config) {
		c.VocabPath = path
	}
}

// WithMaxSequenceLength sets the fixed token sequence length.
func WithMaxSequenceLength(length int) ConfigOption {
	return func(c *Config) {
		c.MaxSequenceLength = length
	}
}

// DefaultConfig returns a Config with sensible defaults for local services.
func DefaultConfig() *Config {
	return &Config{
		RecognizerHost:    "http://localhost:11434/v1",
		RecognizerModel:   "llava",
		EmbedderHost:      "http://localhost:8090",
		EmbedderModel:     "all-MiniLM-L6-v2",
		VocabPath:         "vocab.txt",
		MaxSequenceLength: 128,
	}
}

// NewConfig creates a Config with the default values and applies the
// provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form. The recognizer
// host gets the /v1 suffix required by OpenAI-compatible APIs; the embedder
// host loses any trailing slash.
func (c *Config) Normalize() {
	if c.RecognizerHost != "" && !strings.HasSuffix(c.RecognizerHost, "/v1") {
		c.RecognizerHost = strings.TrimSuffix(c.RecognizerHost, "/") + "/v1"
	}
	c.EmbedderHost = strings.TrimSuffix(c.EmbedderHost, "/")
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.RecognizerHost == "" {
		return errors.New("ai config: RecognizerHost is required")
	}
	if c.RecognizerModel == "" {
		return errors.New("ai config: RecognizerModel is required")
	}
	if c.EmbedderHost == "" {
		return errors.New("ai config: EmbedderHost is required")
	}
	if c.EmbedderModel == "" {
		return errors.New("ai config: EmbedderModel is required")
	}
	if c.VocabPath == "" {
		return errors.New("ai config: VocabPath is required")
	}
	if c.MaxSequenceLength < 2 {
		return errors.New("ai config: MaxSequenceLength must be at least 2")
	}
	return nil
}
