package ai

import "context"

// Recognizer transcribes the visible text of a screenshot image.
// Implementations must be safe for concurrent use.
type Recognizer interface {
	// RecognizeText returns the text visible in the image, top to bottom.
	// An image with no recognizable text yields an empty string, not an
	// error. Returns ErrModelUnavailable if the vision service cannot be
	// reached.
	RecognizeText(ctx context.Context, image []byte) (string, error)
}

// Embedder turns a tokenized sequence into a sentence embedding.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// EmbedTokens embeds a token id sequence with its attention mask, as
	// produced by the tokenizer. Returns ErrModelUnavailable if the
	// embedding service cannot be reached.
	EmbedTokens(ctx context.Context, ids, mask []int) ([]float32, error)
}

// Provider aggregates the model collaborators for convenient wiring and
// lifecycle management.
type Provider interface {
	// Recognizer returns the screenshot transcription service.
	Recognizer() Recognizer

	// Embedder returns the sentence embedding service.
	Embedder() Embedder

	// Close releases resources held by the provider and its services.
	Close() error
}

type provider struct {
	recognizer Recognizer
	embedder   Embedder
}

// NewProvider aggregates a recognizer and an embedder into a Provider.
func NewProvider(recognizer Recognizer, embedder Embedder) Provider {
	return &provider{recognizer: recognizer, embedder: embedder}
}

func (p *provider) Recognizer() Recognizer { return p.recognizer }

func (p *provider) Embedder() Embedder { return p.embedder }

// Close closes the underlying services that have a Close method.
func (p *provider) Close() error {
	var firstErr error
	for _, svc := range []any{p.recognizer, p.embedder} {
		if closer, ok := svc.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
