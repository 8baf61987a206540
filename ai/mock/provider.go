package mock

import (
	"github.com/feedscope/feedscope/ai"
)

// MockProvider aggregates mock collaborators for testing.
type MockProvider struct {
	recognizer *MockRecognizer
	embedder   *MockEmbedder
}

// NewMockProvider creates a provider backed by default mock collaborators.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		recognizer: NewMockRecognizer(),
		embedder:   NewMockEmbedder(),
	}
}

// Recognizer returns the mock transcription service.
func (p *MockProvider) Recognizer() ai.Recognizer {
	return p.recognizer
}

// Embedder returns the mock embedding service.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Close is a no-op.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockRecognizer returns the concrete mock for behavior injection and
// call-count assertions.
func (p *MockProvider) GetMockRecognizer() *MockRecognizer {
	return p.recognizer
}

// GetMockEmbedder returns the concrete mock for behavior injection and
// call-count assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

var _ ai.Provider = (*MockProvider)(nil)
