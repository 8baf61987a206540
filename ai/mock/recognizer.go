package mock

import (
	"context"
	"fmt"

	"github.com/feedscope/feedscope/core"
)

// MockRecognizer is a test double for ai.Recognizer.
// It allows custom behavior injection via function fields.
type MockRecognizer struct {
	// RecognizeTextFunc is called by RecognizeText if set.
	// If nil, uses default deterministic behavior.
	RecognizeTextFunc func(ctx context.Context, image []byte) (string, error)

	callCount int
}

// NewMockRecognizer creates a mock recognizer with default deterministic
// behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockRecognizer() *MockRecognizer {
	return &MockRecognizer{}
}

// RecognizeText returns a deterministic transcript derived from the image
// payload fingerprint, so distinct payloads yield distinct text.
func (m *MockRecognizer) RecognizeText(ctx context.Context, image []byte) (string, error) {
	m.callCount++

	if m.RecognizeTextFunc != nil {
		return m.RecognizeTextFunc(ctx, image)
	}

	if len(image) == 0 {
		return "", nil
	}
	return fmt.Sprintf("recognized text %s", core.Fingerprint(image)), nil
}

// CallCount returns the number of times RecognizeText was called.
func (m *MockRecognizer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockRecognizer) Reset() {
	m.callCount = 0
	m.RecognizeTextFunc = nil
}
