package mock

import (
	"context"
	"encoding/binary"
	"hash/fnv"
)

// MockEmbedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields.
type MockEmbedder struct {
	// EmbedTokensFunc is called by EmbedTokens if set.
	// If nil, uses default deterministic behavior.
	EmbedTokensFunc func(ctx context.Context, ids, mask []int) ([]float32, error)

	callCount int
}

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// EmbedTokens generates a deterministic embedding from the token id sequence.
// The same sequence always produces the same vector.
func (m *MockEmbedder) EmbedTokens(ctx context.Context, ids, mask []int) ([]float32, error) {
	m.callCount++

	if m.EmbedTokensFunc != nil {
		return m.EmbedTokensFunc(ctx, ids, mask)
	}

	return generateDeterministicVector(ids, 384), nil
}

// CallCount returns the number of times EmbedTokens was called.
func (m *MockEmbedder) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockEmbedder) Reset() {
	m.callCount = 0
	m.EmbedTokensFunc = nil
}

// generateDeterministicVector creates a deterministic embedding vector from a
// token id sequence. It uses FNV hashing so the same sequence always produces
// the same vector.
func generateDeterministicVector(ids []int, dim int) []float32 {
	h := fnv.New32a()
	var buf [8]byte
	for _, id := range ids {
		binary.LittleEndian.PutUint64(buf[:], uint64(id))
		h.Write(buf[:])
	}
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
	}

	// Normalize to unit length
	var sumSquares float32
	for _, v := range vector {
		sumSquares += v * v
	}
	if sumSquares > 0 {
		norm := float32(1.0) / sumSquares
		for i := range vector {
			vector[i] *= norm
		}
	}

	return vector
}
