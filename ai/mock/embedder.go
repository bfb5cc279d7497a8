package mock

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/palletic/warevec/ai"
)

// MockEmbedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields.
// Safe for concurrent use; pipelines embed from multiple workers.
type MockEmbedder struct {
	// EmbedQueryFunc is called by EmbedQuery if set.
	// If nil, uses default deterministic behavior.
	EmbedQueryFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedPassageFunc is called by EmbedPassage if set.
	// If nil, uses default deterministic behavior.
	EmbedPassageFunc func(ctx context.Context, text string) ([]float32, error)

	// Dim is the vector width reported by Dimension and produced by the
	// default behavior.
	Dim int

	mu           sync.Mutex
	queryCalls   int
	passageCalls int
}

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{Dim: 384}
}

// EmbedQuery generates a deterministic embedding for query-role text.
// The role prefix participates in the hash, so the same text embedded as a
// query and as a passage produces different vectors, like the real models.
func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.queryCalls++
	fn := m.EmbedQueryFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}

	return generateDeterministicVector(ai.ApplyRolePrefix(ai.QueryPrefix, text), m.Dim), nil
}

// EmbedPassage generates a deterministic embedding for passage-role text.
func (m *MockEmbedder) EmbedPassage(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.passageCalls++
	fn := m.EmbedPassageFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}

	return generateDeterministicVector(ai.ApplyRolePrefix(ai.PassagePrefix, text), m.Dim), nil
}

// Dimension returns the configured vector width.
func (m *MockEmbedder) Dimension() int {
	return m.Dim
}

// QueryCalls returns the number of EmbedQuery invocations.
func (m *MockEmbedder) QueryCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queryCalls
}

// PassageCalls returns the number of EmbedPassage invocations.
func (m *MockEmbedder) PassageCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.passageCalls
}

// CallCount returns the number of times any embed method was called.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queryCalls + m.passageCalls
}

// Reset clears call counts and injected behavior.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCalls = 0
	m.passageCalls = 0
	m.EmbedQueryFunc = nil
	m.EmbedPassageFunc = nil
}

// generateDeterministicVector creates a deterministic embedding vector from text.
// It uses FNV hash to ensure the same text always produces the same vector.
func generateDeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		// Simple pseudo-random generation based on seed and index
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
	}

	return ai.NormalizeVector(vector)
}
