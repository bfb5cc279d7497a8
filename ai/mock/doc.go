// Package mock provides a test double implementation of the ai.Embedder interface.
//
// The mock allows tests to run without an external embedding service and
// enables controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockEmbedder := mock.NewMockEmbedder()
//	vec, err := mockEmbedder.EmbedQuery(ctx, "test")
//
//	// Custom behavior injection
//	mockEmbedder.EmbedQueryFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
//	// Check call counts
//	count := mockEmbedder.QueryCalls()
//
// # Default Behavior
//
// MockEmbedder returns unit-length deterministic vectors based on a hash of
// the role-prefixed text, so query and passage embeddings of the same text
// differ just as they do with real retrieval-tuned models.
package mock
