package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
//
// The underlying models are retrieval-tuned: query text and stored passage
// text are embedded with different role prefixes, and mixing them up
// silently degrades ranking quality. Callers pick the role by method;
// prefix handling happens inside the implementation.
type Embedder interface {
	// EmbedQuery generates an embedding for search-query text.
	// The text is prefixed for the query role before embedding; any role
	// prefix already present is stripped first so prefixes never stack.
	// The returned vector is L2-normalized.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedPassage generates an embedding for document text that will be
	// stored in the index. The text is prefixed for the passage role before
	// embedding, with the same strip-then-apply rule as EmbedQuery.
	// The returned vector is L2-normalized.
	EmbedPassage(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the width of the vectors this embedder produces.
	// The value is determined once when the embedder is constructed and
	// never changes afterwards.
	Dimension() int
}
