package openai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/palletic/warevec/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	probeText        = "dimension probe"
	probeMaxAttempts = 5
	probeBaseDelay   = 500 * time.Millisecond
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
// The vector dimension is probed once at construction and enforced on every
// subsequent call.
type Embedder struct {
	embedder  embeddings.Embedder
	dimension int
	logger    *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
func newEmbedder(ctx context.Context, config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create OpenAI client configured for embeddings
	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	// Wrap in langchaingo embedder
	wrapped, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	e := &Embedder{
		embedder: wrapped,
		logger:   slog.Default().With("component", "openai-embedder"),
	}

	// Probe the model once to learn the vector dimension, retrying while
	// the embedding service warms up.
	if err := e.probeDimension(ctx); err != nil {
		return nil, fmt.Errorf("probing embedding dimension: %w", err)
	}

	e.logger.Info("embedding model ready", "model", config.EmbeddingModel, "dimension", e.dimension)
	return e, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
// Construction performs one probe embedding to determine the model's vector
// dimension; the probe is retried with backoff so a service that is still
// loading the model does not fail startup immediately.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(ctx context.Context, config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(ctx, config)
}

func (e *Embedder) probeDimension(ctx context.Context) error {
	return ai.RetryWithBackoff(ctx, func() error {
		vec, err := e.embed(ctx, ai.ApplyRolePrefix(ai.PassagePrefix, probeText))
		if err != nil {
			return err
		}
		e.dimension = len(vec)
		return nil
	}, probeMaxAttempts, probeBaseDelay)
}

// Dimension returns the vector width probed at construction.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// EmbedQuery generates an embedding for search-query text.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("embedding query text", "length", len(text))
	return e.embedChecked(ctx, ai.ApplyRolePrefix(ai.QueryPrefix, text))
}

// EmbedPassage generates an embedding for document text bound for the index.
func (e *Embedder) EmbedPassage(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("embedding passage text", "length", len(text))
	return e.embedChecked(ctx, ai.ApplyRolePrefix(ai.PassagePrefix, text))
}

// embed runs one embedding call and normalizes the result to unit length.
func (e *Embedder) embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, err
	}

	if len(vecs) == 0 || len(vecs[0]) == 0 {
		e.logger.Warn("embedder returned empty result")
		return nil, ai.ErrEmptyEmbedding
	}

	return ai.NormalizeVector(vecs[0]), nil
}

// embedChecked embeds and verifies the vector width against the probed
// dimension.
func (e *Embedder) embedChecked(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if len(vec) != e.dimension {
		e.logger.Error("embedding dimension drifted", "got", len(vec), "want", e.dimension)
		return nil, fmt.Errorf("%w: got %d, want %d", ai.ErrDimensionDrift, len(vec), e.dimension)
	}

	return vec, nil
}
