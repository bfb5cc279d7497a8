package ai

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmptyEmbedding is returned when the embedding service produces an
	// empty vector.
	ErrEmptyEmbedding = errors.New("embedding service returned empty vector")

	// ErrDimensionDrift is returned when a produced vector's width differs
	// from the dimension probed at construction.
	ErrDimensionDrift = errors.New("embedding dimension differs from probed dimension")
)
