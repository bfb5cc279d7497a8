package ingestion

import "errors"

var (
	// ErrCatalogRequired is returned when a catalog source is not provided.
	ErrCatalogRequired = errors.New("catalog source required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")
)
