package server

import "errors"

var (
	// ErrRegistryRequired indicates a Handler was constructed without a
	// job registry.
	ErrRegistryRequired = errors.New("job registry is required")

	// ErrPipelineRequired indicates a Handler was constructed without an
	// ingestion pipeline.
	ErrPipelineRequired = errors.New("ingestion pipeline is required")

	// ErrSearcherRequired indicates a Handler was constructed without a
	// searcher.
	ErrSearcherRequired = errors.New("searcher is required")
)
