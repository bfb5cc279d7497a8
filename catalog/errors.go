package catalog

import "errors"

var (
	// ErrCatalogUnreachable indicates the catalog API could not be reached.
	ErrCatalogUnreachable = errors.New("catalog API unreachable")

	// ErrUnexpectedStatus indicates the catalog API answered with a
	// non-200 status.
	ErrUnexpectedStatus = errors.New("catalog API returned unexpected status")
)
