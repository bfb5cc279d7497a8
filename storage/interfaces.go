package storage

import (
	"context"
	"time"

	"github.com/palletic/warevec/core"
)

// SearchParams bound a similarity query against the vector index.
type SearchParams struct {
	// Limit caps the number of returned results.
	Limit int

	// ScoreThreshold drops results scoring below it.
	ScoreThreshold float32

	// Filter restricts results to points whose payload fields equal ALL
	// given values (conjunction). Nil or empty means unrestricted.
	Filter map[string]string
}

// VectorIndex wraps the vector store used for semantic search over materials.
// Implementations must be thread-safe and support concurrent access.
type VectorIndex interface {
	// EnsureCollection verifies the collection exists with the given vector
	// dimension, creating it with cosine distance when absent. If the
	// collection exists with a different dimension the call fails with
	// ErrDimensionMismatch; a mismatch is never silently tolerated.
	EnsureCollection(ctx context.Context, dimension int) error

	// Upsert writes points keyed by their IDs, replacing any prior point
	// under the same id (last-write-wins, no versioning). Empty input is a
	// no-op. Points that fail validation are logged and dropped from the
	// write, never failing the whole call.
	Upsert(ctx context.Context, points []core.IndexedPoint) error

	// Search returns up to params.Limit results with score >=
	// params.ScoreThreshold, ordered by descending score.
	Search(ctx context.Context, vector []float32, params SearchParams) ([]core.SearchResult, error)

	// Health reports whether the store is reachable.
	Health(ctx context.Context) error
}

// JobArchive persists terminal job snapshots so finished runs survive
// process restarts. The live registry stays in memory; the archive only
// sees jobs that reached a terminal state.
type JobArchive interface {
	// ArchiveJob stores a terminal job snapshot.
	ArchiveJob(ctx context.Context, job *core.Job) error

	// GetJob retrieves an archived job by id.
	// Returns ErrNotFound if the job was never archived.
	GetJob(ctx context.Context, id string) (*core.Job, error)

	// ListJobs returns all archived jobs, most recently finished first.
	ListJobs(ctx context.Context) ([]*core.Job, error)

	// PurgeOlderThan removes archived jobs that finished before the cutoff.
	// Returns the number of removed jobs.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)

	// Close closes the archive and releases resources.
	Close() error
}
