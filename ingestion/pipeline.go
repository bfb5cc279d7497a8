package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/palletic/warevec/ai"
	"github.com/palletic/warevec/core"
	"github.com/palletic/warevec/storage"
)

// Default tuning for a pipeline run.
const (
	DefaultBatchSize  = 20
	DefaultMaxWorkers = 5
	DefaultDelay      = 100 * time.Millisecond
)

// CatalogSource supplies the material records to index.
type CatalogSource interface {
	FetchMaterials(ctx context.Context) ([]core.MaterialRecord, error)
}

// ProgressFunc receives a progress update after every batch.
// progress is a percentage in [0, 100].
type ProgressFunc func(progress float64, processed, total int)

// Params tunes a single pipeline run.
type Params struct {
	// BatchSize is the number of records per batch.
	BatchSize int

	// MaxWorkers bounds concurrent encodes within a batch.
	MaxWorkers int

	// Delay is the pause between consecutive batches, pacing the
	// embedding service and the store.
	Delay time.Duration

	// OnProgress, if set, is invoked after every batch. Panics in the
	// callback are logged and swallowed.
	OnProgress ProgressFunc
}

func (p Params) withDefaults() Params {
	if p.BatchSize <= 0 {
		p.BatchSize = DefaultBatchSize
	}
	if p.MaxWorkers <= 0 {
		p.MaxWorkers = DefaultMaxWorkers
	}
	if p.Delay <= 0 {
		p.Delay = DefaultDelay
	}
	return p
}

// Pipeline orchestrates catalog ingestion into the vector index.
// A single Pipeline is safe for concurrent runs; each run creates its
// own worker pool.
type Pipeline struct {
	source   CatalogSource
	embedder ai.Embedder
	index    storage.VectorIndex
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(source CatalogSource, embedder ai.Embedder, index storage.VectorIndex, opts ...Option) (*Pipeline, error) {
	if source == nil {
		return nil, ErrCatalogRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}

	p := &Pipeline{
		source:   source,
		embedder: embedder,
		index:    index,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "ingestion-pipeline")

	return p, nil
}

// Run executes one full ingestion pass: fetch the catalog, prepare the
// collection, then encode and upsert batch by batch.
//
// Only the catalog fetch and collection preparation fail the run. Item
// and batch failures are counted and absorbed into the Summary; the run
// continues with the next batch.
func (p *Pipeline) Run(ctx context.Context, params Params) (*core.Summary, error) {
	params = params.withDefaults()
	start := time.Now()

	records, err := p.source.FetchMaterials(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}

	total := len(records)
	if total == 0 {
		p.logger.Info("catalog empty, nothing to index")
		return &core.Summary{Duration: time.Since(start), Success: true}, nil
	}

	if err := p.index.EnsureCollection(ctx, p.embedder.Dimension()); err != nil {
		return nil, fmt.Errorf("preparing collection: %w", err)
	}

	pool, err := ants.NewPool(params.MaxWorkers)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	p.logger.Info("starting ingestion run",
		"total", total,
		"batch_size", params.BatchSize,
		"max_workers", params.MaxWorkers)

	processed, failed := 0, 0
	batches := partition(records, params.BatchSize)

	for i, batch := range batches {
		points, itemFailures := p.encodeBatch(ctx, pool, batch)

		if err := p.index.Upsert(ctx, points); err != nil {
			// The whole batch counts as failed; the run continues.
			p.logger.Error("batch upsert failed", "batch", i+1, "size", len(batch), "err", err)
			failed += len(batch)
		} else {
			processed += len(points)
			failed += itemFailures
		}

		attempted := processed + failed
		progress := min(100, float64(attempted)/float64(total)*100)
		p.notifyProgress(params.OnProgress, progress, processed, total)

		if i < len(batches)-1 {
			select {
			case <-time.After(params.Delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	summary := &core.Summary{
		Total:     total,
		Processed: processed,
		Failed:    failed,
		Duration:  time.Since(start),
		Success:   failed < total,
	}

	p.logger.Info("ingestion run finished",
		"total", summary.Total,
		"processed", summary.Processed,
		"failed", summary.Failed,
		"duration", summary.Duration.Round(time.Millisecond),
		"success", summary.Success)

	return summary, nil
}

// notifyProgress invokes the progress callback, shielding the run from
// panics inside it.
func (p *Pipeline) notifyProgress(fn ProgressFunc, progress float64, processed, total int) {
	if fn == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("progress callback panicked", "panic", r)
		}
	}()

	fn(progress, processed, total)
}

// partition splits records into consecutive chunks of size.
// The last chunk may be smaller.
func partition(records []core.MaterialRecord, size int) [][]core.MaterialRecord {
	var chunks [][]core.MaterialRecord
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		chunks = append(chunks, records[start:end])
	}
	return chunks
}
