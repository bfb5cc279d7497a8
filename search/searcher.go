package search

import (
	"context"
	"log/slog"

	"github.com/palletic/warevec/ai"
	"github.com/palletic/warevec/core"
	"github.com/palletic/warevec/storage"
)

// Default parameters applied when a Request leaves them unset.
const (
	DefaultLimit          = 5
	DefaultScoreThreshold = 0.5
)

// Request describes one search invocation.
type Request struct {
	// Query is the free-text query. Must not be blank.
	Query string

	// Limit caps the number of results. Default 5.
	Limit int

	// ScoreThreshold drops results scoring below it. Zero keeps every
	// non-negative hit; callers wanting the usual cutoff pass
	// DefaultScoreThreshold themselves.
	ScoreThreshold float32

	// Filter restricts results to points whose payload fields equal
	// every given value. Nil means unrestricted.
	Filter map[string]string
}

func (r Request) withDefaults() Request {
	if r.Limit <= 0 {
		r.Limit = DefaultLimit
	}
	return r
}

// Searcher answers semantic queries against the material index.
type Searcher struct {
	embedder ai.Embedder
	index    storage.VectorIndex
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(embedder ai.Embedder, index storage.VectorIndex, opts ...Option) (*Searcher, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}

	s := &Searcher{
		embedder: embedder,
		index:    index,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// Search runs one query and returns results ordered by descending score.
func (s *Searcher) Search(ctx context.Context, req Request) ([]core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, req, nil)
}

// SearchWithMonitor runs one query with observation hooks. The monitor
// receives callbacks at each stage of the search.
func (s *Searcher) SearchWithMonitor(ctx context.Context, req Request, monitor SearchMonitor) ([]core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	req = req.withDefaults()
	req.Query = normalizeQuery(req.Query)
	if req.Query == "" {
		return nil, ErrEmptyQuery
	}

	monitor.Start(req.Query)

	// The query role, never passage. Asymmetric retrieval models encode
	// the two sides differently.
	vector, err := s.embedder.EmbedQuery(ctx, req.Query)
	if err != nil {
		s.logger.Error("error encoding query", "err", err)
		return nil, err
	}
	monitor.AfterQueryEncode(vector)

	results, err := s.index.Search(ctx, vector, storage.SearchParams{
		Limit:          req.Limit,
		ScoreThreshold: req.ScoreThreshold,
		Filter:         req.Filter,
	})
	if err != nil {
		s.logger.Error("error querying index", "err", err)
		return nil, err
	}

	s.logger.Debug("search complete",
		"query", req.Query, "hits", len(results), "limit", req.Limit)
	monitor.Finish(results)

	return results, nil
}
