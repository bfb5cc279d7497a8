// Package qdrant implements the vector index against Qdrant's REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/palletic/warevec/core"
	"github.com/palletic/warevec/storage"
)

// DefaultCollection is the collection holding material vectors.
const DefaultCollection = "material_vectors"

// Index implements storage.VectorIndex using Qdrant's REST API.
type Index struct {
	baseURL    string
	collection string
	apiKey     string
	client     *http.Client
	logger     *slog.Logger
}

var _ storage.VectorIndex = (*Index)(nil)

// Option configures an Index.
type Option func(*Index)

// WithCollection overrides the collection name.
func WithCollection(name string) Option {
	return func(i *Index) {
		i.collection = name
	}
}

// WithAPIKey sets the api-key header for Qdrant Cloud deployments.
func WithAPIKey(key string) Option {
	return func(i *Index) {
		i.apiKey = key
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(i *Index) {
		i.client = h
	}
}

// NewIndex creates a Qdrant-backed vector index.
//
// Returns storage.VectorIndex interface to enforce abstraction.
func NewIndex(baseURL string, opts ...Option) (storage.VectorIndex, error) {
	return newIndex(baseURL, opts...)
}

func newIndex(baseURL string, opts ...Option) (*Index, error) {
	if baseURL == "" {
		return nil, errors.New("qdrant base URL is required")
	}

	idx := &Index{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		collection: DefaultCollection,
		client:     &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default().With("component", "qdrant-index"),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx, nil
}

// EnsureCollection verifies the collection exists with the given dimension,
// creating it with cosine distance when absent. An existing collection with
// a different dimension fails with storage.ErrDimensionMismatch.
func (i *Index) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}

	url := fmt.Sprintf("%s/collections/%s", i.baseURL, i.collection)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	i.setHeaders(req)

	resp, err := i.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Collection exists; read back its configured dimension.
		var info struct {
			Result struct {
				Config struct {
					Params struct {
						Vectors struct {
							Size int `json:"size"`
						} `json:"vectors"`
					} `json:"params"`
				} `json:"config"`
			} `json:"result"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
			return fmt.Errorf("decode collection info: %w", err)
		}

		if got := info.Result.Config.Params.Vectors.Size; got != dimension {
			return fmt.Errorf("%w: collection %q has dimension %d, embedder produces %d",
				storage.ErrDimensionMismatch, i.collection, got, dimension)
		}

		i.logger.Debug("collection verified", "collection", i.collection, "dimension", dimension)
		return nil

	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return i.createCollection(ctx, dimension)

	default:
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant collection check failed: %s %s", resp.Status, string(b))
	}
}

func (i *Index) createCollection(ctx context.Context, dimension int) error {
	i.logger.Info("creating collection", "collection", i.collection, "dimension", dimension)

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}

	url := fmt.Sprintf("%s/collections/%s", i.baseURL, i.collection)
	return i.putJSON(ctx, url, body)
}

// Upsert writes points in one call, replacing prior points under the same
// ids. Points failing validation are logged and dropped; the remainder is
// still written.
func (i *Index) Upsert(ctx context.Context, points []core.IndexedPoint) error {
	if len(points) == 0 {
		return nil
	}

	wire := make([]map[string]any, 0, len(points))
	for idx := range points {
		p := &points[idx]
		if err := core.ValidatePoint(p); err != nil {
			i.logger.Warn("dropping invalid point", "id", uint64(p.ID), "err", err)
			continue
		}
		wire = append(wire, map[string]any{
			"id":      uint64(p.ID),
			"vector":  p.Vector,
			"payload": p.Payload,
		})
	}

	if len(wire) == 0 {
		i.logger.Warn("no valid points to upsert")
		return nil
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", i.baseURL, i.collection)
	if err := i.putJSON(ctx, url, map[string]any{"points": wire}); err != nil {
		return err
	}

	i.logger.Info("upserted points", "count", len(wire))
	return nil
}

// Search runs a filtered similarity query and returns hits ordered by
// descending score, as ranked by the store.
func (i *Index) Search(ctx context.Context, vector []float32, params storage.SearchParams) ([]core.SearchResult, error) {
	body := map[string]any{
		"vector":          vector,
		"limit":           params.Limit,
		"score_threshold": params.ScoreThreshold,
		"with_payload":    true,
		"with_vectors":    false,
	}

	if len(params.Filter) > 0 {
		var must []any
		for k, v := range params.Filter {
			must = append(must, map[string]any{
				"key":   k,
				"match": map[string]any{"value": v},
			})
		}
		body["filter"] = map[string]any{"must": must}
	}

	var decoded struct {
		Result []struct {
			ID      uint64         `json:"id"`
			Score   float32        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", i.baseURL, i.collection)
	if err := i.postJSON(ctx, url, body, &decoded); err != nil {
		return nil, err
	}

	results := make([]core.SearchResult, 0, len(decoded.Result))
	for _, r := range decoded.Result {
		results = append(results, core.SearchResult{
			ID:      core.ID(r.ID),
			Score:   r.Score,
			Payload: r.Payload,
		})
	}
	return results, nil
}

// Health reports whether Qdrant is reachable.
func (i *Index) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/healthz", i.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	i.setHeaders(req)

	resp, err := i.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant unhealthy: %s", resp.Status)
	}
	return nil
}

func (i *Index) setHeaders(req *http.Request) {
	if req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if i.apiKey != "" {
		req.Header.Set("api-key", i.apiKey)
	}
}

func (i *Index) putJSON(ctx context.Context, url string, body any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	i.setHeaders(req)

	resp, err := i.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant PUT failed: %s %s", resp.Status, string(b))
	}
	return nil
}

func (i *Index) postJSON(ctx context.Context, url string, body any, out any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	i.setHeaders(req)

	resp, err := i.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant POST failed: %s %s", resp.Status, string(b))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
