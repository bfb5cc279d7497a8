// Package catalog fetches the warehouse material catalog over HTTP.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/palletic/warevec/core"
)

// Client fetches material records from the catalog API.
// The catalog is read in one call; the API has no pagination.
type Client struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		c.client = h
	}
}

// NewClient creates a catalog client for the given URL.
func NewClient(url string, opts ...ClientOption) *Client {
	c := &Client{
		url:    url,
		client: &http.Client{Timeout: 60 * time.Second},
		logger: slog.Default().With("component", "catalog-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchMaterials retrieves the full catalog. Any response other than 200 is
// a fatal fetch error; callers abort the run rather than retry here.
func (c *Client) FetchMaterials(ctx context.Context) ([]core.MaterialRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %s %s", ErrUnexpectedStatus, resp.Status, string(b))
	}

	var records []core.MaterialRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding catalog response: %w", err)
	}

	c.logger.Info("fetched materials from catalog", "count", len(records))
	return records, nil
}
