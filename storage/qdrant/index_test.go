package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palletic/warevec/core"
	"github.com/palletic/warevec/storage"
)

func TestEnsureCollection_CreatesWhenAbsent(t *testing.T) {
	var createBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/material_vectors", r.URL.Path)

		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&createBody))
			w.Write([]byte(`{"result": true, "status": "ok"}`))
		default:
			t.Fatalf("unexpected method %s", r.Method)
		}
	}))
	defer server.Close()

	index, err := newIndex(server.URL)
	require.NoError(t, err)

	require.NoError(t, index.EnsureCollection(context.Background(), 384))

	require.NotNil(t, createBody, "collection create call expected")
	vectors := createBody["vectors"].(map[string]any)
	assert.Equal(t, float64(384), vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])
}

func TestEnsureCollection_VerifiesExisting(t *testing.T) {
	var putCalls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			atomic.AddInt32(&putCalls, 1)
		}
		w.Write([]byte(`{"result": {"config": {"params": {"vectors": {"size": 384, "distance": "Cosine"}}}}}`))
	}))
	defer server.Close()

	index, err := newIndex(server.URL)
	require.NoError(t, err)

	require.NoError(t, index.EnsureCollection(context.Background(), 384))
	assert.Zero(t, atomic.LoadInt32(&putCalls), "existing collection must not be re-created")
}

func TestEnsureCollection_DimensionMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result": {"config": {"params": {"vectors": {"size": 512, "distance": "Cosine"}}}}}`))
	}))
	defer server.Close()

	index, err := newIndex(server.URL)
	require.NoError(t, err)

	err = index.EnsureCollection(context.Background(), 384)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
}

func TestEnsureCollection_StoreDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	index, err := newIndex(server.URL)
	require.NoError(t, err)

	err = index.EnsureCollection(context.Background(), 384)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrStoreUnavailable)
}

func TestUpsert(t *testing.T) {
	var upsertBody struct {
		Points []struct {
			ID      uint64         `json:"id"`
			Vector  []float32      `json:"vector"`
			Payload map[string]any `json:"payload"`
		} `json:"points"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/collections/material_vectors/points", r.URL.Path)
		require.Equal(t, "true", r.URL.Query().Get("wait"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&upsertBody))
		w.Write([]byte(`{"result": {"status": "completed"}, "status": "ok"}`))
	}))
	defer server.Close()

	index, err := newIndex(server.URL)
	require.NoError(t, err)

	points := []core.IndexedPoint{
		{ID: 1, Vector: []float32{0.1, 0.2}, Payload: map[string]any{"materialCode": "MAT-0001"}},
		{ID: 2, Vector: []float32{0.3, 0.4}, Payload: map[string]any{"materialCode": "MAT-0002"}},
	}
	require.NoError(t, index.Upsert(context.Background(), points))

	require.Len(t, upsertBody.Points, 2)
	assert.Equal(t, uint64(1), upsertBody.Points[0].ID)
	assert.Equal(t, "MAT-0002", upsertBody.Points[1].Payload["materialCode"])
}

func TestUpsert_EmptyInput(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	index, err := newIndex(server.URL)
	require.NoError(t, err)

	require.NoError(t, index.Upsert(context.Background(), nil))
	assert.Zero(t, atomic.LoadInt32(&calls), "empty upsert must not hit the store")
}

func TestUpsert_DropsInvalidPoints(t *testing.T) {
	var upsertBody struct {
		Points []struct {
			ID uint64 `json:"id"`
		} `json:"points"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&upsertBody))
		w.Write([]byte(`{"status": "ok"}`))
	}))
	defer server.Close()

	index, err := newIndex(server.URL)
	require.NoError(t, err)

	points := []core.IndexedPoint{
		{ID: 0, Vector: []float32{0.1}}, // zero id
		{ID: 7, Vector: []float32{0.1}}, // valid
		{ID: 8, Vector: nil},            // empty vector
	}
	require.NoError(t, index.Upsert(context.Background(), points))

	require.Len(t, upsertBody.Points, 1, "only the valid point is written")
	assert.Equal(t, uint64(7), upsertBody.Points[0].ID)
}

func TestUpsert_AllInvalid(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	index, err := newIndex(server.URL)
	require.NoError(t, err)

	points := []core.IndexedPoint{
		{ID: 0, Vector: []float32{0.1}},
		{ID: 9, Vector: nil},
	}
	require.NoError(t, index.Upsert(context.Background(), points))
	assert.Zero(t, atomic.LoadInt32(&calls), "all-invalid upsert must not hit the store")
}

func TestUpsert_StoreError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status": {"error": "wal full"}}`))
	}))
	defer server.Close()

	index, err := newIndex(server.URL)
	require.NoError(t, err)

	err = index.Upsert(context.Background(), []core.IndexedPoint{{ID: 1, Vector: []float32{0.1}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wal full")
}

func TestSearch(t *testing.T) {
	var searchBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/collections/material_vectors/points/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&searchBody))
		w.Write([]byte(`{"result": [
			{"id": 42, "score": 0.91, "payload": {"materialCode": "MAT-0042", "stockStatus": "critical"}},
			{"id": 7, "score": 0.66, "payload": {"materialCode": "MAT-0007", "stockStatus": "critical"}}
		]}`))
	}))
	defer server.Close()

	index, err := newIndex(server.URL)
	require.NoError(t, err)

	results, err := index.Search(context.Background(), []float32{0.5, 0.5}, storage.SearchParams{
		Limit:          5,
		ScoreThreshold: 0.5,
		Filter:         map[string]string{"stockStatus": "critical"},
	})
	require.NoError(t, err)

	// Request carries limit, threshold, payload flag and the filter clause.
	assert.Equal(t, float64(5), searchBody["limit"])
	assert.Equal(t, 0.5, searchBody["score_threshold"])
	assert.Equal(t, true, searchBody["with_payload"])

	filter := searchBody["filter"].(map[string]any)
	must := filter["must"].([]any)
	require.Len(t, must, 1)
	clause := must[0].(map[string]any)
	assert.Equal(t, "stockStatus", clause["key"])
	assert.Equal(t, map[string]any{"value": "critical"}, clause["match"])

	// Results keep the store's descending-score order.
	require.Len(t, results, 2)
	assert.Equal(t, core.ID(42), results[0].ID)
	assert.InDelta(t, 0.91, float64(results[0].Score), 1e-6)
	assert.Equal(t, "MAT-0042", results[0].Payload["materialCode"])
	assert.Equal(t, core.ID(7), results[1].ID)
}

func TestSearch_NoFilter(t *testing.T) {
	var searchBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&searchBody))
		w.Write([]byte(`{"result": []}`))
	}))
	defer server.Close()

	index, err := newIndex(server.URL)
	require.NoError(t, err)

	results, err := index.Search(context.Background(), []float32{1, 0}, storage.SearchParams{Limit: 3, ScoreThreshold: 0.2})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotContains(t, searchBody, "filter")
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/healthz", r.URL.Path)
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	index, err := newIndex(server.URL)
	require.NoError(t, err)

	assert.NoError(t, index.Health(context.Background()))
}

func TestHealth_Down(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	index, err := newIndex(server.URL)
	require.NoError(t, err)

	err = index.Health(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrStoreUnavailable)
}

func TestNewIndex_RequiresURL(t *testing.T) {
	_, err := NewIndex("")
	require.Error(t, err)
}

func TestNewIndex_Options(t *testing.T) {
	index, err := newIndex("http://localhost:6333",
		WithCollection("custom_vectors"),
		WithAPIKey("secret"),
	)
	require.NoError(t, err)

	assert.Equal(t, "custom_vectors", index.collection)
	assert.Equal(t, "secret", index.apiKey)
}
