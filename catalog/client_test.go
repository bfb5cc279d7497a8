package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchMaterials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 1, "materialNo": "MAT-0001", "description": "Hex bolt M8", "stock": 120.5},
			{"id": 2, "materialNo": "MAT-0002", "description": "Washer M8", "stock": null}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	records, err := client.FetchMaterials(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, int64(1), records[0].ID)
	assert.Equal(t, "MAT-0001", records[0].MaterialNo)
	require.NotNil(t, records[0].Stock)
	assert.Equal(t, 120.5, *records[0].Stock)

	assert.Nil(t, records[1].Stock, "null numeric decodes as nil")
}

func TestFetchMaterials_EmptyCatalog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	records, err := client.FetchMaterials(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchMaterials_NonOKStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"server error", http.StatusInternalServerError},
		{"not found", http.StatusNotFound},
		{"redirect-ish", http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewClient(server.URL)
			records, err := client.FetchMaterials(context.Background())

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnexpectedStatus)
			assert.Nil(t, records)
		})
	}
}

func TestFetchMaterials_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // Shut down before the call so the dial fails.

	client := NewClient(server.URL)
	_, err := client.FetchMaterials(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCatalogUnreachable)
}

func TestFetchMaterials_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "an array"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.FetchMaterials(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding catalog response")
}

func TestFetchMaterials_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(server.URL)
	_, err := client.FetchMaterials(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
