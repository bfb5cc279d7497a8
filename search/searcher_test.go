package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palletic/warevec/ai/mock"
	"github.com/palletic/warevec/core"
	"github.com/palletic/warevec/storage"
)

// testIndex implements storage.VectorIndex for testing
type testIndex struct {
	results    []core.SearchResult
	err        error
	calls      int
	lastVector []float32
	lastParams storage.SearchParams
}

func (ix *testIndex) EnsureCollection(ctx context.Context, dimension int) error {
	return nil
}

func (ix *testIndex) Upsert(ctx context.Context, points []core.IndexedPoint) error {
	return nil
}

func (ix *testIndex) Search(ctx context.Context, vector []float32, params storage.SearchParams) ([]core.SearchResult, error) {
	ix.calls++
	ix.lastVector = vector
	ix.lastParams = params
	if ix.err != nil {
		return nil, ix.err
	}
	return ix.results, nil
}

func (ix *testIndex) Health(ctx context.Context) error {
	return nil
}

// recordingMonitor captures monitor callbacks in order
type recordingMonitor struct {
	stages  []string
	query   string
	vector  []float32
	results []core.SearchResult
}

func (m *recordingMonitor) Start(query string) {
	m.stages = append(m.stages, "start")
	m.query = query
}

func (m *recordingMonitor) AfterQueryEncode(vector []float32) {
	m.stages = append(m.stages, "encode")
	m.vector = vector
}

func (m *recordingMonitor) Finish(results []core.SearchResult) {
	m.stages = append(m.stages, "finish")
	m.results = results
}

func TestNewSearcher_Validation(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	index := &testIndex{}

	_, err := NewSearcher(nil, index)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewSearcher(embedder, nil)
	assert.ErrorIs(t, err, ErrIndexRequired)

	s, err := NewSearcher(embedder, index)
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestSearch_UsesQueryRole(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	index := &testIndex{}

	s, err := NewSearcher(embedder, index)
	require.NoError(t, err)

	_, err = s.Search(context.Background(), Request{Query: "hydraulic pump"})
	require.NoError(t, err)

	assert.Equal(t, 1, embedder.QueryCalls())
	assert.Equal(t, 0, embedder.PassageCalls(), "queries must never use the passage role")
	assert.Len(t, index.lastVector, embedder.Dimension())
}

func TestSearch_PassesParams(t *testing.T) {
	want := []core.SearchResult{
		{ID: 3, Score: 0.92, Payload: map[string]any{"materialCode": "MAT-003"}},
		{ID: 9, Score: 0.71, Payload: map[string]any{"materialCode": "MAT-009"}},
	}
	embedder := mock.NewMockEmbedder()
	index := &testIndex{results: want}

	s, err := NewSearcher(embedder, index)
	require.NoError(t, err)

	got, err := s.Search(context.Background(), Request{
		Query:          "bearing",
		Limit:          7,
		ScoreThreshold: 0.65,
		Filter:         map[string]string{"stockStatus": "critical", "plant": "P01"},
	})
	require.NoError(t, err)

	assert.Equal(t, 7, index.lastParams.Limit)
	assert.InDelta(t, 0.65, float64(index.lastParams.ScoreThreshold), 1e-6)
	assert.Equal(t, map[string]string{"stockStatus": "critical", "plant": "P01"}, index.lastParams.Filter)

	// Results come back unchanged and in order.
	assert.Equal(t, want, got)
}

func TestSearch_Defaults(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	index := &testIndex{}

	s, err := NewSearcher(embedder, index)
	require.NoError(t, err)

	_, err = s.Search(context.Background(), Request{Query: "gasket"})
	require.NoError(t, err)

	assert.Equal(t, DefaultLimit, index.lastParams.Limit)
	assert.Nil(t, index.lastParams.Filter)
}

func TestSearch_ZeroThresholdPassesThrough(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	index := &testIndex{}

	s, err := NewSearcher(embedder, index)
	require.NoError(t, err)

	_, err = s.Search(context.Background(), Request{Query: "gasket", ScoreThreshold: 0})
	require.NoError(t, err)

	assert.Zero(t, index.lastParams.ScoreThreshold)
}

func TestSearch_EmptyQuery(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	index := &testIndex{}

	s, err := NewSearcher(embedder, index)
	require.NoError(t, err)

	for _, query := range []string{"", "   ", "\t\n"} {
		_, err := s.Search(context.Background(), Request{Query: query})
		assert.ErrorIs(t, err, ErrEmptyQuery)
	}

	assert.Equal(t, 0, embedder.CallCount())
	assert.Equal(t, 0, index.calls)
}

func TestSearch_NormalizesQuery(t *testing.T) {
	var seen string
	embedder := mock.NewMockEmbedder()
	embedder.EmbedQueryFunc = func(ctx context.Context, text string) ([]float32, error) {
		seen = text
		return []float32{1, 0, 0}, nil
	}
	index := &testIndex{}

	s, err := NewSearcher(embedder, index)
	require.NoError(t, err)

	_, err = s.Search(context.Background(), Request{Query: "  forklift \t  blade  "})
	require.NoError(t, err)
	assert.Equal(t, "forklift blade", seen)
}

func TestSearch_EmbedError(t *testing.T) {
	encodeErr := errors.New("model offline")
	embedder := mock.NewMockEmbedder()
	embedder.EmbedQueryFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, encodeErr
	}
	index := &testIndex{}

	s, err := NewSearcher(embedder, index)
	require.NoError(t, err)

	_, err = s.Search(context.Background(), Request{Query: "pump"})
	assert.ErrorIs(t, err, encodeErr)
	assert.Equal(t, 0, index.calls)
}

func TestSearch_IndexError(t *testing.T) {
	searchErr := errors.New("store down")
	embedder := mock.NewMockEmbedder()
	index := &testIndex{err: searchErr}

	s, err := NewSearcher(embedder, index)
	require.NoError(t, err)

	_, err = s.Search(context.Background(), Request{Query: "pump"})
	assert.ErrorIs(t, err, searchErr)
}

func TestSearchWithMonitor(t *testing.T) {
	results := []core.SearchResult{{ID: 1, Score: 0.9}}
	embedder := mock.NewMockEmbedder()
	index := &testIndex{results: results}

	s, err := NewSearcher(embedder, index)
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	got, err := s.SearchWithMonitor(context.Background(), Request{Query: "valve seal"}, monitor)
	require.NoError(t, err)

	assert.Equal(t, []string{"start", "encode", "finish"}, monitor.stages)
	assert.Equal(t, "valve seal", monitor.query)
	assert.Len(t, monitor.vector, embedder.Dimension())
	assert.Equal(t, got, monitor.results)
}

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"pump", "pump"},
		{"  hydraulic   pump ", "hydraulic pump"},
		{"a\tb\nc", "a b c"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeQuery(tt.in))
	}
}
