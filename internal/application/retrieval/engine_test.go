package retrieval

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// variantEngine 构造一个三变体检索场景：
// 原始查询与两个改写变体分别映射到不同的向量与结果集。
func variantEngine(t *testing.T, resultsByVariant map[float64][]*VectorSearchResult) *Engine {
	t.Helper()

	embedder := &fakeEmbedder{fn: func(texts []string) ([][]float64, error) {
		var v float64
		switch texts[0] {
		case "Originalfrage":
			v = 1
		case "Variante eins":
			v = 2
		case "Variante zwei":
			v = 3
		default:
			return nil, fmt.Errorf("unexpected embed input: %s", texts[0])
		}
		return [][]float64{{v}}, nil
	}}

	vec := newFakeVector()
	vec.searchFn = func(p *VectorSearchParams) ([]*VectorSearchResult, error) {
		return resultsByVariant[float64(p.QueryVector[0])], nil
	}

	gen := &fakeGenerator{fn: func(string, float32) (string, error) {
		return "Variante eins\nVariante zwei", nil
	}}

	return NewEngine(embedder, vec, gen, nil, nil, nil, EngineConfig{
		QueryVariants: 2,
		MultiQuery:    true,
	})
}

func TestRetrieveDedupFirstSeenWins(t *testing.T) {
	e := variantEngine(t, map[float64][]*VectorSearchResult{
		1: {
			{DocumentID: 1, Title: "A", Distance: ptr(0.1)},
			{DocumentID: 2, Title: "B", Distance: ptr(0.2)},
		},
		2: {
			// 同一文档以更小距离再次出现，但先见先得
			{DocumentID: 1, Title: "A", Distance: ptr(0.05)},
		},
		3: {
			{DocumentID: 3, Title: "C", Distance: ptr(0.3)},
		},
	})

	results, err := e.Retrieve(context.Background(), "Originalfrage", 5, nil)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, int64(1), results[0].DocumentID)
	assert.Equal(t, 0.1, *results[0].Distance)
}

func TestRetrieveSortsByDistanceMissingLast(t *testing.T) {
	embedder := &fakeEmbedder{}
	vec := newFakeVector()
	vec.searchFn = func(*VectorSearchParams) ([]*VectorSearchResult, error) {
		return []*VectorSearchResult{
			{DocumentID: 1, Distance: ptr(0.4)},
			{DocumentID: 2, Distance: nil},
			{DocumentID: 3, Distance: ptr(0.1)},
			{DocumentID: 4, Distance: ptr(0.3)},
		}, nil
	}
	e := NewEngine(embedder, vec, nil, nil, nil, nil, EngineConfig{MultiQuery: false})

	results, err := e.Retrieve(context.Background(), "egal", 10, nil)

	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, int64(3), results[0].DocumentID)
	assert.Equal(t, int64(4), results[1].DocumentID)
	assert.Equal(t, int64(1), results[2].DocumentID)
	assert.Nil(t, results[3].Distance)
}

func TestRetrieveParaphraseFailureDegrades(t *testing.T) {
	embedder := &fakeEmbedder{}
	vec := newFakeVector()
	vec.searchFn = func(*VectorSearchParams) ([]*VectorSearchResult, error) {
		return []*VectorSearchResult{{DocumentID: 7, Distance: ptr(0.2)}}, nil
	}
	gen := &fakeGenerator{fn: func(string, float32) (string, error) {
		return "", fmt.Errorf("provider down")
	}}
	e := NewEngine(embedder, vec, gen, nil, nil, nil, EngineConfig{MultiQuery: true})

	results, err := e.Retrieve(context.Background(), "egal", 5, nil)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(7), results[0].DocumentID)
}

func TestRetrieveTruncatesToTopK(t *testing.T) {
	embedder := &fakeEmbedder{}
	vec := newFakeVector()
	vec.searchFn = func(*VectorSearchParams) ([]*VectorSearchResult, error) {
		out := make([]*VectorSearchResult, 0, 10)
		for i := 1; i <= 10; i++ {
			out = append(out, &VectorSearchResult{DocumentID: int64(i), Distance: ptr(float64(i) / 10)})
		}
		return out, nil
	}
	e := NewEngine(embedder, vec, nil, nil, nil, nil, EngineConfig{MultiQuery: false})

	results, err := e.Retrieve(context.Background(), "egal", 3, nil)

	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestRetrievePostFiltersYearAndTags(t *testing.T) {
	embedder := &fakeEmbedder{}
	vec := newFakeVector()
	vec.searchFn = func(*VectorSearchParams) ([]*VectorSearchResult, error) {
		return []*VectorSearchResult{
			{DocumentID: 1, Created: "2024-05-01", Tags: "steuer, wichtig", Distance: ptr(0.1)},
			{DocumentID: 2, Created: "2023-05-01", Tags: "steuer", Distance: ptr(0.2)},
			{DocumentID: 3, Created: "2024-07-01", Tags: "privat", Distance: ptr(0.3)},
		}, nil
	}
	e := NewEngine(embedder, vec, nil, nil, nil, nil, EngineConfig{MultiQuery: false})

	results, err := e.Retrieve(context.Background(), "egal", 10, &Filters{
		Year: "2024",
		Tags: []string{"steuer"},
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].DocumentID)
}

func TestRetrievePostFiltersMonth(t *testing.T) {
	embedder := &fakeEmbedder{}
	vec := newFakeVector()
	vec.searchFn = func(*VectorSearchParams) ([]*VectorSearchResult, error) {
		return []*VectorSearchResult{
			{DocumentID: 1, Created: "2024-03-12", Distance: ptr(0.1)},
			{DocumentID: 2, Created: "2024-11-12", Distance: ptr(0.2)},
		}, nil
	}
	e := NewEngine(embedder, vec, nil, nil, nil, nil, EngineConfig{MultiQuery: false})

	results, err := e.Retrieve(context.Background(), "egal", 10, &Filters{Month: "03"})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].DocumentID)
}

func TestRetrievePushesStoreFilters(t *testing.T) {
	embedder := &fakeEmbedder{}
	vec := newFakeVector()
	var captured *VectorSearchParams
	vec.searchFn = func(p *VectorSearchParams) ([]*VectorSearchResult, error) {
		captured = p
		return nil, nil
	}
	e := NewEngine(embedder, vec, nil, nil, nil, nil, EngineConfig{MultiQuery: false})

	_, err := e.Retrieve(context.Background(), "egal", 5, &Filters{
		DocumentType:  "Rechnung",
		Correspondent: "Amazon",
	})

	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, "Rechnung", captured.DocumentType)
	assert.Equal(t, "Amazon", captured.Correspondent)
}

func TestRetrieveEmptyQueryRejected(t *testing.T) {
	e := NewEngine(&fakeEmbedder{}, newFakeVector(), nil, nil, nil, nil, EngineConfig{})

	_, err := e.Retrieve(context.Background(), "   ", 5, nil)

	assert.Error(t, err)
}
