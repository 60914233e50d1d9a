package retrieval

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperless-rag-api/internal/config"
)

func answererWith(t *testing.T, searchResults []*VectorSearchResult, genFn func(prompt string, temperature float32) (string, error)) *Answerer {
	t.Helper()

	vec := newFakeVector()
	vec.searchFn = func(*VectorSearchParams) ([]*VectorSearchResult, error) {
		return searchResults, nil
	}
	engine := NewEngine(&fakeEmbedder{}, vec, nil, nil, nil, nil, EngineConfig{MultiQuery: false})
	gen := &fakeGenerator{fn: genFn}
	estimator := NewConfidenceEstimator(config.ConfidenceConfig{})
	return NewAnswerer(engine, gen, estimator, 3)
}

func TestAskNoDocumentsFallback(t *testing.T) {
	a := answererWith(t, nil, func(string, float32) (string, error) {
		t.Fatal("generator must not be called without context documents")
		return "", nil
	})

	answer, err := a.Ask(context.Background(), "Wie lautet meine Steuer-ID?", nil)

	require.NoError(t, err)
	assert.Equal(t, fallbackNoDocuments, answer.Text)
	assert.Empty(t, answer.Sources)
	assert.Equal(t, ConfidenceLow, answer.Confidence)
}

func TestAskEmptyGenerationKeepsSources(t *testing.T) {
	docs := []*VectorSearchResult{
		{DocumentID: 1, Title: "Steuerbescheid 2024", Distance: ptr(0.2)},
		{DocumentID: 2, Title: "Lohnabrechnung", Distance: ptr(0.4)},
	}
	a := answererWith(t, docs, func(string, float32) (string, error) {
		return "", fmt.Errorf("provider down")
	})

	answer, err := a.Ask(context.Background(), "Wie lautet meine Steuer-ID?", nil)

	require.NoError(t, err)
	assert.Equal(t, fallbackEmptyAnswer, answer.Text)
	require.Len(t, answer.Sources, 2)
	assert.Equal(t, ConfidenceLow, answer.Confidence)
}

func TestAskBuildsAnswerWithRelevance(t *testing.T) {
	docs := []*VectorSearchResult{
		{DocumentID: 1, Title: "Steuerbescheid 2024", Correspondent: "Finanzamt", DocumentType: "Bescheid", Distance: ptr(0.2)},
	}
	var seenPrompt string
	a := answererWith(t, docs, func(prompt string, temperature float32) (string, error) {
		seenPrompt = prompt
		assert.InDelta(t, 0.7, temperature, 0.001)
		return "  Laut Dokument 1 lautet die Steuer-ID 12 345 678 901. Sie steht im Steuerbescheid des Finanzamts vom letzten Jahr.  ", nil
	})

	answer, err := a.Ask(context.Background(), "Wie lautet meine Steuer-ID?", nil)

	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(answer.Text, " "), "answer must be trimmed")
	assert.Contains(t, seenPrompt, "[Dokument 1]")
	assert.Contains(t, seenPrompt, "Titel: Steuerbescheid 2024")
	assert.Contains(t, seenPrompt, "Von: Finanzamt")
	assert.Contains(t, seenPrompt, "Wie lautet meine Steuer-ID?")

	require.Len(t, answer.Sources, 1)
	require.NotNil(t, answer.Sources[0].RelevanceScore)
	assert.InDelta(t, 0.9, *answer.Sources[0].RelevanceScore, 0.001)
}

func TestAskTruncatesContextDocs(t *testing.T) {
	docs := make([]*VectorSearchResult, 0, 6)
	for i := 1; i <= 6; i++ {
		docs = append(docs, &VectorSearchResult{DocumentID: int64(i), Title: fmt.Sprintf("Doc %d", i), Distance: ptr(float64(i) / 10)})
	}
	a := answererWith(t, docs, func(prompt string, _ float32) (string, error) {
		assert.NotContains(t, prompt, "[Dokument 4]")
		return "Eine ausreichend lange Antwort basierend auf den ersten drei Dokumenten aus dem Archiv.", nil
	})

	answer, err := a.Ask(context.Background(), "Was steht in den Dokumenten?", nil)

	require.NoError(t, err)
	assert.Len(t, answer.Sources, 3)
}

func TestAskRetrievalFailureFallback(t *testing.T) {
	embedder := &fakeEmbedder{fn: func([]string) ([][]float64, error) {
		return nil, fmt.Errorf("provider down")
	}}
	engine := NewEngine(embedder, newFakeVector(), nil, nil, nil, nil, EngineConfig{MultiQuery: false})
	a := NewAnswerer(engine, &fakeGenerator{fn: func(string, float32) (string, error) {
		t.Fatal("generator must not be called when retrieval fails")
		return "", nil
	}}, NewConfidenceEstimator(config.ConfidenceConfig{}), 3)

	answer, err := a.Ask(context.Background(), "Wie lautet meine Steuer-ID?", nil)

	require.NoError(t, err)
	assert.Equal(t, fallbackRetrievalError, answer.Text)
	assert.Empty(t, answer.Sources)
	assert.Equal(t, ConfidenceLow, answer.Confidence)
}

func TestAskEmptyQuestionRejected(t *testing.T) {
	a := answererWith(t, nil, nil)

	_, err := a.Ask(context.Background(), "  ", nil)

	assert.Error(t, err)
}
