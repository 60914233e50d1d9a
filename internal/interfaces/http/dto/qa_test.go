package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperless-rag-api/internal/application/retrieval"
)

func TestAskRequestToFiltersEmpty(t *testing.T) {
	req := &AskRequest{Question: "Was kostet die Versicherung?"}

	assert.Nil(t, req.ToFilters())
}

func TestAskRequestToFilters(t *testing.T) {
	req := &AskRequest{
		Question:     "Rechnungen von 2024",
		DocumentType: "Rechnung",
		Year:         "2024",
	}

	f := req.ToFilters()
	require.NotNil(t, f)
	assert.Equal(t, "Rechnung", f.DocumentType)
	assert.Equal(t, "2024", f.Year)
	assert.Empty(t, f.Correspondent)
}

func TestNewAskResponse(t *testing.T) {
	score := 0.85
	answer := &retrieval.Answer{
		Question:   "Wann wurde der Vertrag unterschrieben?",
		Text:       "Am 12. März 2024.",
		Confidence: retrieval.ConfidenceHigh,
		Sources: []retrieval.Source{
			{DocumentID: 7, Title: "Vertrag", Correspondent: "Allianz", RelevanceScore: &score},
		},
	}

	resp := NewAskResponse(answer, 1500*time.Millisecond)

	assert.Equal(t, "Am 12. März 2024.", resp.Answer)
	assert.Equal(t, "high", resp.Confidence)
	assert.Equal(t, int64(1500), resp.DurationMs)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, int64(7), resp.Sources[0].DocumentID)
	assert.Equal(t, &score, resp.Sources[0].RelevanceScore)
}

func TestNewSearchResponse(t *testing.T) {
	d := 0.3
	results := []retrieval.SearchResult{
		{DocumentID: 1, Title: "Bescheid", Text: "Inhalt", Distance: &d},
		{DocumentID: 2, Title: "Rechnung", Text: "Inhalt 2"},
	}

	resp := NewSearchResponse(results)

	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, &d, resp.Results[0].Distance)
	assert.Nil(t, resp.Results[1].Distance)
}
