package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperless-rag-api/internal/config"
)

func TestOllamaEmbedStrings(t *testing.T) {
	var prompts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embeddings", r.URL.Path)
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		prompts = append(prompts, req.Prompt)
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float64{0.1, 0.2}})
	}))
	t.Cleanup(srv.Close)

	c := NewOllamaEmbedder(&config.EmbeddingConfig{Endpoint: srv.URL, Model: "nomic-embed-text"})

	vecs, err := c.EmbedStrings(context.Background(), []string{"eins", "zwei"})

	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float64{0.1, 0.2}, vecs[0])
	assert.Equal(t, []string{"eins", "zwei"}, prompts)
}

func TestOllamaEmbedEmptyResponseFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{})
	}))
	t.Cleanup(srv.Close)

	c := NewOllamaEmbedder(&config.EmbeddingConfig{Endpoint: srv.URL})

	_, err := c.EmbedStrings(context.Background(), []string{"eins"})

	assert.Error(t, err)
}

func TestOllamaEmbedServerErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := NewOllamaEmbedder(&config.EmbeddingConfig{Endpoint: srv.URL})

	_, err := c.EmbedStrings(context.Background(), []string{"eins"})

	assert.Error(t, err)
}
