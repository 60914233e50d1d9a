package paperless

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperless-rag-api/internal/config"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}

	mux.HandleFunc("/api/tags/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"count": 2,
			"next":  nil,
			"results": []map[string]any{
				{"id": 1, "name": "Steuer"},
				{"id": 2, "name": "Wichtig"},
			},
		})
	})
	mux.HandleFunc("/api/document_types/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"count": 1,
			"next":  nil,
			"results": []map[string]any{
				{"id": 5, "name": "Rechnung"},
			},
		})
	})
	mux.HandleFunc("/api/correspondents/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"count": 1,
			"next":  nil,
			"results": []map[string]any{
				{"id": 9, "name": "Amazon"},
			},
		})
	})
	mux.HandleFunc("/api/documents/1/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]any{
			"id":                    1,
			"title":                 "Rechnung April",
			"content":               "Rechnungsbetrag 42 EUR",
			"correspondent":         9,
			"document_type":         5,
			"tags":                  []int{1, 2},
			"created":               "2024-04-02T10:00:00+02:00",
			"archive_serial_number": 77,
		})
	})
	mux.HandleFunc("/api/documents/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/documents/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		page := r.URL.Query().Get("page")
		if r.URL.Query().Get("page_size") == "1" {
			writeJSON(w, map[string]any{"count": 3, "next": nil, "results": []any{}})
			return
		}
		if r.URL.Query().Get("tags__id__in") == "1" {
			writeJSON(w, map[string]any{
				"count": 1,
				"next":  nil,
				"results": []map[string]any{
					{"id": 1, "title": "Rechnung April", "content": "x", "tags": []int{1}, "created": "2024-04-02T10:00:00+02:00"},
				},
			})
			return
		}
		switch page {
		case "", "1":
			next := "http://ignored/api/documents/?page=2"
			writeJSON(w, map[string]any{
				"count": 3,
				"next":  next,
				"results": []map[string]any{
					{"id": 1, "title": "Doc 1", "content": "a", "created": "2024-01-01T00:00:00Z"},
					{"id": 2, "title": "Doc 2", "content": "b", "created": "2024-01-02T00:00:00Z"},
				},
			})
		case "2":
			writeJSON(w, map[string]any{
				"count": 3,
				"next":  nil,
				"results": []map[string]any{
					{"id": 3, "title": "Doc 3", "content": "c", "created_date": "2024-01-03"},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(&config.PaperlessConfig{
		BaseURL:  baseURL,
		Token:    "secret",
		PageSize: 2,
	})
}

func TestGetDocumentResolvesNames(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv.URL)

	doc, err := c.GetDocument(context.Background(), 1)

	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "Rechnung April", doc.Title)
	assert.Equal(t, "Amazon", doc.Correspondent)
	assert.Equal(t, "Rechnung", doc.DocumentType)
	assert.Equal(t, []string{"Steuer", "Wichtig"}, doc.Tags)
	assert.Equal(t, "2024-04-02", doc.Created)
	assert.Equal(t, "77", doc.ArchiveSerialNumber)
}

func TestGetDocumentNotFound(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv.URL)

	doc, err := c.GetDocument(context.Background(), 999)

	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestListDocumentsPaginates(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv.URL)

	docs, err := c.ListDocuments(context.Background())

	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, int64(1), docs[0].ID)
	assert.Equal(t, "2024-01-03", docs[2].Created)
}

func TestListDocumentsByTagCaseInsensitive(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv.URL)

	docs, err := c.ListDocumentsByTag(context.Background(), "steuer")

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, int64(1), docs[0].ID)
}

func TestListDocumentsByTagUnknown(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv.URL)

	docs, err := c.ListDocumentsByTag(context.Background(), "gibtsnicht")

	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestListMetadataNames(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv.URL)

	tags, err := c.ListTags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Steuer", "Wichtig"}, tags)

	types, err := c.ListDocumentTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Rechnung"}, types)

	correspondents, err := c.ListCorrespondents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Amazon"}, correspondents)
}

func TestCountDocuments(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv.URL)

	count, err := c.CountDocuments(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestNameTablesCached(t *testing.T) {
	var tagCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags/", func(w http.ResponseWriter, r *http.Request) {
		tagCalls++
		fmt.Fprint(w, `{"count":0,"next":null,"results":[]}`)
	})
	mux.HandleFunc("/api/document_types/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count":0,"next":null,"results":[]}`)
	})
	mux.HandleFunc("/api/correspondents/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count":0,"next":null,"results":[]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv.URL)

	_, err := c.ListTags(context.Background())
	require.NoError(t, err)
	_, err = c.ListTags(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, tagCalls)
}

func TestAuthHeaderSent(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"count":0,"next":null,"results":[]}`)
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv.URL)

	_, err := c.CountDocuments(context.Background())

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(seen, "Token "))
	assert.Equal(t, "Token secret", seen)
}
