package retrieval

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperless-rag-api/internal/domain/entity"
)

func testDoc(id int64, content string) *entity.Document {
	return &entity.Document{
		ID:            id,
		Title:         fmt.Sprintf("Dokument %d", id),
		Content:       content,
		Correspondent: "Finanzamt",
		DocumentType:  "Bescheid",
		Tags:          []string{"steuer"},
		Created:       "2024-03-01",
	}
}

func newTestIndexer(vec *fakeVector, src *fakeSource, emb *fakeEmbedder) *Indexer {
	return NewIndexer(NewChunker(50, 10), emb, vec, src, IndexerConfig{
		PreviewRunes: 30,
		Concurrency:  2,
	})
}

func TestIndexDocumentIdempotent(t *testing.T) {
	vec := newFakeVector()
	emb := &fakeEmbedder{}
	src := &fakeSource{docs: map[int64]*entity.Document{
		1: testDoc(1, "Kurzer Inhalt."),
	}}
	idx := newTestIndexer(vec, src, emb)

	ok, err := idx.IndexDocument(context.Background(), 1, false)
	require.NoError(t, err)
	assert.True(t, ok)

	callsAfterFirst := emb.calls
	ok, err = idx.IndexDocument(context.Background(), 1, false)
	require.NoError(t, err)
	assert.True(t, ok)
	// 第二次调用必须跳过，不做嵌入也不做写入
	assert.Equal(t, callsAfterFirst, emb.calls)
	assert.Equal(t, 1, vec.insertCalls)
}

func TestIndexDocumentContentMissing(t *testing.T) {
	vec := newFakeVector()
	src := &fakeSource{docs: map[int64]*entity.Document{
		1: testDoc(1, "   "),
	}}
	idx := newTestIndexer(vec, src, &fakeEmbedder{})

	ok, err := idx.IndexDocument(context.Background(), 1, false)

	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrContentMissing)
}

func TestIndexDocumentNotFound(t *testing.T) {
	idx := newTestIndexer(newFakeVector(), &fakeSource{docs: map[int64]*entity.Document{}}, &fakeEmbedder{})

	_, err := idx.IndexDocument(context.Background(), 42, false)

	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestIndexDocumentChunkMetadata(t *testing.T) {
	vec := newFakeVector()
	src := &fakeSource{docs: map[int64]*entity.Document{
		1: testDoc(1, strings.Repeat("Das ist ein Satz. ", 20)),
	}}
	idx := newTestIndexer(vec, src, &fakeEmbedder{})

	ok, err := idx.IndexDocument(context.Background(), 1, false)
	require.NoError(t, err)
	require.True(t, ok)

	total := vec.chunkCount(1)
	require.Greater(t, total, 1)
	for _, c := range vec.chunks {
		assert.Equal(t, int64(1), c.DocumentID)
		assert.Equal(t, int64(total), c.TotalChunks)
		assert.Equal(t, "Finanzamt", c.Correspondent)
		assert.Equal(t, "steuer", c.Tags)
		assert.LessOrEqual(t, len([]rune(c.Text)), 30, "stored text must be preview-truncated")
		assert.NotEmpty(t, c.Vector)
	}
}

func TestIndexDocumentAbsorbsEmbeddingFailures(t *testing.T) {
	vec := newFakeVector()
	src := &fakeSource{docs: map[int64]*entity.Document{
		1: testDoc(1, strings.Repeat("Erster Satz hier. ", 10)+"FEHLER"+strings.Repeat(" Noch ein Satz da.", 10)),
	}}
	emb := &fakeEmbedder{fn: func(texts []string) ([][]float64, error) {
		if strings.Contains(texts[0], "FEHLER") {
			return nil, fmt.Errorf("embedding provider error")
		}
		return [][]float64{{0.1, 0.2}}, nil
	}}
	idx := newTestIndexer(vec, src, emb)

	ok, err := idx.IndexDocument(context.Background(), 1, false)

	require.NoError(t, err)
	assert.False(t, ok, "partial embedding failure means not fully indexed")
	assert.Greater(t, vec.chunkCount(1), 0, "successful chunks are still stored")
}

func TestReindexReplacesChunks(t *testing.T) {
	vec := newFakeVector()
	src := &fakeSource{docs: map[int64]*entity.Document{
		1: testDoc(1, strings.Repeat("Das ist ein Satz. ", 20)),
	}}
	idx := newTestIndexer(vec, src, &fakeEmbedder{})

	_, err := idx.IndexDocument(context.Background(), 1, false)
	require.NoError(t, err)
	oldCount := vec.chunkCount(1)
	require.Greater(t, oldCount, 1)

	// 文档内容缩短后重建，分片数必须等于新的切分结果而不是累加
	src.docs[1] = testDoc(1, "Nur noch ein kurzer Satz.")
	ok, err := idx.ReindexDocument(context.Background(), 1)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, vec.chunkCount(1))
}

func TestIndexAllStats(t *testing.T) {
	vec := newFakeVector()
	src := &fakeSource{docs: map[int64]*entity.Document{
		1: testDoc(1, "Inhalt eins."),
		2: testDoc(2, "Inhalt zwei."),
		3: testDoc(3, "   "), // kein Text -> failed
	}}
	idx := newTestIndexer(vec, src, &fakeEmbedder{})

	// Dokument 1 vorab indexieren -> skipped
	_, err := idx.IndexDocument(context.Background(), 1, false)
	require.NoError(t, err)

	stats, err := idx.IndexAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Failed)
}

func TestIndexAllEnumerationFailureAborts(t *testing.T) {
	src := &fakeSource{listErr: fmt.Errorf("source unreachable")}
	idx := newTestIndexer(newFakeVector(), src, &fakeEmbedder{})

	_, err := idx.IndexAll(context.Background())

	assert.Error(t, err)
}

func TestIndexerStatus(t *testing.T) {
	vec := newFakeVector()
	src := &fakeSource{docs: map[int64]*entity.Document{
		1: testDoc(1, "Inhalt eins."),
		2: testDoc(2, "Inhalt zwei."),
	}}
	idx := newTestIndexer(vec, src, &fakeEmbedder{})

	_, err := idx.IndexDocument(context.Background(), 1, false)
	require.NoError(t, err)

	status, err := idx.Status(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(1), status.IndexedChunks)
	assert.Equal(t, 2, status.TotalDocuments)
}

func TestIndexerReset(t *testing.T) {
	vec := newFakeVector()
	src := &fakeSource{docs: map[int64]*entity.Document{
		1: testDoc(1, "Inhalt eins."),
	}}
	idx := newTestIndexer(vec, src, &fakeEmbedder{})

	_, err := idx.IndexDocument(context.Background(), 1, false)
	require.NoError(t, err)
	require.NoError(t, idx.Reset(context.Background()))

	count, err := vec.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
