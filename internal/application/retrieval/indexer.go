package retrieval

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"golang.org/x/sync/errgroup"

	"paperless-rag-api/pkg/logger"
	"paperless-rag-api/pkg/metrics"
)

const (
	defaultPreviewRunes     = 500
	defaultIndexConcurrency = 4
)

// IndexerConfig 索引器参数
type IndexerConfig struct {
	PreviewRunes int
	Concurrency  int
}

// Indexer 将文档切分、嵌入并写入向量库。
// 幂等：首分片已存在且未强制重建时直接跳过。
// 单分片嵌入失败只计入统计，不中断同文档其余分片。
type Indexer struct {
	chunker  *Chunker
	embedder embedding.Embedder
	vector   VectorRepository
	source   DocumentSource

	previewRunes int
	concurrency  int
}

// NewIndexer 创建索引器
func NewIndexer(chunker *Chunker, embedder embedding.Embedder, vector VectorRepository, source DocumentSource, cfg IndexerConfig) *Indexer {
	if cfg.PreviewRunes <= 0 {
		cfg.PreviewRunes = defaultPreviewRunes
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultIndexConcurrency
	}
	return &Indexer{
		chunker:      chunker,
		embedder:     embedder,
		vector:       vector,
		source:       source,
		previewRunes: cfg.PreviewRunes,
		concurrency:  cfg.Concurrency,
	}
}

// Enabled 检查索引能力是否可用
func (i *Indexer) Enabled() bool {
	return i != nil && i.embedder != nil && i.vector != nil && i.source != nil
}

func (i *Indexer) ensureReady(ctx context.Context) error {
	if i == nil || i.vector == nil {
		return ErrVectorDisabled
	}
	return i.vector.EnsureCollection(ctx)
}

// IndexDocument 索引单个文档。
// 返回值表示是否全部分片成功；部分分片嵌入失败时已成功的分片仍会写入。
func (i *Indexer) IndexDocument(ctx context.Context, id int64, force bool) (bool, error) {
	if !i.Enabled() {
		return false, ErrVectorDisabled
	}
	if err := i.ensureReady(ctx); err != nil {
		return false, err
	}

	if !force {
		exists, err := i.vector.HasChunk(ctx, id, 0)
		if err != nil {
			return false, fmt.Errorf("failed to check existing chunks: %w", err)
		}
		if exists {
			logger.Debug(ctx, "document already indexed, skipping", "document_id", id)
			return true, nil
		}
	}

	doc, err := i.source.GetDocument(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to fetch document %d: %w", id, err)
	}
	if doc == nil {
		return false, ErrDocumentNotFound
	}
	if !doc.HasContent() {
		return false, ErrContentMissing
	}

	start := time.Now()
	chunks := i.chunker.Chunk(doc.Content)
	total := len(chunks)

	// 并发嵌入各分片，单片失败记录后继续
	vectors := make([][]float32, total)
	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)
	for idx, chunk := range chunks {
		g.Go(func() error {
			vec, err := i.embedChunk(gctx, chunk)
			if err != nil {
				metrics.EmbeddingFailuresTotal.Inc()
				logger.Warn(gctx, "chunk embedding failed",
					"document_id", id, "chunk_index", idx, "error", err.Error())
				failed.Add(1)
				return nil
			}
			vectors[idx] = vec
			return nil
		})
	}
	_ = g.Wait()

	toInsert := make([]*VectorChunk, 0, total)
	for idx, chunk := range chunks {
		if vectors[idx] == nil {
			continue
		}
		toInsert = append(toInsert, &VectorChunk{
			DocumentID:    id,
			ChunkIndex:    int64(idx),
			TotalChunks:   int64(total),
			Text:          previewText(chunk, i.previewRunes),
			Title:         doc.Title,
			Correspondent: doc.Correspondent,
			DocumentType:  doc.DocumentType,
			Tags:          doc.TagString(),
			Created:       doc.Created,
			ArchiveSerial: doc.ArchiveSerialNumber,
			Vector:        vectors[idx],
		})
	}

	if len(toInsert) > 0 {
		if err := i.vector.InsertChunks(ctx, toInsert); err != nil {
			return false, fmt.Errorf("failed to insert chunks for document %d: %w", id, err)
		}
		metrics.ChunksIndexedTotal.Add(float64(len(toInsert)))
	}

	metrics.IndexDocumentDuration.Observe(time.Since(start).Seconds())
	logger.Info(ctx, "document indexed",
		"document_id", id, "chunks", len(toInsert), "failed_chunks", failed.Load())
	return failed.Load() == 0, nil
}

// ReindexDocument 先删除文档的全部分片，再强制重建索引。
func (i *Indexer) ReindexDocument(ctx context.Context, id int64) (bool, error) {
	if !i.Enabled() {
		return false, ErrVectorDisabled
	}
	if err := i.ensureReady(ctx); err != nil {
		return false, err
	}
	if err := i.vector.DeleteByDocumentID(ctx, id); err != nil {
		return false, fmt.Errorf("failed to delete chunks for document %d: %w", id, err)
	}
	return i.IndexDocument(ctx, id, true)
}

// IndexAll 索引文档源中的全部文档。
// 单个文档的失败只计入统计；只有枚举本身失败才会中止。
func (i *Indexer) IndexAll(ctx context.Context) (*IndexStats, error) {
	if !i.Enabled() {
		return nil, ErrVectorDisabled
	}
	if err := i.ensureReady(ctx); err != nil {
		return nil, err
	}

	docs, err := i.source.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate documents: %w", err)
	}

	var indexed, skipped, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)
	for _, doc := range docs {
		g.Go(func() error {
			exists, err := i.vector.HasChunk(gctx, doc.ID, 0)
			if err == nil && exists {
				skipped.Add(1)
				return nil
			}
			ok, err := i.IndexDocument(gctx, doc.ID, false)
			if err != nil {
				logger.Warn(gctx, "document indexing failed",
					"document_id", doc.ID, "error", err.Error())
				failed.Add(1)
				return nil
			}
			if !ok {
				failed.Add(1)
				return nil
			}
			indexed.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	stats := &IndexStats{
		Indexed: int(indexed.Load()),
		Skipped: int(skipped.Load()),
		Failed:  int(failed.Load()),
	}
	metrics.DocumentsIndexedTotal.WithLabelValues("indexed").Add(float64(stats.Indexed))
	metrics.DocumentsIndexedTotal.WithLabelValues("skipped").Add(float64(stats.Skipped))
	metrics.DocumentsIndexedTotal.WithLabelValues("failed").Add(float64(stats.Failed))
	logger.Info(ctx, "index run completed",
		"indexed", stats.Indexed, "skipped", stats.Skipped, "failed", stats.Failed)
	return stats, nil
}

// Status 返回索引中的分片总数与文档源中的文档总数。
func (i *Indexer) Status(ctx context.Context) (*IndexStatus, error) {
	if !i.Enabled() {
		return nil, ErrVectorDisabled
	}
	if err := i.ensureReady(ctx); err != nil {
		return nil, err
	}

	chunks, err := i.vector.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count indexed chunks: %w", err)
	}
	total, err := i.source.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count source documents: %w", err)
	}
	return &IndexStatus{IndexedChunks: chunks, TotalDocuments: total}, nil
}

// Reset 清空并重建向量集合。
func (i *Indexer) Reset(ctx context.Context) error {
	if !i.Enabled() {
		return ErrVectorDisabled
	}
	if err := i.vector.Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return i.vector.EnsureCollection(ctx)
}

// embedChunk 嵌入完整分片文本（存储时才截断预览）。
func (i *Indexer) embedChunk(ctx context.Context, text string) ([]float32, error) {
	v64, err := i.embedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(v64) == 0 || len(v64[0]) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	vec := v64[0]
	out := make([]float32, 0, len(vec))
	for _, x := range vec {
		out = append(out, float32(x))
	}
	return out, nil
}

// previewText 截断存储预览，嵌入始终使用完整文本。
func previewText(s string, maxRunes int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return strings.TrimSpace(string(r[:maxRunes]))
}
