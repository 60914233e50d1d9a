// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"paperless-rag-api/pkg/metrics"
)

// Repository 文档分片向量仓储
type Repository struct {
	client    *Client
	dimension int

	ready atomic.Bool
}

// NewRepository 创建向量仓储
func NewRepository(client *Client, dimension int) *Repository {
	if dimension <= 0 {
		dimension = DefaultVectorDimension
	}
	return &Repository{client: client, dimension: dimension}
}

// SearchParams 分片检索参数
type SearchParams struct {
	QueryVector   []float32
	TopK          int
	DocumentType  string
	Correspondent string
}

// EnsureCollection 确保集合、索引与加载状态可用（不存在则创建）。
// 约束：不会做 drop/rebuild 等破坏性操作。
func (r *Repository) EnsureCollection(ctx context.Context) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	if r.ready.Load() {
		return nil
	}

	ctx, span := tracer.Start(ctx, "milvus.EnsureCollection",
		trace.WithAttributes(attribute.String("collection", r.client.CollectionName())))
	defer span.End()

	exists, err := r.client.HasCollection(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !exists {
		if err := r.createCollection(ctx); err != nil {
			span.RecordError(err)
			return err
		}
		if err := r.createIndex(ctx); err != nil {
			span.RecordError(err)
			return err
		}
	}

	if err := r.client.LoadCollection(ctx); err != nil {
		span.RecordError(err)
		return err
	}
	r.ready.Store(true)
	return nil
}

func (r *Repository) createCollection(ctx context.Context) error {
	schema := DocumentChunksSchema(r.client.CollectionName(), r.dimension)
	if err := r.client.milvus.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (r *Repository) createIndex(ctx context.Context) error {
	idx, err := entity.NewIndexHNSW(
		entity.COSINE,
		r.client.config.HNSWM,
		r.client.config.HNSWEfConstruction,
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := r.client.milvus.CreateIndex(ctx, r.client.CollectionName(), "vector", idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// InsertChunks 批量写入分片
func (r *Repository) InsertChunks(ctx context.Context, chunks []*DocumentChunk) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	if len(chunks) == 0 {
		return nil
	}

	ctx, span := tracer.Start(ctx, "milvus.InsertChunks",
		trace.WithAttributes(
			attribute.String("collection", r.client.CollectionName()),
			attribute.Int("count", len(chunks)),
		))
	defer span.End()

	ids := make([]string, len(chunks))
	vectors := make([][]float32, len(chunks))
	docIDs := make([]int64, len(chunks))
	chunkIdxs := make([]int64, len(chunks))
	totals := make([]int64, len(chunks))
	texts := make([]string, len(chunks))
	titles := make([]string, len(chunks))
	correspondents := make([]string, len(chunks))
	docTypes := make([]string, len(chunks))
	tags := make([]string, len(chunks))
	createds := make([]string, len(chunks))
	serials := make([]string, len(chunks))

	for i, c := range chunks {
		ids[i] = ChunkKey(c.DocumentID, c.ChunkIndex)
		vectors[i] = c.Vector
		docIDs[i] = c.DocumentID
		chunkIdxs[i] = c.ChunkIndex
		totals[i] = c.TotalChunks
		texts[i] = c.Text
		titles[i] = c.Title
		correspondents[i] = c.Correspondent
		docTypes[i] = c.DocumentType
		tags[i] = c.Tags
		createds[i] = c.Created
		serials[i] = c.ArchiveSerial
	}

	idCol := entity.NewColumnVarChar("chunk_id", ids)
	vectorCol := entity.NewColumnFloatVector("vector", r.dimension, vectors)
	docIDCol := entity.NewColumnInt64("doc_id", docIDs)
	chunkIdxCol := entity.NewColumnInt64("chunk_index", chunkIdxs)
	totalCol := entity.NewColumnInt64("total_chunks", totals)
	textCol := entity.NewColumnVarChar("text", texts)
	titleCol := entity.NewColumnVarChar("title", titles)
	corrCol := entity.NewColumnVarChar("correspondent", correspondents)
	typeCol := entity.NewColumnVarChar("document_type", docTypes)
	tagsCol := entity.NewColumnVarChar("tags", tags)
	createdCol := entity.NewColumnVarChar("created", createds)
	serialCol := entity.NewColumnVarChar("archive_serial", serials)

	_, err := r.client.milvus.Insert(ctx, r.client.CollectionName(), "",
		idCol, vectorCol, docIDCol, chunkIdxCol, totalCol,
		textCol, titleCol, corrCol, typeCol, tagsCol, createdCol, serialCol)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert chunks: %w", err)
	}

	return nil
}

// Search 向量检索，按距离升序返回最多 TopK 条分片。
func (r *Repository) Search(ctx context.Context, params *SearchParams) ([]*DocumentChunk, []float64, error) {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return nil, nil, fmt.Errorf("milvus client not configured")
	}
	collName := r.client.CollectionName()

	ctx, span := tracer.Start(ctx, "milvus.Search",
		trace.WithAttributes(
			attribute.String("collection", collName),
			attribute.Int("top_k", params.TopK),
		))
	defer span.End()

	start := time.Now()

	filter := buildFilterExpr(params.DocumentType, params.Correspondent)

	sp, err := entity.NewIndexHNSWSearchParam(128)
	if err != nil {
		span.RecordError(err)
		return nil, nil, fmt.Errorf("failed to create search param: %w", err)
	}

	results, err := r.client.milvus.Search(ctx,
		collName,
		nil,
		filter,
		[]string{"doc_id", "chunk_index", "total_chunks", "text", "title", "correspondent", "document_type", "tags", "created"},
		[]entity.Vector{entity.FloatVector(params.QueryVector)},
		"vector",
		entity.COSINE,
		params.TopK,
		sp,
	)
	metrics.MilvusSearchDuration.WithLabelValues(collName).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MilvusSearchTotal.WithLabelValues(collName, "error").Inc()
		span.RecordError(err)
		return nil, nil, fmt.Errorf("failed to search: %w", err)
	}
	metrics.MilvusSearchTotal.WithLabelValues(collName, "ok").Inc()

	var chunks []*DocumentChunk
	var distances []float64
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			c := &DocumentChunk{}

			if col, ok := result.Fields.GetColumn("doc_id").(*entity.ColumnInt64); ok {
				c.DocumentID = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("chunk_index").(*entity.ColumnInt64); ok {
				c.ChunkIndex = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("total_chunks").(*entity.ColumnInt64); ok {
				c.TotalChunks = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("text").(*entity.ColumnVarChar); ok {
				c.Text = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("title").(*entity.ColumnVarChar); ok {
				c.Title = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("correspondent").(*entity.ColumnVarChar); ok {
				c.Correspondent = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("document_type").(*entity.ColumnVarChar); ok {
				c.DocumentType = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("tags").(*entity.ColumnVarChar); ok {
				c.Tags = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("created").(*entity.ColumnVarChar); ok {
				c.Created = col.Data()[i]
			}

			chunks = append(chunks, c)
			// COSINE 返回相似度，转换为 [0,2] 区间的余弦距离
			distances = append(distances, 1-float64(result.Scores[i]))
		}
	}

	span.SetAttributes(attribute.Int("result_count", len(chunks)))
	return chunks, distances, nil
}

// buildFilterExpr 构建标量过滤表达式，空值字段不参与过滤。
func buildFilterExpr(documentType, correspondent string) string {
	var parts []string
	if documentType != "" {
		parts = append(parts, fmt.Sprintf(`document_type == "%s"`, escapeExprValue(documentType)))
	}
	if correspondent != "" {
		parts = append(parts, fmt.Sprintf(`correspondent == "%s"`, escapeExprValue(correspondent)))
	}
	return strings.Join(parts, " && ")
}

func escapeExprValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `"`, `\"`)
}

// HasChunk 检查指定分片是否已存在
func (r *Repository) HasChunk(ctx context.Context, documentID, chunkIndex int64) (bool, error) {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return false, fmt.Errorf("milvus client not configured")
	}

	ctx, span := tracer.Start(ctx, "milvus.HasChunk",
		trace.WithAttributes(attribute.String("chunk_id", ChunkKey(documentID, chunkIndex))))
	defer span.End()

	expr := fmt.Sprintf(`chunk_id == "%s"`, ChunkKey(documentID, chunkIndex))
	rs, err := r.client.milvus.Query(ctx, r.client.CollectionName(), nil, expr, []string{"chunk_id"})
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to query chunk: %w", err)
	}

	col := rs.GetColumn("chunk_id")
	return col != nil && col.Len() > 0, nil
}

// DeleteByDocumentID 删除文档的所有分片
func (r *Repository) DeleteByDocumentID(ctx context.Context, documentID int64) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}

	ctx, span := tracer.Start(ctx, "milvus.DeleteByDocumentID",
		trace.WithAttributes(attribute.Int64("doc_id", documentID)))
	defer span.End()

	expr := fmt.Sprintf(`doc_id == %d`, documentID)
	if err := r.client.milvus.Delete(ctx, r.client.CollectionName(), "", expr); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

// Count 返回集合当前的分片总数
func (r *Repository) Count(ctx context.Context) (int64, error) {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return 0, fmt.Errorf("milvus client not configured")
	}

	ctx, span := tracer.Start(ctx, "milvus.Count",
		trace.WithAttributes(attribute.String("collection", r.client.CollectionName())))
	defer span.End()

	stats, err := r.client.milvus.GetCollectionStatistics(ctx, r.client.CollectionName())
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to get collection statistics: %w", err)
	}

	count, err := strconv.ParseInt(stats["row_count"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse row count: %w", err)
	}
	return count, nil
}

// Drop 删除整个集合
func (r *Repository) Drop(ctx context.Context) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}

	ctx, span := tracer.Start(ctx, "milvus.Drop",
		trace.WithAttributes(attribute.String("collection", r.client.CollectionName())))
	defer span.End()

	exists, err := r.client.HasCollection(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if exists {
		if err := r.client.milvus.DropCollection(ctx, r.client.CollectionName()); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to drop collection: %w", err)
		}
	}
	r.ready.Store(false)
	return nil
}
