package retrieval

import (
	"context"

	"paperless-rag-api/internal/domain/entity"
)

// VectorRepository 定义应用层对“向量存储/检索”的最小依赖（port）。
// 由基础设施层提供具体实现（例如 Milvus）。
type VectorRepository interface {
	EnsureCollection(ctx context.Context) error
	InsertChunks(ctx context.Context, chunks []*VectorChunk) error
	Search(ctx context.Context, params *VectorSearchParams) ([]*VectorSearchResult, error)
	HasChunk(ctx context.Context, documentID int64, chunkIndex int) (bool, error)
	DeleteByDocumentID(ctx context.Context, documentID int64) error
	Count(ctx context.Context) (int64, error)
	Drop(ctx context.Context) error
}

// VectorChunk 写入向量库的一个分片。
// (DocumentID, ChunkIndex) 是复合主键，仅在存储边界拼成单一字符串键。
type VectorChunk struct {
	DocumentID    int64
	ChunkIndex    int64
	TotalChunks   int64
	Text          string
	Title         string
	Correspondent string
	DocumentType  string
	Tags          string
	Created       string
	ArchiveSerial string
	Vector        []float32
}

// VectorSearchParams 向量检索参数。
// DocumentType/Correspondent 非空时作为存储层精确过滤。
type VectorSearchParams struct {
	QueryVector   []float32
	TopK          int
	DocumentType  string
	Correspondent string
}

// VectorSearchResult 向量检索原始结果
type VectorSearchResult struct {
	DocumentID    int64
	ChunkIndex    int64
	TotalChunks   int64
	Text          string
	Title         string
	Correspondent string
	DocumentType  string
	Tags          string
	Created       string
	Distance      *float64
}

// DocumentSource 文档源（paperless-ngx）的最小依赖。
type DocumentSource interface {
	GetDocument(ctx context.Context, id int64) (*entity.Document, error)
	ListDocuments(ctx context.Context) ([]*entity.Document, error)
	ListDocumentsByTag(ctx context.Context, tag string) ([]*entity.Document, error)
	ListTags(ctx context.Context) ([]string, error)
	ListDocumentTypes(ctx context.Context) ([]string, error)
	ListCorrespondents(ctx context.Context) ([]string, error)
	CountDocuments(ctx context.Context) (int, error)
}

// TextGenerator 文本生成依赖。空字符串视为生成失败。
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, temperature float32) (string, error)
}

// MetadataOptionsProvider 提供文档源已知的元数据取值（通常带缓存）。
type MetadataOptionsProvider interface {
	MetadataOptions(ctx context.Context) (MetadataOptions, error)
}
