// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	// CollectionDocumentChunks 文档分片集合默认名称
	CollectionDocumentChunks = "document_chunks"

	// DefaultVectorDimension nomic-embed-text 的向量维度
	DefaultVectorDimension = 768
)

// ChunkKey 拼接分片主键。(doc_id, chunk_index) 仅在存储边界压成单一字符串。
func ChunkKey(documentID, chunkIndex int64) string {
	return fmt.Sprintf("%d_%d", documentID, chunkIndex)
}

// DocumentChunksSchema 文档分片 Collection Schema
func DocumentChunksSchema(collection string, dimension int) *entity.Schema {
	if dimension <= 0 {
		dimension = DefaultVectorDimension
	}
	return &entity.Schema{
		CollectionName: collection,
		Description:    "OCR document chunks for semantic search",
		Fields: []*entity.Field{
			{
				Name:       "chunk_id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "vector",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": strconv.Itoa(dimension),
				},
			},
			{
				Name:     "doc_id",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     "chunk_index",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     "total_chunks",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     "text",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
			{
				Name:     "title",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "512",
				},
			},
			{
				Name:     "correspondent",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "256",
				},
			},
			{
				Name:     "document_type",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "256",
				},
			},
			{
				Name:     "tags",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "1024",
				},
			},
			{
				Name:     "created",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "32",
				},
			},
			{
				Name:     "archive_serial",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
		},
	}
}

// DocumentChunk 文档分片数据结构
type DocumentChunk struct {
	DocumentID    int64     `json:"doc_id"`
	ChunkIndex    int64     `json:"chunk_index"`
	TotalChunks   int64     `json:"total_chunks"`
	Text          string    `json:"text"`
	Title         string    `json:"title"`
	Correspondent string    `json:"correspondent"`
	DocumentType  string    `json:"document_type"`
	Tags          string    `json:"tags"`
	Created       string    `json:"created"`
	ArchiveSerial string    `json:"archive_serial"`
	Vector        []float32 `json:"vector"`
}
