package milvus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkKey(t *testing.T) {
	assert.Equal(t, "12_0", ChunkKey(12, 0))
	assert.Equal(t, "7_15", ChunkKey(7, 15))
}

func TestBuildFilterExpr(t *testing.T) {
	assert.Empty(t, buildFilterExpr("", ""))
	assert.Equal(t, `document_type == "Rechnung"`, buildFilterExpr("Rechnung", ""))
	assert.Equal(t, `correspondent == "Amazon"`, buildFilterExpr("", "Amazon"))
	assert.Equal(t,
		`document_type == "Rechnung" && correspondent == "Amazon"`,
		buildFilterExpr("Rechnung", "Amazon"))
}

func TestBuildFilterExprEscapesQuotes(t *testing.T) {
	got := buildFilterExpr(`Be"scheid`, "")

	assert.Equal(t, `document_type == "Be\"scheid"`, got)
}

func TestDocumentChunksSchemaDefaults(t *testing.T) {
	s := DocumentChunksSchema("document_chunks", 0)

	require.Equal(t, "document_chunks", s.CollectionName)
	var vectorDim string
	for _, f := range s.Fields {
		if f.Name == "vector" {
			vectorDim = f.TypeParams["dim"]
		}
		if f.Name == "chunk_id" {
			assert.True(t, f.PrimaryKey)
		}
	}
	assert.Equal(t, "768", vectorDim)
}
