package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkerShortTextSingleChunk(t *testing.T) {
	c := NewChunker(100, 20)

	chunks := c.Chunk("  Ein kurzer Text.  ")

	require.Len(t, chunks, 1)
	assert.Equal(t, "Ein kurzer Text.", chunks[0])
}

func TestChunkerDeterministic(t *testing.T) {
	c := NewChunker(50, 10)
	text := strings.Repeat("Das ist ein Satz. ", 30)

	first := c.Chunk(text)
	second := c.Chunk(text)

	assert.Equal(t, first, second)
}

func TestChunkerNoEmptyChunks(t *testing.T) {
	c := NewChunker(40, 8)
	text := strings.Repeat("Wort und noch ein Wort. ", 20)

	for _, chunk := range c.Chunk(text) {
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestChunkerOverlap(t *testing.T) {
	c := NewChunker(50, 10)
	text := strings.Repeat("abcdefghij", 12) // 120 Runen ohne Satzgrenzen

	chunks := c.Chunk(text)

	require.Greater(t, len(chunks), 1)
	// 无句子边界时按固定窗口切分，相邻分片共享 overlap 前缀
	assert.Equal(t, 50, len([]rune(chunks[0])))
	assert.Equal(t, chunks[0][40:50], chunks[1][0:10])
}

func TestChunkerSentenceBoundary(t *testing.T) {
	c := NewChunker(50, 10)
	// 句号位于窗口后半段，应在句号处收尾
	text := strings.Repeat("a", 35) + ". " + strings.Repeat("b", 60)

	chunks := c.Chunk(text)

	require.Greater(t, len(chunks), 1)
	assert.True(t, strings.HasSuffix(chunks[0], "."))
}

func TestChunkerRejectsEarlyBoundary(t *testing.T) {
	c := NewChunker(50, 10)
	// 唯一句号位于窗口前半段，不应采纳，否则产生碎片
	text := strings.Repeat("a", 10) + ". " + strings.Repeat("b", 100)

	chunks := c.Chunk(text)

	require.Greater(t, len(chunks), 1)
	assert.Equal(t, 50, len([]rune(chunks[0])))
}

func TestChunkerTerminatesWithBadOverlap(t *testing.T) {
	// overlap >= size 时回退默认值，必须仍然终止
	c := NewChunker(10, 10)
	text := strings.Repeat("x", 1000)

	chunks := c.Chunk(text)

	assert.NotEmpty(t, chunks)
}

func TestChunkerRuneSafety(t *testing.T) {
	c := NewChunker(20, 5)
	text := strings.Repeat("Straße Müller Ärger ", 10)

	for _, chunk := range c.Chunk(text) {
		assert.True(t, strings.ContainsAny(chunk, "SMÄraü"))
		// 有效 UTF-8：切分不能落在多字节字符中间
		assert.Equal(t, chunk, string([]rune(chunk)))
	}
}
