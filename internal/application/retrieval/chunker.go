package retrieval

import "strings"

const (
	defaultChunkSizeRunes    = 1500
	defaultChunkOverlapRunes = 200
)

// Chunker 将文档文本切分为带重叠、尽量按句子边界对齐的片段。
// 按 rune 计数，避免在多字节字符中间切断。
type Chunker struct {
	size    int
	overlap int
}

// NewChunker 创建切分器。overlap 必须严格小于 size，否则回退默认值以保证推进。
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = defaultChunkSizeRunes
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 8
	}
	return &Chunker{size: size, overlap: overlap}
}

// Chunk 切分文本。
// 文本不超过 size 时整体作为单个片段返回。
// 每个窗口尝试在最后一个句号或换行处收尾，仅当边界位于窗口后半段时采纳，
// 避免产生过短的碎片。
func (c *Chunker) Chunk(text string) []string {
	trimmed := strings.TrimSpace(text)
	runes := []rune(trimmed)
	if len(runes) <= c.size {
		return []string{trimmed}
	}

	out := make([]string, 0, len(runes)/(c.size-c.overlap)+1)
	start := 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			end = len(runes)
		} else {
			if cut := lastSentenceBoundary(runes[start:end]); cut > c.size/2 {
				end = start + cut + 1
			}
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end >= len(runes) {
			break
		}

		next := end - c.overlap
		if next <= start {
			// 边界调整可能让窗口缩得比 overlap 还短，强制推进
			next = end
		}
		start = next
	}
	return out
}

// lastSentenceBoundary 从窗口末尾向前找最后一个句号或换行，找不到返回 -1。
func lastSentenceBoundary(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '.' || window[i] == '\n' {
			return i
		}
	}
	return -1
}
