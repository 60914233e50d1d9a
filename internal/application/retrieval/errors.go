package retrieval

import "errors"

var (
	// ErrVectorDisabled 表示向量检索/索引能力未配置（Milvus 或 Embedder 不可用）。
	ErrVectorDisabled = errors.New("vector retrieval is disabled")

	// ErrDocumentNotFound 表示文档源中不存在该文档。
	ErrDocumentNotFound = errors.New("document not found")

	// ErrContentMissing 表示文档没有可索引的文本内容（OCR 为空）。
	ErrContentMissing = errors.New("document has no text content")
)
