package retrieval

// Filters 检索过滤条件。
// DocumentType/Correspondent 可下推到向量库做精确匹配；
// Tags/Year/Month 只能在召回后客户端过滤。
type Filters struct {
	DocumentType  string
	Correspondent string
	Tags          []string
	Year          string
	Month         string
}

// IsZero 检查是否没有任何过滤条件
func (f *Filters) IsZero() bool {
	return f == nil || (f.DocumentType == "" && f.Correspondent == "" &&
		len(f.Tags) == 0 && f.Year == "" && f.Month == "")
}

// MetadataOptions 文档源中已知的元数据取值，供 LLM 过滤条件抽取使用。
type MetadataOptions struct {
	Tags           []string
	DocumentTypes  []string
	Correspondents []string
}

// SearchResult 一条召回结果（按文档去重后）。
// Distance 为 nil 表示向量库未返回距离，排序时视为最差。
type SearchResult struct {
	DocumentID    int64
	ChunkIndex    int
	TotalChunks   int
	Text          string
	Title         string
	Correspondent string
	DocumentType  string
	Tags          string
	Created       string
	Distance      *float64
}

// Confidence 答案置信度
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Source 答案引用的来源文档
type Source struct {
	DocumentID    int64    `json:"document_id"`
	Title         string   `json:"title"`
	Correspondent string   `json:"correspondent,omitempty"`
	DocumentType  string   `json:"document_type,omitempty"`
	// RelevanceScore = 1 - distance/2；距离缺失时为 nil
	RelevanceScore *float64 `json:"relevance_score,omitempty"`
}

// Answer 一次问答的结构化结果
type Answer struct {
	Question   string     `json:"question"`
	Text       string     `json:"answer"`
	Sources    []Source   `json:"sources"`
	Confidence Confidence `json:"confidence"`
}

// IndexStats 批量索引统计
type IndexStats struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// IndexStatus 索引总体状态
type IndexStatus struct {
	IndexedChunks  int64 `json:"indexed_chunks"`
	TotalDocuments int   `json:"total_documents"`
}
