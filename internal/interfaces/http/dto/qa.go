// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"paperless-rag-api/internal/application/retrieval"
	"paperless-rag-api/internal/domain/entity"
)

// AskRequest 问答请求
type AskRequest struct {
	Question string `json:"question" binding:"required,min=1,max=2000"`

	// 可选的显式过滤条件，优先于从问题中自动抽取的条件
	DocumentType  string   `json:"document_type,omitempty"`
	Correspondent string   `json:"correspondent,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Year          string   `json:"year,omitempty"`
	Month         string   `json:"month,omitempty"`
}

// ToFilters 转换为检索过滤条件，全部为空时返回 nil
func (r *AskRequest) ToFilters() *retrieval.Filters {
	f := &retrieval.Filters{
		DocumentType:  r.DocumentType,
		Correspondent: r.Correspondent,
		Tags:          r.Tags,
		Year:          r.Year,
		Month:         r.Month,
	}
	if f.IsZero() {
		return nil
	}
	return f
}

// SourceResponse 答案引用的来源文档
type SourceResponse struct {
	DocumentID     int64    `json:"document_id"`
	Title          string   `json:"title"`
	Correspondent  string   `json:"correspondent,omitempty"`
	DocumentType   string   `json:"document_type,omitempty"`
	RelevanceScore *float64 `json:"relevance_score,omitempty"`
}

// AskResponse 问答响应
type AskResponse struct {
	Question   string           `json:"question"`
	Answer     string           `json:"answer"`
	Sources    []SourceResponse `json:"sources"`
	Confidence string           `json:"confidence"`
	DurationMs int64            `json:"duration_ms"`
}

// NewAskResponse 从问答结果构建响应
func NewAskResponse(answer *retrieval.Answer, duration time.Duration) *AskResponse {
	sources := make([]SourceResponse, 0, len(answer.Sources))
	for _, s := range answer.Sources {
		sources = append(sources, SourceResponse{
			DocumentID:     s.DocumentID,
			Title:          s.Title,
			Correspondent:  s.Correspondent,
			DocumentType:   s.DocumentType,
			RelevanceScore: s.RelevanceScore,
		})
	}
	return &AskResponse{
		Question:   answer.Question,
		Answer:     answer.Text,
		Sources:    sources,
		Confidence: string(answer.Confidence),
		DurationMs: duration.Milliseconds(),
	}
}

// SearchRequest 检索请求
type SearchRequest struct {
	Query string `json:"query" binding:"required,min=1,max=2000"`
	TopK  int    `json:"top_k,omitempty"`

	DocumentType  string   `json:"document_type,omitempty"`
	Correspondent string   `json:"correspondent,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Year          string   `json:"year,omitempty"`
	Month         string   `json:"month,omitempty"`
}

// ToFilters 转换为检索过滤条件，全部为空时返回 nil
func (r *SearchRequest) ToFilters() *retrieval.Filters {
	f := &retrieval.Filters{
		DocumentType:  r.DocumentType,
		Correspondent: r.Correspondent,
		Tags:          r.Tags,
		Year:          r.Year,
		Month:         r.Month,
	}
	if f.IsZero() {
		return nil
	}
	return f
}

// SearchResultResponse 一条检索结果
type SearchResultResponse struct {
	DocumentID    int64    `json:"document_id"`
	ChunkIndex    int      `json:"chunk_index"`
	TotalChunks   int      `json:"total_chunks"`
	Title         string   `json:"title"`
	Correspondent string   `json:"correspondent,omitempty"`
	DocumentType  string   `json:"document_type,omitempty"`
	Tags          string   `json:"tags,omitempty"`
	Created       string   `json:"created,omitempty"`
	Text          string   `json:"text"`
	Distance      *float64 `json:"distance,omitempty"`
}

// SearchResponse 检索响应
type SearchResponse struct {
	Results []SearchResultResponse `json:"results"`
	Total   int                    `json:"total"`
}

// NewSearchResponse 从召回结果构建响应
func NewSearchResponse(results []retrieval.SearchResult) *SearchResponse {
	items := make([]SearchResultResponse, 0, len(results))
	for _, r := range results {
		items = append(items, SearchResultResponse{
			DocumentID:    r.DocumentID,
			ChunkIndex:    r.ChunkIndex,
			TotalChunks:   r.TotalChunks,
			Title:         r.Title,
			Correspondent: r.Correspondent,
			DocumentType:  r.DocumentType,
			Tags:          r.Tags,
			Created:       r.Created,
			Text:          r.Text,
			Distance:      r.Distance,
		})
	}
	return &SearchResponse{Results: items, Total: len(items)}
}

// MetadataOptionsResponse 文档源元数据取值响应
type MetadataOptionsResponse struct {
	Tags           []string `json:"tags"`
	DocumentTypes  []string `json:"document_types"`
	Correspondents []string `json:"correspondents"`
}

// QuestionLogResponse 一条问答历史记录
type QuestionLogResponse struct {
	ID         string `json:"id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Confidence string `json:"confidence"`
	DurationMs int    `json:"duration_ms"`
	CreatedAt  string `json:"created_at"`
}

// NewQuestionLogResponse 从实体构建历史记录响应
func NewQuestionLogResponse(log *entity.QuestionLog) *QuestionLogResponse {
	return &QuestionLogResponse{
		ID:         log.ID,
		Question:   log.Question,
		Answer:     log.Answer,
		Confidence: log.Confidence,
		DurationMs: log.DurationMs,
		CreatedAt:  log.CreatedAt.Format(time.RFC3339),
	}
}
