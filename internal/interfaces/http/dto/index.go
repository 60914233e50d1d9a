// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"paperless-rag-api/internal/domain/entity"
)

// IndexDocumentRequest 单文档索引请求
type IndexDocumentRequest struct {
	// Force 为 true 时跳过已索引检查，强制重建
	Force bool `json:"force,omitempty"`
}

// IndexEnqueuedResponse 索引任务入队响应
type IndexEnqueuedResponse struct {
	RunID      string `json:"run_id"`
	DocumentID *int64 `json:"document_id,omitempty"`
	Scope      string `json:"scope"`
}

// IndexStatusResponse 索引总体状态响应
type IndexStatusResponse struct {
	IndexedChunks  int64 `json:"indexed_chunks"`
	TotalDocuments int   `json:"total_documents"`
}

// IndexRunResponse 一次索引运行的详情
type IndexRunResponse struct {
	ID           string `json:"id"`
	Trigger      string `json:"trigger"`
	Scope        string `json:"scope"`
	DocumentID   *int64 `json:"document_id,omitempty"`
	Indexed      int    `json:"indexed"`
	Skipped      int    `json:"skipped"`
	Failed       int    `json:"failed"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	DurationMs   int    `json:"duration_ms"`
	StartedAt    string `json:"started_at"`
	CompletedAt  string `json:"completed_at,omitempty"`
}

// NewIndexRunResponse 从实体构建索引运行响应
func NewIndexRunResponse(run *entity.IndexRun) *IndexRunResponse {
	resp := &IndexRunResponse{
		ID:           run.ID,
		Trigger:      string(run.Trigger),
		Scope:        string(run.Scope),
		DocumentID:   run.DocumentID,
		Indexed:      run.Indexed,
		Skipped:      run.Skipped,
		Failed:       run.Failed,
		Status:       string(run.Status),
		ErrorMessage: run.ErrorMessage,
		DurationMs:   run.DurationMs,
		StartedAt:    run.StartedAt.Format(time.RFC3339),
	}
	if run.CompletedAt != nil {
		resp.CompletedAt = run.CompletedAt.Format(time.RFC3339)
	}
	return resp
}

// IndexRunListResponse 索引运行列表响应
type IndexRunListResponse struct {
	Runs []*IndexRunResponse `json:"runs"`
}
