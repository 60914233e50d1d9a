// Package entity 定义领域实体
package entity

import "time"

// IndexRunTrigger 索引运行触发方式
type IndexRunTrigger string

const (
	IndexRunTriggerAPI       IndexRunTrigger = "api"
	IndexRunTriggerWorker    IndexRunTrigger = "worker"
	IndexRunTriggerBootstrap IndexRunTrigger = "bootstrap"
)

// IndexRunScope 索引运行范围
type IndexRunScope string

const (
	IndexRunScopeAll      IndexRunScope = "all"
	IndexRunScopeDocument IndexRunScope = "document"
)

// IndexRunStatus 索引运行状态
type IndexRunStatus string

const (
	IndexRunStatusRunning   IndexRunStatus = "running"
	IndexRunStatusCompleted IndexRunStatus = "completed"
	IndexRunStatusFailed    IndexRunStatus = "failed"
)

// IndexRun 一次索引运行的审计记录
type IndexRun struct {
	ID           string          `json:"id" gorm:"primaryKey"`
	Trigger      IndexRunTrigger `json:"trigger"`
	Scope        IndexRunScope   `json:"scope"`
	DocumentID   *int64          `json:"document_id,omitempty"`
	Indexed      int             `json:"indexed"`
	Skipped      int             `json:"skipped"`
	Failed       int             `json:"failed"`
	Status       IndexRunStatus  `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	DurationMs   int             `json:"duration_ms"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// NewIndexRun 创建索引运行记录
func NewIndexRun(id string, trigger IndexRunTrigger, scope IndexRunScope, documentID *int64) *IndexRun {
	return &IndexRun{
		ID:         id,
		Trigger:    trigger,
		Scope:      scope,
		DocumentID: documentID,
		Status:     IndexRunStatusRunning,
		StartedAt:  time.Now(),
	}
}

// Complete 完成索引运行
func (r *IndexRun) Complete(indexed, skipped, failed int) {
	now := time.Now()
	r.Indexed = indexed
	r.Skipped = skipped
	r.Failed = failed
	r.Status = IndexRunStatusCompleted
	r.CompletedAt = &now
	r.DurationMs = int(now.Sub(r.StartedAt).Milliseconds())
}

// Fail 索引运行失败
func (r *IndexRun) Fail(errMsg string) {
	now := time.Now()
	r.Status = IndexRunStatusFailed
	r.ErrorMessage = errMsg
	r.CompletedAt = &now
	r.DurationMs = int(now.Sub(r.StartedAt).Milliseconds())
}
