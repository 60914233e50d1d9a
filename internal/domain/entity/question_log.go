// Package entity 定义领域实体
package entity

import (
	"encoding/json"
	"time"
)

// QuestionLog 一次问答的审计记录
type QuestionLog struct {
	ID         string          `json:"id" gorm:"primaryKey"`
	Question   string          `json:"question"`
	Answer     string          `json:"answer"`
	Confidence string          `json:"confidence"`
	Sources    json.RawMessage `json:"sources,omitempty" gorm:"type:jsonb"`
	DurationMs int             `json:"duration_ms"`
	CreatedAt  time.Time       `json:"created_at"`
}
