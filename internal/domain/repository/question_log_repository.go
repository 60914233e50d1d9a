// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"paperless-rag-api/internal/domain/entity"
)

// QuestionLogRepository 问答审计仓储接口
type QuestionLogRepository interface {
	// Create 创建问答记录
	Create(ctx context.Context, log *entity.QuestionLog) error

	// List 分页获取问答记录（按时间倒序）
	List(ctx context.Context, pagination Pagination) (*PagedResult[*entity.QuestionLog], error)
}
