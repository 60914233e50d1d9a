// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"paperless-rag-api/internal/domain/entity"
)

// IndexRunRepository 索引运行审计仓储接口
type IndexRunRepository interface {
	// Create 创建索引运行记录
	Create(ctx context.Context, run *entity.IndexRun) error

	// Update 更新索引运行记录
	Update(ctx context.Context, run *entity.IndexRun) error

	// GetByID 根据 ID 获取索引运行记录
	GetByID(ctx context.Context, id string) (*entity.IndexRun, error)

	// ListRecent 获取最近的索引运行记录
	ListRecent(ctx context.Context, limit int) ([]*entity.IndexRun, error)
}
