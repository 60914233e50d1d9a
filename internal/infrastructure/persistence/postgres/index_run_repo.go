// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"paperless-rag-api/internal/domain/entity"
	"paperless-rag-api/internal/domain/repository"
)

// IndexRunRepository 索引运行审计仓储实现
type IndexRunRepository struct {
	client *Client
}

// NewIndexRunRepository 创建索引运行仓储
func NewIndexRunRepository(client *Client) *IndexRunRepository {
	return &IndexRunRepository{client: client}
}

var _ repository.IndexRunRepository = (*IndexRunRepository)(nil)

// Create 创建索引运行记录
func (r *IndexRunRepository) Create(ctx context.Context, run *entity.IndexRun) error {
	ctx, span := tracer.Start(ctx, "postgres.IndexRunRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(run).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index run: %w", err)
	}
	return nil
}

// Update 更新索引运行记录
func (r *IndexRunRepository) Update(ctx context.Context, run *entity.IndexRun) error {
	ctx, span := tracer.Start(ctx, "postgres.IndexRunRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(run).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update index run: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取索引运行记录
func (r *IndexRunRepository) GetByID(ctx context.Context, id string) (*entity.IndexRun, error) {
	ctx, span := tracer.Start(ctx, "postgres.IndexRunRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var run entity.IndexRun
	if err := db.First(&run, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get index run: %w", err)
	}
	return &run, nil
}

// ListRecent 获取最近的索引运行记录
func (r *IndexRunRepository) ListRecent(ctx context.Context, limit int) ([]*entity.IndexRun, error) {
	ctx, span := tracer.Start(ctx, "postgres.IndexRunRepository.ListRecent")
	defer span.End()

	if limit <= 0 {
		limit = 20
	}

	db := getDB(ctx, r.client.db)
	var runs []*entity.IndexRun
	if err := db.Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list index runs: %w", err)
	}
	return runs, nil
}
