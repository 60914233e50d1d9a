// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"paperless-rag-api/internal/domain/entity"
	"paperless-rag-api/internal/domain/repository"
)

// QuestionLogRepository 问答审计仓储实现
type QuestionLogRepository struct {
	client *Client
}

// NewQuestionLogRepository 创建问答审计仓储
func NewQuestionLogRepository(client *Client) *QuestionLogRepository {
	return &QuestionLogRepository{client: client}
}

var _ repository.QuestionLogRepository = (*QuestionLogRepository)(nil)

// Create 创建问答记录
func (r *QuestionLogRepository) Create(ctx context.Context, log *entity.QuestionLog) error {
	ctx, span := tracer.Start(ctx, "postgres.QuestionLogRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(log).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create question log: %w", err)
	}
	return nil
}

// List 分页获取问答记录
func (r *QuestionLogRepository) List(ctx context.Context, pagination repository.Pagination) (*repository.PagedResult[*entity.QuestionLog], error) {
	ctx, span := tracer.Start(ctx, "postgres.QuestionLogRepository.List")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.QuestionLog{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count question logs: %w", err)
	}

	var logs []*entity.QuestionLog
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&logs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list question logs: %w", err)
	}

	return repository.NewPagedResult(logs, total, pagination), nil
}
