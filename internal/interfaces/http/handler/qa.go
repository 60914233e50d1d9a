// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"paperless-rag-api/internal/application/retrieval"
	"paperless-rag-api/internal/domain/entity"
	"paperless-rag-api/internal/domain/repository"
	"paperless-rag-api/internal/interfaces/http/dto"
	"paperless-rag-api/pkg/logger"
)

// QAHandler 问答处理器
type QAHandler struct {
	answerer     *retrieval.Answerer
	engine       *retrieval.Engine
	metadata     retrieval.MetadataOptionsProvider
	questionLogs repository.QuestionLogRepository
	topK         int
}

// NewQAHandler 创建问答处理器
func NewQAHandler(
	answerer *retrieval.Answerer,
	engine *retrieval.Engine,
	metadata retrieval.MetadataOptionsProvider,
	questionLogs repository.QuestionLogRepository,
	topK int,
) *QAHandler {
	if topK <= 0 {
		topK = 5
	}
	return &QAHandler{
		answerer:     answerer,
		engine:       engine,
		metadata:     metadata,
		questionLogs: questionLogs,
		topK:         topK,
	}
}

// Ask 基于文档库回答问题
// @Summary 问答
// @Description 检索相关文档并生成带来源和置信度的答案
// @Tags QA
// @Accept json
// @Produce json
// @Param body body dto.AskRequest true "问答请求"
// @Success 200 {object} dto.Response[dto.AskResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/qa/ask [post]
func (h *QAHandler) Ask(c *gin.Context) {
	var req dto.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	start := time.Now()
	answer, err := h.answerer.Ask(c.Request.Context(), req.Question, req.ToFilters())
	if err != nil {
		logger.Error(c.Request.Context(), "qa ask failed", err, "question_len", len(req.Question))
		dto.InternalError(c, "failed to answer question")
		return
	}
	duration := time.Since(start)

	h.logQuestion(c.Request.Context(), answer, duration)

	dto.Success(c, dto.NewAskResponse(answer, duration))
}

// logQuestion 记录问答审计，失败只告警不影响响应
func (h *QAHandler) logQuestion(ctx context.Context, answer *retrieval.Answer, duration time.Duration) {
	if h.questionLogs == nil {
		return
	}

	sources, err := json.Marshal(answer.Sources)
	if err != nil {
		sources = nil
	}

	record := &entity.QuestionLog{
		ID:         uuid.New().String(),
		Question:   answer.Question,
		Answer:     answer.Text,
		Confidence: string(answer.Confidence),
		Sources:    sources,
		DurationMs: int(duration.Milliseconds()),
		CreatedAt:  time.Now(),
	}
	if err := h.questionLogs.Create(ctx, record); err != nil {
		logger.Warn(ctx, "failed to persist question log", "error", err)
	}
}

// Search 检索相关文档分片
// @Summary 检索
// @Description 多查询向量检索，返回按文档去重后的结果
// @Tags QA
// @Accept json
// @Produce json
// @Param body body dto.SearchRequest true "检索请求"
// @Success 200 {object} dto.Response[dto.SearchResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/qa/search [post]
func (h *QAHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = h.topK
	}
	if topK > 50 {
		topK = 50
	}

	results, err := h.engine.Retrieve(c.Request.Context(), req.Query, topK, req.ToFilters())
	if err != nil {
		logger.Error(c.Request.Context(), "qa search failed", err, "query_len", len(req.Query))
		dto.InternalError(c, "failed to search documents")
		return
	}

	dto.Success(c, dto.NewSearchResponse(results))
}

// MetadataOptions 获取文档源元数据取值
// @Summary 元数据取值
// @Description 返回文档源中已知的标签、文档类型和通信方
// @Tags QA
// @Produce json
// @Success 200 {object} dto.Response[dto.MetadataOptionsResponse]
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/qa/metadata-options [get]
func (h *QAHandler) MetadataOptions(c *gin.Context) {
	opts, err := h.metadata.MetadataOptions(c.Request.Context())
	if err != nil {
		logger.Error(c.Request.Context(), "failed to load metadata options", err)
		dto.InternalError(c, "failed to load metadata options")
		return
	}

	dto.Success(c, &dto.MetadataOptionsResponse{
		Tags:           opts.Tags,
		DocumentTypes:  opts.DocumentTypes,
		Correspondents: opts.Correspondents,
	})
}

// History 获取问答历史
// @Summary 问答历史
// @Description 分页返回问答审计记录，按时间倒序
// @Tags QA
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.Response[[]dto.QuestionLogResponse]
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/qa/history [get]
func (h *QAHandler) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	result, err := h.questionLogs.List(c.Request.Context(), repository.NewPagination(page, pageSize))
	if err != nil {
		logger.Error(c.Request.Context(), "failed to list question logs", err)
		dto.InternalError(c, "failed to load history")
		return
	}

	items := make([]*dto.QuestionLogResponse, 0, len(result.Items))
	for _, log := range result.Items {
		items = append(items, dto.NewQuestionLogResponse(log))
	}

	dto.SuccessWithPage(c, items, &dto.PageMeta{
		Page:       result.Page,
		PageSize:   result.PageSize,
		Total:      int(result.Total),
		TotalPages: result.TotalPages,
	})
}
