// Package handler 提供 HTTP 请求处理器
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"paperless-rag-api/internal/application/retrieval"
	"paperless-rag-api/internal/domain/entity"
	"paperless-rag-api/internal/domain/repository"
	"paperless-rag-api/internal/infrastructure/messaging"
	"paperless-rag-api/internal/interfaces/http/dto"
	"paperless-rag-api/pkg/logger"
)

// IndexHandler 索引管理处理器
type IndexHandler struct {
	producer *messaging.Producer
	indexer  *retrieval.Indexer
	runs     repository.IndexRunRepository
}

// NewIndexHandler 创建索引管理处理器
func NewIndexHandler(producer *messaging.Producer, indexer *retrieval.Indexer, runs repository.IndexRunRepository) *IndexHandler {
	return &IndexHandler{
		producer: producer,
		indexer:  indexer,
		runs:     runs,
	}
}

// IndexDocument 提交单文档索引任务
// @Summary 索引单文档
// @Description 异步索引指定文档，已索引的文档默认跳过
// @Tags Index
// @Accept json
// @Produce json
// @Param id path int true "文档 ID"
// @Param body body dto.IndexDocumentRequest false "索引请求"
// @Success 202 {object} dto.Response[dto.IndexEnqueuedResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/index/documents/{id} [post]
func (h *IndexHandler) IndexDocument(c *gin.Context) {
	docID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || docID <= 0 {
		dto.BadRequest(c, "invalid document id")
		return
	}

	var req dto.IndexDocumentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			dto.BadRequest(c, "invalid request: "+err.Error())
			return
		}
	}

	h.enqueueDocument(c, docID, req.Force, false)
}

// ReindexDocument 提交单文档重建索引任务
// @Summary 重建单文档索引
// @Description 删除文档现有分片后重新索引
// @Tags Index
// @Produce json
// @Param id path int true "文档 ID"
// @Success 202 {object} dto.Response[dto.IndexEnqueuedResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/index/documents/{id}/reindex [post]
func (h *IndexHandler) ReindexDocument(c *gin.Context) {
	docID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || docID <= 0 {
		dto.BadRequest(c, "invalid document id")
		return
	}

	h.enqueueDocument(c, docID, true, true)
}

func (h *IndexHandler) enqueueDocument(c *gin.Context, docID int64, force, reindex bool) {
	ctx := c.Request.Context()
	runID := uuid.New().String()

	run := entity.NewIndexRun(runID, entity.IndexRunTriggerAPI, entity.IndexRunScopeDocument, &docID)
	if err := h.runs.Create(ctx, run); err != nil {
		logger.Error(ctx, "failed to create index run", err, "document_id", docID)
		dto.InternalError(c, "failed to create index run")
		return
	}

	job := &messaging.IndexDocumentMessage{RunID: runID, DocumentID: docID, Force: force}

	var err error
	if reindex {
		_, err = h.producer.PublishReindexDocument(ctx, job)
	} else {
		_, err = h.producer.PublishIndexDocument(ctx, job)
	}
	if err != nil {
		logger.Error(ctx, "failed to enqueue index job", err, "document_id", docID)
		dto.InternalError(c, "failed to enqueue index job")
		return
	}

	dto.Accepted(c, &dto.IndexEnqueuedResponse{
		RunID:      runID,
		DocumentID: &docID,
		Scope:      string(entity.IndexRunScopeDocument),
	})
}

// IndexAll 提交全量索引任务
// @Summary 全量索引
// @Description 异步索引文档源中的所有文档
// @Tags Index
// @Produce json
// @Success 202 {object} dto.Response[dto.IndexEnqueuedResponse]
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/index/documents [post]
func (h *IndexHandler) IndexAll(c *gin.Context) {
	ctx := c.Request.Context()
	runID := uuid.New().String()

	run := entity.NewIndexRun(runID, entity.IndexRunTriggerAPI, entity.IndexRunScopeAll, nil)
	if err := h.runs.Create(ctx, run); err != nil {
		logger.Error(ctx, "failed to create index run", err)
		dto.InternalError(c, "failed to create index run")
		return
	}

	if _, err := h.producer.PublishIndexAll(ctx, &messaging.IndexAllMessage{RunID: runID}); err != nil {
		logger.Error(ctx, "failed to enqueue index job", err)
		dto.InternalError(c, "failed to enqueue index job")
		return
	}

	dto.Accepted(c, &dto.IndexEnqueuedResponse{
		RunID: runID,
		Scope: string(entity.IndexRunScopeAll),
	})
}

// Status 获取索引总体状态
// @Summary 索引状态
// @Description 返回已索引分片数和文档源文档总数
// @Tags Index
// @Produce json
// @Success 200 {object} dto.Response[dto.IndexStatusResponse]
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/index/status [get]
func (h *IndexHandler) Status(c *gin.Context) {
	status, err := h.indexer.Status(c.Request.Context())
	if err != nil {
		logger.Error(c.Request.Context(), "failed to load index status", err)
		dto.InternalError(c, "failed to load index status")
		return
	}

	dto.Success(c, &dto.IndexStatusResponse{
		IndexedChunks:  status.IndexedChunks,
		TotalDocuments: status.TotalDocuments,
	})
}

// ListRuns 获取最近的索引运行记录
// @Summary 索引运行列表
// @Description 返回最近的索引运行审计记录
// @Tags Index
// @Produce json
// @Param limit query int false "返回数量"
// @Success 200 {object} dto.Response[dto.IndexRunListResponse]
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/index/runs [get]
func (h *IndexHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	runs, err := h.runs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to list index runs", err)
		dto.InternalError(c, "failed to list index runs")
		return
	}

	items := make([]*dto.IndexRunResponse, 0, len(runs))
	for _, run := range runs {
		items = append(items, dto.NewIndexRunResponse(run))
	}

	dto.Success(c, &dto.IndexRunListResponse{Runs: items})
}

// GetRun 获取单次索引运行详情
// @Summary 索引运行详情
// @Tags Index
// @Produce json
// @Param rid path string true "运行 ID"
// @Success 200 {object} dto.Response[dto.IndexRunResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/index/runs/{rid} [get]
func (h *IndexHandler) GetRun(c *gin.Context) {
	run, err := h.runs.GetByID(c.Request.Context(), c.Param("rid"))
	if err != nil {
		logger.Error(c.Request.Context(), "failed to load index run", err)
		dto.InternalError(c, "failed to load index run")
		return
	}
	if run == nil {
		dto.NotFound(c, "index run not found")
		return
	}

	dto.Success(c, dto.NewIndexRunResponse(run))
}

// Reset 清空向量索引
// @Summary 清空索引
// @Description 删除整个向量集合，下次索引时重建
// @Tags Index
// @Produce json
// @Success 204
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/index [delete]
func (h *IndexHandler) Reset(c *gin.Context) {
	if err := h.indexer.Reset(c.Request.Context()); err != nil {
		logger.Error(c.Request.Context(), "failed to reset index", err)
		dto.InternalError(c, "failed to reset index")
		return
	}

	dto.NoContent(c)
}
