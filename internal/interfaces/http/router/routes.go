// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"

	"paperless-rag-api/internal/interfaces/http/handler"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(
	v1 *gin.RouterGroup,
	qaHandler *handler.QAHandler,
	indexHandler *handler.IndexHandler,
) {
	// 问答与检索
	qa := v1.Group("/qa")
	{
		qa.POST("/ask", qaHandler.Ask)
		qa.POST("/search", qaHandler.Search)
		qa.GET("/metadata-options", qaHandler.MetadataOptions)
		qa.GET("/history", qaHandler.History)
	}

	// 索引管理
	index := v1.Group("/index")
	{
		index.POST("/documents", indexHandler.IndexAll)
		index.POST("/documents/:id", indexHandler.IndexDocument)
		index.POST("/documents/:id/reindex", indexHandler.ReindexDocument)
		index.GET("/status", indexHandler.Status)
		index.GET("/runs", indexHandler.ListRuns)
		index.GET("/runs/:rid", indexHandler.GetRun)
		index.DELETE("", indexHandler.Reset)
	}
}
