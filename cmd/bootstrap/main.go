// Package main 系统初始化入口（bootstrap）
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"paperless-rag-api/internal/config"
	"paperless-rag-api/internal/domain/entity"
	"paperless-rag-api/internal/wire"
	"paperless-rag-api/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx := context.Background()

	// 2. 初始化数据层
	dataLayer, cleanup, err := wire.NewDataLayer(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize data layer: %v", err)
	}
	defer cleanup()

	// 3. 创建审计表
	fmt.Println("Migrating audit tables...")
	if err := dataLayer.PgClient.DB().AutoMigrate(&entity.IndexRun{}, &entity.QuestionLog{}); err != nil {
		log.Fatalf("failed to migrate tables: %v", err)
	}

	// 4. 创建向量集合和索引
	fmt.Println("Ensuring vector collection...")
	if err := dataLayer.VectorRepo.EnsureCollection(ctx); err != nil {
		log.Fatalf("failed to ensure vector collection: %v", err)
	}

	// 5. 可选的全量索引
	if os.Getenv("BOOTSTRAP_INDEX_ALL") == "true" {
		retrievalLayer, err := wire.NewRetrievalLayer(ctx, cfg, dataLayer)
		if err != nil {
			log.Fatalf("failed to initialize retrieval layer: %v", err)
		}

		run := entity.NewIndexRun(fmt.Sprintf("bootstrap-%d", os.Getpid()), entity.IndexRunTriggerBootstrap, entity.IndexRunScopeAll, nil)
		if err := dataLayer.IndexRunRepo.Create(ctx, run); err != nil {
			log.Printf("failed to create index run: %v", err)
		}

		fmt.Println("Indexing all documents...")
		stats, err := retrievalLayer.Indexer.IndexAll(ctx)
		if err != nil {
			run.Fail(err.Error())
			_ = dataLayer.IndexRunRepo.Update(ctx, run)
			log.Fatalf("failed to index documents: %v", err)
		}

		run.Complete(stats.Indexed, stats.Skipped, stats.Failed)
		if err := dataLayer.IndexRunRepo.Update(ctx, run); err != nil {
			log.Printf("failed to update index run: %v", err)
		}
		fmt.Printf("Indexing done: %d indexed, %d skipped, %d failed\n", stats.Indexed, stats.Skipped, stats.Failed)
	}

	fmt.Println("Bootstrap completed successfully.")
}
