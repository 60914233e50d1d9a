// Package main 异步索引执行器入口（index-worker）
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"paperless-rag-api/internal/config"
	"paperless-rag-api/internal/domain/entity"
	"paperless-rag-api/internal/domain/repository"
	"paperless-rag-api/internal/infrastructure/messaging"
	einoobs "paperless-rag-api/internal/observability/eino"
	"paperless-rag-api/internal/wire"
	"paperless-rag-api/pkg/logger"
	"paperless-rag-api/pkg/tracer"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx := context.Background()

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "index-worker",
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(ctx) }()

	einoobs.Init()

	worker, cleanup, err := wire.InitializeWorker(ctx, cfg, hostnameConsumerName())
	if err != nil {
		logger.Fatal(ctx, "failed to initialize worker", err)
	}
	defer cleanup()

	indexer := worker.Retrieval.Indexer
	runs := worker.Data.IndexRunRepo

	worker.Consumer.RegisterHandler(messaging.TypeIndexDocument, func(msgCtx context.Context, msg *messaging.Message) error {
		var payload messaging.IndexDocumentMessage
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return err
		}

		return withRun(msgCtx, runs, payload.RunID,
			func(runCtx context.Context) (*entity.IndexRun, error) {
				run := mustRun(runCtx, runs, payload.RunID, entity.IndexRunScopeDocument, &payload.DocumentID)
				ok, err := indexer.IndexDocument(runCtx, payload.DocumentID, payload.Force)
				applyDocumentResult(run, ok, err)
				return run, err
			})
	})

	worker.Consumer.RegisterHandler(messaging.TypeReindexDocument, func(msgCtx context.Context, msg *messaging.Message) error {
		var payload messaging.IndexDocumentMessage
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return err
		}

		return withRun(msgCtx, runs, payload.RunID,
			func(runCtx context.Context) (*entity.IndexRun, error) {
				run := mustRun(runCtx, runs, payload.RunID, entity.IndexRunScopeDocument, &payload.DocumentID)
				ok, err := indexer.ReindexDocument(runCtx, payload.DocumentID)
				applyDocumentResult(run, ok, err)
				return run, err
			})
	})

	worker.Consumer.RegisterHandler(messaging.TypeIndexAll, func(msgCtx context.Context, msg *messaging.Message) error {
		var payload messaging.IndexAllMessage
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return err
		}

		return withRun(msgCtx, runs, payload.RunID,
			func(runCtx context.Context) (*entity.IndexRun, error) {
				run := mustRun(runCtx, runs, payload.RunID, entity.IndexRunScopeAll, nil)
				stats, err := indexer.IndexAll(runCtx)
				if err != nil {
					run.Fail(err.Error())
				} else {
					run.Complete(stats.Indexed, stats.Skipped, stats.Failed)
				}
				return run, err
			})
	})

	if err := worker.Consumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start consumer", err)
	}

	log := logger.FromContext(ctx)
	log.Info("index-worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("index-worker shutting down")
	worker.Consumer.Stop()
}

// withRun 执行索引任务并持久化运行记录，记录更新失败只告警
func withRun(
	ctx context.Context,
	runs repository.IndexRunRepository,
	runID string,
	fn func(ctx context.Context) (*entity.IndexRun, error),
) error {
	run, err := fn(ctx)
	if updateErr := runs.Update(ctx, run); updateErr != nil {
		logger.Warn(ctx, "failed to update index run", "run_id", runID, "error", updateErr)
	}
	return err
}

// mustRun 加载运行记录，缺失时补建一条 worker 触发的记录
func mustRun(ctx context.Context, runs repository.IndexRunRepository, runID string, scope entity.IndexRunScope, documentID *int64) *entity.IndexRun {
	run, err := runs.GetByID(ctx, runID)
	if err != nil {
		logger.Warn(ctx, "failed to load index run", "run_id", runID, "error", err)
	}
	if run == nil {
		run = entity.NewIndexRun(runID, entity.IndexRunTriggerWorker, scope, documentID)
		if err := runs.Create(ctx, run); err != nil {
			logger.Warn(ctx, "failed to create index run", "run_id", runID, "error", err)
		}
	}
	return run
}

// applyDocumentResult 把单文档索引结果写入运行记录。
// ok 为 false 且无错误表示部分分片嵌入失败，计入 failed。
func applyDocumentResult(run *entity.IndexRun, ok bool, err error) {
	switch {
	case err != nil:
		run.Fail(err.Error())
	case ok:
		run.Complete(1, 0, 0)
	default:
		run.Complete(0, 0, 1)
	}
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
