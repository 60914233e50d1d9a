// Package wire 提供依赖注入配置
package wire

import (
	"context"
	"fmt"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"github.com/gin-gonic/gin"

	"paperless-rag-api/internal/application/retrieval"
	"paperless-rag-api/internal/config"
	"paperless-rag-api/internal/domain/repository"
	infraembedding "paperless-rag-api/internal/infrastructure/embedding"
	"paperless-rag-api/internal/infrastructure/llm"
	"paperless-rag-api/internal/infrastructure/messaging"
	"paperless-rag-api/internal/infrastructure/paperless"
	"paperless-rag-api/internal/infrastructure/persistence/milvus"
	"paperless-rag-api/internal/infrastructure/persistence/postgres"
	"paperless-rag-api/internal/infrastructure/persistence/redis"
	"paperless-rag-api/internal/interfaces/http/handler"
	"paperless-rag-api/internal/interfaces/http/router"
	"paperless-rag-api/pkg/logger"
)

// DataLayer 数据层依赖容器
type DataLayer struct {
	// PostgreSQL
	PgClient        *postgres.Client
	TxManager       *postgres.TxManager
	IndexRunRepo    repository.IndexRunRepository
	QuestionLogRepo repository.QuestionLogRepository

	// Redis
	RedisClient *redis.Client
	Cache       *redis.Cache
	RateLimiter *redis.RateLimiter

	// Messaging
	Producer *messaging.Producer

	// Milvus
	MilvusClient *milvus.Client
	VectorRepo   *milvus.RetrievalVectorRepository

	// 文档源
	Paperless *paperless.Client
}

// NewDataLayer 构建数据层
func NewDataLayer(ctx context.Context, cfg *config.Config) (*DataLayer, func(), error) {
	pg, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init postgres: %w", err)
	}

	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		_ = pg.Close()
		return nil, nil, fmt.Errorf("failed to init redis: %w", err)
	}

	milvusClient, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		_ = redisClient.Close()
		_ = pg.Close()
		return nil, nil, fmt.Errorf("failed to init milvus: %w", err)
	}

	vectorRepo := milvus.NewRetrievalVectorRepository(
		milvus.NewRepository(milvusClient, cfg.Embedding.Dimension),
	)

	cleanup := func() {
		if err := milvusClient.Close(); err != nil {
			logger.Warn(context.Background(), "failed to close milvus client", "error", err)
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn(context.Background(), "failed to close redis client", "error", err)
		}
		if err := pg.Close(); err != nil {
			logger.Warn(context.Background(), "failed to close postgres client", "error", err)
		}
	}

	return &DataLayer{
		PgClient:        pg,
		TxManager:       postgres.NewTxManager(pg),
		IndexRunRepo:    postgres.NewIndexRunRepository(pg),
		QuestionLogRepo: postgres.NewQuestionLogRepository(pg),
		RedisClient:     redisClient,
		Cache:           redis.NewCache(redisClient),
		RateLimiter:     redis.NewRateLimiter(redisClient),
		Producer:        messaging.NewProducer(redisClient.Redis(), int64(cfg.Messaging.RedisStream.MaxLen)),
		MilvusClient:    milvusClient,
		VectorRepo:      vectorRepo,
		Paperless:       paperless.NewClient(&cfg.Paperless),
	}, cleanup, nil
}

// RetrievalLayer 检索应用层依赖容器
type RetrievalLayer struct {
	Embedder  einoembedding.Embedder
	Generator *llm.Generator
	Engine    *retrieval.Engine
	Answerer  *retrieval.Answerer
	Indexer   *retrieval.Indexer
	Metadata  retrieval.MetadataOptionsProvider
}

// NewRetrievalLayer 构建检索应用层
func NewRetrievalLayer(ctx context.Context, cfg *config.Config, data *DataLayer) (*RetrievalLayer, error) {
	embedder, err := infraembedding.NewEmbedder(ctx, &cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to init embedder: %w", err)
	}

	generator := llm.NewGenerator(llm.NewEinoFactory(cfg), &cfg.LLM)

	metadata := redis.NewMetadataOptionsCache(data.Cache, data.Paperless)

	expander := retrieval.NewExpander(generator, cfg.Retrieval.LLMExpansion)
	filters := retrieval.NewFilterExtractor(generator, cfg.Retrieval.LLMFilters)

	engine := retrieval.NewEngine(embedder, data.VectorRepo, generator, expander, filters, metadata,
		retrieval.EngineConfig{
			QueryVariants: cfg.Retrieval.QueryVariants,
			MinPerVariant: cfg.Retrieval.MinPerVariant,
			MultiQuery:    cfg.Retrieval.MultiQuery,
		})

	confidence := retrieval.NewConfidenceEstimator(cfg.Retrieval.Confidence)
	answerer := retrieval.NewAnswerer(engine, generator, confidence, cfg.Retrieval.ContextDocs)

	chunker := retrieval.NewChunker(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	indexer := retrieval.NewIndexer(chunker, embedder, data.VectorRepo, data.Paperless,
		retrieval.IndexerConfig{
			PreviewRunes: cfg.Retrieval.PreviewLength,
			Concurrency:  cfg.Retrieval.IndexConcurrency,
		})

	return &RetrievalLayer{
		Embedder:  embedder,
		Generator: generator,
		Engine:    engine,
		Answerer:  answerer,
		Indexer:   indexer,
		Metadata:  metadata,
	}, nil
}

// App API 服务依赖容器
type App struct {
	Config    *config.Config
	Data      *DataLayer
	Retrieval *RetrievalLayer
	Router    *router.Router
}

// Engine 返回 HTTP 引擎
func (a *App) Engine() *gin.Engine {
	return a.Router.Engine()
}

// InitializeApp 构建 API 服务
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	data, cleanup, err := NewDataLayer(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	retrievalLayer, err := NewRetrievalLayer(ctx, cfg, data)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	handlers := &router.Handlers{
		Health: handler.NewHealthHandler(data.PgClient, data.RedisClient, data.MilvusClient, data.Paperless),
		QA: handler.NewQAHandler(
			retrievalLayer.Answerer,
			retrievalLayer.Engine,
			retrievalLayer.Metadata,
			data.QuestionLogRepo,
			cfg.Retrieval.TopK,
		),
		Index: handler.NewIndexHandler(data.Producer, retrievalLayer.Indexer, data.IndexRunRepo),
	}

	return &App{
		Config:    cfg,
		Data:      data,
		Retrieval: retrievalLayer,
		Router:    router.New(cfg, handlers, data.RateLimiter),
	}, cleanup, nil
}

// Worker 索引 Worker 依赖容器
type Worker struct {
	Config    *config.Config
	Data      *DataLayer
	Retrieval *RetrievalLayer
	Consumer  *messaging.Consumer
}

// InitializeWorker 构建索引 Worker
func InitializeWorker(ctx context.Context, cfg *config.Config, consumerName string) (*Worker, func(), error) {
	data, cleanup, err := NewDataLayer(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	retrievalLayer, err := NewRetrievalLayer(ctx, cfg, data)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	consumer := messaging.NewConsumer(data.RedisClient.Redis(), messaging.ConsumerConfig{
		Stream:        messaging.StreamIndexJobs,
		Group:         messaging.ConsumerGroupIndexWorker,
		ConsumerName:  consumerName,
		BlockTimeout:  cfg.Messaging.RedisStream.BlockTimeout,
		ClaimInterval: cfg.Messaging.RedisStream.ClaimInterval,
		RetryLimit:    cfg.Messaging.RedisStream.RetryLimit,
		Backoff: messaging.BackoffConfig{
			Initial:    cfg.Messaging.RedisStream.RetryBackoff.Initial,
			Max:        cfg.Messaging.RedisStream.RetryBackoff.Max,
			Multiplier: cfg.Messaging.RedisStream.RetryBackoff.Multiplier,
		},
	})

	return &Worker{
		Config:    cfg,
		Data:      data,
		Retrieval: retrievalLayer,
		Consumer:  consumer,
	}, cleanup, nil
}
