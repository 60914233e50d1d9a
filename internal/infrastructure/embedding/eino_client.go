package embedding

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino/components/embedding"

	"paperless-rag-api/internal/config"
)

// NewEmbedder 按配置的 provider 创建 Embedder。
// ollama 走原生接口，其余走 OpenAI 兼容接口。
func NewEmbedder(ctx context.Context, cfg *config.EmbeddingConfig) (embedding.Embedder, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("embedding endpoint is required")
	}

	switch cfg.Provider {
	case "", "ollama":
		return NewOllamaEmbedder(cfg), nil
	default:
		return newOpenAIEmbedder(ctx, cfg)
	}
}

// newOpenAIEmbedder 创建基于 Eino OpenAI 适配器的 Embedder
func newOpenAIEmbedder(ctx context.Context, cfg *config.EmbeddingConfig) (embedding.Embedder, error) {
	embedder, err := openai.NewEmbedder(ctx, &openai.EmbeddingConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.Endpoint,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create eino embedder: %w", err)
	}

	return embedder, nil
}
