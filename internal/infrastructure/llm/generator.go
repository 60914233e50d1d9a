package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"paperless-rag-api/internal/application/retrieval"
	"paperless-rag-api/internal/config"
	"paperless-rag-api/pkg/metrics"
)

// Generator 把 ChatModel 适配为应用层的文本生成端口
type Generator struct {
	factory  *EinoFactory
	provider string
	model    string
}

// NewGenerator 创建生成器，使用配置的默认 provider。
func NewGenerator(factory *EinoFactory, cfg *config.LLMConfig) *Generator {
	provider := cfg.DefaultProvider
	modelName := ""
	if p, ok := cfg.Providers[provider]; ok {
		modelName = p.Model
	}
	return &Generator{
		factory:  factory,
		provider: provider,
		model:    modelName,
	}
}

var _ retrieval.TextGenerator = (*Generator)(nil)

// Generate 以给定温度生成单轮回复
func (g *Generator) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	if g == nil || g.factory == nil {
		return "", fmt.Errorf("llm generator not configured")
	}

	chatModel, err := g.factory.Default(ctx)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := chatModel.Generate(ctx,
		[]*schema.Message{schema.UserMessage(prompt)},
		model.WithTemperature(temperature),
	)
	metrics.LLMCallDuration.WithLabelValues(g.provider, g.model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMCallTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		return "", fmt.Errorf("llm generation failed: %w", err)
	}
	metrics.LLMCallTotal.WithLabelValues(g.provider, g.model, "ok").Inc()

	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		usage := resp.ResponseMeta.Usage
		metrics.LLMTokensUsed.WithLabelValues(g.provider, g.model, "prompt").Add(float64(usage.PromptTokens))
		metrics.LLMTokensUsed.WithLabelValues(g.provider, g.model, "completion").Add(float64(usage.CompletionTokens))
	}

	return strings.TrimSpace(resp.Content), nil
}
