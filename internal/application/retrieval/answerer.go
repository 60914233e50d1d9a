package retrieval

import (
	"context"
	"fmt"
	"strings"

	"paperless-rag-api/pkg/logger"
	"paperless-rag-api/pkg/metrics"
)

const (
	defaultContextDocs = 3
	answerTemperature  = 0.7

	// 固定降级文案（面向用户，德语）
	fallbackNoDocuments    = "Ich konnte keine relevanten Dokumente finden, um diese Frage zu beantworten."
	fallbackEmptyAnswer    = "Entschuldigung, ich konnte keine Antwort generieren."
	fallbackRetrievalError = "Es ist ein Fehler aufgetreten. Bitte versuchen Sie es später erneut."
)

// Answerer 组装 RAG Prompt 并生成最终答案。
// 没有召回结果或生成为空时返回固定降级文案，绝不向上抛错。
type Answerer struct {
	engine     *Engine
	generator  TextGenerator
	confidence *ConfidenceEstimator

	contextDocs int
}

// NewAnswerer 创建答案组装器
func NewAnswerer(engine *Engine, generator TextGenerator, confidence *ConfidenceEstimator, contextDocs int) *Answerer {
	if contextDocs <= 0 {
		contextDocs = defaultContextDocs
	}
	return &Answerer{
		engine:      engine,
		generator:   generator,
		confidence:  confidence,
		contextDocs: contextDocs,
	}
}

// Ask 回答一个问题：检索 -> 组装上下文 -> 生成 -> 置信度评估。
// 仅对空问题返回 error，检索或生成失败一律降级为结构化答案。
func (a *Answerer) Ask(ctx context.Context, question string, filters *Filters) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}

	// 多召回一倍再截断，去重后仍能填满上下文
	results, err := a.engine.Retrieve(ctx, question, a.contextDocs*2, filters)
	if err != nil {
		// 检索失败同样降级，问答接口对调用方永不抛错
		logger.Error(ctx, "retrieval failed, returning fallback answer", err, "question", question)
		metrics.QuestionsAnsweredTotal.WithLabelValues(string(ConfidenceLow)).Inc()
		return &Answer{
			Question:   question,
			Text:       fallbackRetrievalError,
			Sources:    []Source{},
			Confidence: ConfidenceLow,
		}, nil
	}
	if len(results) > a.contextDocs {
		results = results[:a.contextDocs]
	}

	if len(results) == 0 {
		metrics.QuestionsAnsweredTotal.WithLabelValues(string(ConfidenceLow)).Inc()
		return &Answer{
			Question:   question,
			Text:       fallbackNoDocuments,
			Sources:    []Source{},
			Confidence: ConfidenceLow,
		}, nil
	}

	sources := buildSources(results)

	prompt := buildRAGPrompt(buildContextBlock(results), question)
	text, err := a.generator.Generate(ctx, prompt, answerTemperature)
	if err != nil {
		logger.Error(ctx, "answer generation failed", err, "question", question)
		text = ""
	}
	text = strings.TrimSpace(text)
	if text == "" {
		// 生成失败仍然保留来源，便于用户自行查阅
		metrics.QuestionsAnsweredTotal.WithLabelValues(string(ConfidenceLow)).Inc()
		return &Answer{
			Question:   question,
			Text:       fallbackEmptyAnswer,
			Sources:    sources,
			Confidence: ConfidenceLow,
		}, nil
	}

	confidence := a.confidence.Estimate(results, text)
	metrics.QuestionsAnsweredTotal.WithLabelValues(string(confidence)).Inc()

	return &Answer{
		Question:   question,
		Text:       text,
		Sources:    sources,
		Confidence: confidence,
	}, nil
}

// buildSources 从召回结果构造来源引用，relevance = 1 - distance/2。
func buildSources(results []SearchResult) []Source {
	sources := make([]Source, 0, len(results))
	for _, r := range results {
		src := Source{
			DocumentID:    r.DocumentID,
			Title:         r.Title,
			Correspondent: r.Correspondent,
			DocumentType:  r.DocumentType,
		}
		if r.Distance != nil {
			score := 1 - *r.Distance/2
			src.RelevanceScore = &score
		}
		sources = append(sources, src)
	}
	return sources
}
