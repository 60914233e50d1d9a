package retrieval

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"golang.org/x/sync/errgroup"

	"paperless-rag-api/pkg/logger"
	"paperless-rag-api/pkg/metrics"
)

const (
	defaultTopK           = 5
	maxTopK               = 50
	defaultQueryVariants  = 2
	defaultMinPerVariant  = 3
	paraphraseTemperature = 0.7

	// 距离缺失的结果排序时垫底
	worstDistance = 999.0
)

// enumPrefix 去除 LLM 输出行首的编号（"1. " / "2) "）。
var enumPrefix = regexp.MustCompile(`^\d+[\.\)]\s*`)

// EngineConfig 检索引擎参数
type EngineConfig struct {
	QueryVariants int
	MinPerVariant int
	MultiQuery    bool
}

// Engine 多查询检索引擎。
// 流程：过滤条件抽取 -> 查询改写 -> 逐变体扩展/嵌入/检索（并发）->
// 按文档去重（先见先得）-> 距离升序排序 -> 截断 -> 客户端后过滤。
// 所有增强步骤的失败都降级为纯原始查询检索，绝不中断。
type Engine struct {
	embedder  embedding.Embedder
	vector    VectorRepository
	generator TextGenerator
	expander  *Expander
	filters   *FilterExtractor
	options   MetadataOptionsProvider

	variants      int
	minPerVariant int
	multiQuery    bool
}

// NewEngine 创建检索引擎
func NewEngine(
	embedder embedding.Embedder,
	vector VectorRepository,
	generator TextGenerator,
	expander *Expander,
	filters *FilterExtractor,
	options MetadataOptionsProvider,
	cfg EngineConfig,
) *Engine {
	if cfg.QueryVariants <= 0 {
		cfg.QueryVariants = defaultQueryVariants
	}
	if cfg.MinPerVariant <= 0 {
		cfg.MinPerVariant = defaultMinPerVariant
	}
	return &Engine{
		embedder:      embedder,
		vector:        vector,
		generator:     generator,
		expander:      expander,
		filters:       filters,
		options:       options,
		variants:      cfg.QueryVariants,
		minPerVariant: cfg.MinPerVariant,
		multiQuery:    cfg.MultiQuery,
	}
}

// Enabled 检查向量检索能力是否可用
func (e *Engine) Enabled() bool {
	return e != nil && e.embedder != nil && e.vector != nil
}

func (e *Engine) ensureReady(ctx context.Context) error {
	if e == nil || e.vector == nil {
		return ErrVectorDisabled
	}
	return e.vector.EnsureCollection(ctx)
}

// Retrieve 多查询检索，返回去重排序后的结果，长度不超过 topK。
// callerFilters 为 nil 或为空时自动从查询文本抽取过滤条件。
func (e *Engine) Retrieve(ctx context.Context, query string, topK int, callerFilters *Filters) ([]SearchResult, error) {
	if topK <= 0 {
		topK = defaultTopK
	}
	if topK > maxTopK {
		topK = maxTopK
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if !e.Enabled() {
		return nil, ErrVectorDisabled
	}
	if err := e.ensureReady(ctx); err != nil {
		return nil, err
	}

	start := time.Now()

	filters := callerFilters
	if filters.IsZero() {
		extracted := e.extractFilters(ctx, query)
		filters = &extracted
	}

	queries := []string{query}
	if e.multiQuery && e.generator != nil {
		queries = e.generateVariants(ctx, query, e.variants)
	}

	perVariant := topK / len(queries)
	if perVariant < e.minPerVariant {
		perVariant = e.minPerVariant
	}

	// 各变体并发检索，结果按变体顺序保序收集
	variantResults := make([][]SearchResult, len(queries))
	variantErrs := make([]error, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for idx, q := range queries {
		g.Go(func() error {
			res, err := e.searchOne(gctx, q, perVariant, filters)
			if err != nil {
				// 单变体失败不中断整体
				logger.Warn(gctx, "variant search failed", "variant", idx, "error", err.Error())
				variantErrs[idx] = err
				return nil
			}
			variantResults[idx] = res
			return nil
		})
	}
	_ = g.Wait()

	// 按文档去重，拼接顺序下先见先得
	seen := make(map[int64]struct{})
	merged := make([]SearchResult, 0, topK)
	for _, results := range variantResults {
		for _, r := range results {
			if _, ok := seen[r.DocumentID]; ok {
				continue
			}
			seen[r.DocumentID] = struct{}{}
			merged = append(merged, r)
		}
	}

	if len(merged) == 0 && variantErrs[0] != nil {
		metrics.RetrievalDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, variantErrs[0]
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return distanceOrWorst(merged[i]) < distanceOrWorst(merged[j])
	})
	if len(merged) > topK {
		merged = merged[:topK]
	}

	merged = applyPostFilters(merged, filters)

	metrics.RetrievalDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	metrics.RetrievalResults.Observe(float64(len(merged)))
	return merged, nil
}

// extractFilters 自动抽取过滤条件，元数据选项获取失败时退化为纯正则抽取。
func (e *Engine) extractFilters(ctx context.Context, query string) Filters {
	if e.filters == nil {
		return extractRegexFilters(query)
	}
	var opts MetadataOptions
	if e.options != nil {
		o, err := e.options.MetadataOptions(ctx)
		if err != nil {
			logger.Warn(ctx, "metadata options unavailable for filter extraction", "error", err.Error())
		} else {
			opts = o
		}
	}
	return e.filters.Extract(ctx, query, opts)
}

// generateVariants 生成查询改写变体，原始查询始终位于首位。
// 任何失败都退化为仅原始查询。
func (e *Engine) generateVariants(ctx context.Context, query string, n int) []string {
	resp, err := e.generator.Generate(ctx, buildParaphrasePrompt(query, n), paraphraseTemperature)
	if err != nil {
		logger.Warn(ctx, "paraphrase generation failed, using original query only", "error", err.Error())
		return []string{query}
	}
	resp = strings.TrimSpace(resp)
	if resp == "" {
		return []string{query}
	}

	out := []string{query}
	for _, line := range strings.Split(resp, "\n") {
		line = enumPrefix.ReplaceAllString(strings.TrimSpace(line), "")
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) > n {
			break
		}
	}
	return out
}

// searchOne 单变体检索：扩展 -> 嵌入 -> 向量检索。
func (e *Engine) searchOne(ctx context.Context, query string, k int, filters *Filters) ([]SearchResult, error) {
	embedText := query
	if e.expander != nil {
		embedText = e.expander.Expand(ctx, query)
	}

	vec, err := e.embedQuery(ctx, embedText)
	if err != nil {
		return nil, err
	}

	params := &VectorSearchParams{
		QueryVector: vec,
		TopK:        k,
	}
	if filters != nil {
		params.DocumentType = filters.DocumentType
		params.Correspondent = filters.Correspondent
	}

	raw, err := e.vector.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	out := make([]SearchResult, 0, len(raw))
	for _, r := range raw {
		if r == nil {
			continue
		}
		out = append(out, SearchResult{
			DocumentID:    r.DocumentID,
			ChunkIndex:    int(r.ChunkIndex),
			TotalChunks:   int(r.TotalChunks),
			Text:          r.Text,
			Title:         r.Title,
			Correspondent: r.Correspondent,
			DocumentType:  r.DocumentType,
			Tags:          r.Tags,
			Created:       r.Created,
			Distance:      r.Distance,
		})
	}
	return out, nil
}

func (e *Engine) embedQuery(ctx context.Context, text string) ([]float32, error) {
	if e == nil || e.embedder == nil {
		return nil, ErrVectorDisabled
	}
	t := strings.TrimSpace(text)
	if t == "" {
		return nil, fmt.Errorf("query is empty")
	}
	v64, err := e.embedder.EmbedStrings(ctx, []string{t})
	if err != nil {
		return nil, err
	}
	if len(v64) == 0 || len(v64[0]) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	vec := v64[0]
	out := make([]float32, 0, len(vec))
	for _, x := range vec {
		out = append(out, float32(x))
	}
	return out, nil
}

func distanceOrWorst(r SearchResult) float64 {
	if r.Distance == nil {
		return worstDistance
	}
	return *r.Distance
}

// applyPostFilters 应用存储层无法表达的过滤条件（年/月/标签），保持已有排序。
func applyPostFilters(results []SearchResult, filters *Filters) []SearchResult {
	if filters == nil || (filters.Year == "" && filters.Month == "" && len(filters.Tags) == 0) {
		return results
	}

	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		if filters.Year != "" && !strings.HasPrefix(r.Created, filters.Year) {
			continue
		}
		// created 格式为 YYYY-MM-DD
		if filters.Month != "" && (len(r.Created) < 7 || r.Created[5:7] != filters.Month) {
			continue
		}
		if !matchesTags(r.Tags, filters.Tags) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesTags(tagString string, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	haystack := strings.ToLower(tagString)
	for _, tag := range wanted {
		if !strings.Contains(haystack, strings.ToLower(tag)) {
			return false
		}
	}
	return true
}
