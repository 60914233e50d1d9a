package retrieval

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"paperless-rag-api/pkg/logger"
)

var yearPattern = regexp.MustCompile(`\b(202\d)\b`)

// germanMonths 月份名到月份编号的映射，有序遍历，第一个命中生效。
var germanMonths = []struct {
	name string
	num  string
}{
	{"januar", "01"},
	{"februar", "02"},
	{"märz", "03"},
	{"april", "04"},
	{"mai", "05"},
	{"juni", "06"},
	{"juli", "07"},
	{"august", "08"},
	{"september", "09"},
	{"oktober", "10"},
	{"november", "11"},
	{"dezember", "12"},
}

// FilterExtractor 从查询文本中抽取隐式过滤条件。
// 正则（年份/月份）先行，LLM 抽取在键冲突时覆盖正则结果。
type FilterExtractor struct {
	generator  TextGenerator
	llmEnabled bool
}

// NewFilterExtractor 创建过滤条件抽取器
func NewFilterExtractor(generator TextGenerator, llmEnabled bool) *FilterExtractor {
	return &FilterExtractor{generator: generator, llmEnabled: llmEnabled}
}

const filterTemperature = 0.1

// llmFilterResponse LLM 过滤条件抽取的严格 JSON 契约。
// 解析失败不做字符串级修复，记录原始响应并放弃 LLM 结果。
type llmFilterResponse struct {
	DocumentType  string   `json:"document_type"`
	Correspondent string   `json:"correspondent"`
	Tags          []string `json:"tags"`
	Year          string   `json:"year"`
}

// Extract 抽取过滤条件。正则部分纯本地计算，LLM 部分任何失败都静默降级。
func (fe *FilterExtractor) Extract(ctx context.Context, query string, opts MetadataOptions) Filters {
	filters := extractRegexFilters(query)

	if !fe.llmEnabled || fe.generator == nil {
		return filters
	}

	resp, err := fe.generator.Generate(ctx, buildFilterPrompt(query, opts), filterTemperature)
	if err != nil {
		logger.Warn(ctx, "llm filter extraction failed", "error", err.Error())
		return filters
	}
	resp = strings.TrimSpace(resp)
	if resp == "" {
		return filters
	}

	var parsed llmFilterResponse
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		logger.Warn(ctx, "llm filter response is not valid json, discarding",
			"error", err.Error(), "raw", resp)
		return filters
	}

	// LLM 结果在键冲突时覆盖正则结果
	if parsed.DocumentType != "" {
		filters.DocumentType = parsed.DocumentType
	}
	if parsed.Correspondent != "" {
		filters.Correspondent = parsed.Correspondent
	}
	if len(parsed.Tags) > 0 {
		filters.Tags = parsed.Tags
	}
	if parsed.Year != "" {
		filters.Year = parsed.Year
	}
	return filters
}

// extractRegexFilters 抽取年份（202x）与德语月份名。
func extractRegexFilters(query string) Filters {
	var f Filters

	if m := yearPattern.FindStringSubmatch(query); m != nil {
		f.Year = m[1]
	}

	lower := strings.ToLower(query)
	for _, month := range germanMonths {
		if strings.Contains(lower, month.name) {
			f.Month = month.num
			break
		}
	}
	return f
}
