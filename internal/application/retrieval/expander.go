package retrieval

import (
	"context"
	"strings"

	"paperless-rag-api/pkg/logger"
)

// synonymTable 静态同义词表（德语档案领域）。
// 有序遍历，保证扩展结果对相同输入是确定的。
var synonymTable = []struct {
	key      string
	synonyms []string
}{
	{"steuer id", []string{"Steuer-ID", "Steuer-Identifikationsnummer", "Steuernummer", "Tax ID", "TIN"}},
	{"steuernummer", []string{"Steuer-ID", "Steuer-Identifikationsnummer", "Tax ID", "TIN"}},
	{"rechnung", []string{"Rechnung", "Invoice", "Faktura", "Beleg"}},
	{"lieferschein", []string{"Lieferschein", "Delivery Note", "Warenbegleitschein"}},
	{"vertrag", []string{"Vertrag", "Contract", "Vereinbarung"}},
	{"adresse", []string{"Adresse", "Address", "Anschrift", "Wohnort"}},
	{"telefon", []string{"Telefon", "Telefonnummer", "Phone", "Tel", "Mobil"}},
	{"email", []string{"E-Mail", "Email", "Mailadresse", "Elektronische Post"}},
	{"geburtsdatum", []string{"Geburtsdatum", "Geburtstag", "Date of Birth", "DOB"}},
	{"gehalt", []string{"Gehalt", "Lohn", "Vergütung", "Salary", "Verdienst"}},
	{"versicherung", []string{"Versicherung", "Insurance", "Police"}},
}

// Expander 查询扩展器。
// 静态表命中时直接追加全部命中词条的同义词并短路；
// 未命中且开启 LLM 扩展时退化为生成式同义词，失败返回原查询。
type Expander struct {
	generator  TextGenerator
	llmEnabled bool
}

// NewExpander 创建查询扩展器
func NewExpander(generator TextGenerator, llmEnabled bool) *Expander {
	return &Expander{generator: generator, llmEnabled: llmEnabled}
}

const expansionTemperature = 0.3

// Expand 扩展查询文本。返回值仅用于 embedding，不改变展示给用户的原始问题。
func (e *Expander) Expand(ctx context.Context, query string) string {
	lower := strings.ToLower(query)

	var extra []string
	for _, entry := range synonymTable {
		if strings.Contains(lower, entry.key) {
			extra = append(extra, entry.synonyms...)
		}
	}
	if len(extra) > 0 {
		return query + " " + strings.Join(extra, " ")
	}

	if !e.llmEnabled || e.generator == nil {
		return query
	}

	resp, err := e.generator.Generate(ctx, buildSynonymPrompt(query), expansionTemperature)
	if err != nil {
		logger.Warn(ctx, "llm query expansion failed, using original query", "error", err.Error())
		return query
	}
	resp = strings.TrimSpace(resp)
	if resp == "" {
		return query
	}
	return query + " " + resp
}
