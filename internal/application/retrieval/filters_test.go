package retrieval

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegexYearExtraction(t *testing.T) {
	f := extractRegexFilters("Rechnungen von Amazon aus 2024")

	assert.Equal(t, "2024", f.Year)
	assert.Empty(t, f.Month)
}

func TestRegexMonthExtraction(t *testing.T) {
	f := extractRegexFilters("Belege vom März 2025")

	assert.Equal(t, "2025", f.Year)
	assert.Equal(t, "03", f.Month)
}

func TestRegexFirstMonthWins(t *testing.T) {
	f := extractRegexFilters("von Januar bis Dezember")

	assert.Equal(t, "01", f.Month)
}

func TestRegexNoMatch(t *testing.T) {
	f := extractRegexFilters("Wo wohne ich?")

	assert.True(t, f.IsZero())
}

func TestExtractWithoutLLM(t *testing.T) {
	fe := NewFilterExtractor(nil, false)

	f := fe.Extract(context.Background(), "Rechnungen aus 2024", MetadataOptions{})

	assert.Equal(t, "2024", f.Year)
}

func TestExtractLLMOverridesRegex(t *testing.T) {
	gen := &fakeGenerator{fn: func(prompt string, temperature float32) (string, error) {
		assert.InDelta(t, 0.1, temperature, 0.001)
		return `{"document_type":"Rechnung","correspondent":"Amazon","year":"2023"}`, nil
	}}
	fe := NewFilterExtractor(gen, true)

	f := fe.Extract(context.Background(), "Amazon Rechnungen aus 2024", MetadataOptions{
		DocumentTypes:  []string{"Rechnung"},
		Correspondents: []string{"Amazon"},
	})

	assert.Equal(t, "Rechnung", f.DocumentType)
	assert.Equal(t, "Amazon", f.Correspondent)
	// LLM 结果在键冲突时覆盖正则抽取
	assert.Equal(t, "2023", f.Year)
}

func TestExtractMalformedJSONDiscarded(t *testing.T) {
	gen := &fakeGenerator{fn: func(string, float32) (string, error) {
		return `{"document_type": "Rechnung", "correspond`, nil
	}}
	fe := NewFilterExtractor(gen, true)

	f := fe.Extract(context.Background(), "Rechnungen aus 2024", MetadataOptions{})

	// 严格解析失败：丢弃 LLM 结果，保留正则结果
	assert.Empty(t, f.DocumentType)
	assert.Equal(t, "2024", f.Year)
}

func TestExtractLLMFailureKeepsRegex(t *testing.T) {
	gen := &fakeGenerator{fn: func(string, float32) (string, error) {
		return "", fmt.Errorf("timeout")
	}}
	fe := NewFilterExtractor(gen, true)

	f := fe.Extract(context.Background(), "Verträge aus 2022", MetadataOptions{})

	assert.Equal(t, "2022", f.Year)
}
