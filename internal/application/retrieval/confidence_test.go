package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"paperless-rag-api/internal/config"
)

func newEstimator() *ConfidenceEstimator {
	return NewConfidenceEstimator(config.ConfidenceConfig{})
}

func results(distances ...float64) []SearchResult {
	out := make([]SearchResult, 0, len(distances))
	for i, d := range distances {
		out = append(out, SearchResult{DocumentID: int64(i + 1), Distance: ptr(d)})
	}
	return out
}

func TestConfidenceNoResultsAlwaysLow(t *testing.T) {
	e := newEstimator()

	got := e.Estimate(nil, strings.Repeat("a", 200))

	assert.Equal(t, ConfidenceLow, got)
}

func TestConfidenceFullScoreHigh(t *testing.T) {
	e := newEstimator()
	// avg(.1,.2,.3)=.2 -> 40, best .1 -> 30, 3 Ergebnisse -> 15, lange Antwort -> 15
	got := e.Estimate(results(0.1, 0.2, 0.3), strings.Repeat("Die Antwort ist klar. ", 8))

	assert.Equal(t, ConfidenceHigh, got)
}

func TestConfidenceMedium(t *testing.T) {
	e := newEstimator()
	// avg .5 -> 15, best .45 -> 10, 3 Ergebnisse -> 15, lange Antwort -> 15 => 55
	got := e.Estimate(results(0.45, 0.5, 0.55), strings.Repeat("b", 120))

	assert.Equal(t, ConfidenceMedium, got)
}

func TestConfidenceLowOnWeakDistances(t *testing.T) {
	e := newEstimator()
	// avg .65 -> 15, best .65 -> 3, 3 Ergebnisse -> 15, kurze Antwort -> 5 => 38
	got := e.Estimate(results(0.65, 0.65, 0.65), "kurz")

	assert.Equal(t, ConfidenceLow, got)
}

func TestConfidenceNegativePhraseZeroesAnswerScore(t *testing.T) {
	e := newEstimator()

	long := e.Estimate(results(0.45, 0.5, 0.55), strings.Repeat("c", 150))
	negative := e.Estimate(results(0.45, 0.5, 0.55), "Ich weiß nicht, die Dokumente enthalten keine Information dazu. "+strings.Repeat("c", 100))

	// 同样的召回质量，否定短语把答案因子归零并拉低档位
	assert.Equal(t, ConfidenceMedium, long)
	assert.Equal(t, ConfidenceLow, negative)
}

func TestConfidenceMissingDistanceTreatedAsWorst(t *testing.T) {
	e := newEstimator()
	rs := []SearchResult{{DocumentID: 1}, {DocumentID: 2}, {DocumentID: 3}}

	got := e.Estimate(rs, "kurz")

	assert.Equal(t, ConfidenceLow, got)
}

func TestConfidenceTwoResultsScoreBracket(t *testing.T) {
	e := newEstimator()
	// avg .15 -> 40, best .1 -> 30, 2 Ergebnisse -> 10, lange Antwort -> 15 => 95
	got := e.Estimate(results(0.1, 0.2), strings.Repeat("d", 150))

	assert.Equal(t, ConfidenceHigh, got)
}
