package retrieval

import (
	"strings"

	"paperless-rag-api/internal/config"
)

// negativePhrases 答案中出现任一短语即视为“未找到答案”。
var negativePhrases = []string{
	"keine antwort",
	"nicht beantworten",
	"keine information",
	"nicht gefunden",
	"konnte nicht",
	"keine relevanten dokumente",
	"ich weiß nicht",
	"unklar",
}

// 各评分因子的分值档位。
// 档位分配源自经验调优，距离阈值通过配置调整。
const (
	avgDistancePtsGood = 40
	avgDistancePtsFair = 30
	avgDistancePtsWeak = 15
	avgDistancePtsPoor = 5

	bestDistancePtsGood = 30
	bestDistancePtsFair = 20
	bestDistancePtsWeak = 10
	bestDistancePtsPoor = 3

	resultCountPtsMany = 15
	resultCountPtsSome = 10
	resultCountPtsFew  = 5

	answerPtsLong     = 15
	answerPtsMedium   = 10
	answerPtsShort    = 5
	answerPtsNegative = 0

	maxScore = 100
)

// ConfidenceEstimator 按加权评分估计答案置信度。
// 四个因子：top-3 平均距离、最优距离、结果数量、答案文本启发式。
type ConfidenceEstimator struct {
	cfg config.ConfidenceConfig
}

// NewConfidenceEstimator 创建置信度估计器
func NewConfidenceEstimator(cfg config.ConfidenceConfig) *ConfidenceEstimator {
	if cfg.HighThreshold <= 0 {
		cfg.HighThreshold = 0.70
	}
	if cfg.MediumThreshold <= 0 {
		cfg.MediumThreshold = 0.45
	}
	if cfg.AvgDistanceGood <= 0 {
		cfg.AvgDistanceGood = 0.3
	}
	if cfg.AvgDistanceFair <= 0 {
		cfg.AvgDistanceFair = 0.5
	}
	if cfg.AvgDistanceWeak <= 0 {
		cfg.AvgDistanceWeak = 0.7
	}
	if cfg.BestDistanceGood <= 0 {
		cfg.BestDistanceGood = 0.2
	}
	if cfg.BestDistanceFair <= 0 {
		cfg.BestDistanceFair = 0.4
	}
	if cfg.BestDistanceWeak <= 0 {
		cfg.BestDistanceWeak = 0.6
	}
	return &ConfidenceEstimator{cfg: cfg}
}

// Estimate 估计置信度。没有任何召回结果时无条件为 low。
func (e *ConfidenceEstimator) Estimate(results []SearchResult, answer string) Confidence {
	if len(results) == 0 {
		return ConfidenceLow
	}

	score := 0
	score += e.avgDistanceScore(results)
	score += e.bestDistanceScore(results)
	score += resultCountScore(len(results))
	score += answerQualityScore(answer)

	ratio := float64(score) / maxScore
	switch {
	case ratio >= e.cfg.HighThreshold:
		return ConfidenceHigh
	case ratio >= e.cfg.MediumThreshold:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// avgDistanceScore 前三条结果的平均距离（结果已按距离升序）。
func (e *ConfidenceEstimator) avgDistanceScore(results []SearchResult) int {
	n := len(results)
	if n > 3 {
		n = 3
	}
	sum := 0.0
	for _, r := range results[:n] {
		sum += distanceOrWorst(r)
	}
	avg := sum / float64(n)

	switch {
	case avg < e.cfg.AvgDistanceGood:
		return avgDistancePtsGood
	case avg < e.cfg.AvgDistanceFair:
		return avgDistancePtsFair
	case avg < e.cfg.AvgDistanceWeak:
		return avgDistancePtsWeak
	default:
		return avgDistancePtsPoor
	}
}

func (e *ConfidenceEstimator) bestDistanceScore(results []SearchResult) int {
	best := distanceOrWorst(results[0])
	for _, r := range results[1:] {
		if d := distanceOrWorst(r); d < best {
			best = d
		}
	}

	switch {
	case best < e.cfg.BestDistanceGood:
		return bestDistancePtsGood
	case best < e.cfg.BestDistanceFair:
		return bestDistancePtsFair
	case best < e.cfg.BestDistanceWeak:
		return bestDistancePtsWeak
	default:
		return bestDistancePtsPoor
	}
}

func resultCountScore(n int) int {
	switch {
	case n >= 3:
		return resultCountPtsMany
	case n == 2:
		return resultCountPtsSome
	default:
		return resultCountPtsFew
	}
}

// answerQualityScore 答案文本启发式：否定短语直接 0 分，否则按长度给分。
func answerQualityScore(answer string) int {
	lower := strings.ToLower(answer)
	for _, phrase := range negativePhrases {
		if strings.Contains(lower, phrase) {
			return answerPtsNegative
		}
	}

	length := len([]rune(answer))
	switch {
	case length > 100:
		return answerPtsLong
	case length > 50:
		return answerPtsMedium
	default:
		return answerPtsShort
	}
}
