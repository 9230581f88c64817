package sentiment

import (
	"math"
	"time"

	"bluerate/internal/domain"
)

const (
	AggregateWindow    = 24 * time.Hour
	decayHours         = 12.0
	currencyWeight     = 1.5
	confidenceArticles = 15.0
	maxScore           = 50.0
)

// Aggregate is the composite news sentiment over the rolling window.
// Score is in [-50, 50]; positive means pressure for a more expensive dollar.
type Aggregate struct {
	Score            float64   `json:"score"`
	CappedScore      float64   `json:"capped_score"`
	RawScore         float64   `json:"raw_score"`
	Confidence       float64   `json:"confidence"`
	ArticleCount     int       `json:"article_count"`
	DirectionalCount int       `json:"directional_count"`
	UpWeight         float64   `json:"up_weight"`
	DownWeight       float64   `json:"down_weight"`
	WindowStart      time.Time `json:"window_start"`
	ComputedAt       time.Time `json:"computed_at"`
}

// AggregateScore folds the classified items published in (now-24h, now] into one score.
func AggregateScore(items []domain.NewsItem, now time.Time) Aggregate {
	start := now.Add(-AggregateWindow)
	out := Aggregate{WindowStart: start, ComputedAt: now}

	for _, item := range items {
		if item.SentimentStrength == nil || !item.Sentiment.IsValid() {
			continue
		}
		if !item.PublishedAt.After(start) || item.PublishedAt.After(now) {
			continue
		}
		out.ArticleCount++
		if item.Sentiment == domain.SentimentNeutral {
			continue
		}
		out.DirectionalCount++

		hoursAgo := now.Sub(item.PublishedAt).Hours()
		w := math.Exp(-hoursAgo/decayHours) * categoryWeight(item.Category) * float64(clampStrength(*item.SentimentStrength)) / 100
		if item.Sentiment == domain.SentimentUp {
			out.UpWeight += w
		} else {
			out.DownWeight += w
		}
	}

	if total := out.UpWeight + out.DownWeight; total > 0 {
		out.RawScore = maxScore * (out.UpWeight - out.DownWeight) / total
	}

	limit := capFor(out.DirectionalCount)
	capped := math.Max(-limit, math.Min(limit, out.RawScore))
	switch out.DirectionalCount {
	case 1:
		capped *= 0.6
	case 2:
		capped *= 0.75
	}
	out.CappedScore = round2(capped)

	out.Confidence = 1 - math.Exp(-float64(out.ArticleCount)/confidenceArticles)
	out.Score = round2(capped * out.Confidence)
	out.RawScore = round2(out.RawScore)
	return out
}

func capFor(directional int) float64 {
	switch {
	case directional <= 0:
		return 0
	case directional == 1:
		return 20
	case directional == 2:
		return 30
	case directional == 3:
		return 35
	case directional == 4:
		return 40
	default:
		return maxScore
	}
}

func categoryWeight(category string) float64 {
	if category == domain.CategoryCurrency {
		return currencyWeight
	}
	return 1
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
