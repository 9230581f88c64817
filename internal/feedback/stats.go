package feedback

import (
	"context"
	"fmt"
	"math"
	"time"

	"bluerate/internal/domain"
)

const confidenceSamples = 20.0

// AccuracyStats summarizes feedback rows published in the last windowDays days.
func (e *Evaluator) AccuracyStats(ctx context.Context, windowDays int) (domain.AccuracyStats, error) {
	ctx, span := e.tracer.Start(ctx, "feedback-evaluator.accuracy-stats")
	defer span.End()

	if windowDays <= 0 {
		windowDays = 30
	}
	rows, err := e.store.ListSince(ctx, e.now().Add(-time.Duration(windowDays)*Day))
	if err != nil {
		return domain.AccuracyStats{}, fmt.Errorf("list feedback: %w", err)
	}
	return Summarize(rows, windowDays, e.minSamples), nil
}

// Summarize computes overall and per-direction accuracy. Fractions without a
// denominator stay nil.
func Summarize(rows []domain.PredictionFeedback, windowDays, minSamples int) domain.AccuracyStats {
	overall := summarizeGroup(rows, minSamples)
	out := domain.AccuracyStats{
		WindowDays:              windowDays,
		TotalEvaluated:          overall.Count,
		Accuracy7D:              overall.Accuracy7D,
		DirectionAccuracy7D:     overall.DirectionAccuracy7D,
		AverageStrengthAccuracy: overall.AverageStrengthAccuracy,
		Confidence:              overall.Confidence,
		Reliable:                overall.Reliable,
		BySentiment:             make(map[domain.Sentiment]domain.SentimentAccuracy, 3),
	}

	grouped := map[domain.Sentiment][]domain.PredictionFeedback{}
	for _, r := range rows {
		grouped[r.PredictedSentiment] = append(grouped[r.PredictedSentiment], r)
	}
	for _, s := range []domain.Sentiment{domain.SentimentUp, domain.SentimentDown, domain.SentimentNeutral} {
		out.BySentiment[s] = summarizeGroup(grouped[s], minSamples)
	}
	return out
}

func summarizeGroup(rows []domain.PredictionFeedback, minSamples int) domain.SentimentAccuracy {
	var correct, correctN, direction, directionN, strengthN int
	var strengthSum float64
	for _, r := range rows {
		if r.WasCorrect7D != nil {
			correctN++
			if *r.WasCorrect7D {
				correct++
			}
		}
		if r.DirectionCorrect7D != nil {
			directionN++
			if *r.DirectionCorrect7D {
				direction++
			}
		}
		if r.StrengthAccuracyScore != nil {
			strengthN++
			strengthSum += *r.StrengthAccuracyScore
		}
	}

	n := len(rows)
	out := domain.SentimentAccuracy{
		Count:      n,
		Confidence: roundTo(1-math.Exp(-float64(n)/confidenceSamples), 4),
		Reliable:   n >= minSamples,
	}
	out.Accuracy7D = fraction(correct, correctN)
	out.DirectionAccuracy7D = fraction(direction, directionN)
	if strengthN > 0 {
		avg := roundTo(strengthSum/float64(strengthN), 2)
		out.AverageStrengthAccuracy = &avg
	}
	return out
}

func fraction(num, den int) *float64 {
	if den == 0 {
		return nil
	}
	v := roundTo(float64(num)/float64(den), 4)
	return &v
}
