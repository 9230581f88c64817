package feedback

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"bluerate/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	Day              = 24 * time.Hour
	HorizonTolerance = 12 * time.Hour
	// CorrectThreshold is the minimum move in percent for a full-accuracy hit.
	CorrectThreshold = 0.1
	// NeutralBand is the largest move in percent that still counts as flat.
	NeutralBand = 0.5
	// ExtremeMove is the percent move mapped to 100 on the strength scale.
	ExtremeMove = 10.0

	MinReliableSamples = 5
)

var horizons = []time.Duration{1 * Day, 3 * Day, 7 * Day}

type NewsSource interface {
	ListEvaluationCandidates(ctx context.Context, from, to time.Time) ([]domain.NewsItem, error)
}

type PriceSource interface {
	ListPricePoints(ctx context.Context, from, to time.Time) ([]domain.PricePoint, error)
}

type FeedbackStore interface {
	ExistingNewsIDs(ctx context.Context, newsIDs []string) (map[string]struct{}, error)
	BatchInsert(ctx context.Context, rows []domain.PredictionFeedback) (int, error)
	ListSince(ctx context.Context, since time.Time) ([]domain.PredictionFeedback, error)
}

type Evaluator struct {
	tracer     trace.Tracer
	news       NewsSource
	prices     PriceSource
	store      FeedbackStore
	minSamples int
	now        func() time.Time
}

func NewEvaluator(tracer trace.Tracer, news NewsSource, prices PriceSource, store FeedbackStore, minSamples int) *Evaluator {
	if minSamples <= 0 {
		minSamples = MinReliableSamples
	}
	return &Evaluator{
		tracer:     tracer,
		news:       news,
		prices:     prices,
		store:      store,
		minSamples: minSamples,
		now:        time.Now,
	}
}

// Run grades every directional item published between now-7d and now-1d that has no
// feedback row yet. Horizons without a sample in tolerance stay nil and are not revisited.
func (e *Evaluator) Run(ctx context.Context, now time.Time) (domain.FeedbackRunResult, error) {
	ctx, span := e.tracer.Start(ctx, "feedback-evaluator.run")
	defer span.End()

	result := domain.FeedbackRunResult{}
	candidates, err := e.news.ListEvaluationCandidates(ctx, now.Add(-7*Day), now.Add(-1*Day))
	if err != nil {
		return result, fmt.Errorf("list candidates: %w", err)
	}
	result.Candidates = len(candidates)
	if len(candidates) == 0 {
		return result, nil
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	existing, err := e.store.ExistingNewsIDs(ctx, ids)
	if err != nil {
		return result, fmt.Errorf("load existing feedback: %w", err)
	}

	pending := make([]domain.NewsItem, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := existing[c.ID]; ok {
			result.AlreadyEvaluated++
			continue
		}
		if c.Sentiment == domain.SentimentNeutral || !c.Sentiment.IsValid() || c.SentimentStrength == nil {
			continue
		}
		pending = append(pending, c)
	}
	if len(pending) == 0 {
		return result, nil
	}

	points, err := e.prices.ListPricePoints(ctx, now.Add(-8*Day), now)
	if err != nil {
		return result, fmt.Errorf("build price index: %w", err)
	}
	index := NewPriceIndex(points)

	rows := make([]domain.PredictionFeedback, 0, len(pending))
	for _, item := range pending {
		row, ok := Evaluate(item, index, now)
		if !ok {
			result.Skipped++
			log.Printf("feedback evaluation skipped for %s: no baseline price", item.ID)
			continue
		}
		rows = append(rows, row)
	}
	result.Evaluated = len(rows)

	if len(rows) > 0 {
		inserted, err := e.store.BatchInsert(ctx, rows)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			return result, fmt.Errorf("insert feedback: %w", err)
		}
		result.Inserted = inserted
	}

	span.SetAttributes(
		attribute.Int("candidates", result.Candidates),
		attribute.Int("evaluated", result.Evaluated),
		attribute.Int("skipped", result.Skipped),
	)
	return result, nil
}

// Evaluate grades one item against the index. It returns false when there is no
// baseline sample at all.
func Evaluate(item domain.NewsItem, index *PriceIndex, evaluatedAt time.Time) (domain.PredictionFeedback, bool) {
	base, ok := index.Nearest(item.PublishedAt)
	if !ok || base.Mid <= 0 {
		return domain.PredictionFeedback{}, false
	}

	strength := 0
	if item.SentimentStrength != nil {
		strength = *item.SentimentStrength
	}
	row := domain.PredictionFeedback{
		NewsID:             item.ID,
		PredictedSentiment: item.Sentiment,
		PredictedStrength:  strength,
		PublishedAt:        item.PublishedAt,
		PriceAtPrediction:  base.Mid,
		EvaluatedAt:        evaluatedAt,
	}

	var longest *float64
	for _, h := range horizons {
		p, ok := index.NearestWithin(base.Time.Add(h), HorizonTolerance)
		if !ok {
			continue
		}
		price := p.Mid
		change := roundTo((p.Mid-base.Mid)/base.Mid*100, 4)
		correct := fullAccuracy(item.Sentiment, change)
		direction := directionAccuracy(item.Sentiment, change)

		switch h {
		case 1 * Day:
			row.Price1D, row.Change1D, row.WasCorrect1D, row.DirectionCorrect1D = &price, &change, &correct, &direction
		case 3 * Day:
			row.Price3D, row.Change3D, row.WasCorrect3D, row.DirectionCorrect3D = &price, &change, &correct, &direction
		case 7 * Day:
			row.Price7D, row.Change7D, row.WasCorrect7D, row.DirectionCorrect7D = &price, &change, &correct, &direction
		}
		c := change
		longest = &c
	}

	if longest != nil {
		score := StrengthAccuracy(strength, *longest)
		row.StrengthAccuracyScore = &score
	}
	return row, true
}

func fullAccuracy(s domain.Sentiment, change float64) bool {
	switch s {
	case domain.SentimentUp:
		return change > CorrectThreshold
	case domain.SentimentDown:
		return change < -CorrectThreshold
	default:
		return math.Abs(change) <= NeutralBand
	}
}

func directionAccuracy(s domain.Sentiment, change float64) bool {
	switch s {
	case domain.SentimentUp:
		return change > 0
	case domain.SentimentDown:
		return change < 0
	default:
		return math.Abs(change) <= NeutralBand
	}
}

// StrengthAccuracy scores how close the predicted strength is to the realized move
// mapped onto 0..100, with ExtremeMove percent as 100.
func StrengthAccuracy(strength int, change float64) float64 {
	normalized := math.Min(math.Abs(change)/ExtremeMove, 1) * 100
	return roundTo(math.Max(0, 100-math.Abs(float64(strength)-normalized)), 2)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
