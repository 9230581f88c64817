package feedback

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"bluerate/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type stubNews struct {
	items    []domain.NewsItem
	from, to time.Time
}

func (s *stubNews) ListEvaluationCandidates(_ context.Context, from, to time.Time) ([]domain.NewsItem, error) {
	s.from, s.to = from, to
	var out []domain.NewsItem
	for _, it := range s.items {
		if !it.PublishedAt.Before(from) && !it.PublishedAt.After(to) {
			out = append(out, it)
		}
	}
	return out, nil
}

type stubPrices struct {
	points []domain.PricePoint
	err    error
}

func (s *stubPrices) ListPricePoints(_ context.Context, from, to time.Time) ([]domain.PricePoint, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.PricePoint
	for _, p := range s.points {
		if !p.Time.Before(from) && !p.Time.After(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

type memStore struct {
	rows []domain.PredictionFeedback
}

func (m *memStore) ExistingNewsIDs(_ context.Context, ids []string) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	for _, r := range m.rows {
		for _, id := range ids {
			if r.NewsID == id {
				out[id] = struct{}{}
			}
		}
	}
	return out, nil
}

func (m *memStore) BatchInsert(_ context.Context, rows []domain.PredictionFeedback) (int, error) {
	inserted := 0
	for _, r := range rows {
		dup := false
		for _, existing := range m.rows {
			if existing.NewsID == r.NewsID {
				dup = true
			}
		}
		if !dup {
			m.rows = append(m.rows, r)
			inserted++
		}
	}
	return inserted, nil
}

func (m *memStore) ListSince(_ context.Context, since time.Time) ([]domain.PredictionFeedback, error) {
	var out []domain.PredictionFeedback
	for _, r := range m.rows {
		if !r.PublishedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func intPtr(v int) *int { return &v }

func newTestEvaluator(news NewsSource, prices PriceSource, store FeedbackStore) *Evaluator {
	return NewEvaluator(trace.NewNoopTracerProvider().Tracer("test"), news, prices, store, 0)
}

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestRunEndToEndScenario(t *testing.T) {
	published := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	now := published.Add(2 * Day)
	news := &stubNews{items: []domain.NewsItem{
		{ID: "n1", Sentiment: domain.SentimentUp, SentimentStrength: intPtr(80), PublishedAt: published},
	}}
	prices := &stubPrices{points: []domain.PricePoint{
		{Time: published, Mid: 10.00},
		{Time: published.Add(24 * time.Hour), Mid: 10.05},
	}}
	store := &memStore{}

	res, err := newTestEvaluator(news, prices, store).Run(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Candidates != 1 || res.Evaluated != 1 || res.Inserted != 1 {
		t.Fatalf("unexpected run result %+v", res)
	}
	row := store.rows[0]
	if row.Change1D == nil || !approx(*row.Change1D, 0.5, 1e-9) {
		t.Fatalf("expected change_1d 0.5, got %v", row.Change1D)
	}
	if row.WasCorrect1D == nil || !*row.WasCorrect1D {
		t.Fatal("expected was_correct_1d true")
	}
	if row.DirectionCorrect1D == nil || !*row.DirectionCorrect1D {
		t.Fatal("expected direction_correct_1d true")
	}
	if row.Price3D != nil || row.Price7D != nil {
		t.Fatal("expected missing 3d and 7d horizons")
	}
	if row.StrengthAccuracyScore == nil || !approx(*row.StrengthAccuracyScore, 25, 0.01) {
		t.Fatalf("expected strength score 25, got %v", row.StrengthAccuracyScore)
	}
	if !news.from.Equal(now.Add(-7*Day)) || !news.to.Equal(now.Add(-Day)) {
		t.Fatalf("unexpected candidate window %s..%s", news.from, news.to)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	published := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	now := published.Add(3 * Day)
	news := &stubNews{items: []domain.NewsItem{
		{ID: "n1", Sentiment: domain.SentimentDown, SentimentStrength: intPtr(40), PublishedAt: published},
		{ID: "n2", Sentiment: domain.SentimentUp, SentimentStrength: intPtr(60), PublishedAt: published.Add(time.Hour)},
	}}
	prices := &stubPrices{points: []domain.PricePoint{{Time: published, Mid: 10}, {Time: published.Add(Day), Mid: 9.9}}}
	store := &memStore{}
	ev := newTestEvaluator(news, prices, store)

	first, err := ev.Run(context.Background(), now)
	if err != nil || first.Evaluated != 2 {
		t.Fatalf("first run: %+v %v", first, err)
	}
	second, err := ev.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("second run error: %v", err)
	}
	if second.Evaluated != 0 || second.AlreadyEvaluated != 2 || second.Inserted != 0 {
		t.Fatalf("expected nothing evaluated on second run, got %+v", second)
	}
	if len(store.rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(store.rows))
	}
}

func TestRunSkipsItemsWithoutBaseline(t *testing.T) {
	published := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	news := &stubNews{items: []domain.NewsItem{
		{ID: "n1", Sentiment: domain.SentimentUp, SentimentStrength: intPtr(50), PublishedAt: published},
	}}
	store := &memStore{}

	res, err := newTestEvaluator(news, &stubPrices{}, store).Run(context.Background(), published.Add(2*Day))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Skipped != 1 || res.Evaluated != 0 || len(store.rows) != 0 {
		t.Fatalf("expected skipped item, got %+v", res)
	}
}

func TestRunPropagatesPriceError(t *testing.T) {
	published := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	news := &stubNews{items: []domain.NewsItem{
		{ID: "n1", Sentiment: domain.SentimentUp, SentimentStrength: intPtr(50), PublishedAt: published},
	}}
	_, err := newTestEvaluator(news, &stubPrices{err: errors.New("db down")}, &memStore{}).Run(context.Background(), published.Add(2*Day))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestEvaluateHorizonTolerance(t *testing.T) {
	published := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	index := NewPriceIndex([]domain.PricePoint{
		{Time: published.Add(-20 * time.Hour), Mid: 10},
		{Time: published.Add(Day + 13*time.Hour), Mid: 10.2},
		{Time: published.Add(3*Day - 11*time.Hour), Mid: 9.99},
		{Time: published.Add(7*Day - 20*time.Hour), Mid: 11},
	})
	item := domain.NewsItem{ID: "n", Sentiment: domain.SentimentDown, SentimentStrength: intPtr(30), PublishedAt: published}

	row, ok := Evaluate(item, index, published.Add(8*Day))
	if !ok {
		t.Fatal("expected baseline from nearest sample without tolerance")
	}
	if row.PriceAtPrediction != 10 {
		t.Fatalf("unexpected baseline %v", row.PriceAtPrediction)
	}
	if row.Price1D != nil {
		t.Fatal("expected 1d horizon outside tolerance to be nil")
	}
	if row.Change3D == nil || *row.Change3D != -0.1 {
		t.Fatalf("expected 3d change -0.1, got %v", row.Change3D)
	}
	if *row.WasCorrect3D || !*row.DirectionCorrect3D {
		t.Fatal("expected -0.1 to miss the threshold but match direction")
	}
	if row.StrengthAccuracyScore == nil || *row.StrengthAccuracyScore != 30 {
		t.Fatalf("expected 7d move to drive strength score 30, got %v", row.StrengthAccuracyScore)
	}
}

func TestStrengthAccuracy(t *testing.T) {
	tests := []struct {
		strength int
		change   float64
		want     float64
	}{
		{80, 0.5, 25},
		{50, -5, 100},
		{100, 25, 100},
		{0, 12, 0},
	}
	for _, tt := range tests {
		if got := StrengthAccuracy(tt.strength, tt.change); !approx(got, tt.want, 1e-9) {
			t.Fatalf("StrengthAccuracy(%d, %v) = %v, want %v", tt.strength, tt.change, got, tt.want)
		}
	}
}

func TestPriceIndexNearest(t *testing.T) {
	t0 := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	index := NewPriceIndex([]domain.PricePoint{
		{Time: t0.Add(2 * time.Hour), Mid: 2},
		{Time: t0, Mid: 1},
		{Time: t0.Add(time.Hour), Mid: 0},
	})
	if index.Len() != 2 {
		t.Fatalf("expected non-positive mids dropped, got %d", index.Len())
	}
	if p, _ := index.Nearest(t0.Add(time.Hour)); p.Mid != 1 {
		t.Fatalf("expected tie to resolve to earlier point, got %v", p.Mid)
	}
	if p, _ := index.Nearest(t0.Add(90 * time.Minute)); p.Mid != 2 {
		t.Fatalf("expected later point, got %v", p.Mid)
	}
	if _, ok := NewPriceIndex(nil).Nearest(t0); ok {
		t.Fatal("expected empty index to report no point")
	}
}
