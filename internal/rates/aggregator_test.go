package rates

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"bluerate/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type quoteKey struct {
	pair domain.Pair
	side domain.Side
}

type stubQuoteSource struct {
	mu        sync.Mutex
	responses map[quoteKey][]stubResponse
	calls     map[quoteKey]int
}

type stubResponse struct {
	prices []float64
	err    error
}

func newStubQuoteSource() *stubQuoteSource {
	return &stubQuoteSource{responses: map[quoteKey][]stubResponse{}, calls: map[quoteKey]int{}}
}

func (s *stubQuoteSource) set(pair domain.Pair, side domain.Side, rs ...stubResponse) {
	s.responses[quoteKey{pair, side}] = rs
}

func (s *stubQuoteSource) FetchQuotes(_ context.Context, pair domain.Pair, side domain.Side, rows int) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := quoteKey{pair, side}
	n := s.calls[k]
	s.calls[k] = n + 1
	rs := s.responses[k]
	if len(rs) == 0 {
		return nil, errors.New("no liquidity")
	}
	if n >= len(rs) {
		n = len(rs) - 1
	}
	return rs[n].prices, rs[n].err
}

func (s *stubQuoteSource) callCount(pair domain.Pair, side domain.Side) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[quoteKey{pair, side}]
}

func newTestAggregator(src QuoteSource, delays *[]time.Duration) *Aggregator {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	a := NewAggregator(tracer, src, nil, Config{BaseDelay: 100 * time.Millisecond, MaxDelay: 150 * time.Millisecond})
	var mu sync.Mutex
	a.sleep = func(_ context.Context, d time.Duration) error {
		mu.Lock()
		defer mu.Unlock()
		if delays != nil {
			*delays = append(*delays, d)
		}
		return nil
	}
	return a
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFetchQuotesRetriesWithBackoff(t *testing.T) {
	src := newStubQuoteSource()
	src.set(domain.PairUSD, domain.SideBuy,
		stubResponse{err: errors.New("timeout")},
		stubResponse{err: errors.New("malformed")},
		stubResponse{prices: []float64{10, 10.1}},
	)
	var delays []time.Duration
	a := newTestAggregator(src, &delays)

	prices, err := a.FetchQuotes(context.Background(), domain.SideBuy, domain.PairUSD, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prices) != 2 {
		t.Fatalf("expected 2 prices, got %v", prices)
	}
	if len(delays) != 2 || delays[0] != 100*time.Millisecond || delays[1] != 150*time.Millisecond {
		t.Fatalf("expected capped doubling delays, got %v", delays)
	}
}

func TestFetchQuotesExhaustsAttempts(t *testing.T) {
	src := newStubQuoteSource()
	cause := errors.New("connection refused")
	src.set(domain.PairUSD, domain.SideSell, stubResponse{err: cause})
	a := newTestAggregator(src, nil)

	_, err := a.FetchQuotes(context.Background(), domain.SideSell, domain.PairUSD, 10)
	var qfe *QuoteFetchError
	if !errors.As(err, &qfe) {
		t.Fatalf("expected QuoteFetchError, got %v", err)
	}
	if qfe.Attempts != 3 || qfe.Side != domain.SideSell || qfe.Pair != domain.PairUSD {
		t.Fatalf("unexpected error fields: %+v", qfe)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if got := src.callCount(domain.PairUSD, domain.SideSell); got != 3 {
		t.Fatalf("expected 3 calls, got %d", got)
	}
}

func TestFetchQuotesReportsAttemptsMadeOnCancel(t *testing.T) {
	src := newStubQuoteSource()
	src.set(domain.PairUSD, domain.SideBuy, stubResponse{err: errors.New("timeout")})
	a := newTestAggregator(src, nil)
	a.sleep = func(context.Context, time.Duration) error { return context.Canceled }

	_, err := a.FetchQuotes(context.Background(), domain.SideBuy, domain.PairUSD, 10)
	var qfe *QuoteFetchError
	if !errors.As(err, &qfe) {
		t.Fatalf("expected QuoteFetchError, got %v", err)
	}
	if qfe.Attempts != 1 {
		t.Fatalf("expected 1 attempt before cancellation, got %d", qfe.Attempts)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation cause, got %v", err)
	}
	if got := src.callCount(domain.PairUSD, domain.SideBuy); got != 1 {
		t.Fatalf("expected 1 call, got %d", got)
	}
}

func TestFetchQuotesTruncatesToSampleSize(t *testing.T) {
	src := newStubQuoteSource()
	src.set(domain.PairUSD, domain.SideBuy, stubResponse{prices: []float64{1, 2, 3, 4, 5}})
	a := newTestAggregator(src, nil)

	prices, err := a.FetchQuotes(context.Background(), domain.SideBuy, domain.PairUSD, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prices) != 3 {
		t.Fatalf("expected 3 prices, got %v", prices)
	}
}

func TestGetAggregateRateMedians(t *testing.T) {
	src := newStubQuoteSource()
	src.set(domain.PairUSD, domain.SideBuy, stubResponse{prices: []float64{9.9, 10.0, 10.1}})
	src.set(domain.PairUSD, domain.SideSell, stubResponse{prices: []float64{9.7, 9.8, 9.9}})
	a := newTestAggregator(src, nil)

	r, err := a.GetAggregateRate(context.Background(), domain.PairUSD)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approx(r.Buy, 10.0) || !approx(r.Sell, 9.8) {
		t.Fatalf("expected {10.0 9.8}, got %+v", r)
	}
	if !approx(r.Mid(), 9.9) {
		t.Fatalf("expected mid 9.9, got %v", r.Mid())
	}
}

func TestGetAggregateRateInsufficientData(t *testing.T) {
	src := newStubQuoteSource()
	src.set(domain.PairUSD, domain.SideBuy, stubResponse{prices: []float64{10}})
	src.set(domain.PairUSD, domain.SideSell, stubResponse{prices: []float64{}})
	a := newTestAggregator(src, nil)

	_, err := a.GetAggregateRate(context.Background(), domain.PairUSD)
	var ide *InsufficientDataError
	if !errors.As(err, &ide) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if ide.Side != domain.SideSell {
		t.Fatalf("expected sell side, got %s", ide.Side)
	}
}

func TestGetAllRatesDerivesMissingAuxiliary(t *testing.T) {
	src := newStubQuoteSource()
	src.set(domain.PairUSD, domain.SideBuy, stubResponse{prices: []float64{10}})
	src.set(domain.PairUSD, domain.SideSell, stubResponse{prices: []float64{10}})
	// EUR trades directly.
	eur := DefaultAuxiliary()["EUR"].Direct
	src.set(eur, domain.SideBuy, stubResponse{prices: []float64{11}})
	src.set(eur, domain.SideSell, stubResponse{prices: []float64{11.2}})
	// BRL has no direct book, only the USD leg.
	src.set(domain.PairUSDBRL, domain.SideBuy, stubResponse{prices: []float64{5}})
	src.set(domain.PairUSDBRL, domain.SideSell, stubResponse{prices: []float64{5}})
	a := newTestAggregator(src, nil)

	all, err := a.GetAllRates(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approx(all.USD.Buy, 10) {
		t.Fatalf("unexpected usd rate %+v", all.USD)
	}
	if got := all.Auxiliary["EUR"]; got.Derived || !approx(got.Buy, 11) {
		t.Fatalf("expected direct EUR rate, got %+v", got)
	}
	brl, ok := all.Auxiliary["BRL"]
	if !ok || !brl.Derived {
		t.Fatalf("expected derived BRL rate, got %+v", all.Auxiliary)
	}
	if !approx(brl.Buy, 2) || !approx(brl.Sell, 2.01) {
		t.Fatalf("expected min spread to raise sell, got %+v", brl)
	}
	if len(all.Warnings) != 0 {
		t.Fatalf("unexpected warnings %v", all.Warnings)
	}
}

func TestGetAllRatesOmitsUnderivableAuxiliary(t *testing.T) {
	src := newStubQuoteSource()
	src.set(domain.PairUSD, domain.SideBuy, stubResponse{prices: []float64{10}})
	src.set(domain.PairUSD, domain.SideSell, stubResponse{prices: []float64{10.2}})
	a := newTestAggregator(src, nil)

	all, err := a.GetAllRates(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all.Auxiliary) != 0 {
		t.Fatalf("expected no auxiliary rates, got %+v", all.Auxiliary)
	}
	if len(all.Warnings) != 2 {
		t.Fatalf("expected one warning per currency, got %v", all.Warnings)
	}
}

func TestGetAllRatesAnchorFailureIsFatal(t *testing.T) {
	src := newStubQuoteSource()
	src.set(domain.PairUSDBRL, domain.SideBuy, stubResponse{prices: []float64{5}})
	src.set(domain.PairUSDBRL, domain.SideSell, stubResponse{prices: []float64{5}})
	a := newTestAggregator(src, nil)

	_, err := a.GetAllRates(context.Background())
	var qfe *QuoteFetchError
	if !errors.As(err, &qfe) {
		t.Fatalf("expected anchor QuoteFetchError, got %v", err)
	}
	if qfe.Pair != domain.PairUSD {
		t.Fatalf("expected anchor pair, got %s", qfe.Pair)
	}
}

func TestDeriveCrossRate(t *testing.T) {
	got, err := DeriveCrossRate(Rate{Buy: 6.9, Sell: 7.1}, Rate{Buy: 0.9, Sell: 0.92}, 0.01)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Sell < got.Buy+0.01-1e-9 {
		t.Fatalf("spread not enforced: %+v", got)
	}
	if !approx(got.Buy, 7.6667) {
		t.Fatalf("expected buy 7.6667, got %v", got.Buy)
	}

	if _, err := DeriveCrossRate(Rate{Buy: 7, Sell: 7}, Rate{}, 0.01); err == nil {
		t.Fatal("expected error for zero usd leg")
	}
}
