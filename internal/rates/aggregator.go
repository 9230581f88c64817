package rates

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"bluerate/internal/domain"
	"bluerate/internal/stats"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// QuoteSource returns the ranked ad prices for one side of a P2P pair.
type QuoteSource interface {
	FetchQuotes(ctx context.Context, pair domain.Pair, side domain.Side, rows int) ([]float64, error)
}

type Config struct {
	SampleSize       int
	MaxAttempts      int
	BaseDelay        time.Duration
	MaxDelay         time.Duration
	AttemptTimeout   time.Duration
	MinDerivedSpread float64
	Anchor           domain.Pair
	// Auxiliary maps a currency code to its direct local market and its USD leg.
	Auxiliary map[string]AuxiliaryPair
}

type AuxiliaryPair struct {
	Direct domain.Pair
	USDLeg domain.Pair
}

// Rate is a buy/sell pair collapsed from quotes.
type Rate struct {
	Buy     float64
	Sell    float64
	Derived bool
}

func (r Rate) Mid() float64 {
	return (r.Buy + r.Sell) / 2
}

type AllRates struct {
	USD       Rate
	Auxiliary map[string]Rate
	Warnings  []string
}

type Aggregator struct {
	tracer   trace.Tracer
	source   QuoteSource
	official *OfficialChain
	cfg      Config
	sleep    func(ctx context.Context, d time.Duration) error
}

func DefaultAuxiliary() map[string]AuxiliaryPair {
	return map[string]AuxiliaryPair{
		"BRL": {Direct: domain.Pair{Asset: "BRL", Fiat: domain.LocalCurrency}, USDLeg: domain.PairUSDBRL},
		"EUR": {Direct: domain.Pair{Asset: "EUR", Fiat: domain.LocalCurrency}, USDLeg: domain.PairUSDEUR},
	}
}

func NewAggregator(tracer trace.Tracer, source QuoteSource, official *OfficialChain, cfg Config) *Aggregator {
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = 10
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 8 * time.Second
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 10 * time.Second
	}
	if cfg.MinDerivedSpread <= 0 {
		cfg.MinDerivedSpread = 0.01
	}
	if cfg.Anchor == (domain.Pair{}) {
		cfg.Anchor = domain.PairUSD
	}
	if cfg.Auxiliary == nil {
		cfg.Auxiliary = DefaultAuxiliary()
	}
	return &Aggregator{tracer: tracer, source: source, official: official, cfg: cfg, sleep: sleepCtx}
}

// FetchQuotes retries transport and payload failures with exponential backoff.
func (a *Aggregator) FetchQuotes(ctx context.Context, side domain.Side, pair domain.Pair, sampleSize int) ([]float64, error) {
	ctx, span := a.tracer.Start(ctx, "rate-aggregator.fetch-quotes")
	defer span.End()
	span.SetAttributes(attribute.String("pair", pair.String()), attribute.String("side", string(side)))

	if sampleSize <= 0 {
		sampleSize = a.cfg.SampleSize
	}

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= a.cfg.MaxAttempts; attempt++ {
		attempts = attempt
		attemptCtx, cancel := context.WithTimeout(ctx, a.cfg.AttemptTimeout)
		prices, err := a.source.FetchQuotes(attemptCtx, pair, side, sampleSize)
		cancel()
		if err == nil {
			if len(prices) > sampleSize {
				prices = prices[:sampleSize]
			}
			return prices, nil
		}
		lastErr = err
		if ctx.Err() != nil || attempt == a.cfg.MaxAttempts {
			break
		}

		delay := a.backoff(attempt)
		log.Printf("quote fetch %s %s attempt %d/%d failed: %v (retrying in %s)", pair, side, attempt, a.cfg.MaxAttempts, err, delay)
		if err := a.sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}

	span.RecordError(lastErr)
	return nil, &QuoteFetchError{Pair: pair, Side: side, Attempts: attempts, Err: lastErr}
}

// backoff returns BaseDelay * 2^(attempt-1), capped at MaxDelay.
func (a *Aggregator) backoff(attempt int) time.Duration {
	d := a.cfg.BaseDelay << (attempt - 1)
	if d <= 0 || d > a.cfg.MaxDelay {
		return a.cfg.MaxDelay
	}
	return d
}

// GetAggregateRate fetches both sides concurrently and collapses each to its median.
func (a *Aggregator) GetAggregateRate(ctx context.Context, pair domain.Pair) (Rate, error) {
	ctx, span := a.tracer.Start(ctx, "rate-aggregator.get-aggregate-rate")
	defer span.End()
	span.SetAttributes(attribute.String("pair", pair.String()))

	var buyPrices, sellPrices []float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		buyPrices, err = a.FetchQuotes(gctx, domain.SideBuy, pair, a.cfg.SampleSize)
		return err
	})
	g.Go(func() error {
		var err error
		sellPrices, err = a.FetchQuotes(gctx, domain.SideSell, pair, a.cfg.SampleSize)
		return err
	})
	if err := g.Wait(); err != nil {
		return Rate{}, err
	}

	buy, ok := stats.Median(buyPrices)
	if !ok {
		return Rate{}, &InsufficientDataError{Pair: pair, Side: domain.SideBuy}
	}
	sell, ok := stats.Median(sellPrices)
	if !ok {
		return Rate{}, &InsufficientDataError{Pair: pair, Side: domain.SideSell}
	}
	return Rate{Buy: buy, Sell: sell}, nil
}

// GetAllRates fails only when the USD anchor fails. Each auxiliary currency falls back
// to a cross rate through its USD leg and is omitted when that fails too.
func (a *Aggregator) GetAllRates(ctx context.Context) (AllRates, error) {
	ctx, span := a.tracer.Start(ctx, "rate-aggregator.get-all-rates")
	defer span.End()

	type auxOutcome struct {
		code   string
		direct Rate
		leg    Rate
		dirErr error
		legErr error
	}

	var usd Rate
	var usdErr error
	outcomes := make([]*auxOutcome, 0, len(a.cfg.Auxiliary))
	for code := range a.cfg.Auxiliary {
		outcomes = append(outcomes, &auxOutcome{code: code})
	}

	// Auxiliary failures must not cancel the anchor, so no shared errgroup context.
	var g errgroup.Group
	g.Go(func() error {
		usd, usdErr = a.GetAggregateRate(ctx, a.cfg.Anchor)
		return nil
	})
	for _, o := range outcomes {
		aux := a.cfg.Auxiliary[o.code]
		g.Go(func() error {
			o.direct, o.dirErr = a.GetAggregateRate(ctx, aux.Direct)
			if o.dirErr == nil {
				return nil
			}
			o.leg, o.legErr = a.GetAggregateRate(ctx, aux.USDLeg)
			return nil
		})
	}
	_ = g.Wait()

	if usdErr != nil {
		span.RecordError(usdErr)
		return AllRates{}, fmt.Errorf("anchor pair %s: %w", a.cfg.Anchor, usdErr)
	}

	out := AllRates{USD: usd, Auxiliary: make(map[string]Rate, len(outcomes))}
	for _, o := range outcomes {
		if o.dirErr == nil {
			out.Auxiliary[o.code] = o.direct
			continue
		}
		if o.legErr != nil {
			msg := fmt.Sprintf("%s: direct: %v; usd leg: %v", o.code, o.dirErr, o.legErr)
			log.Printf("auxiliary rate omitted %s", msg)
			out.Warnings = append(out.Warnings, msg)
			continue
		}
		derived, err := DeriveCrossRate(usd, o.leg, a.cfg.MinDerivedSpread)
		if err != nil {
			msg := fmt.Sprintf("%s: derive: %v", o.code, err)
			log.Printf("auxiliary rate omitted %s", msg)
			out.Warnings = append(out.Warnings, msg)
			continue
		}
		out.Auxiliary[o.code] = derived
	}
	return out, nil
}

// DeriveCrossRate computes local-per-X from local-per-USD and X-per-USD, side by side,
// and keeps the sell side at least minSpread above the buy side.
func DeriveCrossRate(usd, usdInX Rate, minSpread float64) (Rate, error) {
	if usdInX.Buy <= 0 || usdInX.Sell <= 0 {
		return Rate{}, errors.New("usd leg has non-positive price")
	}
	buy := round(usd.Buy/usdInX.Buy, 4)
	sell := round(usd.Sell/usdInX.Sell, 4)
	if sell < buy+minSpread {
		sell = round(buy+minSpread, 4)
	}
	return Rate{Buy: buy, Sell: sell, Derived: true}, nil
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
