package rates

import (
	"context"
	"errors"
	"log"

	"bluerate/internal/provider"

	"go.opentelemetry.io/otel/trace"
)

// OfficialSpread is the half-spread applied around a conversion-API mid rate.
const OfficialSpread = 0.0072

type OfficialRate struct {
	Buy    float64
	Sell   float64
	Source string
}

func (r OfficialRate) Mid() float64 {
	return (r.Buy + r.Sell) / 2
}

// TierResult records the outcome of one official-rate tier.
type TierResult struct {
	Tier string
	Rate *OfficialRate
	Err  error
}

// OfficialTier is one strategy in the official-rate chain.
type OfficialTier interface {
	Name() string
	Fetch(ctx context.Context) (OfficialRate, error)
}

type AuthoritySource interface {
	FetchOfficial(ctx context.Context) (*provider.OfficialQuote, error)
}

type ConversionSource interface {
	FetchRate(ctx context.Context, base, quote string) (float64, error)
}

type authorityTier struct {
	src AuthoritySource
}

// NewAuthorityTier reads structured buy/sell values from the central bank.
func NewAuthorityTier(src AuthoritySource) OfficialTier {
	return authorityTier{src: src}
}

func (authorityTier) Name() string { return "authority" }

func (t authorityTier) Fetch(ctx context.Context) (OfficialRate, error) {
	q, err := t.src.FetchOfficial(ctx)
	if err != nil {
		return OfficialRate{}, err
	}
	if q == nil || q.Buy <= 0 || q.Sell <= 0 {
		return OfficialRate{}, errors.New("authority returned no rate")
	}
	return OfficialRate{Buy: q.Buy, Sell: q.Sell, Source: t.Name()}, nil
}

type conversionTier struct {
	src    ConversionSource
	base   string
	quote  string
	spread float64
}

// NewConversionTier builds buy/sell around a generic mid rate using spread.
func NewConversionTier(src ConversionSource, base, quote string, spread float64) OfficialTier {
	if spread <= 0 {
		spread = OfficialSpread
	}
	return conversionTier{src: src, base: base, quote: quote, spread: spread}
}

func (conversionTier) Name() string { return "conversion_api" }

func (t conversionTier) Fetch(ctx context.Context) (OfficialRate, error) {
	mid, err := t.src.FetchRate(ctx, t.base, t.quote)
	if err != nil {
		return OfficialRate{}, err
	}
	if mid <= 0 {
		return OfficialRate{}, errors.New("conversion api returned non-positive rate")
	}
	return OfficialRate{
		Buy:    round(mid*(1-t.spread), 4),
		Sell:   round(mid*(1+t.spread), 4),
		Source: t.Name(),
	}, nil
}

// OfficialChain tries each tier in order and stops at the first success.
type OfficialChain struct {
	tracer trace.Tracer
	tiers  []OfficialTier
}

func NewOfficialChain(tracer trace.Tracer, tiers ...OfficialTier) *OfficialChain {
	return &OfficialChain{tracer: tracer, tiers: tiers}
}

func (c *OfficialChain) GetOfficialRate(ctx context.Context) (OfficialRate, []TierResult, error) {
	ctx, span := c.tracer.Start(ctx, "official-chain.get-official-rate")
	defer span.End()

	results := make([]TierResult, 0, len(c.tiers))
	for _, tier := range c.tiers {
		rate, err := tier.Fetch(ctx)
		if err != nil {
			log.Printf("Warning: official tier %s failed: %v", tier.Name(), err)
			results = append(results, TierResult{Tier: tier.Name(), Err: err})
			continue
		}
		r := rate
		results = append(results, TierResult{Tier: tier.Name(), Rate: &r})
		return rate, results, nil
	}

	err := &officialChainError{tiers: results}
	span.RecordError(err)
	return OfficialRate{}, results, err
}

// GetOfficialRate runs the aggregator's official chain.
func (a *Aggregator) GetOfficialRate(ctx context.Context) (OfficialRate, []TierResult, error) {
	if a.official == nil {
		return OfficialRate{}, nil, ErrOfficialUnavailable
	}
	return a.official.GetOfficialRate(ctx)
}
