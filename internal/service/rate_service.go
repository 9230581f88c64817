package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"bluerate/internal/cache"
	"bluerate/internal/domain"
	"bluerate/internal/feedback"
	"bluerate/internal/rates"
	"bluerate/internal/sentiment"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	latestRateCacheTTL   = 10 * time.Minute
	OfficialSourceStatic = "static"
)

type RateAggregator interface {
	GetAllRates(ctx context.Context) (rates.AllRates, error)
	GetOfficialRate(ctx context.Context) (rates.OfficialRate, []rates.TierResult, error)
}

type RateSampleStore interface {
	Append(ctx context.Context, s domain.RateSample) (*domain.RateSample, error)
	Latest(ctx context.Context) (*domain.RateSample, error)
	Range(ctx context.Context, from, to time.Time, limit int) ([]domain.RateSample, error)
	ListPricePoints(ctx context.Context, from, to time.Time) ([]domain.PricePoint, error)
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RateService runs one refresh cycle and serves stored samples.
type RateService struct {
	tracer         trace.Tracer
	aggregator     RateAggregator
	store          RateSampleStore
	redis          RedisClient
	staticOfficial rates.OfficialRate
	now            func() time.Time
}

func NewRateService(
	tracer trace.Tracer,
	aggregator RateAggregator,
	store RateSampleStore,
	redisClient RedisClient,
	staticBuy, staticSell float64,
) *RateService {
	return &RateService{
		tracer:         tracer,
		aggregator:     aggregator,
		store:          store,
		redis:          redisClient,
		staticOfficial: rates.OfficialRate{Buy: staticBuy, Sell: staticSell, Source: OfficialSourceStatic},
		now:            time.Now,
	}
}

// Refresh fails only when the anchor pair fails or the sample cannot be stored.
// A failed official chain is replaced by the static rate and reported as a warning.
func (s *RateService) Refresh(ctx context.Context) (domain.RefreshResult, error) {
	ctx, span := s.tracer.Start(ctx, "rate-service.refresh")
	defer span.End()

	all, err := s.aggregator.GetAllRates(ctx)
	if err != nil {
		span.RecordError(err)
		return domain.RefreshResult{}, err
	}
	result := domain.RefreshResult{Warnings: append([]string(nil), all.Warnings...)}

	official, tiers, err := s.aggregator.GetOfficialRate(ctx)
	if err != nil {
		log.Printf("Warning: %v; using static official rate", err)
		for _, t := range tiers {
			if t.Err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("official %s: %v", t.Tier, t.Err))
			}
		}
		official = s.staticOfficial
	}
	result.Official = official.Source

	sample := buildSample(s.now(), all, official)
	saved, err := s.store.Append(ctx, sample)
	if err != nil {
		span.RecordError(err)
		return result, fmt.Errorf("append rate sample: %w", err)
	}
	result.Sample = saved

	if s.redis != nil {
		if err := s.setLatestCache(ctx, saved); err != nil {
			log.Printf("redis cache write error for %s: %v", cache.KeyLatestRate, err)
		}
	}

	span.SetAttributes(
		attribute.Float64("buy", saved.Buy),
		attribute.Float64("sell", saved.Sell),
		attribute.String("official_source", official.Source),
	)
	return result, nil
}

func buildSample(now time.Time, all rates.AllRates, official rates.OfficialRate) domain.RateSample {
	sample := domain.RateSample{
		Time:           now.UTC(),
		Buy:            round4(all.USD.Buy),
		Sell:           round4(all.USD.Sell),
		Mid:            round4(all.USD.Mid()),
		OfficialBuy:    ptr(round4(official.Buy)),
		OfficialSell:   ptr(round4(official.Sell)),
		OfficialMid:    ptr(round4(official.Mid())),
		OfficialSource: official.Source,
	}
	if r, ok := all.Auxiliary["BRL"]; ok {
		sample.BuyBRL, sample.SellBRL, sample.MidBRL = ptr(round4(r.Buy)), ptr(round4(r.Sell)), ptr(round4(r.Mid()))
	}
	if r, ok := all.Auxiliary["EUR"]; ok {
		sample.BuyEUR, sample.SellEUR, sample.MidEUR = ptr(round4(r.Buy)), ptr(round4(r.Sell)), ptr(round4(r.Mid()))
	}
	return sample
}

// Latest returns the newest sample, preferring the cache.
func (s *RateService) Latest(ctx context.Context) (*domain.RateSample, error) {
	ctx, span := s.tracer.Start(ctx, "rate-service.latest")
	defer span.End()

	if s.redis != nil {
		cached, err := s.getLatestCache(ctx)
		if err != nil {
			log.Printf("redis cache read error: %v", err)
		}
		if cached != nil {
			return cached, nil
		}
	}

	latest, err := s.store.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if latest != nil && s.redis != nil {
		_ = s.setLatestCache(ctx, latest)
	}
	return latest, nil
}

func (s *RateService) History(ctx context.Context, from, to time.Time, limit int) ([]domain.RateSample, error) {
	return s.store.Range(ctx, from, to, limit)
}

// PriceContext reports realized 6h and 24h moves of the USD mid ending at at.
// It returns nil when there is no recent sample to anchor on.
func (s *RateService) PriceContext(ctx context.Context, at time.Time) (*sentiment.PriceContext, error) {
	ctx, span := s.tracer.Start(ctx, "rate-service.price-context")
	defer span.End()

	points, err := s.store.ListPricePoints(ctx, at.Add(-26*time.Hour), at)
	if err != nil {
		return nil, err
	}
	index := feedback.NewPriceIndex(points)
	current, ok := index.NearestWithin(at, time.Hour)
	if !ok {
		return nil, nil
	}

	pc := &sentiment.PriceContext{}
	if p, ok := index.NearestWithin(at.Add(-6*time.Hour), time.Hour); ok {
		pc.Change6H = ptr(pctChange(p.Mid, current.Mid))
	}
	if p, ok := index.NearestWithin(at.Add(-24*time.Hour), 2*time.Hour); ok {
		pc.Change24H = ptr(pctChange(p.Mid, current.Mid))
	}
	if pc.Change6H == nil && pc.Change24H == nil {
		return nil, nil
	}
	return pc, nil
}

func (s *RateService) setLatestCache(ctx context.Context, sample *domain.RateSample) error {
	data, err := json.Marshal(sample)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, cache.KeyLatestRate, data, latestRateCacheTTL).Err()
}

func (s *RateService) getLatestCache(ctx context.Context) (*domain.RateSample, error) {
	data, err := s.redis.Get(ctx, cache.KeyLatestRate).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sample domain.RateSample
	if err := json.Unmarshal(data, &sample); err != nil {
		return nil, err
	}
	return &sample, nil
}

func pctChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return round4((to - from) / from * 100)
}

func round4(v float64) float64 {
	return decimal.NewFromFloat(v).Round(4).InexactFloat64()
}

func ptr[T any](v T) *T {
	return &v
}
