package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"bluerate/internal/cache"
	"bluerate/internal/domain"
	"bluerate/internal/provider"
	"bluerate/internal/sentiment"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	sentimentScoreCacheTTL = 60 * time.Second
	defaultFeedItemLimit   = 30
)

type FeedFetcher interface {
	FetchFeed(ctx context.Context, feedURL string, maxItems int) ([]provider.FeedEntry, error)
}

type NewsStore interface {
	ExistsByURL(ctx context.Context, url string) (bool, error)
	InsertIfURLAbsent(ctx context.Context, item domain.NewsItem) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.NewsItem, error)
	List(ctx context.Context, f domain.NewsFilter) ([]domain.NewsItem, error)
	ListClassifiedSince(ctx context.Context, since time.Time) ([]domain.NewsItem, error)
}

type NewsClassifier interface {
	Classify(ctx context.Context, title, summary string, price *sentiment.PriceContext) sentiment.Classification
}

type PriceContextSource interface {
	PriceContext(ctx context.Context, at time.Time) (*sentiment.PriceContext, error)
}

type NewsService struct {
	tracer     trace.Tracer
	feeds      []string
	fetcher    FeedFetcher
	store      NewsStore
	classifier NewsClassifier
	prices     PriceContextSource
	redis      RedisClient
	itemLimit  int
	now        func() time.Time
}

func NewNewsService(
	tracer trace.Tracer,
	feeds []string,
	fetcher FeedFetcher,
	store NewsStore,
	classifier NewsClassifier,
	prices PriceContextSource,
	redisClient RedisClient,
) *NewsService {
	return &NewsService{
		tracer:     tracer,
		feeds:      feeds,
		fetcher:    fetcher,
		store:      store,
		classifier: classifier,
		prices:     prices,
		redis:      redisClient,
		itemLimit:  defaultFeedItemLimit,
		now:        time.Now,
	}
}

// NewsID derives a stable item id from its URL.
func NewsID(url string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(strings.TrimSpace(url))).String()
}

// Ingest pulls every feed, skips URLs already stored, and classifies the rest once.
// Per-feed and per-item failures are collected in Errors; the run fails only when
// every feed failed.
func (s *NewsService) Ingest(ctx context.Context) (domain.NewsIngestResult, error) {
	ctx, span := s.tracer.Start(ctx, "news-service.ingest")
	defer span.End()

	result := domain.NewsIngestResult{}
	now := s.now().UTC()
	seen := make(map[string]struct{})
	failedFeeds := 0

	var price *sentiment.PriceContext
	priceLoaded := false

	for _, feed := range s.feeds {
		entries, err := s.fetcher.FetchFeed(ctx, feed, s.itemLimit)
		if err != nil {
			failedFeeds++
			result.Errors = append(result.Errors, "rss:"+feed+": "+err.Error())
			continue
		}
		result.Fetched += len(entries)

		for _, entry := range entries {
			if _, ok := seen[entry.URL]; ok {
				result.Duplicates++
				continue
			}
			seen[entry.URL] = struct{}{}

			exists, err := s.store.ExistsByURL(ctx, entry.URL)
			if err != nil {
				result.Errors = append(result.Errors, "exists:"+entry.URL+": "+err.Error())
				continue
			}
			if exists {
				result.Duplicates++
				continue
			}

			if !priceLoaded {
				priceLoaded = true
				if price, err = s.prices.PriceContext(ctx, now); err != nil {
					log.Printf("Warning: price context unavailable: %v", err)
					price = nil
				}
			}

			item := s.buildItem(ctx, entry, now, price)
			inserted, err := s.store.InsertIfURLAbsent(ctx, item)
			if err != nil {
				result.Errors = append(result.Errors, "insert:"+entry.URL+": "+err.Error())
				continue
			}
			if !inserted {
				result.Duplicates++
				continue
			}
			result.Inserted++
		}
	}

	if result.Inserted > 0 && s.redis != nil {
		if err := s.redis.Del(ctx, cache.KeySentimentScore).Err(); err != nil {
			log.Printf("redis cache delete error for %s: %v", cache.KeySentimentScore, err)
		}
	}

	span.SetAttributes(
		attribute.Int("fetched", result.Fetched),
		attribute.Int("inserted", result.Inserted),
		attribute.Int("duplicates", result.Duplicates),
	)
	if len(s.feeds) > 0 && failedFeeds == len(s.feeds) {
		return result, fmt.Errorf("all %d news feeds failed", failedFeeds)
	}
	return result, nil
}

func (s *NewsService) buildItem(ctx context.Context, entry provider.FeedEntry, now time.Time, price *sentiment.PriceContext) domain.NewsItem {
	cls := s.classifier.Classify(ctx, entry.Title, entry.Summary, price)
	strength := cls.Strength
	published := entry.PublishedAt
	if published.IsZero() || published.After(now) {
		published = now
	}
	return domain.NewsItem{
		ID:                NewsID(entry.URL),
		Source:            entry.Source,
		URL:               entry.URL,
		Title:             entry.Title,
		Summary:           entry.Summary,
		PublishedAt:       published,
		Sentiment:         cls.Direction,
		SentimentStrength: &strength,
		Category:          sentiment.Categorize(entry.Title, entry.Summary),
		ClassifierModel:   cls.Model,
	}
}

// ClassifyText classifies ad-hoc text against the current price context without storing it.
func (s *NewsService) ClassifyText(ctx context.Context, title, summary string) (sentiment.Classification, string) {
	ctx, span := s.tracer.Start(ctx, "news-service.classify-text")
	defer span.End()

	price, err := s.prices.PriceContext(ctx, s.now().UTC())
	if err != nil {
		log.Printf("Warning: price context unavailable: %v", err)
		price = nil
	}
	return s.classifier.Classify(ctx, title, summary, price), sentiment.Categorize(title, summary)
}

func (s *NewsService) List(ctx context.Context, f domain.NewsFilter) ([]domain.NewsItem, error) {
	return s.store.List(ctx, f)
}

func (s *NewsService) Get(ctx context.Context, id string) (*domain.NewsItem, error) {
	return s.store.GetByID(ctx, id)
}

// SentimentScore aggregates the last 24h of classified news, cached briefly.
func (s *NewsService) SentimentScore(ctx context.Context) (sentiment.Aggregate, error) {
	ctx, span := s.tracer.Start(ctx, "news-service.sentiment-score")
	defer span.End()

	if s.redis != nil {
		data, err := s.redis.Get(ctx, cache.KeySentimentScore).Bytes()
		if err == nil {
			var agg sentiment.Aggregate
			if err := json.Unmarshal(data, &agg); err == nil {
				return agg, nil
			}
		} else if err != redis.Nil {
			log.Printf("redis cache read error: %v", err)
		}
	}

	now := s.now().UTC()
	items, err := s.store.ListClassifiedSince(ctx, now.Add(-sentiment.AggregateWindow))
	if err != nil {
		return sentiment.Aggregate{}, err
	}
	agg := sentiment.AggregateScore(items, now)

	if s.redis != nil {
		if data, err := json.Marshal(agg); err == nil {
			if err := s.redis.Set(ctx, cache.KeySentimentScore, data, sentimentScoreCacheTTL).Err(); err != nil {
				log.Printf("redis cache write error for %s: %v", cache.KeySentimentScore, err)
			}
		}
	}
	return agg, nil
}
