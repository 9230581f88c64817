package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bluerate/internal/bot"
	"bluerate/internal/cache"
	"bluerate/internal/config"
	"bluerate/internal/db"
	"bluerate/internal/domain"
	"bluerate/internal/feedback"
	"bluerate/internal/handler"
	"bluerate/internal/job"
	"bluerate/internal/provider"
	"bluerate/internal/rates"
	"bluerate/internal/repository"
	"bluerate/internal/sentiment"
	"bluerate/internal/service"
	"bluerate/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "bluerate/docs"
)

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	initPostgresFunc = db.InitPostgres
	initRedisFunc    = cache.InitRedis
	initTracerFunc   = tracing.InitTracer
	newQuoteSource   = func(tracer trace.Tracer, cfg *config.Config) rates.QuoteSource {
		return provider.NewP2PProvider(tracer, cfg.P2PBaseURL, time.Duration(cfg.P2PTimeoutSecs)*time.Second)
	}
	newOfficialTiers = func(tracer trace.Tracer, cfg *config.Config) []rates.OfficialTier {
		return []rates.OfficialTier{
			rates.NewAuthorityTier(provider.NewAuthorityProvider(tracer, cfg.OfficialAuthorityURL, 0)),
			rates.NewConversionTier(provider.NewConversionProvider(tracer, cfg.OfficialAPIURL, 0), "USD", domain.LocalCurrency, cfg.OfficialSpread),
		}
	}
	newFeedFetcher = func(tracer trace.Tracer) service.FeedFetcher {
		return provider.NewRSSProvider(tracer)
	}
	newLLMClientFunc       = newLLMClient
	startJobsFunc          = func(ctx context.Context, jobs ...backgroundJob) { startJobs(ctx, jobs...) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

type backgroundJob interface {
	Start(ctx context.Context)
}

func startJobs(ctx context.Context, jobs ...backgroundJob) {
	for _, j := range jobs {
		go j.Start(ctx)
	}
}

// newLLMClient returns a nil interface when the selected provider has no key.
func newLLMClient(ctx context.Context, cfg *config.Config) (sentiment.LLMClient, error) {
	switch cfg.LLMProvider {
	case "gemini":
		client, err := sentiment.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil || client == nil {
			return nil, err
		}
		return client, nil
	default:
		if client := sentiment.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel); client != nil {
			return client, nil
		}
		return nil, nil
	}
}

func rateConfig(cfg *config.Config) rates.Config {
	return rates.Config{
		SampleSize:       cfg.P2PSampleSize,
		MaxAttempts:      cfg.P2PMaxAttempts,
		BaseDelay:        time.Duration(cfg.P2PBaseDelayMS) * time.Millisecond,
		MaxDelay:         8 * time.Second,
		AttemptTimeout:   time.Duration(cfg.P2PTimeoutSecs) * time.Second,
		MinDerivedSpread: cfg.MinDerivedSpread,
		Anchor:           domain.PairUSD,
		Auxiliary:        rates.DefaultAuxiliary(),
	}
}

// @title           Bluerate API
// @version         1.0
// @description     Parallel-market exchange rates, news sentiment and prediction feedback.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)
	defer cache.Close()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// A nil *redis.Client must not reach the services as a non-nil interface.
	var redisClient service.RedisClient
	if cache.Client != nil {
		redisClient = cache.Client
	}

	rateRepo := repository.NewRateSampleRepository(db.Pool, tracer)
	newsRepo := repository.NewNewsRepository(db.Pool, tracer)
	feedbackRepo := repository.NewFeedbackRepository(db.Pool, tracer)

	officialChain := rates.NewOfficialChain(tracer, newOfficialTiers(tracer, cfg)...)
	aggregator := rates.NewAggregator(tracer, newQuoteSource(tracer, cfg), officialChain, rateConfig(cfg))
	rateService := service.NewRateService(tracer, aggregator, rateRepo, redisClient, cfg.OfficialStaticBuy, cfg.OfficialStaticSell)

	llm, err := newLLMClientFunc(ctx, cfg)
	if err != nil {
		log.Printf("Warning: LLM client unavailable, using keyword classifier: %v", err)
		llm = nil
	}
	classifier := sentiment.NewClassifier(tracer, llm, time.Duration(cfg.LLMTimeoutSecs)*time.Second)
	newsService := service.NewNewsService(tracer, cfg.NewsFeeds, newFeedFetcher(tracer), newsRepo, classifier, rateService, redisClient)

	evaluator := feedback.NewEvaluator(tracer, newsRepo, rateRepo, feedbackRepo, cfg.FeedbackMinSamples)

	poller := job.NewRatePoller(tracer, rateService, cfg.RatePollSecs)
	startJobsFunc(ctx,
		poller,
		job.NewNewsIngestJob(tracer, newsService, time.Duration(cfg.NewsPollSecs)*time.Second),
		job.NewFeedbackJob(tracer, evaluator, time.Duration(cfg.FeedbackPollSecs)*time.Second),
	)

	startTelegramBotFunc(cfg.TelegramBotToken, bot.Services{
		Rates:     rateService,
		Sentiment: newsService,
		Accuracy:  evaluator,
	})

	h := handler.New(tracer, rateService, newsService)
	h.SetFeedbackService(evaluator)
	h.SetStateReporter(poller)
	h.SetAPIKey(cfg.APIKey)

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()
	log.Printf("Listening on %s", srv.Addr)

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
