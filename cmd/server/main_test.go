package main

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"bluerate/internal/bot"
	"bluerate/internal/config"
	"bluerate/internal/domain"
	"bluerate/internal/provider"
	"bluerate/internal/rates"
	"bluerate/internal/sentiment"
	"bluerate/internal/service"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	started := 0
	restore := stubServerDeps(&started)
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
	if started != 3 {
		t.Fatalf("expected 3 background jobs, got %d", started)
	}
}

func TestNewLLMClientWithoutKeys(t *testing.T) {
	for _, p := range []string{"openai", "gemini"} {
		client, err := newLLMClient(context.Background(), &config.Config{LLMProvider: p})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", p, err)
		}
		if client != nil {
			t.Fatalf("%s: expected nil interface without a key, got %#v", p, client)
		}
	}
}

func TestNewLLMClientOpenAI(t *testing.T) {
	client, err := newLLMClient(context.Background(), &config.Config{LLMProvider: "openai", OpenAIAPIKey: "sk-test", OpenAIModel: "gpt-4o-mini"})
	if err != nil || client == nil {
		t.Fatalf("expected openai client, got %v %v", client, err)
	}
	if client.Model() != "llm:gpt-4o-mini" {
		t.Fatalf("unexpected model %s", client.Model())
	}
}

func TestRateConfig(t *testing.T) {
	cfg := rateConfig(&config.Config{P2PSampleSize: 12, P2PMaxAttempts: 4, P2PBaseDelayMS: 250, P2PTimeoutSecs: 5, MinDerivedSpread: 0.02})
	if cfg.SampleSize != 12 || cfg.MaxAttempts != 4 || cfg.BaseDelay != 250*time.Millisecond || cfg.AttemptTimeout != 5*time.Second {
		t.Fatalf("unexpected rate config %+v", cfg)
	}
	if cfg.Anchor != domain.PairUSD || len(cfg.Auxiliary) != 2 {
		t.Fatalf("unexpected pairs %+v", cfg)
	}
}

func stubServerDeps(started *int) func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origQuoteSource := newQuoteSource
	origOfficialTiers := newOfficialTiers
	origFeedFetcher := newFeedFetcher
	origLLM := newLLMClientFunc
	origStartJobs := startJobsFunc
	origStartTelegram := startTelegramBotFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{HTTPPort: 8080, RatePollSecs: 1, NewsPollSecs: 1, FeedbackPollSecs: 1, LLMProvider: "openai"}
	}
	initPostgresFunc = func(context.Context) {}
	initRedisFunc = func(context.Context) {}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newQuoteSource = func(trace.Tracer, *config.Config) rates.QuoteSource { return stubQuoteSource{} }
	newOfficialTiers = func(trace.Tracer, *config.Config) []rates.OfficialTier { return nil }
	newFeedFetcher = func(trace.Tracer) service.FeedFetcher { return stubFeedFetcher{} }
	newLLMClientFunc = func(context.Context, *config.Config) (sentiment.LLMClient, error) { return nil, nil }
	startJobsFunc = func(_ context.Context, jobs ...backgroundJob) { *started = len(jobs) }
	startTelegramBotFunc = func(string, bot.Services) {}
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine { return gin.New() }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		newQuoteSource = origQuoteSource
		newOfficialTiers = origOfficialTiers
		newFeedFetcher = origFeedFetcher
		newLLMClientFunc = origLLM
		startJobsFunc = origStartJobs
		startTelegramBotFunc = origStartTelegram
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	}
}

type stubQuoteSource struct{}

func (stubQuoteSource) FetchQuotes(context.Context, domain.Pair, domain.Side, int) ([]float64, error) {
	return []float64{10, 10.1}, nil
}

type stubFeedFetcher struct{}

func (stubFeedFetcher) FetchFeed(context.Context, string, int) ([]provider.FeedEntry, error) {
	return nil, nil
}
