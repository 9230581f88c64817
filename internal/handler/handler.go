package handler

import (
	"context"
	"time"

	"bluerate/internal/domain"
	"bluerate/internal/sentiment"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type RateReader interface {
	Latest(ctx context.Context) (*domain.RateSample, error)
	History(ctx context.Context, from, to time.Time, limit int) ([]domain.RateSample, error)
}

type NewsReader interface {
	List(ctx context.Context, f domain.NewsFilter) ([]domain.NewsItem, error)
	Get(ctx context.Context, id string) (*domain.NewsItem, error)
	SentimentScore(ctx context.Context) (sentiment.Aggregate, error)
	ClassifyText(ctx context.Context, title, summary string) (sentiment.Classification, string)
}

type FeedbackService interface {
	Run(ctx context.Context, now time.Time) (domain.FeedbackRunResult, error)
	AccuracyStats(ctx context.Context, windowDays int) (domain.AccuracyStats, error)
}

type RefreshStateReporter interface {
	State() domain.RefreshState
}

type Handler struct {
	tracer   trace.Tracer
	rates    RateReader
	news     NewsReader
	feedback FeedbackService
	state    RefreshStateReporter
	apiKey   string

	streamInterval time.Duration
}

func New(tracer trace.Tracer, rates RateReader, news NewsReader) *Handler {
	return &Handler{
		tracer: tracer,
		rates:  rates,
		news:   news,
	}
}

func (h *Handler) SetFeedbackService(feedback FeedbackService) {
	h.feedback = feedback
}

func (h *Handler) SetStateReporter(state RefreshStateReporter) {
	h.state = state
}

// SetAPIKey guards the mutating endpoints. An empty key leaves them open.
func (h *Handler) SetAPIKey(key string) {
	h.apiKey = key
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.GET("/rates/latest", h.GetLatestRate)
	api.GET("/rates/history", h.GetRateHistory)
	api.GET("/rates/stream", h.StreamRates)
	api.GET("/sentiment/score", h.GetSentimentScore)
	api.GET("/news", h.ListNews)
	api.GET("/news/:id", h.GetNews)
	api.GET("/feedback/stats", h.GetFeedbackStats)

	protected := api.Group("", APIKeyAuth(h.apiKey))
	protected.POST("/news/classify", h.ClassifyNews)
	protected.POST("/feedback/run", h.TriggerFeedbackRun)
}
