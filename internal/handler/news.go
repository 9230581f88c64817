package handler

import (
	"net/http"
	"strings"
	"time"

	"bluerate/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultNewsLimit = 50
	maxNewsLimit     = 500
	maxNewsHours     = 24 * 30
)

// GetSentimentScore godoc
// @Summary      Get the aggregate news sentiment score
// @Description  Time-decayed, category-weighted score in [-50, 50] over the last 24h
// @Tags         sentiment
// @Produce      json
// @Success      200  {object}  sentiment.Aggregate
// @Router       /api/sentiment/score [get]
func (h *Handler) GetSentimentScore(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-sentiment-score")
	defer span.End()

	agg, err := h.news.SentimentScore(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	span.SetAttributes(attribute.Float64("score", agg.Score), attribute.Int("articles", agg.ArticleCount))
	c.JSON(http.StatusOK, agg)
}

// ListNews godoc
// @Summary      List classified news
// @Tags         news
// @Produce      json
// @Param        source  query  string  false  "Filter by source"
// @Param        hours   query  int     false  "Look-back window in hours"
// @Param        limit   query  int     false  "Number of items (max 500)"  default(50)
// @Success      200  {object}  map[string]interface{}
// @Router       /api/news [get]
func (h *Handler) ListNews(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.list-news")
	defer span.End()

	f := domain.NewsFilter{
		Source: strings.TrimSpace(c.Query("source")),
		Limit:  boundedQueryInt(c, "limit", defaultNewsLimit, maxNewsLimit),
	}
	if hours := boundedQueryInt(c, "hours", 0, maxNewsHours); hours > 0 {
		f.From = time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	}

	items, err := h.news.List(ctx, f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(items), "items": items})
}

// GetNews godoc
// @Summary      Get one news item
// @Tags         news
// @Produce      json
// @Param        id  path  string  true  "News item id"
// @Success      200  {object}  domain.NewsItem
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/news/{id} [get]
func (h *Handler) GetNews(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-news")
	defer span.End()

	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid news id: " + id})
		return
	}

	item, err := h.news.Get(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "news item not found"})
		return
	}
	c.JSON(http.StatusOK, item)
}

type classifyRequest struct {
	Title   string `json:"title" binding:"required"`
	Summary string `json:"summary"`
}

// ClassifyNews godoc
// @Summary      Classify ad-hoc text
// @Description  Runs the classifier against the current price context without storing anything
// @Tags         news
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/news/classify [post]
func (h *Handler) ClassifyNews(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.classify-news")
	defer span.End()

	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cls, category := h.news.ClassifyText(ctx, req.Title, req.Summary)
	span.SetAttributes(attribute.String("model", cls.Model))
	c.JSON(http.StatusOK, gin.H{
		"sentiment": cls.Direction,
		"strength":  cls.Strength,
		"model":     cls.Model,
		"reason":    cls.Reason,
		"category":  category,
	})
}
