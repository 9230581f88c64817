package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultHistoryHours = 24
	maxHistoryHours     = 24 * 30
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

// GetLatestRate godoc
// @Summary      Get the latest aggregated rate
// @Description  Returns the newest USD buy/sell sample with official and cross rates
// @Tags         rates
// @Produce      json
// @Success      200  {object}  domain.RateSample
// @Failure      404  {object}  map[string]string
// @Router       /api/rates/latest [get]
func (h *Handler) GetLatestRate(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-latest-rate")
	defer span.End()

	sample, err := h.rates.Latest(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sample == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no rate sample available yet"})
		return
	}
	c.JSON(http.StatusOK, sample)
}

// GetRateHistory godoc
// @Summary      Get historical rate samples
// @Tags         rates
// @Produce      json
// @Param        hours  query  int  false  "Look-back window in hours (max 720)"  default(24)
// @Param        limit  query  int  false  "Number of samples (max 1000)"  default(100)
// @Success      200  {object}  map[string]interface{}
// @Router       /api/rates/history [get]
func (h *Handler) GetRateHistory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-rate-history")
	defer span.End()

	hours := boundedQueryInt(c, "hours", defaultHistoryHours, maxHistoryHours)
	limit := boundedQueryInt(c, "limit", defaultHistoryLimit, maxHistoryLimit)
	span.SetAttributes(attribute.Int("hours", hours), attribute.Int("limit", limit))

	to := time.Now().UTC()
	from := to.Add(-time.Duration(hours) * time.Hour)
	samples, err := h.rates.History(ctx, from, to, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"from":    from,
		"to":      to,
		"samples": samples,
	})
}

// boundedQueryInt falls back to def for missing, malformed or out-of-range values.
func boundedQueryInt(c *gin.Context, name string, def, max int) int {
	if raw := c.Query(name); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= max {
			return n
		}
	}
	return def
}
