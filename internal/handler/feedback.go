package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultStatsDays = 30
	maxStatsDays     = 365
)

// GetFeedbackStats godoc
// @Summary      Prediction accuracy statistics
// @Tags         feedback
// @Produce      json
// @Param        days  query  int  false  "Window in days (max 365)"  default(30)
// @Success      200  {object}  domain.AccuracyStats
// @Failure      503  {object}  map[string]string
// @Router       /api/feedback/stats [get]
func (h *Handler) GetFeedbackStats(c *gin.Context) {
	if h.feedback == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "feedback service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-feedback-stats")
	defer span.End()

	days := boundedQueryInt(c, "days", defaultStatsDays, maxStatsDays)
	span.SetAttributes(attribute.Int("days", days))

	stats, err := h.feedback.AccuracyStats(ctx, days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// TriggerFeedbackRun godoc
// @Summary      Evaluate matured predictions now
// @Tags         feedback
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/feedback/run [post]
func (h *Handler) TriggerFeedbackRun(c *gin.Context) {
	if h.feedback == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "feedback service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.trigger-feedback-run")
	defer span.End()

	result, err := h.feedback.Run(ctx, time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"candidates":        result.Candidates,
		"already_evaluated": result.AlreadyEvaluated,
		"evaluated":         result.Evaluated,
		"skipped":           result.Skipped,
		"inserted":          result.Inserted,
		"errors":            result.Errors,
	})
}
