package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health godoc
// @Summary      Health check
// @Description  Returns service status and the outcome of the last rate refresh
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	if h.state == nil {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		return
	}

	state := h.state.State()
	status := "healthy"
	switch {
	case state.Sample == nil:
		status = "starting"
	case !state.Healthy:
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "rates": state})
}
