package handler

import (
	"log"
	"net/http"
	"time"

	"bluerate/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	defaultStreamInterval = 2 * time.Second
	streamWriteTimeout    = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// StreamRates godoc
// @Summary      Stream rate refresh state
// @Description  WebSocket; pushes the refresh state on connect and whenever it changes
// @Tags         rates
// @Router       /api/rates/stream [get]
func (h *Handler) StreamRates(c *gin.Context) {
	if h.state == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rate poller unavailable"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("rate stream upgrade error: %v", err)
		return
	}
	defer conn.Close()

	// Client messages are ignored; a read error means the peer went away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	interval := h.streamInterval
	if interval <= 0 {
		interval = defaultStreamInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last *domain.RefreshState
	for {
		state := h.state.State()
		if last == nil || stateChanged(*last, state) {
			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(state); err != nil {
				return
			}
			last = &state
		}

		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func stateChanged(prev, next domain.RefreshState) bool {
	return !prev.LastUpdate.Equal(next.LastUpdate) ||
		prev.Healthy != next.Healthy ||
		prev.LastError != next.LastError
}
