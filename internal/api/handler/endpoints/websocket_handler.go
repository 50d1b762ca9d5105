package endpoints

import (
	"net/http"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"studio"
	websocket2 "studio/internal/api/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, you should validate the origin
		return true
	},
}

type websocketHandler struct {
	hub    *websocket2.Hub
	logger zerolog.Logger
}

func newWebSocketHandler(hub *websocket2.Hub) *websocketHandler {
	return &websocketHandler{
		hub:    hub,
		logger: studio.Logger,
	}
}

// WebSocketHandler sets up WebSocket routes
func WebSocketHandler(router *graceful.Graceful, hub *websocket2.Hub) {
	h := newWebSocketHandler(hub)

	wsRoutes := router.Group("/ws")
	{
		wsRoutes.GET("/runs", h.handleRunEvents)
	}

	wsRoutes.GET("/stats", h.getRoomStats)
}

// handleRunEvents upgrades the connection and subscribes it to run events.
// Without a runId query parameter the subscriber receives every run.
func (slf *websocketHandler) handleRunEvents(c *gin.Context) {
	runID := c.Query("runId")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := websocket2.NewClient(uuid.NewString(), runID, slf.hub, conn, slf.logger)
	slf.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

// getRoomStats reports subscriber counts per run room
func (slf *websocketHandler) getRoomStats(c *gin.Context) {
	c.JSON(http.StatusOK, slf.hub.GetRoomStats())
}
