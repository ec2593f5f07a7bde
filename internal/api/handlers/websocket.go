package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"chat-relay/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers cannot set Authorization headers on websocket dials, so the
	// token travels in the query string and CORS enforcement happens at
	// the REST layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WSHandler struct {
	hub *realtime.Hub
}

func NewWSHandler(hub *realtime.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// HandleWebSocket godoc
// @Summary WebSocket connection
// @Description Upgrade to a websocket for real-time messaging. Invalid or missing tokens are rejected with close code 1008 after the upgrade.
// @Tags websocket
// @Param token query string true "JWT credential token"
// @Success 101 "Switching Protocols - WebSocket connection established"
// @Router /ws [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	if _, err := h.hub.Attach(conn, token); err != nil {
		if !errors.Is(err, realtime.ErrUnauthenticated) {
			slog.Error("WebSocket attach failed", "error", err)
		}
		return
	}
}
