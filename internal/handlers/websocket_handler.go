package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"obs-text-slides/internal/services"
)

// WebSocketHandler upgrades bus connections
type WebSocketHandler struct {
	hub      *services.WebSocketService
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler creates a new bus handler
func NewWebSocketHandler(hub *services.WebSocketService, logger *slog.Logger) *WebSocketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// OBS browser sources load from file:// and report a null origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// HandleWebSocket attaches a client to the bus
// GET /ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	h.hub.ServeClient(conn, r.RemoteAddr)
}
