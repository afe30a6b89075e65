package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"obs-text-slides/internal/models"
	"obs-text-slides/internal/transport"
)

var _ transport.Publisher = (*WebSocketService)(nil)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 << 20
	sendBuffer     = 32
)

// Client is one connection on the broadcast bus
type Client struct {
	hub    *WebSocketService
	conn   *websocket.Conn
	send   chan []byte
	remote string
}

type outbound struct {
	data   []byte
	except *Client
}

// WebSocketService is the dock side of the broadcast bus. Every message is
// delivered to all live connections; there is no replay for connections
// that join later, which is why overlays send request-state on connect.
type WebSocketService struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound
	done       chan struct{}

	mu      sync.RWMutex
	clients map[*Client]bool

	provider func() models.PlaylistState
	logger   *slog.Logger
}

// NewWebSocketService creates a new bus hub; call Run to start it.
func NewWebSocketService(logger *slog.Logger) *WebSocketService {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketService{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan outbound, 256),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		logger:     logger,
	}
}

// SetStateProvider sets the source used to answer request-state messages.
func (h *WebSocketService) SetStateProvider(provider func() models.PlaylistState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.provider = provider
}

// Run dispatches registrations and broadcasts until ctx is done.
func (h *WebSocketService) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("bus client connected", slog.String("remote", client.remote))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("bus client disconnected", slog.String("remote", client.remote))

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if client == msg.except {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// A client that cannot keep up is dropped; it resyncs on reconnect.
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of live connections.
func (h *WebSocketService) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StateCommitted broadcasts the committed state to every client.
func (h *WebSocketService) StateCommitted(ctx context.Context, state models.PlaylistState) error {
	return h.Publish(ctx, state)
}

// Publish broadcasts a full state snapshot.
func (h *WebSocketService) Publish(ctx context.Context, state models.PlaylistState) error {
	envelope, err := models.NewStateEnvelope(models.WriterDock, state)
	if err != nil {
		return err
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return h.enqueue(ctx, outbound{data: data})
}

func (h *WebSocketService) enqueue(ctx context.Context, msg outbound) error {
	select {
	case h.broadcast <- msg:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServeClient attaches an upgraded connection to the bus and blocks until it
// closes.
func (h *WebSocketService) ServeClient(conn *websocket.Conn, remote string) {
	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		remote: remote,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	client.readPump()
}

// handleMessage routes one inbound envelope.
func (h *WebSocketService) handleMessage(from *Client, data []byte) {
	var envelope models.Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		h.logger.Debug("ignoring malformed bus message", slog.String("error", err.Error()))
		return
	}

	switch envelope.Type {
	case models.MessageRequestState:
		h.mu.RLock()
		provider := h.provider
		h.mu.RUnlock()
		if provider == nil {
			return
		}
		h.logger.Info("shared current state", slog.String("requestedBy", envelope.Source))
		if err := h.Publish(context.Background(), provider()); err != nil {
			h.logger.Error("failed to answer request-state", slog.String("error", err.Error()))
		}
	case models.MessageState:
		// Other writers on the bus publish to everyone but themselves.
		_ = h.enqueue(context.Background(), outbound{data: data, except: from})
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("bus read error", slog.String("remote", c.remote), slog.String("error", err.Error()))
			}
			return
		}
		c.hub.handleMessage(c, data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
