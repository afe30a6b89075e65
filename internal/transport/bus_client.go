package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"obs-text-slides/internal/models"
)

// DefaultReconnectDelay is the pause between bus reconnect attempts.
const DefaultReconnectDelay = 2 * time.Second

// BusClient subscribes to the dock's broadcast bus. When the server answers
// without a bus endpoint, Fallback takes over for the rest of the session.
type BusClient struct {
	URL            string
	Dialer         *websocket.Dialer
	ReconnectDelay time.Duration
	Fallback       Subscriber
	Logger         *slog.Logger
}

// NewBusClient creates a client for the dock at serverURL (http or ws scheme).
func NewBusClient(serverURL string, logger *slog.Logger) (*BusClient, error) {
	wsURL, err := BusURL(serverURL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BusClient{
		URL:            wsURL,
		Dialer:         websocket.DefaultDialer,
		ReconnectDelay: DefaultReconnectDelay,
		Logger:         logger,
	}, nil
}

// BusURL maps a dock base URL to its bus endpoint.
func BusURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url %q: %w", serverURL, err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}

// Subscribe connects, asks for the current state and delivers every state
// message. Dial failures are delivered as errors and retried; a failed
// handshake hands over to Fallback if one is set. It returns when ctx ends.
func (c *BusClient) Subscribe(ctx context.Context, handler func(Delivery)) error {
	for {
		connected, err := c.session(ctx, handler)
		if ctx.Err() != nil {
			return nil
		}
		switch {
		case !connected && c.Fallback != nil && errors.Is(err, websocket.ErrBadHandshake):
			c.Logger.Warn("bus unavailable, polling instead", slog.String("url", c.URL))
			return c.Fallback.Subscribe(ctx, handler)
		case !connected:
			c.Logger.Warn("bus unreachable", slog.String("url", c.URL), slog.String("error", err.Error()))
			handler(Delivery{Err: err, Via: ViaBus})
		case err != nil:
			c.Logger.Warn("bus connection lost", slog.String("url", c.URL), slog.String("error", err.Error()))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.ReconnectDelay):
		}
	}
}

func (c *BusClient) session(ctx context.Context, handler func(Delivery)) (bool, error) {
	conn, _, err := c.Dialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to dial bus: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	request := models.Envelope{Type: models.MessageRequestState, Source: models.SourceOverlay}
	if err := conn.WriteJSON(request); err != nil {
		return true, fmt.Errorf("failed to request state: %w", err)
	}
	c.Logger.Debug("bus connected", slog.String("url", c.URL))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		var envelope models.Envelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			continue
		}
		if envelope.Type != models.MessageState || len(envelope.Payload) == 0 {
			continue
		}
		handler(Delivery{Payload: envelope.Payload, Via: ViaBus})
	}
}
