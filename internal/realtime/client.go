package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/p2pbooks/exchange-client/internal/adapter"
	"github.com/p2pbooks/exchange-client/internal/logger"
	"github.com/p2pbooks/exchange-client/models"
)

// Client is the WebSocket event channel client with auto-reconnect. The
// bearer token is read from tokens at every (re)connect, so an expired
// session picks up the fresh token without rebuilding the client.
type Client struct {
	cfg    Config
	tokens adapter.TokenSource

	mu               sync.Mutex
	conn             *websocket.Conn
	state            State
	intentionalClose bool
	cancelFn         context.CancelFunc

	dispatcher *eventDispatcher
	recon      *reconnector

	logger *logger.Logger
}

func NewClient(cfg Config, tokens adapter.TokenSource, logger *logger.Logger) *Client {
	cfg.defaults()

	if tokens == nil {
		tokens = func() string { return "" }
	}

	return &Client{
		cfg:        cfg,
		tokens:     tokens,
		state:      StateDisconnected,
		dispatcher: newEventDispatcher(),
		recon:      newReconnector(&cfg),
		logger:     logger,
	}
}

// OnNotification registers a handler for notification events.
func (c *Client) OnNotification(h func(models.Notification)) {
	c.dispatcher.mu.Lock()
	c.dispatcher.onNotification = append(c.dispatcher.onNotification, h)
	c.dispatcher.mu.Unlock()
}

// OnMessageNew registers a handler for incoming messages.
func (c *Client) OnMessageNew(h func(models.Message)) {
	c.dispatcher.mu.Lock()
	c.dispatcher.onMessageNew = append(c.dispatcher.onMessageNew, h)
	c.dispatcher.mu.Unlock()
}

// OnAuthenticated registers a handler for the authenticated event.
func (c *Client) OnAuthenticated(h func(AuthenticatedPayload)) {
	c.dispatcher.mu.Lock()
	c.dispatcher.onAuthenticated = append(c.dispatcher.onAuthenticated, h)
	c.dispatcher.mu.Unlock()
}

// OnError registers a handler for server-side channel errors.
func (c *Client) OnError(h func(ErrorPayload)) {
	c.dispatcher.mu.Lock()
	c.dispatcher.onError = append(c.dispatcher.onError, h)
	c.dispatcher.mu.Unlock()
}

// OnConnected registers a handler for the connected meta-event.
func (c *Client) OnConnected(h func()) {
	c.dispatcher.mu.Lock()
	c.dispatcher.onConnected = append(c.dispatcher.onConnected, h)
	c.dispatcher.mu.Unlock()
}

// OnDisconnected registers a handler for the disconnected meta-event.
func (c *Client) OnDisconnected(h func(reason string)) {
	c.dispatcher.mu.Lock()
	c.dispatcher.onDisconnected = append(c.dispatcher.onDisconnected, h)
	c.dispatcher.mu.Unlock()
}

// OnReconnecting registers a handler for the reconnecting meta-event.
func (c *Client) OnReconnecting(h func(attempt int, delay time.Duration)) {
	c.dispatcher.mu.Lock()
	c.dispatcher.onReconnecting = append(c.dispatcher.onReconnecting, h)
	c.dispatcher.mu.Unlock()
}

// On registers a generic event handler.
func (c *Client) On(eventType string, h EventHandler) {
	c.dispatcher.mu.Lock()
	c.dispatcher.generic[eventType] = append(c.dispatcher.generic[eventType], h)
	c.dispatcher.mu.Unlock()
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect establishes the WebSocket connection and starts the read loop.
// Calling Connect while connected or connecting is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnected || c.state == StateConnecting {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.intentionalClose = false
	c.mu.Unlock()

	wsURL := strings.Replace(c.cfg.URL, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	if token := c.tokens(); token != "" {
		wsURL += "?token=" + token
	}

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.state = StateConnected
	c.mu.Unlock()
	c.recon.markConnected()

	c.logger.Info().Str("func", "realtime.Client.Connect").Msg("event channel connected")
	c.dispatcher.emitConnected()

	connCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancelFn = cancel
	c.mu.Unlock()

	go c.readLoop(connCtx)

	return nil
}

// Disconnect gracefully closes the connection. No reconnect is attempted
// after an intentional close.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	c.intentionalClose = true
	if c.cancelFn != nil {
		c.cancelFn()
		c.cancelFn = nil
	}
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if conn != nil {
		return conn.Close(websocket.StatusNormalClosure, "client disconnect")
	}
	c.dispatcher.emitDisconnected("client disconnect")
	return nil
}

func (c *Client) readLoop(ctx context.Context) {
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, data, err := conn.Read(ctx)
		if err != nil {
			c.mu.Lock()
			intentional := c.intentionalClose
			c.mu.Unlock()
			if intentional {
				return
			}

			c.mu.Lock()
			c.state = StateDisconnected
			c.conn = nil
			c.mu.Unlock()

			c.logger.Warn().Err(err).Str("func", "realtime.Client.readLoop").Msg("event channel dropped")
			c.dispatcher.emitDisconnected(err.Error())

			if c.cfg.AutoReconnect && c.recon.shouldReconnect() {
				c.scheduleReconnect(ctx)
			}
			return
		}

		var env Envelope
		if json.Unmarshal(data, &env) != nil {
			continue
		}

		c.dispatcher.dispatch(env)
	}
}

func (c *Client) scheduleReconnect(ctx context.Context) {
	delay := c.recon.nextDelay()
	c.mu.Lock()
	c.state = StateReconnecting
	c.mu.Unlock()

	c.dispatcher.emitReconnecting(c.recon.attempt, delay)

	select {
	case <-ctx.Done():
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		return
	case <-time.After(delay):
	}

	if err := c.Connect(ctx); err != nil {
		if c.cfg.AutoReconnect && c.recon.shouldReconnect() {
			c.scheduleReconnect(ctx)
		} else {
			c.mu.Lock()
			c.state = StateDisconnected
			c.mu.Unlock()
		}
	}
}

// Reset clears the reconnect backoff. Called when the network monitor
// reports connectivity restored, so the next attempt is immediate-ish.
func (c *Client) Reset() {
	c.recon.reset()
}
