// Package realtime maintains a WebSocket subscription to the backend's
// event channel, delivering notifications and new messages to registered
// handlers while the client is online. The channel is an optimization on
// top of the offline layer, never a correctness requirement: everything it
// delivers is also reachable through plain fetches after a sync.
package realtime

import (
	"encoding/json"
	"time"
)

// Event types carried on the channel.
const (
	EventAuthenticated = "authenticated"
	EventNotification  = "notification"
	EventMessageNew    = "message.new"
	EventError         = "error"
)

// Envelope is the wire format for all channel events.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AuthenticatedPayload confirms the server accepted the bearer token.
type AuthenticatedPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// ErrorPayload reports a server-side channel error.
type ErrorPayload struct {
	Message string `json:"message"`
}

// State is the connection lifecycle state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// Config tunes the channel client.
type Config struct {
	// URL is the websocket endpoint, ws:// or wss:// (http schemes are
	// rewritten).
	URL string

	AutoReconnect        bool
	MaxReconnectAttempts int
	ReconnectBaseDelay   time.Duration
	ReconnectMaxDelay    time.Duration
}

func (c *Config) defaults() {
	if c.ReconnectBaseDelay == 0 {
		c.ReconnectBaseDelay = time.Second
	}
	if c.ReconnectMaxDelay == 0 {
		c.ReconnectMaxDelay = 30 * time.Second
	}
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = 10
	}
}
