package adapter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/p2pbooks/exchange-client/models"
)

// TokenSource supplies the current bearer token for authenticated requests.
// An empty string means the client is unauthenticated and the Authorization
// header is omitted.
type TokenSource func() string

// Transport is the outbound HTTP surface of the backend API. Implementations
// never interpret response bodies beyond error mapping; callers receive raw
// JSON.
//
// Error contract: transport-level failures (unreachable host, timeout)
// satisfy errors.Is(err, ErrConnectivity); non-2xx responses with
// connectivity present are returned as *StatusError (or ErrUnauthorized for
// 401) so callers can tell a dead network from a live-but-erroring server.
type Transport interface {
	Get(ctx context.Context, endpoint string) (json.RawMessage, error)
	Post(ctx context.Context, endpoint string, body any) (json.RawMessage, error)
	Patch(ctx context.Context, endpoint string, body any) (json.RawMessage, error)
	Delete(ctx context.Context, endpoint string) error

	// Do replays a queued action. Used as the drain executor.
	Do(ctx context.Context, verb models.ActionVerb, endpoint string, payload json.RawMessage) error

	// Ping issues a lightweight HEAD request against the probe endpoint
	// and returns the measured round-trip time.
	Ping(ctx context.Context) (time.Duration, error)
}
