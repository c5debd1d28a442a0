package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/p2pbooks/exchange-client/internal/config"
	"github.com/p2pbooks/exchange-client/internal/logger"
	"github.com/p2pbooks/exchange-client/internal/utils"
	"github.com/p2pbooks/exchange-client/models"
)

const pingEndpoint = "/offline/ping"

type HTTPTransport struct {
	client *utils.HTTPClient

	tokens         TokenSource
	onUnauthorized func()

	logger *logger.Logger
}

// NewHTTPTransport constructs the HTTP/REST implementation of [Transport].
// It normalises and validates the base URL from cfg.BaseURL and configures
// the underlying HTTP client with the resolved base URL and request timeout.
// tokens supplies the bearer token attached to every request.
//
// Returns an error if cfg.BaseURL is empty or cannot be parsed as a valid
// URL.
func NewHTTPTransport(cfg config.Adapter, tokens TokenSource, logger *logger.Logger) (*HTTPTransport, error) {
	client := utils.NewHTTPClient()
	baseURL, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter base url: %w", err)
	}

	client.
		SetBaseURL(baseURL).
		SetTimeout(cfg.RequestTimeout)

	if tokens == nil {
		tokens = func() string { return "" }
	}

	return &HTTPTransport{client: client, tokens: tokens, logger: logger}, nil
}

// SetOnUnauthorized registers the hook invoked when the server responds 401,
// typically the session's global logout.
func (h *HTTPTransport) SetOnUnauthorized(hook func()) {
	h.onUnauthorized = hook
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// Get implements [Transport]. It returns the raw response body on 2xx;
// connectivity failures are wrapped so errors.Is(err, ErrConnectivity)
// holds.
func (h *HTTPTransport) Get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	resp, err := h.authedRequest(ctx).Get(endpoint)
	if err != nil {
		return nil, &connectivityError{cause: fmt.Errorf("get %s: %w", endpoint, err)}
	}
	if err = h.mapHTTPError(resp); err != nil {
		return nil, err
	}

	return append(json.RawMessage(nil), resp.Body()...), nil
}

// Post implements [Transport].
func (h *HTTPTransport) Post(ctx context.Context, endpoint string, body any) (json.RawMessage, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(endpoint)
	if err != nil {
		return nil, &connectivityError{cause: fmt.Errorf("post %s: %w", endpoint, err)}
	}
	if err = h.mapHTTPError(resp); err != nil {
		return nil, err
	}

	return append(json.RawMessage(nil), resp.Body()...), nil
}

// Patch implements [Transport].
func (h *HTTPTransport) Patch(ctx context.Context, endpoint string, body any) (json.RawMessage, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Patch(endpoint)
	if err != nil {
		return nil, &connectivityError{cause: fmt.Errorf("patch %s: %w", endpoint, err)}
	}
	if err = h.mapHTTPError(resp); err != nil {
		return nil, err
	}

	return append(json.RawMessage(nil), resp.Body()...), nil
}

// Delete implements [Transport].
func (h *HTTPTransport) Delete(ctx context.Context, endpoint string) error {
	resp, err := h.authedRequest(ctx).Delete(endpoint)
	if err != nil {
		return &connectivityError{cause: fmt.Errorf("delete %s: %w", endpoint, err)}
	}

	return h.mapHTTPError(resp)
}

// Do implements [Transport]. It dispatches a queued action to the matching
// verb method. The response body is discarded; replay only needs the outcome.
func (h *HTTPTransport) Do(ctx context.Context, verb models.ActionVerb, endpoint string, payload json.RawMessage) error {
	switch verb {
	case models.VerbPost:
		_, err := h.Post(ctx, endpoint, payload)
		return err
	case models.VerbPatch:
		_, err := h.Patch(ctx, endpoint, payload)
		return err
	case models.VerbDelete:
		return h.Delete(ctx, endpoint)
	default:
		return fmt.Errorf("unsupported action verb: %s", verb)
	}
}

// Ping implements [Transport]. It issues a HEAD request against the probe
// endpoint and measures the round trip.
func (h *HTTPTransport) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()

	resp, err := h.client.R().SetContext(ctx).Head(pingEndpoint)
	if err != nil {
		return 0, &connectivityError{cause: fmt.Errorf("ping: %w", err)}
	}
	if err = h.mapHTTPError(resp); err != nil {
		return 0, err
	}

	return time.Since(start), nil
}

func (h *HTTPTransport) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.tokens(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}

func (h *HTTPTransport) mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		if h.onUnauthorized != nil {
			h.onUnauthorized()
		}
		return ErrUnauthorized
	}

	return &StatusError{
		Code: resp.StatusCode(),
		Body: strings.TrimSpace(string(resp.Body())),
	}
}
