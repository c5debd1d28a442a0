package adapter

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is returned for 401 responses, after the configured
	// unauthorized hook (global logout) has fired.
	ErrUnauthorized = errors.New("client unauthorized")

	// ErrConnectivity marks transport-level failures: unreachable host,
	// DNS failure, request timeout. Matched with errors.Is to decide
	// whether the offline-fallback path applies.
	ErrConnectivity = errors.New("network unreachable")
)

// StatusError is a non-2xx response received while connectivity was present.
// It is deliberately not matched by ErrConnectivity: a live-but-erroring
// server must never trigger cache fallback.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := e.Body
	if body == "" {
		body = http.StatusText(e.Code)
	}
	return fmt.Sprintf("http %d: %s", e.Code, body)
}

// NewConnectivityError wraps cause as a transport-level failure matched by
// ErrConnectivity. Exposed for tests and alternative Transport
// implementations.
func NewConnectivityError(cause error) error {
	return &connectivityError{cause: cause}
}

type connectivityError struct {
	cause error
}

func (e *connectivityError) Error() string {
	return fmt.Sprintf("network unreachable: %v", e.cause)
}

func (e *connectivityError) Unwrap() error { return e.cause }

func (e *connectivityError) Is(target error) bool { return target == ErrConnectivity }

// IsConnectivity reports whether err represents a transport-level failure
// rather than an application-level response.
func IsConnectivity(err error) bool {
	return errors.Is(err, ErrConnectivity)
}
