// Package session holds the client's authentication state: the bearer
// token for outbound requests and the identity decoded from it. A single
// Session instance is shared by the transport, the realtime client and the
// sync worker, so all access is guarded by a mutex.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/p2pbooks/exchange-client/internal/logger"
)

var (
	// ErrNoToken is returned when identity is requested and no token is set.
	ErrNoToken = errors.New("no session token")

	// ErrTokenExpired is returned when the stored token's expiry has passed.
	ErrTokenExpired = errors.New("session token expired")
)

// Identity is the subset of token claims the client cares about.
type Identity struct {
	UserID    string
	Username  string
	ExpiresAt time.Time
}

type sessionClaims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Session stores the current bearer token and exposes it as a TokenSource
// for the transport layer. Logout hooks registered via OnLogout fire every
// time the session is cleared, including the forced clear on a 401.
type Session struct {
	mu       sync.RWMutex
	token    string
	identity Identity

	onLogout []func()

	logger *logger.Logger
}

func NewSession(logger *logger.Logger) *Session {
	return &Session{logger: logger}
}

// SetToken stores a new bearer token and decodes its claims. The token
// signature is not verified: the server is the authority on validity, the
// client only needs the subject and expiry for display and realtime auth.
func (s *Session) SetToken(token string) error {
	identity, err := decodeIdentity(token)
	if err != nil {
		return fmt.Errorf("set session token: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.identity = identity
	s.mu.Unlock()

	s.logger.Info().Str("func", "Session.SetToken").Str("user_id", identity.UserID).Msg("session established")

	return nil
}

// Token returns the current bearer token, or "" when logged out. Its method
// value satisfies adapter.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}

// Identity returns the identity decoded from the current token.
func (s *Session) Identity() (Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return Identity{}, ErrNoToken
	}
	if !s.identity.ExpiresAt.IsZero() && time.Now().After(s.identity.ExpiresAt) {
		return Identity{}, ErrTokenExpired
	}

	return s.identity, nil
}

// Authenticated reports whether a non-expired token is present.
func (s *Session) Authenticated() bool {
	_, err := s.Identity()
	return err == nil
}

// OnLogout registers a hook fired each time the session is cleared.
// Must be called during wiring, before concurrent use begins.
func (s *Session) OnLogout(hook func()) {
	s.onLogout = append(s.onLogout, hook)
}

// Logout clears the token and identity and fires the registered hooks.
// Safe to call when already logged out; hooks still fire so callers can
// rely on it to reset dependent state.
func (s *Session) Logout() {
	s.mu.Lock()
	s.token = ""
	s.identity = Identity{}
	s.mu.Unlock()

	s.logger.Info().Str("func", "Session.Logout").Msg("session cleared")

	for _, hook := range s.onLogout {
		hook()
	}
}

func decodeIdentity(token string) (Identity, error) {
	claims := &sessionClaims{}

	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return Identity{}, fmt.Errorf("parse token claims: %w", err)
	}

	identity := Identity{
		UserID:   claims.Subject,
		Username: claims.Username,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}

	return identity, nil
}
