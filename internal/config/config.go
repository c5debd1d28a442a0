// SPDX-License-Identifier: Apache-2.0

package config

import (
	"time"
)

// ClientConfig is the top-level configuration container for the exchange
// client. It aggregates all sub-configurations and is populated by merging
// values from environment variables, command-line flags, and an optional
// JSON file.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type ClientConfig struct {
	// Adapter holds the backend API endpoints and timeouts used by the
	// HTTP transport and the realtime channel.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Storage holds configuration for the local durable store.
	Storage Storage `envPrefix:"STORAGE_"`

	// Monitor holds the connectivity probe settings.
	Monitor Monitor `envPrefix:"MONITOR_"`

	// Sync holds pending-action drain and retry settings.
	Sync Sync `envPrefix:"SYNC_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged below the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// Adapter holds network settings for the outbound transport layer.
type Adapter struct {
	// BaseURL is the backend API base URL, including the /api prefix
	// (e.g. "http://localhost:5001/api").
	// Env: ADAPTER_BASE_URL
	BaseURL string `env:"BASE_URL"`

	// WSURL is the realtime event channel endpoint. When empty, the
	// realtime channel is disabled.
	// Env: ADAPTER_WS_URL
	WSURL string `env:"WS_URL"`

	// RequestTimeout is the maximum duration allowed for a single outbound
	// request before it is treated as a failure (which triggers the
	// offline-fallback path when applicable).
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Storage holds local persistence settings.
type Storage struct {
	// DB holds the embedded database settings.
	DB DB `envPrefix:"DB_"`

	// FallbackPath is the flat-file location used when the embedded
	// database cannot be opened. Empty means the fallback is kept purely
	// in memory (no cross-restart persistence).
	// Env: STORAGE_FALLBACK_PATH
	FallbackPath string `env:"FALLBACK_PATH"`
}

// DB holds connection settings for the embedded SQLite database.
type DB struct {
	// DSN is the SQLite database file path
	// (e.g. "~/.book-exchange/offline.db").
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Monitor holds connectivity probe settings for the network monitor.
type Monitor struct {
	// ProbeInterval is how often the lightweight latency probe runs.
	// Env: MONITOR_PROBE_INTERVAL
	ProbeInterval time.Duration `env:"PROBE_INTERVAL"`

	// FastThreshold is the round-trip latency below which the connection
	// is classified as fast. A heuristic that only gates UX hints, never
	// correctness.
	// Env: MONITOR_FAST_THRESHOLD
	FastThreshold time.Duration `env:"FAST_THRESHOLD"`
}

// Sync holds pending-action drain settings.
type Sync struct {
	// Interval is how often the background worker drains the pending
	// action log while online, in addition to the drain triggered by an
	// offline→online transition. Zero disables the periodic drain.
	// Env: SYNC_INTERVAL
	Interval time.Duration `env:"INTERVAL"`

	// MaxRetries is how many times a failed action is re-queued before it
	// is left in the failed state for operator inspection. The default of
	// zero means failed actions are never retried automatically.
	// Env: SYNC_MAX_RETRIES
	MaxRetries int `env:"MAX_RETRIES"`

	// RetryBackoff is the base delay before a failed action becomes
	// eligible again; doubled per attempt. Only meaningful when
	// MaxRetries > 0.
	// Env: SYNC_RETRY_BACKOFF
	RetryBackoff time.Duration `env:"RETRY_BACKOFF"`
}

// GetClientConfig loads, merges, and validates the client configuration from
// all available sources in the following priority order (first source wins
// for fields it sets):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//  4. Built-in defaults
//
// Returns a fully populated *ClientConfig or an error if any source fails to
// load or the final config fails validation.
func GetClientConfig() (*ClientConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		withDefaults().
		build()
}

func defaultConfig() *ClientConfig {
	return &ClientConfig{
		Adapter: Adapter{
			BaseURL:        "http://localhost:5001/api",
			RequestTimeout: 10 * time.Second,
		},
		Storage: Storage{
			DB: DB{DSN: "offline.db"},
		},
		Monitor: Monitor{
			ProbeInterval: 30 * time.Second,
			FastThreshold: 300 * time.Millisecond,
		},
		Sync: Sync{
			RetryBackoff: time.Minute,
		},
	}
}
