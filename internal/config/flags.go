package config

import (
	"flag"
	"time"
)

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a api base URL (e.g. "http://localhost:5001/api")
//	-ws realtime channel URL
//	-d local database file path
//	-fallback flat-file fallback path
//	-c/-config json file path with configs
//	-request-timeout outbound request timeout (e.g., "10s")
//	-probe-interval connectivity probe interval (e.g., "30s")
//	-fast-threshold fast-connection latency threshold (e.g., "300ms")
//	-sync-interval periodic drain interval (0 disables)
//	-max-retries automatic retries for failed queued actions
//	-retry-backoff base backoff before a failed action is retried
func ParseFlags() *ClientConfig {
	var baseURL string
	var wsURL string
	var databaseDSN string
	var fallbackPath string
	var jsonConfigPath string
	var requestTimeout time.Duration
	var probeInterval time.Duration
	var fastThreshold time.Duration
	var syncInterval time.Duration
	var maxRetries int
	var retryBackoff time.Duration

	flag.StringVar(&baseURL, "a", "", "API base URL")
	flag.StringVar(&wsURL, "ws", "", "Realtime channel URL")
	flag.StringVar(&databaseDSN, "d", "", "Local database file path")
	flag.StringVar(&fallbackPath, "fallback", "", "Flat-file fallback path")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 10s)")
	flag.DurationVar(&probeInterval, "probe-interval", 0, "Connectivity probe interval (e.g., 30s)")
	flag.DurationVar(&fastThreshold, "fast-threshold", 0, "Fast connection latency threshold (e.g., 300ms)")
	flag.DurationVar(&syncInterval, "sync-interval", 0, "Periodic drain interval (0 disables)")
	flag.IntVar(&maxRetries, "max-retries", 0, "Automatic retries for failed queued actions")
	flag.DurationVar(&retryBackoff, "retry-backoff", 0, "Base backoff before retrying a failed action")

	flag.Parse()

	return &ClientConfig{
		Adapter: Adapter{
			BaseURL:        baseURL,
			WSURL:          wsURL,
			RequestTimeout: requestTimeout,
		},
		Storage: Storage{
			DB:           DB{DSN: databaseDSN},
			FallbackPath: fallbackPath,
		},
		Monitor: Monitor{
			ProbeInterval: probeInterval,
			FastThreshold: fastThreshold,
		},
		Sync: Sync{
			Interval:     syncInterval,
			MaxRetries:   maxRetries,
			RetryBackoff: retryBackoff,
		},
		JSONFilePath: jsonConfigPath,
	}
}
