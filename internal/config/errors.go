package config

import "errors"

// Validation errors returned by [ClientConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidAdapterConfigs indicates invalid transport settings
	// (for example, missing base URL or non-positive request timeout).
	ErrInvalidAdapterConfigs = errors.New("invalid adapter configuration")
	// ErrInvalidStorageConfigs indicates invalid local storage settings
	// (for example, an empty database path).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidMonitorConfigs indicates invalid connectivity probe
	// settings (for example, a non-positive probe interval).
	ErrInvalidMonitorConfigs = errors.New("invalid monitor configuration")
	// ErrInvalidSyncConfigs indicates invalid drain/retry settings
	// (for example, retries enabled with no backoff).
	ErrInvalidSyncConfigs = errors.New("invalid sync configuration")
)
