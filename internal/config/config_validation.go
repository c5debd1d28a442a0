// SPDX-License-Identifier: Apache-2.0

package config

// validate checks that the final merged [ClientConfig] satisfies all
// invariants required at startup.
//
// Returns nil if the configuration is valid, or a sentinel error otherwise.
func (cfg *ClientConfig) validate() error {
	if cfg.Adapter.BaseURL == "" || cfg.Adapter.RequestTimeout <= 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Monitor.ProbeInterval <= 0 || cfg.Monitor.FastThreshold <= 0 {
		return ErrInvalidMonitorConfigs
	}

	if cfg.Sync.MaxRetries < 0 || (cfg.Sync.MaxRetries > 0 && cfg.Sync.RetryBackoff <= 0) {
		return ErrInvalidSyncConfigs
	}

	return nil
}
