package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type clientJSONConfig struct {
	Adapter struct {
		BaseURL        string   `json:"base_url"`
		WSURL          string   `json:"ws_url"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"adapter,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
		FallbackPath string `json:"fallback_path"`
	} `json:"storage,omitempty"`

	Monitor struct {
		ProbeInterval Duration `json:"probe_interval"`
		FastThreshold Duration `json:"fast_threshold"`
	} `json:"monitor,omitempty"`

	Sync struct {
		Interval     Duration `json:"interval"`
		MaxRetries   int      `json:"max_retries"`
		RetryBackoff Duration `json:"retry_backoff"`
	} `json:"sync,omitempty"`
}

func parseJSON(jsonFilePath string) (*ClientConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg clientJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &ClientConfig{
		Adapter: Adapter{
			BaseURL:        jsonCfg.Adapter.BaseURL,
			WSURL:          jsonCfg.Adapter.WSURL,
			RequestTimeout: time.Duration(jsonCfg.Adapter.RequestTimeout),
		},
		Storage: Storage{
			DB:           DB{DSN: jsonCfg.Storage.DB.DSN},
			FallbackPath: jsonCfg.Storage.FallbackPath,
		},
		Monitor: Monitor{
			ProbeInterval: time.Duration(jsonCfg.Monitor.ProbeInterval),
			FastThreshold: time.Duration(jsonCfg.Monitor.FastThreshold),
		},
		Sync: Sync{
			Interval:     time.Duration(jsonCfg.Sync.Interval),
			MaxRetries:   jsonCfg.Sync.MaxRetries,
			RetryBackoff: time.Duration(jsonCfg.Sync.RetryBackoff),
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling
// from strings like "1h", "30s".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
