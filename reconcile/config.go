package reconcile

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/tailscale/hujson"
)

// Config holds the reconcile service's tunables, loaded from a JWCC
// (JSON-with-Comments) file the same way calvinalkan-agent-task's
// config.go loads its own: hujson.Standardize to strip comments/trailing
// commas, then a plain encoding/json.Unmarshal.
type Config struct {
	// ExtraBytes, AmbiguityBudget, OscillationProbeCap mirror the codec's
	// own Config fields (see the root package's Option type); the service
	// layer owns a JSON-shaped copy so it can be loaded from a file.
	ExtraBytes          int `json:"extra_bytes"`
	AmbiguityBudget     int `json:"ambiguity_budget"`
	OscillationProbeCap int `json:"oscillation_probe_cap"`

	// CacheSize bounds the candidate-resolution LRU cache.
	CacheSize int `json:"cache_size"`

	// RateLimitPerSecond and RateLimitBurst configure the token-bucket
	// limiter applied to inbound Decode calls.
	RateLimitPerSecond float64 `json:"rate_limit_per_second"`
	RateLimitBurst     int     `json:"rate_limit_burst"`

	// DecodeTimeout bounds a single Decode call's combination search, via
	// context.WithTimeout, in addition to any deadline the caller's own
	// context already carries.
	DecodeTimeout time.Duration `json:"decode_timeout"`
}

// DefaultConfig returns the service's built-in tunables, used whenever no
// config file is present.
func DefaultConfig() Config {
	return Config{
		ExtraBytes:          2,
		AmbiguityBudget:     1500,
		OscillationProbeCap: 400,
		CacheSize:           4096,
		RateLimitPerSecond:  50,
		RateLimitBurst:      10,
		DecodeTimeout:       5 * time.Second,
	}
}

// LoadConfig reads a JWCC config file at path and overlays it onto
// DefaultConfig. A missing file is not an error: the defaults are
// returned as-is, matching calvinalkan-agent-task/config.go's
// os.IsNotExist handling.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reconcile: read config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("reconcile: invalid JWCC in %s: %w", path, err)
	}

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("reconcile: invalid config JSON in %s: %w", path, err)
	}

	return cfg, nil
}
