package envconfig

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type telemetryEnv struct {
	StatTypes []string      `env:"TELEMETRY_STAT_TYPES" envSeparator:","`
	CacheTTL  time.Duration `env:"TELEMETRY_CACHE_TTL" envDefault:"30s"`
}

type telemetry struct {
	raw telemetryEnv
}

func NewTelemetryConfig() (*telemetry, error) {
	var raw telemetryEnv
	if err := env.Parse(&raw); err != nil {
		return nil, err
	}
	return &telemetry{raw: raw}, nil
}

// StatTypes is empty when the full default set should be requested.
func (cfg *telemetry) StatTypes() []string     { return cfg.raw.StatTypes }
func (cfg *telemetry) CacheTTL() time.Duration { return cfg.raw.CacheTTL }
