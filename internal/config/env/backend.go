package envconfig

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type backendEnv struct {
	URL        string        `env:"FLEET_BACKEND_URL,required"`
	Token      string        `env:"FLEET_BACKEND_TOKEN"`
	Timeout    time.Duration `env:"FLEET_BACKEND_TIMEOUT" envDefault:"15s"`
	MaxRetries uint64        `env:"FLEET_BACKEND_MAX_RETRIES" envDefault:"3"`
}

type backend struct {
	raw backendEnv
}

func NewBackendConfig() (*backend, error) {
	var raw backendEnv
	if err := env.Parse(&raw); err != nil {
		return nil, err
	}
	return &backend{raw: raw}, nil
}

func (cfg *backend) BaseURL() string        { return cfg.raw.URL }
func (cfg *backend) Token() string          { return cfg.raw.Token }
func (cfg *backend) Timeout() time.Duration { return cfg.raw.Timeout }
func (cfg *backend) MaxRetries() uint64     { return cfg.raw.MaxRetries }
