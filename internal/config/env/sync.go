package envconfig

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type syncEnv struct {
	Store        string        `env:"SYNC_JOB_STORE" envDefault:"postgres"`
	StaleAfter   time.Duration `env:"SYNC_STALE_AFTER" envDefault:"30m"`
	PollInterval time.Duration `env:"SYNC_POLL_INTERVAL" envDefault:"5s"`
	ClockSkew    time.Duration `env:"SYNC_CLOCK_SKEW" envDefault:"1m"`
}

type syncJob struct {
	raw syncEnv
}

func NewSyncConfig() (*syncJob, error) {
	var raw syncEnv
	if err := env.Parse(&raw); err != nil {
		return nil, err
	}
	if raw.Store != StorePostgres && raw.Store != StoreMemory {
		return nil, fmt.Errorf("SYNC_JOB_STORE: unsupported store %q", raw.Store)
	}
	if raw.PollInterval <= 0 {
		return nil, fmt.Errorf("SYNC_POLL_INTERVAL: must be positive, got %s", raw.PollInterval)
	}
	return &syncJob{raw: raw}, nil
}

func (cfg *syncJob) Store() string               { return cfg.raw.Store }
func (cfg *syncJob) StaleAfter() time.Duration   { return cfg.raw.StaleAfter }
func (cfg *syncJob) PollInterval() time.Duration { return cfg.raw.PollInterval }
func (cfg *syncJob) ClockSkew() time.Duration    { return cfg.raw.ClockSkew }
