package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	envconfig "github.com/bbroten90/CWSFleetdms-sub000/internal/config/env"
)

var cfg *config

type config struct {
	Server    Server
	Logger    Logger
	Postgres  Database
	Mongo     Mongo
	Kafka     Kafka
	Backend   Backend
	Sync      Sync
	Telemetry Telemetry
}

func Load(path ...string) error {
	const op = "config.Load"

	if shouldLoadDotenv() {
		if err := godotenv.Load(path...); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: load .env: %w", op, err)
		}
	}

	serverCfg, err := envconfig.NewHTTPServerConfig()
	if err != nil {
		return fmt.Errorf("%s Server: %w", op, err)
	}

	loggerCfg, err := envconfig.NewLoggerConfig()
	if err != nil {
		return fmt.Errorf("%s Logger: %w", op, err)
	}

	postgresCfg, err := envconfig.NewPostgresConfig()
	if err != nil {
		return fmt.Errorf("%s Postgres: %w", op, err)
	}

	mongoCfg, err := envconfig.NewMongoConfig()
	if err != nil {
		return fmt.Errorf("%s Mongo: %w", op, err)
	}

	kafkaCfg, err := envconfig.NewKafkaConfig()
	if err != nil {
		return fmt.Errorf("%s Kafka: %w", op, err)
	}

	backendCfg, err := envconfig.NewBackendConfig()
	if err != nil {
		return fmt.Errorf("%s Backend: %w", op, err)
	}

	syncCfg, err := envconfig.NewSyncConfig()
	if err != nil {
		return fmt.Errorf("%s Sync: %w", op, err)
	}

	telemetryCfg, err := envconfig.NewTelemetryConfig()
	if err != nil {
		return fmt.Errorf("%s Telemetry: %w", op, err)
	}

	cfg = &config{
		Server:    serverCfg,
		Logger:    loggerCfg,
		Postgres:  postgresCfg,
		Mongo:     mongoCfg,
		Kafka:     kafkaCfg,
		Backend:   backendCfg,
		Sync:      syncCfg,
		Telemetry: telemetryCfg,
	}

	return nil
}

func C() *config { return cfg }

func shouldLoadDotenv() bool {
	return os.Getenv("APP_ENV") == "local"
}
