package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"

	"github.com/bbroten90/CWSFleetdms-sub000/platform/db/migrator"
	"github.com/bbroten90/CWSFleetdms-sub000/platform/logger"
)

type Logger interface {
	Info(ctx context.Context, msg string, fields ...zap.Field)
	Error(ctx context.Context, msg string, fields ...zap.Field)
}

type Config struct {
	ImageName     string
	Database      string
	Username      string
	Password      string
	MigrationsDir string
	Logger        Logger
}

type Option func(*Config)

func WithImageName(image string) Option {
	return func(c *Config) { c.ImageName = image }
}

// WithMigrations applies the goose migrations found in dir once the
// database is up.
func WithMigrations(dir string) Option {
	return func(c *Config) { c.MigrationsDir = dir }
}

func WithLogger(logger Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

type Container struct {
	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool
	cfg       *Config
}

func NewContainer(ctx context.Context, opts ...Option) (*Container, error) {
	cfg := &Config{
		ImageName: "postgres:17-alpine",
		Database:  "fleetsync",
		Username:  "fleetsync",
		Password:  "fleetsync",
		Logger:    &logger.NoopLogger{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	container, err := tcpostgres.Run(ctx, cfg.ImageName,
		tcpostgres.WithDatabase(cfg.Database),
		tcpostgres.WithUsername(cfg.Username),
		tcpostgres.WithPassword(cfg.Password),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	success := false
	defer func() {
		if !success {
			if err := testcontainers.TerminateContainer(container); err != nil {
				cfg.Logger.Error(ctx, "failed to terminate postgres container", zap.Error(err))
			}
		}
	}()

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, fmt.Errorf("failed to get postgres connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pg pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if cfg.MigrationsDir != "" {
		if err := migrate(pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, err
		}
	}

	cfg.Logger.Info(ctx, "Postgres container started", zap.String("dsn", dsn))
	success = true

	return &Container{container: container, pool: pool, cfg: cfg}, nil
}

func migrate(pool *pgxpool.Pool, dir string) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close() //nolint:errcheck

	return migrator.NewMigrator(db, dir).Up()
}

func (c *Container) Pool() *pgxpool.Pool {
	return c.pool
}

func (c *Container) Terminate(ctx context.Context) error {
	c.pool.Close()

	if err := testcontainers.TerminateContainer(c.container); err != nil {
		c.cfg.Logger.Error(ctx, "failed to terminate postgres container", zap.Error(err))
		return err
	}

	c.cfg.Logger.Info(ctx, "Postgres container terminated")

	return nil
}
