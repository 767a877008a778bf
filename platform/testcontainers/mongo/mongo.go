package mongo

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
)

type Container struct {
	container *mongodb.MongoDBContainer
	client    *mongo.Client
	cfg       *Config
}

func NewContainer(ctx context.Context, opts ...Option) (*Container, error) {
	cfg := buildConfig(opts...)

	var runOpts []testcontainers.ContainerCustomizer
	if cfg.ReplicaSet != "" {
		runOpts = append(runOpts, mongodb.WithReplicaSet(cfg.ReplicaSet))
	}

	container, err := mongodb.Run(ctx, cfg.ImageName, runOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start mongo container: %w", err)
	}

	success := false
	defer func() {
		if !success {
			if err := testcontainers.TerminateContainer(container); err != nil {
				cfg.Logger.Error(ctx, "failed to terminate mongo container", zap.Error(err))
			}
		}
	}()

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get mongo connection string: %w", err)
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetDirect(true))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	cfg.Logger.Info(ctx, "Mongo container started", zap.String("uri", uri))
	success = true

	return &Container{
		container: container,
		client:    client,
		cfg:       cfg,
	}, nil
}

func (c *Container) Client() *mongo.Client {
	return c.client
}

func (c *Container) Database() *mongo.Database {
	return c.client.Database(c.cfg.Database)
}

// Transactional reports whether the server runs as a replica set.
func (c *Container) Transactional() bool {
	return c.cfg.ReplicaSet != ""
}

func (c *Container) Terminate(ctx context.Context) error {
	if err := c.client.Disconnect(ctx); err != nil {
		c.cfg.Logger.Error(ctx, "failed to disconnect mongo client", zap.Error(err))
	}

	if err := testcontainers.TerminateContainer(c.container); err != nil {
		c.cfg.Logger.Error(ctx, "failed to terminate mongo container", zap.Error(err))
		return err
	}

	c.cfg.Logger.Info(ctx, "Mongo container terminated")

	return nil
}
