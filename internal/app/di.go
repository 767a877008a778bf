package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/IBM/sarama"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/client/http/backend"
	"github.com/bbroten90/CWSFleetdms-sub000/internal/config"
	envconfig "github.com/bbroten90/CWSFleetdms-sub000/internal/config/env"
	"github.com/bbroten90/CWSFleetdms-sub000/internal/converter"
	"github.com/bbroten90/CWSFleetdms-sub000/internal/metrics"
	allocRepository "github.com/bbroten90/CWSFleetdms-sub000/internal/repository/allocation"
	partRepository "github.com/bbroten90/CWSFleetdms-sub000/internal/repository/part"
	syncRepository "github.com/bbroten90/CWSFleetdms-sub000/internal/repository/syncjob"
	woconsumer "github.com/bbroten90/CWSFleetdms-sub000/internal/service/consumer/workorder"
	eventproducer "github.com/bbroten90/CWSFleetdms-sub000/internal/service/producer/event"
	"github.com/bbroten90/CWSFleetdms-sub000/internal/service/reconcile"
	"github.com/bbroten90/CWSFleetdms-sub000/internal/service/syncjob"
	"github.com/bbroten90/CWSFleetdms-sub000/internal/service/telemetry"
	thttp "github.com/bbroten90/CWSFleetdms-sub000/internal/transport/http/fleet/v1"
	"github.com/bbroten90/CWSFleetdms-sub000/platform/closer"
	"github.com/bbroten90/CWSFleetdms-sub000/platform/db/migrator"
	"github.com/bbroten90/CWSFleetdms-sub000/platform/kafka"
	"github.com/bbroten90/CWSFleetdms-sub000/platform/kafka/consumer"
	"github.com/bbroten90/CWSFleetdms-sub000/platform/kafka/middleware"
	"github.com/bbroten90/CWSFleetdms-sub000/platform/kafka/producer"
	"github.com/bbroten90/CWSFleetdms-sub000/platform/logger"
)

type Converter interface {
	eventproducer.Converter
	woconsumer.Converter
}

type PartRepository interface {
	reconcile.InventoryStore
	partRepository.BatchCreator
}

type WorkOrderConsumer interface {
	RunWorkOrderCompletedConsume(ctx context.Context) error
}

type SyncService interface {
	thttp.SyncService
}

type ReconcileService interface {
	thttp.ReconcileService
	woconsumer.Service
}

type di struct {
	dbPool   *pgxpool.Pool
	migrator *migrator.Migrator
	jobStore syncjob.JobStore
	allocs   reconcile.AllocationRepository

	mongo      *mongo.Client
	collection *mongo.Collection
	parts      PartRepository

	backend *backend.Client

	conv Converter

	syncProducer       sarama.SyncProducer
	syncEventsProducer kafka.Producer
	completedProducer  kafka.Producer
	syncEvents         syncjob.SyncEventSender
	completions        reconcile.CompletionSender

	consumerGroup     sarama.ConsumerGroup
	completedConsumer kafka.Consumer
	workOrderConsumer WorkOrderConsumer

	syncService      SyncService
	telemetryService thttp.TelemetryService
	reconcileService ReconcileService

	router *chi.Mux
}

func NewDI() *di { return &di{} }

func (d *di) DBPool(ctx context.Context) *pgxpool.Pool {
	if d.dbPool == nil {
		pool, err := pgxpool.New(ctx, config.C().Postgres.DSN())
		if err != nil {
			panic(fmt.Sprintf("failed to create pg pool: %v\n", err))
		}

		closer.AddNamed("PGX Pool",
			func(ctx context.Context) error {
				pool.Close()
				return nil
			})

		if err := pool.Ping(ctx); err != nil {
			panic(fmt.Sprintf("failed to ping db: %v\n", err))
		}

		d.dbPool = pool
	}

	return d.dbPool
}

func (d *di) Migrator(ctx context.Context) *migrator.Migrator {
	if d.migrator == nil {
		d.migrator = migrator.NewMigrator(
			stdlib.OpenDBFromPool(d.DBPool(ctx)),
			config.C().Postgres.MigrationDirectory(),
		)

		closer.AddNamed("Migrator",
			func(ctx context.Context) error {
				return d.migrator.Close()
			})
	}

	return d.migrator
}

func (d *di) JobStore(ctx context.Context) syncjob.JobStore {
	if d.jobStore == nil {
		switch config.C().Sync.Store() {
		case envconfig.StoreMemory:
			logger.Warn(ctx, "sync jobs kept in process memory, single-flight is per instance")
			d.jobStore = syncRepository.NewMemorySyncJobRepository()
		default:
			d.jobStore = syncRepository.NewSyncJobRepository(d.DBPool(ctx))
		}
	}

	return d.jobStore
}

func (d *di) AllocationRepository(ctx context.Context) reconcile.AllocationRepository {
	if d.allocs == nil {
		d.allocs = allocRepository.NewAllocationRepository(d.DBPool(ctx))
	}

	return d.allocs
}

func (d *di) MongoDB(ctx context.Context) *mongo.Client {
	if d.mongo == nil {
		cfg := config.C()

		mongoClient, err := mongo.Connect(
			options.Client().ApplyURI(cfg.Mongo.DSN()),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create mongodb client: %v\n", err))
		}
		closer.AddNamed("Mongo Client",
			func(ctx context.Context) error {
				return mongoClient.Disconnect(ctx)
			})

		if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
			panic(fmt.Sprintf("failed to ping mongodb: %v\n", err))
		}

		d.mongo = mongoClient
	}

	return d.mongo
}

func (d *di) PartsCollection(ctx context.Context) *mongo.Collection {
	if d.collection == nil {
		d.collection = d.MongoDB(ctx).
			Database(config.C().Mongo.DatabaseName()).
			Collection(config.C().Mongo.PartsCollection())

		if err := ensurePartIndexes(ctx, d.collection); err != nil {
			panic(fmt.Sprintf("failed to ensure indexes: %v\n", err))
		}
	}

	return d.collection
}

func (d *di) PartRepository(ctx context.Context) PartRepository {
	if d.parts == nil {
		d.parts = partRepository.NewPartRepository(
			d.PartsCollection(ctx),
			config.C().Mongo.Transactional(),
		)
	}

	return d.parts
}

func (d *di) BackendClient(_ context.Context) *backend.Client {
	if d.backend == nil {
		cfg := config.C().Backend

		client, err := backend.NewClient(
			cfg.BaseURL(),
			cfg.Token(),
			&http.Client{Timeout: cfg.Timeout()},
			cfg.MaxRetries(),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create fleet backend client: %v\n", err))
		}

		d.backend = client
	}

	return d.backend
}

func (d *di) KafkaConverter(_ context.Context) Converter {
	if d.conv == nil {
		d.conv = converter.NewKafkaConverter()
	}

	return d.conv
}

func (d *di) SyncProducer(_ context.Context) sarama.SyncProducer {
	if d.syncProducer == nil {
		cfg := config.C()

		p, err := sarama.NewSyncProducer(
			cfg.Kafka.Brokers(),
			cfg.Kafka.ProducerConfig(),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create sync producer: %s\n", err.Error()))
		}
		closer.AddNamed("Kafka sync producer", func(ctx context.Context) error {
			return p.Close()
		})

		d.syncProducer = p
	}

	return d.syncProducer
}

func (d *di) SyncEventsProducer(ctx context.Context) kafka.Producer {
	if d.syncEventsProducer == nil {
		d.syncEventsProducer = producer.NewProducer(
			d.SyncProducer(ctx),
			config.C().Kafka.SyncEventsTopic(),
			logger.L(),
		)
	}

	return d.syncEventsProducer
}

func (d *di) WorkOrderCompletedProducer(ctx context.Context) kafka.Producer {
	if d.completedProducer == nil {
		d.completedProducer = producer.NewProducer(
			d.SyncProducer(ctx),
			config.C().Kafka.WorkOrderCompletedTopic(),
			logger.L(),
		)
	}

	return d.completedProducer
}

func (d *di) SyncEventSender(ctx context.Context) syncjob.SyncEventSender {
	if d.syncEvents == nil {
		d.syncEvents = eventproducer.NewSyncEventProducer(
			d.SyncEventsProducer(ctx),
			d.KafkaConverter(ctx),
		)
	}

	return d.syncEvents
}

func (d *di) CompletionSender(ctx context.Context) reconcile.CompletionSender {
	if d.completions == nil {
		d.completions = eventproducer.NewCompletionProducer(
			d.WorkOrderCompletedProducer(ctx),
			d.KafkaConverter(ctx),
		)
	}

	return d.completions
}

func (d *di) ConsumerGroup(_ context.Context) sarama.ConsumerGroup {
	if d.consumerGroup == nil {
		cfg := config.C()

		consumerGroup, err := sarama.NewConsumerGroup(
			cfg.Kafka.Brokers(),
			cfg.Kafka.ConsumerGroupID(),
			cfg.Kafka.ConsumerConfig(),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create consumer group: %s\n", err.Error()))
		}
		closer.AddNamed("Kafka consumer group", func(ctx context.Context) error {
			return consumerGroup.Close()
		})

		d.consumerGroup = consumerGroup
	}

	return d.consumerGroup
}

func (d *di) WorkOrderCompletedConsumer(ctx context.Context) kafka.Consumer {
	if d.completedConsumer == nil {
		d.completedConsumer = consumer.NewConsumer(
			d.ConsumerGroup(ctx),
			[]string{
				config.C().Kafka.WorkOrderCompletedTopic(),
			},
			logger.L(),
			middleware.Recovery(logger.L()),
			middleware.Logging(logger.L()),
			middleware.Metrics(metrics.EventsHandledTotal),
		)
	}

	return d.completedConsumer
}

func (d *di) WorkOrderConsumer(ctx context.Context) WorkOrderConsumer {
	if d.workOrderConsumer == nil {
		d.workOrderConsumer = woconsumer.NewWorkOrderConsumer(
			d.WorkOrderCompletedConsumer(ctx),
			d.KafkaConverter(ctx),
			d.ReconcileService(ctx),
		)
	}

	return d.workOrderConsumer
}

func (d *di) SyncService(ctx context.Context) SyncService {
	if d.syncService == nil {
		cfg := config.C()

		d.syncService = syncjob.NewSyncService(
			d.BackendClient(ctx),
			d.JobStore(ctx),
			d.SyncEventSender(ctx),
			cfg.Sync.ClockSkew(),
			cfg.Server.DBReadTimeout(),
			cfg.Server.DBWriteTimeout(),
		)
	}

	return d.syncService
}

func (d *di) TelemetryService(ctx context.Context) thttp.TelemetryService {
	if d.telemetryService == nil {
		cfg := config.C().Telemetry

		d.telemetryService = telemetry.NewTelemetryService(
			d.BackendClient(ctx),
			cfg.StatTypes(),
			cfg.CacheTTL(),
		)
	}

	return d.telemetryService
}

func (d *di) ReconcileService(ctx context.Context) ReconcileService {
	if d.reconcileService == nil {
		cfg := config.C()

		d.reconcileService = reconcile.NewReconcileService(
			d.AllocationRepository(ctx),
			d.PartRepository(ctx),
			d.CompletionSender(ctx),
			cfg.Server.DBReadTimeout(),
			cfg.Server.DBWriteTimeout(),
		)
	}

	return d.reconcileService
}

func (d *di) Router(_ context.Context) *chi.Mux {
	if d.router == nil {
		d.router = chi.NewRouter()
	}

	return d.router
}

func ensurePartIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "part_number", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "quantity_on_hand", Value: 1}}},
	}, options.CreateIndexes())

	return err
}
