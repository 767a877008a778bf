package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/config"
	partRepository "github.com/bbroten90/CWSFleetdms-sub000/internal/repository/part"
	thttp "github.com/bbroten90/CWSFleetdms-sub000/internal/transport/http/fleet/v1"
	"github.com/bbroten90/CWSFleetdms-sub000/internal/transport/http/health"
	"github.com/bbroten90/CWSFleetdms-sub000/platform/closer"
	"github.com/bbroten90/CWSFleetdms-sub000/platform/logger"
)

type app struct {
	di     *di
	server *http.Server
}

// New builds the full service: HTTP API, Kafka consumer and every store.
func New(ctx context.Context) (*app, error) {
	a := &app{}

	if err := a.init(ctx,
		a.initConfig,
		a.initLogger,
		a.initCloser,
		a.initDI,
		a.initTables,
		a.initParts,
		a.initServer,
	); err != nil {
		return nil, err
	}

	return a, nil
}

// NewOperator builds only what the sync commands need.
func NewOperator(ctx context.Context) (*app, error) {
	a := &app{}

	if err := a.init(ctx,
		a.initConfig,
		a.initLogger,
		a.initCloser,
		a.initDI,
	); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *app) Run(ctx context.Context) error { return a.run(ctx) }

func (a *app) SyncService(ctx context.Context) SyncService { return a.di.SyncService(ctx) }

func (a *app) PollInterval() time.Duration { return config.C().Sync.PollInterval() }

func (a *app) Close() { gracefulShutdown() }

func (a *app) init(ctx context.Context, inits ...func(context.Context) error) error {
	for _, initFn := range inits {
		if err := initFn(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) initConfig(_ context.Context) error {
	return config.Load()
}

func (a *app) initLogger(_ context.Context) error {
	return logger.Init(
		config.C().Logger.Level(),
		config.C().Logger.AsJSON(),
	)
}

func (a *app) initCloser(_ context.Context) error {
	closer.SetLogger(logger.L())
	return nil
}

func (a *app) initDI(_ context.Context) error {
	a.di = NewDI()
	return nil
}

func (a *app) initTables(ctx context.Context) error {
	if err := a.di.Migrator(ctx).Up(); err != nil {
		logger.Error(ctx, "failed to apply migrations", logger.ErrorF(err))
		return err
	}
	return nil
}

func (a *app) initParts(ctx context.Context) error {
	if !config.C().Mongo.BootstrapParts() {
		return nil
	}

	if err := partRepository.PartsBootstrap(ctx, a.di.PartRepository(ctx)); err != nil {
		logger.Error(ctx, "failed to bootstrap parts", logger.ErrorF(err))
		return err
	}
	return nil
}

func (a *app) initServer(ctx context.Context) error {
	cfg := config.C()

	handler := thttp.NewFleetHandler(
		a.di.SyncService(ctx),
		a.di.TelemetryService(ctx),
		a.di.ReconcileService(ctx),
		cfg.Sync.StaleAfter(),
	)

	r := a.di.Router(ctx)
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Logger,
	)
	r.Route("/api/v1", handler.Routes)

	r.HandleFunc("/health", health.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	a.server = &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           r,
		ReadHeaderTimeout: cfg.Server.ReadTimeout(),
	}
	closer.AddNamed("HTTP server", a.server.Shutdown)

	return nil
}

func (a *app) run(ctx context.Context) error {
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		logger.Info(egCtx,
			"🚀 work order consumer running",
			logger.Strings("kafka_brokers", config.C().Kafka.Brokers()),
		)
		return a.di.WorkOrderConsumer(egCtx).RunWorkOrderCompletedConsume(egCtx)
	})

	eg.Go(func() error {
		logger.Info(egCtx,
			"🚀 fleetsync server listening",
			logger.String("address", config.C().Server.Address()),
		)
		err := a.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()
		gracefulShutdown()
		return nil
	})

	return eg.Wait()
}

//nolint:contextcheck
func gracefulShutdown() {
	ctx, cancel := context.WithTimeout(
		context.Background(), // do not inherit cancellation from ctx
		config.C().Server.ShutdownTimeout(),
	)
	defer cancel()

	err := closer.CloseAll(ctx)
	if err != nil {
		logger.Error(ctx, "❌ Error during server shutdown", logger.ErrorF(err))
		logger.Error(ctx, "❌😵‍💫 Server stopped")
		return
	}
	logger.Info(ctx, "✅ Server stopped")
}
