package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CostCast/internal/service/ratelimit"
	pkgcache "CostCast/pkg/cache"
	pkgch "CostCast/pkg/clickhouse"
	"CostCast/pkg/config"
	xhttp "CostCast/pkg/http"
	pkgkafka "CostCast/pkg/kafka"
	applogger "CostCast/pkg/logger"
)

const limiterIdle = 10 * time.Minute

// Closer is anything the app releases on shutdown.
type Closer interface {
	Close() error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	httpServer *xhttp.Server
	limiter    *ratelimit.Limiter
	producer   *pkgkafka.Producer
	cache      pkgcache.Store
	chClient   *pkgch.Client
	history    Closer
}

// New creates a new App instance with all dependencies.
// producer, cache and chClient are optional and may be nil.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	httpServer *xhttp.Server,
	limiter *ratelimit.Limiter,
	producer *pkgkafka.Producer,
	cache pkgcache.Store,
	chClient *pkgch.Client,
	history Closer,
) *App {
	return &App{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		limiter:    limiter,
		producer:   producer,
		cache:      cache,
		chClient:   chClient,
		history:    history,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the application and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}

	go a.sweepLimiter(ctx)

	a.logger.Info("costcast started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("oracle", a.cfg.Oracle.Backend),
		applogger.String("history", a.cfg.History.Backend),
		applogger.String("cache", a.cfg.Oracle.Cache.Backend),
		applogger.Bool("kafka", a.producer != nil),
	)

	<-ctx.Done()
	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) sweepLimiter(ctx context.Context) {
	if a.limiter == nil {
		return
	}
	ticker := time.NewTicker(limiterIdle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.limiter.Sweep(limiterIdle); n > 0 {
				a.logger.Debug("rate limiter swept", applogger.Int("buckets", n))
			}
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	a.logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Warn("history store close error", applogger.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("cache close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// The log digest publishes through the producer.
	a.logger.DetachDigest()
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("kafka producer close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
