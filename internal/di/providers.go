package di

import (
	"context"
	"fmt"
	"time"

	domrepo "CostCast/internal/domain/repository"
	domsvc "CostCast/internal/domain/service"
	"CostCast/internal/handler/api"
	"CostCast/internal/handler/ws"
	internalrepo "CostCast/internal/repository"
	"CostCast/internal/service/ratelimit"
	"CostCast/internal/services/oracle"
	"CostCast/internal/usecase"
	pkgcache "CostCast/pkg/cache"
	pkgch "CostCast/pkg/clickhouse"
	"CostCast/pkg/config"
	xhttp "CostCast/pkg/http"
	pkgkafka "CostCast/pkg/kafka"
	applogger "CostCast/pkg/logger"
	"CostCast/pkg/metrics"
	"CostCast/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
)

// ProvideKafkaProducer creates a Kafka producer, or nil when no brokers are configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(pkgkafka.Config{
		Brokers:      cfg.Kafka.Brokers,
		RequiredAcks: cfg.Kafka.RequiredAcks,
		Compression:  cfg.Kafka.Compression,
		WriteTimeout: cfg.Kafka.WriteTimeout,
		Async:        cfg.Kafka.Async,
	})
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogger builds the app logger and attaches the Kafka error digest when enabled.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Logging.Collector.Enabled && producer != nil {
		l.AttachDigest(applogger.DigestConfig{
			Interval:   cfg.Logging.Collector.Interval,
			MaxEntries: cfg.Logging.Collector.Threshold,
			Topic:      cfg.Logging.Collector.Topic,
			Publisher:  producer,
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideClickHouseClient connects to ClickHouse when it backs history, otherwise returns nil.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.History.Backend != "clickhouse" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := pkgch.Open(ctx, pkgch.Config{
		Host:         cfg.ClickHouse.Host,
		Port:         cfg.ClickHouse.Port,
		Database:     cfg.ClickHouse.Database,
		User:         cfg.ClickHouse.User,
		Password:     cfg.ClickHouse.Password,
		HTTP:         cfg.ClickHouse.UseHTTP,
		DialTimeout:  cfg.ClickHouse.DialTimeout,
		ReadTimeout:  cfg.ClickHouse.ReadTimeout,
		MaxExecution: cfg.ClickHouse.MaxExecutionTime,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	if err := client.InitSchema(ctx, internalrepo.HistorySchema(cfg.History.Table)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideHistoryStore selects the CSV or ClickHouse history backend.
func ProvideHistoryStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) domrepo.HistoryStore {
	if cfg.History.Backend == "clickhouse" && ch != nil {
		return internalrepo.NewCHHistoryStore(ch, cfg.History.Table, l)
	}
	return internalrepo.NewCSVHistoryStore(cfg.History.DataDir, l)
}

// ProvideOracleCache builds the forecast cache, or nil when caching is off.
func ProvideOracleCache(cfg *config.Config) (pkgcache.Store, error) {
	c := cfg.Oracle.Cache
	switch c.Backend {
	case "none":
		return nil, nil
	case "memory":
		return pkgcache.NewMemory(c.MaxSize), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shared, err := pkgcache.NewRedis(ctx, pkgcache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	if c.Backend == "redis" {
		return shared, nil
	}
	return pkgcache.NewLayered(shared, c.MaxSize, c.TTL/4), nil
}

// ProvideForecastOracle builds the local or HTTP oracle and wraps it with the cache.
func ProvideForecastOracle(
	cfg *config.Config,
	history domrepo.HistoryStore,
	c pkgcache.Store,
	l *applogger.Logger,
	m domrepo.Metrics,
) (domsvc.ForecastOracle, error) {
	var base domsvc.ForecastOracle
	switch cfg.Oracle.Backend {
	case "http":
		base = oracle.NewHTTPOracle(cfg.Oracle.ServiceURL, cfg.Oracle.Timeout, cfg.Oracle.Retries)
	default:
		registry, err := oracle.LoadRegistry(cfg.Oracle.ModelDir)
		if err != nil {
			return nil, fmt.Errorf("model registry: %w", err)
		}
		l.Info("model registry loaded", applogger.Strings("models", registry.Names()))
		base = oracle.NewLocalOracle(registry, history)
	}

	if c == nil {
		return base, nil
	}
	return oracle.NewCachedOracle(base, c, cfg.Oracle.Cache.TTL, l, m), nil
}

// ProvideEventPublisher publishes estimate events to Kafka when a producer exists.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer) domrepo.EventPublisher {
	if producer == nil {
		return internalrepo.NopEventPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.EventsTopic)
}

// ProvideEstimateUseCase creates the product estimate use case.
func ProvideEstimateUseCase(
	cfg *config.Config,
	o domsvc.ForecastOracle,
	m domrepo.Metrics,
	events domrepo.EventPublisher,
	l *applogger.Logger,
) (*usecase.ProductEstimateUseCase, error) {
	anchor, err := cfg.AnchorTime()
	if err != nil {
		return nil, err
	}
	return usecase.NewProductEstimateUseCase(o, m, events, l, usecase.EstimateOptions{
		DefaultHorizon: cfg.Estimate.DefaultHorizon,
		MaxHorizon:     cfg.Estimate.MaxHorizon,
		Timeout:        cfg.Estimate.Timeout,
		StrictCoverage: cfg.Estimate.StrictSpotCoverage,
		Anchor:         anchor,
	}), nil
}

// ProvideRateLimiter creates the shared per-client limiter.
func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

func rateLimit(cfg *config.Config) api.RateLimit {
	return api.RateLimit{
		Capacity:     cfg.Server.RateLimit.Capacity,
		RefillPerSec: cfg.Server.RateLimit.RefillPerSec,
	}
}

// ProvideEstimateHandler creates the REST handler; /ready checks ClickHouse when it backs history.
func ProvideEstimateHandler(
	cfg *config.Config,
	l *applogger.Logger,
	uc *usecase.ProductEstimateUseCase,
	rl *ratelimit.Limiter,
	ch *pkgch.Client,
) *api.EstimateHandler {
	h := api.NewEstimateHandler(l, uc, rl, rateLimit(cfg))
	if ch != nil {
		h.AddCheck("clickhouse", ch.Health)
	}
	return h
}

// ProvideStreamHandler creates the WebSocket handler.
func ProvideStreamHandler(
	cfg *config.Config,
	l *applogger.Logger,
	uc *usecase.ProductEstimateUseCase,
	rl *ratelimit.Limiter,
) *ws.EstimateStreamHandler {
	return ws.NewEstimateStreamHandler(l, uc, rl, rateLimit(cfg))
}

// ProvideHTTPServer registers every handler on the Echo server.
func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	rest *api.EstimateHandler,
	stream *ws.EstimateStreamHandler,
) (*xhttp.Server, error) {
	sc := xhttp.ServerConfig{
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		CORSOrigins:    cfg.Server.CORSOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
		SlowThreshold:  cfg.Estimate.Timeout / 4,
	}
	if cfg.Metrics.Enabled {
		sc.MetricsPath = cfg.Metrics.Path
	}
	srv, err := xhttp.NewServer(sc, l, rest, stream)
	if err != nil {
		return nil, fmt.Errorf("http server: %w", err)
	}
	return srv, nil
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	rl *ratelimit.Limiter,
	producer *pkgkafka.Producer,
	c pkgcache.Store,
	ch *pkgch.Client,
	history domrepo.HistoryStore,
) *server.App {
	return server.New(cfg, l, srv, rl, producer, c, ch, history)
}
