//go:build wireinject
// +build wireinject

package di

import (
	"CostCast/pkg/config"
	"CostCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideClickHouseClient,
		ProvideOracleCache,

		// Repositories
		ProvideHistoryStore,
		ProvideEventPublisher,

		// Services and use cases
		ProvideForecastOracle,
		ProvideEstimateUseCase,

		// Transport
		ProvideRateLimiter,
		ProvideEstimateHandler,
		ProvideStreamHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
