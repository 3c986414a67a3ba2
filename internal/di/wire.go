//go:build wireinject
// +build wireinject

package di

import (
	"MarketSentry/pkg/config"
	"MarketSentry/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Foundations
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideHTTPClient,
		ProvideRedisCache,
		ProvideCacheService,

		// Connectors
		ProvideTTLCache,
		ProvideRateLimiter,
		ProvideChainSource,
		ProvideFlowSource,
		ProvideSocialSource,
		ProvideEventSource,
		ProvideExchangeStream,

		// Repositories
		ProvideFeatureStore,
		ProvideAssessmentStore,
		ProvidePrecedentStore,
		ProvideTickStorage,
		ProvideTickPublisher,
		ProvideAlertPublisher,

		// Ingestion use cases
		ProvideTickProcessor,
		ProvideTickCollector,
		ProvideKafkaTicksHandler,

		// Detection
		ProvideAgents,
		ProvideFusionEngine,
		ProvideContextBuilder,
		ProvideNotifyQueue,
		ProvideAlertGate,
		ProvideMonitor,

		// Delivery
		ProvideSentryHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
