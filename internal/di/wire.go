//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	domrepo "TrackBets/internal/domain/repository"
	dservice "TrackBets/internal/domain/service"
	"TrackBets/internal/service/trackbets"
	"TrackBets/internal/services/analysis"
	"TrackBets/pkg/config"
	"TrackBets/pkg/server"
)

var eventSet = wire.NewSet(
	ProvideKafkaProducer,
	ProvideEventPublisher,
	ProvideEventStorage,
	ProvideFunnelProcessor,
	ProvideEventPipeline,
	ProvideFunnelTracker,
)

// InitializeClient wires the terminal client.
func InitializeClient(cfg *config.Config) (*Client, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		ProvideEventsClickHouse,
		eventSet,

		ProvideAnalysisClient,
		wire.Bind(new(domrepo.AnalysisService), new(*trackbets.Client)),
		ProvideFallback,
		ProvideAnalyzer,

		ProvideUserStore,
		ProvideAuth,

		ProvideWatcherFactory,
		NewClient,
	)
	return nil, nil, nil
}

// InitializeServer wires the demo analysis API.
func InitializeServer(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		analysis.NewCatalog,
		wire.Bind(new(dservice.Catalog), new(*analysis.Catalog)),
		ProvideSearchCache,
		ProvideSearch,

		ProvideFunnelClickHouse,
		ProvideEventStorage,
		ProvideFunnelReader,
		ProvideKafkaConsumer,
		ProvideFunnelIngest,

		ProvideAnalysisHandler,
		ProvideStreamHandler,
		ProvideFunnelHandler,
		ProvideHandlers,
		ProvideRateLimiter,
		ProvideHTTPServer,

		ProvideApp,
	)
	return nil, nil, nil
}
