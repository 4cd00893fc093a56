//go:build wireinject
// +build wireinject

package di

import (
	"github.com/J-Mash24/worldz1/pkg/config"
	"github.com/J-Mash24/worldz1/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvidePayloadCache,
		ProvideResultCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideIndicatorSource,
		ProvideGroupResolver,
		ProvideSnapshotStore,
		ProvideSnapshotPublisher,

		// Use cases
		ProvideDashboard,
		ProvideGrowthTicker,
		ProvideSnapshotProcessor,
		ProvideSnapshotCollector,
		ProvideSnapshotsHandler,

		// Transport
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
