//go:build wireinject
// +build wireinject

package di

import (
	"InOut/pkg/config"
	"InOut/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideCache,
		ProvideKafkaProducer,

		// Repositories
		ProvideBarStore,
		ProvideDensityStore,
		ProvideReportPublisher,
		ProvideExecution,

		// Strategy and ingestion
		ProvideSession,
		ProvideStrategy,
		ProvideBarPipeline,
		ProvideBarCollector,
		ProvideKafkaConsumer,
		ProvideKafkaBarsHandler,
		ProvideScheduler,
		ProvideCycleRunner,

		// HTTP
		ProvideHealthChecks,
		ProvideHTTPServer,

		ProvideApp,
	)
	return &server.App{}, nil
}
