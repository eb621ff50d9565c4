//go:build wireinject
// +build wireinject

package di

import (
	"MoneyPulse/pkg/config"
	"MoneyPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,
		ProvideSeriesCache,
		ProvideLimiter,

		// Sources
		ProvideSourceAdapters,
		ProvideFallback,
		ProvideAlertPublisher,

		// Analytics
		ProvideQuantityTheoryEngine,
		ProvideReturnsAnalyzer,
		ProvideSignalDetector,

		// Use cases
		ProvideAcquirer,
		ProvidePipelineConfig,
		ProvidePipeline,

		// Application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
