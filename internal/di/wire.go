//go:build wireinject
// +build wireinject

package di

import (
	"WxEdge/pkg/config"
	"WxEdge/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation in wire_gen.go.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideCity,
		ProvideLocation,
		ProvideCache,
		ProvideHTTPClient,
		ProvideMetrics,
		ProvideEngine,

		// Data sources
		ProvideForecastSources,
		ProvideStationService,
		ProvideDSMService,
		ProvideMarketClient,
		ProvidePriceStream,
		ProvideArchive,

		// Use cases
		ProvideAnalyzer,
		ProvideCalibrator,

		// Surfaces
		ProvideScheduler,
		ProvideHTTPHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}
