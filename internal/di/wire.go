//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/foreverwb/volatility-analysis/pkg/config"
	"github.com/foreverwb/volatility-analysis/pkg/server"
)

// InitializeApp wires the full application graph from configuration.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideRedisCache,
		ProvideCache,
		ProvideHistoryStore,
		ProvideResultStore,
		ProvidePublisher,
		ProvideVIXProvider,
		ProvideMetrics,
		ProvideAnalyzer,
		ProvideHandler,
		ProvideApp,
	)
	return nil, nil
}
