//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"dbd/internal"
	"dbd/internal/access"
	"dbd/internal/controllers"
	"dbd/internal/ledger"
	"dbd/internal/notify"
	"dbd/internal/providers"
	"dbd/internal/services"
	"dbd/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		ledger.NewZstdCompressor,
		ledger.NewStore,
		ledger.NewSigner,
		ledger.NewAnchorClient,
		ledger.NewSettlement,
		ledger.NewBatcher,
		ledger.NewScheduler,

		access.NewOracleProvider,
		access.NewResolver,
		notify.NewSink,

		services.NewChannelService,
		services.NewSettingsService,
		services.NewLedgerService,

		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
