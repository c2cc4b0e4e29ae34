package fx

import (
	"maimai-tracker/internal/api"
	"maimai-tracker/internal/config"
	"maimai-tracker/internal/database"
	"maimai-tracker/internal/logger"
	"maimai-tracker/internal/repository"
	"maimai-tracker/internal/server"
	"maimai-tracker/internal/service"
	"maimai-tracker/internal/vault"

	"go.uber.org/fx"
)

func ProvideVault(cfg *config.Config) *vault.Vault {
	return vault.New(cfg.TokenSecret)
}

func ProvideProberClient(client *api.DivingFishClient) service.ProberClient {
	return client
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewLocalStateRepository),
	// api client
	fx.Provide(api.NewDivingFishClient),
	fx.Provide(ProvideProberClient),
	fx.Provide(api.NewCoverResolver),
	fx.Provide(ProvideVault),
	// svc
	fx.Provide(service.NewCatalogService),
	fx.Provide(service.NewStatsService),
	fx.Provide(service.NewPlayerService),
	fx.Provide(service.NewPreferenceService),
	fx.Provide(service.NewReviewService),
	fx.Provide(service.NewRandomService),
	// server
	fx.Provide(server.NewTrackerServer),
)
