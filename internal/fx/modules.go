package fx

import (
	"blitz-tracker/internal/api"
	"blitz-tracker/internal/config"
	"blitz-tracker/internal/database"
	"blitz-tracker/internal/logger"
	"blitz-tracker/internal/repository"
	"blitz-tracker/internal/server"
	"blitz-tracker/internal/service"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewReplayRepository),
	fx.Provide(repository.NewTankStatRepository),
	// api client
	fx.Provide(api.NewClient),
	// svc
	fx.Provide(service.NewReplayService),
	fx.Provide(service.NewTankStatService),
	// server
	fx.Provide(server.NewServer),
)
