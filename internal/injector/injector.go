//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/cubewalk/internal/config"
	"github.com/zeusync/cubewalk/internal/core/events/bus"
	"github.com/zeusync/cubewalk/internal/core/observability/log"
	"github.com/zeusync/cubewalk/internal/sim"
	"github.com/zeusync/cubewalk/internal/transport/observer"
)

func InitializeApp(cfg config.Config) (*App, error) {
	wire.Build(
		ProvideLogConfig,
		log.New,
		wire.Bind(new(log.Log), new(*log.Logger)),
		bus.New,
		sim.NewRunner,
		observer.NewHub,
		NewApp,
	)
	return nil, nil
}
