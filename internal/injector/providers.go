package injector

import (
	"github.com/zeusync/cubewalk/internal/config"
	"github.com/zeusync/cubewalk/internal/core/events/bus"
	"github.com/zeusync/cubewalk/internal/core/observability/log"
	"github.com/zeusync/cubewalk/internal/sim"
	"github.com/zeusync/cubewalk/internal/transport/observer"
)

// App is the fully wired command-line application.
type App struct {
	Config config.Config
	Log    *log.Logger
	Bus    bus.EventBus
	Runner *sim.Runner
	Hub    *observer.Hub
}

func NewApp(cfg config.Config, logger *log.Logger, eventBus bus.EventBus, runner *sim.Runner, hub *observer.Hub) *App {
	return &App{Config: cfg, Log: logger, Bus: eventBus, Runner: runner, Hub: hub}
}

func ProvideLogConfig(cfg config.Config) log.Config {
	return cfg.Log
}
