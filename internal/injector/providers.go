// Package injector assembles the runtime from a configuration.
package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/glengine/internal/core/config"
	"github.com/zeusync/glengine/internal/core/engine"
	"github.com/zeusync/glengine/internal/core/events/bus"
	"github.com/zeusync/glengine/internal/core/observability/log"
	"github.com/zeusync/glengine/internal/core/scene"
	"github.com/zeusync/glengine/internal/server"
)

// ProviderSet builds an App from a config.Config.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideEventBus,
	ProvideBridge,
	ProvideScene,
	ProvideEngine,
	ProvideInspector,
	wire.Struct(new(App), "*"),
)

// App is the assembled runtime.
type App struct {
	Config    config.Config
	Log       log.Log
	Bus       bus.EventBus
	Scene     *scene.Scene
	Engine    *engine.Engine
	Inspector *server.Server
}

func ProvideLogger(cfg config.Config) *log.Logger {
	return log.NewWithOptions(cfg.Log.Options())
}

// ProvideEventBus logs deliveries at debug level.
func ProvideEventBus(logger log.Log) bus.EventBus {
	b := bus.New()
	b.AddObserver(bus.NewLogObserver(logger))
	return b
}

func ProvideBridge(cfg config.Config, logger log.Log, eventBus bus.EventBus) (*scene.PhysicsBridge, error) {
	pairing, err := scene.ParsePairingPolicy(cfg.Physics.Pairing)
	if err != nil {
		return nil, err
	}
	return scene.NewPhysicsBridge(logger, eventBus, scene.BridgeOptions{
		Gravity: cfg.Physics.GravityVec(),
		Params:  cfg.IntegrationParameters(),
		Pairing: pairing,
	})
}

func ProvideScene(logger log.Log, bridge *scene.PhysicsBridge) *scene.Scene {
	return scene.New(logger, bridge)
}

func ProvideEngine(cfg config.Config, logger log.Log, s *scene.Scene) (*engine.Engine, error) {
	return engine.New(s,
		engine.WithLogger(logger),
		engine.WithOptions(engine.Options{
			FixedStep:     cfg.Engine.FixedStep,
			MaxFixedSteps: cfg.Engine.MaxFixedSteps,
			FPSWindow:     cfg.Engine.FPSWindow,
			FrameInterval: cfg.Engine.FrameInterval,
		}),
	)
}

// ProvideInspector returns nil when the inspector is disabled. The cleanup
// closes it.
func ProvideInspector(cfg config.Config, logger log.Log, e *engine.Engine, eventBus bus.EventBus) (*server.Server, func(), error) {
	if !cfg.Inspector.Enabled {
		return nil, func() {}, nil
	}
	sc := server.DefaultConfig()
	sc.Addr = cfg.Inspector.Addr
	sc.Interval = cfg.Inspector.Interval
	sc.Token = cfg.Inspector.Token
	if cfg.Inspector.MaxClients > 0 {
		sc.MaxClients = cfg.Inspector.MaxClients
	}
	srv, err := server.New(logger, e, eventBus, sc)
	if err != nil {
		return nil, nil, err
	}
	return srv, func() { _ = srv.Close() }, nil
}
