package actuator

import (
	"go.uber.org/fx"

	"invictus2obc/internal/app/bus"
	"invictus2obc/internal/app/fieldbus"
	"invictus2obc/internal/config"
	"invictus2obc/internal/config/logger"
)

// Module provides the Writer and wires its start/stop into the fx lifecycle.
var Module = fx.Module("actuator",
	fx.Provide(func(b *bus.Bus, client fieldbus.BusClient, cfg *config.Config, log logger.Logger) (*Writer, error) {
		return New(b, client, cfg, log.WithComponent("ActuatorWriter"))
	}),
	fx.Invoke(func(lc fx.Lifecycle, w *Writer) {
		lc.Append(fx.Hook{
			OnStart: w.Start,
			OnStop:  w.Stop,
		})
	}),
)
