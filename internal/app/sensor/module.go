package sensor

import (
	"context"

	"go.uber.org/fx"

	"invictus2obc/internal/app/bus"
	"invictus2obc/internal/app/fieldbus"
	"invictus2obc/internal/config"
	"invictus2obc/internal/config/logger"
)

// Module provides the Sampler and starts/stops it with the fx app lifecycle.
var Module = fx.Module("sensor",
	fx.Provide(func(b *bus.Bus, client fieldbus.BusClient, cfg *config.Config, log logger.Logger) *Sampler {
		return New(b, client, cfg, log.WithComponent("SENSOR"))
	}),
	fx.Invoke(func(lc fx.Lifecycle, s *Sampler) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				s.Start(context.Background())
				return nil
			},
			OnStop: func(ctx context.Context) error {
				s.Stop()
				return nil
			},
		})
	}),
)
