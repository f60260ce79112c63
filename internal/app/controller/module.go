package controller

import (
	"go.uber.org/fx"

	"invictus2obc/internal/app/bus"
	"invictus2obc/internal/app/hsm"
	"invictus2obc/internal/config"
	"invictus2obc/internal/config/logger"
	"invictus2obc/internal/radio"
)

// Module provides the Controller and wires its start/stop into the fx
// lifecycle.
var Module = fx.Module("controller",
	fx.Provide(func(b *bus.Bus, m *hsm.Machine, link radio.RadioLink, cfg *config.Config, log logger.Logger) *Controller {
		return New(b, m, link, cfg, log.WithComponent("Controller"))
	}),
	fx.Invoke(func(lc fx.Lifecycle, c *Controller) {
		lc.Append(fx.Hook{
			OnStart: c.Start,
			OnStop:  c.Stop,
		})
	}),
)
