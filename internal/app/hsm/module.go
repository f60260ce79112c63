package hsm

import (
	"go.uber.org/fx"

	"invictus2obc/internal/config"
	"invictus2obc/internal/config/logger"
)

// Module provides the HSM Machine for dependency injection.
var Module = fx.Module("hsm",
	fx.Provide(func(cfg *config.Config, log logger.Logger) *Machine {
		return New(&cfg.Mission, log.WithComponent("HSM"))
	}),
)
