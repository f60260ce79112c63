package bus

import (
	"go.uber.org/fx"

	"invictus2obc/internal/config/logger"
)

// Module provides the EventBus for dependency injection.
var Module = fx.Module("bus",
	fx.Provide(func(log logger.Logger) *Bus {
		return New(log.WithComponent("BUS"))
	}),
)
