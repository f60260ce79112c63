package radio

import (
	"fmt"

	"go.uber.org/fx"

	"invictus2obc/internal/app/bus"
	"invictus2obc/internal/app/hsm"
	"invictus2obc/internal/config"
	"invictus2obc/internal/config/logger"
	"invictus2obc/internal/radio/mqttlink"
)

// Module provides the RadioLink, Receiver and StatusReporter, and wires
// their start/stop into the fx lifecycle.
var Module = fx.Module("radio",
	fx.Provide(provideLink),
	fx.Provide(func(link RadioLink, b *bus.Bus, cfg *config.Config, log logger.Logger) *Receiver {
		return New(link, b, cfg, log.WithComponent("RadioReceiver"))
	}),
	fx.Provide(func(link RadioLink, b *bus.Bus, cfg *config.Config, log logger.Logger, m *hsm.Machine) *StatusReporter {
		return NewStatusReporter(link, b, cfg, log.WithComponent("StatusReporter"), m.Status)
	}),
	fx.Invoke(func(lc fx.Lifecycle, r *Receiver, s *StatusReporter) {
		lc.Append(fx.Hook{OnStart: r.Start, OnStop: r.Stop})
		lc.Append(fx.Hook{OnStart: s.Start, OnStop: s.Stop})
	}),
)

// provideLink selects the configured ground-link backend. "mqtt" is the
// bench link over a local broker (internal/radio/mqttlink); anything else
// defaults to an in-memory FakeLink, since the real long-range modem
// driver is out of scope (§1) and has no pack-provided counterpart to
// ground this rework in.
func provideLink(cfg *config.Config, log logger.Logger) (RadioLink, error) {
	if cfg.Radio.Backend == "mqtt" {
		link, err := mqttlink.New(cfg.Radio.Broker, fmt.Sprintf("invictus2obc-%d", cfg.Radio.SenderID), log.WithComponent("MQTTRadioLink"))
		if err != nil {
			return nil, err
		}

		return link, nil
	}

	return NewFakeLink(), nil
}
