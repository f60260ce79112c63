package app

import (
	"go.uber.org/fx"

	"invictus2obc/internal/app/actuator"
	"invictus2obc/internal/app/bus"
	"invictus2obc/internal/app/controller"
	"invictus2obc/internal/app/fieldbus"
	"invictus2obc/internal/app/hsm"
	"invictus2obc/internal/app/sensor"
	"invictus2obc/internal/app/watcher"
	"invictus2obc/internal/radio"
)

// Module composes every package's fx.Module into the controller daemon.
// fieldbus has no real driver (§1 treats it as an opaque boundary with
// nothing in the pack to ground a concrete RS-485/Modbus client on), so
// the bench FakeClient is supplied here as the default BusClient.
var Module = fx.Options(
	fx.Provide(func() fieldbus.BusClient { return fieldbus.NewFakeClient() }),
	bus.Module,
	sensor.Module,
	hsm.Module,
	actuator.Module,
	radio.Module,
	controller.Module,
	watcher.Module,
	fx.Invoke(Register),
)
