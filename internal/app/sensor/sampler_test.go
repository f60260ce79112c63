package sensor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invictus2obc/internal/app/bus"
	"invictus2obc/internal/app/fieldbus"
	"invictus2obc/internal/app/model"
	"invictus2obc/internal/app/sensor"
	"invictus2obc/internal/config"
	"invictus2obc/internal/config/logger"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Sampling.HydraMS = 5
	cfg.Sampling.LiftMS = 5

	return cfg
}

func Test_SampleHydra_PublishesThermoAndPressure(t *testing.T) {
	b := bus.New(nil)
	client := fieldbus.NewFakeClient()
	cfg := testConfig()

	client.SetRegister(cfg.FieldBus.UnitIDs.UpperFeedHydra, 0, 100)
	client.SetRegister(cfg.FieldBus.UnitIDs.UpperFeedHydra, 1, 101)
	client.SetRegister(cfg.FieldBus.UnitIDs.UpperFeedHydra, 2, 102)

	client.SetRegister(cfg.FieldBus.UnitIDs.LowerFeedHydra, 0, 200)
	client.SetRegister(cfg.FieldBus.UnitIDs.LowerFeedHydra, 1, 201)
	client.SetRegister(cfg.FieldBus.UnitIDs.LowerFeedHydra, 2, 55)
	client.SetRegister(cfg.FieldBus.UnitIDs.LowerFeedHydra, 3, 65)
	client.SetRegister(cfg.FieldBus.UnitIDs.LowerFeedHydra, 4, 75)

	client.SetRegister(cfg.FieldBus.UnitIDs.FillStationHydra, 0, 91)
	client.SetRegister(cfg.FieldBus.UnitIDs.FillStationHydra, 1, 92)
	client.SetRegister(cfg.FieldBus.UnitIDs.FillStationHydra, 2, 93)
	client.SetRegister(cfg.FieldBus.UnitIDs.FillStationHydra, 3, 310)
	client.SetRegister(cfg.FieldBus.UnitIDs.FillStationHydra, 4, 320)
	client.SetRegister(cfg.FieldBus.UnitIDs.FillStationHydra, 5, 330)

	s := sensor.New(b, client, cfg, logger.Noop())

	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool {
		v, err := bus.Read[model.Thermocouples](b, bus.ThermoSensors)
		return err == nil && v.N2oTankUF[0] == 100
	}, time.Second, 5*time.Millisecond)

	thermo, err := bus.Read[model.Thermocouples](b, bus.ThermoSensors)
	require.NoError(t, err)
	assert.Equal(t, [3]int16{100, 101, 102}, thermo.N2oTankUF)
	assert.Equal(t, [2]int16{200, 201}, thermo.N2oTankLF)
	assert.Equal(t, int16(55), thermo.Chamber)
	assert.Equal(t, int16(91), thermo.N2Line)
	assert.Equal(t, int16(92), thermo.N2oLineBeforeSolenoid)
	assert.Equal(t, int16(93), thermo.N2oLineAfterSolenoid)

	pressure, err := bus.Read[model.Pressures](b, bus.PressureSensors)
	require.NoError(t, err)
	assert.Equal(t, uint16(75), pressure.N2oTank)
	assert.Equal(t, uint16(65), pressure.Chamber)
	assert.Equal(t, uint16(320), pressure.N2oLine)
	assert.Equal(t, uint16(310), pressure.N2Line)
	assert.Equal(t, uint16(330), pressure.QuickDisconnect)
}

// Test_SampleHydra_FillStationDisconnectZeroesOnlyLineSlots covers §8
// scenario 6: a fill-station bus timeout must zero exactly n2_line (thermo
// and pressure), n2o_line, and quick_disconnect — chamber and n2o_tank stay
// live because they read from the lower-feed (rocket) board.
func Test_SampleHydra_FillStationDisconnectZeroesOnlyLineSlots(t *testing.T) {
	b := bus.New(nil)
	client := fieldbus.NewFakeClient()
	cfg := testConfig()

	client.SetRegister(cfg.FieldBus.UnitIDs.LowerFeedHydra, 0, 200)
	client.SetRegister(cfg.FieldBus.UnitIDs.LowerFeedHydra, 1, 201)
	client.SetRegister(cfg.FieldBus.UnitIDs.LowerFeedHydra, 2, 55)
	client.SetRegister(cfg.FieldBus.UnitIDs.LowerFeedHydra, 3, 65)
	client.SetRegister(cfg.FieldBus.UnitIDs.LowerFeedHydra, 4, 75)

	client.SetDown(cfg.FieldBus.UnitIDs.FillStationHydra, true)

	s := sensor.New(b, client, cfg, logger.Noop())
	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool {
		v, err := bus.Read[model.Thermocouples](b, bus.ThermoSensors)
		return err == nil && v.N2oTankLF[0] == 200
	}, time.Second, 5*time.Millisecond)

	thermo, err := bus.Read[model.Thermocouples](b, bus.ThermoSensors)
	require.NoError(t, err)
	assert.Equal(t, int16(0), thermo.N2Line, "n2_line thermo zeroed")
	assert.Equal(t, int16(55), thermo.Chamber, "chamber thermo stays live")
	assert.Equal(t, [2]int16{200, 201}, thermo.N2oTankLF, "lower-feed thermos stay live")

	pressure, err := bus.Read[model.Pressures](b, bus.PressureSensors)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), pressure.N2Line, "n2_line pressure zeroed")
	assert.Equal(t, uint16(0), pressure.N2oLine, "n2o_line pressure zeroed")
	assert.Equal(t, uint16(0), pressure.QuickDisconnect, "quick_disconnect zeroed")
	assert.Equal(t, uint16(65), pressure.Chamber, "chamber pressure stays live")
	assert.Equal(t, uint16(75), pressure.N2oTank, "n2o_tank pressure stays live")

	assert.False(t, s.Connected(fieldbus.FillStationHydra))
}

func Test_SampleHydra_DisconnectedBoardZeroPads(t *testing.T) {
	b := bus.New(nil)
	client := fieldbus.NewFakeClient()
	cfg := testConfig()

	client.SetDown(cfg.FieldBus.UnitIDs.UpperFeedHydra, true)

	s := sensor.New(b, client, cfg, logger.Noop())
	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool {
		_, err := bus.Read[model.Pressures](b, bus.PressureSensors)
		return err == nil
	}, time.Second, 5*time.Millisecond)

	thermo, err := bus.Read[model.Thermocouples](b, bus.ThermoSensors)
	require.NoError(t, err)
	assert.Equal(t, [3]int16{0, 0, 0}, thermo.N2oTankUF, "disconnected board slots remain zero")

	assert.False(t, s.Connected(fieldbus.UpperFeedHydra))
}

func Test_SampleHydra_ReconnectClearsDisconnectedState(t *testing.T) {
	b := bus.New(nil)
	client := fieldbus.NewFakeClient()
	cfg := testConfig()

	client.SetDown(cfg.FieldBus.UnitIDs.UpperFeedHydra, true)

	s := sensor.New(b, client, cfg, logger.Noop())
	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool {
		return !s.Connected(fieldbus.UpperFeedHydra)
	}, time.Second, 5*time.Millisecond)

	client.SetDown(cfg.FieldBus.UnitIDs.UpperFeedHydra, false)

	require.Eventually(t, func() bool {
		return s.Connected(fieldbus.UpperFeedHydra)
	}, time.Second, 5*time.Millisecond)
}

func Test_FillStationDisabled_OnceFlightBegins(t *testing.T) {
	b := bus.New(nil)
	client := fieldbus.NewFakeClient()
	cfg := testConfig()

	client.SetRegister(cfg.FieldBus.UnitIDs.FillStationLift, 0, 123)

	s := sensor.New(b, client, cfg, logger.Noop())

	require.NoError(t, bus.Publish(b, bus.RocketState, model.MissionStatus{
		Main:   model.MainFlight,
		Flight: model.FlightBoost,
	}))

	s.Start(context.Background())
	defer s.Stop()

	time.Sleep(30 * time.Millisecond)

	loadcells, err := bus.Read[model.Loadcells](b, bus.WeightSensors)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), loadcells.N2oTank, "fill-station weight must stay disabled during flight")
}

func Test_SampleLift_PublishesRailAndThrust(t *testing.T) {
	b := bus.New(nil)
	client := fieldbus.NewFakeClient()
	cfg := testConfig()

	client.SetRegister(cfg.FieldBus.UnitIDs.RocketLift, 0, 10)
	client.SetRegister(cfg.FieldBus.UnitIDs.RocketLift, 1, 11)
	client.SetRegister(cfg.FieldBus.UnitIDs.RocketLift, 2, 12)
	client.SetRegister(cfg.FieldBus.UnitIDs.RocketLift, 3, 13)
	client.SetRegister(cfg.FieldBus.UnitIDs.FillStationLift, 0, 99)

	s := sensor.New(b, client, cfg, logger.Noop())
	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool {
		v, err := bus.Read[model.Loadcells](b, bus.WeightSensors)
		return err == nil && v.Rail == 10
	}, time.Second, 5*time.Millisecond)

	loadcells, err := bus.Read[model.Loadcells](b, bus.WeightSensors)
	require.NoError(t, err)
	assert.Equal(t, uint32(10), loadcells.Rail)
	assert.Equal(t, [3]uint32{11, 12, 13}, loadcells.Thrust)
	assert.Equal(t, uint32(99), loadcells.N2oTank)
}
