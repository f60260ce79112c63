package hsm_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invictus2obc/internal/app/hsm"
	"invictus2obc/internal/app/model"
	"invictus2obc/internal/config"
	"invictus2obc/internal/config/logger"
)

func baseMission() *config.Mission {
	m := &config.Mission{}
	m.Flight.MinChamberLaunchTemp = 650
	m.Flight.BoostVerticalSpeed = 20000
	m.Flight.CoastVerticalSpeed = 0
	m.Flight.MainChuteDeployAltitude = 1000
	m.Flight.TouchdownAltitude = 10
	m.Flight.BoostTimeMs = 4000
	m.Abort.PressurizingDelay = 2 * time.Second

	return m
}

func Test_ColdChamberFireRejection(t *testing.T) {
	cfg := baseMission()
	m := hsm.New(cfg, logger.Noop())
	ctx := context.Background()

	advanceToReady(ctx, m)
	_ = m.Tick(ctx, hsm.Input{Command: model.Command{Kind: model.CmdArm}})
	require.Equal(t, model.MainArmed, m.Status().Main)

	res := m.Tick(ctx, hsm.Input{
		Sensors: model.SensorSnapshot{Thermocouples: model.Thermocouples{Chamber: 600}},
		Command: model.Command{Kind: model.CmdFire},
	})

	assert.Equal(t, model.MainArmed, m.Status().Main)
	assert.False(t, res.ActuatorChanged)
}

func Test_PrePressVentOnOvershoot(t *testing.T) {
	cfg := baseMission()
	cfg.PrePress.TargetN2O = 50
	cfg.PrePress.TriggerN2O = 52

	m := hsm.New(cfg, logger.Noop())
	ctx := context.Background()

	_ = m.Tick(ctx, hsm.Input{Command: model.Command{Kind: model.CmdFillExec, FillExec: model.FillExecParams{Program: model.ProgramPrePress}}})
	require.Equal(t, model.PrePressIdle, m.Status().Filling)

	res := m.Tick(ctx, hsm.Input{Sensors: model.SensorSnapshot{Pressures: model.Pressures{N2oTank: 53}}})

	assert.Equal(t, model.PrePressVent, m.Status().Filling)
	assert.True(t, res.Actuators.Has(model.Vent))
	assert.False(t, res.Actuators.Has(model.Pressurizing))
}

func Test_N2OFillHysteresis(t *testing.T) {
	cfg := baseMission()
	cfg.FillN2O.TargetWeight = 7000
	cfg.FillN2O.TargetPressure = 350
	cfg.FillN2O.TriggerPressure = 380
	cfg.FillN2O.TriggerTemperature = 20

	m := hsm.New(cfg, logger.Noop())
	ctx := context.Background()

	_ = m.Tick(ctx, hsm.Input{Command: model.Command{Kind: model.CmdFillExec, FillExec: model.FillExecParams{Program: model.ProgramN2O}}})
	require.Equal(t, model.FillN2OIdle, m.Status().Filling)

	snap := func(weight uint32, pressure uint16, temp int16) model.SensorSnapshot {
		s := model.SensorSnapshot{}
		s.Loadcells.N2oTank = weight
		s.Pressures.N2oTank = pressure
		s.Thermocouples.N2oLineBeforeSolenoid = temp

		return s
	}

	res := m.Tick(ctx, hsm.Input{Sensors: snap(0, 0, 250)})
	assert.Equal(t, model.FillN2OFill, m.Status().Filling)
	assert.True(t, res.Actuators.Has(model.N2oFill))
	assert.False(t, res.Actuators.Has(model.Vent))

	res = m.Tick(ctx, hsm.Input{Sensors: snap(3000, 400, 250)})
	assert.Equal(t, model.FillN2OVent, m.Status().Filling)
	assert.True(t, res.Actuators.Has(model.N2oFill))
	assert.True(t, res.Actuators.Has(model.Vent))

	res = m.Tick(ctx, hsm.Input{Sensors: snap(3000, 350, 150)})
	assert.Equal(t, model.FillN2OFill, m.Status().Filling)
	assert.True(t, res.Actuators.Has(model.N2oFill))
	assert.False(t, res.Actuators.Has(model.Vent))

	res = m.Tick(ctx, hsm.Input{Sensors: snap(7000, 350, 250)})
	assert.Equal(t, model.FillN2OIdle, m.Status().Filling)
	assert.Equal(t, model.ActuatorVector(0), res.Actuators)
}

func Test_AbortValves_OpensAbortImmediatelyThenPressurizingAfterDelay(t *testing.T) {
	cfg := baseMission()
	cfg.Abort.PressurizingDelay = 0 // collapse the delay so the second tick observes it opened

	m := hsm.New(cfg, logger.Noop())
	ctx := context.Background()

	res := m.Tick(ctx, hsm.Input{Command: model.Command{Kind: model.CmdAbort}})
	assert.Equal(t, model.MainAbort, m.Status().Main)
	assert.True(t, res.Actuators.Has(model.Abort))

	res = m.Tick(ctx, hsm.Input{})
	assert.True(t, res.Actuators.Has(model.Abort))
	assert.True(t, res.Actuators.Has(model.Pressurizing))
}

func Test_IdleState_EmitsZeroActuators(t *testing.T) {
	cfg := baseMission()
	m := hsm.New(cfg, logger.Noop())
	ctx := context.Background()

	res := m.Tick(ctx, hsm.Input{})

	assert.Equal(t, model.ActuatorVector(0), res.Actuators)
	assert.Equal(t, model.MainIdle, m.Status().Main)
}

func Test_BoostTimerExpiry_TransitionsToCoastWithWarning(t *testing.T) {
	cfg := baseMission()
	cfg.Flight.BoostTimeMs = 1 // expires almost immediately

	m := hsm.New(cfg, logger.Noop())
	ctx := context.Background()

	advanceToFlight(ctx, m, cfg)
	require.Equal(t, model.FlightBoost, m.Status().Flight)

	time.Sleep(5 * time.Millisecond)

	res := m.Tick(ctx, hsm.Input{
		Navigator: model.NavigatorData{Kalman: model.KalmanOutputs{VerticalSpeedMMs: 25000}},
	})

	_ = res
	assert.Equal(t, model.FlightCoast, m.Status().Flight)
	assert.True(t, m.BoostExpired())
}

func Test_StopCommand_ForcesIdleNextTick(t *testing.T) {
	cfg := baseMission()
	m := hsm.New(cfg, logger.Noop())
	ctx := context.Background()

	_ = m.Tick(ctx, hsm.Input{Command: model.Command{Kind: model.CmdFillExec, FillExec: model.FillExecParams{Program: model.ProgramN2}}})
	require.Equal(t, model.MainFill, m.Status().Main)

	_ = m.Tick(ctx, hsm.Input{Command: model.Command{Kind: model.CmdStop}})

	assert.Equal(t, model.MainIdle, m.Status().Main)
	assert.Equal(t, model.FillingNone, m.Status().Filling)
}

func advanceToReady(ctx context.Context, m *hsm.Machine) {
	_ = m.Tick(ctx, hsm.Input{Command: model.Command{Kind: model.CmdReady}})
}

func Test_ResumeCommand_ClearsManualOverride(t *testing.T) {
	cfg := baseMission()
	m := hsm.New(cfg, logger.Noop())
	ctx := context.Background()

	res := m.Tick(ctx, hsm.Input{Command: model.Command{Kind: model.CmdManualExec, ManualExec: model.ManualExecParams{CmdID: uint8(model.Ignition), Payload: []byte{1}}}})
	assert.True(t, res.Actuators.Has(model.Ignition), "manual override opens the overridden bit")

	res = m.Tick(ctx, hsm.Input{Command: model.Command{Kind: model.CmdResume}})
	assert.False(t, res.Actuators.Has(model.Ignition), "resume clears the manual override")
}

func advanceToFlight(ctx context.Context, m *hsm.Machine, cfg *config.Mission) {
	advanceToReady(ctx, m)
	_ = m.Tick(ctx, hsm.Input{Command: model.Command{Kind: model.CmdArm}})
	_ = m.Tick(ctx, hsm.Input{
		Sensors: model.SensorSnapshot{Thermocouples: model.Thermocouples{Chamber: cfg.Flight.MinChamberLaunchTemp + 1}},
		Command: model.Command{Kind: model.CmdFire},
	})
	// one more tick to clear IGNITION -> BOOST with chamber still hot.
	_ = m.Tick(ctx, hsm.Input{
		Sensors: model.SensorSnapshot{Thermocouples: model.Thermocouples{Chamber: cfg.Flight.MinChamberLaunchTemp + 1}},
	})
}
