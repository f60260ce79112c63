package controller_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invictus2obc/internal/app/bus"
	"invictus2obc/internal/app/controller"
	"invictus2obc/internal/app/hsm"
	"invictus2obc/internal/app/model"
	"invictus2obc/internal/config"
	"invictus2obc/internal/config/logger"
	"invictus2obc/internal/radio"
)

func testController(t *testing.T) (*bus.Bus, *hsm.Machine, *radio.FakeLink, *controller.Controller) {
	t.Helper()

	b := bus.New(nil)
	cfg := config.DefaultConfig()
	cfg.Mission.Flight.MinChamberLaunchTemp = 650

	m := hsm.New(&cfg.Mission, logger.Noop())
	link := radio.NewFakeLink()

	c := controller.New(b, m, link, cfg, logger.Noop())
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	t.Cleanup(func() { _ = c.Stop(ctx) })

	return b, m, link, c
}

func Test_Controller_SensorPublishDrivesTick(t *testing.T) {
	b, m, _, _ := testController(t)

	require.NoError(t, bus.Publish(b, bus.ThermoSensors, model.Thermocouples{Chamber: 100}))

	require.Eventually(t, func() bool {
		return m.Status().Main == model.MainIdle
	}, time.Second, time.Millisecond)
}

func Test_Controller_PacketLatchesCommandAndAcks(t *testing.T) {
	b, m, link, _ := testController(t)

	p := radio.Packet{Version: 1, SenderID: 9, CommandID: radio.CmdReady}
	require.NoError(t, bus.Publish(b, bus.Packets, p))

	require.Eventually(t, func() bool {
		return m.Status().Main == model.MainReady
	}, time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		return link.SentCount() == 1
	}, time.Second, time.Millisecond)
}

func Test_Controller_ActuatorsPublishedOnChange(t *testing.T) {
	b, _, _, _ := testController(t)

	p := radio.Packet{Version: 1, CommandID: radio.CmdAbort}
	require.NoError(t, bus.Publish(b, bus.Packets, p))

	require.Eventually(t, func() bool {
		v, err := bus.Read[model.ActuatorVector](b, bus.Actuators)
		return err == nil && v.Has(model.Abort)
	}, time.Second, time.Millisecond)
}

func Test_Controller_StatusReqGetsReplyOnNextTick(t *testing.T) {
	b, _, link, _ := testController(t)

	assert.Empty(t, link.Sent)

	p := radio.Packet{Version: 1, SenderID: 9, CommandID: radio.CmdStatusReq}
	require.NoError(t, bus.Publish(b, bus.Packets, p))

	require.Eventually(t, func() bool {
		return link.SentCount() == 1
	}, time.Second, time.Millisecond)
}
