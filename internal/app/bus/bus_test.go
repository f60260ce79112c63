package bus_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invictus2obc/internal/app/bus"
	"invictus2obc/internal/app/errors"
)

func Test_Read_StaleBeforeFirstPublish(t *testing.T) {
	b := bus.New(nil)

	_, err := bus.Read[int](b, bus.PressureSensors)

	assert.ErrorIs(t, err, errors.ErrStale)
}

func Test_Publish_Read_RoundTrip(t *testing.T) {
	b := bus.New(nil)

	require.NoError(t, bus.Publish(b, bus.ThermoSensors, 42))

	got, err := bus.Read[int](b, bus.ThermoSensors)
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func Test_Publish_UnknownChannel(t *testing.T) {
	b := bus.New(nil)

	err := bus.Publish(b, bus.Channel("nonsense"), 1)

	assert.ErrorIs(t, err, errors.ErrUnknownChannel)
}

func Test_Listener_InvokedSynchronouslyInPublishOrder(t *testing.T) {
	b := bus.New(nil)

	var seen []int

	require.NoError(t, b.Listen(bus.Actuators, func(v any) {
		seen = append(seen, v.(int))
	}))

	require.NoError(t, bus.Publish(b, bus.Actuators, 1))
	require.NoError(t, bus.Publish(b, bus.Actuators, 2))
	require.NoError(t, bus.Publish(b, bus.Actuators, 3))

	assert.Equal(t, []int{1, 2, 3}, seen)
}

func Test_Listener_MultipleListenersAllInvoked(t *testing.T) {
	b := bus.New(nil)

	var count int32

	require.NoError(t, b.Listen(bus.Packets, func(v any) { atomic.AddInt32(&count, 1) }))
	require.NoError(t, b.Listen(bus.Packets, func(v any) { atomic.AddInt32(&count, 1) }))

	require.NoError(t, bus.Publish(b, bus.Packets, []byte{1}))

	assert.Equal(t, int32(2), count)
}

func Test_Subscribe_WakesOnPublish(t *testing.T) {
	b := bus.New(nil)

	wake, err := b.Subscribe(bus.RocketState)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(b, bus.RocketState, "armed"))

	select {
	case <-wake:
	default:
		t.Fatal("expected subscriber to be woken")
	}

	got, err := bus.Read[string](b, bus.RocketState)
	require.NoError(t, err)
	assert.Equal(t, "armed", got)
}

func Test_Subscribe_SaturatedQueueStillStoresLatestValue(t *testing.T) {
	b := bus.New(nil)

	_, err := b.Subscribe(bus.WeightSensors)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(b, bus.WeightSensors, 1))

	err = bus.Publish(b, bus.WeightSensors, 2)
	assert.ErrorIs(t, err, errors.ErrBusFull)

	got, readErr := bus.Read[int](b, bus.WeightSensors)
	require.NoError(t, readErr)
	assert.Equal(t, 2, got, "value must still be stored even when the wake queue is saturated")
}

func Test_Subscribe_UnknownChannel(t *testing.T) {
	b := bus.New(nil)

	_, err := b.Subscribe(bus.Channel("nope"))

	assert.ErrorIs(t, err, errors.ErrUnknownChannel)
}
