// Package fieldbus defines the boundary contract to the RS-485 field bus
// (§1 "out of scope ... consumed as an opaque BusClient interface"). Only
// the parameters spec §6 exposes — unit IDs, register/coil addresses — are
// modeled here; transaction framing, retries and physical-layer details are
// the concern of a real driver, not this package.
package fieldbus

import (
	"context"
	"time"
)

// Board names the five field-bus slaves of §6.
type Board string

const (
	UpperFeedHydra   Board = "upper_feed_hydra"
	LowerFeedHydra   Board = "lower_feed_hydra"
	FillStationHydra Board = "fill_station_hydra"
	RocketLift       Board = "rocket_lift"
	FillStationLift  Board = "fill_station_lift"
)

// BusClient is the opaque transport used by the sampler and actuator
// writer. A bounded bus timeout (§5, default 50ms) is the caller's
// responsibility via ctx.
type BusClient interface {
	// ReadInputRegisters reads count 16-bit input registers from unitID
	// starting at baseAddr.
	ReadInputRegisters(ctx context.Context, unitID uint8, baseAddr uint16, count uint16) ([]uint16, error)
	// WriteCoil writes a single coil on unitID.
	WriteCoil(ctx context.Context, unitID uint8, coilAddr uint16, value bool) error
}

// WithTimeout wraps ctx with the configured bus transaction timeout,
// defaulting to config.BusTimeout's value when d is zero.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 50 * time.Millisecond
	}

	return context.WithTimeout(ctx, d)
}
