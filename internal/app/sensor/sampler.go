// Package sensor implements the SensorSampler of §4.2: two independent
// periodic tasks polling the field bus and publishing typed snapshots onto
// the EventBus, with per-board connection tracking and a one-way
// fill-station disable latch once flight begins.
package sensor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"invictus2obc/internal/app/bus"
	"invictus2obc/internal/app/fieldbus"
	"invictus2obc/internal/app/model"
	"invictus2obc/internal/config"
	"invictus2obc/internal/config/logger"
)

// boardState tracks one field-bus slave's connectivity, logging exactly
// once per disconnect/reconnect edge (§4.2, §7).
type boardState struct {
	connected atomic.Bool
	name      string
}

func newBoardState(name string) *boardState {
	b := &boardState{name: name}
	b.connected.Store(true)

	return b
}

func (b *boardState) markFailure(log logger.Logger) {
	if b.connected.CompareAndSwap(true, false) {
		log.Warn().Str("board", b.name).Msg("field-bus board disconnected")
	}
}

func (b *boardState) markSuccess(log logger.Logger) {
	if b.connected.CompareAndSwap(false, true) {
		log.Info().Str("board", b.name).Msg("field-bus board reconnected")
	}
}

func (b *boardState) isConnected() bool {
	return b.connected.Load()
}

// Sampler runs the hydra and lift periodic sampling tasks.
type Sampler struct {
	bus    *bus.Bus
	client fieldbus.BusClient
	cfg    *config.Config
	log    logger.Logger

	upperFeed  *boardState
	lowerFeed  *boardState
	fillHydra  *boardState
	rocketLift *boardState
	fillLift   *boardState

	fillStationDisabled atomic.Bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Sampler. It subscribes to rocket_state to learn when the
// mission enters a flight substate and permanently disables fill-station
// reads from that point on (§4.2 "Fill-station disable").
func New(b *bus.Bus, client fieldbus.BusClient, cfg *config.Config, log logger.Logger) *Sampler {
	s := &Sampler{
		bus:        b,
		client:     client,
		cfg:        cfg,
		log:        log,
		upperFeed:  newBoardState(string(fieldbus.UpperFeedHydra)),
		lowerFeed:  newBoardState(string(fieldbus.LowerFeedHydra)),
		fillHydra:  newBoardState(string(fieldbus.FillStationHydra)),
		rocketLift: newBoardState(string(fieldbus.RocketLift)),
		fillLift:   newBoardState(string(fieldbus.FillStationLift)),
	}

	_ = b.Listen(bus.RocketState, func(v any) {
		status, ok := v.(model.MissionStatus)
		if ok && status.Flight != model.FlightNone {
			if s.fillStationDisabled.CompareAndSwap(false, true) {
				s.log.Info().Msg("fill-station sensors permanently disabled: flight in progress")
			}
		}
	})

	return s
}

// Start launches the two periodic tasks; Stop or ctx cancellation ends them.
func (s *Sampler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(2)

	go s.runHydra(ctx)
	go s.runLift(ctx)
}

// Stop cancels both periodic tasks and waits for them to exit.
func (s *Sampler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}

	s.wg.Wait()
}

func (s *Sampler) runHydra(ctx context.Context) {
	defer s.wg.Done()

	period := time.Duration(s.cfg.Sampling.HydraMS) * time.Millisecond
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sampleHydra(ctx)
		}
	}
}

func (s *Sampler) runLift(ctx context.Context) {
	defer s.wg.Done()

	period := time.Duration(s.cfg.Sampling.LiftMS) * time.Millisecond
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sampleLift(ctx)
		}
	}
}

// sampleHydra reads the three hydra boards and publishes thermo_sensors and
// pressure_sensors. A read failure never blocks or aborts the loop (§4.2) —
// the failed board's slots are simply zero this tick.
//
// Board ownership follows the lower-feed/fill-station split: chamber
// pressure and chamber temperature live on the lower-feed board (rocket
// side, never gated by the fill-station disable latch) so the IGNITION →
// BOOST guard keeps seeing a live reading through flight; n2o_tank pressure
// also reads from lower-feed, not fill-station, so a fill-station
// disconnect cannot zero it. The line-side pressures/temps (n2_line,
// n2o_line, quick_disconnect) are exclusively fill-station.
func (s *Sampler) sampleHydra(ctx context.Context) {
	var thermo model.Thermocouples
	var pressure model.Pressures

	if regs, ok := s.readBoard(ctx, s.upperFeed, s.cfg.FieldBus.UnitIDs.UpperFeedHydra, "upper_feed_hydra", 3); ok {
		thermo.N2oTankUF = [3]int16{int16(regs[0]), int16(regs[1]), int16(regs[2])}
	}

	if regs, ok := s.readBoard(ctx, s.lowerFeed, s.cfg.FieldBus.UnitIDs.LowerFeedHydra, "lower_feed_hydra", 5); ok {
		thermo.N2oTankLF = [2]int16{int16(regs[0]), int16(regs[1])}
		thermo.Chamber = int16(regs[2])
		pressure.Chamber = regs[3]
		pressure.N2oTank = regs[4]
	}

	if !s.fillStationDisabled.Load() {
		if regs, ok := s.readBoard(ctx, s.fillHydra, s.cfg.FieldBus.UnitIDs.FillStationHydra, "fill_station_hydra", 6); ok {
			thermo.N2Line = int16(regs[0])
			thermo.N2oLineBeforeSolenoid = int16(regs[1])
			thermo.N2oLineAfterSolenoid = int16(regs[2])
			pressure.N2Line = regs[3]
			pressure.N2oLine = regs[4]
			pressure.QuickDisconnect = regs[5]
		}
	}

	_ = bus.Publish(s.bus, bus.ThermoSensors, thermo)
	_ = bus.Publish(s.bus, bus.PressureSensors, pressure)
}

// sampleLift reads the rocket and fill-station lift boards and publishes
// weight_sensors.
func (s *Sampler) sampleLift(ctx context.Context) {
	var loadcells model.Loadcells

	if regs, ok := s.readBoard(ctx, s.rocketLift, s.cfg.FieldBus.UnitIDs.RocketLift, "rocket_lift", 4); ok {
		loadcells.Rail = uint32(regs[0])
		loadcells.Thrust = [3]uint32{uint32(regs[1]), uint32(regs[2]), uint32(regs[3])}
	}

	if !s.fillStationDisabled.Load() {
		if regs, ok := s.readBoard(ctx, s.fillLift, s.cfg.FieldBus.UnitIDs.FillStationLift, "fill_station_lift", 1); ok {
			loadcells.N2oTank = uint32(regs[0])
		}
	}

	_ = bus.Publish(s.bus, bus.WeightSensors, loadcells)
}

// readBoard performs one bounded read, updating connection state. It
// returns ok=false on any failure, leaving the caller to zero-pad.
func (s *Sampler) readBoard(ctx context.Context, board *boardState, unitID uint8, key string, count uint16) ([]uint16, bool) {
	timeoutCtx, cancel := fieldbus.WithTimeout(ctx, s.cfg.FieldBus.Timeout)
	defer cancel()

	base := s.cfg.FieldBus.RegisterBase[key]

	regs, err := s.client.ReadInputRegisters(timeoutCtx, unitID, base, count)
	if err != nil {
		board.markFailure(s.log)
		return nil, false
	}

	board.markSuccess(s.log)

	return regs, true
}

// Connected reports the live connection state of a board, for health checks.
func (s *Sampler) Connected(board fieldbus.Board) bool {
	switch board {
	case fieldbus.UpperFeedHydra:
		return s.upperFeed.isConnected()
	case fieldbus.LowerFeedHydra:
		return s.lowerFeed.isConnected()
	case fieldbus.FillStationHydra:
		return s.fillHydra.isConnected()
	case fieldbus.RocketLift:
		return s.rocketLift.isConnected()
	case fieldbus.FillStationLift:
		return s.fillLift.isConnected()
	default:
		return false
	}
}
