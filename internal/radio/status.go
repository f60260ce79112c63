package radio

import (
	"context"
	"sync"
	"time"

	"invictus2obc/internal/app/bus"
	"invictus2obc/internal/app/model"
	"invictus2obc/internal/config"
	"invictus2obc/internal/config/logger"
)

// StatusReporter pushes STATUS_REP telemetry on its own ticker, decoupled
// from command traffic (original_source/invictus2/obc/lora_thrd.c and
// main_sm.c's pattern). It reads the latest published snapshot of every
// relevant bus channel; a channel that has never been published yet
// (e.g. navigator_sensors before the navigator task starts) is simply
// reported as its zero value.
type StatusReporter struct {
	link RadioLink
	bus  *bus.Bus
	cfg  *config.Config
	log  logger.Logger

	status func() model.MissionStatus

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStatusReporter constructs a StatusReporter. statusFn supplies the HSM's current
// (main, filling, flight) triple without requiring a rocket_state
// publish to have happened yet.
func NewStatusReporter(link RadioLink, b *bus.Bus, cfg *config.Config, log logger.Logger, statusFn func() model.MissionStatus) *StatusReporter {
	return &StatusReporter{link: link, bus: b, cfg: cfg, log: log, status: statusFn}
}

// Start launches the periodic push loop.
func (s *StatusReporter) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(runCtx)

	return nil
}

// Stop halts the push loop.
func (s *StatusReporter) Stop(context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	s.wg.Wait()

	return nil
}

func (s *StatusReporter) run(ctx context.Context) {
	defer s.wg.Done()

	interval := config.StatusReportInterval

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.push(ctx)
		}
	}
}

func (s *StatusReporter) push(ctx context.Context) {
	thermo, _ := bus.Read[model.Thermocouples](s.bus, bus.ThermoSensors)
	pressure, _ := bus.Read[model.Pressures](s.bus, bus.PressureSensors)
	weight, _ := bus.Read[model.Loadcells](s.bus, bus.WeightSensors)
	nav, _ := bus.Read[model.NavigatorData](s.bus, bus.NavigatorSensors)
	kalman, _ := bus.Read[model.KalmanOutputs](s.bus, bus.KalmanData)
	nav.Kalman = kalman
	actuators, _ := bus.Read[model.ActuatorVector](s.bus, bus.Actuators)

	snap := model.SensorSnapshot{Thermocouples: thermo, Pressures: pressure, Loadcells: weight}

	p := EncodeStatusRep(s.cfg.Radio.SenderID, s.cfg.Radio.GroundID, s.status(), snap, actuators, nav)

	if err := s.link.Send(ctx, p.Encode()); err != nil {
		s.log.Warn().Err(err).Msg("status report send failed")
	}
}
