package hsm

import (
	"context"
	"time"

	"github.com/looplab/fsm"

	"invictus2obc/internal/app/model"
	"invictus2obc/internal/config/logger"
)

const (
	flightNone        = "NONE"
	flightIgnition    = "IGNITION"
	flightBoost       = "BOOST"
	flightCoast       = "COAST"
	flightApogee      = "APOGEE"
	flightDrogueChute = "DROGUE_CHUTE"
	flightMainChute   = "MAIN_CHUTE"
	flightTouchdown   = "TOUCHDOWN"
)

const (
	evIgnitionToBoost = "ignition_to_boost"
	evBoostToCoast    = "boost_to_coast"
	evCoastToApogee   = "coast_to_apogee"
	evApogeeToDrogue  = "apogee_to_drogue"
	evDrogueToMain    = "drogue_to_main"
	evMainToTouchdown = "main_to_touchdown"
	evEnterFlight     = "enter_flight"
	evExitFlight      = "exit_flight"
)

func newFlightFSM(log logger.Logger) *fsm.FSM {
	return fsm.NewFSM(
		flightNone,
		fsm.Events{
			{Name: evEnterFlight, Src: []string{flightNone}, Dst: flightIgnition},
			{Name: evIgnitionToBoost, Src: []string{flightIgnition}, Dst: flightBoost},
			{Name: evBoostToCoast, Src: []string{flightBoost}, Dst: flightCoast},
			{Name: evCoastToApogee, Src: []string{flightCoast}, Dst: flightApogee},
			{Name: evApogeeToDrogue, Src: []string{flightApogee}, Dst: flightDrogueChute},
			{Name: evDrogueToMain, Src: []string{flightDrogueChute}, Dst: flightMainChute},
			{Name: evMainToTouchdown, Src: []string{flightMainChute}, Dst: flightTouchdown},
			{
				Name: evExitFlight,
				Src: []string{
					flightIgnition, flightBoost, flightCoast, flightApogee,
					flightDrogueChute, flightMainChute, flightTouchdown,
				},
				Dst: flightNone,
			},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				log.Debug().Str("from", e.Src).Str("to", e.Dst).Msg("flight transition")
			},
		},
	)
}

func flightFromState(s string) model.FlightState {
	switch s {
	case flightIgnition:
		return model.FlightIgnition
	case flightBoost:
		return model.FlightBoost
	case flightCoast:
		return model.FlightCoast
	case flightApogee:
		return model.FlightApogee
	case flightDrogueChute:
		return model.FlightDrogueChute
	case flightMainChute:
		return model.FlightMainChute
	case flightTouchdown:
		return model.FlightTouchdown
	default:
		return model.FlightNone
	}
}

// enterFlight transitions Mission into FLIGHT and the Flight sub-machine
// into its initial leaf, IGNITION (outermost-first entry, §8 invariant 5:
// Mission's own enter_state callback already ran inside m.mission.Event).
func (m *Machine) enterFlight(ctx context.Context) {
	if err := m.flight.Event(ctx, evEnterFlight); err != nil {
		m.log.Error().Err(err).Msg("failed to enter flight sub-machine")
	}
}

// evalFlight runs the Flight sub-machine's linear progression (§4.4).
// APOGEE -> DROGUE_CHUTE is driven externally: it fires only once the
// drogue e-match actuator bit is observed set, per "external fires the
// drogue e-match" in the spec table. DROGUE_CHUTE -> MAIN_CHUTE and
// MAIN_CHUTE -> TOUCHDOWN are altitude-driven.
func (m *Machine) evalFlight(ctx context.Context, in Input) {
	switch m.flight.Current() {
	case flightIgnition:
		m.fireFlightIf(ctx, in.Sensors.Thermocouples.Chamber > m.cfg.Flight.MinChamberLaunchTemp, evIgnitionToBoost)
		if m.flight.Current() == flightBoost {
			m.startBoostTimer()
		}
	case flightBoost:
		// handled by evaluateBoostTimer before dispatch; nothing sensor-driven here.
	case flightCoast:
		m.fireFlightIf(ctx, in.Navigator.Kalman.VerticalSpeedMMs < m.cfg.Flight.CoastVerticalSpeed, evCoastToApogee)
	case flightApogee:
		m.fireFlightIf(ctx, m.actuators.Has(model.Drogue), evApogeeToDrogue)
	case flightDrogueChute:
		m.fireFlightIf(ctx, in.Navigator.Kalman.AltitudeMM < m.cfg.Flight.MainChuteDeployAltitude, evDrogueToMain)
	case flightMainChute:
		m.fireFlightIf(ctx, in.Navigator.Kalman.AltitudeMM < m.cfg.Flight.TouchdownAltitude, evMainToTouchdown)
	case flightTouchdown:
		// terminal.
	}
}

func (m *Machine) fireFlightIf(ctx context.Context, cond bool, event string) {
	if !cond {
		return
	}

	if err := m.flight.Event(ctx, event); err != nil {
		m.log.Debug().Err(err).Str("event", event).Msg("flight transition rejected")
	}
}

// startBoostTimer arms the one-shot BOOST->COAST timer (§4.4, §9 "Nested
// timer ownership"): a deadline plus a pair of flags, checked each tick
// rather than a kernel timer, since evaluation only runs on Controller
// ticks.
func (m *Machine) startBoostTimer() {
	m.boostActive = true
	m.boostExpired = false
	m.boostDeadline = time.Now().Add(time.Duration(m.cfg.Flight.BoostTimeMs) * time.Millisecond)
}

// cancelBoostTimer clears the timer on any exit from BOOST (§5
// "the BOOST timer ... is always cancelled on state exit").
func (m *Machine) cancelBoostTimer() {
	m.boostActive = false
}

// evaluateBoostTimer checks deadline expiry ahead of the normal dispatch,
// so that an expired timer always transitions regardless of what other
// command or sensor input arrived this tick (§4.4 "on expiry always
// transitions"). If the vertical speed at expiry still meets-or-exceeds
// boost_vertical_speed, a warning is logged (§8 scenario 5) but the
// transition still happens.
func (m *Machine) evaluateBoostTimer(ctx context.Context, in Input) {
	if !m.boostActive || m.flight.Current() != flightBoost {
		return
	}

	if time.Now().Before(m.boostDeadline) {
		return
	}

	if in.Navigator.Kalman.VerticalSpeedMMs >= m.cfg.Flight.BoostVerticalSpeed {
		m.log.Warn().
			Int("vertical_speed_mms", int(in.Navigator.Kalman.VerticalSpeedMMs)).
			Int("boost_vertical_speed", int(m.cfg.Flight.BoostVerticalSpeed)).
			Msg("boost timer expired with vertical speed still at or above threshold")
	}

	m.boostExpired = true
	m.cancelBoostTimer()

	if err := m.flight.Event(ctx, evBoostToCoast); err != nil {
		m.log.Error().Err(err).Msg("boost timer expired but transition to coast was rejected")
	}
}
