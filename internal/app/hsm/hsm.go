// Package hsm implements the hierarchical state machine of §4.4: a
// top-level Mission machine with two nested sub-machines, Filling and
// Flight, sharing one context and owning the actuator vector. It is the
// single largest component of the system (§2, "45%").
//
// Each level is backed by its own *fsm.FSM (github.com/looplab/fsm), a
// flat state-machine library; the nesting, guard evaluation and global-command precedence
// that a flat fsm.FSM cannot express alone are implemented by Machine,
// which owns all three instances and sequences them.
package hsm

import (
	"context"
	"time"

	"github.com/looplab/fsm"

	"invictus2obc/internal/app/model"
	"invictus2obc/internal/config"
	"invictus2obc/internal/config/logger"
)

// Input is the tick's read-only view of the world: the latest sensor
// snapshot, navigator data, and the single latched command (§3, §9
// "Command latching"). The Controller assembles one of these per tick.
type Input struct {
	Sensors   model.SensorSnapshot
	Navigator model.NavigatorData
	Command   model.Command
}

// Result is what a tick produced, for the Controller to publish.
type Result struct {
	Status          model.MissionStatus
	StatusChanged   bool
	Actuators       model.ActuatorVector
	ActuatorChanged bool
}

// Machine is the HSM. It is owned exclusively by the Controller worker
// (§9 "Shared mutable state") — nothing else may call Tick concurrently.
type Machine struct {
	cfg *config.Mission
	log logger.Logger

	mission *fsm.FSM
	filling *fsm.FSM
	flight  *fsm.FSM

	actuators model.ActuatorVector

	abortEnteredAt   time.Time
	abortPressurized bool

	boostDeadline time.Time
	boostActive   bool
	boostExpired  bool

	// manualOverride carries bits asserted by ManualExec commands (§3
	// "forwarded"; ManualToggle does not change it): these bypass guard evaluation entirely
	// and are OR'd onto whatever policy table the active leaf computes,
	// which is how an externally-fired drogue e-match (§4.4 "external
	// fires the drogue e-match") becomes visible on the actuators channel
	// without the Flight sub-machine owning a valve policy of its own.
	manualOverride model.ActuatorVector
}

// New constructs a Machine at its initial leaf states (Mission=IDLE,
// Filling and Flight inactive).
func New(cfg *config.Mission, log logger.Logger) *Machine {
	m := &Machine{cfg: cfg, log: log}
	m.mission = newMissionFSM(log)
	m.filling = newFillingFSM(log)
	m.flight = newFlightFSM(log)

	return m
}

// Status returns the current triple without running a tick.
func (m *Machine) Status() model.MissionStatus {
	return model.MissionStatus{
		Main:    mainFromState(m.mission.Current()),
		Filling: fillingFromState(m.filling.Current()),
		Flight:  flightFromState(m.flight.Current()),
	}
}

// BoostExpired reports whether the most recent BOOST->COAST transition was
// driven by timer expiry, for tests and diagnostics (§8 scenario 5).
func (m *Machine) BoostExpired() bool {
	return m.boostExpired
}

// Actuators returns the last-emitted actuator vector without running a tick.
func (m *Machine) Actuators() model.ActuatorVector {
	return m.actuators
}

// Tick runs exactly one evaluation (§4.3): global-command precedence
// first, then the current leaf's guarded rule; on any transition, exit
// handlers run innermost-first and entry handlers outermost-first
// (§8 invariant 5), and the actuator policy for the new leaf (or leaves)
// is recomputed and compared against the last-emitted vector.
func (m *Machine) Tick(ctx context.Context, in Input) Result {
	beforeStatus := m.Status()
	beforeActuators := m.actuators

	m.evaluateBoostTimer(ctx, in)
	m.dispatch(ctx, in)
	m.recomputeActuators()

	after := m.Status()

	return Result{
		Status:          after,
		StatusChanged:   after != beforeStatus,
		Actuators:       m.actuators,
		ActuatorChanged: m.actuators != beforeActuators,
	}
}

// dispatch implements global-command precedence (§4.4): Stop, Abort and
// (while in FILL) Pause are evaluated before any guarded leaf rule, and
// when one is latched the leaf rule for this tick is skipped entirely.
func (m *Machine) dispatch(ctx context.Context, in Input) {
	cmd := in.Command

	switch {
	case cmd.Kind == model.CmdStop:
		m.globalStop(ctx)
		return
	case cmd.Kind == model.CmdAbort:
		m.globalAbort(ctx)
		return
	case cmd.Kind == model.CmdPause && mainFromState(m.mission.Current()) == model.MainFill:
		m.globalPause(ctx)
		return
	case cmd.Kind == model.CmdManualExec:
		m.applyManual(cmd.ManualExec)
		return
	case cmd.Kind == model.CmdResume:
		m.manualOverride = 0
		return
	}

	switch mainFromState(m.mission.Current()) {
	case model.MainIdle:
		m.evalIdle(ctx, in)
	case model.MainFill:
		m.evalFilling(ctx, in)
	case model.MainReady:
		m.evalReady(ctx, in)
	case model.MainArmed:
		m.evalArmed(ctx, in)
	case model.MainFlight:
		m.evalFlight(ctx, in)
	case model.MainAbort:
		m.evalAbort(ctx, in)
	}
}

// globalStop forces the next leaf to Mission IDLE (§8 invariant 6),
// exiting any active nested leaf first (innermost-first).
func (m *Machine) globalStop(ctx context.Context) {
	m.exitActiveSubMachine(ctx)
	m.manualOverride = 0

	if m.mission.Current() == missionIdle {
		return
	}

	if err := m.mission.Event(ctx, evStop); err != nil {
		m.log.Debug().Err(err).Msg("global stop rejected by mission fsm")
	}
}

// applyManual sets or clears individual actuator bits directly from a
// ManualExec command, bypassing the current leaf's guarded evaluation
// entirely for this tick (§3 "Manual overrides ... out of scope but must
// be forwarded"). CmdID selects the actuator by its bit position; any
// non-zero byte at payload offset 0 opens it, zero closes it.
func (m *Machine) applyManual(p model.ManualExecParams) {
	id := model.ActuatorID(p.CmdID)

	open := len(p.Payload) > 0 && p.Payload[0] != 0

	if open {
		m.manualOverride = m.manualOverride.Set(id)
	} else {
		m.manualOverride = m.manualOverride.Clear(id)
	}
}

func (m *Machine) globalAbort(ctx context.Context) {
	m.exitActiveSubMachine(ctx)

	if m.mission.Current() == missionAbort {
		return
	}

	if err := m.mission.Event(ctx, evAbort); err != nil {
		m.log.Debug().Err(err).Msg("global abort rejected by mission fsm")
		return
	}

	m.abortEnteredAt = time.Now()
	m.abortPressurized = false
	m.manualOverride = 0
}

// globalPause forces the Filling leaf straight into SAFE_PAUSE.IDLE,
// without touching the Mission level.
func (m *Machine) globalPause(ctx context.Context) {
	if m.filling.Current() == fillingSafePauseIdle {
		return
	}

	if err := m.filling.Event(ctx, evPause); err != nil {
		m.log.Debug().Err(err).Msg("pause rejected by filling fsm")
	}
}

// exitActiveSubMachine runs the active nested leaf's exit (innermost)
// before a Mission-level transition away from FILL or FLIGHT.
func (m *Machine) exitActiveSubMachine(ctx context.Context) {
	switch mainFromState(m.mission.Current()) {
	case model.MainFill:
		_ = m.filling.Event(ctx, evReset)
	case model.MainFlight:
		m.cancelBoostTimer()
		_ = m.flight.Event(ctx, evExitFlight)
	}
}
