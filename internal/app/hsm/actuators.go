package hsm

import (
	"time"

	"invictus2obc/internal/app/model"
)

// recomputeActuators rebuilds the canonical actuator vector from scratch
// every tick (§4.4 "single canonical vector, overwritten on entry") from
// whichever leaf is currently active across the three levels. Exactly one
// of Filling or Flight contributes beyond the Mission-level ABORT case,
// since Filling is only valid under FILL and Flight only under FLIGHT
// (§8 invariant 1).
func (m *Machine) recomputeActuators() {
	switch mainFromState(m.mission.Current()) {
	case model.MainAbort:
		m.actuators = m.abortActuators()
	case model.MainFill:
		m.actuators = fillingActuators(m.filling.Current())
	default:
		m.actuators = 0
	}

	m.actuators |= m.manualOverride
}

// abortActuators implements the ABORT entry policy (§4.4, §8 scenario 4):
// the abort valve opens immediately on entry, and after the configured
// delay the pressurizing valve also opens — once, not re-evaluated once
// open.
func (m *Machine) abortActuators() model.ActuatorVector {
	if !m.abortPressurized && time.Since(m.abortEnteredAt) >= m.cfg.Abort.PressurizingDelay {
		m.abortPressurized = true
	}

	if m.abortPressurized {
		return model.WithOnly(model.Abort, model.Pressurizing)
	}

	return model.WithOnly(model.Abort)
}

// fillingActuators is the per-substate policy table of §4.4.
func fillingActuators(leaf string) model.ActuatorVector {
	switch leaf {
	case fillingSafePauseVent:
		return model.WithOnly(model.Vent)
	case fillingN2Fill:
		return model.WithOnly(model.N2Fill)
	case fillingN2Vent:
		return model.WithOnly(model.N2Fill, model.Vent)
	case fillingPrePressFillN2:
		return model.WithOnly(model.Pressurizing)
	case fillingPrePressVent:
		return model.WithOnly(model.Vent)
	case fillingN2OFill:
		return model.WithOnly(model.N2oFill)
	case fillingN2OVent:
		return model.WithOnly(model.N2oFill, model.Vent)
	case fillingPostPressFillN2:
		return model.WithOnly(model.N2Fill)
	case fillingPostPressVent:
		return model.WithOnly(model.Vent)
	default:
		// every *_IDLE leaf, including SAFE_PAUSE.IDLE: no valves open
		// (§8 invariant 2).
		return 0
	}
}

// Flight does not own a valve policy table of its own, unlike Filling and
// ABORT: whatever e-match/chute bits are open during flight come entirely
// from manualOverride, applied uniformly by recomputeActuators.
