package hsm

import (
	"context"

	"github.com/looplab/fsm"

	"invictus2obc/internal/app/model"
	"invictus2obc/internal/config/logger"
)

const (
	missionIdle   = "IDLE"
	missionFill   = "FILL"
	missionReady  = "READY"
	missionArmed  = "ARMED"
	missionFlight = "FLIGHT"
	missionAbort  = "ABORT"
)

const (
	evFillExec       = "fill_exec"
	evReady          = "ready"
	evReadyFromAbort = "ready_from_abort"
	evStop           = "stop"
	evArm            = "arm"
	evAbort          = "abort"
	evFire           = "fire"
)

func newMissionFSM(log logger.Logger) *fsm.FSM {
	return fsm.NewFSM(
		missionIdle,
		fsm.Events{
			{Name: evFillExec, Src: []string{missionIdle}, Dst: missionFill},
			{Name: evReady, Src: []string{missionIdle}, Dst: missionReady},
			{Name: evReadyFromAbort, Src: []string{missionAbort}, Dst: missionIdle},
			{Name: evStop, Src: []string{missionFill, missionReady, missionArmed, missionFlight, missionAbort}, Dst: missionIdle},
			{Name: evArm, Src: []string{missionReady}, Dst: missionArmed},
			{Name: evAbort, Src: []string{missionIdle, missionFill, missionReady, missionArmed, missionFlight}, Dst: missionAbort},
			{Name: evFire, Src: []string{missionArmed}, Dst: missionFlight},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				log.Debug().Str("from", e.Src).Str("to", e.Dst).Msg("mission transition")
			},
		},
	)
}

func mainFromState(s string) model.MainState {
	switch s {
	case missionFill:
		return model.MainFill
	case missionReady:
		return model.MainReady
	case missionArmed:
		return model.MainArmed
	case missionFlight:
		return model.MainFlight
	case missionAbort:
		return model.MainAbort
	default:
		return model.MainIdle
	}
}

// evalIdle evaluates the Mission-level rule while in IDLE (§4.4 table).
func (m *Machine) evalIdle(ctx context.Context, in Input) {
	switch in.Command.Kind {
	case model.CmdFillExec:
		if err := m.mission.Event(ctx, evFillExec); err == nil {
			m.enterFillProgram(ctx, in.Command.FillExec.Program)
		}
	case model.CmdReady:
		_ = m.mission.Event(ctx, evReady)
	}
}

// evalReady evaluates the Mission-level rule while in READY. READY->ABORT
// on Abort is handled by the global-command precedence check in dispatch,
// not here.
func (m *Machine) evalReady(ctx context.Context, in Input) {
	if in.Command.Kind == model.CmdArm {
		_ = m.mission.Event(ctx, evArm)
	}
}

// evalArmed evaluates the Mission-level rule while in ARMED, including the
// guarded Fire transition (§8 scenario 1: cold-chamber rejection).
func (m *Machine) evalArmed(ctx context.Context, in Input) {
	if in.Command.Kind != model.CmdFire {
		return
	}

	if in.Sensors.Thermocouples.Chamber <= m.cfg.Flight.MinChamberLaunchTemp {
		m.log.Error().
			Int("chamber_thermo", int(in.Sensors.Thermocouples.Chamber)).
			Int("min_chamber_launch_temp", int(m.cfg.Flight.MinChamberLaunchTemp)).
			Msg("fire rejected: chamber below minimum launch temperature")

		return
	}

	if err := m.mission.Event(ctx, evFire); err != nil {
		m.log.Debug().Err(err).Msg("fire rejected by mission fsm")
		return
	}

	m.enterFlight(ctx)
}

// evalAbort evaluates the Mission-level rule while in ABORT: only a Ready
// command returns it to IDLE (Stop is handled globally, identically).
func (m *Machine) evalAbort(ctx context.Context, in Input) {
	if in.Command.Kind != model.CmdReady {
		return
	}

	_ = m.mission.Event(ctx, evReadyFromAbort)
}
