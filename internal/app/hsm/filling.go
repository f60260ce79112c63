package hsm

import (
	"context"

	"github.com/looplab/fsm"

	"invictus2obc/internal/app/model"
	"invictus2obc/internal/config/logger"
)

const (
	fillingNone = "NONE"

	fillingSafePauseIdle = "SAFE_PAUSE.IDLE"
	fillingSafePauseVent = "SAFE_PAUSE.VENT"

	fillingN2Idle = "FILL_N2.IDLE"
	fillingN2Fill = "FILL_N2.FILL"
	fillingN2Vent = "FILL_N2.VENT"

	fillingPrePressIdle   = "PRE_PRESS.IDLE"
	fillingPrePressVent   = "PRE_PRESS.VENT"
	fillingPrePressFillN2 = "PRE_PRESS.FILL_N2"

	fillingN2OIdle = "FILL_N2O.IDLE"
	fillingN2OFill = "FILL_N2O.FILL"
	fillingN2OVent = "FILL_N2O.VENT"

	fillingPostPressIdle   = "POST_PRESS.IDLE"
	fillingPostPressVent   = "POST_PRESS.VENT"
	fillingPostPressFillN2 = "POST_PRESS.FILL_N2"
)

const (
	evSelN2        = "sel_n2"
	evSelPrePress  = "sel_pre_press"
	evSelN2O       = "sel_n2o"
	evSelPostPress = "sel_post_press"
	evPause        = "pause"
	evReset        = "reset"
)

func newFillingFSM(log logger.Logger) *fsm.FSM {
	all := []string{
		fillingNone,
		fillingSafePauseIdle, fillingSafePauseVent,
		fillingN2Idle, fillingN2Fill, fillingN2Vent,
		fillingPrePressIdle, fillingPrePressVent, fillingPrePressFillN2,
		fillingN2OIdle, fillingN2OFill, fillingN2OVent,
		fillingPostPressIdle, fillingPostPressVent, fillingPostPressFillN2,
	}

	return fsm.NewFSM(
		fillingNone,
		fsm.Events{
			{Name: evSelN2, Src: []string{fillingNone}, Dst: fillingN2Idle},
			{Name: evSelPrePress, Src: []string{fillingNone}, Dst: fillingPrePressIdle},
			{Name: evSelN2O, Src: []string{fillingNone}, Dst: fillingN2OIdle},
			{Name: evSelPostPress, Src: []string{fillingNone}, Dst: fillingPostPressIdle},

			{Name: fillingSafePauseVent, Src: []string{fillingSafePauseIdle}, Dst: fillingSafePauseVent},
			{Name: fillingSafePauseIdle, Src: []string{fillingSafePauseVent}, Dst: fillingSafePauseIdle},

			{Name: fillingN2Fill, Src: []string{fillingN2Idle}, Dst: fillingN2Fill},
			{Name: fillingN2Vent, Src: []string{fillingN2Idle}, Dst: fillingN2Vent},
			{Name: fillingN2Idle, Src: []string{fillingN2Fill, fillingN2Vent}, Dst: fillingN2Idle},

			{Name: fillingPrePressFillN2, Src: []string{fillingPrePressIdle}, Dst: fillingPrePressFillN2},
			{Name: fillingPrePressVent, Src: []string{fillingPrePressIdle}, Dst: fillingPrePressVent},
			{Name: fillingPrePressIdle, Src: []string{fillingPrePressFillN2, fillingPrePressVent}, Dst: fillingPrePressIdle},

			{Name: fillingN2OFill, Src: []string{fillingN2OIdle, fillingN2OVent}, Dst: fillingN2OFill},
			{Name: fillingN2OVent, Src: []string{fillingN2OFill}, Dst: fillingN2OVent},
			{Name: fillingN2OIdle, Src: []string{fillingN2OFill}, Dst: fillingN2OIdle},

			{Name: fillingPostPressFillN2, Src: []string{fillingPostPressIdle}, Dst: fillingPostPressFillN2},
			{Name: fillingPostPressVent, Src: []string{fillingPostPressIdle}, Dst: fillingPostPressVent},
			{Name: fillingPostPressIdle, Src: []string{fillingPostPressFillN2, fillingPostPressVent}, Dst: fillingPostPressIdle},

			{Name: evPause, Src: all, Dst: fillingSafePauseIdle},
			{Name: evReset, Src: all, Dst: fillingNone},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				log.Debug().Str("from", e.Src).Str("to", e.Dst).Msg("filling transition")
			},
		},
	)
}

func fillingFromState(s string) model.FillingState {
	switch s {
	case fillingSafePauseIdle:
		return model.SafePauseIdle
	case fillingSafePauseVent:
		return model.SafePauseVent
	case fillingN2Idle:
		return model.FillN2Idle
	case fillingN2Fill:
		return model.FillN2Fill
	case fillingN2Vent:
		return model.FillN2Vent
	case fillingPrePressIdle:
		return model.PrePressIdle
	case fillingPrePressVent:
		return model.PrePressVent
	case fillingPrePressFillN2:
		return model.PrePressFillN2
	case fillingN2OIdle:
		return model.FillN2OIdle
	case fillingN2OFill:
		return model.FillN2OFill
	case fillingN2OVent:
		return model.FillN2OVent
	case fillingPostPressIdle:
		return model.PostPressIdle
	case fillingPostPressVent:
		return model.PostPressVent
	case fillingPostPressFillN2:
		return model.PostPressFillN2
	default:
		return model.FillingNone
	}
}

// enterFillProgram selects the Filling composite named by program, on
// Mission's IDLE -> FILL transition (§4.4 "Selection on FillExec").
func (m *Machine) enterFillProgram(ctx context.Context, program model.FillProgram) {
	var ev string

	switch program {
	case model.ProgramN2:
		ev = evSelN2
	case model.ProgramPrePress:
		ev = evSelPrePress
	case model.ProgramN2O:
		ev = evSelN2O
	case model.ProgramPostPress:
		ev = evSelPostPress
	default:
		m.log.Error().Int("program", int(program)).Msg("unknown fill program, staying in NONE")
		return
	}

	if err := m.filling.Event(ctx, ev); err != nil {
		m.log.Error().Err(err).Msg("failed to select fill program")
	}
}

// evalFilling runs the hysteresis rule (§4.4) for whichever Filling leaf
// is currently active. A missing/zero sensor field is simply not true of
// any guard here (all guards are plain numeric comparisons), matching the
// "guard is treated as false" failure semantics of §4.4.
func (m *Machine) evalFilling(ctx context.Context, in Input) {
	p := in.Sensors.Pressures
	t := in.Sensors.Thermocouples
	w := in.Sensors.Loadcells

	switch m.filling.Current() {
	case fillingSafePauseIdle:
		m.fireIf(ctx, p.N2oTank > m.cfg.SafePause.TriggerN2O, fillingSafePauseVent)
	case fillingSafePauseVent:
		m.fireIf(ctx, p.N2oTank <= m.cfg.SafePause.TargetN2O, fillingSafePauseIdle)

	case fillingN2Idle:
		switch {
		case p.N2Line > m.cfg.FillN2.TriggerN2:
			m.fire(ctx, fillingN2Vent)
		case p.N2Line < m.cfg.FillN2.TargetN2:
			m.fire(ctx, fillingN2Fill)
		}
	case fillingN2Fill:
		m.fireIf(ctx, p.N2Line >= m.cfg.FillN2.TargetN2, fillingN2Idle)
	case fillingN2Vent:
		m.fireIf(ctx, p.N2Line <= m.cfg.FillN2.TargetN2, fillingN2Idle)

	case fillingPrePressIdle:
		switch {
		case p.N2oTank > m.cfg.PrePress.TriggerN2O:
			m.fire(ctx, fillingPrePressVent)
		case p.N2oTank < m.cfg.PrePress.TargetN2O:
			m.fire(ctx, fillingPrePressFillN2)
		}
	case fillingPrePressFillN2:
		m.fireIf(ctx, p.N2oTank >= m.cfg.PrePress.TargetN2O, fillingPrePressIdle)
	case fillingPrePressVent:
		m.fireIf(ctx, p.N2oTank <= m.cfg.PrePress.TargetN2O, fillingPrePressIdle)

	case fillingN2OIdle:
		m.fireIf(ctx, w.N2oTank < m.cfg.FillN2O.TargetWeight, fillingN2OFill)
	case fillingN2OFill:
		switch {
		case p.N2oTank >= m.cfg.FillN2O.TriggerPressure && t.N2oLineBeforeSolenoid > m.cfg.FillN2O.TriggerTemperature:
			m.fire(ctx, fillingN2OVent)
		case w.N2oTank >= m.cfg.FillN2O.TargetWeight:
			m.fire(ctx, fillingN2OIdle)
		}
	case fillingN2OVent:
		m.fireIf(ctx,
			p.N2oTank <= m.cfg.FillN2O.TargetPressure || t.N2oLineBeforeSolenoid <= m.cfg.FillN2O.TriggerTemperature,
			fillingN2OFill)

	case fillingPostPressIdle:
		switch {
		case p.N2oTank > m.cfg.PostPress.TriggerN2O:
			m.fire(ctx, fillingPostPressVent)
		case p.N2oTank < m.cfg.PostPress.TargetN2O:
			m.fire(ctx, fillingPostPressFillN2)
		}
	case fillingPostPressFillN2:
		m.fireIf(ctx, p.N2oTank >= m.cfg.PostPress.TargetN2O, fillingPostPressIdle)
	case fillingPostPressVent:
		m.fireIf(ctx, p.N2oTank <= m.cfg.PostPress.TargetN2O, fillingPostPressIdle)
	}
}

func (m *Machine) fire(ctx context.Context, event string) {
	if err := m.filling.Event(ctx, event); err != nil {
		m.log.Debug().Err(err).Str("event", event).Msg("filling transition rejected")
	}
}

func (m *Machine) fireIf(ctx context.Context, cond bool, event string) {
	if cond {
		m.fire(ctx, event)
	}
}
