// Package model defines the process-wide data singletons of §3: sensor
// snapshots, the actuator vector, navigator data, mission status and the
// command variant. None of these types own synchronization — the EventBus
// (internal/app/bus) is the sole arbiter of concurrent access.
package model

import "time"

// Thermocouples holds the fixed list of signed temperatures (tenths of °C).
type Thermocouples struct {
	N2oTankUF             [3]int16
	N2oTankLF             [2]int16
	Chamber               int16
	N2oLineBeforeSolenoid int16
	N2oLineAfterSolenoid  int16
	N2Line                int16
}

// Pressures holds the fixed list of unsigned pressures (deci-bar).
type Pressures struct {
	N2oTank         uint16
	Chamber         uint16
	N2oLine         uint16
	N2Line          uint16
	QuickDisconnect uint16
}

// Loadcells holds the fixed list of unsigned weights (grams).
type Loadcells struct {
	N2oTank uint32
	Rail    uint32
	Thrust  [3]uint32
}

// SensorSnapshot is the three disjoint, periodically-updated bundles of §3.
type SensorSnapshot struct {
	Thermocouples Thermocouples
	Pressures     Pressures
	Loadcells     Loadcells
}

// ActuatorID names one of the (up to 16) binary outputs of the ActuatorVector.
// The mapping of id to bit position is the single source of truth for the
// bitfield emission described in §9 "Bitfield actuator emission".
type ActuatorID uint8

const (
	Pressurizing ActuatorID = iota // rocket-side
	Vent
	Abort
	Main
	N2oFill // fill-station
	N2oPurge
	N2Fill
	N2Purge
	N2oQD // quick-disconnect
	N2QD
	Ignition // e-matches
	Drogue
	MainChute

	actuatorCount
)

// AllActuators lists every named bit in bit-position order, for iteration
// (diffing, logging) without hardcoding the count at call sites.
var AllActuators = [actuatorCount]ActuatorID{
	Pressurizing, Vent, Abort, Main,
	N2oFill, N2oPurge, N2Fill, N2Purge,
	N2oQD, N2QD,
	Ignition, Drogue, MainChute,
}

// ActuatorVector is a 16-bit bitmap; unused bits are reserved and always
// emitted as zero (§3 invariant). The HSM is its sole writer.
type ActuatorVector uint16

// Set returns a copy of v with id opened.
func (v ActuatorVector) Set(id ActuatorID) ActuatorVector {
	return v | (1 << uint(id))
}

// Clear returns a copy of v with id closed.
func (v ActuatorVector) Clear(id ActuatorID) ActuatorVector {
	return v &^ (1 << uint(id))
}

// Has reports whether id is open in v.
func (v ActuatorVector) Has(id ActuatorID) bool {
	return v&(1<<uint(id)) != 0
}

// WithOnly returns a vector with exactly the given ids open and every other
// bit (including reserved ones) zero — the "single canonical vector,
// overwritten on entry" policy of §4.4.
func WithOnly(ids ...ActuatorID) ActuatorVector {
	var v ActuatorVector
	for _, id := range ids {
		v = v.Set(id)
	}

	return v
}

// GPSFix is a single GPS reading.
type GPSFix struct {
	Valid       bool
	LatitudeE7  int32 // degrees * 1e7
	LongitudeE7 int32
	AltitudeMM  int32
}

// IMUData holds raw accelerometer/gyroscope/magnetometer readings.
type IMUData struct {
	AccelMG [3]int32 // milli-g
	GyroMDS [3]int32 // milli-degrees/sec
	MagMG   [3]int32 // milli-gauss
}

// KalmanOutputs are the navigator's derived estimates.
type KalmanOutputs struct {
	VerticalSpeedMMs  int32
	VerticalAccelMMs2 int32
	AltitudeMM        int32
	MaxAltitudeMM     int32
	AttitudeQuat      [4]float32
}

// NavigatorData is the external navigator's published bundle (§3).
type NavigatorData struct {
	GPS            GPSFix
	BaroAltitudeMM int32
	IMU            IMUData
	Kalman         KalmanOutputs
}

// MainState is the mission top-level leaf (§4.4).
type MainState uint8

const (
	MainIdle MainState = iota
	MainFill
	MainReady
	MainArmed
	MainFlight
	MainAbort
)

// FillingState is the Filling sub-machine leaf, valid only while
// MainState == MainFill (§8 invariant 4).
type FillingState uint8

const (
	FillingNone FillingState = iota // not in FILL

	SafePauseIdle
	SafePauseVent

	FillN2Idle
	FillN2Fill
	FillN2Vent

	PrePressIdle
	PrePressVent
	PrePressFillN2

	FillN2OIdle
	FillN2OFill
	FillN2OVent

	PostPressIdle
	PostPressVent
	PostPressFillN2
)

// FlightState is the Flight sub-machine leaf, valid only while
// MainState == MainFlight.
type FlightState uint8

const (
	FlightNone FlightState = iota // not in FLIGHT

	FlightIgnition
	FlightBoost
	FlightCoast
	FlightApogee
	FlightDrogueChute
	FlightMainChute
	FlightTouchdown
)

// MissionStatus is the triple (main, filling, flight) of §3; flight is
// FlightNone whenever MainState != MainFlight (§6 "Observable outputs").
type MissionStatus struct {
	Main    MainState
	Filling FillingState
	Flight  FlightState
}

// FillProgram selects a Filling composite on FillExec (§4.4).
type FillProgram uint8

const (
	ProgramN2 FillProgram = iota + 1
	ProgramPrePress
	ProgramN2O
	ProgramPostPress
)

// CommandKind tags the Command variant (§3).
type CommandKind uint8

const (
	CmdNone CommandKind = iota
	CmdStop
	CmdAbort
	CmdPause
	CmdResume
	CmdReady
	CmdFillExec
	CmdArm
	CmdFire
	CmdManualToggle
	CmdManualExec
)

// FillExecParams carries a FillExec command's payload.
type FillExecParams struct {
	Program FillProgram
	Params  []byte
}

// ManualExecParams carries a ManualExec command's payload (forwarded, out
// of scope for HSM evaluation per §1).
type ManualExecParams struct {
	CmdID   uint8
	Payload []byte
}

// Command is the tagged variant of §3, latched with its arrival time per
// the "Command latching" design note of §9: the Controller clears the latch
// as it hands the command to one HSM tick, so it never re-fires.
type Command struct {
	Kind       CommandKind
	FillExec   FillExecParams
	ManualExec ManualExecParams
	ArrivedAt  time.Time
}

// IsZero reports whether c carries no latched command.
func (c Command) IsZero() bool {
	return c.Kind == CmdNone
}
