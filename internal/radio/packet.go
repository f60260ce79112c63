// Package radio implements the bit-exact 128-byte ground-link frame of §6,
// the opaque RadioLink boundary it rides on, the periodic STATUS_REP
// telemetry push, and the encoders for STATUS_REP and per-command ACK
// packets (original_source/invictus2/obc/radio_commands.c, packets.c).
package radio

import (
	"encoding/binary"

	"invictus2obc/internal/app/errors"
	"invictus2obc/internal/app/model"
	"invictus2obc/internal/config"
)

// Command IDs (§6).
const (
	CmdStatusReq      = 1
	CmdAbort          = 2
	CmdReady          = 3
	CmdArm            = 4
	CmdFire           = 5
	CmdLaunchOverride = 6
	CmdStop           = 7
	CmdSafePause      = 8
	CmdResume         = 9
	CmdManualToggle   = 10
	CmdFillExec       = 11
	CmdManualExec     = 12
	CmdStatusRep      = 13
	CmdAck            = 14
)

// Packet is the decoded fixed frame. Payload is always the raw 124 bytes;
// helpers below interpret it per command_id.
type Packet struct {
	Version   uint8
	SenderID  uint8
	TargetID  uint8
	CommandID uint8
	Payload   [config.PacketPayloadSize]byte
}

// Decode validates and parses a raw 128-byte frame (§6 "Validation on
// receive"). A version other than 1 or a command_id outside [1,14] is
// rejected; the caller drops the packet and logs the reason, matching §7's
// "Protocol violation on receive" taxonomy entry.
func Decode(frame []byte) (Packet, error) {
	if len(frame) < config.PacketSize {
		return Packet{}, errors.ErrPacketTooShort
	}

	var p Packet
	p.Version = frame[0]
	p.SenderID = frame[1]
	p.TargetID = frame[2]
	p.CommandID = frame[3]
	copy(p.Payload[:], frame[config.PacketHeaderSize:config.PacketSize])

	if p.Version != config.PacketVersion {
		return Packet{}, errors.ErrPacketVersion
	}

	if p.CommandID < CmdStatusReq || p.CommandID > CmdAck {
		return Packet{}, errors.ErrPacketCommand
	}

	return p, nil
}

// Encode serializes p into a fixed 128-byte frame.
func (p Packet) Encode() [config.PacketSize]byte {
	var frame [config.PacketSize]byte
	frame[0] = p.Version
	frame[1] = p.SenderID
	frame[2] = p.TargetID
	frame[3] = p.CommandID
	copy(frame[config.PacketHeaderSize:], p.Payload[:])

	return frame
}

// newPacket builds a header with the fixed protocol version.
func newPacket(senderID, targetID, commandID uint8) Packet {
	return Packet{Version: config.PacketVersion, SenderID: senderID, TargetID: targetID, CommandID: commandID}
}

// ToCommand translates a validated Packet into the HSM's Command variant
// (§3). STATUS_REQ, STATUS_REP and ACK carry no latchable command and
// return ok=false; the Controller answers a STATUS_REQ separately with a
// STATUS_REP reply.
func ToCommand(p Packet) (model.Command, bool) {
	switch p.CommandID {
	case CmdAbort:
		return model.Command{Kind: model.CmdAbort}, true
	case CmdReady:
		return model.Command{Kind: model.CmdReady}, true
	case CmdArm:
		return model.Command{Kind: model.CmdArm}, true
	case CmdFire:
		return model.Command{Kind: model.CmdFire}, true
	case CmdStop, CmdLaunchOverride:
		return model.Command{Kind: model.CmdStop}, true
	case CmdSafePause:
		return model.Command{Kind: model.CmdPause}, true
	case CmdResume:
		return model.Command{Kind: model.CmdResume}, true
	case CmdManualToggle:
		return model.Command{Kind: model.CmdManualToggle}, true
	case CmdFillExec:
		return model.Command{
			Kind: model.CmdFillExec,
			FillExec: model.FillExecParams{
				Program: model.FillProgram(p.Payload[0]),
				Params:  append([]byte(nil), p.Payload[1:]...),
			},
		}, true
	case CmdManualExec:
		return model.Command{
			Kind: model.CmdManualExec,
			ManualExec: model.ManualExecParams{
				CmdID:   p.Payload[0],
				Payload: append([]byte(nil), p.Payload[1:]...),
			},
		}, true
	default:
		return model.Command{}, false
	}
}

// EncodeAck builds an ACK packet (command id 14) acknowledging ackCmdID
// with statusCode (0 = accepted, non-zero = rejected reason), per
// original_source/invictus2/obc/packets.c's ack shape — not present in
// spec.md's core but named as a SUPPLEMENTED FEATURE.
func EncodeAck(senderID, targetID, ackCmdID, statusCode uint8) Packet {
	p := newPacket(senderID, targetID, CmdAck)
	p.Payload[0] = ackCmdID
	p.Payload[1] = statusCode

	return p
}

// EncodeStatusRep packs a full mission snapshot into a STATUS_REP packet
// (§6), little-endian, packed exactly per the layout table. The attitude
// quaternion is omitted: 4 header bytes + 5 pressures + 9 thermocouples +
// actuators + 5 loadcells + the navigator block already total 113 of the
// 124 payload bytes, and a 16-byte float32[4] quaternion would overflow
// the frame; ground software reconstructs attitude from the separate
// kalman_data bus channel instead.
func EncodeStatusRep(senderID, targetID uint8, status model.MissionStatus, snap model.SensorSnapshot, actuators model.ActuatorVector, nav model.NavigatorData) Packet {
	p := newPacket(senderID, targetID, CmdStatusRep)

	buf := p.Payload[:0:len(p.Payload)]
	buf = append(buf, byte(status.Main), byte(status.Filling), byte(status.Flight), 0)

	pressures := [5]uint16{
		snap.Pressures.N2oTank, snap.Pressures.Chamber, snap.Pressures.N2oLine,
		snap.Pressures.N2Line, snap.Pressures.QuickDisconnect,
	}
	for _, v := range pressures {
		buf = appendU16(buf, v)
	}

	thermos := [9]int16{
		snap.Thermocouples.N2oTankUF[0], snap.Thermocouples.N2oTankUF[1], snap.Thermocouples.N2oTankUF[2],
		snap.Thermocouples.N2oTankLF[0], snap.Thermocouples.N2oTankLF[1],
		snap.Thermocouples.Chamber, snap.Thermocouples.N2oLineBeforeSolenoid,
		snap.Thermocouples.N2oLineAfterSolenoid, snap.Thermocouples.N2Line,
	}
	for _, v := range thermos {
		buf = appendU16(buf, uint16(v))
	}

	buf = appendU16(buf, uint16(actuators))

	loadcells := [5]uint16{
		uint16(snap.Loadcells.N2oTank), uint16(snap.Loadcells.Rail),
		uint16(snap.Loadcells.Thrust[0]), uint16(snap.Loadcells.Thrust[1]), uint16(snap.Loadcells.Thrust[2]),
	}
	for _, v := range loadcells {
		buf = appendU16(buf, v)
	}

	buf = appendNavigator(buf, nav)

	copy(p.Payload[:], buf)

	return p
}

func appendU16(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)

	return append(buf, tmp[:]...)
}

func appendI32(buf []byte, v int32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(v))

	return append(buf, tmp[:]...)
}

func appendNavigator(buf []byte, nav model.NavigatorData) []byte {
	buf = append(buf, boolByte(nav.GPS.Valid))
	buf = appendI32(buf, nav.GPS.LatitudeE7)
	buf = appendI32(buf, nav.GPS.LongitudeE7)
	buf = appendI32(buf, nav.GPS.AltitudeMM)
	buf = appendI32(buf, nav.BaroAltitudeMM)

	for _, v := range nav.IMU.AccelMG {
		buf = appendI32(buf, v)
	}

	for _, v := range nav.IMU.GyroMDS {
		buf = appendI32(buf, v)
	}

	for _, v := range nav.IMU.MagMG {
		buf = appendI32(buf, v)
	}

	buf = appendI32(buf, nav.Kalman.VerticalSpeedMMs)
	buf = appendI32(buf, nav.Kalman.VerticalAccelMMs2)
	buf = appendI32(buf, nav.Kalman.AltitudeMM)
	buf = appendI32(buf, nav.Kalman.MaxAltitudeMM)

	return buf
}

func boolByte(b bool) byte {
	if b {
		return 1
	}

	return 0
}
