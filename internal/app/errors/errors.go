package errors

import (
	"errors"
)

var (
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrDuplicateUnitID    = errors.New("field-bus unit id is zero or duplicated")
	ErrInvalidSampleRate  = errors.New("sample period must be greater than 0")
	ErrInvalidAbortDelay  = errors.New("abort pressurizing delay must not be negative")
	ErrFailedToReadConfig = errors.New("failed to read config file")
	ErrFailedToParseConfig = errors.New("failed to parse config file")
	ErrUnknownCoilMapping = errors.New("actuator has no configured coil address")

	ErrBusFull        = errors.New("observer work queue is saturated")
	ErrStale          = errors.New("channel has never been published")
	ErrUnknownChannel = errors.New("unknown event bus channel")

	ErrBusReadFailed  = errors.New("field-bus read failed")
	ErrBusWriteFailed = errors.New("field-bus coil write failed")
	ErrBusTimeout     = errors.New("field-bus transaction timed out")

	ErrPacketVersion         = errors.New("unsupported packet version")
	ErrPacketCommand         = errors.New("unknown packet command id")
	ErrPacketTooShort        = errors.New("packet shorter than fixed frame size")
	ErrPacketPayloadOverflow = errors.New("encoded payload exceeds frame capacity")
	ErrRadioSendFailed       = errors.New("radio send failed")

	ErrUnknownLeafState = errors.New("hierarchical state machine has no entry for leaf state")
	ErrGuardRejected    = errors.New("guarded transition rejected")
	ErrUnknownCommand   = errors.New("unrecognized command")

	ErrControllerStopped = errors.New("controller worker is stopped")
	ErrQueueClosed       = errors.New("work queue closed")

	ErrInvalidPIDFile = errors.New("pid file contents are not a valid process id")
)

var (
	As  = errors.As
	Is  = errors.Is
	New = errors.New
)
