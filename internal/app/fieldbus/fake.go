package fieldbus

import (
	"context"
	"sync"

	"invictus2obc/internal/app/errors"
)

// FakeClient is an in-memory BusClient used by tests and local simulation,
// the field-bus counterpart to the teacher's bus.NoOp().
type FakeClient struct {
	mu        sync.Mutex
	registers map[uint8]map[uint16]uint16
	coils     map[uint8]map[uint16]bool
	down      map[uint8]bool

	// Writes records every WriteCoil call in order, for idempotence tests.
	Writes []CoilWrite
}

// CoilWrite is one recorded coil write.
type CoilWrite struct {
	UnitID uint8
	Addr   uint16
	Value  bool
}

// NewFakeClient returns an empty simulated field bus.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		registers: make(map[uint8]map[uint16]uint16),
		coils:     make(map[uint8]map[uint16]bool),
		down:      make(map[uint8]bool),
	}
}

// SetRegister seeds a register value for a unit.
func (f *FakeClient) SetRegister(unitID uint8, addr uint16, value uint16) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.registers[unitID] == nil {
		f.registers[unitID] = make(map[uint16]uint16)
	}

	f.registers[unitID][addr] = value
}

// SetDown simulates a unit going offline (every transaction fails) or
// recovering.
func (f *FakeClient) SetDown(unitID uint8, down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.down[unitID] = down
}

// ReadInputRegisters implements BusClient.
func (f *FakeClient) ReadInputRegisters(_ context.Context, unitID uint8, baseAddr uint16, count uint16) ([]uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.down[unitID] {
		return nil, errors.ErrBusTimeout
	}

	out := make([]uint16, count)
	regs := f.registers[unitID]

	for i := range out {
		out[i] = regs[baseAddr+uint16(i)]
	}

	return out, nil
}

// WriteCoil implements BusClient.
func (f *FakeClient) WriteCoil(_ context.Context, unitID uint8, coilAddr uint16, value bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.down[unitID] {
		return errors.ErrBusTimeout
	}

	if f.coils[unitID] == nil {
		f.coils[unitID] = make(map[uint16]bool)
	}

	f.coils[unitID][coilAddr] = value
	f.Writes = append(f.Writes, CoilWrite{UnitID: unitID, Addr: coilAddr, Value: value})

	return nil
}

// Coil returns the last-written value of a coil (false if never written).
func (f *FakeClient) Coil(unitID uint8, addr uint16) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.coils[unitID][addr]
}
