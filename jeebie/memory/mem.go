package memory

import (
	"errors"
	"fmt"

	"github.com/valerio/jeebie-core/jeebie/addr"
	"github.com/valerio/jeebie-core/jeebie/bit"
)

// Size of the flat address space.
const Size = 0x10000

// ErrImageTooLarge is returned when an image doesn't fit at the requested offset.
var ErrImageTooLarge = errors.New("image does not fit in the address space")

// SerialPort is the minimal interface for a serial device connected to SB/SC.
// Implementations MUST only accept reads/writes to addr.SB and addr.SC.
type SerialPort interface {
	Write(address uint16, value byte)
	Read(address uint16) byte
	Tick(cycles int)
	Reset()
}

// RAM is a flat 64KiB address space: every read returns the last value
// written to the same address. The only exception is the optional serial
// port, which owns SB and SC when attached.
type RAM struct {
	memory [Size]byte
	serial SerialPort
}

// New creates a zeroed memory with nothing attached.
func New() *RAM {
	return &RAM{}
}

// NewWithSerial creates a zeroed memory with a serial device mapped at SB/SC.
func NewWithSerial(port SerialPort) *RAM {
	return &RAM{serial: port}
}

// AttachSerial maps a serial device at SB/SC, nil detaches it.
func (m *RAM) AttachSerial(port SerialPort) {
	m.serial = port
}

func (m *RAM) Read(address uint16) byte {
	if m.serial != nil && (address == addr.SB || address == addr.SC) {
		return m.serial.Read(address)
	}
	return m.memory[address]
}

func (m *RAM) Write(address uint16, value byte) {
	if m.serial != nil && (address == addr.SB || address == addr.SC) {
		m.serial.Write(address, value)
		return
	}
	m.memory[address] = value
}

// Load copies data into memory starting at offset.
func (m *RAM) Load(offset uint16, data []byte) error {
	if int(offset)+len(data) > Size {
		return fmt.Errorf("loading %d bytes at 0x%04X: %w", len(data), offset, ErrImageTooLarge)
	}
	copy(m.memory[offset:], data)
	return nil
}

// Slice returns a copy of length bytes starting at address, wrapping at the end of the address space.
func (m *RAM) Slice(address uint16, length int) []byte {
	out := make([]byte, length)
	for i := range out {
		out[i] = m.Read(address + uint16(i))
	}
	return out
}

// Tick advances attached devices by the given amount of cycles.
func (m *RAM) Tick(cycles int) {
	if m.serial != nil {
		m.serial.Tick(cycles)
	}
}

// Reset zeroes the memory and resets attached devices.
func (m *RAM) Reset() {
	m.memory = [Size]byte{}
	if m.serial != nil {
		m.serial.Reset()
	}
}

// RequestInterrupt sets the interrupt flag (IF register) of the chosen interrupt to 1.
func (m *RAM) RequestInterrupt(interrupt addr.Interrupt) {
	m.Write(addr.IF, m.Read(addr.IF)|uint8(interrupt))
}

// PendingInterrupts returns the interrupts that are both requested and enabled.
func (m *RAM) PendingInterrupts() uint8 {
	return m.Read(addr.IE) & m.Read(addr.IF) & 0x1F
}

func (m *RAM) ReadBit(index uint8, address uint16) bool {
	return bit.IsSet(index, m.Read(address))
}

func (m *RAM) SetBit(index uint8, address uint16, set bool) {
	value := m.Read(address)
	if set {
		value = bit.Set(index, value)
	} else {
		value = bit.Reset(index, value)
	}
	m.Write(address, value)
}
