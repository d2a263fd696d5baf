package cpu

import (
	"github.com/valerio/jeebie-core/jeebie/addr"
	"github.com/valerio/jeebie-core/jeebie/bit"
)

// Reader is the read half of the bus, enough for decoding and disassembly.
type Reader interface {
	Read(address uint16) byte
}

// Bus provides the interface for component communication
type Bus interface {
	Reader
	Write(address uint16, value byte)
}

// post-boot register state of the DMG
const (
	bootAF uint16 = 0x01B0
	bootBC uint16 = 0x0013
	bootDE uint16 = 0x00D8
	bootHL uint16 = 0x014D
	bootSP uint16 = 0xFFFE
)

// interruptCycles is what servicing an interrupt costs, same as a CALL.
const interruptCycles = 20

// CPU is the main struct holding LR35902 state.
// Registers are embedded so that callers can inspect and seed them directly.
type CPU struct {
	Registers

	// metadata
	interruptsEnabled bool
	eiPending         bool // EI delay: interrupts enable after next instruction
	halted            bool
	stopped           bool
	cycles            uint64

	bus Bus
}

// New returns an initialized CPU instance
func New(bus Bus) *CPU {
	cpu := &CPU{
		bus: bus,
	}
	cpu.Reset()
	return cpu
}

// Reset puts the CPU in the state the boot ROM leaves it in.
func (c *CPU) Reset() {
	c.Registers = Registers{}
	c.SetPair(PairAF, bootAF)
	c.SetPair(PairBC, bootBC)
	c.SetPair(PairDE, bootDE)
	c.SetPair(PairHL, bootHL)
	c.SP = bootSP
	c.PC = addr.EntryPoint

	c.interruptsEnabled = false
	c.eiPending = false
	c.halted = false
	c.stopped = false
	c.cycles = 0
}

// Step fetches, decodes and executes the instruction at PC.
// Returns the amount of cycles that execution has taken. On error nothing
// is committed: registers, PC and memory are left as they were.
func (c *CPU) Step() (int, error) {
	if c.halted || c.stopped {
		c.cycles += 4
		return 4, nil
	}

	instruction, err := Fetch(c.bus, c.PC)
	if err != nil {
		return 0, err
	}

	// EI takes effect only once the instruction after it has run
	enableInterrupts := c.eiPending

	next, cycles, err := c.execute(instruction)
	if err != nil {
		return 0, err
	}
	c.PC = next
	c.cycles += uint64(cycles)

	if enableInterrupts && c.eiPending {
		c.eiPending = false
		c.interruptsEnabled = true
	}

	return cycles, nil
}

// Interrupt requests service of the handler at vector. A halted or stopped
// CPU is woken up in any case; the jump only happens when IME is set, in
// which case the current PC is pushed, IME is cleared and true is returned.
func (c *CPU) Interrupt(vector uint16) bool {
	c.halted = false
	c.stopped = false

	if !c.interruptsEnabled {
		return false
	}

	c.interruptsEnabled = false
	c.eiPending = false
	c.pushStack(c.PC)
	c.PC = vector
	c.cycles += interruptCycles

	return true
}

// peekImmediate returns the byte following the opcode.
// this value is known as immediate ('n' in mnemonics), some opcodes use it as a parameter
func (c *CPU) peekImmediate() uint8 {
	return c.bus.Read(c.PC + 1)
}

// peekImmediateWord returns the two bytes following the opcode, little endian.
func (c *CPU) peekImmediateWord() uint16 {
	low := c.bus.Read(c.PC + 1)
	high := c.bus.Read(c.PC + 2)
	return bit.Combine(high, low)
}

// peekSignedImmediate returns the byte following the opcode as a signed displacement.
func (c *CPU) peekSignedImmediate() int8 {
	return int8(c.peekImmediate())
}

func (c *CPU) pushStack(value uint16) {
	c.SP--
	c.bus.Write(c.SP, bit.High(value))
	c.SP--
	c.bus.Write(c.SP, bit.Low(value))
}

func (c *CPU) popStack() uint16 {
	low := c.bus.Read(c.SP)
	c.SP++
	high := c.bus.Read(c.SP)
	c.SP++
	return bit.Combine(high, low)
}

func (c *CPU) GetCycles() uint64 { return c.cycles }
func (c *CPU) GetIME() bool      { return c.interruptsEnabled }
func (c *CPU) IsHalted() bool    { return c.halted }
func (c *CPU) IsStopped() bool   { return c.stopped }

// GetFlagString returns a human-readable representation of the flag register
func (c *CPU) GetFlagString() string {
	return c.Flags.String()
}
