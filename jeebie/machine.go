package jeebie

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/cespare/xxhash"
	"github.com/valerio/jeebie-core/jeebie/addr"
	"github.com/valerio/jeebie-core/jeebie/bit"
	"github.com/valerio/jeebie-core/jeebie/cpu"
	"github.com/valerio/jeebie-core/jeebie/debug"
	"github.com/valerio/jeebie-core/jeebie/disasm"
	"github.com/valerio/jeebie-core/jeebie/memory"
	"github.com/valerio/jeebie-core/jeebie/serial"
)

// StopReason tells why Run returned.
type StopReason int

const (
	StopStepLimit StopReason = iota
	StopHalted
	StopBreakpoint
	StopCanceled
	StopError
)

func (r StopReason) String() string {
	switch r {
	case StopStepLimit:
		return "step limit"
	case StopHalted:
		return "halted"
	case StopBreakpoint:
		return "breakpoint"
	case StopCanceled:
		return "canceled"
	case StopError:
		return "error"
	}
	return fmt.Sprintf("StopReason(%d)", int(r))
}

// snapshot window used by ExtractDebugData
const (
	snapshotBefore = 0x20
	snapshotSize   = 0x80
	disasmBefore   = 4
	disasmAfter    = 12
)

// Machine wires the CPU to a flat memory with a serial log sink attached,
// and services interrupts requested through IF/IE.
type Machine struct {
	cpu    *cpu.CPU
	mem    *memory.RAM
	serial *serial.LogSink
	logger *slog.Logger

	breakpoints map[uint16]struct{}
	trace       bool
	untilHalt   bool
	steps       uint64
	lastErr     error
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the logger used for tracing and serial output.
func WithLogger(logger *slog.Logger) Option { return func(m *Machine) { m.logger = logger } }

// WithTrace logs every executed instruction at debug level.
func WithTrace(enabled bool) Option { return func(m *Machine) { m.trace = enabled } }

// WithBreakpoints makes Run stop before executing any of the given addresses.
func WithBreakpoints(addresses ...uint16) Option {
	return func(m *Machine) {
		for _, address := range addresses {
			m.breakpoints[address] = struct{}{}
		}
	}
}

// WithUntilHalt makes Run stop once the CPU halts with nothing left to wake it.
func WithUntilHalt(enabled bool) Option { return func(m *Machine) { m.untilHalt = enabled } }

// New creates a machine with zeroed memory and the CPU in its post-boot state.
func New(opts ...Option) *Machine {
	m := &Machine{
		logger:      slog.Default(),
		breakpoints: make(map[uint16]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.mem = memory.New()
	m.serial = serial.NewLogSink(
		func() { m.mem.RequestInterrupt(addr.SerialInterrupt) },
		serial.WithLogger(m.logger),
	)
	m.mem.AttachSerial(m.serial)
	m.cpu = cpu.New(m.mem)

	return m
}

// NewWithImage creates a machine with image loaded at origin and PC set to entry.
func NewWithImage(image []byte, origin, entry uint16, opts ...Option) (*Machine, error) {
	m := New(opts...)
	if err := m.mem.Load(origin, image); err != nil {
		return nil, err
	}
	m.cpu.PC = entry

	m.logger.Info("Loaded program image", "bytes", len(image), "origin", fmt.Sprintf("0x%04X", origin), "entry", fmt.Sprintf("0x%04X", entry))
	return m, nil
}

// NewWithFile creates a new machine instance and loads the file specified into it.
func NewWithFile(path string, origin, entry uint16, opts ...Option) (*Machine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewWithImage(data, origin, entry, opts...)
}

func (m *Machine) CPU() *cpu.CPU        { return m.cpu }
func (m *Machine) Memory() *memory.RAM  { return m.mem }
func (m *Machine) Steps() uint64        { return m.steps }
func (m *Machine) SerialOutput() []byte { return m.serial.Output() }
func (m *Machine) LastError() error     { return m.lastErr }

func (m *Machine) IsBreakpoint(pc uint16) bool {
	_, ok := m.breakpoints[pc]
	return ok
}

// ToggleBreakpoint adds or removes a breakpoint, returning whether it's now set.
func (m *Machine) ToggleBreakpoint(pc uint16) bool {
	if m.IsBreakpoint(pc) {
		delete(m.breakpoints, pc)
		return false
	}
	m.breakpoints[pc] = struct{}{}
	return true
}

// RequestInterrupt raises an interrupt flag, it will be serviced before the next step.
func (m *Machine) RequestInterrupt(interrupt addr.Interrupt) {
	m.mem.RequestInterrupt(interrupt)
}

// Step services pending interrupts and executes a single instruction.
// Returns the amount of cycles that execution has taken.
func (m *Machine) Step() (int, error) {
	m.handleInterrupts()

	pc := m.cpu.PC
	if m.trace && !m.cpu.IsHalted() && !m.cpu.IsStopped() {
		line := disasm.DisassembleAt(pc, m.mem)
		m.logger.Debug("step",
			"pc", fmt.Sprintf("0x%04X", pc),
			"instruction", line.Instruction,
			"regs", m.cpu.Registers.String(),
		)
	}

	cycles, err := m.cpu.Step()
	if err != nil {
		m.lastErr = err
		return 0, err
	}
	m.mem.Tick(cycles)
	m.steps++

	return cycles, nil
}

// handleInterrupts services the highest priority pending interrupt.
func (m *Machine) handleInterrupts() {
	pending := m.mem.PendingInterrupts()
	if pending == 0 {
		return
	}

	// service interrupts in priority order (bit 0 = highest)
	for i := uint8(0); i < 5; i++ {
		if !bit.IsSet(i, pending) {
			continue
		}
		interrupt := addr.Interrupt(1 << i)
		if m.cpu.Interrupt(interrupt.Vector()) {
			// mark as handled by clearing the bit at i
			m.mem.SetBit(i, addr.IF, false)
		}
		return
	}
}

// Run steps the machine until limit instructions have run (0 means no
// limit), a breakpoint is reached, the context is canceled or, when
// enabled, the CPU halts with no pending interrupt.
func (m *Machine) Run(ctx context.Context, limit uint64) (StopReason, error) {
	var executed uint64
	for {
		if limit > 0 && executed >= limit {
			return StopStepLimit, nil
		}
		if err := ctx.Err(); err != nil {
			return StopCanceled, err
		}
		if m.untilHalt && (m.cpu.IsHalted() || m.cpu.IsStopped()) && m.mem.PendingInterrupts() == 0 {
			m.serial.Flush()
			return StopHalted, nil
		}
		if executed > 0 && m.IsBreakpoint(m.cpu.PC) {
			m.logger.Info("Breakpoint hit", "pc", fmt.Sprintf("0x%04X", m.cpu.PC))
			return StopBreakpoint, nil
		}

		if _, err := m.Step(); err != nil {
			var decodeErr *cpu.DecodeError
			if errors.As(err, &decodeErr) {
				m.logger.Error("Illegal opcode", "opcode", fmt.Sprintf("0x%02X", decodeErr.Opcode), "pc", fmt.Sprintf("0x%04X", decodeErr.Address))
			}
			return StopError, err
		}
		executed++
	}
}

// Fingerprint hashes the complete machine state: registers, IME and all of memory.
// Two machines that ran the same program the same way have the same fingerprint.
func (m *Machine) Fingerprint() uint64 {
	c := m.cpu
	state := make([]byte, 0, 16)
	state = append(state, c.A, c.FlagsByte(), c.B, c.C, c.D, c.E, c.H, c.L)
	state = binary.LittleEndian.AppendUint16(state, c.SP)
	state = binary.LittleEndian.AppendUint16(state, c.PC)
	state = append(state, bit.FromBool(c.GetIME()), bit.FromBool(c.IsHalted()))

	h := xxhash.New()
	h.Write(state)
	h.Write(m.mem.Slice(0, memory.Size))
	return h.Sum64()
}

// ExtractDebugData returns a snapshot for debugger displays.
func (m *Machine) ExtractDebugData() *debug.CompleteDebugData {
	if m.cpu == nil || m.mem == nil {
		return nil
	}
	c := m.cpu

	start := uint16(0)
	if c.PC > snapshotBefore {
		start = c.PC - snapshotBefore
	}
	size := snapshotSize
	if int(start)+size > memory.Size {
		size = memory.Size - int(start)
	}

	return &debug.CompleteDebugData{
		CPU: &debug.CPUState{
			A: c.A, F: c.FlagsByte(), B: c.B, C: c.C,
			D: c.D, E: c.E, H: c.H, L: c.L,
			SP:     c.SP,
			PC:     c.PC,
			IME:    c.GetIME(),
			Halted: c.IsHalted(),
			Cycles: c.GetCycles(),
			Flags:  c.GetFlagString(),
		},
		Memory: &debug.MemorySnapshot{
			StartAddr: start,
			Bytes:     m.mem.Slice(start, size),
		},
		Disassembly:     disasm.DisassembleAround(c.PC, disasmBefore, disasmAfter, m.mem),
		Steps:           m.steps,
		InterruptEnable: m.mem.Read(addr.IE),
		InterruptFlags:  m.mem.Read(addr.IF),
		LastError:       m.lastErr,
	}
}
