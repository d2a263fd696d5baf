package cpu

import (
	"fmt"

	"github.com/valerio/jeebie-core/jeebie/bit"
)

// Register names one of the 8 bit registers. F is included so the flag
// register can be read and written as a plain byte.
type Register uint8

const (
	RegA Register = iota
	RegB
	RegC
	RegD
	RegE
	RegH
	RegL
	RegF
)

var registerNames = [...]string{"A", "B", "C", "D", "E", "H", "L", "F"}

func (r Register) String() string {
	if int(r) < len(registerNames) {
		return registerNames[r]
	}
	return fmt.Sprintf("Register(%d)", uint8(r))
}

// Pair names one of the 16 bit register views. SP is not a pair of 8 bit
// registers but shares the same operand slot in 16 bit instructions.
type Pair uint8

const (
	PairAF Pair = iota
	PairBC
	PairDE
	PairHL
	PairSP
)

var pairNames = [...]string{"AF", "BC", "DE", "HL", "SP"}

func (p Pair) String() string {
	if int(p) < len(pairNames) {
		return pairNames[p]
	}
	return fmt.Sprintf("Pair(%d)", uint8(p))
}

// Registers is the CPU register file. Pairs are views over the 8 bit cells,
// they have no storage of their own.
type Registers struct {
	A, B, C, D, E, H, L uint8
	Flags               Flags
	SP                  uint16
	PC                  uint16
}

// Get returns the value of an 8 bit register.
func (r *Registers) Get(name Register) uint8 {
	switch name {
	case RegA:
		return r.A
	case RegB:
		return r.B
	case RegC:
		return r.C
	case RegD:
		return r.D
	case RegE:
		return r.E
	case RegH:
		return r.H
	case RegL:
		return r.L
	case RegF:
		return r.Flags.Byte()
	}
	panic(fmt.Sprintf("cpu: unknown register %d", uint8(name)))
}

// Set replaces the value of an 8 bit register.
func (r *Registers) Set(name Register, value uint8) {
	switch name {
	case RegA:
		r.A = value
	case RegB:
		r.B = value
	case RegC:
		r.C = value
	case RegD:
		r.D = value
	case RegE:
		r.E = value
	case RegH:
		r.H = value
	case RegL:
		r.L = value
	case RegF:
		r.Flags = FlagsFromByte(value)
	default:
		panic(fmt.Sprintf("cpu: unknown register %d", uint8(name)))
	}
}

// Pair returns the 16 bit value of a register pair, high register first.
func (r *Registers) Pair(name Pair) uint16 {
	switch name {
	case PairAF:
		return bit.Combine(r.A, r.Flags.Byte())
	case PairBC:
		return bit.Combine(r.B, r.C)
	case PairDE:
		return bit.Combine(r.D, r.E)
	case PairHL:
		return bit.Combine(r.H, r.L)
	case PairSP:
		return r.SP
	}
	panic(fmt.Sprintf("cpu: unknown register pair %d", uint8(name)))
}

// SetPair writes a 16 bit value back into the two registers of a pair.
// F register lower 4 bits are always 0, so AF drops them.
func (r *Registers) SetPair(name Pair, value uint16) {
	high, low := bit.High(value), bit.Low(value)
	switch name {
	case PairAF:
		r.A, r.Flags = high, FlagsFromByte(low)
	case PairBC:
		r.B, r.C = high, low
	case PairDE:
		r.D, r.E = high, low
	case PairHL:
		r.H, r.L = high, low
	case PairSP:
		r.SP = value
	default:
		panic(fmt.Sprintf("cpu: unknown register pair %d", uint8(name)))
	}
}

// FlagsByte returns the packed F register.
func (r *Registers) FlagsByte() uint8 {
	return r.Flags.Byte()
}

// SetFlagsByte replaces the flags from a packed F register value.
func (r *Registers) SetFlagsByte(value uint8) {
	r.Flags = FlagsFromByte(value)
}

func (r *Registers) String() string {
	return fmt.Sprintf("AF=%04X BC=%04X DE=%04X HL=%04X SP=%04X PC=%04X [%s]",
		r.Pair(PairAF), r.Pair(PairBC), r.Pair(PairDE), r.Pair(PairHL), r.SP, r.PC, r.Flags)
}
