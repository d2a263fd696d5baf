package cpu

import (
	"fmt"
	"strings"
)

// Family groups instructions by the kind of work they perform.
type Family uint8

const (
	FamilyInvalid Family = iota
	FamilyLoad8
	FamilyLoad16
	FamilyALU8
	FamilyALU16
	FamilyRotateShift
	FamilyBit
	FamilyControl
	FamilyJump
)

var familyNames = [...]string{"invalid", "load8", "load16", "alu8", "alu16", "rotate/shift", "bit", "control", "jump"}

func (f Family) String() string {
	if int(f) < len(familyNames) {
		return familyNames[f]
	}
	return fmt.Sprintf("Family(%d)", uint8(f))
}

// Op is the operation performed within a family.
type Op uint8

const (
	OpInvalid Op = iota

	OpLD
	OpPUSH
	OpPOP

	OpADD
	OpADC
	OpSUB
	OpSBC
	OpAND
	OpXOR
	OpOR
	OpCP
	OpINC
	OpDEC
	OpDAA
	OpCPL

	OpRLCA
	OpRRCA
	OpRLA
	OpRRA
	OpRLC
	OpRRC
	OpRL
	OpRR
	OpSLA
	OpSRA
	OpSWAP
	OpSRL

	OpBIT
	OpRES
	OpSET

	OpNOP
	OpHALT
	OpSTOP
	OpDI
	OpEI
	OpSCF
	OpCCF

	OpJP
	OpJR
	OpCALL
	OpRET
	OpRETI
	OpRST
)

var opNames = [...]string{
	"???",
	"LD", "PUSH", "POP",
	"ADD", "ADC", "SUB", "SBC", "AND", "XOR", "OR", "CP", "INC", "DEC", "DAA", "CPL",
	"RLCA", "RRCA", "RLA", "RRA", "RLC", "RRC", "RL", "RR", "SLA", "SRA", "SWAP", "SRL",
	"BIT", "RES", "SET",
	"NOP", "HALT", "STOP", "DI", "EI", "SCF", "CCF",
	"JP", "JR", "CALL", "RET", "RETI", "RST",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// Mode tells how an operand is reached.
type Mode uint8

const (
	ModeNone           Mode = iota
	ModeRegister            // r
	ModePair                // rr
	ModeImmediate           // n
	ModeImmediateWord       // nn
	ModeIndirect            // (rr)
	ModeIndirectInc         // (HL+)
	ModeIndirectDec         // (HL-)
	ModeAbsolute            // (nn)
	ModeIOImmediate         // (FF00+n)
	ModeIORegister          // (FF00+C)
	ModeDisplacement        // e, signed
	ModeSPDisplacement      // SP+e
)

// Operand is a single source or destination of an instruction.
type Operand struct {
	Mode Mode
	Reg  Register
	Pair Pair
}

func reg(r Register) Operand    { return Operand{Mode: ModeRegister, Reg: r} }
func pair(p Pair) Operand       { return Operand{Mode: ModePair, Pair: p} }
func indirect(p Pair) Operand   { return Operand{Mode: ModeIndirect, Pair: p} }
func operand(mode Mode) Operand { return Operand{Mode: mode} }
func hlPostIndex(inc bool) Operand {
	if inc {
		return Operand{Mode: ModeIndirectInc, Pair: PairHL}
	}
	return Operand{Mode: ModeIndirectDec, Pair: PairHL}
}

var (
	imm8  = operand(ModeImmediate)
	imm16 = operand(ModeImmediateWord)
	disp  = operand(ModeDisplacement)
)

// Size is the number of bytes the operand occupies after the opcode.
func (o Operand) Size() uint8 {
	switch o.Mode {
	case ModeImmediate, ModeIOImmediate, ModeDisplacement, ModeSPDisplacement:
		return 1
	case ModeImmediateWord, ModeAbsolute:
		return 2
	}
	return 0
}

// IsMemory reports whether the operand refers to a memory cell instead of a register or immediate.
func (o Operand) IsMemory() bool {
	switch o.Mode {
	case ModeIndirect, ModeIndirectInc, ModeIndirectDec, ModeAbsolute, ModeIOImmediate, ModeIORegister:
		return true
	}
	return false
}

func (o Operand) format(value uint16, concrete bool) string {
	switch o.Mode {
	case ModeRegister:
		return o.Reg.String()
	case ModePair:
		return o.Pair.String()
	case ModeImmediate:
		if concrete {
			return fmt.Sprintf("$%02X", uint8(value))
		}
		return "n"
	case ModeImmediateWord:
		if concrete {
			return fmt.Sprintf("$%04X", value)
		}
		return "nn"
	case ModeIndirect:
		return "(" + o.Pair.String() + ")"
	case ModeIndirectInc:
		return "(HL+)"
	case ModeIndirectDec:
		return "(HL-)"
	case ModeAbsolute:
		if concrete {
			return fmt.Sprintf("($%04X)", value)
		}
		return "(nn)"
	case ModeIOImmediate:
		if concrete {
			return fmt.Sprintf("($FF%02X)", uint8(value))
		}
		return "($FF00+n)"
	case ModeIORegister:
		return "($FF00+C)"
	case ModeDisplacement:
		if concrete {
			return fmt.Sprintf("%+d", int8(value))
		}
		return "e"
	case ModeSPDisplacement:
		if concrete {
			return fmt.Sprintf("SP%+d", int8(value))
		}
		return "SP+e"
	}
	return ""
}

// Condition gates conditional jumps, calls and returns.
type Condition uint8

const (
	CondAlways Condition = iota
	CondNZ
	CondZ
	CondNC
	CondC
)

var conditionNames = [...]string{"", "NZ", "Z", "NC", "C"}

func (c Condition) String() string {
	if int(c) < len(conditionNames) {
		return conditionNames[c]
	}
	return fmt.Sprintf("Condition(%d)", uint8(c))
}

// Instruction is the decoded form of an opcode. It carries everything the
// executor needs, plus passive metadata (length and cycle counts).
type Instruction struct {
	Family Family
	Op     Op
	Dst    Operand
	Src    Operand
	Cond   Condition
	// Bit is the bit index for BIT/RES/SET.
	Bit uint8
	// Vector is the RST target address.
	Vector uint16

	Opcode   uint8
	Prefixed bool

	// Length in bytes, prefix included.
	Length uint8
	// Cycles is the machine clock count, for conditional flow it's the count
	// when the branch is not taken.
	Cycles uint8
	// BranchCycles is the count when a conditional branch is taken.
	BranchCycles uint8
}

// Valid reports whether the instruction was produced by the decoder.
func (i Instruction) Valid() bool {
	return i.Family != FamilyInvalid && i.Op != OpInvalid
}

// Code returns the full opcode, with the 0xCB prefix in the high byte for prefixed instructions.
func (i Instruction) Code() uint16 {
	if i.Prefixed {
		return 0xCB00 | uint16(i.Opcode)
	}
	return uint16(i.Opcode)
}

// Immediate returns the operand carrying inline bytes, if any.
func (i Instruction) Immediate() (Operand, bool) {
	if i.Src.Size() > 0 {
		return i.Src, true
	}
	if i.Dst.Size() > 0 {
		return i.Dst, true
	}
	return Operand{}, false
}

// String returns the symbolic mnemonic, e.g. "LD A,(HL+)" or "JR NZ,e".
func (i Instruction) String() string {
	return i.render(0, false)
}

// Format returns the mnemonic with the inline operand bytes substituted.
func (i Instruction) Format(value uint16) string {
	return i.render(value, true)
}

func (i Instruction) render(value uint16, concrete bool) string {
	var args []string
	add := func(o Operand) {
		if o.Mode != ModeNone {
			args = append(args, o.format(value, concrete))
		}
	}

	switch {
	case i.Op == OpSTOP, i.Op == OpDAA, i.Op == OpCPL,
		i.Op == OpRLCA, i.Op == OpRRCA, i.Op == OpRLA, i.Op == OpRRA:
		// implicit operands
	case i.Op == OpRST:
		args = append(args, fmt.Sprintf("$%02X", i.Vector))
	case i.Family == FamilyBit:
		args = append(args, fmt.Sprintf("%d", i.Bit))
		add(i.Dst)
	case i.Family == FamilyALU8 && i.Src.Mode != ModeNone:
		switch i.Op {
		case OpADD, OpADC, OpSBC:
			add(i.Dst)
		}
		add(i.Src)
	case i.Family == FamilyJump:
		if i.Cond != CondAlways {
			args = append(args, i.Cond.String())
		}
		add(i.Dst)
	default:
		add(i.Dst)
		add(i.Src)
	}

	if len(args) == 0 {
		return i.Op.String()
	}
	return i.Op.String() + " " + strings.Join(args, ",")
}
