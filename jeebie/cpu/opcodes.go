package cpu

import (
	"fmt"

	"github.com/valerio/jeebie-core/jeebie/bit"
)

// prefixByte escapes into the 0xCB table.
const prefixByte uint8 = 0xCB

// operand slots indexed by the 3 bit register field of an opcode.
var registerOperands = [8]Operand{
	reg(RegB), reg(RegC), reg(RegD), reg(RegE),
	reg(RegH), reg(RegL), indirect(PairHL), reg(RegA),
}

// 16 bit operand slots indexed by bits 5-4. PUSH and POP swap SP for AF.
var (
	pairOperands  = [4]Pair{PairBC, PairDE, PairHL, PairSP}
	stackOperands = [4]Pair{PairBC, PairDE, PairHL, PairAF}
)

var conditions = [4]Condition{CondNZ, CondZ, CondNC, CondC}

// arithmetic ops indexed by bits 5-3, shared by the 0x80-0xBF block and the n forms.
var aluOps = [8]Op{OpADD, OpADC, OpSUB, OpSBC, OpAND, OpXOR, OpOR, OpCP}

var rotateOps = [8]Op{OpRLC, OpRRC, OpRL, OpRR, OpSLA, OpSRA, OpSWAP, OpSRL}

// bitOps is indexed by bits 7-6 of a prefixed opcode, group 0 is rotateOps.
var bitOps = [4]Op{OpInvalid, OpBIT, OpRES, OpSET}

// opcodeDef is one row of the unprefixed table.
type opcodeDef struct {
	code   uint8
	ins    Instruction
	cycles uint8
	taken  uint8
}

func control(op Op) Instruction { return Instruction{Family: FamilyControl, Op: op} }
func load8(dst, src Operand) Instruction {
	return Instruction{Family: FamilyLoad8, Op: OpLD, Dst: dst, Src: src}
}
func load16(op Op, dst, src Operand) Instruction {
	return Instruction{Family: FamilyLoad16, Op: op, Dst: dst, Src: src}
}
func alu8(op Op, dst, src Operand) Instruction {
	return Instruction{Family: FamilyALU8, Op: op, Dst: dst, Src: src}
}
func alu16(op Op, dst, src Operand) Instruction {
	return Instruction{Family: FamilyALU16, Op: op, Dst: dst, Src: src}
}
func rotate(op Op, target Operand) Instruction {
	return Instruction{Family: FamilyRotateShift, Op: op, Dst: target}
}
func jump(op Op, cond Condition, target Operand) Instruction {
	return Instruction{Family: FamilyJump, Op: op, Cond: cond, Dst: target}
}

// irregularOpcodes lists the opcodes that don't fall into one of the
// structured blocks generated in unprefixedDefs.
var irregularOpcodes = []opcodeDef{
	{0x00, control(OpNOP), 4, 0},
	{0x10, Instruction{Family: FamilyControl, Op: OpSTOP, Src: imm8}, 4, 0},
	{0x76, control(OpHALT), 4, 0},
	{0xF3, control(OpDI), 4, 0},
	{0xFB, control(OpEI), 4, 0},
	{0x37, control(OpSCF), 4, 0},
	{0x3F, control(OpCCF), 4, 0},

	{0x02, load8(indirect(PairBC), reg(RegA)), 8, 0},
	{0x12, load8(indirect(PairDE), reg(RegA)), 8, 0},
	{0x22, load8(hlPostIndex(true), reg(RegA)), 8, 0},
	{0x32, load8(hlPostIndex(false), reg(RegA)), 8, 0},
	{0x0A, load8(reg(RegA), indirect(PairBC)), 8, 0},
	{0x1A, load8(reg(RegA), indirect(PairDE)), 8, 0},
	{0x2A, load8(reg(RegA), hlPostIndex(true)), 8, 0},
	{0x3A, load8(reg(RegA), hlPostIndex(false)), 8, 0},
	{0xE0, load8(operand(ModeIOImmediate), reg(RegA)), 12, 0},
	{0xF0, load8(reg(RegA), operand(ModeIOImmediate)), 12, 0},
	{0xE2, load8(operand(ModeIORegister), reg(RegA)), 8, 0},
	{0xF2, load8(reg(RegA), operand(ModeIORegister)), 8, 0},
	{0xEA, load8(operand(ModeAbsolute), reg(RegA)), 16, 0},
	{0xFA, load8(reg(RegA), operand(ModeAbsolute)), 16, 0},

	{0x08, load16(OpLD, operand(ModeAbsolute), pair(PairSP)), 20, 0},
	{0xF9, load16(OpLD, pair(PairSP), pair(PairHL)), 8, 0},

	{0x27, alu8(OpDAA, reg(RegA), Operand{}), 4, 0},
	{0x2F, alu8(OpCPL, reg(RegA), Operand{}), 4, 0},

	{0xE8, alu16(OpADD, pair(PairSP), disp), 16, 0},
	{0xF8, alu16(OpLD, pair(PairHL), operand(ModeSPDisplacement)), 12, 0},

	{0x07, rotate(OpRLCA, reg(RegA)), 4, 0},
	{0x0F, rotate(OpRRCA, reg(RegA)), 4, 0},
	{0x17, rotate(OpRLA, reg(RegA)), 4, 0},
	{0x1F, rotate(OpRRA, reg(RegA)), 4, 0},

	{0x18, jump(OpJR, CondAlways, disp), 12, 12},
	{0xC3, jump(OpJP, CondAlways, imm16), 16, 16},
	{0xE9, jump(OpJP, CondAlways, pair(PairHL)), 4, 4},
	{0xCD, jump(OpCALL, CondAlways, imm16), 24, 24},
	{0xC9, jump(OpRET, CondAlways, Operand{}), 16, 16},
	{0xD9, jump(OpRETI, CondAlways, Operand{}), 16, 16},
}

// unprefixedDefs expands the structured opcode blocks and appends the irregular rows.
func unprefixedDefs() []opcodeDef {
	var defs []opcodeDef

	for y := uint8(0); y < 8; y++ {
		target := registerOperands[y]
		rw, ld := uint8(4), uint8(8)
		if target.IsMemory() {
			rw, ld = 12, 12
		}
		defs = append(defs,
			opcodeDef{0x04 | y<<3, alu8(OpINC, target, Operand{}), rw, 0},
			opcodeDef{0x05 | y<<3, alu8(OpDEC, target, Operand{}), rw, 0},
			opcodeDef{0x06 | y<<3, load8(target, imm8), ld, 0},
			opcodeDef{0xC6 | y<<3, alu8(aluOps[y], reg(RegA), imm8), 8, 0},
			opcodeDef{0xC7 | y<<3, Instruction{Family: FamilyJump, Op: OpRST, Vector: uint16(y) * 8}, 16, 16},
		)
	}

	for p := uint8(0); p < 4; p++ {
		rr := pair(pairOperands[p])
		stack := pair(stackOperands[p])
		cond := conditions[p]
		defs = append(defs,
			opcodeDef{0x01 | p<<4, load16(OpLD, rr, imm16), 12, 0},
			opcodeDef{0x03 | p<<4, alu16(OpINC, rr, Operand{}), 8, 0},
			opcodeDef{0x0B | p<<4, alu16(OpDEC, rr, Operand{}), 8, 0},
			opcodeDef{0x09 | p<<4, alu16(OpADD, pair(PairHL), rr), 8, 0},
			opcodeDef{0xC1 | p<<4, load16(OpPOP, stack, Operand{}), 12, 0},
			opcodeDef{0xC5 | p<<4, load16(OpPUSH, Operand{}, stack), 16, 0},
			opcodeDef{0x20 | p<<3, jump(OpJR, cond, disp), 8, 12},
			opcodeDef{0xC0 | p<<3, jump(OpRET, cond, Operand{}), 8, 20},
			opcodeDef{0xC2 | p<<3, jump(OpJP, cond, imm16), 12, 16},
			opcodeDef{0xC4 | p<<3, jump(OpCALL, cond, imm16), 12, 24},
		)
	}

	// 0x40-0x7F: LD r,r' with HALT in place of LD (HL),(HL)
	for code := 0x40; code < 0x80; code++ {
		if code == 0x76 {
			continue
		}
		dst := registerOperands[bit.ExtractBits(uint8(code), 5, 3)]
		src := registerOperands[bit.ExtractBits(uint8(code), 2, 0)]
		cycles := uint8(4)
		if dst.IsMemory() || src.IsMemory() {
			cycles = 8
		}
		defs = append(defs, opcodeDef{uint8(code), load8(dst, src), cycles, 0})
	}

	// 0x80-0xBF: ALU A,r
	for code := 0x80; code < 0xC0; code++ {
		src := registerOperands[bit.ExtractBits(uint8(code), 2, 0)]
		cycles := uint8(4)
		if src.IsMemory() {
			cycles = 8
		}
		op := aluOps[bit.ExtractBits(uint8(code), 5, 3)]
		defs = append(defs, opcodeDef{uint8(code), alu8(op, reg(RegA), src), cycles, 0})
	}

	return append(defs, irregularOpcodes...)
}

// unprefixedTable is indexed by opcode, entries with FamilyInvalid are illegal.
var unprefixedTable = buildUnprefixedTable(unprefixedDefs())

func buildUnprefixedTable(defs []opcodeDef) [256]Instruction {
	var table [256]Instruction
	for _, def := range defs {
		if table[def.code].Valid() {
			panic(fmt.Sprintf("cpu: opcode 0x%02X defined twice (%s, %s)", def.code, table[def.code], def.ins))
		}
		if def.code == prefixByte {
			panic("cpu: 0xCB is reserved for the prefix")
		}
		ins := def.ins
		ins.Opcode = def.code
		ins.Length = 1 + ins.Dst.Size() + ins.Src.Size()
		ins.Cycles = def.cycles
		ins.BranchCycles = def.taken
		table[def.code] = ins
	}
	return table
}

// decodePrefixed derives a 0xCB instruction from its bit fields:
// bits 7-6 select the group, bits 5-3 the operation or bit index and bits 2-0 the target.
func decodePrefixed(opcode uint8) Instruction {
	target := registerOperands[bit.ExtractBits(opcode, 2, 0)]
	y := bit.ExtractBits(opcode, 5, 3)
	group := bit.ExtractBits(opcode, 7, 6)

	ins := Instruction{
		Dst:      target,
		Opcode:   opcode,
		Prefixed: true,
		Length:   2,
		Cycles:   8,
	}

	if group == 0 {
		ins.Family = FamilyRotateShift
		ins.Op = rotateOps[y]
	} else {
		ins.Family = FamilyBit
		ins.Op = bitOps[group]
		ins.Bit = y
	}

	if target.IsMemory() {
		ins.Cycles = 16
		if ins.Op == OpBIT {
			ins.Cycles = 12
		}
	}

	return ins
}
