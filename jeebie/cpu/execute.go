package cpu

import (
	"github.com/valerio/jeebie-core/jeebie/addr"
	"github.com/valerio/jeebie-core/jeebie/bit"
)

// execute runs a decoded instruction located at PC and returns the address
// of the next one along with the cycles spent. PC itself is left to the caller.
// Unsupported instructions are rejected before any state is touched.
func (c *CPU) execute(ins Instruction) (uint16, int, error) {
	next := c.PC + uint16(ins.Length)
	cycles := int(ins.Cycles)

	var ok bool
	switch ins.Family {
	case FamilyLoad8:
		ok = c.load8(ins)
	case FamilyLoad16:
		ok = c.load16(ins)
	case FamilyALU8:
		ok = c.alu8(ins)
	case FamilyALU16:
		ok = c.alu16(ins)
	case FamilyRotateShift:
		ok = c.rotateShift(ins)
	case FamilyBit:
		ok = c.bitOp(ins)
	case FamilyControl:
		ok = c.control(ins)
	case FamilyJump:
		return c.jump(ins, next)
	}

	if !ok {
		return 0, 0, &UnimplementedError{Instruction: ins, Address: c.PC}
	}
	return next, cycles, nil
}

// address resolves the memory cell an operand points to.
func (c *CPU) address(o Operand) uint16 {
	switch o.Mode {
	case ModeIndirect, ModeIndirectInc, ModeIndirectDec:
		return c.Pair(o.Pair)
	case ModeAbsolute:
		return c.peekImmediateWord()
	case ModeIOImmediate:
		return addr.IOBase + uint16(c.peekImmediate())
	case ModeIORegister:
		return addr.IOBase + uint16(c.C)
	}
	panic("cpu: operand " + o.format(0, false) + " has no address")
}

func (c *CPU) read8(o Operand) uint8 {
	switch o.Mode {
	case ModeRegister:
		return c.Get(o.Reg)
	case ModeImmediate:
		return c.peekImmediate()
	}
	return c.bus.Read(c.address(o))
}

func (c *CPU) write8(o Operand, value uint8) {
	if o.Mode == ModeRegister {
		c.Set(o.Reg, value)
		return
	}
	c.bus.Write(c.address(o), value)
}

// postIndex applies the HL increment/decrement of the (HL+) and (HL-) forms.
func (c *CPU) postIndex(o Operand) {
	switch o.Mode {
	case ModeIndirectInc:
		c.SetPair(PairHL, c.Pair(PairHL)+1)
	case ModeIndirectDec:
		c.SetPair(PairHL, c.Pair(PairHL)-1)
	}
}

// condition reports whether a conditional branch is taken.
func (c *CPU) condition(cond Condition) bool {
	switch cond {
	case CondNZ:
		return !c.Flags.Zero
	case CondZ:
		return c.Flags.Zero
	case CondNC:
		return !c.Flags.Carry
	case CondC:
		return c.Flags.Carry
	}
	return true
}

func (c *CPU) load8(ins Instruction) bool {
	if ins.Op != OpLD {
		return false
	}
	c.write8(ins.Dst, c.read8(ins.Src))
	c.postIndex(ins.Src)
	c.postIndex(ins.Dst)
	return true
}

func (c *CPU) load16(ins Instruction) bool {
	switch ins.Op {
	case OpLD:
		switch {
		case ins.Dst.Mode == ModePair && ins.Src.Mode == ModeImmediateWord:
			c.SetPair(ins.Dst.Pair, c.peekImmediateWord())
		case ins.Dst.Mode == ModePair && ins.Src.Mode == ModePair:
			c.SetPair(ins.Dst.Pair, c.Pair(ins.Src.Pair))
		case ins.Dst.Mode == ModeAbsolute && ins.Src.Mode == ModePair:
			address := c.peekImmediateWord()
			value := c.Pair(ins.Src.Pair)
			c.bus.Write(address, bit.Low(value))
			c.bus.Write(address+1, bit.High(value))
		default:
			return false
		}
	case OpPUSH:
		c.pushStack(c.Pair(ins.Src.Pair))
	case OpPOP:
		c.SetPair(ins.Dst.Pair, c.popStack())
	default:
		return false
	}
	return true
}

func (c *CPU) alu8(ins Instruction) bool {
	switch ins.Op {
	case OpADD:
		c.A = c.add(c.read8(ins.Src))
	case OpADC:
		c.A = c.adc(c.read8(ins.Src))
	case OpSUB:
		c.A = c.sub(c.read8(ins.Src))
	case OpSBC:
		c.A = c.sbc(c.read8(ins.Src))
	case OpAND:
		c.A = c.and(c.read8(ins.Src))
	case OpXOR:
		c.A = c.xor(c.read8(ins.Src))
	case OpOR:
		c.A = c.or(c.read8(ins.Src))
	case OpCP:
		c.cp(c.read8(ins.Src))
	case OpINC:
		c.write8(ins.Dst, c.inc(c.read8(ins.Dst)))
	case OpDEC:
		c.write8(ins.Dst, c.dec(c.read8(ins.Dst)))
	case OpDAA:
		c.daa()
	case OpCPL:
		c.cpl()
	default:
		return false
	}
	return true
}

func (c *CPU) alu16(ins Instruction) bool {
	switch {
	case ins.Op == OpADD && ins.Dst.Pair == PairHL:
		c.addToHL(c.Pair(ins.Src.Pair))
	case ins.Op == OpADD && ins.Dst.Pair == PairSP:
		c.SP = c.addToSP(c.peekSignedImmediate())
	case ins.Op == OpLD:
		c.SetPair(ins.Dst.Pair, c.addToSP(c.peekSignedImmediate()))
	case ins.Op == OpINC:
		c.SetPair(ins.Dst.Pair, c.Pair(ins.Dst.Pair)+1)
	case ins.Op == OpDEC:
		c.SetPair(ins.Dst.Pair, c.Pair(ins.Dst.Pair)-1)
	default:
		return false
	}
	return true
}

func (c *CPU) rotateShift(ins Instruction) bool {
	var fn func(uint8) uint8
	accumulator := false

	switch ins.Op {
	case OpRLCA:
		fn, accumulator = c.rlc, true
	case OpRRCA:
		fn, accumulator = c.rrc, true
	case OpRLA:
		fn, accumulator = c.rl, true
	case OpRRA:
		fn, accumulator = c.rr, true
	case OpRLC:
		fn = c.rlc
	case OpRRC:
		fn = c.rrc
	case OpRL:
		fn = c.rl
	case OpRR:
		fn = c.rr
	case OpSLA:
		fn = c.sla
	case OpSRA:
		fn = c.sra
	case OpSWAP:
		fn = c.swap
	case OpSRL:
		fn = c.srl
	default:
		return false
	}

	c.write8(ins.Dst, fn(c.read8(ins.Dst)))
	// the one byte accumulator forms always clear Z
	if accumulator {
		c.Flags.Zero = false
	}
	return true
}

func (c *CPU) bitOp(ins Instruction) bool {
	switch ins.Op {
	case OpBIT:
		c.bitTest(ins.Bit, c.read8(ins.Dst))
	case OpRES:
		c.write8(ins.Dst, bit.Reset(ins.Bit, c.read8(ins.Dst)))
	case OpSET:
		c.write8(ins.Dst, bit.Set(ins.Bit, c.read8(ins.Dst)))
	default:
		return false
	}
	return true
}

func (c *CPU) control(ins Instruction) bool {
	switch ins.Op {
	case OpNOP:
	case OpHALT:
		c.halted = true
	case OpSTOP:
		c.stopped = true
	case OpDI:
		c.interruptsEnabled = false
		c.eiPending = false
	case OpEI:
		c.eiPending = true
	case OpSCF:
		c.Flags.Subtract = false
		c.Flags.HalfCarry = false
		c.Flags.Carry = true
	case OpCCF:
		c.Flags.Subtract = false
		c.Flags.HalfCarry = false
		c.Flags.Carry = !c.Flags.Carry
	default:
		return false
	}
	return true
}

// jump handles every instruction that may move PC somewhere other than next.
func (c *CPU) jump(ins Instruction, next uint16) (uint16, int, error) {
	if !c.condition(ins.Cond) {
		return next, int(ins.Cycles), nil
	}
	taken := int(ins.BranchCycles)

	switch ins.Op {
	case OpJP:
		if ins.Dst.Mode == ModePair {
			return c.Pair(ins.Dst.Pair), taken, nil
		}
		return c.peekImmediateWord(), taken, nil
	case OpJR:
		return bit.AddSigned(next, c.peekSignedImmediate()), taken, nil
	case OpCALL:
		target := c.peekImmediateWord()
		c.pushStack(next)
		return target, taken, nil
	case OpRET:
		return c.popStack(), taken, nil
	case OpRETI:
		c.interruptsEnabled = true
		return c.popStack(), taken, nil
	case OpRST:
		c.pushStack(next)
		return ins.Vector, taken, nil
	}

	return 0, 0, &UnimplementedError{Instruction: ins, Address: c.PC}
}
