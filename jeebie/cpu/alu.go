package cpu

import (
	"github.com/valerio/jeebie-core/jeebie/bit"
)

// add performs A + value.
//
// Flags: Z0HC
func (c *CPU) add(value uint8) uint8 {
	a := c.A
	result, carry := bit.CheckedAdd(a, value)
	c.Flags = Flags{
		Zero:      result == 0,
		HalfCarry: (a&0xF)+(value&0xF) > 0xF,
		Carry:     carry,
	}
	return result
}

// adc performs A + value + carry. The carry is folded into the operand
// first, an overflow in either addition sets C.
//
// Flags: Z0HC
func (c *CPU) adc(value uint8) uint8 {
	a := c.A
	operand, foldCarry := bit.CheckedAdd(value, bit.FromBool(c.Flags.Carry))
	result, carry := bit.CheckedAdd(a, operand)
	c.Flags = Flags{
		Zero:      result == 0,
		HalfCarry: (a&0xF)+(operand&0xF) > 0xF,
		Carry:     foldCarry || carry,
	}
	return result
}

// sub performs A - value. H and C are set when there is no borrow.
//
// Flags: Z1HC
func (c *CPU) sub(value uint8) uint8 {
	a := c.A
	result, borrow := bit.CheckedSub(a, value)
	c.Flags = Flags{
		Zero:      result == 0,
		Subtract:  true,
		HalfCarry: a&0xF >= value&0xF,
		Carry:     !borrow,
	}
	return result
}

// sbc performs A - (value + carry), the carry folded into the operand as in adc.
//
// Flags: Z1HC
func (c *CPU) sbc(value uint8) uint8 {
	a := c.A
	operand, foldCarry := bit.CheckedAdd(value, bit.FromBool(c.Flags.Carry))
	result, borrow := bit.CheckedSub(a, operand)
	c.Flags = Flags{
		Zero:      result == 0,
		Subtract:  true,
		HalfCarry: a&0xF >= operand&0xF,
		Carry:     !(foldCarry || borrow),
	}
	return result
}

// Flags: Z010
func (c *CPU) and(value uint8) uint8 {
	result := c.A & value
	c.Flags = Flags{Zero: result == 0, HalfCarry: true}
	return result
}

// Flags: Z000
func (c *CPU) or(value uint8) uint8 {
	result := c.A | value
	c.Flags = Flags{Zero: result == 0}
	return result
}

// Flags: Z000
func (c *CPU) xor(value uint8) uint8 {
	result := c.A ^ value
	c.Flags = Flags{Zero: result == 0}
	return result
}

// cp compares A with value, A is left untouched.
//
// Flags: Z1HC
func (c *CPU) cp(value uint8) {
	a := c.A
	c.Flags = Flags{
		Zero:      a == value,
		Subtract:  true,
		HalfCarry: a&0xF >= value&0xF,
		Carry:     a < value,
	}
}

// inc increments value, the carry flag is left untouched.
//
// Flags: Z0H-
func (c *CPU) inc(value uint8) uint8 {
	result := value + 1
	c.Flags.Zero = result == 0
	c.Flags.Subtract = false
	c.Flags.HalfCarry = result&0xF == 0
	return result
}

// dec decrements value, H is set on a borrow from bit 4.
//
// Flags: Z1H-
func (c *CPU) dec(value uint8) uint8 {
	result := value - 1
	c.Flags.Zero = result == 0
	c.Flags.Subtract = true
	c.Flags.HalfCarry = result&0xF == 0xF
	return result
}

// addToHL performs HL + value.
//
// Flags: Z0HC
func (c *CPU) addToHL(value uint16) {
	hl := c.Pair(PairHL)
	result, carry := bit.CheckedAdd16(hl, value)
	c.Flags = Flags{
		Zero:      result == 0,
		HalfCarry: (hl&0xFFF)+(value&0xFFF) > 0xFFF,
		Carry:     carry,
	}
	c.SetPair(PairHL, result)
}

// addToSP returns SP + offset, used by ADD SP,e and LD HL,SP+e.
// H and C come from the unsigned addition of the low byte of SP and the offset.
//
// Flags: 00HC
func (c *CPU) addToSP(offset int8) uint16 {
	low := bit.Low(c.SP)
	unsigned := uint8(offset)
	c.Flags = Flags{
		HalfCarry: (low&0xF)+(unsigned&0xF) > 0xF,
		Carry:     uint16(low)+uint16(unsigned) > 0xFF,
	}
	return bit.AddSigned(c.SP, offset)
}

// daa adjusts A back into packed BCD after an addition or subtraction.
// After a subtraction H and C hold "no borrow", so a clear flag means the
// matching digit has to be corrected.
//
// Flags: Z-0C
func (c *CPU) daa() {
	a := c.A
	carry := c.Flags.Carry

	if !c.Flags.Subtract {
		if c.Flags.Carry || a > 0x99 {
			a += 0x60
			carry = true
		}
		if c.Flags.HalfCarry || a&0xF > 0x9 {
			a += 0x06
		}
	} else {
		if !c.Flags.Carry {
			a -= 0x60
		}
		if !c.Flags.HalfCarry {
			a -= 0x06
		}
	}

	c.A = a
	c.Flags.Zero = a == 0
	c.Flags.HalfCarry = false
	c.Flags.Carry = carry
}

// Flags: -11-
func (c *CPU) cpl() {
	c.A = ^c.A
	c.Flags.Subtract = true
	c.Flags.HalfCarry = true
}

// bitTest sets Z when the selected bit is 0.
//
// Flags: Z01-
func (c *CPU) bitTest(index, value uint8) {
	c.Flags.Zero = !bit.IsSet(index, value)
	c.Flags.Subtract = false
	c.Flags.HalfCarry = true
}

// shifted stores the result of a rotate or shift, C receives the bit pushed out.
//
// Flags: Z00C
func (c *CPU) shifted(result uint8, carry bool) uint8 {
	c.Flags = Flags{Zero: result == 0, Carry: carry}
	return result
}

// rlc rotates left, bit 7 goes both to bit 0 and C.
func (c *CPU) rlc(value uint8) uint8 {
	return c.shifted(value<<1|value>>7, bit.IsSet(7, value))
}

// rrc rotates right, bit 0 goes both to bit 7 and C.
func (c *CPU) rrc(value uint8) uint8 {
	return c.shifted(value>>1|value<<7, bit.IsSet(0, value))
}

// rl rotates left through the carry.
func (c *CPU) rl(value uint8) uint8 {
	return c.shifted(value<<1|bit.FromBool(c.Flags.Carry), bit.IsSet(7, value))
}

// rr rotates right through the carry.
func (c *CPU) rr(value uint8) uint8 {
	return c.shifted(value>>1|bit.FromBool(c.Flags.Carry)<<7, bit.IsSet(0, value))
}

func (c *CPU) sla(value uint8) uint8 {
	return c.shifted(value<<1, bit.IsSet(7, value))
}

// sra shifts right keeping bit 7.
func (c *CPU) sra(value uint8) uint8 {
	return c.shifted(value>>1|value&0x80, bit.IsSet(0, value))
}

func (c *CPU) srl(value uint8) uint8 {
	return c.shifted(value>>1, bit.IsSet(0, value))
}

func (c *CPU) swap(value uint8) uint8 {
	return c.shifted(bit.SwapNibbles(value), false)
}
