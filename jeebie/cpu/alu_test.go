package cpu

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/jeebie-core/jeebie/memory"
)

func newTestCPU() (*CPU, *memory.RAM) {
	mmu := memory.New()
	return New(mmu), mmu
}

// unary covers the single operand helpers: inc, dec, rotates and shifts.
type unaryCase struct {
	desc    string
	initial Flag
	arg     uint8
	want    uint8
	flags   Flag
}

func runUnary(t *testing.T, fn func(*CPU, uint8) uint8, testCases []unaryCase) {
	t.Helper()
	cpu, _ := newTestCPU()
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.Flags = FlagsFromByte(uint8(tC.initial))
			got := fn(cpu, tC.arg)
			assert.Equal(t, tC.want, got)
			assert.Equalf(t, uint8(tC.flags), cpu.FlagsByte(), "flags don't match")
		})
	}
}

func TestCPU_inc(t *testing.T) {
	runUnary(t, (*CPU).inc, []unaryCase{
		{desc: "increases", arg: 0x0A, want: 0x0B},
		{desc: "sets zero flag", arg: 0xFF, want: 0, flags: zeroFlag | halfCarryFlag},
		{desc: "sets half carry flag", arg: 0x0F, want: 0x10, flags: halfCarryFlag},
		{desc: "resets subtract flag", initial: subFlag, arg: 0x01, want: 0x02},
		{desc: "keeps carry", initial: carryFlag, arg: 0x01, want: 0x02, flags: carryFlag},
	})
}

func TestCPU_dec(t *testing.T) {
	runUnary(t, (*CPU).dec, []unaryCase{
		{desc: "decreases", arg: 0x0A, want: 0x09, flags: subFlag},
		{desc: "sets half carry flag on wrap", arg: 0, want: 0xFF, flags: subFlag | halfCarryFlag},
		{desc: "sets half carry flag on nibble borrow", arg: 0x10, want: 0x0F, flags: subFlag | halfCarryFlag},
		{desc: "sets zero flag", arg: 0x01, want: 0, flags: subFlag | zeroFlag},
		{desc: "keeps carry", initial: carryFlag, arg: 0x05, want: 0x04, flags: subFlag | carryFlag},
	})
}

func TestCPU_rlc(t *testing.T) {
	runUnary(t, (*CPU).rlc, []unaryCase{
		{desc: "rotates bit 7 into carry and bit 0", arg: 0x85, want: 0x0B, flags: carryFlag},
		{desc: "sets zero flag", arg: 0, want: 0, flags: zeroFlag},
		{desc: "clears carry", initial: carryFlag, arg: 0x40, want: 0x80},
	})
}

func TestCPU_rrc(t *testing.T) {
	runUnary(t, (*CPU).rrc, []unaryCase{
		{desc: "rotates bit 0 into carry and bit 7", arg: 0x01, want: 0x80, flags: carryFlag},
		{desc: "rotates right", arg: 0x02, want: 0x01},
		{desc: "sets zero flag", initial: carryFlag, arg: 0, want: 0, flags: zeroFlag},
	})
}

func TestCPU_rl(t *testing.T) {
	runUnary(t, (*CPU).rl, []unaryCase{
		{desc: "rotates through carry", initial: carryFlag, arg: 0x80, want: 0x01, flags: carryFlag},
		{desc: "sets zero flag", arg: 0x80, want: 0, flags: zeroFlag | carryFlag},
		{desc: "shifts carry in", initial: carryFlag, arg: 0x11, want: 0x23},
	})
}

func TestCPU_rr(t *testing.T) {
	runUnary(t, (*CPU).rr, []unaryCase{
		{desc: "rotates through carry", initial: carryFlag, arg: 0x01, want: 0x80, flags: carryFlag},
		{desc: "sets zero flag", arg: 0x01, want: 0, flags: zeroFlag | carryFlag},
		{desc: "shifts carry in", initial: carryFlag, arg: 0x8A, want: 0xC5},
	})
}

func TestCPU_sla(t *testing.T) {
	runUnary(t, (*CPU).sla, []unaryCase{
		{desc: "sets zero and carry", arg: 0x80, want: 0, flags: zeroFlag | carryFlag},
		{desc: "shifts left", arg: 0xFF, want: 0xFE, flags: carryFlag},
		{desc: "ignores carry in", initial: carryFlag, arg: 0x01, want: 0x02},
	})
}

func TestCPU_sra(t *testing.T) {
	runUnary(t, (*CPU).sra, []unaryCase{
		{desc: "keeps bit 7", arg: 0x81, want: 0xC0, flags: carryFlag},
		{desc: "sets zero flag", arg: 0x01, want: 0, flags: zeroFlag | carryFlag},
		{desc: "shifts right", arg: 0x8A, want: 0xC5},
	})
}

func TestCPU_srl(t *testing.T) {
	runUnary(t, (*CPU).srl, []unaryCase{
		{desc: "sets zero flag", arg: 0x01, want: 0, flags: zeroFlag | carryFlag},
		{desc: "clears bit 7", arg: 0xFF, want: 0x7F, flags: carryFlag},
	})
}

func TestCPU_swap(t *testing.T) {
	runUnary(t, (*CPU).swap, []unaryCase{
		{desc: "swaps nibbles", arg: 0xF0, want: 0x0F},
		{desc: "sets zero flag", arg: 0, want: 0, flags: zeroFlag},
		{desc: "clears carry", initial: carryFlag | halfCarryFlag, arg: 0x12, want: 0x21},
	})
}

func TestCPU_rotateRoundTrip(t *testing.T) {
	cpu, _ := newTestCPU()
	for x := 0; x < 0x100; x++ {
		cpu.Flags = Flags{}
		rotated := cpu.rlc(uint8(x))
		cpu.Flags = Flags{}
		assert.Equal(t, uint8(x), cpu.rrc(rotated))
	}
}

// binaryCase covers the A,v helpers.
type binaryCase struct {
	desc    string
	initial Flag
	a       uint8
	arg     uint8
	want    uint8
	flags   Flag
}

func runBinary(t *testing.T, fn func(*CPU, uint8) uint8, testCases []binaryCase) {
	t.Helper()
	cpu, _ := newTestCPU()
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.Flags = FlagsFromByte(uint8(tC.initial))
			cpu.A = tC.a
			got := fn(cpu, tC.arg)
			assert.Equal(t, tC.want, got)
			assert.Equalf(t, uint8(tC.flags), cpu.FlagsByte(), "flags don't match")
		})
	}
}

func TestCPU_add(t *testing.T) {
	runBinary(t, (*CPU).add, []binaryCase{
		{desc: "sets zero, half carry and carry", a: 0x3A, arg: 0xC6, want: 0, flags: zeroFlag | halfCarryFlag | carryFlag},
		{desc: "sets half carry and carry", a: 0x3C, arg: 0xFF, want: 0x3B, flags: halfCarryFlag | carryFlag},
		{desc: "half carry from low nibble", a: 0x0F, arg: 0x01, want: 0x10, flags: halfCarryFlag},
		{desc: "no flags", initial: subFlag | carryFlag, a: 0x3C, arg: 0x12, want: 0x4E},
	})
}

func TestCPU_adc(t *testing.T) {
	runBinary(t, (*CPU).adc, []binaryCase{
		{desc: "adds carry", initial: carryFlag, a: 0xE1, arg: 0x3B, want: 0x1D, flags: carryFlag},
		{desc: "carry completes half carry", initial: carryFlag, a: 0x0E, arg: 0x01, want: 0x10, flags: halfCarryFlag},
		{desc: "without carry behaves like add", a: 0xE1, arg: 0x0F, want: 0xF0, flags: halfCarryFlag},
		{desc: "carry in wraps operand", initial: carryFlag, a: 0x01, arg: 0xFF, want: 0x01, flags: carryFlag},
	})
}

func TestCPU_sub(t *testing.T) {
	runBinary(t, (*CPU).sub, []binaryCase{
		{desc: "equal operands", a: 0x3E, arg: 0x3E, want: 0, flags: zeroFlag | subFlag | halfCarryFlag | carryFlag},
		{desc: "nibble borrow clears half carry", a: 0x3E, arg: 0x0F, want: 0x2F, flags: subFlag | carryFlag},
		{desc: "borrow clears carry", a: 0x3E, arg: 0x40, want: 0xFE, flags: subFlag | halfCarryFlag},
	})
}

func TestCPU_sbc(t *testing.T) {
	runBinary(t, (*CPU).sbc, []binaryCase{
		{desc: "subtracts carry", initial: carryFlag, a: 0x3B, arg: 0x2A, want: 0x10, flags: subFlag | halfCarryFlag | carryFlag},
		{desc: "borrow through carry", initial: carryFlag, a: 0x3B, arg: 0x3B, want: 0xFF, flags: subFlag},
		{desc: "without carry behaves like sub", a: 0x3B, arg: 0x3B, want: 0, flags: zeroFlag | subFlag | halfCarryFlag | carryFlag},
		{desc: "carry in wraps operand", initial: carryFlag, a: 0x10, arg: 0xFF, want: 0x10, flags: subFlag | halfCarryFlag},
	})
}

func TestCPU_and(t *testing.T) {
	runBinary(t, (*CPU).and, []binaryCase{
		{desc: "always sets half carry", a: 0x5A, arg: 0x3F, want: 0x1A, flags: halfCarryFlag},
		{desc: "sets zero flag", initial: carryFlag, a: 0x5A, arg: 0, want: 0, flags: zeroFlag | halfCarryFlag},
	})
}

func TestCPU_or(t *testing.T) {
	runBinary(t, (*CPU).or, []binaryCase{
		{desc: "ors", initial: carryFlag | halfCarryFlag, a: 0x5A, arg: 0x0F, want: 0x5F},
		{desc: "sets zero flag", a: 0, arg: 0, want: 0, flags: zeroFlag},
	})
}

func TestCPU_xor(t *testing.T) {
	runBinary(t, (*CPU).xor, []binaryCase{
		{desc: "sets zero flag", a: 0xFF, arg: 0xFF, want: 0, flags: zeroFlag},
		{desc: "xors", initial: subFlag, a: 0xFF, arg: 0x0F, want: 0xF0},
	})
}

func TestCPU_cp(t *testing.T) {
	cp := func(c *CPU, v uint8) uint8 {
		c.cp(v)
		return c.A
	}
	runBinary(t, cp, []binaryCase{
		{desc: "greater", a: 0x3C, arg: 0x2F, want: 0x3C, flags: subFlag},
		{desc: "equal", a: 0x3C, arg: 0x3C, want: 0x3C, flags: zeroFlag | subFlag | halfCarryFlag},
		{desc: "less sets carry", a: 0x3C, arg: 0x40, want: 0x3C, flags: subFlag | halfCarryFlag | carryFlag},
	})
}

func TestCPU_addExhaustive(t *testing.T) {
	cpu, _ := newTestCPU()
	for a := 0; a < 0x100; a++ {
		for v := 0; v < 0x100; v++ {
			cpu.A = uint8(a)
			got := cpu.add(uint8(v))
			want := Flags{
				Zero:      (a+v)&0xFF == 0,
				HalfCarry: (a&0xF)+(v&0xF) > 0xF,
				Carry:     a+v > 0xFF,
			}
			if got != uint8(a+v) || cpu.Flags != want {
				t.Fatalf("ADD A=0x%02X,0x%02X = 0x%02X [%s]; want 0x%02X [%s]", a, v, got, cpu.Flags, uint8(a+v), want)
			}
		}
	}
}

func TestCPU_subExhaustive(t *testing.T) {
	cpu, _ := newTestCPU()
	for a := 0; a < 0x100; a++ {
		for v := 0; v < 0x100; v++ {
			cpu.A = uint8(a)
			got := cpu.sub(uint8(v))
			want := Flags{
				Zero:      a == v,
				Subtract:  true,
				HalfCarry: a&0xF >= v&0xF,
				Carry:     a >= v,
			}
			if got != uint8(a-v) || cpu.Flags != want {
				t.Fatalf("SUB A=0x%02X,0x%02X = 0x%02X [%s]; want 0x%02X [%s]", a, v, got, cpu.Flags, uint8(a-v), want)
			}
		}
	}
}

func TestCPU_addToHL(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc  string
		hl    uint16
		arg   uint16
		want  uint16
		flags Flag
	}{
		{desc: "half carry from bit 11", hl: 0x8A23, arg: 0x0605, want: 0x9028, flags: halfCarryFlag},
		{desc: "carry from bit 15", hl: 0x8A23, arg: 0x8A23, want: 0x1446, flags: halfCarryFlag | carryFlag},
		{desc: "wraps to zero", hl: 0xFFFF, arg: 0x0001, want: 0, flags: zeroFlag | halfCarryFlag | carryFlag},
		{desc: "clears subtract", hl: 0x0001, arg: 0x0001, want: 0x0002},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.Flags = Flags{Subtract: true}
			cpu.SetPair(PairHL, tC.hl)
			cpu.addToHL(tC.arg)
			assert.Equal(t, tC.want, cpu.Pair(PairHL))
			assert.Equalf(t, uint8(tC.flags), cpu.FlagsByte(), "flags don't match")
		})
	}
}

func TestCPU_addToSP(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc   string
		sp     uint16
		offset int8
		want   uint16
		flags  Flag
	}{
		{desc: "positive offset", sp: 0xFFF8, offset: 2, want: 0xFFFA},
		{desc: "carries out of low byte", sp: 0x00FF, offset: 1, want: 0x0100, flags: halfCarryFlag | carryFlag},
		{desc: "negative offset", sp: 0x0000, offset: -1, want: 0xFFFF},
		{desc: "negative offset with carries", sp: 0x1234, offset: -4, want: 0x1230, flags: halfCarryFlag | carryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.Flags = Flags{Zero: true, Subtract: true}
			cpu.SP = tC.sp
			assert.Equal(t, tC.want, cpu.addToSP(tC.offset))
			assert.Equal(t, tC.sp, cpu.SP)
			assert.Equalf(t, uint8(tC.flags), cpu.FlagsByte(), "flags don't match")
		})
	}
}

func TestCPU_daa(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc         string
		initialFlags Flag
		a            uint8
		want         uint8
		flags        Flag
	}{
		{desc: "sets zero flag", a: 0, want: 0, flags: zeroFlag},
		{desc: "(add) adds 0x06", a: 0x7d, want: 0x83},
		{desc: "(add) adds 0x60", a: 0xa1, want: 0x01, flags: carryFlag},
		{desc: "(add) adds 0x66", a: 0xaa, want: 0x10, flags: carryFlag},
		{desc: "(add+half) adds 0x06", initialFlags: halfCarryFlag, a: 0x12, want: 0x18},
		{desc: "(sub) half borrow removes 0x06", initialFlags: subFlag | carryFlag, a: 0x0f, want: 0x09, flags: subFlag | carryFlag},
		{desc: "(sub) borrow removes 0x60", initialFlags: subFlag | halfCarryFlag, a: 0xf5, want: 0x95, flags: subFlag},
		{desc: "(sub) both borrows remove 0x66", initialFlags: subFlag, a: 0x67, want: 0x01, flags: subFlag},
		{desc: "(sub) no borrow leaves A", initialFlags: subFlag | halfCarryFlag | carryFlag, a: 0x42, want: 0x42, flags: subFlag | carryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.Flags = FlagsFromByte(uint8(tC.initialFlags))
			cpu.A = tC.a
			cpu.daa()
			assert.Equal(t, tC.want, cpu.A)
			assert.Equalf(t, uint8(tC.flags), cpu.FlagsByte(), "flags don't match")
		})
	}
}

func toBCD(n int) uint8 {
	return uint8(n/10)<<4 | uint8(n%10)
}

func TestCPU_daaAddition(t *testing.T) {
	cpu, _ := newTestCPU()
	f := func(x, y uint8) bool {
		a, b := int(x)%100, int(y)%100
		cpu.A = toBCD(a)
		cpu.A = cpu.add(toBCD(b))
		cpu.daa()
		return cpu.A == toBCD((a+b)%100) && cpu.Flags.Carry == (a+b >= 100)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestCPU_daaSubtraction(t *testing.T) {
	cpu, _ := newTestCPU()
	f := func(x, y uint8) bool {
		a, b := int(x)%100, int(y)%100
		cpu.A = toBCD(a)
		cpu.A = cpu.sub(toBCD(b))
		cpu.daa()
		return cpu.A == toBCD((a-b+100)%100) && cpu.Flags.Carry == (a >= b)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestCPU_bitTest(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc    string
		initial Flag
		idx     uint8
		arg     uint8
		flags   Flag
	}{
		{desc: "sets zero flag", idx: 0, arg: 0xF0, flags: zeroFlag | halfCarryFlag},
		{desc: "resets zero flag", initial: zeroFlag, idx: 7, arg: 0x80, flags: halfCarryFlag},
		{desc: "keeps carry", initial: carryFlag | subFlag, idx: 7, arg: 0x00, flags: zeroFlag | halfCarryFlag | carryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.Flags = FlagsFromByte(uint8(tC.initial))
			cpu.bitTest(tC.idx, tC.arg)
			assert.Equalf(t, uint8(tC.flags), cpu.FlagsByte(), "flags don't match")
		})
	}
}

func TestCPU_cpl(t *testing.T) {
	cpu, _ := newTestCPU()
	cpu.A = 0x35
	cpu.Flags = Flags{Zero: true, Carry: true}
	cpu.cpl()
	assert.Equal(t, uint8(0xCA), cpu.A)
	assert.Equal(t, Flags{Zero: true, Subtract: true, HalfCarry: true, Carry: true}, cpu.Flags)
}
