package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/jeebie-core/jeebie/memory"
)

var illegalOpcodes = []uint8{0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD}

func TestDecode_unprefixedTable(t *testing.T) {
	illegal := map[uint8]bool{prefixByte: true}
	for _, code := range illegalOpcodes {
		illegal[code] = true
	}

	for code := 0; code < 0x100; code++ {
		ins, err := Decode(uint8(code), false)
		if illegal[uint8(code)] {
			require.Error(t, err, "opcode 0x%02X", code)
			assert.ErrorIs(t, err, ErrIllegalOpcode)
			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, uint8(code), decodeErr.Opcode)
			assert.False(t, decodeErr.Prefixed)
			continue
		}

		require.NoError(t, err, "opcode 0x%02X", code)
		assert.True(t, ins.Valid(), "opcode 0x%02X", code)
		assert.Equal(t, uint8(code), ins.Opcode)
		assert.False(t, ins.Prefixed)
		assert.NotZero(t, ins.Cycles, "opcode 0x%02X has no cycle count", code)
		assert.GreaterOrEqual(t, ins.Length, uint8(1))
		assert.LessOrEqual(t, ins.Length, uint8(3))
	}
}

func TestDecode_prefixedTable(t *testing.T) {
	for code := 0; code < 0x100; code++ {
		ins, err := Decode(uint8(code), true)
		require.NoError(t, err, "opcode 0xCB%02X", code)
		assert.True(t, ins.Valid())
		assert.True(t, ins.Prefixed)
		assert.Equal(t, uint8(2), ins.Length)
		assert.Equal(t, uint16(0xCB00|code), ins.Code())
	}
}

func TestDecode_mnemonics(t *testing.T) {
	testCases := []struct {
		code     uint8
		prefixed bool
		want     string
		length   uint8
		cycles   uint8
		taken    uint8
	}{
		{code: 0x00, want: "NOP", length: 1, cycles: 4},
		{code: 0x01, want: "LD BC,nn", length: 3, cycles: 12},
		{code: 0x07, want: "RLCA", length: 1, cycles: 4},
		{code: 0x08, want: "LD (nn),SP", length: 3, cycles: 20},
		{code: 0x09, want: "ADD HL,BC", length: 1, cycles: 8},
		{code: 0x10, want: "STOP", length: 2, cycles: 4},
		{code: 0x18, want: "JR e", length: 2, cycles: 12, taken: 12},
		{code: 0x20, want: "JR NZ,e", length: 2, cycles: 8, taken: 12},
		{code: 0x22, want: "LD (HL+),A", length: 1, cycles: 8},
		{code: 0x27, want: "DAA", length: 1, cycles: 4},
		{code: 0x34, want: "INC (HL)", length: 1, cycles: 12},
		{code: 0x36, want: "LD (HL),n", length: 2, cycles: 12},
		{code: 0x3A, want: "LD A,(HL-)", length: 1, cycles: 8},
		{code: 0x3B, want: "DEC SP", length: 1, cycles: 8},
		{code: 0x76, want: "HALT", length: 1, cycles: 4},
		{code: 0x7E, want: "LD A,(HL)", length: 1, cycles: 8},
		{code: 0x41, want: "LD B,C", length: 1, cycles: 4},
		{code: 0x86, want: "ADD A,(HL)", length: 1, cycles: 8},
		{code: 0x90, want: "SUB B", length: 1, cycles: 4},
		{code: 0x9F, want: "SBC A,A", length: 1, cycles: 4},
		{code: 0xBF, want: "CP A", length: 1, cycles: 4},
		{code: 0xC0, want: "RET NZ", length: 1, cycles: 8, taken: 20},
		{code: 0xC3, want: "JP nn", length: 3, cycles: 16, taken: 16},
		{code: 0xC4, want: "CALL NZ,nn", length: 3, cycles: 12, taken: 24},
		{code: 0xCD, want: "CALL nn", length: 3, cycles: 24, taken: 24},
		{code: 0xD9, want: "RETI", length: 1, cycles: 16, taken: 16},
		{code: 0xDA, want: "JP C,nn", length: 3, cycles: 12, taken: 16},
		{code: 0xE0, want: "LD ($FF00+n),A", length: 2, cycles: 12},
		{code: 0xE2, want: "LD ($FF00+C),A", length: 1, cycles: 8},
		{code: 0xE6, want: "AND n", length: 2, cycles: 8},
		{code: 0xE8, want: "ADD SP,e", length: 2, cycles: 16},
		{code: 0xE9, want: "JP HL", length: 1, cycles: 4, taken: 4},
		{code: 0xEA, want: "LD (nn),A", length: 3, cycles: 16},
		{code: 0xF1, want: "POP AF", length: 1, cycles: 12},
		{code: 0xF5, want: "PUSH AF", length: 1, cycles: 16},
		{code: 0xF8, want: "LD HL,SP+e", length: 2, cycles: 12},
		{code: 0xF9, want: "LD SP,HL", length: 1, cycles: 8},
		{code: 0xFF, want: "RST $38", length: 1, cycles: 16, taken: 16},
		{code: 0x7C, prefixed: true, want: "BIT 7,H", length: 2, cycles: 8},
		{code: 0x46, prefixed: true, want: "BIT 0,(HL)", length: 2, cycles: 12},
		{code: 0x11, prefixed: true, want: "RL C", length: 2, cycles: 8},
		{code: 0x37, prefixed: true, want: "SWAP A", length: 2, cycles: 8},
		{code: 0x86, prefixed: true, want: "RES 0,(HL)", length: 2, cycles: 16},
		{code: 0xFF, prefixed: true, want: "SET 7,A", length: 2, cycles: 8},
	}
	for _, tC := range testCases {
		t.Run(tC.want, func(t *testing.T) {
			ins, err := Decode(tC.code, tC.prefixed)
			require.NoError(t, err)
			assert.Equal(t, tC.want, ins.String())
			assert.Equal(t, tC.length, ins.Length)
			assert.Equal(t, tC.cycles, ins.Cycles)
			assert.Equal(t, tC.taken, ins.BranchCycles)
		})
	}
}

func TestDecode_prefixedFields(t *testing.T) {
	ins, err := Decode(0x7C, true)
	require.NoError(t, err)
	assert.Equal(t, FamilyBit, ins.Family)
	assert.Equal(t, OpBIT, ins.Op)
	assert.Equal(t, uint8(7), ins.Bit)
	assert.Equal(t, reg(RegH), ins.Dst)

	ins, err = Decode(0x0E, true)
	require.NoError(t, err)
	assert.Equal(t, FamilyRotateShift, ins.Family)
	assert.Equal(t, OpRRC, ins.Op)
	assert.Equal(t, indirect(PairHL), ins.Dst)
	assert.Equal(t, uint8(16), ins.Cycles)
}

func TestInstruction_Format(t *testing.T) {
	testCases := []struct {
		code  uint8
		value uint16
		want  string
	}{
		{code: 0x20, value: 0xFB, want: "JR NZ,-5"},
		{code: 0x18, value: 0x05, want: "JR +5"},
		{code: 0xC3, value: 0x1234, want: "JP $1234"},
		{code: 0xE0, value: 0x44, want: "LD ($FF44),A"},
		{code: 0x3E, value: 0x2A, want: "LD A,$2A"},
		{code: 0xFA, value: 0xC000, want: "LD A,($C000)"},
		{code: 0xF8, value: 0xFE, want: "LD HL,SP-2"},
		{code: 0x00, value: 0, want: "NOP"},
	}
	for _, tC := range testCases {
		t.Run(tC.want, func(t *testing.T) {
			ins, err := Decode(tC.code, false)
			require.NoError(t, err)
			assert.Equal(t, tC.want, ins.Format(tC.value))
		})
	}
}

func TestFetch(t *testing.T) {
	tests := []struct {
		name           string
		memorySetup    map[uint16]uint8
		pc             uint16
		expectedOpcode uint16
	}{
		{
			name:           "NOP",
			memorySetup:    map[uint16]uint8{0xC000: 0x00},
			pc:             0xC000,
			expectedOpcode: 0x00,
		},
		{
			name:           "INC B",
			memorySetup:    map[uint16]uint8{0xC000: 0x04},
			pc:             0xC000,
			expectedOpcode: 0x04,
		},
		{
			name:           "CB BIT 0,B",
			memorySetup:    map[uint16]uint8{0xC000: 0xCB, 0xC001: 0x40},
			pc:             0xC000,
			expectedOpcode: 0xCB40,
		},
		{
			name:           "CB at page boundary",
			memorySetup:    map[uint16]uint8{0xC0FF: 0xCB, 0xC100: 0x80},
			pc:             0xC0FF,
			expectedOpcode: 0xCB80,
		},
		{
			name:           "CB at end of address space",
			memorySetup:    map[uint16]uint8{0xFFFF: 0xCB, 0x0000: 0xFF},
			pc:             0xFFFF,
			expectedOpcode: 0xCBFF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mmu := memory.New()
			for address, value := range tt.memorySetup {
				mmu.Write(address, value)
			}

			ins, err := Fetch(mmu, tt.pc)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedOpcode, ins.Code())
		})
	}
}

func TestFetch_illegalCarriesAddress(t *testing.T) {
	mmu := memory.New()
	mmu.Write(0x1234, 0xDD)

	_, err := Fetch(mmu, 0x1234)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, uint16(0x1234), decodeErr.Address)
	assert.Equal(t, uint8(0xDD), decodeErr.Opcode)
	assert.EqualError(t, err, "illegal opcode 0xDD at 0x1234")
}
