package cpu

// Flag is one of the 4 possible flags used in the flag register (high part of AF)
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

// Flags is the unpacked form of the F register. Only bits 7-4 of the packed
// byte are meaningful, the low nibble always reads back as zero.
type Flags struct {
	Zero      bool
	Subtract  bool
	HalfCarry bool
	Carry     bool
}

// FlagsFromByte unpacks the F register. The low nibble is discarded.
func FlagsFromByte(value uint8) Flags {
	return Flags{
		Zero:      value&uint8(zeroFlag) != 0,
		Subtract:  value&uint8(subFlag) != 0,
		HalfCarry: value&uint8(halfCarryFlag) != 0,
		Carry:     value&uint8(carryFlag) != 0,
	}
}

// Byte packs the flags back into the F register layout.
func (f Flags) Byte() uint8 {
	var value Flag
	if f.Zero {
		value |= zeroFlag
	}
	if f.Subtract {
		value |= subFlag
	}
	if f.HalfCarry {
		value |= halfCarryFlag
	}
	if f.Carry {
		value |= carryFlag
	}
	return uint8(value)
}

// String returns a human-readable representation of the flag register, e.g. "Z-H-".
func (f Flags) String() string {
	out := []byte("----")
	if f.Zero {
		out[0] = 'Z'
	}
	if f.Subtract {
		out[1] = 'N'
	}
	if f.HalfCarry {
		out[2] = 'H'
	}
	if f.Carry {
		out[3] = 'C'
	}
	return string(out)
}
