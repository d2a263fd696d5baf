package cpu

// Decode maps an opcode byte to its instruction. prefixed selects the 0xCB
// table, where every byte is valid. In the unprefixed table the 11 unused
// opcodes and the 0xCB escape itself are illegal and yield a *DecodeError
// (the address is filled in by the caller that knows it).
func Decode(opcode uint8, prefixed bool) (Instruction, error) {
	if prefixed {
		return decodePrefixed(opcode), nil
	}

	ins := unprefixedTable[opcode]
	if !ins.Valid() {
		return Instruction{}, &DecodeError{Opcode: opcode}
	}
	return ins, nil
}

// IsPrefix reports whether the byte escapes into the 0xCB table.
func IsPrefix(opcode uint8) bool {
	return opcode == prefixByte
}

// Fetch decodes the instruction stored at address, following the 0xCB prefix.
func Fetch(bus Reader, address uint16) (Instruction, error) {
	opcode := bus.Read(address)
	prefixed := IsPrefix(opcode)
	if prefixed {
		opcode = bus.Read(address + 1)
	}

	ins, err := Decode(opcode, prefixed)
	if err != nil {
		if decodeErr, ok := err.(*DecodeError); ok {
			decodeErr.Address = address
		}
		return Instruction{}, err
	}
	return ins, nil
}
