package disasm

import (
	"fmt"
	"strings"

	"github.com/valerio/jeebie-core/jeebie/bit"
	"github.com/valerio/jeebie-core/jeebie/cpu"
)

// DisassemblyLine represents a single disassembled instruction
type DisassemblyLine struct {
	Address     uint16
	Instruction string
	Bytes       []byte
	Length      int
	// Illegal marks a byte that doesn't decode, rendered as a data byte.
	Illegal bool
}

// DisassembleAt disassembles the instruction at the given program counter.
// Reads past the end of the address space wrap around to 0x0000.
func DisassembleAt(pc uint16, mem cpu.Reader) DisassemblyLine {
	ins, err := cpu.Fetch(mem, pc)
	if err != nil {
		opcode := mem.Read(pc)
		return DisassemblyLine{
			Address:     pc,
			Instruction: fmt.Sprintf("DB $%02X", opcode),
			Bytes:       []byte{opcode},
			Length:      1,
			Illegal:     true,
		}
	}

	length := int(ins.Length)
	raw := make([]byte, length)
	for i := range raw {
		raw[i] = mem.Read(pc + uint16(i))
	}

	var value uint16
	switch length - len(prefixOf(ins)) - 1 {
	case 1:
		value = uint16(raw[length-1])
	case 2:
		value = bit.Combine(raw[length-1], raw[length-2])
	}

	return DisassemblyLine{
		Address:     pc,
		Instruction: ins.Format(value),
		Bytes:       raw,
		Length:      length,
	}
}

func prefixOf(ins cpu.Instruction) []byte {
	if ins.Prefixed {
		return []byte{0xCB}
	}
	return nil
}

// DisassembleRange disassembles multiple instructions starting from the given PC
func DisassembleRange(startPC uint16, count int, mem cpu.Reader) []DisassemblyLine {
	lines := make([]DisassemblyLine, 0, count)
	pc := startPC

	for i := 0; i < count; i++ {
		line := DisassembleAt(pc, mem)
		lines = append(lines, line)
		pc += uint16(line.Length)
	}

	return lines
}

// DisassembleAround disassembles instructions around the given PC
// Returns instructions before, at, and after the PC
func DisassembleAround(currentPC uint16, beforeCount, afterCount int, mem cpu.Reader) []DisassemblyLine {
	// we can't walk backwards in a variable length instruction set, so try
	// starting points at increasing distance and keep the first one that
	// lands exactly on currentPC after beforeCount instructions.
	for offset := beforeCount * 3; offset >= beforeCount && beforeCount > 0; offset-- {
		if int(currentPC) < offset {
			continue
		}
		start := currentPC - uint16(offset)
		pc := start
		count := 0
		for count < beforeCount && pc < currentPC {
			pc += uint16(DisassembleAt(pc, mem).Length)
			count++
		}
		if pc == currentPC && count == beforeCount {
			return DisassembleRange(start, beforeCount+1+afterCount, mem)
		}
	}

	// couldn't find a good starting point, just start from currentPC
	return DisassembleRange(currentPC, 1+afterCount, mem)
}

// FormatDisassemblyLine formats a disassembly line for display
func FormatDisassemblyLine(line DisassemblyLine, isCurrentPC bool) string {
	prefix := " "
	if isCurrentPC {
		prefix = "→"
	}

	hex := make([]string, len(line.Bytes))
	for i, b := range line.Bytes {
		hex[i] = fmt.Sprintf("%02X", b)
	}

	return fmt.Sprintf("%s0x%04X: %-8s %s", prefix, line.Address, strings.Join(hex, " "), line.Instruction)
}
