package cpu

import (
	"errors"
	"fmt"
)

var (
	// ErrIllegalOpcode is matched by every DecodeError.
	ErrIllegalOpcode = errors.New("illegal opcode")
	// ErrUnimplemented is matched by every UnimplementedError.
	ErrUnimplemented = errors.New("unimplemented instruction")
)

// DecodeError is returned when a byte does not name any instruction.
type DecodeError struct {
	Opcode   uint8
	Prefixed bool
	Address  uint16
}

func (e *DecodeError) Error() string {
	if e.Prefixed {
		return fmt.Sprintf("illegal opcode 0xCB%02X at 0x%04X", e.Opcode, e.Address)
	}
	return fmt.Sprintf("illegal opcode 0x%02X at 0x%04X", e.Opcode, e.Address)
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrIllegalOpcode
}

// UnimplementedError is returned when the executor is handed an instruction
// it has no behavior for. The decoder never produces one.
type UnimplementedError struct {
	Instruction Instruction
	Address     uint16
}

func (e *UnimplementedError) Error() string {
	return fmt.Sprintf("unimplemented instruction %q (family %s) at 0x%04X", e.Instruction, e.Instruction.Family, e.Address)
}

func (e *UnimplementedError) Is(target error) bool {
	return target == ErrUnimplemented
}
