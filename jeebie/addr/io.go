package addr

// IOBase is the start of the high page reached by the short I/O addressing
// forms, LDH (n) and LD (C).
const IOBase uint16 = 0xFF00

// serial I/O
const (
	// SB (Serial transfer data, 0xFF01)
	//
	// Holds the 8-bit data to be transmitted. After completion, SB contains the received
	// byte from the peer (typically 0xFF when no peer is connected).
	SB uint16 = 0xFF01
	// SC (Serial transfer control, 0xFF02)
	//  - Bit 7 (Start): Writing 1 starts an 8-bit transfer; hardware clears to 0 when done.
	//  - Bit 0 (Clock): 1=internal clock, 0=external clock (peer provides the pulses).
	SC uint16 = 0xFF02
)

// interrupts
const (
	// IF is the address for the Interrupt Flags register.
	IF uint16 = 0xFF0F
	// IE is the address for the Interrupt Enable register.
	IE uint16 = 0xFFFF
)

// Interrupt is an enum that represents one of the possible interrupts.
type Interrupt uint8

const (
	// VBlankInterrupt is fired when the GPU has completed a frame.
	VBlankInterrupt Interrupt = 1
	// LCDSTATInterrupt is fired based on one of the conditions in the LCDSTAT register.
	LCDSTATInterrupt Interrupt = 1 << 1
	// TimerInterrupt is fired when the timer register (TIMA) overflows.
	TimerInterrupt Interrupt = 1 << 2
	// SerialInterrupt is fired when a serial transfer has completed on the game link port.
	SerialInterrupt Interrupt = 1 << 3
	// JoypadInterrupt is fired when any of the keypad inputs goes from high to low.
	JoypadInterrupt Interrupt = 1 << 4
)

// Vector returns the handler address the CPU jumps to when servicing the interrupt.
// Handlers are 8 bytes apart starting at 0x40.
func (i Interrupt) Vector() uint16 {
	vector := uint16(0x40)
	for mask := Interrupt(1); mask < i && mask != 0; mask <<= 1 {
		vector += 8
	}
	return vector
}

// Restart vectors targeted by the RST instructions.
const (
	RST00 uint16 = 0x00
	RST08 uint16 = 0x08
	RST10 uint16 = 0x10
	RST18 uint16 = 0x18
	RST20 uint16 = 0x20
	RST28 uint16 = 0x28
	RST30 uint16 = 0x30
	RST38 uint16 = 0x38
)

// EntryPoint is where execution begins once the boot ROM hands over control.
const EntryPoint uint16 = 0x0100
