// Package interrupts defines the interrupt lines devices can raise. Devices
// return these as additive flags; the CPU accumulates them in a pending set
// and services them between instructions.
package interrupts

// Flags is a bit-set of pending interrupt kinds.
type Flags byte

const (
	// NMI indicates that V-blank was entered with NMI enabled.
	NMI Flags = 1 << 0
	// IRQ is the timer/coprocessor interrupt request line.
	IRQ Flags = 1 << 1
	// VBlank indicates V-blank was entered without NMI enabled.
	VBlank Flags = 1 << 2
	// Reset restarts the CPU from the reset vector.
	Reset Flags = 1 << 3
	// WaitToggle flips the CPU's halted state (wait-for-interrupt handling).
	WaitToggle Flags = 1 << 4
)

// Contains reports whether any of the given flags are set.
func (f Flags) Contains(other Flags) bool { return f&other != 0 }
