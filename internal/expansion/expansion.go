// Package expansion implements the in-cartridge coprocessors. Every unit
// speaks the same bus-level contract: byte reads and writes routed by the
// cartridge mapper, a clock call that advances the unit in master cycles and
// returns any interrupts it raised, and a flush hook for persistent storage.
package expansion

import (
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/interrupts"
)

// Unit is the contract between the cartridge mapper and a coprocessor.
type Unit interface {
	Read(bank byte, offset uint16) byte
	Write(bank byte, offset uint16, value byte)
	// Clock advances the unit by the given number of master cycles.
	Clock(cycles int) interrupts.Flags
	// Flush is called at frame boundaries for units with persistent state.
	Flush()
}
