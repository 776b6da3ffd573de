// Package cpu implements the 65C816 interpreter: 256 opcodes over the full
// set of addressing modes, 8/16-bit register widths, decimal arithmetic,
// emulation mode, and interrupt vectoring.
package cpu

import (
	"fmt"

	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/bits"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/interrupts"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/timing"
)

// Status register bits. In emulation mode bit 4 doubles as Break.
const (
	flagC byte = 1 << 0
	flagZ byte = 1 << 1
	flagI byte = 1 << 2
	flagD byte = 1 << 3
	flagX byte = 1 << 4
	flagM byte = 1 << 5
	flagV byte = 1 << 6
	flagN byte = 1 << 7

	flagB byte = 1 << 4
)

// Interrupt vector locations.
const (
	vecCOP   = 0xFFE4
	vecBRK   = 0xFFE6
	vecNMI   = 0xFFEA
	vecIRQ   = 0xFFEE
	vecCOPE  = 0xFFF4
	vecNMIE  = 0xFFFA
	vecRESET = 0xFFFC
	vecBRKE  = 0xFFFE
	vecIRQE  = 0xFFFE
)

// MemBus is the address bus the CPU drives. Every access returns its cost in
// master cycles; Clock forwards elapsed time downstream and reports raised
// interrupts.
type MemBus interface {
	Read(addr uint32) (byte, int)
	Write(addr uint32, data byte) int
	Clock(cycles int) interrupts.Flags
}

// CPU is the 65C816 register file plus its pending-interrupt set.
type CPU struct {
	a  uint16 // accumulator (B in the high byte when M is set)
	x  uint16
	y  uint16
	s  uint16 // stack pointer
	dp uint16 // direct page base
	db byte   // data bank
	pb byte   // program bank
	pc uint16
	p  byte

	e       bool // emulation mode
	halted  bool // wait-for-interrupt
	stopped bool // STP: only reset revives

	pending interrupts.Flags

	bus MemBus
}

// New builds a CPU in its power-on state, with PC loaded from the emulation
// reset vector.
func New(bus MemBus) *CPU {
	c := &CPU{bus: bus}
	lo, _ := bus.Read(vecRESET)
	hi, _ := bus.Read(vecRESET + 1)
	c.powerOn(bits.Make16(hi, lo))
	return c
}

func (c *CPU) powerOn(pc uint16) {
	c.a, c.x, c.y = 0, 0, 0
	c.s = 0x100
	c.db, c.dp, c.pb = 0, 0, 0
	c.p = flagM | flagX | flagI
	c.pc = pc
	c.e = true
	c.halted = false
	c.stopped = false
	c.pending = 0
}

// Step services pending interrupts then executes one instruction. It
// returns true when a vertical blank completed during this step.
func (c *CPU) Step() bool {
	switch {
	case c.pending.Contains(interrupts.Reset):
		c.pending &^= interrupts.Reset
		c.reset()
	case c.pending.Contains(interrupts.NMI):
		if !c.stopped {
			vec := uint32(vecNMI)
			if c.e {
				vec = vecNMIE
			}
			c.triggerInterrupt(vec)
			c.pending &^= interrupts.NMI | interrupts.VBlank
			c.halted = false
		}
		return true
	case c.pending.Contains(interrupts.VBlank):
		c.pending &^= interrupts.VBlank
		return true
	case c.pending.Contains(interrupts.IRQ):
		c.pending &^= interrupts.IRQ
		if !c.stopped {
			if c.p&flagI == 0 {
				vec := uint32(vecIRQ)
				if c.e {
					vec = vecIRQE
				}
				c.triggerInterrupt(vec)
				c.halted = false
			} else if c.halted {
				// WAI falls through to the next instruction with I set.
				c.halted = false
			}
		}
	case c.pending.Contains(interrupts.WaitToggle):
		c.pending &^= interrupts.WaitToggle
		c.halted = !c.halted
	case c.halted || c.stopped:
		c.clock(timing.InternalOp)
	default:
		c.execute()
	}
	return false
}

// Raise adds interrupt flags from outside the bus (expansion hardware).
func (c *CPU) Raise(flags interrupts.Flags) {
	c.pending |= flags
}

// Bus exposes the underlying bus for the machine wiring.
func (c *CPU) Bus() MemBus { return c.bus }

func (c *CPU) clock(cycles int) {
	c.pending |= c.bus.Clock(cycles)
}

func (c *CPU) reset() {
	lo, _ := c.bus.Read(vecRESET)
	hi, _ := c.bus.Read(vecRESET + 1)
	c.powerOn(bits.Make16(hi, lo))
}

// triggerInterrupt pushes the return state and jumps through the vector.
func (c *CPU) triggerInterrupt(vector uint32) {
	if !c.e {
		c.push(c.pb)
		c.pb = 0
	}
	c.push(bits.Hi(c.pc))
	c.push(bits.Lo(c.pc))
	c.push(c.p)

	lo := c.readData(vector)
	hi := c.readData(vector + 1)
	c.pc = bits.Make16(hi, lo)

	c.clock(timing.InternalOp)
	c.p |= flagI
	c.p &^= flagD
}

func (c *CPU) mSet() bool { return c.p&flagM != 0 }
func (c *CPU) xSet() bool { return c.p&flagX != 0 }

// execute decodes and runs exactly one instruction.
func (c *CPU) execute() {
	op := c.fetch()
	switch op {
	// ADC
	case 0x61:
		c.adc(c.dataAddr(modeDirPtrXDbr))
	case 0x63:
		c.adc(c.dataAddr(modeStack))
	case 0x65:
		c.adc(c.dataAddr(modeDir))
	case 0x67:
		c.adc(c.dataAddr(modeDirPtr))
	case 0x69:
		c.adc(immediate)
	case 0x6D:
		c.adc(c.dataAddr(modeAbs))
	case 0x6F:
		c.adc(c.dataAddr(modeLong))
	case 0x71:
		c.adc(c.dataAddr(modeDirPtrDbrY))
	case 0x72:
		c.adc(c.dataAddr(modeDirPtrDbr))
	case 0x73:
		c.adc(c.dataAddr(modeStackPtrDbrY))
	case 0x75:
		c.adc(c.dataAddr(modeDirX))
	case 0x77:
		c.adc(c.dataAddr(modeDirPtrY))
	case 0x79:
		c.adc(c.dataAddr(modeAbsY))
	case 0x7D:
		c.adc(c.dataAddr(modeAbsX))
	case 0x7F:
		c.adc(c.dataAddr(modeLongX))

	// SBC
	case 0xE1:
		c.sbc(c.dataAddr(modeDirPtrXDbr))
	case 0xE3:
		c.sbc(c.dataAddr(modeStack))
	case 0xE5:
		c.sbc(c.dataAddr(modeDir))
	case 0xE7:
		c.sbc(c.dataAddr(modeDirPtr))
	case 0xE9:
		c.sbc(immediate)
	case 0xED:
		c.sbc(c.dataAddr(modeAbs))
	case 0xEF:
		c.sbc(c.dataAddr(modeLong))
	case 0xF1:
		c.sbc(c.dataAddr(modeDirPtrDbrY))
	case 0xF2:
		c.sbc(c.dataAddr(modeDirPtrDbr))
	case 0xF3:
		c.sbc(c.dataAddr(modeStackPtrDbrY))
	case 0xF5:
		c.sbc(c.dataAddr(modeDirX))
	case 0xF7:
		c.sbc(c.dataAddr(modeDirPtrY))
	case 0xF9:
		c.sbc(c.dataAddr(modeAbsY))
	case 0xFD:
		c.sbc(c.dataAddr(modeAbsX))
	case 0xFF:
		c.sbc(c.dataAddr(modeLongX))

	// CMP / CPX / CPY
	case 0xC1:
		c.cmp(c.dataAddr(modeDirPtrXDbr))
	case 0xC3:
		c.cmp(c.dataAddr(modeStack))
	case 0xC5:
		c.cmp(c.dataAddr(modeDir))
	case 0xC7:
		c.cmp(c.dataAddr(modeDirPtr))
	case 0xC9:
		c.cmp(immediate)
	case 0xCD:
		c.cmp(c.dataAddr(modeAbs))
	case 0xCF:
		c.cmp(c.dataAddr(modeLong))
	case 0xD1:
		c.cmp(c.dataAddr(modeDirPtrDbrY))
	case 0xD2:
		c.cmp(c.dataAddr(modeDirPtrDbr))
	case 0xD3:
		c.cmp(c.dataAddr(modeStackPtrDbrY))
	case 0xD5:
		c.cmp(c.dataAddr(modeDirX))
	case 0xD7:
		c.cmp(c.dataAddr(modeDirPtrY))
	case 0xD9:
		c.cmp(c.dataAddr(modeAbsY))
	case 0xDD:
		c.cmp(c.dataAddr(modeAbsX))
	case 0xDF:
		c.cmp(c.dataAddr(modeLongX))
	case 0xE0:
		c.compare(immediate, c.x, c.xSet())
	case 0xE4:
		c.compare(c.dataAddr(modeDir), c.x, c.xSet())
	case 0xEC:
		c.compare(c.dataAddr(modeAbs), c.x, c.xSet())
	case 0xC0:
		c.compare(immediate, c.y, c.xSet())
	case 0xC4:
		c.compare(c.dataAddr(modeDir), c.y, c.xSet())
	case 0xCC:
		c.compare(c.dataAddr(modeAbs), c.y, c.xSet())

	// INC / DEC
	case 0x3A:
		c.a = c.setANZ(c.acc() - 1)
	case 0xC6:
		c.decMem(c.dataAddr(modeDir))
	case 0xCE:
		c.decMem(c.dataAddr(modeAbs))
	case 0xD6:
		c.decMem(c.dataAddr(modeDirX))
	case 0xDE:
		c.decMem(c.dataAddr(modeAbsX))
	case 0xCA:
		c.x = c.setNZ(c.x-1, c.xSet())
	case 0x88:
		c.y = c.setNZ(c.y-1, c.xSet())
	case 0x1A:
		c.a = c.setANZ(c.acc() + 1)
	case 0xE6:
		c.incMem(c.dataAddr(modeDir))
	case 0xEE:
		c.incMem(c.dataAddr(modeAbs))
	case 0xF6:
		c.incMem(c.dataAddr(modeDirX))
	case 0xFE:
		c.incMem(c.dataAddr(modeAbsX))
	case 0xE8:
		c.x = c.setNZ(c.x+1, c.xSet())
	case 0xC8:
		c.y = c.setNZ(c.y+1, c.xSet())

	// AND / EOR / ORA
	case 0x21:
		c.and(c.dataAddr(modeDirPtrXDbr))
	case 0x23:
		c.and(c.dataAddr(modeStack))
	case 0x25:
		c.and(c.dataAddr(modeDir))
	case 0x27:
		c.and(c.dataAddr(modeDirPtr))
	case 0x29:
		c.and(immediate)
	case 0x2D:
		c.and(c.dataAddr(modeAbs))
	case 0x2F:
		c.and(c.dataAddr(modeLong))
	case 0x31:
		c.and(c.dataAddr(modeDirPtrDbrY))
	case 0x32:
		c.and(c.dataAddr(modeDirPtrDbr))
	case 0x33:
		c.and(c.dataAddr(modeStackPtrDbrY))
	case 0x35:
		c.and(c.dataAddr(modeDirX))
	case 0x37:
		c.and(c.dataAddr(modeDirPtrY))
	case 0x39:
		c.and(c.dataAddr(modeAbsY))
	case 0x3D:
		c.and(c.dataAddr(modeAbsX))
	case 0x3F:
		c.and(c.dataAddr(modeLongX))

	case 0x41:
		c.eor(c.dataAddr(modeDirPtrXDbr))
	case 0x43:
		c.eor(c.dataAddr(modeStack))
	case 0x45:
		c.eor(c.dataAddr(modeDir))
	case 0x47:
		c.eor(c.dataAddr(modeDirPtr))
	case 0x49:
		c.eor(immediate)
	case 0x4D:
		c.eor(c.dataAddr(modeAbs))
	case 0x4F:
		c.eor(c.dataAddr(modeLong))
	case 0x51:
		c.eor(c.dataAddr(modeDirPtrDbrY))
	case 0x52:
		c.eor(c.dataAddr(modeDirPtrDbr))
	case 0x53:
		c.eor(c.dataAddr(modeStackPtrDbrY))
	case 0x55:
		c.eor(c.dataAddr(modeDirX))
	case 0x57:
		c.eor(c.dataAddr(modeDirPtrY))
	case 0x59:
		c.eor(c.dataAddr(modeAbsY))
	case 0x5D:
		c.eor(c.dataAddr(modeAbsX))
	case 0x5F:
		c.eor(c.dataAddr(modeLongX))

	case 0x01:
		c.ora(c.dataAddr(modeDirPtrXDbr))
	case 0x03:
		c.ora(c.dataAddr(modeStack))
	case 0x05:
		c.ora(c.dataAddr(modeDir))
	case 0x07:
		c.ora(c.dataAddr(modeDirPtr))
	case 0x09:
		c.ora(immediate)
	case 0x0D:
		c.ora(c.dataAddr(modeAbs))
	case 0x0F:
		c.ora(c.dataAddr(modeLong))
	case 0x11:
		c.ora(c.dataAddr(modeDirPtrDbrY))
	case 0x12:
		c.ora(c.dataAddr(modeDirPtrDbr))
	case 0x13:
		c.ora(c.dataAddr(modeStackPtrDbrY))
	case 0x15:
		c.ora(c.dataAddr(modeDirX))
	case 0x17:
		c.ora(c.dataAddr(modeDirPtrY))
	case 0x19:
		c.ora(c.dataAddr(modeAbsY))
	case 0x1D:
		c.ora(c.dataAddr(modeAbsX))
	case 0x1F:
		c.ora(c.dataAddr(modeLongX))

	// BIT / TRB / TSB
	case 0x24:
		c.bit(c.dataAddr(modeDir), false)
	case 0x2C:
		c.bit(c.dataAddr(modeAbs), false)
	case 0x34:
		c.bit(c.dataAddr(modeDirX), false)
	case 0x3C:
		c.bit(c.dataAddr(modeAbsX), false)
	case 0x89:
		c.bit(immediate, true)
	case 0x14:
		c.trb(c.dataAddr(modeDir))
	case 0x1C:
		c.trb(c.dataAddr(modeAbs))
	case 0x04:
		c.tsb(c.dataAddr(modeDir))
	case 0x0C:
		c.tsb(c.dataAddr(modeAbs))

	// Shifts
	case 0x06:
		c.aslMem(c.dataAddr(modeDir))
	case 0x0A:
		c.aslAcc()
	case 0x0E:
		c.aslMem(c.dataAddr(modeAbs))
	case 0x16:
		c.aslMem(c.dataAddr(modeDirX))
	case 0x1E:
		c.aslMem(c.dataAddr(modeAbsX))
	case 0x46:
		c.lsrMem(c.dataAddr(modeDir))
	case 0x4A:
		c.lsrAcc()
	case 0x4E:
		c.lsrMem(c.dataAddr(modeAbs))
	case 0x56:
		c.lsrMem(c.dataAddr(modeDirX))
	case 0x5E:
		c.lsrMem(c.dataAddr(modeAbsX))
	case 0x26:
		c.rolMem(c.dataAddr(modeDir))
	case 0x2A:
		c.rolAcc()
	case 0x2E:
		c.rolMem(c.dataAddr(modeAbs))
	case 0x36:
		c.rolMem(c.dataAddr(modeDirX))
	case 0x3E:
		c.rolMem(c.dataAddr(modeAbsX))
	case 0x66:
		c.rorMem(c.dataAddr(modeDir))
	case 0x6A:
		c.rorAcc()
	case 0x6E:
		c.rorMem(c.dataAddr(modeAbs))
	case 0x76:
		c.rorMem(c.dataAddr(modeDirX))
	case 0x7E:
		c.rorMem(c.dataAddr(modeAbsX))

	// Branches
	case 0x90:
		c.branch(flagC, false)
	case 0xB0:
		c.branch(flagC, true)
	case 0xF0:
		c.branch(flagZ, true)
	case 0x30:
		c.branch(flagN, true)
	case 0xD0:
		c.branch(flagZ, false)
	case 0x10:
		c.branch(flagN, false)
	case 0x80:
		c.branch(0, true) // BRA
	case 0x50:
		c.branch(flagV, false)
	case 0x70:
		c.branch(flagV, true)
	case 0x82:
		c.brl()

	// Jumps
	case 0x4C:
		c.jmp(c.jumpAddr(jumpAbs))
	case 0x5C:
		c.jmp(c.jumpAddr(jumpLong))
	case 0x6C:
		c.jmp(c.jumpAddr(jumpAbsPtrPbr))
	case 0x7C:
		c.jmp(c.jumpAddr(jumpAbsPtrXPbr))
	case 0xDC:
		c.jmp(c.jumpAddr(jumpAbsPtr))
	case 0x22:
		c.jsr(jumpLong)
	case 0x20:
		c.jsr(jumpAbs)
	case 0xFC:
		c.jsr(jumpAbsPtrXPbr)
	case 0x6B:
		c.rtl()
	case 0x60:
		c.rts()

	// Software interrupts
	case 0x00:
		c.brk()
	case 0x02:
		c.cop()
	case 0x40:
		c.rti()

	// Flag operations
	case 0x18:
		c.setFlagOp(flagC, false)
	case 0xD8:
		c.setFlagOp(flagD, false)
	case 0x58:
		c.setFlagOp(flagI, false)
	case 0xB8:
		c.setFlagOp(flagV, false)
	case 0x38:
		c.setFlagOp(flagC, true)
	case 0xF8:
		c.setFlagOp(flagD, true)
	case 0x78:
		c.setFlagOp(flagI, true)
	case 0xC2:
		c.rep()
	case 0xE2:
		c.sep()

	// Loads
	case 0xA1:
		c.lda(c.dataAddr(modeDirPtrXDbr))
	case 0xA3:
		c.lda(c.dataAddr(modeStack))
	case 0xA5:
		c.lda(c.dataAddr(modeDir))
	case 0xA7:
		c.lda(c.dataAddr(modeDirPtr))
	case 0xA9:
		c.lda(immediate)
	case 0xAD:
		c.lda(c.dataAddr(modeAbs))
	case 0xAF:
		c.lda(c.dataAddr(modeLong))
	case 0xB1:
		c.lda(c.dataAddr(modeDirPtrDbrY))
	case 0xB2:
		c.lda(c.dataAddr(modeDirPtrDbr))
	case 0xB3:
		c.lda(c.dataAddr(modeStackPtrDbrY))
	case 0xB5:
		c.lda(c.dataAddr(modeDirX))
	case 0xB7:
		c.lda(c.dataAddr(modeDirPtrY))
	case 0xB9:
		c.lda(c.dataAddr(modeAbsY))
	case 0xBD:
		c.lda(c.dataAddr(modeAbsX))
	case 0xBF:
		c.lda(c.dataAddr(modeLongX))
	case 0xA2:
		c.ldx(immediate)
	case 0xA6:
		c.ldx(c.dataAddr(modeDir))
	case 0xAE:
		c.ldx(c.dataAddr(modeAbs))
	case 0xB6:
		c.ldx(c.dataAddr(modeDirY))
	case 0xBE:
		c.ldx(c.dataAddr(modeAbsY))
	case 0xA0:
		c.ldy(immediate)
	case 0xA4:
		c.ldy(c.dataAddr(modeDir))
	case 0xAC:
		c.ldy(c.dataAddr(modeAbs))
	case 0xB4:
		c.ldy(c.dataAddr(modeDirX))
	case 0xBC:
		c.ldy(c.dataAddr(modeAbsX))

	// Stores
	case 0x81:
		c.store(c.dataAddr(modeDirPtrXDbr), c.a, c.mSet())
	case 0x83:
		c.store(c.dataAddr(modeStack), c.a, c.mSet())
	case 0x85:
		c.store(c.dataAddr(modeDir), c.a, c.mSet())
	case 0x87:
		c.store(c.dataAddr(modeDirPtr), c.a, c.mSet())
	case 0x8D:
		c.store(c.dataAddr(modeAbs), c.a, c.mSet())
	case 0x8F:
		c.store(c.dataAddr(modeLong), c.a, c.mSet())
	case 0x91:
		c.store(c.dataAddr(modeDirPtrDbrY), c.a, c.mSet())
	case 0x92:
		c.store(c.dataAddr(modeDirPtrDbr), c.a, c.mSet())
	case 0x93:
		c.store(c.dataAddr(modeStackPtrDbrY), c.a, c.mSet())
	case 0x95:
		c.store(c.dataAddr(modeDirX), c.a, c.mSet())
	case 0x97:
		c.store(c.dataAddr(modeDirPtrY), c.a, c.mSet())
	case 0x99:
		c.store(c.dataAddr(modeAbsY), c.a, c.mSet())
	case 0x9D:
		c.store(c.dataAddr(modeAbsX), c.a, c.mSet())
	case 0x9F:
		c.store(c.dataAddr(modeLongX), c.a, c.mSet())
	case 0x86:
		c.store(c.dataAddr(modeDir), c.x, c.xSet())
	case 0x8E:
		c.store(c.dataAddr(modeAbs), c.x, c.xSet())
	case 0x96:
		c.store(c.dataAddr(modeDirY), c.x, c.xSet())
	case 0x84:
		c.store(c.dataAddr(modeDir), c.y, c.xSet())
	case 0x8C:
		c.store(c.dataAddr(modeAbs), c.y, c.xSet())
	case 0x94:
		c.store(c.dataAddr(modeDirX), c.y, c.xSet())
	case 0x64:
		c.store(c.dataAddr(modeDir), 0, c.mSet())
	case 0x74:
		c.store(c.dataAddr(modeDirX), 0, c.mSet())
	case 0x9C:
		c.store(c.dataAddr(modeAbs), 0, c.mSet())
	case 0x9E:
		c.store(c.dataAddr(modeAbsX), 0, c.mSet())

	// Block moves
	case 0x54:
		c.blockMove(true)
	case 0x44:
		c.blockMove(false)

	// Misc
	case 0xEA:
		c.clock(timing.InternalOp) // NOP
	case 0x42:
		c.pc++ // WDM reserved; skips its operand
		c.clock(timing.InternalOp)

	// Push effective address
	case 0xF4: // PEA
		v := c.readOp(immediate, false)
		c.push(bits.Hi(v))
		c.push(bits.Lo(v))
	case 0xD4: // PEI
		v := c.readOp(c.dataAddr(modeDir), false)
		c.push(bits.Hi(v))
		c.push(bits.Lo(v))
	case 0x62: // PER
		imm := c.immediate16()
		v := c.pc + imm
		c.clock(timing.InternalOp)
		c.push(bits.Hi(v))
		c.push(bits.Lo(v))

	// Pushes and pulls
	case 0x48:
		c.pushReg(c.a, c.mSet())
	case 0xDA:
		c.pushReg(c.x, c.xSet())
	case 0x5A:
		c.pushReg(c.y, c.xSet())
	case 0x68:
		c.pla()
	case 0xFA:
		c.x = c.pull(c.xSet())
	case 0x7A:
		c.y = c.pull(c.xSet())
	case 0x8B:
		c.pushReg(uint16(c.db), true)
	case 0x0B:
		c.pushReg(c.dp, false)
	case 0x4B:
		c.pushReg(uint16(c.pb), true)
	case 0x08:
		c.pushReg(uint16(c.p), true)
	case 0xAB:
		c.db = byte(c.pull(true))
	case 0x2B:
		c.dp = c.pull(false)
	case 0x28:
		c.setP(byte(c.pull(true)))

	// Halts
	case 0xDB:
		c.stopped = true
		c.clock(timing.InternalOp * 2)
	case 0xCB:
		c.halted = true
		c.clock(timing.InternalOp * 2)

	// Transfers
	case 0xAA:
		c.x = c.transfer(c.a, c.x, c.xSet())
	case 0xA8:
		c.y = c.transfer(c.a, c.y, c.xSet())
	case 0xBA:
		c.x = c.transfer(c.s, c.x, c.xSet())
	case 0x8A:
		c.a = c.transfer(c.x, c.a, c.mSet())
	case 0x9A:
		c.txs()
	case 0x9B:
		c.y = c.transfer(c.x, c.y, c.xSet())
	case 0x98:
		c.a = c.transfer(c.y, c.a, c.mSet())
	case 0xBB:
		c.x = c.transfer(c.y, c.x, c.xSet())
	case 0x5B:
		c.dp = c.transfer(c.a, 0, false)
	case 0x1B:
		c.tcs()
	case 0x7B:
		c.a = c.transfer(c.dp, 0, false)
	case 0x3B:
		c.a = c.transfer(c.s, 0, false)

	case 0xEB:
		c.xba()
	case 0xFB:
		c.xce()

	default:
		panic(fmt.Sprintf("cpu: unhandled opcode %02X at %02X:%04X", op, c.pb, c.pc-1))
	}
}
