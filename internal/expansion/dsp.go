package expansion

import (
	"errors"

	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/bits"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/interrupts"
)

// Fixed-function DSP (NEC uPD77C25 family). The host talks to it through two
// ports: a parallel data register and a status register; the cartridge mapper
// presents those as bank 0 and bank 1 of the expansion window. Program and
// coefficient ROM come from a dump supplied at construction.

// Accumulator flag bits.
const (
	dspFlagOV1 byte = 1 << 0
	dspFlagS1  byte = 1 << 1
	dspFlagOV0 byte = 1 << 2
	dspFlagC   byte = 1 << 3
	dspFlagZ   byte = 1 << 4
	dspFlagS0  byte = 1 << 5
)

// Status register bits.
const (
	dspSRP0  uint16 = 1 << 0
	dspSRP1  uint16 = 1 << 1
	dspSREI  uint16 = 1 << 7
	dspSRSIC uint16 = 1 << 8
	dspSRSOC uint16 = 1 << 9
	dspSRDRC uint16 = 1 << 10
	dspSRDMA uint16 = 1 << 11
	dspSRDRS uint16 = 1 << 12
	dspSRRQM uint16 = 1 << 15
)

const (
	dspProgROMSize = 2048 * 3 // 2048 24-bit instructions
	dspDataROMSize = 1024 * 2 // 1024 16-bit coefficients
)

// The DSP core runs at roughly 8.2 MHz against the 21.5 MHz master clock;
// instructions are single-cycle.
const (
	dspClockNum = 8192
	dspClockDen = 21477
)

// ErrDSPROMSize is returned when the supplied dump is too small to hold the
// program and coefficient ROMs.
var ErrDSPROMSize = errors.New("expansion: DSP ROM dump too small")

// DSP is the fixed-function math coprocessor.
type DSP struct {
	dp    byte       // data RAM pointer
	rp    uint16     // data ROM pointer (10-bit)
	pc    uint16     // program counter (11-bit)
	stack [4]uint16  // return stack
	sp    byte

	k, l uint16 // multiplier inputs
	m    uint32 // multiplier output (31-bit product, doubled)

	accA, accB   uint16
	flagA, flagB byte

	tr, trb uint16 // temporaries
	sr      uint16 // status register
	dr      uint16 // parallel data register

	progROM []byte // 3 bytes per instruction
	dataROM []byte
	ram     [512]byte // 256 16-bit words

	clockFrac int
}

// NewDSP builds a DSP from a combined program+coefficient ROM dump.
func NewDSP(rom []byte) (*DSP, error) {
	if len(rom) < dspProgROMSize+dspDataROMSize {
		return nil, ErrDSPROMSize
	}
	d := &DSP{rp: 0x3FF}
	d.progROM = make([]byte, dspProgROMSize)
	copy(d.progROM, rom[:dspProgROMSize])
	d.dataROM = make([]byte, dspDataROMSize)
	copy(d.dataROM, rom[dspProgROMSize:dspProgROMSize+dspDataROMSize])
	return d, nil
}

// Read services a host-side read. Bank 0 is the data register, bank 1 the
// status register.
func (d *DSP) Read(bank byte, _ uint16) byte {
	if bank == 0 {
		return d.readDR()
	}
	return bits.Hi(d.sr)
}

// Write services a host-side write, with the same bank split as Read.
func (d *DSP) Write(bank byte, _ uint16, value byte) {
	if bank == 0 {
		d.writeDR(value)
		return
	}
	d.storeSR(bits.SetHi(d.sr, value))
}

// Clock runs the core for the given number of master cycles.
func (d *DSP) Clock(cycles int) interrupts.Flags {
	d.clockFrac += cycles * dspClockNum
	for d.clockFrac >= dspClockDen {
		d.clockFrac -= dspClockDen
		d.step()
	}
	return 0
}

// Flush is a no-op: the DSP has no persistent state.
func (d *DSP) Flush() {}

func (d *DSP) step() {
	lo := d.fetchProgByte()
	mid := d.fetchProgByte()
	hi := d.fetchProgByte()
	instr := bits.Make24b(hi, mid, lo)

	switch {
	case instr&(1<<23) == 0:
		d.aluInstr(instr)
	case instr&(1<<22) == 0:
		d.jpInstr(instr)
	default:
		d.ldInstr(instr)
	}
}

func (d *DSP) fetchProgByte() byte {
	v := d.progROM[d.pc]
	d.pc++
	if d.pc >= dspProgROMSize {
		d.pc = 0
	}
	return v
}

// Host data port. In 16-bit mode the low byte transfers first; the request
// flag drops once the full word has crossed.
func (d *DSP) readDR() byte {
	if d.sr&dspSRDRC != 0 {
		d.sr &^= dspSRRQM
		return bits.Lo(d.dr)
	}
	var data byte
	if d.sr&dspSRDRS == 0 {
		data = bits.Lo(d.dr)
	} else {
		d.sr &^= dspSRRQM
		data = bits.Hi(d.dr)
	}
	d.sr ^= dspSRDRS
	return data
}

func (d *DSP) writeDR(value byte) {
	if d.sr&dspSRDRC != 0 {
		d.sr &^= dspSRRQM
		d.dr = bits.SetLo(d.dr, value)
		return
	}
	if d.sr&dspSRDRS == 0 {
		d.dr = bits.SetLo(d.dr, value)
	} else {
		d.sr &^= dspSRRQM
		d.dr = bits.SetHi(d.dr, value)
	}
	d.sr ^= dspSRDRS
}

// ALU instruction: move over the internal bus, multiply, ALU op, pointer
// adjust, multiplier write-back, optional return.
func (d *DSP) aluInstr(instr uint32) {
	srcData := d.loadIDB(instr)
	moved := d.storeIDB(instr, srcData)

	newM := uint32(d.k) * uint32(d.l) * 2

	useB := bits.Test32(instr, 15)
	// Skip the ALU op when the move just overwrote the target accumulator.
	doOp := true
	switch moved {
	case movedAccA:
		doOp = useB
	case movedAccB:
		doOp = !useB
	}

	if doOp {
		var p uint16
		switch (instr >> 20) & 3 {
		case 0:
			p = d.loadRAM(0)
		case 1:
			p = srcData
		case 2:
			p = uint16(d.m >> 16)
		case 3:
			p = uint16(d.m)
		}

		switch (instr >> 16) & 0xF {
		case 0x0: // NOP
		case 0x1:
			d.aluLogic(useB, p, func(a, b uint16) uint16 { return a | b })
		case 0x2:
			d.aluLogic(useB, p, func(a, b uint16) uint16 { return a & b })
		case 0x3:
			d.aluLogic(useB, p, func(a, b uint16) uint16 { return a ^ b })
		case 0x4:
			d.aluSub(useB, p, false)
		case 0x5:
			d.aluAdd(useB, p, false)
		case 0x6:
			d.aluSub(useB, p, true)
		case 0x7:
			d.aluAdd(useB, p, true)
		case 0x8:
			d.aluSub(useB, 1, false)
		case 0x9:
			d.aluAdd(useB, 1, false)
		case 0xA:
			d.aluLogic(useB, 0, func(a, _ uint16) uint16 { return ^a })
		case 0xB:
			d.aluSAR(useB)
		case 0xC:
			d.aluRCL(useB)
		case 0xD:
			d.aluLogic(useB, 0, func(a, _ uint16) uint16 { return (a << 2) | 0x3 })
		case 0xE:
			d.aluLogic(useB, 0, func(a, _ uint16) uint16 { return (a << 4) | 0xF })
		case 0xF:
			d.aluLogic(useB, 0, func(a, _ uint16) uint16 { return bits.Make16(bits.Lo(a), bits.Hi(a)) })
		}
	}

	d.dp = dspAdjustDP(instr, d.dp)
	if bits.Test32(instr, 8) {
		d.rp = (d.rp - 1) & 0x3FF
	}
	d.m = newM

	if bits.Test32(instr, 22) {
		d.ret()
	}
}

func dspAdjustDP(instr uint32, dp byte) byte {
	var lo byte
	switch (instr >> 13) & 3 {
	case 0:
		lo = dp
	case 1:
		lo = (dp + 1) & 0xF
	case 2:
		lo = (dp - 1) & 0xF
	case 3:
		lo = 0
	}
	hi := byte((instr>>9)&0xF) << 4 ^ dp
	return (hi & 0xF0) | (lo & 0xF)
}

func (d *DSP) jpInstr(instr uint32) {
	cond := (instr >> 13) & 0x1FF
	dest := uint16((instr >> 2) & 0x7FF)

	flagCond := func(flags byte, bit byte, want bool) bool {
		return (flags&bit != 0) == want
	}

	jump := false
	switch cond {
	case 0x100:
		jump = true
	case 0x140:
		d.call(dest)
		return
	case 0x080:
		jump = flagCond(d.flagA, dspFlagC, false)
	case 0x082:
		jump = flagCond(d.flagA, dspFlagC, true)
	case 0x084:
		jump = flagCond(d.flagB, dspFlagC, false)
	case 0x086:
		jump = flagCond(d.flagB, dspFlagC, true)
	case 0x088:
		jump = flagCond(d.flagA, dspFlagZ, false)
	case 0x08A:
		jump = flagCond(d.flagA, dspFlagZ, true)
	case 0x08C:
		jump = flagCond(d.flagB, dspFlagZ, false)
	case 0x08E:
		jump = flagCond(d.flagB, dspFlagZ, true)
	case 0x090:
		jump = flagCond(d.flagA, dspFlagOV0, false)
	case 0x092:
		jump = flagCond(d.flagA, dspFlagOV0, true)
	case 0x094:
		jump = flagCond(d.flagB, dspFlagOV0, false)
	case 0x096:
		jump = flagCond(d.flagB, dspFlagOV0, true)
	case 0x098:
		jump = flagCond(d.flagA, dspFlagOV1, false)
	case 0x09A:
		jump = flagCond(d.flagA, dspFlagOV1, true)
	case 0x09C:
		jump = flagCond(d.flagB, dspFlagOV1, false)
	case 0x09E:
		jump = flagCond(d.flagB, dspFlagOV1, true)
	case 0x0A0:
		jump = flagCond(d.flagA, dspFlagS0, false)
	case 0x0A2:
		jump = flagCond(d.flagA, dspFlagS0, true)
	case 0x0A4:
		jump = flagCond(d.flagB, dspFlagS0, false)
	case 0x0A6:
		jump = flagCond(d.flagB, dspFlagS0, true)
	case 0x0A8:
		jump = flagCond(d.flagA, dspFlagS1, false)
	case 0x0AA:
		jump = flagCond(d.flagA, dspFlagS1, true)
	case 0x0AC:
		jump = flagCond(d.flagB, dspFlagS1, false)
	case 0x0AE:
		jump = flagCond(d.flagB, dspFlagS1, true)
	case 0x0B1:
		jump = bits.LoNybble(d.dp) == 0x0
	case 0x0B2:
		jump = bits.LoNybble(d.dp) != 0x0
	case 0x0B3:
		jump = bits.LoNybble(d.dp) == 0xF
	case 0x0B4:
		jump = bits.LoNybble(d.dp) != 0xF
	case 0x0BC:
		jump = d.sr&dspSRRQM == 0
	case 0x0BE:
		jump = d.sr&dspSRRQM != 0
	}
	if jump {
		d.pc = dest * 3
	}
}

func (d *DSP) ldInstr(instr uint32) {
	imm := uint16((instr >> 6) & 0xFFFF)
	d.storeIDB(instr, imm)
	d.m = uint32(d.k) * uint32(d.l) * 2
}

type movedTo int

const (
	movedNone movedTo = iota
	movedAccA
	movedAccB
)

func (d *DSP) loadIDB(instr uint32) uint16 {
	switch (instr >> 4) & 0xF {
	case 0x0:
		return d.trb
	case 0x1:
		return d.accA
	case 0x2:
		return d.accB
	case 0x3:
		return d.tr
	case 0x4:
		return uint16(d.dp)
	case 0x5:
		return d.rp
	case 0x6:
		return d.loadROM()
	case 0x7:
		return 0 // sign register, unused by cartridge programs
	case 0x8:
		return d.loadDRInternal(false)
	case 0x9:
		return d.loadDRInternal(true)
	case 0xA:
		return d.sr
	case 0xD:
		return d.k
	case 0xE:
		return d.l
	case 0xF:
		return d.loadRAM(0)
	}
	return 0 // serial ports
}

func (d *DSP) storeIDB(instr uint32, data uint16) movedTo {
	switch instr & 0xF {
	case 0x0:
	case 0x1:
		d.accA = data
		return movedAccA
	case 0x2:
		d.accB = data
		return movedAccB
	case 0x3:
		d.tr = data
	case 0x4:
		d.dp = bits.Lo(data)
	case 0x5:
		d.rp = data & 0x3FF
	case 0x6:
		d.storeDRInternal(data)
	case 0x7:
		d.storeSR(data)
	case 0xA:
		d.k = data
	case 0xB:
		d.k = data
		d.l = d.loadROM()
	case 0xC:
		d.l = data
		d.k = d.loadRAM(0x40)
	case 0xD:
		d.l = data
	case 0xE:
		d.trb = data
	case 0xF:
		d.storeRAM(data)
	}
	return movedNone
}

func (d *DSP) loadRAM(or byte) uint16 {
	p := int(d.dp|or) << 1
	return bits.Make16(d.ram[p+1], d.ram[p])
}

func (d *DSP) storeRAM(data uint16) {
	p := int(d.dp) << 1
	d.ram[p] = bits.Lo(data)
	d.ram[p+1] = bits.Hi(data)
}

func (d *DSP) loadROM() uint16 {
	p := int(d.rp) << 1
	return bits.Make16(d.dataROM[p+1], d.dataROM[p])
}

func (d *DSP) loadDRInternal(nf bool) uint16 {
	if !nf {
		d.sr |= dspSRRQM
	}
	if d.sr&dspSRDRC != 0 {
		return uint16(bits.Lo(d.dr))
	}
	return d.dr
}

func (d *DSP) storeDRInternal(data uint16) {
	d.sr |= dspSRRQM
	if d.sr&dspSRDRC != 0 {
		d.dr = uint16(bits.Lo(data))
	} else {
		d.dr = data
	}
}

func (d *DSP) storeSR(data uint16) {
	keep := d.sr & (dspSRRQM | dspSRDRS)
	d.sr = (data &^ (dspSRRQM | dspSRDRS)) | keep
}

func (d *DSP) acc(useB bool) *uint16 {
	if useB {
		return &d.accB
	}
	return &d.accA
}

func (d *DSP) flags(useB bool) *byte {
	if useB {
		return &d.flagB
	}
	return &d.flagA
}

// otherCarry returns the other accumulator's carry, which is what ADC/SBB
// consume on this part.
func (d *DSP) otherCarry(useB bool) uint32 {
	f := d.flagA
	if !useB {
		f = d.flagB
	}
	if f&dspFlagC != 0 {
		return 1
	}
	return 0
}

func dspSetSZ(flags *byte, result uint16) {
	*flags &^= dspFlagS0 | dspFlagZ
	if bits.Test16(result, 15) {
		*flags |= dspFlagS0
	}
	if result == 0 {
		*flags |= dspFlagZ
	}
}

func dspSetAddOvf(flags *byte, in1, in2, result uint16) {
	if bits.Test16(^(in1^in2)&(in1^result), 15) {
		*flags |= dspFlagOV0
		if *flags&dspFlagS0 != 0 {
			*flags |= dspFlagS1
		} else {
			*flags &^= dspFlagS1
		}
		*flags ^= dspFlagOV1
	} else {
		*flags &^= dspFlagOV0
	}
}

func dspSetSubOvf(flags *byte, in1, in2, result uint16) {
	if bits.Test16((in1^in2)&(in1^result), 15) {
		*flags |= dspFlagOV0
		if *flags&dspFlagS0 != 0 {
			*flags |= dspFlagS1
		} else {
			*flags &^= dspFlagS1
		}
		*flags ^= dspFlagOV1
	} else {
		*flags &^= dspFlagOV0
	}
}

func (d *DSP) aluLogic(useB bool, p uint16, op func(a, b uint16) uint16) {
	acc, flags := d.acc(useB), d.flags(useB)
	*acc = op(*acc, p)
	dspSetSZ(flags, *acc)
	*flags &^= dspFlagOV0 | dspFlagOV1 | dspFlagC
}

func (d *DSP) aluAdd(useB bool, p uint16, withCarry bool) {
	acc, flags := d.acc(useB), d.flags(useB)
	var carry uint32
	if withCarry {
		carry = d.otherCarry(useB)
	}
	result := uint32(*acc) + uint32(p) + carry
	result16 := uint16(result)
	dspSetSZ(flags, result16)
	if result > 0xFFFF {
		*flags |= dspFlagC
	} else {
		*flags &^= dspFlagC
	}
	dspSetAddOvf(flags, *acc, p, result16)
	*acc = result16
}

func (d *DSP) aluSub(useB bool, p uint16, withCarry bool) {
	acc, flags := d.acc(useB), d.flags(useB)
	var carry int32
	if withCarry {
		carry = int32(d.otherCarry(useB))
	}
	result := int32(int16(*acc)) - int32(int16(p)) - carry
	result16 := uint16(result)
	dspSetSZ(flags, result16)
	if result < 0 {
		*flags |= dspFlagC
	} else {
		*flags &^= dspFlagC
	}
	dspSetSubOvf(flags, *acc, p, result16)
	*acc = result16
}

func (d *DSP) aluSAR(useB bool) {
	acc, flags := d.acc(useB), d.flags(useB)
	if bits.Test16(*acc, 0) {
		*flags |= dspFlagC
	} else {
		*flags &^= dspFlagC
	}
	*acc = uint16(int16(*acc) >> 1)
	dspSetSZ(flags, *acc)
	*flags &^= dspFlagOV0 | dspFlagOV1
}

func (d *DSP) aluRCL(useB bool) {
	acc, flags := d.acc(useB), d.flags(useB)
	carryIn := uint16(d.otherCarry(useB))
	if bits.Test16(*acc, 15) {
		*flags |= dspFlagC
	} else {
		*flags &^= dspFlagC
	}
	*acc = (*acc << 1) | carryIn
	dspSetSZ(flags, *acc)
	*flags &^= dspFlagOV0 | dspFlagOV1
}

func (d *DSP) call(dest uint16) {
	d.stack[d.sp] = d.pc
	d.sp = (d.sp + 1) & 0x3
	d.pc = dest * 3
}

func (d *DSP) ret() {
	d.sp = (d.sp - 1) & 0x3
	d.pc = d.stack[d.sp]
}
