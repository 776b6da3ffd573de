package expansion

import (
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/bits"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/interrupts"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/mem"
)

// RISC graphics accelerator (SuperFX/GSU family). Sixteen 16-bit registers,
// prefix-modified instruction set, a byte-plot pipeline that packs pixels
// into SNES bitplane format, and its own view of cartridge ROM plus 128 KiB
// of work RAM. The host sees the register file at $3000-$301F and the control
// registers behind it; everything above $3500 in the expansion window maps to
// the chip's ROM and RAM.

// Status flag bits.
const (
	fxFlagZ    uint16 = 1 << 1
	fxFlagCY   uint16 = 1 << 2
	fxFlagS    uint16 = 1 << 3
	fxFlagOV   uint16 = 1 << 4
	fxFlagGO   uint16 = 1 << 5
	fxFlagR    uint16 = 1 << 6
	fxFlagALT1 uint16 = 1 << 8
	fxFlagALT2 uint16 = 1 << 9
	fxFlagIL   uint16 = 1 << 10
	fxFlagIH   uint16 = 1 << 11
	fxFlagB    uint16 = 1 << 12
	fxFlagIRQ  uint16 = 1 << 15
)

// Dedicated register roles.
const (
	fxPlotX   = 1
	fxPlotY   = 2
	fxMultDst = 4
	fxMultOp  = 6
	fxMergeHi = 7
	fxMergeLo = 8
	fxLink    = 11
	fxLoopCtr = 12
	fxLoopPtr = 13
	fxRomPtr  = 14
	fxPC      = 15
)

const fxRAMSize = 128 * 1024

// SuperFX is the graphics accelerator unit.
type SuperFX struct {
	regs      [16]uint16
	regsLatch byte
	pcNext    uint16
	pbNext    byte

	flags       uint16
	pb          byte // program bank
	romb        byte // ROM data bank
	ramb        byte // RAM data bank (0 or 1)
	backup      byte
	cfg         byte
	clockSelect bool
	lastRAMAddr uint16
	version     byte

	src, dst int

	// Plot state
	scbr byte // screen base
	scmr byte // screen mode
	colr byte
	por  byte

	rom  *mem.ROM
	ram  *mem.RAM
	sram *mem.SRAM

	cycleCount int
}

// NewSuperFX wires the accelerator to the cartridge ROM and save RAM.
func NewSuperFX(rom *mem.ROM, sram *mem.SRAM) *SuperFX {
	return &SuperFX{
		rom:     rom,
		ram:     mem.NewRAM(fxRAMSize),
		sram:    sram,
		version: 4,
	}
}

func (fx *SuperFX) Read(bank byte, offset uint16) byte {
	if bank%0x80 <= 0x3F && offset <= 0x3500 {
		return fx.readReg(offset)
	}
	return fx.snesRead(bank, offset)
}

func (fx *SuperFX) Write(bank byte, offset uint16, value byte) {
	if bank%0x80 <= 0x3F && offset <= 0x3500 {
		fx.writeReg(offset, value)
		return
	}
	fx.snesWrite(bank, offset, value)
}

// Clock advances the core while the GO flag is set. The chip runs at half the
// master clock normally, or at full rate with the fast clock selected.
func (fx *SuperFX) Clock(cycles int) interrupts.Flags {
	if fx.flags&fxFlagGO == 0 {
		return 0
	}
	fxCycles := cycles
	if !fx.clockSelect {
		fxCycles = cycles / 2
	}
	fx.cycleCount -= fxCycles
	for fx.cycleCount <= 0 && fx.flags&fxFlagGO != 0 {
		fx.executeInstruction()
	}
	if fx.flags&fxFlagIRQ != 0 {
		return interrupts.IRQ
	}
	return 0
}

func (fx *SuperFX) Flush() {
	if fx.backup&1 != 0 {
		fx.sram.Flush()
	}
}

// Host-visible registers.
func (fx *SuperFX) readReg(addr uint16) byte {
	switch {
	case addr <= 0x301F && addr >= 0x3000:
		r := (addr % 0x20) >> 1
		if addr&1 != 0 {
			return bits.Hi(fx.regs[r])
		}
		return bits.Lo(fx.regs[r])
	case addr == 0x3030:
		return byte(fx.flags)
	case addr == 0x3031:
		ret := byte(fx.flags >> 8)
		fx.flags &^= fxFlagIRQ
		return ret
	case addr == 0x3034:
		return fx.pb
	case addr == 0x3036:
		return fx.romb
	case addr == 0x303B:
		return fx.version
	case addr == 0x303C:
		return fx.ramb
	}
	return 0
}

func (fx *SuperFX) writeReg(addr uint16, data byte) {
	switch {
	case addr >= 0x3000 && addr <= 0x301E:
		if addr&1 != 0 {
			r := (addr % 0x20) >> 1
			fx.regs[r] = bits.Make16(data, fx.regsLatch)
		} else {
			fx.regsLatch = data
		}
	case addr == 0x301F:
		fx.regs[fxPC] = bits.Make16(data, fx.regsLatch)
		fx.pcNext = fx.regs[fxPC] + 1
		fx.pbNext = fx.pb
		fx.flags |= fxFlagGO
	case addr == 0x3030:
		fx.setStatusFlags(data)
	case addr == 0x3033:
		fx.backup = data
	case addr == 0x3034:
		fx.pb = data
		fx.pbNext = data
	case addr == 0x3037:
		fx.cfg = data
	case addr == 0x3038:
		fx.scbr = data
	case addr == 0x3039:
		fx.clockSelect = bits.Test(data, 0)
	case addr == 0x303A:
		fx.scmr = data
	}
}

func (fx *SuperFX) setStatusFlags(data byte) {
	set := func(flag uint16, on bool) {
		if on {
			fx.flags |= flag
		} else {
			fx.flags &^= flag
		}
	}
	set(fxFlagZ, bits.Test(data, 1))
	set(fxFlagCY, bits.Test(data, 2))
	set(fxFlagS, bits.Test(data, 3))
	set(fxFlagOV, bits.Test(data, 4))
	set(fxFlagGO, bits.Test(data, 5))
}

// Host-side memory view: ROM through the lo-style windows, chip RAM at
// banks $70-$71 and $00-$3F:6000, save RAM at $78.
func (fx *SuperFX) snesRead(bank byte, addr uint16) byte {
	b := bank % 0x80
	switch {
	case b <= 0x3F && addr >= 0x8000:
		return fx.rom.Read(b, addr-0x8000)
	case b <= 0x3F && addr >= 0x6000:
		return fx.ram.Read(uint32(addr - 0x6000))
	case b >= 0x40 && b <= 0x5F:
		return fx.readROMHi(b-0x40, addr)
	case b >= 0x70 && b <= 0x71:
		return fx.ram.Read(uint32(b%0x10)*0x10000 + uint32(addr))
	case b >= 0x78 && b <= 0x79:
		return fx.sram.Read(uint32(b%0x8)*0x10000 + uint32(addr))
	}
	return 0
}

func (fx *SuperFX) snesWrite(bank byte, addr uint16, data byte) {
	b := bank % 0x80
	switch {
	case b <= 0x3F && addr >= 0x6000 && addr < 0x8000:
		fx.ram.Write(uint32(addr-0x6000), data)
	case b >= 0x70 && b <= 0x71:
		fx.ram.Write(uint32(b%0x10)*0x10000+uint32(addr), data)
	case b >= 0x78 && b <= 0x79:
		fx.sram.Write(uint32(b%0x8)*0x10000+uint32(addr), data)
	}
}

func (fx *SuperFX) readROMHi(bank byte, addr uint16) byte {
	mapped := bank * 2
	if addr >= 0x8000 {
		mapped++
	}
	return fx.rom.Read(mapped, addr%0x8000)
}

// Chip-side memory view.
func (fx *SuperFX) fxReadROM(bank byte, addr uint16) byte {
	fx.cycleCount++
	switch {
	case bank <= 0x3F:
		return fx.rom.Read(bank, addr%0x8000)
	case bank >= 0x40 && bank <= 0x5F:
		return fx.readROMHi(bank-0x40, addr)
	}
	return 0
}

func (fx *SuperFX) readRAM(addr uint16) byte {
	fx.cycleCount++
	return fx.ram.Read(uint32(fx.ramb)*0x10000 + uint32(addr))
}

func (fx *SuperFX) writeRAMByte(addr uint16, data byte) {
	fx.cycleCount++
	fx.ram.Write(uint32(fx.ramb)*0x10000+uint32(addr), data)
}

func (fx *SuperFX) writeRAMWord(addr uint16, data uint16) {
	fx.cycleCount += 2
	base := uint32(fx.ramb) * 0x10000
	fx.ram.Write(base+uint32(addr), bits.Lo(data))
	// The second byte lands on the other half of the aligned pair.
	if addr%2 == 0 {
		fx.ram.Write(base+uint32(addr+1), bits.Hi(data))
	} else {
		fx.ram.Write(base+uint32(addr-1), bits.Hi(data))
	}
}

func (fx *SuperFX) fetch() byte {
	data := fx.fxReadROM(fx.pb, fx.regs[fxPC])
	fx.regs[fxPC] = fx.pcNext
	fx.pb = fx.pbNext
	fx.pcNext++
	return data
}

func (fx *SuperFX) alt() int {
	return int((fx.flags >> 8) & 3)
}

func (fx *SuperFX) setFlag(flag uint16, on bool) {
	if on {
		fx.flags |= flag
	} else {
		fx.flags &^= flag
	}
}

func (fx *SuperFX) setSZ(result uint16) {
	fx.setFlag(fxFlagZ, result == 0)
	fx.setFlag(fxFlagS, bits.Test16(result, 15))
}

func (fx *SuperFX) setDst(data uint16) {
	if fx.dst == fxPC {
		fx.setPC(data)
	} else {
		fx.regs[fx.dst] = data
	}
}

func (fx *SuperFX) setPC(data uint16) {
	fx.pcNext = data
}

func (fx *SuperFX) resetPrefix() {
	fx.src = 0
	fx.dst = 0
	fx.flags &^= fxFlagB | fxFlagALT1 | fxFlagALT2
}

func (fx *SuperFX) executeInstruction() {
	instr := fx.fetch()
	lo := bits.LoNybble(instr)

	switch bits.HiNybble(instr) {
	case 0x0:
		switch lo {
		case 0x0:
			fx.stop()
		case 0x1:
			fx.resetPrefix() // NOP
		case 0x2:
			fx.resetPrefix() // CACHE: fetches are uncached here
		case 0x3:
			fx.opLSR()
		case 0x4:
			fx.opROL()
		default:
			fx.opBranch(lo)
		}
	case 0x1: // TO / MOVE
		if fx.flags&fxFlagB != 0 {
			fx.dst = int(lo)
			fx.setDst(fx.regs[fx.src])
			fx.resetPrefix()
		} else {
			fx.dst = int(lo)
		}
	case 0x2: // WITH
		fx.src = int(lo)
		fx.dst = int(lo)
		fx.flags |= fxFlagB
	case 0x3:
		switch lo {
		case 0xC:
			fx.opLoop()
		case 0xD:
			fx.flags |= fxFlagALT1
		case 0xE:
			fx.flags |= fxFlagALT2
		case 0xF:
			fx.flags |= fxFlagALT1 | fxFlagALT2
		default:
			fx.opST(int(lo))
		}
	case 0x4:
		switch lo {
		case 0xC:
			fx.opPIX()
		case 0xD:
			fx.opSWAP()
		case 0xE:
			fx.opCOLOR()
		case 0xF:
			fx.opNOT()
		default:
			fx.opLD(int(lo))
		}
	case 0x5:
		fx.opADD(lo)
	case 0x6:
		fx.opSUB(lo)
	case 0x7:
		if lo == 0 {
			fx.opMERGE()
		} else {
			fx.opANDBIC(lo)
		}
	case 0x8:
		fx.opMULTByte(lo)
	case 0x9:
		switch lo {
		case 0x0:
			fx.opSBK()
		case 0x1, 0x2, 0x3, 0x4:
			fx.regs[fxLink] = fx.regs[fxPC] + uint16(lo)
			fx.resetPrefix()
		case 0x5:
			fx.opSEX()
		case 0x6:
			fx.opASR()
		case 0x7:
			fx.opROR()
		case 0xE:
			fx.opLOB()
		case 0xF:
			fx.opMULTWord()
		default: // 0x8..0xD
			fx.opJMP(lo)
		}
	case 0xA:
		switch fx.alt() {
		case 0:
			fx.opIBT(lo)
		case 2:
			fx.opSMS(lo)
		default:
			fx.opLMS(lo)
		}
	case 0xB: // FROM / MOVES
		if fx.flags&fxFlagB != 0 {
			data := fx.regs[lo]
			fx.setFlag(fxFlagOV, bits.Test16(data, 7))
			fx.setSZ(data)
			fx.setDst(data)
			fx.resetPrefix()
		} else {
			fx.src = int(lo)
		}
	case 0xC:
		if lo == 0 {
			fx.opHIB()
		} else {
			fx.opORXOR(lo)
		}
	case 0xD:
		if lo == 0xF {
			fx.opGETC()
		} else {
			fx.opINC(lo)
		}
	case 0xE:
		if lo == 0xF {
			fx.opGETB()
		} else {
			fx.opDEC(lo)
		}
	case 0xF:
		switch fx.alt() {
		case 0:
			fx.opIWT(lo)
		case 2:
			fx.opSM(lo)
		default:
			fx.opLM(lo)
		}
	}
	fx.cycleCount++
}

func (fx *SuperFX) stop() {
	fx.flags &^= fxFlagGO
	if !bits.Test(fx.cfg, 7) {
		fx.flags |= fxFlagIRQ
	}
	fx.resetPrefix()
}

func (fx *SuperFX) opBranch(cond byte) {
	offset := int8(fx.fetch())
	taken := false
	switch cond {
	case 0x5:
		taken = true
	case 0x6:
		taken = (fx.flags&fxFlagS != 0) == (fx.flags&fxFlagOV != 0)
	case 0x7:
		taken = (fx.flags&fxFlagS != 0) != (fx.flags&fxFlagOV != 0)
	case 0x8:
		taken = fx.flags&fxFlagZ == 0
	case 0x9:
		taken = fx.flags&fxFlagZ != 0
	case 0xA:
		taken = fx.flags&fxFlagS == 0
	case 0xB:
		taken = fx.flags&fxFlagS != 0
	case 0xC:
		taken = fx.flags&fxFlagCY == 0
	case 0xD:
		taken = fx.flags&fxFlagCY != 0
	case 0xE:
		taken = fx.flags&fxFlagOV == 0
	case 0xF:
		taken = fx.flags&fxFlagOV != 0
	}
	if taken {
		fx.setPC(fx.regs[fxPC] + uint16(int16(offset)))
	}
}

func (fx *SuperFX) opJMP(n byte) {
	if fx.flags&fxFlagALT1 != 0 { // LJMP
		fx.pcNext = fx.regs[fx.src]
		fx.pbNext = bits.Lo(fx.regs[n])
	} else {
		fx.setPC(fx.regs[n])
	}
	fx.resetPrefix()
}

func (fx *SuperFX) opLoop() {
	dec := fx.regs[fxLoopCtr] - 1
	fx.setSZ(dec)
	fx.regs[fxLoopCtr] = dec
	if dec != 0 {
		fx.setPC(fx.regs[fxLoopPtr])
	}
	fx.resetPrefix()
}

func (fx *SuperFX) opIBT(dst byte) {
	data := uint16(int16(int8(fx.fetch())))
	if int(dst) == fxPC {
		fx.setPC(data)
	} else {
		fx.regs[dst] = data
	}
	fx.resetPrefix()
}

func (fx *SuperFX) opIWT(dst byte) {
	lo := fx.fetch()
	hi := fx.fetch()
	data := bits.Make16(hi, lo)
	if int(dst) == fxPC {
		fx.setPC(data)
	} else {
		fx.regs[dst] = data
	}
	fx.resetPrefix()
}

func (fx *SuperFX) opGETB() {
	data := fx.fxReadROM(fx.romb, fx.regs[fxRomPtr])
	var result uint16
	switch fx.alt() {
	case 0:
		result = uint16(data)
	case 1: // GETBH
		result = bits.SetHi(fx.regs[fx.src], data)
	case 2: // GETBL
		result = bits.SetLo(fx.regs[fx.src], data)
	case 3: // GETBS
		result = uint16(int16(int8(data)))
	}
	fx.setDst(result)
	fx.resetPrefix()
}

func (fx *SuperFX) opGETC() {
	switch fx.alt() {
	case 0, 1: // GETC
		fx.colr = fx.fxReadROM(fx.romb, fx.regs[fxRomPtr])
	case 2: // RAMB
		fx.ramb = bits.Lo(fx.regs[fx.src]) & 1
	case 3: // ROMB
		fx.romb = bits.Lo(fx.regs[fx.src])
	}
	fx.resetPrefix()
}

func (fx *SuperFX) opLD(n int) {
	fx.lastRAMAddr = fx.regs[n]
	var data uint16
	if fx.flags&fxFlagALT1 != 0 { // LDB
		data = uint16(fx.readRAM(fx.lastRAMAddr))
	} else {
		lo := fx.readRAM(fx.lastRAMAddr)
		hi := fx.readRAM(fx.lastRAMAddr + 1)
		data = bits.Make16(hi, lo)
	}
	fx.setDst(data)
	fx.resetPrefix()
}

func (fx *SuperFX) opLM(dst byte) {
	lo := fx.fetch()
	hi := fx.fetch()
	fx.lastRAMAddr = bits.Make16(hi, lo)
	dlo := fx.readRAM(fx.lastRAMAddr)
	dhi := fx.readRAM(fx.lastRAMAddr + 1)
	fx.regs[dst] = bits.Make16(dhi, dlo)
	fx.resetPrefix()
}

func (fx *SuperFX) opLMS(dst byte) {
	fx.lastRAMAddr = uint16(fx.fetch()) << 1
	dlo := fx.readRAM(fx.lastRAMAddr)
	dhi := fx.readRAM(fx.lastRAMAddr + 1)
	fx.regs[dst] = bits.Make16(dhi, dlo)
	fx.resetPrefix()
}

func (fx *SuperFX) opST(n int) {
	fx.lastRAMAddr = fx.regs[n]
	if fx.flags&fxFlagALT1 != 0 { // STB
		fx.writeRAMByte(fx.lastRAMAddr, bits.Lo(fx.regs[fx.src]))
	} else {
		fx.writeRAMWord(fx.lastRAMAddr, fx.regs[fx.src])
	}
	fx.resetPrefix()
}

func (fx *SuperFX) opSM(src byte) {
	lo := fx.fetch()
	hi := fx.fetch()
	fx.lastRAMAddr = bits.Make16(hi, lo)
	fx.writeRAMWord(fx.lastRAMAddr, fx.regs[src])
	fx.resetPrefix()
}

func (fx *SuperFX) opSMS(src byte) {
	fx.lastRAMAddr = uint16(fx.fetch()) << 1
	fx.writeRAMWord(fx.lastRAMAddr, fx.regs[src])
	fx.resetPrefix()
}

func (fx *SuperFX) opSBK() {
	fx.writeRAMWord(fx.lastRAMAddr, fx.regs[fx.src])
	fx.resetPrefix()
}

func (fx *SuperFX) opSWAP() {
	s := fx.regs[fx.src]
	result := bits.Make16(bits.Lo(s), bits.Hi(s))
	fx.setSZ(result)
	fx.setDst(result)
	fx.resetPrefix()
}

func (fx *SuperFX) opSEX() {
	result := uint16(int16(int8(bits.Lo(fx.regs[fx.src]))))
	fx.setSZ(result)
	fx.setDst(result)
	fx.resetPrefix()
}

func (fx *SuperFX) opLOB() {
	result := uint16(bits.Lo(fx.regs[fx.src]))
	fx.setFlag(fxFlagZ, result == 0)
	fx.setFlag(fxFlagS, bits.Test16(result, 7))
	fx.setDst(result)
	fx.resetPrefix()
}

func (fx *SuperFX) opHIB() {
	result := uint16(bits.Hi(fx.regs[fx.src]))
	fx.setFlag(fxFlagZ, result == 0)
	fx.setFlag(fxFlagS, bits.Test16(result, 7))
	fx.setDst(result)
	fx.resetPrefix()
}

func (fx *SuperFX) opMERGE() {
	result := bits.Make16(bits.Hi(fx.regs[fxMergeHi]), bits.Hi(fx.regs[fxMergeLo]))
	fx.setFlag(fxFlagZ, result&0xF0F0 != 0)
	fx.setFlag(fxFlagCY, result&0xE0E0 != 0)
	fx.setFlag(fxFlagS, result&0x8080 != 0)
	fx.setFlag(fxFlagOV, result&0xC0C0 != 0)
	fx.setDst(result)
	fx.resetPrefix()
}

func (fx *SuperFX) opNOT() {
	result := ^fx.regs[fx.src]
	fx.setSZ(result)
	fx.setDst(result)
	fx.resetPrefix()
}

func (fx *SuperFX) opLSR() {
	s := fx.regs[fx.src]
	result := s >> 1
	fx.setFlag(fxFlagZ, result == 0)
	fx.setFlag(fxFlagCY, bits.Test16(s, 0))
	fx.flags &^= fxFlagS
	fx.setDst(result)
	fx.resetPrefix()
}

func (fx *SuperFX) opASR() {
	s := fx.regs[fx.src]
	var result uint16
	if fx.flags&fxFlagALT1 != 0 && s == 0xFFFF { // DIV2 rounds -1 to 0
		result = 0
	} else {
		result = uint16(int16(s) >> 1)
	}
	fx.setFlag(fxFlagCY, bits.Test16(s, 0))
	fx.setSZ(result)
	fx.setDst(result)
	fx.resetPrefix()
}

func (fx *SuperFX) opROL() {
	s := fx.regs[fx.src]
	carry := uint16(0)
	if fx.flags&fxFlagCY != 0 {
		carry = 1
	}
	result := (s << 1) | carry
	fx.setFlag(fxFlagCY, bits.Test16(s, 15))
	fx.setSZ(result)
	fx.setDst(result)
	fx.resetPrefix()
}

func (fx *SuperFX) opROR() {
	s := fx.regs[fx.src]
	carry := uint16(0)
	if fx.flags&fxFlagCY != 0 {
		carry = 0x8000
	}
	result := (s >> 1) | carry
	fx.setFlag(fxFlagCY, bits.Test16(s, 0))
	fx.setSZ(result)
	fx.setDst(result)
	fx.resetPrefix()
}

func (fx *SuperFX) opADD(n byte) {
	var result uint16
	switch fx.alt() {
	case 0:
		result = fx.doAdd(fx.regs[n], false)
	case 1:
		result = fx.doAdd(fx.regs[n], true)
	case 2:
		result = fx.doAdd(uint16(n), false)
	case 3:
		result = fx.doAdd(uint16(n), true)
	}
	fx.setDst(result)
	fx.resetPrefix()
}

func (fx *SuperFX) opSUB(n byte) {
	switch fx.alt() {
	case 0:
		fx.setDst(fx.doSub(fx.regs[n], false))
	case 1:
		fx.setDst(fx.doSub(fx.regs[n], true))
	case 2:
		fx.setDst(fx.doSub(uint16(n), false))
	case 3: // CMP
		fx.doSub(fx.regs[n], false)
	}
	fx.resetPrefix()
}

func (fx *SuperFX) opINC(n byte) {
	result := fx.regs[n] + 1
	fx.setSZ(result)
	fx.regs[n] = result
	fx.resetPrefix()
}

func (fx *SuperFX) opDEC(n byte) {
	result := fx.regs[n] - 1
	fx.setSZ(result)
	fx.regs[n] = result
	fx.resetPrefix()
}

func (fx *SuperFX) doAdd(opN uint16, withCarry bool) uint16 {
	op0 := uint32(fx.regs[fx.src])
	op1 := uint32(opN)
	var carry uint32
	if withCarry && fx.flags&fxFlagCY != 0 {
		carry = 1
	}
	result := op0 + op1 + carry
	fx.setFlag(fxFlagZ, uint16(result) == 0)
	fx.setFlag(fxFlagCY, bits.Test32(result, 16))
	fx.setFlag(fxFlagS, bits.Test32(result, 15))
	fx.setFlag(fxFlagOV, bits.Test32(^(op0^op1)&(op0^result), 15))
	return uint16(result)
}

func (fx *SuperFX) doSub(opN uint16, withCarry bool) uint16 {
	op0 := uint32(fx.regs[fx.src])
	op1 := uint32(opN)
	var carry uint32
	if withCarry && fx.flags&fxFlagCY == 0 {
		carry = 1
	}
	result := op0 - op1 - carry
	fx.setFlag(fxFlagZ, uint16(result) == 0)
	fx.setFlag(fxFlagCY, !bits.Test32(result, 16))
	fx.setFlag(fxFlagS, bits.Test32(result, 15))
	fx.setFlag(fxFlagOV, bits.Test32((op0^op1)&(op0^result), 15))
	return uint16(result)
}

func (fx *SuperFX) opANDBIC(n byte) {
	var op uint16
	switch fx.alt() {
	case 0:
		op = fx.regs[n]
	case 1:
		op = ^fx.regs[n]
	case 2:
		op = uint16(n)
	case 3:
		op = ^uint16(n)
	}
	result := fx.regs[fx.src] & op
	fx.setSZ(result)
	fx.setDst(result)
	fx.resetPrefix()
}

func (fx *SuperFX) opORXOR(n byte) {
	var result uint16
	switch fx.alt() {
	case 0:
		result = fx.regs[fx.src] | fx.regs[n]
	case 1:
		result = fx.regs[fx.src] ^ fx.regs[n]
	case 2:
		result = fx.regs[fx.src] | uint16(n)
	case 3:
		result = fx.regs[fx.src] ^ uint16(n)
	}
	fx.setSZ(result)
	fx.setDst(result)
	fx.resetPrefix()
}

func (fx *SuperFX) opMULTByte(n byte) {
	switch fx.alt() {
	case 0:
		fx.signedMult(bits.Lo(fx.regs[n]))
	case 1:
		fx.unsignedMult(bits.Lo(fx.regs[n]))
	case 2:
		fx.signedMult(n & 0xF)
	case 3:
		fx.unsignedMult(n & 0xF)
	}
	fx.cycleCount++
	fx.resetPrefix()
}

func (fx *SuperFX) signedMult(op byte) {
	s := int16(int8(bits.Lo(fx.regs[fx.src])))
	result := uint16(s * int16(int8(op)))
	fx.setSZ(result)
	fx.setDst(result)
}

func (fx *SuperFX) unsignedMult(op byte) {
	result := uint16(bits.Lo(fx.regs[fx.src])) * uint16(op)
	fx.setSZ(result)
	fx.setDst(result)
}

func (fx *SuperFX) opMULTWord() {
	s := int32(int16(fx.regs[fx.src]))
	op := int32(int16(fx.regs[fxMultOp]))
	result := uint32(s * op)
	fx.setFlag(fxFlagZ, result>>16 == 0)
	fx.setFlag(fxFlagCY, bits.Test32(result, 15))
	fx.setFlag(fxFlagS, bits.Test32(result, 31))
	if fx.flags&fxFlagALT1 != 0 { // LMULT
		fx.setDst(uint16(result >> 16))
		fx.regs[fxMultDst] = uint16(result)
	} else { // FMULT
		fx.setDst(uint16(result >> 16))
	}
	fx.cycleCount += 7
	fx.resetPrefix()
}

// COLOR / CMODE
func (fx *SuperFX) opCOLOR() {
	if fx.flags&fxFlagALT1 != 0 {
		fx.por = bits.Lo(fx.regs[fx.src])
	} else {
		fx.colr = bits.Lo(fx.regs[fx.src])
	}
	fx.resetPrefix()
}

// PLOT / RPIX
func (fx *SuperFX) opPIX() {
	if fx.flags&fxFlagALT1 != 0 {
		result := fx.readPixel(bits.Lo(fx.regs[fxPlotX]), bits.Lo(fx.regs[fxPlotY]))
		fx.setFlag(fxFlagZ, result == 0)
		fx.setFlag(fxFlagS, bits.Test(result, 7))
		fx.setDst(uint16(result))
	} else {
		fx.plot(bits.Lo(fx.regs[fxPlotX]), bits.Lo(fx.regs[fxPlotY]), fx.colr)
		fx.regs[fxPlotX]++
	}
	fx.resetPrefix()
}

func (fx *SuperFX) bpp() int {
	switch fx.scmr & 3 {
	case 0:
		return 2
	case 1:
		return 4
	default:
		return 8
	}
}

// screenHeightTiles gives the column height of the plot area in tiles.
func (fx *SuperFX) screenHeightTiles() int {
	switch (fx.scmr >> 2) & 3 {
	case 0:
		return 16
	case 1:
		return 20
	default:
		return 32
	}
}

// tileAddr locates the 8x8 character cell holding (x, y) in chip RAM. The
// screen is stored column-major as on hardware: character number =
// (x/8)*height + (y/8).
func (fx *SuperFX) tileAddr(x, y byte) uint32 {
	bpp := fx.bpp()
	tile := (int(x)/8)*fx.screenHeightTiles() + int(y)/8
	base := uint32(fx.scbr) << 10
	return base + uint32(tile*bpp*8) + uint32(y&7)*2
}

func (fx *SuperFX) plot(x, y byte, colour byte) {
	bpp := fx.bpp()
	addr := fx.tileAddr(x, y)
	bit := byte(7 - (x & 7))
	for plane := 0; plane < bpp; plane++ {
		planeAddr := addr + uint32(plane/2)*0x10 + uint32(plane%2)
		b := fx.ram.Read(planeAddr % fxRAMSize)
		if colour&(1<<plane) != 0 {
			b |= 1 << bit
		} else {
			b &^= 1 << bit
		}
		fx.ram.Write(planeAddr%fxRAMSize, b)
		fx.cycleCount++
	}
}

func (fx *SuperFX) readPixel(x, y byte) byte {
	bpp := fx.bpp()
	addr := fx.tileAddr(x, y)
	bit := byte(7 - (x & 7))
	var colour byte
	for plane := 0; plane < bpp; plane++ {
		planeAddr := addr + uint32(plane/2)*0x10 + uint32(plane%2)
		if fx.ram.Read(planeAddr%fxRAMSize)&(1<<bit) != 0 {
			colour |= 1 << plane
		}
		fx.cycleCount++
	}
	return colour
}
