package apu

import (
	"fmt"

	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/bits"
)

// PSW flag bits.
const (
	spcC byte = 1 << 0 // carry
	spcZ byte = 1 << 1 // zero
	spcI byte = 1 << 2 // interrupt enable (unused by the hardware)
	spcH byte = 1 << 3 // half carry
	spcB byte = 1 << 4 // break
	spcP byte = 1 << 5 // direct page select
	spcV byte = 1 << 6 // overflow
	spcN byte = 1 << 7 // negative
)

// spcCycles is the base cycle count per opcode; taken branches add two.
var spcCycles = [256]int{
	//  0  1  2  3  4  5  6  7  8  9  A  B  C  D  E  F
	2, 8, 4, 5, 3, 4, 3, 6, 2, 6, 4, 4, 5, 4, 6, 8, // 0x
	2, 8, 4, 5, 4, 5, 5, 6, 5, 5, 6, 5, 2, 2, 4, 6, // 1x
	2, 8, 4, 5, 3, 4, 3, 6, 2, 6, 4, 4, 5, 4, 5, 4, // 2x
	2, 8, 4, 5, 4, 5, 5, 6, 5, 5, 6, 5, 2, 2, 3, 8, // 3x
	2, 8, 4, 5, 3, 4, 3, 6, 2, 6, 4, 4, 5, 4, 6, 6, // 4x
	2, 8, 4, 5, 4, 5, 5, 6, 5, 5, 4, 5, 2, 2, 4, 3, // 5x
	2, 8, 4, 5, 3, 4, 3, 6, 2, 6, 4, 4, 5, 4, 5, 5, // 6x
	2, 8, 4, 5, 4, 5, 5, 6, 5, 5, 5, 5, 2, 2, 3, 6, // 7x
	2, 8, 4, 5, 3, 4, 3, 6, 2, 6, 5, 4, 5, 2, 4, 5, // 8x
	2, 8, 4, 5, 4, 5, 5, 6, 5, 5, 5, 5, 2, 2, 12, 5, // 9x
	3, 8, 4, 5, 3, 4, 3, 6, 2, 6, 4, 4, 5, 2, 4, 4, // Ax
	2, 8, 4, 5, 4, 5, 5, 6, 5, 5, 5, 5, 2, 2, 3, 4, // Bx
	3, 8, 4, 5, 4, 5, 4, 7, 2, 5, 6, 4, 5, 2, 4, 9, // Cx
	2, 8, 4, 5, 5, 6, 6, 7, 4, 5, 5, 5, 2, 2, 6, 3, // Dx
	2, 8, 4, 5, 3, 4, 3, 6, 2, 4, 5, 3, 4, 3, 4, 3, // Ex
	2, 8, 4, 5, 4, 5, 5, 6, 3, 4, 5, 4, 2, 2, 4, 3, // Fx
}

// spc is the 8-bit audio CPU.
type spc struct {
	a, x, y, sp byte
	pc          uint16
	psw         byte

	halted bool

	bus *spcBus
}

func newSPC(bus *spcBus) *spc {
	return &spc{
		sp:  0xEF,
		psw: spcZ,
		pc:  bus.resetVector(),
		bus: bus,
	}
}

// step executes one instruction and returns its cost in audio cycles.
func (s *spc) step() int {
	if s.halted {
		return 2
	}
	op := s.fetch()
	extra := s.execute(op)
	return spcCycles[op] + extra
}

func (s *spc) rd(addr uint16) byte       { return s.bus.read(addr) }
func (s *spc) wr(addr uint16, data byte) { s.bus.write(addr, data) }

func (s *spc) fetch() byte {
	v := s.rd(s.pc)
	s.pc++
	return v
}

func (s *spc) fetch16() uint16 {
	lo := s.fetch()
	hi := s.fetch()
	return bits.Make16(hi, lo)
}

func (s *spc) flag(f byte) bool { return s.psw&f != 0 }

func (s *spc) setFlag(f byte, on bool) {
	if on {
		s.psw |= f
	} else {
		s.psw &^= f
	}
}

func (s *spc) setNZ(v byte) byte {
	s.setFlag(spcN, v&0x80 != 0)
	s.setFlag(spcZ, v == 0)
	return v
}

func (s *spc) setNZ16(v uint16) uint16 {
	s.setFlag(spcN, v&0x8000 != 0)
	s.setFlag(spcZ, v == 0)
	return v
}

// Direct page addressing, with the P flag selecting page 1.
func (s *spc) dpBase() uint16 {
	if s.flag(spcP) {
		return 0x100
	}
	return 0
}

func (s *spc) aDP() uint16     { return s.dpBase() + uint16(s.fetch()) }
func (s *spc) aDPOff(off byte) uint16 {
	return s.dpBase() + uint16(s.fetch()+off)
}
func (s *spc) aDPX() uint16 { return s.aDPOff(s.x) }
func (s *spc) aDPY() uint16 { return s.aDPOff(s.y) }

func (s *spc) aABS() uint16  { return s.fetch16() }
func (s *spc) aABSX() uint16 { return s.fetch16() + uint16(s.x) }
func (s *spc) aABSY() uint16 { return s.fetch16() + uint16(s.y) }

func (s *spc) aIndX() uint16 { return s.dpBase() + uint16(s.x) }

func (s *spc) aIndXInc() uint16 {
	addr := s.dpBase() + uint16(s.x)
	s.x++
	return addr
}

// [dp]+Y
func (s *spc) aDPIndY() uint16 {
	dp := s.aDP()
	lo := s.rd(dp)
	hi := s.rd(s.dpBase() + uint16(byte(dp)+1))
	return bits.Make16(hi, lo) + uint16(s.y)
}

// [dp+X]
func (s *spc) aDPXInd() uint16 {
	dp := s.dpBase() + uint16(s.fetch()+s.x)
	lo := s.rd(dp)
	hi := s.rd(s.dpBase() + uint16(byte(dp)+1))
	return bits.Make16(hi, lo)
}

// Stack. The stack page is fixed at $01xx.
func (s *spc) push(v byte) {
	s.wr(0x100+uint16(s.sp), v)
	s.sp--
}

func (s *spc) pop() byte {
	s.sp++
	return s.rd(0x100 + uint16(s.sp))
}

// Arithmetic helpers.
func (s *spc) adc(a, b byte) byte {
	carry := uint16(0)
	if s.flag(spcC) {
		carry = 1
	}
	r := uint16(a) + uint16(b) + carry
	res := byte(r)
	s.setFlag(spcC, r > 0xFF)
	s.setFlag(spcH, (a&0xF)+(b&0xF)+byte(carry) > 0xF)
	s.setFlag(spcV, (^(a^b)&(a^res))&0x80 != 0)
	return s.setNZ(res)
}

func (s *spc) sbc(a, b byte) byte {
	return s.adc(a, ^b)
}

func (s *spc) cmp(a, b byte) {
	r := int16(a) - int16(b)
	s.setFlag(spcC, r >= 0)
	s.setNZ(byte(r))
}

// Read-modify-write helpers operating on memory.
func (s *spc) rmw(addr uint16, f func(byte) byte) {
	s.wr(addr, f(s.rd(addr)))
}

func (s *spc) opASL(v byte) byte {
	s.setFlag(spcC, v&0x80 != 0)
	return s.setNZ(v << 1)
}

func (s *spc) opLSR(v byte) byte {
	s.setFlag(spcC, v&1 != 0)
	return s.setNZ(v >> 1)
}

func (s *spc) opROL(v byte) byte {
	carry := byte(0)
	if s.flag(spcC) {
		carry = 1
	}
	s.setFlag(spcC, v&0x80 != 0)
	return s.setNZ(v<<1 | carry)
}

func (s *spc) opROR(v byte) byte {
	carry := byte(0)
	if s.flag(spcC) {
		carry = 0x80
	}
	s.setFlag(spcC, v&1 != 0)
	return s.setNZ(v>>1 | carry)
}

func (s *spc) opINC(v byte) byte { return s.setNZ(v + 1) }
func (s *spc) opDEC(v byte) byte { return s.setNZ(v - 1) }

// branch consumes the displacement and jumps when taken; returns the cycle
// penalty.
func (s *spc) branch(take bool) int {
	off := int8(s.fetch())
	if !take {
		return 0
	}
	s.pc += uint16(int16(off))
	return 2
}

func (s *spc) call(addr uint16) {
	s.push(bits.Hi(s.pc))
	s.push(bits.Lo(s.pc))
	s.pc = addr
}

// Absolute-bit operand: 13-bit address plus 3-bit bit number.
func (s *spc) absBit() (uint16, byte) {
	v := s.fetch16()
	return v & 0x1FFF, byte(v >> 13)
}

func (s *spc) ya() uint16 { return bits.Make16(s.y, s.a) }

func (s *spc) setYA(v uint16) {
	s.y = bits.Hi(v)
	s.a = bits.Lo(v)
}

// execute runs one decoded opcode and returns any extra cycles (taken
// branches).
func (s *spc) execute(op byte) int {
	switch op {
	// ---- MOV into registers ----
	case 0xE8:
		s.a = s.setNZ(s.fetch())
	case 0xE4:
		s.a = s.setNZ(s.rd(s.aDP()))
	case 0xF4:
		s.a = s.setNZ(s.rd(s.aDPX()))
	case 0xE5:
		s.a = s.setNZ(s.rd(s.aABS()))
	case 0xF5:
		s.a = s.setNZ(s.rd(s.aABSX()))
	case 0xF6:
		s.a = s.setNZ(s.rd(s.aABSY()))
	case 0xE6:
		s.a = s.setNZ(s.rd(s.aIndX()))
	case 0xBF:
		s.a = s.setNZ(s.rd(s.aIndXInc()))
	case 0xF7:
		s.a = s.setNZ(s.rd(s.aDPIndY()))
	case 0xE7:
		s.a = s.setNZ(s.rd(s.aDPXInd()))
	case 0xCD:
		s.x = s.setNZ(s.fetch())
	case 0xF8:
		s.x = s.setNZ(s.rd(s.aDP()))
	case 0xF9:
		s.x = s.setNZ(s.rd(s.aDPY()))
	case 0xE9:
		s.x = s.setNZ(s.rd(s.aABS()))
	case 0x8D:
		s.y = s.setNZ(s.fetch())
	case 0xEB:
		s.y = s.setNZ(s.rd(s.aDP()))
	case 0xFB:
		s.y = s.setNZ(s.rd(s.aDPX()))
	case 0xEC:
		s.y = s.setNZ(s.rd(s.aABS()))

	// ---- MOV register-to-register ----
	case 0x7D:
		s.a = s.setNZ(s.x)
	case 0xDD:
		s.a = s.setNZ(s.y)
	case 0x5D:
		s.x = s.setNZ(s.a)
	case 0xFD:
		s.y = s.setNZ(s.a)
	case 0x9D:
		s.x = s.setNZ(s.sp)
	case 0xBD:
		s.sp = s.x

	// ---- MOV into memory ----
	case 0xC4:
		s.wr(s.aDP(), s.a)
	case 0xD4:
		s.wr(s.aDPX(), s.a)
	case 0xC5:
		s.wr(s.aABS(), s.a)
	case 0xD5:
		s.wr(s.aABSX(), s.a)
	case 0xD6:
		s.wr(s.aABSY(), s.a)
	case 0xC6:
		s.wr(s.aIndX(), s.a)
	case 0xAF:
		s.wr(s.aIndXInc(), s.a)
	case 0xD7:
		s.wr(s.aDPIndY(), s.a)
	case 0xC7:
		s.wr(s.aDPXInd(), s.a)
	case 0xD8:
		s.wr(s.aDP(), s.x)
	case 0xD9:
		s.wr(s.aDPY(), s.x)
	case 0xC9:
		s.wr(s.aABS(), s.x)
	case 0xCB:
		s.wr(s.aDP(), s.y)
	case 0xDB:
		s.wr(s.aDPX(), s.y)
	case 0xCC:
		s.wr(s.aABS(), s.y)
	case 0x8F: // MOV dp,#imm
		imm := s.fetch()
		s.wr(s.aDP(), imm)
	case 0xFA: // MOV dp,dp
		src := s.rd(s.aDP())
		s.wr(s.aDP(), src)

	// ---- ADC ----
	case 0x88:
		s.a = s.adc(s.a, s.fetch())
	case 0x84:
		s.a = s.adc(s.a, s.rd(s.aDP()))
	case 0x94:
		s.a = s.adc(s.a, s.rd(s.aDPX()))
	case 0x85:
		s.a = s.adc(s.a, s.rd(s.aABS()))
	case 0x95:
		s.a = s.adc(s.a, s.rd(s.aABSX()))
	case 0x96:
		s.a = s.adc(s.a, s.rd(s.aABSY()))
	case 0x86:
		s.a = s.adc(s.a, s.rd(s.aIndX()))
	case 0x97:
		s.a = s.adc(s.a, s.rd(s.aDPIndY()))
	case 0x87:
		s.a = s.adc(s.a, s.rd(s.aDPXInd()))
	case 0x99: // ADC (X),(Y)
		src := s.rd(s.dpBase() + uint16(s.y))
		addr := s.dpBase() + uint16(s.x)
		s.wr(addr, s.adc(s.rd(addr), src))
	case 0x89: // ADC dp,dp
		src := s.rd(s.aDP())
		addr := s.aDP()
		s.wr(addr, s.adc(s.rd(addr), src))
	case 0x98: // ADC dp,#imm
		imm := s.fetch()
		addr := s.aDP()
		s.wr(addr, s.adc(s.rd(addr), imm))

	// ---- SBC ----
	case 0xA8:
		s.a = s.sbc(s.a, s.fetch())
	case 0xA4:
		s.a = s.sbc(s.a, s.rd(s.aDP()))
	case 0xB4:
		s.a = s.sbc(s.a, s.rd(s.aDPX()))
	case 0xA5:
		s.a = s.sbc(s.a, s.rd(s.aABS()))
	case 0xB5:
		s.a = s.sbc(s.a, s.rd(s.aABSX()))
	case 0xB6:
		s.a = s.sbc(s.a, s.rd(s.aABSY()))
	case 0xA6:
		s.a = s.sbc(s.a, s.rd(s.aIndX()))
	case 0xB7:
		s.a = s.sbc(s.a, s.rd(s.aDPIndY()))
	case 0xA7:
		s.a = s.sbc(s.a, s.rd(s.aDPXInd()))
	case 0xB9: // SBC (X),(Y)
		src := s.rd(s.dpBase() + uint16(s.y))
		addr := s.dpBase() + uint16(s.x)
		s.wr(addr, s.sbc(s.rd(addr), src))
	case 0xA9: // SBC dp,dp
		src := s.rd(s.aDP())
		addr := s.aDP()
		s.wr(addr, s.sbc(s.rd(addr), src))
	case 0xB8: // SBC dp,#imm
		imm := s.fetch()
		addr := s.aDP()
		s.wr(addr, s.sbc(s.rd(addr), imm))

	// ---- CMP ----
	case 0x68:
		s.cmp(s.a, s.fetch())
	case 0x64:
		s.cmp(s.a, s.rd(s.aDP()))
	case 0x74:
		s.cmp(s.a, s.rd(s.aDPX()))
	case 0x65:
		s.cmp(s.a, s.rd(s.aABS()))
	case 0x75:
		s.cmp(s.a, s.rd(s.aABSX()))
	case 0x76:
		s.cmp(s.a, s.rd(s.aABSY()))
	case 0x66:
		s.cmp(s.a, s.rd(s.aIndX()))
	case 0x77:
		s.cmp(s.a, s.rd(s.aDPIndY()))
	case 0x67:
		s.cmp(s.a, s.rd(s.aDPXInd()))
	case 0x79: // CMP (X),(Y)
		src := s.rd(s.dpBase() + uint16(s.y))
		s.cmp(s.rd(s.dpBase()+uint16(s.x)), src)
	case 0x69: // CMP dp,dp
		src := s.rd(s.aDP())
		s.cmp(s.rd(s.aDP()), src)
	case 0x78: // CMP dp,#imm
		imm := s.fetch()
		s.cmp(s.rd(s.aDP()), imm)
	case 0xC8:
		s.cmp(s.x, s.fetch())
	case 0x3E:
		s.cmp(s.x, s.rd(s.aDP()))
	case 0x1E:
		s.cmp(s.x, s.rd(s.aABS()))
	case 0xAD:
		s.cmp(s.y, s.fetch())
	case 0x7E:
		s.cmp(s.y, s.rd(s.aDP()))
	case 0x5E:
		s.cmp(s.y, s.rd(s.aABS()))

	// ---- AND ----
	case 0x28:
		s.a = s.setNZ(s.a & s.fetch())
	case 0x24:
		s.a = s.setNZ(s.a & s.rd(s.aDP()))
	case 0x34:
		s.a = s.setNZ(s.a & s.rd(s.aDPX()))
	case 0x25:
		s.a = s.setNZ(s.a & s.rd(s.aABS()))
	case 0x35:
		s.a = s.setNZ(s.a & s.rd(s.aABSX()))
	case 0x36:
		s.a = s.setNZ(s.a & s.rd(s.aABSY()))
	case 0x26:
		s.a = s.setNZ(s.a & s.rd(s.aIndX()))
	case 0x37:
		s.a = s.setNZ(s.a & s.rd(s.aDPIndY()))
	case 0x27:
		s.a = s.setNZ(s.a & s.rd(s.aDPXInd()))
	case 0x39: // AND (X),(Y)
		src := s.rd(s.dpBase() + uint16(s.y))
		addr := s.dpBase() + uint16(s.x)
		s.wr(addr, s.setNZ(s.rd(addr)&src))
	case 0x29: // AND dp,dp
		src := s.rd(s.aDP())
		addr := s.aDP()
		s.wr(addr, s.setNZ(s.rd(addr)&src))
	case 0x38: // AND dp,#imm
		imm := s.fetch()
		addr := s.aDP()
		s.wr(addr, s.setNZ(s.rd(addr)&imm))

	// ---- OR ----
	case 0x08:
		s.a = s.setNZ(s.a | s.fetch())
	case 0x04:
		s.a = s.setNZ(s.a | s.rd(s.aDP()))
	case 0x14:
		s.a = s.setNZ(s.a | s.rd(s.aDPX()))
	case 0x05:
		s.a = s.setNZ(s.a | s.rd(s.aABS()))
	case 0x15:
		s.a = s.setNZ(s.a | s.rd(s.aABSX()))
	case 0x16:
		s.a = s.setNZ(s.a | s.rd(s.aABSY()))
	case 0x06:
		s.a = s.setNZ(s.a | s.rd(s.aIndX()))
	case 0x17:
		s.a = s.setNZ(s.a | s.rd(s.aDPIndY()))
	case 0x07:
		s.a = s.setNZ(s.a | s.rd(s.aDPXInd()))
	case 0x19: // OR (X),(Y)
		src := s.rd(s.dpBase() + uint16(s.y))
		addr := s.dpBase() + uint16(s.x)
		s.wr(addr, s.setNZ(s.rd(addr)|src))
	case 0x09: // OR dp,dp
		src := s.rd(s.aDP())
		addr := s.aDP()
		s.wr(addr, s.setNZ(s.rd(addr)|src))
	case 0x18: // OR dp,#imm
		imm := s.fetch()
		addr := s.aDP()
		s.wr(addr, s.setNZ(s.rd(addr)|imm))

	// ---- EOR ----
	case 0x48:
		s.a = s.setNZ(s.a ^ s.fetch())
	case 0x44:
		s.a = s.setNZ(s.a ^ s.rd(s.aDP()))
	case 0x54:
		s.a = s.setNZ(s.a ^ s.rd(s.aDPX()))
	case 0x45:
		s.a = s.setNZ(s.a ^ s.rd(s.aABS()))
	case 0x55:
		s.a = s.setNZ(s.a ^ s.rd(s.aABSX()))
	case 0x56:
		s.a = s.setNZ(s.a ^ s.rd(s.aABSY()))
	case 0x46:
		s.a = s.setNZ(s.a ^ s.rd(s.aIndX()))
	case 0x57:
		s.a = s.setNZ(s.a ^ s.rd(s.aDPIndY()))
	case 0x47:
		s.a = s.setNZ(s.a ^ s.rd(s.aDPXInd()))
	case 0x59: // EOR (X),(Y)
		src := s.rd(s.dpBase() + uint16(s.y))
		addr := s.dpBase() + uint16(s.x)
		s.wr(addr, s.setNZ(s.rd(addr)^src))
	case 0x49: // EOR dp,dp
		src := s.rd(s.aDP())
		addr := s.aDP()
		s.wr(addr, s.setNZ(s.rd(addr)^src))
	case 0x58: // EOR dp,#imm
		imm := s.fetch()
		addr := s.aDP()
		s.wr(addr, s.setNZ(s.rd(addr)^imm))

	// ---- INC/DEC ----
	case 0xBC:
		s.a = s.opINC(s.a)
	case 0xAB:
		s.rmw(s.aDP(), s.opINC)
	case 0xBB:
		s.rmw(s.aDPX(), s.opINC)
	case 0xAC:
		s.rmw(s.aABS(), s.opINC)
	case 0x3D:
		s.x = s.opINC(s.x)
	case 0xFC:
		s.y = s.opINC(s.y)
	case 0x9C:
		s.a = s.opDEC(s.a)
	case 0x8B:
		s.rmw(s.aDP(), s.opDEC)
	case 0x9B:
		s.rmw(s.aDPX(), s.opDEC)
	case 0x8C:
		s.rmw(s.aABS(), s.opDEC)
	case 0x1D:
		s.x = s.opDEC(s.x)
	case 0xDC:
		s.y = s.opDEC(s.y)

	// ---- Shifts and rotates ----
	case 0x1C:
		s.a = s.opASL(s.a)
	case 0x0B:
		s.rmw(s.aDP(), s.opASL)
	case 0x1B:
		s.rmw(s.aDPX(), s.opASL)
	case 0x0C:
		s.rmw(s.aABS(), s.opASL)
	case 0x5C:
		s.a = s.opLSR(s.a)
	case 0x4B:
		s.rmw(s.aDP(), s.opLSR)
	case 0x5B:
		s.rmw(s.aDPX(), s.opLSR)
	case 0x4C:
		s.rmw(s.aABS(), s.opLSR)
	case 0x3C:
		s.a = s.opROL(s.a)
	case 0x2B:
		s.rmw(s.aDP(), s.opROL)
	case 0x3B:
		s.rmw(s.aDPX(), s.opROL)
	case 0x2C:
		s.rmw(s.aABS(), s.opROL)
	case 0x7C:
		s.a = s.opROR(s.a)
	case 0x6B:
		s.rmw(s.aDP(), s.opROR)
	case 0x7B:
		s.rmw(s.aDPX(), s.opROR)
	case 0x6C:
		s.rmw(s.aABS(), s.opROR)
	case 0x9F: // XCN: swap nybbles of A
		s.a = s.setNZ(s.a<<4 | s.a>>4)

	// ---- 16-bit ops ----
	case 0xBA: // MOVW YA,dp
		addr := s.aDP()
		lo := s.rd(addr)
		hi := s.rd(s.dpBase() + uint16(byte(addr)+1))
		s.setYA(s.setNZ16(bits.Make16(hi, lo)))
	case 0xDA: // MOVW dp,YA
		addr := s.aDP()
		s.wr(addr, s.a)
		s.wr(s.dpBase()+uint16(byte(addr)+1), s.y)
	case 0x3A: // INCW dp
		addr := s.aDP()
		v := s.readWord(addr) + 1
		s.writeWord(addr, s.setNZ16(v))
	case 0x1A: // DECW dp
		addr := s.aDP()
		v := s.readWord(addr) - 1
		s.writeWord(addr, s.setNZ16(v))
	case 0x7A: // ADDW YA,dp
		op := s.readWord(s.aDP())
		ya := s.ya()
		r := uint32(ya) + uint32(op)
		res := uint16(r)
		s.setFlag(spcC, r > 0xFFFF)
		s.setFlag(spcH, (ya&0xFFF)+(op&0xFFF) > 0xFFF)
		s.setFlag(spcV, (^(ya^op)&(ya^res))&0x8000 != 0)
		s.setYA(s.setNZ16(res))
	case 0x9A: // SUBW YA,dp
		op := s.readWord(s.aDP())
		ya := s.ya()
		r := int32(ya) - int32(op)
		res := uint16(r)
		s.setFlag(spcC, r >= 0)
		s.setFlag(spcH, ya&0xFFF >= op&0xFFF)
		s.setFlag(spcV, ((ya^op)&(ya^res))&0x8000 != 0)
		s.setYA(s.setNZ16(res))
	case 0x5A: // CMPW YA,dp
		op := s.readWord(s.aDP())
		r := int32(s.ya()) - int32(op)
		s.setFlag(spcC, r >= 0)
		s.setNZ16(uint16(r))
	case 0xCF: // MUL YA
		s.setYA(uint16(s.y) * uint16(s.a))
		s.setNZ(s.y)
	case 0x9E: // DIV YA,X
		s.div()

	// ---- Decimal adjust ----
	case 0xDF: // DAA
		if s.flag(spcC) || s.a > 0x99 {
			s.a += 0x60
			s.setFlag(spcC, true)
		}
		if s.flag(spcH) || s.a&0xF > 9 {
			s.a += 6
		}
		s.setNZ(s.a)
	case 0xBE: // DAS
		if !s.flag(spcC) || s.a > 0x99 {
			s.a -= 0x60
			s.setFlag(spcC, false)
		}
		if !s.flag(spcH) || s.a&0xF > 9 {
			s.a -= 6
		}
		s.setNZ(s.a)

	// ---- Branches ----
	case 0x2F:
		return s.branch(true)
	case 0x10:
		return s.branch(!s.flag(spcN))
	case 0x30:
		return s.branch(s.flag(spcN))
	case 0x50:
		return s.branch(!s.flag(spcV))
	case 0x70:
		return s.branch(s.flag(spcV))
	case 0x90:
		return s.branch(!s.flag(spcC))
	case 0xB0:
		return s.branch(s.flag(spcC))
	case 0xD0:
		return s.branch(!s.flag(spcZ))
	case 0xF0:
		return s.branch(s.flag(spcZ))

	// BBS / BBC dp.bit,rel
	case 0x03, 0x23, 0x43, 0x63, 0x83, 0xA3, 0xC3, 0xE3:
		bit := op >> 5
		v := s.rd(s.aDP())
		return s.branch(v&(1<<bit) != 0)
	case 0x13, 0x33, 0x53, 0x73, 0x93, 0xB3, 0xD3, 0xF3:
		bit := op >> 5
		v := s.rd(s.aDP())
		return s.branch(v&(1<<bit) == 0)

	case 0x2E: // CBNE dp,rel
		v := s.rd(s.aDP())
		return s.branch(v != s.a)
	case 0xDE: // CBNE dp+X,rel
		v := s.rd(s.aDPX())
		return s.branch(v != s.a)
	case 0x6E: // DBNZ dp,rel
		addr := s.aDP()
		v := s.rd(addr) - 1
		s.wr(addr, v)
		return s.branch(v != 0)
	case 0xFE: // DBNZ Y,rel
		s.y--
		return s.branch(s.y != 0)

	// ---- Jumps and calls ----
	case 0x5F: // JMP !abs
		s.pc = s.fetch16()
	case 0x1F: // JMP [!abs+X]
		ptr := s.fetch16() + uint16(s.x)
		s.pc = bits.Make16(s.rd(ptr+1), s.rd(ptr))
	case 0x3F: // CALL !abs
		addr := s.fetch16()
		s.call(addr)
	case 0x4F: // PCALL up
		addr := 0xFF00 + uint16(s.fetch())
		s.call(addr)
	case 0x01, 0x11, 0x21, 0x31, 0x41, 0x51, 0x61, 0x71,
		0x81, 0x91, 0xA1, 0xB1, 0xC1, 0xD1, 0xE1, 0xF1: // TCALL n
		n := uint16(op >> 4)
		vector := 0xFFDE - n*2
		s.call(bits.Make16(s.rd(vector+1), s.rd(vector)))
	case 0x6F: // RET
		lo := s.pop()
		hi := s.pop()
		s.pc = bits.Make16(hi, lo)
	case 0x7F: // RETI
		s.psw = s.pop()
		lo := s.pop()
		hi := s.pop()
		s.pc = bits.Make16(hi, lo)
	case 0x0F: // BRK
		s.push(bits.Hi(s.pc))
		s.push(bits.Lo(s.pc))
		s.push(s.psw)
		s.setFlag(spcB, true)
		s.setFlag(spcI, false)
		s.pc = bits.Make16(s.rd(0xFFDF), s.rd(0xFFDE))

	// ---- Stack ----
	case 0x2D:
		s.push(s.a)
	case 0x4D:
		s.push(s.x)
	case 0x6D:
		s.push(s.y)
	case 0x0D:
		s.push(s.psw)
	case 0xAE:
		s.a = s.pop()
	case 0xCE:
		s.x = s.pop()
	case 0xEE:
		s.y = s.pop()
	case 0x8E:
		s.psw = s.pop()

	// ---- Single-bit operations ----
	case 0x02, 0x22, 0x42, 0x62, 0x82, 0xA2, 0xC2, 0xE2: // SET1
		bit := op >> 5
		s.rmw(s.aDP(), func(v byte) byte { return v | 1<<bit })
	case 0x12, 0x32, 0x52, 0x72, 0x92, 0xB2, 0xD2, 0xF2: // CLR1
		bit := op >> 5
		s.rmw(s.aDP(), func(v byte) byte { return v &^ (1 << bit) })
	case 0x0E: // TSET1 !abs
		addr := s.aABS()
		v := s.rd(addr)
		s.setNZ(s.a - v)
		s.wr(addr, v|s.a)
	case 0x4E: // TCLR1 !abs
		addr := s.aABS()
		v := s.rd(addr)
		s.setNZ(s.a - v)
		s.wr(addr, v&^s.a)
	case 0x0A: // OR1 C,m.b
		addr, bit := s.absBit()
		s.setFlag(spcC, s.flag(spcC) || s.rd(addr)&(1<<bit) != 0)
	case 0x2A: // OR1 C,/m.b
		addr, bit := s.absBit()
		s.setFlag(spcC, s.flag(spcC) || s.rd(addr)&(1<<bit) == 0)
	case 0x4A: // AND1 C,m.b
		addr, bit := s.absBit()
		s.setFlag(spcC, s.flag(spcC) && s.rd(addr)&(1<<bit) != 0)
	case 0x6A: // AND1 C,/m.b
		addr, bit := s.absBit()
		s.setFlag(spcC, s.flag(spcC) && s.rd(addr)&(1<<bit) == 0)
	case 0x8A: // EOR1 C,m.b
		addr, bit := s.absBit()
		s.setFlag(spcC, s.flag(spcC) != (s.rd(addr)&(1<<bit) != 0))
	case 0xAA: // MOV1 C,m.b
		addr, bit := s.absBit()
		s.setFlag(spcC, s.rd(addr)&(1<<bit) != 0)
	case 0xCA: // MOV1 m.b,C
		addr, bit := s.absBit()
		if s.flag(spcC) {
			s.wr(addr, s.rd(addr)|1<<bit)
		} else {
			s.wr(addr, s.rd(addr)&^(1<<bit))
		}
	case 0xEA: // NOT1 m.b
		addr, bit := s.absBit()
		s.wr(addr, s.rd(addr)^(1<<bit))

	// ---- Flag operations ----
	case 0x60:
		s.setFlag(spcC, false)
	case 0x80:
		s.setFlag(spcC, true)
	case 0xED:
		s.psw ^= spcC
	case 0xE0:
		s.psw &^= spcV | spcH
	case 0x20:
		s.setFlag(spcP, false)
	case 0x40:
		s.setFlag(spcP, true)
	case 0xA0:
		s.setFlag(spcI, true)
	case 0xC0:
		s.setFlag(spcI, false)

	// ---- Misc ----
	case 0x00: // NOP
	case 0xEF, 0xFF: // SLEEP / STOP
		s.halted = true

	default:
		panic(fmt.Sprintf("apu: unhandled SPC opcode %02X at %04X", op, s.pc-1))
	}
	return 0
}

func (s *spc) readWord(addr uint16) uint16 {
	lo := s.rd(addr)
	hi := s.rd(s.dpBase() + uint16(byte(addr)+1))
	return bits.Make16(hi, lo)
}

func (s *spc) writeWord(addr uint16, v uint16) {
	s.wr(addr, bits.Lo(v))
	s.wr(s.dpBase()+uint16(byte(addr)+1), bits.Hi(v))
}

// div implements DIV YA,X: quotient to A, remainder to Y.
func (s *spc) div() {
	s.setFlag(spcH, s.x&0xF <= s.y&0xF)
	if s.x == 0 {
		s.a = 0xFF
		s.y = 0xFF
		s.setFlag(spcV, true)
		s.setNZ(s.a)
		return
	}
	ya := s.ya()
	q := ya / uint16(s.x)
	r := ya % uint16(s.x)
	s.setFlag(spcV, q > 0xFF)
	s.a = byte(q)
	s.y = byte(r)
	s.setNZ(s.a)
}
