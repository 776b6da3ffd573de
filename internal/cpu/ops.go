package cpu

import (
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/bits"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/timing"
)

// Memory micro-ops. Every access clocks the bus by its cost.
func (c *CPU) readData(addr uint32) byte {
	data, cycles := c.bus.Read(addr)
	c.clock(cycles)
	return data
}

func (c *CPU) writeData(addr uint32, data byte) {
	c.clock(c.bus.Write(addr, data))
}

func (c *CPU) fetch() byte {
	data := c.readData(bits.Make24(c.pb, c.pc))
	c.pc++
	return data
}

// readAddr reads a byte or little-endian word at the address, wrapping per
// its kind.
func (c *CPU) readAddr(a address, byteWide bool) uint16 {
	if a.zero {
		lo := c.readData(uint32(uint16(a.val)))
		if byteWide {
			return uint16(lo)
		}
		hi := c.readData(uint32(uint16(a.val) + 1))
		return bits.Make16(hi, lo)
	}
	lo := c.readData(a.val)
	if byteWide {
		return uint16(lo)
	}
	hi := c.readData((a.val + 1) & 0xFFFFFF)
	return bits.Make16(hi, lo)
}

func (c *CPU) writeAddr(a address, data uint16, byteWide bool) {
	if a.zero {
		c.writeData(uint32(uint16(a.val)), bits.Lo(data))
		if !byteWide {
			c.writeData(uint32(uint16(a.val)+1), bits.Hi(data))
		}
		return
	}
	c.writeData(a.val, bits.Lo(data))
	if !byteWide {
		c.writeData((a.val+1)&0xFFFFFF, bits.Hi(data))
	}
}

// readOp fetches an operand of the given width.
func (c *CPU) readOp(op operand, byteWide bool) uint16 {
	switch op.kind {
	case opImm:
		lo := c.fetch()
		if byteWide {
			return uint16(lo)
		}
		hi := c.fetch()
		return bits.Make16(hi, lo)
	case opAcc:
		return c.acc()
	default:
		return c.readAddr(op.addr, byteWide)
	}
}

// Stack. In emulation mode S stays in page 1.
func (c *CPU) push(data byte) {
	c.writeData(uint32(c.s), data)
	if c.e {
		c.s = bits.Make16(0x01, bits.Lo(c.s)-1)
	} else {
		c.s--
	}
}

func (c *CPU) pop() byte {
	if c.e {
		c.s = bits.Make16(0x01, bits.Lo(c.s)+1)
	} else {
		c.s++
	}
	return c.readData(uint32(c.s))
}

// Flag micro-ops.
func (c *CPU) carry() uint16 { return uint16(c.p & flagC) }

func (c *CPU) setNZ(result uint16, byteWide bool) uint16 {
	if byteWide {
		r := result & 0xFF
		c.setFlag(flagN, r&0x80 != 0)
		c.setFlag(flagZ, r == 0)
		return r
	}
	c.setFlag(flagN, result&0x8000 != 0)
	c.setFlag(flagZ, result == 0)
	return result
}

// setANZ is setNZ for the accumulator, preserving B in 8-bit mode.
func (c *CPU) setANZ(result uint16) uint16 {
	r := c.setNZ(result, c.mSet())
	if c.mSet() {
		return bits.SetLo(c.a, bits.Lo(r))
	}
	return r
}

func (c *CPU) setFlag(flag byte, on bool) {
	if on {
		c.p |= flag
	} else {
		c.p &^= flag
	}
}

// setP applies a full status byte, with the emulation-mode and X-flag side
// effects.
func (c *CPU) setP(newP byte) {
	c.p = newP
	if c.e {
		c.p |= flagM | flagX
	}
	if c.p&flagX != 0 {
		c.x &= 0xFF
		c.y &= 0xFF
	}
}

// acc returns A at its current width.
func (c *CPU) acc() uint16 {
	if c.mSet() {
		return c.a & 0xFF
	}
	return c.a
}

func (c *CPU) setAcc(data uint16) {
	if c.mSet() {
		c.a = bits.SetLo(c.a, bits.Lo(data))
	} else {
		c.a = data
	}
}

// ---- Arithmetic ----

func (c *CPU) adc(op operand) {
	v := c.readOp(op, c.mSet())
	if c.p&flagD != 0 {
		c.decAdd(v)
	} else {
		c.binArith(v)
	}
}

func (c *CPU) sbc(op operand) {
	v := c.readOp(op, c.mSet())
	if c.p&flagD != 0 {
		c.decSub(v)
	} else {
		c.binArith(^v)
	}
}

// binArith is binary add-with-carry at the current accumulator width.
func (c *CPU) binArith(op uint16) {
	if c.mSet() {
		a := uint16(bits.Lo(c.a))
		v := uint16(bits.Lo(op))
		result := a + v + c.carry()
		final := result & 0xFF
		c.setFlag(flagN, final&0x80 != 0)
		c.setFlag(flagV, (^(a^v)&(a^result))&0x80 != 0)
		c.setFlag(flagZ, final == 0)
		c.setFlag(flagC, result > 0xFF)
		c.a = bits.SetLo(c.a, byte(final))
	} else {
		a := uint32(c.a)
		v := uint32(op)
		result := a + v + uint32(c.carry())
		final := uint16(result)
		c.setFlag(flagN, final&0x8000 != 0)
		c.setFlag(flagV, (^(a^v)&(a^result))&0x8000 != 0)
		c.setFlag(flagZ, final == 0)
		c.setFlag(flagC, result > 0xFFFF)
		c.a = final
	}
}

// decAdd is BCD add, nybble by nybble. V is left as the silicon leaves it:
// unspecified.
func (c *CPU) decAdd(op uint16) {
	if c.mSet() {
		a := uint16(bits.Lo(c.a))
		v := uint16(bits.Lo(op))
		lo := (a & 0xF) + (v & 0xF) + c.carry()
		if lo > 0x9 {
			lo = ((lo + 0x6) & 0xF) + 0x10
		}
		result := (a & 0xF0) + (v & 0xF0) + lo
		if result > 0x99 {
			result += 0x60
		}
		c.setFlag(flagN, result&0x80 != 0)
		c.setFlag(flagZ, result&0xFF == 0)
		c.setFlag(flagC, result > 0xFF)
		c.a = bits.SetLo(c.a, byte(result))
	} else {
		a := uint32(c.a)
		v := uint32(op)
		acc := (a & 0xF) + (v & 0xF) + uint32(c.carry())
		if acc > 0x9 {
			acc = ((acc + 0x6) & 0xF) + 0x10
		}
		acc += (a & 0xF0) + (v & 0xF0)
		if acc > 0x99 {
			acc += 0x60
		}
		acc += (a & 0xF00) + (v & 0xF00)
		if acc > 0x999 {
			acc += 0x600
		}
		acc += (a & 0xF000) + (v & 0xF000)
		if acc > 0x9999 {
			acc += 0x6000
		}
		c.setFlag(flagN, acc&0x8000 != 0)
		c.setFlag(flagZ, uint16(acc) == 0)
		c.setFlag(flagC, acc > 0xFFFF)
		c.a = uint16(acc)
	}
}

// decSub is BCD subtract with borrow propagation per nybble.
func (c *CPU) decSub(op uint16) {
	if c.mSet() {
		a := int32(bits.Lo(c.a))
		v := int32(bits.Lo(op))
		lo := (a & 0xF) - (v & 0xF) + int32(c.carry()) - 1
		if lo < 0 {
			lo = ((lo - 0x6) & 0xF) - 0x10
		}
		result := (a & 0xF0) - (v & 0xF0) + lo
		carry := true
		if result < 0 {
			result -= 0x60
			carry = false
		}
		c.setFlag(flagN, result&0x80 != 0)
		c.setFlag(flagZ, result&0xFF == 0)
		c.setFlag(flagC, carry)
		c.a = bits.SetLo(c.a, byte(result))
	} else {
		a := int32(c.a)
		v := int32(op)
		acc := (a & 0xF) - (v & 0xF) + int32(c.carry()) - 1
		if acc < 0 {
			acc = ((acc - 0x6) & 0xF) - 0x10
		}
		acc += (a & 0xF0) - (v & 0xF0)
		if acc < 0 {
			acc = ((acc - 0x60) & 0xFF) - 0x100
		}
		acc += (a & 0xF00) - (v & 0xF00)
		if acc < 0 {
			acc = ((acc - 0x600) & 0xFFF) - 0x1000
		}
		acc += (a & 0xF000) - (v & 0xF000)
		carry := true
		if acc < 0 {
			acc -= 0x6000
			carry = false
		}
		c.setFlag(flagN, acc&0x8000 != 0)
		c.setFlag(flagZ, uint16(acc) == 0)
		c.setFlag(flagC, carry)
		c.a = uint16(acc)
	}
}

func (c *CPU) cmp(op operand) {
	c.compare(op, c.a, c.mSet())
}

func (c *CPU) compare(op operand, reg uint16, byteWide bool) {
	v := c.readOp(op, byteWide)
	result := reg - v
	c.setNZ(result, byteWide)
	cmpReg := reg
	if byteWide {
		cmpReg = reg & 0xFF
	}
	c.setFlag(flagC, cmpReg >= v)
}

// ---- Logic ----

func (c *CPU) and(op operand) {
	v := c.readOp(op, c.mSet())
	c.a = c.setANZ(c.a & v)
}

func (c *CPU) eor(op operand) {
	v := c.readOp(op, c.mSet())
	c.a = c.setANZ(c.a ^ v)
}

func (c *CPU) ora(op operand) {
	v := c.readOp(op, c.mSet())
	c.a = c.setANZ(c.a | v)
}

// bit sets Z from A AND the operand; N and V mirror the operand's top bits
// except in immediate mode.
func (c *CPU) bit(op operand, imm bool) {
	v := c.readOp(op, c.mSet())
	result := c.a & v
	if c.mSet() {
		c.setFlag(flagZ, result&0xFF == 0)
		if !imm {
			c.setFlag(flagN, v&0x80 != 0)
			c.setFlag(flagV, v&0x40 != 0)
		}
	} else {
		c.setFlag(flagZ, result == 0)
		if !imm {
			c.setFlag(flagN, v&0x8000 != 0)
			c.setFlag(flagV, v&0x4000 != 0)
		}
	}
}

func (c *CPU) setZFromMask(result uint16) {
	if c.mSet() {
		c.setFlag(flagZ, result&0xFF == 0)
	} else {
		c.setFlag(flagZ, result == 0)
	}
}

func (c *CPU) trb(op operand) {
	v := c.readAddr(op.addr, c.mSet())
	c.setZFromMask(c.a & v)
	c.clock(timing.InternalOp)
	c.writeAddr(op.addr, v&^c.a, c.mSet())
}

func (c *CPU) tsb(op operand) {
	v := c.readAddr(op.addr, c.mSet())
	c.setZFromMask(c.a & v)
	c.clock(timing.InternalOp)
	c.writeAddr(op.addr, v|c.a, c.mSet())
}

// ---- Shifts ----

func (c *CPU) topBit() uint16 {
	if c.mSet() {
		return 0x80
	}
	return 0x8000
}

func (c *CPU) aslAcc() {
	v := c.acc()
	c.setFlag(flagC, v&c.topBit() != 0)
	c.clock(timing.InternalOp)
	c.setAcc(c.setNZ(v<<1, c.mSet()))
}

func (c *CPU) aslMem(op operand) {
	v := c.readAddr(op.addr, c.mSet())
	c.setFlag(flagC, v&c.topBit() != 0)
	c.clock(timing.InternalOp)
	c.writeAddr(op.addr, c.setNZ(v<<1, c.mSet()), c.mSet())
}

func (c *CPU) lsrAcc() {
	v := c.acc()
	c.setFlag(flagC, v&1 != 0)
	c.clock(timing.InternalOp)
	c.setAcc(c.setNZ(v>>1, c.mSet()))
}

func (c *CPU) lsrMem(op operand) {
	v := c.readAddr(op.addr, c.mSet())
	c.setFlag(flagC, v&1 != 0)
	c.clock(timing.InternalOp)
	c.writeAddr(op.addr, c.setNZ(v>>1, c.mSet()), c.mSet())
}

func (c *CPU) rolValue(v uint16) uint16 {
	result := v<<1 | c.carry()
	c.setFlag(flagC, v&c.topBit() != 0)
	return result
}

func (c *CPU) rolAcc() {
	v := c.rolValue(c.acc())
	c.clock(timing.InternalOp)
	c.setAcc(c.setNZ(v, c.mSet()))
}

func (c *CPU) rolMem(op operand) {
	v := c.rolValue(c.readAddr(op.addr, c.mSet()))
	c.clock(timing.InternalOp)
	c.writeAddr(op.addr, c.setNZ(v, c.mSet()), c.mSet())
}

func (c *CPU) rorValue(v uint16) uint16 {
	carry := c.carry()
	if c.mSet() {
		carry <<= 7
	} else {
		carry <<= 15
	}
	result := v>>1 | carry
	c.setFlag(flagC, v&1 != 0)
	return result
}

func (c *CPU) rorAcc() {
	v := c.rorValue(c.acc())
	c.clock(timing.InternalOp)
	c.setAcc(c.setNZ(v, c.mSet()))
}

func (c *CPU) rorMem(op operand) {
	v := c.rorValue(c.readAddr(op.addr, c.mSet()))
	c.clock(timing.InternalOp)
	c.writeAddr(op.addr, c.setNZ(v, c.mSet()), c.mSet())
}

// ---- Memory INC/DEC ----

func (c *CPU) incMem(op operand) {
	v := c.readAddr(op.addr, c.mSet())
	c.clock(timing.InternalOp)
	c.writeAddr(op.addr, c.setNZ(v+1, c.mSet()), c.mSet())
}

func (c *CPU) decMem(op operand) {
	v := c.readAddr(op.addr, c.mSet())
	c.clock(timing.InternalOp)
	c.writeAddr(op.addr, c.setNZ(v-1, c.mSet()), c.mSet())
}

// ---- Branches and jumps ----

// branch takes a flag condition; a zero flag means branch-always. Crossing
// a page in emulation mode costs one more cycle.
func (c *CPU) branch(flag byte, want bool) {
	off := uint16(int16(int8(c.fetch())))
	taken := flag == 0 || (c.p&flag != 0) == want
	if !taken {
		return
	}
	pc := c.pc + off
	if c.e && bits.Hi(pc) != bits.Hi(c.pc) {
		c.clock(timing.InternalOp)
	}
	c.clock(timing.InternalOp)
	c.pc = pc
}

func (c *CPU) brl() {
	off := c.immediate16()
	c.clock(timing.InternalOp)
	c.pc += off
}

func (c *CPU) jmp(a address) {
	if a.zero {
		c.pc = uint16(a.val)
	} else {
		c.pb = bits.Bank(a.val)
		c.pc = bits.Offset(a.val)
	}
}

func (c *CPU) jsr(mode jumpMode) {
	a := c.jumpAddr(mode)
	ret := c.pc - 1
	if mode != jumpAbsPtrXPbr {
		c.clock(timing.InternalOp)
	}
	if !a.zero {
		c.push(c.pb)
		c.pb = bits.Bank(a.val)
		c.pc = bits.Offset(a.val)
	} else {
		c.pc = uint16(a.val)
	}
	c.push(bits.Hi(ret))
	c.push(bits.Lo(ret))
}

func (c *CPU) rtl() {
	lo := c.pop()
	hi := c.pop()
	pb := c.pop()
	c.clock(timing.InternalOp * 2)
	c.pc = bits.Make16(hi, lo) + 1
	c.pb = pb
}

func (c *CPU) rts() {
	lo := c.pop()
	hi := c.pop()
	c.clock(timing.InternalOp * 3)
	c.pc = bits.Make16(hi, lo) + 1
}

func (c *CPU) brk() {
	c.pc++
	if c.e {
		c.p |= flagB
		c.triggerInterrupt(vecBRKE)
	} else {
		c.triggerInterrupt(vecBRK)
	}
}

func (c *CPU) cop() {
	c.pc++
	if c.e {
		c.triggerInterrupt(vecCOPE)
	} else {
		c.triggerInterrupt(vecCOP)
	}
}

func (c *CPU) rti() {
	c.setP(c.pop())
	lo := c.pop()
	hi := c.pop()
	c.pc = bits.Make16(hi, lo)
	c.clock(timing.InternalOp * 2)
	if !c.e {
		c.pb = c.pop()
	}
}

// ---- Flags ----

// setFlagOp implements the CLx/SEx instructions.
func (c *CPU) setFlagOp(flag byte, on bool) {
	c.setFlag(flag, on)
	c.clock(timing.InternalOp)
}

func (c *CPU) rep() {
	imm := c.fetch()
	c.setP(c.p &^ imm)
	c.clock(timing.InternalOp)
}

func (c *CPU) sep() {
	imm := c.fetch()
	c.setP(c.p | imm)
	c.clock(timing.InternalOp)
}

// ---- Loads and stores ----

func (c *CPU) lda(op operand) {
	c.a = c.setANZ(c.readOp(op, c.mSet()))
}

func (c *CPU) ldx(op operand) {
	c.x = c.setNZ(c.readOp(op, c.xSet()), c.xSet())
}

func (c *CPU) ldy(op operand) {
	c.y = c.setNZ(c.readOp(op, c.xSet()), c.xSet())
}

func (c *CPU) store(op operand, value uint16, byteWide bool) {
	c.writeAddr(op.addr, value, byteWide)
}

// ---- Block moves ----

// blockMove is MVN/MVP: one byte per step, PC rewound until A underflows.
func (c *CPU) blockMove(ascending bool) {
	c.db = c.fetch()
	srcBank := c.fetch()

	src := bits.Make24(srcBank, c.x)
	dst := bits.Make24(c.db, c.y)
	c.writeData(dst, c.readData(src))

	if ascending {
		c.x++
		c.y++
	} else {
		c.x--
		c.y--
	}
	if c.xSet() {
		c.x &= 0xFF
		c.y &= 0xFF
	}
	c.a--

	c.clock(timing.InternalOp * 2)

	if c.a != 0xFFFF {
		c.pc -= 3
	}
}

// ---- Stack register traffic ----

func (c *CPU) pushReg(reg uint16, byteWide bool) {
	if byteWide {
		c.push(bits.Lo(reg))
	} else {
		c.push(bits.Hi(reg))
		c.push(bits.Lo(reg))
	}
	c.clock(timing.InternalOp)
}

func (c *CPU) pull(byteWide bool) uint16 {
	var v uint16
	if byteWide {
		v = uint16(c.pop())
	} else {
		lo := c.pop()
		hi := c.pop()
		v = bits.Make16(hi, lo)
	}
	c.clock(timing.InternalOp)
	return c.setNZ(v, byteWide)
}

func (c *CPU) pla() {
	if c.mSet() {
		v := c.pop()
		c.setNZ(uint16(v), true)
		c.a = bits.SetLo(c.a, v)
	} else {
		lo := c.pop()
		hi := c.pop()
		c.a = c.setNZ(bits.Make16(hi, lo), false)
	}
	c.clock(timing.InternalOp)
}

// ---- Transfers ----

func (c *CPU) transfer(from, to uint16, byteWide bool) uint16 {
	result := c.setNZ(from, byteWide)
	c.clock(timing.InternalOp)
	if byteWide {
		return bits.SetLo(to, bits.Lo(result))
	}
	return result
}

func (c *CPU) txs() {
	if c.e {
		c.s = bits.Make16(0x01, bits.Lo(c.x))
	} else {
		c.s = c.x
	}
	c.clock(timing.InternalOp)
}

func (c *CPU) tcs() {
	if c.e {
		c.s = bits.Make16(0x01, bits.Lo(c.a))
	} else {
		c.s = c.a
	}
	c.clock(timing.InternalOp)
}

// xba swaps the accumulator halves.
func (c *CPU) xba() {
	hi := bits.Hi(c.a)
	lo := bits.Lo(c.a)
	c.setNZ(uint16(hi), true)
	c.clock(timing.InternalOp * 2)
	c.a = bits.Make16(lo, hi)
}

// xce swaps carry with the emulation flag. Entering emulation forces the
// 8-bit widths and the page-1 stack.
func (c *CPU) xce() {
	carrySet := c.p&flagC != 0
	c.setFlag(flagC, c.e)
	c.e = carrySet
	c.clock(timing.InternalOp)
	if carrySet {
		c.p |= flagM | flagX
		c.x &= 0xFF
		c.y &= 0xFF
		c.s = bits.Make16(0x01, bits.Lo(c.s))
	}
}
