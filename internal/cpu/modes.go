package cpu

import (
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/bits"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/timing"
)

// address is a resolved data location. Zero-bank addresses wrap within the
// 64 KiB of bank 0; full addresses wrap across the 24-bit space.
type address struct {
	val  uint32
	zero bool
}

func fullAddr(v uint32) address     { return address{val: v & 0xFFFFFF} }
func zeroBankAddr(v uint16) address { return address{val: uint32(v), zero: true} }

// operand is what an instruction reads or writes: immediate data, the
// accumulator, or a resolved address.
type operand struct {
	kind operandKind
	addr address
}

type operandKind int

const (
	opImm operandKind = iota
	opAcc
	opAddr
)

var immediate = operand{kind: opImm}
var accumulator = operand{kind: opAcc}

// dataMode enumerates the data addressing modes.
type dataMode int

const (
	modeAbs dataMode = iota
	modeAbsX
	modeAbsY
	modeDir
	modeDirX
	modeDirY
	modeDirPtrDbr
	modeDirPtrXDbr
	modeDirPtrDbrY
	modeDirPtr
	modeDirPtrY
	modeLong
	modeLongX
	modeStack
	modeStackPtrDbrY
)

// jumpMode enumerates the program addressing modes.
type jumpMode int

const (
	jumpAbs jumpMode = iota
	jumpAbsPtrPbr
	jumpAbsPtrXPbr
	jumpAbsPtr
	jumpLong
)

// dataAddr resolves a data addressing mode, consuming operand bytes and
// charging the mode's cycle penalties.
func (c *CPU) dataAddr(mode dataMode) operand {
	var a address
	switch mode {
	case modeAbs:
		a = c.absolute()
	case modeAbsX:
		a = c.absoluteIndexed(c.x)
	case modeAbsY:
		a = c.absoluteIndexed(c.y)
	case modeDir:
		a = c.direct()
	case modeDirX:
		a = c.directIndexed(c.x)
	case modeDirY:
		a = c.directIndexed(c.y)
	case modeDirPtrDbr:
		a = c.directPtrDbr()
	case modeDirPtrXDbr:
		a = c.directPtrXDbr()
	case modeDirPtrDbrY:
		a = c.directPtrDbrY()
	case modeDirPtr:
		a = c.directPtr(0)
	case modeDirPtrY:
		a = c.directPtr(uint32(c.y))
	case modeLong:
		a = c.long(0)
	case modeLongX:
		a = c.long(uint32(c.x))
	case modeStack:
		a = c.stackRelative()
	case modeStackPtrDbrY:
		a = c.stackPtrDbrY()
	}
	return operand{kind: opAddr, addr: a}
}

// jumpAddr resolves a program addressing mode.
func (c *CPU) jumpAddr(mode jumpMode) address {
	switch mode {
	case jumpAbs:
		return zeroBankAddr(c.immediate16())
	case jumpAbsPtrPbr:
		ptr := c.immediate16()
		lo := c.readData(uint32(ptr))
		hi := c.readData(uint32(ptr) + 1)
		return zeroBankAddr(bits.Make16(hi, lo))
	case jumpAbsPtrXPbr:
		ptr := c.immediate16() + c.x
		c.clock(timing.InternalOp)
		lo := c.readData(bits.Make24(c.pb, ptr))
		hi := c.readData(bits.Make24(c.pb, ptr+1))
		return zeroBankAddr(bits.Make16(hi, lo))
	case jumpAbsPtr:
		ptr := c.immediate16()
		lo := c.readData(uint32(ptr))
		mid := c.readData(uint32(ptr + 1))
		hi := c.readData(uint32(ptr + 2))
		return fullAddr(bits.Make24b(hi, mid, lo))
	default: // jumpLong
		return c.long(0)
	}
}

// $vvvv
func (c *CPU) absolute() address {
	lo := c.fetch()
	hi := c.fetch()
	return fullAddr(bits.Make24(c.db, bits.Make16(hi, lo)))
}

// $vvvv,X / $vvvv,Y: +1 internal cycle with a 16-bit index or on a page
// crossing.
func (c *CPU) absoluteIndexed(index uint16) address {
	lo := c.fetch()
	hi := c.fetch()
	base := bits.Make24(c.db, bits.Make16(hi, lo))
	addr := (base + uint32(index)) & 0xFFFFFF
	if !c.xSet() || base>>8 != addr>>8 {
		c.clock(timing.InternalOp)
	}
	return fullAddr(addr)
}

// $vv: +1 cycle when the direct page is not aligned.
func (c *CPU) direct() address {
	imm := uint16(c.fetch())
	if bits.Lo(c.dp) != 0 {
		c.clock(timing.InternalOp)
	}
	return zeroBankAddr(c.dp + imm)
}

// $vv,X / $vv,Y. In emulation mode with an aligned direct page the sum wraps
// within the page.
func (c *CPU) directIndexed(index uint16) address {
	imm := c.fetch()
	var a uint16
	if c.e && bits.Lo(c.dp) == 0 {
		a = bits.SetLo(c.dp, byte(index)+imm)
	} else {
		a = c.dp + index + uint16(imm)
	}
	if bits.Lo(c.dp) != 0 {
		c.clock(timing.InternalOp)
	}
	c.clock(timing.InternalOp)
	return zeroBankAddr(a)
}

// directPointer reads the 16-bit pointer for the ($vv) family. With an
// aligned direct page in emulation mode the pointer bytes wrap within the
// page.
func (c *CPU) directPointer(offset uint16) (byte, byte) {
	var ptrLo, ptrHi uint16
	if c.e && bits.Lo(c.dp) == 0 {
		ptrLo = bits.SetLo(c.dp, byte(offset))
		ptrHi = bits.SetLo(c.dp, byte(offset)+1)
	} else {
		ptrLo = c.dp + offset
		ptrHi = ptrLo + 1
	}
	if bits.Lo(c.dp) != 0 {
		c.clock(timing.InternalOp)
	}
	lo := c.readData(uint32(ptrLo))
	hi := c.readData(uint32(ptrHi))
	return hi, lo
}

// ($vv)
func (c *CPU) directPtrDbr() address {
	imm := uint16(c.fetch())
	hi, lo := c.directPointer(imm)
	return fullAddr(bits.Make24(c.db, bits.Make16(hi, lo)))
}

// ($vv,X)
func (c *CPU) directPtrXDbr() address {
	imm := uint16(c.fetch())
	c.clock(timing.InternalOp)
	hi, lo := c.directPointer(imm + c.x)
	return fullAddr(bits.Make24(c.db, bits.Make16(hi, lo)))
}

// ($vv),Y
func (c *CPU) directPtrDbrY() address {
	imm := uint16(c.fetch())
	hi, lo := c.directPointer(imm)
	base := bits.Make24(c.db, bits.Make16(hi, lo))
	addr := (base + uint32(c.y)) & 0xFFFFFF
	if !c.xSet() || base>>8 != addr>>8 {
		c.clock(timing.InternalOp)
	}
	return fullAddr(addr)
}

// [$vv] and [$vv],Y: 24-bit pointer in the direct page.
func (c *CPU) directPtr(index uint32) address {
	imm := uint16(c.fetch())
	ptr := c.dp + imm
	if bits.Lo(c.dp) != 0 {
		c.clock(timing.InternalOp)
	}
	lo := c.readData(uint32(ptr))
	mid := c.readData(uint32(ptr + 1))
	hi := c.readData(uint32(ptr + 2))
	return fullAddr(bits.Make24b(hi, mid, lo) + index)
}

// $vvvvvv and $vvvvvv,X
func (c *CPU) long(index uint32) address {
	lo := c.fetch()
	mid := c.fetch()
	hi := c.fetch()
	return fullAddr(bits.Make24b(hi, mid, lo) + index)
}

// $vv,S
func (c *CPU) stackRelative() address {
	imm := uint16(c.fetch())
	c.clock(timing.InternalOp)
	return zeroBankAddr(c.s + imm)
}

// ($vv,S),Y
func (c *CPU) stackPtrDbrY() address {
	imm := uint16(c.fetch())
	ptr := c.s + imm
	c.clock(timing.InternalOp * 2)
	lo := c.readData(uint32(ptr))
	hi := c.readData(uint32(ptr + 1))
	return fullAddr(bits.Make24(c.db, bits.Make16(hi, lo)) + uint32(c.y))
}

// immediate16 always fetches two bytes regardless of register width.
func (c *CPU) immediate16() uint16 {
	lo := c.fetch()
	hi := c.fetch()
	return bits.Make16(hi, lo)
}
