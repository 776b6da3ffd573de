package bus

import "github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/bits"

// transferPatterns maps the three mode bits to the sequence of B-bus offsets
// one transfer unit writes. Modes 6 and 7 alias 2 and 3.
var transferPatterns = [8][]byte{
	{0},
	{0, 1},
	{0, 0},
	{0, 0, 1, 1},
	{0, 1, 2, 3},
	{0, 1, 0, 1},
	{0, 0},
	{0, 0, 1, 1},
}

// dmaChannel is one of the eight channels behind $43x0-$43xA.
type dmaChannel struct {
	control  byte   // $43x0
	bBusAddr byte   // $43x1
	aBusAddr uint16 // $43x2-3
	aBusBank byte   // $43x4
	count    uint16 // $43x5-6, or the HDMA indirect address
	indBank  byte   // $43x7
	table    uint16 // $43x8-9, current HDMA table position
	lineCtr  byte   // $43xA

	hdmaDoTransfer bool
}

// Control byte fields.
func (c *dmaChannel) mode() int       { return int(c.control & 7) }
func (c *dmaChannel) fixed() bool     { return bits.Test(c.control, 3) }
func (c *dmaChannel) decrement() bool { return bits.Test(c.control, 4) }
func (c *dmaChannel) indirect() bool  { return bits.Test(c.control, 6) }
func (c *dmaChannel) bToA() bool      { return bits.Test(c.control, 7) }

func (c *dmaChannel) read(reg byte) byte {
	switch reg {
	case 0x0:
		return c.control
	case 0x1:
		return c.bBusAddr
	case 0x2:
		return bits.Lo(c.aBusAddr)
	case 0x3:
		return bits.Hi(c.aBusAddr)
	case 0x4:
		return c.aBusBank
	case 0x5:
		return bits.Lo(c.count)
	case 0x6:
		return bits.Hi(c.count)
	case 0x7:
		return c.indBank
	case 0x8:
		return bits.Lo(c.table)
	case 0x9:
		return bits.Hi(c.table)
	case 0xA:
		return c.lineCtr
	}
	return 0
}

func (c *dmaChannel) write(reg byte, data byte) {
	switch reg {
	case 0x0:
		c.control = data
	case 0x1:
		c.bBusAddr = data
	case 0x2:
		c.aBusAddr = bits.SetLo(c.aBusAddr, data)
	case 0x3:
		c.aBusAddr = bits.SetHi(c.aBusAddr, data)
	case 0x4:
		c.aBusBank = data
	case 0x5:
		c.count = bits.SetLo(c.count, data)
	case 0x6:
		c.count = bits.SetHi(c.count, data)
	case 0x7:
		c.indBank = data
	case 0x8:
		c.table = bits.SetLo(c.table, data)
	case 0x9:
		c.table = bits.SetHi(c.table, data)
	case 0xA:
		c.lineCtr = data
	}
}

func (c *dmaChannel) aBusFull() uint32 {
	return bits.Make24(c.aBusBank, c.aBusAddr)
}

// stepABus moves the A-bus pointer per the control bits after one byte.
func (c *dmaChannel) stepABus() {
	if c.fixed() {
		return
	}
	if c.decrement() {
		c.aBusAddr--
	} else {
		c.aBusAddr++
	}
}

// decrementCount counts one byte off the transfer; reports completion.
func (c *dmaChannel) decrementCount() bool {
	c.count--
	return c.count == 0
}

// startHDMA reloads the table pointer at the start of a frame.
func (c *dmaChannel) startHDMA() {
	c.table = c.aBusAddr
	c.lineCtr = 0
	c.hdmaDoTransfer = false
}

// hdmaLinesLeft reports whether the current instruction still covers lines.
func (c *dmaChannel) hdmaLinesLeft() bool {
	return c.lineCtr&0x7F != 0
}

func (c *dmaChannel) hdmaRepeat() bool {
	return bits.Test(c.lineCtr, 7)
}
