package ppu

import "github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/bits"

// videoMem bundles the three picture memories with the register file and
// dispatches the B-bus port accesses ($2100-$213F, low byte given here).
type videoMem struct {
	regs    registers
	windows windowRegisters

	oam   oam
	cgram cgram
	vram  vram

	latchedH uint16
	latchedV uint16
	hvLow    bool // next $213C/$213D read returns the low byte
}

func (m *videoMem) read(addr byte) byte {
	switch addr {
	case 0x34:
		return byte(m.regs.m7MulResult())
	case 0x35:
		return byte(m.regs.m7MulResult() >> 8)
	case 0x36:
		return byte(m.regs.m7MulResult() >> 16)
	case 0x38:
		return m.oam.read()
	case 0x39:
		return m.vram.readLo()
	case 0x3A:
		return m.vram.readHi()
	case 0x3B:
		return m.cgram.read()
	case 0x3C:
		m.hvLow = !m.hvLow
		if !m.hvLow {
			return bits.Hi(m.latchedH)
		}
		return bits.Lo(m.latchedH)
	case 0x3D:
		m.hvLow = !m.hvLow
		if !m.hvLow {
			return bits.Hi(m.latchedV)
		}
		return bits.Lo(m.latchedV)
	case 0x3E, 0x3F:
		return 0 // PPU version/status
	}
	return 0
}

func (m *videoMem) write(addr byte, data byte) {
	r := &m.regs
	w := &m.windows
	switch addr {
	case 0x00:
		r.setScreenDisplay(data)
	case 0x01:
		r.setObjectSettings(data)
	case 0x02:
		m.oam.setAddrLo(data)
	case 0x03:
		m.oam.setAddrHi(data)
	case 0x04:
		m.oam.write(data)
	case 0x05:
		r.setBGMode(data)
	case 0x06:
		r.setMosaic(data)
	case 0x07, 0x08, 0x09, 0x0A:
		r.bgSettings[addr-0x07] = data
	case 0x0B:
		r.bg12Char = data
	case 0x0C:
		r.bg34Char = data
	case 0x0D:
		writeTwice(&r.bgScrollX[0], data)
	case 0x0E:
		writeTwice(&r.bgScrollY[0], data)
	case 0x0F:
		writeTwice(&r.bgScrollX[1], data)
	case 0x10:
		writeTwice(&r.bgScrollY[1], data)
	case 0x11:
		writeTwice(&r.bgScrollX[2], data)
	case 0x12:
		writeTwice(&r.bgScrollY[2], data)
	case 0x13:
		writeTwice(&r.bgScrollX[3], data)
	case 0x14:
		writeTwice(&r.bgScrollY[3], data)
	case 0x15:
		m.vram.setPortControl(data)
	case 0x16:
		m.vram.setAddrLo(data)
	case 0x17:
		m.vram.setAddrHi(data)
	case 0x18:
		m.vram.writeLo(data)
	case 0x19:
		m.vram.writeHi(data)
	case 0x1A:
		r.m7Settings = data
	case 0x1B:
		writeTwice(&r.m7Matrix[0], data)
	case 0x1C:
		writeTwice(&r.m7Matrix[1], data)
	case 0x1D:
		writeTwice(&r.m7Matrix[2], data)
	case 0x1E:
		writeTwice(&r.m7Matrix[3], data)
	case 0x1F:
		writeTwice(&r.m7CentreX, data)
	case 0x20:
		writeTwice(&r.m7CentreY, data)
	case 0x21:
		m.cgram.setAddr(data)
	case 0x22:
		m.cgram.write(data)
	case 0x23:
		w.setMaskPair(layerBG1, data)
	case 0x24:
		w.setMaskPair(layerBG3, data)
	case 0x25:
		w.setMaskObjCol(data)
	case 0x26:
		w.w1Left = data
	case 0x27:
		w.w1Right = data
	case 0x28:
		w.w2Left = data
	case 0x29:
		w.w2Right = data
	case 0x2A:
		w.setMaskLogicBG(data)
	case 0x2B:
		w.setMaskLogicObjCol(data)
	case 0x2C:
		w.mainDesignation = data
	case 0x2D:
		w.subDesignation = data
	case 0x2E:
		w.mainWindowMask = data
	case 0x2F:
		w.subWindowMask = data
	case 0x30:
		w.setColourAddSelect(data)
	case 0x31:
		w.colourMathDesg = data
	case 0x32:
		w.setFixedColour(data)
	case 0x33:
		r.setScreenMode(data)
	}
}

// latchHV records the current beam position for $213C/$213D.
func (m *videoMem) setLatchedHV(h, v uint16) {
	m.latchedH = h
	m.latchedV = v
	m.hvLow = false
}
