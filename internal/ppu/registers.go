package ppu

import "github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/bits"

// registers holds the background, object, and mode 7 configuration written
// through $2100-$2121 (windowing and colour math live in windowRegisters).
type registers struct {
	screenDisplay  byte // $2100: forced blank + brightness
	objectSettings byte // $2101
	bgMode         byte // $2105
	mosaic         byte // $2106

	bgSettings [4]byte // $2107-$210A: map base + mirror bits
	bg12Char   byte    // $210B
	bg34Char   byte    // $210C
	bgScrollX  [4]uint16
	bgScrollY  [4]uint16

	m7Settings byte // $211A: flips + screen-over
	m7Matrix   [4]uint16
	m7CentreX  uint16
	m7CentreY  uint16

	screenMode byte // $2133: interlace, EXT BG, pseudo-hires
}

// Write-twice scroll and matrix registers latch the previous byte: after a
// low-then-high write pair the register holds (hi << 8) | lo.
func writeTwice(reg *uint16, data byte) {
	*reg = uint16(data)<<8 | (*reg >> 8)
}

func (r *registers) setScreenDisplay(data byte)  { r.screenDisplay = data }
func (r *registers) setObjectSettings(data byte) { r.objectSettings = data }
func (r *registers) setBGMode(data byte)         { r.bgMode = data }
func (r *registers) setMosaic(data byte)         { r.mosaic = data }
func (r *registers) setScreenMode(data byte)     { r.screenMode = data }

func (r *registers) inForcedBlank() bool { return bits.Test(r.screenDisplay, 7) }
func (r *registers) brightness() byte    { return r.screenDisplay & 0xF }

func (r *registers) mode() int { return int(r.bgMode & 7) }

func (r *registers) bg3Priority() bool { return bits.Test(r.bgMode, 3) }

func (r *registers) bgLargeTiles(bg int) bool { return bits.Test(r.bgMode, uint(4+bg)) }

// objSizes returns the (small, large) sprite dimensions from the global size
// select.
func (r *registers) objSizes() (smallW, smallH, largeW, largeH int) {
	switch r.objectSettings >> 5 {
	case 0:
		return 8, 8, 16, 16
	case 1:
		return 8, 8, 32, 32
	case 2:
		return 8, 8, 64, 64
	case 3:
		return 16, 16, 32, 32
	case 4:
		return 16, 16, 64, 64
	case 5:
		return 32, 32, 64, 64
	case 6:
		return 16, 32, 32, 64
	default:
		return 16, 32, 32, 32
	}
}

// obj0PatternAddr is the byte address of the first sprite character table.
func (r *registers) obj0PatternAddr() uint16 {
	return uint16(r.objectSettings&7) << 13
}

// objNPatternAddr is the byte address of the second sprite character table.
func (r *registers) objNPatternAddr() uint16 {
	table := uint16((r.objectSettings>>3)&3) + 1
	return r.obj0PatternAddr() + table<<12
}

func (r *registers) bgPatternAddr(bg int) uint16 {
	switch bg {
	case 0:
		return uint16(r.bg12Char&0xF) << 13
	case 1:
		return uint16(r.bg12Char&0xF0) << 9
	case 2:
		return uint16(r.bg34Char&0xF) << 13
	default:
		return uint16(r.bg34Char&0xF0) << 9
	}
}

func (r *registers) bgMapAddr(bg int) uint16 {
	return uint16(r.bgSettings[bg]&0xFC) << 9
}

// bgMapMirror returns the map arrangement: 32x32, 64x32, 32x64 or 64x64
// tiles, as (wideMap, tallMap).
func (r *registers) bgMapMirror(bg int) (wide, tall bool) {
	return bits.Test(r.bgSettings[bg], 0), bits.Test(r.bgSettings[bg], 1)
}

func (r *registers) bgScroll(bg int) (x, y int) {
	return int(r.bgScrollX[bg] & 0x3FF), int(r.bgScrollY[bg] & 0x3FF)
}

func (r *registers) bgMosaicEnabled(bg int) bool { return bits.Test(r.mosaic, uint(bg)) }

// mosaicSize is the pixel block edge length (1-16).
func (r *registers) mosaicSize() int { return int(r.mosaic>>4) + 1 }

// Mode 7 helpers. The matrix is 8.8 signed fixed point; the centre and
// scroll registers are signed 13-bit.
func (r *registers) m7Param(i int) int32 { return int32(int16(r.m7Matrix[i])) }

func (r *registers) m7Centre() (x, y int32) {
	return int32(bits.SignExtend13(r.m7CentreX)), int32(bits.SignExtend13(r.m7CentreY))
}

func (r *registers) m7Scroll() (x, y int32) {
	return int32(bits.SignExtend13(r.bgScrollX[0])), int32(bits.SignExtend13(r.bgScrollY[0]))
}

func (r *registers) m7FlipX() bool { return bits.Test(r.m7Settings, 0) }
func (r *registers) m7FlipY() bool { return bits.Test(r.m7Settings, 1) }

// m7ScreenOver: 0/1 wrap, 2 transparent, 3 fill with tile 0.
func (r *registers) m7ScreenOver() int { return int(r.m7Settings >> 6) }

func (r *registers) extBG() bool       { return bits.Test(r.screenMode, 6) }
func (r *registers) pseudoHires() bool { return bits.Test(r.screenMode, 3) }

// m7MulResult is the $2134-$2136 readback: matrix A times the high byte of
// matrix B, signed 24-bit.
func (r *registers) m7MulResult() int32 {
	a := int32(int16(r.m7Matrix[0]))
	b := int32(int8(bits.Hi(r.m7Matrix[1])))
	return a * b
}
