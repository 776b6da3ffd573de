package ppu

import "github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/bits"

// VRAM size and the dirty-tracking granularity for the renderer caches.
const (
	vramSize       = 64 * 1024
	dirtyRegions   = 16
	dirtyRegionLen = vramSize / dirtyRegions
)

// vram is the 64 KiB of video memory behind the word-address port at
// $2115-$2119. The address registers hold a word address; the increment
// happens after the low or high byte access depending on the control bit.
type vram struct {
	data [vramSize]byte

	portControl byte
	byteAddr    uint16

	dirty [dirtyRegions]bool
}

func (v *vram) setPortControl(data byte) {
	v.portControl = data
}

func (v *vram) setAddrLo(data byte) {
	word := v.byteAddr / 2
	v.byteAddr = bits.SetLo(word, data) * 2
}

func (v *vram) setAddrHi(data byte) {
	word := v.byteAddr / 2
	v.byteAddr = bits.SetHi(word, data) * 2
}

// incAfterHigh reports whether the address increments on high-byte access.
func (v *vram) incAfterHigh() bool { return bits.Test(v.portControl, 7) }

func (v *vram) incAddr() {
	switch v.portControl & 3 {
	case 0:
		v.byteAddr += 2
	case 1:
		v.byteAddr += 64
	default:
		v.byteAddr += 256
	}
}

func (v *vram) readLo() byte {
	ret := v.data[v.byteAddr]
	if !v.incAfterHigh() {
		v.incAddr()
	}
	return ret
}

func (v *vram) readHi() byte {
	ret := v.data[v.byteAddr+1]
	if v.incAfterHigh() {
		v.incAddr()
	}
	return ret
}

func (v *vram) writeLo(data byte) {
	v.data[v.byteAddr] = data
	v.markDirty(v.byteAddr)
	if !v.incAfterHigh() {
		v.incAddr()
	}
}

func (v *vram) writeHi(data byte) {
	addr := v.byteAddr + 1
	v.data[addr] = data
	v.markDirty(addr)
	if v.incAfterHigh() {
		v.incAddr()
	}
}

func (v *vram) markDirty(addr uint16) {
	v.dirty[addr/dirtyRegionLen] = true
}

// dirtyRange reports whether any byte in [start, end) changed since the last
// clearDirty.
func (v *vram) dirtyRange(start, end uint32) bool {
	if end > vramSize {
		end = vramSize
	}
	if start >= end {
		return false
	}
	for r := start / dirtyRegionLen; r <= (end-1)/dirtyRegionLen; r++ {
		if v.dirty[r] {
			return true
		}
	}
	return false
}

func (v *vram) clearDirty() {
	for i := range v.dirty {
		v.dirty[i] = false
	}
}
