// Package ppu implements the picture processor: the memory-mapped register
// file, video memory, the dot-clock scanline state machine, and the scanline
// renderer.
package ppu

import (
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/bits"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/timing"
)

// Signal is what a Clock call reports back to the bus.
type Signal int

const (
	SignalNone Signal = iota
	SignalNMI         // V-blank entered with NMI enabled
	SignalVBlank      // V-blank entered without NMI
	SignalIRQ         // H/V timer fired
	SignalHBlank      // right-side blanking entered; HDMA slot
	SignalDelay       // CPU must burn the mid-line pause
	SignalFrameStart  // first visible line began; HDMA tables reload
)

// state is the position within a scanline.
type state int

const (
	stateHBlankLeft state = iota
	stateDrawingBeforePause
	stateDrawingAfterPause
	stateHBlankRight
	stateVBlank
)

// $4200 interrupt enable bits.
const (
	intEnableNMI  byte = 1 << 7
	intEnableIRQV byte = 1 << 5
	intEnableIRQH byte = 1 << 4
)

// PPU owns the video memory and walks the scanline state machine as the bus
// feeds it cycles.
type PPU struct {
	st  state
	mem videoMem

	cycleCount int
	scanline   int

	intEnable     byte
	nmiFlag       byte
	irqFlag       byte
	hTimer        uint16
	hCycle        int
	vTimer        uint16
	irqDoneOnLine bool

	vBlankStatus bool
	hBlankStatus bool

	rend *renderer
}

// New builds a powered-on PPU, idle in V-blank.
func New() *PPU {
	p := &PPU{st: stateVBlank}
	p.rend = newRenderer(&p.mem)
	return p
}

// StartFrame hands the renderer the buffer for the coming frame.
func (p *PPU) StartFrame(fb []byte) {
	p.rend.startFrame(fb)
}

// ReadMem and WriteMem service the B-bus ports; addr is the low byte of
// $21xx.
func (p *PPU) ReadMem(addr byte) byte {
	if addr == 0x37 {
		p.mem.setLatchedHV(uint16(p.cycleCount/timing.DotTime), uint16(p.scanline))
		return 0
	}
	return p.mem.read(addr)
}

func (p *PPU) WriteMem(addr byte, data byte) {
	p.mem.write(addr, data)
}

// SetIntEnable applies a $4200 write.
func (p *PPU) SetIntEnable(data byte) {
	p.intEnable = data
}

func (p *PPU) SetHTimerLo(data byte) {
	p.hTimer = bits.SetLo(p.hTimer, data)
	p.hCycle = int(p.hTimer) * timing.DotTime
}

func (p *PPU) SetHTimerHi(data byte) {
	p.hTimer = bits.SetHi(p.hTimer, data)
	p.hCycle = int(p.hTimer) * timing.DotTime
}

func (p *PPU) SetVTimerLo(data byte) { p.vTimer = bits.SetLo(p.vTimer, data) }
func (p *PPU) SetVTimerHi(data byte) { p.vTimer = bits.SetHi(p.vTimer, data) }

// NMIFlag reads $4210: top bit set once per V-blank, cleared by the read.
func (p *PPU) NMIFlag() byte {
	ret := p.nmiFlag
	p.nmiFlag = 0
	return ret
}

// IRQFlag reads $4211 with the same read-clear behaviour.
func (p *PPU) IRQFlag() byte {
	ret := p.irqFlag
	p.irqFlag = 0
	return ret
}

// Status reads the $4212 blanking bits.
func (p *PPU) Status() byte {
	var s byte
	if p.vBlankStatus {
		s |= 1 << 7
	}
	if p.hBlankStatus {
		s |= 1 << 6
	}
	return s
}

// Clock advances the dot clock and reports at most one signal. The bus calls
// this after every memory access.
func (p *PPU) Clock(cycles int) Signal {
	p.cycleCount += cycles

	signal := SignalNone
	switch p.st {
	case stateVBlank:
		if p.scanline == 1 && p.cycleCount >= timing.ScanlineOffset {
			p.rend.drawLine(0)
			signal = p.changeState(stateDrawingBeforePause)
			if signal == SignalNone {
				signal = SignalFrameStart
			}
		} else if p.cycleCount >= timing.ScanlineCycles {
			signal = p.incScanline()
		}
	case stateHBlankLeft:
		if p.cycleCount >= timing.ScanlineOffset {
			if p.scanline <= timing.VRes {
				p.rend.drawLine(p.scanline - 1)
				signal = p.changeState(stateDrawingBeforePause)
			} else {
				signal = p.changeState(stateVBlank)
			}
		}
	case stateDrawingBeforePause:
		if p.cycleCount >= timing.PauseStart {
			signal = p.changeState(stateDrawingAfterPause)
		}
	case stateDrawingAfterPause:
		if p.cycleCount >= timing.HBlankStart {
			signal = p.changeState(stateHBlankRight)
		}
	case stateHBlankRight:
		if p.cycleCount >= timing.ScanlineCycles {
			signal = p.changeState(stateHBlankLeft)
		}
	}

	if signal == SignalNone && p.intEnable&intEnableIRQH != 0 && !p.irqDoneOnLine && p.cycleCount >= p.hCycle {
		p.irqDoneOnLine = true
		return p.triggerIRQ()
	}
	return signal
}

func (p *PPU) changeState(st state) Signal {
	p.st = st
	switch st {
	case stateDrawingBeforePause:
		p.nmiFlag = 0
		p.irqFlag = 0
		p.vBlankStatus = false
		p.hBlankStatus = false
		return SignalNone
	case stateDrawingAfterPause:
		return SignalDelay
	case stateVBlank:
		p.vBlankStatus = true
		p.hBlankStatus = false
		if p.mem.regs.inForcedBlank() {
			p.mem.oam.resetAddr()
		}
		p.nmiFlag |= 0x80
		if p.intEnable&intEnableNMI != 0 {
			return SignalNMI
		}
		return SignalVBlank
	case stateHBlankRight:
		p.hBlankStatus = true
		return SignalHBlank
	case stateHBlankLeft:
		return p.incScanline()
	}
	return SignalNone
}

// incScanline wraps the cycle counter into the next line and fires the
// V-timer IRQ when it matches.
func (p *PPU) incScanline() Signal {
	p.cycleCount -= timing.ScanlineCycles
	p.scanline++
	p.irqDoneOnLine = false
	if p.scanline >= timing.NumScanlines {
		p.scanline -= timing.NumScanlines
	}
	if p.intEnable&intEnableIRQV != 0 && p.scanline == int(p.vTimer) {
		return p.triggerIRQ()
	}
	return SignalNone
}

func (p *PPU) triggerIRQ() Signal {
	p.irqFlag |= 0x80
	return SignalIRQ
}

// Scanline exposes the current line for tests and the H/V latch.
func (p *PPU) Scanline() int { return p.scanline }
