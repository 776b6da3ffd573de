package apu

import "github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/bits"

const spcRAMSize = 64 * 1024

// Control register bits ($F1).
const (
	ctrlTimer0    byte = 1 << 0
	ctrlTimer1    byte = 1 << 1
	ctrlTimer2    byte = 1 << 2
	ctrlClearP10  byte = 1 << 4
	ctrlClearP32  byte = 1 << 5
	ctrlROMEnable byte = 1 << 7
)

// iplROM is the 64-byte boot program overlaid at $FFC0 until the control
// register unmaps it.
var iplROM = [64]byte{
	0xCD, 0xEF, 0xBD, 0xE8, 0x00, 0xC6, 0x1D, 0xD0,
	0xFC, 0x8F, 0xAA, 0xF4, 0x8F, 0xBB, 0xF5, 0x78,
	0xCC, 0xF4, 0xD0, 0xFB, 0x2F, 0x19, 0xEB, 0xF4,
	0xD0, 0xFC, 0x7E, 0xF4, 0xD0, 0x0B, 0xE4, 0xF5,
	0xCB, 0xF4, 0xD7, 0x00, 0xFC, 0xD0, 0xF3, 0xAB,
	0x01, 0x10, 0xEF, 0x7E, 0xF4, 0x10, 0xEB, 0xBA,
	0xF6, 0xDA, 0x00, 0xBA, 0xF4, 0xC4, 0xF4, 0xDD,
	0x5D, 0xD0, 0xDB, 0x1F, 0x00, 0x00, 0xC0, 0xFF,
}

// spcBus is the audio CPU's address space: 64 KiB of RAM with the register
// page at $F0-$FF, the DSP behind its address/data pair, the mailbox ports,
// three timers, and the boot ROM overlay.
type spcBus struct {
	ram [spcRAMSize]byte

	control    byte
	dspRegAddr byte
	dsp        *dsp

	// Mailbox ports: bytes written by the main CPU land in portsIn, bytes
	// written by the audio CPU land in portsOut.
	portsIn  [4]byte
	portsOut [4]byte

	timer0 *timer
	timer1 *timer
	timer2 *timer
}

func newSPCBus(out func(l, r float32)) *spcBus {
	return &spcBus{
		control: ctrlROMEnable | ctrlClearP10 | ctrlClearP32,
		dsp:     newDSP(out),
		timer0:  newTimer(128),
		timer1:  newTimer(128),
		timer2:  newTimer(16),
	}
}

func (b *spcBus) read(addr uint16) byte {
	switch {
	case addr == 0xF1:
		return 0
	case addr == 0xF2:
		return b.dspRegAddr & 0x7F
	case addr == 0xF3:
		return b.dsp.read(b.dspRegAddr)
	case addr >= 0xF4 && addr <= 0xF7:
		return b.portsIn[addr-0xF4]
	case addr >= 0xFA && addr <= 0xFC:
		return 0 // timer periods are write-only
	case addr == 0xFD:
		return b.timer0.readCounter()
	case addr == 0xFE:
		return b.timer1.readCounter()
	case addr == 0xFF:
		return b.timer2.readCounter()
	case addr >= 0xFFC0 && b.control&ctrlROMEnable != 0:
		return iplROM[addr-0xFFC0]
	}
	return b.ram[addr]
}

func (b *spcBus) write(addr uint16, data byte) {
	switch {
	case addr == 0xF1:
		b.setControl(data)
	case addr == 0xF2:
		b.dspRegAddr = data
	case addr == 0xF3:
		b.dsp.write(b.dspRegAddr, data, b.ram[:])
	case addr >= 0xF4 && addr <= 0xF7:
		b.portsOut[addr-0xF4] = data
	case addr == 0xFA:
		b.timer0.writeModulo(data)
	case addr == 0xFB:
		b.timer1.writeModulo(data)
	case addr == 0xFC:
		b.timer2.writeModulo(data)
	case addr >= 0xFD && addr <= 0xFF:
		// Timer counters are read-only.
	default:
		b.ram[addr] = data
	}
}

func (b *spcBus) setControl(data byte) {
	b.timer0.reset()
	b.timer1.reset()
	b.timer2.reset()
	if data&ctrlClearP10 != 0 {
		b.portsIn[0] = 0
		b.portsIn[1] = 0
	}
	if data&ctrlClearP32 != 0 {
		b.portsIn[2] = 0
		b.portsIn[3] = 0
	}
	b.control = data
}

// clock advances the timers and the DSP by audio cycles.
func (b *spcBus) clock(cycles int) {
	if b.control&ctrlTimer0 != 0 {
		b.timer0.clock(cycles)
	}
	if b.control&ctrlTimer1 != 0 {
		b.timer1.clock(cycles)
	}
	if b.control&ctrlTimer2 != 0 {
		b.timer2.clock(cycles)
	}
	b.dsp.clock(cycles, b.ram[:])
}

// resetVector reads the boot address from the top of the address space.
func (b *spcBus) resetVector() uint16 {
	return bits.Make16(b.read(0xFFFF), b.read(0xFFFE))
}
