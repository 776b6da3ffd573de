// Package bus implements address bus A: the 24-bit CPU-visible address
// space, the B-bus window onto the picture and audio hardware, the internal
// timing registers, and the two DMA engines. The bus owns every downstream
// device; the CPU drives it and receives interrupt flags back.
package bus

import (
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/apu"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/bits"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/cart"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/interrupts"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/joypad"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/mem"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/ppu"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/timing"
)

const wramSize = 128 * 1024

// Bus is address bus A with every attached device.
type Bus struct {
	ppu     *ppu.PPU
	apu     *apu.APU
	joypads *joypad.Joypads
	cart    *cart.Cart
	wram    *mem.RAM

	// Stored values behind the internal registers.
	wramAddr    uint32
	multOperand byte
	divOperand  uint16
	divResult   uint16
	multResult  uint16

	// DMA
	hdmaEnable byte
	hdmaActive byte
	channels   [8]dmaChannel

	// Interrupts raised while the CPU was paused inside a DMA write are
	// held here until the next Clock call delivers them.
	pending interrupts.Flags

	openBus byte
}

// New wires a bus around a loaded cartridge.
func New(c *cart.Cart) *Bus {
	return &Bus{
		ppu:         ppu.New(),
		apu:         apu.New(),
		joypads:     joypad.New(),
		cart:        c,
		wram:        mem.NewRAM(wramSize),
		multOperand: 0xFF,
		divOperand:  0xFFFF,
	}
}

// PPU exposes the picture processor for the frame hookup.
func (b *Bus) PPU() *ppu.PPU { return b.ppu }

// APU exposes the audio subsystem for the host audio hookup.
func (b *Bus) APU() *apu.APU { return b.apu }

// Cart exposes the cartridge for flush and naming.
func (b *Bus) Cart() *cart.Cart { return b.cart }

// SetButton forwards controller state.
func (b *Bus) SetButton(btn joypad.Button, pressed bool, pad int) {
	b.joypads.SetButton(btn, pressed, pad)
}

// StartFrame hands the PPU the output buffer and flushes persistent storage.
func (b *Bus) StartFrame(fb []byte) {
	b.ppu.StartFrame(fb)
	b.cart.Flush()
}

// Read returns the byte at a 24-bit address and its access cost in master
// cycles.
func (b *Bus) Read(addr uint32) (byte, int) {
	bank := bits.Bank(addr)
	offset := bits.Offset(addr)

	var data byte
	var cycles int
	switch {
	case bank <= 0x3F || (bank >= 0x80 && bank <= 0xBF):
		switch {
		case offset <= 0x1FFF:
			data, cycles = b.wram.Read(uint32(offset)), timing.SlowMem
		case offset >= 0x2100 && offset <= 0x2143:
			data, cycles = b.readB(byte(offset)), timing.FastMem
		case offset == 0x2180:
			data, cycles = b.readWRAMPort(), timing.FastMem
		case offset >= 0x2100 && offset <= 0x21FF:
			data, cycles = b.openBus, timing.FastMem
		case offset >= 0x2200 && offset <= 0x23FF,
			offset >= 0x3000 && offset <= 0x3FFF:
			// Cartridge expansion register window (coprocessor ports).
			data, cycles = b.cart.Read(bank, offset)
		case offset == 0x4016 || offset == 0x4017:
			data, cycles = b.joypads.Read(offset), timing.XSlowMem
		case offset >= 0x4000 && offset <= 0x41FF:
			data, cycles = b.openBus, timing.XSlowMem
		case offset >= 0x4200 && offset <= 0x420F:
			data, cycles = b.openBus, timing.FastMem
		case offset >= 0x4210 && offset <= 0x421F:
			data, cycles = b.readReg(offset), timing.FastMem
		case offset >= 0x4300 && offset <= 0x437F:
			ch := (offset >> 4) & 7
			data, cycles = b.channels[ch].read(byte(offset&0xF)), timing.FastMem
		case offset >= 0x6000:
			data, cycles = b.cart.Read(bank, offset)
		default:
			data, cycles = b.openBus, timing.FastMem
		}
	case bank == 0x7E || bank == 0x7F:
		data, cycles = b.wram.Read(addr-0x7E0000), timing.SlowMem
	default:
		data, cycles = b.cart.Read(bank, offset)
	}
	b.openBus = data
	return data, cycles
}

// Write stores a byte at a 24-bit address, returning the cycle cost.
func (b *Bus) Write(addr uint32, data byte) int {
	b.openBus = data
	bank := bits.Bank(addr)
	offset := bits.Offset(addr)

	switch {
	case bank <= 0x3F || (bank >= 0x80 && bank <= 0xBF):
		switch {
		case offset <= 0x1FFF:
			b.wram.Write(uint32(offset), data)
			return timing.SlowMem
		case offset >= 0x2100 && offset <= 0x2143:
			b.writeB(byte(offset), data)
			return timing.FastMem
		case offset == 0x2180:
			b.writeWRAMPort(data)
			return timing.FastMem
		case offset == 0x2181:
			b.wramAddr = bits.SetLo24(b.wramAddr, data)
			return timing.FastMem
		case offset == 0x2182:
			b.wramAddr = bits.SetMid24(b.wramAddr, data)
			return timing.FastMem
		case offset == 0x2183:
			b.wramAddr = bits.SetHi24(b.wramAddr, data&1)
			return timing.FastMem
		case offset >= 0x2100 && offset <= 0x21FF:
			return timing.FastMem
		case offset >= 0x2200 && offset <= 0x23FF,
			offset >= 0x3000 && offset <= 0x3FFF:
			return b.cart.Write(bank, offset, data)
		case offset == 0x4016:
			b.joypads.LatchAll()
			return timing.XSlowMem
		case offset >= 0x4000 && offset <= 0x41FF:
			return timing.XSlowMem
		case offset >= 0x4200 && offset <= 0x420D:
			b.writeReg(offset, data)
			return timing.FastMem
		case offset >= 0x4300 && offset <= 0x437F:
			ch := (offset >> 4) & 7
			b.channels[ch].write(byte(offset&0xF), data)
			return timing.FastMem
		case offset >= 0x6000:
			return b.cart.Write(bank, offset, data)
		default:
			return timing.FastMem
		}
	case bank == 0x7E || bank == 0x7F:
		b.wram.Write(addr-0x7E0000, data)
		return timing.SlowMem
	default:
		return b.cart.Write(bank, offset, data)
	}
}

// Clock advances every device by the given master cycles and merges their
// interrupt flags. Called after each memory access and internal operation.
func (b *Bus) Clock(cycles int) interrupts.Flags {
	flags := b.step(cycles) | b.pending
	b.pending = 0
	return flags
}

func (b *Bus) step(cycles int) interrupts.Flags {
	b.apu.Clock(cycles)
	flags := b.cart.Clock(cycles)

	switch sig := b.ppu.Clock(cycles); sig {
	case ppu.SignalNMI:
		b.joypads.PrepareRead()
		flags |= interrupts.NMI
	case ppu.SignalVBlank:
		b.joypads.PrepareRead()
		flags |= interrupts.VBlank
	case ppu.SignalIRQ:
		flags |= interrupts.IRQ
	case ppu.SignalHBlank:
		if b.hdmaActive != 0 {
			flags |= b.hdmaTransfer()
		}
	case ppu.SignalDelay:
		// The picture processor stalls the CPU mid-line; time still passes
		// for everything else.
		flags |= b.step(timing.PauseLen)
	case ppu.SignalFrameStart:
		b.hdmaActive = b.hdmaEnable
		for ch := range b.channels {
			if bits.Test(b.hdmaActive, uint(ch)) {
				b.channels[ch].startHDMA()
			}
		}
	}
	return flags
}

// B-bus access, low byte of $21xx.
func (b *Bus) readB(addr byte) byte {
	switch {
	case addr == 0x37 || (addr >= 0x34 && addr <= 0x3F):
		return b.ppu.ReadMem(addr)
	case addr >= 0x40 && addr <= 0x7F:
		return b.apu.ReadPort(int(addr % 4))
	}
	return b.openBus
}

func (b *Bus) writeB(addr byte, data byte) {
	switch {
	case addr <= 0x33:
		b.ppu.WriteMem(addr, data)
	case addr >= 0x40 && addr <= 0x7F:
		b.apu.WritePort(int(addr%4), data)
	}
}

// WRAM data port with the auto-incrementing 17-bit cursor.
func (b *Bus) readWRAMPort() byte {
	data := b.wram.Read(b.wramAddr)
	b.wramAddr = (b.wramAddr + 1) & 0x1FFFF
	return data
}

func (b *Bus) writeWRAMPort(data byte) {
	b.wram.Write(b.wramAddr, data)
	b.wramAddr = (b.wramAddr + 1) & 0x1FFFF
}

// Internal status registers, $4210-$421F.
func (b *Bus) readReg(addr uint16) byte {
	switch addr {
	case 0x4210:
		return b.ppu.NMIFlag()
	case 0x4211:
		return b.ppu.IRQFlag()
	case 0x4212:
		return b.ppu.Status() | b.joypads.ReadyBit()
	case 0x4213:
		return 0 // I/O port read
	case 0x4214:
		return bits.Lo(b.divResult)
	case 0x4215:
		return bits.Hi(b.divResult)
	case 0x4216:
		return bits.Lo(b.multResult)
	case 0x4217:
		return bits.Hi(b.multResult)
	default:
		return b.joypads.Read(addr)
	}
}

// Control registers, $4200-$420D.
func (b *Bus) writeReg(addr uint16, data byte) {
	switch addr {
	case 0x4200:
		b.ppu.SetIntEnable(data)
		b.joypads.EnableAutoRead(data)
	case 0x4201: // I/O port write
	case 0x4202:
		b.multOperand = data
	case 0x4203:
		// The multiply latches on the second operand write.
		b.multResult = uint16(b.multOperand) * uint16(data)
	case 0x4204:
		b.divOperand = bits.SetLo(b.divOperand, data)
	case 0x4205:
		b.divOperand = bits.SetHi(b.divOperand, data)
	case 0x4206:
		if data == 0 {
			// Divide by zero: fixed sentinel results.
			b.divResult = 0xFFFF
			b.multResult = 0xC
		} else {
			b.divResult = b.divOperand / uint16(data)
			b.multResult = b.divOperand % uint16(data)
		}
	case 0x4207:
		b.ppu.SetHTimerLo(data)
	case 0x4208:
		b.ppu.SetHTimerHi(data)
	case 0x4209:
		b.ppu.SetVTimerLo(data)
	case 0x420A:
		b.ppu.SetVTimerHi(data)
	case 0x420B:
		b.dmaTransfer(data)
	case 0x420C:
		b.hdmaEnable = data
	case 0x420D:
		b.cart.SetROMSpeed(data)
	}
}
