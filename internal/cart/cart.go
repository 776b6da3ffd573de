package cart

import (
	"fmt"

	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/expansion"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/interrupts"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/mem"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/timing"
)

// Save RAM bank granularity differs between the lo and hi layouts.
const (
	loROMRAMBankSize = 0x8000
	hiROMRAMBankSize = 0x2000
)

// targetKind says which device a bus address decodes to.
type targetKind int

const (
	targetROM targetKind = iota
	targetRAM
	targetExpansion
)

type target struct {
	kind   targetKind
	bank   byte
	offset uint16
	ram    uint32
}

type mapFunc func(bank byte, offset uint16) target

// mapping covers an inclusive bank range from startAddr to the top of each
// bank. The list is ordered; the first hit wins.
type mapping struct {
	startBank byte
	endBank   byte
	startAddr uint16
	decode    mapFunc
}

// Cart is a loaded cartridge: the immutable address map plus the devices
// behind it.
type Cart struct {
	mappings []mapping

	rom *mem.ROM
	ram *mem.SRAM
	exp expansion.Unit

	name     string
	fastROM  bool
	romSpeed int
}

// New builds a cartridge from a ROM dump. The save path backs the
// battery RAM sized by the header; coprocROM supplies the program for
// header-declared DSP cartridges.
func New(rom []byte, savePath string, coprocROM []byte) (*Cart, error) {
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, err
	}

	sram, err := mem.NewSRAM(savePath, h.SRAMSize)
	if err != nil {
		return nil, fmt.Errorf("cart: save file: %w", err)
	}

	c := &Cart{
		name:     h.Name,
		fastROM:  h.FastROM,
		romSpeed: timing.SlowMem,
		ram:      sram,
	}

	switch h.Mapping {
	case HiROM, ExHiROM:
		c.rom = mem.NewROM(rom, 0x10000)
	default:
		c.rom = mem.NewROM(rom, 0x8000)
	}

	switch h.Chip {
	case ChipNone:
	case ChipDSP:
		dsp, err := expansion.NewDSP(coprocROM)
		if err != nil {
			return nil, fmt.Errorf("cart: %q needs a DSP ROM: %w", h.Name, err)
		}
		c.exp = dsp
	case ChipSuperFX:
		c.exp = expansion.NewSuperFX(c.rom, sram)
	default:
		return nil, fmt.Errorf("cart: unsupported coprocessor %v in %q", h.Chip, h.Name)
	}

	c.buildMappings(h)
	return c, nil
}

func (c *Cart) buildMappings(h *Header) {
	if h.Chip == ChipSuperFX {
		// The accelerator owns the whole cartridge space.
		exp := func(bank byte, offset uint16) target {
			return target{kind: targetExpansion, bank: bank, offset: offset}
		}
		c.mappings = []mapping{
			{0x00, 0x3F, 0x3000, exp},
			{0x80, 0xBF, 0x3000, exp},
			{0x40, 0x5F, 0, exp},
			{0xC0, 0xDF, 0, exp},
			{0x60, 0x7F, 0, exp},
			{0xE0, 0xEF, 0, exp},
		}
		return
	}

	if h.Chip == ChipDSP {
		switch h.Mapping {
		case LoROM, LoROMLarge:
			c.mappings = append(c.mappings, mapping{0x30, 0x3F, 0x8000, func(_ byte, offset uint16) target {
				port := byte(0)
				if offset >= 0xC000 {
					port = 1
				}
				return target{kind: targetExpansion, bank: port}
			}})
		case HiROM:
			c.mappings = append(c.mappings, mapping{0x00, 0x1F, 0x6000, func(_ byte, offset uint16) target {
				port := byte(0)
				if offset >= 0x7000 {
					port = 1
				}
				return target{kind: targetExpansion, bank: port}
			}})
		}
	}

	rom := func(bankAdjust byte, mask bool) mapFunc {
		return func(bank byte, offset uint16) target {
			o := offset
			if mask {
				o = offset % 0x8000
			}
			return target{kind: targetROM, bank: bank - bankAdjust, offset: o}
		}
	}

	switch h.Mapping {
	case LoROM:
		c.mappings = append(c.mappings,
			mapping{0x00, 0x3F, 0x8000, rom(0x00, true)},
			mapping{0x80, 0xBF, 0x8000, rom(0x80, true)},
			mapping{0x40, 0x6F, 0x0000, rom(0x40, true)},
			mapping{0xC0, 0xFF, 0x0000, rom(0xC0, true)},
		)
	case LoROMLarge:
		c.mappings = append(c.mappings,
			mapping{0x00, 0x3F, 0x8000, rom(0x00, true)},
			mapping{0x80, 0xBF, 0x8000, rom(0x80, true)},
			mapping{0x40, 0x6F, 0x0000, rom(0x00, true)},
			mapping{0xC0, 0xFF, 0x0000, rom(0x80, true)},
		)
	case HiROM:
		c.mappings = append(c.mappings,
			mapping{0x00, 0x3F, 0x8000, rom(0x00, false)},
			mapping{0x80, 0xBF, 0x8000, rom(0x80, false)},
			mapping{0x40, 0x7F, 0x0000, rom(0x40, false)},
			mapping{0xC0, 0xFF, 0x0000, rom(0xC0, false)},
		)
	case ExHiROM:
		c.mappings = append(c.mappings,
			// The first chunk of banks reads the upper half of the image.
			mapping{0x00, 0x1F, 0x8000, func(bank byte, offset uint16) target {
				return target{kind: targetROM, bank: bank + 0x40, offset: offset}
			}},
			mapping{0x80, 0xBF, 0x8000, rom(0x80, false)},
			mapping{0x40, 0x5F, 0x0000, rom(0x00, false)},
			mapping{0xC0, 0xFF, 0x0000, rom(0xC0, false)},
		)
	}

	// Save RAM windows.
	switch h.Mapping {
	case LoROM, LoROMLarge:
		c.mappings = append(c.mappings, mapping{0x70, 0x7F, 0, func(bank byte, offset uint16) target {
			return target{kind: targetRAM, ram: uint32(bank-0x70)*loROMRAMBankSize + uint32(offset)}
		}})
	case HiROM, ExHiROM:
		c.mappings = append(c.mappings, mapping{0x20, 0x3F, 0x6000, func(bank byte, offset uint16) target {
			return target{kind: targetRAM, ram: uint32(bank%0x10)*hiROMRAMBankSize + uint32(offset-0x6000)}
		}})
	}
}

func (c *Cart) lookup(bank byte, offset uint16) (target, bool) {
	for _, m := range c.mappings {
		if bank >= m.startBank && bank <= m.endBank && offset >= m.startAddr {
			return m.decode(bank, offset), true
		}
	}
	return target{}, false
}

// Read decodes the address and returns the byte plus its cycle cost.
func (c *Cart) Read(bank byte, offset uint16) (byte, int) {
	t, ok := c.lookup(bank, offset)
	if !ok {
		return 0, timing.SlowMem
	}
	switch t.kind {
	case targetROM:
		return c.rom.Read(t.bank, t.offset), c.romSpeed
	case targetRAM:
		return c.ram.Read(t.ram), timing.SlowMem
	default:
		if c.exp == nil {
			return 0, timing.SlowMem
		}
		return c.exp.Read(t.bank, t.offset), timing.SlowMem
	}
}

// Write decodes the address and performs the store; ROM writes fall through.
// Writes always use the mirrored bank so fast-ROM banks behave like their
// slow twins.
func (c *Cart) Write(bank byte, offset uint16, value byte) int {
	t, ok := c.lookup(bank%0x80, offset)
	if !ok {
		return timing.SlowMem
	}
	switch t.kind {
	case targetRAM:
		c.ram.Write(t.ram, value)
	case targetExpansion:
		if c.exp != nil {
			c.exp.Write(t.bank, t.offset, value)
		}
	}
	return timing.SlowMem
}

// SetROMSpeed applies the fast-ROM select register. Only carts whose header
// permits fast timing react.
func (c *Cart) SetROMSpeed(data byte) {
	if c.fastROM && data&1 != 0 {
		c.romSpeed = timing.FastMem
	} else {
		c.romSpeed = timing.SlowMem
	}
}

// Clock advances the coprocessor, if any.
func (c *Cart) Clock(cycles int) interrupts.Flags {
	if c.exp == nil {
		return 0
	}
	return c.exp.Clock(cycles)
}

// Flush persists save RAM and coprocessor state. Called at frame start.
func (c *Cart) Flush() {
	c.ram.Flush()
	if c.exp != nil {
		c.exp.Flush()
	}
}

// Name returns the title from the cartridge header.
func (c *Cart) Name() string { return c.name }
