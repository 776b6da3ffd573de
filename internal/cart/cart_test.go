package cart

import (
	"path/filepath"
	"testing"
)

// buildROM creates a minimal image with a valid header at the given base.
func buildROM(size, headerBase int, mapping, romType, sramCode byte) []byte {
	rom := make([]byte, size)
	copy(rom[headerBase:], []byte("TEST CARTRIDGE       "))
	rom[headerBase+headerMapping] = mapping
	rom[headerBase+headerROMType] = romType
	rom[headerBase+headerROMSize] = 0x0A
	rom[headerBase+headerSRAMSize] = sramCode
	return rom
}

func TestParseHeaderLoROM(t *testing.T) {
	rom := buildROM(0x10000, loROMHeader, 0x20, 0x00, 0x03)
	h, err := ParseHeader(rom)
	if err != nil {
		t.Fatal(err)
	}
	if h.Mapping != LoROM {
		t.Fatalf("mapping = %v, want LoROM", h.Mapping)
	}
	if h.Name != "TEST CARTRIDGE" {
		t.Fatalf("name = %q", h.Name)
	}
	if h.SRAMSize != 0x400<<3 {
		t.Fatalf("sram = %d", h.SRAMSize)
	}
	if h.FastROM {
		t.Fatal("mapping byte 0x20 is slow ROM")
	}
}

func TestParseHeaderHiROMFast(t *testing.T) {
	rom := buildROM(0x10000, hiROMHeader, 0x31, 0x00, 0x00)
	h, err := ParseHeader(rom)
	if err != nil {
		t.Fatal(err)
	}
	if h.Mapping != HiROM {
		t.Fatalf("mapping = %v, want HiROM", h.Mapping)
	}
	if !h.FastROM {
		t.Fatal("mapping byte 0x31 permits fast ROM")
	}
	if h.SRAMSize != 0 {
		t.Fatalf("sram = %d, want 0", h.SRAMSize)
	}
}

func TestParseHeaderRejectsGarbage(t *testing.T) {
	if _, err := ParseHeader(make([]byte, 0x10000)); err == nil {
		t.Fatal("expected header error")
	}
}

func TestLoROMMapping(t *testing.T) {
	rom := buildROM(0x20000, loROMHeader, 0x20, 0x00, 0x01)
	rom[0x0042] = 0xAA  // bank 0, offset 0x8042
	rom[0x8123] = 0xBB  // bank 1, offset 0x8123
	c, err := New(rom, filepath.Join(t.TempDir(), "t.sav"), nil)
	if err != nil {
		t.Fatal(err)
	}

	if got, _ := c.Read(0x00, 0x8042); got != 0xAA {
		t.Fatalf("00:8042 = %02X, want AA", got)
	}
	// Mirror in the upper banks.
	if got, _ := c.Read(0x80, 0x8042); got != 0xAA {
		t.Fatalf("80:8042 = %02X, want AA", got)
	}
	if got, _ := c.Read(0x01, 0x8123); got != 0xBB {
		t.Fatalf("01:8123 = %02X, want BB", got)
	}
	// Banks 40-6F map the same data without the offset high bit.
	if got, _ := c.Read(0x41, 0x0123); got != 0xBB {
		t.Fatalf("41:0123 = %02X, want BB", got)
	}
}

func TestHiROMMapping(t *testing.T) {
	rom := buildROM(0x20000, hiROMHeader, 0x21, 0x00, 0x00)
	rom[0x18123] = 0xCC // bank 1, offset 0x8123
	c, err := New(rom, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := c.Read(0x41, 0x8123); got != 0xCC {
		t.Fatalf("41:8123 = %02X, want CC", got)
	}
	if got, _ := c.Read(0x01, 0x8123); got != 0xCC {
		t.Fatalf("01:8123 = %02X, want CC", got)
	}
	if got, _ := c.Read(0xC1, 0x8123); got != 0xCC {
		t.Fatalf("C1:8123 = %02X, want CC", got)
	}
}

func TestSRAMReadAfterWrite(t *testing.T) {
	rom := buildROM(0x20000, loROMHeader, 0x20, 0x02, 0x03)
	c, err := New(rom, filepath.Join(t.TempDir(), "t.sav"), nil)
	if err != nil {
		t.Fatal(err)
	}
	c.Write(0x70, 0x1234, 0x5A)
	if got, _ := c.Read(0x70, 0x1234); got != 0x5A {
		t.Fatalf("save RAM read = %02X, want 5A", got)
	}
	// ROM region ignores writes.
	before, _ := c.Read(0x00, 0x8000)
	c.Write(0x00, 0x8000, ^before)
	if after, _ := c.Read(0x00, 0x8000); after != before {
		t.Fatal("ROM write must be a no-op")
	}
}

func TestROMSpeedToggle(t *testing.T) {
	rom := buildROM(0x20000, loROMHeader, 0x30, 0x00, 0x00) // fast-capable
	c, err := New(rom, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, cycles := c.Read(0x00, 0x8000); cycles != 8 {
		t.Fatalf("default speed = %d, want 8", cycles)
	}
	c.SetROMSpeed(1)
	if _, cycles := c.Read(0x00, 0x8000); cycles != 6 {
		t.Fatalf("fast speed = %d, want 6", cycles)
	}
	c.SetROMSpeed(0)
	if _, cycles := c.Read(0x00, 0x8000); cycles != 8 {
		t.Fatalf("speed after clear = %d, want 8", cycles)
	}
}

func TestSlowCartIgnoresSpeedSelect(t *testing.T) {
	rom := buildROM(0x20000, loROMHeader, 0x20, 0x00, 0x00)
	c, err := New(rom, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	c.SetROMSpeed(1)
	if _, cycles := c.Read(0x00, 0x8000); cycles != 8 {
		t.Fatalf("slow cart must stay at 8 cycles, got %d", cycles)
	}
}

func TestDSPCartRequiresROM(t *testing.T) {
	rom := buildROM(0x20000, loROMHeader, 0x20, 0x03, 0x00)
	if _, err := New(rom, "", nil); err == nil {
		t.Fatal("expected missing DSP ROM error")
	}
	if _, err := New(rom, "", make([]byte, 2048*3+1024*2)); err != nil {
		t.Fatalf("with DSP ROM: %v", err)
	}
}
