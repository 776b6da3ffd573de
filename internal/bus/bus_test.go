package bus

import (
	"testing"

	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/cart"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/joypad"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/timing"
)

// newTestBus builds a bus around a minimal LoROM cartridge.
func newTestBus(t *testing.T) *Bus {
	t.Helper()
	rom := make([]byte, 0x10000)
	copy(rom[0x7FC0:], []byte("BUS TEST             "))
	rom[0x7FC0+0x15] = 0x20
	rom[0x7FC0+0x17] = 0x0A
	c, err := cart.New(rom, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	return New(c)
}

func TestWRAMReadAfterWrite(t *testing.T) {
	b := newTestBus(t)
	b.Write(0x7E1234, 0x42)
	if v, _ := b.Read(0x7E1234); v != 0x42 {
		t.Fatalf("wram read = %02X", v)
	}
	// The low 8 KiB mirrors into every system bank.
	b.Write(0x000100, 0x55)
	if v, _ := b.Read(0x800100); v != 0x55 {
		t.Fatalf("mirror read = %02X", v)
	}
	if v, _ := b.Read(0x7E0100); v != 0x55 {
		t.Fatalf("linear read = %02X", v)
	}
}

func TestCycleClasses(t *testing.T) {
	b := newTestBus(t)
	if _, cycles := b.Read(0x7E0000); cycles != timing.SlowMem {
		t.Fatalf("wram cost %d, want %d", cycles, timing.SlowMem)
	}
	if _, cycles := b.Read(0x002100); cycles != timing.FastMem {
		t.Fatalf("b-bus cost %d, want %d", cycles, timing.FastMem)
	}
	if _, cycles := b.Read(0x004016); cycles != timing.XSlowMem {
		t.Fatalf("joypad cost %d, want %d", cycles, timing.XSlowMem)
	}
	if _, cycles := b.Read(0x008000); cycles != timing.SlowMem {
		t.Fatalf("rom cost %d, want %d", cycles, timing.SlowMem)
	}
}

func TestWRAMPortCursor(t *testing.T) {
	b := newTestBus(t)
	b.Write(0x002181, 0x00)
	b.Write(0x002182, 0x00)
	b.Write(0x002183, 0x00)
	b.Write(0x002180, 0x11)
	b.Write(0x002180, 0x22)
	if v, _ := b.Read(0x7E0000); v != 0x11 {
		t.Fatalf("wram[0] = %02X", v)
	}
	if v, _ := b.Read(0x7E0001); v != 0x22 {
		t.Fatalf("wram[1] = %02X", v)
	}
}

func TestWRAMPortWrapsAt128K(t *testing.T) {
	b := newTestBus(t)
	// Point the cursor at the last byte.
	b.Write(0x002181, 0xFF)
	b.Write(0x002182, 0xFF)
	b.Write(0x002183, 0x01)
	b.Write(0x002180, 0xAA)
	b.Write(0x002180, 0xBB) // wraps to zero
	if v, _ := b.Read(0x7F_FFFF); v != 0xAA {
		t.Fatalf("wram[1FFFF] = %02X", v)
	}
	if v, _ := b.Read(0x7E0000); v != 0xBB {
		t.Fatalf("wram[0] = %02X", v)
	}
}

func TestMultiplyUnit(t *testing.T) {
	b := newTestBus(t)
	b.Write(0x004202, 12)
	b.Write(0x004203, 34)
	lo, _ := b.Read(0x004216)
	hi, _ := b.Read(0x004217)
	if got := int(hi)<<8 | int(lo); got != 12*34 {
		t.Fatalf("product = %d, want %d", got, 12*34)
	}
}

func TestDivideUnit(t *testing.T) {
	b := newTestBus(t)
	b.Write(0x004204, 0x39) // 12345 = 0x3039
	b.Write(0x004205, 0x30)
	b.Write(0x004206, 7)
	lo, _ := b.Read(0x004214)
	hi, _ := b.Read(0x004215)
	if got := int(hi)<<8 | int(lo); got != 12345/7 {
		t.Fatalf("quotient = %d, want %d", got, 12345/7)
	}
	rlo, _ := b.Read(0x004216)
	rhi, _ := b.Read(0x004217)
	if got := int(rhi)<<8 | int(rlo); got != 12345%7 {
		t.Fatalf("remainder = %d, want %d", got, 12345%7)
	}
}

func TestDivideByZeroSentinels(t *testing.T) {
	b := newTestBus(t)
	b.Write(0x004204, 0x34)
	b.Write(0x004205, 0x12)
	b.Write(0x004206, 0)
	lo, _ := b.Read(0x004214)
	hi, _ := b.Read(0x004215)
	if lo != 0xFF || hi != 0xFF {
		t.Fatalf("quotient = %02X%02X, want FFFF", hi, lo)
	}
	rlo, _ := b.Read(0x004216)
	rhi, _ := b.Read(0x004217)
	if got := int(rhi)<<8 | int(rlo); got != 0xC {
		t.Fatalf("remainder = %d, want 12", got)
	}
}

func TestOpenBusReads(t *testing.T) {
	b := newTestBus(t)
	b.Write(0x7E0000, 0x5A)
	b.Read(0x7E0000) // drives the bus with 0x5A
	if v, _ := b.Read(0x004100); v != 0x5A {
		t.Fatalf("open bus read = %02X, want 5A", v)
	}
}

// writeVRAMAddr points the VRAM port at a word address.
func writeVRAMAddr(b *Bus, word uint16) {
	b.Write(0x002115, 0x00) // increment after low byte
	b.Write(0x002116, byte(word))
	b.Write(0x002117, byte(word>>8))
}

func TestGeneralDMAMode0ToVRAM(t *testing.T) {
	b := newTestBus(t)
	// Four bytes in WRAM.
	for i, v := range []byte{0xDE, 0xAD, 0xBE, 0xEF} {
		b.Write(0x7E0000+uint32(i), v)
	}
	writeVRAMAddr(b, 0)

	// Channel 0: mode 0, A bus 7E:0000, target $2118, count 4.
	b.Write(0x004300, 0x00)
	b.Write(0x004301, 0x18)
	b.Write(0x004302, 0x00)
	b.Write(0x004303, 0x00)
	b.Write(0x004304, 0x7E)
	b.Write(0x004305, 0x04)
	b.Write(0x004306, 0x00)
	b.Write(0x00420B, 0x01)

	// Read back through the VRAM port.
	writeVRAMAddr(b, 0)
	got := make([]byte, 4)
	for i := range got {
		got[i], _ = b.Read(0x002139) // low byte reads, incrementing
	}
	want := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("vram byte %d = %02X, want %02X", i, got[i], want[i])
		}
	}

	// A-bus pointer advanced by the count.
	if lo, _ := b.Read(0x004302); lo != 0x04 {
		t.Fatalf("a-bus low after dma = %02X, want 04", lo)
	}
	if b.channels[0].count != 0 {
		t.Fatalf("count after dma = %d, want 0", b.channels[0].count)
	}
}

func TestGeneralDMAFixedSource(t *testing.T) {
	b := newTestBus(t)
	b.Write(0x7E0000, 0x77)
	writeVRAMAddr(b, 0)

	b.Write(0x004300, 0x08) // fixed A bus
	b.Write(0x004301, 0x18)
	b.Write(0x004302, 0x00)
	b.Write(0x004303, 0x00)
	b.Write(0x004304, 0x7E)
	b.Write(0x004305, 0x03)
	b.Write(0x00420B, 0x01)

	if lo, _ := b.Read(0x004302); lo != 0x00 {
		t.Fatalf("fixed a-bus moved to %02X", lo)
	}
	writeVRAMAddr(b, 0)
	for i := 0; i < 3; i++ {
		if v, _ := b.Read(0x002139); v != 0x77 {
			t.Fatalf("vram byte %d = %02X, want 77", i, v)
		}
	}
}

func TestDMADecrementDirection(t *testing.T) {
	b := newTestBus(t)
	b.Write(0x004300, 0x10) // decrement
	b.Write(0x004302, 0x10)
	b.Write(0x004303, 0x00)
	b.Write(0x004304, 0x7E)
	b.Write(0x004301, 0x80) // harmless target
	b.Write(0x004305, 0x04)
	b.Write(0x00420B, 0x01)
	if lo, _ := b.Read(0x004302); lo != 0x0C {
		t.Fatalf("a-bus low = %02X, want 0C", lo)
	}
}

func TestJoypadAutoReadAtVBlank(t *testing.T) {
	b := newTestBus(t)
	b.Write(0x004200, 0x01) // enable auto-read
	b.SetButton(joypad.A, true, 0)

	// Run a bit more than a frame so V-blank fires.
	for i := 0; i < timing.ScanlineCycles*timing.NumScanlines/8+100; i++ {
		b.Clock(8)
	}
	if v, _ := b.Read(0x004218); v&0x80 == 0 {
		t.Fatalf("A not latched: %02X", v)
	}

	b.SetButton(joypad.A, false, 0)
	for i := 0; i < timing.ScanlineCycles*timing.NumScanlines/8+100; i++ {
		b.Clock(8)
	}
	if v, _ := b.Read(0x004218); v&0x80 != 0 {
		t.Fatalf("A still latched after release: %02X", v)
	}
}

func TestHDMASingleChannel(t *testing.T) {
	b := newTestBus(t)
	// Table in WRAM at 7E:0000: one entry covering 3 lines writing $0F to
	// $2100, repeating each line, then end.
	b.Write(0x7E0000, 0x83) // repeat, 3 lines
	b.Write(0x7E0001, 0x0F)
	b.Write(0x7E0002, 0x1F)
	b.Write(0x7E0003, 0x2F)
	b.Write(0x7E0004, 0x00) // end of list

	b.Write(0x004300, 0x00) // mode 0, direct
	b.Write(0x004301, 0x00) // $2100
	b.Write(0x004302, 0x00)
	b.Write(0x004303, 0x00)
	b.Write(0x004304, 0x7E)
	b.Write(0x00420C, 0x01) // enable HDMA on channel 0

	// Run through a frame; the writes land on the first three H-blanks.
	for i := 0; i < timing.ScanlineCycles*timing.NumScanlines/8+100; i++ {
		b.Clock(8)
	}
	// After the frame the channel has consumed its list and disabled
	// itself.
	if b.hdmaActive&1 != 0 {
		t.Fatal("channel should disable after the zero entry")
	}
}

func TestAPUMailboxPorts(t *testing.T) {
	b := newTestBus(t)
	// Run the audio CPU long enough for its boot program to post the
	// ready signature on ports 0 and 1.
	for i := 0; i < 100000; i++ {
		b.Clock(8)
	}
	p0, _ := b.Read(0x002140)
	p1, _ := b.Read(0x002141)
	if p0 != 0xAA || p1 != 0xBB {
		t.Fatalf("boot signature = %02X %02X, want AA BB", p0, p1)
	}

	// Start the boot protocol: destination address on ports 2/3, a
	// nonzero byte on port 1, then $CC on port 0. The boot program
	// acknowledges by echoing $CC back.
	b.Write(0x002142, 0x00)
	b.Write(0x002143, 0x02)
	b.Write(0x002141, 0x01)
	b.Write(0x002140, 0xCC)
	for i := 0; i < 20000; i++ {
		b.Clock(8)
	}
	if ack, _ := b.Read(0x002140); ack != 0xCC {
		t.Fatalf("boot ack = %02X, want CC", ack)
	}
}

func TestExpansionWindowReachesCoprocessor(t *testing.T) {
	rom := make([]byte, 0x10000)
	copy(rom[0x7FC0:], []byte("GSU CART             "))
	rom[0x7FC0+0x15] = 0x20
	rom[0x7FC0+0x16] = 0x13 // SuperFX
	rom[0x7FC0+0x17] = 0x0A
	c, err := cart.New(rom, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	b := New(c)

	// GSU register file sits at $3000-$301F; write R1 and read it back.
	b.Write(0x003002, 0x34)
	b.Write(0x003003, 0x12)
	lo, _ := b.Read(0x003002)
	hi, _ := b.Read(0x003003)
	if lo != 0x34 || hi != 0x12 {
		t.Fatalf("R1 readback = %02X%02X, want 1234", hi, lo)
	}
}

func TestROMSpeedRegister(t *testing.T) {
	rom := make([]byte, 0x10000)
	copy(rom[0x7FC0:], []byte("FAST CART            "))
	rom[0x7FC0+0x15] = 0x30 // fast-capable
	rom[0x7FC0+0x17] = 0x0A
	c, err := cart.New(rom, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	b := New(c)
	if _, cycles := b.Read(0x008000); cycles != timing.SlowMem {
		t.Fatal("fast cart starts slow")
	}
	b.Write(0x00420D, 0x01)
	if _, cycles := b.Read(0x008000); cycles != timing.FastMem {
		t.Fatal("speed select should switch the cart to fast")
	}
}
