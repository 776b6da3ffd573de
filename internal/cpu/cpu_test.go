package cpu

import (
	"testing"

	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/interrupts"
)

// testBus is flat memory with uniform access cost and no devices.
type testBus struct {
	mem    []byte
	cycles int
}

func newTestBus() *testBus {
	return &testBus{mem: make([]byte, 1<<24)}
}

func (b *testBus) Read(addr uint32) (byte, int) {
	return b.mem[addr&0xFFFFFF], 6
}

func (b *testBus) Write(addr uint32, data byte) int {
	b.mem[addr&0xFFFFFF] = data
	return 6
}

func (b *testBus) Clock(cycles int) interrupts.Flags {
	b.cycles += cycles
	return 0
}

// newTestCPU builds a CPU with the reset vector pointing at 0x8000 and the
// given program there.
func newTestCPU(t *testing.T, program ...byte) (*CPU, *testBus) {
	t.Helper()
	b := newTestBus()
	b.mem[vecRESET] = 0x00
	b.mem[vecRESET+1] = 0x80
	copy(b.mem[0x8000:], program)
	return New(b), b
}

func TestPowerOnState(t *testing.T) {
	c, _ := newTestCPU(t)
	if c.pc != 0x8000 {
		t.Fatalf("pc = %04X, want reset vector target 8000", c.pc)
	}
	if !c.e {
		t.Fatal("power-on must be in emulation mode")
	}
	if c.p&(flagM|flagX|flagI) != flagM|flagX|flagI {
		t.Fatalf("p = %02X, want M, X and I set", c.p)
	}
	if c.s>>8 != 0x01 {
		t.Fatalf("s = %04X, want page 1", c.s)
	}
}

// nativeMode16 switches out of emulation with 16-bit accumulator and index.
func nativeMode16(c *CPU) {
	c.e = false
	c.p &^= flagM | flagX
}

func TestBinaryADC16(t *testing.T) {
	c, _ := newTestCPU(t, 0x69, 0x34, 0x12) // ADC #$1234
	nativeMode16(c)
	c.a = 0x1111
	c.Step()
	if c.a != 0x2345 {
		t.Fatalf("a = %04X, want 2345", c.a)
	}
	if c.p&(flagC|flagZ|flagN|flagV) != 0 {
		t.Fatalf("flags = %02X, want none", c.p)
	}
}

func TestBinaryADCOverflow(t *testing.T) {
	c, _ := newTestCPU(t, 0x69, 0x01) // ADC #$01 (8-bit)
	c.e = false
	c.a = 0x7F
	c.Step()
	if c.a&0xFF != 0x80 {
		t.Fatalf("a = %02X, want 80", c.a&0xFF)
	}
	if c.p&flagV == 0 || c.p&flagN == 0 {
		t.Fatalf("flags = %02X, want V and N", c.p)
	}
}

func TestDecimalADC16(t *testing.T) {
	// A = 0x1234, decimal set, 16-bit: ADC #$0006 -> 0x1240.
	c, _ := newTestCPU(t, 0x69, 0x06, 0x00)
	nativeMode16(c)
	c.p |= flagD
	c.a = 0x1234
	c.Step()
	if c.a != 0x1240 {
		t.Fatalf("a = %04X, want 1240", c.a)
	}
	if c.p&flagC != 0 || c.p&flagZ != 0 {
		t.Fatalf("flags = %02X, want C and Z clear", c.p)
	}
}

func TestDecimalADCWithCarryOut(t *testing.T) {
	// 0x9876 + 0x0124 in BCD = 1_0000: wraps with carry.
	c, _ := newTestCPU(t, 0x69, 0x24, 0x01)
	nativeMode16(c)
	c.p |= flagD
	c.a = 0x9876
	c.Step()
	if c.a != 0x0000 {
		t.Fatalf("a = %04X, want 0000", c.a)
	}
	if c.p&flagC == 0 || c.p&flagZ == 0 {
		t.Fatalf("flags = %02X, want C and Z set", c.p)
	}
}

func TestDecimalADC8BitProperty(t *testing.T) {
	// BCD add modulo 100 with carry out on overflow, across a sample grid.
	for _, pair := range [][2]byte{{0x05, 0x05}, {0x09, 0x01}, {0x99, 0x01}, {0x50, 0x50}, {0x38, 0x45}} {
		c, _ := newTestCPU(t, 0x69, pair[1])
		c.e = false
		c.p |= flagD
		c.a = uint16(pair[0])
		c.Step()

		dec := func(b byte) int { return int(b>>4)*10 + int(b&0xF) }
		sum := dec(pair[0]) + dec(pair[1])
		wantCarry := sum > 99
		sum %= 100
		want := byte(sum/10)<<4 | byte(sum%10)
		if byte(c.a) != want {
			t.Errorf("%02X + %02X = %02X, want %02X", pair[0], pair[1], byte(c.a), want)
		}
		if (c.p&flagC != 0) != wantCarry {
			t.Errorf("%02X + %02X carry = %v, want %v", pair[0], pair[1], c.p&flagC != 0, wantCarry)
		}
	}
}

func TestDecimalSBC(t *testing.T) {
	c, _ := newTestCPU(t, 0xE9, 0x05) // SBC #$05
	c.e = false
	c.p |= flagD | flagC
	c.a = 0x23
	c.Step()
	if byte(c.a) != 0x18 {
		t.Fatalf("a = %02X, want 18", byte(c.a))
	}
	if c.p&flagC == 0 {
		t.Fatal("no borrow expected")
	}
}

func TestEmulationStackStaysInPage1(t *testing.T) {
	// PHA at the bottom of the stack page must wrap within page 1.
	c, b := newTestCPU(t, 0x48, 0x48, 0x48)
	c.a = 0x42
	c.s = 0x0100
	for i := 0; i < 3; i++ {
		c.Step()
		if c.s>>8 != 0x01 {
			t.Fatalf("push %d: s = %04X, left page 1", i, c.s)
		}
	}
	if b.mem[0x0100] != 0x42 {
		t.Fatal("first push should land at 0100")
	}
	if b.mem[0x01FF] != 0x42 {
		t.Fatal("wrapped push should land at 01FF")
	}
}

func TestXCEEntersNativeMode(t *testing.T) {
	c, _ := newTestCPU(t, 0x18, 0xFB) // CLC; XCE
	c.Step()
	c.Step()
	if c.e {
		t.Fatal("XCE with carry clear should leave emulation")
	}
	if c.p&flagC == 0 {
		t.Fatal("old emulation state should come back in carry")
	}
}

func TestXCEEnterEmulationTruncates(t *testing.T) {
	c, _ := newTestCPU(t, 0x38, 0xFB) // SEC; XCE
	nativeMode16(c)
	c.x = 0x1234
	c.s = 0x2345
	c.Step()
	c.Step()
	if !c.e {
		t.Fatal("XCE with carry set should enter emulation")
	}
	if c.x != 0x34 {
		t.Fatalf("x = %04X, want 0034", c.x)
	}
	if c.s != 0x0145 {
		t.Fatalf("s = %04X, want 0145", c.s)
	}
	if c.p&(flagM|flagX) != flagM|flagX {
		t.Fatal("emulation forces M and X")
	}
}

func TestSEPZeroesIndexHighBytes(t *testing.T) {
	c, _ := newTestCPU(t, 0xE2, 0x10) // SEP #$10
	nativeMode16(c)
	c.x = 0xABCD
	c.y = 0x1234
	c.Step()
	if c.x != 0xCD || c.y != 0x34 {
		t.Fatalf("x=%04X y=%04X, want high bytes cleared", c.x, c.y)
	}
}

func TestBlockMoveMVN(t *testing.T) {
	// MVN $00,$00 with A=2 copies three bytes.
	c, b := newTestCPU(t, 0x54, 0x00, 0x00)
	nativeMode16(c)
	c.a = 2
	c.x = 0x1000
	c.y = 0x2000
	b.mem[0x1000] = 0xAA
	b.mem[0x1001] = 0xBB
	b.mem[0x1002] = 0xCC

	steps := 0
	for c.a != 0xFFFF {
		c.Step()
		steps++
		if steps > 10 {
			t.Fatal("block move never terminated")
		}
	}
	if steps != 3 {
		t.Fatalf("block move ran %d steps, want 3", steps)
	}
	if b.mem[0x2000] != 0xAA || b.mem[0x2001] != 0xBB || b.mem[0x2002] != 0xCC {
		t.Fatalf("copied bytes = % X", b.mem[0x2000:0x2003])
	}
	if c.pc != 0x8003 {
		t.Fatalf("pc = %04X, want past the instruction", c.pc)
	}
}

func TestInterruptEntryNative(t *testing.T) {
	c, b := newTestBusWithVectors(t)
	nativeMode16(c)
	c.p |= flagD // must clear on entry
	c.pb = 0x01
	c.pc = 0x2345
	c.Raise(interrupts.NMI)

	if done := c.Step(); !done {
		t.Fatal("NMI step should report the blank")
	}
	if c.pc != 0x9000 {
		t.Fatalf("pc = %04X, want NMI vector target", c.pc)
	}
	if c.pb != 0 {
		t.Fatal("interrupt entry clears the program bank")
	}
	if c.p&flagD != 0 {
		t.Fatal("interrupt entry clears decimal")
	}
	if c.p&flagI == 0 {
		t.Fatal("interrupt entry sets I")
	}
	// Stack: PB, PCH, PCL, P.
	if b.mem[uint32(c.s)+1]&flagD == 0 {
		t.Fatal("pushed P should still carry D")
	}
	if b.mem[uint32(c.s)+2] != 0x45 || b.mem[uint32(c.s)+3] != 0x23 {
		t.Fatalf("pushed pc = %02X%02X", b.mem[uint32(c.s)+3], b.mem[uint32(c.s)+2])
	}
	if b.mem[uint32(c.s)+4] != 0x01 {
		t.Fatal("pushed program bank missing")
	}
}

func newTestBusWithVectors(t *testing.T) (*CPU, *testBus) {
	t.Helper()
	c, b := newTestCPU(t)
	b.mem[vecNMI] = 0x00
	b.mem[vecNMI+1] = 0x90
	b.mem[vecIRQ] = 0x00
	b.mem[vecIRQ+1] = 0xA0
	return c, b
}

func TestIRQMaskedByIFlag(t *testing.T) {
	c, _ := newTestBusWithVectors(t)
	nativeMode16(c)
	c.p |= flagI
	c.pc = 0x8000
	c.Raise(interrupts.IRQ)
	c.Step() // consumes the IRQ without vectoring
	if c.pc == 0xA000 {
		t.Fatal("masked IRQ must not vector")
	}

	c.p &^= flagI
	c.Raise(interrupts.IRQ)
	c.Step()
	if c.pc != 0xA000 {
		t.Fatalf("pc = %04X, want IRQ vector target", c.pc)
	}
}

func TestWaitForInterrupt(t *testing.T) {
	c, b := newTestCPU(t, 0xCB, 0xEA) // WAI; NOP
	c.Step()
	if !c.halted {
		t.Fatal("WAI should halt")
	}
	before := b.cycles
	c.Step()
	if !c.halted || b.cycles == before {
		t.Fatal("halted steps still burn cycles")
	}
	// An IRQ with I set resumes execution without vectoring.
	c.p |= flagI
	c.Raise(interrupts.IRQ)
	c.Step()
	if c.halted {
		t.Fatal("interrupt should wake WAI")
	}
}

func TestStopHaltsUntilReset(t *testing.T) {
	c, _ := newTestCPU(t, 0xDB)
	c.Step()
	if !c.stopped {
		t.Fatal("STP should stop the clock")
	}
	c.Raise(interrupts.IRQ)
	c.Step()
	if !c.stopped {
		t.Fatal("IRQ must not wake STP")
	}
	c.Raise(interrupts.Reset)
	c.Step()
	if c.stopped {
		t.Fatal("reset revives a stopped CPU")
	}
	if c.pc != 0x8000 {
		t.Fatalf("pc = %04X, want reset target", c.pc)
	}
}

func TestDirectPagePenalty(t *testing.T) {
	// LDA $10 with an unaligned direct page costs one extra internal op.
	c1, b1 := newTestCPU(t, 0xA5, 0x10)
	c1.e = false
	c1.Step()
	aligned := b1.cycles

	c2, b2 := newTestCPU(t, 0xA5, 0x10)
	c2.e = false
	c2.dp = 0x0001
	c2.Step()
	if b2.cycles != aligned+6 {
		t.Fatalf("unaligned dp cost %d, want %d", b2.cycles, aligned+6)
	}
}

func TestLDAPreservesBRegister(t *testing.T) {
	c, _ := newTestCPU(t, 0xA9, 0x42) // LDA #$42, 8-bit
	c.e = false
	c.a = 0x1F00
	c.Step()
	if c.a != 0x1F42 {
		t.Fatalf("a = %04X, B register must survive 8-bit loads", c.a)
	}
}

func TestIndexWidthTruncation(t *testing.T) {
	c, _ := newTestCPU(t, 0xA2, 0x34, 0x12, 0xE2, 0x10) // LDX #$1234; SEP #$10
	nativeMode16(c)
	c.Step()
	if c.x != 0x1234 {
		t.Fatalf("x = %04X", c.x)
	}
	c.Step()
	if c.x != 0x34 {
		t.Fatalf("x = %04X after setting the X flag, want 0034", c.x)
	}
}
