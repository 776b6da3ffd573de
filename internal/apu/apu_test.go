package apu

import "testing"

func TestBRRBlockDecodesSixteenSamples(t *testing.T) {
	ram := make([]byte, 0x10000)
	// Header: shift 4, filter 0, end+loop clear. Data: nibbles 1,2 repeated.
	ram[0] = 0x40
	for i := 1; i < 9; i++ {
		ram[i] = 0x12
	}
	var d brrDecoder
	d.decodeBlock(ram)

	for i := 0; i < brrBlockSamples; i += 2 {
		if d.block[i] != 1<<4 {
			t.Fatalf("sample %d = %d, want %d", i, d.block[i], 1<<4)
		}
		if d.block[i+1] != 2<<4 {
			t.Fatalf("sample %d = %d, want %d", i+1, d.block[i+1], 2<<4)
		}
	}
	if d.addr != 9 {
		t.Fatalf("decoder advanced to %d, want 9", d.addr)
	}
}

func TestBRRCarriesHistoryAcrossBlocks(t *testing.T) {
	ram := make([]byte, 0x10000)
	ram[0] = 0x40 // shift 4, filter 0
	for i := 1; i < 9; i++ {
		ram[i] = 0x11
	}
	// Second block: filter 1 adds prev * 15/16.
	ram[9] = 0x44
	var d brrDecoder
	d.decodeBlock(ram)
	prev := d.prev1
	d.decodeBlock(ram)
	// Filter 1 with zero nibbles decays the carried-over sample.
	want := prev + (-prev >> 4)
	if int32(d.block[0]) != want {
		t.Fatalf("filtered sample = %d, want %d", d.block[0], want)
	}
}

func TestBRRNegativeNibbleSignExtends(t *testing.T) {
	ram := make([]byte, 0x10000)
	ram[0] = 0x00 // shift 0
	ram[1] = 0xF0 // nibble 0xF = -1
	var d brrDecoder
	d.decodeBlock(ram)
	if d.block[0] != -1 {
		t.Fatalf("sample = %d, want -1", d.block[0])
	}
}

func TestBRRClamping(t *testing.T) {
	// Filter 1 from a large previous value must clamp to signed 15 bits.
	var d brrDecoder
	d.prev1 = 0x3FFF
	s := d.decodeSample(brrHeader(0xC4), 0x7) // shift 12, filter 1
	if s > 0x3FFF || s < -0x4000 {
		t.Fatalf("sample %d escaped the 15-bit clamp", s)
	}
}

func TestTimerDividesAndWraps(t *testing.T) {
	tm := newTimer(16)
	tm.writeModulo(4)
	tm.clock(16 * 4) // exactly 4 ticks = one counter increment
	if got := tm.readCounter(); got != 1 {
		t.Fatalf("counter = %d, want 1", got)
	}
	// Reads clear the counter.
	if got := tm.readCounter(); got != 0 {
		t.Fatalf("counter after read = %d, want 0", got)
	}
}

func TestTimerCounterIsFourBits(t *testing.T) {
	tm := newTimer(16)
	tm.writeModulo(1)
	tm.clock(16 * 20)
	if got := tm.readCounter(); got != 20&0xF {
		t.Fatalf("counter = %d, want %d", got, 20&0xF)
	}
}

func TestMailboxBothDirections(t *testing.T) {
	a := New()
	a.WritePort(2, 0x5A)
	if got := a.bus.read(0xF6); got != 0x5A {
		t.Fatalf("audio side read = %02X, want 5A", got)
	}
	a.bus.write(0xF7, 0xA5)
	if got := a.ReadPort(3); got != 0xA5 {
		t.Fatalf("cpu side read = %02X, want A5", got)
	}
}

func TestControlClearsPortPairs(t *testing.T) {
	a := New()
	a.WritePort(0, 1)
	a.WritePort(1, 2)
	a.WritePort(2, 3)
	a.bus.write(0xF1, ctrlClearP10|ctrlROMEnable)
	if a.bus.read(0xF4) != 0 || a.bus.read(0xF5) != 0 {
		t.Fatal("ports 0/1 should clear")
	}
	if a.bus.read(0xF6) != 3 {
		t.Fatal("ports 2/3 should survive")
	}
}

func TestBootROMOverlayToggle(t *testing.T) {
	a := New()
	if got := a.bus.read(0xFFC0); got != iplROM[0] {
		t.Fatalf("boot ROM not mapped: %02X", got)
	}
	a.bus.ram[0xFFC0] = 0x42
	a.bus.write(0xF1, 0) // unmap
	if got := a.bus.read(0xFFC0); got != 0x42 {
		t.Fatalf("RAM should show through after unmap: %02X", got)
	}
}

func TestBootProgramWritesSignature(t *testing.T) {
	// The boot program announces itself with AA/BB on ports 0/1.
	a := New()
	// The boot program clears the zero page first; give it plenty of time.
	a.Clock(500000)
	if a.ReadPort(0) != 0xAA || a.ReadPort(1) != 0xBB {
		t.Fatalf("boot signature = %02X %02X, want AA BB",
			a.ReadPort(0), a.ReadPort(1))
	}
}

func TestSPCArithmetic(t *testing.T) {
	a := New()
	s := a.spc
	s.pc = 0x200
	s.a = 0x10
	copy(a.bus.ram[0x200:], []byte{0x88, 0x22}) // ADC A,#$22
	s.step()
	if s.a != 0x32 {
		t.Fatalf("A = %02X, want 32", s.a)
	}
	if s.flag(spcC) || s.flag(spcZ) || s.flag(spcN) {
		t.Fatal("flags should all clear")
	}
}

func TestSPCMulDiv(t *testing.T) {
	a := New()
	s := a.spc
	s.pc = 0x200
	s.y, s.a = 7, 6
	a.bus.ram[0x200] = 0xCF // MUL YA
	s.step()
	if s.ya() != 42 {
		t.Fatalf("YA = %d, want 42", s.ya())
	}

	s.pc = 0x201
	s.y, s.a = 0x01, 0x2C // YA = 300
	s.x = 7
	a.bus.ram[0x201] = 0x9E // DIV YA,X
	s.step()
	if s.a != 42 || s.y != 6 {
		t.Fatalf("div: A=%d Y=%d, want 42 r6", s.a, s.y)
	}
}

func TestSPCBranchTakenCostsMore(t *testing.T) {
	a := New()
	s := a.spc
	s.pc = 0x200
	copy(a.bus.ram[0x200:], []byte{0x2F, 0x10}) // BRA +0x10
	cycles := s.step()
	if s.pc != 0x212 {
		t.Fatalf("pc = %04X, want 0212", s.pc)
	}
	if cycles != spcCycles[0x2F]+2 {
		t.Fatalf("cycles = %d, want %d", cycles, spcCycles[0x2F]+2)
	}
}

func TestSPCBitSetClear(t *testing.T) {
	a := New()
	s := a.spc
	s.pc = 0x200
	copy(a.bus.ram[0x200:], []byte{0x42, 0x10}) // SET1 $10.2
	s.step()
	if a.bus.ram[0x10] != 0x04 {
		t.Fatalf("ram[0x10] = %02X, want 04", a.bus.ram[0x10])
	}
	copy(a.bus.ram[0x202:], []byte{0x52, 0x10}) // CLR1 $10.2
	s.step()
	if a.bus.ram[0x10] != 0x00 {
		t.Fatalf("ram[0x10] = %02X, want 00", a.bus.ram[0x10])
	}
}

func TestEnvelopeAttackReachesMax(t *testing.T) {
	// Fastest attack (rate 15) steps immediately to full level.
	e := newEnvelope(0x8F, 0)
	var level int
	for i := 0; i < 4096; i++ {
		level = e.next()
		if level == envMax {
			break
		}
	}
	if level != envMax {
		t.Fatalf("attack never reached max, level %d", level)
	}
	if e.phase != envDecay {
		t.Fatal("envelope should move to decay at max")
	}
}

func TestEnvelopeKeyOffFades(t *testing.T) {
	e := newEnvelope(0, 0x7F) // direct gain, full-ish level
	start := e.next()
	e.keyOff()
	for i := 0; i < 1024; i++ {
		if e.next() < 0 {
			return
		}
	}
	t.Fatalf("release never finished from level %d", start)
}

func TestDSPVoiceRegisterRoundTrip(t *testing.T) {
	a := New()
	a.bus.write(0xF2, 0x32) // voice 3, pitch low
	a.bus.write(0xF3, 0x77)
	a.bus.write(0xF2, 0x32)
	if got := a.bus.read(0xF3); got != 0x77 {
		t.Fatalf("dsp readback = %02X, want 77", got)
	}
}

func TestDSPProducesSamples(t *testing.T) {
	a := New()
	// One looping BRR block at 0x1000, directory at 0x0200.
	ram := a.bus.ram[:]
	ram[0x1000] = 0x43 // shift 4, loop+end
	for i := 1; i < 9; i++ {
		ram[0x1000+i] = 0x70
	}
	ram[0x200] = 0x00
	ram[0x201] = 0x10 // start 0x1000
	ram[0x202] = 0x00
	ram[0x203] = 0x10 // loop 0x1000

	d := a.bus.dsp
	d.write(0x6C, 0x00, ram)       // clear reset/mute
	d.write(0x5D, 0x02, ram)       // directory page 2
	d.write(0x00, 0x7F, ram)       // voice 0 left vol
	d.write(0x01, 0x7F, ram)       // right vol
	d.write(0x02, 0x00, ram)       // pitch = 0x1000 (1:1)
	d.write(0x03, 0x10, ram)
	d.write(0x07, 0x7F, ram)       // direct gain, max
	d.write(0x0C, 0x7F, ram)       // main vol L
	d.write(0x1C, 0x7F, ram)       // main vol R
	d.write(0x4C, 0x01, ram)       // key on voice 0

	got := 0
	var nonZero bool
	a.bus.dsp.out = func(l, r float32) {
		got++
		if l != 0 || r != 0 {
			nonZero = true
		}
	}
	d.clock(cyclesPerSample*64, ram)
	if got != 64 {
		t.Fatalf("emitted %d samples, want 64", got)
	}
	if !nonZero {
		t.Fatal("expected audible output from the keyed-on voice")
	}
}

func TestClockDomainRatio(t *testing.T) {
	a := New()
	// One frame's worth of master cycles is about 16.6 ms, which at 32 kHz
	// should produce on the order of 530 samples.
	a.Clock(357366)
	n := a.buffered()
	if n < 500 || n > 570 {
		t.Fatalf("buffered %d frames after one video frame, want ~532", n)
	}
}
