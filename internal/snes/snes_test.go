package snes

import (
	"path/filepath"
	"testing"
)

// buildTestROM assembles a tiny LoROM image: enable joypad auto-read, then
// spin.
func buildTestROM() []byte {
	rom := make([]byte, 0x10000)
	copy(rom[0x7FC0:], []byte("FRAME LOOP           "))
	rom[0x7FC0+0x15] = 0x20 // LoROM, slow
	rom[0x7FC0+0x17] = 0x0A
	rom[0x7FC0+0x18] = 0x03 // 8 KiB save RAM

	program := []byte{
		0xA9, 0x01, // LDA #$01
		0x8D, 0x00, 0x42, // STA $4200
		0x4C, 0x05, 0x80, // JMP $8005
	}
	copy(rom, program)

	// Emulation reset vector -> $8000.
	rom[0x7FFC] = 0x00
	rom[0x7FFD] = 0x80
	return rom
}

func newTestMachine(t *testing.T) *SNES {
	t.Helper()
	s, err := NewFromROM(buildTestROM(), filepath.Join(t.TempDir(), "test.sav"), nil)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestROMName(t *testing.T) {
	s := newTestMachine(t)
	if got := s.ROMName(); got != "FRAME LOOP" {
		t.Fatalf("name = %q", got)
	}
}

func TestFrameCompletes(t *testing.T) {
	s := newTestMachine(t)
	fb := make([]byte, FrameBufferSize)
	for i := 0; i < 3; i++ {
		if err := s.Frame(fb); err != nil {
			t.Fatal(err)
		}
	}
	// Brightness powers on at zero, so visible lines are black with full
	// alpha.
	if fb[3] != 0xFF {
		t.Fatalf("alpha = %02X, want FF", fb[3])
	}
}

func TestFrameRejectsShortBuffer(t *testing.T) {
	s := newTestMachine(t)
	if err := s.Frame(make([]byte, 16)); err == nil {
		t.Fatal("short buffer must error")
	}
}

func TestSetButtonDoesNotDisturbFrames(t *testing.T) {
	s := newTestMachine(t)
	fb := make([]byte, FrameBufferSize)
	s.SetButton(ButtonA, true, 0)
	if err := s.Frame(fb); err != nil {
		t.Fatal(err)
	}
	s.SetButton(ButtonA, false, 0)
	if err := s.Frame(fb); err != nil {
		t.Fatal(err)
	}
}

func TestEnableAudioDeliversPackets(t *testing.T) {
	s := newTestMachine(t)
	h := s.EnableAudio(48000)
	fb := make([]byte, FrameBufferSize)
	if err := s.Frame(fb); err != nil {
		t.Fatal(err)
	}
	if s.AudioBuffered() == 0 {
		t.Fatal("a frame of emulation should queue audio samples")
	}
	out := make([]float32, 1024)
	h.GetAudioPacket(out)
}

func TestUnknownCartridgeFails(t *testing.T) {
	if _, err := NewFromROM(make([]byte, 0x10000), "", nil); err == nil {
		t.Fatal("garbage ROM must fail construction")
	}
}
