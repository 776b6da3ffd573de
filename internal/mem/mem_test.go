package mem

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRAMReadWrite(t *testing.T) {
	r := NewRAM(0x20000)
	r.Write(0x1FFFF, 0xAB)
	if got := r.Read(0x1FFFF); got != 0xAB {
		t.Fatalf("read = %02X, want AB", got)
	}
	if r.Read(0) != 0 {
		t.Fatal("fresh RAM should be zeroed")
	}
}

func TestROMMirrors(t *testing.T) {
	data := make([]byte, 0x10000)
	data[0x8123] = 0x42
	rom := NewROM(data, 0x8000)
	if got := rom.Read(1, 0x0123); got != 0x42 {
		t.Fatalf("bank 1 read = %02X, want 42", got)
	}
	// Reads past the end mirror back to the start.
	if got := rom.Read(3, 0x0123); got != 0x42 {
		t.Fatalf("mirrored read = %02X, want 42", got)
	}
}

func TestSRAMFlushRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sav")
	s, err := NewSRAM(path, 0x2000)
	if err != nil {
		t.Fatal(err)
	}
	s.Write(0x10, 0x55)
	s.Flush()

	reloaded, err := NewSRAM(path, 0x2000)
	if err != nil {
		t.Fatal(err)
	}
	if got := reloaded.Read(0x10); got != 0x55 {
		t.Fatalf("reloaded read = %02X, want 55", got)
	}
}

func TestSRAMFlushSkipsClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clean.sav")
	s, _ := NewSRAM(path, 0x100)
	s.Flush()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("flush of untouched SRAM should not create a file")
	}
}

func TestSRAMZeroSize(t *testing.T) {
	s, _ := NewSRAM("", 0)
	s.Write(0, 0xFF)
	if s.Read(0) != 0 {
		t.Fatal("zero-size SRAM must read 0")
	}
}
