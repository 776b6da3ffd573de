package main

import (
	"flag"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"log"
	"os"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/ppu"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/snes"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/ui"
)

type cliFlags struct {
	ROMPath   string
	SavePath  string
	CoprocROM string
	Scale     int
	Title     string

	Headless bool
	Frames   int
	PNGOut   string
	Expect   string // expected framebuffer CRC32 hex
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.ROMPath, "rom", "", "path to ROM (.sfc/.smc)")
	flag.StringVar(&f.SavePath, "save", "", "save file path (default ROM path with .sav)")
	flag.StringVar(&f.CoprocROM, "dsprom", "", "coprocessor ROM for DSP cartridges")
	flag.IntVar(&f.Scale, "scale", 3, "window scale")
	flag.StringVar(&f.Title, "title", "snesemu", "window title")

	flag.BoolVar(&f.Headless, "headless", false, "run without a window")
	flag.IntVar(&f.Frames, "frames", 300, "frames to run in headless mode")
	flag.StringVar(&f.PNGOut, "outpng", "", "write last framebuffer to PNG at path")
	flag.StringVar(&f.Expect, "expect", "", "assert framebuffer CRC32 (hex)")
	flag.Parse()
	return f
}

func runHeadless(m *snes.SNES, frames int, pngPath, expectCRC string) error {
	if frames <= 0 {
		frames = 1
	}
	fb := make([]byte, snes.FrameBufferSize)

	start := time.Now()
	for i := 0; i < frames; i++ {
		if err := m.Frame(fb); err != nil {
			return err
		}
	}
	dur := time.Since(start)

	crc := crc32.ChecksumIEEE(fb)
	fps := float64(frames) / dur.Seconds()
	log.Printf("headless: frames=%d elapsed=%s fps=%.2f fb_crc32=%08x",
		frames, dur.Truncate(time.Millisecond), fps, crc)

	if pngPath != "" {
		if err := saveFramePNG(fb, pngPath); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.Printf("wrote %s", pngPath)
	}

	if expectCRC != "" {
		want := strings.TrimPrefix(strings.ToLower(expectCRC), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

func saveFramePNG(pix []byte, path string) error {
	img := &image.RGBA{
		Pix:    make([]byte, len(pix)),
		Stride: 4 * ppu.FrameWidth,
		Rect:   image.Rect(0, 0, ppu.FrameWidth, ppu.FrameHeight),
	}
	copy(img.Pix, pix)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func savePathFor(f cliFlags) string {
	if f.SavePath != "" {
		return f.SavePath
	}
	base := f.ROMPath
	for _, ext := range []string{".sfc", ".smc"} {
		if strings.HasSuffix(strings.ToLower(base), ext) {
			return base[:len(base)-len(ext)] + ".sav"
		}
	}
	return base + ".sav"
}

func main() {
	f := parseFlags()
	if f.ROMPath == "" {
		log.Fatal("no ROM given (use -rom)")
	}

	m, err := snes.New(f.ROMPath, savePathFor(f), f.CoprocROM)
	if err != nil {
		log.Fatalf("load cart: %v", err)
	}
	log.Printf("ROM: %q", m.ROMName())

	if f.Headless {
		if err := runHeadless(m, f.Frames, f.PNGOut, f.Expect); err != nil {
			log.Fatal(err)
		}
		return
	}

	app := ui.NewApp(ui.Config{Title: f.Title, Scale: f.Scale}, m)
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
