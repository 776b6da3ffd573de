// Package snes is the top-level machine: it builds the device graph around a
// loaded cartridge and runs it one frame at a time.
package snes

import (
	"fmt"
	"os"

	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/cart"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/joypad"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/ppu"
)

// FrameBufferSize is the byte length the caller must pass to Frame.
const FrameBufferSize = ppu.FrameBufferSize

// Button identifies one controller input.
type Button int

const (
	ButtonA Button = iota
	ButtonB
	ButtonX
	ButtonY
	ButtonL
	ButtonR
	ButtonStart
	ButtonSelect
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

var buttonMap = map[Button]joypad.Button{
	ButtonA:      joypad.A,
	ButtonB:      joypad.B,
	ButtonX:      joypad.X,
	ButtonY:      joypad.Y,
	ButtonL:      joypad.L,
	ButtonR:      joypad.R,
	ButtonStart:  joypad.Start,
	ButtonSelect: joypad.Select,
	ButtonUp:     joypad.Up,
	ButtonDown:   joypad.Down,
	ButtonLeft:   joypad.Left,
	ButtonRight:  joypad.Right,
}

// SNES owns the whole machine. The CPU sits at the top and owns the bus,
// which owns everything else.
type SNES struct {
	cpu *cpu.CPU
	bus *bus.Bus
}

// New constructs a machine around the cartridge at cartPath. Save RAM is
// persisted at savePath; coprocPath supplies the DSP program for cartridges
// that declare one.
func New(cartPath, savePath, coprocPath string) (*SNES, error) {
	rom, err := os.ReadFile(cartPath)
	if err != nil {
		return nil, fmt.Errorf("snes: reading cartridge: %w", err)
	}
	var coprocROM []byte
	if coprocPath != "" {
		coprocROM, err = os.ReadFile(coprocPath)
		if err != nil {
			return nil, fmt.Errorf("snes: reading coprocessor ROM: %w", err)
		}
	}
	return NewFromROM(rom, savePath, coprocROM)
}

// NewFromROM builds a machine from in-memory cartridge bytes.
func NewFromROM(rom []byte, savePath string, coprocROM []byte) (*SNES, error) {
	c, err := cart.New(rom, savePath, coprocROM)
	if err != nil {
		return nil, err
	}
	b := bus.New(c)
	return &SNES{cpu: cpu.New(b), bus: b}, nil
}

// Frame runs the machine until the next vertical blank, producing one
// 512x224 RGBA image. Call at 60 fps.
func (s *SNES) Frame(fb []byte) error {
	if len(fb) < FrameBufferSize {
		return fmt.Errorf("snes: frame buffer is %d bytes, need %d", len(fb), FrameBufferSize)
	}
	s.bus.StartFrame(fb)
	for !s.cpu.Step() {
	}
	return nil
}

// SetButton records a press or release on the given joypad.
func (s *SNES) SetButton(b Button, pressed bool, pad int) {
	if jb, ok := buttonMap[b]; ok {
		s.bus.SetButton(jb, pressed, pad)
	}
}

// EnableAudio returns a handle delivering stereo float samples at the
// host's rate.
func (s *SNES) EnableAudio(hostSampleRate int) *AudioHandle {
	return &AudioHandle{handle: s.bus.APU().EnableAudio(hostSampleRate)}
}

// AudioBuffered reports the mixed frames waiting, for frontend pacing.
func (s *SNES) AudioBuffered() int {
	return s.bus.APU().Buffered()
}

// ROMName returns the cartridge title from its header.
func (s *SNES) ROMName() string {
	return s.bus.Cart().Name()
}
