// Package ui is the ebiten front end: window, keyboard input, and audio
// playback. The emulator core never imports anything from here.
package ui

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/ppu"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/snes"
)

// Config selects the window parameters.
type Config struct {
	Title string
	Scale int
}

// keyBindings maps host keys to pad 0 buttons.
var keyBindings = map[ebiten.Key]snes.Button{
	ebiten.KeyX:          snes.ButtonA,
	ebiten.KeyZ:          snes.ButtonB,
	ebiten.KeyS:          snes.ButtonX,
	ebiten.KeyA:          snes.ButtonY,
	ebiten.KeyQ:          snes.ButtonL,
	ebiten.KeyW:          snes.ButtonR,
	ebiten.KeyEnter:      snes.ButtonStart,
	ebiten.KeyShiftRight: snes.ButtonSelect,
	ebiten.KeyArrowUp:    snes.ButtonUp,
	ebiten.KeyArrowDown:  snes.ButtonDown,
	ebiten.KeyArrowLeft:  snes.ButtonLeft,
	ebiten.KeyArrowRight: snes.ButtonRight,
}

// App runs the machine inside an ebiten game loop.
type App struct {
	cfg     Config
	machine *snes.SNES

	fb    []byte
	frame *ebiten.Image

	audio *audioPlayer
}

// NewApp wires the frontend around a constructed machine.
func NewApp(cfg Config, machine *snes.SNES) *App {
	if cfg.Scale <= 0 {
		cfg.Scale = 2
	}
	return &App{
		cfg:     cfg,
		machine: machine,
		fb:      make([]byte, snes.FrameBufferSize),
		frame:   ebiten.NewImage(ppu.FrameWidth, ppu.FrameHeight),
	}
}

// Run opens the window and blocks until it closes.
func (a *App) Run() error {
	ebiten.SetWindowSize(ppu.FrameWidth/2*a.cfg.Scale, ppu.FrameHeight*a.cfg.Scale)
	ebiten.SetWindowTitle(a.cfg.Title)
	a.audio = newAudioPlayer(a.machine)
	return ebiten.RunGame(a)
}

// Update polls input and advances the machine by one frame.
func (a *App) Update() error {
	for key, button := range keyBindings {
		a.machine.SetButton(button, ebiten.IsKeyPressed(key), 0)
	}
	if err := a.machine.Frame(a.fb); err != nil {
		return err
	}
	a.frame.WritePixels(a.fb)
	return nil
}

// Draw stretches the 512x224 buffer onto the window; the double-width
// buffer maps back to square pixels via the half-width window size.
func (a *App) Draw(screen *ebiten.Image) {
	var op ebiten.DrawImageOptions
	sw := screen.Bounds().Dx()
	sh := screen.Bounds().Dy()
	op.GeoM.Scale(float64(sw)/float64(ppu.FrameWidth), float64(sh)/float64(ppu.FrameHeight))
	screen.DrawImage(a.frame, &op)
}

// Layout keeps the internal resolution fixed.
func (a *App) Layout(int, int) (int, int) {
	return ppu.FrameWidth, ppu.FrameHeight
}
