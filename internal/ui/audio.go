package ui

import (
	"encoding/binary"

	"github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/snes"
)

const hostSampleRate = 48000

// audioPlayer streams the machine's mixed output through ebiten's audio
// context.
type audioPlayer struct {
	handle *snes.AudioHandle
	player *audio.Player

	scratch []float32
}

// snesStream adapts the audio handle to the io.Reader ebiten expects:
// 16-bit little-endian stereo frames.
type snesStream struct {
	p *audioPlayer
}

func (s *snesStream) Read(out []byte) (int, error) {
	frames := len(out) / 4
	if frames == 0 {
		return 0, nil
	}
	if cap(s.p.scratch) < frames*2 {
		s.p.scratch = make([]float32, frames*2)
	}
	buf := s.p.scratch[:frames*2]
	s.p.handle.GetAudioPacket(buf)
	for i := 0; i < frames; i++ {
		l := int16(clampSample(buf[i*2]) * 32767)
		r := int16(clampSample(buf[i*2+1]) * 32767)
		binary.LittleEndian.PutUint16(out[i*4:], uint16(l))
		binary.LittleEndian.PutUint16(out[i*4+2:], uint16(r))
	}
	return frames * 4, nil
}

func clampSample(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func newAudioPlayer(machine *snes.SNES) *audioPlayer {
	ctx := audio.CurrentContext()
	if ctx == nil {
		ctx = audio.NewContext(hostSampleRate)
	}
	p := &audioPlayer{handle: machine.EnableAudio(hostSampleRate)}
	player, err := ctx.NewPlayer(&snesStream{p: p})
	if err != nil {
		return p
	}
	p.player = player
	player.Play()
	return p
}
