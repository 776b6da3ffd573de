package snes

import "github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/apu"

// AudioHandle is handed to the host audio callback.
type AudioHandle struct {
	handle *apu.Handle
}

// GetAudioPacket fills an interleaved stereo float32 buffer at the rate
// requested from EnableAudio.
func (h *AudioHandle) GetAudioPacket(out []float32) {
	h.handle.GetAudioPacket(out)
}
