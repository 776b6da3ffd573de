// Package apu implements the audio subsystem: the 8-bit audio CPU, its bus
// with the boot ROM and timers, the eight-voice DSP, and the four-byte
// mailbox bridging to the main CPU. The whole subsystem runs on its own
// clock domain, advanced deterministically from master cycles.
package apu

// The audio CPU runs at 1.024 MHz against the 21.477 MHz master clock; the
// ratio is applied through an integer fractional accumulator.
const (
	audioClockNum = 1024000
	masterClockHz = 21477270
)

// The DSP mixes at 32 kHz internally.
const nativeSampleRate = 32000

// Output ring buffer size in stereo frames (~1/4 second).
const ringFrames = 8192

// APU is the audio subsystem as seen from the main bus.
type APU struct {
	bus *spcBus
	spc *spc

	// Fractional audio cycles owed, scaled by masterClockHz.
	cycleDebt int64

	// Stereo ring buffer of mixed 32 kHz samples.
	ring     [ringFrames * 2]float32
	ringHead int
	ringTail int
}

// New builds the audio subsystem in its power-on state, with the boot ROM
// mapped and the audio CPU at the reset vector.
func New() *APU {
	a := &APU{}
	a.bus = newSPCBus(a.pushSample)
	a.spc = newSPC(a.bus)
	return a
}

// ReadPort reads one of the four mailbox bytes from the main CPU side.
func (a *APU) ReadPort(n int) byte {
	return a.bus.portsOut[n&3]
}

// WritePort writes one of the four mailbox bytes from the main CPU side.
func (a *APU) WritePort(n int, data byte) {
	a.bus.portsIn[n&3] = data
}

// Clock advances the subsystem by master cycles. The audio CPU executes
// instructions while the converted cycle budget lasts; the bus clocks the
// timers and DSP in step.
func (a *APU) Clock(masterCycles int) {
	a.cycleDebt += int64(masterCycles) * audioClockNum
	for a.cycleDebt >= masterClockHz {
		spent := a.spc.step()
		a.bus.clock(spent)
		a.cycleDebt -= int64(spent) * masterClockHz
	}
}

func (a *APU) pushSample(l, r float32) {
	next := (a.ringHead + 2) % len(a.ring)
	if next == a.ringTail {
		return // full: drop the newest sample
	}
	a.ring[a.ringHead] = l
	a.ring[a.ringHead+1] = r
	a.ringHead = next
}

// buffered returns the number of stereo frames waiting in the ring.
func (a *APU) buffered() int {
	n := a.ringHead - a.ringTail
	if n < 0 {
		n += len(a.ring)
	}
	return n / 2
}

// pullFrame pops one stereo frame, repeating the last frame on underrun.
func (a *APU) pullFrame() (float32, float32) {
	if a.ringHead == a.ringTail {
		return 0, 0
	}
	l := a.ring[a.ringTail]
	r := a.ring[a.ringTail+1]
	a.ringTail = (a.ringTail + 2) % len(a.ring)
	return l, r
}

// Handle resamples the internal 32 kHz stream to the host's rate. Created
// once by EnableAudio; GetAudioPacket is called from the host audio
// callback.
type Handle struct {
	apu *APU

	hostRate int
	frac     float64
	lastL    float32
	lastR    float32
	curL     float32
	curR     float32
}

// EnableAudio returns a handle delivering samples at the requested rate.
func (a *APU) EnableAudio(hostSampleRate int) *Handle {
	if hostSampleRate <= 0 {
		hostSampleRate = nativeSampleRate
	}
	return &Handle{apu: a, hostRate: hostSampleRate}
}

// GetAudioPacket fills an interleaved stereo float32 buffer, linearly
// interpolating between native samples.
func (h *Handle) GetAudioPacket(out []float32) {
	step := float64(nativeSampleRate) / float64(h.hostRate)
	for i := 0; i+1 < len(out); i += 2 {
		h.frac += step
		for h.frac >= 1 {
			h.frac--
			h.lastL, h.lastR = h.curL, h.curR
			h.curL, h.curR = h.apu.pullFrame()
		}
		t := float32(h.frac)
		out[i] = h.lastL + (h.curL-h.lastL)*t
		out[i+1] = h.lastR + (h.curR-h.lastR)*t
	}
}

// Buffered exposes the backlog in stereo frames for the frontend's pacing.
func (a *APU) Buffered() int { return a.buffered() }
