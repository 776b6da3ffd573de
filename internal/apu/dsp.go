package apu

import "github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/bits"

// The DSP produces one stereo sample every 32 audio cycles (32 kHz).
const cyclesPerSample = 32

// FLG register bits.
const (
	flgReset     byte = 1 << 7
	flgMute      byte = 1 << 6
	flgEchoWrite byte = 1 << 5 // set disables echo buffer writes
)

// dsp is the digital sound processor: eight voices, noise generator, echo
// path, and the mixer. Registers are accessed through the two-byte
// address/data ports on the audio bus.
type dsp struct {
	voices [8]voice

	mainVolL, mainVolR byte
	echoVolL, echoVolR byte
	flags              byte
	endx               byte

	echoFeedback byte
	dirBase      byte // sample directory page
	echoBase     byte
	echoDelay    byte

	keyOn  byte
	keyOff byte

	noise        uint16
	noiseCounter int

	// Echo state
	echoPos     int
	firHistoryL [8]int32
	firHistoryR [8]int32
	firPos      int

	sampleCounter int

	// out receives one stereo pair per DSP sample tick.
	out func(l, r float32)
}

func newDSP(out func(l, r float32)) *dsp {
	return &dsp{
		noise: 0x4000,
		flags: flgReset | flgMute | flgEchoWrite,
		out:   out,
	}
}

func (d *dsp) read(addr byte) byte {
	addr &= 0x7F
	v := int(addr >> 4)
	switch addr & 0xF {
	case 0xC:
		switch v {
		case 0:
			return d.mainVolL
		case 1:
			return d.mainVolR
		case 2:
			return d.echoVolL
		case 3:
			return d.echoVolR
		case 4:
			return d.keyOn
		case 5:
			return d.keyOff
		case 6:
			return d.flags
		case 7:
			return d.endx
		}
	case 0xD:
		switch v {
		case 0:
			return d.echoFeedback
		case 2:
			return d.pmon()
		case 3:
			return d.non()
		case 4:
			return d.eon()
		case 5:
			return d.dirBase
		case 6:
			return d.echoBase
		case 7:
			return d.echoDelay
		}
	default:
		return d.voices[v].read(addr)
	}
	return 0
}

func (d *dsp) write(addr byte, data byte, ram []byte) {
	if addr >= 0x80 {
		return // the upper half of the address space is read-only mirrors
	}
	v := int(addr >> 4)
	switch addr & 0xF {
	case 0xC:
		switch v {
		case 0:
			d.mainVolL = data
		case 1:
			d.mainVolR = data
		case 2:
			d.echoVolL = data
		case 3:
			d.echoVolR = data
		case 4:
			d.keyOn = data
			d.applyKeyOn(ram)
		case 5:
			d.keyOff = data
			d.applyKeyOff()
		case 6:
			d.flags = data
		case 7:
			// Any write clears the end flags.
			d.endx = 0
		}
	case 0xD:
		switch v {
		case 0:
			d.echoFeedback = data
		case 2:
			d.setPmon(data)
		case 3:
			d.setNon(data)
		case 4:
			d.setEon(data)
		case 5:
			d.dirBase = data
		case 6:
			d.echoBase = data
		case 7:
			d.echoDelay = data & 0xF
		}
	default:
		d.voices[v].write(addr, data)
	}
}

func (d *dsp) pmon() byte {
	var v byte
	for i := 1; i < 8; i++ {
		if d.voices[i].pitchMod {
			v |= 1 << i
		}
	}
	return v
}

func (d *dsp) setPmon(data byte) {
	for i := 1; i < 8; i++ {
		d.voices[i].pitchMod = bits.Test(data, uint(i))
	}
}

func (d *dsp) non() byte {
	var v byte
	for i := range d.voices {
		if d.voices[i].noise {
			v |= 1 << i
		}
	}
	return v
}

func (d *dsp) setNon(data byte) {
	for i := range d.voices {
		d.voices[i].noise = bits.Test(data, uint(i))
	}
}

func (d *dsp) eon() byte {
	var v byte
	for i := range d.voices {
		if d.voices[i].echo {
			v |= 1 << i
		}
	}
	return v
}

func (d *dsp) setEon(data byte) {
	for i := range d.voices {
		d.voices[i].echo = bits.Test(data, uint(i))
	}
}

func (d *dsp) applyKeyOn(ram []byte) {
	dir := uint16(d.dirBase) * 0x100
	for i := range d.voices {
		if bits.Test(d.keyOn, uint(i)) {
			d.voices[i].keyOn(ram, dir)
			d.endx &^= 1 << i
		}
	}
}

func (d *dsp) applyKeyOff() {
	for i := range d.voices {
		if bits.Test(d.keyOff, uint(i)) {
			d.voices[i].keyOff()
		}
	}
}

// clock advances the DSP by audio cycles, emitting samples on the 32 kHz
// cadence.
func (d *dsp) clock(cycles int, ram []byte) {
	d.sampleCounter += cycles
	for d.sampleCounter >= cyclesPerSample {
		d.sampleCounter -= cyclesPerSample
		d.generateSample(ram)
	}
}

func (d *dsp) generateSample(ram []byte) {
	noiseSample := int32(int16(d.noise<<1)) >> 1
	d.stepNoise()

	var sumL, sumR int32
	var echoL, echoR int32
	var prevOut int32
	for i := range d.voices {
		v := &d.voices[i]
		out, alive := v.sample(ram, noiseSample, prevOut)
		if v.justEnded {
			d.endx |= 1 << i
			v.justEnded = false
		}
		if !alive {
			prevOut = 0
			continue
		}
		prevOut = out
		l, r := v.volumes()
		sumL += (out * l) >> 7
		sumR += (out * r) >> 7
		if v.echo {
			echoL += (out * l) >> 7
			echoR += (out * r) >> 7
		}
	}

	if d.flags&flgMute != 0 || d.flags&flgReset != 0 {
		d.out(0, 0)
		return
	}

	eL, eR := d.stepEcho(ram, echoL, echoR)

	mainL := (sumL * int32(int8(d.mainVolL))) >> 7
	mainR := (sumR * int32(int8(d.mainVolR))) >> 7
	mainL += (eL * int32(int8(d.echoVolL))) >> 7
	mainR += (eR * int32(int8(d.echoVolR))) >> 7

	l := bits.Clamp16(mainL)
	r := bits.Clamp16(mainR)
	d.out(float32(l)/32768, float32(r)/32768)
}

// stepNoise clocks the 15-bit LFSR at the rate in the FLG low bits.
func (d *dsp) stepNoise() {
	period := envRatePeriods[d.flags&0x1F]
	if period == 0 {
		return
	}
	d.noiseCounter++
	if d.noiseCounter < period {
		return
	}
	d.noiseCounter = 0
	feedback := (d.noise ^ (d.noise >> 1)) & 1
	d.noise = (d.noise >> 1) | (feedback << 14)
}

// stepEcho runs the 8-tap FIR over the echo buffer and writes the new input
// back with feedback. The FIR coefficients are the per-voice 0xxF registers.
func (d *dsp) stepEcho(ram []byte, inL, inR int32) (int32, int32) {
	bufStart := int(d.echoBase) * 0x100
	bufLen := int(d.echoDelay) * 2048
	if bufLen == 0 {
		bufLen = 4
	}

	pos := bufStart + d.echoPos
	readSample := func(off int) int32 {
		idx := (pos + off) & 0xFFFF
		return int32(int16(uint16(ram[idx]) | uint16(ram[(idx+1)&0xFFFF])<<8))
	}

	d.firHistoryL[d.firPos] = readSample(0) >> 1
	d.firHistoryR[d.firPos] = readSample(2) >> 1

	var firL, firR int32
	for tap := 0; tap < 8; tap++ {
		coef := int32(int8(d.voices[tap].firCoef))
		idx := (d.firPos + tap + 1) & 7
		firL += (d.firHistoryL[idx] * coef) >> 6
		firR += (d.firHistoryR[idx] * coef) >> 6
	}
	d.firPos = (d.firPos + 7) & 7

	if d.flags&flgEchoWrite == 0 {
		writeL := bits.Clamp16(inL + (firL*int32(int8(d.echoFeedback)))>>7)
		writeR := bits.Clamp16(inR + (firR*int32(int8(d.echoFeedback)))>>7)
		idx := (bufStart + d.echoPos) & 0xFFFF
		ram[idx] = byte(writeL)
		ram[(idx+1)&0xFFFF] = byte(writeL >> 8)
		ram[(idx+2)&0xFFFF] = byte(writeR)
		ram[(idx+3)&0xFFFF] = byte(writeR >> 8)
	}

	d.echoPos += 4
	if d.echoPos >= bufLen {
		d.echoPos = 0
	}
	return firL, firR
}
