package ppu

import "github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/bits"

// Layer indices used throughout the compositor.
const (
	layerBG1 = iota
	layerBG2
	layerBG3
	layerBG4
	layerOBJ
	layerCol // colour-math mask
	numLayers
)

// Window combination operators.
const (
	maskOR = iota
	maskAND
	maskXOR
	maskXNOR
)

// windowRegisters holds the two windows, per-layer mask settings, screen
// designation, and the colour math configuration ($2123-$2132).
type windowRegisters struct {
	// Per layer: window 1/2 enable and invert bits.
	w1Enable [numLayers]bool
	w1Invert [numLayers]bool
	w2Enable [numLayers]bool
	w2Invert [numLayers]bool

	w1Left, w1Right byte
	w2Left, w2Right byte

	maskLogic [numLayers]int

	mainDesignation byte // $212C: layer enables on the main screen
	subDesignation  byte // $212D
	mainWindowMask  byte // $212E: layers masked by the window on main
	subWindowMask   byte // $212F

	colourAddSelect byte // $2130
	colourMathDesg  byte // $2131
	fixedColour     uint16

	directColour bool
}

// setMaskPair decodes a $2123/$2124-style register covering two layers.
func (w *windowRegisters) setMaskPair(loLayer int, data byte) {
	w.w1Invert[loLayer] = bits.Test(data, 0)
	w.w1Enable[loLayer] = bits.Test(data, 1)
	w.w2Invert[loLayer] = bits.Test(data, 2)
	w.w2Enable[loLayer] = bits.Test(data, 3)
	w.w1Invert[loLayer+1] = bits.Test(data, 4)
	w.w1Enable[loLayer+1] = bits.Test(data, 5)
	w.w2Invert[loLayer+1] = bits.Test(data, 6)
	w.w2Enable[loLayer+1] = bits.Test(data, 7)
}

// setMaskObjCol decodes $2125 (object and colour windows).
func (w *windowRegisters) setMaskObjCol(data byte) {
	w.w1Invert[layerOBJ] = bits.Test(data, 0)
	w.w1Enable[layerOBJ] = bits.Test(data, 1)
	w.w2Invert[layerOBJ] = bits.Test(data, 2)
	w.w2Enable[layerOBJ] = bits.Test(data, 3)
	w.w1Invert[layerCol] = bits.Test(data, 4)
	w.w1Enable[layerCol] = bits.Test(data, 5)
	w.w2Invert[layerCol] = bits.Test(data, 6)
	w.w2Enable[layerCol] = bits.Test(data, 7)
}

// setMaskLogicBG decodes $212A (two bits per background).
func (w *windowRegisters) setMaskLogicBG(data byte) {
	for bg := 0; bg < 4; bg++ {
		w.maskLogic[bg] = int((data >> (bg * 2)) & 3)
	}
}

// setMaskLogicObjCol decodes $212B.
func (w *windowRegisters) setMaskLogicObjCol(data byte) {
	w.maskLogic[layerOBJ] = int(data & 3)
	w.maskLogic[layerCol] = int((data >> 2) & 3)
}

// setFixedColour decodes a $2132 write: bits 5-7 select the channels, the
// low five bits give the intensity.
func (w *windowRegisters) setFixedColour(data byte) {
	intensity := uint16(data & 0x1F)
	if bits.Test(data, 5) { // red
		w.fixedColour = (w.fixedColour &^ 0x001F) | intensity
	}
	if bits.Test(data, 6) { // green
		w.fixedColour = (w.fixedColour &^ 0x03E0) | intensity<<5
	}
	if bits.Test(data, 7) { // blue
		w.fixedColour = (w.fixedColour &^ 0x7C00) | intensity<<10
	}
}

func (w *windowRegisters) setColourAddSelect(data byte) {
	w.colourAddSelect = data
	w.directColour = bits.Test(data, 0)
}

// inWindow1 reports window 1 membership for an x coordinate, after invert.
func (w *windowRegisters) inWindow1(layer int, x byte) bool {
	in := x >= w.w1Left && x <= w.w1Right
	if w.w1Invert[layer] {
		return !in
	}
	return in
}

func (w *windowRegisters) inWindow2(layer int, x byte) bool {
	in := x >= w.w2Left && x <= w.w2Right
	if w.w2Invert[layer] {
		return !in
	}
	return in
}

// insideMask evaluates the combined window membership for a layer. With
// neither window enabled the mask never hits.
func (w *windowRegisters) insideMask(layer int, x byte) bool {
	e1, e2 := w.w1Enable[layer], w.w2Enable[layer]
	switch {
	case !e1 && !e2:
		return false
	case e1 && !e2:
		return w.inWindow1(layer, x)
	case !e1 && e2:
		return w.inWindow2(layer, x)
	}
	in1, in2 := w.inWindow1(layer, x), w.inWindow2(layer, x)
	switch w.maskLogic[layer] {
	case maskOR:
		return in1 || in2
	case maskAND:
		return in1 && in2
	case maskXOR:
		return in1 != in2
	default:
		return in1 == in2
	}
}

// layerVisible applies screen designation and window masking for a layer on
// the main or sub screen.
func (w *windowRegisters) layerVisible(layer int, x byte, sub bool) bool {
	desg, mask := w.mainDesignation, w.mainWindowMask
	if sub {
		desg, mask = w.subDesignation, w.subWindowMask
	}
	if !bits.Test(desg, uint(layer)) {
		return false
	}
	if bits.Test(mask, uint(layer)) && w.insideMask(layer, x) {
		return false
	}
	return true
}

// Colour math designation bits ($2131).
func (w *windowRegisters) mathSubtract() bool { return bits.Test(w.colourMathDesg, 7) }
func (w *windowRegisters) mathHalf() bool     { return bits.Test(w.colourMathDesg, 6) }

// mathEnabledFor reports whether colour math applies to a layer (backdrop is
// bit 5).
func (w *windowRegisters) mathEnabledFor(layer int) bool {
	if layer < 0 {
		return bits.Test(w.colourMathDesg, 5)
	}
	if layer > layerOBJ {
		return false
	}
	return bits.Test(w.colourMathDesg, uint(layer))
}

// subScreenEnabled reports $2130 bit 1: combine with the sub screen rather
// than the fixed colour.
func (w *windowRegisters) subScreenEnabled() bool { return bits.Test(w.colourAddSelect, 1) }

// mathAllowedAt applies the $2130 colour window gates (bits 4-5: main black,
// bits 6-7: math enable region).
func (w *windowRegisters) mathAllowedAt(x byte) bool {
	region := (w.colourAddSelect >> 4) & 3
	inside := w.insideMask(layerCol, x)
	switch region {
	case 0:
		return true
	case 1:
		return inside
	case 2:
		return !inside
	default:
		return false
	}
}
