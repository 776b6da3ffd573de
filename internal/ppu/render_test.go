package ppu

import "testing"

func TestWindowTruthTable(t *testing.T) {
	var w windowRegisters
	w.w1Left, w.w1Right = 10, 20
	w.w2Left, w.w2Right = 15, 30
	w.w1Enable[layerBG1] = true
	w.w2Enable[layerBG1] = true

	cases := []struct {
		op   int
		x    byte
		want bool
	}{
		{maskOR, 12, true},   // in w1 only
		{maskOR, 25, true},   // in w2 only
		{maskOR, 40, false},  // in neither
		{maskAND, 12, false}, // w1 only
		{maskAND, 17, true},  // both
		{maskXOR, 17, false}, // both
		{maskXOR, 12, true},  // one
		{maskXNOR, 17, true},
		{maskXNOR, 12, false},
		{maskXNOR, 40, true},
	}
	for _, c := range cases {
		w.maskLogic[layerBG1] = c.op
		if got := w.insideMask(layerBG1, c.x); got != c.want {
			t.Errorf("op %d x %d: inside = %v, want %v", c.op, c.x, got, c.want)
		}
	}
}

func TestWindowInvertCommutes(t *testing.T) {
	var w windowRegisters
	w.w1Left, w.w1Right = 10, 20
	w.w2Left, w.w2Right = 15, 30
	w.w1Enable[layerOBJ] = true
	w.w2Enable[layerOBJ] = true
	w.maskLogic[layerOBJ] = maskXOR

	// XOR with one side inverted equals XNOR uninverted, pointwise.
	w.w1Invert[layerOBJ] = true
	for x := 0; x < 256; x++ {
		inverted := w.insideMask(layerOBJ, byte(x))
		w.w1Invert[layerOBJ] = false
		w.maskLogic[layerOBJ] = maskXNOR
		xnor := w.insideMask(layerOBJ, byte(x))
		w.w1Invert[layerOBJ] = true
		w.maskLogic[layerOBJ] = maskXOR
		if inverted != xnor {
			t.Fatalf("x=%d: inverted XOR %v != XNOR %v", x, inverted, xnor)
		}
	}
}

func TestWindowSingleEnable(t *testing.T) {
	var w windowRegisters
	w.w1Left, w.w1Right = 0x40, 0x80
	w.w1Enable[layerBG2] = true
	if !w.insideMask(layerBG2, 0x50) {
		t.Fatal("x inside window 1 must be masked")
	}
	if w.insideMask(layerBG2, 0x20) {
		t.Fatal("x outside window 1 must not be masked")
	}
	// Neither window enabled: the mask never hits.
	if w.insideMask(layerBG3, 0x50) {
		t.Fatal("mask with no windows enabled must be empty")
	}
}

// setupBG1 builds a mode 0 screen with BG1 showing a solid colour-1 tile
// everywhere and returns the PPU with a frame attached.
func setupBG1(t *testing.T) (*PPU, []byte) {
	t.Helper()
	p := New()
	fb := make([]byte, FrameBufferSize)
	p.StartFrame(fb)

	p.WriteMem(0x00, 0x0F) // full brightness
	p.WriteMem(0x05, 0x00) // mode 0
	p.WriteMem(0x07, 0x04) // BG1 map at byte 0x800
	p.WriteMem(0x0B, 0x01) // BG1 patterns at byte 0x2000

	// Tile 1: every pixel colour 1 (plane 0 set, plane 1 clear).
	for row := 0; row < 8; row++ {
		p.mem.vram.data[0x2010+row*2] = 0xFF
	}
	// Map: tile 1 across the first row.
	for i := 0; i < 32; i++ {
		p.mem.vram.data[0x800+i*2] = 0x01
	}
	p.mem.vram.markDirty(0x2010)

	// Palette: colour 1 = white.
	p.mem.cgram.data[2] = 0xFF
	p.mem.cgram.data[3] = 0x7F

	p.WriteMem(0x2C, 0x01) // BG1 on main screen
	return p, fb
}

func TestBGRenderSolidTile(t *testing.T) {
	p, fb := setupBG1(t)
	p.rend.drawLine(0)
	if fb[0] != 0xFF || fb[1] != 0xFF || fb[2] != 0xFF {
		t.Fatalf("pixel 0 = % X, want white", fb[:4])
	}
}

func TestColourMathPassThroughWhenDisabled(t *testing.T) {
	p, fb := setupBG1(t)
	// Fixed colour red, but no layer enabled for math.
	p.WriteMem(0x32, 0x3F) // red intensity 31
	p.rend.drawLine(0)
	if fb[0] != 0xFF || fb[1] != 0xFF || fb[2] != 0xFF {
		t.Fatalf("math disabled but pixel changed: % X", fb[:4])
	}
}

func TestColourMathAddHalf(t *testing.T) {
	p, fb := setupBG1(t)
	// Add-half the fixed colour (black) into BG1: white should halve.
	p.WriteMem(0x31, 0x41) // half, add, BG1 enabled
	p.rend.drawLine(0)
	// (31 + 0)/2 = 15 -> expanded 0x7B.
	if fb[0] != 0x7B || fb[1] != 0x7B || fb[2] != 0x7B {
		t.Fatalf("add-half pixel = % X, want 7B 7B 7B", fb[:4])
	}
}

func TestColourMathSubtract(t *testing.T) {
	p, fb := setupBG1(t)
	p.WriteMem(0x32, 0x20|0x10) // fixed colour red = 16
	p.WriteMem(0x31, 0x81)      // subtract, BG1
	p.rend.drawLine(0)
	// red channel 31-16=15 -> 0x7B, green/blue stay 31 -> 0xFF.
	if fb[0] != 0x7B || fb[1] != 0xFF || fb[2] != 0xFF {
		t.Fatalf("subtract pixel = % X", fb[:4])
	}
}

func TestWindowMasksLayerToTransparent(t *testing.T) {
	p, fb := setupBG1(t)
	p.WriteMem(0x26, 0x00) // window 1 left
	p.WriteMem(0x27, 0x7F) // window 1 right
	p.WriteMem(0x23, 0x02) // BG1: window 1 enabled, not inverted
	p.WriteMem(0x2E, 0x01) // mask BG1 on main screen
	p.rend.drawLine(0)

	if fb[0] != 0 {
		t.Fatalf("x=0 inside window should show backdrop, got %02X", fb[0])
	}
	// x=0x90 outside the window still shows BG1.
	if fb[0x90*2*4] != 0xFF {
		t.Fatalf("x=0x90 outside window should be white, got %02X", fb[0x90*2*4])
	}
}

// parkSprites moves every sprite below the visible area, the way games park
// unused OAM entries.
func parkSprites(p *PPU) {
	for i := range p.mem.oam.objects {
		p.mem.oam.objects[i].y = 0xF0
	}
}

func TestSpriteOverBackdrop(t *testing.T) {
	p := New()
	fb := make([]byte, FrameBufferSize)
	p.StartFrame(fb)
	parkSprites(p)
	p.WriteMem(0x00, 0x0F)
	p.WriteMem(0x01, 0x00) // 8x8 sprites, patterns at 0

	// Tile 0: all pixels colour 1 (4bpp plane 0).
	for row := 0; row < 8; row++ {
		p.mem.vram.data[row*2] = 0xFF
	}
	p.mem.vram.markDirty(0)

	// Sprite 0 at (10, 0), palette 0, priority 0.
	p.mem.oam.objects[0] = object{x: 10, y: 0, tileNum: 0}

	// Sprite palette entry 129 = green.
	p.mem.cgram.data[129*2] = 0xE0
	p.mem.cgram.data[129*2+1] = 0x03

	p.WriteMem(0x2C, 0x10) // OBJ on main screen
	p.rend.drawLine(0)

	i := 10 * 2 * 4
	if fb[i+1] == 0 {
		t.Fatalf("sprite pixel at x=10 missing: % X", fb[i:i+4])
	}
	if fb[0] != 0 {
		t.Fatal("backdrop at x=0 should be black")
	}
}

func TestSpritePriorityOverBG(t *testing.T) {
	p, fb := setupBG1(t)
	parkSprites(p)
	// Sprite patterns share the BG area; use colour 1 tile at 0x0000.
	for row := 0; row < 8; row++ {
		p.mem.vram.data[row*2] = 0xFF
	}
	p.mem.vram.markDirty(0)
	p.mem.oam.objects[0] = object{x: 0, y: 0, tileNum: 0, attrs: 0x30} // priority 3
	p.mem.cgram.data[129*2] = 0xE0
	p.mem.cgram.data[129*2+1] = 0x03
	p.WriteMem(0x2C, 0x11) // BG1 + OBJ

	p.rend.drawLine(0)
	// Sprite (green) wins over the white BG at x=0.
	if fb[0] != 0 || fb[1] != 0xFF {
		t.Fatalf("sprite should beat BG1: % X", fb[:4])
	}
}

func TestPatternDecode2bpp(t *testing.T) {
	var v vram
	// One tile: row 0 has pixel 0 colour 3 (both planes set at bit 7).
	v.data[0] = 0x80
	v.data[1] = 0x80
	v.markDirty(0)

	c := newPatternCache(2)
	c.setRegion(0, 16)
	c.refresh(&v)
	if got := c.texel(0, 0, 0); got != 3 {
		t.Fatalf("texel(0,0,0) = %d, want 3", got)
	}
	if got := c.texel(0, 1, 0); got != 0 {
		t.Fatalf("texel(0,1,0) = %d, want 0", got)
	}
}

func TestPatternDecode4bppPlanePairs(t *testing.T) {
	var v vram
	// Pixel 0 of row 0: planes 0 and 2 set -> colour 0b0101 = 5.
	v.data[0] = 0x80  // plane 0
	v.data[16] = 0x80 // plane 2 (second pair starts at byte 16)
	v.markDirty(0)

	c := newPatternCache(4)
	c.setRegion(0, 8)
	c.refresh(&v)
	if got := c.texel(0, 0, 0); got != 5 {
		t.Fatalf("texel = %d, want 5", got)
	}
}

func TestMode7Transform(t *testing.T) {
	p := New()
	fb := make([]byte, FrameBufferSize)
	p.StartFrame(fb)
	p.WriteMem(0x00, 0x0F)
	p.WriteMem(0x05, 0x07) // mode 7

	// Identity matrix (1.0 in 8.8).
	p.WriteMem(0x1B, 0x00)
	p.WriteMem(0x1B, 0x01)
	p.WriteMem(0x1E, 0x00)
	p.WriteMem(0x1E, 0x01)

	// Tile 0 pixel (5, 0) = colour 7: high byte of word 5.
	p.mem.vram.data[5*2+1] = 7
	p.mem.vram.markDirty(0)
	p.mem.cgram.data[7*2] = 0x1F // red 31

	p.WriteMem(0x2C, 0x01)
	p.rend.drawLine(0)

	i := 5 * 2 * 4
	if fb[i] != 0xFF {
		t.Fatalf("mode 7 pixel (5,0) = % X, want red", fb[i:i+4])
	}
	if fb[4*2*4] != 0 {
		t.Fatal("pixel (4,0) should be backdrop")
	}
}
