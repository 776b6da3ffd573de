package ppu

import "github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/bits"

// Frame buffer geometry: 512 half-pixels wide, RGBA.
const (
	FrameWidth  = 512
	FrameHeight = 224
	frameStride = FrameWidth * 4

	// FrameBufferSize is the byte length of one output frame.
	FrameBufferSize = FrameWidth * FrameHeight * 4
)

// bgPixel is one background sample: a resolved 15-bit colour, its priority
// bit, and whether it was opaque.
type bgPixel struct {
	colour uint16
	pri    bool
	opaque bool
}

// objPixel is one sprite sample. mathOK marks the palettes that take part in
// colour math.
type objPixel struct {
	colour uint16
	prio   int
	mathOK bool
	opaque bool
}

// renderer turns the picture memory into scanlines. Pattern tables and the
// expanded palette are cached and refreshed from the dirty flags.
type renderer struct {
	mem *videoMem

	fb []byte

	bgCache  [4]*patternCache
	objCache [2]*patternCache

	// Per-line working buffers. Backgrounds use the full 512 width for the
	// hi-res modes; normal modes fill the first 256 entries.
	bgLine  [4][FrameWidth]bgPixel
	objLine [256]objPixel

	lineObjs [32]int // indices of the sprites picked for this line
}

func newRenderer(mem *videoMem) *renderer {
	r := &renderer{mem: mem}
	r.objCache[0] = newPatternCache(4)
	r.objCache[1] = newPatternCache(4)
	return r
}

func (r *renderer) startFrame(fb []byte) {
	r.fb = fb
}

// bgDepths gives the bits-per-pixel of each background in a mode; zero means
// the background does not exist.
var bgDepths = [8][4]int{
	{2, 2, 2, 2},
	{4, 4, 2, 0},
	{4, 4, 0, 0},
	{8, 4, 0, 0},
	{8, 2, 0, 0},
	{4, 2, 0, 0},
	{4, 0, 0, 0},
	{0, 0, 0, 0}, // mode 7 draws through its own path
}

// priEntry names a layer and the priority level it covers in the walk order.
type priEntry struct {
	layer int
	prio  int
}

var mode0Priorities = []priEntry{
	{layerOBJ, 3}, {layerBG1, 1}, {layerBG2, 1},
	{layerOBJ, 2}, {layerBG1, 0}, {layerBG2, 0},
	{layerOBJ, 1}, {layerBG3, 1}, {layerBG4, 1},
	{layerOBJ, 0}, {layerBG3, 0}, {layerBG4, 0},
}

var mode1Priorities = []priEntry{
	{layerOBJ, 3}, {layerBG1, 1}, {layerBG2, 1},
	{layerOBJ, 2}, {layerBG1, 0}, {layerBG2, 0},
	{layerOBJ, 1}, {layerBG3, 1},
	{layerOBJ, 0}, {layerBG3, 0},
}

var mode1BG3Priorities = append([]priEntry{{layerBG3, 1}}, []priEntry{
	{layerOBJ, 3}, {layerBG1, 1}, {layerBG2, 1},
	{layerOBJ, 2}, {layerBG1, 0}, {layerBG2, 0},
	{layerOBJ, 1},
	{layerOBJ, 0}, {layerBG3, 0},
}...)

var twoBGPriorities = []priEntry{
	{layerOBJ, 3}, {layerBG1, 1},
	{layerOBJ, 2}, {layerBG2, 1},
	{layerOBJ, 1}, {layerBG1, 0},
	{layerOBJ, 0}, {layerBG2, 0},
}

var oneBGPriorities = []priEntry{
	{layerOBJ, 3}, {layerBG1, 1},
	{layerOBJ, 2},
	{layerOBJ, 1}, {layerBG1, 0},
	{layerOBJ, 0},
}

var mode7Priorities = []priEntry{
	{layerOBJ, 3}, {layerOBJ, 2},
	{layerOBJ, 1}, {layerBG1, 0},
	{layerOBJ, 0},
}

var mode7ExtPriorities = []priEntry{
	{layerOBJ, 3}, {layerOBJ, 2}, {layerBG2, 1},
	{layerOBJ, 1}, {layerBG1, 0},
	{layerOBJ, 0},
}

func (r *renderer) priorities() []priEntry {
	mode := r.mem.regs.mode()
	switch mode {
	case 0:
		return mode0Priorities
	case 1:
		if r.mem.regs.bg3Priority() {
			return mode1BG3Priorities
		}
		return mode1Priorities
	case 6:
		return oneBGPriorities
	case 7:
		if r.mem.regs.extBG() {
			return mode7ExtPriorities
		}
		return mode7Priorities
	default:
		return twoBGPriorities
	}
}

// hires reports whether the mode renders 512 half-pixels natively.
func (r *renderer) hires() bool {
	mode := r.mem.regs.mode()
	return mode == 5 || mode == 6
}

// drawLine renders one visible scanline into the frame buffer.
func (r *renderer) drawLine(line int) {
	if r.fb == nil || line >= FrameHeight {
		return
	}
	out := r.fb[line*frameStride : (line+1)*frameStride]

	if r.mem.regs.inForcedBlank() {
		for i := range out {
			if i%4 == 3 {
				out[i] = 0xFF
			} else {
				out[i] = 0
			}
		}
		return
	}

	r.refreshCaches()

	mode := r.mem.regs.mode()
	if mode == 7 {
		r.drawMode7Line(line)
	} else {
		for bg := 0; bg < 4; bg++ {
			if bgDepths[mode][bg] != 0 {
				r.drawBGLine(bg, bgDepths[mode][bg], line)
			}
		}
	}
	r.evaluateSprites(line)

	hires := r.hires() || r.mem.regs.pseudoHires()
	pris := r.priorities()

	for x := 0; x < 256; x++ {
		mainCol, mainLayer := r.compose(pris, x, false)
		final := r.applyColourMath(pris, x, mainCol, mainLayer)

		if hires {
			// Sub screen on the even half-pixel, main on the odd.
			subCol, _ := r.compose(pris, x, true)
			r.putPixel(out, x*2, subCol)
			r.putPixel(out, x*2+1, final)
		} else {
			r.putPixel(out, x*2, final)
			r.putPixel(out, x*2+1, final)
		}
	}
	r.mem.vram.clearDirty()
	r.mem.cgram.dirty = false
	r.mem.oam.dirty = false
}

// refreshCaches repositions and redecodes the pattern caches.
func (r *renderer) refreshCaches() {
	mode := r.mem.regs.mode()
	regs := &r.mem.regs

	r.objCache[0].setRegion(regs.obj0PatternAddr(), 256)
	r.objCache[0].refresh(&r.mem.vram)
	r.objCache[1].setRegion(regs.objNPatternAddr(), 256)
	r.objCache[1].refresh(&r.mem.vram)

	if mode == 7 {
		return // mode 7 samples VRAM directly
	}
	for bg := 0; bg < 4; bg++ {
		depth := bgDepths[mode][bg]
		if depth == 0 {
			r.bgCache[bg] = nil
			continue
		}
		if r.bgCache[bg] == nil || r.bgCache[bg].bpp != depth {
			r.bgCache[bg] = newPatternCache(depth)
		}
		r.bgCache[bg].setRegion(regs.bgPatternAddr(bg), 1024)
		r.bgCache[bg].refresh(&r.mem.vram)
	}
}

// mapEntry reads a 16-bit tile map entry honouring the 32x32 submap layout.
func (r *renderer) mapEntry(bg, mapX, mapY int) uint16 {
	wide, tall := r.mem.regs.bgMapMirror(bg)
	base := uint32(r.mem.regs.bgMapAddr(bg))

	var submap uint32
	if wide && mapX >= 32 {
		submap += 0x800
	}
	if tall && mapY >= 32 {
		if wide {
			submap += 0x1000
		} else {
			submap += 0x800
		}
	}
	word := base + submap + uint32((mapY%32)*32+(mapX%32))*2
	word %= vramSize
	return uint16(r.mem.vram.data[word]) | uint16(r.mem.vram.data[(word+1)%vramSize])<<8
}

// optOffsets reads the offset-per-tile overrides from BG3 for a tile column
// in modes 2, 4 and 6. Returns the replacement scrolls and which axes apply.
func (r *renderer) optOffsets(bg, column int) (hOfs, vOfs int, hOK, vOK bool) {
	mode := r.mem.regs.mode()
	if mode != 2 && mode != 4 && mode != 6 {
		return
	}
	if column == 0 {
		return // the leftmost visible column is never overridden
	}
	scroll3X, scroll3Y := r.mem.regs.bgScroll(2)
	mapX := (scroll3X/8 + column - 1) & 0x3F
	mapY := (scroll3Y / 8) & 0x3F

	validBit := uint(13 + bg)
	hEntry := r.mapEntry(2, mapX, mapY)
	if mode == 4 {
		// One entry; bit 15 picks the axis.
		if bits.Test16(hEntry, validBit) {
			if bits.Test16(hEntry, 15) {
				return 0, int(hEntry & 0x3FF), false, true
			}
			return int(hEntry & 0x3FF), 0, true, false
		}
		return
	}
	vEntry := r.mapEntry(2, mapX, mapY+1)
	if bits.Test16(hEntry, validBit) {
		hOfs, hOK = int(hEntry&0x3FF), true
	}
	if bits.Test16(vEntry, validBit) {
		vOfs, vOK = int(vEntry&0x3FF), true
	}
	return
}

// bgPaletteBase gives the CGRAM base index for a map palette number.
func bgPaletteBase(mode, bg, depth, pal int) int {
	if mode == 0 {
		return bg*32 + pal*4
	}
	switch depth {
	case 2:
		return pal * 4
	case 4:
		return pal * 16
	default:
		return 0
	}
}

func (r *renderer) drawBGLine(bg, depth, line int) {
	mode := r.mem.regs.mode()
	cache := r.bgCache[bg]
	scrollX, scrollY := r.mem.regs.bgScroll(bg)
	largeTiles := r.mem.regs.bgLargeTiles(bg)
	tileH := 8
	if largeTiles {
		tileH = 16
	}
	tileW := tileH

	hires := r.hires()
	width := 256
	if hires {
		// Hi-res tiles are 16 half-pixels wide over the 512-wide line.
		width = 512
		tileW = 16
	}

	wide, tall := r.mem.regs.bgMapMirror(bg)
	xMask := 32*tileW - 1
	if wide {
		xMask = 64*tileW - 1
	}
	yMask := 32*tileH - 1
	if tall {
		yMask = 64*tileH - 1
	}

	mosaic := 1
	if r.mem.regs.bgMosaicEnabled(bg) {
		mosaic = r.mem.regs.mosaicSize()
	}

	directColour := r.mem.windows.directColour && depth == 8

	for x := 0; x < width; x++ {
		px := x
		py := line
		if mosaic > 1 {
			px -= px % mosaic
			py -= py % mosaic
		}

		bgX := px + scrollX
		bgY := py + scrollY
		if col := px / 8; mode == 2 || mode == 4 || mode == 6 {
			if bg <= 1 {
				if h, v, hOK, vOK := r.optOffsets(bg, col); hOK || vOK {
					if hOK {
						bgX = px + h
					}
					if vOK {
						bgY = py + v
					}
				}
			}
		}
		bgX &= xMask
		bgY &= yMask

		mapX := bgX / tileW
		mapY := bgY / tileH
		entry := r.mapEntry(bg, mapX, mapY)

		tile := int(entry & 0x3FF)
		pal := int((entry >> 10) & 7)
		pri := bits.Test16(entry, 13)
		xFlip := bits.Test16(entry, 14)
		yFlip := bits.Test16(entry, 15)

		fineX := bgX % tileW
		fineY := bgY % tileH
		if xFlip {
			fineX = tileW - 1 - fineX
		}
		if yFlip {
			fineY = tileH - 1 - fineY
		}
		if fineX >= 8 {
			tile++
			fineX -= 8
		}
		if fineY >= 8 {
			tile += 16
			fineY -= 8
		}
		tile &= 0x3FF

		texel := cache.texel(tile, fineX, fineY)
		if texel == 0 {
			r.bgLine[bg][x] = bgPixel{}
			continue
		}

		var colour uint16
		if directColour {
			colour = directColourOf(texel, pal)
		} else {
			colour = r.mem.cgram.colour(byte(bgPaletteBase(mode, bg, depth, pal) + int(texel)))
		}
		r.bgLine[bg][x] = bgPixel{colour: colour, pri: pri, opaque: true}
	}
}

// directColourOf splits an 8bpp texel 3/3/2 into BGR555, with the palette
// bits supplying one extra low bit per channel.
func directColourOf(texel byte, pal int) uint16 {
	red := uint16(texel&0x07)<<2 | uint16(pal&1)<<1
	green := uint16((texel>>3)&0x07)<<2 | uint16((pal>>1)&1)<<1
	blue := uint16((texel>>6)&0x03)<<3 | uint16((pal>>2)&1)<<2
	return red | green<<5 | blue<<10
}

// drawMode7Line renders the affine background (and the EXT BG plane) for a
// line into bgLine[0] and bgLine[1].
func (r *renderer) drawMode7Line(line int) {
	regs := &r.mem.regs
	a, b, c, d := regs.m7Param(0), regs.m7Param(1), regs.m7Param(2), regs.m7Param(3)
	cx, cy := regs.m7Centre()
	sx, sy := regs.m7Scroll()
	over := regs.m7ScreenOver()
	extBG := regs.extBG()

	y := int32(line)
	if regs.m7FlipY() {
		y = 255 - y
	}
	y0 := y + sy - cy

	for x := 0; x < 256; x++ {
		xs := int32(x)
		if regs.m7FlipX() {
			xs = 255 - xs
		}
		x0 := xs + sx - cx

		// 8.8 fixed point transform about the centre.
		vx := (a*x0+b*y0)>>8 + cx
		vy := (c*x0+d*y0)>>8 + cy

		texel := byte(0)
		outOfRange := vx < 0 || vx > 1023 || vy < 0 || vy > 1023
		switch {
		case outOfRange && over == 2:
			// transparent
		case outOfRange && over == 3:
			texel = r.m7Texel(0, int(vx&7), int(vy&7))
		default:
			vx &= 1023
			vy &= 1023
			tile := int(r.mem.vram.data[(uint32(vy/8)*128+uint32(vx/8))*2%vramSize])
			texel = r.m7Texel(tile, int(vx&7), int(vy&7))
		}

		r.bgLine[0][x] = bgPixel{}
		r.bgLine[1][x] = bgPixel{}
		if texel == 0 {
			continue
		}
		if r.mem.windows.directColour {
			r.bgLine[0][x] = bgPixel{colour: directColourOf(texel, 0), opaque: true}
		} else {
			r.bgLine[0][x] = bgPixel{colour: r.mem.cgram.colour(texel), opaque: true}
		}
		if extBG {
			// The high bit becomes the second plane's priority.
			colour := texel & 0x7F
			if colour != 0 {
				r.bgLine[1][x] = bgPixel{
					colour: r.mem.cgram.colour(colour),
					pri:    bits.Test(texel, 7),
					opaque: true,
				}
			}
		}
	}
}

// m7Texel reads a mode 7 pixel: tile data sits in the high bytes of the
// interleaved map/pixel words.
func (r *renderer) m7Texel(tile, x, y int) byte {
	word := uint32(tile)*64 + uint32(y)*8 + uint32(x)
	return r.mem.vram.data[(word*2+1)%vramSize]
}

// evaluateSprites selects up to 32 sprites for the line and renders them
// into objLine. Reverse draw order leaves the lowest-index sprite on top.
func (r *renderer) evaluateSprites(line int) {
	for x := range r.objLine {
		r.objLine[x] = objPixel{}
	}

	smallW, smallH, largeW, largeH := r.mem.regs.objSizes()

	count := 0
	for i := 0; i < numObjects && count < len(r.lineObjs); i++ {
		o := &r.mem.oam.objects[i]
		h := smallH
		if o.large {
			h = largeH
		}
		row := (line - int(o.y)) & 0xFF
		if row >= h {
			continue
		}
		w := smallW
		if o.large {
			w = largeW
		}
		if int(o.x) <= -w || int(o.x) >= 256 {
			continue
		}
		r.lineObjs[count] = i
		count++
	}

	for n := count - 1; n >= 0; n-- {
		o := &r.mem.oam.objects[r.lineObjs[n]]
		w, h := smallW, smallH
		if o.large {
			w, h = largeW, largeH
		}
		row := (line - int(o.y)) & 0xFF
		if o.yFlip() {
			row = h - 1 - row
		}
		cache := r.objCache[o.nameTable()]
		for sx := 0; sx < w; sx++ {
			x := int(o.x) + sx
			if x < 0 || x >= 256 {
				continue
			}
			col := sx
			if o.xFlip() {
				col = w - 1 - sx
			}
			tile := o.calcTileNum(col, row)
			texel := cache.texel(tile, col%8, row%8)
			if texel == 0 {
				continue
			}
			palIndex := 128 + o.paletteOffset() + int(texel)
			r.objLine[x] = objPixel{
				colour: r.mem.cgram.colour(byte(palIndex)),
				prio:   o.priority(),
				mathOK: palIndex >= 192,
				opaque: true,
			}
		}
	}
}

// compose walks the priority list and returns the first visible opaque pixel
// plus its layer (-1 for backdrop).
func (r *renderer) compose(pris []priEntry, x int, sub bool) (uint16, int) {
	w := &r.mem.windows
	bgIdx := x
	if r.hires() {
		// Hi-res backgrounds carry 512 samples: even half-pixels feed the
		// sub screen, odd ones the main screen.
		bgIdx = x * 2
		if !sub {
			bgIdx++
		}
	}
	for _, p := range pris {
		if p.layer == layerOBJ {
			px := &r.objLine[x]
			if px.opaque && px.prio == p.prio && w.layerVisible(layerOBJ, byte(x), sub) {
				return px.colour, layerOBJ
			}
			continue
		}
		px := &r.bgLine[p.layer][bgIdx]
		if px.opaque && boolToInt(px.pri) == p.prio && w.layerVisible(p.layer, byte(x), sub) {
			return px.colour, p.layer
		}
	}
	if sub {
		return w.fixedColour, -1
	}
	return r.mem.cgram.colour(0), -1
}

// applyColourMath combines the main pixel with the sub screen (or fixed
// colour) per the designation registers.
func (r *renderer) applyColourMath(pris []priEntry, x int, main uint16, mainLayer int) uint16 {
	w := &r.mem.windows
	// Sprites only participate with the upper palettes.
	if mainLayer == layerOBJ && !r.objLine[x].mathOK {
		return main
	}
	if !w.mathEnabledFor(mainLayer) || !w.mathAllowedAt(byte(x)) {
		return main
	}

	operand := w.fixedColour
	if w.subScreenEnabled() {
		operand, _ = r.compose(pris, x, true)
	}

	mr, mg, mb := int(main&0x1F), int((main>>5)&0x1F), int((main>>10)&0x1F)
	or_, og, ob := int(operand&0x1F), int((operand>>5)&0x1F), int((operand>>10)&0x1F)

	var nr, ng, nb int
	if w.mathSubtract() {
		nr, ng, nb = mr-or_, mg-og, mb-ob
	} else {
		nr, ng, nb = mr+or_, mg+og, mb+ob
	}
	if w.mathHalf() {
		nr, ng, nb = nr/2, ng/2, nb/2
	}
	nr = clampChannel(nr)
	ng = clampChannel(ng)
	nb = clampChannel(nb)
	return uint16(nr) | uint16(ng)<<5 | uint16(nb)<<10
}

func clampChannel(v int) int {
	if v < 0 {
		return 0
	}
	if v > 0x1F {
		return 0x1F
	}
	return v
}

// putPixel expands BGR555 to RGBA8888 with brightness applied, replicating
// the high bits into the low positions.
func (r *renderer) putPixel(out []byte, halfX int, colour uint16) {
	bright := int(r.mem.regs.brightness())
	expand := func(c5 uint16) byte {
		c8 := int(c5<<3 | c5>>2)
		return byte(c8 * bright / 15)
	}
	i := halfX * 4
	out[i] = expand(colour & 0x1F)
	out[i+1] = expand((colour >> 5) & 0x1F)
	out[i+2] = expand((colour >> 10) & 0x1F)
	out[i+3] = 0xFF
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
