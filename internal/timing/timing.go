// Package timing holds the master-clock constants shared by the bus, video,
// and audio code. Everything is expressed in master cycles (21.477 MHz).
package timing

// Screen geometry.
const (
	HorizontalDots = 341
	NumScanlines   = 262

	HRes = 256
	VRes = 224
)

// Memory access cycle classes.
const (
	InternalOp = 6
	FastMem    = 6
	SlowMem    = 8
	XSlowMem   = 12
)

// Video timing. A dot is four master cycles; drawing starts 22 dots into the
// line and the CPU pauses for 40 cycles mid-line.
const (
	DotTime        = 4
	ScanlineCycles = DotTime * HorizontalDots
	ScanlineOffset = DotTime * 22
	HBlankStart    = ScanlineOffset + DotTime*HRes

	PauseLen   = 40
	PauseStart = 536
)

// MasterHz is the master clock rate implied by 60 full frames per second.
const MasterHz = ScanlineCycles * NumScanlines * 60

// DMA transfers cost eight master cycles per byte.
const DMACyclesPerByte = 8
