package apu

import "github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/bits"

// BRR blocks are nine bytes: a header (shift, filter, loop, end) and sixteen
// nibble samples run through one of four prediction filters.
const brrBlockSamples = 16

type brrHeader byte

func (h brrHeader) shift() uint { return uint(h >> 4) }
func (h brrHeader) filter() int { return int(h>>2) & 3 }
func (h brrHeader) loop() bool  { return h&0x02 != 0 }
func (h brrHeader) end() bool   { return h&0x01 != 0 }

// brrDecoder decodes one voice's sample stream block by block, carrying the
// two previous samples across block boundaries for the filters.
type brrDecoder struct {
	addr  uint16 // current block address in audio RAM
	prev1 int32
	prev2 int32

	block [brrBlockSamples]int16
	loop  bool
	end   bool
}

// decodeBlock expands the nine bytes at the current address. The decoder
// leaves addr pointing at the next block.
func (d *brrDecoder) decodeBlock(ram []byte) {
	head := brrHeader(ram[d.addr])
	d.loop = head.loop()
	d.end = head.end()
	pos := d.addr + 1

	for i := 0; i < brrBlockSamples; i += 2 {
		b := ram[(pos+uint16(i/2))&0xFFFF]
		d.block[i] = d.decodeSample(head, bits.HiNybble(b))
		d.block[i+1] = d.decodeSample(head, bits.LoNybble(b))
	}
	d.addr += 9
}

// decodeSample expands one nibble through the header's shift and filter and
// clamps to the signed 15-bit range.
func (d *brrDecoder) decodeSample(head brrHeader, nibble byte) int16 {
	// Sign-extend the nibble before shifting.
	signed := int32(int8(nibble<<4)) >> 4
	sample := signed << head.shift()
	if head.shift() > 12 {
		// Invalid ranges collapse to the sign bit.
		sample = signed >> 3 << 12
	}

	switch head.filter() {
	case 1:
		sample += d.prev1 + (-d.prev1 >> 4)
	case 2:
		sample += d.prev1*2 + (-d.prev1*3)>>5 - d.prev2 + d.prev2>>4
	case 3:
		sample += d.prev1*2 + (-d.prev1*13)>>6 - d.prev2 + (d.prev2*3)>>4
	}

	sample = bits.Clamp15(sample)
	d.prev2 = d.prev1
	d.prev1 = sample
	return int16(sample)
}
