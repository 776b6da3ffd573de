package bus

import (
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/bits"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/interrupts"
	"github.com/FabianRolfMatthiasNoll/SnesEmulator/internal/timing"
)

// dmaTransfer runs general DMA for every channel selected in the trigger
// mask, lowest first. The CPU is paused for the duration; each byte costs
// eight master cycles which are clocked immediately.
func (b *Bus) dmaTransfer(mask byte) {
	for ch := 0; ch < 8; ch++ {
		if !bits.Test(mask, uint(ch)) {
			continue
		}
		c := &b.channels[ch]
		pattern := transferPatterns[c.mode()]
		done := false
		for !done {
			for _, off := range pattern {
				bAddr := c.bBusAddr + off
				if c.bToA() {
					data := b.readB(bAddr)
					b.Write(c.aBusFull(), data)
				} else {
					data, _ := b.Read(c.aBusFull())
					b.writeB(bAddr, data)
				}
				c.stepABus()
				b.pending |= b.step(timing.DMACyclesPerByte)
				if c.decrementCount() {
					done = true
					break
				}
			}
		}
	}
}

// hdmaTransfer services one H-blank: for every active channel, reload the
// instruction list as needed and move one line's worth of data.
func (b *Bus) hdmaTransfer() interrupts.Flags {
	var flags interrupts.Flags
	for ch := 0; ch < 8; ch++ {
		if !bits.Test(b.hdmaActive, uint(ch)) {
			continue
		}
		c := &b.channels[ch]

		if !c.hdmaLinesLeft() {
			instr, _ := b.Read(bits.Make24(c.aBusBank, c.table))
			c.table++
			if instr == 0 {
				// End of the instruction list: channel is done this frame.
				b.hdmaActive &^= 1 << ch
				continue
			}
			c.lineCtr = instr
			if c.indirect() {
				lo, _ := b.Read(bits.Make24(c.aBusBank, c.table))
				c.table++
				hi, _ := b.Read(bits.Make24(c.aBusBank, c.table))
				c.table++
				c.count = bits.Make16(hi, lo)
			}
			c.hdmaDoTransfer = true
		}

		if c.hdmaDoTransfer {
			flags |= b.hdmaLine(c)
		}

		c.lineCtr--
		c.hdmaDoTransfer = c.hdmaRepeat()
	}
	return flags
}

// hdmaLine transfers one unit for a channel, advancing the data pointer.
func (b *Bus) hdmaLine(c *dmaChannel) interrupts.Flags {
	var flags interrupts.Flags
	for _, off := range transferPatterns[c.mode()] {
		var src uint32
		if c.indirect() {
			src = bits.Make24(c.indBank, c.count)
			c.count++
		} else {
			src = bits.Make24(c.aBusBank, c.table)
			c.table++
		}
		data, _ := b.Read(src)
		b.writeB(c.bBusAddr+off, data)
		flags |= b.step(timing.DMACyclesPerByte)
	}
	return flags
}
