/*
   EE-side DMA controller (DMAC): ten channels, three active in this
   core (GIF, SIF0, SIF1), walking chained DMAtags embedded in the
   transferred stream until a tag marked "end" is consumed.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/

// Package dmac implements the Emotion Engine's DMA controller: a
// cooperative, one-quadword-per-Step state machine per channel that
// walks chained DMAtags embedded in the transferred stream.
package dmac

import (
	"errors"
	"fmt"

	"github.com/rcornwell/eecore/internal/bus"
	"github.com/rcornwell/eecore/internal/logging"
)

// Channel indices; only GIF, SIF0, and SIF1 have handlers in this
// core.
const (
	VIF0 = iota
	VIF1
	GIF
	IPUFrom
	IPUTo
	SIF0
	SIF1
	SIF2
	SPRFrom
	SPRTo

	numChannels = 10
)

// Control-word bit layout.
const (
	ctrlStart  = 0x100 // bit 8: channel start/busy
	ctrlTIE    = 0x080 // bit 7: tag-interrupt-enable
	ctrlModeSh = 2     // bits 3:2: transfer mode
	ctrlModeMa = 0x3
)

const (
	modeNormal = iota
	modeChain
	modeInterleave
)

// Source-chain DMAtag ids.
const (
	tagRefe = 0
	tagCnt  = 1
	tagNext = 2
	tagRef  = 3
	tagEnd  = 7
)

// channel holds one DMA channel's architected state.
type channel struct {
	control       uint32
	address       uint32
	tagAddress    uint32
	quadwordCount uint16
	tagEnd        bool
}

func (ch *channel) started() bool { return ch.control&ctrlStart != 0 }

// control word fields decoded on D_CTRL (0x1000E000).
type globalControl struct {
	masterEnable       bool
	cycleStealing      bool
	memDrainChannel    uint32
	stallSourceChannel uint32
	stallDestChannel   uint32
	releaseCycle       uint32
}

// interruptStat is the DMAC's aggregate interrupt state: one
// (stat, mask) pair per channel, the stall and MFIFO (stat, mask)
// pairs, and a bus-error stat flag that has no mask bit.
type interruptStat struct {
	channelStat [numChannels]bool
	channelMask [numChannels]bool
	stallStat   bool
	stallMask   bool
	mfifoStat   bool
	mfifoMask   bool
	busStat     bool
}

// DMAC is the controller itself, wired to main memory, the GIF PATH3
// sink, the SIF FIFOs, and the interrupt controller's INT1 line.
type DMAC struct {
	channels      [numChannels]channel
	control       globalControl
	masterDisable uint32
	interruptStat interruptStat

	bus  bus.Bus
	gif  bus.GIF
	sif  bus.SIF
	intc bus.INTC
}

// New returns a DMAC wired to its collaborators, reset to boot state.
func New(b bus.Bus, gif bus.GIF, sif bus.SIF, intc bus.INTC) *DMAC {
	d := &DMAC{bus: b, gif: gif, sif: sif, intc: intc}
	d.Reset()
	return d
}

// Reset clears every channel, D_CTRL, and the global interrupt state,
// and sets master_disable to its hardware-observed boot value 0x1201.
// That value has bit 16 clear; channels stay idle after reset because
// D_CTRL's master_enable is cleared.
func (d *DMAC) Reset() {
	for i := range d.channels {
		d.channels[i] = channel{}
		d.interruptStat.channelMask[i] = false
		d.interruptStat.channelStat[i] = false
	}
	d.control = globalControl{}
	d.masterDisable = 0x1201
	d.interruptStat.stallMask = false
	d.interruptStat.stallStat = false
	d.interruptStat.mfifoMask = false
	d.interruptStat.mfifoStat = false
	d.interruptStat.busStat = false
}

// Step advances the DMAC by one quantum: every started channel that
// has a handler in this core is offered one unit of work. A
// source-chain tag with an id outside {0,1,2,3,7} is fatal and is
// returned as an error rather than panicking the host.
func (d *DMAC) Step() error {
	if !d.control.masterEnable || d.masterDisable&(1<<16) != 0 {
		return nil
	}
	for i := 0; i < numChannels; i++ {
		if !d.channels[i].started() {
			continue
		}
		switch i {
		case GIF:
			if err := d.processGIF(); err != nil {
				return err
			}
		case SIF0:
			if err := d.processSIF0(); err != nil {
				return err
			}
		case SIF1:
			if err := d.processSIF1(); err != nil {
				return err
			}
		}
	}
	return nil
}

// transferEnd clears the channel's start bit, raises its stat flag,
// and re-evaluates INT1.
func (d *DMAC) transferEnd(index int) {
	d.channels[index].control &^= ctrlStart
	d.interruptStat.channelStat[index] = true
	d.checkINT1()
}

// checkINT1 recomputes the DMAC's aggregate interrupt line: asserted
// iff some channel's stat and mask bits are both set.
func (d *DMAC) checkINT1() {
	level := d.interruptStat.stallStat && d.interruptStat.stallMask
	level = level || (d.interruptStat.mfifoStat && d.interruptStat.mfifoMask)
	for i := 0; i < numChannels; i++ {
		if d.interruptStat.channelStat[i] && d.interruptStat.channelMask[i] {
			level = true
		}
	}
	if d.intc != nil {
		d.intc.SetINT1Signal(level)
	}
}

func (d *DMAC) processGIF() error {
	ch := &d.channels[GIF]
	if ch.quadwordCount > 0 {
		quad := d.bus.ReadQuad(ch.address)
		d.gif.SendPATH3(quad)
		ch.address += 16
		ch.quadwordCount--
		return nil
	}
	if ch.tagEnd {
		d.transferEnd(GIF)
		return nil
	}
	return d.handleSourceChain(GIF)
}

func (d *DMAC) processSIF1() error {
	ch := &d.channels[SIF1]
	if ch.quadwordCount > 0 {
		if d.sif.SIF1Size() <= bus.MaxFIFOSize-4 {
			quad := d.bus.ReadQuad(ch.address)
			d.sif.WriteSIF1(quad)
			ch.address += 16
			ch.quadwordCount--
		}
		return nil
	}
	if ch.tagEnd {
		d.transferEnd(SIF1)
		return nil
	}
	return d.handleSourceChain(SIF1)
}

// processSIF0 moves memory-bound data out of the SIF0 FIFO: four
// sequential 32-bit words per quadword, rather than a single 128-bit
// transfer, since the FIFO side is word-granular.
func (d *DMAC) processSIF0() error {
	ch := &d.channels[SIF0]
	if ch.quadwordCount > 0 {
		if d.sif.SIF0Size() >= 4 {
			for i := 0; i < 4; i++ {
				word := d.sif.ReadSIF0()
				d.bus.Write32(ch.address, word)
				ch.address += 4
			}
			ch.quadwordCount--
		}
		return nil
	}
	if ch.tagEnd {
		d.transferEnd(SIF0)
		return nil
	}
	// SIF0's tags arrive in-band from the IOP rather than from main
	// memory, and the chain id table does not apply: the tag's upper
	// word is the destination address verbatim, and only id 7 (or
	// irq with TIE already enabled) ends the transfer.
	if d.sif.SIF0Size() >= 2 {
		lo := uint64(d.sif.ReadSIF0())
		hi := uint64(d.sif.ReadSIF0())
		tag := lo | (hi << 32)

		ch.quadwordCount = uint16(tag & 0xffff)
		ch.address = uint32(tag >> 32)
		ch.tagAddress += 16

		id := uint8((tag >> 28) & 0x7)
		irq := tag&(1<<31) != 0
		tie := ch.control&ctrlTIE != 0
		if id == tagEnd || (irq && tie) {
			ch.tagEnd = true
		}
		ch.control = (ch.control & 0xffff) | uint32(tag&0xffff0000)
	}
	return nil
}

// handleSourceChain fetches the next DMAtag from main memory at the
// channel's tag_address.
func (d *DMAC) handleSourceChain(index int) error {
	tag := d.bus.Read64(d.channels[index].tagAddress)
	return d.applyTag(index, tag)
}

// applyTag interprets a 64-bit DMAtag fetched from main memory and
// updates the channel's chain state per the tag's id.
func (d *DMAC) applyTag(index int, tag uint64) error {
	ch := &d.channels[index]

	ch.control = (ch.control & 0xffff) | uint32(tag&0xffff0000)

	qwc := uint16(tag & 0xffff)
	id := uint8((tag >> 28) & 0x7)
	addr := uint32((tag >> 32) & 0x7fffFFF0)
	irq := tag&(1<<31) != 0
	tie := ch.control&ctrlTIE != 0

	ch.quadwordCount = qwc
	switch id {
	case tagRefe:
		ch.address = addr
		ch.tagAddress += 16
		ch.tagEnd = true
	case tagCnt:
		ch.address = ch.tagAddress + 16
		ch.tagAddress = ch.address + uint32(qwc)*16
	case tagNext:
		next := ch.tagAddress
		ch.tagAddress = addr
		ch.address = next + 16
	case tagRef:
		ch.address = addr
		ch.tagAddress += 16
	case tagEnd:
		ch.address = ch.tagAddress + 16
		ch.tagEnd = true
	default:
		err := fmt.Errorf("%w: id %d on channel %d", ErrUnknownTag, id, index)
		logging.Log.Error(err.Error())
		return err
	}
	if irq && tie {
		ch.tagEnd = true
	}
	return nil
}

// ErrUnknownTag is wrapped into the error Step/applyTag return for an
// out-of-range tag id; exposed so callers can errors.Is against it.
var ErrUnknownTag = errors.New("dmac: unrecognized DMAtag id")

// startDMA is invoked when software writes the start bit to a
// channel's control register: normal mode ends the transfer as soon
// as quadword_count is exhausted (tag_end latched immediately);
// interleave mode (2) is unimplemented in this core.
func (d *DMAC) startDMA(index int) {
	mode := (d.channels[index].control >> ctrlModeSh) & ctrlModeMa
	d.channels[index].tagEnd = mode == modeNormal
}

// ReadMasterDisable returns the D5_/master-disable word, whose bit 16
// suppresses all DMAC activity even when master_enable is set.
func (d *DMAC) ReadMasterDisable() uint32 { return d.masterDisable }

// WriteMasterDisable sets the master-disable word.
func (d *DMAC) WriteMasterDisable(v uint32) { d.masterDisable = v }

// MMIO addresses for the GIF, SIF0, and SIF1 channels; the other
// seven channels have no handler in this core and so no addressable
// registers here.
const (
	addrGIFChcr  = 0x1000A000
	addrGIFMadr  = 0x1000A010
	addrGIFQwc   = 0x1000A020
	addrGIFTadr  = 0x1000A030
	addrSIF0Chcr = 0x1000C000
	addrSIF0Qwc  = 0x1000C020
	addrSIF0Tadr = 0x1000C030
	addrSIF1Chcr = 0x1000C400
	addrSIF1Qwc  = 0x1000C420
	addrSIF1Tadr = 0x1000C430
	addrDCtrl    = 0x1000E000
	addrDStat    = 0x1000E010
)

func channelForAddr(addr uint32) (int, bool) {
	switch addr & 0xFFFFFF00 {
	case addrGIFChcr & 0xFFFFFF00:
		return GIF, true
	case addrSIF0Chcr & 0xFFFFFF00:
		return SIF0, true
	case addrSIF1Chcr & 0xFFFFFF00:
		return SIF1, true
	default:
		return 0, false
	}
}

// Read32 serves the MMIO register map's readable fields. Addresses
// this core does not recognize return 0 and are logged.
func (d *DMAC) Read32(addr uint32) uint32 {
	if ch, ok := channelForAddr(addr); ok {
		switch addr & 0xff {
		case 0x00:
			return d.channels[ch].control
		case 0x10:
			return d.channels[ch].address
		case 0x20:
			return uint32(d.channels[ch].quadwordCount)
		case 0x30:
			return d.channels[ch].tagAddress
		}
	}
	switch addr {
	case addrDCtrl:
		return d.readDCtrl()
	case addrDStat:
		return d.readDStat()
	default:
		logging.Log.Warn("dmac: MMIO read from unrecognized address", "addr", addr)
		return 0
	}
}

// Write32 serves the MMIO register map's writable fields. MADR/TADR
// mask off the low 4 bits to keep quadword alignment; a write that
// sets a channel's CHCR start bit (8) arms the transfer via startDMA.
func (d *DMAC) Write32(addr uint32, value uint32) {
	if ch, ok := channelForAddr(addr); ok {
		switch addr & 0xff {
		case 0x00:
			d.channels[ch].control = value
			if value&ctrlStart != 0 {
				d.startDMA(ch)
			}
		case 0x10:
			d.channels[ch].address = value &^ 0xf
		case 0x20:
			d.channels[ch].quadwordCount = uint16(value)
		case 0x30:
			d.channels[ch].tagAddress = value &^ 0xf
		default:
			logging.Log.Warn("dmac: MMIO write to unrecognized channel register", "addr", addr)
		}
		return
	}
	switch addr {
	case addrDCtrl:
		d.writeDCtrl(value)
	case addrDStat:
		d.writeDStat(value)
	default:
		logging.Log.Warn("dmac: MMIO write to unrecognized address", "addr", addr, "value", value)
	}
}

func (d *DMAC) readDCtrl() uint32 {
	var v uint32
	if d.control.masterEnable {
		v |= 1 << 0
	}
	if d.control.cycleStealing {
		v |= 1 << 1
	}
	v |= (d.control.memDrainChannel & 0x3) << 2
	v |= (d.control.stallSourceChannel & 0x3) << 4
	v |= (d.control.stallDestChannel & 0x3) << 6
	v |= (d.control.releaseCycle & 0x7) << 8
	return v
}

func (d *DMAC) writeDCtrl(value uint32) {
	d.control.masterEnable = value&(1<<0) != 0
	d.control.cycleStealing = value&(1<<1) != 0
	d.control.memDrainChannel = (value >> 2) & 0x3
	d.control.stallSourceChannel = (value >> 4) & 0x3
	d.control.stallDestChannel = (value >> 6) & 0x3
	d.control.releaseCycle = (value >> 8) & 0x7
}

func (d *DMAC) readDStat() uint32 {
	var v uint32
	for i := 0; i < numChannels; i++ {
		if d.interruptStat.channelStat[i] {
			v |= 1 << uint(i)
		}
	}
	if d.interruptStat.stallStat {
		v |= 1 << 13
	}
	if d.interruptStat.mfifoStat {
		v |= 1 << 14
	}
	if d.interruptStat.busStat {
		v |= 1 << 15
	}
	for i := 0; i < numChannels; i++ {
		if d.interruptStat.channelMask[i] {
			v |= 1 << uint(16+i)
		}
	}
	if d.interruptStat.stallMask {
		v |= 1 << 29
	}
	if d.interruptStat.mfifoMask {
		v |= 1 << 30
	}
	return v
}

// writeDStat implements the reverse-mask protocol: bits 0..9 clear
// the corresponding channel_stat, bits 16..25 toggle the
// corresponding channel_mask. After applying both, INT1 is
// re-evaluated.
func (d *DMAC) writeDStat(value uint32) {
	for i := 0; i < numChannels; i++ {
		if value&(1<<uint(i)) != 0 {
			d.interruptStat.channelStat[i] = false
		}
	}
	if value&(1<<13) != 0 {
		d.interruptStat.stallStat = false
	}
	if value&(1<<14) != 0 {
		d.interruptStat.mfifoStat = false
	}
	if value&(1<<15) != 0 {
		d.interruptStat.busStat = false
	}
	for i := 0; i < numChannels; i++ {
		if value&(1<<uint(16+i)) != 0 {
			d.interruptStat.channelMask[i] = !d.interruptStat.channelMask[i]
		}
	}
	if value&(1<<29) != 0 {
		d.interruptStat.stallMask = !d.interruptStat.stallMask
	}
	if value&(1<<30) != 0 {
		d.interruptStat.mfifoMask = !d.interruptStat.mfifoMask
	}
	d.checkINT1()
}
