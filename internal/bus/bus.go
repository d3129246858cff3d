/*
   Emotion Engine core: external collaborator interfaces.

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

// Package bus declares the collaborator interfaces the interpreter and
// DMAC consume: main memory, the graphics interface's PATH3 sink, the
// subsystem interface's FIFOs, and the interrupt controller. Their
// implementations (memory-map routing, FIFO storage, pixel logic) are
// outside this core's scope; only the shape they present is specified
// here.
package bus

// Quadword is the DMAC's 16-byte transfer unit, held as two 64-bit
// little-endian halves (low doubleword first) rather than a byte
// array so GIF/SIF collaborators can consume it without a
// re-packing step.
type Quadword [2]uint64

// Bus is the shared main-memory mutator. Every access is
// little-endian; the interpreter and DMAC are the only callers.
type Bus interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Read64(addr uint32) uint64
	ReadQuad(addr uint32) Quadword

	Write8(addr uint32, v uint8)
	Write16(addr uint32, v uint16)
	Write32(addr uint32, v uint32)
	Write64(addr uint32, v uint64)
	WriteQuad(addr uint32, v Quadword)
}

// GIF is the graphics interface's DMAC-fed path.
type GIF interface {
	SendPATH3(quad Quadword)
}

// MaxFIFOSize bounds the subsystem interface's SIF1 FIFO; the DMAC
// gates SIF1 writes on the FIFO having room for four more 32-bit
// words, i.e. size <= MaxFIFOSize-4.
const MaxFIFOSize = 128

// SIF is the subsystem interface's pair of inbound/outbound FIFOs.
type SIF interface {
	ReadSIF0() uint32
	WriteSIF1(quad Quadword)
	SIF0Size() uint32
	SIF1Size() uint32
}

// Interrupt lines the timers raise on the interrupt controller. The
// four timer lines are contiguous starting at TIMER0.
type Interrupt uint32

const (
	IntTIMER0 Interrupt = iota
	IntTIMER1
	IntTIMER2
	IntTIMER3
)

// INTC is the interrupt controller: timers assert their line on
// overflow, the DMAC raises and lowers the aggregate INT1 signal as
// its per-channel stat/mask bits change.
type INTC interface {
	AssertIRQ(line Interrupt)
	SetINT1Signal(level bool)
}
