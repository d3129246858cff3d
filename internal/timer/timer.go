/*
   EE timer block: four free-running 16-bit counters clocked from the
   interpreter's cycle accounting rather than wall-clock time.

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

// Package timer implements the Emotion Engine's four free-running
// counters, each with its own clock-accumulator divider and compare
// register, ticked once per driver round.
package timer

import (
	"github.com/rcornwell/eecore/internal/bus"
	"github.com/rcornwell/eecore/internal/logging"
)

const numTimers = 4

// Clock modes: mode 0 divides the incoming clock by 2 before the
// counter advances; mode 3 divides by 15000, an approximation of
// HSYNC-rate counting. Modes 1 and 2 are recognized
// but unimplemented beyond falling back to mode 0's divider, since
// this core has no pixel/VBLANK clock source to drive them precisely.
const (
	modeBusClock = iota
	modeBusClock16
	modeHBlank
	modeHSync
)

func threshold(mode uint32) uint32 {
	if mode == modeHSync {
		return 15000
	}
	return 2
}

// control bit layout for a timer's mode register.
const (
	ctrlModeSh       = 0
	ctrlModeMask     = 0x3
	ctrlGateEnable   = 1 << 2
	ctrlEnable       = 1 << 7
	ctrlCompareInt   = 1 << 8
	ctrlOverflowInt  = 1 << 9
	ctrlEqualFlag    = 1 << 10
	ctrlOverflowFlag = 1 << 11
)

// unit is one of the four counters.
type unit struct {
	counter uint16
	compare uint16
	control uint32
	clocks  uint32
}

func (u *unit) enabled() bool { return u.control&ctrlEnable != 0 }

// Timers is the full four-counter block, wired to the interrupt
// controller for overflow/compare IRQ delivery.
type Timers struct {
	units [numTimers]unit
	intc  bus.INTC
}

// New returns a Timers block wired to intc, reset to boot state.
func New(intc bus.INTC) *Timers {
	t := &Timers{intc: intc}
	t.Reset()
	return t
}

// Reset clears every counter, compare register, and control word.
func (t *Timers) Reset() {
	for i := range t.units {
		t.units[i] = unit{}
	}
}

// Step advances every enabled timer by one clock, one call per
// driver round. On counter overflow past 0xFFFF it wraps to 0 and, if
// overflow_int_enable is set, asserts IntTIMER0+index on the
// interrupt controller.
func (t *Timers) Step() {
	for i := range t.units {
		t.tick(i)
	}
}

func (t *Timers) tick(index int) {
	u := &t.units[index]
	if !u.enabled() {
		return
	}
	mode := (u.control >> ctrlModeSh) & ctrlModeMask
	thresh := threshold(mode)

	u.clocks++
	if u.clocks < thresh {
		return
	}
	u.clocks -= thresh

	if u.counter == u.compare {
		u.control |= ctrlEqualFlag
		if u.control&ctrlCompareInt != 0 {
			t.assertIRQ(index)
		}
	}

	if u.counter == 0xFFFF {
		u.counter = 0
		u.control |= ctrlOverflowFlag
		if u.control&ctrlOverflowInt != 0 {
			t.assertIRQ(index)
		}
		return
	}
	u.counter++
}

func (t *Timers) assertIRQ(index int) {
	if t.intc != nil {
		t.intc.AssertIRQ(bus.IntTIMER0 + bus.Interrupt(index))
	}
}

// MMIO addresses of the timer block's registers.
const (
	addrT0Counter = 0x10000000
	addrT0Control = 0x10000010
	addrT1Control = 0x10000810
	addrT2Control = 0x10001010
	addrT3Control = 0x10001810
	addrT3Compare = 0x10001820
)

// Read32 serves the MMIO register map's readable fields. Only the T0
// counter is readable; any other address logs and returns 0.
func (t *Timers) Read32(addr uint32) uint32 {
	switch addr {
	case addrT0Counter:
		return uint32(t.units[0].counter)
	default:
		logging.Log.Warn("timer: MMIO read from unrecognized address", "addr", addr)
		return 0
	}
}

// Write32 serves the MMIO register map's writable fields: each
// timer's control register, and T3's low-16-bit compare register.
// Writing 1 to control bits 10 or 11 clears the corresponding latched
// interrupt flag; all other bits are copied verbatim.
func (t *Timers) Write32(addr uint32, value uint32) {
	switch addr {
	case addrT0Control:
		t.writeControl(0, value)
	case addrT1Control:
		t.writeControl(1, value)
	case addrT2Control:
		t.writeControl(2, value)
	case addrT3Control:
		t.writeControl(3, value)
	case addrT3Compare:
		t.units[3].compare = uint16(value)
	}
}

func (t *Timers) writeControl(index int, value uint32) {
	u := &t.units[index]
	const flagBits = ctrlEqualFlag | ctrlOverflowFlag
	flags := u.control & flagBits &^ (value & flagBits)
	u.control = (value &^ flagBits) | flags
}
