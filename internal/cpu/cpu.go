/*
   Emotion Engine instruction interpreter: fetch/decode/execute with
   the delay-slot branch protocol, wired to the register file, the
   Cop1 FPU, main memory, and the interrupt controller.

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

// Package cpu implements the Emotion Engine's main-pipeline
// instruction interpreter: one MIPS-III-like instruction decoded and
// executed per Step call, with the branch-delay-slot countdown
// protocol.
package cpu

import (
	"github.com/rcornwell/eecore/internal/bus"
	"github.com/rcornwell/eecore/internal/cop1"
	"github.com/rcornwell/eecore/internal/logging"
	"github.com/rcornwell/eecore/internal/register"
)

// Pseudo-exception codes every op* method returns. Zero means the
// instruction completed normally; anything else is logged and
// execution continues (these are architecturally defined conditions
// whose vectoring is out of this core's scope).
const (
	excNone uint16 = iota
	excDecodeUnknown
	excAlignment
	excOverflow
	excTagUnknown
)

// CPU holds the interpreter's wiring: the register file and FPU it
// mutates, and the bus/interrupt-controller collaborators it reads
// and writes through.
type CPU struct {
	Reg  *register.File
	FPU  *cop1.FPU
	bus  bus.Bus
	intc bus.INTC

	cop0 [32]uint32 // minimal system-control register file for mfc0/mtc0
	ei   bool       // interrupts enabled, set/cleared by ei/di
	int1 bool       // DMAC's aggregate INT1 line, latched by SetINT1Signal
}

// New returns an interpreter wired to the given bus and interrupt
// controller, with a fresh register file and FPU reset to boot state.
func New(b bus.Bus, intc bus.INTC) *CPU {
	c := &CPU{
		Reg:  register.New(),
		FPU:  cop1.New(),
		bus:  b,
		intc: intc,
	}
	return c
}

// Reset returns the interpreter to its boot state: registers zeroed,
// PC at the boot address, FPU condition cleared.
func (c *CPU) Reset() {
	c.Reg.Reset()
	c.FPU.Reset()
	for i := range c.cop0 {
		c.cop0[i] = 0
	}
	c.ei = false
}

// SetINT1Signal implements bus.INTC's half the DMAC uses to report its
// aggregate interrupt line. The level is only latched: it is not
// reflected in any cop0 register and is not vectored.
func (c *CPU) SetINT1Signal(level bool) { c.int1 = level }

// Step fetches and executes exactly one instruction, applying any
// branch scheduled by a previous step once its delay slot has run.
func (c *CPU) Step() {
	wasPending, target := c.Reg.BeginStep()
	pc := c.Reg.PC()
	instr := c.bus.Read32(pc)

	advance, code := c.execute(instr, pc)
	if code != excNone {
		logging.Log.Warn("cpu exception", "code", code, "pc", pc, "instr", instr)
	}
	c.Reg.AdvancePC(advance)
	c.Reg.EndStep(wasPending, target)
}

// execute decodes instr (fetched from pc) and performs its effect,
// returning how far to advance PC (4 normally, 8 when a branch-likely
// predicate was false and the delay slot must be skipped) and a
// pseudo-exception code.
func (c *CPU) execute(instr, pc uint32) (uint32, uint16) {
	if instr == 0 {
		return 4, excNone // nop
	}
	switch instr >> 26 {
	case 0x00:
		return c.special(instr)
	case 0x01:
		return c.regimm(instr, pc)
	case 0x02:
		c.Reg.ScheduleBranch(jumpTarget(instr, pc))
		return 4, excNone
	case 0x03:
		c.Reg.SetDoubleSext32(31, pc+8)
		c.Reg.ScheduleBranch(jumpTarget(instr, pc))
		return 4, excNone
	case 0x04:
		return c.branchCond(instr, pc, c.gprS(rs(instr)) == c.gprS(rt(instr)), false)
	case 0x05:
		return c.branchCond(instr, pc, c.gprS(rs(instr)) != c.gprS(rt(instr)), false)
	case 0x06:
		return c.branchCond(instr, pc, c.gprS(rs(instr)) <= 0, false)
	case 0x07:
		return c.branchCond(instr, pc, c.gprS(rs(instr)) > 0, false)
	case 0x08:
		sum := int64(int32(c.word(rs(instr)))) + int64(immS(instr))
		c.setWordSext(rt(instr), uint32(int32(sum)))
		if sum != int64(int32(sum)) {
			return 4, excOverflow
		}
		return 4, excNone
	case 0x09:
		c.setWordSext(rt(instr), c.word(rs(instr))+uint32(immS(instr)))
		return 4, excNone
	case 0x0a:
		c.setBool(rt(instr), int64(c.Reg.Double(rs(instr), 0)) < int64(immS(instr)))
		return 4, excNone
	case 0x0b:
		c.setBool(rt(instr), c.Reg.Double(rs(instr), 0) < uint64(int64(immS(instr))))
		return 4, excNone
	case 0x0c:
		c.Reg.SetDouble(rt(instr), 0, c.Reg.Double(rs(instr), 0)&uint64(immU(instr)))
		return 4, excNone
	case 0x0d:
		c.Reg.SetDouble(rt(instr), 0, c.Reg.Double(rs(instr), 0)|uint64(immU(instr)))
		return 4, excNone
	case 0x0e:
		c.Reg.SetDouble(rt(instr), 0, c.Reg.Double(rs(instr), 0)^uint64(immU(instr)))
		return 4, excNone
	case 0x0f:
		c.setWordSext(rt(instr), uint32(immS(instr))<<16)
		return 4, excNone
	case 0x10, 0x11, 0x12, 0x13:
		return c.cop(instr, pc)
	case 0x14:
		return c.branchCond(instr, pc, c.gprS(rs(instr)) == c.gprS(rt(instr)), true)
	case 0x15:
		return c.branchCond(instr, pc, c.gprS(rs(instr)) != c.gprS(rt(instr)), true)
	case 0x16:
		return c.branchCond(instr, pc, c.gprS(rs(instr)) <= 0, true)
	case 0x17:
		return c.branchCond(instr, pc, c.gprS(rs(instr)) > 0, true)
	case 0x19:
		c.Reg.SetDouble(rt(instr), 0, c.Reg.Double(rs(instr), 0)+uint64(int64(immS(instr))))
		return 4, excNone
	case 0x1a:
		return c.ldl(instr)
	case 0x1b:
		return c.ldr(instr)
	case 0x1c:
		return c.mmi(instr)
	case 0x1e:
		return c.lq(instr)
	case 0x1f:
		return c.sq(instr)
	case 0x20:
		return c.lb(instr)
	case 0x21:
		return c.lh(instr)
	case 0x22:
		return c.lwl(instr)
	case 0x23:
		return c.lw(instr)
	case 0x24:
		return c.lbu(instr)
	case 0x25:
		return c.lhu(instr)
	case 0x26:
		return c.lwr(instr)
	case 0x27:
		return c.lwu(instr)
	case 0x28:
		return c.sb(instr)
	case 0x29:
		return c.sh(instr)
	case 0x2a:
		return c.swl(instr)
	case 0x2b:
		return c.sw(instr)
	case 0x2c:
		return c.sdl(instr)
	case 0x2d:
		return c.sdr(instr)
	case 0x2e:
		return c.swr(instr)
	case 0x2f:
		return 4, excNone // cache: no cache model in this core
	case 0x31:
		c.FPU.SetRaw(uint8(rt(instr)), c.bus.Read32(c.effAddr(instr)))
		return 4, excNone
	case 0x36:
		return 4, excNone // TODO: lqc2 (VU0 memory, out of scope)
	case 0x37:
		return c.ld(instr)
	case 0x39:
		c.bus.Write32(c.effAddr(instr), c.FPU.Raw(uint8(rt(instr))))
		return 4, excNone
	case 0x3e:
		return 4, excNone // TODO: sqc2
	case 0x3f:
		return c.sd(instr)
	default:
		return 4, excDecodeUnknown
	}
}

func jumpTarget(instr, pc uint32) uint32 {
	return ((pc + 4) & 0xf0000000) | ((instr & 0x3ffffff) << 2)
}

func branchTarget(instr, pc uint32) uint32 {
	return pc + 4 + uint32(immS(instr)<<2)
}

// branchCond schedules a branch when taken is true; when not and
// likely is set, the delay slot is skipped entirely (PC+8) instead of
// scheduling a branch.
func (c *CPU) branchCond(instr, pc uint32, taken, likely bool) (uint32, uint16) {
	if taken {
		c.Reg.ScheduleBranch(branchTarget(instr, pc))
		return 4, excNone
	}
	if likely {
		return 8, excNone
	}
	return 4, excNone
}

func rs(instr uint32) uint8  { return uint8((instr >> 21) & 0x1f) }
func rt(instr uint32) uint8  { return uint8((instr >> 16) & 0x1f) }
func rd(instr uint32) uint8  { return uint8((instr >> 11) & 0x1f) }
func sa(instr uint32) uint8  { return uint8((instr >> 6) & 0x1f) }
func fn(instr uint32) uint32 { return instr & 0x3f }
func immS(instr uint32) int32  { return int32(int16(instr & 0xffff)) }
func immU(instr uint32) uint32 { return instr & 0xffff }

// word reads reg's low 32-bit word.
func (c *CPU) word(reg uint8) uint32 { return c.Reg.Word(reg, 0) }

// gprS reads reg's low doubleword as a signed 64-bit value, the form
// every branch comparison uses.
func (c *CPU) gprS(reg uint8) int64 { return int64(c.Reg.Double(reg, 0)) }

// setWordSext writes v into reg as a 32-bit result sign-extended into
// the full 64-bit doubleword, the normal SPECIAL/immediate-math result
// shape.
func (c *CPU) setWordSext(reg uint8, v uint32) { c.Reg.SetDoubleSext32(reg, v) }

func (c *CPU) setBool(reg uint8, v bool) {
	if v {
		c.setWordSext(reg, 1)
	} else {
		c.setWordSext(reg, 0)
	}
}

// effAddr computes rs + sign_extend(imm16), the standard load/store
// effective-address form.
func (c *CPU) effAddr(instr uint32) uint32 {
	return c.word(rs(instr)) + uint32(immS(instr))
}
