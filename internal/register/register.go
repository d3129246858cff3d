/*
   Emotion Engine register file: 128-bit GPRs, HI/LO pipelines, SA,
   and the program counter's branch-delay buffer.

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

package register

import "encoding/binary"

// BootPC is the address the PC is set to on reset.
const BootPC uint32 = 0xBFC00000

// GPR is a raw 128-bit general-purpose register cell. It is kept as
// a plain byte array rather than a tagged union so that mtc1/mfc1 and
// the byte/word/doubleword aliased views can all reinterpret the same
// bits without a conversion step.
type GPR [16]byte

// Word returns the 32-bit little-endian word at index 0..3.
func (g GPR) Word(idx int) uint32 {
	return binary.LittleEndian.Uint32(g[idx*4:])
}

// SetWord stores a 32-bit little-endian word at index 0..3.
func (g *GPR) SetWord(idx int, v uint32) {
	binary.LittleEndian.PutUint32(g[idx*4:], v)
}

// Double returns the 64-bit little-endian doubleword at index 0..1.
func (g GPR) Double(idx int) uint64 {
	return binary.LittleEndian.Uint64(g[idx*8:])
}

// SetDouble stores a 64-bit little-endian doubleword at index 0..1.
func (g *GPR) SetDouble(idx int, v uint64) {
	binary.LittleEndian.PutUint64(g[idx*8:], v)
}

// File holds the full Emotion Engine integer register state: the 32
// 128-bit GPRs, the two HI/LO multiply-divide banks, the shift-amount
// register, and the PC's branch-delay buffer.
type File struct {
	gpr [32]GPR
	hi  [2]uint64
	lo  [2]uint64
	sa  uint32

	pc            uint32
	pendingTarget uint32
	pendingCount  int
}

// New returns a register file reset to its boot state.
func New() *File {
	f := &File{}
	f.Reset()
	return f
}

// Reset clears all registers and sets PC to the boot address.
func (f *File) Reset() {
	for i := range f.gpr {
		f.gpr[i] = GPR{}
	}
	f.hi[0], f.hi[1] = 0, 0
	f.lo[0], f.lo[1] = 0, 0
	f.sa = 0
	f.pc = BootPC
	f.pendingTarget = 0
	f.pendingCount = 0
}

// GPR returns the raw 128-bit cell for reg. Register 0 always reads
// as the zero value, regardless of what was last written to it.
func (f *File) GPR(reg uint8) GPR {
	if reg == 0 {
		return GPR{}
	}
	return f.gpr[reg&0x1f]
}

// SetGPR stores the raw 128-bit cell for reg. Writes to register 0
// are discarded.
func (f *File) SetGPR(reg uint8, v GPR) {
	if reg == 0 {
		return
	}
	f.gpr[reg&0x1f] = v
}

// Word reads GPR reg as a 32-bit word view (index 0..3, word 0 is
// the least-significant).
func (f *File) Word(reg uint8, idx int) uint32 {
	if reg == 0 {
		return 0
	}
	return f.gpr[reg&0x1f].Word(idx)
}

// SetWord writes the 32-bit word view of GPR reg. Writes to register
// 0 are discarded.
func (f *File) SetWord(reg uint8, idx int, v uint32) {
	if reg == 0 {
		return
	}
	f.gpr[reg&0x1f].SetWord(idx, v)
}

// Double reads GPR reg as a 64-bit doubleword view (idx 0 = low,
// idx 1 = high).
func (f *File) Double(reg uint8, idx int) uint64 {
	if reg == 0 {
		return 0
	}
	return f.gpr[reg&0x1f].Double(idx)
}

// SetDouble writes the 64-bit doubleword view of GPR reg, leaving the
// other half of the 128-bit cell untouched.
func (f *File) SetDouble(reg uint8, idx int, v uint64) {
	if reg == 0 {
		return
	}
	f.gpr[reg&0x1f].SetDouble(idx, v)
}

// SetDoubleSext32 writes a 32-bit result sign-extended to 64 bits into
// doubleword 0, leaving the upper 64 bits of the register untouched
// (matches the SPECIAL-class shift/mult results, which only define
// the low doubleword).
func (f *File) SetDoubleSext32(reg uint8, v uint32) {
	f.SetDouble(reg, 0, uint64(int64(int32(v))))
}

// HI returns the HI register of the given pipeline bank (0 or 1).
func (f *File) HI(bank int) uint64 { return f.hi[bank&1] }

// SetHI sets the HI register of the given pipeline bank.
func (f *File) SetHI(bank int, v uint64) { f.hi[bank&1] = v }

// LO returns the LO register of the given pipeline bank (0 or 1).
func (f *File) LO(bank int) uint64 { return f.lo[bank&1] }

// SetLO sets the LO register of the given pipeline bank.
func (f *File) SetLO(bank int, v uint64) { f.lo[bank&1] = v }

// SA returns the shift-amount register.
func (f *File) SA() uint32 { return f.sa }

// SetSA sets the shift-amount register.
func (f *File) SetSA(v uint32) { f.sa = v }

// PC returns the current program counter.
func (f *File) PC() uint32 { return f.pc }

// SetPC forces the program counter, bypassing the branch-delay buffer.
func (f *File) SetPC(v uint32) { f.pc = v }

// AdvancePC moves PC forward by n bytes (the normal per-instruction
// advance, or +8 to skip a not-taken branch-likely's delay slot).
func (f *File) AdvancePC(n uint32) { f.pc += n }

// ScheduleBranch records a pending control transfer: the delay-slot
// instruction (the one immediately following this one) still executes
// before target takes effect.
func (f *File) ScheduleBranch(target uint32) {
	f.pendingTarget = target
	f.pendingCount = 1
}

// BeginStep captures and decrements any pending-branch state set by a
// previous step, returning whether a branch was pending and, if so,
// its target. Call this before fetching the current instruction.
func (f *File) BeginStep() (wasPending bool, target uint32) {
	wasPending = f.pendingCount > 0
	target = f.pendingTarget
	if wasPending {
		f.pendingCount--
	}
	return wasPending, target
}

// EndStep applies a pending branch's target to PC once its delay slot
// has executed (countdown reached zero this step).
func (f *File) EndStep(wasPending bool, target uint32) {
	if wasPending && f.pendingCount == 0 {
		f.pc = target
	}
}

// HasPendingBranch reports whether a branch is currently in its delay
// slot (countdown not yet reached zero).
func (f *File) HasPendingBranch() bool { return f.pendingCount > 0 }
