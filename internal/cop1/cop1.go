/*
   Cop1: the Emotion Engine's non-IEEE single-precision FPU.

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

// Package cop1 implements the Emotion Engine's coprocessor 1: 32
// single-precision registers stored as raw bit patterns, one
// accumulator, and a single condition flag. Unlike a real IEEE-754
// unit it never signals, traps, or produces NaN/Inf results: any
// operand whose biased exponent field reads all-ones is first
// saturated to the largest finite magnitude of the same sign, and
// every arithmetic result is computed from ordinary float32 math
// after that conversion.
package cop1

import "math"

// Control/status register values the interpreter needs for fctc1/cfc1.
const (
	// fcr0 is the fixed "implementation and revision" value cfc1
	// returns for index 0 on real EE hardware.
	fcr0 = 0x2E00
)

// FPU holds the 32 single-precision registers, the accumulator used
// by madd/msub, and the one-bit condition flag c.cond.s family
// instructions set and bc1t/bc1f read.
type FPU struct {
	regs [32]uint32
	acc  uint32
	cond bool
}

// New returns a zeroed FPU.
func New() *FPU { return &FPU{} }

// Reset zeroes every register, the accumulator, and the condition flag.
func (f *FPU) Reset() {
	for i := range f.regs {
		f.regs[i] = 0
	}
	f.acc = 0
	f.cond = false
}

// Raw returns the raw 32-bit pattern stored in register reg, with no
// conversion applied; used by mtc1/mfc1 and by mov.s/neg.s/abs.s,
// which operate on bit patterns rather than converted values.
func (f *FPU) Raw(reg uint8) uint32 { return f.regs[reg&0x1f] }

// SetRaw stores a raw 32-bit pattern into register reg with no
// conversion; used by mtc1 and by operations that write an
// unconverted result (mov.s, neg.s, abs.s).
func (f *FPU) SetRaw(reg uint8, v uint32) { f.regs[reg&0x1f] = v }

// convert saturates any value whose biased exponent is all-ones
// (0x7F800000) to the largest finite magnitude of the same sign. The
// EE FPU has no representation for infinity or NaN: every value that
// would be one is clamped to +-Float32Max before it reaches the ALU.
func convert(raw uint32) uint32 {
	if raw&0x7F800000 == 0x7F800000 {
		return (raw & 0x80000000) | 0x7F7FFFFF
	}
	return raw
}

// F reads register reg as a float32, applying the saturating
// conversion first. This is what every arithmetic operation (other
// than mov.s/neg.s/abs.s) reads its operands through.
func (f *FPU) F(reg uint8) float32 {
	return math.Float32frombits(convert(f.regs[reg&0x1f]))
}

// SetF stores v into register reg as a raw bit pattern, saturating it
// through the same convert used on operand reads: arithmetic that
// overflows to +-Inf (or produces NaN, e.g. Inf-Inf) lands as the
// same-sign max-finite pattern rather than an IEEE special value,
// matching the hardware's avoidance of infinities/NaNs end to end.
func (f *FPU) SetF(reg uint8, v float32) {
	f.regs[reg&0x1f] = convert(math.Float32bits(v))
}

// Cond returns the condition flag set by c.eq.s/c.lt.s/c.le.s and
// read by bc1t/bc1f.
func (f *FPU) Cond() bool { return f.cond }

// Add computes fd = fs + ft (add.s).
func (f *FPU) Add(fd, fs, ft uint8) { f.SetF(fd, f.F(fs)+f.F(ft)) }

// Sub computes fd = fs - ft (sub.s).
func (f *FPU) Sub(fd, fs, ft uint8) { f.SetF(fd, f.F(fs)-f.F(ft)) }

// Mul computes fd = fs * ft (mul.s).
func (f *FPU) Mul(fd, fs, ft uint8) { f.SetF(fd, f.F(fs)*f.F(ft)) }

// Div computes fd = fs / ft (div.s). The EE FPU has no divide
// exception; dividing by zero produces whatever IEEE float32 division
// of the converted operands yields (+-Inf or NaN), which SetF then
// saturates to the same-sign max-finite pattern as it is stored.
func (f *FPU) Div(fd, fs, ft uint8) { f.SetF(fd, f.F(fs)/f.F(ft)) }

// Sqrt computes fd = sqrt(fs) (sqrt.s).
func (f *FPU) Sqrt(fd, fs uint8) { f.SetF(fd, float32(math.Sqrt(float64(f.F(fs))))) }

// Rsqrt computes fd = fs / sqrt(ft) (rsqrt.s), the EE's fused
// reciprocal-square-root instruction.
func (f *FPU) Rsqrt(fd, fs, ft uint8) {
	f.SetF(fd, f.F(fs)/float32(math.Sqrt(float64(f.F(ft)))))
}

// Mov copies fs to fd as a raw bit pattern, bypassing conversion
// (mov.s).
func (f *FPU) Mov(fd, fs uint8) { f.regs[fd&0x1f] = f.regs[fs&0x1f] }

// Neg flips the sign bit of fs's raw pattern into fd, bypassing
// conversion (neg.s): the stored pattern is negated as-is, never
// saturated first.
func (f *FPU) Neg(fd, fs uint8) {
	f.regs[fd&0x1f] = f.regs[fs&0x1f] ^ 0x80000000
}

// Abs clears the sign bit of fs's raw pattern into fd, bypassing
// conversion (abs.s).
func (f *FPU) Abs(fd, fs uint8) {
	f.regs[fd&0x1f] = f.regs[fs&0x1f] &^ 0x80000000
}

// Adda adds fs and ft (converted) into the accumulator (adda.s).
func (f *FPU) Adda(fs, ft uint8) {
	f.acc = math.Float32bits(f.F(fs) + f.F(ft))
}

// Suba subtracts ft from fs (converted) into the accumulator (suba.s).
func (f *FPU) Suba(fs, ft uint8) {
	f.acc = math.Float32bits(f.F(fs) - f.F(ft))
}

// Madda adds fs*ft (converted) to the accumulator, storing the sum
// back into the accumulator (madda.s).
func (f *FPU) Madda(fs, ft uint8) {
	acc := math.Float32frombits(convert(f.acc))
	f.acc = math.Float32bits(acc + f.F(fs)*f.F(ft))
}

// Msuba subtracts fs*ft (converted) from the accumulator (msuba.s).
func (f *FPU) Msuba(fs, ft uint8) {
	acc := math.Float32frombits(convert(f.acc))
	f.acc = math.Float32bits(acc - f.F(fs)*f.F(ft))
}

// Madd computes fd = acc + fs*ft, all three operands converted
// (madd.s).
func (f *FPU) Madd(fd, fs, ft uint8) {
	acc := math.Float32frombits(convert(f.acc))
	f.SetF(fd, acc+f.F(fs)*f.F(ft))
}

// Msub computes fd = acc - fs*ft, all three operands converted
// (msub.s).
func (f *FPU) Msub(fd, fs, ft uint8) {
	acc := math.Float32frombits(convert(f.acc))
	f.SetF(fd, acc-f.F(fs)*f.F(ft))
}

// CvtWS converts fs from float to a 32-bit integer by truncation
// (cvt.w.s), storing the raw result bits into fd. Values too large
// for int32 clamp to the maximum/minimum representable value, as the
// real hardware does rather than overflowing silently.
func (f *FPU) CvtWS(fd, fs uint8) {
	v := float64(f.F(fs))
	var i int32
	switch {
	case v >= float64(math.MaxInt32):
		i = math.MaxInt32
	case v <= float64(math.MinInt32):
		i = math.MinInt32
	default:
		i = int32(v)
	}
	f.regs[fd&0x1f] = uint32(i)
}

// CvtSW converts the 32-bit integer stored in fs's raw pattern to a
// float, rounding to nearest (cvt.s.w), storing the result into fd.
func (f *FPU) CvtSW(fd, fs uint8) {
	i := int32(f.regs[fs&0x1f])
	f.SetF(fd, float32(i))
}

// CEqS sets the condition flag to fs == ft, comparing raw bit
// patterns reinterpreted as float32 with no saturating conversion
// (c.eq.s reads operands the same way mov.s does).
func (f *FPU) CEqS(fs, ft uint8) {
	f.cond = math.Float32frombits(f.regs[fs&0x1f]) == math.Float32frombits(f.regs[ft&0x1f])
}

// CLtS sets the condition flag to fs < ft (c.lt.s), raw comparison.
func (f *FPU) CLtS(fs, ft uint8) {
	f.cond = math.Float32frombits(f.regs[fs&0x1f]) < math.Float32frombits(f.regs[ft&0x1f])
}

// CLeS sets the condition flag to fs <= ft (c.le.s), raw comparison.
func (f *FPU) CLeS(fs, ft uint8) {
	f.cond = math.Float32frombits(f.regs[fs&0x1f]) <= math.Float32frombits(f.regs[ft&0x1f])
}

// Cfc1 implements ctc1's read-side counterpart for control register
// index. Index 0 is fixed implementation/revision data; index 31 is
// the condition flag shifted into bit 23 as the real control/status
// register packs it; any other index reads as zero (this core does
// not model the exception-enable or cause fields).
func (f *FPU) Cfc1(index uint8) uint32 {
	switch index {
	case 0:
		return fcr0
	case 31:
		if f.cond {
			return 1 << 23
		}
		return 0
	default:
		return 0
	}
}

// Ctc1 implements the control register write side for index 31,
// setting the condition flag from bit 23 of value. Writes to any
// other index are accepted and discarded, matching the real unit's
// read-only fcr0.
func (f *FPU) Ctc1(index uint8, value uint32) {
	if index == 31 {
		f.cond = value&(1<<23) != 0
	}
}
