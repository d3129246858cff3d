/*
   REGIMM, coprocessor dispatch (cop0 system control, cop1 FPU, cop2
   VU0 decode recognition), and the FPU-S sub-dispatch under COP1.

   Copyright (c) 2024, Richard Cornwell. See cpu.go for license text.
*/

package cpu

func (c *CPU) regimm(instr, pc uint32) (uint32, uint16) {
	switch rt(instr) {
	case 0x00:
		return c.branchCond(instr, pc, c.gprS(rs(instr)) < 0, false)
	case 0x01:
		return c.branchCond(instr, pc, c.gprS(rs(instr)) >= 0, false)
	case 0x02:
		return c.branchCond(instr, pc, c.gprS(rs(instr)) < 0, true)
	case 0x03:
		return c.branchCond(instr, pc, c.gprS(rs(instr)) >= 0, true)
	case 0x19:
		c.Reg.SetSA(c.word(rs(instr)) & immU(instr))
		return 4, excNone
	default:
		return 4, excDecodeUnknown
	}
}

// cop dispatches the coprocessor-class primary opcodes 0x10-0x13; rs
// selects the sub-operation (mfc/mtc/cfc/ctc, the branch-on-condition
// family, and each coprocessor's own extension block).
func (c *CPU) cop(instr, pc uint32) (uint32, uint16) {
	copID := (instr >> 26) & 0x3
	switch rs(instr) {
	case 0x00:
		return c.mfc(instr, copID)
	case 0x04:
		return c.mtc(instr, copID)
	case 0x02:
		return c.cfc(instr, copID)
	case 0x06:
		return c.ctc(instr, copID)
	case 0x08:
		return c.bc(instr, pc, copID)
	case 0x10:
		if copID == 0 {
			return c.cop0System(instr)
		}
		if copID == 1 {
			return c.fpuS(instr)
		}
		return 4, excDecodeUnknown
	case 0x14:
		if copID == 1 {
			c.FPU.CvtSW(uint8(sa(instr)), uint8(rd(instr)))
			return 4, excNone
		}
		return 4, excDecodeUnknown
	default:
		if copID == 2 {
			return c.cop2(instr)
		}
		return 4, excDecodeUnknown
	}
}

func (c *CPU) mfc(instr uint32, copID uint32) (uint32, uint16) {
	switch copID {
	case 0:
		c.setWordSext(rt(instr), c.cop0[rd(instr)])
	case 1:
		c.setWordSext(rt(instr), c.FPU.Raw(uint8(rd(instr))))
	default:
		return 4, excDecodeUnknown
	}
	return 4, excNone
}

func (c *CPU) mtc(instr uint32, copID uint32) (uint32, uint16) {
	switch copID {
	case 0:
		c.cop0[rd(instr)&0x1f] = c.word(rt(instr))
	case 1:
		c.FPU.SetRaw(uint8(rd(instr)), c.word(rt(instr)))
	default:
		return 4, excDecodeUnknown
	}
	return 4, excNone
}

func (c *CPU) cfc(instr uint32, copID uint32) (uint32, uint16) {
	if copID != 1 {
		return 4, excDecodeUnknown
	}
	c.setWordSext(rt(instr), c.FPU.Cfc1(uint8(rd(instr))))
	return 4, excNone
}

func (c *CPU) ctc(instr uint32, copID uint32) (uint32, uint16) {
	if copID != 1 {
		return 4, excDecodeUnknown
	}
	c.FPU.Ctc1(uint8(rd(instr)), c.word(rt(instr)))
	return 4, excNone
}

// bc implements bc1f/bc1t/bc1fl/bc1tl; the predicate to branch on
// (rt field 0..3) is decoded the same way the disassembler reads it.
func (c *CPU) bc(instr, pc uint32, copID uint32) (uint32, uint16) {
	if copID != 1 {
		return 4, excDecodeUnknown
	}
	op := rt(instr)
	if op > 3 {
		return 4, excDecodeUnknown
	}
	likely := op == 1 || op == 3
	want := op == 2 || op == 3
	return c.branchCond(instr, pc, c.FPU.Cond() == want, likely)
}

// cop0System implements the cop0 0x10-prefixed TLB/exception-return
// stubs (tlbwi, eret, ei, di). This core carries no TLB or exception
// vector model, so tlbwi/eret are recognized and otherwise inert; ei/di
// set and clear the CPU's internal interrupt-enable flag, which nothing
// else in this core reads.
func (c *CPU) cop0System(instr uint32) (uint32, uint16) {
	switch fn(instr) {
	case 0x02: // tlbwi
		return 4, excNone
	case 0x18: // eret
		return 4, excNone
	case 0x38: // ei
		c.ei = true
		return 4, excNone
	case 0x39: // di
		c.ei = false
		return 4, excNone
	default:
		return 4, excDecodeUnknown
	}
}

// fpuS implements the COP1 function-field sub-dispatch for the FPU-S
// class.
func (c *CPU) fpuS(instr uint32) (uint32, uint16) {
	fd, fs, ft := sa(instr), rd(instr), rt(instr)
	switch fn(instr) {
	case 0x00:
		c.FPU.Add(fd, fs, ft)
	case 0x01:
		c.FPU.Sub(fd, fs, ft)
	case 0x02:
		c.FPU.Mul(fd, fs, ft)
	case 0x03:
		c.FPU.Div(fd, fs, ft)
	case 0x04:
		c.FPU.Sqrt(fd, fs)
	case 0x05:
		c.FPU.Abs(fd, fs)
	case 0x06:
		c.FPU.Mov(fd, fs)
	case 0x07:
		c.FPU.Neg(fd, fs)
	case 0x16:
		c.FPU.Rsqrt(fd, fs, ft)
	case 0x18:
		c.FPU.Adda(fs, ft)
	case 0x19:
		c.FPU.Suba(fs, ft)
	case 0x1c:
		c.FPU.Madd(fd, fs, ft)
	case 0x1e:
		c.FPU.Madda(fs, ft)
	case 0x1f:
		c.FPU.Msuba(fs, ft)
	case 0x1d:
		c.FPU.Msub(fd, fs, ft)
	case 0x24:
		c.FPU.CvtWS(fd, fs)
	case 0x32:
		c.FPU.CEqS(fs, ft)
	case 0x34:
		c.FPU.CLtS(fs, ft)
	case 0x36:
		c.FPU.CLeS(fs, ft)
	default:
		return 4, excDecodeUnknown
	}
	return 4, excNone
}

// cop2 recognizes a minimal VU0 decode surface (qmfc2, vsub.<field>,
// viswr.<field>) without modeling VU0 state; VU0/VU1 execution proper
// is out of this core's scope.
func (c *CPU) cop2(instr uint32) (uint32, uint16) {
	op := rs(instr)
	if op >= 0x10 {
		return 4, excNone // vsub/viswr family: decode-only
	}
	switch op {
	case 0x01: // qmfc2
		return 4, excNone
	default:
		return 4, excDecodeUnknown
	}
}
