/*
   SPECIAL-class (primary opcode 0x00) instruction semantics: shifts,
   jumps through registers, the HI/LO multiply-divide bank, and the
   32/64-bit ALU ops.

   Copyright (c) 2024, Richard Cornwell. See cpu.go for license text.
*/

package cpu

import "math"

func (c *CPU) special(instr uint32) (uint32, uint16) {
	switch fn(instr) {
	case 0x00:
		c.setWordSext(rd(instr), c.word(rt(instr))<<sa(instr))
		return 4, excNone
	case 0x02:
		c.setWordSext(rd(instr), c.word(rt(instr))>>sa(instr))
		return 4, excNone
	case 0x03:
		c.setWordSext(rd(instr), uint32(int32(c.word(rt(instr)))>>sa(instr)))
		return 4, excNone
	case 0x04:
		c.setWordSext(rd(instr), c.word(rt(instr))<<(c.word(rs(instr))&0x1f))
		return 4, excNone
	case 0x06:
		c.setWordSext(rd(instr), c.word(rt(instr))>>(c.word(rs(instr))&0x1f))
		return 4, excNone
	case 0x07:
		sh := c.word(rs(instr)) & 0x1f
		c.setWordSext(rd(instr), uint32(int32(c.word(rt(instr)))>>sh))
		return 4, excNone
	case 0x08:
		c.Reg.ScheduleBranch(c.word(rs(instr)))
		return 4, excNone
	case 0x09:
		pc := c.Reg.PC()
		c.Reg.SetDoubleSext32(rd(instr), pc+8)
		c.Reg.ScheduleBranch(c.word(rs(instr)))
		return 4, excNone
	case 0x0a: // movz
		if c.Reg.Double(rt(instr), 0) == 0 {
			c.Reg.SetDouble(rd(instr), 0, c.Reg.Double(rs(instr), 0))
		}
		return 4, excNone
	case 0x0b: // movn
		if c.Reg.Double(rt(instr), 0) != 0 {
			c.Reg.SetDouble(rd(instr), 0, c.Reg.Double(rs(instr), 0))
		}
		return 4, excNone
	case 0x0c:
		return 4, excNone // syscall: no kernel model in this core
	case 0x0f:
		return 4, excNone // sync: single-threaded core, no-op
	case 0x10:
		c.Reg.SetDouble(rd(instr), 0, c.Reg.HI(0))
		return 4, excNone
	case 0x11:
		c.Reg.SetHI(0, c.Reg.Double(rs(instr), 0))
		return 4, excNone
	case 0x12:
		c.Reg.SetDouble(rd(instr), 0, c.Reg.LO(0))
		return 4, excNone
	case 0x13:
		c.Reg.SetLO(0, c.Reg.Double(rs(instr), 0))
		return 4, excNone
	case 0x14:
		c.Reg.SetDouble(rd(instr), 0, c.Reg.Double(rt(instr), 0)<<(c.word(rs(instr))&0x3f))
		return 4, excNone
	case 0x16:
		c.Reg.SetDouble(rd(instr), 0, c.Reg.Double(rt(instr), 0)>>(c.word(rs(instr))&0x3f))
		return 4, excNone
	case 0x17:
		sh := c.word(rs(instr)) & 0x3f
		c.Reg.SetDouble(rd(instr), 0, uint64(int64(c.Reg.Double(rt(instr), 0))>>sh))
		return 4, excNone
	case 0x18:
		return c.mult(instr, false)
	case 0x19:
		return c.mult(instr, true)
	case 0x1a:
		return c.div(instr, false)
	case 0x1b:
		return c.div(instr, true)
	case 0x20:
		return c.addOv(instr, false)
	case 0x21:
		c.setWordSext(rd(instr), c.word(rs(instr))+c.word(rt(instr)))
		return 4, excNone
	case 0x22:
		return c.addOv(instr, true)
	case 0x23:
		c.setWordSext(rd(instr), c.word(rs(instr))-c.word(rt(instr)))
		return 4, excNone
	case 0x24:
		c.Reg.SetDouble(rd(instr), 0, c.Reg.Double(rs(instr), 0)&c.Reg.Double(rt(instr), 0))
		return 4, excNone
	case 0x25:
		c.Reg.SetDouble(rd(instr), 0, c.Reg.Double(rs(instr), 0)|c.Reg.Double(rt(instr), 0))
		return 4, excNone
	case 0x26:
		c.Reg.SetDouble(rd(instr), 0, c.Reg.Double(rs(instr), 0)^c.Reg.Double(rt(instr), 0))
		return 4, excNone
	case 0x27:
		c.Reg.SetDouble(rd(instr), 0, ^(c.Reg.Double(rs(instr), 0) | c.Reg.Double(rt(instr), 0)))
		return 4, excNone
	case 0x28:
		c.Reg.SetDoubleSext32(rd(instr), c.Reg.SA())
		return 4, excNone
	case 0x29:
		c.Reg.SetSA(c.word(rs(instr)))
		return 4, excNone
	case 0x2a:
		c.setBool(rd(instr), int64(c.Reg.Double(rs(instr), 0)) < int64(c.Reg.Double(rt(instr), 0)))
		return 4, excNone
	case 0x2b:
		c.setBool(rd(instr), c.Reg.Double(rs(instr), 0) < c.Reg.Double(rt(instr), 0))
		return 4, excNone
	case 0x2c:
		c.Reg.SetDouble(rd(instr), 0, c.Reg.Double(rs(instr), 0)+c.Reg.Double(rt(instr), 0))
		return 4, excNone
	case 0x2d:
		c.Reg.SetDouble(rd(instr), 0, c.Reg.Double(rs(instr), 0)+c.Reg.Double(rt(instr), 0))
		return 4, excNone
	case 0x2f:
		c.Reg.SetDouble(rd(instr), 0, c.Reg.Double(rs(instr), 0)-c.Reg.Double(rt(instr), 0))
		return 4, excNone
	case 0x38:
		c.Reg.SetDouble(rd(instr), 0, c.Reg.Double(rt(instr), 0)<<sa(instr))
		return 4, excNone
	case 0x3a:
		c.Reg.SetDouble(rd(instr), 0, c.Reg.Double(rt(instr), 0)>>sa(instr))
		return 4, excNone
	case 0x3c:
		c.Reg.SetDouble(rd(instr), 0, c.Reg.Double(rt(instr), 0)<<(uint32(sa(instr))+32))
		return 4, excNone
	case 0x3e:
		c.Reg.SetDouble(rd(instr), 0, c.Reg.Double(rt(instr), 0)>>(uint32(sa(instr))+32))
		return 4, excNone
	case 0x3f:
		sh := uint32(sa(instr)) + 32
		c.Reg.SetDouble(rd(instr), 0, uint64(int64(c.Reg.Double(rt(instr), 0))>>sh))
		return 4, excNone
	default:
		return 4, excDecodeUnknown
	}
}

// mult computes a 32x32->64 product into HI0/LO0; if rd != 0 the low
// 32 bits also land sign-extended there, matching the EE's habit of
// making mult/multu act like a 3-operand multiply.
func (c *CPU) mult(instr uint32, unsigned bool) (uint32, uint16) {
	var result uint64
	if unsigned {
		result = uint64(c.word(rs(instr))) * uint64(c.word(rt(instr)))
	} else {
		result = uint64(int64(int32(c.word(rs(instr)))) * int64(int32(c.word(rt(instr)))))
	}
	c.Reg.SetLO(0, uint64(int64(int32(uint32(result)))))
	c.Reg.SetHI(0, uint64(int64(int32(uint32(result>>32)))))
	if rd(instr) != 0 {
		c.setWordSext(rd(instr), uint32(result))
	}
	return 4, excNone
}

// div implements the MIPS-III documented deterministic results for
// divide-by-zero and INT_MIN/-1: divide-by-zero leaves LO = the
// dividend and HI = 0; the INT_MIN/-1 overflow case leaves
// LO = INT_MIN and HI = 0.
func (c *CPU) div(instr uint32, unsigned bool) (uint32, uint16) {
	if unsigned {
		n, d := c.word(rs(instr)), c.word(rt(instr))
		if d == 0 {
			c.Reg.SetLO(0, uint64(int64(int32(n))))
			c.Reg.SetHI(0, 0)
			return 4, excNone
		}
		c.Reg.SetLO(0, uint64(int64(int32(n/d))))
		c.Reg.SetHI(0, uint64(int64(int32(n%d))))
		return 4, excNone
	}
	n, d := int32(c.word(rs(instr))), int32(c.word(rt(instr)))
	switch {
	case d == 0:
		c.Reg.SetLO(0, uint64(int64(n)))
		c.Reg.SetHI(0, 0)
	case n == math.MinInt32 && d == -1:
		c.Reg.SetLO(0, uint64(int64(n)))
		c.Reg.SetHI(0, 0)
	default:
		c.Reg.SetLO(0, uint64(int64(n/d)))
		c.Reg.SetHI(0, uint64(int64(n%d)))
	}
	return 4, excNone
}

// addOv performs the overflow-checked 32-bit add/sub: on signed
// overflow it reports excOverflow (logged by Step) rather than
// trapping.
func (c *CPU) addOv(instr uint32, sub bool) (uint32, uint16) {
	a, b := int32(c.word(rs(instr))), int32(c.word(rt(instr)))
	var result int64
	if sub {
		result = int64(a) - int64(b)
	} else {
		result = int64(a) + int64(b)
	}
	c.setWordSext(rd(instr), uint32(int32(result)))
	if result != int64(int32(result)) {
		return 4, excOverflow
	}
	return 4, excNone
}
