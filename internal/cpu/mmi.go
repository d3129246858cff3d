/*
   MMI (Multimedia Integer) class: the EE's 128-bit packed-SIMD
   instruction class, decoded on primary opcode 0x1C. Only a minimal
   subset is implemented; the sub-bank dispatch on bits 10:6 follows
   the mmi0/mmi1/mmi2/mmi3 split of the hardware's decode tables.

   Copyright (c) 2024, Richard Cornwell. See cpu.go for license text.
*/

package cpu

import "github.com/rcornwell/eecore/internal/register"

func mmiSub(instr uint32) uint8 { return uint8((instr >> 6) & 0x1f) }

func (c *CPU) mmi(instr uint32) (uint32, uint16) {
	switch fn(instr) {
	case 0x04:
		return c.plzcw(instr)
	case 0x08:
		return c.mmi0(instr)
	case 0x09:
		return c.mmi2(instr)
	case 0x10:
		c.Reg.SetDouble(rd(instr), 0, c.Reg.HI(1))
		return 4, excNone
	case 0x11:
		c.Reg.SetHI(1, c.Reg.Double(rs(instr), 0))
		return 4, excNone
	case 0x12:
		c.Reg.SetDouble(rd(instr), 0, c.Reg.LO(1))
		return 4, excNone
	case 0x13:
		c.Reg.SetLO(1, c.Reg.Double(rs(instr), 0))
		return 4, excNone
	case 0x18:
		n := int64(int32(c.word(rs(instr)))) * int64(int32(c.word(rt(instr))))
		c.Reg.SetLO(1, uint64(int64(int32(uint32(n)))))
		c.Reg.SetHI(1, uint64(int64(int32(uint32(n>>32)))))
		if rd(instr) != 0 {
			c.setWordSext(rd(instr), uint32(n))
		}
		return 4, excNone
	case 0x1a:
		return c.div1(instr, false)
	case 0x1b:
		return c.div1(instr, true)
	case 0x28:
		return c.mmi1(instr)
	case 0x29:
		return c.mmi3(instr)
	default:
		return 4, excDecodeUnknown
	}
}

func (c *CPU) div1(instr uint32, unsigned bool) (uint32, uint16) {
	if unsigned {
		n, d := c.word(rs(instr)), c.word(rt(instr))
		if d == 0 {
			c.Reg.SetLO(1, uint64(int64(int32(n))))
			c.Reg.SetHI(1, 0)
			return 4, excNone
		}
		c.Reg.SetLO(1, uint64(int64(int32(n/d))))
		c.Reg.SetHI(1, uint64(int64(int32(n%d))))
		return 4, excNone
	}
	n, d := int32(c.word(rs(instr))), int32(c.word(rt(instr)))
	if d == 0 {
		c.Reg.SetLO(1, uint64(int64(n)))
		c.Reg.SetHI(1, 0)
		return 4, excNone
	}
	c.Reg.SetLO(1, uint64(int64(n/d)))
	c.Reg.SetHI(1, uint64(int64(n%d)))
	return 4, excNone
}

// plzcw counts, for each of rs's four 32-bit lanes, the number of
// leading bits equal to the sign bit beyond the sign bit itself
// (capped at 0x1F), storing the four counts packed into rd's lanes.
func (c *CPU) plzcw(instr uint32) (uint32, uint16) {
	var out register.GPR
	for lane := 0; lane < 4; lane++ {
		v := c.Reg.Word(rs(instr), lane)
		sign := v >> 31
		count := uint32(0)
		for bit := 30; bit >= 0; bit-- {
			if (v>>uint(bit))&1 != sign {
				break
			}
			count++
		}
		out.SetWord(lane, count)
	}
	c.Reg.SetGPR(rd(instr), out)
	return 4, excNone
}

func (c *CPU) mmi0(instr uint32) (uint32, uint16) {
	switch mmiSub(instr) {
	case 0x09:
		return c.psubb(instr)
	case 0x12:
		return c.pcgtb(instr)
	default:
		return 4, excDecodeUnknown
	}
}

func (c *CPU) mmi1(instr uint32) (uint32, uint16) {
	switch mmiSub(instr) {
	case 0x10:
		return c.padduw(instr)
	default:
		return 4, excDecodeUnknown
	}
}

func (c *CPU) mmi2(instr uint32) (uint32, uint16) {
	switch mmiSub(instr) {
	case 0x0e:
		return c.pcpyld(instr)
	case 0x12:
		return c.pand(instr)
	default:
		return 4, excDecodeUnknown
	}
}

func (c *CPU) mmi3(instr uint32) (uint32, uint16) {
	switch sa(instr) {
	case 0x0e:
		return c.pcpyud(instr)
	case 0x12:
		return c.por(instr)
	case 0x13:
		return c.pnor(instr)
	case 0x1b:
		return c.pcpyh(instr)
	default:
		return 4, excDecodeUnknown
	}
}

// psubb subtracts rt from rs lane-wise across all 16 byte lanes,
// without saturation (plain wraparound, matching the non-saturating
// "b" suffix rather than "sb"/"ub").
func (c *CPU) psubb(instr uint32) (uint32, uint16) {
	a, b := c.Reg.GPR(rs(instr)), c.Reg.GPR(rt(instr))
	var out register.GPR
	for i := 0; i < 16; i++ {
		out[i] = a[i] - b[i]
	}
	c.Reg.SetGPR(rd(instr), out)
	return 4, excNone
}

// pcgtb sets each byte lane of rd to 0xFF where rs's signed byte is
// greater than rt's, else 0x00.
func (c *CPU) pcgtb(instr uint32) (uint32, uint16) {
	a, b := c.Reg.GPR(rs(instr)), c.Reg.GPR(rt(instr))
	var out register.GPR
	for i := 0; i < 16; i++ {
		if int8(a[i]) > int8(b[i]) {
			out[i] = 0xff
		}
	}
	c.Reg.SetGPR(rd(instr), out)
	return 4, excNone
}

// padduw adds rs and rt lane-wise across the four 32-bit word lanes,
// saturating at 0xFFFFFFFF on unsigned overflow.
func (c *CPU) padduw(instr uint32) (uint32, uint16) {
	var out register.GPR
	for lane := 0; lane < 4; lane++ {
		sum := uint64(c.Reg.Word(rs(instr), lane)) + uint64(c.Reg.Word(rt(instr), lane))
		if sum > 0xffffffff {
			sum = 0xffffffff
		}
		out.SetWord(lane, uint32(sum))
	}
	c.Reg.SetGPR(rd(instr), out)
	return 4, excNone
}

// pcpyld packs the low doublewords of rs and rt into rd: rd's low
// doubleword is rt's low doubleword, rd's high doubleword is rs's low
// doubleword.
func (c *CPU) pcpyld(instr uint32) (uint32, uint16) {
	var out register.GPR
	out.SetDouble(0, c.Reg.Double(rt(instr), 0))
	out.SetDouble(1, c.Reg.Double(rs(instr), 0))
	c.Reg.SetGPR(rd(instr), out)
	return 4, excNone
}

// pcpyud packs the high doublewords of rs and rt into rd: rd's low
// doubleword is rs's high doubleword, rd's high doubleword is rt's
// high doubleword.
func (c *CPU) pcpyud(instr uint32) (uint32, uint16) {
	var out register.GPR
	out.SetDouble(0, c.Reg.Double(rs(instr), 1))
	out.SetDouble(1, c.Reg.Double(rt(instr), 1))
	c.Reg.SetGPR(rd(instr), out)
	return 4, excNone
}

func (c *CPU) pand(instr uint32) (uint32, uint16) {
	a, b := c.Reg.GPR(rs(instr)), c.Reg.GPR(rt(instr))
	var out register.GPR
	for i := 0; i < 16; i++ {
		out[i] = a[i] & b[i]
	}
	c.Reg.SetGPR(rd(instr), out)
	return 4, excNone
}

func (c *CPU) por(instr uint32) (uint32, uint16) {
	a, b := c.Reg.GPR(rs(instr)), c.Reg.GPR(rt(instr))
	var out register.GPR
	for i := 0; i < 16; i++ {
		out[i] = a[i] | b[i]
	}
	c.Reg.SetGPR(rd(instr), out)
	return 4, excNone
}

func (c *CPU) pnor(instr uint32) (uint32, uint16) {
	a, b := c.Reg.GPR(rs(instr)), c.Reg.GPR(rt(instr))
	var out register.GPR
	for i := 0; i < 16; i++ {
		out[i] = ^(a[i] | b[i])
	}
	c.Reg.SetGPR(rd(instr), out)
	return 4, excNone
}

// pcpyh broadcasts rt's halfword 0 across the four halfwords of rd's
// low doubleword and rt's halfword 4 across the four halfwords of
// rd's high doubleword.
func (c *CPU) pcpyh(instr uint32) (uint32, uint16) {
	t := c.Reg.GPR(rt(instr))
	var out register.GPR
	lo0, lo1 := t[0], t[1]
	hi0, hi1 := t[8], t[9]
	for i := 0; i < 4; i++ {
		out[i*2] = lo0
		out[i*2+1] = lo1
		out[8+i*2] = hi0
		out[8+i*2+1] = hi1
	}
	c.Reg.SetGPR(rd(instr), out)
	return 4, excNone
}
