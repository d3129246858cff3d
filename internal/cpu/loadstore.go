/*
   Load/store instructions: effective address = rs + sign_extend(imm16),
   little-endian aligned forms plus the lwl/lwr/ldl/ldr/swl/swr/sdl/sdr
   unaligned forms that merge a partial word/doubleword with the
   existing register bits.

   Copyright (c) 2024, Richard Cornwell. See cpu.go for license text.
*/

package cpu

import "github.com/rcornwell/eecore/internal/bus"

func (c *CPU) lb(instr uint32) (uint32, uint16) {
	v := c.bus.Read8(c.effAddr(instr))
	c.setWordSext(rt(instr), uint32(int32(int8(v))))
	return 4, excNone
}

func (c *CPU) lbu(instr uint32) (uint32, uint16) {
	c.setWordSext(rt(instr), uint32(c.bus.Read8(c.effAddr(instr))))
	return 4, excNone
}

func (c *CPU) lh(instr uint32) (uint32, uint16) {
	addr := c.effAddr(instr)
	code := uint16(excNone)
	if addr&1 != 0 {
		code = excAlignment
	}
	v := c.bus.Read16(addr)
	c.setWordSext(rt(instr), uint32(int32(int16(v))))
	return 4, code
}

func (c *CPU) lhu(instr uint32) (uint32, uint16) {
	addr := c.effAddr(instr)
	code := uint16(excNone)
	if addr&1 != 0 {
		code = excAlignment
	}
	c.setWordSext(rt(instr), uint32(c.bus.Read16(addr)))
	return 4, code
}

func (c *CPU) lw(instr uint32) (uint32, uint16) {
	addr := c.effAddr(instr)
	code := uint16(excNone)
	if addr&3 != 0 {
		code = excAlignment
	}
	c.setWordSext(rt(instr), c.bus.Read32(addr))
	return 4, code
}

func (c *CPU) lwu(instr uint32) (uint32, uint16) {
	addr := c.effAddr(instr)
	code := uint16(excNone)
	if addr&3 != 0 {
		code = excAlignment
	}
	c.Reg.SetDouble(rt(instr), 0, uint64(c.bus.Read32(addr)))
	return 4, code
}

func (c *CPU) ld(instr uint32) (uint32, uint16) {
	addr := c.effAddr(instr)
	code := uint16(excNone)
	if addr&7 != 0 {
		code = excAlignment
	}
	c.Reg.SetDouble(rt(instr), 0, c.bus.Read64(addr))
	return 4, code
}

func (c *CPU) lq(instr uint32) (uint32, uint16) {
	addr := c.effAddr(instr)
	code := uint16(excNone)
	if addr&0xf != 0 {
		code = excAlignment
	}
	quad := c.bus.ReadQuad(addr)
	c.Reg.SetDouble(rt(instr), 0, quad[0])
	c.Reg.SetDouble(rt(instr), 1, quad[1])
	return 4, code
}

func (c *CPU) sb(instr uint32) (uint32, uint16) {
	c.bus.Write8(c.effAddr(instr), uint8(c.word(rt(instr))))
	return 4, excNone
}

func (c *CPU) sh(instr uint32) (uint32, uint16) {
	addr := c.effAddr(instr)
	code := uint16(excNone)
	if addr&1 != 0 {
		code = excAlignment
	}
	c.bus.Write16(addr, uint16(c.word(rt(instr))))
	return 4, code
}

func (c *CPU) sw(instr uint32) (uint32, uint16) {
	addr := c.effAddr(instr)
	code := uint16(excNone)
	if addr&3 != 0 {
		code = excAlignment
	}
	c.bus.Write32(addr, c.word(rt(instr)))
	return 4, code
}

func (c *CPU) sd(instr uint32) (uint32, uint16) {
	addr := c.effAddr(instr)
	code := uint16(excNone)
	if addr&7 != 0 {
		code = excAlignment
	}
	c.bus.Write64(addr, c.Reg.Double(rt(instr), 0))
	return 4, code
}

func (c *CPU) sq(instr uint32) (uint32, uint16) {
	addr := c.effAddr(instr)
	code := uint16(excNone)
	if addr&0xf != 0 {
		code = excAlignment
	}
	c.bus.WriteQuad(addr, bus.Quadword{c.Reg.Double(rt(instr), 0), c.Reg.Double(rt(instr), 1)})
	return 4, code
}

// Standard little-endian LWL/LWR merge tables: byte offset within the
// aligned word selects how many bytes of the fetched word replace the
// register's high (LWL) or low (LWR) bytes.
var lwlMask = [4]uint32{0x00ffffff, 0x0000ffff, 0x000000ff, 0x00000000}
var lwlShift = [4]uint32{24, 16, 8, 0}
var lwrMask = [4]uint32{0x00000000, 0xff000000, 0xffff0000, 0xffffff00}
var lwrShift = [4]uint32{0, 8, 16, 24}

func (c *CPU) lwl(instr uint32) (uint32, uint16) {
	addr := c.effAddr(instr)
	shift := addr & 3
	mem := c.bus.Read32(addr &^ 3)
	old := c.word(rt(instr))
	c.setWordSext(rt(instr), (old&lwlMask[shift])|(mem<<lwlShift[shift]))
	return 4, excNone
}

func (c *CPU) lwr(instr uint32) (uint32, uint16) {
	addr := c.effAddr(instr)
	shift := addr & 3
	mem := c.bus.Read32(addr &^ 3)
	old := c.word(rt(instr))
	c.setWordSext(rt(instr), (old&lwrMask[shift])|(mem>>lwrShift[shift]))
	return 4, excNone
}

var swlMask = [4]uint32{0xffffff00, 0xffff0000, 0xff000000, 0x00000000}
var swlShift = [4]uint32{24, 16, 8, 0}
var swrMask = [4]uint32{0x00000000, 0x000000ff, 0x0000ffff, 0x00ffffff}
var swrShift = [4]uint32{0, 8, 16, 24}

func (c *CPU) swl(instr uint32) (uint32, uint16) {
	addr := c.effAddr(instr)
	aligned := addr &^ 3
	shift := addr & 3
	mem := c.bus.Read32(aligned)
	rtVal := c.word(rt(instr))
	c.bus.Write32(aligned, (mem&swlMask[shift])|(rtVal>>swlShift[shift]))
	return 4, excNone
}

func (c *CPU) swr(instr uint32) (uint32, uint16) {
	addr := c.effAddr(instr)
	aligned := addr &^ 3
	shift := addr & 3
	mem := c.bus.Read32(aligned)
	rtVal := c.word(rt(instr))
	c.bus.Write32(aligned, (mem&swrMask[shift])|(rtVal<<swrShift[shift]))
	return 4, excNone
}

var ldlMask = [8]uint64{
	0x00ffffffffffffff, 0x0000ffffffffffff, 0x000000ffffffffff, 0x00000000ffffffff,
	0x0000000000ffffff, 0x000000000000ffff, 0x00000000000000ff, 0x0000000000000000,
}
var ldlShift = [8]uint32{56, 48, 40, 32, 24, 16, 8, 0}
var ldrMask = [8]uint64{
	0x0000000000000000, 0xff00000000000000, 0xffff000000000000, 0xffffff0000000000,
	0xffffffff00000000, 0xffffffffff000000, 0xffffffffffff0000, 0xffffffffffffff00,
}
var ldrShift = [8]uint32{0, 8, 16, 24, 32, 40, 48, 56}

func (c *CPU) ldl(instr uint32) (uint32, uint16) {
	addr := c.effAddr(instr)
	shift := addr & 7
	mem := c.bus.Read64(addr &^ 7)
	old := c.Reg.Double(rt(instr), 0)
	c.Reg.SetDouble(rt(instr), 0, (old&ldlMask[shift])|(mem<<ldlShift[shift]))
	return 4, excNone
}

func (c *CPU) ldr(instr uint32) (uint32, uint16) {
	addr := c.effAddr(instr)
	shift := addr & 7
	mem := c.bus.Read64(addr &^ 7)
	old := c.Reg.Double(rt(instr), 0)
	c.Reg.SetDouble(rt(instr), 0, (old&ldrMask[shift])|(mem>>ldrShift[shift]))
	return 4, excNone
}

var sdlMask = [8]uint64{
	0xffffffffffffff00, 0xffffffffffff0000, 0xffffffffff000000, 0xffffffff00000000,
	0xffffff0000000000, 0xffff000000000000, 0xff00000000000000, 0x0000000000000000,
}
var sdlShift = [8]uint32{56, 48, 40, 32, 24, 16, 8, 0}
var sdrMask = [8]uint64{
	0x0000000000000000, 0x00000000000000ff, 0x000000000000ffff, 0x0000000000ffffff,
	0x00000000ffffffff, 0x000000ffffffffff, 0x0000ffffffffffff, 0x00ffffffffffffff,
}
var sdrShift = [8]uint32{0, 8, 16, 24, 32, 40, 48, 56}

func (c *CPU) sdl(instr uint32) (uint32, uint16) {
	addr := c.effAddr(instr)
	aligned := addr &^ 7
	shift := addr & 7
	mem := c.bus.Read64(aligned)
	rtVal := c.Reg.Double(rt(instr), 0)
	c.bus.Write64(aligned, (mem&sdlMask[shift])|(rtVal>>sdlShift[shift]))
	return 4, excNone
}

func (c *CPU) sdr(instr uint32) (uint32, uint16) {
	addr := c.effAddr(instr)
	aligned := addr &^ 7
	shift := addr & 7
	mem := c.bus.Read64(aligned)
	rtVal := c.Reg.Double(rt(instr), 0)
	c.bus.Write64(aligned, (mem&sdrMask[shift])|(rtVal<<sdrShift[shift]))
	return 4, excNone
}
