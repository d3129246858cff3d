/*
   Emotion Engine disassembler: a pure (instruction, pc) -> mnemonic
   decode, mirroring the canonical opcode table the interpreter
   executes against.

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

// Package disasm decodes a 32-bit Emotion Engine instruction word into
// its textual mnemonic. It mutates nothing and consults nothing but
// its two arguments, so it doubles as the canonical reference the
// interpreter's decode switch is checked against.
package disasm

import "fmt"

// reg names general-purpose registers by number rather than by MIPS-ABI
// name; r0 prints as "r0" rather than "zero" to keep register/rd/rt/rs uniform with the
// vf/vi forms used by the cop2 stub mnemonics.
func reg(n uint32) string { return fmt.Sprintf("r%d", n) }

func rs(instr uint32) uint32   { return (instr >> 21) & 0x1f }
func rt(instr uint32) uint32   { return (instr >> 16) & 0x1f }
func rd(instr uint32) uint32   { return (instr >> 11) & 0x1f }
func sa(instr uint32) uint32   { return (instr >> 6) & 0x1f }
func fn(instr uint32) uint32   { return instr & 0x3f }
func imm(instr uint32) int32   { return int32(int16(instr & 0xffff)) }
func immU(instr uint32) uint32 { return instr & 0xffff }

func hex8(addr uint32) string { return fmt.Sprintf("$%08x", addr) }

func unrecognized(class string, op uint32) string {
	return fmt.Sprintf("Unrecognized %s op $%x", class, op)
}

// Disassemble decodes one instruction word fetched from pc, returning
// its mnemonic text. pc is the address of instr itself (not pc+4);
// branch/jump targets are computed relative to it.
func Disassemble(instr uint32, pc uint32) string {
	if instr == 0 {
		return "nop"
	}
	switch instr >> 26 {
	case 0x00:
		return special(instr)
	case 0x01:
		return regimm(instr, pc)
	case 0x02:
		return jumpOp("j", instr, pc)
	case 0x03:
		return jumpOp("jal", instr, pc)
	case 0x04:
		return branchEq("beq", instr, pc)
	case 0x05:
		return branchEq("bne", instr, pc)
	case 0x06:
		return branchIneq("blez", instr, pc)
	case 0x07:
		return branchIneq("bgtz", instr, pc)
	case 0x08:
		return math("addi", instr)
	case 0x09:
		return math("addiu", instr)
	case 0x0a:
		return math("slti", instr)
	case 0x0b:
		return math("sltiu", instr)
	case 0x0c:
		return math("andi", instr)
	case 0x0d:
		if immU(instr) == 0 {
			return move(rt(instr), rs(instr))
		}
		return math("ori", instr)
	case 0x0e:
		return math("xori", instr)
	case 0x0f:
		return fmt.Sprintf("lui    %s, $%04x", reg(rt(instr)), immU(instr))
	case 0x10, 0x11, 0x12, 0x13:
		return cop(instr, pc)
	case 0x14:
		return branchEq("beql", instr, pc)
	case 0x15:
		return branchEq("bnel", instr, pc)
	case 0x16:
		return branchIneq("blezl", instr, pc)
	case 0x17:
		return branchIneq("bgtzl", instr, pc)
	case 0x19:
		return math("daddiu", instr)
	case 0x1a:
		return loadStore("ldl", instr)
	case 0x1b:
		return loadStore("ldr", instr)
	case 0x1c:
		return mmi(instr)
	case 0x1e:
		return loadStore("lq", instr)
	case 0x1f:
		return loadStore("sq", instr)
	case 0x20:
		return loadStore("lb", instr)
	case 0x21:
		return loadStore("lh", instr)
	case 0x22:
		return loadStore("lwl", instr)
	case 0x23:
		return loadStore("lw", instr)
	case 0x24:
		return loadStore("lbu", instr)
	case 0x25:
		return loadStore("lhu", instr)
	case 0x26:
		return loadStore("lwr", instr)
	case 0x27:
		return loadStore("lwu", instr)
	case 0x28:
		return loadStore("sb", instr)
	case 0x29:
		return loadStore("sh", instr)
	case 0x2a:
		return loadStore("swl", instr)
	case 0x2b:
		return loadStore("sw", instr)
	case 0x2c:
		return loadStore("sdl", instr)
	case 0x2d:
		return loadStore("sdr", instr)
	case 0x2e:
		return loadStore("swr", instr)
	case 0x2f:
		return "cache"
	case 0x31:
		return loadStore("lwc1", instr)
	case 0x36:
		return "TODO: lqc2"
	case 0x37:
		return loadStore("ld", instr)
	case 0x39:
		return loadStore("swc1", instr)
	case 0x3e:
		return "TODO: sqc2"
	case 0x3f:
		return loadStore("sd", instr)
	default:
		return unrecognized("normal", instr>>26)
	}
}

func move(dst, src uint32) string {
	return fmt.Sprintf("move   %s, %s", reg(dst), reg(src))
}

func jumpOp(name string, instr, pc uint32) string {
	target := ((pc + 4) & 0xf0000000) | ((instr & 0x3ffffff) << 2)
	return fmt.Sprintf("%-6s %s", name, hex8(target))
}

func branchEq(name string, instr, pc uint32) string {
	target := pc + 4 + uint32(imm(instr)<<2)
	if rt(instr) == 0 {
		return fmt.Sprintf("%-6s %s, %s", name+"z", reg(rs(instr)), hex8(target))
	}
	return fmt.Sprintf("%-6s %s, %s, %s", name, reg(rs(instr)), reg(rt(instr)), hex8(target))
}

func branchIneq(name string, instr, pc uint32) string {
	target := pc + 4 + uint32(imm(instr)<<2)
	return fmt.Sprintf("%-6s %s, %s", name, reg(rs(instr)), hex8(target))
}

func math(name string, instr uint32) string {
	return fmt.Sprintf("%-6s %s, %s, $%04x", name, reg(rt(instr)), reg(rs(instr)), uint16(imm(instr)))
}

func loadStore(name string, instr uint32) string {
	return fmt.Sprintf("%-6s %s, %d(%s)", name, reg(rt(instr)), imm(instr), reg(rs(instr)))
}

func regimm(instr, pc uint32) string {
	if rt(instr) == 0x19 {
		return fmt.Sprintf("mtsah  %s, %d", reg(rs(instr)), uint16(immU(instr)))
	}
	var name string
	switch rt(instr) {
	case 0x00:
		name = "bltz"
	case 0x01:
		name = "bgez"
	case 0x02:
		name = "bltzl"
	case 0x03:
		name = "bgezl"
	default:
		return unrecognized("regimm", rt(instr))
	}
	target := pc + 4 + uint32(imm(instr)<<2)
	return fmt.Sprintf("%-6s %s, %s", name, reg(rs(instr)), hex8(target))
}

func simpleMath(name string, instr uint32) string {
	return fmt.Sprintf("%-6s %s, %s, %s", name, reg(rd(instr)), reg(rs(instr)), reg(rt(instr)))
}

func variableShift(name string, instr uint32) string {
	return fmt.Sprintf("%-6s %s, %s, %s", name, reg(rd(instr)), reg(rt(instr)), reg(rs(instr)))
}

func special(instr uint32) string {
	switch fn(instr) {
	case 0x00:
		return shift("sll", instr)
	case 0x02:
		return shift("srl", instr)
	case 0x03:
		return shift("sra", instr)
	case 0x04:
		return variableShift("sllv", instr)
	case 0x06:
		return variableShift("srlv", instr)
	case 0x07:
		return variableShift("srav", instr)
	case 0x08:
		return fmt.Sprintf("jr     %s", reg(rs(instr)))
	case 0x09:
		if rd(instr) != 31 {
			return fmt.Sprintf("jalr   %s, %s", reg(rd(instr)), reg(rs(instr)))
		}
		return fmt.Sprintf("jalr   %s", reg(rs(instr)))
	case 0x0a:
		return simpleMath("movz", instr)
	case 0x0b:
		return simpleMath("movn", instr)
	case 0x0c:
		return fmt.Sprintf("syscall $%08x", (instr>>6)&0xfffff)
	case 0x0f:
		return "sync"
	case 0x10:
		return fmt.Sprintf("mfhi   %s", reg(rd(instr)))
	case 0x11:
		return fmt.Sprintf("mthi   %s", reg(rs(instr)))
	case 0x12:
		return fmt.Sprintf("mflo   %s", reg(rd(instr)))
	case 0x13:
		return fmt.Sprintf("mtlo   %s", reg(rs(instr)))
	case 0x14:
		return variableShift("dsllv", instr)
	case 0x16:
		return variableShift("dsrlv", instr)
	case 0x17:
		return variableShift("dsrav", instr)
	case 0x18:
		return simpleMath("mult", instr)
	case 0x19:
		return simpleMath("multu", instr)
	case 0x1a:
		return fmt.Sprintf("div    %s, %s", reg(rs(instr)), reg(rt(instr)))
	case 0x1b:
		return fmt.Sprintf("divu   %s, %s", reg(rs(instr)), reg(rt(instr)))
	case 0x20:
		return simpleMath("add", instr)
	case 0x21:
		return simpleMath("addu", instr)
	case 0x22:
		return simpleMath("sub", instr)
	case 0x23:
		return simpleMath("subu", instr)
	case 0x24:
		return simpleMath("and", instr)
	case 0x25:
		return simpleMath("or", instr)
	case 0x26:
		return simpleMath("xor", instr)
	case 0x27:
		return simpleMath("nor", instr)
	case 0x28:
		return fmt.Sprintf("mfsa   %s", reg(rd(instr)))
	case 0x29:
		return fmt.Sprintf("mtsa   %s", reg(rs(instr)))
	case 0x2a:
		return simpleMath("slt", instr)
	case 0x2b:
		return simpleMath("sltu", instr)
	case 0x2c:
		return simpleMath("dadd", instr)
	case 0x2d:
		if rt(instr) == 0 {
			return move(rd(instr), rs(instr))
		}
		return simpleMath("daddu", instr)
	case 0x2f:
		return simpleMath("dsubu", instr)
	case 0x38:
		return shift("dsll", instr)
	case 0x3a:
		return shift("dsrl", instr)
	case 0x3c:
		return shift("dsll32", instr)
	case 0x3e:
		return shift("dsrl32", instr)
	case 0x3f:
		return shift("dsra32", instr)
	default:
		return unrecognized("special", fn(instr))
	}
}

func shift(name string, instr uint32) string {
	return fmt.Sprintf("%-6s %s, %s, %d", name, reg(rd(instr)), reg(rt(instr)), sa(instr))
}

func mmi(instr uint32) string {
	switch fn(instr) {
	case 0x04:
		return simpleMath("plzcw", instr)
	case 0x08:
		return mmi0(instr)
	case 0x09:
		return mmi2(instr)
	case 0x10:
		return fmt.Sprintf("mfhi1  %s", reg(rd(instr)))
	case 0x11:
		return fmt.Sprintf("mthi1  %s", reg(rs(instr)))
	case 0x12:
		return fmt.Sprintf("mflo1  %s", reg(rd(instr)))
	case 0x13:
		return fmt.Sprintf("mtlo1  %s", reg(rs(instr)))
	case 0x18:
		return simpleMath("mult1", instr)
	case 0x1a:
		return fmt.Sprintf("div1   %s, %s", reg(rs(instr)), reg(rt(instr)))
	case 0x1b:
		return fmt.Sprintf("divu1  %s, %s", reg(rs(instr)), reg(rt(instr)))
	case 0x28:
		return mmi1(instr)
	case 0x29:
		return mmi3(instr)
	default:
		return unrecognized("mmi", fn(instr))
	}
}

// mmiSub is bits 10:6 of the instruction word, the sub-bank selector
// the MMI0/MMI1/MMI2 sub-tables dispatch on.
func mmiSub(instr uint32) uint32 { return (instr >> 6) & 0x1f }

func mmi0(instr uint32) string {
	switch mmiSub(instr) {
	case 0x09:
		return simpleMath("psubb", instr)
	case 0x12:
		return simpleMath("pcgtb", instr)
	default:
		return unrecognized("mmi0", mmiSub(instr))
	}
}

func mmi1(instr uint32) string {
	switch mmiSub(instr) {
	case 0x10:
		return simpleMath("padduw", instr)
	default:
		return unrecognized("mmi1", mmiSub(instr))
	}
}

func mmi2(instr uint32) string {
	switch mmiSub(instr) {
	case 0x0e:
		return simpleMath("pcpyld", instr)
	case 0x12:
		return simpleMath("pand", instr)
	default:
		return unrecognized("mmi2", mmiSub(instr))
	}
}

func mmi3(instr uint32) string {
	switch sa(instr) {
	case 0x0e:
		return simpleMath("pcpyud", instr)
	case 0x12:
		return simpleMath("por", instr)
	case 0x13:
		return simpleMath("pnor", instr)
	case 0x1b:
		return fmt.Sprintf("pcpyh  %s, %s", reg(rd(instr)), reg(rt(instr)))
	default:
		return unrecognized("mmi3", sa(instr))
	}
}

func cop(instr, pc uint32) string {
	copID := (instr >> 26) & 0x3
	op := rs(instr)
	switch {
	case op == 0x00:
		return copMove("mfc", copID, instr)
	case op == 0x04:
		return copMove("mtc", copID, instr)
	case op == 0x02:
		return copMove("cfc", copID, instr)
	case op == 0x06:
		return copMove("ctc", copID, instr)
	case op == 0x08:
		return bc1(instr, pc)
	case copID == 0 && op == 0x10:
		return cop0System(instr)
	case copID == 1 && op == 0x10:
		return fpuS(instr)
	case copID == 1 && op == 0x14:
		return fpuConvert("cvt.s.w", instr)
	case copID == 2:
		return cop2(instr)
	default:
		return unrecognized("cop", op)
	}
}

func copMove(name string, copID, instr uint32) string {
	return fmt.Sprintf("%s%d   %s, %d", name, copID, reg(rt(instr)), rd(instr))
}

func cop0System(instr uint32) string {
	switch fn(instr) {
	case 0x02:
		return "tlbwi"
	case 0x18:
		return "eret"
	case 0x38:
		return "ei"
	case 0x39:
		return "di"
	default:
		return unrecognized("cop0x010", fn(instr))
	}
}

func bc1(instr, pc uint32) string {
	names := [4]string{"bc1f", "bc1fl", "bc1t", "bc1tl"}
	op := rt(instr)
	if op > 3 {
		return unrecognized("BC1", op)
	}
	target := pc + 4 + uint32(imm(instr)<<2)
	return fmt.Sprintf("%-6s %s", names[op], hex8(target))
}

func fpuS(instr uint32) string {
	switch fn(instr) {
	case 0x00:
		return fpuMath("add.s", instr)
	case 0x01:
		return fpuMath("sub.s", instr)
	case 0x02:
		return fpuMath("mul.s", instr)
	case 0x03:
		return fpuMath("div.s", instr)
	case 0x04:
		return fpuSingle("sqrt.s", instr)
	case 0x05:
		return fpuSingle("abs.s", instr)
	case 0x06:
		return fpuSingle("mov.s", instr)
	case 0x07:
		return fpuSingle("neg.s", instr)
	case 0x16:
		return fpuMath("rsqrt.s", instr)
	case 0x18:
		return fpuAcc("adda.s", instr)
	case 0x19:
		return fpuAcc("suba.s", instr)
	case 0x1c:
		return fpuMath("madd.s", instr)
	case 0x1d:
		return fpuMath("msub.s", instr)
	case 0x1e:
		return fpuAcc("madda.s", instr)
	case 0x1f:
		return fpuAcc("msuba.s", instr)
	case 0x24:
		return fpuConvert("cvt.w.s", instr)
	case 0x32:
		return fpuCompare("c.eq.s", instr)
	case 0x34:
		return fpuCompare("c.lt.s", instr)
	case 0x36:
		return fpuCompare("c.le.s", instr)
	default:
		return unrecognized("FPU-S", fn(instr))
	}
}

func vreg(n uint32) string { return fmt.Sprintf("f%d", n) }

func fpuMath(name string, instr uint32) string {
	return fmt.Sprintf("%-7s %s, %s, %s", name, vreg(sa(instr)), vreg(rd(instr)), vreg(rt(instr)))
}

func fpuSingle(name string, instr uint32) string {
	return fmt.Sprintf("%-7s %s, %s", name, vreg(sa(instr)), vreg(rd(instr)))
}

func fpuAcc(name string, instr uint32) string {
	return fmt.Sprintf("%-7s %s, %s", name, vreg(rd(instr)), vreg(rt(instr)))
}

func fpuConvert(name string, instr uint32) string {
	return fmt.Sprintf("%-7s %s, %s", name, vreg(sa(instr)), vreg(rd(instr)))
}

func fpuCompare(name string, instr uint32) string {
	return fmt.Sprintf("%-7s %s, %s", name, vreg(rd(instr)), vreg(rt(instr)))
}

func destField(field uint32) string {
	const vectors = "xyzw"
	out := ""
	for i := 0; i < 4; i++ {
		if field&(1<<uint(i)) != 0 {
			out += string(vectors[i])
		}
	}
	return out
}

func cop2(instr uint32) string {
	op := rs(instr)
	if op >= 0x10 {
		return cop2Special(instr)
	}
	switch op {
	case 0x01:
		suffix := ""
		if instr&1 != 0 {
			suffix = ".i"
		}
		return fmt.Sprintf("qmfc2%s %s, vf%d", suffix, reg(rt(instr)), rd(instr))
	default:
		return unrecognized("cop2", op)
	}
}

func cop2Special(instr uint32) string {
	op := fn(instr)
	if op >= 0x3c {
		return cop2Special2(instr)
	}
	switch op {
	case 0x2c:
		field := destField((instr >> 21) & 0xf)
		return fmt.Sprintf("vsub.%s vf%d, vf%d, vf%d", field, rd(instr), rs(instr), rt(instr))
	default:
		return unrecognized("cop2 special", op)
	}
}

func cop2Special2(instr uint32) string {
	op := (instr & 0x3) | ((instr >> 4) & 0x7c)
	switch op {
	case 0x3f:
		field := destField((instr >> 21) & 0xf)
		return fmt.Sprintf("viswr.%s vi%d, (vi%d)", field, rt(instr), rs(instr))
	default:
		return unrecognized("cop2 special2", op)
	}
}
