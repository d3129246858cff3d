package disasm

import (
	"strings"
	"testing"
)

func TestDisassembleNop(t *testing.T) {
	if got := Disassemble(0, 0x1000); got != "nop" {
		t.Errorf("Disassemble(0) = %q, want %q", got, "nop")
	}
}

func TestDisassembleAddiu(t *testing.T) {
	// addiu r1, r0, 0x1234
	instr := uint32(0x09<<26) | (0 << 21) | (1 << 16) | 0x1234
	got := Disassemble(instr, 0)
	if !strings.HasPrefix(got, "addiu") {
		t.Errorf("Disassemble(addiu) = %q, want prefix %q", got, "addiu")
	}
	if !strings.Contains(got, "r1") || !strings.Contains(got, "r0") {
		t.Errorf("Disassemble(addiu) = %q, want operands r1 and r0", got)
	}
}

func TestDisassembleBeqRewrittenToBeqzWhenRtIsZero(t *testing.T) {
	// beq r4, r0, +1
	instr := uint32(0x04<<26) | (4 << 21) | (0 << 16) | 1
	got := Disassemble(instr, 0x1000)
	if !strings.HasPrefix(got, "beqz") {
		t.Errorf("Disassemble(beq rs,0) = %q, want beqz rewrite", got)
	}
}

func TestDisassembleBeqKeepsBothOperandsWhenRtNonzero(t *testing.T) {
	// beq r4, r5, +1
	instr := uint32(0x04<<26) | (4 << 21) | (5 << 16) | 1
	got := Disassemble(instr, 0x1000)
	if !strings.HasPrefix(got, "beq ") {
		t.Errorf("Disassemble(beq rs,rt) = %q, want beq (no rewrite)", got)
	}
}

func TestDisassembleOriWithZeroImmediateBecomesMove(t *testing.T) {
	// ori r1, r2, 0
	instr := uint32(0x0d<<26) | (2 << 21) | (1 << 16) | 0
	got := Disassemble(instr, 0)
	if !strings.HasPrefix(got, "move") {
		t.Errorf("Disassemble(ori rt,rs,0) = %q, want move rewrite", got)
	}
}

func TestDisassembleJumpTargetComputation(t *testing.T) {
	// j target with low 26 bits = 0x100 -> target = (pc+4)&0xf0000000 | 0x100<<2
	instr := uint32(0x02<<26) | 0x100
	got := Disassemble(instr, 0x1000)
	want := "$00000400"
	if !strings.Contains(got, want) {
		t.Errorf("Disassemble(j) = %q, want target %q", got, want)
	}
}

func TestDisassembleUnrecognizedOpcode(t *testing.T) {
	instr := uint32(0x3a << 26) // unused primary opcode
	got := Disassemble(instr, 0)
	if !strings.HasPrefix(got, "Unrecognized") {
		t.Errorf("Disassemble(unknown) = %q, want Unrecognized prefix", got)
	}
}

func TestDisassembleDadduWithZeroRtBecomesMove(t *testing.T) {
	// daddu r3, r4, r0 (SPECIAL fn 0x2d)
	instr := uint32(0x00<<26) | (4 << 21) | (0 << 16) | (3 << 11) | 0x2d
	got := Disassemble(instr, 0)
	if !strings.HasPrefix(got, "move") {
		t.Errorf("Disassemble(daddu rd,rs,r0) = %q, want move rewrite", got)
	}
}

func TestDisassembleMtsah(t *testing.T) {
	// mtsah r2, 15 (REGIMM rt=0x19)
	instr := uint32(0x01<<26) | (2 << 21) | (0x19 << 16) | 15
	got := Disassemble(instr, 0)
	if !strings.HasPrefix(got, "mtsah") || !strings.Contains(got, "r2") {
		t.Errorf("Disassemble(mtsah) = %q, want mtsah r2, 15", got)
	}
}

func TestDisassembleBranchTargetUsesSignedOffset(t *testing.T) {
	// beq r0, r0, -1 -> target = pc + 4 - 4 = pc
	instr := uint32(0x04<<26) | 0xFFFF
	got := Disassemble(instr, 0x1000)
	if !strings.Contains(got, "$00001000") {
		t.Errorf("Disassemble(beq back) = %q, want target $00001000", got)
	}
}

func TestDisassembleSubaS(t *testing.T) {
	// suba.s f3, f7 (cop1 fmt S, fn 0x19; fs in rd, ft in rt)
	instr := uint32(0x11<<26) | (0x10 << 21) | (7 << 16) | (3 << 11) | 0x19
	got := Disassemble(instr, 0)
	if !strings.HasPrefix(got, "suba.s") || !strings.Contains(got, "f3") || !strings.Contains(got, "f7") {
		t.Errorf("Disassemble(suba.s) = %q, want suba.s f3, f7", got)
	}
}

func TestDisassembleAddsFpuOperandOrderMatchesEncoding(t *testing.T) {
	// add.s: cop1 (0x11), rs=0x10 (single fmt), fn=0x00
	// fd is encoded in the sa field, fs in rd, ft in rt.
	instr := uint32(0x11<<26) | (0x10 << 21) | (7 << 16) | (3 << 11) | (9 << 6) | 0x00
	got := Disassemble(instr, 0)
	if !strings.Contains(got, "f9") || !strings.Contains(got, "f3") || !strings.Contains(got, "f7") {
		t.Errorf("Disassemble(add.s) = %q, want f9 (dst/sa), f3 (fs/rd), f7 (ft/rt)", got)
	}
}
