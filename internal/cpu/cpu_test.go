package cpu

import (
	"encoding/binary"
	"testing"

	"github.com/rcornwell/eecore/internal/bus"
)

// memBus is a flat little-endian memory fake satisfying bus.Bus,
// sized generously enough for the boot vector and every test's
// working addresses.
type memBus struct {
	mem map[uint32][]byte
}

func newMemBus() *memBus { return &memBus{mem: make(map[uint32][]byte)} }

func (m *memBus) bytes(addr uint32, n int) []byte {
	key := addr &^ 0xf
	block, ok := m.mem[key]
	if !ok {
		block = make([]byte, 16)
		m.mem[key] = block
	}
	return block
}

func (m *memBus) Read8(addr uint32) uint8 {
	return m.bytes(addr, 1)[addr&0xf]
}
func (m *memBus) Write8(addr uint32, v uint8) {
	m.bytes(addr, 1)[addr&0xf] = v
}
func (m *memBus) Read16(addr uint32) uint16 {
	b := m.bytes(addr, 2)
	off := addr & 0xf
	return binary.LittleEndian.Uint16(b[off:])
}
func (m *memBus) Write16(addr uint32, v uint16) {
	b := m.bytes(addr, 2)
	binary.LittleEndian.PutUint16(b[addr&0xf:], v)
}
func (m *memBus) Read32(addr uint32) uint32 {
	b := m.bytes(addr, 4)
	off := addr & 0xf
	return binary.LittleEndian.Uint32(b[off:])
}
func (m *memBus) Write32(addr uint32, v uint32) {
	b := m.bytes(addr, 4)
	binary.LittleEndian.PutUint32(b[addr&0xf:], v)
}
func (m *memBus) Read64(addr uint32) uint64 {
	b := m.bytes(addr, 8)
	off := addr & 0xf
	return binary.LittleEndian.Uint64(b[off:])
}
func (m *memBus) Write64(addr uint32, v uint64) {
	b := m.bytes(addr, 8)
	binary.LittleEndian.PutUint64(b[addr&0xf:], v)
}
func (m *memBus) ReadQuad(addr uint32) bus.Quadword {
	return bus.Quadword{m.Read64(addr), m.Read64(addr + 8)}
}
func (m *memBus) WriteQuad(addr uint32, v bus.Quadword) {
	m.Write64(addr, v[0])
	m.Write64(addr+8, v[1])
}

type fakeINTC struct {
	irqs  []bus.Interrupt
	int1  []bool
}

func (f *fakeINTC) AssertIRQ(line bus.Interrupt) { f.irqs = append(f.irqs, line) }
func (f *fakeINTC) SetINT1Signal(level bool)     { f.int1 = append(f.int1, level) }

func newTestCPU() (*CPU, *memBus) {
	m := newMemBus()
	c := New(m, &fakeINTC{})
	c.Reset()
	return c, m
}

func encodeIType(op, rs, rt uint32, imm uint16) uint32 {
	return (op << 26) | (rs << 21) | (rt << 16) | uint32(imm)
}

func TestRegisterZeroInvariantAcrossSteps(t *testing.T) {
	c, m := newTestCPU()
	pc := c.Reg.PC()
	// addiu r0, r0, 5: a write that should be discarded.
	m.Write32(pc, encodeIType(0x09, 0, 0, 5))
	c.Step()

	if got := c.Reg.Word(0, 0); got != 0 {
		t.Errorf("r0 after addiu r0,r0,5 = %#x, want 0", got)
	}
}

func TestWriteThenReadMemoryScenario(t *testing.T) {
	c, m := newTestCPU()
	pc := c.Reg.PC()
	// addiu r1, r0, 0x1234
	m.Write32(pc, encodeIType(0x09, 0, 1, 0x1234))
	// sw r1, 0(r2), with r2 preloaded to 0x00100000
	m.Write32(pc+4, encodeIType(0x2b, 2, 1, 0))

	c.Reg.SetDoubleSext32(2, 0x00100000)
	c.Step()
	c.Step()

	want := []byte{0x34, 0x12, 0x00, 0x00}
	for i, w := range want {
		if got := m.Read8(0x00100000 + uint32(i)); got != w {
			t.Errorf("mem[0x100000+%d] = %#x, want %#x", i, got, w)
		}
	}
}

func TestBranchLikelyNotTakenSkipsDelaySlot(t *testing.T) {
	c, m := newTestCPU()
	pc := c.Reg.PC()
	c.Reg.SetDoubleSext32(1, 1) // r1 != 0, so beql r0,r1 is not taken

	// beql r0, r1, +1
	m.Write32(pc, encodeIType(0x14, 0, 1, 1))
	// delay slot: addiu r5, r0, 0x1111 (must be skipped)
	m.Write32(pc+4, encodeIType(0x09, 0, 5, 0x1111))

	c.Step() // executes the beql only; delay slot is skipped entirely
	if got := c.Reg.PC(); got != pc+8 {
		t.Fatalf("PC after not-taken beql = %#x, want %#x", got, pc+8)
	}

	if got := c.Reg.Word(5, 0); got != 0 {
		t.Errorf("r5 = %#x, want 0 (delay slot must not have executed)", got)
	}
}

func TestBranchDelaySlotAlwaysExecutesOnOrdinaryBranch(t *testing.T) {
	c, m := newTestCPU()
	pc := c.Reg.PC()

	// beq r0, r0, +1 (always taken)
	m.Write32(pc, encodeIType(0x04, 0, 0, 1))
	// delay slot: addiu r5, r0, 0x2222
	m.Write32(pc+4, encodeIType(0x09, 0, 5, 0x2222))

	c.Step() // executes beq, schedules branch
	c.Step() // executes delay slot, then applies the branch

	if got := c.Reg.Word(5, 0); got != 0x2222 {
		t.Errorf("r5 = %#x, want 0x2222 (delay slot must execute)", got)
	}
	wantPC := pc + 4 + uint32(int32(1)<<2)
	if got := c.Reg.PC(); got != wantPC {
		t.Errorf("PC after taken beq's delay slot = %#x, want %#x", got, wantPC)
	}
}

func TestFPUSaturationThroughMtc1AndAddS(t *testing.T) {
	c, m := newTestCPU()
	pc := c.Reg.PC()

	// addiu r1, r0, 0 then lui r1 isn't enough for a 32-bit immediate;
	// build 0x7F800000 via lui r1, 0x7F80.
	m.Write32(pc, encodeIType(0x0f, 0, 1, 0x7F80))
	// mtc1 f0, r1  (cop1 rs=0x04 mtc, rt=r1, rd=f0)
	m.Write32(pc+4, (0x11<<26)|(0x04<<21)|(1<<16)|(0<<11))
	// add.s f2, f0, f0: cop1, rs=0x10, fn=0x00, sa(fd)=2, rd(fs)=0, rt(ft)=0
	m.Write32(pc+8, (0x11<<26)|(0x10<<21)|(0<<16)|(0<<11)|(2<<6)|0x00)

	c.Step()
	c.Step()
	c.Step()

	if got := c.FPU.Raw(2); got != 0x7F7FFFFF {
		t.Errorf("f2 after mtc1+add.s saturation = %#x, want 0x7F7FFFFF", got)
	}
}

func TestJalrLinksReturnAddressAndJumpsToRegister(t *testing.T) {
	c, m := newTestCPU()
	pc := c.Reg.PC()
	c.Reg.SetDoubleSext32(4, 0x1000) // target in r4

	// jalr r31, r4 (SPECIAL fn 0x09)
	m.Write32(pc, (0x00<<26)|(4<<21)|(0<<16)|(31<<11)|0x09)
	// delay slot: nop
	m.Write32(pc+4, 0)

	c.Step()
	c.Step()

	if got := c.Reg.Double(31, 0); got != uint64(pc+8) {
		t.Errorf("r31 (link) = %#x, want %#x", got, pc+8)
	}
	if got := c.Reg.PC(); got != 0x1000 {
		t.Errorf("PC after jalr's delay slot = %#x, want 0x1000", got)
	}
}

func TestBranchLikelyTakenExecutesDelaySlot(t *testing.T) {
	c, m := newTestCPU()
	pc := c.Reg.PC()

	// beql r0, r0, +1 (always taken)
	m.Write32(pc, encodeIType(0x14, 0, 0, 1))
	// delay slot: addiu r5, r0, 0x3333
	m.Write32(pc+4, encodeIType(0x09, 0, 5, 0x3333))

	c.Step()
	c.Step()

	if got := c.Reg.Word(5, 0); got != 0x3333 {
		t.Errorf("r5 = %#x, want 0x3333 (taken beql runs its delay slot)", got)
	}
	wantPC := pc + 4 + 4
	if got := c.Reg.PC(); got != wantPC {
		t.Errorf("PC after taken beql = %#x, want %#x", got, wantPC)
	}
}

func TestBranchComparesFullDoubleword(t *testing.T) {
	c, m := newTestCPU()
	pc := c.Reg.PC()
	// r1 and r2 agree in their low words but differ above bit 31.
	c.Reg.SetDouble(1, 0, 1<<40)

	// bne r1, r2, +2; delay slot nop
	m.Write32(pc, encodeIType(0x05, 1, 2, 2))
	m.Write32(pc+4, 0)

	c.Step()
	c.Step()

	wantPC := pc + 4 + uint32(2<<2)
	if got := c.Reg.PC(); got != wantPC {
		t.Errorf("PC = %#x, want %#x (bne must compare all 64 bits)", got, wantPC)
	}
}

func TestOriOperatesOnFullDoubleword(t *testing.T) {
	c, m := newTestCPU()
	pc := c.Reg.PC()
	c.Reg.SetDouble(1, 0, 0x1234567800000000)

	// ori r2, r1, 0x5
	m.Write32(pc, encodeIType(0x0d, 1, 2, 5))
	c.Step()

	if got := c.Reg.Double(2, 0); got != 0x1234567800000005 {
		t.Errorf("r2 = %#x, want 0x1234567800000005", got)
	}
}

func TestMtsahSetsShiftAmountRegister(t *testing.T) {
	c, m := newTestCPU()
	pc := c.Reg.PC()
	c.Reg.SetDoubleSext32(1, 0xFF)

	// mtsah r1, 0x0F (REGIMM rt=0x19)
	m.Write32(pc, encodeIType(0x01, 1, 0x19, 0x0F))
	c.Step()

	if got := c.Reg.SA(); got != 0x0F {
		t.Errorf("SA = %#x, want 0x0F (rs & imm16)", got)
	}
}

func TestDsll32ShiftsPastThirtyTwo(t *testing.T) {
	c, m := newTestCPU()
	pc := c.Reg.PC()
	c.Reg.SetDouble(1, 0, 1)

	// dsll32 r2, r1, 4 (SPECIAL fn 0x3c)
	m.Write32(pc, (0x00<<26)|(1<<16)|(2<<11)|(4<<6)|0x3c)
	c.Step()

	if got := c.Reg.Double(2, 0); got != 1<<36 {
		t.Errorf("r2 = %#x, want 1<<36", got)
	}
}

func TestMultWritesHiLoAndRd(t *testing.T) {
	c, m := newTestCPU()
	pc := c.Reg.PC()
	c.Reg.SetDoubleSext32(1, 6)
	c.Reg.SetDoubleSext32(2, 7)

	// mult r3, r1, r2 (SPECIAL fn 0x18, three-operand form)
	m.Write32(pc, (0x00<<26)|(1<<21)|(2<<16)|(3<<11)|0x18)
	c.Step()

	if got := c.Reg.LO(0); got != 42 {
		t.Errorf("LO0 = %d, want 42", got)
	}
	if got := c.Reg.HI(0); got != 0 {
		t.Errorf("HI0 = %d, want 0", got)
	}
	if got := c.Reg.Word(3, 0); got != 42 {
		t.Errorf("r3 = %d, want 42 (mult also writes rd)", got)
	}
}

func TestPcpyldPacksLowDoublewords(t *testing.T) {
	c, m := newTestCPU()
	pc := c.Reg.PC()
	c.Reg.SetDouble(1, 0, 0x1111)
	c.Reg.SetDouble(2, 0, 0x2222)

	// pcpyld r3, r1, r2 (MMI fn 0x09 / sub 0x0e)
	m.Write32(pc, (0x1c<<26)|(1<<21)|(2<<16)|(3<<11)|(0x0e<<6)|0x09)
	c.Step()

	if got := c.Reg.Double(3, 0); got != 0x2222 {
		t.Errorf("r3 low doubleword = %#x, want rt's low (0x2222)", got)
	}
	if got := c.Reg.Double(3, 1); got != 0x1111 {
		t.Errorf("r3 high doubleword = %#x, want rs's low (0x1111)", got)
	}
}

func TestMult1UsesSecondPipelineBank(t *testing.T) {
	c, m := newTestCPU()
	pc := c.Reg.PC()
	c.Reg.SetDoubleSext32(1, 5)
	c.Reg.SetDoubleSext32(2, 4)

	// mult1 r0, r1, r2 (MMI fn 0x18)
	m.Write32(pc, (0x1c<<26)|(1<<21)|(2<<16)|0x18)
	c.Step()

	if got := c.Reg.LO(1); got != 20 {
		t.Errorf("LO1 = %d, want 20", got)
	}
	if got := c.Reg.LO(0); got != 0 {
		t.Errorf("LO0 = %d, want 0 (pipeline 0 bank untouched)", got)
	}
}

func TestAddiSignedOverflowIsDetected(t *testing.T) {
	c, m := newTestCPU()
	pc := c.Reg.PC()
	c.Reg.SetDoubleSext32(1, 0x7FFFFFFF)

	// addi r2, r1, 1 overflows; the result still lands, the condition
	// is only logged.
	m.Write32(pc, encodeIType(0x08, 1, 2, 1))
	c.Step()

	if got := c.Reg.Word(2, 0); got != 0x80000000 {
		t.Errorf("r2 = %#x, want 0x80000000", got)
	}
	if got := c.Reg.PC(); got != pc+4 {
		t.Errorf("PC = %#x, want %#x (overflow must not halt execution)", got, pc+4)
	}
}

func TestDivByZeroProducesDeterministicResult(t *testing.T) {
	c, m := newTestCPU()
	pc := c.Reg.PC()
	c.Reg.SetDoubleSext32(1, 42)
	c.Reg.SetDoubleSext32(2, 0)

	// div r1, r2 (SPECIAL fn 0x1a)
	m.Write32(pc, (0x00<<26)|(1<<21)|(2<<16)|0x1a)
	c.Step()

	if got := c.Reg.LO(0); got != uint64(int64(42)) {
		t.Errorf("LO after div-by-zero = %#x, want 42", got)
	}
	if got := c.Reg.HI(0); got != 0 {
		t.Errorf("HI after div-by-zero = %#x, want 0", got)
	}
}
