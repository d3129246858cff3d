package timer

import (
	"testing"

	"github.com/rcornwell/eecore/internal/bus"
)

type fakeINTC struct {
	irqs []bus.Interrupt
}

func (f *fakeINTC) AssertIRQ(line bus.Interrupt) { f.irqs = append(f.irqs, line) }
func (f *fakeINTC) SetINT1Signal(level bool)     {}

func TestMode0CountsEveryOtherTick(t *testing.T) {
	intc := &fakeINTC{}
	tm := New(intc)
	tm.Write32(addrT0Control, ctrlEnable) // mode 0, no interrupt enables

	tm.Step()
	if got := tm.units[0].counter; got != 0 {
		t.Fatalf("counter after 1 tick (mode 0) = %d, want 0", got)
	}
	tm.Step()
	if got := tm.units[0].counter; got != 1 {
		t.Fatalf("counter after 2 ticks (mode 0) = %d, want 1", got)
	}
}

func TestDisabledTimerDoesNotAdvance(t *testing.T) {
	intc := &fakeINTC{}
	tm := New(intc)
	// control left at zero: ctrlEnable not set.
	for i := 0; i < 10; i++ {
		tm.Step()
	}
	if tm.units[0].counter != 0 {
		t.Errorf("counter for disabled timer = %d, want 0", tm.units[0].counter)
	}
}

func TestOverflowAssertsIRQAndWraps(t *testing.T) {
	intc := &fakeINTC{}
	tm := New(intc)
	tm.units[0].counter = 0xFFFF
	tm.Write32(addrT0Control, ctrlEnable|ctrlOverflowInt)

	tm.Step()
	tm.Step()

	if tm.units[0].counter != 0 {
		t.Errorf("counter after overflow = %d, want 0", tm.units[0].counter)
	}
	if len(intc.irqs) != 1 || intc.irqs[0] != bus.IntTIMER0 {
		t.Fatalf("irqs = %v, want exactly one IntTIMER0", intc.irqs)
	}
}

func TestOverflowWithoutInterruptEnableStillWrapsSilently(t *testing.T) {
	intc := &fakeINTC{}
	tm := New(intc)
	tm.units[0].counter = 0xFFFF
	tm.Write32(addrT0Control, ctrlEnable) // overflow_int_enable not set

	tm.Step()
	tm.Step()

	if tm.units[0].counter != 0 {
		t.Errorf("counter after overflow = %d, want 0", tm.units[0].counter)
	}
	if len(intc.irqs) != 0 {
		t.Errorf("irqs = %v, want none (overflow interrupt disabled)", intc.irqs)
	}
}

func TestCompareMatchSetsFlagAndAssertsIRQ(t *testing.T) {
	intc := &fakeINTC{}
	tm := New(intc)
	tm.units[0].counter = 5
	tm.units[0].compare = 5
	tm.Write32(addrT0Control, ctrlEnable|ctrlCompareInt)

	tm.Step()
	tm.Step()

	if tm.units[0].control&ctrlEqualFlag == 0 {
		t.Error("equal flag not set on compare match")
	}
	if len(intc.irqs) != 1 || intc.irqs[0] != bus.IntTIMER0 {
		t.Fatalf("irqs = %v, want exactly one IntTIMER0", intc.irqs)
	}
}

func TestHSyncModeDividesByFifteenThousand(t *testing.T) {
	intc := &fakeINTC{}
	tm := New(intc)
	tm.Write32(addrT3Control, ctrlEnable|modeHSync)

	for i := 0; i < 14999; i++ {
		tm.Step()
	}
	if tm.units[3].counter != 0 {
		t.Fatalf("counter before threshold = %d, want 0", tm.units[3].counter)
	}
	tm.Step()
	if tm.units[3].counter != 1 {
		t.Fatalf("counter at threshold = %d, want 1", tm.units[3].counter)
	}
}

func TestWriteOneToClearOverflowFlag(t *testing.T) {
	intc := &fakeINTC{}
	tm := New(intc)
	tm.units[0].control = ctrlOverflowFlag

	tm.Write32(addrT0Control, ctrlEnable|ctrlOverflowFlag)
	if tm.units[0].control&ctrlOverflowFlag != 0 {
		t.Error("overflow flag not cleared by writing 1 to bit 11")
	}
}

func TestT3CompareRegisterIsWritable(t *testing.T) {
	intc := &fakeINTC{}
	tm := New(intc)
	tm.Write32(addrT3Compare, 0x1234)
	if tm.units[3].compare != 0x1234 {
		t.Errorf("T3 compare = %#x, want 0x1234", tm.units[3].compare)
	}
}

func TestT0CounterReadableAtFixedAddress(t *testing.T) {
	intc := &fakeINTC{}
	tm := New(intc)
	tm.units[0].counter = 7
	if got := tm.Read32(addrT0Counter); got != 7 {
		t.Errorf("Read32(T0 counter) = %d, want 7", got)
	}
}
