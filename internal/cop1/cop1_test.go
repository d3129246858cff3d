package cop1

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertSaturatesInfinityAndNaN(t *testing.T) {
	cases := []struct {
		name string
		in   uint32
		want uint32
	}{
		{"positive infinity", 0x7F800000, 0x7F7FFFFF},
		{"negative infinity", 0xFF800000, 0xFF7FFFFF},
		{"quiet NaN", 0x7FC00000, 0x7F7FFFFF},
		{"ordinary value unchanged", 0x3F800000, 0x3F800000},
		{"zero unchanged", 0x00000000, 0x00000000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, convert(tc.in))
		})
	}
}

func TestMtc1Mfc1RawRoundTrip(t *testing.T) {
	f := New()
	f.SetRaw(0, 0x7F800000)
	assert.Equal(t, uint32(0x7F800000), f.Raw(0), "raw mtc1/mfc1 must not apply the saturating convert")
}

func TestAddSaturatesBothOperandsBeforeArithmetic(t *testing.T) {
	f := New()
	f.SetRaw(0, 0x7F800000) // +infinity pattern
	f.Add(2, 0, 0)

	assert.Equal(t, uint32(0x7F7FFFFF), f.Raw(2))
}

func TestMovNegAbsBypassConversion(t *testing.T) {
	f := New()
	f.SetRaw(1, 0x7F800000)

	f.Mov(2, 1)
	assert.Equal(t, uint32(0x7F800000), f.Raw(2), "mov.s must copy the raw pattern unconverted")

	f.Neg(3, 1)
	assert.Equal(t, uint32(0xFF800000), f.Raw(3))

	f.Abs(4, 3)
	assert.Equal(t, uint32(0x7F800000), f.Raw(4))
}

func TestCompareReadsRawPatternWithoutConversion(t *testing.T) {
	f := New()
	f.SetRaw(0, 0x7F800000) // +infinity
	f.SetRaw(1, 0x7F7FFFFF) // max finite

	f.CLtS(1, 0)
	assert.True(t, f.Cond(), "max-finite < +infinity must hold when compared as raw bit patterns")
}

func TestCvtWSTruncatesTowardZero(t *testing.T) {
	f := New()
	f.SetF(0, 3.9)
	f.CvtWS(1, 0)
	assert.Equal(t, int32(3), int32(f.Raw(1)))

	f.SetF(0, -3.9)
	f.CvtWS(1, 0)
	assert.Equal(t, int32(-3), int32(f.Raw(1)))
}

func TestCvtWSClampsOutOfRangeValues(t *testing.T) {
	f := New()
	f.SetF(0, float32(1e20))
	f.CvtWS(1, 0)
	assert.Equal(t, int32(math.MaxInt32), int32(f.Raw(1)))

	f.SetF(0, float32(-1e20))
	f.CvtWS(1, 0)
	assert.Equal(t, int32(math.MinInt32), int32(f.Raw(1)))
}

func TestCvtSWRoundsToNearest(t *testing.T) {
	f := New()
	f.SetRaw(0, uint32(int32(7)))
	f.CvtSW(1, 0)
	assert.InDelta(t, float32(7.0), f.F(1), 0.0001)
}

func TestAccumulatorChainThroughAddaAndMadd(t *testing.T) {
	f := New()
	f.SetF(1, 1.5)
	f.SetF(2, 2.5)
	f.Adda(1, 2) // acc = 4.0

	f.SetF(3, 2.0)
	f.SetF(4, 10.0)
	f.Madd(5, 3, 4) // f5 = acc + 2*10 = 24

	assert.InDelta(t, float32(24.0), f.F(5), 0.0001)
}

func TestSubaSubtractsIntoAccumulator(t *testing.T) {
	f := New()
	f.SetF(1, 5.0)
	f.SetF(2, 3.0)
	f.Suba(1, 2) // acc = 2.0

	f.SetF(3, 0.0)
	f.SetF(4, 0.0)
	f.Madd(5, 3, 4) // f5 = acc + 0

	assert.InDelta(t, float32(2.0), f.F(5), 0.0001)
}

func TestCfc1FixedRegisters(t *testing.T) {
	f := New()
	if got := f.Cfc1(0); got != 0x2E00 {
		t.Errorf("Cfc1(0) = %#x, want 0x2E00", got)
	}
	f.Ctc1(31, 1<<23)
	if got := f.Cfc1(31); got != 1<<23 {
		t.Errorf("Cfc1(31) after Ctc1 = %#x, want 1<<23", got)
	}
	if got := f.Cfc1(5); got != 0 {
		t.Errorf("Cfc1(5) = %#x, want 0", got)
	}
}

func TestResetClearsRegistersAccumulatorAndCondition(t *testing.T) {
	f := New()
	f.SetRaw(0, 0xdeadbeef)
	f.Ctc1(31, 1<<23)

	f.Reset()

	assert.Equal(t, uint32(0), f.Raw(0))
	assert.False(t, f.Cond())
}
