package concept

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDecimalNormalizesNegativeFractional(t *testing.T) {
	d := NewDecimal(5, -1)
	require.Equal(t, int64(4), d.Whole)
	require.Equal(t, decimalScale-1, d.Fractional)
}

func TestDecimalAddCarries(t *testing.T) {
	a := NewDecimal(1, decimalScale-1)
	b := NewDecimal(0, 2)
	sum := a.Add(b)
	require.Equal(t, int64(2), sum.Whole)
	require.Equal(t, int64(1), sum.Fractional)
}

func TestDecimalFloat64Conversion(t *testing.T) {
	d := NewDecimal(3, decimalScale/2)
	require.InDelta(t, 3.5, d.Float64(), 0.0001)
}

func TestDecimalFromIntHasZeroFraction(t *testing.T) {
	d := DecimalFromInt(42)
	require.Equal(t, int64(42), d.Whole)
	require.Equal(t, int64(0), d.Fractional)
}
