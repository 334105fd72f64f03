package ident

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalFloat64NaN(t *testing.T) {
	payloads := []float64{
		math.NaN(),
		math.Float64frombits(0xfff8000000000001), // a different NaN bit pattern
		math.Float64frombits(0x7ff0000000000001), // signaling NaN
	}
	for _, p := range payloads {
		got := CanonicalFloat64(p)
		require.Equal(t, math.Float64bits(canonicalQuietNaN), math.Float64bits(got))
	}
}

func TestCanonicalFloat64SignedZero(t *testing.T) {
	require.Equal(t, CanonicalFloat64Bits(0), CanonicalFloat64Bits(math.Copysign(0, -1)))
}

func TestCanonicalFloat64Subnormal(t *testing.T) {
	subnormal := math.Float64frombits(1) // smallest positive subnormal
	require.Equal(t, float64(0), CanonicalFloat64(subnormal))
}

func TestCanonicalFloat64Normal(t *testing.T) {
	require.Equal(t, 3.25, CanonicalFloat64(3.25))
}

func TestQ32_32Saturation(t *testing.T) {
	require.Equal(t, MaxQ32_32, NewQ32_32FromInt64(math.MaxInt64))
	require.Equal(t, MinQ32_32, NewQ32_32FromInt64(math.MinInt64))
	require.Equal(t, MaxQ32_32, NewQ32_32FromFloat64(math.Inf(1)))
	require.Equal(t, MinQ32_32, NewQ32_32FromFloat64(math.Inf(-1)))
}

func TestQ32_32RoundTrip(t *testing.T) {
	q := NewQ32_32FromFloat64(1.5)
	require.InDelta(t, 1.5, q.Float64(), 1e-9)
}

func TestQ32_32AddSaturates(t *testing.T) {
	sum := MaxQ32_32.Add(NewQ32_32FromInt64(1))
	require.Equal(t, MaxQ32_32, sum)
}
