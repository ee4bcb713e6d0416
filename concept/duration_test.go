package concept

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDurationFullForm(t *testing.T) {
	d, err := ParseDuration("P1Y2M3DT4H5M6.5S")
	require.NoError(t, err)
	require.Equal(t, int64(1), d.Years)
	require.Equal(t, int64(2), d.Months)
	require.Equal(t, int64(3), d.Days)
	require.Equal(t, int64(4), d.Hours)
	require.Equal(t, int64(5), d.Minutes)
	require.InDelta(t, 6.5, d.Seconds, 0.0001)
}

func TestParseDurationDateOnly(t *testing.T) {
	d, err := ParseDuration("P10D")
	require.NoError(t, err)
	require.Equal(t, int64(10), d.Days)
	require.Zero(t, d.Hours)
}

func TestParseDurationRejectsMissingP(t *testing.T) {
	_, err := ParseDuration("1Y")
	require.Error(t, err)
}

func TestDurationStringRoundTrips(t *testing.T) {
	d, err := ParseDuration("P1Y2M3DT4H5M6.5S")
	require.NoError(t, err)
	reparsed, err := ParseDuration(d.String())
	require.NoError(t, err)
	require.Equal(t, d, reparsed)
}

func TestDurationZeroStringIsP0D(t *testing.T) {
	require.Equal(t, "P0D", Duration{}.String())
}
