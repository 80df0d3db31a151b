package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBuildsHalfOpenRange(t *testing.T) {
	dr, err := Parse("2026-01-10", "2026-01-13")
	require.NoError(t, err)

	assert.Equal(t, []string{"2026-01-10", "2026-01-11", "2026-01-12"}, dr.Keys())
	assert.Equal(t, 3, dr.Nights())
}

func TestParseRejectsInvertedAndZeroRanges(t *testing.T) {
	_, err := Parse("2026-01-13", "2026-01-10")
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = Parse("2026-01-10", "2026-01-10")
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestParseRejectsMalformedKeys(t *testing.T) {
	for _, raw := range []string{"2026-1-10", "10-01-2026", "2026/01/10", "yesterday", ""} {
		_, err := ParseKey(raw)
		assert.Error(t, err, raw)
	}
}

func TestKeysCrossMonthBoundary(t *testing.T) {
	dr, err := Parse("2026-01-30", "2026-02-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-01-30", "2026-01-31", "2026-02-01"}, dr.Keys())
}

func TestKeysCrossLeapDay(t *testing.T) {
	dr, err := Parse("2028-02-28", "2028-03-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"2028-02-28", "2028-02-29"}, dr.Keys())
}

func TestNewTruncatesToUTCDay(t *testing.T) {
	loc := time.FixedZone("ICT", 7*60*60)
	in := time.Date(2026, 3, 5, 23, 30, 0, 0, loc)
	out := time.Date(2026, 3, 7, 1, 15, 0, 0, loc)

	dr, err := New(in, out)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-05", "2026-03-06"}, dr.Keys())
}

func TestOverlaps(t *testing.T) {
	base, err := Parse("2026-05-10", "2026-05-15")
	require.NoError(t, err)

	cases := []struct {
		name     string
		in, out  string
		overlaps bool
	}{
		{"inside", "2026-05-11", "2026-05-13", true},
		{"spanning", "2026-05-08", "2026-05-20", true},
		{"before", "2026-05-01", "2026-05-05", false},
		{"adjacent checkout day", "2026-05-15", "2026-05-18", false},
		{"adjacent checkin day", "2026-05-08", "2026-05-10", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			other, err := Parse(tc.in, tc.out)
			require.NoError(t, err)
			assert.Equal(t, tc.overlaps, base.Overlaps(other))
		})
	}
}

func TestContainsDate(t *testing.T) {
	dr, err := Parse("2026-05-10", "2026-05-12")
	require.NoError(t, err)

	checkIn, _ := ParseKey("2026-05-10")
	lastNight, _ := ParseKey("2026-05-11")
	checkOut, _ := ParseKey("2026-05-12")

	assert.True(t, dr.ContainsDate(checkIn))
	assert.True(t, dr.ContainsDate(lastNight))
	assert.False(t, dr.ContainsDate(checkOut))
}

func TestKeysOnInvalidRangeIsNil(t *testing.T) {
	assert.Nil(t, DateRange{}.Keys())
	assert.Equal(t, 0, DateRange{}.Nights())
}
