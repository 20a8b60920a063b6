package timer

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestNextAfter(t *testing.T) {
	utc := time.UTC
	type testCase struct {
		name     string
		now      time.Time
		at       TimeOfDay
		expected time.Time
	}

	testCases := []testCase{
		{
			name:     "before target today",
			now:      time.Date(2021, 6, 1, 0, 30, 0, 0, utc),
			at:       OneAM,
			expected: time.Date(2021, 6, 1, 1, 0, 0, 0, utc),
		},
		{
			name:     "exactly at target",
			now:      time.Date(2021, 6, 1, 1, 0, 0, 0, utc),
			at:       OneAM,
			expected: time.Date(2021, 6, 2, 1, 0, 0, 0, utc),
		},
		{
			name:     "just after target",
			now:      time.Date(2021, 6, 1, 1, 0, 0, 1, utc),
			at:       OneAM,
			expected: time.Date(2021, 6, 2, 1, 0, 0, 0, utc),
		},
		{
			name:     "end of month",
			now:      time.Date(2021, 6, 30, 23, 59, 0, 0, utc),
			at:       OneAM,
			expected: time.Date(2021, 7, 1, 1, 0, 0, 0, utc),
		},
		{
			name:     "end of year",
			now:      time.Date(2021, 12, 31, 13, 0, 0, 0, utc),
			at:       TimeOfDay{Hour: 4, Minute: 30},
			expected: time.Date(2022, 1, 1, 4, 30, 0, 0, utc),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual := NextAfter(tc.now, tc.at)
			assert.Assert(t, actual.Equal(tc.expected), "got %v", actual)
		})
	}
}

func TestNextAfter_KeepsLocation(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	now := time.Date(2021, 6, 1, 2, 0, 0, 0, loc)

	next := NextAfter(now, OneAM)
	assert.Equal(t, next.Location(), loc)
	assert.Equal(t, next.Hour(), 1)
	assert.Equal(t, next.Sub(now), 23*time.Hour)
}

func TestParseTimeOfDay(t *testing.T) {
	v, err := ParseTimeOfDay("01:00")
	assert.NilError(t, err)
	assert.Equal(t, v, OneAM)
	assert.Equal(t, v.String(), "01:00")

	var tod TimeOfDay
	assert.NilError(t, tod.Set("23:15"))
	assert.Equal(t, tod, TimeOfDay{Hour: 23, Minute: 15})

	_, err = ParseTimeOfDay("25:00")
	assert.ErrorContains(t, err, "expected HH:MM")
	_, err = ParseTimeOfDay("1am")
	assert.ErrorContains(t, err, "expected HH:MM")
}
