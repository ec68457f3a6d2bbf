package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareDate_PrecisionNeverChangesOutcome(t *testing.T) {
	today := Date(2024, time.June, 15)

	// 00:00:01 on the same day must compare equal to the date-only moment.
	earlyInstant := Instant(time.Date(2024, time.June, 15, 0, 0, 1, 0, time.UTC))
	assert.Equal(t, 0, earlyInstant.CompareDate(today))

	lateInstant := Instant(time.Date(2024, time.June, 15, 23, 59, 59, 0, time.UTC))
	assert.Equal(t, 0, lateInstant.CompareDate(today))

	yesterday := Instant(time.Date(2024, time.June, 14, 23, 59, 59, 0, time.UTC))
	assert.Equal(t, -1, yesterday.CompareDate(today))

	tomorrow := Date(2024, time.June, 16)
	assert.Equal(t, 1, tomorrow.CompareDate(today))
}

func TestDateTruncated_AlwaysUTC(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 23:30 New York on June 14 is already June 15 in UTC; truncation must
	// follow the single UTC reference frame.
	local := time.Date(2024, time.June, 14, 23, 30, 0, 0, loc)
	m := Instant(local)
	assert.Equal(t, time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC), m.DateTruncated())
}

func TestBefore_DateOnlySortsAsMidnight(t *testing.T) {
	dateOnly := Date(2024, time.June, 15)
	morning := Instant(time.Date(2024, time.June, 15, 9, 0, 0, 0, time.UTC))
	assert.True(t, dateOnly.Before(morning))
	assert.False(t, morning.Before(dateOnly))
}

func TestJSONRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		in   Moment
		want string
	}{
		{"date", Date(2024, time.January, 10), `"2024-01-10"`},
		{"instant", Instant(time.Date(2024, time.March, 1, 14, 30, 0, 0, time.UTC)), `"2024-03-01T14:30:00Z"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := json.Marshal(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(raw))

			var back Moment
			require.NoError(t, json.Unmarshal(raw, &back))
			assert.Equal(t, tc.in.Precision(), back.Precision())
			assert.True(t, back.Time().Equal(tc.in.Time()))
		})
	}
}

func TestParse_DecidesPrecisionAtBoundary(t *testing.T) {
	d, err := Parse("2024-06-15")
	require.NoError(t, err)
	assert.Equal(t, PrecisionDate, d.Precision())

	i, err := Parse("2024-06-15T08:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, PrecisionInstant, i.Precision())

	_, err = Parse("15/06/2024")
	assert.Error(t, err)
}

func TestFromStored(t *testing.T) {
	ts := time.Date(2024, time.June, 15, 17, 45, 0, 0, time.UTC)
	assert.Equal(t, PrecisionDate, FromStored(ts, PrecisionDate).Precision())
	assert.True(t, FromStored(ts, PrecisionDate).Time().Equal(time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, PrecisionInstant, FromStored(ts, PrecisionInstant).Precision())
}

func TestAddDays(t *testing.T) {
	m := Date(2024, time.February, 28)
	assert.Equal(t, "2024-02-29", m.AddDays(1).String()) // leap year
	assert.Equal(t, PrecisionDate, m.AddDays(1).Precision())
}
