// Package schedule defines Moment, the tagged date/time value used everywhere
// dealflow compares dates.  A Moment knows whether it carries a calendar date
// or a full instant, so downstream code never inspects string contents to
// infer precision.  All date truncation happens in UTC; mixing reference
// frames between the two sides of a comparison is a bug this type exists to
// prevent.
package schedule

import (
	"encoding/json"
	"fmt"
	"time"
)

// Precision tags how much of a Moment's value is meaningful.
type Precision string

const (
	// PrecisionDate marks a calendar-date-only value; the time-of-day part
	// is fixed to UTC midnight and carries no information.
	PrecisionDate Precision = "date"

	// PrecisionInstant marks a full timestamp.
	PrecisionInstant Precision = "instant"
)

const dateLayout = "2006-01-02"

// Moment is a date/time value tagged with its precision.  The zero Moment is
// invalid; construct via Date, DateOf, or Instant.
type Moment struct {
	precision Precision
	value     time.Time
}

// Date constructs a date-only Moment for the given calendar day.
func Date(year int, month time.Month, day int) Moment {
	return Moment{
		precision: PrecisionDate,
		value:     time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
	}
}

// DateOf constructs a date-only Moment from t's UTC calendar date.
func DateOf(t time.Time) Moment {
	u := t.UTC()
	return Date(u.Year(), u.Month(), u.Day())
}

// Instant constructs a full-precision Moment.
func Instant(t time.Time) Moment {
	return Moment{precision: PrecisionInstant, value: t.UTC()}
}

// Now returns the current time as an instant Moment.
func Now() Moment {
	return Instant(time.Now())
}

// Today returns the current UTC calendar date as a date-only Moment.
func Today() Moment {
	return DateOf(time.Now())
}

// Precision returns the Moment's precision tag.
func (m Moment) Precision() Precision {
	return m.precision
}

// Time returns the underlying instant.  For date-only Moments this is the
// UTC midnight of the calendar day, which is also the sort key used by the
// task classifier.
func (m Moment) Time() time.Time {
	return m.value
}

// IsZero reports whether the Moment is the invalid zero value.
func (m Moment) IsZero() bool {
	return m.precision == "" || m.value.IsZero()
}

// DateTruncated returns the Moment's UTC calendar date as a time.Time at
// midnight.  Both precisions truncate identically, so precision can never
// change bucket membership in date-granularity comparisons.
func (m Moment) DateTruncated() time.Time {
	u := m.value.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// CompareDate compares two Moments at date granularity: -1 when m's calendar
// day is before other's, 0 when equal, +1 when after.
func (m Moment) CompareDate(other Moment) int {
	a, b := m.DateTruncated(), other.DateTruncated()
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

// Before reports whether m sorts strictly before other by full instant.
// Date-only entries sort as their midnight instant.
func (m Moment) Before(other Moment) bool {
	return m.value.Before(other.value)
}

// AddDays returns a Moment the given number of days later (negative for
// earlier), preserving precision.
func (m Moment) AddDays(days int) Moment {
	return Moment{precision: m.precision, value: m.value.AddDate(0, 0, days)}
}

// String renders the Moment at its own precision.
func (m Moment) String() string {
	if m.precision == PrecisionDate {
		return m.value.Format(dateLayout)
	}
	return m.value.Format(time.RFC3339)
}

// MarshalJSON encodes date-only Moments as "2006-01-02" and instants as
// RFC3339, so the persisted shape round-trips the precision tag.
func (m Moment) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decides precision at the parse boundary: a bare calendar
// date becomes PrecisionDate, anything RFC3339-shaped becomes
// PrecisionInstant.
func (m *Moment) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Parse converts a stored string into a Moment, deciding precision from the
// layout that matches.  This is the single place the distinction is made.
func Parse(s string) (Moment, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return Instant(t), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Instant(t), nil
	}
	return Moment{}, fmt.Errorf("schedule: cannot parse moment %q", s)
}

// FromStored reconstructs a Moment from a timestamp column plus its stored
// precision tag.  Repositories use this instead of re-inferring precision
// from the value.
func FromStored(t time.Time, p Precision) Moment {
	if p == PrecisionDate {
		return DateOf(t)
	}
	return Instant(t)
}
