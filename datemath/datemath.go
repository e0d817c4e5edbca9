/*
Package datemath provides the date and week arithmetic the portal is built on.

PURPOSE:
  Every map key and every week boundary in the system comes from this package.
  All computation happens on UTC-midnight-normalized dates, which eliminates
  the local-vs-UTC key mismatches that make entries "disappear" in naive
  implementations.

KEY CONCEPTS:
  - Date: a civil day truncated to UTC midnight. Comparable, usable as a map key.
  - WeekKey: (ISO year, ISO week number), the submittable unit of work.
  - Weeks start on Monday and are numbered per ISO-8601 (the week containing
    the year's first Thursday is week 1).

USAGE:
  d, err := datemath.Normalize(time.Now())
  week := datemath.WeekKeyFor(d)          // e.g. 2026-W01
  days := datemath.WeekDates(d)           // Monday..Sunday

SEE ALSO:
  - entry: keys its entry map by Date and its lock set by WeekKey
  - summary: walks WeekDates to aggregate a week
*/
package datemath

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidArgument is returned for out-of-range years/months and
// malformed dates. Always recoverable by rejecting the input.
var ErrInvalidArgument = errors.New("invalid argument")

const (
	minYear = 1900
	maxYear = 2100
)

// =============================================================================
// DATE - UTC-midnight-normalized civil day
// =============================================================================

// Date is a calendar date truncated to midnight UTC. Two dates referring to
// the same civil day always compare equal, regardless of the timezone of the
// time.Time they were built from. Construct via New or Normalize only.
type Date struct {
	t time.Time
}

// New builds a Date directly from civil components.
func New(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Normalize truncates a raw time to its UTC-midnight Date, keying on the
// wall-clock civil day the caller saw.
func Normalize(raw time.Time) (Date, error) {
	if raw.IsZero() {
		return Date{}, fmt.Errorf("normalize: zero time: %w", ErrInvalidArgument)
	}
	y, m, d := raw.Date()
	if y < minYear || y > maxYear {
		return Date{}, fmt.Errorf("normalize: year %d out of range: %w", y, ErrInvalidArgument)
	}
	return New(y, m, d), nil
}

// Today returns the current civil day.
func Today() Date {
	y, m, d := time.Now().Date()
	return New(y, m, d)
}

// Comparison
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }
func (d Date) IsZero() bool           { return d.t.IsZero() }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) Time() time.Time       { return d.t }

// String formats as 2006-01-02, the canonical cache-key form.
func (d Date) String() string { return d.t.Format("2006-01-02") }

// ISO8601 formats as an RFC 3339 instant at UTC midnight, the form the
// persisted submission records use for day dates.
func (d Date) ISO8601() string { return d.t.Format(time.RFC3339) }

// ParseDate parses the canonical 2006-01-02 form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, ErrInvalidArgument)
	}
	return Normalize(t)
}

// =============================================================================
// MONTH ARITHMETIC
// =============================================================================

func validateYearMonth(year int, month time.Month) error {
	if year < minYear || year > maxYear {
		return fmt.Errorf("year %d out of range [%d, %d]: %w", year, minYear, maxYear, ErrInvalidArgument)
	}
	if month < time.January || month > time.December {
		return fmt.Errorf("month %d out of range: %w", int(month), ErrInvalidArgument)
	}
	return nil
}

// DaysInMonth returns the number of calendar days in the given month.
func DaysInMonth(year int, month time.Month) (int, error) {
	if err := validateYearMonth(year, month); err != nil {
		return 0, err
	}
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day(), nil
}

// FirstWeekdayOfMonth returns the weekday of the month's first day
// (time.Sunday = 0).
func FirstWeekdayOfMonth(year int, month time.Month) (time.Weekday, error) {
	if err := validateYearMonth(year, month); err != nil {
		return 0, err
	}
	return New(year, month, 1).Weekday(), nil
}

// =============================================================================
// WEEK ARITHMETIC - Monday-start, ISO-8601 numbering
// =============================================================================

// mondayIndex shifts time.Weekday so Monday=0..Sunday=6.
func mondayIndex(wd time.Weekday) int { return (int(wd) + 6) % 7 }

// WeekStart returns the Monday of the week containing d.
func WeekStart(d Date) Date {
	return d.AddDays(-mondayIndex(d.Weekday()))
}

// WeekEnd returns the Sunday six days after the given week start.
func WeekEnd(weekStart Date) Date {
	return weekStart.AddDays(6)
}

// WeekDates returns the 7 dates of d's week, Monday through Sunday.
func WeekDates(d Date) [7]Date {
	start := WeekStart(d)
	var dates [7]Date
	for i := range dates {
		dates[i] = start.AddDays(i)
	}
	return dates
}

// ISOWeek returns the ISO-8601 week year and week number (1..53) for d.
//
// Algorithm: shift d to the Thursday of its week, then count weeks from the
// start of that Thursday's year. Anchoring on the Thursday resolves the
// year-boundary cases directly: Dec 29-31 dates that belong to next year's
// week 1 shift into January, and Jan 1-3 dates that belong to the previous
// year's week 52/53 shift into December.
func ISOWeek(d Date) (year, week int) {
	thursday := d.AddDays(3 - mondayIndex(d.Weekday()))
	return thursday.Year(), (thursday.t.YearDay() + 6) / 7
}

// IsCurrentWeekAt reports whether d falls in the week containing now.
func IsCurrentWeekAt(d Date, now time.Time) bool {
	ref, err := Normalize(now)
	if err != nil {
		return false
	}
	start := WeekStart(ref)
	end := WeekEnd(start)
	return !d.Before(start) && !d.After(end)
}

// IsPastWeekAt reports whether d falls strictly before the week containing now.
func IsPastWeekAt(d Date, now time.Time) bool {
	ref, err := Normalize(now)
	if err != nil {
		return false
	}
	return d.Before(WeekStart(ref))
}

// IsCurrentWeek reports whether d falls in this week.
func IsCurrentWeek(d Date) bool { return IsCurrentWeekAt(d, time.Now()) }

// IsPastWeek reports whether d falls in an already-finished week.
func IsPastWeek(d Date) bool { return IsPastWeekAt(d, time.Now()) }

// =============================================================================
// WEEK KEY - The submittable unit
// =============================================================================

// WeekKey identifies one ISO week, the unit a worker submits for approval.
// The year is the ISO week year, which near year boundaries can differ from
// the calendar year of individual days in the week.
type WeekKey struct {
	Year int
	Week int
}

// WeekKeyFor derives the WeekKey for the week containing d.
func WeekKeyFor(d Date) WeekKey {
	y, w := ISOWeek(d)
	return WeekKey{Year: y, Week: w}
}

// String serializes as YYYY-Www, e.g. "2026-W01". This form is also the
// external document-id suffix, so it must stay stable.
func (k WeekKey) String() string {
	return fmt.Sprintf("%04d-W%02d", k.Year, k.Week)
}

// ParseWeekKey parses the YYYY-Www form.
func ParseWeekKey(s string) (WeekKey, error) {
	var k WeekKey
	if _, err := fmt.Sscanf(s, "%4d-W%2d", &k.Year, &k.Week); err != nil {
		return WeekKey{}, fmt.Errorf("parse week key %q: %w", s, ErrInvalidArgument)
	}
	if k.Year < minYear || k.Year > maxYear || k.Week < 1 || k.Week > 53 {
		return WeekKey{}, fmt.Errorf("week key %q out of range: %w", s, ErrInvalidArgument)
	}
	return k, nil
}
