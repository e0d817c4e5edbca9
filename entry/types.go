/*
Package entry holds the time-entry domain model and the per-user store.

PURPOSE:
  One TimeEntry records one day's reported time: worked hours or a time-off
  marker, plus the approval flags a manager can grant. The Store owns the
  authoritative in-session map of Date -> TimeEntry together with the set of
  submitted (locked) weeks, hydrates both from a local cache and the remote
  document store, and funnels every mutation through a single choke point so
  the locked-week invariant cannot be bypassed.

DESIGN PRINCIPLES:
  1. The entry value object is the sole source of truth; views derive from it.
  2. Hours use decimal.Decimal so 7.5 + 0.1 never drifts.
  3. An entry of zero hours that is not time-off is "no entry" and is stored
     as absence, never as a zero record.

SEE ALSO:
  - datemath: produces the Date and WeekKey values everything is keyed on
  - summary: pure aggregation over a Store snapshot
  - submission: the week-submission workflow that locks weeks
*/
package entry

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	maxDailyHours  = decimal.NewFromInt(24)
	// RegularDayHours is the boundary between short-day, regular and
	// overtime classification.
	RegularDayHours = decimal.NewFromInt(8)
)

// TimeEntry is one day's reported time.
//
// Hours is meaningful only when IsTimeOff is false; marking time-off forces
// it to zero. Each approval flag matters only for the state it names:
// ManagerApproved for time-off, OvertimeApproved above 8h, ShortDayApproved
// below 8h. Timestamp records the save instant and is informational only.
type TimeEntry struct {
	Hours            decimal.Decimal
	IsTimeOff        bool
	ManagerApproved  bool
	OvertimeApproved bool
	ShortDayApproved bool
	Timestamp        time.Time
}

// Worked builds an entry for a day of worked hours.
func Worked(hours float64) TimeEntry {
	return TimeEntry{Hours: decimal.NewFromFloat(hours)}
}

// TimeOff builds a time-off entry.
func TimeOff(managerApproved bool) TimeEntry {
	return TimeEntry{IsTimeOff: true, ManagerApproved: managerApproved}
}

// Normalized returns the entry with the time-off invariant applied:
// a time-off day carries zero hours.
func (e TimeEntry) Normalized() TimeEntry {
	if e.IsTimeOff {
		e.Hours = decimal.Zero
	}
	return e
}

// Validate checks the shape invariants. The boundary rejects invalid
// entries before any store mutation happens.
func (e TimeEntry) Validate() error {
	if e.Hours.IsNegative() {
		return fmt.Errorf("hours %s is negative: %w", e.Hours, ErrInvalidEntry)
	}
	if e.Hours.GreaterThan(maxDailyHours) {
		return fmt.Errorf("hours %s exceeds 24: %w", e.Hours, ErrInvalidEntry)
	}
	if e.IsTimeOff && !e.Hours.IsZero() {
		return fmt.Errorf("time-off day with %s hours: %w", e.Hours, ErrInvalidEntry)
	}
	return nil
}

// IsEmpty reports whether the entry is semantically "no entry": zero hours
// and not time-off. Empty entries are represented as absence from the store.
func (e TimeEntry) IsEmpty() bool {
	return !e.IsTimeOff && e.Hours.IsZero()
}

// IsOvertime reports whether the worked hours exceed a regular day.
func (e TimeEntry) IsOvertime() bool {
	return !e.IsTimeOff && e.Hours.GreaterThan(RegularDayHours)
}

// IsShortDay reports whether the worked hours fall short of a regular day.
func (e TimeEntry) IsShortDay() bool {
	return !e.IsTimeOff && e.Hours.IsPositive() && e.Hours.LessThan(RegularDayHours)
}
