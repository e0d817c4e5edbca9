/*
Package summary computes derived views over a time-entry store.

The aggregates here are pure functions of a store snapshot and a reference
date: no side effects, no persistence, reproducible given identical inputs.
Recompute on every mutation; never store the result.
*/
package summary

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/timeportal/datemath"
	"github.com/warp/timeportal/entry"
)

// DefaultWeeklyTarget is the portal's standing full-time-week threshold in
// hours. Deployments may override it via configuration; it is a default,
// not a law of nature.
var DefaultWeeklyTarget = decimal.NewFromInt(40)

// EntryView is the read-only slice of the entry store the aggregator needs.
// *entry.Store satisfies it.
type EntryView interface {
	Get(d datemath.Date) (entry.TimeEntry, bool)
	IsSubmitted(k datemath.WeekKey) bool
}

// =============================================================================
// DAY CLASSIFICATION
// =============================================================================

// DayStatus classifies one day of a week.
type DayStatus string

const (
	StatusNoEntry  DayStatus = "no-entry"
	StatusTimeOff  DayStatus = "time-off"
	StatusRegular  DayStatus = "regular"
	StatusOvertime DayStatus = "overtime"
	StatusShortDay DayStatus = "short-day"
)

// Classify returns the status of an entry and its approval sub-state.
// Regular days and absent days have no approval dimension.
func Classify(e entry.TimeEntry, ok bool) (DayStatus, bool) {
	switch {
	case !ok:
		return StatusNoEntry, false
	case e.IsTimeOff:
		return StatusTimeOff, e.ManagerApproved
	case e.IsOvertime():
		return StatusOvertime, e.OvertimeApproved
	case e.IsShortDay():
		return StatusShortDay, e.ShortDayApproved
	default:
		return StatusRegular, false
	}
}

// =============================================================================
// WEEK AGGREGATE
// =============================================================================

// DaySummary is the classification of one day in a week.
type DaySummary struct {
	Date     datemath.Date
	Status   DayStatus
	Hours    decimal.Decimal
	Approved bool
}

// WeekAggregate is the derived, non-persisted summary of one week.
type WeekAggregate struct {
	Key        datemath.WeekKey
	Days       [7]DaySummary
	TotalHours decimal.Decimal
	Target     decimal.Decimal

	// Remaining is target - total when under target, zero otherwise.
	// Overtime is total - target when over target, zero otherwise.
	Remaining decimal.Decimal
	Overtime  decimal.Decimal

	Submitted      bool
	SubmitEligible bool
}

// Summarize computes the aggregate for the week containing ref. A zero
// target means DefaultWeeklyTarget. Hours are summed exactly as reported;
// time-off days contribute nothing.
func Summarize(view EntryView, ref datemath.Date, target decimal.Decimal) WeekAggregate {
	if target.IsZero() {
		target = DefaultWeeklyTarget
	}

	agg := WeekAggregate{
		Key:    datemath.WeekKeyFor(ref),
		Target: target,
	}

	total := decimal.Zero
	for i, d := range datemath.WeekDates(ref) {
		e, ok := view.Get(d)
		status, approved := Classify(e, ok)
		agg.Days[i] = DaySummary{Date: d, Status: status, Hours: e.Hours, Approved: approved}
		if ok && !e.IsTimeOff {
			total = total.Add(e.Hours)
		}
	}

	agg.TotalHours = total
	agg.Remaining = decimal.Max(target.Sub(total), decimal.Zero)
	agg.Overtime = decimal.Max(total.Sub(target), decimal.Zero)
	agg.Submitted = view.IsSubmitted(agg.Key)
	agg.SubmitEligible = !agg.Submitted && total.GreaterThanOrEqual(target)
	return agg
}

// =============================================================================
// MONTH GRID
// =============================================================================

// MonthCell is one day cell of the calendar month view.
type MonthCell struct {
	Date        datemath.Date
	Day         int
	Week        datemath.WeekKey
	CurrentWeek bool
	PastWeek    bool
	Locked      bool
	Editable    bool
	Status      DayStatus
	Hours       decimal.Decimal
	Approved    bool
	HasEntry    bool
}

// MonthView is the Monday-first month grid the calendar renders.
type MonthView struct {
	Year  int
	Month time.Month

	// LeadingBlanks is the number of empty cells before day 1 in a
	// Monday-first grid.
	LeadingBlanks int

	Cells []MonthCell
}

// Month builds the grid for a calendar month as of now. A day is editable
// only in the current, unsubmitted week, matching the portal's edit rule.
func Month(view EntryView, year int, month time.Month, now time.Time) (MonthView, error) {
	first, err := datemath.FirstWeekdayOfMonth(year, month)
	if err != nil {
		return MonthView{}, err
	}
	days, err := datemath.DaysInMonth(year, month)
	if err != nil {
		return MonthView{}, err
	}

	mv := MonthView{
		Year:          year,
		Month:         month,
		LeadingBlanks: (int(first) + 6) % 7,
		Cells:         make([]MonthCell, 0, days),
	}

	for day := 1; day <= days; day++ {
		d := datemath.New(year, month, day)
		week := datemath.WeekKeyFor(d)
		e, ok := view.Get(d)
		status, approved := Classify(e, ok)

		cell := MonthCell{
			Date:        d,
			Day:         day,
			Week:        week,
			CurrentWeek: datemath.IsCurrentWeekAt(d, now),
			PastWeek:    datemath.IsPastWeekAt(d, now),
			Locked:      view.IsSubmitted(week),
			Status:      status,
			Hours:       e.Hours,
			Approved:    approved,
			HasEntry:    ok,
		}
		cell.Editable = cell.CurrentWeek && !cell.PastWeek && !cell.Locked
		mv.Cells = append(mv.Cells, cell)
	}
	return mv, nil
}
