package datemath_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timeportal/datemath"
)

// =============================================================================
// MONTH ARITHMETIC
// =============================================================================

func TestDaysInMonth_AgreesWithGregorianCalendar(t *testing.T) {
	// Cross-check against the stdlib proleptic Gregorian calendar for the
	// full supported range.
	for year := 1900; year <= 2100; year++ {
		for month := time.January; month <= time.December; month++ {
			got, err := datemath.DaysInMonth(year, month)
			require.NoError(t, err)

			want := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
			require.Equal(t, want, got, "days in %d-%02d", year, month)
		}
	}
}

func TestDaysInMonth_LeapYears(t *testing.T) {
	cases := []struct {
		year int
		want int
	}{
		{2024, 29}, // divisible by 4
		{2025, 28},
		{2000, 29}, // divisible by 400
		{1900, 28}, // divisible by 100 but not 400
	}
	for _, tc := range cases {
		got, err := datemath.DaysInMonth(tc.year, time.February)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "February %d", tc.year)
	}
}

func TestDaysInMonth_InvalidArguments(t *testing.T) {
	_, err := datemath.DaysInMonth(1899, time.January)
	assert.ErrorIs(t, err, datemath.ErrInvalidArgument)

	_, err = datemath.DaysInMonth(2101, time.January)
	assert.ErrorIs(t, err, datemath.ErrInvalidArgument)

	_, err = datemath.DaysInMonth(2025, time.Month(0))
	assert.ErrorIs(t, err, datemath.ErrInvalidArgument)

	_, err = datemath.DaysInMonth(2025, time.Month(13))
	assert.ErrorIs(t, err, datemath.ErrInvalidArgument)
}

func TestFirstWeekdayOfMonth(t *testing.T) {
	// June 2025 starts on a Sunday, September 2025 on a Monday.
	wd, err := datemath.FirstWeekdayOfMonth(2025, time.June)
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, wd)

	wd, err = datemath.FirstWeekdayOfMonth(2025, time.September)
	require.NoError(t, err)
	assert.Equal(t, time.Monday, wd)

	_, err = datemath.FirstWeekdayOfMonth(1850, time.June)
	assert.ErrorIs(t, err, datemath.ErrInvalidArgument)
}

// =============================================================================
// NORMALIZATION
// =============================================================================

func TestNormalize_SameCivilDayFromAnyZone(t *testing.T) {
	// GIVEN: two representations of the same civil day in distant zones
	// THEN: they normalize to the same Date value
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	a, err := datemath.Normalize(time.Date(2025, time.March, 10, 23, 59, 0, 0, tokyo))
	require.NoError(t, err)
	b, err := datemath.Normalize(time.Date(2025, time.March, 10, 0, 1, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.Equal(t, a, b, "normalized dates must be usable as identical map keys")
	assert.Equal(t, "2025-03-10", a.String())
}

func TestNormalize_InvalidInput(t *testing.T) {
	_, err := datemath.Normalize(time.Time{})
	assert.ErrorIs(t, err, datemath.ErrInvalidArgument)
}

func TestParseDate_RoundTrip(t *testing.T) {
	d, err := datemath.ParseDate("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, datemath.New(2025, time.March, 10), d)

	_, err = datemath.ParseDate("not-a-date")
	assert.ErrorIs(t, err, datemath.ErrInvalidArgument)
}

// =============================================================================
// WEEK BOUNDARIES
// =============================================================================

func TestWeekStart_AlwaysMondayAndContainsDate(t *testing.T) {
	// Walk two full years; every date must satisfy
	// weekStart(d) <= d <= weekEnd(weekStart(d)) with a Monday start.
	d := datemath.New(2024, time.January, 1)
	end := datemath.New(2026, time.January, 1)
	for d.Before(end) {
		start := datemath.WeekStart(d)
		require.Equal(t, time.Monday, start.Weekday(), "week start of %s", d)
		require.False(t, d.Before(start), "%s before its week start", d)
		require.False(t, d.After(datemath.WeekEnd(start)), "%s after its week end", d)
		d = d.AddDays(1)
	}
}

func TestWeekDates_MondayThroughSunday(t *testing.T) {
	// Wednesday 2025-03-12 lives in the week of Monday 2025-03-10.
	dates := datemath.WeekDates(datemath.New(2025, time.March, 12))

	assert.Equal(t, datemath.New(2025, time.March, 10), dates[0])
	assert.Equal(t, datemath.New(2025, time.March, 16), dates[6])
	for i, d := range dates {
		assert.Equal(t, datemath.New(2025, time.March, 10+i), d)
	}
}

func TestIsCurrentWeek_IsPastWeek(t *testing.T) {
	now := time.Date(2025, time.March, 12, 15, 30, 0, 0, time.UTC) // Wednesday

	assert.True(t, datemath.IsCurrentWeekAt(datemath.New(2025, time.March, 10), now), "Monday of this week")
	assert.True(t, datemath.IsCurrentWeekAt(datemath.New(2025, time.March, 16), now), "Sunday of this week")
	assert.False(t, datemath.IsCurrentWeekAt(datemath.New(2025, time.March, 9), now), "previous Sunday")
	assert.False(t, datemath.IsCurrentWeekAt(datemath.New(2025, time.March, 17), now), "next Monday")

	assert.True(t, datemath.IsPastWeekAt(datemath.New(2025, time.March, 9), now))
	assert.False(t, datemath.IsPastWeekAt(datemath.New(2025, time.March, 10), now))
	assert.False(t, datemath.IsPastWeekAt(datemath.New(2025, time.March, 20), now))
}

// =============================================================================
// ISO WEEK NUMBERING
// =============================================================================

func TestISOWeek_AgreesWithStdlib(t *testing.T) {
	// The Thursday-shift algorithm must agree with time.Time.ISOWeek over a
	// long range including several 53-week years (2004, 2009, 2015, 2020, 2026).
	d := datemath.New(2000, time.January, 1)
	end := datemath.New(2030, time.January, 1)
	for d.Before(end) {
		wantYear, wantWeek := d.Time().ISOWeek()
		gotYear, gotWeek := datemath.ISOWeek(d)
		require.Equal(t, wantYear, gotYear, "ISO year of %s", d)
		require.Equal(t, wantWeek, gotWeek, "ISO week of %s", d)
		d = d.AddDays(1)
	}
}

func TestISOWeek_YearBoundary(t *testing.T) {
	// 2024-12-30 (Monday) through 2025-01-05 (Sunday) are all ISO week 1 of 2025.
	for i := 0; i < 7; i++ {
		d := datemath.New(2024, time.December, 30).AddDays(i)
		year, week := datemath.ISOWeek(d)
		assert.Equal(t, 2025, year, "ISO year of %s", d)
		assert.Equal(t, 1, week, "ISO week of %s", d)
	}

	// 2025-12-29 (Monday) belongs to week 1 of 2026.
	year, week := datemath.ISOWeek(datemath.New(2025, time.December, 29))
	assert.Equal(t, 2026, year)
	assert.Equal(t, 1, week)

	// 2027-01-01 (Friday) still belongs to week 53 of 2026.
	year, week = datemath.ISOWeek(datemath.New(2027, time.January, 1))
	assert.Equal(t, 2026, year)
	assert.Equal(t, 53, week)
}

func TestISOWeek_Week53(t *testing.T) {
	// 2026 is a 53-week ISO year: Dec 28-31 2026 fall in week 53.
	year, week := datemath.ISOWeek(datemath.New(2026, time.December, 31))
	assert.Equal(t, 2026, year)
	assert.Equal(t, 53, week)
}

// =============================================================================
// WEEK KEYS
// =============================================================================

func TestWeekKey_StringAndParse(t *testing.T) {
	k := datemath.WeekKeyFor(datemath.New(2025, time.December, 29))
	assert.Equal(t, datemath.WeekKey{Year: 2026, Week: 1}, k)
	assert.Equal(t, "2026-W01", k.String())

	parsed, err := datemath.ParseWeekKey("2026-W01")
	require.NoError(t, err)
	assert.Equal(t, k, parsed)

	_, err = datemath.ParseWeekKey("garbage")
	assert.ErrorIs(t, err, datemath.ErrInvalidArgument)

	_, err = datemath.ParseWeekKey("2026-W54")
	assert.ErrorIs(t, err, datemath.ErrInvalidArgument)
}

func TestWeekKey_DistinctAcrossYears(t *testing.T) {
	// Week 3 of two different years must never alias: the key carries the
	// ISO year, unlike a bare week number.
	k2025 := datemath.WeekKeyFor(datemath.New(2025, time.January, 15))
	k2026 := datemath.WeekKeyFor(datemath.New(2026, time.January, 14))

	assert.Equal(t, k2025.Week, k2026.Week)
	assert.NotEqual(t, k2025, k2026)
}
