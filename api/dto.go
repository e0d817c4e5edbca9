/*
dto.go - Data Transfer Objects for the portal API

DTOs decouple the domain model from the JSON contract. Hours cross the
wire as plain numbers (decimal internally, float64 at the boundary), and
dates as "2006-01-02" strings.
*/
package api

import (
	"time"

	"github.com/warp/timeportal/datemath"
	"github.com/warp/timeportal/entry"
	"github.com/warp/timeportal/summary"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// PutEntryRequest is the body for saving one day's entry. Zero hours with
// isTimeOff false clears the day.
type PutEntryRequest struct {
	Hours            float64 `json:"hours"`
	IsTimeOff        bool    `json:"isTimeOff"`
	ManagerApproved  bool    `json:"managerApproved"`
	OvertimeApproved bool    `json:"overtimeApproved"`
	ShortDayApproved bool    `json:"shortDayApproved"`
}

// SubmitWeekRequest is the body for submitting a week. Confirmed carries
// the user's explicit go-ahead; AcceptShortWeek is the second
// acknowledgment required when the week is under target.
type SubmitWeekRequest struct {
	Date            string `json:"date"` // any date in the week, 2006-01-02
	Confirmed       bool   `json:"confirmed"`
	AcceptShortWeek bool   `json:"acceptShortWeek"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// EntryDTO is one day's entry in responses.
type EntryDTO struct {
	Date             string    `json:"date"`
	Hours            float64   `json:"hours"`
	IsTimeOff        bool      `json:"isTimeOff"`
	ManagerApproved  bool      `json:"managerApproved"`
	OvertimeApproved bool      `json:"overtimeApproved"`
	ShortDayApproved bool      `json:"shortDayApproved"`
	Timestamp        time.Time `json:"timestamp"`
}

// DaySummaryDTO is one day of a week summary.
type DaySummaryDTO struct {
	Date     string  `json:"date"`
	Weekday  string  `json:"weekday"`
	Status   string  `json:"status"`
	Hours    float64 `json:"hours"`
	Approved bool    `json:"approved"`
}

// WeekSummaryDTO is the aggregate for one week.
type WeekSummaryDTO struct {
	Week           string          `json:"week"`
	TotalHours     float64         `json:"totalHours"`
	TargetHours    float64         `json:"targetHours"`
	RemainingHours float64         `json:"remainingHours"`
	OvertimeHours  float64         `json:"overtimeHours"`
	Submitted      bool            `json:"submitted"`
	SubmitEligible bool            `json:"submitEligible"`
	Days           []DaySummaryDTO `json:"days"`
}

// MonthCellDTO is one day cell of the month grid.
type MonthCellDTO struct {
	Date        string  `json:"date"`
	Day         int     `json:"day"`
	Week        string  `json:"week"`
	CurrentWeek bool    `json:"currentWeek"`
	PastWeek    bool    `json:"pastWeek"`
	Locked      bool    `json:"locked"`
	Editable    bool    `json:"editable"`
	Status      string  `json:"status"`
	Hours       float64 `json:"hours"`
	Approved    bool    `json:"approved"`
	HasEntry    bool    `json:"hasEntry"`
}

// MonthDTO is the Monday-first month grid.
type MonthDTO struct {
	Year          int            `json:"year"`
	Month         int            `json:"month"`
	LeadingBlanks int            `json:"leadingBlanks"`
	Cells         []MonthCellDTO `json:"cells"`
}

// SessionDTO reports the outcome of hydrating a session.
type SessionDTO struct {
	UserID       string `json:"userId"`
	CacheEntries int    `json:"cacheEntries"`
	RemoteWeeks  int    `json:"remoteWeeks"`
	Degraded     bool   `json:"degraded"`
}

// SubmitWeekResponse reports the workflow outcome.
type SubmitWeekResponse struct {
	Week  string `json:"week"`
	State string `json:"state"`

	// ShortWeek is set when the week is under target and the submission
	// needs the extra acknowledgment to proceed.
	ShortWeek bool `json:"shortWeek"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toEntryDTO(d datemath.Date, e entry.TimeEntry) EntryDTO {
	hours, _ := e.Hours.Float64()
	return EntryDTO{
		Date:             d.String(),
		Hours:            hours,
		IsTimeOff:        e.IsTimeOff,
		ManagerApproved:  e.ManagerApproved,
		OvertimeApproved: e.OvertimeApproved,
		ShortDayApproved: e.ShortDayApproved,
		Timestamp:        e.Timestamp,
	}
}

func toWeekSummaryDTO(agg summary.WeekAggregate) WeekSummaryDTO {
	total, _ := agg.TotalHours.Float64()
	target, _ := agg.Target.Float64()
	remaining, _ := agg.Remaining.Float64()
	overtime, _ := agg.Overtime.Float64()

	dto := WeekSummaryDTO{
		Week:           agg.Key.String(),
		TotalHours:     total,
		TargetHours:    target,
		RemainingHours: remaining,
		OvertimeHours:  overtime,
		Submitted:      agg.Submitted,
		SubmitEligible: agg.SubmitEligible,
		Days:           make([]DaySummaryDTO, 0, len(agg.Days)),
	}
	for _, day := range agg.Days {
		hours, _ := day.Hours.Float64()
		dto.Days = append(dto.Days, DaySummaryDTO{
			Date:     day.Date.String(),
			Weekday:  day.Date.Weekday().String(),
			Status:   string(day.Status),
			Hours:    hours,
			Approved: day.Approved,
		})
	}
	return dto
}

func toMonthDTO(mv summary.MonthView) MonthDTO {
	dto := MonthDTO{
		Year:          mv.Year,
		Month:         int(mv.Month),
		LeadingBlanks: mv.LeadingBlanks,
		Cells:         make([]MonthCellDTO, 0, len(mv.Cells)),
	}
	for _, cell := range mv.Cells {
		hours, _ := cell.Hours.Float64()
		dto.Cells = append(dto.Cells, MonthCellDTO{
			Date:        cell.Date.String(),
			Day:         cell.Day,
			Week:        cell.Week.String(),
			CurrentWeek: cell.CurrentWeek,
			PastWeek:    cell.PastWeek,
			Locked:      cell.Locked,
			Editable:    cell.Editable,
			Status:      string(cell.Status),
			Hours:       hours,
			Approved:    cell.Approved,
			HasEntry:    cell.HasEntry,
		})
	}
	return dto
}
