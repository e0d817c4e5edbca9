/*
Package submission implements the week-submission workflow and the persisted
submission record.

WORKFLOW (per WeekKey):

	Open -> PendingConfirmation -> Submitting -> Locked

Cancel or a missing confirmation returns to Open with no side effect.
Locked is terminal for this component; unlocking is a manager action
outside its scope.

DOUBLE-SUBMIT GUARD:
  The existence check before the write is an optimization, not the
  correctness mechanism. Two sessions can race past it; the document
  store's uniqueness constraint on the {userId}_{weekKey} id is the
  authoritative guard, and a constraint hit surfaces as
  AlreadySubmittedError.
*/
package submission

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/timeportal/datemath"
	"github.com/warp/timeportal/entry"
)

// StatusPendingApproval is the status every new submission carries until a
// manager acts on it.
const StatusPendingApproval = "pending_approval"

// DayRecord is one day inside a persisted submission. Field names and types
// must remain bit-compatible with existing remote data.
type DayRecord struct {
	Date             string  `json:"date"` // RFC 3339, UTC midnight
	Hours            float64 `json:"hours"`
	IsTimeOff        bool    `json:"isTimeOff"`
	ManagerApproved  bool    `json:"managerApproved"`
	OvertimeApproved bool    `json:"overtimeApproved"`
	ShortDayApproved bool    `json:"shortDayApproved"`
}

// Record is the persisted submission document for one worker-week.
type Record struct {
	WorkerID    string      `json:"workerId"`
	Week        string      `json:"week"` // YYYY-Www
	Hours       []DayRecord `json:"hours"`
	TotalHours  float64     `json:"totalHours"`
	Status      string      `json:"status"`
	ApprovedBy  *string     `json:"approvedBy"`
	SubmittedAt time.Time   `json:"submittedAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// DocID forms the external document identifier. The document store enforces
// uniqueness on it.
func DocID(userID string, k datemath.WeekKey) string {
	return userID + "_" + k.String()
}

// BuildRecord assembles the full 7-day submission record for the week
// containing ref from the store's current entries. Absent days are recorded
// as zero-hour rows, exactly as the portal always has.
func BuildRecord(store *entry.Store, ref datemath.Date, now time.Time) Record {
	week := datemath.WeekKeyFor(ref)
	rec := Record{
		WorkerID:    store.UserID(),
		Week:        week.String(),
		Hours:       make([]DayRecord, 0, 7),
		Status:      StatusPendingApproval,
		SubmittedAt: now.UTC(),
		UpdatedAt:   now.UTC(),
	}

	total := decimal.Zero
	for _, d := range datemath.WeekDates(ref) {
		e, ok := store.Get(d)
		day := DayRecord{Date: d.ISO8601()}
		if ok {
			hours, _ := e.Hours.Float64()
			day.Hours = hours
			day.IsTimeOff = e.IsTimeOff
			day.ManagerApproved = e.ManagerApproved
			day.OvertimeApproved = e.OvertimeApproved
			day.ShortDayApproved = e.ShortDayApproved
			if !e.IsTimeOff {
				total = total.Add(e.Hours)
			}
		}
		rec.Hours = append(rec.Hours, day)
	}
	rec.TotalHours, _ = total.Float64()
	return rec
}

// ToRemoteWeek decodes a persisted record into the hydration shape the
// entry store consumes. Rows that cannot be decoded are skipped; remote
// data is merged best-effort, never a reason to fail a session.
func (r Record) ToRemoteWeek() (entry.RemoteWeek, error) {
	key, err := datemath.ParseWeekKey(r.Week)
	if err != nil {
		return entry.RemoteWeek{}, err
	}

	week := entry.RemoteWeek{Key: key, Days: make([]entry.RemoteDay, 0, len(r.Hours))}
	for _, day := range r.Hours {
		t, err := time.Parse(time.RFC3339, day.Date)
		if err != nil {
			continue
		}
		d, err := datemath.Normalize(t)
		if err != nil {
			continue
		}
		week.Days = append(week.Days, entry.RemoteDay{
			Date: d,
			Entry: entry.TimeEntry{
				Hours:            decimal.NewFromFloat(day.Hours),
				IsTimeOff:        day.IsTimeOff,
				ManagerApproved:  day.ManagerApproved,
				OvertimeApproved: day.OvertimeApproved,
				ShortDayApproved: day.ShortDayApproved,
			}.Normalized(),
		})
	}
	return week, nil
}
