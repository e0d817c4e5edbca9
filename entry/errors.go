/*
errors.go - Error taxonomy for the entry store

CATEGORIES:
  Validation:  rejected at the boundary, nothing mutated
  Locked week: mutation attempted on a submitted week, never retried
  Hydration:   remote read failed with no usable local fallback, retryable
  Sync:        best-effort remote mirroring failed, logged and retried,
               never blocks the local save

Structured errors wrap the sentinels so callers can use errors.Is for
classification and errors.As for detail.
*/
package entry

import (
	"errors"
	"fmt"

	"github.com/warp/timeportal/datemath"
)

var (
	// ErrInvalidEntry is returned when an entry fails shape validation.
	ErrInvalidEntry = errors.New("invalid time entry")

	// ErrLockedWeek is returned when a mutation targets a date inside a
	// submitted week. The lock is permanent as far as this component is
	// concerned; unlocking is a manager action elsewhere.
	ErrLockedWeek = errors.New("week locked after submission")

	// ErrHydration is returned when the remote read fails and no local
	// cache exists to fall back on.
	ErrHydration = errors.New("hydration failed")

	// ErrCacheWrite is returned when the synchronous local-cache write
	// fails. The entry is not considered saved.
	ErrCacheWrite = errors.New("local cache write failed")

	// ErrSync marks a failed remote mirror attempt. Sync errors are logged
	// and retried; they never surface as a failure of the local operation.
	ErrSync = errors.New("remote sync failed")

	// ErrNoUser is returned when a store is requested without an
	// authenticated user id.
	ErrNoUser = errors.New("no authenticated user")
)

// LockedWeekError reports which date and week blocked a mutation.
type LockedWeekError struct {
	Date datemath.Date
	Week datemath.WeekKey
}

func (e *LockedWeekError) Error() string {
	return fmt.Sprintf("cannot modify %s: week %s already submitted", e.Date, e.Week)
}

func (e *LockedWeekError) Unwrap() error { return ErrLockedWeek }

// HydrationError reports a hydration failure with no usable fallback.
type HydrationError struct {
	UserID string
	Cause  error
}

func (e *HydrationError) Error() string {
	return fmt.Sprintf("hydration for %s failed with no local cache: %v", e.UserID, e.Cause)
}

func (e *HydrationError) Unwrap() error { return ErrHydration }

// SyncError reports an exhausted mirror attempt.
type SyncError struct {
	JobID    string
	UserID   string
	Date     datemath.Date
	Attempts int
	Cause    error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s for %s/%s gave up after %d attempts: %v",
		e.JobID, e.UserID, e.Date, e.Attempts, e.Cause)
}

func (e *SyncError) Unwrap() error { return ErrSync }

// IsClientError reports whether the error is the caller's fault and should
// map to a 4xx at the HTTP boundary.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidEntry) ||
		errors.Is(err, ErrLockedWeek) ||
		errors.Is(err, ErrNoUser) ||
		errors.Is(err, datemath.ErrInvalidArgument)
}
