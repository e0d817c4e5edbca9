/*
store.go - Per-user authoritative entry store

OWNERSHIP:
  One Store instance exists per signed-in user and owns the entry map, the
  submitted-week set, and the namespaced cache keys for the lifetime of the
  session. It is discarded on sign-out and rehydrated on sign-in, so
  concurrent sessions for different users never share state.

DURABILITY:
  The local cache is the durability boundary. Every mutation writes the
  cache synchronously before the in-memory state is committed; a cache
  failure means the operation did not happen. Remote mirroring, when
  configured, is strictly best-effort and asynchronous.

LOCKING:
  Every mutation passes through Put/Delete/MarkSubmitted, which check the
  submitted-week set first. There is no other mutation path, so the
  locked-week invariant is enforced at a single choke point.
*/
package entry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/timeportal/datemath"
)

// =============================================================================
// COLLABORATOR CONTRACTS
// =============================================================================

// Cache is the synchronous local key-value cache (the localStorage contract):
// string keys, JSON string values, scoped per user via namespaced keys.
type Cache interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (value string, ok bool, err error)

	// Set stores the value. A Set is atomic per key.
	Set(key, value string) error
}

// RemoteDay is one day of a remotely persisted week submission.
type RemoteDay struct {
	Date  datemath.Date
	Entry TimeEntry
}

// RemoteWeek is one remotely persisted week submission, already decoded
// from the document store's record shape.
type RemoteWeek struct {
	Key  datemath.WeekKey
	Days []RemoteDay
}

// RemoteSource lists the persisted week submissions for a user. Hydration
// treats this data as authoritative for submitted weeks.
type RemoteSource interface {
	SubmissionsForUser(ctx context.Context, userID string) ([]RemoteWeek, error)
}

// =============================================================================
// STORE
// =============================================================================

// Store is the in-session mapping of Date -> TimeEntry plus the set of
// submitted weeks for one user.
type Store struct {
	userID string
	cache  Cache
	remote RemoteSource // may be nil (offline/test configurations)
	syncer *Syncer      // may be nil; best-effort remote mirror

	mu        sync.RWMutex
	entries   map[datemath.Date]TimeEntry
	submitted map[datemath.WeekKey]bool
}

// NewStore builds a store scoped to userID. cache is required; remote and
// syncer may be nil. An empty userID is a precondition failure: all store
// operations require an authenticated user.
func NewStore(userID string, cache Cache, remote RemoteSource, syncer *Syncer) (*Store, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	if cache == nil {
		return nil, fmt.Errorf("store for %s: cache is required: %w", userID, datemath.ErrInvalidArgument)
	}
	return &Store{
		userID:    userID,
		cache:     cache,
		remote:    remote,
		syncer:    syncer,
		entries:   make(map[datemath.Date]TimeEntry),
		submitted: make(map[datemath.WeekKey]bool),
	}, nil
}

// UserID returns the owning user.
func (s *Store) UserID() string { return s.userID }

func (s *Store) entriesKey() string   { return "timeEntries_" + s.userID }
func (s *Store) submittedKey() string { return "submittedWeeks_" + s.userID }

// =============================================================================
// HYDRATION
// =============================================================================

// HydrateResult describes what a hydration run found.
type HydrateResult struct {
	CacheEntries int  // entries loaded from the local cache
	RemoteWeeks  int  // submitted weeks merged from the remote store
	Degraded     bool // remote failed but the cache carried the session
}

// Hydrate loads cached local state, then merges the authoritative remote
// submitted-week records on top. Remote days with reported time overwrite
// cached entries for those days; the merged state is written back to the
// cache so the next offline start sees it.
//
// If the remote call fails but a cache exists, the store proceeds in
// degraded mode and says so in the result. If the remote call fails and no
// cache exists, the session is inoperable and a HydrationError is returned.
func (s *Store) Hydrate(ctx context.Context) (HydrateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res HydrateResult

	entries, entriesCached, err := s.loadCachedEntries()
	if err != nil {
		log.Printf("timeportal: entry cache for %s unreadable, ignoring: %v", s.userID, err)
	}
	submitted, submittedCached, err := s.loadCachedSubmitted()
	if err != nil {
		log.Printf("timeportal: submitted-week cache for %s unreadable, ignoring: %v", s.userID, err)
	}
	cached := entriesCached || submittedCached
	res.CacheEntries = len(entries)

	if s.remote != nil {
		weeks, err := s.remote.SubmissionsForUser(ctx, s.userID)
		if err != nil {
			if !cached {
				return HydrateResult{}, &HydrationError{UserID: s.userID, Cause: err}
			}
			res.Degraded = true
			s.entries = entries
			s.submitted = submitted
			return res, nil
		}

		for _, week := range weeks {
			submitted[week.Key] = true
			for _, day := range week.Days {
				// Only days with actual reported time overwrite the cache.
				if day.Entry.Hours.IsPositive() || day.Entry.IsTimeOff {
					entries[day.Date] = day.Entry
				}
			}
		}
		res.RemoteWeeks = len(weeks)
	}

	s.entries = entries
	s.submitted = submitted

	// Write the merged view back so a later offline start has it. Failure
	// here does not undo a successful hydration.
	if err := s.persistEntriesLocked(); err != nil {
		log.Printf("timeportal: cache write-back for %s failed: %v", s.userID, err)
	}
	if err := s.persistSubmittedLocked(); err != nil {
		log.Printf("timeportal: cache write-back for %s failed: %v", s.userID, err)
	}
	return res, nil
}

// =============================================================================
// READS
// =============================================================================

// Get returns the entry for a date, if present.
func (s *Store) Get(d datemath.Date) (TimeEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[d]
	return e, ok
}

// IsSubmitted reports whether a week is locked.
func (s *Store) IsSubmitted(k datemath.WeekKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.submitted[k]
}

// SubmittedWeeks returns the locked weeks, unordered.
func (s *Store) SubmittedWeeks() []datemath.WeekKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]datemath.WeekKey, 0, len(s.submitted))
	for k := range s.submitted {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// =============================================================================
// MUTATIONS - the single choke point
// =============================================================================

// Put validates and upserts the entry for a date. An empty entry (zero
// hours, not time-off) deletes the day instead of storing a zero record.
// Returns LockedWeekError when the date's week has been submitted.
//
// The cache write happens before the in-memory commit and is fatal on
// failure; the remote mirror is enqueued after and never blocks.
func (s *Store) Put(ctx context.Context, d datemath.Date, e TimeEntry) error {
	e = e.Normalized()
	if err := e.Validate(); err != nil {
		return err
	}
	if e.IsEmpty() {
		return s.Delete(ctx, d)
	}
	e.Timestamp = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnlockedLocked(d); err != nil {
		return err
	}

	prev, hadPrev := s.entries[d]
	s.entries[d] = e
	if err := s.persistEntriesLocked(); err != nil {
		// Roll back: the entry is not considered saved.
		if hadPrev {
			s.entries[d] = prev
		} else {
			delete(s.entries, d)
		}
		return err
	}

	s.enqueueMirrorLocked(d, &e)
	return nil
}

// Delete removes the entry for a date. Deleting an absent date is a no-op.
// Returns LockedWeekError when the date's week has been submitted.
func (s *Store) Delete(ctx context.Context, d datemath.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnlockedLocked(d); err != nil {
		return err
	}

	prev, hadPrev := s.entries[d]
	if !hadPrev {
		return nil
	}
	delete(s.entries, d)
	if err := s.persistEntriesLocked(); err != nil {
		s.entries[d] = prev
		return err
	}

	s.enqueueMirrorLocked(d, nil)
	return nil
}

// MarkSubmitted adds a week to the submitted set and persists the set.
// After this returns, no entry in that week can be created, edited, or
// deleted through this store.
func (s *Store) MarkSubmitted(k datemath.WeekKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted[k] {
		return nil
	}
	s.submitted[k] = true
	if err := s.persistSubmittedLocked(); err != nil {
		delete(s.submitted, k)
		return err
	}
	return nil
}

func (s *Store) checkUnlockedLocked(d datemath.Date) error {
	week := datemath.WeekKeyFor(d)
	if s.submitted[week] {
		return &LockedWeekError{Date: d, Week: week}
	}
	return nil
}

func (s *Store) enqueueMirrorLocked(d datemath.Date, e *TimeEntry) {
	if s.syncer != nil {
		s.syncer.Enqueue(s.userID, d, e)
	}
}

// =============================================================================
// CACHE CODEC
// =============================================================================

// cachedEntry is the JSON shape stored in the local cache. Hours are plain
// numbers, matching the cache format of earlier portal deployments.
type cachedEntry struct {
	Hours            float64   `json:"hours"`
	IsTimeOff        bool      `json:"isTimeOff"`
	ManagerApproved  bool      `json:"managerApproved"`
	OvertimeApproved bool      `json:"overtimeApproved"`
	ShortDayApproved bool      `json:"shortDayApproved"`
	Timestamp        time.Time `json:"timestamp"`
}

func (s *Store) loadCachedEntries() (map[datemath.Date]TimeEntry, bool, error) {
	entries := make(map[datemath.Date]TimeEntry)

	raw, ok, err := s.cache.Get(s.entriesKey())
	if err != nil || !ok {
		return entries, false, err
	}

	var decoded map[string]cachedEntry
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return entries, false, fmt.Errorf("decode cached entries: %w", err)
	}
	for key, ce := range decoded {
		d, err := datemath.ParseDate(key)
		if err != nil {
			continue // skip unparseable keys rather than fail the session
		}
		entries[d] = TimeEntry{
			Hours:            decimal.NewFromFloat(ce.Hours),
			IsTimeOff:        ce.IsTimeOff,
			ManagerApproved:  ce.ManagerApproved,
			OvertimeApproved: ce.OvertimeApproved,
			ShortDayApproved: ce.ShortDayApproved,
			Timestamp:        ce.Timestamp,
		}.Normalized()
	}
	return entries, true, nil
}

func (s *Store) loadCachedSubmitted() (map[datemath.WeekKey]bool, bool, error) {
	submitted := make(map[datemath.WeekKey]bool)

	raw, ok, err := s.cache.Get(s.submittedKey())
	if err != nil || !ok {
		return submitted, false, err
	}

	var decoded map[string]bool
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return submitted, false, fmt.Errorf("decode cached submitted weeks: %w", err)
	}
	for key, v := range decoded {
		if !v {
			continue
		}
		k, err := datemath.ParseWeekKey(key)
		if err != nil {
			continue
		}
		submitted[k] = true
	}
	return submitted, true, nil
}

func (s *Store) persistEntriesLocked() error {
	encoded := make(map[string]cachedEntry, len(s.entries))
	for d, e := range s.entries {
		hours, _ := e.Hours.Float64()
		encoded[d.String()] = cachedEntry{
			Hours:            hours,
			IsTimeOff:        e.IsTimeOff,
			ManagerApproved:  e.ManagerApproved,
			OvertimeApproved: e.OvertimeApproved,
			ShortDayApproved: e.ShortDayApproved,
			Timestamp:        e.Timestamp,
		}
	}
	raw, err := json.Marshal(encoded)
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}
	if err := s.cache.Set(s.entriesKey(), string(raw)); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheWrite, err)
	}
	return nil
}

func (s *Store) persistSubmittedLocked() error {
	encoded := make(map[string]bool, len(s.submitted))
	for k := range s.submitted {
		encoded[k.String()] = true
	}
	raw, err := json.Marshal(encoded)
	if err != nil {
		return fmt.Errorf("encode submitted weeks: %w", err)
	}
	if err := s.cache.Set(s.submittedKey(), string(raw)); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheWrite, err)
	}
	return nil
}
