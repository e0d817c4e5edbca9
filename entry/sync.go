/*
sync.go - Best-effort remote mirroring of entry saves

The local cache is the durability boundary; the remote store is an
eventually-consistent mirror. A save is never lost or failed merely because
the network is down: mirror jobs run on a background worker with a small,
fixed retry ceiling, and exhausted jobs surface as logged SyncErrors.
*/
package entry

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/warp/timeportal/datemath"
)

var errQueueFull = errors.New("sync queue full")

// Mirror receives best-effort copies of entry saves. A nil entry signals a
// deletion. Implementations must be safe for concurrent use.
type Mirror interface {
	SaveDay(ctx context.Context, userID string, d datemath.Date, e *TimeEntry) error
}

// DefaultSyncAttempts is the retry ceiling for one mirror job.
const DefaultSyncAttempts = 3

// DefaultSyncBackoff is the fixed delay between attempts.
const DefaultSyncBackoff = 2 * time.Second

type syncJob struct {
	id     string
	userID string
	date   datemath.Date
	entry  *TimeEntry
}

// Syncer drains mirror jobs on a single background worker. One Syncer is
// shared across user sessions; jobs carry their own user id.
type Syncer struct {
	mirror   Mirror
	attempts int
	backoff  time.Duration

	jobs chan syncJob
	done chan struct{}

	// Errf receives exhausted-job errors. Defaults to log.Printf.
	Errf func(format string, args ...any)
}

// NewSyncer builds a syncer over the given mirror. Zero attempts/backoff
// use the defaults.
func NewSyncer(m Mirror, attempts int, backoff time.Duration) *Syncer {
	if attempts <= 0 {
		attempts = DefaultSyncAttempts
	}
	if backoff <= 0 {
		backoff = DefaultSyncBackoff
	}
	return &Syncer{
		mirror:   m,
		attempts: attempts,
		backoff:  backoff,
		jobs:     make(chan syncJob, 256),
		done:     make(chan struct{}),
		Errf:     log.Printf,
	}
}

// Start launches the worker.
func (s *Syncer) Start() {
	go s.run()
}

// Stop drains queued jobs and waits for the worker to exit.
func (s *Syncer) Stop() {
	close(s.jobs)
	<-s.done
}

// Enqueue schedules a mirror write. Never blocks the caller: when the
// queue is full the job is dropped with a logged SyncError, because the
// local save has already succeeded and must not be held up.
func (s *Syncer) Enqueue(userID string, d datemath.Date, e *TimeEntry) {
	job := syncJob{id: uuid.NewString(), userID: userID, date: d, entry: e}
	select {
	case s.jobs <- job:
	default:
		s.Errf("timeportal: %v", &SyncError{
			JobID: job.id, UserID: userID, Date: d, Attempts: 0,
			Cause: errQueueFull,
		})
	}
}

func (s *Syncer) run() {
	defer close(s.done)
	for job := range s.jobs {
		s.process(job)
	}
}

func (s *Syncer) process(job syncJob) {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		lastErr = s.mirror.SaveDay(ctx, job.userID, job.date, job.entry)
		cancel()
		if lastErr == nil {
			return
		}
		if attempt < s.attempts {
			time.Sleep(s.backoff)
		}
	}
	s.Errf("timeportal: %v", &SyncError{
		JobID:    job.id,
		UserID:   job.userID,
		Date:     job.date,
		Attempts: s.attempts,
		Cause:    lastErr,
	})
}
