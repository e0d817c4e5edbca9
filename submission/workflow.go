/*
workflow.go - The week-submission state machine

FLOW:
  1. Prepare: aggregate the week, refuse locally locked weeks, and hand the
     caller a pending ticket that says whether the week is short of target.
  2. The caller obtains the user's explicit confirmation - and, for a short
     week, a second acknowledgment - through whatever surface it owns.
  3. Commit: existence check, persist the record, mark the week submitted.

Any rejection in step 2 commits nothing: the ticket just returns to Open.
*/
package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/timeportal/datemath"
	"github.com/warp/timeportal/entry"
	"github.com/warp/timeportal/summary"
)

// State of the workflow for one week.
type State string

const (
	StateOpen                State = "open"
	StatePendingConfirmation State = "pending_confirmation"
	StateSubmitting          State = "submitting"
	StateLocked              State = "locked"
)

// Workflow drives week submissions for one user's store.
type Workflow struct {
	Store *entry.Store
	Docs  DocumentStore

	// Target is the weekly hours threshold. Zero means
	// summary.DefaultWeeklyTarget.
	Target decimal.Decimal

	// Attempts and Backoff bound retries of transient Create failures.
	// Zero values mean entry.DefaultSyncAttempts / DefaultSyncBackoff.
	Attempts int
	Backoff  time.Duration
}

// NewWorkflow wires a workflow over a store and document store.
func NewWorkflow(store *entry.Store, docs DocumentStore, target decimal.Decimal) *Workflow {
	return &Workflow{Store: store, Docs: docs, Target: target}
}

// Pending is the ticket produced by Prepare. It is single-use: a Commit,
// confirmed or not, consumes it.
type Pending struct {
	Week      datemath.WeekKey
	Aggregate summary.WeekAggregate

	// ShortWeek is set when total hours are under target; committing then
	// requires Decision.AcceptShortWeek in addition to Confirmed.
	ShortWeek bool

	ref   datemath.Date
	state State
}

// State returns the ticket's current state.
func (p *Pending) State() State { return p.state }

// Decision carries the confirmations the caller collected from the user.
type Decision struct {
	Confirmed       bool
	AcceptShortWeek bool
}

// StateOf reports the steady state of a week: Locked when submitted,
// otherwise Open.
func (w *Workflow) StateOf(k datemath.WeekKey) State {
	if w.Store.IsSubmitted(k) {
		return StateLocked
	}
	return StateOpen
}

// Prepare aggregates the week containing ref and moves it to
// PendingConfirmation. Fails with AlreadySubmittedError when the week is
// already locked locally.
func (w *Workflow) Prepare(ctx context.Context, ref datemath.Date) (*Pending, error) {
	week := datemath.WeekKeyFor(ref)
	if w.Store.IsSubmitted(week) {
		return nil, &AlreadySubmittedError{Week: week}
	}

	agg := summary.Summarize(w.Store, ref, w.Target)
	return &Pending{
		Week:      week,
		Aggregate: agg,
		ShortWeek: agg.TotalHours.LessThan(agg.Target),
		ref:       ref,
		state:     StatePendingConfirmation,
	}, nil
}

// Commit resolves a pending ticket. Without full confirmation the ticket
// returns to Open with no side effect. Otherwise the workflow checks the
// remote store, persists the record, and locks the week.
//
// A duplicate - found by the existence check or by the store's uniqueness
// constraint - aborts to Open with AlreadySubmittedError and does not touch
// the submitted-week set.
func (w *Workflow) Commit(ctx context.Context, p *Pending, d Decision) (State, error) {
	if p.state != StatePendingConfirmation {
		return p.state, fmt.Errorf("can only commit a pending ticket, current state: %s", p.state)
	}

	if !d.Confirmed || (p.ShortWeek && !d.AcceptShortWeek) {
		p.state = StateOpen
		return StateOpen, nil
	}

	p.state = StateSubmitting
	docID := DocID(w.Store.UserID(), p.Week)

	// Best-effort pre-check. Errors here are ignored: the Create below is
	// the authoritative guard.
	if _, found, err := w.Docs.Get(ctx, docID); err == nil && found {
		p.state = StateOpen
		return StateOpen, &AlreadySubmittedError{Week: p.Week}
	}

	rec := BuildRecord(w.Store, p.ref, time.Now())
	if err := w.createWithRetry(ctx, docID, rec); err != nil {
		p.state = StateOpen
		if errors.Is(err, ErrDocumentExists) {
			return StateOpen, &AlreadySubmittedError{Week: p.Week}
		}
		return StateOpen, fmt.Errorf("persist submission %s: %w", docID, err)
	}

	// The remote record now exists; the week is locked regardless of how
	// the local bookkeeping below fares.
	p.state = StateLocked
	if err := w.Store.MarkSubmitted(p.Week); err != nil {
		return StateLocked, fmt.Errorf("submission %s persisted but local lock failed: %w", docID, err)
	}
	return StateLocked, nil
}

func (w *Workflow) createWithRetry(ctx context.Context, docID string, rec Record) error {
	attempts := w.Attempts
	if attempts <= 0 {
		attempts = entry.DefaultSyncAttempts
	}
	backoff := w.Backoff
	if backoff <= 0 {
		backoff = entry.DefaultSyncBackoff
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = w.Docs.Create(ctx, docID, rec)
		if lastErr == nil || errors.Is(lastErr, ErrDocumentExists) {
			return lastErr
		}
		if attempt < attempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}
