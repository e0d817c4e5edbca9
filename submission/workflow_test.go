package submission_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timeportal/datemath"
	"github.com/warp/timeportal/entry"
	"github.com/warp/timeportal/store/memory"
	"github.com/warp/timeportal/submission"
	"github.com/warp/timeportal/summary"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestWorkflow(t *testing.T) (*submission.Workflow, *entry.Store, *memory.DocumentStore) {
	store, err := entry.NewStore("emp-1", memory.NewCache(), nil, nil)
	require.NoError(t, err)

	docs := memory.NewDocumentStore()
	wf := submission.NewWorkflow(store, docs, summary.DefaultWeeklyTarget)
	wf.Backoff = time.Millisecond
	return wf, store, docs
}

func mustDate(t *testing.T, s string) datemath.Date {
	d, err := datemath.ParseDate(s)
	require.NoError(t, err)
	return d
}

func fillWeek(t *testing.T, store *entry.Store, mon datemath.Date, days int, hoursPerDay float64) {
	ctx := context.Background()
	for i := 0; i < days; i++ {
		require.NoError(t, store.Put(ctx, mon.AddDays(i), entry.Worked(hoursPerDay)))
	}
}

// =============================================================================
// HAPPY PATH
// =============================================================================

func TestWorkflow_FullWeek_SubmitAndLock(t *testing.T) {
	// GIVEN: A 40-hour week
	// WHEN: Preparing and committing with confirmation
	// THEN: The record is persisted, the week locks, and edits are refused

	wf, store, docs := newTestWorkflow(t)
	ctx := context.Background()
	mon := mustDate(t, "2025-03-10")
	fillWeek(t, store, mon, 5, 8)

	pending, err := wf.Prepare(ctx, mon)
	require.NoError(t, err)
	assert.Equal(t, submission.StatePendingConfirmation, pending.State())
	assert.False(t, pending.ShortWeek)

	state, err := wf.Commit(ctx, pending, submission.Decision{Confirmed: true})
	require.NoError(t, err)
	assert.Equal(t, submission.StateLocked, state)
	assert.Equal(t, submission.StateLocked, wf.StateOf(pending.Week))

	// Persisted record has the expected shape.
	rec, found, err := docs.Get(ctx, submission.DocID("emp-1", pending.Week))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "emp-1", rec.WorkerID)
	assert.Equal(t, "2025-W11", rec.Week)
	assert.Len(t, rec.Hours, 7)
	assert.Equal(t, 40.0, rec.TotalHours)
	assert.Equal(t, submission.StatusPendingApproval, rec.Status)
	assert.Nil(t, rec.ApprovedBy)

	// The week is now immutable.
	err = store.Put(ctx, mon, entry.Worked(4))
	assert.ErrorIs(t, err, entry.ErrLockedWeek)
}

func TestWorkflow_Record_AbsentDaysAreZeroRows(t *testing.T) {
	// GIVEN: Only Monday has hours
	// WHEN: Building the record
	// THEN: All seven days appear, six of them as zero rows

	_, store, _ := newTestWorkflow(t)
	mon := mustDate(t, "2025-03-10")
	fillWeek(t, store, mon, 1, 8)

	rec := submission.BuildRecord(store, mon, time.Now())
	require.Len(t, rec.Hours, 7)
	assert.Equal(t, 8.0, rec.Hours[0].Hours)
	for i := 1; i < 7; i++ {
		assert.Equal(t, 0.0, rec.Hours[i].Hours)
		assert.False(t, rec.Hours[i].IsTimeOff)
	}
	assert.Equal(t, 8.0, rec.TotalHours)
}

// =============================================================================
// CONFIRMATION GATES
// =============================================================================

func TestWorkflow_Unconfirmed_NoSideEffects(t *testing.T) {
	// GIVEN: A prepared full week
	// WHEN: Committing without confirmation
	// THEN: Back to Open, nothing persisted, week stays editable

	wf, store, docs := newTestWorkflow(t)
	ctx := context.Background()
	mon := mustDate(t, "2025-03-10")
	fillWeek(t, store, mon, 5, 8)

	pending, err := wf.Prepare(ctx, mon)
	require.NoError(t, err)

	state, err := wf.Commit(ctx, pending, submission.Decision{Confirmed: false})
	require.NoError(t, err)
	assert.Equal(t, submission.StateOpen, state)

	_, found, err := docs.Get(ctx, submission.DocID("emp-1", pending.Week))
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, store.IsSubmitted(pending.Week))
	assert.NoError(t, store.Put(ctx, mon, entry.Worked(4)))
}

func TestWorkflow_ShortWeek_NeedsAcknowledgment(t *testing.T) {
	// GIVEN: A 32-hour week, under the 40-hour target
	// WHEN: Committing confirmed but without the short-week acknowledgment
	// THEN: Back to Open; with the acknowledgment the commit goes through

	wf, store, _ := newTestWorkflow(t)
	ctx := context.Background()
	mon := mustDate(t, "2025-03-10")
	fillWeek(t, store, mon, 4, 8)

	pending, err := wf.Prepare(ctx, mon)
	require.NoError(t, err)
	assert.True(t, pending.ShortWeek)

	state, err := wf.Commit(ctx, pending, submission.Decision{Confirmed: true})
	require.NoError(t, err)
	assert.Equal(t, submission.StateOpen, state)
	assert.False(t, store.IsSubmitted(pending.Week))

	// A fresh ticket with both confirmations succeeds.
	pending, err = wf.Prepare(ctx, mon)
	require.NoError(t, err)
	state, err = wf.Commit(ctx, pending, submission.Decision{Confirmed: true, AcceptShortWeek: true})
	require.NoError(t, err)
	assert.Equal(t, submission.StateLocked, state)
}

func TestWorkflow_TicketIsSingleUse(t *testing.T) {
	// GIVEN: A ticket that was committed unconfirmed (back to Open)
	// WHEN: Committing it again
	// THEN: Rejected, the ticket is spent

	wf, store, _ := newTestWorkflow(t)
	ctx := context.Background()
	mon := mustDate(t, "2025-03-10")
	fillWeek(t, store, mon, 5, 8)

	pending, err := wf.Prepare(ctx, mon)
	require.NoError(t, err)
	_, err = wf.Commit(ctx, pending, submission.Decision{})
	require.NoError(t, err)

	_, err = wf.Commit(ctx, pending, submission.Decision{Confirmed: true})
	assert.Error(t, err)
}

// =============================================================================
// DOUBLE-SUBMIT GUARDS
// =============================================================================

func TestWorkflow_LocallyLockedWeek_PrepareRefused(t *testing.T) {
	// GIVEN: A week already submitted in this session
	// WHEN: Preparing it again
	// THEN: AlreadySubmittedError

	wf, store, _ := newTestWorkflow(t)
	mon := mustDate(t, "2025-03-10")
	require.NoError(t, store.MarkSubmitted(datemath.WeekKeyFor(mon)))

	_, err := wf.Prepare(context.Background(), mon)
	assert.ErrorIs(t, err, submission.ErrAlreadySubmitted)
	var already *submission.AlreadySubmittedError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, datemath.WeekKeyFor(mon), already.Week)
}

func TestWorkflow_RemoteDuplicate_ConstraintWins(t *testing.T) {
	// GIVEN: A remote record for the week created by another session, with
	//        no local lock (the race window)
	// WHEN: Committing
	// THEN: AlreadySubmittedError and the local submitted set is untouched

	wf, store, docs := newTestWorkflow(t)
	ctx := context.Background()
	mon := mustDate(t, "2025-03-10")
	fillWeek(t, store, mon, 5, 8)
	week := datemath.WeekKeyFor(mon)

	// Another session already submitted this week.
	other := submission.Record{WorkerID: "emp-1", Week: week.String(), Status: submission.StatusPendingApproval}
	require.NoError(t, docs.Create(ctx, submission.DocID("emp-1", week), other))

	pending, err := wf.Prepare(ctx, mon)
	require.NoError(t, err)
	state, err := wf.Commit(ctx, pending, submission.Decision{Confirmed: true})

	assert.Equal(t, submission.StateOpen, state)
	assert.ErrorIs(t, err, submission.ErrAlreadySubmitted)
	assert.False(t, store.IsSubmitted(week), "a failed submit must not lock the week")
}

// =============================================================================
// RECORD ROUND TRIP
// =============================================================================

func TestRecord_ToRemoteWeek(t *testing.T) {
	// GIVEN: A record built from a mixed week (work + time off)
	// WHEN: Decoding it into the hydration shape
	// THEN: Days with reported time come back with their flags

	_, store, _ := newTestWorkflow(t)
	ctx := context.Background()
	mon := mustDate(t, "2025-03-10")
	fillWeek(t, store, mon, 4, 8)
	require.NoError(t, store.Put(ctx, mon.AddDays(4), entry.TimeOff(true)))

	rec := submission.BuildRecord(store, mon, time.Now())
	week, err := rec.ToRemoteWeek()
	require.NoError(t, err)

	assert.Equal(t, datemath.WeekKey{Year: 2025, Week: 11}, week.Key)
	require.Len(t, week.Days, 7)
	assert.Equal(t, mon, week.Days[0].Date)
	assert.True(t, week.Days[0].Entry.Hours.Equal(entry.RegularDayHours))
	assert.True(t, week.Days[4].Entry.IsTimeOff)
	assert.True(t, week.Days[4].Entry.ManagerApproved)
}

func TestNewRemoteSource_ListsDecodedWeeks(t *testing.T) {
	// GIVEN: Two persisted submissions for a worker
	// WHEN: Listing through the RemoteSource adapter
	// THEN: Both decode to RemoteWeeks

	_, store, docs := newTestWorkflow(t)
	ctx := context.Background()

	for _, monday := range []string{"2025-03-10", "2025-03-17"} {
		mon := mustDate(t, monday)
		fillWeek(t, store, mon, 5, 8)
		rec := submission.BuildRecord(store, mon, time.Now())
		require.NoError(t, docs.Create(ctx, submission.DocID("emp-1", datemath.WeekKeyFor(mon)), rec))
	}

	source := submission.NewRemoteSource(docs)
	weeks, err := source.SubmissionsForUser(ctx, "emp-1")
	require.NoError(t, err)
	assert.Len(t, weeks, 2)
}
