package entry_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timeportal/datemath"
	"github.com/warp/timeportal/entry"
	"github.com/warp/timeportal/store/memory"
)

// flakyMirror fails the first n SaveDay calls, then delegates.
type flakyMirror struct {
	failures int32
	inner    *memory.Mirror
}

func (m *flakyMirror) SaveDay(ctx context.Context, userID string, d datemath.Date, e *entry.TimeEntry) error {
	if atomic.AddInt32(&m.failures, -1) >= 0 {
		return errors.New("connection reset")
	}
	return m.inner.SaveDay(ctx, userID, d, e)
}

func TestSyncer_MirrorsSavesAndDeletes(t *testing.T) {
	// GIVEN: A store wired to a running syncer
	// WHEN: Saving then deleting a day
	// THEN: After Stop drains the queue, the mirror reflects both

	mirror := memory.NewMirror()
	syncer := entry.NewSyncer(mirror, 1, time.Millisecond)
	syncer.Start()

	store, err := entry.NewStore("emp-1", memory.NewCache(), nil, syncer)
	require.NoError(t, err)
	ctx := context.Background()
	day := mustDate(t, "2025-03-12")
	other := mustDate(t, "2025-03-13")

	require.NoError(t, store.Put(ctx, day, entry.Worked(8)))
	require.NoError(t, store.Put(ctx, other, entry.Worked(6)))
	require.NoError(t, store.Delete(ctx, other))
	syncer.Stop()

	got, ok := mirror.Day("emp-1", day)
	require.True(t, ok)
	assert.True(t, got.Hours.Equal(entry.RegularDayHours))

	_, ok = mirror.Day("emp-1", other)
	assert.False(t, ok, "deletion should have been mirrored")
}

func TestSyncer_RetriesTransientFailures(t *testing.T) {
	// GIVEN: A mirror that fails twice before succeeding
	// WHEN: Enqueuing one job with a 3-attempt ceiling
	// THEN: The job lands and no error is reported

	flaky := &flakyMirror{failures: 2, inner: memory.NewMirror()}
	syncer := entry.NewSyncer(flaky, 3, time.Millisecond)

	var reported atomic.Int32
	syncer.Errf = func(string, ...any) { reported.Add(1) }
	syncer.Start()

	day := mustDate(t, "2025-03-12")
	e := entry.Worked(8)
	syncer.Enqueue("emp-1", day, &e)
	syncer.Stop()

	_, ok := flaky.inner.Day("emp-1", day)
	assert.True(t, ok)
	assert.Equal(t, int32(0), reported.Load())
}

func TestSyncer_ExhaustedJob_Reported(t *testing.T) {
	// GIVEN: A mirror that never succeeds
	// WHEN: A job exhausts its attempts
	// THEN: A SyncError is reported and the caller was never blocked

	flaky := &flakyMirror{failures: 1 << 30, inner: memory.NewMirror()}
	syncer := entry.NewSyncer(flaky, 2, time.Millisecond)

	var reported atomic.Int32
	syncer.Errf = func(string, ...any) { reported.Add(1) }
	syncer.Start()

	e := entry.Worked(8)
	syncer.Enqueue("emp-1", mustDate(t, "2025-03-12"), &e)
	syncer.Stop()

	assert.Equal(t, int32(1), reported.Load())
}
