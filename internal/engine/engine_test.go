package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vince095/HeatmapSDK/internal/event"
	"github.com/Vince095/HeatmapSDK/internal/session"
	"github.com/Vince095/HeatmapSDK/internal/store"
	"github.com/Vince095/HeatmapSDK/internal/testutil"
)

const waitFor = 2 * time.Second

type fixture struct {
	engine   *Engine
	queue    *store.Queue
	uploader *testutil.Uploader
	session  *session.State
	runErr   chan error
}

// newFixture starts an engine over a temp-dir queue. The engine is stopped
// at test cleanup.
func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	q, err := store.Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)

	f := &fixture{
		queue:    q,
		uploader: testutil.NewUploader(),
		session:  session.New(),
		runErr:   make(chan error, 1),
	}
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	f.engine = New(q, f.uploader, f.session, opts...)

	go func() { f.runErr <- f.engine.Run(context.Background()) }()

	t.Cleanup(func() {
		f.uploader.Release()
		f.engine.Stop()
		<-f.engine.Done()
		q.Close()
	})
	return f
}

func touch(screen string, ts int64) event.InteractionEvent {
	return event.InteractionEvent{
		Kind:       event.KindTouch,
		X:          100,
		Y:          200,
		Intensity:  0.5,
		Timestamp:  ts,
		ScreenName: screen,
	}
}

func swipeUp(screen string, ts int64) event.InteractionEvent {
	return event.InteractionEvent{
		Kind:       event.KindSwipeUp,
		X:          100,
		Y:          800,
		EndX:       event.Float(100),
		EndY:       event.Float(200),
		Intensity:  event.SwipeIntensity,
		Timestamp:  ts,
		ScreenName: screen,
	}
}

func (f *fixture) append(t *testing.T, evs ...event.InteractionEvent) {
	t.Helper()
	for _, ev := range evs {
		require.NoError(t, f.engine.Append(ev))
	}
}

func (f *fixture) rows(t *testing.T) []store.Row {
	t.Helper()
	// Pending orders this read after every earlier append.
	_, err := f.engine.Pending(context.Background())
	require.NoError(t, err)
	rows, err := f.queue.ReadAll(context.Background())
	require.NoError(t, err)
	return rows
}

func (f *fixture) waitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-f.uploader.Started():
	case <-time.After(waitFor):
		t.Fatal("upload did not start")
	}
}

func TestEngine_AppendPreservesOrder(t *testing.T) {
	f := newFixture(t)

	f.append(t, touch("A", 3), touch("B", 4), touch("C", 5))

	n, err := f.engine.Pending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rows := f.rows(t)
	assert.Equal(t, []string{"A", "B", "C"}, []string{rows[0].ScreenName, rows[1].ScreenName, rows[2].ScreenName})
}

func TestEngine_InvalidAppendIsLoggedNotPersisted(t *testing.T) {
	f := newFixture(t)

	bad := touch("Home", 1)
	bad.Intensity = 3
	f.append(t, bad, touch("Home", 2))

	rows := f.rows(t)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].Timestamp)
}

func TestEngine_FlushEmptyQueueIsNoop(t *testing.T) {
	f := newFixture(t)

	res, err := f.engine.FlushWait(context.Background())

	require.NoError(t, err)
	assert.Equal(t, FlushResult{}, res)
	assert.Zero(t, f.uploader.Calls())
}

func TestEngine_FlushUploadsAndDeletes(t *testing.T) {
	f := newFixture(t)
	f.append(t, touch("Home", 1), swipeUp("Home", 2))

	res, err := f.engine.FlushWait(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, res.Events)
	assert.Equal(t, int64(2), res.Deleted)
	assert.NotEmpty(t, res.BatchKey)
	assert.Empty(t, f.rows(t))

	batches := f.uploader.Batches()
	require.Len(t, batches, 1)
	assert.Len(t, batches[0].Rows, 2)
	assert.Equal(t, res.BatchKey, batches[0].Key)
}

func TestEngine_BackToBackFlushesUploadOnce(t *testing.T) {
	f := newFixture(t)
	f.append(t, touch("Home", 1))

	f.engine.Flush()
	_, err := f.engine.FlushWait(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, f.uploader.Calls())
	assert.Empty(t, f.rows(t))
}

func TestEngine_FlushesCoalesceWhileInFlight(t *testing.T) {
	f := newFixture(t)
	f.uploader.Hold()
	f.append(t, touch("Home", 1))

	f.engine.Flush()
	f.waitStarted(t)

	// Three requests during the upload collapse into one follow-up flush.
	results := make(chan error, 3)
	for i := 0; i < 3; i++ {
		go func() {
			_, err := f.engine.FlushWait(context.Background())
			results <- err
		}()
	}
	time.Sleep(20 * time.Millisecond)

	f.uploader.Release()
	for i := 0; i < 3; i++ {
		require.NoError(t, <-results)
	}

	// The follow-up snapshot was empty, so nothing else was sent.
	assert.Equal(t, 1, f.uploader.Calls())
}

func TestEngine_AppendsDuringUploadSurviveDelete(t *testing.T) {
	f := newFixture(t)
	f.uploader.Hold()
	f.append(t, touch("Home", 1), touch("Home", 2))

	f.engine.Flush()
	f.waitStarted(t)

	f.append(t, touch("Late", 3))
	f.uploader.FailNext(errors.New("offline"))
	f.uploader.Release()

	// Joins the follow-up flush, which sends only the late row and fails.
	_, err := f.engine.FlushWait(context.Background())
	require.Error(t, err)

	rows := f.rows(t)
	require.Len(t, rows, 1)
	assert.Equal(t, "Late", rows[0].ScreenName)

	batches := f.uploader.Batches()
	require.Len(t, batches, 2)
	assert.Len(t, batches[0].Rows, 2)
	assert.Equal(t, rows[0].ID, batches[1].Rows[0].ID)
}

func TestEngine_FailedUploadRetainsBatchUntilSuccess(t *testing.T) {
	f := newFixture(t)
	f.append(t, swipeUp("Feed", 1))
	f.uploader.FailNext(errors.New("HTTP 500"))

	res, err := f.engine.FlushWait(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, res.Events)
	assert.Zero(t, res.Deleted)
	assert.Len(t, f.rows(t), 1, "failed batch stays queued")

	res, err = f.engine.FlushWait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Deleted)
	assert.Empty(t, f.rows(t))

	batches := f.uploader.Batches()
	require.Len(t, batches, 2)
	assert.Equal(t, batches[0].Key, batches[1].Key, "retry reuses the idempotency key")
	assert.Equal(t, batches[0].Rows, batches[1].Rows)
}

func TestEngine_BatchCarriesIdentityAtFlushTime(t *testing.T) {
	f := newFixture(t)
	f.append(t, touch("Home", 1))

	f.session.Identify("u1", "t1")
	_, err := f.engine.FlushWait(context.Background())
	require.NoError(t, err)

	batches := f.uploader.Batches()
	require.Len(t, batches, 1)
	assert.Equal(t, session.Identity{UserID: "u1", Token: "t1"}, batches[0].Identity)
	assert.Nil(t, batches[0].Rows[0].UserID, "rows are not re-tagged")
}

func TestEngine_MaxBatchSize(t *testing.T) {
	f := newFixture(t, WithMaxBatchSize(2))
	f.append(t, touch("A", 1), touch("A", 2), touch("A", 3))

	res, err := f.engine.FlushWait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Events)

	rows := f.rows(t)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3), rows[0].Timestamp)
}

func TestEngine_MaxBacklogEvictsOldest(t *testing.T) {
	f := newFixture(t, WithMaxBacklog(2))
	f.append(t, touch("A", 1), touch("A", 2), touch("A", 3))

	rows := f.rows(t)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(2), rows[0].Timestamp)
	assert.Equal(t, int64(3), rows[1].Timestamp)
}

func TestEngine_PeriodicFlush(t *testing.T) {
	f := newFixture(t, WithFlushInterval(10*time.Millisecond))
	f.append(t, touch("A", 1))

	require.Eventually(t, func() bool {
		return f.uploader.Calls() >= 1
	}, waitFor, 5*time.Millisecond)
}

func TestEngine_Heatmap(t *testing.T) {
	f := newFixture(t)
	f.append(t, touch("Home", 1), swipeUp("Home", 2), touch("Other", 3))

	d, err := f.engine.Heatmap(context.Background(), " Home ")

	require.NoError(t, err)
	assert.Equal(t, "Home", d.ScreenName())
	assert.Len(t, d.Points(), 1)
	assert.Len(t, d.Swipes(), 1)
}

func TestEngine_StopDrainsQueuedAppends(t *testing.T) {
	f := newFixture(t)
	f.append(t, touch("A", 1), touch("A", 2), touch("A", 3))

	f.engine.Stop()
	<-f.engine.Done()
	require.NoError(t, <-f.runErr)

	n, err := f.queue.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.ErrorIs(t, f.engine.Append(touch("A", 4)), ErrStopped)
	_, err = f.engine.FlushWait(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
	_, err = f.engine.Pending(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
}

func TestEngine_StopDuringUploadKeepsRows(t *testing.T) {
	f := newFixture(t)
	f.uploader.Hold()
	f.append(t, touch("A", 1))

	waitErr := make(chan error, 1)
	go func() {
		_, err := f.engine.FlushWait(context.Background())
		waitErr <- err
	}()
	f.waitStarted(t)

	f.engine.Stop()
	<-f.engine.Done()

	assert.ErrorIs(t, <-waitErr, ErrStopped)
	n, err := f.queue.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEngine_ContextCancelStopsRun(t *testing.T) {
	q, err := store.Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer q.Close()

	e := New(q, testutil.NewUploader(), session.New(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, e.Append(touch("A", 1)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(waitFor):
		t.Fatal("Run did not return after cancel")
	}

	n, err := q.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n, "queued append drained before exit")
}

func TestEngine_RunTwice(t *testing.T) {
	f := newFixture(t)
	require.Eventually(t, func() bool { return f.engine.running.Load() }, waitFor, time.Millisecond)

	assert.Error(t, f.engine.Run(context.Background()))
}
