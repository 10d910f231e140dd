package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Vince095/HeatmapSDK/internal/capture"
	"github.com/Vince095/HeatmapSDK/internal/engine"
	"github.com/Vince095/HeatmapSDK/internal/event"
	"github.com/Vince095/HeatmapSDK/internal/gesture"
	"github.com/Vince095/HeatmapSDK/internal/logging"
	"github.com/Vince095/HeatmapSDK/internal/recorder"
	"github.com/Vince095/HeatmapSDK/internal/session"
	"github.com/Vince095/HeatmapSDK/internal/store"
	"github.com/Vince095/HeatmapSDK/internal/syncclient"
	"github.com/Vince095/HeatmapSDK/internal/testutil"
)

// ErrScriptedFailure is returned by uploads failed with fail_uploads.
var ErrScriptedFailure = errors.New("scripted upload failure")

// Harness wires the real pipeline to a fake clock and a scripted uploader.
type Harness struct {
	queue    *store.Queue
	engine   *engine.Engine
	state    *session.State
	recorder *recorder.Recorder
	tracker  *capture.Tracker
	clock    *testutil.FakeClock
	uploader *testutil.Uploader
	logger   *slog.Logger

	mu     sync.Mutex
	result *Result
}

// Option configures a run.
type Option func(*Harness)

// WithLogger sets the logger for the pipeline. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// Run executes a scenario and returns the result.
//
// Each run uses a fresh in-memory queue. The returned error reports a
// script that could not be executed; failed assertions are in the Result.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	q, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory queue: %w", err)
	}
	defer q.Close()

	h := &Harness{
		queue:    q,
		state:    session.New(),
		clock:    testutil.NewFakeClock(),
		uploader: testutil.NewUploader(),
		logger:   logging.Discard(),
		result:   NewResult(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.engine = engine.New(q, traceUploader{h}, h.state, engine.WithLogger(h.logger))
	h.recorder = recorder.New(h.engine, h.state, engine.NewClock(h.clock.Now), recorder.WithLogger(h.logger))
	h.recorder.Start()
	h.tracker = capture.New(scenario.Config(), traceSink{h}, capture.WithLogger(h.logger))

	go h.engine.Run(context.WithoutCancel(ctx))
	defer func() {
		h.engine.Stop()
		<-h.engine.Done()
	}()

	for i, step := range scenario.Steps {
		if err := h.execute(ctx, step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	pending, err := h.engine.Pending(ctx)
	if err != nil {
		return nil, fmt.Errorf("count pending: %w", err)
	}

	result := h.snapshot()
	result.Pending = pending
	result.Uploads = h.uploader.Calls()

	actx := &AssertionContext{Ctx: ctx, Source: h.engine}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) execute(ctx context.Context, step Step) error {
	switch {
	case step.Attach != "":
		return h.tracker.Attach(step.Attach)

	case step.Detach:
		h.tracker.Detach()

	case len(step.Samples) > 0:
		for _, s := range step.Samples {
			action, err := gesture.ParseAction(s.Action)
			if err != nil {
				return err
			}
			at := h.at(s.At)
			// Rejected gestures are already in the trace.
			_ = h.tracker.HandleSample(gesture.Sample{
				Action: action, X: s.X, Y: s.Y, Pressure: s.Pressure, Time: at,
			})
		}

	case step.Record != nil:
		r := step.Record
		h.at(r.At)
		_ = traceSink{h}.Record(gesture.Gesture{
			Kind: event.Kind(r.Kind), X: r.X, Y: r.Y, EndX: r.EndX, EndY: r.EndY, Intensity: r.Intensity,
		}, r.Screen)

	case step.Identify != nil:
		if err := h.state.Identify(step.Identify.User, step.Identify.Token); err != nil {
			return err
		}
		h.trace(TraceEvent{Type: EventIdentify, UserID: step.Identify.User})
		return h.flush(ctx)

	case step.Clear:
		h.state.Clear()
		h.trace(TraceEvent{Type: EventClear})

	case step.FailUploads > 0:
		errs := make([]error, step.FailUploads)
		for i := range errs {
			errs[i] = ErrScriptedFailure
		}
		h.uploader.FailNext(errs...)

	case step.Flush:
		return h.flush(ctx)
	}
	return nil
}

// at moves the clock to ms after the start and returns that time.
func (h *Harness) at(ms int64) time.Time {
	t := testutil.Epoch.Add(time.Duration(ms) * time.Millisecond)
	h.clock.Set(t)
	return t
}

func (h *Harness) flush(ctx context.Context) error {
	res, err := h.engine.FlushWait(ctx)
	ev := TraceEvent{Type: EventFlush, Events: res.Events, Deleted: res.Deleted, BatchKey: res.BatchKey}
	if err != nil {
		if errors.Is(err, engine.ErrStopped) || ctx.Err() != nil {
			return err
		}
		ev.Error = err.Error()
	}
	h.trace(ev)
	return nil
}

func (h *Harness) trace(ev TraceEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ev.Seq = len(h.result.Trace) + 1
	h.result.Trace = append(h.result.Trace, ev)
}

func (h *Harness) snapshot() *Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	r := h.result
	r.Trace = append([]TraceEvent{}, r.Trace...)
	return r
}

// traceSink records every gesture before passing it to the recorder.
type traceSink struct{ h *Harness }

func (s traceSink) Record(g gesture.Gesture, screen string) error {
	gt := &GestureTrace{Kind: string(g.Kind), X: g.X, Y: g.Y, Intensity: g.Intensity}
	if g.Kind.HasEnd() {
		gt.EndX, gt.EndY = event.Float(g.EndX), event.Float(g.EndY)
	}

	err := s.h.recorder.Record(g, screen)
	ev := TraceEvent{Type: EventGesture, Screen: screen, Gesture: gt}
	if err != nil {
		ev.Type = EventRejected
		ev.Error = err.Error()
	}
	s.h.trace(ev)
	return err
}

// traceUploader records every batch before passing it to the scripted
// uploader.
type traceUploader struct{ h *Harness }

func (u traceUploader) Upload(ctx context.Context, b syncclient.Batch) error {
	rows := make([]RowTrace, len(b.Rows))
	for i, r := range b.Rows {
		rows[i] = RowTrace{
			ID:        r.ID,
			Kind:      string(r.Kind),
			Screen:    r.ScreenName,
			X:         r.X,
			Y:         r.Y,
			Timestamp: r.Timestamp,
		}
		if r.UserID != nil {
			rows[i].UserID = *r.UserID
		}
	}
	u.h.trace(TraceEvent{Type: EventUpload, UserID: b.Identity.UserID, BatchKey: b.Key, Rows: rows})
	return u.h.uploader.Upload(ctx, b)
}
