package heatmap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Vince095/HeatmapSDK/internal/capture"
	"github.com/Vince095/HeatmapSDK/internal/engine"
	overlay "github.com/Vince095/HeatmapSDK/internal/heatmap"
	"github.com/Vince095/HeatmapSDK/internal/recorder"
	"github.com/Vince095/HeatmapSDK/internal/session"
	"github.com/Vince095/HeatmapSDK/internal/store"
	"github.com/Vince095/HeatmapSDK/internal/syncclient"
)

var (
	// ErrNotInitialized is returned by every method after Close.
	ErrNotInitialized = errors.New("heatmap: sdk is closed")
	// ErrNoCapturer is returned by CaptureHeatmapScreenshot when no
	// Capturer was configured.
	ErrNoCapturer = errors.New("heatmap: no capturer configured")
	// ErrNoIdentity is returned by screenshot uploads before Identify.
	ErrNoIdentity = syncclient.ErrNoIdentity
	// ErrNoData is returned by CaptureHeatmapScreenshot for a screen
	// without recorded points.
	ErrNoData = overlay.ErrNoData
	// ErrEmptyUserID is returned by Identify for an empty user id.
	ErrEmptyUserID = session.ErrEmptyUserID
	// ErrInvalidEvent is returned by RecordGesture for a gesture that can
	// never be stored, such as one with a NaN or infinite coordinate.
	ErrInvalidEvent = recorder.ErrInvalidEvent
)

// SDK wires capture, recording, the durable queue and uploads together.
type SDK struct {
	logger    *slog.Logger
	sessionID string

	queue       *store.Queue
	client      *syncclient.Client
	state       *session.State
	engine      *engine.Engine
	recorder    *recorder.Recorder
	tracker     *capture.Tracker
	snapshotter *overlay.Snapshotter

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
	runErr    chan error
}

// New opens the local queue, starts the background flush loop and returns
// a ready SDK. The recorder is started; call Attach to begin capturing.
func New(baseURL string, opts ...Option) (*SDK, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if baseURL == "" {
		return nil, errors.New("heatmap: base URL is required")
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.idGen == nil {
		o.idGen = session.UUIDv7Generator{}
	}

	q, err := store.Open(o.dbPath)
	if err != nil {
		return nil, fmt.Errorf("heatmap: %w", err)
	}

	sessionID := o.idGen.Generate()
	clientOpts := []syncclient.Option{
		syncclient.WithTimeout(o.timeout),
		syncclient.WithSessionID(sessionID),
		syncclient.WithHorizontalSwipeEnd(o.includeHorizontal),
		syncclient.WithClock(o.now),
		syncclient.WithLogger(o.logger),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, syncclient.WithHTTPClient(o.httpClient))
	}
	if o.userAgent != "" {
		clientOpts = append(clientOpts, syncclient.WithUserAgent(o.userAgent))
	}
	client := syncclient.New(baseURL, clientOpts...)

	state := session.New()
	eng := engine.New(q, client, state,
		engine.WithLogger(o.logger),
		engine.WithFlushInterval(o.flushInterval),
		engine.WithMaxBacklog(o.maxBacklog),
		engine.WithMaxBatchSize(o.maxBatchSize),
		engine.WithUploadTimeout(o.timeout),
	)
	rec := recorder.New(eng, state, engine.NewClock(o.now), recorder.WithLogger(o.logger))
	rec.Start()

	s := &SDK{
		logger:    o.logger,
		sessionID: sessionID,
		queue:     q,
		client:    client,
		state:     state,
		engine:    eng,
		recorder:  rec,
		tracker:   capture.New(o.gesture, rec, capture.WithLogger(o.logger)),
		runErr:    make(chan error, 1),
	}
	if o.capturer != nil {
		snapOpts := []overlay.SnapshotOption{overlay.WithLogger(o.logger)}
		if o.renderer != nil {
			snapOpts = append(snapOpts, overlay.WithRenderer(o.renderer))
		}
		s.snapshotter = overlay.NewSnapshotter(eng, o.capturer, client, state, snapOpts...)
	}

	go func() { s.runErr <- eng.Run(context.Background()) }()

	s.logger.Debug("heatmap sdk started", "db", o.dbPath, "session_id", sessionID)
	return s, nil
}

// SessionID returns the client session id sent with every upload.
func (s *SDK) SessionID() string { return s.sessionID }

// Attach starts classifying samples for screen. Any gesture in progress on
// the previous screen is discarded.
func (s *SDK) Attach(screen string) error {
	if s.closed.Load() {
		return ErrNotInitialized
	}
	return s.tracker.Attach(screen)
}

// Detach stops capturing until the next Attach.
func (s *SDK) Detach() {
	s.tracker.Detach()
}

// HandleSample feeds one pointer sample to the classifier. Samples received
// while detached are ignored.
func (s *SDK) HandleSample(sample Sample) error {
	if s.closed.Load() {
		return ErrNotInitialized
	}
	return s.tracker.HandleSample(sample)
}

// RecordGesture records an already classified gesture on screen.
func (s *SDK) RecordGesture(g Gesture, screen string) error {
	if s.closed.Load() {
		return ErrNotInitialized
	}
	return s.recorder.Record(g, screen)
}

// Identify sets the identity attached to future events and uploads, then
// triggers a flush. An empty userID returns ErrEmptyUserID and flushes
// nothing; use Clear to drop the identity.
func (s *SDK) Identify(userID, token string) error {
	if s.closed.Load() {
		return ErrNotInitialized
	}
	if err := s.state.Identify(userID, token); err != nil {
		return err
	}
	s.engine.Flush()
	return nil
}

// Clear drops the identity. Queued events keep the user id they were
// recorded with.
func (s *SDK) Clear() {
	s.state.Clear()
}

// Identity returns the current identity.
func (s *SDK) Identity() Identity {
	return s.state.Snapshot()
}

// Flush requests an upload of the queue without waiting for it.
func (s *SDK) Flush() error {
	if s.closed.Load() {
		return ErrNotInitialized
	}
	s.engine.Flush()
	return nil
}

// FlushWait requests an upload and waits for its outcome. A request that
// arrives while an upload is running is answered by the follow-up upload.
func (s *SDK) FlushWait(ctx context.Context) (FlushResult, error) {
	if s.closed.Load() {
		return FlushResult{}, ErrNotInitialized
	}
	return s.engine.FlushWait(ctx)
}

// Pending returns the number of events waiting in the queue.
func (s *SDK) Pending(ctx context.Context) (int, error) {
	if s.closed.Load() {
		return 0, ErrNotInitialized
	}
	return s.engine.Pending(ctx)
}

// RequestHeatmap returns the overlay data for screen from the local queue.
func (s *SDK) RequestHeatmap(ctx context.Context, screen string) (HeatmapData, error) {
	if s.closed.Load() {
		return HeatmapData{}, ErrNotInitialized
	}
	return s.engine.Heatmap(ctx, screen)
}

// UploadScreenshot sends a PNG for screen. Requires an identity.
func (s *SDK) UploadScreenshot(ctx context.Context, png []byte, screen string) error {
	if s.closed.Load() {
		return ErrNotInitialized
	}
	return s.client.UploadScreenshot(ctx, png, screen, s.state.Snapshot())
}

// CaptureHeatmapScreenshot captures the current view at width x height,
// overlays the heatmap for screen and uploads it without displaying it.
func (s *SDK) CaptureHeatmapScreenshot(ctx context.Context, screen string, width, height int) error {
	if s.closed.Load() {
		return ErrNotInitialized
	}
	if s.snapshotter == nil {
		return ErrNoCapturer
	}
	return s.snapshotter.CaptureHeatmapScreenshot(ctx, screen, width, height)
}

// Close stops capturing, waits for queued writes to be persisted and
// in-flight uploads to settle, then closes the queue. Unsent events remain
// on disk for the next run. Close is idempotent.
func (s *SDK) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.tracker.Detach()
		s.recorder.Stop()
		s.engine.Stop()
		<-s.engine.Done()
		if err := <-s.runErr; err != nil {
			s.logger.Warn("flush loop exited with error", "error", err)
		}
		if err := s.queue.Close(); err != nil {
			s.closeErr = fmt.Errorf("heatmap: %w", err)
		}
	})
	return s.closeErr
}
