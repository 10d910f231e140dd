// Package recorder turns classified gestures into timestamped, attributed
// events and submits them to the engine.
package recorder

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/Vince095/HeatmapSDK/internal/event"
	"github.com/Vince095/HeatmapSDK/internal/gesture"
	"github.com/Vince095/HeatmapSDK/internal/session"
)

// Sentinel errors. Record logs each of them and nothing is persisted.
var (
	ErrNotStarted   = errors.New("recorder not started")
	ErrEmptyScreen  = errors.New("screen name is empty")
	ErrInvalidEvent = errors.New("invalid event")
)

// Appender accepts events for asynchronous persistence.
// Implemented by *engine.Engine.
type Appender interface {
	Append(ev event.InteractionEvent) error
}

// Stamper hands out event timestamps. Implemented by *engine.Clock.
type Stamper interface {
	NowMillis() int64
}

// IdentitySource provides the user id attached to new events.
type IdentitySource interface {
	Snapshot() session.Identity
}

// Recorder validates and submits events. Record may be called from any
// goroutine.
type Recorder struct {
	appender Appender
	identity IdentitySource
	clock    Stamper
	logger   *slog.Logger
	started  atomic.Bool
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) { r.logger = l }
}

// New creates a stopped Recorder.
func New(a Appender, id IdentitySource, clock Stamper, opts ...Option) *Recorder {
	r := &Recorder{
		appender: a,
		identity: id,
		clock:    clock,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start enables recording.
func (r *Recorder) Start() { r.started.Store(true) }

// Stop disables recording. Events already submitted are still written.
func (r *Recorder) Stop() { r.started.Store(false) }

// Started reports whether Record accepts events.
func (r *Recorder) Started() bool { return r.started.Load() }

// Record stamps g with the current time and identity and submits it. It
// returns as soon as the event is queued; the durable write happens on the
// engine goroutine in submission order.
func (r *Recorder) Record(g gesture.Gesture, screenName string) error {
	if !r.started.Load() {
		r.logger.Warn("event dropped: recorder not started", "kind", g.Kind)
		return ErrNotStarted
	}

	screen := event.NormalizeScreenName(screenName)
	if screen == "" {
		r.logger.Warn("event dropped: empty screen name", "kind", g.Kind)
		return ErrEmptyScreen
	}

	ev := event.InteractionEvent{
		Kind:       g.Kind,
		X:          g.X,
		Y:          g.Y,
		Intensity:  g.Intensity,
		Timestamp:  r.clock.NowMillis(),
		ScreenName: screen,
		UserID:     r.identity.Snapshot().UserIDPtr(),
	}
	if g.Kind.HasEnd() {
		ev.EndX, ev.EndY = event.Float(g.EndX), event.Float(g.EndY)
	}

	if err := ev.Validate(); err != nil {
		r.logger.Warn("event dropped: validation failed", "kind", g.Kind, "screen", screen, "error", err)
		return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}

	if err := r.appender.Append(ev); err != nil {
		r.logger.Warn("event dropped: pipeline stopped", "kind", g.Kind, "screen", screen, "error", err)
		return fmt.Errorf("%w: %w", ErrNotStarted, err)
	}

	r.logger.Debug("event recorded", "kind", ev.Kind, "screen", screen, "timestamp", ev.Timestamp)
	return nil
}
