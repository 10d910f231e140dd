// Package capture routes pointer samples from the attached screen through
// the gesture classifier to the recorder.
package capture

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/Vince095/HeatmapSDK/internal/event"
	"github.com/Vince095/HeatmapSDK/internal/gesture"
)

// ErrEmptyScreen is returned by Attach for a blank screen identifier.
var ErrEmptyScreen = errors.New("screen identifier is empty")

// Sink receives classified gestures. Implemented by *recorder.Recorder.
type Sink interface {
	Record(g gesture.Gesture, screenName string) error
}

// Tracker is the attach/detach hook for the host's screen lifecycle.
//
// HandleSample classifies synchronously on the caller's goroutine; Attach
// and Detach may be called from another goroutine.
type Tracker struct {
	mu         sync.Mutex
	classifier *gesture.Classifier
	sink       Sink
	screen     string
	attached   bool
	logger     *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// New creates a detached Tracker.
func New(cfg gesture.Config, sink Sink, opts ...Option) *Tracker {
	t := &Tracker{
		classifier: gesture.New(cfg),
		sink:       sink,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Attach starts routing samples for screen. Any contact in progress on the
// previous screen is discarded.
func (t *Tracker) Attach(screen string) error {
	name := event.NormalizeScreenName(screen)
	if name == "" {
		return ErrEmptyScreen
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.classifier.Reset()
	t.screen = name
	t.attached = true
	t.logger.Debug("capture attached", "screen", name)
	return nil
}

// Detach stops routing samples and discards any contact in progress.
func (t *Tracker) Detach() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.attached {
		t.logger.Debug("capture detached", "screen", t.screen)
	}
	t.classifier.Reset()
	t.screen = ""
	t.attached = false
}

// Screen returns the attached screen name.
func (t *Tracker) Screen() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.screen, t.attached
}

// HandleSample feeds one pointer sample to the classifier and records the
// resulting gesture, if any. Samples are ignored while detached. The returned
// error comes from the sink; ambiguous contacts are not errors.
func (t *Tracker) HandleSample(s gesture.Sample) error {
	t.mu.Lock()
	if !t.attached {
		t.mu.Unlock()
		return nil
	}
	g, ok := t.classifier.Process(s)
	screen := t.screen
	t.mu.Unlock()

	if !ok {
		return nil
	}
	return t.sink.Record(g, screen)
}
