package gesture

import (
	"math"
	"time"

	"github.com/Vince095/HeatmapSDK/internal/event"
)

// Defaults tuned for touchscreen pixel coordinates.
const (
	DefaultMinDistance    = 120.0 // px
	DefaultMinVelocity    = 100.0 // px/s
	DefaultTouchSlop      = 8.0   // px
	DefaultTapTimeout     = 500 * time.Millisecond
	DefaultVelocityWindow = 100 * time.Millisecond
	DefaultMinScrollDelta = 1.0 // px
)

// Config holds the classification thresholds.
type Config struct {
	MinDistance    float64
	MinVelocity    float64
	TouchSlop      float64
	TapTimeout     time.Duration
	VelocityWindow time.Duration
	MinScrollDelta float64
}

// DefaultConfig returns the thresholds used when none are configured.
func DefaultConfig() Config {
	return Config{
		MinDistance:    DefaultMinDistance,
		MinVelocity:    DefaultMinVelocity,
		TouchSlop:      DefaultTouchSlop,
		TapTimeout:     DefaultTapTimeout,
		VelocityWindow: DefaultVelocityWindow,
		MinScrollDelta: DefaultMinScrollDelta,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MinDistance <= 0 {
		c.MinDistance = d.MinDistance
	}
	if c.MinVelocity <= 0 {
		c.MinVelocity = d.MinVelocity
	}
	if c.TouchSlop <= 0 {
		c.TouchSlop = d.TouchSlop
	}
	if c.TapTimeout <= 0 {
		c.TapTimeout = d.TapTimeout
	}
	if c.VelocityWindow <= 0 {
		c.VelocityWindow = d.VelocityWindow
	}
	if c.MinScrollDelta <= 0 {
		c.MinScrollDelta = d.MinScrollDelta
	}
	return c
}

// Gesture is a classified interaction, not yet stamped or attributed.
// EndX and EndY are meaningful only when Kind.HasEnd() is true.
type Gesture struct {
	Kind      event.Kind
	X         float64
	Y         float64
	EndX      float64
	EndY      float64
	Intensity float64
}

// Classifier is the per-contact state machine.
type Classifier struct {
	cfg Config

	active   bool
	dragging bool
	down     Sample
	lastX    float64 // last position reported as SCROLL
	lastY    float64
	history  []Sample // samples inside the velocity window
}

// New creates a Classifier. Zero thresholds in cfg fall back to defaults.
func New(cfg Config) *Classifier {
	return &Classifier{cfg: cfg.withDefaults()}
}

// Config returns the effective thresholds.
func (c *Classifier) Config() Config {
	return c.cfg
}

// Active reports whether a contact is in progress.
func (c *Classifier) Active() bool {
	return c.active
}

// Reset discards any contact in progress without emitting anything.
func (c *Classifier) Reset() {
	c.active = false
	c.dragging = false
	c.down = Sample{}
	c.history = c.history[:0]
}

// Process feeds one sample. It returns the gesture recognised at this sample,
// if any. SCROLL may be returned repeatedly during a drag; TOUCH or SWIPE_*
// is returned at most once per contact, on release.
//
// Down, Move and Up samples with a NaN or infinite position are ignored.
func (c *Classifier) Process(s Sample) (Gesture, bool) {
	if s.Action != ActionCancel && s.Action != ActionPointerDown && !s.finite() {
		return Gesture{}, false
	}
	switch s.Action {
	case ActionDown:
		c.begin(s)
		return Gesture{}, false
	case ActionMove:
		return c.move(s)
	case ActionUp:
		return c.release(s)
	case ActionCancel, ActionPointerDown:
		c.Reset()
		return Gesture{}, false
	default:
		return Gesture{}, false
	}
}

func (c *Classifier) begin(s Sample) {
	c.Reset()
	c.active = true
	c.down = s
	c.lastX, c.lastY = s.X, s.Y
	c.history = append(c.history, s)
}

func (c *Classifier) move(s Sample) (Gesture, bool) {
	if !c.active {
		return Gesture{}, false
	}
	c.record(s)

	if !c.dragging && distance(c.down.X, c.down.Y, s.X, s.Y) > c.cfg.TouchSlop {
		c.dragging = true
	}
	if !c.dragging {
		return Gesture{}, false
	}
	if distance(c.lastX, c.lastY, s.X, s.Y) < c.cfg.MinScrollDelta {
		return Gesture{}, false
	}
	c.lastX, c.lastY = s.X, s.Y
	return Gesture{
		Kind:      event.KindScroll,
		X:         c.down.X,
		Y:         c.down.Y,
		EndX:      s.X,
		EndY:      s.Y,
		Intensity: event.SwipeIntensity,
	}, true
}

func (c *Classifier) release(s Sample) (Gesture, bool) {
	if !c.active {
		return Gesture{}, false
	}
	defer c.Reset()
	c.record(s)

	if !c.dragging && distance(c.down.X, c.down.Y, s.X, s.Y) > c.cfg.TouchSlop {
		c.dragging = true
	}

	if !c.dragging {
		if s.Time.Sub(c.down.Time) > c.cfg.TapTimeout {
			return Gesture{}, false // long press
		}
		intensity := event.DefaultIntensity
		if s.Pressure > 0 {
			intensity = event.ClampIntensity(s.Pressure)
		}
		return Gesture{Kind: event.KindTouch, X: s.X, Y: s.Y, Intensity: intensity}, true
	}

	kind, ok := c.fling(s)
	if !ok {
		return Gesture{}, false
	}
	return Gesture{
		Kind:      kind,
		X:         c.down.X,
		Y:         c.down.Y,
		EndX:      s.X,
		EndY:      s.Y,
		Intensity: event.SwipeIntensity,
	}, true
}

// fling decides the swipe direction for a drag released at up.
func (c *Classifier) fling(up Sample) (event.Kind, bool) {
	diffX := up.X - c.down.X
	diffY := up.Y - c.down.Y
	vx, vy := c.velocity(up)

	if math.Abs(diffX) > math.Abs(diffY) {
		if math.Abs(diffX) > c.cfg.MinDistance && math.Abs(vx) > c.cfg.MinVelocity {
			if diffX > 0 {
				return event.KindSwipeRight, true
			}
			return event.KindSwipeLeft, true
		}
		return "", false
	}
	if math.Abs(diffY) > c.cfg.MinDistance && math.Abs(vy) > c.cfg.MinVelocity {
		if diffY > 0 {
			return event.KindSwipeDown, true
		}
		return event.KindSwipeUp, true
	}
	return "", false
}

// velocity estimates the release velocity in px/s from the oldest sample
// still inside the velocity window. A finger that rested longer than the
// window before lifting has zero velocity.
func (c *Classifier) velocity(up Sample) (vx, vy float64) {
	if len(c.history) < 2 {
		return 0, 0
	}
	first := c.history[0]
	dt := up.Time.Sub(first.Time).Seconds()
	if dt <= 0 {
		return 0, 0
	}
	return (up.X - first.X) / dt, (up.Y - first.Y) / dt
}

// record appends s and drops samples older than the velocity window.
func (c *Classifier) record(s Sample) {
	c.history = append(c.history, s)
	cutoff := s.Time.Add(-c.cfg.VelocityWindow)
	i := 0
	for i < len(c.history)-1 && c.history[i].Time.Before(cutoff) {
		i++
	}
	if i > 0 {
		c.history = append(c.history[:0], c.history[i:]...)
	}
}

func distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}
