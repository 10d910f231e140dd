package event

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Kind identifies the semantic interaction an event represents.
type Kind string

const (
	KindTouch      Kind = "TOUCH"
	KindScroll     Kind = "SCROLL"
	KindSwipeUp    Kind = "SWIPE_UP"
	KindSwipeDown  Kind = "SWIPE_DOWN"
	KindSwipeLeft  Kind = "SWIPE_LEFT"
	KindSwipeRight Kind = "SWIPE_RIGHT"
)

// SwipeIntensity is the fixed intensity recorded for scrolls and swipes.
const SwipeIntensity = 0.8

// DefaultIntensity is used for taps whose pressure is unknown.
const DefaultIntensity = 1.0

// ValidKinds lists every kind accepted by Validate.
var ValidKinds = map[Kind]bool{
	KindTouch:      true,
	KindScroll:     true,
	KindSwipeUp:    true,
	KindSwipeDown:  true,
	KindSwipeLeft:  true,
	KindSwipeRight: true,
}

// IsSwipe reports whether k is one of the directional swipe kinds.
func (k Kind) IsSwipe() bool {
	switch k {
	case KindSwipeUp, KindSwipeDown, KindSwipeLeft, KindSwipeRight:
		return true
	}
	return false
}

// HasEnd reports whether events of this kind carry end coordinates.
func (k Kind) HasEnd() bool {
	return k == KindScroll || k.IsSwipe()
}

// InteractionEvent is one semantic user action on a screen.
type InteractionEvent struct {
	Kind       Kind     `json:"event_type"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	EndX       *float64 `json:"end_x,omitempty"`
	EndY       *float64 `json:"end_y,omitempty"`
	Intensity  float64  `json:"intensity"`
	Timestamp  int64    `json:"timestamp"` // epoch milliseconds
	ScreenName string   `json:"screen_name"`
	UserID     *string  `json:"user_id,omitempty"` // nil when anonymous
}

// Validation errors returned by InteractionEvent.Validate.
var (
	ErrEmptyScreen      = errors.New("screen name is empty")
	ErrUnknownKind      = errors.New("unknown event kind")
	ErrEndCoordinates   = errors.New("end coordinates do not match event kind")
	ErrIntensityRange   = errors.New("intensity out of range [0,1]")
	ErrNonFinite        = errors.New("coordinate or intensity is not finite")
	ErrInvalidTimestamp = errors.New("timestamp must be positive")
)

// Validate checks the event invariants. An event that fails validation must
// never be persisted.
func (e InteractionEvent) Validate() error {
	if !ValidKinds[e.Kind] {
		return fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
	if strings.TrimSpace(e.ScreenName) == "" {
		return ErrEmptyScreen
	}
	hasEnd := e.EndX != nil && e.EndY != nil
	if (e.EndX == nil) != (e.EndY == nil) || hasEnd != e.Kind.HasEnd() {
		return fmt.Errorf("%w: %s", ErrEndCoordinates, e.Kind)
	}
	if err := e.checkFinite(); err != nil {
		return err
	}
	if e.Intensity < 0 || e.Intensity > 1 {
		return fmt.Errorf("%w: %v", ErrIntensityRange, e.Intensity)
	}
	if e.Timestamp <= 0 {
		return ErrInvalidTimestamp
	}
	return nil
}

// checkFinite rejects NaN and ±Inf, which the ingest JSON cannot encode.
func (e InteractionEvent) checkFinite() error {
	fields := []struct {
		name string
		v    *float64
	}{
		{"x", &e.X},
		{"y", &e.Y},
		{"end_x", e.EndX},
		{"end_y", e.EndY},
		{"intensity", &e.Intensity},
	}
	for _, f := range fields {
		if f.v != nil && !IsFinite(*f.v) {
			return fmt.Errorf("%w: %s=%v", ErrNonFinite, f.name, *f.v)
		}
	}
	return nil
}

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// NormalizeScreenName trims surrounding whitespace and applies Unicode NFC so
// that visually identical names aggregate under one key.
func NormalizeScreenName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// ClampIntensity limits v to [0,1].
func ClampIntensity(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Float returns a pointer to v. Used for the optional end coordinates.
func Float(v float64) *float64 {
	return &v
}
