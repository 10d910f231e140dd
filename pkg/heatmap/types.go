package heatmap

import (
	"github.com/Vince095/HeatmapSDK/internal/config"
	"github.com/Vince095/HeatmapSDK/internal/engine"
	"github.com/Vince095/HeatmapSDK/internal/event"
	"github.com/Vince095/HeatmapSDK/internal/gesture"
	overlay "github.com/Vince095/HeatmapSDK/internal/heatmap"
	"github.com/Vince095/HeatmapSDK/internal/session"
	"github.com/Vince095/HeatmapSDK/internal/syncclient"
)

// Public names for the pipeline's data types.
type (
	// Sample is one low-level pointer sample.
	Sample = gesture.Sample
	// Action is the pointer action of a Sample.
	Action = gesture.Action
	// Gesture is a classified interaction before it is recorded.
	Gesture = gesture.Gesture
	// GestureConfig holds the classifier thresholds.
	GestureConfig = gesture.Config
	// Kind is the semantic event type.
	Kind = event.Kind
	// Identity is the (user id, token) pair attached to uploads.
	Identity = session.Identity
	// FlushResult summarizes one flush.
	FlushResult = engine.FlushResult
	// HeatmapData is the overlay input for one screen.
	HeatmapData = overlay.Data
	// Point is a tap or scroll origin in HeatmapData.
	Point = overlay.Point
	// Swipe is a swipe segment in HeatmapData.
	Swipe = overlay.Swipe
	// Capturer takes a PNG screenshot of the current view.
	Capturer = overlay.Capturer
	// Renderer composites HeatmapData over a PNG.
	Renderer = overlay.Renderer
	// Config is the file and environment configuration.
	Config = config.Config
	// UploadError describes a failed upload.
	UploadError = syncclient.UploadError
)

// Pointer actions.
const (
	ActionDown        = gesture.ActionDown
	ActionMove        = gesture.ActionMove
	ActionUp          = gesture.ActionUp
	ActionCancel      = gesture.ActionCancel
	ActionPointerDown = gesture.ActionPointerDown
)

// Event kinds.
const (
	KindTouch      = event.KindTouch
	KindScroll     = event.KindScroll
	KindSwipeUp    = event.KindSwipeUp
	KindSwipeDown  = event.KindSwipeDown
	KindSwipeLeft  = event.KindSwipeLeft
	KindSwipeRight = event.KindSwipeRight
)

// DefaultGestureConfig returns the default classifier thresholds.
func DefaultGestureConfig() GestureConfig {
	return gesture.DefaultConfig()
}

// LoadConfig reads a YAML file (optional) and HEATMAP_* environment
// variables.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// IsTransport reports whether err is an upload that got no response.
func IsTransport(err error) bool { return syncclient.IsTransport(err) }

// IsStatus reports whether err is an upload rejected with a non-2xx status.
func IsStatus(err error) bool { return syncclient.IsStatus(err) }

// IsEncode reports whether err is an upload that could not be encoded.
func IsEncode(err error) bool { return syncclient.IsEncode(err) }
