package heatmap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Vince095/HeatmapSDK/internal/session"
)

// Errors returned by CaptureHeatmapScreenshot before anything is uploaded.
var (
	ErrNoData       = errors.New("no heatmap points for screen")
	ErrNoDimensions = errors.New("view has zero width or height")
	ErrNoImage      = errors.New("capture produced no image")
)

// Source provides aggregated data for a screen.
type Source interface {
	Heatmap(ctx context.Context, screen string) (Data, error)
}

// Capturer takes a PNG screenshot of the current view. Provided by the host.
type Capturer interface {
	Capture(ctx context.Context, width, height int) ([]byte, error)
}

// Renderer draws d over the PNG base and returns the composited PNG.
// Provided by the host.
type Renderer interface {
	Render(ctx context.Context, base []byte, d Data) ([]byte, error)
}

// ScreenshotUploader sends a PNG. Implemented by *syncclient.Client.
type ScreenshotUploader interface {
	UploadScreenshot(ctx context.Context, png []byte, screenName string, id session.Identity) error
}

// IdentitySource provides the identity for the upload.
type IdentitySource interface {
	Snapshot() session.Identity
}

// Snapshotter captures a view, overlays heatmap data and uploads the result
// without showing the overlay to the user.
type Snapshotter struct {
	source   Source
	capturer Capturer
	renderer Renderer
	uploader ScreenshotUploader
	identity IdentitySource
	logger   *slog.Logger
}

// SnapshotOption configures a Snapshotter.
type SnapshotOption func(*Snapshotter)

// WithRenderer sets the overlay renderer. Without one the raw capture is
// uploaded.
func WithRenderer(r Renderer) SnapshotOption {
	return func(s *Snapshotter) { s.renderer = r }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) SnapshotOption {
	return func(s *Snapshotter) { s.logger = l }
}

// NewSnapshotter wires the screenshot path.
func NewSnapshotter(src Source, c Capturer, up ScreenshotUploader, id IdentitySource, opts ...SnapshotOption) *Snapshotter {
	s := &Snapshotter{
		source:   src,
		capturer: c,
		uploader: up,
		identity: id,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CaptureHeatmapScreenshot fetches the data for screen, captures a
// width x height image, overlays the data and uploads it. A screen without
// points is skipped with ErrNoData.
func (s *Snapshotter) CaptureHeatmapScreenshot(ctx context.Context, screen string, width, height int) error {
	data, err := s.source.Heatmap(ctx, screen)
	if err != nil {
		return fmt.Errorf("fetch heatmap data: %w", err)
	}
	if len(data.points) == 0 {
		s.logger.Debug("no heatmap data available", "screen", screen)
		return ErrNoData
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrNoDimensions, width, height)
	}

	img, err := s.capturer.Capture(ctx, width, height)
	if err != nil {
		return fmt.Errorf("capture view: %w", err)
	}
	if len(img) == 0 {
		return ErrNoImage
	}

	if s.renderer != nil {
		img, err = s.renderer.Render(ctx, img, data)
		if err != nil {
			return fmt.Errorf("render overlay: %w", err)
		}
	}

	if err := s.uploader.UploadScreenshot(ctx, img, data.ScreenName(), s.identity.Snapshot()); err != nil {
		s.logger.Error("screenshot upload failed", "screen", screen, "error", err)
		return err
	}
	s.logger.Info("heatmap screenshot uploaded",
		"screen", screen,
		"points", len(data.points),
		"swipes", len(data.swipes),
	)
	return nil
}
