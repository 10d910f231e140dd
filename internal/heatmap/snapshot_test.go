package heatmap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vince095/HeatmapSDK/internal/session"
)

type fakeSource struct {
	data Data
	err  error
}

func (f fakeSource) Heatmap(ctx context.Context, screen string) (Data, error) {
	return f.data, f.err
}

type fakeCapturer struct {
	calls int
	w, h  int
	img   []byte
}

func (f *fakeCapturer) Capture(ctx context.Context, w, h int) ([]byte, error) {
	f.calls++
	f.w, f.h = w, h
	return f.img, nil
}

type overlayRenderer struct{ seen Data }

func (r *overlayRenderer) Render(ctx context.Context, base []byte, d Data) ([]byte, error) {
	r.seen = d
	return append(append([]byte{}, base...), []byte("+overlay")...), nil
}

type fakeUploader struct {
	calls  int
	png    []byte
	screen string
	id     session.Identity
	err    error
}

func (f *fakeUploader) UploadScreenshot(ctx context.Context, png []byte, screen string, id session.Identity) error {
	f.calls++
	f.png, f.screen, f.id = png, screen, id
	return f.err
}

func identified() *session.State {
	s := session.New()
	s.Identify("u1", "t1")
	return s
}

func homeData() Data {
	return NewData("Home", []Point{{X: 1, Y: 2, Intensity: 1}}, nil)
}

func TestCaptureHeatmapScreenshot_CapturesOverlaysUploads(t *testing.T) {
	capt := &fakeCapturer{img: []byte("png")}
	rend := &overlayRenderer{}
	up := &fakeUploader{}
	s := NewSnapshotter(fakeSource{data: homeData()}, capt, up, identified(), WithRenderer(rend))

	require.NoError(t, s.CaptureHeatmapScreenshot(context.Background(), "Home", 1080, 1920))

	assert.Equal(t, 1080, capt.w)
	assert.Equal(t, 1920, capt.h)
	assert.Equal(t, "Home", rend.seen.ScreenName())
	assert.Equal(t, []byte("png+overlay"), up.png)
	assert.Equal(t, "Home", up.screen)
	assert.Equal(t, session.Identity{UserID: "u1", Token: "t1"}, up.id)
}

func TestCaptureHeatmapScreenshot_NoPointsSkips(t *testing.T) {
	capt := &fakeCapturer{img: []byte("png")}
	up := &fakeUploader{}
	swipesOnly := NewData("Home", nil, []Swipe{{EndX: 1}})
	s := NewSnapshotter(fakeSource{data: swipesOnly}, capt, up, identified())

	err := s.CaptureHeatmapScreenshot(context.Background(), "Home", 10, 10)

	assert.ErrorIs(t, err, ErrNoData)
	assert.Zero(t, capt.calls)
	assert.Zero(t, up.calls)
}

func TestCaptureHeatmapScreenshot_ZeroDimensions(t *testing.T) {
	capt := &fakeCapturer{img: []byte("png")}
	s := NewSnapshotter(fakeSource{data: homeData()}, capt, &fakeUploader{}, identified())

	err := s.CaptureHeatmapScreenshot(context.Background(), "Home", 0, 100)

	assert.ErrorIs(t, err, ErrNoDimensions)
	assert.Zero(t, capt.calls)
}

func TestCaptureHeatmapScreenshot_EmptyCapture(t *testing.T) {
	up := &fakeUploader{}
	s := NewSnapshotter(fakeSource{data: homeData()}, &fakeCapturer{}, up, identified())

	err := s.CaptureHeatmapScreenshot(context.Background(), "Home", 10, 10)

	assert.ErrorIs(t, err, ErrNoImage)
	assert.Zero(t, up.calls)
}

func TestCaptureHeatmapScreenshot_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")

	s := NewSnapshotter(fakeSource{err: boom}, &fakeCapturer{}, &fakeUploader{}, identified())
	assert.ErrorIs(t, s.CaptureHeatmapScreenshot(context.Background(), "Home", 1, 1), boom)

	up := &fakeUploader{err: boom}
	s = NewSnapshotter(fakeSource{data: homeData()}, &fakeCapturer{img: []byte("x")}, up, identified())
	assert.ErrorIs(t, s.CaptureHeatmapScreenshot(context.Background(), "Home", 1, 1), boom)
	assert.Equal(t, []byte("x"), up.png, "raw capture uploaded without a renderer")
}
