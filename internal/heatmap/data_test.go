package heatmap

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vince095/HeatmapSDK/internal/event"
	"github.com/Vince095/HeatmapSDK/internal/store"
)

func row(kind event.Kind, x, y float64, end ...float64) store.Row {
	r := store.Row{InteractionEvent: event.InteractionEvent{
		Kind: kind, X: x, Y: y, Intensity: 1, Timestamp: 1, ScreenName: "Home",
	}}
	if len(end) == 2 {
		r.EndX, r.EndY = event.Float(end[0]), event.Float(end[1])
		r.Intensity = event.SwipeIntensity
	}
	return r
}

func TestBuild_SplitsPointsAndSwipes(t *testing.T) {
	rows := []store.Row{
		row(event.KindTouch, 1, 2),
		row(event.KindSwipeUp, 10, 500, 12, 100),
		row(event.KindScroll, 5, 5, 5, 50),
		row(event.KindSwipeRight, 0, 0, 300, 10),
	}

	d := Build("Home", rows)

	assert.Equal(t, "Home", d.ScreenName())
	assert.Equal(t, []Point{
		{X: 1, Y: 2, Intensity: 1},
		{X: 5, Y: 5, Intensity: 0.8},
	}, d.Points())
	assert.Equal(t, []Swipe{
		{StartX: 10, StartY: 500, EndX: 12, EndY: 100, Intensity: 0.8},
		{StartX: 0, StartY: 0, EndX: 300, EndY: 10, Intensity: 0.8},
	}, d.Swipes())
	assert.False(t, d.Empty())
}

func TestBuild_Empty(t *testing.T) {
	d := Build("Nowhere", nil)

	assert.True(t, d.Empty())
	assert.NotNil(t, d.Points())
	assert.NotNil(t, d.Swipes())
}

func TestData_Immutable(t *testing.T) {
	points := []Point{{X: 1, Y: 1, Intensity: 1}}
	d := NewData("Home", points, nil)

	points[0].X = 99
	got := d.Points()
	got[0].Y = 42

	assert.Equal(t, []Point{{X: 1, Y: 1, Intensity: 1}}, d.Points())
}

func TestData_JSON(t *testing.T) {
	d := NewData("Home", []Point{{X: 1, Y: 2, Intensity: 0.5}}, nil)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"screen_name":"Home","points":[{"x":1,"y":2,"intensity":0.5}],"swipes":[]}`, string(b))

	var back Data
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, d.Points(), back.Points())
	assert.Equal(t, "Home", back.ScreenName())
}
