// Package heatmap aggregates queued interactions into overlay data and
// drives the capture-overlay-upload screenshot path.
package heatmap

import (
	"encoding/json"

	"github.com/Vince095/HeatmapSDK/internal/store"
)

// Point is a single tap or scroll origin.
type Point struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Intensity float64 `json:"intensity"`
}

// Swipe is a directional swipe from start to end.
type Swipe struct {
	StartX    float64 `json:"start_x"`
	StartY    float64 `json:"start_y"`
	EndX      float64 `json:"end_x"`
	EndY      float64 `json:"end_y"`
	Intensity float64 `json:"intensity"`
}

// Data is the overlay input for one screen. It is immutable: accessors
// return copies.
type Data struct {
	screen string
	points []Point
	swipes []Swipe
}

// NewData copies points and swipes into a new Data.
func NewData(screen string, points []Point, swipes []Swipe) Data {
	return Data{
		screen: screen,
		points: append([]Point{}, points...),
		swipes: append([]Swipe{}, swipes...),
	}
}

// Build aggregates rows of one screen. Swipe kinds become swipes; every other
// kind contributes its origin as a point. Input order is preserved.
func Build(screen string, rows []store.Row) Data {
	d := Data{screen: screen, points: []Point{}, swipes: []Swipe{}}
	for _, r := range rows {
		if r.Kind.IsSwipe() && r.EndX != nil && r.EndY != nil {
			d.swipes = append(d.swipes, Swipe{
				StartX:    r.X,
				StartY:    r.Y,
				EndX:      *r.EndX,
				EndY:      *r.EndY,
				Intensity: r.Intensity,
			})
			continue
		}
		d.points = append(d.points, Point{X: r.X, Y: r.Y, Intensity: r.Intensity})
	}
	return d
}

// ScreenName returns the screen the data was built for.
func (d Data) ScreenName() string { return d.screen }

// Points returns a copy of the point samples.
func (d Data) Points() []Point { return append([]Point{}, d.points...) }

// Swipes returns a copy of the swipe samples.
func (d Data) Swipes() []Swipe { return append([]Swipe{}, d.swipes...) }

// Empty reports whether there is nothing to draw.
func (d Data) Empty() bool { return len(d.points) == 0 && len(d.swipes) == 0 }

type dataJSON struct {
	ScreenName string  `json:"screen_name"`
	Points     []Point `json:"points"`
	Swipes     []Swipe `json:"swipes"`
}

// MarshalJSON implements json.Marshaler.
func (d Data) MarshalJSON() ([]byte, error) {
	return json.Marshal(dataJSON{
		ScreenName: d.screen,
		Points:     nonNil(d.points),
		Swipes:     nonNil(d.swipes),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Data) UnmarshalJSON(b []byte) error {
	var raw dataJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*d = NewData(raw.ScreenName, raw.Points, raw.Swipes)
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
