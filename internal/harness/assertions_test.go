package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vince095/HeatmapSDK/internal/heatmap"
)

type fakeSource map[string]heatmap.Data

func (f fakeSource) Heatmap(ctx context.Context, screen string) (heatmap.Data, error) {
	return f[screen], nil
}

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Seq: 1, Type: EventGesture, Screen: "Home", Gesture: &GestureTrace{Kind: "TOUCH", X: 1, Y: 2, Intensity: 1}},
		{Seq: 2, Type: EventRejected, Screen: "", Gesture: &GestureTrace{Kind: "TOUCH"}, Error: "screen name is empty"},
		{Seq: 3, Type: EventFlush},
	}
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	result := &Result{Trace: sampleTrace(), Pending: 1, Uploads: 0}
	actx := &AssertionContext{Ctx: context.Background(), Source: fakeSource{
		"Home": heatmap.NewData("Home", []heatmap.Point{{X: 1, Y: 2, Intensity: 1}}, nil),
	}}

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertPending, Count: 1},
		{Type: AssertUploadCount, Count: 0},
		{Type: AssertTraceCount, Event: EventGesture, Count: 1},
		{Type: AssertTraceContains, Event: EventGesture, Kind: "TOUCH", Screen: "Home"},
		{Type: AssertTraceContains, Event: EventRejected},
		{Type: AssertHeatmap, Screen: "Home", Points: 1},
	}, actx)
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Fail(t *testing.T) {
	result := &Result{Trace: sampleTrace()}

	tests := []struct {
		name string
		a    Assertion
		want string
	}{
		{"pending", Assertion{Type: AssertPending, Count: 3}, "Expected: 3"},
		{"trace count", Assertion{Type: AssertTraceCount, Event: EventFlush, Count: 2}, "2 flush events"},
		{"kind mismatch", Assertion{Type: AssertTraceContains, Event: EventGesture, Kind: "SCROLL"}, "not found in trace"},
		{"screen mismatch", Assertion{Type: AssertTraceContains, Event: EventGesture, Screen: "Feed"}, "not found in trace"},
		{"heatmap", Assertion{Type: AssertHeatmap, Screen: "Home", Swipes: 1}, "0 points, 0 swipes"},
	}

	actx := &AssertionContext{Ctx: context.Background(), Source: fakeSource{}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(result, []Assertion{tt.a}, actx)
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.want)
		})
	}
}

func TestEvaluateAssertions_HeatmapWithoutSource(t *testing.T) {
	errs := EvaluateAssertions(&Result{}, []Assertion{{Type: AssertHeatmap, Screen: "Home"}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "needs a data source")
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertTraceContains,
		Expected: "gesture",
		Actual:   "not found in trace",
		Trace:    sampleTrace(),
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: trace_contains")
	assert.Contains(t, msg, "[1] gesture TOUCH on Home")
	assert.Contains(t, msg, "[2] rejected TOUCH (screen name is empty)")
}
