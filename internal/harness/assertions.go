package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/Vince095/HeatmapSDK/internal/heatmap"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s", ev.Seq, ev.Type)
			if ev.Gesture != nil {
				fmt.Fprintf(&buf, " %s", ev.Gesture.Kind)
			}
			if ev.Screen != "" {
				fmt.Fprintf(&buf, " on %s", ev.Screen)
			}
			if ev.Error != "" {
				fmt.Fprintf(&buf, " (%s)", ev.Error)
			}
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

// AssertionContext provides what state assertions need.
type AssertionContext struct {
	Ctx    context.Context
	Source heatmap.Source
}

// EvaluateAssertions checks every assertion and returns the failure
// messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %s", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertPending:
		return expectCount(a.Type, a.Count, result.Pending, nil)
	case AssertUploadCount:
		return expectCount(a.Type, a.Count, result.Uploads, result.Trace)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertHeatmap:
		return assertHeatmap(actx, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func expectCount(typ string, want, got int, trace []TraceEvent) error {
	if want == got {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Expected: fmt.Sprintf("%d", want),
		Actual:   fmt.Sprintf("%d", got),
		Trace:    trace,
	}
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	n := 0
	for _, ev := range trace {
		if ev.Type == a.Event {
			n++
		}
	}
	if n == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%d %s events", a.Count, a.Event),
		Actual:   fmt.Sprintf("%d", n),
		Trace:    trace,
	}
}

// assertTraceContains matches on event type, and on kind and screen when
// they are set.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if matches(ev, a) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("%s event (kind=%q screen=%q)", a.Event, a.Kind, a.Screen),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

func matches(ev TraceEvent, a Assertion) bool {
	if ev.Type != a.Event {
		return false
	}
	if a.Kind != "" && (ev.Gesture == nil || ev.Gesture.Kind != a.Kind) {
		return false
	}
	if a.Screen != "" && ev.Screen != a.Screen {
		return false
	}
	return true
}

func assertHeatmap(actx *AssertionContext, a Assertion) error {
	if actx == nil || actx.Source == nil {
		return fmt.Errorf("heatmap assertion needs a data source")
	}
	d, err := actx.Source.Heatmap(actx.Ctx, a.Screen)
	if err != nil {
		return fmt.Errorf("heatmap for %q: %w", a.Screen, err)
	}
	points, swipes := len(d.Points()), len(d.Swipes())
	if points == a.Points && swipes == a.Swipes {
		return nil
	}
	return &AssertionError{
		Type:     AssertHeatmap,
		Expected: fmt.Sprintf("%s: %d points, %d swipes", a.Screen, a.Points, a.Swipes),
		Actual:   fmt.Sprintf("%d points, %d swipes", points, swipes),
	}
}
