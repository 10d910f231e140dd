package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Vince095/HeatmapSDK/internal/event"
	"github.com/Vince095/HeatmapSDK/internal/store"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	for _, key := range []string{"HEATMAP_BASE_URL", "HEATMAP_DB_PATH", "HEATMAP_LOG_LEVEL", "HEATMAP_LOG_FORMAT", "HEATMAP_FLUSH_INTERVAL"} {
		t.Setenv(key, "")
	}

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// seedQueue creates a queue database holding events.
func seedQueue(t *testing.T, events ...event.InteractionEvent) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "heatmap.db")
	q, err := store.Open(path)
	require.NoError(t, err)
	defer q.Close()

	for _, e := range events {
		_, err := q.Append(context.Background(), e)
		require.NoError(t, err)
	}
	return path
}

func touch(screen string, x, y float64, ts int64) event.InteractionEvent {
	return event.InteractionEvent{
		Kind: event.KindTouch, X: x, Y: y, Intensity: 1, Timestamp: ts, ScreenName: screen,
	}
}

func swipeUp(screen string, ts int64) event.InteractionEvent {
	return event.InteractionEvent{
		Kind: event.KindSwipeUp, X: 100, Y: 800, EndX: event.Float(110), EndY: event.Float(200),
		Intensity: event.SwipeIntensity, Timestamp: ts, ScreenName: screen,
	}
}
