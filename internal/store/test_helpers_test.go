package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Vince095/HeatmapSDK/internal/event"
)

// createTestQueue opens a fresh queue in a temp directory.
func createTestQueue(t *testing.T) *Queue {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	q, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { q.Close() })
	return q
}

// touchAt builds a valid TOUCH event on screen at timestamp ts.
func touchAt(screen string, ts int64) event.InteractionEvent {
	return event.InteractionEvent{
		Kind:       event.KindTouch,
		X:          10,
		Y:          20,
		Intensity:  1,
		Timestamp:  ts,
		ScreenName: screen,
	}
}

// mustAppend appends every event and returns the assigned ids.
func mustAppend(t *testing.T, q *Queue, events ...event.InteractionEvent) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(events))
	for _, e := range events {
		id, err := q.Append(context.Background(), e)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}
