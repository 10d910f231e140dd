package syncclient

import (
	"encoding/json"

	"github.com/Vince095/HeatmapSDK/internal/event"
	"github.com/Vince095/HeatmapSDK/internal/session"
	"github.com/Vince095/HeatmapSDK/internal/store"
)

// Batch is one flush snapshot: the rows to upload and the identity they are
// attributed to at the envelope level.
type Batch struct {
	// Key is derived from the row ids, so retrying the same snapshot reuses
	// the same key.
	Key      string
	Rows     []store.Row
	Identity session.Identity
}

// NewBatch builds a Batch and its idempotency key.
func NewBatch(rows []store.Row, id session.Identity) Batch {
	return Batch{
		Key:      event.BatchKey(store.IDs(rows)),
		Rows:     rows,
		Identity: id,
	}
}

// IDs returns the queue ids covered by the batch.
func (b Batch) IDs() []int64 {
	return store.IDs(b.Rows)
}

type ingestPayload struct {
	ID     *string       `json:"id"`
	Token  *string       `json:"token"`
	Events []ingestEvent `json:"events"`
}

type ingestEvent struct {
	ScreenName  string   `json:"screen_name"`
	EventType   string   `json:"event_type"`
	CoordinateX float64  `json:"coordinate_x"`
	CoordinateY float64  `json:"coordinate_y"`
	Timestamp   int64    `json:"timestamp"`
	EndX        *float64 `json:"end_x,omitempty"`
	EndY        *float64 `json:"end_y,omitempty"`
	Intensity   *float64 `json:"intensity,omitempty"`
}

// carriesEnd reports whether end coordinates and intensity go on the wire
// for kind. Horizontal swipes omit them unless explicitly enabled.
func carriesEnd(kind event.Kind, includeHorizontal bool) bool {
	switch kind {
	case event.KindScroll, event.KindSwipeUp, event.KindSwipeDown:
		return true
	case event.KindSwipeLeft, event.KindSwipeRight:
		return includeHorizontal
	}
	return false
}

// encodeBatch renders b as the ingest-events JSON body. Anonymous batches
// carry null id and token.
func encodeBatch(b Batch, includeHorizontal bool) ([]byte, error) {
	p := ingestPayload{Events: make([]ingestEvent, 0, len(b.Rows))}
	if !b.Identity.Anonymous() {
		id, token := b.Identity.UserID, b.Identity.Token
		p.ID, p.Token = &id, &token
	}

	for _, r := range b.Rows {
		ev := ingestEvent{
			ScreenName:  r.ScreenName,
			EventType:   string(r.Kind),
			CoordinateX: r.X,
			CoordinateY: r.Y,
			Timestamp:   r.Timestamp,
		}
		if carriesEnd(r.Kind, includeHorizontal) {
			intensity := r.Intensity
			ev.EndX, ev.EndY, ev.Intensity = r.EndX, r.EndY, &intensity
		}
		p.Events = append(p.Events, ev)
	}

	return json.Marshal(p)
}
