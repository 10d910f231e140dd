package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Vince095/HeatmapSDK/internal/event"
)

// Row is a persisted event together with its queue id.
type Row struct {
	ID int64 `json:"id"`
	event.InteractionEvent
}

const selectColumns = `
	SELECT id, timestamp, eventType, x, y, endX, endY, intensity, screenName, userId
	FROM events
`

// ReadAll returns every pending row in insertion order. The result is never
// nil; an empty queue yields an empty slice.
func (q *Queue) ReadAll(ctx context.Context) ([]Row, error) {
	return q.query(ctx, selectColumns+"ORDER BY timestamp ASC, id ASC")
}

// ReadOldest returns at most limit rows from the head of the queue. A limit
// of zero or less reads everything.
func (q *Queue) ReadOldest(ctx context.Context, limit int) ([]Row, error) {
	if limit <= 0 {
		return q.ReadAll(ctx)
	}
	return q.query(ctx, selectColumns+"ORDER BY timestamp ASC, id ASC LIMIT ?", limit)
}

// ReadScreen returns the pending rows recorded on one screen, in insertion
// order.
func (q *Queue) ReadScreen(ctx context.Context, screen string) ([]Row, error) {
	return q.query(ctx, selectColumns+"WHERE screenName = ? ORDER BY timestamp ASC, id ASC", screen)
}

// Count returns the number of pending rows.
func (q *Queue) Count(ctx context.Context) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

func (q *Queue) query(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	result := []Row{}
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return result, nil
}

func scanRow(rows *sql.Rows) (Row, error) {
	var (
		r          Row
		kind       string
		endX, endY sql.NullFloat64
		userID     sql.NullString
	)
	err := rows.Scan(
		&r.ID,
		&r.Timestamp,
		&kind,
		&r.X,
		&r.Y,
		&endX,
		&endY,
		&r.Intensity,
		&r.ScreenName,
		&userID,
	)
	if err != nil {
		return Row{}, fmt.Errorf("scan event: %w", err)
	}
	r.Kind = event.Kind(kind)
	if endX.Valid {
		r.EndX = event.Float(endX.Float64)
	}
	if endY.Valid {
		r.EndY = event.Float(endY.Float64)
	}
	if userID.Valid {
		s := userID.String
		r.UserID = &s
	}
	return r, nil
}

// IDs returns the queue ids of rows in order.
func IDs(rows []Row) []int64 {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}
