package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Vince095/HeatmapSDK/internal/event"
)

// deleteChunk bounds the number of bound parameters per DELETE statement,
// keeping well below SQLite's SQLITE_MAX_VARIABLE_NUMBER.
const deleteChunk = 500

// Append validates e and persists it, returning the assigned row id.
// An invalid event is rejected and nothing is written.
func (q *Queue) Append(ctx context.Context, e event.InteractionEvent) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}

	res, err := q.db.ExecContext(ctx, `
		INSERT INTO events (timestamp, eventType, x, y, endX, endY, intensity, screenName, userId)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.Timestamp,
		string(e.Kind),
		e.X,
		e.Y,
		nullFloat(e.EndX),
		nullFloat(e.EndY),
		e.Intensity,
		e.ScreenName,
		nullString(e.UserID),
	)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert event: last id: %w", err)
	}
	return id, nil
}

// DeleteBatch removes the rows with the given ids and returns how many were
// actually deleted. Ids that no longer exist are ignored, so replaying a
// delete is harmless. All chunks commit together or not at all.
func (q *Queue) DeleteBatch(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("delete batch: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var deleted int64
	for start := 0; start < len(ids); start += deleteChunk {
		end := min(start+deleteChunk, len(ids))
		chunk := ids[start:end]

		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		query := "DELETE FROM events WHERE id IN (" + placeholders(len(chunk)) + ")"

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("delete batch: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("delete batch: rows affected: %w", err)
		}
		deleted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("delete batch: commit: %w", err)
	}
	return deleted, nil
}

// TrimOldest deletes the oldest rows until at most keep remain, returning the
// number removed. A keep of zero or less disables trimming.
func (q *Queue) TrimOldest(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM events WHERE id IN (
			SELECT id FROM events
			ORDER BY timestamp DESC, id DESC
			LIMIT -1 OFFSET ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("trim events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("trim events: rows affected: %w", err)
	}
	return n, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
