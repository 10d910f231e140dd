package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Vince095/HeatmapSDK/internal/event"
	"github.com/Vince095/HeatmapSDK/internal/store"
)

// QueueOptions holds flags for the queue command.
type QueueOptions struct {
	*RootOptions
	Database string
	Screen   string
	Limit    int
}

// QueueRow is one pending event.
type QueueRow struct {
	ID        int64    `json:"id"`
	Kind      string   `json:"kind"`
	Screen    string   `json:"screen_name"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	EndX      *float64 `json:"end_x,omitempty"`
	EndY      *float64 `json:"end_y,omitempty"`
	Intensity float64  `json:"intensity"`
	Timestamp int64    `json:"timestamp"`
	UserID    *string  `json:"user_id"`
}

// QueueResult is the output of the queue command.
type QueueResult struct {
	Pending int        `json:"pending"`
	Events  []QueueRow `json:"events"`
}

// NewQueueCommand creates the queue command.
func NewQueueCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueueOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List events waiting for upload",
		Long: `List events in the local queue, oldest first.

Exit codes:
  0 - Success
  2 - Command error (database not found, etc.)

Examples:
  heatmapctl queue --db ./heatmap.db
  heatmapctl queue --db ./heatmap.db --screen Home
  heatmapctl queue --limit 20 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueue(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "queue database path (default from config)")
	cmd.Flags().StringVar(&opts.Screen, "screen", "", "only events for this screen")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum events to list (0 = all)")

	return cmd
}

func runQueue(cmd *cobra.Command, opts *QueueOptions) error {
	cfg, _, err := opts.load(cmd)
	if err != nil {
		return err
	}

	q, err := openExisting(dbPath(opts.Database, cfg))
	if err != nil {
		return err
	}
	defer q.Close()

	ctx := context.Background()
	pending, err := q.Count(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count events", err)
	}

	var rows []store.Row
	if opts.Screen != "" {
		rows, err = q.ReadScreen(ctx, event.NormalizeScreenName(opts.Screen))
		if err == nil && opts.Limit > 0 && len(rows) > opts.Limit {
			rows = rows[:opts.Limit]
		}
	} else {
		rows, err = q.ReadOldest(ctx, opts.Limit)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	result := QueueResult{Pending: pending, Events: make([]QueueRow, len(rows))}
	for i, r := range rows {
		result.Events[i] = QueueRow{
			ID:        r.ID,
			Kind:      string(r.Kind),
			Screen:    r.ScreenName,
			X:         r.X,
			Y:         r.Y,
			EndX:      r.EndX,
			EndY:      r.EndY,
			Intensity: r.Intensity,
			Timestamp: r.Timestamp,
			UserID:    r.UserID,
		}
	}

	f := opts.formatter(cmd)
	if f.JSON() {
		return f.Success(result)
	}
	return outputQueueText(cmd, result)
}

func outputQueueText(cmd *cobra.Command, result QueueResult) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%d event(s) pending\n", result.Pending)
	for _, r := range result.Events {
		fmt.Fprintf(w, "  #%d %d %-11s %-12s (%g, %g)", r.ID, r.Timestamp, r.Kind, r.Screen, r.X, r.Y)
		if r.EndX != nil && r.EndY != nil {
			fmt.Fprintf(w, " -> (%g, %g)", *r.EndX, *r.EndY)
		}
		fmt.Fprintf(w, " i=%g", r.Intensity)
		if r.UserID != nil {
			fmt.Fprintf(w, " user=%s", *r.UserID)
		}
		fmt.Fprintln(w)
	}
	return nil
}
