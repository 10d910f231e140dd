package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Vince095/HeatmapSDK/internal/event"
	"github.com/Vince095/HeatmapSDK/internal/heatmap"
)

// HeatmapOptions holds flags for the heatmap command.
type HeatmapOptions struct {
	*RootOptions
	Database string
}

// NewHeatmapCommand creates the heatmap command.
func NewHeatmapCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HeatmapOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "heatmap <screen>",
		Short: "Build heatmap data for a screen from the local queue",
		Long: `Aggregate the queued events of one screen into heatmap points and
swipe segments.

Examples:
  heatmapctl heatmap Home --db ./heatmap.db
  heatmapctl heatmap Home --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeatmap(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "queue database path (default from config)")

	return cmd
}

func runHeatmap(cmd *cobra.Command, opts *HeatmapOptions, screen string) error {
	name := event.NormalizeScreenName(screen)
	if name == "" {
		return NewExitError(ExitCommandError, "screen name is empty")
	}

	cfg, _, err := opts.load(cmd)
	if err != nil {
		return err
	}

	q, err := openExisting(dbPath(opts.Database, cfg))
	if err != nil {
		return err
	}
	defer q.Close()

	rows, err := q.ReadScreen(context.Background(), name)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}
	data := heatmap.Build(name, rows)

	f := opts.formatter(cmd)
	if f.JSON() {
		return f.Success(data)
	}

	w := cmd.OutOrStdout()
	points, swipes := data.Points(), data.Swipes()
	fmt.Fprintf(w, "%s: %d point(s), %d swipe(s)\n", data.ScreenName(), len(points), len(swipes))
	for _, p := range points {
		fmt.Fprintf(w, "  point (%g, %g) i=%g\n", p.X, p.Y, p.Intensity)
	}
	for _, s := range swipes {
		fmt.Fprintf(w, "  swipe (%g, %g) -> (%g, %g) i=%g\n", s.StartX, s.StartY, s.EndX, s.EndY, s.Intensity)
	}
	return nil
}
