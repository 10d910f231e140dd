package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Vince095/HeatmapSDK/internal/harness"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
}

// ReplayResult is the output of the replay command.
type ReplayResult struct {
	Name    string               `json:"name"`
	Pass    bool                 `json:"pass"`
	Trace   []harness.TraceEvent `json:"trace"`
	Pending int                  `json:"pending"`
	Uploads int                  `json:"uploads"`
	Errors  []string             `json:"errors,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <script.yaml>",
		Short: "Replay a pointer script through the capture pipeline",
		Long: `Run one scripted pointer session through classification, recording and
flushing against an in-memory queue, and print the resulting trace.

Exit codes:
  0 - Script ran and its assertions held
  1 - One or more assertions failed
  2 - Command error (script not found or invalid)

Examples:
  heatmapctl replay ./scripts/tap_then_identify.yaml
  heatmapctl replay ./scripts/swipe_retry.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, opts, args[0])
		},
	}

	return cmd
}

func runReplay(cmd *cobra.Command, opts *ReplayOptions, path string) error {
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load script", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var runOpts []harness.Option
	if opts.Verbose {
		_, logger, err := opts.load(cmd)
		if err != nil {
			return err
		}
		runOpts = append(runOpts, harness.WithLogger(logger))
	}

	result, err := harness.Run(ctx, scenario, runOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run script", err)
	}

	out := ReplayResult{
		Name:    scenario.Name,
		Pass:    result.Pass,
		Trace:   result.Trace,
		Pending: result.Pending,
		Uploads: result.Uploads,
		Errors:  result.Errors,
	}

	f := opts.formatter(cmd)
	if f.JSON() {
		if err := f.Success(out); err != nil {
			return err
		}
	} else {
		writeTrace(cmd.OutOrStdout(), out)
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("%d assertion(s) failed", len(result.Errors)))
	}
	return nil
}

func writeTrace(w io.Writer, r ReplayResult) {
	fmt.Fprintf(w, "%s\n", r.Name)
	for _, ev := range r.Trace {
		fmt.Fprintf(w, "  [%d] %-8s", ev.Seq, ev.Type)
		if g := ev.Gesture; g != nil {
			fmt.Fprintf(w, " %s (%g, %g)", g.Kind, g.X, g.Y)
			if g.EndX != nil && g.EndY != nil {
				fmt.Fprintf(w, " -> (%g, %g)", *g.EndX, *g.EndY)
			}
		}
		if ev.Screen != "" {
			fmt.Fprintf(w, " on %q", ev.Screen)
		}
		if ev.UserID != "" {
			fmt.Fprintf(w, " user=%s", ev.UserID)
		}
		if len(ev.Rows) > 0 {
			fmt.Fprintf(w, " rows=%d", len(ev.Rows))
		}
		if ev.Events > 0 {
			fmt.Fprintf(w, " events=%d deleted=%d", ev.Events, ev.Deleted)
		}
		if ev.Error != "" {
			fmt.Fprintf(w, " error=%q", ev.Error)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "pending=%d uploads=%d\n", r.Pending, r.Uploads)
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}
