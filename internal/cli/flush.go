package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Vince095/HeatmapSDK/pkg/heatmap"
)

// FlushOptions holds flags for the flush command.
type FlushOptions struct {
	*RootOptions
	Database string
	BaseURL  string
	User     string
	Token    string
	Timeout  time.Duration
}

// FlushSummary is the output of the flush command.
type FlushSummary struct {
	SessionID string `json:"session_id"`
	Uploaded  int    `json:"uploaded"`
	Remaining int    `json:"remaining"`
}

func (s FlushSummary) String() string {
	return fmt.Sprintf("uploaded %d event(s), %d remaining", s.Uploaded, s.Remaining)
}

// NewFlushCommand creates the flush command.
func NewFlushCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FlushOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Upload the local queue to the ingest service",
		Long: `Upload every queued event, one batch at a time, and delete the rows the
service accepted. Events stay queued when an upload fails.

Exit codes:
  0 - Queue drained
  1 - An upload failed (events retained)
  2 - Command error (missing base URL, database not found, etc.)

Examples:
  heatmapctl flush --db ./heatmap.db --base-url https://ingest.example.com
  heatmapctl flush --user u1 --token secret --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlush(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "queue database path (default from config)")
	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "ingest service base URL (default from config)")
	cmd.Flags().StringVar(&opts.User, "user", "", "identify as this user before uploading")
	cmd.Flags().StringVar(&opts.Token, "token", "", "token sent with --user")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "overall deadline (0 = none)")

	return cmd
}

func runFlush(cmd *cobra.Command, opts *FlushOptions) error {
	cfg, logger, err := opts.load(cmd)
	if err != nil {
		return err
	}
	if opts.BaseURL != "" {
		cfg.API.BaseURL = opts.BaseURL
	}
	if err := cfg.RequireBaseURL(); err != nil {
		return WrapExitError(ExitCommandError, "no ingest service configured", err)
	}

	path := dbPath(opts.Database, cfg)
	q, err := openExisting(path)
	if err != nil {
		return err
	}
	q.Close()

	sdk, err := heatmap.New(cfg.API.BaseURL,
		heatmap.WithConfig(cfg),
		heatmap.WithDatabasePath(path),
		heatmap.WithLogger(logger),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start sdk", err)
	}
	defer sdk.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	before, err := sdk.Pending(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count events", err)
	}

	f := opts.formatter(cmd)
	summary := FlushSummary{SessionID: sdk.SessionID()}

	if opts.User != "" {
		// Identify starts a flush of its own; the loop below picks up after it.
		if err := sdk.Identify(opts.User, opts.Token); err != nil {
			return WrapExitError(ExitCommandError, "failed to identify", err)
		}
	}

	var flushErr error
	for {
		res, err := sdk.FlushWait(ctx)
		if err != nil {
			flushErr = err
			break
		}
		if res.Events == 0 {
			break
		}
		f.Debugf("batch %s: %d event(s) uploaded", res.BatchKey, res.Events)
	}

	remaining, err := sdk.Pending(context.WithoutCancel(ctx))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count events", err)
	}
	summary.Remaining = remaining
	summary.Uploaded = before - remaining

	if flushErr != nil {
		if err := f.Fail(flushErr, summary); err != nil {
			return err
		}
		return WrapExitError(ExitFailure, "upload failed", flushErr)
	}
	return f.Success(summary)
}
