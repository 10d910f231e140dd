package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Vince095/HeatmapSDK/internal/session"
	"github.com/Vince095/HeatmapSDK/internal/syncclient"
)

// ScreenshotOptions holds flags for the screenshot command.
type ScreenshotOptions struct {
	*RootOptions
	BaseURL string
	Screen  string
	User    string
	Token   string
}

// NewScreenshotCommand creates the screenshot command.
func NewScreenshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScreenshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "screenshot <file.png>",
		Short: "Upload a PNG screenshot for a screen",
		Long: `Upload a PNG to the ingest service as a multipart form. A user and
token are required.

Exit codes:
  0 - Uploaded
  1 - Upload failed
  2 - Command error (missing identity, unreadable file, etc.)

Examples:
  heatmapctl screenshot home.png --screen Home --user u1 --token secret`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScreenshot(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "ingest service base URL (default from config)")
	cmd.Flags().StringVar(&opts.Screen, "screen", "", "screen name the screenshot belongs to")
	cmd.Flags().StringVar(&opts.User, "user", "", "user id")
	cmd.Flags().StringVar(&opts.Token, "token", "", "user token")

	return cmd
}

func runScreenshot(cmd *cobra.Command, opts *ScreenshotOptions, file string) error {
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

	png, err := os.ReadFile(file)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read screenshot", err)
	}

	clientOpts := []syncclient.Option{
		syncclient.WithTimeout(cfg.API.Timeout),
		syncclient.WithLogger(logger),
	}
	if cfg.API.UserAgent != "" {
		clientOpts = append(clientOpts, syncclient.WithUserAgent(cfg.API.UserAgent))
	}
	client := syncclient.New(cfg.API.BaseURL, clientOpts...)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	id := session.Identity{UserID: opts.User, Token: opts.Token}
	err = client.UploadScreenshot(ctx, png, opts.Screen, id)
	switch {
	case errors.Is(err, syncclient.ErrNoIdentity):
		return NewExitError(ExitCommandError, "--user and --token are required")
	case syncclient.IsEncode(err):
		return WrapExitError(ExitCommandError, "invalid screenshot request", err)
	case err != nil:
		f := opts.formatter(cmd)
		if ferr := f.Fail(err, nil); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitFailure, "upload failed", err)
	}

	return opts.formatter(cmd).Success(fmt.Sprintf("uploaded %s (%d bytes) for %s", file, len(png), opts.Screen))
}
