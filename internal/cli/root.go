package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Vince095/HeatmapSDK/internal/config"
	"github.com/Vince095/HeatmapSDK/internal/logging"
	"github.com/Vince095/HeatmapSDK/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // optional YAML config file
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for heatmapctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "heatmapctl",
		Short: "heatmapctl - inspect and drive the interaction telemetry queue",
		Long: `heatmapctl works with the local event queue written by the heatmap SDK.

It lists pending events, builds heatmap data for a screen, uploads the
queue or a screenshot to the ingest service, and runs scripted pointer
sessions through the capture pipeline.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to YAML config file")

	cmd.AddCommand(NewQueueCommand(opts))
	cmd.AddCommand(NewHeatmapCommand(opts))
	cmd.AddCommand(NewFlushCommand(opts))
	cmd.AddCommand(NewScreenshotCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// load reads the config file and environment and builds the logger.
// Logs go to the command's stderr so JSON output stays clean.
func (o *RootOptions) load(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.Config)
	if err != nil {
		return cfg, nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	logger, err := logging.FromConfig(cfg.Logging, cmd.ErrOrStderr(), o.Verbose)
	if err != nil {
		return cfg, nil, WrapExitError(ExitCommandError, "failed to configure logging", err)
	}
	return cfg, logger, nil
}

// formatter returns an OutputFormatter bound to cmd's writers.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:  o.Format,
		Writer:  cmd.OutOrStdout(),
		Diag:    cmd.ErrOrStderr(),
		Verbose: o.Verbose,
	}
}

// dbPath picks the flag value, falling back to the configured path.
func dbPath(flag string, cfg config.Config) string {
	if flag != "" {
		return flag
	}
	return cfg.Store.Path
}

// openExisting opens a queue database that must already exist.
func openExisting(path string) (*store.Queue, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
	}
	q, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return q, nil
}
