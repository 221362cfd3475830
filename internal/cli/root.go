// Package cli defines the aitracker command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hoanghai1803/aitracker/internal/config"
	"github.com/hoanghai1803/aitracker/internal/logging"
)

type rootOptions struct {
	configPath string
	dev        bool
	flushLogs  func()
}

// newRootCmd creates the root command and its subcommands.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "aitracker",
		Short: "Track news about AI in software engineering automation",
		Long: `aitracker aggregates tech news feeds, tags articles with the
technologies and job impact they mention, and runs LLM-backed research on
topics in AI for software engineering automation.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			flush, err := logging.Setup(opts.dev)
			if err != nil {
				return fmt.Errorf("setting up logging: %w", err)
			}
			opts.flushLogs = flush

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			app, err := newApp(cfg)
			if err != nil {
				return fmt.Errorf("initializing application: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, app))
			return nil
		},

		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.flushLogs != nil {
				opts.flushLogs()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.toml", "path to config file")
	cmd.PersistentFlags().BoolVar(&opts.dev, "dev", false, "use human-readable development logging")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newResearchCmd())
	cmd.AddCommand(newSourcesCmd())

	return cmd
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) {
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
