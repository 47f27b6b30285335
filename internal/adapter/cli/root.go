// Package cli implements the matchctl command line, which runs single
// pipeline schemas against local files.
package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/fairyhunter13/resume-matcher/internal/adapter/observability"
	"github.com/fairyhunter13/resume-matcher/internal/config"
)

var version = "dev"

type rootOptions struct {
	timeout time.Duration
	verbose bool
}

// NewRootCmd builds the matchctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "matchctl",
		Short:         "Run resume matching completions from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 3*time.Minute, "Overall deadline for a command")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log pipeline stages to stderr")

	root.AddCommand(newRunCmd(opts), newSchemasCmd(), newVersionCmd())
	return root
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// loadConfig reads the environment and routes logs to the command's stderr.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	slog.SetDefault(observability.NewCLILogger(cmd.ErrOrStderr(), o.verbose))
	return cfg, nil
}
