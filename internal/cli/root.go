// Package cli implements the contentfilter command line: the HTTP server,
// migrations, offline filtering and smiley pack management.
package cli

import (
	"github.com/deppfellow/contentfilter/internal/config"
	"github.com/deppfellow/contentfilter/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command for the contentfilter CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "contentfilter",
		Short: "CMS text filtering service",
		Long: `Sanitizes, validates and renders user-submitted CMS text.

Runs the HTTP API, applies database migrations, filters text from stdin
without any backing service, and manages smiley packs.`,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewFilterCommand(opts))
	cmd.AddCommand(NewSmileysCommand(opts))

	return cmd
}

// loadConfig loads the full configuration, raising the log level when
// --verbose is set.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		cfg.Observability.Logging.Level = "debug"
	}
	return cfg, nil
}

// cliLogger is the stderr logger used by one-shot commands.
func cliLogger(opts *RootOptions, obs *config.ObservabilityConfig) zerolog.Logger {
	if obs == nil {
		obs = config.DefaultObservabilityConfig()
		obs.Logging.Level = "warn"
	}
	if opts.Verbose {
		obs.Logging.Level = "debug"
	}
	return logger.NewCLILogger(obs)
}
