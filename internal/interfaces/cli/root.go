// Package cli implements the dealflow command-line interface: `serve` runs
// the API server, `agenda` prints the triaged task list for a seller.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vperelman/dealflow/internal/config"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// NewRootCommand assembles the root command with global flags and the
// subcommand tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	root := &cobra.Command{
		Use:   "dealflow",
		Short: "dealflow tracks a sales pipeline of deals, follow-ups and reminders",
		Long: "dealflow is a sales pipeline tracker. Deals move through a fixed\n" +
			"status lifecycle, follow-up contacts are logged against them, and a\n" +
			"daily agenda triages what is overdue, due today and upcoming.",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "",
		"path to the configuration file")
	root.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "",
		"override the configured log level (debug|info|warn|error)")

	root.AddCommand(newServeCommand(opts))
	root.AddCommand(newAgendaCommand(opts))
	return root
}

// loadConfig resolves the effective configuration for a subcommand run.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	return cfg, nil
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
