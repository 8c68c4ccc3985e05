// Package commands implements the symposium command line interface.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opensymposium/opensymposium/pkg/config"
)

var (
	// Global flags
	configPath string
	logLevel   string

	// Version info propagated from main
	buildVersion string
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	buildVersion = version
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "symposium",
		Short: "OpenSymposium - Dining Philosophers Coordination Engine",
		Long: `OpenSymposium runs the dining-philosophers protocol as a client/server
system: a coordination server owns the shared table, and diner clients
drive simulated philosophers through the thinking/hungry/eating cycle
over a JSON protocol.

Features:
  - Ring of philosophers and chopsticks that grows at runtime
  - Deadlock-free dining via a counting admission gate
  - Event fan-out to log files and a SQLite journal
  - Prometheus metrics and OpenTelemetry tracing`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	// Add subcommands
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newDineCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newValidateCommand())

	return rootCmd
}

// loadConfig resolves the effective configuration: the file named by
// --config (or defaults when absent), with the --log-level override
// applied on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Telemetry.LogLevel = logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
