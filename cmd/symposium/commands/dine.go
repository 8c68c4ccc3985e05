package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opensymposium/opensymposium/pkg/diner"
	"github.com/opensymposium/opensymposium/pkg/telemetry"
)

func newDineCommand() *cobra.Command {
	var serverAddress string

	cmd := &cobra.Command{
		Use:   "dine",
		Short: "Run the diner console",
		Long: `Start the operator console that seats and runs simulated philosophers.

The console reads commands from stdin:
  /add N   seat N philosophers (the first add must seat at least 2)
  /quit    stop every philosopher and exit

Each seated philosopher gets its own connection and runs the
thinking/hungry/eating cycle against the server until the console exits.`,
		Example: `  # Connect to the configured server
  symposium dine

  # Connect to a specific server
  symposium dine --server 192.168.1.10:9002`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if serverAddress != "" {
				cfg.Diner.ServerAddress = serverAddress
			}

			logger, err := telemetry.NewLogger(cfg.ToTelemetryConfig(buildVersion, "production").Logging)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}

			console, err := diner.NewConsole(diner.Config{
				ServerAddress:   cfg.Diner.ServerAddress,
				DialAttempts:    cfg.Diner.DialAttempts,
				DialBackoff:     cfg.Diner.DialBackoff(),
				MinStateSeconds: cfg.Diner.MinStateSeconds,
				MaxStateSeconds: cfg.Diner.MaxStateSeconds,
			}, cfg.Table.MaxPhilosophers, logger, os.Stdin, os.Stdout)
			if err != nil {
				return fmt.Errorf("failed to create console: %w", err)
			}

			return console.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&serverAddress, "server", "s", "", "coordination server address (overrides config)")

	return cmd
}
