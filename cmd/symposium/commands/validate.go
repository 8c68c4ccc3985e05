package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/opensymposium/opensymposium/pkg/config"
)

func newValidateCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Long: `Load and validate the configuration file.

With --watch, keep running and re-validate whenever the file changes,
logging each result. This is useful while editing a config that a running
server also watches.`,
		Example: `  # One-shot check
  symposium validate --config symposium.yaml

  # Keep validating on change
  symposium validate --config symposium.yaml --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fmt.Printf("Configuration valid: table capacity %d, server %s\n",
				cfg.Table.MaxPhilosophers, cfg.Server.ListenAddress)

			if !watch {
				return nil
			}
			if configPath == "" {
				return fmt.Errorf("--watch requires --config")
			}

			watcher, err := config.NewWatcher(configPath, log.Logger)
			if err != nil {
				return fmt.Errorf("failed to watch config: %w", err)
			}
			defer func() { _ = watcher.Close() }()

			// The watcher only delivers configs that already loaded and
			// validated; failures are logged by the watcher itself.
			watcher.Watch(cmd.Context(), func(reloaded *config.Config) {
				log.Info().
					Int("capacity", reloaded.Table.MaxPhilosophers).
					Str("listen_address", reloaded.Server.ListenAddress).
					Msg("Configuration reloaded and valid")
			})

			<-cmd.Context().Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "re-validate whenever the file changes")

	return cmd
}
