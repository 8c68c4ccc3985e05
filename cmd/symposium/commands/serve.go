package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/opensymposium/opensymposium/pkg/journal"
	"github.com/opensymposium/opensymposium/pkg/server"
	"github.com/opensymposium/opensymposium/pkg/table"
	"github.com/opensymposium/opensymposium/pkg/telemetry"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the coordination server",
		Long: `Start the coordination server that owns the shared table.

The server listens for diner connections, seats philosophers on CREATE
requests and applies state transitions on UPDATE requests. Observability
events fan out to per-philosopher log files, the global server log and,
when configured, a SQLite journal. Prometheus metrics are served on their
own endpoint.

The server runs until interrupted, then drains open sessions within the
configured grace period.`,
		Example: `  # Run with defaults (listens on 127.0.0.1:9002)
  symposium serve

  # Run with a config file
  symposium serve --config symposium.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	return cmd
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	tel, err := telemetry.NewTelemetry(cfg.ToTelemetryConfig(buildVersion, "production"))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	// Per-philosopher log files and the global server log.
	if cfg.Server.LogDir != "" {
		sink, err := telemetry.NewFileSink(cfg.Server.LogDir)
		if err != nil {
			return fmt.Errorf("failed to open log sink: %w", err)
		}
		defer func() { _ = sink.Close() }()
		tel.Events.Subscribe(sink.HandleEvent, nil)
	}

	// Durable event journal.
	if cfg.Telemetry.JournalPath != "" {
		jrnl, err := journal.New(journal.Config{Path: cfg.Telemetry.JournalPath})
		if err != nil {
			return fmt.Errorf("failed to create journal: %w", err)
		}
		if err := jrnl.Init(ctx); err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer func() { _ = jrnl.Close() }()
		if err := jrnl.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate journal: %w", err)
		}
		tel.Events.Subscribe(jrnl.HandleEvent, nil)
	}

	tbl, err := table.New(cfg.Table.MaxPhilosophers, tel)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	defer func() { _ = tbl.Close() }()

	srv, err := server.New(server.Config{
		ListenAddress: cfg.Server.ListenAddress,
		ShutdownGrace: cfg.Server.ShutdownGrace(),
	}, tbl, tel)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if err := srv.Start(ctx); err != nil {
		return err
	}

	if cfg.Telemetry.Metrics.Enabled {
		if err := tel.StartMetricsServer(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	log.Info().
		Str("listen_address", cfg.Server.ListenAddress).
		Int("capacity", cfg.Table.MaxPhilosophers).
		Msg("Symposium server running")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Server shutdown incomplete")
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Telemetry shutdown incomplete")
	}

	return nil
}
