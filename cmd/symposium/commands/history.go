package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/opensymposium/opensymposium/pkg/journal"
)

func newHistoryCommand() *cobra.Command {
	var (
		journalPath   string
		scope         string
		philosopherID int
		eventType     string
		level         string
		since         time.Duration
		limit         int
		offset        int
		jsonOutput    bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query the event journal",
		Long: `List persisted observability events from the SQLite journal.

Events are returned newest first. Filters narrow the result; pagination
uses --limit and --offset.`,
		Example: `  # Last 100 events
  symposium history --journal events.db

  # One philosopher's stream
  symposium history --journal events.db --philosopher 3

  # Chopstick contention in the last hour
  symposium history --journal events.db --type chopstick.waiting --since 1h

  # Machine-readable output
  symposium history --journal events.db --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			path := journalPath
			if path == "" {
				cfg, err := loadConfig()
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				path = cfg.Telemetry.JournalPath
			}
			if path == "" {
				return fmt.Errorf("no journal configured; pass --journal or set telemetry.journal_path")
			}

			jrnl, err := journal.New(journal.Config{Path: path})
			if err != nil {
				return err
			}
			if err := jrnl.Init(ctx); err != nil {
				return fmt.Errorf("failed to open journal: %w", err)
			}
			defer func() { _ = jrnl.Close() }()

			filter := journal.Filter{
				Scope:         scope,
				PhilosopherID: philosopherID,
				Type:          eventType,
				Level:         level,
				Limit:         limit,
				Offset:        offset,
			}
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}

			records, err := jrnl.ListEvents(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list events: %w", err)
			}
			total, err := jrnl.CountEvents(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to count events: %w", err)
			}

			if jsonOutput {
				out := struct {
					Total  int64             `json:"total"`
					Events []*journal.Record `json:"events"`
				}{Total: total, Events: records}
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(out)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tTYPE\tSCOPE\tPHIL\tLEVEL\tMESSAGE")
			for _, r := range records {
				phil := "-"
				if r.PhilosopherID > 0 {
					phil = fmt.Sprintf("%d", r.PhilosopherID)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.Timestamp.Format(time.RFC3339), r.Type, r.Scope, phil, r.Level, r.Message)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("\n%d of %d events\n", len(records), total)
			return nil
		},
	}

	cmd.Flags().StringVar(&journalPath, "journal", "", "journal database path (overrides config)")
	cmd.Flags().StringVar(&scope, "scope", "", "filter by scope (server, philosopher)")
	cmd.Flags().IntVar(&philosopherID, "philosopher", 0, "filter by philosopher id")
	cmd.Flags().StringVar(&eventType, "type", "", "filter by event type")
	cmd.Flags().StringVar(&level, "level", "", "filter by level (info, warning, error)")
	cmd.Flags().DurationVar(&since, "since", 0, "only events newer than this age, e.g. 1h")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size (default 100)")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	return cmd
}
