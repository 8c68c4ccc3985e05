package journal_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/opensymposium/opensymposium/pkg/journal"
	"github.com/opensymposium/opensymposium/pkg/telemetry"
)

// ExampleNew demonstrates creating and initializing an event journal.
func ExampleNew() {
	dir, err := os.MkdirTemp("", "journal-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	jrnl, err := journal.New(journal.Config{
		Path: filepath.Join(dir, "events.db"),
	})
	if err != nil {
		log.Fatal(err)
	}

	// Initialize the database connection
	ctx := context.Background()
	if err := jrnl.Init(ctx); err != nil {
		log.Fatal(err)
	}

	// Run migrations
	if err := jrnl.Migrate(ctx); err != nil {
		log.Fatal(err)
	}

	defer jrnl.Close()

	// Journal is now ready to use
	fmt.Println("Journal initialized successfully")
	// Output: Journal initialized successfully
}

// ExampleSQLiteJournal_AppendEvent demonstrates persisting and querying events.
func ExampleSQLiteJournal_AppendEvent() {
	dir, err := os.MkdirTemp("", "journal-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	jrnl, _ := journal.New(journal.Config{Path: filepath.Join(dir, "events.db")})
	ctx := context.Background()
	_ = jrnl.Init(ctx)
	_ = jrnl.Migrate(ctx)
	defer jrnl.Close()

	// Persist an event
	event := telemetry.Event{
		Type:          telemetry.EventTypeChopstickAcquired,
		Scope:         telemetry.ScopePhilosopher,
		PhilosopherID: 3,
		ChopstickID:   3,
		Message:       "Philosopher 3 picked up left chopstick 3",
		Level:         telemetry.EventLevelInfo,
	}
	if _, err := jrnl.AppendEvent(ctx, event); err != nil {
		log.Fatal(err)
	}

	// Query one philosopher's stream
	records, err := jrnl.ListEvents(ctx, journal.Filter{PhilosopherID: 3})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Event count: %d, Message: %s\n", len(records), records[0].Message)
	// Output: Event count: 1, Message: Philosopher 3 picked up left chopstick 3
}
