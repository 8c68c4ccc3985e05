package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/opensymposium/opensymposium/pkg/telemetry"
)

// setupTestJournal creates a file-backed journal in a temp dir.
func setupTestJournal(t *testing.T) *SQLiteJournal {
	t.Helper()

	j, err := New(Config{
		Path: filepath.Join(t.TempDir(), "events.db"),
	})
	if err != nil {
		t.Fatalf("failed to create journal: %v", err)
	}

	ctx := context.Background()
	if err := j.Init(ctx); err != nil {
		t.Fatalf("failed to initialize journal: %v", err)
	}

	if err := j.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate journal: %v", err)
	}

	t.Cleanup(func() { _ = j.Close() })

	return j
}

func testEvent(id int, eventType, scope, level string, ts time.Time) telemetry.Event {
	return telemetry.Event{
		ID:            "evt-" + eventType,
		Timestamp:     ts,
		Type:          eventType,
		Scope:         scope,
		PhilosopherID: id,
		Level:         level,
		Message:       "test " + eventType,
	}
}

func TestJournalLifecycle(t *testing.T) {
	j, err := New(Config{
		Path: filepath.Join(t.TempDir(), "events.db"),
	})
	if err != nil {
		t.Fatalf("failed to create journal: %v", err)
	}

	ctx := context.Background()
	if err := j.Init(ctx); err != nil {
		t.Fatalf("failed to initialize journal: %v", err)
	}

	if err := j.HealthCheck(ctx); err != nil {
		t.Fatalf("health check failed: %v", err)
	}

	if err := j.Close(); err != nil {
		t.Fatalf("failed to close journal: %v", err)
	}
}

func TestJournalRequiresPath(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("New() with empty path succeeded, want error")
	}
}

func TestAppendAndListEvents(t *testing.T) {
	j := setupTestJournal(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	event := telemetry.Event{
		ID:            "evt-1",
		Timestamp:     now,
		Type:          telemetry.EventTypeChopstickAcquired,
		Scope:         telemetry.ScopePhilosopher,
		PhilosopherID: 2,
		ChopstickID:   1,
		Level:         telemetry.EventLevelInfo,
		Message:       "Philosopher 2 picked up right chopstick 1",
		Data:          map[string]interface{}{"side": "right"},
	}

	rec, err := j.AppendEvent(ctx, event)
	if err != nil {
		t.Fatalf("AppendEvent() error = %v", err)
	}
	if rec.ID == 0 {
		t.Error("AppendEvent() did not assign a row id")
	}

	records, err := j.ListEvents(ctx, Filter{})
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("ListEvents() returned %d records, want 1", len(records))
	}

	got := records[0]
	if got.EventID != "evt-1" {
		t.Errorf("EventID = %q, want %q", got.EventID, "evt-1")
	}
	if got.Type != telemetry.EventTypeChopstickAcquired {
		t.Errorf("Type = %q, want %q", got.Type, telemetry.EventTypeChopstickAcquired)
	}
	if got.PhilosopherID != 2 || got.ChopstickID != 1 {
		t.Errorf("ids = (%d, %d), want (2, 1)", got.PhilosopherID, got.ChopstickID)
	}
	if got.Data != `{"side":"right"}` {
		t.Errorf("Data = %q, want %q", got.Data, `{"side":"right"}`)
	}
}

func TestListEventsFilters(t *testing.T) {
	j := setupTestJournal(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)

	seed := []telemetry.Event{
		testEvent(0, telemetry.EventTypeAdmitted, telemetry.ScopeServer, telemetry.EventLevelInfo, base),
		testEvent(1, telemetry.EventTypeGateWaiting, telemetry.ScopePhilosopher, telemetry.EventLevelInfo, base.Add(time.Minute)),
		testEvent(1, telemetry.EventTypeChopstickAcquired, telemetry.ScopePhilosopher, telemetry.EventLevelInfo, base.Add(2*time.Minute)),
		testEvent(2, telemetry.EventTypeChopstickWaiting, telemetry.ScopePhilosopher, telemetry.EventLevelInfo, base.Add(3*time.Minute)),
		testEvent(9, telemetry.EventTypeLookupFailed, telemetry.ScopeServer, telemetry.EventLevelWarning, base.Add(4*time.Minute)),
	}
	for _, e := range seed {
		if _, err := j.AppendEvent(ctx, e); err != nil {
			t.Fatalf("AppendEvent() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{name: "no filter", filter: Filter{}, want: 5},
		{name: "server scope", filter: Filter{Scope: telemetry.ScopeServer}, want: 2},
		{name: "philosopher 1", filter: Filter{PhilosopherID: 1}, want: 2},
		{name: "by type", filter: Filter{Type: telemetry.EventTypeLookupFailed}, want: 1},
		{name: "by level", filter: Filter{Level: telemetry.EventLevelWarning}, want: 1},
		{name: "since midpoint", filter: Filter{Since: base.Add(3 * time.Minute)}, want: 2},
		{name: "combined", filter: Filter{Scope: telemetry.ScopePhilosopher, PhilosopherID: 1}, want: 2},
		{name: "no match", filter: Filter{PhilosopherID: 7}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := j.ListEvents(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListEvents() error = %v", err)
			}
			if len(records) != tt.want {
				t.Errorf("ListEvents() returned %d records, want %d", len(records), tt.want)
			}

			count, err := j.CountEvents(ctx, tt.filter)
			if err != nil {
				t.Fatalf("CountEvents() error = %v", err)
			}
			if count != int64(tt.want) {
				t.Errorf("CountEvents() = %d, want %d", count, tt.want)
			}
		})
	}
}

func TestListEventsOrderAndPagination(t *testing.T) {
	j := setupTestJournal(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)

	for i := 0; i < 5; i++ {
		e := testEvent(1, telemetry.EventTypeStateChanged, telemetry.ScopePhilosopher, telemetry.EventLevelInfo, base.Add(time.Duration(i)*time.Minute))
		if _, err := j.AppendEvent(ctx, e); err != nil {
			t.Fatalf("AppendEvent() error = %v", err)
		}
	}

	records, err := j.ListEvents(ctx, Filter{Limit: 2})
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ListEvents() returned %d records, want 2", len(records))
	}

	// Newest first.
	if !records[0].Timestamp.After(records[1].Timestamp) {
		t.Errorf("records not in newest-first order: %v then %v", records[0].Timestamp, records[1].Timestamp)
	}

	page2, err := j.ListEvents(ctx, Filter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("ListEvents() page 2 error = %v", err)
	}
	if len(page2) != 2 {
		t.Fatalf("page 2 returned %d records, want 2", len(page2))
	}
	if !records[1].Timestamp.After(page2[0].Timestamp) {
		t.Errorf("pagination overlapped: %v then %v", records[1].Timestamp, page2[0].Timestamp)
	}
}

func TestHandleEventSubscriber(t *testing.T) {
	j := setupTestJournal(t)
	ctx := context.Background()

	// HandleEvent is the subscriber glue; it must swallow its own errors.
	j.HandleEvent(telemetry.Event{
		ID:        "evt-sub",
		Timestamp: time.Now().UTC(),
		Type:      telemetry.EventTypeGatePermitAdded,
		Scope:     telemetry.ScopeServer,
		Level:     telemetry.EventLevelInfo,
		Message:   "Dining gate widened to 1 permits",
	})

	count, err := j.CountEvents(ctx, Filter{Type: telemetry.EventTypeGatePermitAdded})
	if err != nil {
		t.Fatalf("CountEvents() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountEvents() = %d, want 1", count)
	}
}
