package journal

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/opensymposium/opensymposium/pkg/telemetry"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// defaultPageSize bounds unpaginated ListEvents queries.
const defaultPageSize = 100

// SQLiteJournal stores observability events in SQLite.
type SQLiteJournal struct {
	db   *sql.DB
	path string
}

// Config holds SQLite journal configuration.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// New creates a new SQLite journal instance.
func New(cfg Config) (*SQLiteJournal, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("journal path is required")
	}

	return &SQLiteJournal{
		path: cfg.Path,
	}, nil
}

// Init initializes the database connection and enables WAL mode.
func (j *SQLiteJournal) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", j.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	j.db = db
	return nil
}

// Close closes the database connection.
func (j *SQLiteJournal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Migrate runs database migrations from the embedded schema.
func (j *SQLiteJournal) Migrate(_ context.Context) error {
	if j.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(j.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// AppendEvent persists one observability event.
func (j *SQLiteJournal) AppendEvent(ctx context.Context, event telemetry.Event) (*Record, error) {
	var data string
	if len(event.Data) > 0 {
		raw, err := json.Marshal(event.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal event data: %w", err)
		}
		data = string(raw)
	}

	rec := &Record{
		EventID:       event.ID,
		Timestamp:     event.Timestamp,
		Type:          event.Type,
		Scope:         event.Scope,
		PhilosopherID: event.PhilosopherID,
		ChopstickID:   event.ChopstickID,
		Level:         event.Level,
		Message:       event.Message,
		Data:          data,
	}

	query := `
		INSERT INTO events (event_id, timestamp, type, scope, philosopher_id, chopstick_id, level, message, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := j.db.ExecContext(ctx, query,
		rec.EventID,
		rec.Timestamp,
		rec.Type,
		rec.Scope,
		rec.PhilosopherID,
		rec.ChopstickID,
		rec.Level,
		rec.Message,
		rec.Data,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to append event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get event ID: %w", err)
	}

	rec.ID = id
	return rec, nil
}

// HandleEvent is an EventSubscriber adapter: it appends the event and drops
// it on failure, since the observability path must never fail the producer.
func (j *SQLiteJournal) HandleEvent(event telemetry.Event) {
	_, _ = j.AppendEvent(context.Background(), event)
}

// filterArgs renders a Filter into the nullable placeholder arguments the
// list and count queries share.
func filterArgs(f Filter) []interface{} {
	var (
		scope *string
		phil  *int
		typ   *string
		level *string
		since *time.Time
	)
	if f.Scope != "" {
		scope = &f.Scope
	}
	if f.PhilosopherID != 0 {
		phil = &f.PhilosopherID
	}
	if f.Type != "" {
		typ = &f.Type
	}
	if f.Level != "" {
		level = &f.Level
	}
	if !f.Since.IsZero() {
		since = &f.Since
	}

	return []interface{}{
		scope, scope,
		phil, phil,
		typ, typ,
		level, level,
		since, since,
	}
}

const filterClause = `
		WHERE (? IS NULL OR scope = ?)
		  AND (? IS NULL OR philosopher_id = ?)
		  AND (? IS NULL OR type = ?)
		  AND (? IS NULL OR level = ?)
		  AND (? IS NULL OR timestamp >= ?)
`

// ListEvents retrieves events matching the filter, newest first.
func (j *SQLiteJournal) ListEvents(ctx context.Context, f Filter) ([]*Record, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	query := `
		SELECT id, event_id, timestamp, type, scope, philosopher_id, chopstick_id, level, message, data
		FROM events
` + filterClause + `
		ORDER BY timestamp DESC, id DESC
		LIMIT ? OFFSET ?
	`

	args := append(filterArgs(f), limit, f.Offset)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		rec := &Record{}
		err := rows.Scan(
			&rec.ID,
			&rec.EventID,
			&rec.Timestamp,
			&rec.Type,
			&rec.Scope,
			&rec.PhilosopherID,
			&rec.ChopstickID,
			&rec.Level,
			&rec.Message,
			&rec.Data,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return records, nil
}

// CountEvents counts events matching the filter.
func (j *SQLiteJournal) CountEvents(ctx context.Context, f Filter) (int64, error) {
	query := `SELECT COUNT(*) FROM events` + filterClause

	var count int64
	if err := j.db.QueryRowContext(ctx, query, filterArgs(f)...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}

	return count, nil
}

// HealthCheck verifies the database connection is healthy.
func (j *SQLiteJournal) HealthCheck(ctx context.Context) error {
	if j.db == nil {
		return fmt.Errorf("database not initialized")
	}

	return j.db.PingContext(ctx)
}
