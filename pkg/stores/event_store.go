package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunStatus is the lifecycle state of a recorded workflow run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// EventLevel classifies a step event.
type EventLevel string

const (
	EventLevelInfo  EventLevel = "info"
	EventLevelWarn  EventLevel = "warn"
	EventLevelError EventLevel = "error"
)

// Run is one recorded workflow execution against an environment.
type Run struct {
	ID          string
	Environment string
	Workflow    string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       *string
}

// StepEvent is one append-only entry in a run's step log.
type StepEvent struct {
	ID         int64
	RunID      string
	Step       string
	Level      EventLevel
	Message    string
	DurationMS *int64
	Timestamp  time.Time
}

// EventStoreConfig holds SQLite event store configuration.
type EventStoreConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// EventStore records workflow runs and step events in SQLite. It is a
// diagnostic side artifact: the authoritative environment state lives in
// the snapshot repository.
type EventStore struct {
	db  *sql.DB
	cfg EventStoreConfig
}

// NewEventStore creates a new event store instance. Zero pool settings are
// filled with defaults.
func NewEventStore(cfg EventStoreConfig) (*EventStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}
	return &EventStore{cfg: cfg}, nil
}

// Init opens the database connection and enables WAL mode.
func (s *EventStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.cfg.Path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(s.cfg.MaxOpenConns)
	db.SetMaxIdleConns(s.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(s.cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection.
func (s *EventStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations from the embedded schema.
func (s *EventStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
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

// CreateRun records the start of a workflow run.
func (s *EventStore) CreateRun(ctx context.Context, run *Run) error {
	query := `
		INSERT INTO workflow_runs (id, environment, workflow, status, started_at, completed_at, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.Environment,
		run.Workflow,
		run.Status,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		nil,
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// CompleteRun marks a run as completed or failed.
func (s *EventStore) CompleteRun(ctx context.Context, id string, status RunStatus, errMsg *string) error {
	query := `
		UPDATE workflow_runs
		SET status = ?, error = ?, completed_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query, status, errMsg, time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *EventStore) GetRun(ctx context.Context, id string) (*Run, error) {
	query := `
		SELECT id, environment, workflow, status, started_at, completed_at, error
		FROM workflow_runs
		WHERE id = ?
	`

	run := &Run{}
	var startedAt string
	var completedAt *string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID,
		&run.Environment,
		&run.Workflow,
		&run.Status,
		&startedAt,
		&completedAt,
		&run.Error,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run start time: %w", err)
	}
	if completedAt != nil {
		t, err := time.Parse(time.RFC3339Nano, *completedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse run completion time: %w", err)
		}
		run.CompletedAt = &t
	}
	return run, nil
}

// ListRuns lists runs for an environment, newest first.
func (s *EventStore) ListRuns(ctx context.Context, environment string, limit int) ([]*Run, error) {
	query := `
		SELECT id, environment, workflow, status, started_at, completed_at, error
		FROM workflow_runs
		WHERE environment = ?
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, environment, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		run := &Run{}
		var startedAt string
		var completedAt *string
		err := rows.Scan(
			&run.ID,
			&run.Environment,
			&run.Workflow,
			&run.Status,
			&startedAt,
			&completedAt,
			&run.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse run start time: %w", err)
		}
		if completedAt != nil {
			t, err := time.Parse(time.RFC3339Nano, *completedAt)
			if err != nil {
				return nil, fmt.Errorf("failed to parse run completion time: %w", err)
			}
			run.CompletedAt = &t
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// AppendStepEvent appends an event to a run's step log.
func (s *EventStore) AppendStepEvent(ctx context.Context, event *StepEvent) error {
	query := `
		INSERT INTO step_events (run_id, step, level, message, duration_ms, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		event.RunID,
		event.Step,
		event.Level,
		event.Message,
		event.DurationMS,
		event.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to append step event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get event ID: %w", err)
	}
	event.ID = id
	return nil
}

// GetStepEvents retrieves all step events for a run in append order.
func (s *EventStore) GetStepEvents(ctx context.Context, runID string) ([]*StepEvent, error) {
	query := `
		SELECT id, run_id, step, level, message, duration_ms, timestamp
		FROM step_events
		WHERE run_id = ?
		ORDER BY id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get step events: %w", err)
	}
	defer rows.Close()

	events := []*StepEvent{}
	for rows.Next() {
		event := &StepEvent{}
		var ts string
		err := rows.Scan(
			&event.ID,
			&event.RunID,
			&event.Step,
			&event.Level,
			&event.Message,
			&event.DurationMS,
			&ts,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step event: %w", err)
		}
		event.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse event timestamp: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating step events: %w", err)
	}
	return events, nil
}

// HealthCheck verifies the database connection is healthy.
func (s *EventStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.db.PingContext(ctx)
}
