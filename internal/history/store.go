// Package history persists one row per completed run — never per-sample,
// since spec.md's Non-goals excludes "persisting samples to disk" — to a
// local SQLite database, grounded on the teacher's internal/database
// Open/runMigrations pattern (golang-migrate + modernc.org/sqlite, WAL
// mode, embedded migration files).
package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/jroosing/dnsblast/internal/engine"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite connection holding the run-history table.
type Store struct {
	conn *sql.DB
}

// Open opens or creates a SQLite database at path and applies migrations,
// mirroring the teacher's database.Open.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open run-history database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	s := &Store{conn: conn}
	if err := s.runMigrations(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) runMigrations() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}
	dbDriver, err := sqlite.WithInstance(s.conn, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run run-history migrations: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Run is one completed benchmark invocation's persisted summary.
type Run struct {
	Server  string
	Port    int
	Mode    string
	Started time.Time
	Summary engine.Summary
}

// RecordRun inserts one row summarizing a completed run.
func (s *Store) RecordRun(ctx context.Context, r Run) error {
	started := r.Started
	if started.IsZero() {
		started = time.Now().Add(-time.Duration(r.Summary.RunDurationSeconds * float64(time.Second)))
	}
	finished := started.Add(time.Duration(r.Summary.RunDurationSeconds * float64(time.Second)))

	histogram, err := json.Marshal(r.Summary.RCodeCounts)
	if err != nil {
		return fmt.Errorf("failed to encode rcode histogram: %w", err)
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO runs (
			id, started_at, finished_at, server, port, mode,
			num_sent, num_completed, num_timed_out, num_interrupted, num_unexpected, num_short,
			min_latency_us, avg_latency_us, max_latency_us, stddev_us, run_duration_s, rcode_histogram
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), started, finished, r.Server, r.Port, r.Mode,
		r.Summary.NumSent, r.Summary.NumCompleted, r.Summary.NumTimedOut, r.Summary.NumInterrupted, r.Summary.NumUnexpected, r.Summary.NumShort,
		r.Summary.MinLatencyMicros, r.Summary.AvgLatencyMicros, r.Summary.MaxLatencyMicros, r.Summary.StdDevMicros, r.Summary.RunDurationSeconds, string(histogram),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run-history row: %w", err)
	}
	return nil
}

// RunRecord is one row read back from the runs table, for the status API's
// /api/v1/runs endpoint.
type RunRecord struct {
	ID             string    `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Server         string    `json:"server"`
	Port           int       `json:"port"`
	Mode           string    `json:"mode"`
	NumSent        int64     `json:"num_sent"`
	NumCompleted   int64     `json:"num_completed"`
	NumTimedOut    int64     `json:"num_timed_out"`
	NumInterrupted int64     `json:"num_interrupted"`
	NumUnexpected  int64     `json:"num_unexpected"`
	NumShort       int64     `json:"num_short"`
	MinLatencyUs   int64     `json:"min_latency_us"`
	AvgLatencyUs   float64   `json:"avg_latency_us"`
	MaxLatencyUs   int64     `json:"max_latency_us"`
	StdDevUs       float64   `json:"stddev_us"`
	RunDurationS   float64   `json:"run_duration_s"`
}

// ListRuns returns the most recent runs, newest first, capped at limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, started_at, finished_at, server, port, mode,
			num_sent, num_completed, num_timed_out, num_interrupted, num_unexpected, num_short,
			min_latency_us, avg_latency_us, max_latency_us, stddev_us, run_duration_s
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(
			&r.ID, &r.StartedAt, &r.FinishedAt, &r.Server, &r.Port, &r.Mode,
			&r.NumSent, &r.NumCompleted, &r.NumTimedOut, &r.NumInterrupted, &r.NumUnexpected, &r.NumShort,
			&r.MinLatencyUs, &r.AvgLatencyUs, &r.MaxLatencyUs, &r.StdDevUs, &r.RunDurationS,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
