// Package storage provides the persisted event/alert/config store the
// detection core runs against. SQLite is the only engine; every consumer
// depends on the narrow interfaces in interfaces.go, not on this
// implementation.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// sqliteTimeLayout is the fixed-width UTC timestamp format used in every
// table. Fixed width keeps string comparison chronologically correct for
// windowed range queries.
const sqliteTimeLayout = "2006-01-02 15:04:05.000000000"

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseStoredTime(s string) (time.Time, error) {
	ts, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", s, err)
	}
	return ts.UTC(), nil
}

// SQLite holds the database connection for the event and alert store.
type SQLite struct {
	DB     *sql.DB
	Path   string
	logger *zap.SugaredLogger
}

// NewSQLite opens (creating if needed) the SQLite database and applies
// the required pragmas. WAL mode is mandatory: batch commits must be
// durable across crashes for windowed counts to stay correct.
func NewSQLite(dbPath string, logger *zap.SugaredLogger) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// SQLite WAL mode supports one writer; serialize all writes through
	// a single connection so concurrent batches queue instead of failing.
	db.SetMaxOpenConns(1)

	s := &SQLite{DB: db, Path: dbPath, logger: logger}
	if err := s.configure(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Infof("SQLite store ready at %s", dbPath)
	return s, nil
}

// configure applies and verifies the connection pragmas.
func (s *SQLite) configure() error {
	if _, err := s.DB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := s.DB.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := s.DB.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := s.DB.Ping(); err != nil {
		return fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	// In-memory databases report journal mode "memory", not "wal".
	var journalMode string
	if err := s.DB.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to query journal mode: %w", err)
	}
	if s.Path != ":memory:" && journalMode != "wal" {
		return fmt.Errorf("WAL mode not enabled (got: %s)", journalMode)
	}
	return nil
}

// createTables creates the schema if it does not exist.
func (s *SQLite) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		event_id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		source_category TEXT NOT NULL DEFAULT 'syslog',
		device TEXT NOT NULL DEFAULT 'unknown',
		source_ip TEXT NOT NULL DEFAULT 'unknown',
		principal TEXT NOT NULL DEFAULT 'unknown',
		outcome TEXT NOT NULL DEFAULT 'unknown' CHECK(outcome IN ('success','failed','unknown')),
		activity_kind TEXT NOT NULL DEFAULT 'system',
		raw_data TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
	CREATE INDEX IF NOT EXISTS idx_events_source_ip ON events(source_ip, timestamp);
	CREATE INDEX IF NOT EXISTS idx_events_outcome ON events(source_ip, outcome, timestamp);

	CREATE TABLE IF NOT EXISTS alerts (
		alert_id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		source_ip TEXT NOT NULL DEFAULT 'unknown',
		type TEXT NOT NULL,
		severity TEXT NOT NULL CHECK(severity IN ('Low','Medium','High','Critical')),
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'New' CHECK(status IN ('New','Investigating','Resolved')),
		blocked INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_alerts_timestamp ON alerts(timestamp);
	CREATE INDEX IF NOT EXISTS idx_alerts_type_ip ON alerts(type, source_ip, timestamp);

	CREATE TABLE IF NOT EXISTS rule_config (
		key TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS system_config (
		id INTEGER PRIMARY KEY CHECK(id = 1),
		live_monitoring INTEGER NOT NULL DEFAULT 1,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS blocked_ips (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_ip TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT 'manual block',
		source_alert_id TEXT REFERENCES alerts(alert_id),
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_blocked_ips_ip ON blocked_ips(source_ip);
	`
	_, err := s.DB.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.DB.Close()
}
