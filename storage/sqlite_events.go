package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"argus/core"

	"go.uber.org/zap"
)

// SQLiteEventStorage implements EventStore using SQLite
type SQLiteEventStorage struct {
	sqlite *SQLite
	logger *zap.SugaredLogger
}

// NewSQLiteEventStorage creates a new event storage instance
func NewSQLiteEventStorage(sqlite *SQLite, logger *zap.SugaredLogger) *SQLiteEventStorage {
	return &SQLiteEventStorage{sqlite: sqlite, logger: logger}
}

// InsertEvents persists a batch of events in a single transaction.
// Either the whole batch commits or none of it does.
func (s *SQLiteEventStorage) InsertEvents(ctx context.Context, events []*core.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.sqlite.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin event transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (event_id, timestamp, source_category, device, source_ip, principal, outcome, activity_kind, raw_data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare event insert: %w", err)
	}
	defer stmt.Close()

	for _, event := range events {
		_, err := stmt.ExecContext(ctx,
			event.EventID,
			formatTime(event.Timestamp),
			event.SourceCategory,
			event.Device,
			event.SourceIP,
			event.Principal,
			event.Outcome.String(),
			event.ActivityKind,
			event.RawData,
		)
		if err != nil {
			return fmt.Errorf("failed to insert event %s: %w", event.EventID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit event batch: %w", err)
	}
	return nil
}

// CountEvents counts events for one source IP with timestamp >= since,
// optionally filtered by outcome.
func (s *SQLiteEventStorage) CountEvents(ctx context.Context, sourceIP string, filter EventFilter, since time.Time) (int64, error) {
	query := "SELECT COUNT(*) FROM events WHERE source_ip = ? AND timestamp >= ?"
	args := []interface{}{sourceIP, formatTime(since)}

	if filter.Outcome != "" {
		query += " AND outcome = ?"
		args = append(args, filter.Outcome.String())
	}

	var count int64
	if err := s.sqlite.DB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events for %s: %w", sourceIP, err)
	}
	return count, nil
}

// GetEvents returns events ordered newest first.
func (s *SQLiteEventStorage) GetEvents(ctx context.Context, limit, offset int) ([]core.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.sqlite.DB.QueryContext(ctx, `
		SELECT event_id, timestamp, source_category, device, source_ip, principal, outcome, activity_kind, raw_data
		FROM events ORDER BY timestamp DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []core.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// GetEvent returns one event by ID.
func (s *SQLiteEventStorage) GetEvent(ctx context.Context, eventID string) (*core.Event, error) {
	row := s.sqlite.DB.QueryRowContext(ctx, `
		SELECT event_id, timestamp, source_category, device, source_ip, principal, outcome, activity_kind, raw_data
		FROM events WHERE event_id = ?`, eventID)

	var event core.Event
	var ts, outcome string
	err := row.Scan(&event.EventID, &ts, &event.SourceCategory, &event.Device,
		&event.SourceIP, &event.Principal, &outcome, &event.ActivityKind, &event.RawData)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event %s: %w", eventID, err)
	}

	parsed, err := parseStoredTime(ts)
	if err != nil {
		return nil, err
	}
	event.Timestamp = parsed
	event.Outcome = core.Outcome(strings.ToLower(outcome))
	return &event, nil
}

func scanEvent(rows *sql.Rows) (core.Event, error) {
	var event core.Event
	var ts, outcome string
	if err := rows.Scan(&event.EventID, &ts, &event.SourceCategory, &event.Device,
		&event.SourceIP, &event.Principal, &outcome, &event.ActivityKind, &event.RawData); err != nil {
		return core.Event{}, fmt.Errorf("failed to scan event row: %w", err)
	}

	parsed, err := parseStoredTime(ts)
	if err != nil {
		return core.Event{}, err
	}
	event.Timestamp = parsed
	event.Outcome = core.Outcome(strings.ToLower(outcome))
	return event, nil
}
