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

// SQLiteAlertStorage implements AlertStore using SQLite
type SQLiteAlertStorage struct {
	sqlite *SQLite
	logger *zap.SugaredLogger
}

// NewSQLiteAlertStorage creates a new alert storage instance
func NewSQLiteAlertStorage(sqlite *SQLite, logger *zap.SugaredLogger) *SQLiteAlertStorage {
	return &SQLiteAlertStorage{sqlite: sqlite, logger: logger}
}

// InsertAlerts persists a batch of alerts in a single transaction.
func (s *SQLiteAlertStorage) InsertAlerts(ctx context.Context, alerts []*core.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	tx, err := s.sqlite.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin alert transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO alerts (alert_id, timestamp, source_ip, type, severity, description, status, blocked)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare alert insert: %w", err)
	}
	defer stmt.Close()

	for _, alert := range alerts {
		_, err := stmt.ExecContext(ctx,
			alert.AlertID,
			formatTime(alert.Timestamp),
			alert.SourceIP,
			alert.Type.String(),
			alert.Severity.String(),
			alert.Description,
			alert.Status.String(),
			boolToInt(alert.Blocked),
		)
		if err != nil {
			return fmt.Errorf("failed to insert alert %s: %w", alert.AlertID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit alert batch: %w", err)
	}
	return nil
}

// RecentAlerts returns alerts matching the filter, newest first.
func (s *SQLiteAlertStorage) RecentAlerts(ctx context.Context, filter AlertFilter) ([]core.Alert, error) {
	var conditions []string
	var args []interface{}

	if !filter.Since.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, formatTime(filter.Since))
	}
	if filter.SourceIP != "" {
		conditions = append(conditions, "source_ip = ?")
		args = append(args, filter.SourceIP)
	}
	if len(filter.Types) > 0 {
		placeholders := strings.Repeat("?,", len(filter.Types))
		conditions = append(conditions, fmt.Sprintf("type IN (%s)", placeholders[:len(placeholders)-1]))
		for _, t := range filter.Types {
			args = append(args, t.String())
		}
	}

	query := "SELECT alert_id, timestamp, source_ip, type, severity, description, status, blocked FROM alerts"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.sqlite.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []core.Alert
	for rows.Next() {
		var alert core.Alert
		var ts, alertType, severity, status string
		var blocked int
		if err := rows.Scan(&alert.AlertID, &ts, &alert.SourceIP, &alertType,
			&severity, &alert.Description, &status, &blocked); err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}

		parsed, err := parseStoredTime(ts)
		if err != nil {
			return nil, err
		}
		alert.Timestamp = parsed
		alert.Type = core.AlertType(alertType)
		alert.Severity = core.Severity(severity)
		alert.Status = core.AlertStatus(status)
		alert.Blocked = blocked != 0
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// HasRecentAlert reports whether an alert of the given type and source
// IP exists with timestamp >= since.
func (s *SQLiteAlertStorage) HasRecentAlert(ctx context.Context, alertType core.AlertType, sourceIP string, since time.Time) (bool, error) {
	var exists int
	err := s.sqlite.DB.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM alerts WHERE type = ? AND source_ip = ? AND timestamp >= ?
		)`, alertType.String(), sourceIP, formatTime(since)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check recent alert: %w", err)
	}
	return exists != 0, nil
}

// GetAlert returns one alert by ID.
func (s *SQLiteAlertStorage) GetAlert(ctx context.Context, alertID string) (*core.Alert, error) {
	row := s.sqlite.DB.QueryRowContext(ctx, `
		SELECT alert_id, timestamp, source_ip, type, severity, description, status, blocked
		FROM alerts WHERE alert_id = ?`, alertID)

	var alert core.Alert
	var ts, alertType, severity, status string
	var blocked int
	err := row.Scan(&alert.AlertID, &ts, &alert.SourceIP, &alertType,
		&severity, &alert.Description, &status, &blocked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAlertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert %s: %w", alertID, err)
	}

	parsed, err := parseStoredTime(ts)
	if err != nil {
		return nil, err
	}
	alert.Timestamp = parsed
	alert.Type = core.AlertType(alertType)
	alert.Severity = core.Severity(severity)
	alert.Status = core.AlertStatus(status)
	alert.Blocked = blocked != 0
	return &alert, nil
}

// UpdateAlertStatus transitions an alert's workflow status.
func (s *SQLiteAlertStorage) UpdateAlertStatus(ctx context.Context, alertID string, status core.AlertStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid alert status: %s", status)
	}

	result, err := s.sqlite.DB.ExecContext(ctx,
		"UPDATE alerts SET status = ? WHERE alert_id = ?", status.String(), alertID)
	if err != nil {
		return fmt.Errorf("failed to update alert %s: %w", alertID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update alert %s: %w", alertID, err)
	}
	if affected == 0 {
		return ErrAlertNotFound
	}

	s.logger.Infow("alert status updated", "alert_id", alertID, "status", status.String())
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
