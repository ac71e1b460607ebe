package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SQLiteBlockStorage implements BlockStore using SQLite
type SQLiteBlockStorage struct {
	sqlite *SQLite
	logger *zap.SugaredLogger
}

// NewSQLiteBlockStorage creates a new block list storage instance
func NewSQLiteBlockStorage(sqlite *SQLite, logger *zap.SugaredLogger) *SQLiteBlockStorage {
	return &SQLiteBlockStorage{sqlite: sqlite, logger: logger}
}

// BlockIP records an IP block. sourceAlertID may be empty for manual
// blocks.
func (s *SQLiteBlockStorage) BlockIP(ctx context.Context, sourceIP, reason, sourceAlertID string) error {
	if reason == "" {
		reason = "manual block"
	}

	var alertID interface{}
	if sourceAlertID != "" {
		alertID = sourceAlertID
	}

	_, err := s.sqlite.DB.ExecContext(ctx, `
		INSERT INTO blocked_ips (source_ip, reason, source_alert_id, created_at)
		VALUES (?, ?, ?, ?)`, sourceIP, reason, alertID, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to block IP %s: %w", sourceIP, err)
	}

	s.logger.Infow("IP blocked", "source_ip", sourceIP, "reason", reason)
	return nil
}

// IsBlocked reports whether an IP appears in the block list.
func (s *SQLiteBlockStorage) IsBlocked(ctx context.Context, sourceIP string) (bool, error) {
	var exists int
	err := s.sqlite.DB.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM blocked_ips WHERE source_ip = ?)", sourceIP).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check block list: %w", err)
	}
	return exists != 0, nil
}

// ListBlocked returns the block list, newest first.
func (s *SQLiteBlockStorage) ListBlocked(ctx context.Context) ([]BlockedIP, error) {
	rows, err := s.sqlite.DB.QueryContext(ctx, `
		SELECT id, source_ip, reason, COALESCE(source_alert_id, ''), created_at
		FROM blocked_ips ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query block list: %w", err)
	}
	defer rows.Close()

	var blocked []BlockedIP
	for rows.Next() {
		var entry BlockedIP
		var created string
		if err := rows.Scan(&entry.ID, &entry.SourceIP, &entry.Reason, &entry.SourceAlertID, &created); err != nil {
			return nil, fmt.Errorf("failed to scan block list row: %w", err)
		}
		ts, err := parseStoredTime(created)
		if err != nil {
			return nil, err
		}
		entry.CreatedAt = ts
		blocked = append(blocked, entry)
	}
	return blocked, rows.Err()
}
