package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SQLiteConfigStorage implements ConfigStore using SQLite
type SQLiteConfigStorage struct {
	sqlite *SQLite
	logger *zap.SugaredLogger
}

// NewSQLiteConfigStorage creates a new config storage instance
func NewSQLiteConfigStorage(sqlite *SQLite, logger *zap.SugaredLogger) *SQLiteConfigStorage {
	return &SQLiteConfigStorage{sqlite: sqlite, logger: logger}
}

// GetThresholds returns every persisted threshold override. Keys that
// were never set are simply absent; callers merge over defaults.
func (s *SQLiteConfigStorage) GetThresholds(ctx context.Context) (map[string]int, error) {
	rows, err := s.sqlite.DB.QueryContext(ctx, "SELECT key, value FROM rule_config")
	if err != nil {
		return nil, fmt.Errorf("failed to query thresholds: %w", err)
	}
	defer rows.Close()

	thresholds := make(map[string]int)
	for rows.Next() {
		var key string
		var value int
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan threshold row: %w", err)
		}
		thresholds[key] = value
	}
	return thresholds, rows.Err()
}

// SetThreshold upserts one threshold override.
func (s *SQLiteConfigStorage) SetThreshold(ctx context.Context, key string, value int) error {
	_, err := s.sqlite.DB.ExecContext(ctx, `
		INSERT INTO rule_config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set threshold %s: %w", key, err)
	}
	return nil
}

// LiveMonitoringEnabled reports whether detection runs on ingest.
// Defaults to true when the flag was never persisted.
func (s *SQLiteConfigStorage) LiveMonitoringEnabled(ctx context.Context) (bool, error) {
	var enabled int
	err := s.sqlite.DB.QueryRowContext(ctx,
		"SELECT live_monitoring FROM system_config WHERE id = 1").Scan(&enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query live monitoring flag: %w", err)
	}
	return enabled != 0, nil
}

// SetLiveMonitoring persists the live-monitoring switch.
func (s *SQLiteConfigStorage) SetLiveMonitoring(ctx context.Context, enabled bool) error {
	_, err := s.sqlite.DB.ExecContext(ctx, `
		INSERT INTO system_config (id, live_monitoring, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET live_monitoring = excluded.live_monitoring, updated_at = excluded.updated_at`,
		boolToInt(enabled), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to set live monitoring flag: %w", err)
	}
	return nil
}
