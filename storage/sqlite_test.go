package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"argus/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestDB(t *testing.T) *SQLite {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "argus_test.db")
	sqlite, err := NewSQLite(dbPath, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })
	return sqlite
}

func testEvent(ip string, outcome core.Outcome, ts time.Time) *core.Event {
	event := core.NewEvent("test raw line")
	event.SourceIP = ip
	event.Outcome = outcome
	event.Timestamp = ts
	event.ActivityKind = core.ActivityAuthentication
	return event
}

func testAlert(t *testing.T, alertType core.AlertType, ip string, ts time.Time) *core.Alert {
	t.Helper()
	alert, err := core.NewAlert(alertType, ip, "test alert", ts)
	require.NoError(t, err)
	return alert
}

func TestSQLiteWALMode(t *testing.T) {
	sqlite := setupTestDB(t)

	var mode string
	require.NoError(t, sqlite.DB.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestInsertAndCountEvents(t *testing.T) {
	sqlite := setupTestDB(t)
	store := NewSQLiteEventStorage(sqlite, zap.NewNop().Sugar())
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	events := []*core.Event{
		testEvent("203.0.113.5", core.OutcomeFailed, now.Add(-1*time.Minute)),
		testEvent("203.0.113.5", core.OutcomeFailed, now.Add(-5*time.Minute)),
		testEvent("203.0.113.5", core.OutcomeSuccess, now.Add(-2*time.Minute)),
		testEvent("203.0.113.5", core.OutcomeFailed, now.Add(-20*time.Minute)),
		testEvent("198.51.100.9", core.OutcomeFailed, now.Add(-1*time.Minute)),
	}
	require.NoError(t, store.InsertEvents(ctx, events))

	since := now.Add(-10 * time.Minute)

	count, err := store.CountEvents(ctx, "203.0.113.5", EventFilter{Outcome: core.OutcomeFailed}, since)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count, "old event and success event must not count")

	count, err = store.CountEvents(ctx, "203.0.113.5", EventFilter{}, since)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, err = store.CountEvents(ctx, "192.0.2.1", EventFilter{}, since)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestInsertEventsEmptyBatch(t *testing.T) {
	sqlite := setupTestDB(t)
	store := NewSQLiteEventStorage(sqlite, zap.NewNop().Sugar())

	require.NoError(t, store.InsertEvents(context.Background(), nil))
}

func TestInsertEventsAtomicity(t *testing.T) {
	sqlite := setupTestDB(t)
	store := NewSQLiteEventStorage(sqlite, zap.NewNop().Sugar())
	ctx := context.Background()

	now := time.Now().UTC()
	good := testEvent("203.0.113.5", core.OutcomeFailed, now)
	dup := testEvent("203.0.113.5", core.OutcomeFailed, now)
	dup.EventID = good.EventID

	err := store.InsertEvents(ctx, []*core.Event{good, dup})
	require.Error(t, err)

	count, err := store.CountEvents(ctx, "203.0.113.5", EventFilter{}, now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "failed batch must not commit partially")
}

func TestGetEventsNewestFirst(t *testing.T) {
	sqlite := setupTestDB(t)
	store := NewSQLiteEventStorage(sqlite, zap.NewNop().Sugar())
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	older := testEvent("203.0.113.5", core.OutcomeFailed, now.Add(-2*time.Minute))
	newer := testEvent("198.51.100.9", core.OutcomeSuccess, now)
	require.NoError(t, store.InsertEvents(ctx, []*core.Event{older, newer}))

	events, err := store.GetEvents(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, newer.EventID, events[0].EventID)
	assert.Equal(t, older.EventID, events[1].EventID)
	assert.Equal(t, now, events[0].Timestamp)
	assert.Equal(t, core.OutcomeSuccess, events[0].Outcome)
}

func TestRecentAlertsFiltering(t *testing.T) {
	sqlite := setupTestDB(t)
	store := NewSQLiteAlertStorage(sqlite, zap.NewNop().Sugar())
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	alerts := []*core.Alert{
		testAlert(t, core.AlertBruteForce, "203.0.113.5", now.Add(-30*time.Second)),
		testAlert(t, core.AlertMalwareDetection, "203.0.113.5", now.Add(-60*time.Second)),
		testAlert(t, core.AlertBruteForce, "198.51.100.9", now.Add(-30*time.Second)),
		testAlert(t, core.AlertBruteForce, "203.0.113.5", now.Add(-10*time.Minute)),
	}
	require.NoError(t, store.InsertAlerts(ctx, alerts))

	got, err := store.RecentAlerts(ctx, AlertFilter{
		Types:    []core.AlertType{core.AlertBruteForce, core.AlertMalwareDetection},
		SourceIP: "203.0.113.5",
		Since:    now.Add(-2 * time.Minute),
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, core.AlertBruteForce, got[0].Type, "newest first")
	assert.Equal(t, core.AlertMalwareDetection, got[1].Type)
	assert.Equal(t, core.SeverityCritical, got[1].Severity)
	assert.Equal(t, core.AlertStatusNew, got[0].Status)
}

func TestRecentAlertsLimit(t *testing.T) {
	sqlite := setupTestDB(t)
	store := NewSQLiteAlertStorage(sqlite, zap.NewNop().Sugar())
	ctx := context.Background()

	now := time.Now().UTC()
	var alerts []*core.Alert
	for i := 0; i < 5; i++ {
		alerts = append(alerts, testAlert(t, core.AlertBruteForce, "203.0.113.5", now.Add(time.Duration(-i)*time.Second)))
	}
	require.NoError(t, store.InsertAlerts(ctx, alerts))

	got, err := store.RecentAlerts(ctx, AlertFilter{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestHasRecentAlert(t *testing.T) {
	sqlite := setupTestDB(t)
	store := NewSQLiteAlertStorage(sqlite, zap.NewNop().Sugar())
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	alert := testAlert(t, core.AlertBruteForce, "203.0.113.5", now.Add(-15*time.Second))
	require.NoError(t, store.InsertAlerts(ctx, []*core.Alert{alert}))

	found, err := store.HasRecentAlert(ctx, core.AlertBruteForce, "203.0.113.5", now.Add(-20*time.Second))
	require.NoError(t, err)
	assert.True(t, found)

	found, err = store.HasRecentAlert(ctx, core.AlertBruteForce, "203.0.113.5", now.Add(-10*time.Second))
	require.NoError(t, err)
	assert.False(t, found, "alert outside the cooldown window must not suppress")

	found, err = store.HasRecentAlert(ctx, core.AlertMalwareDetection, "203.0.113.5", now.Add(-20*time.Second))
	require.NoError(t, err)
	assert.False(t, found, "type mismatch must not suppress")
}

func TestGetEvent(t *testing.T) {
	sqlite := setupTestDB(t)
	store := NewSQLiteEventStorage(sqlite, zap.NewNop().Sugar())
	ctx := context.Background()

	event := testEvent("203.0.113.5", core.OutcomeFailed, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, store.InsertEvents(ctx, []*core.Event{event}))

	got, err := store.GetEvent(ctx, event.EventID)
	require.NoError(t, err)
	assert.Equal(t, event.SourceIP, got.SourceIP)
	assert.Equal(t, event.Timestamp, got.Timestamp)
	assert.Equal(t, event.RawData, got.RawData)

	_, err = store.GetEvent(ctx, "no-such-id")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestGetAlertAndUpdateStatus(t *testing.T) {
	sqlite := setupTestDB(t)
	store := NewSQLiteAlertStorage(sqlite, zap.NewNop().Sugar())
	ctx := context.Background()

	alert := testAlert(t, core.AlertBruteForce, "203.0.113.5", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, store.InsertAlerts(ctx, []*core.Alert{alert}))

	got, err := store.GetAlert(ctx, alert.AlertID)
	require.NoError(t, err)
	assert.Equal(t, core.AlertStatusNew, got.Status)

	require.NoError(t, store.UpdateAlertStatus(ctx, alert.AlertID, core.AlertStatusResolved))
	got, err = store.GetAlert(ctx, alert.AlertID)
	require.NoError(t, err)
	assert.Equal(t, core.AlertStatusResolved, got.Status)

	_, err = store.GetAlert(ctx, "no-such-id")
	assert.ErrorIs(t, err, ErrAlertNotFound)

	err = store.UpdateAlertStatus(ctx, "no-such-id", core.AlertStatusResolved)
	assert.ErrorIs(t, err, ErrAlertNotFound)

	err = store.UpdateAlertStatus(ctx, alert.AlertID, core.AlertStatus("Bogus"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlertNotFound)
}

func TestThresholdOverrides(t *testing.T) {
	sqlite := setupTestDB(t)
	store := NewSQLiteConfigStorage(sqlite, zap.NewNop().Sugar())
	ctx := context.Background()

	thresholds, err := store.GetThresholds(ctx)
	require.NoError(t, err)
	assert.Empty(t, thresholds)

	require.NoError(t, store.SetThreshold(ctx, "brute_force_count", 20))
	require.NoError(t, store.SetThreshold(ctx, "brute_force_count", 12))
	require.NoError(t, store.SetThreshold(ctx, "repeated_failed_threshold", 3))

	thresholds, err = store.GetThresholds(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		"brute_force_count":         12,
		"repeated_failed_threshold": 3,
	}, thresholds)
}

func TestLiveMonitoringDefaultsTrue(t *testing.T) {
	sqlite := setupTestDB(t)
	store := NewSQLiteConfigStorage(sqlite, zap.NewNop().Sugar())
	ctx := context.Background()

	enabled, err := store.LiveMonitoringEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)

	require.NoError(t, store.SetLiveMonitoring(ctx, false))
	enabled, err = store.LiveMonitoringEnabled(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, store.SetLiveMonitoring(ctx, true))
	enabled, err = store.LiveMonitoringEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestBlockList(t *testing.T) {
	sqlite := setupTestDB(t)
	alerts := NewSQLiteAlertStorage(sqlite, zap.NewNop().Sugar())
	store := NewSQLiteBlockStorage(sqlite, zap.NewNop().Sugar())
	ctx := context.Background()

	blocked, err := store.IsBlocked(ctx, "203.0.113.5")
	require.NoError(t, err)
	assert.False(t, blocked)

	alert := testAlert(t, core.AlertBruteForce, "203.0.113.5", time.Now().UTC())
	require.NoError(t, alerts.InsertAlerts(ctx, []*core.Alert{alert}))

	require.NoError(t, store.BlockIP(ctx, "203.0.113.5", "brute force response", alert.AlertID))
	require.NoError(t, store.BlockIP(ctx, "198.51.100.9", "", ""))

	blocked, err = store.IsBlocked(ctx, "203.0.113.5")
	require.NoError(t, err)
	assert.True(t, blocked)

	list, err := store.ListBlocked(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	byIP := map[string]BlockedIP{}
	for _, entry := range list {
		byIP[entry.SourceIP] = entry
	}
	assert.Equal(t, "brute force response", byIP["203.0.113.5"].Reason)
	assert.Equal(t, alert.AlertID, byIP["203.0.113.5"].SourceAlertID)
	assert.Equal(t, "manual block", byIP["198.51.100.9"].Reason)
	assert.Empty(t, byIP["198.51.100.9"].SourceAlertID)
}

func TestStoredTimestampRoundTrip(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 30, 45, 123456789, time.UTC)
	stored := formatTime(ts)

	parsed, err := parseStoredTime(stored)
	require.NoError(t, err)
	assert.Equal(t, ts, parsed)
}
