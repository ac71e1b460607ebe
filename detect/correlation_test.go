package detect

import (
	"context"
	"testing"
	"time"

	"argus/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedAlert(t *testing.T, alertType core.AlertType, ip string, ts time.Time) *core.Alert {
	t.Helper()
	alert, err := core.NewAlert(alertType, ip, "stored alert", ts)
	require.NoError(t, err)
	return alert
}

func TestCorrelateBruteForcePlusMalware(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	engine, stores := newTestEngine(t, now)
	ctx := context.Background()

	recent := []*core.Alert{
		storedAlert(t, core.AlertBruteForce, "203.0.113.5", now.Add(-90*time.Second)),
		storedAlert(t, core.AlertBruteForce, "203.0.113.5", now.Add(-60*time.Second)),
		storedAlert(t, core.AlertBruteForce, "203.0.113.5", now.Add(-30*time.Second)),
		storedAlert(t, core.AlertMalwareDetection, "203.0.113.5", now.Add(-45*time.Second)),
	}
	require.NoError(t, stores.alerts.InsertAlerts(ctx, recent))

	correlated, err := engine.Correlate(ctx)
	require.NoError(t, err)
	require.Len(t, correlated, 1)

	assert.Equal(t, core.AlertCorrelatedAttack, correlated[0].Type)
	assert.Equal(t, core.SeverityCritical, correlated[0].Severity)
	assert.Equal(t, "203.0.113.5", correlated[0].SourceIP)
	assert.Equal(t, now, correlated[0].Timestamp)
}

func TestCorrelateInsufficientSignals(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	engine, stores := newTestEngine(t, now)
	ctx := context.Background()

	recent := []*core.Alert{
		storedAlert(t, core.AlertBruteForce, "203.0.113.5", now.Add(-90*time.Second)),
		storedAlert(t, core.AlertBruteForce, "203.0.113.5", now.Add(-60*time.Second)),
		storedAlert(t, core.AlertMalwareDetection, "203.0.113.5", now.Add(-45*time.Second)),
	}
	require.NoError(t, stores.alerts.InsertAlerts(ctx, recent))

	correlated, err := engine.Correlate(ctx)
	require.NoError(t, err)
	assert.Empty(t, correlated, "two brute_force alerts are below the pattern minimum")
}

func TestCorrelateRequiresMalwareSignal(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	engine, stores := newTestEngine(t, now)
	ctx := context.Background()

	recent := []*core.Alert{
		storedAlert(t, core.AlertBruteForce, "203.0.113.5", now.Add(-90*time.Second)),
		storedAlert(t, core.AlertBruteForce, "203.0.113.5", now.Add(-60*time.Second)),
		storedAlert(t, core.AlertBruteForce, "203.0.113.5", now.Add(-30*time.Second)),
	}
	require.NoError(t, stores.alerts.InsertAlerts(ctx, recent))

	correlated, err := engine.Correlate(ctx)
	require.NoError(t, err)
	assert.Empty(t, correlated)
}

func TestCorrelateIgnoresSignalsOutsideWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	engine, stores := newTestEngine(t, now)
	ctx := context.Background()

	// The malware signal aged out of the 120 second window.
	recent := []*core.Alert{
		storedAlert(t, core.AlertBruteForce, "203.0.113.5", now.Add(-90*time.Second)),
		storedAlert(t, core.AlertBruteForce, "203.0.113.5", now.Add(-60*time.Second)),
		storedAlert(t, core.AlertBruteForce, "203.0.113.5", now.Add(-30*time.Second)),
		storedAlert(t, core.AlertMalwareDetection, "203.0.113.5", now.Add(-5*time.Minute)),
	}
	require.NoError(t, stores.alerts.InsertAlerts(ctx, recent))

	correlated, err := engine.Correlate(ctx)
	require.NoError(t, err)
	assert.Empty(t, correlated)
}

func TestCorrelateGroupsPerSourceIP(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	engine, stores := newTestEngine(t, now)
	ctx := context.Background()

	// Signals split across two IPs never combine.
	recent := []*core.Alert{
		storedAlert(t, core.AlertBruteForce, "203.0.113.5", now.Add(-90*time.Second)),
		storedAlert(t, core.AlertBruteForce, "203.0.113.5", now.Add(-60*time.Second)),
		storedAlert(t, core.AlertBruteForce, "203.0.113.5", now.Add(-30*time.Second)),
		storedAlert(t, core.AlertMalwareDetection, "198.51.100.9", now.Add(-45*time.Second)),
	}
	require.NoError(t, stores.alerts.InsertAlerts(ctx, recent))

	correlated, err := engine.Correlate(ctx)
	require.NoError(t, err)
	assert.Empty(t, correlated)
}

func TestCorrelateDeduplicates(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	engine, stores := newTestEngine(t, now)
	ctx := context.Background()

	recent := []*core.Alert{
		storedAlert(t, core.AlertBruteForce, "203.0.113.5", now.Add(-90*time.Second)),
		storedAlert(t, core.AlertBruteForce, "203.0.113.5", now.Add(-60*time.Second)),
		storedAlert(t, core.AlertBruteForce, "203.0.113.5", now.Add(-30*time.Second)),
		storedAlert(t, core.AlertMalwareDetection, "203.0.113.5", now.Add(-45*time.Second)),
	}
	require.NoError(t, stores.alerts.InsertAlerts(ctx, recent))

	first, err := engine.Correlate(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.NoError(t, stores.alerts.InsertAlerts(ctx, first))

	second, err := engine.Correlate(ctx)
	require.NoError(t, err)
	assert.Empty(t, second, "committed correlated_attack suppresses re-escalation")
}
